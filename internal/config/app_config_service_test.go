package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	description "productprose/backend/internal/features/description/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app_config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppConfig_MissingFileUsesDefaults(t *testing.T) {
	svc := NewAppConfigService(filepath.Join(t.TempDir(), "nope.json"))

	cfg, err := svc.LoadAppConfig()
	require.NoError(t, err)

	assert.Equal(t, "ibm/granite-13b-instruct-v2", cfg.Stages[description.StageGenerate].ModelID)
	assert.Equal(t, "ibm/granite-20b-multilingual", cfg.Stages[description.StageTranslate].ModelID)
	assert.Equal(t, "ibm/granite-13b-chat-v2", cfg.Stages[description.StageCustomize].ModelID)
	assert.Equal(t, []string{"\n"}, cfg.Stages[description.StageGenerate].StopSequences)
	assert.Equal(t, description.ToneFormal, cfg.DefaultTone)
	assert.Equal(t, 3, cfg.DefaultRating)
	assert.Equal(t, "Example Product", cfg.FormDefaults.Product.Name)
	assert.Equal(t, "smart home, intelligent, automation", cfg.FormDefaults.SEOKeywords)
	assert.Len(t, cfg.Languages, 9)
}

func TestLoadAppConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"stages": {
			"translate": {"model_id": "custom/translator", "decoding_method": "sample", "min_new_tokens": 10, "max_new_tokens": 400, "stop_sequences": []}
		},
		"default_rating": 4
	}`)

	cfg, err := NewAppConfigService(path).LoadAppConfig()
	require.NoError(t, err)

	tr := cfg.Stages[description.StageTranslate]
	assert.Equal(t, "custom/translator", tr.ModelID)
	assert.Equal(t, description.DecodingSample, tr.DecodingMethod)
	assert.Equal(t, 400, tr.MaxNewTokens)
	assert.Equal(t, "ibm/granite-13b-instruct-v2", cfg.Stages[description.StageGenerate].ModelID)
	assert.Equal(t, 4, cfg.DefaultRating)
}

func TestLoadAppConfig_LanguagesAreCanonical(t *testing.T) {
	path := writeConfig(t, `{"languages": ["french", "Portugese"]}`)

	cfg, err := NewAppConfigService(path).LoadAppConfig()
	require.NoError(t, err)
	assert.Equal(t, []description.Language{description.LanguageFrench, description.LanguagePortuguese}, cfg.Languages)
}

func TestLoadAppConfig_PartialStageKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `{"stages": {"generate": {"model_id": "x"}}}`)

	cfg, err := NewAppConfigService(path).LoadAppConfig()
	require.NoError(t, err)

	gen := cfg.Stages[description.StageGenerate]
	assert.Equal(t, "x", gen.ModelID)
	assert.Equal(t, description.DecodingGreedy, gen.DecodingMethod)
	assert.Equal(t, 50, gen.MinNewTokens)
	assert.Equal(t, 200, gen.MaxNewTokens)
	assert.Equal(t, []string{"\n"}, gen.StopSequences)
	assert.Equal(t, "ibm/granite-20b-multilingual", cfg.Stages[description.StageTranslate].ModelID)
}

func TestLoadAppConfig_IsReadOnce(t *testing.T) {
	path := writeConfig(t, `{"default_rating": 5}`)
	svc := NewAppConfigService(path)

	first, err := svc.LoadAppConfig()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"default_rating": 1}`), 0o644))
	second, err := svc.LoadAppConfig()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 5, second.DefaultRating)
}

func TestLoadAppConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"stages": `},
		{"empty model id", `{"stages": {"generate": {"model_id": ""}}}`},
		{"bad decoding", `{"stages": {"generate": {"model_id": "m", "decoding_method": "beam", "max_new_tokens": 10}}}`},
		{"inverted token bounds", `{"stages": {"generate": {"model_id": "m", "decoding_method": "greedy", "min_new_tokens": 20, "max_new_tokens": 10}}}`},
		{"unknown language", `{"languages": ["Klingon"]}`},
		{"default tone not listed", `{"tones": ["Casual"], "default_tone": "Formal"}`},
		{"rating out of range", `{"default_rating": 9}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAppConfigService(writeConfig(t, tt.body)).LoadAppConfig()
			assert.Error(t, err)
		})
	}
}
