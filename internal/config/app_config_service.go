package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"productprose/backend/internal/features/config/domain"
	description "productprose/backend/internal/features/description/domain"
)

// AppConfigService defines the interface for application configuration access.
type AppConfigService interface {
	LoadAppConfig() (*domain.AppConfig, error)
}

// appConfigService is the implementation of AppConfigService.
// The configuration is read once and never changes afterwards.
type appConfigService struct {
	configPath string

	once   sync.Once
	config *domain.AppConfig
	err    error
}

// NewAppConfigService creates a new instance of appConfigService.
func NewAppConfigService(configPath string) AppConfigService {
	return &appConfigService{configPath: configPath}
}

// LoadAppConfig returns the built-in defaults overlaid with the JSON file at
// the configured path. A missing file is not an error.
func (s *appConfigService) LoadAppConfig() (*domain.AppConfig, error) {
	s.once.Do(func() {
		s.config, s.err = s.load()
	})
	if s.err != nil {
		return nil, s.err
	}
	return s.config, nil
}

func (s *appConfigService) load() (*domain.AppConfig, error) {
	appConfig := domain.DefaultAppConfig()
	if s.configPath == "" {
		return appConfig, nil
	}

	absPath, err := filepath.Abs(s.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", s.configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().Str("path", absPath).Msg("app config file not found, using built-in defaults")
		return appConfig, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read app config file %s: %w", absPath, err)
	}

	if err := json.Unmarshal(data, appConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal app config from %s: %w", absPath, err)
	}
	if err := mergeStages(appConfig, data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stages from %s: %w", absPath, err)
	}
	if err := validateAppConfig(appConfig); err != nil {
		return nil, fmt.Errorf("invalid app config %s: %w", absPath, err)
	}

	log.Info().Str("path", absPath).Int("stages", len(appConfig.Stages)).Msg("app config loaded")
	return appConfig, nil
}

// mergeStages decodes each stage entry of the file over that stage's built-in
// config, so an entry only needs the fields it changes.
func mergeStages(appConfig *domain.AppConfig, data []byte) error {
	var file struct {
		Stages map[description.Stage]json.RawMessage `json:"stages"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}
	defaults := domain.DefaultAppConfig().Stages
	for stage, raw := range file.Stages {
		sc := defaults[stage]
		if err := json.Unmarshal(raw, &sc); err != nil {
			return fmt.Errorf("stage %s: %w", stage, err)
		}
		appConfig.Stages[stage] = sc
	}
	return nil
}

func validateAppConfig(c *domain.AppConfig) error {
	for _, stage := range description.Stages() {
		sc, ok := c.Stages[stage]
		if !ok {
			return fmt.Errorf("stage %s is not configured", stage)
		}
		if sc.ModelID == "" {
			return fmt.Errorf("stage %s: model_id is required", stage)
		}
		if sc.DecodingMethod != description.DecodingGreedy && sc.DecodingMethod != description.DecodingSample {
			return fmt.Errorf("stage %s: unknown decoding_method %q", stage, sc.DecodingMethod)
		}
		if sc.MinNewTokens < 0 || sc.MaxNewTokens < sc.MinNewTokens {
			return fmt.Errorf("stage %s: token bounds %d..%d are invalid", stage, sc.MinNewTokens, sc.MaxNewTokens)
		}
	}
	for i, lang := range c.Languages {
		canonical, ok := description.ParseLanguage(string(lang))
		if !ok {
			return fmt.Errorf("unsupported language %q", lang)
		}
		c.Languages[i] = canonical
	}
	if len(c.Tones) > 0 && !slices.Contains(c.Tones, c.DefaultTone) {
		return fmt.Errorf("default_tone %q is not one of the tones", c.DefaultTone)
	}
	if c.DefaultRating < description.MinRating || c.DefaultRating > description.MaxRating {
		return fmt.Errorf("default_rating %d is outside %d..%d", c.DefaultRating, description.MinRating, description.MaxRating)
	}
	return nil
}
