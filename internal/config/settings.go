package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	description "productprose/backend/internal/features/description/domain"
	"productprose/backend/internal/features/description/infrastructure"
)

// Settings are the process settings read from the environment.
type Settings struct {
	// HTTP listen address, e.g. ":8080"
	Address       string `env:"ADDRESS" envDefault:":8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	AppConfigPath string `env:"APP_CONFIG_PATH" envDefault:"config/app_config.json"`

	Provider string `env:"LLM_PROVIDER" envDefault:"watsonx"`

	WatsonxAPIKey    string `env:"WATSONX_API_KEY"`
	WatsonxProjectID string `env:"WATSONX_PROJECT_ID"`
	WatsonxURL       string `env:"WATSONX_URL" envDefault:"https://us-south.ml.cloud.ibm.com"`
	WatsonxIAMURL    string `env:"WATSONX_IAM_URL" envDefault:"https://iam.cloud.ibm.com"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`

	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"2h"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT" envDefault:"120s"`
}

// Load loads .env (if present) and parses environment variables into Settings.
func Load() (Settings, error) {
	// Load .env if available; ignore error if file does not exist
	_ = godotenv.Load()
	return parse(env.Options{})
}

// LoadFrom parses Settings from environ instead of the process environment.
func LoadFrom(environ map[string]string) (Settings, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (Settings, error) {
	var s Settings
	if err := env.ParseWithOptions(&s, opts); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	s.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
	switch s.Provider {
	case infrastructure.ProviderWatsonx, infrastructure.ProviderOpenAI, infrastructure.ProviderGemini:
	default:
		return Settings{}, fmt.Errorf("parse env: unsupported LLM_PROVIDER %q", s.Provider)
	}
	return s, nil
}

// CredentialsError reports which credentials the selected provider is missing,
// or nil when they are all set.
func (s Settings) CredentialsError() error {
	var missing []string
	switch s.Provider {
	case infrastructure.ProviderOpenAI:
		if s.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case infrastructure.ProviderGemini:
		if s.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	default:
		if s.WatsonxAPIKey == "" {
			missing = append(missing, "WATSONX_API_KEY")
		}
		if s.WatsonxProjectID == "" {
			missing = append(missing, "WATSONX_PROJECT_ID")
		}
	}
	if len(missing) > 0 {
		return description.NewCredentialsMissingError(missing...)
	}
	return nil
}

// AIConfig returns the client configuration for the selected provider.
func (s Settings) AIConfig() infrastructure.AIConfig {
	cfg := infrastructure.AIConfig{Provider: s.Provider, Timeout: s.HTTPTimeout}
	switch s.Provider {
	case infrastructure.ProviderOpenAI:
		cfg.APIKey = s.OpenAIAPIKey
		cfg.BaseURL = s.OpenAIBaseURL
	case infrastructure.ProviderGemini:
		cfg.APIKey = s.GeminiAPIKey
	default:
		cfg.APIKey = s.WatsonxAPIKey
		cfg.ProjectID = s.WatsonxProjectID
		cfg.BaseURL = s.WatsonxURL
		cfg.IAMURL = s.WatsonxIAMURL
	}
	return cfg
}
