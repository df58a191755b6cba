package infrastructure

import (
	"context"
	"fmt"
	"time"

	"productprose/backend/internal/features/description/domain"
)

// Supported providers.
const (
	ProviderWatsonx = "watsonx"
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
)

// TextGenerator is a model-inference handle bound to one stage configuration.
type TextGenerator interface {
	// GenerateText sends prompt to the model and returns the completion text.
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ModelFactory creates inference handles. The orchestrator asks for a fresh
// handle on every stage invocation.
type ModelFactory interface {
	NewModel(ctx context.Context, cfg domain.StageConfig) (TextGenerator, error)
	Provider() string
}

// AIConfig holds configuration for AI clients
type AIConfig struct {
	Provider  string        `json:"provider"` // "watsonx", "openai", "gemini"
	APIKey    string        `json:"api_key"`
	ProjectID string        `json:"project_id,omitempty"` // watsonx only
	BaseURL   string        `json:"base_url,omitempty"`
	IAMURL    string        `json:"iam_url,omitempty"` // watsonx only
	Timeout   time.Duration `json:"timeout,omitempty"`
}

// NewModelFactory creates the factory for cfg.Provider.
func NewModelFactory(cfg AIConfig) (ModelFactory, error) {
	var (
		factory ModelFactory
		err     error
	)
	switch cfg.Provider {
	case ProviderWatsonx, "":
		factory, err = NewWatsonxFactory(cfg)
	case ProviderOpenAI:
		factory, err = NewOpenAIFactory(cfg)
	case ProviderGemini:
		factory, err = NewGeminiFactory(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return factory, nil
}
