package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"productprose/backend/internal/features/description/domain"
)

// GeminiFactory creates Gemini handles. Each GenerateText call opens and
// closes its own genai client.
type GeminiFactory struct {
	apiKey   string
	endpoint string
}

// NewGeminiFactory requires an API key.
func NewGeminiFactory(cfg AIConfig) (*GeminiFactory, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}
	return &GeminiFactory{apiKey: cfg.APIKey, endpoint: cfg.BaseURL}, nil
}

func (f *GeminiFactory) Provider() string { return ProviderGemini }

func (f *GeminiFactory) NewModel(ctx context.Context, cfg domain.StageConfig) (TextGenerator, error) {
	model := cfg.GeminiModel
	if model == "" {
		model = cfg.ModelID
	}
	if model == "" {
		return nil, errors.New("stage config has no model id")
	}
	return &geminiModel{factory: f, model: model, cfg: cfg}, nil
}

type geminiModel struct {
	factory *GeminiFactory
	model   string
	cfg     domain.StageConfig
}

func (m *geminiModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	opts := []option.ClientOption{option.WithAPIKey(m.factory.apiKey)}
	if m.factory.endpoint != "" {
		opts = append(opts, option.WithEndpoint(m.factory.endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("creating gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(m.model)
	if m.cfg.DecodingMethod == domain.DecodingGreedy {
		model.SetTemperature(0)
	}
	if m.cfg.MaxNewTokens > 0 {
		model.SetMaxOutputTokens(int32(m.cfg.MaxNewTokens))
	}
	model.StopSequences = m.cfg.StopSequences

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate content failed: %w", err)
	}
	return candidateText(resp)
}

func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}
