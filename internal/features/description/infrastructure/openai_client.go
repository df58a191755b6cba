package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"productprose/backend/internal/features/description/domain"
)

// OpenAIFactory creates chat-completion handles for OpenAI-compatible APIs.
type OpenAIFactory struct {
	apiKey  string
	baseURL string
	timeout time.Duration
}

// NewOpenAIFactory requires an API key; BaseURL is optional.
func NewOpenAIFactory(cfg AIConfig) (*OpenAIFactory, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &OpenAIFactory{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, timeout: cfg.Timeout}, nil
}

func (f *OpenAIFactory) Provider() string { return ProviderOpenAI }

// NewModel builds a new client for every handle.
func (f *OpenAIFactory) NewModel(ctx context.Context, cfg domain.StageConfig) (TextGenerator, error) {
	model := cfg.OpenAIModel
	if model == "" {
		model = cfg.ModelID
	}
	if model == "" {
		return nil, errors.New("stage config has no model id")
	}

	clientCfg := openai.DefaultConfig(f.apiKey)
	if f.baseURL != "" {
		clientCfg.BaseURL = f.baseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: f.timeout}

	return &openAIModel{client: openai.NewClientWithConfig(clientCfg), model: model, cfg: cfg}, nil
}

type openAIModel struct {
	client *openai.Client
	model  string
	cfg    domain.StageConfig
}

// GenerateText sends prompt as a single user message.
func (m *openAIModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: m.cfg.MaxNewTokens,
		Stop:      m.cfg.StopSequences,
	}
	if m.cfg.DecodingMethod == domain.DecodingGreedy {
		// temperature is omitempty, so 0 would fall back to the server default
		req.Temperature = math.SmallestNonzeroFloat32
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
