package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"productprose/backend/internal/features/description/domain"
)

const (
	DefaultWatsonxURL = "https://us-south.ml.cloud.ibm.com"
	DefaultIAMURL     = "https://iam.cloud.ibm.com"

	watsonxAPIVersion  = "2023-05-29"
	watsonxGrantType   = "urn:ibm:params:oauth:grant-type:apikey"
	tokenRefreshLeeway = 60 * time.Second
)

// WatsonxFactory creates watsonx.ai text-generation handles. The IAM bearer
// token is shared between handles and refreshed shortly before it expires.
type WatsonxFactory struct {
	client    *resty.Client
	baseURL   string
	iamURL    string
	apiKey    string
	projectID string

	tokenMu     sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewWatsonxFactory requires an API key and a project id.
func NewWatsonxFactory(cfg AIConfig) (*WatsonxFactory, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("watsonx api key is empty")
	}
	if cfg.ProjectID == "" {
		return nil, errors.New("watsonx project id is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultWatsonxURL
	}
	if cfg.IAMURL == "" {
		cfg.IAMURL = DefaultIAMURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &WatsonxFactory{
		client:    client,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		iamURL:    strings.TrimRight(cfg.IAMURL, "/"),
		apiKey:    cfg.APIKey,
		projectID: cfg.ProjectID,
	}, nil
}

func (f *WatsonxFactory) Provider() string { return ProviderWatsonx }

// NewModel returns a handle bound to cfg.
func (f *WatsonxFactory) NewModel(ctx context.Context, cfg domain.StageConfig) (TextGenerator, error) {
	if cfg.ModelID == "" {
		return nil, errors.New("stage config has no model id")
	}
	return &watsonxModel{factory: f, cfg: cfg}, nil
}

type iamTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	Expiration  int64  `json:"expiration"`
}

type iamErrorResponse struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// token returns a valid bearer token, fetching a new one when needed.
func (f *WatsonxFactory) token(ctx context.Context) (string, error) {
	f.tokenMu.Lock()
	defer f.tokenMu.Unlock()

	if f.accessToken != "" && time.Now().Add(tokenRefreshLeeway).Before(f.tokenExpiry) {
		return f.accessToken, nil
	}

	var out iamTokenResponse
	var apiErr iamErrorResponse
	resp, err := f.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type": watsonxGrantType,
			"apikey":     f.apiKey,
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post(f.iamURL + "/identity/token")
	if err != nil {
		return "", fmt.Errorf("requesting IAM token: %w", err)
	}
	if resp.IsError() {
		msg := apiErr.ErrorMessage
		if msg == "" {
			msg = resp.String()
		}
		return "", fmt.Errorf("IAM token request returned status %d: %s", resp.StatusCode(), msg)
	}
	if out.AccessToken == "" {
		return "", errors.New("IAM token response has no access_token")
	}

	f.accessToken = out.AccessToken
	switch {
	case out.Expiration > 0:
		f.tokenExpiry = time.Unix(out.Expiration, 0)
	case out.ExpiresIn > 0:
		f.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	default:
		f.tokenExpiry = time.Now().Add(tokenRefreshLeeway)
	}
	log.Ctx(ctx).Debug().Time("expires_at", f.tokenExpiry).Msg("watsonx IAM token refreshed")
	return f.accessToken, nil
}

type watsonxModel struct {
	factory *WatsonxFactory
	cfg     domain.StageConfig
}

type watsonxParameters struct {
	DecodingMethod string   `json:"decoding_method,omitempty"`
	MinNewTokens   int      `json:"min_new_tokens,omitempty"`
	MaxNewTokens   int      `json:"max_new_tokens,omitempty"`
	StopSequences  []string `json:"stop_sequences,omitempty"`
}

type watsonxGenerateRequest struct {
	ModelID    string            `json:"model_id"`
	Input      string            `json:"input"`
	ProjectID  string            `json:"project_id"`
	Parameters watsonxParameters `json:"parameters"`
}

type watsonxGenerateResponse struct {
	ModelID string `json:"model_id"`
	Results []struct {
		GeneratedText       string `json:"generated_text"`
		GeneratedTokenCount int    `json:"generated_token_count"`
		InputTokenCount     int    `json:"input_token_count"`
		StopReason          string `json:"stop_reason"`
	} `json:"results"`
}

type watsonxErrorResponse struct {
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	StatusCode int `json:"status_code"`
}

func (e watsonxErrorResponse) message() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		msgs = append(msgs, item.Message)
	}
	return strings.Join(msgs, "; ")
}

// GenerateText calls the watsonx.ai text generation endpoint once.
func (m *watsonxModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	token, err := m.factory.token(ctx)
	if err != nil {
		return "", err
	}

	body := watsonxGenerateRequest{
		ModelID:   m.cfg.ModelID,
		Input:     prompt,
		ProjectID: m.factory.projectID,
		Parameters: watsonxParameters{
			DecodingMethod: string(m.cfg.DecodingMethod),
			MinNewTokens:   m.cfg.MinNewTokens,
			MaxNewTokens:   m.cfg.MaxNewTokens,
			StopSequences:  m.cfg.StopSequences,
		},
	}

	var out watsonxGenerateResponse
	var apiErr watsonxErrorResponse
	resp, err := m.factory.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("version", watsonxAPIVersion).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post(m.factory.baseURL + "/ml/v1/text/generation")
	if err != nil {
		return "", fmt.Errorf("calling watsonx: %w", err)
	}
	if resp.IsError() {
		msg := apiErr.message()
		if msg == "" {
			msg = resp.String()
		}
		return "", fmt.Errorf("watsonx returned status %d: %s", resp.StatusCode(), msg)
	}
	if len(out.Results) == 0 {
		return "", errors.New("watsonx returned no results")
	}
	return out.Results[0].GeneratedText, nil
}
