package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"productprose/backend/internal/features/description/domain"
)

var testStage = domain.StageConfig{
	ModelID:        "ibm/granite-13b-instruct-v2",
	DecodingMethod: domain.DecodingGreedy,
	MinNewTokens:   50,
	MaxNewTokens:   200,
	StopSequences:  []string{"\n"},
}

type fakeWatsonx struct {
	tokenCalls    atomic.Int32
	generateCalls atomic.Int32
	lastRequest   watsonxGenerateRequest
	generateCode  int
	generateBody  string
}

func (f *fakeWatsonx) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, watsonxGrantType, r.PostForm.Get("grant_type"))
		if r.PostForm.Get("apikey") != "good-key" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"errorCode":"BXNIM0415E","errorMessage":"Provided API key could not be found."}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok-1",
			"expires_in":   3600,
			"expiration":   time.Now().Add(time.Hour).Unix(),
		})
	})
	mux.HandleFunc("/ml/v1/text/generation", func(w http.ResponseWriter, r *http.Request) {
		f.generateCalls.Add(1)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, watsonxAPIVersion, r.URL.Query().Get("version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastRequest))

		w.Header().Set("Content-Type", "application/json")
		if f.generateCode != 0 {
			w.WriteHeader(f.generateCode)
			w.Write([]byte(f.generateBody))
			return
		}
		w.Write([]byte(`{"model_id":"ibm/granite-13b-instruct-v2","results":[{"generated_text":"A lamp that lights.","generated_token_count":5,"stop_reason":"stop_sequence"}]}`))
	})
	return mux
}

func newTestWatsonx(t *testing.T, fake *fakeWatsonx, apiKey string) *WatsonxFactory {
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	f, err := NewWatsonxFactory(AIConfig{
		APIKey:    apiKey,
		ProjectID: "proj-42",
		BaseURL:   server.URL,
		IAMURL:    server.URL,
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)
	return f
}

func TestWatsonx_GenerateText(t *testing.T) {
	fake := &fakeWatsonx{}
	f := newTestWatsonx(t, fake, "good-key")

	model, err := f.NewModel(context.Background(), testStage)
	require.NoError(t, err)

	text, err := model.GenerateText(context.Background(), "describe the lamp")
	require.NoError(t, err)
	assert.Equal(t, "A lamp that lights.", text)

	req := fake.lastRequest
	assert.Equal(t, "ibm/granite-13b-instruct-v2", req.ModelID)
	assert.Equal(t, "describe the lamp", req.Input)
	assert.Equal(t, "proj-42", req.ProjectID)
	assert.Equal(t, "greedy", req.Parameters.DecodingMethod)
	assert.Equal(t, 50, req.Parameters.MinNewTokens)
	assert.Equal(t, 200, req.Parameters.MaxNewTokens)
	assert.Equal(t, []string{"\n"}, req.Parameters.StopSequences)
}

func TestWatsonx_TokenIsReused(t *testing.T) {
	fake := &fakeWatsonx{}
	f := newTestWatsonx(t, fake, "good-key")

	for i := 0; i < 3; i++ {
		model, err := f.NewModel(context.Background(), testStage)
		require.NoError(t, err)
		_, err = model.GenerateText(context.Background(), "p")
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), fake.tokenCalls.Load())
	assert.Equal(t, int32(3), fake.generateCalls.Load())
}

func TestWatsonx_BadAPIKey(t *testing.T) {
	fake := &fakeWatsonx{}
	f := newTestWatsonx(t, fake, "bad-key")

	model, err := f.NewModel(context.Background(), testStage)
	require.NoError(t, err)

	_, err = model.GenerateText(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Provided API key could not be found.")
	assert.Equal(t, int32(0), fake.generateCalls.Load())
}

func TestWatsonx_ServiceError(t *testing.T) {
	fake := &fakeWatsonx{
		generateCode: http.StatusNotFound,
		generateBody: `{"errors":[{"code":"model_not_supported","message":"Model 'x' is not supported"}],"status_code":404}`,
	}
	f := newTestWatsonx(t, fake, "good-key")

	model, err := f.NewModel(context.Background(), testStage)
	require.NoError(t, err)

	_, err = model.GenerateText(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "Model 'x' is not supported")
	assert.Equal(t, int32(1), fake.generateCalls.Load(), "no retry expected")
}

func TestWatsonx_EmptyResults(t *testing.T) {
	fake := &fakeWatsonx{generateCode: http.StatusOK, generateBody: `{"results":[]}`}
	f := newTestWatsonx(t, fake, "good-key")

	model, err := f.NewModel(context.Background(), testStage)
	require.NoError(t, err)

	_, err = model.GenerateText(context.Background(), "p")
	assert.EqualError(t, err, "watsonx returned no results")
}

func TestNewWatsonxFactory_RequiresCredentials(t *testing.T) {
	_, err := NewWatsonxFactory(AIConfig{ProjectID: "p"})
	assert.Error(t, err)

	_, err = NewWatsonxFactory(AIConfig{APIKey: "k"})
	assert.Error(t, err)

	f, err := NewWatsonxFactory(AIConfig{APIKey: "k", ProjectID: "p"})
	require.NoError(t, err)
	assert.Equal(t, DefaultWatsonxURL, f.baseURL)
	assert.Equal(t, DefaultIAMURL, f.iamURL)
}
