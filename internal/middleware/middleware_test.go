package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"productprose/backend/internal/features/description/domain"
	"productprose/backend/internal/metrics"
)

func performRequest(r http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	for k := range header {
		req.Header.Set(k, header.Get(k))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	reg := metrics.NewRegistry()
	r := gin.New()
	r.Use(RequestLogger(reg))

	var ctxLogged bool
	r.GET("/api/sessions/:id", func(c *gin.Context) {
		log.Ctx(c.Request.Context()).Info().Msg("inside handler")
		ctxLogged = true
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	r.GET("/boom", func(c *gin.Context) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream"})
	})

	w := performRequest(r, http.MethodGet, "/api/sessions/abc", http.Header{"X-Request-Id": {"req-1"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	assert.True(t, ctxLogged)
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), "inside handler")

	w = performRequest(r, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), "http request failed")

	performRequest(r, http.MethodGet, "/nowhere", nil)

	assert.Equal(t, int64(1), reg.Value("http_requests_total", map[string]string{"method": "GET", "path": "/api/sessions/:id", "status": "2xx"}))
	assert.Equal(t, int64(1), reg.Value("http_requests_errors_total", map[string]string{"method": "GET", "path": "/boom", "status": "5xx"}))
	assert.Equal(t, int64(1), reg.Value("http_requests_total", map[string]string{"method": "GET", "path": "unmatched", "status": "4xx"}))
}

func TestRequireCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := func(c *gin.Context) { c.String(http.StatusOK, "ok") }

	open := gin.New()
	open.GET("/x", RequireCredentials(nil), handler)
	w := performRequest(open, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	closed := gin.New()
	closed.GET("/x", RequireCredentials(domain.NewCredentialsMissingError("WATSONX_API_KEY")), handler)
	w = performRequest(closed, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "WATSONX_API_KEY")
	assert.NotContains(t, w.Body.String(), "ok")
}
