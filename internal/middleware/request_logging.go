package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"productprose/backend/internal/metrics"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestLogger returns middleware that logs requests using zerolog
// and updates OpenTelemetry-backed counters.
func RequestLogger(reg *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		req := c.Request
		rid := req.Header.Get(RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(RequestIDHeader, rid)

		// Attach request-scoped logger
		logger := log.With().
			Str("request_id", rid).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", req.UserAgent()).
			Logger()
		c.Request = req.WithContext(logger.WithContext(req.Context()))

		c.Next()

		status := c.Writer.Status()
		duration := time.Since(start)

		// Route template keeps session ids out of the label set.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		labels := map[string]string{
			"method": req.Method,
			"path":   path,
			"status": statusClass(status),
		}
		reg.Inc(c.Request.Context(), metrics.HTTPRequests, labels, 1)

		var err error
		if last := c.Errors.Last(); last != nil {
			err = last
		}
		if status >= 500 || err != nil {
			logger.Error().
				Err(err).
				Int("status", status).
				Dur("duration", duration).
				Msg("http request failed")
			reg.Inc(c.Request.Context(), metrics.HTTPRequestErrors, labels, 1)
			return
		}
		logger.Info().
			Int("status", status).
			Dur("duration", duration).
			Msg("http request served")
	}
}

func statusClass(code int) string {
	switch {
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "0"
	}
}
