package http

import (
	"github.com/gin-gonic/gin"

	"productprose/backend/internal/middleware"
)

// RegisterRoutes mounts the page and the session API. When credErr is
// non-nil the page shows only that error and every session route answers 503
// without reaching h, which may then be nil.
func RegisterRoutes(r *gin.Engine, h *DescriptionHandler, credErr error) error {
	tmpl, err := PageTemplate()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)
	r.GET("/", IndexHandler(credErr))

	sessions := r.Group("/api/sessions", middleware.RequireCredentials(credErr))
	{
		sessions.POST("", h.CreateSessionHandler)
		sessions.GET("/:id", h.GetSessionHandler)
		sessions.DELETE("/:id", h.ResetSessionHandler)
		sessions.POST("/:id/generate", h.GenerateHandler)
		sessions.POST("/:id/translate", h.TranslateHandler)
		sessions.POST("/:id/customize", h.CustomizeHandler)
		sessions.POST("/:id/feedback", h.FeedbackHandler)
	}
	return nil
}
