package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"productprose/backend/internal/features/description/application"
	"productprose/backend/internal/features/description/domain"
)

// DescriptionHandler holds the description service.
type DescriptionHandler struct {
	descriptionService application.DescriptionService
}

// NewDescriptionHandler creates a new DescriptionHandler.
func NewDescriptionHandler(descriptionService application.DescriptionService) *DescriptionHandler {
	return &DescriptionHandler{descriptionService: descriptionService}
}

// CreateSessionHandler starts a new session with empty state.
func (h *DescriptionHandler) CreateSessionHandler(c *gin.Context) {
	session, err := h.descriptionService.StartSession(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// GetSessionHandler returns a snapshot of the session.
func (h *DescriptionHandler) GetSessionHandler(c *gin.Context) {
	session, err := h.descriptionService.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// ResetSessionHandler clears every field of the session.
func (h *DescriptionHandler) ResetSessionHandler(c *gin.Context) {
	session, err := h.descriptionService.ResetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// GenerateHandler handles the request to generate a product description.
func (h *DescriptionHandler) GenerateHandler(c *gin.Context) {
	var req domain.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.descriptionService.Generate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// TranslateHandler handles the request to translate the generated description.
func (h *DescriptionHandler) TranslateHandler(c *gin.Context) {
	var req domain.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.descriptionService.Translate(c.Request.Context(), c.Param("id"), domain.Language(req.TargetLanguage))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CustomizeHandler handles the request to customize the generated description.
func (h *DescriptionHandler) CustomizeHandler(c *gin.Context) {
	var req domain.CustomizeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.descriptionService.Customize(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// FeedbackHandler records the user's rating and comments.
func (h *DescriptionHandler) FeedbackHandler(c *gin.Context) {
	var req domain.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.descriptionService.SubmitFeedback(c.Request.Context(), c.Param("id"), req.Rating, req.Comments)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Thank you for your feedback!",
		"session": session,
	})
}

// writeError maps pipeline errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	var se *domain.StageError
	if !errors.As(err, &se) {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("unexpected pipeline error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch se.Kind {
	case domain.ErrorKindMissingInput:
		status = http.StatusUnprocessableEntity
	case domain.ErrorKindMissingPrecondition:
		status = http.StatusConflict
	case domain.ErrorKindRemoteCallFailure:
		status = http.StatusBadGateway
	case domain.ErrorKindCredentialsMissing:
		status = http.StatusServiceUnavailable
	}

	body := gin.H{"error": se.Error(), "kind": se.Kind.String()}
	if se.Stage != "" {
		body["stage"] = se.Stage
	}
	if len(se.Fields) > 0 {
		body["fields"] = se.Fields
	}
	c.JSON(status, body)
}
