package handlers

import (
	"net/http"
	"strings"

	"directed/internal/config"
	"directed/internal/models"
	"directed/internal/observability"
	"directed/internal/serviceinterfaces"
	contextutils "directed/internal/utils"

	"github.com/gin-gonic/gin"
)

// ContentGenerateRequest asks for one kind of study material on a subject.
// Omitted num_items and level take the configured defaults.
type ContentGenerateRequest struct {
	UserID      string  `json:"user_id"`
	Subject     string  `json:"subject" binding:"required"`
	RequestType string  `json:"request_type"`
	NumItems    *int    `json:"num_items"`
	Level       *string `json:"level"`
	Notes       string  `json:"notes"`
}

// ContentGenerateResponse echoes the subject with the generated content
type ContentGenerateResponse struct {
	Subject string      `json:"subject"`
	Content interface{} `json:"content"`
}

// ContentHandler serves explicit content generation
type ContentHandler struct {
	content serviceinterfaces.ContentService
	cfg     *config.Config
	logger  *observability.Logger
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(content serviceinterfaces.ContentService, cfg *config.Config, logger *observability.Logger) *ContentHandler {
	return &ContentHandler{content: content, cfg: cfg, logger: logger}
}

// Generate handles POST /api/assistant/content/generate
func (h *ContentHandler) Generate(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "generate_content")
	defer span.End()

	var req ContentGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}

	requestType := req.RequestType
	if requestType == "" {
		requestType = string(models.ContentTypeQuiz)
	}
	contentType, ok := models.ParseContentType(requestType)
	if !ok {
		HandleAppError(c, contextutils.ErrInvalidContentType)
		return
	}

	numItems := h.cfg.Content.DefaultNumItems
	if req.NumItems != nil {
		numItems = *req.NumItems
	}
	level := h.cfg.Content.DefaultLevel
	if req.Level != nil {
		level = *req.Level
	}

	if msgs := contextutils.ValidateStruct(models.ContentRequest{
		Type:     contentType,
		Topic:    req.Subject,
		NumItems: numItems,
		Level:    level,
		Notes:    req.Notes,
	}); msgs != nil {
		HandleAppError(c, contextutils.NewAppError(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request",
			strings.Join(msgs, "; "),
		).WithData(map[string]interface{}{"errors": msgs}))
		return
	}

	span.SetAttributes(
		observability.AttributeContentType(contentType),
		observability.AttributeTopic(req.Subject),
		observability.AttributeNumItems(numItems),
		observability.AttributeLevel(level),
	)

	var (
		content interface{}
		err     error
	)
	switch contentType {
	case models.ContentTypeQuiz:
		content, err = h.content.GenerateQuiz(ctx, req.Subject, numItems, level, req.Notes)
	case models.ContentTypeFlashcards:
		content, err = h.content.GenerateFlashcards(ctx, req.Subject, numItems, level, req.Notes)
	default:
		content, err = h.content.GeneratePractice(ctx, req.Subject, numItems, level, req.Notes)
	}
	if err != nil {
		observability.RecordSpanError(span, err)
		h.logger.Error(ctx, "Content generation failed", err, map[string]interface{}{
			"user_id":      req.UserID,
			"content_type": string(contentType),
			"subject":      req.Subject,
		})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, ContentGenerateResponse{Subject: req.Subject, Content: content})
}
