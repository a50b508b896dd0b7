package handlers

import (
	"net/http"

	"directed/internal/models"
	"directed/internal/observability"
	"directed/internal/serviceinterfaces"

	"github.com/gin-gonic/gin"
)

// PipelineHandler serves the sequential learning pipeline
type PipelineHandler struct {
	pipeline serviceinterfaces.PipelineRunner
	logger   *observability.Logger
}

// NewPipelineHandler creates a new PipelineHandler
func NewPipelineHandler(pipeline serviceinterfaces.PipelineRunner, logger *observability.Logger) *PipelineHandler {
	return &PipelineHandler{pipeline: pipeline, logger: logger}
}

// Run handles POST /api/assistant/pipeline
func (h *PipelineHandler) Run(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "pipeline")
	defer span.End()

	var input models.PipelineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		HandleBindError(c, err)
		return
	}
	span.SetAttributes(observability.AttributeTopic(input.Topic))

	result, err := h.pipeline.Run(ctx, input)
	if err != nil {
		observability.RecordSpanError(span, err)
		h.logger.Warn(ctx, "Learning pipeline failed", map[string]interface{}{"error": err.Error(), "topic": input.Topic})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
