package handlers

import (
	"net/http"

	"directed/internal/config"
	"directed/internal/models"
	"directed/internal/observability"
	"directed/internal/serviceinterfaces"
	contextutils "directed/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// InvokeInput is the chain-style request body
type InvokeInput struct {
	Request      *string `json:"request" binding:"required"`
	UserID       string  `json:"user_id"`
	IsInstructor bool    `json:"is_instructor"`
}

// InvokeRequest wraps InvokeInput the way chain clients send it
type InvokeRequest struct {
	Input InvokeInput `json:"input" binding:"required"`
}

// AnalyticsResponse is a learner's profile keyed by user
type AnalyticsResponse struct {
	UserID           string   `json:"user_id"`
	CompletedQuizzes []string `json:"completed_quizzes"`
	StrugglingTopics []string `json:"struggling_topics"`
}

// AssistantHandler serves the conversational endpoints
type AssistantHandler struct {
	assistant serviceinterfaces.AssistantRunner
	adaptive  serviceinterfaces.AdaptiveLearner
	profiles  serviceinterfaces.ProfileStore
	// sessionStore gives each chain invocation its own throwaway profile
	sessionStore func() serviceinterfaces.ProfileStore
	cfg          *config.Config
	logger       *observability.Logger
}

// NewAssistantHandler creates a new AssistantHandler
func NewAssistantHandler(
	assistant serviceinterfaces.AssistantRunner,
	adaptive serviceinterfaces.AdaptiveLearner,
	profiles serviceinterfaces.ProfileStore,
	sessionStore func() serviceinterfaces.ProfileStore,
	cfg *config.Config,
	logger *observability.Logger,
) *AssistantHandler {
	return &AssistantHandler{
		assistant:    assistant,
		adaptive:     adaptive,
		profiles:     profiles,
		sessionStore: sessionStore,
		cfg:          cfg,
		logger:       logger,
	}
}

// Root reports that the service is up
func (h *AssistantHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "DirectEd API is running. Visit /docs or /assistant/playground"})
}

// Chat handles POST /api/assistant/chat
func (h *AssistantHandler) Chat(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "chat")
	defer span.End()

	var req models.AssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	span.SetAttributes(
		observability.AttributeUserID(req.UserID),
		observability.AttributeInstructor(req.IsInstructor),
	)

	result := h.assistant.Run(contextutils.WithUserID(ctx, req.UserID), *req.RequestText, req.UserID, h.profiles, req.IsInstructor)
	if result.Failed() {
		h.writeExecutionFailure(c, span, result.Failure)
		return
	}

	c.JSON(http.StatusOK, result.Response)
}

// Invoke handles POST /assistant/invoke. Each call starts from an empty profile.
func (h *AssistantHandler) Invoke(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "invoke")
	defer span.End()

	var req InvokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	userID := req.Input.UserID
	if userID == "" {
		userID = "anonymous"
	}
	span.SetAttributes(observability.AttributeUserID(userID))

	var store serviceinterfaces.ProfileStore
	if h.sessionStore != nil {
		store = h.sessionStore()
	}

	result := h.assistant.Run(contextutils.WithUserID(ctx, userID), *req.Input.Request, userID, store, req.Input.IsInstructor)
	c.JSON(http.StatusOK, gin.H{"output": result})
}

// Analytics handles GET /analytics/:user_id
func (h *AssistantHandler) Analytics(c *gin.Context) {
	userID := c.Param("user_id")
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "analytics", observability.AttributeUserID(userID))
	defer span.End()

	if !contextutils.IsValidUserID(userID) {
		HandleAppError(c, contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn, "Invalid user_id", userID))
		return
	}

	profile, err := h.profiles.GetProfile(ctx, userID)
	if err != nil {
		observability.RecordSpanError(span, err)
		h.logger.Error(ctx, "Failed to fetch analytics", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, contextutils.WrapError(err, "Failed to fetch analytics"))
		return
	}

	c.JSON(http.StatusOK, AnalyticsResponse{
		UserID:           userID,
		CompletedQuizzes: profile.CompletedQuizzes,
		StrugglingTopics: profile.StrugglingTopics,
	})
}

// AdaptiveLearning handles POST /api/assistant/adaptive_learning?user_id=
func (h *AssistantHandler) AdaptiveLearning(c *gin.Context) {
	userID := c.Query("user_id")
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "adaptive_learning", observability.AttributeUserID(userID))
	defer span.End()

	if userID == "" {
		HandleAppError(c, contextutils.NewAppError(contextutils.ErrorCodeMissingRequired, contextutils.SeverityWarn, "Missing required field", "user_id query parameter is required"))
		return
	}

	result, err := h.adaptive.Next(contextutils.WithUserID(ctx, userID), userID)
	if err != nil {
		observability.RecordSpanError(span, err)
		h.logger.Error(ctx, "Adaptive learning failed", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, err)
		return
	}
	if result.Failed() {
		h.writeExecutionFailure(c, span, result.Failure)
		return
	}

	c.JSON(http.StatusOK, result.Response)
}

func (h *AssistantHandler) writeExecutionFailure(c *gin.Context, span trace.Span, failure *models.ExecutionFailure) {
	appErr := contextutils.NewAppError(
		contextutils.ErrorCodeExecutionFailed,
		contextutils.SeverityError,
		"An internal error occurred",
		failure.Details,
	).WithData(map[string]interface{}{"error": failure.Error, "details": failure.Details})
	observability.RecordSpanError(span, appErr)
	HandleAppError(c, appErr)
}
