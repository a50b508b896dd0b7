package services

import (
	"context"
	"fmt"

	"directed/internal/config"
	"directed/internal/models"
	"directed/internal/observability"
	"directed/internal/serviceinterfaces"
	contextutils "directed/internal/utils"
)

// LogResult is the outcome of recording a request against the learner's profile
type LogResult string

const (
	LogResultLogged           LogResult = "logged"
	LogResultFailedContinuing LogResult = "log_failed_continuing"
)

// Profile log labels per intent
const (
	quizRequestedLabel     = "quiz_requested"
	tutoringRequestedLabel = "tutoring_requested"
)

// AssistantService routes a request to quiz generation or tutoring and records it
type AssistantService struct {
	cfg     config.ContentConfig
	content serviceinterfaces.ContentService
	store   serviceinterfaces.ProfileStore
	metrics *observability.AssistantMetrics
	logger  *observability.Logger
}

var _ serviceinterfaces.AssistantRunner = (*AssistantService)(nil)

// NewAssistantService builds the orchestrator. metrics may be nil.
func NewAssistantService(cfg config.ContentConfig, content serviceinterfaces.ContentService, store serviceinterfaces.ProfileStore, metrics *observability.AssistantMetrics, logger *observability.Logger) *AssistantService {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if store == nil {
		store = NewMemoryProfileStore(logger)
	}
	return &AssistantService{
		cfg:     cfg,
		content: content,
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// Store returns the default profile store
func (s *AssistantService) Store() serviceinterfaces.ProfileStore {
	return s.store
}

// Run answers one request. Failures are returned as an ExecutionFailure, never as a panic.
func (s *AssistantService) Run(ctx context.Context, requestText, userID string, store serviceinterfaces.ProfileStore, isInstructor bool) (result models.AssistantResult) {
	ctx, span := observability.TraceAssistantFunction(ctx, "run",
		observability.AttributeUserID(userID),
		observability.AttributeInstructor(isInstructor),
	)
	defer span.End()

	if store == nil {
		store = s.store
	}

	intent := models.IntentTutoring
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			observability.RecordSpanError(span, err)
			s.logger.Error(ctx, "Assistant run panicked", err, map[string]interface{}{"user_id": userID})
			result = models.NewExecutionFailure(err.Error())
		}
		s.metrics.RecordRequest(ctx, string(intent), !result.Failed())
	}()

	intent = ClassifyIntent(requestText)
	span.SetAttributes(observability.AttributeContentType(intent))

	var (
		output interface{}
		label  string
	)
	switch intent {
	case models.IntentQuiz:
		quiz, err := s.content.GenerateQuiz(ctx, requestText, s.cfg.DefaultNumItems, s.cfg.DefaultLevel, "")
		if err != nil {
			observability.RecordSpanError(span, err)
			s.metrics.RecordGenerationError(ctx, string(models.ContentTypeQuiz), string(contextutils.GetErrorCode(err)))
			s.logger.Error(ctx, "Quiz generation failed", err, map[string]interface{}{"user_id": userID})
			return models.NewExecutionFailure(err.Error())
		}
		output, label = quiz, quizRequestedLabel
	default:
		output = models.TutoringOutput{Text: s.content.AnswerGenerator(ctx, requestText)}
		label = tutoringRequestedLabel
	}

	s.LogPerformance(ctx, store, userID, requestText, label)

	userType := models.UserTypeStudent
	if isInstructor {
		userType = models.UserTypeInstructor
	}

	return models.AssistantResult{Response: &models.AssistantResponse{
		UserType:       userType,
		ContentType:    string(intent),
		Output:         output,
		UpdatedProfile: s.snapshot(ctx, store, userID),
	}}
}

// LogPerformance records the request and reports how that went. It never fails the caller.
func (s *AssistantService) LogPerformance(ctx context.Context, store serviceinterfaces.ProfileStore, userID, topic, label string) (result LogResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn(ctx, "Profile logging panicked, continuing", map[string]interface{}{
				"user_id": userID,
				"panic":   fmt.Sprint(r),
			})
			result = LogResultFailedContinuing
		}
		s.metrics.RecordProfileLog(ctx, string(result))
	}()

	if err := store.LogPerformance(ctx, userID, topic, label); err != nil {
		s.logger.Warn(ctx, "Profile logging failed, continuing", map[string]interface{}{
			"user_id": userID,
			"label":   label,
			"error":   err.Error(),
		})
		return LogResultFailedContinuing
	}
	return LogResultLogged
}

// snapshot reads the profile, falling back to an empty one
func (s *AssistantService) snapshot(ctx context.Context, store serviceinterfaces.ProfileStore, userID string) (snap models.ProfileSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn(ctx, "Profile read panicked", map[string]interface{}{"user_id": userID, "panic": fmt.Sprint(r)})
			snap = models.EmptyProfileSnapshot()
		}
	}()

	snap, err := store.GetProfile(ctx, userID)
	if err != nil {
		s.logger.Warn(ctx, "Profile read failed, using empty profile", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return models.EmptyProfileSnapshot()
	}
	return snap
}
