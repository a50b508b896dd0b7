package services

import (
	"context"
	"fmt"

	"directed/internal/models"
	"directed/internal/observability"
	"directed/internal/serviceinterfaces"
	contextutils "directed/internal/utils"
)

// CurriculumCompleteMessage is returned once every curriculum topic is done
const CurriculumCompleteMessage = "🎉 Congratulations! You have gone through the whole curriculum."

// AdaptiveLearningService steers a learner to the next topic worth studying
type AdaptiveLearningService struct {
	runner     serviceinterfaces.AssistantRunner
	store      serviceinterfaces.ProfileStore
	curriculum []string
	logger     *observability.Logger
}

var _ serviceinterfaces.AdaptiveLearner = (*AdaptiveLearningService)(nil)

// NewAdaptiveLearningService steers learners through curriculum. A nil logger discards output.
func NewAdaptiveLearningService(runner serviceinterfaces.AssistantRunner, store serviceinterfaces.ProfileStore, curriculum []string, logger *observability.Logger) *AdaptiveLearningService {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &AdaptiveLearningService{
		runner:     runner,
		store:      store,
		curriculum: curriculum,
		logger:     logger,
	}
}

// NextTopic prefers the first struggling topic, then the first curriculum topic not yet completed
func NextTopic(profile models.ProfileSnapshot, curriculum []string) (string, bool) {
	if len(profile.StrugglingTopics) > 0 {
		return profile.StrugglingTopics[0], true
	}
	for _, topic := range curriculum {
		if !profile.HasCompleted(topic) {
			return topic, true
		}
	}
	return "", false
}

// Next teaches the learner's next topic, or congratulates them when none is left
func (a *AdaptiveLearningService) Next(ctx context.Context, userID string) (result models.AssistantResult, err error) {
	ctx, span := observability.TraceAssistantFunction(ctx, "adaptive_next", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	profile, err := a.store.GetProfile(ctx, userID)
	if err != nil {
		return models.AssistantResult{}, contextutils.WrapError(err, "failed to load learner profile")
	}

	topic, ok := NextTopic(profile, a.curriculum)
	if !ok {
		a.logger.Info(ctx, "Curriculum complete", map[string]interface{}{"user_id": userID})
		return models.AssistantResult{Response: &models.AssistantResponse{
			UserType:       "student",
			ContentType:    "message",
			Output:         CurriculumCompleteMessage,
			UpdatedProfile: profile,
		}}, nil
	}

	span.SetAttributes(observability.AttributeTopic(topic))
	a.logger.Info(ctx, "Adaptive topic selected", map[string]interface{}{"user_id": userID, "topic": topic})

	return a.runner.Run(ctx, fmt.Sprintf("explain %s to me in detail.", topic), userID, a.store, false), nil
}
