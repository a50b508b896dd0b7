package serviceinterfaces

import (
	"context"

	"directed/internal/models"
)

// AssistantRunner routes a free-text request to tutoring or quiz generation
type AssistantRunner interface {
	// Run never fails: problems come back as an ExecutionFailure result.
	// A nil store means the runner's own profile store.
	Run(ctx context.Context, requestText, userID string, store ProfileStore, isInstructor bool) models.AssistantResult
}

// AdaptiveLearner picks the next topic for a learner and teaches it
type AdaptiveLearner interface {
	Next(ctx context.Context, userID string) (models.AssistantResult, error)
}

// PipelineRunner runs the sequential learning pipeline
type PipelineRunner interface {
	Run(ctx context.Context, input models.PipelineInput) (*models.PipelineResult, error)
}
