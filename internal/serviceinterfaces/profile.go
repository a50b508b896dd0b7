// Package serviceinterfaces defines service interfaces for dependency injection and testing.
package serviceinterfaces

import (
	"context"

	"directed/internal/models"
)

// ProfileStore records learner outcomes and serves profile snapshots
type ProfileStore interface {
	// GetProfile returns the learner's profile, creating an empty one on first access
	GetProfile(ctx context.Context, userID string) (models.ProfileSnapshot, error)

	// LogPerformance files topic under completed for outcome "correct" and under struggling otherwise.
	// A topic already present in the target list is not added again.
	LogPerformance(ctx context.Context, userID, topic, outcome string) error
}
