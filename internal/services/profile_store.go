package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"directed/internal/models"
	"directed/internal/observability"
	"directed/internal/serviceinterfaces"
	contextutils "directed/internal/utils"
)

const (
	topicKindCompleted  = "completed"
	topicKindStruggling = "struggling"
)

func topicKind(outcome string) string {
	if outcome == models.OutcomeCorrect {
		return topicKindCompleted
	}
	return topicKindStruggling
}

// MemoryProfileStore keeps learner profiles for the life of the process
type MemoryProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	logger   *observability.Logger
}

var _ serviceinterfaces.ProfileStore = (*MemoryProfileStore)(nil)

// NewMemoryProfileStore returns an empty store
func NewMemoryProfileStore(logger *observability.Logger) *MemoryProfileStore {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &MemoryProfileStore{
		profiles: make(map[string]*models.Profile),
		logger:   logger,
	}
}

// Profile returns the live profile for userID, creating it on first use.
// Repeated calls return the same pointer.
func (s *MemoryProfileStore) Profile(userID string) *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		p = models.NewProfile(userID)
		s.profiles[userID] = p
	}
	return p
}

// GetProfile returns a snapshot of the learner's profile
func (s *MemoryProfileStore) GetProfile(_ context.Context, userID string) (models.ProfileSnapshot, error) {
	return s.Profile(userID).Snapshot(), nil
}

// LogPerformance files topic as completed or struggling
func (s *MemoryProfileStore) LogPerformance(ctx context.Context, userID, topic, outcome string) error {
	ctx, span := observability.TraceProfileFunction(ctx, "log_performance", observability.AttributeUserID(userID))
	defer span.End()

	if added := s.Profile(userID).Record(topic, outcome); added {
		s.logger.Debug(ctx, "Recorded topic", map[string]interface{}{
			"user_id": userID,
			"topic":   topic,
			"kind":    topicKind(outcome),
		})
	}
	return nil
}

// PostgresProfileStore persists profiles in the learning_profiles and profile_topics tables
type PostgresProfileStore struct {
	db     *sql.DB
	logger *observability.Logger
}

var _ serviceinterfaces.ProfileStore = (*PostgresProfileStore)(nil)

// NewPostgresProfileStore expects a migrated database
func NewPostgresProfileStore(db *sql.DB, logger *observability.Logger) *PostgresProfileStore {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &PostgresProfileStore{db: db, logger: logger}
}

const upsertProfileQuery = `INSERT INTO learning_profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`

// GetProfile creates the profile row if needed and returns both topic lists in insertion order
func (s *PostgresProfileStore) GetProfile(ctx context.Context, userID string) (result models.ProfileSnapshot, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "get_profile", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	if _, err = s.db.ExecContext(ctx, upsertProfileQuery, userID); err != nil {
		return models.ProfileSnapshot{}, contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to upsert profile %s: %w", userID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, topic
		FROM profile_topics
		WHERE user_id = $1
		ORDER BY id`, userID)
	if err != nil {
		return models.ProfileSnapshot{}, contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to query topics for %s: %w", userID, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	result = models.EmptyProfileSnapshot()
	for rows.Next() {
		var kind, topic string
		if err = rows.Scan(&kind, &topic); err != nil {
			return models.ProfileSnapshot{}, contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to scan topic: %w", err)
		}
		if kind == topicKindCompleted {
			result.CompletedQuizzes = append(result.CompletedQuizzes, topic)
		} else {
			result.StrugglingTopics = append(result.StrugglingTopics, topic)
		}
	}
	if err = rows.Err(); err != nil {
		return models.ProfileSnapshot{}, contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to read topics: %w", err)
	}

	return result, nil
}

// LogPerformance records topic once per kind; repeats are ignored
func (s *PostgresProfileStore) LogPerformance(ctx context.Context, userID, topic, outcome string) (err error) {
	kind := topicKind(outcome)
	ctx, span := observability.TraceDatabaseFunction(ctx, "log_performance",
		observability.AttributeUserID(userID),
		observability.AttributeTopic(topic),
	)
	defer observability.FinishSpan(span, &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return contextutils.WrapErrorf(contextutils.ErrDatabaseConnection, "failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn(ctx, "Failed to roll back", map[string]interface{}{"error": rbErr.Error()})
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, upsertProfileQuery, userID); err != nil {
		return contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to upsert profile %s: %w", userID, err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO profile_topics (user_id, kind, topic)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, kind, topic) DO NOTHING`, userID, kind, topic)
	if err != nil {
		return contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to record topic: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to commit: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		s.logger.Debug(ctx, "Recorded topic", map[string]interface{}{
			"user_id": userID,
			"topic":   topic,
			"kind":    kind,
		})
	}
	return nil
}
