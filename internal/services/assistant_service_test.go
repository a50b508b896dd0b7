package services

import (
	"context"
	"errors"
	"testing"

	"directed/internal/config"
	"directed/internal/models"
	"directed/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var testContentConfig = config.ContentConfig{DefaultNumItems: 5, DefaultLevel: "beginner"}

// failingStore fails every call; panics when panicOnLog is set
type failingStore struct {
	panicOnLog bool
}

func (f *failingStore) GetProfile(context.Context, string) (models.ProfileSnapshot, error) {
	return models.ProfileSnapshot{}, errors.New("profile db down")
}

func (f *failingStore) LogPerformance(context.Context, string, string, string) error {
	if f.panicOnLog {
		panic("store exploded")
	}
	return errors.New("profile db down")
}

// brokenContent fails quiz generation and panics while tutoring
type brokenContent struct {
	*ContentGenerator
}

func (b brokenContent) GenerateQuiz(context.Context, string, int, string, string) (*models.Quiz, error) {
	return nil, newGenerationFailure(msgQuizFailed, errors.New("no model"))
}

func (b brokenContent) AnswerGenerator(context.Context, string) string {
	panic("tutor crashed")
}

func newTestAssistant(t *testing.T, logger *observability.Logger) (*AssistantService, *MemoryProfileStore) {
	t.Helper()
	store := NewMemoryProfileStore(nil)
	return NewAssistantService(testContentConfig, newTestGenerator(t, testContentConfig, nil, nil), store, nil, logger), store
}

func observedLogger() (*observability.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &observability.Logger{Logger: zap.New(core)}, logs
}

func TestAssistantService_RunQuiz(t *testing.T) {
	svc, store := newTestAssistant(t, nil)
	ctx := context.Background()

	result := svc.Run(ctx, "Give me a quiz about Photosynthesis", "u1", nil, false)
	require.False(t, result.Failed())

	resp := result.Response
	assert.Equal(t, models.UserTypeStudent, resp.UserType)
	assert.Equal(t, "QUIZ", resp.ContentType)

	quiz, ok := resp.Output.(*models.Quiz)
	require.True(t, ok)
	assert.Equal(t, "Photosynthesis Quiz", quiz.Title)
	require.Len(t, quiz.Questions, 5)
	assert.Equal(t, "[Photosynthesis] Question #1 (beginner)", quiz.Questions[0].Question)

	assert.Equal(t, []string{"Give me a quiz about Photosynthesis"}, resp.UpdatedProfile.StrugglingTopics)
	assert.Empty(t, resp.UpdatedProfile.CompletedQuizzes)
	assert.Len(t, store.Profile("u1").Snapshot().StrugglingTopics, 1)
}

func TestAssistantService_RunTutoringInstructor(t *testing.T) {
	svc, _ := newTestAssistant(t, nil)

	result := svc.Run(context.Background(), "Explain recursion", "instructor-1", nil, true)
	require.False(t, result.Failed())

	resp := result.Response
	assert.Equal(t, models.UserTypeInstructor, resp.UserType)
	assert.Equal(t, "TUTORING", resp.ContentType)
	assert.Equal(t, models.TutoringOutput{Text: FallbackAnswer("Explain recursion")}, resp.Output)
	assert.Equal(t, []string{"Explain recursion"}, resp.UpdatedProfile.StrugglingTopics)
}

func TestAssistantService_RepeatedRequestLoggedOnce(t *testing.T) {
	svc, _ := newTestAssistant(t, nil)
	ctx := context.Background()

	svc.Run(ctx, "Explain maps", "u1", nil, false)
	result := svc.Run(ctx, "Explain maps", "u1", nil, false)

	require.False(t, result.Failed())
	assert.Equal(t, []string{"Explain maps"}, result.Response.UpdatedProfile.StrugglingTopics)
}

func TestAssistantService_ExplicitStore(t *testing.T) {
	svc, defaultStore := newTestAssistant(t, nil)
	other := NewMemoryProfileStore(nil)

	result := svc.Run(context.Background(), "Explain maps", "u1", other, false)
	require.False(t, result.Failed())

	assert.Len(t, other.Profile("u1").Snapshot().StrugglingTopics, 1)
	assert.Empty(t, defaultStore.Profile("u1").Snapshot().StrugglingTopics)
}

func TestAssistantService_StoreFailuresDoNotFailResponse(t *testing.T) {
	logger, logs := observedLogger()
	svc, _ := newTestAssistant(t, logger)

	result := svc.Run(context.Background(), "Explain maps", "u1", &failingStore{}, false)
	require.False(t, result.Failed())
	assert.Equal(t, models.EmptyProfileSnapshot(), result.Response.UpdatedProfile)

	assert.Equal(t, 1, logs.FilterMessage("Profile logging failed, continuing").Len())
	assert.Equal(t, 1, logs.FilterMessage("Profile read failed, using empty profile").Len())
}

func TestAssistantService_LogPerformanceResult(t *testing.T) {
	svc, store := newTestAssistant(t, nil)
	ctx := context.Background()

	assert.Equal(t, LogResultLogged, svc.LogPerformance(ctx, store, "u1", "Maps", "quiz_requested"))
	assert.Equal(t, LogResultFailedContinuing, svc.LogPerformance(ctx, &failingStore{}, "u1", "Maps", "quiz_requested"))
	assert.Equal(t, LogResultFailedContinuing, svc.LogPerformance(ctx, &failingStore{panicOnLog: true}, "u1", "Maps", "quiz_requested"))
}

func TestAssistantService_ExecutionFailures(t *testing.T) {
	logger, logs := observedLogger()
	gen := newTestGenerator(t, testContentConfig, nil, nil)
	store := NewMemoryProfileStore(nil)
	svc := NewAssistantService(testContentConfig, brokenContent{gen}, store, nil, logger)
	ctx := context.Background()

	t.Run("generation error", func(t *testing.T) {
		result := svc.Run(ctx, "quiz about maps", "u1", nil, false)
		require.True(t, result.Failed())
		assert.Equal(t, models.ExecutionFailedTag, result.Failure.Error)
		assert.Contains(t, result.Failure.Details, "Quiz generation failed")
		assert.Empty(t, store.Profile("u1").Snapshot().StrugglingTopics)
	})

	t.Run("panic", func(t *testing.T) {
		result := svc.Run(ctx, "explain maps", "u1", nil, false)
		require.True(t, result.Failed())
		assert.Contains(t, result.Failure.Details, "tutor crashed")
		assert.Equal(t, 1, logs.FilterMessage("Assistant run panicked").Len())
	})
}
