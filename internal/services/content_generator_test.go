package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"directed/internal/config"
	"directed/internal/llm"
	"directed/internal/models"
	"directed/internal/serviceinterfaces"
	contextutils "directed/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRetriever struct {
	passages string
	err      error
	queries  []string
}

func (r *stubRetriever) Fetch(_ context.Context, query string) (string, error) {
	r.queries = append(r.queries, query)
	return r.passages, r.err
}

func newTestGenerator(t *testing.T, cfg config.ContentConfig, caller *llm.Caller, retriever *stubRetriever) *ContentGenerator {
	t.Helper()
	templates, err := NewPromptTemplateManager()
	require.NoError(t, err)

	var r serviceinterfaces.Retriever
	if retriever != nil {
		r = retriever
	}
	g, err := NewContentGenerator(cfg, caller, r, templates, nil)
	require.NoError(t, err)
	return g
}

func testCaller(p llm.Provider) *llm.Caller {
	return llm.NewCaller(p, config.LLMConfig{Temperature: 0.7})
}

func TestGenerateFlashcards(t *testing.T) {
	g := newTestGenerator(t, config.ContentConfig{}, nil, nil)

	cards, err := g.GenerateFlashcards(context.Background(), "Photosynthesis", 2, "beginner", "")
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "Photosynthesis (beginner): Key point #1", cards[0].Front)
	assert.Equal(t, "Short explanation for key point #1.", cards[0].Back)
	assert.Equal(t, "Photosynthesis (beginner): Key point #2", cards[1].Front)
	assert.Equal(t, "Photosynthesis", cards[1].Topic)
	assert.Equal(t, "beginner", cards[1].Level)
}

func TestGenerateFlashcards_NotesAndNoLevel(t *testing.T) {
	g := newTestGenerator(t, config.ContentConfig{}, nil, nil)

	cards, err := g.GenerateFlashcards(context.Background(), "Loops", 1, "", "Use for-range.")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "Loops: Key point #1", cards[0].Front)
	assert.Equal(t, "Short explanation for key point #1. Use for-range.", cards[0].Back)
}

func TestGenerate_ClampsItemCount(t *testing.T) {
	g := newTestGenerator(t, config.ContentConfig{}, nil, nil)
	ctx := context.Background()

	for _, n := range []int{0, -3} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			cards, err := g.GenerateFlashcards(ctx, "X", n, "", "")
			require.NoError(t, err)
			assert.Len(t, cards, 1)

			quiz, err := g.GenerateQuiz(ctx, "X", n, "", "")
			require.NoError(t, err)
			assert.Len(t, quiz.Questions, 1)

			practice, err := g.GeneratePractice(ctx, "X", n, "", "")
			require.NoError(t, err)
			assert.Len(t, practice, 1)
		})
	}
}

func TestQuizTopic(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Give me a quiz about Photosynthesis", "Photosynthesis"},
		{"quiz about loops about closures", "closures"},
		{"  Recursion  ", "Recursion"},
		{"quiz about   ", "General"},
		{"", "General"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuizTopic(tt.input))
		})
	}
}

func TestGenerateQuiz_Deterministic(t *testing.T) {
	g := newTestGenerator(t, config.ContentConfig{}, nil, nil)
	ctx := context.Background()

	quiz, err := g.GenerateQuiz(ctx, "Give me a quiz about Photosynthesis", 3, "beginner", "")
	require.NoError(t, err)

	assert.Equal(t, "Photosynthesis Quiz", quiz.Title)
	assert.Equal(t, "Photosynthesis", quiz.Topic)
	require.Len(t, quiz.Questions, 3)

	for i, q := range quiz.Questions {
		assert.Equal(t, fmt.Sprintf("[Photosynthesis] Question #%d (beginner)", i+1), q.Question)
		require.Len(t, q.Options, 4)
		assert.Equal(t, "Because it aligns with: core concept.", q.Explanation)

		correct := 0
		for j, opt := range q.Options {
			assert.Equal(t, optionLabels[j], opt.Label)
			if opt.Label == q.CorrectLabel {
				correct++
				assert.Equal(t, fmt.Sprintf("Correct concept for #%d in Photosynthesis", i+1), opt.Text)
			} else {
				assert.Equal(t, fmt.Sprintf("Option %s about Photosynthesis", opt.Label), opt.Text)
			}
		}
		assert.Equal(t, 1, correct)
	}

	again, err := g.GenerateQuiz(ctx, "Give me a quiz about Photosynthesis", 3, "beginner", "")
	require.NoError(t, err)
	assert.Equal(t, quiz, again)
}

func TestGenerateQuiz_NotesInExplanation(t *testing.T) {
	g := newTestGenerator(t, config.ContentConfig{}, nil, nil)

	quiz, err := g.GenerateQuiz(context.Background(), "Maps", 1, "", "hash tables")
	require.NoError(t, err)
	assert.Equal(t, "[Maps] Question #1", quiz.Questions[0].Question)
	assert.Equal(t, "Because it aligns with: hash tables.", quiz.Questions[0].Explanation)
}

func TestGeneratePractice(t *testing.T) {
	g := newTestGenerator(t, config.ContentConfig{}, nil, nil)

	questions, err := g.GeneratePractice(context.Background(), "Recursion", 2, "intermediate", "")
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "Practice: Explain 'Recursion' concept #2 (intermediate)", questions[1].Prompt)
	assert.Equal(t, "Sample answer emphasizing Recursion key idea #2.", questions[1].Answer)
	assert.Equal(t, "Think of the definition and one real-world example.", questions[1].Hint)
}

func TestGenerate_Dispatch(t *testing.T) {
	g := newTestGenerator(t, config.ContentConfig{}, nil, nil)
	ctx := context.Background()

	out, err := g.Generate(ctx, models.ContentRequest{Type: models.ContentTypeFlashcards, Topic: "Go", NumItems: 2})
	require.NoError(t, err)
	assert.Len(t, out.([]models.Flashcard), 2)

	out, err = g.Generate(ctx, models.ContentRequest{Type: models.ContentTypeQuiz, Topic: "Go", NumItems: 2})
	require.NoError(t, err)
	assert.Equal(t, "Go Quiz", out.(*models.Quiz).Title)

	out, err = g.Generate(ctx, models.ContentRequest{Type: models.ContentTypePracticeQuestions, Topic: "Go", NumItems: 1})
	require.NoError(t, err)
	assert.Len(t, out.([]models.PracticeQuestion), 1)

	_, err = g.Generate(ctx, models.ContentRequest{Type: "essay", Topic: "Go", NumItems: 1})
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeInvalidInput, contextutils.GetErrorCode(err))
}

func TestGenerateQuiz_LLMMode(t *testing.T) {
	want := models.Quiz{
		Title: "Channels Quiz",
		Questions: []models.QuizQuestion{{
			Question:     "What does close do?",
			Options:      []models.MCQOption{{Label: "A", Text: "a"}, {Label: "B", Text: "b"}, {Label: "C", Text: "c"}, {Label: "D", Text: "d"}},
			CorrectLabel: "B",
		}},
	}
	raw, err := json.Marshal(want)
	require.NoError(t, err)

	mock := llm.NewMockProvider(llm.MockResponse{Content: raw})
	retriever := &stubRetriever{passages: "channels are typed conduits"}
	g := newTestGenerator(t, config.ContentConfig{LLMQuiz: true}, testCaller(mock), retriever)

	quiz, err := g.GenerateQuiz(context.Background(), "quiz about channels", 1, "beginner", "")
	require.NoError(t, err)
	assert.Equal(t, "Channels Quiz", quiz.Title)
	assert.Equal(t, "channels", quiz.Topic)
	assert.Equal(t, "beginner", quiz.Level)

	require.Equal(t, 1, mock.CallCount())
	require.NotNil(t, mock.Calls[0].Schema)
	assert.NotContains(t, mock.Calls[0].Schema.Definition, "$schema")
	assert.Contains(t, mock.Calls[0].Messages[0].Content, "channels are typed conduits")
	assert.Equal(t, []string{"channels"}, retriever.queries)
}

func TestGenerateQuiz_LLMModeErrors(t *testing.T) {
	t.Run("invalid shape", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"title":"only a title"}`)})
		g := newTestGenerator(t, config.ContentConfig{LLMQuiz: true}, testCaller(mock), nil)

		_, err := g.GenerateQuiz(context.Background(), "quiz about x", 1, "", "")
		require.Error(t, err)

		var appErr *contextutils.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, contextutils.ErrorCodeValidationShape, appErr.Code)
		assert.Equal(t, "Invalid quiz shape", appErr.Message)
		assert.NotEmpty(t, appErr.Data["errors"])
	})

	t.Run("provider failure", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}})
		g := newTestGenerator(t, config.ContentConfig{LLMQuiz: true}, testCaller(mock), nil)

		_, err := g.GenerateQuiz(context.Background(), "quiz about x", 1, "", "")
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeGenerationFailed, contextutils.GetErrorCode(err))
		assert.Contains(t, err.Error(), "Quiz generation failed")
		assert.ErrorIs(t, err, contextutils.ErrLLMUnavailable)
	})
}

func TestAnswerGenerator(t *testing.T) {
	t.Run("fallback without model", func(t *testing.T) {
		g := newTestGenerator(t, config.ContentConfig{}, nil, nil)
		answer := g.AnswerGenerator(context.Background(), "What is recursion?")
		assert.Equal(t, "Short explanation for: 'What is recursion?'.\nExample: This is a concise example describing What is recursion?.", answer)
	})

	t.Run("model answer with retrieved context", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.TextResponse("  Recursion is a function calling itself.  "))
		retriever := &stubRetriever{passages: "A recursive function calls itself."}
		g := newTestGenerator(t, config.ContentConfig{}, testCaller(mock), retriever)

		answer := g.AnswerGenerator(context.Background(), "What is recursion?")
		assert.Equal(t, "Recursion is a function calling itself.", answer)
		require.Equal(t, 1, mock.CallCount())
		prompt := mock.Calls[0].Messages[0].Content
		assert.Contains(t, prompt, "What is recursion?")
		assert.Contains(t, prompt, "A recursive function calls itself.")
	})

	t.Run("model failure falls back", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Err: errors.New("boom")})
		retriever := &stubRetriever{err: errors.New("index offline")}
		g := newTestGenerator(t, config.ContentConfig{}, testCaller(mock), retriever)

		answer := g.AnswerGenerator(context.Background(), "loops")
		assert.True(t, strings.HasPrefix(answer, "Short explanation for: 'loops'."))
	})

	t.Run("empty model output falls back", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.TextResponse("   "))
		g := newTestGenerator(t, config.ContentConfig{}, testCaller(mock), nil)

		assert.Equal(t, FallbackAnswer("loops"), g.AnswerGenerator(context.Background(), "loops"))
	})
}

func TestContentSchemas_ReportViolations(t *testing.T) {
	schemas, err := loadContentSchemas()
	require.NoError(t, err)

	assert.Empty(t, schemas.check(models.ContentTypeFlashcards, []models.Flashcard{{Front: "f", Back: "b"}}))
	assert.NotEmpty(t, schemas.check(models.ContentTypeFlashcards, []models.Flashcard{{Front: "f"}}))
	assert.NotEmpty(t, schemas.check(models.ContentTypeQuiz, &models.Quiz{Title: "t"}))
	assert.NotEmpty(t, schemas.check("essay", nil))
}

func TestRecoverGeneration(t *testing.T) {
	run := func() (err error) {
		defer recoverGeneration(&err, msgFlashcardFailed)
		panic("kaboom")
	}

	err := run()
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeGenerationFailed, contextutils.GetErrorCode(err))
	assert.Contains(t, err.Error(), "kaboom")
}
