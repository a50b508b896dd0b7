package models

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuestion() QuizQuestion {
	return QuizQuestion{
		Question: "q",
		Options: []MCQOption{
			{Label: "A", Text: "a"}, {Label: "B", Text: "b"},
			{Label: "C", Text: "c"}, {Label: "D", Text: "d"},
		},
		CorrectLabel: "B",
	}
}

func TestParseContentType(t *testing.T) {
	tests := map[string]ContentType{
		"quiz":               ContentTypeQuiz,
		"QUIZ":               ContentTypeQuiz,
		"flashcard":          ContentTypeFlashcards,
		"Flashcards":         ContentTypeFlashcards,
		"practice":           ContentTypePracticeQuestions,
		"practice_questions": ContentTypePracticeQuestions,
	}
	for in, want := range tests {
		got, ok := ParseContentType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseContentType("essay")
	assert.False(t, ok)
}

func TestQuizValidate(t *testing.T) {
	quiz := Quiz{Title: "Go Quiz", Topic: "Go", Questions: []QuizQuestion{validQuestion()}}
	assert.Empty(t, quiz.Validate())

	t.Run("correct label missing from options", func(t *testing.T) {
		q := validQuestion()
		q.Options[1].Label = "A"
		bad := Quiz{Title: "t", Questions: []QuizQuestion{q}}
		errs := bad.Validate()
		require.NotEmpty(t, errs)
		assert.Contains(t, fmt.Sprint(errs), "duplicate option label")
		assert.Contains(t, fmt.Sprint(errs), "must match exactly one option")
	})

	t.Run("wrong option count", func(t *testing.T) {
		q := validQuestion()
		q.Options = q.Options[:3]
		bad := Quiz{Title: "t", Questions: []QuizQuestion{q}}
		assert.NotEmpty(t, bad.Validate())
	})

	t.Run("no questions", func(t *testing.T) {
		bad := Quiz{Title: "t"}
		assert.NotEmpty(t, bad.Validate())
	})
}

func TestValidateFlashcardsAndPractice(t *testing.T) {
	assert.Empty(t, ValidateFlashcards([]Flashcard{{Front: "f", Back: "b"}}))
	errs := ValidateFlashcards([]Flashcard{{Front: "f", Back: "b"}, {Front: "f"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "[1]")

	assert.Empty(t, ValidatePracticeQuestions([]PracticeQuestion{{Prompt: "p", Answer: "a"}}))
	assert.Len(t, ValidatePracticeQuestions([]PracticeQuestion{{}}), 2)
}

func TestProfileRecord(t *testing.T) {
	p := NewProfile("u1")

	assert.True(t, p.Record("topicA", "wrong"))
	assert.False(t, p.Record("topicA", "wrong"))
	assert.True(t, p.Record("topicB", OutcomeCorrect))
	assert.False(t, p.Record("topicB", OutcomeCorrect))
	assert.True(t, p.Record("topicC", "quiz_requested"))

	snap := p.Snapshot()
	assert.Equal(t, []string{"topicB"}, snap.CompletedQuizzes)
	assert.Equal(t, []string{"topicA", "topicC"}, snap.StrugglingTopics)
	assert.True(t, snap.HasCompleted("topicB"))
	assert.False(t, snap.HasCompleted("topicA"))
}

func TestProfileSnapshotIsACopy(t *testing.T) {
	p := NewProfile("u1")
	p.Record("a", "wrong")

	snap := p.Snapshot()
	snap.StrugglingTopics[0] = "mutated"

	assert.Equal(t, []string{"a"}, p.Snapshot().StrugglingTopics)
}

func TestProfileConcurrentRecord(t *testing.T) {
	p := NewProfile("u1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.Record(fmt.Sprintf("topic-%d", i%10), "wrong")
		}(i)
	}
	wg.Wait()

	assert.Len(t, p.Snapshot().StrugglingTopics, 10)
}

func TestEmptyProfileSnapshotJSON(t *testing.T) {
	b, err := json.Marshal(EmptyProfileSnapshot())
	require.NoError(t, err)
	assert.JSONEq(t, `{"completed_quizzes":[],"struggling_topics":[]}`, string(b))

	b, err = json.Marshal(NewProfile("x").Snapshot())
	require.NoError(t, err)
	assert.JSONEq(t, `{"completed_quizzes":[],"struggling_topics":[]}`, string(b))
}

func TestAssistantResultJSON(t *testing.T) {
	ok := AssistantResult{Response: &AssistantResponse{
		UserType:       UserTypeStudent,
		ContentType:    string(IntentTutoring),
		Output:         TutoringOutput{Text: "hi"},
		UpdatedProfile: EmptyProfileSnapshot(),
	}}
	b, err := json.Marshal(ok)
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_type":"Student","content_type":"TUTORING","output":{"text":"hi"},
		"updated_profile":{"completed_quizzes":[],"struggling_topics":[]}}`, string(b))
	assert.False(t, ok.Failed())

	failed := NewExecutionFailure("boom")
	b, err = json.Marshal(failed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"execution_failed","details":"boom"}`, string(b))
	assert.True(t, failed.Failed())
}
