// Package models defines data structures shared by the assistant services and API.
package models

import (
	"fmt"
	"strings"

	contextutils "directed/internal/utils"
)

// ContentType names a kind of generated study material
type ContentType string

const (
	ContentTypeFlashcards        ContentType = "flashcards"
	ContentTypeQuiz              ContentType = "quiz"
	ContentTypePracticeQuestions ContentType = "practice_questions"
)

// ParseContentType accepts the request_type spellings the API has always taken.
// Matching is case-insensitive.
func ParseContentType(s string) (ContentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiz":
		return ContentTypeQuiz, true
	case "flashcard", "flashcards":
		return ContentTypeFlashcards, true
	case "practice", "practice_questions":
		return ContentTypePracticeQuestions, true
	default:
		return "", false
	}
}

// ContentRequest describes one content generation call
type ContentRequest struct {
	Type     ContentType `json:"type" validate:"required,oneof=flashcards quiz practice_questions"`
	Topic    string      `json:"topic" validate:"required"`
	NumItems int         `json:"num_items" validate:"min=1,max=50"`
	Level    string      `json:"level,omitempty"`
	Notes    string      `json:"notes,omitempty"`
}

// Flashcard is a front/back study card
type Flashcard struct {
	Front string `json:"front" validate:"required"`
	Back  string `json:"back" validate:"required"`
	Topic string `json:"topic"`
	Level string `json:"level,omitempty"`
}

// MCQOption is one labeled answer choice
type MCQOption struct {
	Label string `json:"label" validate:"required,oneof=A B C D"`
	Text  string `json:"text" validate:"required"`
}

// QuizQuestion is a four-option multiple choice question
type QuizQuestion struct {
	Question     string      `json:"question" validate:"required"`
	Options      []MCQOption `json:"options" validate:"len=4,dive"`
	CorrectLabel string      `json:"correct_label" validate:"required,oneof=A B C D"`
	Explanation  string      `json:"explanation,omitempty"`
}

// Quiz groups questions on a single topic
type Quiz struct {
	Title     string         `json:"title" validate:"required"`
	Topic     string         `json:"topic"`
	Level     string         `json:"level,omitempty"`
	Questions []QuizQuestion `json:"questions" validate:"min=1,dive"`
}

// PracticeQuestion is an open prompt with a sample answer
type PracticeQuestion struct {
	Prompt string `json:"prompt" validate:"required"`
	Answer string `json:"answer" validate:"required"`
	Hint   string `json:"hint,omitempty"`
	Topic  string `json:"topic"`
	Level  string `json:"level,omitempty"`
}

// Validate checks struct tags and that every correct_label names exactly one option.
// It returns one message per problem, nil when the quiz is well formed.
func (q *Quiz) Validate() []string {
	errs := contextutils.ValidateStruct(q)
	for i, question := range q.Questions {
		seen := make(map[string]bool, len(question.Options))
		matches := 0
		for _, opt := range question.Options {
			if seen[opt.Label] {
				errs = append(errs, fmt.Sprintf("questions[%d]: duplicate option label %q", i, opt.Label))
			}
			seen[opt.Label] = true
			if opt.Label == question.CorrectLabel {
				matches++
			}
		}
		if matches != 1 {
			errs = append(errs, fmt.Sprintf("questions[%d]: correct_label %q must match exactly one option", i, question.CorrectLabel))
		}
	}
	return errs
}

// ValidateFlashcards checks every card's required fields
func ValidateFlashcards(cards []Flashcard) []string {
	var errs []string
	for i := range cards {
		for _, e := range contextutils.ValidateStruct(cards[i]) {
			errs = append(errs, fmt.Sprintf("[%d] %s", i, e))
		}
	}
	return errs
}

// ValidatePracticeQuestions checks every question's required fields
func ValidatePracticeQuestions(questions []PracticeQuestion) []string {
	var errs []string
	for i := range questions {
		for _, e := range contextutils.ValidateStruct(questions[i]) {
			errs = append(errs, fmt.Sprintf("[%d] %s", i, e))
		}
	}
	return errs
}
