package serviceinterfaces

import (
	"context"

	"directed/internal/models"
)

// ContentService produces study material
type ContentService interface {
	GenerateFlashcards(ctx context.Context, topic string, n int, level, notes string) ([]models.Flashcard, error)
	GenerateQuiz(ctx context.Context, subjectOrRequest string, n int, level, notes string) (*models.Quiz, error)
	GeneratePractice(ctx context.Context, topic string, n int, level, notes string) ([]models.PracticeQuestion, error)

	// Generate dispatches on req.Type
	Generate(ctx context.Context, req models.ContentRequest) (interface{}, error)

	// AnswerGenerator answers a free-form question; it always returns text
	AnswerGenerator(ctx context.Context, requestText string) string
}

// Retriever returns passages relevant to a query
type Retriever interface {
	Fetch(ctx context.Context, query string) (string, error)
}
