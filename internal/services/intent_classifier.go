package services

import (
	"strings"

	"directed/internal/models"
)

// quizKeywords are matched as case-insensitive substrings
var quizKeywords = []string{"quiz", "test", "mcq", "multiple choice"}

// ClassifyIntent labels text QUIZ when it mentions any quiz keyword, otherwise TUTORING.
// Matching is substring based, so "latest" counts as a quiz request.
func ClassifyIntent(text string) models.Intent {
	lowered := strings.ToLower(text)
	for _, kw := range quizKeywords {
		if strings.Contains(lowered, kw) {
			return models.IntentQuiz
		}
	}
	return models.IntentTutoring
}
