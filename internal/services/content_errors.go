package services

import (
	"fmt"

	contextutils "directed/internal/utils"
)

// Failure messages per content kind
const (
	msgInvalidFlashcardShape = "Invalid flashcard shape"
	msgInvalidQuizShape      = "Invalid quiz shape"
	msgInvalidPracticeShape  = "Invalid practice-question shape"

	msgFlashcardFailed = "Flashcard generation failed"
	msgQuizFailed      = "Quiz generation failed"
	msgPracticeFailed  = "Practice question generation failed"
)

// newValidationShapeError reports generated content that does not have the expected structure
func newValidationShapeError(message string, errs []string) *contextutils.AppError {
	if errs == nil {
		errs = []string{}
	}
	return &contextutils.AppError{
		Code:     contextutils.ErrorCodeValidationShape,
		Severity: contextutils.SeverityError,
		Message:  message,
		Details:  fmt.Sprintf("%d validation error(s)", len(errs)),
		Data:     map[string]interface{}{"errors": errs},
	}
}

// newGenerationFailure reports any other generation problem
func newGenerationFailure(message string, cause error) *contextutils.AppError {
	return &contextutils.AppError{
		Code:     contextutils.ErrorCodeGenerationFailed,
		Severity: contextutils.SeverityError,
		Message:  message,
		Details:  cause.Error(),
		Data:     map[string]interface{}{"reason": cause.Error()},
		Cause:    cause,
	}
}

// recoverGeneration turns a panic during synthesis into a generation failure
func recoverGeneration(errPtr *error, message string) {
	if r := recover(); r != nil {
		*errPtr = newGenerationFailure(message, fmt.Errorf("panic: %v", r))
	}
}
