package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	contextutils "directed/internal/utils"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated at MaxTokens.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// ErrEmptyResponse is returned when the model answered with no text
var ErrEmptyResponse = errors.New("no response from LLM")

// ToAppError classifies a provider error into the service error taxonomy
func ToAppError(err error) error {
	if err == nil {
		return nil
	}

	var rl *ErrRateLimit
	var unavailable *ErrProviderUnavailable
	var invalid *ErrInvalidResponse
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeTimeout, contextutils.SeverityWarn, "LLM request timed out", err.Error(), err)
	case errors.As(err, &rl):
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeRateLimit, contextutils.SeverityWarn, "LLM rate limited", err.Error(), err)
	case errors.As(err, &unavailable):
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeLLMUnavailable, contextutils.SeverityError, "LLM provider unavailable", err.Error(), err)
	case errors.As(err, &invalid):
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeValidationShape, contextutils.SeverityError, "LLM response did not match schema", err.Error(), err)
	default:
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeLLMRequestFailed, contextutils.SeverityError, "LLM request failed", err.Error(), err)
	}
}
