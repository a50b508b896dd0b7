package models

import (
	"encoding/json"
)

// Intent is the coarse classification of a free-text request
type Intent string

const (
	IntentQuiz     Intent = "QUIZ"
	IntentTutoring Intent = "TUTORING"
)

// User roles reported back to the caller
const (
	UserTypeInstructor = "Instructor"
	UserTypeStudent    = "Student"
)

// ExecutionFailedTag is the error tag of a failed assistant run
const ExecutionFailedTag = "execution_failed"

// AssistantRequest is the chat endpoint payload. request_text must be present but may be empty.
type AssistantRequest struct {
	UserID       string  `json:"user_id" binding:"required"`
	RequestText  *string `json:"request_text" binding:"required"`
	IsInstructor bool    `json:"is_instructor"`
}

// TutoringOutput wraps a free-form answer
type TutoringOutput struct {
	Text string `json:"text"`
}

// AssistantResponse is a successful assistant run
type AssistantResponse struct {
	UserType       string          `json:"user_type"`
	ContentType    string          `json:"content_type"`
	Output         interface{}     `json:"output"`
	UpdatedProfile ProfileSnapshot `json:"updated_profile"`
}

// ExecutionFailure is the tagged result of a run that could not complete
type ExecutionFailure struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// AssistantResult holds exactly one of Response or Failure
type AssistantResult struct {
	Response *AssistantResponse
	Failure  *ExecutionFailure
}

// Failed reports whether the run produced an ExecutionFailure
func (r AssistantResult) Failed() bool {
	return r.Failure != nil
}

// MarshalJSON serialises whichever variant is set
func (r AssistantResult) MarshalJSON() ([]byte, error) {
	if r.Failure != nil {
		return json.Marshal(r.Failure)
	}
	return json.Marshal(r.Response)
}

// NewExecutionFailure builds a failed result
func NewExecutionFailure(details string) AssistantResult {
	return AssistantResult{Failure: &ExecutionFailure{Error: ExecutionFailedTag, Details: details}}
}

// PipelineInput feeds the sequential learning pipeline
type PipelineInput struct {
	Topic               string `json:"topic" binding:"required"`
	UserQuestion        string `json:"user_question" binding:"required"`
	DifficultyLevel     string `json:"difficulty_level"`
	ConversationHistory string `json:"conversation_history"`
	// RetrievedDocuments skips retrieval when set
	RetrievedDocuments string `json:"retrieved_documents,omitempty"`
}

// PipelineResult carries each pipeline step's output
type PipelineResult struct {
	RetrievedContent     string `json:"retrieved_content"`
	ConversationResponse string `json:"conversation_response"`
	GeneratedContent     string `json:"generated_content"`
	LearningAnalysis     string `json:"learning_analysis"`
}
