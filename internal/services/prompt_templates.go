package services

import (
	"embed"
	"strings"
	"text/template"

	contextutils "directed/internal/utils"
)

//go:embed templates/*.tmpl
var promptTemplatesFS embed.FS

// Template names as constants
const (
	TutorAnswerTemplate          = "tutor_answer.tmpl"
	QuizJSONTemplate             = "quiz_json.tmpl"
	ContentRetrievalTemplate     = "content_retrieval.tmpl"
	AdaptiveConversationTemplate = "adaptive_conversation.tmpl"
	ContentGenerationTemplate    = "content_generation.tmpl"
	LearningAnalysisTemplate     = "learning_analysis.tmpl"
)

// PromptData holds data for rendering prompt templates
type PromptData struct {
	// Tutoring and quiz prompts
	Question string
	Content  string
	Topic    string
	NumItems int
	Level    string
	Notes    string

	// Learning pipeline
	UserQuestion        string
	RetrievedDocuments  string
	RetrievedContent    string
	DifficultyLevel     string
	ConversationHistory string
	GeneratedContent    string
}

// PromptTemplateManager renders the embedded prompt templates
type PromptTemplateManager struct {
	templates *template.Template
}

// NewPromptTemplateManager parses every embedded template
func NewPromptTemplateManager() (*PromptTemplateManager, error) {
	templates, err := template.New("").Option("missingkey=error").ParseFS(promptTemplatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to parse prompt templates")
	}
	return &PromptTemplateManager{templates: templates}, nil
}

// Render executes templateName with data
func (tm *PromptTemplateManager) Render(templateName string, data PromptData) (string, error) {
	var buf strings.Builder
	if err := tm.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		return "", contextutils.WrapErrorf(err, "failed to render %s", templateName)
	}
	return strings.TrimSpace(buf.String()), nil
}
