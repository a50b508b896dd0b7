package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"directed/internal/config"
	"directed/internal/llm"
	"directed/internal/models"
	"directed/internal/observability"
	"directed/internal/serviceinterfaces"
	contextutils "directed/internal/utils"
)

// quizSeed fixes the correct-answer positions so identical input gives an identical quiz
const quizSeed = 42

var optionLabels = [4]string{"A", "B", "C", "D"}

// ContentGenerator produces flashcards, quizzes, practice questions and tutoring answers.
// Without a language model everything is synthesised from templates.
type ContentGenerator struct {
	cfg       config.ContentConfig
	caller    *llm.Caller
	retriever serviceinterfaces.Retriever
	templates *PromptTemplateManager
	schemas   *contentSchemas
	logger    *observability.Logger
}

var _ serviceinterfaces.ContentService = (*ContentGenerator)(nil)

// NewContentGenerator wires the generator. caller and retriever may be nil.
func NewContentGenerator(cfg config.ContentConfig, caller *llm.Caller, retriever serviceinterfaces.Retriever, templates *PromptTemplateManager, logger *observability.Logger) (*ContentGenerator, error) {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if templates == nil {
		var err error
		if templates, err = NewPromptTemplateManager(); err != nil {
			return nil, err
		}
	}
	schemas, err := loadContentSchemas()
	if err != nil {
		return nil, err
	}

	return &ContentGenerator{
		cfg:       cfg,
		caller:    caller,
		retriever: retriever,
		templates: templates,
		schemas:   schemas,
		logger:    logger,
	}, nil
}

// Generate dispatches a validated ContentRequest to the matching generator
func (g *ContentGenerator) Generate(ctx context.Context, req models.ContentRequest) (interface{}, error) {
	if errs := contextutils.ValidateStruct(req); errs != nil {
		return nil, contextutils.ErrInvalidInput.WithData(map[string]interface{}{"errors": errs})
	}

	switch req.Type {
	case models.ContentTypeFlashcards:
		return g.GenerateFlashcards(ctx, req.Topic, req.NumItems, req.Level, req.Notes)
	case models.ContentTypeQuiz:
		return g.GenerateQuiz(ctx, req.Topic, req.NumItems, req.Level, req.Notes)
	case models.ContentTypePracticeQuestions:
		return g.GeneratePractice(ctx, req.Topic, req.NumItems, req.Level, req.Notes)
	default:
		return nil, contextutils.ErrInvalidContentType
	}
}

// GenerateFlashcards returns exactly max(n,1) cards. An empty level is left off the card text.
func (g *ContentGenerator) GenerateFlashcards(ctx context.Context, topic string, n int, level, notes string) (cards []models.Flashcard, err error) {
	_, span := observability.TraceContentFunction(ctx, "generate_flashcards",
		observability.AttributeTopic(topic),
		observability.AttributeNumItems(n),
		observability.AttributeLevel(level),
	)
	defer observability.FinishSpan(span, &err)
	defer recoverGeneration(&err, msgFlashcardFailed)

	n = max(n, 1)
	cards = make([]models.Flashcard, 0, n)
	for i := 1; i <= n; i++ {
		cards = append(cards, models.Flashcard{
			Front: fmt.Sprintf("%s%s: Key point #%d", topic, levelSuffix(level), i),
			Back:  strings.TrimSpace(fmt.Sprintf("Short explanation for key point #%d. %s", i, notes)),
			Topic: topic,
			Level: level,
		})
	}

	shapeErrs := append(g.schemas.check(models.ContentTypeFlashcards, cards), models.ValidateFlashcards(cards)...)
	if len(shapeErrs) > 0 {
		return nil, newValidationShapeError(msgInvalidFlashcardShape, shapeErrs)
	}
	return cards, nil
}

// GenerateQuiz builds an n-question quiz. subjectOrRequest may be a bare topic or a
// whole request such as "give me a quiz about channels".
func (g *ContentGenerator) GenerateQuiz(ctx context.Context, subjectOrRequest string, n int, level, notes string) (quiz *models.Quiz, err error) {
	topic := QuizTopic(subjectOrRequest)
	ctx, span := observability.TraceContentFunction(ctx, "generate_quiz",
		observability.AttributeTopic(topic),
		observability.AttributeNumItems(n),
		observability.AttributeLevel(level),
	)
	defer observability.FinishSpan(span, &err)
	defer recoverGeneration(&err, msgQuizFailed)

	n = max(n, 1)
	if g.cfg.LLMQuiz && g.caller != nil {
		quiz, err = g.llmQuiz(ctx, topic, n, level, notes)
		if err != nil {
			return nil, err
		}
	} else {
		quiz = synthesizeQuiz(topic, n, level, notes)
	}

	shapeErrs := append(g.schemas.check(models.ContentTypeQuiz, quiz), quiz.Validate()...)
	if len(shapeErrs) > 0 {
		return nil, newValidationShapeError(msgInvalidQuizShape, shapeErrs)
	}
	return quiz, nil
}

// QuizTopic takes the text after the last "about", or the whole input, trimmed.
// An empty result becomes "General".
func QuizTopic(subjectOrRequest string) string {
	topic := strings.TrimSpace(subjectOrRequest)
	if strings.Contains(subjectOrRequest, "about") {
		parts := strings.Split(subjectOrRequest, "about")
		topic = strings.TrimSpace(parts[len(parts)-1])
	}
	if topic == "" {
		return "General"
	}
	return topic
}

func synthesizeQuiz(topic string, n int, level, notes string) *models.Quiz {
	rng := rand.New(rand.NewSource(quizSeed))

	explanation := "core concept"
	if notes != "" {
		explanation = notes
	}

	questions := make([]models.QuizQuestion, 0, n)
	for i := 1; i <= n; i++ {
		correct := rng.Intn(len(optionLabels))
		options := make([]models.MCQOption, len(optionLabels))
		for idx, label := range optionLabels {
			text := fmt.Sprintf("Option %s about %s", label, topic)
			if idx == correct {
				text = fmt.Sprintf("Correct concept for #%d in %s", i, topic)
			}
			options[idx] = models.MCQOption{Label: label, Text: text}
		}
		questions = append(questions, models.QuizQuestion{
			Question:     fmt.Sprintf("[%s] Question #%d%s", topic, i, levelSuffix(level)),
			Options:      options,
			CorrectLabel: optionLabels[correct],
			Explanation:  fmt.Sprintf("Because it aligns with: %s.", explanation),
		})
	}

	return &models.Quiz{
		Title:     topic + " Quiz",
		Topic:     topic,
		Level:     level,
		Questions: questions,
	}
}

func (g *ContentGenerator) llmQuiz(ctx context.Context, topic string, n int, level, notes string) (*models.Quiz, error) {
	prompt, err := g.templates.Render(QuizJSONTemplate, PromptData{
		Topic:    topic,
		NumItems: n,
		Level:    level,
		Notes:    notes,
		Content:  g.fetchContext(ctx, topic),
	})
	if err != nil {
		return nil, newGenerationFailure(msgQuizFailed, err)
	}

	var quiz models.Quiz
	err = g.caller.CompleteJSON(llm.WithPurpose(ctx, "quiz"), prompt, g.schemas.quizLLM, &quiz)
	if err != nil {
		var invalid *llm.ErrInvalidResponse
		if errors.As(err, &invalid) {
			return nil, newValidationShapeError(msgInvalidQuizShape, []string{invalid.Err.Error()})
		}
		return nil, newGenerationFailure(msgQuizFailed, llm.ToAppError(err))
	}

	if quiz.Topic == "" {
		quiz.Topic = topic
	}
	if quiz.Level == "" {
		quiz.Level = level
	}
	return &quiz, nil
}

// GeneratePractice returns exactly max(n,1) practice questions
func (g *ContentGenerator) GeneratePractice(ctx context.Context, topic string, n int, level, notes string) (questions []models.PracticeQuestion, err error) {
	_, span := observability.TraceContentFunction(ctx, "generate_practice",
		observability.AttributeTopic(topic),
		observability.AttributeNumItems(n),
		observability.AttributeLevel(level),
	)
	defer observability.FinishSpan(span, &err)
	defer recoverGeneration(&err, msgPracticeFailed)

	n = max(n, 1)
	questions = make([]models.PracticeQuestion, 0, n)
	for i := 1; i <= n; i++ {
		questions = append(questions, models.PracticeQuestion{
			Prompt: fmt.Sprintf("Practice: Explain '%s' concept #%d%s", topic, i, levelSuffix(level)),
			Answer: fmt.Sprintf("Sample answer emphasizing %s key idea #%d.", topic, i),
			Hint:   strings.TrimSpace("Think of the definition and one real-world example. " + notes),
			Topic:  topic,
			Level:  level,
		})
	}

	shapeErrs := append(g.schemas.check(models.ContentTypePracticeQuestions, questions), models.ValidatePracticeQuestions(questions)...)
	if len(shapeErrs) > 0 {
		return nil, newValidationShapeError(msgInvalidPracticeShape, shapeErrs)
	}
	return questions, nil
}

// AnswerGenerator asks the model when one is configured and falls back to a
// templated explanation when there is none or the call fails.
func (g *ContentGenerator) AnswerGenerator(ctx context.Context, requestText string) string {
	ctx, span := observability.TraceContentFunction(ctx, "answer_generator")
	defer span.End()

	if g.caller != nil {
		prompt, err := g.templates.Render(TutorAnswerTemplate, PromptData{
			Question: requestText,
			Content:  g.fetchContext(ctx, requestText),
		})
		if err == nil {
			var text string
			text, err = g.caller.Complete(llm.WithPurpose(ctx, "tutor"), prompt)
			if err == nil {
				return text
			}
		}
		observability.RecordSpanError(span, err)
		g.logger.Warn(ctx, "Falling back to templated answer", map[string]interface{}{
			"error": err.Error(),
			"model": g.caller.ModelID(),
		})
	}

	return FallbackAnswer(requestText)
}

// FallbackAnswer is the templated tutoring answer
func FallbackAnswer(requestText string) string {
	return fmt.Sprintf("Short explanation for: '%s'.\nExample: This is a concise example describing %s.", requestText, requestText)
}

// fetchContext returns retrieved passages, or "" when retrieval is off or fails
func (g *ContentGenerator) fetchContext(ctx context.Context, query string) string {
	if g.retriever == nil {
		return ""
	}
	passages, err := g.retriever.Fetch(ctx, query)
	if err != nil {
		g.logger.Warn(ctx, "Retrieval failed, continuing without context", map[string]interface{}{"error": err.Error()})
		return ""
	}
	return passages
}

func levelSuffix(level string) string {
	if level == "" {
		return ""
	}
	return " (" + level + ")"
}
