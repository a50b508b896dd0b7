package services

import (
	"context"

	"directed/internal/llm"
	"directed/internal/models"
	"directed/internal/observability"
	"directed/internal/serviceinterfaces"
	contextutils "directed/internal/utils"
)

// LearningPipeline runs retrieval, conversation, content generation and analysis prompts in order.
// Each step sees the previous steps' output.
type LearningPipeline struct {
	caller    *llm.Caller
	retriever serviceinterfaces.Retriever
	templates *PromptTemplateManager
	logger    *observability.Logger
}

var _ serviceinterfaces.PipelineRunner = (*LearningPipeline)(nil)

// NewLearningPipeline wires the pipeline. caller and retriever may be nil.
func NewLearningPipeline(caller *llm.Caller, retriever serviceinterfaces.Retriever, templates *PromptTemplateManager, logger *observability.Logger) *LearningPipeline {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &LearningPipeline{
		caller:    caller,
		retriever: retriever,
		templates: templates,
		logger:    logger,
	}
}

type pipelineStep struct {
	name     string
	template string
	data     func(in models.PipelineInput, out *models.PipelineResult, docs string) PromptData
	store    func(out *models.PipelineResult, text string)
}

var pipelineSteps = []pipelineStep{
	{
		name:     "content_retrieval",
		template: ContentRetrievalTemplate,
		data: func(in models.PipelineInput, _ *models.PipelineResult, docs string) PromptData {
			return PromptData{UserQuestion: in.UserQuestion, RetrievedDocuments: docs}
		},
		store: func(out *models.PipelineResult, text string) { out.RetrievedContent = text },
	},
	{
		name:     "adaptive_conversation",
		template: AdaptiveConversationTemplate,
		data: func(in models.PipelineInput, out *models.PipelineResult, _ string) PromptData {
			return PromptData{Topic: in.Topic, UserQuestion: in.UserQuestion, RetrievedContent: out.RetrievedContent}
		},
		store: func(out *models.PipelineResult, text string) { out.ConversationResponse = text },
	},
	{
		name:     "content_generation",
		template: ContentGenerationTemplate,
		data: func(in models.PipelineInput, out *models.PipelineResult, _ string) PromptData {
			return PromptData{Topic: in.Topic, DifficultyLevel: in.DifficultyLevel, RetrievedContent: out.RetrievedContent}
		},
		store: func(out *models.PipelineResult, text string) { out.GeneratedContent = text },
	},
	{
		name:     "learning_analysis",
		template: LearningAnalysisTemplate,
		data: func(in models.PipelineInput, out *models.PipelineResult, _ string) PromptData {
			return PromptData{ConversationHistory: in.ConversationHistory, GeneratedContent: out.GeneratedContent}
		},
		store: func(out *models.PipelineResult, text string) { out.LearningAnalysis = text },
	},
}

// Run executes every step. Model failures end up as sentinel text in the affected fields.
func (p *LearningPipeline) Run(ctx context.Context, input models.PipelineInput) (result *models.PipelineResult, err error) {
	ctx, span := observability.TracePipelineFunction(ctx, "run", observability.AttributeTopic(input.Topic))
	defer observability.FinishSpan(span, &err)

	if p.caller == nil {
		return nil, contextutils.ErrLLMUnavailable
	}

	docs := input.RetrievedDocuments
	if docs == "" && p.retriever != nil {
		if docs, err = p.retriever.Fetch(ctx, input.UserQuestion); err != nil {
			p.logger.Warn(ctx, "Pipeline retrieval failed, continuing without documents", map[string]interface{}{"error": err.Error()})
			docs, err = "", nil
		}
	}

	result = &models.PipelineResult{}
	for _, step := range pipelineSteps {
		prompt, renderErr := p.templates.Render(step.template, step.data(input, result, docs))
		if renderErr != nil {
			return nil, contextutils.WrapErrorf(renderErr, "failed to render %s prompt", step.name)
		}
		text := p.caller.Generate(llm.WithPurpose(ctx, step.name), prompt)
		if llm.IsSentinel(text) {
			p.logger.Warn(ctx, "Pipeline step returned no model output", map[string]interface{}{"step": step.name, "output": text})
		}
		step.store(result, text)
	}

	return result, nil
}
