package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"directed/internal/config"
	"directed/internal/models"
	"directed/internal/serviceinterfaces"
	"directed/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			CORSOrigins:        []string{"http://localhost:3000"},
			RateLimitPerMinute: 1000,
		},
		Content: config.ContentConfig{
			DefaultNumItems: 5,
			DefaultLevel:    "beginner",
			Curriculum:      []string{"Langchain", "LLM reasoning", "Design"},
		},
		OpenTelemetry: config.OpenTelemetryConfig{ServiceName: "directed-test"},
	}
}

type testEnv struct {
	cfg    *config.Config
	store  *services.MemoryProfileStore
	router *gin.Engine
}

// newTestEnv wires real in-memory services with no language model
func newTestEnv(t *testing.T, overrides ...func(*Services)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	store := services.NewMemoryProfileStore(nil)
	content, err := services.NewContentGenerator(cfg.Content, nil, nil, nil, nil)
	require.NoError(t, err)
	assistant := services.NewAssistantService(cfg.Content, content, store, nil, nil)

	svc := Services{
		Assistant: assistant,
		Content:   content,
		Profiles:  store,
		Adaptive:  services.NewAdaptiveLearningService(assistant, store, cfg.Content.Curriculum, nil),
		Pipeline:  services.NewLearningPipeline(nil, nil, nil, nil),
		SessionStore: func() serviceinterfaces.ProfileStore {
			return services.NewMemoryProfileStore(nil)
		},
	}
	for _, o := range overrides {
		o(&svc)
	}

	return &testEnv{cfg: cfg, store: store, router: NewRouter(cfg, svc, nil)}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// stubContent fails every generation with err
type stubContent struct {
	err error
}

func (s stubContent) GenerateFlashcards(context.Context, string, int, string, string) ([]models.Flashcard, error) {
	return nil, s.err
}

func (s stubContent) GenerateQuiz(context.Context, string, int, string, string) (*models.Quiz, error) {
	return nil, s.err
}

func (s stubContent) GeneratePractice(context.Context, string, int, string, string) ([]models.PracticeQuestion, error) {
	return nil, s.err
}

func (s stubContent) Generate(context.Context, models.ContentRequest) (interface{}, error) {
	return nil, s.err
}

func (s stubContent) AnswerGenerator(context.Context, string) string {
	return "stub answer"
}

// stubRunner returns a fixed result
type stubRunner struct {
	result models.AssistantResult
}

func (s stubRunner) Run(context.Context, string, string, serviceinterfaces.ProfileStore, bool) models.AssistantResult {
	return s.result
}

// stubPipeline echoes its input into the result
type stubPipeline struct{}

func (stubPipeline) Run(_ context.Context, in models.PipelineInput) (*models.PipelineResult, error) {
	return &models.PipelineResult{
		RetrievedContent:     in.RetrievedDocuments,
		ConversationResponse: "about " + in.Topic,
		GeneratedContent:     "exercise",
		LearningAnalysis:     "analysis",
	}, nil
}
