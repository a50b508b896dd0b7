package handlers

import (
	"net/http"
	"testing"

	"directed/internal/models"
	"directed/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeBody(t, w)["message"], "DirectEd API is running")
}

func TestChat_QuizRequest(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/assistant/chat", map[string]interface{}{
		"user_id":      "u1",
		"request_text": "Give me a quiz about Photosynthesis",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, models.UserTypeStudent, body["user_type"])
	assert.Equal(t, string(models.IntentQuiz), body["content_type"])

	output := body["output"].(map[string]interface{})
	assert.Equal(t, "Photosynthesis", output["topic"])
	assert.Len(t, output["questions"], 5)

	profile := body["updated_profile"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Give me a quiz about Photosynthesis"}, profile["struggling_topics"])
	assert.Len(t, env.store.Profile("u1").Snapshot().StrugglingTopics, 1)
}

func TestChat_TutoringInstructor(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/assistant/chat", map[string]interface{}{
		"user_id":       "instructor-1",
		"request_text":  "Explain recursion",
		"is_instructor": true,
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, models.UserTypeInstructor, body["user_type"])
	assert.Equal(t, string(models.IntentTutoring), body["content_type"])
	assert.Equal(t, services.FallbackAnswer("Explain recursion"), body["output"].(map[string]interface{})["text"])
}

func TestChat_MissingFields(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/assistant/chat", `{"user_id":"u1"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "INVALID_INPUT", body["code"])
	assert.Contains(t, body["details"], "requesttext: required")
}

func TestChat_EmptyRequestTextIsTutoring(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/assistant/chat", map[string]interface{}{"user_id": "u1", "request_text": ""})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, string(models.IntentTutoring), body["content_type"])
	assert.Equal(t, services.FallbackAnswer(""), body["output"].(map[string]interface{})["text"])
}

func TestChat_ExecutionFailure(t *testing.T) {
	env := newTestEnv(t, func(s *Services) {
		s.Assistant = stubRunner{result: models.NewExecutionFailure("quiz exploded")}
	})
	w := env.do(t, http.MethodPost, "/api/assistant/chat", map[string]interface{}{"user_id": "u1", "request_text": "quiz"})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "EXECUTION_FAILED", body["code"])
	assert.Equal(t, map[string]interface{}{
		"error":   models.ExecutionFailedTag,
		"details": "quiz exploded",
	}, body["detail"])
}

func TestInvoke_UsesFreshProfile(t *testing.T) {
	env := newTestEnv(t)
	payload := map[string]interface{}{"input": map[string]interface{}{"request": "Explain maps"}}

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/assistant/invoke", payload)
		require.Equal(t, http.StatusOK, w.Code)

		output := decodeBody(t, w)["output"].(map[string]interface{})
		profile := output["updated_profile"].(map[string]interface{})
		assert.Equal(t, []interface{}{"Explain maps"}, profile["struggling_topics"], "call %d", i)
	}
	assert.Empty(t, env.store.Profile("anonymous").Snapshot().StrugglingTopics)
}

func TestInvoke_FailureStaysOK(t *testing.T) {
	env := newTestEnv(t, func(s *Services) {
		s.Assistant = stubRunner{result: models.NewExecutionFailure("boom")}
	})
	w := env.do(t, http.MethodPost, "/assistant/invoke", map[string]interface{}{
		"input": map[string]interface{}{"request": "quiz me", "user_id": "u9"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	output := decodeBody(t, w)["output"].(map[string]interface{})
	assert.Equal(t, models.ExecutionFailedTag, output["error"])
	assert.Equal(t, "boom", output["details"])
}

func TestInvoke_EmptyRequest(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/assistant/invoke", map[string]interface{}{"input": map[string]interface{}{"request": ""}})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	output := decodeBody(t, w)["output"].(map[string]interface{})
	assert.Equal(t, string(models.IntentTutoring), output["content_type"])
}

func TestInvoke_MissingRequest(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/assistant/invoke", map[string]interface{}{"input": map[string]interface{}{"user_id": "u1"}})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["details"], "request: required")
}

func TestInvoke_MissingInput(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/assistant/invoke", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalytics(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/analytics/newbie", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "newbie", body["user_id"])
	assert.Empty(t, body["completed_quizzes"])
	assert.Empty(t, body["struggling_topics"])

	env.store.Profile("u2").Record("Go", "correct")
	w = env.do(t, http.MethodGet, "/analytics/u2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"Go"}, decodeBody(t, w)["completed_quizzes"])
}

func TestAnalytics_InvalidUserID(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/analytics/bad%09id", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decodeBody(t, w)["code"])
}

func TestAdaptiveLearning(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/assistant/adaptive_learning?user_id=u3", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, string(models.IntentTutoring), body["content_type"])
	assert.Equal(t,
		services.FallbackAnswer("explain Langchain to me in detail."),
		body["output"].(map[string]interface{})["text"])
}

func TestAdaptiveLearning_CurriculumComplete(t *testing.T) {
	env := newTestEnv(t)
	for _, topic := range env.cfg.Content.Curriculum {
		env.store.Profile("grad").Record(topic, "correct")
	}

	w := env.do(t, http.MethodPost, "/api/assistant/adaptive_learning?user_id=grad", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "message", body["content_type"])
	assert.Equal(t, services.CurriculumCompleteMessage, body["output"])
}

func TestAdaptiveLearning_MissingUser(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/assistant/adaptive_learning", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_REQUIRED_FIELD", decodeBody(t, w)["code"])
}
