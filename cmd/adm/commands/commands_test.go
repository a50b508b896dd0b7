package commands

import (
	"bytes"
	"context"
	"testing"

	"directed/internal/config"
	"directed/internal/models"
	"directed/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText(t *testing.T) {
	text := "first para\n\nsecond para\r\n\r\n\n\nthird paragraph that is long"

	assert.Equal(t, []string{"first para\n\nsecond para\n\nthird paragraph that is long"}, ChunkText(text, 1000))
	assert.Equal(t, []string{"first para\n\nsecond para", "third paragraph that is long"}, ChunkText(text, 25))
	assert.Equal(t, []string{"first para", "second para", "third paragraph that is long"}, ChunkText(text, 5))
	assert.Empty(t, ChunkText(" \n\n ", 10))
}

func TestMaskDatabaseURL(t *testing.T) {
	assert.Equal(t, "postgres://***:***@db:5432/x", maskDatabaseURL("postgres://u:p@db:5432/x"))
	assert.Equal(t, "(none)", maskDatabaseURL(""))
	assert.Equal(t, "Not connected", getDatabaseInfo(context.Background(), nil))
}

func newAssistantCommands(t *testing.T) (*services.MemoryProfileStore, map[string]func(args ...string) (string, error)) {
	t.Helper()
	cfg := config.ContentConfig{DefaultNumItems: 2, DefaultLevel: "beginner"}
	store := services.NewMemoryProfileStore(nil)
	content, err := services.NewContentGenerator(cfg, nil, nil, nil, nil)
	require.NoError(t, err)
	assistant := services.NewAssistantService(cfg, content, store, nil, nil)

	cmds := AssistantCommands(assistant, content, store, models.ContentRequest{NumItems: 2, Level: "beginner"})
	run := make(map[string]func(args ...string) (string, error))
	for _, c := range cmds {
		c := c
		run[c.Name()] = func(args ...string) (string, error) {
			var out bytes.Buffer
			c.SetOut(&out)
			c.SetErr(&out)
			c.SetArgs(args)
			err := c.ExecuteContext(context.Background())
			return out.String(), err
		}
	}
	return store, run
}

func TestAskAndProfile(t *testing.T) {
	store, run := newAssistantCommands(t)

	out, err := run["ask"]("--user", "cli-user", "Explain", "closures")
	require.NoError(t, err)
	assert.Contains(t, out, `"content_type": "TUTORING"`)
	assert.Equal(t, []string{"Explain closures"}, store.Profile("cli-user").Snapshot().StrugglingTopics)

	out, err = run["profile"]("cli-user")
	require.NoError(t, err)
	assert.Contains(t, out, "Explain closures")
}

func TestGenerate(t *testing.T) {
	_, run := newAssistantCommands(t)

	out, err := run["generate"]("--type", "flashcards", "-n", "3", "Go")
	require.NoError(t, err)
	assert.Contains(t, out, "Go (beginner): Key point #3")

	_, err = run["generate"]("--type", "essay", "Go")
	assert.Error(t, err)
}
