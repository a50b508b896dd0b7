package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"directed/internal/config"
	contextutils "directed/internal/utils"

	chromem "github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder places each known keyword on its own axis, with a shared bias axis
type keywordEmbedder struct {
	keywords []string
	fail     bool
}

func (e keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.fail {
		return nil, errors.New("embedding backend down")
	}
	vec := make([]float32, len(e.keywords)+1)
	vec[len(e.keywords)] = 0.1
	lower := strings.ToLower(text)
	for i, kw := range e.keywords {
		if strings.Contains(lower, kw) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func newTestRetriever(t *testing.T, topK int) *Retriever {
	t.Helper()
	embedder := keywordEmbedder{keywords: []string{"goroutine", "channel", "sql", "index"}}
	r, err := NewWithDB(chromem.NewDB(), "test_docs", topK, embedder, nil)
	require.NoError(t, err)
	return r
}

func TestRetriever_FetchJoinsTopK(t *testing.T) {
	r := newTestRetriever(t, 2)
	ctx := context.Background()

	ids, err := r.Ingest(ctx, []Document{
		{Content: "A goroutine is a lightweight thread."},
		{Content: "A channel connects goroutine workers."},
		{Content: "An sql index speeds up lookups."},
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, 3, r.Count())

	out, err := r.Fetch(ctx, "how does a goroutine use a channel")
	require.NoError(t, err)

	passages := strings.Split(out, "\n\n")
	require.Len(t, passages, 2)
	assert.Equal(t, "A channel connects goroutine workers.", passages[0])
	assert.Equal(t, "A goroutine is a lightweight thread.", passages[1])
}

func TestRetriever_FetchCapsAtCollectionSize(t *testing.T) {
	r := newTestRetriever(t, 10)
	ctx := context.Background()

	_, err := r.Ingest(ctx, []Document{{ID: "only", Content: "An sql index."}})
	require.NoError(t, err)

	out, err := r.Fetch(ctx, "sql")
	require.NoError(t, err)
	assert.Equal(t, "An sql index.", out)
}

func TestRetriever_FetchEmpty(t *testing.T) {
	r := newTestRetriever(t, 4)

	out, err := r.Fetch(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = r.Fetch(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRetriever_IngestKeepsGivenIDs(t *testing.T) {
	r := newTestRetriever(t, 4)

	ids, err := r.Ingest(context.Background(), []Document{
		{ID: "lesson-1", Content: "goroutine basics"},
		{Content: "   "},
		{Content: "channel basics"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, "lesson-1", ids[0])
	assert.Len(t, ids[1], 36)
}

func TestRetriever_IngestNothing(t *testing.T) {
	r := newTestRetriever(t, 4)

	_, err := r.Ingest(context.Background(), []Document{{Content: ""}})
	assert.Equal(t, contextutils.ErrorCodeInvalidInput, contextutils.GetErrorCode(err))
}

func TestRetriever_EmbeddingFailure(t *testing.T) {
	r, err := NewWithDB(chromem.NewDB(), "broken", 2, keywordEmbedder{fail: true}, nil)
	require.NoError(t, err)

	_, err = r.Ingest(context.Background(), []Document{{Content: "goroutine"}})
	assert.Equal(t, contextutils.ErrorCodeRetrievalFailed, contextutils.GetErrorCode(err))
}

func TestNew_PersistentPath(t *testing.T) {
	dir := t.TempDir()
	embedder := keywordEmbedder{keywords: []string{"sql"}}
	cfg := config.RetrievalConfig{Path: dir, Collection: "persisted", TopK: 1}

	r, err := New(cfg, embedder, nil)
	require.NoError(t, err)
	_, err = r.Ingest(context.Background(), []Document{{ID: "a", Content: "sql joins"}})
	require.NoError(t, err)

	reopened, err := New(cfg, embedder, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Count())
}
