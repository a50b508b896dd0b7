// Package retrieval serves course passages from a chromem vector collection.
package retrieval

import (
	"context"
	"fmt"
	"os"
	"strings"

	"directed/internal/config"
	"directed/internal/observability"
	contextutils "directed/internal/utils"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel/attribute"
)

// passageSeparator joins retrieved passages
const passageSeparator = "\n\n"

// Document is a passage to ingest
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Retriever fetches the passages closest to a query.
type Retriever struct {
	collection *chromem.Collection
	topK       int
	logger     *observability.Logger
}

// New opens the configured store. An empty path keeps the collection in memory.
func New(cfg config.RetrievalConfig, embedder Embedder, logger *observability.Logger) (*Retriever, error) {
	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", cfg.Path, err)
		}
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("creating chromem DB: %w", err)
		}
	}
	return NewWithDB(db, cfg.Collection, cfg.TopK, embedder, logger)
}

// NewWithDB uses an already opened chromem database
func NewWithDB(db *chromem.DB, collection string, topK int, embedder Embedder, logger *observability.Logger) (*Retriever, error) {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if topK <= 0 {
		topK = config.DefaultTopK
	}

	embed := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}
	col, err := db.GetOrCreateCollection(collection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", collection, err)
	}

	return &Retriever{collection: col, topK: topK, logger: logger}, nil
}

// Fetch returns the top-k passages for query joined by a blank line.
// An empty collection yields "".
func (r *Retriever) Fetch(ctx context.Context, query string) (result string, err error) {
	ctx, span := observability.TraceRetrievalFunction(ctx, "fetch",
		attribute.Int("retrieval.top_k", r.topK),
	)
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(query) == "" {
		return "", nil
	}

	// chromem rejects nResults above the document count
	k := min(r.topK, r.collection.Count())
	if k == 0 {
		return "", nil
	}

	results, err := r.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrRetrievalFailed, "querying collection: %v", err)
	}

	passages := make([]string, 0, len(results))
	for _, res := range results {
		passages = append(passages, res.Content)
	}
	span.SetAttributes(attribute.Int("retrieval.results", len(passages)))
	r.logger.Debug(ctx, "retrieved passages", map[string]interface{}{"count": len(passages)})

	return strings.Join(passages, passageSeparator), nil
}

// Ingest embeds and stores docs, assigning ids to those without one.
func (r *Retriever) Ingest(ctx context.Context, docs []Document) (ids []string, err error) {
	ctx, span := observability.TraceRetrievalFunction(ctx, "ingest",
		attribute.Int("retrieval.documents", len(docs)),
	)
	defer observability.FinishSpan(span, &err)

	chromemDocs := make([]chromem.Document, 0, len(docs))
	ids = make([]string, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			continue
		}
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		}
		ids = append(ids, id)
		chromemDocs = append(chromemDocs, chromem.Document{
			ID:       id,
			Content:  doc.Content,
			Metadata: doc.Metadata,
		})
	}
	if len(chromemDocs) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "no non-empty documents to ingest")
	}

	if err := r.collection.AddDocuments(ctx, chromemDocs, 1); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrRetrievalFailed, "adding documents: %v", err)
	}

	r.logger.Info(ctx, "ingested documents", map[string]interface{}{"count": len(ids)})
	return ids, nil
}

// Count returns the number of stored passages
func (r *Retriever) Count() int {
	return r.collection.Count()
}
