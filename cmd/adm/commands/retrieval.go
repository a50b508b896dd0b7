package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"directed/internal/observability"
	"directed/internal/retrieval"
	contextutils "directed/internal/utils"

	"github.com/spf13/cobra"
)

// maxChunkChars bounds one ingested passage
const maxChunkChars = 1500

// RetrievalCommands returns ingest and search. getRetriever errors when retrieval is disabled.
func RetrievalCommands(getRetriever func() (*retrieval.Retriever, error), logger *observability.Logger) []*cobra.Command {
	return []*cobra.Command{
		ingestCmd(getRetriever, logger),
		searchCmd(getRetriever),
	}
}

func ingestCmd(getRetriever func() (*retrieval.Retriever, error), logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Split text files into passages and add them to the course collection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := getRetriever()
			if err != nil {
				return contextutils.WrapError(err, "retrieval is not enabled")
			}

			var docs []retrieval.Document
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "failed to read %s: %w", path, err)
				}
				for i, chunk := range ChunkText(string(data), maxChunkChars) {
					docs = append(docs, retrieval.Document{
						Content: chunk,
						Metadata: map[string]string{
							"source": filepath.Base(path),
							"chunk":  fmt.Sprint(i),
						},
					})
				}
			}

			ids, err := r.Ingest(cmd.Context(), docs)
			if err != nil {
				return err
			}
			logger.Info(cmd.Context(), "Ingested passages", map[string]interface{}{"files": len(args), "passages": len(ids), "total": r.Count()})
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ingested %d passages from %d files (collection size %d)\n", len(ids), len(args), r.Count())
			return err
		},
	}
}

func searchCmd(getRetriever func() (*retrieval.Retriever, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Show the passages retrieved for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := getRetriever()
			if err != nil {
				return contextutils.WrapError(err, "retrieval is not enabled")
			}
			passages, err := r.Fetch(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), passages)
			return err
		},
	}
}

// ChunkText groups blank-line separated paragraphs into chunks of at most limit bytes.
// A single paragraph longer than limit becomes its own chunk.
func ChunkText(text string, limit int) []string {
	var (
		chunks  []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+2+len(para) > limit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()
	return chunks
}
