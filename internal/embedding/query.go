package embedding

import (
	"context"
	"strings"
)

// QueryEmbedder embeds search queries with an instruction prefix, as BGE-style
// retrieval models expect. Passages are embedded without it.
type QueryEmbedder struct {
	Embedder
	instruction string
}

// NewQueryEmbedder wraps e. An empty instruction embeds queries unchanged.
func NewQueryEmbedder(e Embedder, instruction string) *QueryEmbedder {
	return &QueryEmbedder{Embedder: e, instruction: instruction}
}

// Embed embeds the instruction followed by the trimmed query.
func (q *QueryEmbedder) Embed(ctx context.Context, query string) ([]float32, error) {
	return q.Embedder.Embed(ctx, q.Prompt(query))
}

// EmbedBatch embeds each query with the instruction.
func (q *QueryEmbedder) EmbedBatch(ctx context.Context, queries []string) ([][]float32, error) {
	return embedEach(ctx, q, queries)
}

// Prompt returns the text that is actually embedded for query.
func (q *QueryEmbedder) Prompt(query string) string {
	return q.instruction + strings.TrimSpace(query)
}
