package retriever

import (
	"context"
	"fmt"

	"github.com/hyperjump/semantik/internal/embedding"
	"github.com/hyperjump/semantik/internal/models"
	"github.com/hyperjump/semantik/internal/vector"
	"github.com/hyperjump/semantik/pkg/utils"
	"go.uber.org/zap"
)

// Semantic ranks passages by cosine similarity between the query embedding and
// the chunk embeddings.
type Semantic struct {
	embedder embedding.Embedder
	index    vector.VectorIndex
	store    ChunkStore
	logger   *zap.Logger
}

// NewSemantic returns a Semantic retriever. embedder should embed queries (see
// embedding.QueryEmbedder).
func NewSemantic(embedder embedding.Embedder, index vector.VectorIndex, store ChunkStore, opts ...Option) *Semantic {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Semantic{embedder: embedder, index: index, store: store, logger: utils.OrNop(o.logger)}
}

// Retrieve implements Retriever.
func (s *Semantic) Retrieve(ctx context.Context, query string, k int) ([]*models.Passage, error) {
	hits, err := s.search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return hydrate(ctx, s.store, hits, s.logger)
}

func (s *Semantic) search(ctx context.Context, query string, k int) ([]hit, error) {
	if k <= 0 || s.index.Size() == 0 {
		return nil, nil
	}
	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := s.index.Search(ctx, qvec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	hits := make([]hit, len(results))
	for i, r := range results {
		hits[i] = hit{id: r.ID, score: r.Score}
	}
	return hits, nil
}
