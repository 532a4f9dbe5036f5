// Package retriever finds the passages most similar to a query. Passages come
// back ordered by descending score and carry the page label recorded when the
// PDF was indexed.
package retriever

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/semantik/internal/models"
	"github.com/hyperjump/semantik/internal/storage"
	"go.uber.org/zap"
)

// Retriever returns up to k passages for query, best first.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]*models.Passage, error)
}

// ChunkStore is the part of storage.Storage needed to turn hits into passages.
type ChunkStore interface {
	GetChunk(ctx context.Context, id string) (*models.Chunk, error)
	GetDocument(ctx context.Context, id string) (*models.Document, error)
}

// Option configures a retriever.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// hit is a scored chunk ID before hydration.
type hit struct {
	id    string
	score float64
}

// hydrate loads chunk and document rows for hits, preserving order. Hits whose
// chunk has disappeared since the vector index was written are skipped.
func hydrate(ctx context.Context, store ChunkStore, hits []hit, logger *zap.Logger) ([]*models.Passage, error) {
	docs := make(map[string]*models.Document)
	passages := make([]*models.Passage, 0, len(hits))
	for _, h := range hits {
		chunk, err := store.GetChunk(ctx, h.id)
		if errors.Is(err, storage.ErrNotFound) {
			logger.Debug("skipping stale chunk", zap.String("chunk_id", h.id))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load chunk %s: %w", h.id, err)
		}
		doc, ok := docs[chunk.DocumentID]
		if !ok {
			doc, err = store.GetDocument(ctx, chunk.DocumentID)
			if errors.Is(err, storage.ErrNotFound) {
				logger.Debug("skipping chunk of deleted document", zap.String("chunk_id", h.id))
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("load document %s: %w", chunk.DocumentID, err)
			}
			docs[chunk.DocumentID] = doc
		}
		passages = append(passages, &models.Passage{
			Text:        chunk.Content,
			ClaimedPage: chunk.PageLabel,
			FilePath:    doc.Path,
			Score:       models.Float64(h.score),
			DocumentID:  doc.ID,
			ChunkID:     chunk.ID,
		})
	}
	return passages, nil
}
