// Package embedding turns passages and queries into vectors.
package embedding

import (
	"context"
	"errors"
	"os"

	"github.com/hyperjump/semantik/internal/config"
	"github.com/hyperjump/semantik/pkg/utils"
	"go.uber.org/zap"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// New returns the ONNX embedder for cfg.ModelPath, or a HashingEmbedder when the
// model file is missing or the runtime cannot load it.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) Embedder {
	logger = utils.OrNop(logger)
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		logger.Warn("embedding model not found, using hashing embedder",
			zap.String("model_path", cfg.ModelPath))
		return NewHashingEmbedder(cfg.Dimensions)
	}
	e, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
	if err != nil {
		logger.Warn("onnx embedder unavailable, using hashing embedder",
			zap.String("model_path", cfg.ModelPath), zap.Error(err))
		return NewHashingEmbedder(cfg.Dimensions)
	}
	return e
}

func embedEach(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}

var errClosed = errors.New("embedder closed")
