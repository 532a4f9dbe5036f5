package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/hyperjump/semantik/internal/config"
	"github.com/hyperjump/semantik/internal/embedding"
	"github.com/hyperjump/semantik/internal/extract"
	"github.com/hyperjump/semantik/internal/indexer"
	"github.com/hyperjump/semantik/internal/keyword"
	"github.com/hyperjump/semantik/internal/models"
	"github.com/hyperjump/semantik/internal/reconcile"
	"github.com/hyperjump/semantik/internal/retriever"
	"github.com/hyperjump/semantik/internal/search"
	"github.com/hyperjump/semantik/internal/storage"
	"github.com/hyperjump/semantik/internal/vector"
	"go.uber.org/zap"
)

// Components holds initialized services.
type Components struct {
	Storage      storage.Storage
	Embedder     embedding.Embedder
	VectorIndex  vector.VectorIndex
	KeywordIndex keyword.KeywordIndex
	Pages        *extract.PDFAccessor
	Indexer      *indexer.Indexer
	Session      *search.Session

	lock *flock.Flock
}

// errStoreLocked means another process holds the data directory.
var errStoreLocked = errors.New("data directory is in use by another semantik process")

// Close releases the stores. The vector index is not saved here; callers
// that modified it call Indexer.Save first.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
	if c.lock != nil {
		_ = c.lock.Unlock()
	}
}

// lockDataDir takes an exclusive lock next to the database so that a CLI
// command and a running server never open the same indexes.
func lockDataDir(dbPath string) (*flock.Flock, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	lockPath := filepath.Join(dir, "semantik.lock")
	l := flock.New(lockPath)
	locked, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("cannot acquire data directory lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock: %s); query the running server with --server", errStoreLocked, lockPath)
	}
	return l, nil
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	lock, err := lockDataDir(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}
	c := &Components{Pages: extract.NewPDFAccessor(), lock: lock}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Storage = store

	c.Embedder = embedding.New(cfg.Embedding, logger)

	vectorIndex, err := vector.Open(cfg.Storage.VectorIndexPath, c.Embedder.Dimensions())
	if err != nil {
		logger.Warn("vector index load skipped, starting empty (re-index to rebuild)",
			zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
		vectorIndex, err = vector.NewMemoryIndex(c.Embedder.Dimensions())
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize vector index: %w", err)
		}
	}
	c.VectorIndex = vectorIndex
	logger.Info("vector index initialized",
		zap.String("path", cfg.Storage.VectorIndexPath),
		zap.Int("vectors", vectorIndex.Size()),
		zap.Int("dimensions", vectorIndex.Dimensions()))

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	c.KeywordIndex = keywordIndex

	var componentLogger *zap.Logger
	if debug {
		componentLogger = logger
	}
	c.Indexer = indexer.NewIndexer(store, c.Embedder, vectorIndex, keywordIndex, &cfg.Search, c.Pages,
		indexer.WithLogger(logger),
		indexer.WithVectorPath(cfg.Storage.VectorIndexPath),
	)

	queries := embedding.NewQueryEmbedder(c.Embedder, cfg.Embedding.QueryInstruction)
	semantic := retriever.NewSemantic(queries, vectorIndex, store, retriever.WithLogger(componentLogger))
	hybrid := retriever.NewHybrid(semantic, keywordIndex, cfg.Search.SemanticWeight, cfg.Search.KeywordWeight,
		retriever.WithLogger(componentLogger))
	reconciler := reconcile.New(c.Pages,
		reconcile.WithBasePath(cfg.Library.BasePath),
		reconcile.WithAnchorLength(cfg.Search.AnchorLength),
		reconcile.WithLogger(logger),
	)
	c.Session = search.NewSession(semantic, reconciler, c.Pages, cfg.Search,
		search.WithHybrid(hybrid),
		search.WithLogger(componentLogger),
	)
	return c, nil
}

// modeFlag validates a --mode value; empty keeps the configured mode.
func modeFlag(s string) (string, error) {
	switch s {
	case "", models.ModeSemantic, models.ModeHybrid:
		return s, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want semantic or hybrid)", s)
	}
}
