// Package indexer ingests PDFs: pages are extracted with their labels, split
// into chunks, embedded, and written to storage and both search indices.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hyperjump/semantik/internal/config"
	"github.com/hyperjump/semantik/internal/embedding"
	"github.com/hyperjump/semantik/internal/extract"
	"github.com/hyperjump/semantik/internal/fileid"
	"github.com/hyperjump/semantik/internal/keyword"
	"github.com/hyperjump/semantik/internal/models"
	"github.com/hyperjump/semantik/internal/storage"
	"github.com/hyperjump/semantik/internal/vector"
	"github.com/hyperjump/semantik/pkg/utils"
	"go.uber.org/zap"
)

// ErrNotPDF is returned by IndexFile for files without a .pdf extension.
var ErrNotPDF = errors.New("not a PDF file")

// PageExtractor reads every page of a PDF with its label.
type PageExtractor interface {
	ExtractPages(path string) ([]extract.Page, error)
}

// Stats summarises an IndexDirectory run.
type Stats struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Indexer indexes PDFs into storage, the keyword index and the vector index.
type Indexer struct {
	storage      storage.Storage
	embedder     embedding.Embedder
	vectorIndex  vector.VectorIndex
	keywordIndex keyword.KeywordIndex
	chunker      *Chunker
	pages        PageExtractor
	vectorPath   string
	logger       *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets the logger for indexing events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithVectorPath sets where Save writes the vector index.
func WithVectorPath(path string) IndexerOption {
	return func(idx *Indexer) { idx.vectorPath = path }
}

// NewIndexer creates an indexer. Chunk size and overlap come from cfg.
func NewIndexer(
	store storage.Storage,
	embedder embedding.Embedder,
	vectorIndex vector.VectorIndex,
	keywordIndex keyword.KeywordIndex,
	cfg *config.SearchConfig,
	pages PageExtractor,
	opts ...IndexerOption,
) *Indexer {
	idx := &Indexer{
		storage:      store,
		embedder:     embedder,
		vectorIndex:  vectorIndex,
		keywordIndex: keywordIndex,
		chunker:      NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		pages:        pages,
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.logger = utils.OrNop(idx.logger)
	return idx
}

const (
	metaKeySourceMtime = "source_mtime"
	metaKeySourceSize  = "source_size"
)

// IndexFile indexes the PDF at path under an ID derived from its absolute path.
// Files whose stored modification time and size still match are skipped.
func (idx *Indexer) IndexFile(ctx context.Context, path string) error {
	_, err := idx.indexFile(ctx, path)
	return err
}

func (idx *Indexer) indexFile(ctx context.Context, path string) (skipped bool, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("absolute path: %w", err)
	}
	if !IsPDF(absPath) {
		return false, fmt.Errorf("%s: %w", absPath, ErrNotPDF)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return false, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("not a regular file: %s", absPath)
	}

	docID := fileid.DocID(absPath)
	if idx.unchanged(ctx, docID, info) {
		idx.logger.Debug("skipping unchanged file", zap.String("path", absPath))
		return true, nil
	}

	pages, err := idx.pages.ExtractPages(absPath)
	if err != nil {
		return false, fmt.Errorf("extract pages: %w", err)
	}
	if err := idx.DeleteDocument(ctx, docID); err != nil {
		return false, err
	}

	doc := &models.Document{
		ID:        docID,
		Title:     filepath.Base(absPath),
		Path:      absPath,
		PageCount: len(pages),
		Metadata: map[string]interface{}{
			// Strings, because UnixNano does not survive a JSON float64.
			metaKeySourceMtime: strconv.FormatInt(info.ModTime().UnixNano(), 10),
			metaKeySourceSize:  strconv.FormatInt(info.Size(), 10),
		},
	}
	var chunks []*models.Chunk
	for _, p := range pages {
		chunks = append(chunks, idx.chunker.Chunk(docID, p, len(chunks))...)
	}
	if err := idx.store(ctx, doc, chunks); err != nil {
		return false, err
	}
	idx.logger.Debug("file indexed",
		zap.String("path", absPath),
		zap.String("doc_id", docID),
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)))
	return false, nil
}

func (idx *Indexer) store(ctx context.Context, doc *models.Document, chunks []*models.Chunk) error {
	if err := idx.storage.CreateDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = Preprocess(c.Content)
		ids[i] = c.ID
	}
	embeddings, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	if err := idx.storage.BatchCreateChunks(ctx, chunks); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}
	if err := idx.vectorIndex.Add(ctx, ids, embeddings); err != nil {
		return fmt.Errorf("failed to index vectors: %w", err)
	}
	// Underscores become spaces so "annual_report_2023.pdf" matches "annual report".
	title := strings.ReplaceAll(doc.Title, "_", " ")
	if err := idx.keywordIndex.Index(ctx, title, chunks); err != nil {
		return fmt.Errorf("failed to index keywords: %w", err)
	}
	return nil
}

// unchanged reports whether docID is stored with the file's current mtime and size.
func (idx *Indexer) unchanged(ctx context.Context, docID string, info os.FileInfo) bool {
	doc, err := idx.storage.GetDocument(ctx, docID)
	if err != nil || doc.Metadata == nil {
		return false
	}
	return metadataInt64(doc.Metadata, metaKeySourceMtime) == info.ModTime().UnixNano() &&
		metadataInt64(doc.Metadata, metaKeySourceSize) == info.Size()
}

func metadataInt64(m map[string]interface{}, key string) int64 {
	switch n := m[key].(type) {
	case string:
		x, _ := strconv.ParseInt(n, 10, 64)
		return x
	case float64:
		return int64(n)
	default:
		return -1
	}
}

// IndexDirectory indexes every PDF under dir, descending into subdirectories
// when recursive is set. A PDF that fails to index is logged and counted; it
// does not stop the walk.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, recursive bool) (*Stats, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absDir)
	}

	stats := &Stats{}
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != absDir && (!recursive || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsPDF(path) {
			return nil
		}
		skipped, err := idx.indexFile(ctx, path)
		switch {
		case err != nil:
			stats.Failed++
			idx.logger.Warn("failed to index file", zap.String("path", path), zap.Error(err))
		case skipped:
			stats.Skipped++
		default:
			stats.Indexed++
		}
		return nil
	})
	return stats, err
}

// Prune deletes stored documents whose files no longer exist and returns how many were removed.
func (idx *Indexer) Prune(ctx context.Context) (int, error) {
	const page = 500
	var stale []string
	for offset := 0; ; offset += page {
		docs, err := idx.storage.ListDocuments(ctx, offset, page)
		if err != nil {
			return 0, fmt.Errorf("list documents: %w", err)
		}
		for _, d := range docs {
			if _, err := os.Stat(d.Path); errors.Is(err, os.ErrNotExist) {
				stale = append(stale, d.ID)
			}
		}
		if len(docs) < page {
			break
		}
	}
	for _, id := range stale {
		if err := idx.DeleteDocument(ctx, id); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}

// DeletePath removes the document indexed from path, if any.
func (idx *Indexer) DeletePath(ctx context.Context, path string) error {
	return idx.DeleteDocument(ctx, fileid.DocID(path))
}

// DeleteDocument removes a document from all indices and storage. Unknown IDs are not an error.
func (idx *Indexer) DeleteDocument(ctx context.Context, id string) error {
	chunks, err := idx.storage.GetChunksByDocumentID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}
	if err := idx.keywordIndex.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete from keyword index: %w", err)
	}
	chunkIDs := make([]string, len(chunks))
	for i, ch := range chunks {
		chunkIDs[i] = ch.ID
	}
	if err := idx.vectorIndex.Remove(ctx, chunkIDs); err != nil {
		return fmt.Errorf("failed to delete from vector index: %w", err)
	}
	if err := idx.storage.DeleteChunksByDocumentID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if err := idx.storage.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if len(chunks) > 0 {
		idx.logger.Debug("document deleted", zap.String("id", id), zap.Int("chunks", len(chunks)))
	}
	return nil
}

// Save writes the vector index to the path set with WithVectorPath.
func (idx *Indexer) Save() error {
	if idx.vectorPath == "" {
		return nil
	}
	if err := idx.vectorIndex.Save(idx.vectorPath); err != nil {
		return fmt.Errorf("save vector index: %w", err)
	}
	return nil
}

// IsPDF reports whether path has a .pdf extension, ignoring case.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
