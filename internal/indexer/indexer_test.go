package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/semantik/internal/config"
	"github.com/hyperjump/semantik/internal/embedding"
	"github.com/hyperjump/semantik/internal/extract"
	"github.com/hyperjump/semantik/internal/extract/pdftest"
	"github.com/hyperjump/semantik/internal/fileid"
	"github.com/hyperjump/semantik/internal/keyword"
	"github.com/hyperjump/semantik/internal/storage"
	"github.com/hyperjump/semantik/internal/vector"
)

type fixture struct {
	idx   *Indexer
	store *storage.SQLiteStorage
	vec   *vector.MemoryIndex
	kw    *keyword.BleveIndex
	pages *countingExtractor
	dir   string
}

// countingExtractor records how often PDFs are parsed.
type countingExtractor struct {
	extract.PDFAccessor
	calls int
}

func (c *countingExtractor) ExtractPages(path string) ([]extract.Page, error) {
	c.calls++
	return c.PDFAccessor.ExtractPages(path)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.SearchConfig{ChunkSize: 8, ChunkOverlap: 2}
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	vec, err := vector.NewMemoryIndex(32)
	if err != nil {
		t.Fatal(err)
	}
	kw, err := keyword.NewBleveIndex(filepath.Join(dir, "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = kw.Close() })
	pages := &countingExtractor{}
	idx := NewIndexer(store, embedding.NewHashingEmbedder(32), vec, kw, cfg, pages,
		WithVectorPath(filepath.Join(dir, "vectors.bin")))
	lib := filepath.Join(dir, "library")
	if err := os.Mkdir(lib, 0755); err != nil {
		t.Fatal(err)
	}
	return &fixture{idx: idx, store: store, vec: vec, kw: kw, pages: pages, dir: lib}
}

func (f *fixture) writePDF(t *testing.T, name string, pages []string, opts ...pdftest.Option) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := pdftest.WriteFile(path, pages, opts...); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIndexFile_storesPagesAndLabels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	path := f.writePDF(t, "annual_report.pdf",
		[]string{"Preface text", "Contents page", "Revenue grew strongly this year across every segment we operate in"},
		pdftest.WithLabels(pdftest.Label{Start: 0, Style: "r", First: 1}, pdftest.Label{Start: 2, Style: "D", First: 1}))

	if err := f.idx.IndexFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	docID := fileid.DocID(path)
	doc, err := f.store.GetDocument(ctx, docID)
	if err != nil {
		t.Fatal(err)
	}
	if doc.PageCount != 3 || doc.Path != path || doc.Title != "annual_report.pdf" {
		t.Errorf("doc = %+v", doc)
	}

	chunks, err := f.store.GetChunksByDocumentID(ctx, docID)
	if err != nil {
		t.Fatal(err)
	}
	// Page 3 has 11 words: windows of 8 with overlap 2 give 2 chunks.
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks", len(chunks))
	}
	labels := []string{"i", "ii", "1", "1"}
	for i, c := range chunks {
		if c.PageLabel != labels[i] {
			t.Errorf("chunk %d label = %q, want %q", i, c.PageLabel, labels[i])
		}
		if c.ChunkIndex != i {
			t.Errorf("chunk %d index = %d", i, c.ChunkIndex)
		}
	}
	if chunks[2].PageNumber != 3 || chunks[2].Content != "Revenue grew strongly this year across every segment" {
		t.Errorf("chunk 2 = %+v", chunks[2])
	}

	if f.vec.Size() != 4 {
		t.Errorf("vector index size = %d", f.vec.Size())
	}
	if n, _ := f.kw.DocCount(); n != 4 {
		t.Errorf("keyword doc count = %d", n)
	}
	res, _ := f.kw.Search(ctx, "annual", 10, &keyword.SearchOptions{TitleBoost: 2})
	if len(res) == 0 {
		t.Error("title words split on underscores should be searchable")
	}
}

func TestIndexFile_skipsUnchangedAndReindexesChanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	path := f.writePDF(t, "a.pdf", []string{"first version"})

	if err := f.idx.IndexFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	if err := f.idx.IndexFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	if f.pages.calls != 1 {
		t.Errorf("unchanged file parsed %d times, want 1", f.pages.calls)
	}

	f.writePDF(t, "a.pdf", []string{"second version with more words", "and a page"})
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	if err := f.idx.IndexFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	if f.pages.calls != 2 {
		t.Errorf("changed file parsed %d times, want 2", f.pages.calls)
	}
	chunks, _ := f.store.GetChunksByDocumentID(ctx, fileid.DocID(path))
	if len(chunks) != 2 || chunks[0].Content != "second version with more words" {
		t.Errorf("chunks after reindex = %+v", chunks)
	}
	if f.vec.Size() != 2 {
		t.Errorf("stale vectors left: size %d", f.vec.Size())
	}
}

func TestIndexFile_rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txt := filepath.Join(f.dir, "notes.txt")
	_ = os.WriteFile(txt, []byte("hello"), 0600)
	if err := f.idx.IndexFile(ctx, txt); !errors.Is(err, ErrNotPDF) {
		t.Errorf("text file: %v", err)
	}
	if err := f.idx.IndexFile(ctx, filepath.Join(f.dir, "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
	corrupt := filepath.Join(f.dir, "corrupt.pdf")
	_ = os.WriteFile(corrupt, []byte("not a pdf at all"), 0600)
	if err := f.idx.IndexFile(ctx, corrupt); err == nil {
		t.Error("expected error for corrupt PDF")
	}
	if n, _ := f.store.CountDocuments(ctx); n != 0 {
		t.Errorf("nothing should be stored, got %d documents", n)
	}
}

func TestIndexDirectory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.writePDF(t, "a.pdf", []string{"alpha"})
	f.writePDF(t, "B.PDF", []string{"beta"})
	f.writePDF(t, filepath.Join("sub", "c.pdf"), []string{"gamma"})
	f.writePDF(t, filepath.Join(".hidden", "d.pdf"), []string{"delta"})
	_ = os.WriteFile(filepath.Join(f.dir, "skip.txt"), []byte("skip"), 0600)
	_ = os.WriteFile(filepath.Join(f.dir, "broken.pdf"), []byte("garbage"), 0600)

	stats, err := f.idx.IndexDirectory(ctx, f.dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Indexed != 2 || stats.Failed != 1 || stats.Skipped != 0 {
		t.Errorf("non-recursive stats = %+v", stats)
	}

	stats, err = f.idx.IndexDirectory(ctx, f.dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Indexed != 1 || stats.Skipped != 2 || stats.Failed != 1 {
		t.Errorf("recursive stats = %+v", stats)
	}

	if _, err := f.idx.IndexDirectory(ctx, filepath.Join(f.dir, "a.pdf"), true); err == nil {
		t.Error("expected error for a file passed as directory")
	}
}

func TestDeleteAndPrune(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keep := f.writePDF(t, "keep.pdf", []string{"kept words"})
	gone := f.writePDF(t, "gone.pdf", []string{"removed words"})
	other := f.writePDF(t, "other.pdf", []string{"other words"})
	if _, err := f.idx.IndexDirectory(ctx, f.dir, true); err != nil {
		t.Fatal(err)
	}

	if err := f.idx.DeletePath(ctx, other); err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.GetDocument(ctx, fileid.DocID(other)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("other.pdf should be deleted: %v", err)
	}

	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}
	n, err := f.idx.Prune(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	if count, _ := f.store.CountDocuments(ctx); count != 1 {
		t.Errorf("documents left = %d", count)
	}
	if _, err := f.store.GetDocument(ctx, fileid.DocID(keep)); err != nil {
		t.Errorf("keep.pdf missing: %v", err)
	}
	if f.vec.Size() != 1 {
		t.Errorf("vector size = %d", f.vec.Size())
	}
	if err := f.idx.DeleteDocument(ctx, "pdf:unknown"); err != nil {
		t.Errorf("deleting unknown id: %v", err)
	}
}

func TestSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	path := f.writePDF(t, "a.pdf", []string{"persist me"})
	if err := f.idx.IndexFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	if err := f.idx.Save(); err != nil {
		t.Fatal(err)
	}
	loaded, err := vector.Open(filepath.Join(filepath.Dir(f.dir), "vectors.bin"), 32)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != 1 {
		t.Errorf("saved index size = %d", loaded.Size())
	}
}

func TestIsPDF(t *testing.T) {
	tests := map[string]bool{
		"a.pdf":     true,
		"A.PDF":     true,
		"a.pdf.txt": false,
		"pdf":       false,
		"dir/x.Pdf": true,
	}
	for path, want := range tests {
		if got := IsPDF(path); got != want {
			t.Errorf("IsPDF(%q) = %v, want %v", path, got, want)
		}
	}
}
