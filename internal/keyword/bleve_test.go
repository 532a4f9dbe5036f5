package keyword

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/semantik/internal/models"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "bleve"))
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func chunk(id, docID, content string) *models.Chunk {
	return &models.Chunk{ID: id, DocumentID: docID, Content: content, PageLabel: "1"}
}

func resultIDs(rs []*KeywordResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestBleveIndex_SearchFindsContent(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	err := idx.Index(ctx, "Annual Report 2023.pdf", []*models.Chunk{
		chunk("c1", "d1", "Revenue from contracts with customers is recognised over time."),
		chunk("c2", "d1", "The Bayes estimator is referenced in the appendix."),
	})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}

	results, err := idx.Search(ctx, "customers", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "c1" {
		t.Fatalf("results = %v, want [c1]", resultIDs(results))
	}

	// No stemming: "bayes" matches "Bayes" exactly.
	results, err = idx.Search(ctx, "bayes", 10, nil)
	if err != nil {
		t.Fatalf("Search bayes: %v", err)
	}
	if len(results) != 1 || results[0].ID != "c2" {
		t.Fatalf("results = %v, want [c2]", resultIDs(results))
	}
}

func TestBleveIndex_TitleBoost(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	_ = idx.Index(ctx, "Lease accounting handbook", []*models.Chunk{chunk("t1", "d1", "Introductory remarks.")})
	_ = idx.Index(ctx, "Other", []*models.Chunk{chunk("t2", "d2", "Nothing relevant.")})

	if res, _ := idx.Search(ctx, "handbook", 10, nil); len(res) != 0 {
		t.Errorf("title should not match without boost, got %v", resultIDs(res))
	}
	res, err := idx.Search(ctx, "handbook", 10, &SearchOptions{TitleBoost: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].ID != "t1" {
		t.Errorf("results = %v, want [t1]", resultIDs(res))
	}
}

func TestBleveIndex_Fuzzy(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	_ = idx.Index(ctx, "doc", []*models.Chunk{chunk("f1", "d1", "Impairment of goodwill")})

	if res, _ := idx.Search(ctx, "goodwil", 10, nil); len(res) != 0 {
		t.Errorf("typo should not match without fuzzy, got %v", resultIDs(res))
	}
	res, err := idx.Search(ctx, "goodwil", 10, &SearchOptions{Fuzzy: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].ID != "f1" {
		t.Errorf("fuzzy results = %v, want [f1]", resultIDs(res))
	}
}

func TestBleveIndex_PhraseBoostRanksAdjacentTermsFirst(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	_ = idx.Index(ctx, "doc", []*models.Chunk{
		chunk("p1", "d1", "fair value is measured and the hierarchy is disclosed"),
		chunk("p2", "d1", "the fair value hierarchy is disclosed"),
	})
	res, err := idx.Search(ctx, "fair value hierarchy", 10, &SearchOptions{PhraseBoost: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 || res[0].ID != "p2" {
		t.Errorf("results = %v, want p2 first", resultIDs(res))
	}
}

func TestBleveIndex_DeleteDocument(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	_ = idx.Index(ctx, "a", []*models.Chunk{
		chunk("a1", "doc-a", "shared term alpha"),
		chunk("a2", "doc-a", "shared term beta"),
	})
	_ = idx.Index(ctx, "b", []*models.Chunk{chunk("b1", "doc-b", "shared term gamma")})

	if n, _ := idx.DocCount(); n != 3 {
		t.Fatalf("DocCount = %d, want 3", n)
	}
	if err := idx.DeleteDocument(ctx, "doc-a"); err != nil {
		t.Fatal(err)
	}
	if n, _ := idx.DocCount(); n != 1 {
		t.Errorf("DocCount after delete = %d, want 1", n)
	}
	res, _ := idx.Search(ctx, "shared", 10, nil)
	if len(res) != 1 || res[0].ID != "b1" {
		t.Errorf("results = %v, want [b1]", resultIDs(res))
	}
	if err := idx.DeleteDocument(ctx, ""); err == nil {
		t.Error("expected error for empty document id")
	}
}

func TestBleveIndex_EmptyQuery(t *testing.T) {
	idx := newTestIndex(t)
	res, err := idx.Search(context.Background(), "   ", 10, nil)
	if err != nil || res != nil {
		t.Errorf("empty query = %v, %v", res, err)
	}
}

func TestNewBleveIndex_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bleve")
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = idx.Index(context.Background(), "doc", []*models.Chunk{chunk("r1", "d1", "persistent words")})
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewBleveIndex(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	res, _ := reopened.Search(context.Background(), "persistent", 10, nil)
	if len(res) != 1 {
		t.Errorf("expected chunk to survive reopen, got %v", resultIDs(res))
	}
}

func TestNewBleveIndex_InMemory(t *testing.T) {
	idx, err := NewBleveIndex("")
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if err := idx.Index(context.Background(), "t", []*models.Chunk{chunk("m1", "d", "memory only")}); err != nil {
		t.Fatal(err)
	}
	if n, _ := idx.DocCount(); n != 1 {
		t.Errorf("DocCount = %d", n)
	}
}
