package reconcile

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/hyperjump/semantik/internal/extract"
	"github.com/hyperjump/semantik/internal/extract/pdftest"
	"github.com/hyperjump/semantik/internal/models"
)

func BenchmarkReconcile(b *testing.B) {
	pages := make([]string, 50)
	for i := range pages {
		pages[i] = "Page " + strconv.Itoa(i+1) + " discusses segment results and other routine matters."
	}
	pages[41] = "Impairment of goodwill is tested annually at the cash-generating unit level."
	path := filepath.Join(b.TempDir(), "long.pdf")
	if err := pdftest.WriteFile(path, pages); err != nil {
		b.Fatal(err)
	}
	passages := []*models.Passage{
		{Text: pages[9], ClaimedPage: "10", FilePath: path},
		{Text: pages[41], ClaimedPage: "420", FilePath: path},
	}
	r := New(extract.NewPDFAccessor())
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Reconcile(ctx, passages)
	}
}

func BenchmarkSearchTerms(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = SearchTerms("How do regulators treat revenue recognition under the 2020 standards?")
	}
}
