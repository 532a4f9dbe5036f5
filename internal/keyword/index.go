// Package keyword provides full-text search over indexed passages.
package keyword

import (
	"context"

	"github.com/hyperjump/semantik/internal/models"
)

// SearchOptions tunes a keyword search. Nil means defaults.
type SearchOptions struct {
	// TitleBoost weights matches in the document title. Values <= 1 disable the title clause.
	TitleBoost float64
	// PhraseBoost adds a phrase clause weighted by this value. Values <= 1 disable it.
	PhraseBoost float64
	// Fuzzy enables typo-tolerant matching with the given edit distance (default 1).
	Fuzzy     bool
	Fuzziness int
}

// KeywordIndex indexes chunks for keyword retrieval.
type KeywordIndex interface {
	Index(ctx context.Context, title string, chunks []*models.Chunk) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error)
	DeleteDocument(ctx context.Context, documentID string) error
	DocCount() (uint64, error)
	Close() error
}

// KeywordResult is a single keyword search hit. ID is the chunk ID.
type KeywordResult struct {
	ID    string
	Score float64
}
