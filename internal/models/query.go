package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned when a search query has no text.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Retrieval modes.
const (
	ModeSemantic = "semantic"
	ModeHybrid   = "hybrid"
)

// SearchQuery represents a search request.
type SearchQuery struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

// Validate trims the query, rejects empty text, and clamps TopK into [1, maxTopK].
// A zero TopK becomes defaultTopK; an unknown mode becomes semantic.
func (q *SearchQuery) Validate(defaultTopK, maxTopK int) error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return ErrEmptyQuery
	}
	if q.TopK <= 0 {
		q.TopK = defaultTopK
	}
	if q.TopK < 1 {
		q.TopK = 1
	}
	if maxTopK > 0 && q.TopK > maxTopK {
		q.TopK = maxTopK
	}
	switch q.Mode {
	case ModeSemantic, ModeHybrid:
	default:
		q.Mode = ModeSemantic
	}
	return nil
}
