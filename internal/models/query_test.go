package models

import (
	"errors"
	"testing"
)

func TestSearchQuery_Validate(t *testing.T) {
	tests := []struct {
		name     string
		query    *SearchQuery
		wantErr  error
		wantTopK int
		wantMode string
	}{
		{"empty query", &SearchQuery{Query: ""}, ErrEmptyQuery, 0, ""},
		{"whitespace query", &SearchQuery{Query: "   "}, ErrEmptyQuery, 0, ""},
		{"sets default top_k", &SearchQuery{Query: "x"}, nil, 10, ModeSemantic},
		{"caps top_k", &SearchQuery{Query: "x", TopK: 50}, nil, 20, ModeSemantic},
		{"keeps hybrid mode", &SearchQuery{Query: "x", TopK: 3, Mode: ModeHybrid}, nil, 3, ModeHybrid},
		{"unknown mode falls back", &SearchQuery{Query: "x", Mode: "bm25"}, nil, 10, ModeSemantic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate(10, 20)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if tt.query.TopK != tt.wantTopK {
				t.Errorf("TopK = %d, want %d", tt.query.TopK, tt.wantTopK)
			}
			if tt.query.Mode != tt.wantMode {
				t.Errorf("Mode = %q, want %q", tt.query.Mode, tt.wantMode)
			}
		})
	}
}

func TestSearchQuery_ValidateTrims(t *testing.T) {
	q := &SearchQuery{Query: "  revenue recognition \n"}
	if err := q.Validate(10, 20); err != nil {
		t.Fatal(err)
	}
	if q.Query != "revenue recognition" {
		t.Errorf("Query = %q", q.Query)
	}
}

func TestReference_Corrected(t *testing.T) {
	r := &Reference{ResolvedPage: 3}
	if r.Corrected() {
		t.Error("reference without original label should not be corrected")
	}
	r.ClaimedPageOriginal = Int(99)
	if !r.Corrected() {
		t.Error("reference with original label should be corrected")
	}
}
