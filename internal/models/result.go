package models

// PageGroup collects the references that resolved to the same page of the same file.
// MaxScore is nil when none of its references carries a score.
type PageGroup struct {
	FilePath   string       `json:"file_path"`
	DocumentID string       `json:"document_id,omitempty"`
	Page       int          `json:"page"`
	MaxScore   *float64     `json:"max_score,omitempty"`
	References []*Reference `json:"references"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	// Retrieved is the number of passages the retriever returned before reconciliation.
	Retrieved  int          `json:"retrieved"`
	References []*Reference `json:"references"`
	Drops      []*Drop      `json:"drops,omitempty"`
	// Pages orders page groups by their best score, highest first.
	Pages     []*PageGroup `json:"pages"`
	Terms     []string     `json:"terms,omitempty"`
	QueryTime int64        `json:"query_time_ms"`
}

// PageText is the full text of one page plus highlight spans for the query terms.
type PageText struct {
	DocumentID string      `json:"document_id,omitempty"`
	FilePath   string      `json:"file_path"`
	Page       int         `json:"page"`
	PageCount  int         `json:"page_count"`
	Text       string      `json:"text"`
	Highlights []Highlight `json:"highlights,omitempty"`
}

// Highlight is a byte range [Start, End) in PageText.Text that matched Term.
type Highlight struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Term  string `json:"term"`
}
