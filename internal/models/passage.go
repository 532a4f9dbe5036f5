package models

// Passage is a chunk returned by a retriever, with the page label recorded at index time.
type Passage struct {
	Text        string   `json:"text"`
	ClaimedPage string   `json:"claimed_page"`
	FilePath    string   `json:"file_path"`
	Score       *float64 `json:"score,omitempty"`
	DocumentID  string   `json:"document_id,omitempty"`
	ChunkID     string   `json:"chunk_id,omitempty"`
}

// Reference is a passage whose page has been checked against the actual PDF.
// ClaimedPageOriginal is set only when ResolvedPage differs from the parsed label.
type Reference struct {
	FilePath            string   `json:"file_path"`
	DocumentID          string   `json:"document_id,omitempty"`
	ResolvedPage        int      `json:"resolved_page"`
	ClaimedPageOriginal *int     `json:"claimed_page_original,omitempty"`
	Text                string   `json:"text"`
	Score               *float64 `json:"score,omitempty"`
}

// Corrected reports whether the page label was replaced during reconciliation.
func (r *Reference) Corrected() bool {
	return r.ClaimedPageOriginal != nil
}

// DropReason explains why a passage produced no reference.
type DropReason string

const (
	// DropMissingFile means the passage had no path or the file does not exist.
	DropMissingFile DropReason = "missing_file"
	// DropNoTextMatch means the label was out of range and the passage text was found on no page.
	DropNoTextMatch DropReason = "no_text_match"
	// DropAccessFailure means opening or scanning the PDF failed.
	DropAccessFailure DropReason = "access_failure"
)

// Drop records a passage that was left out of the reconciled output.
type Drop struct {
	Index       int        `json:"index"`
	FilePath    string     `json:"file_path"`
	ClaimedPage string     `json:"claimed_page"`
	Reason      DropReason `json:"reason"`
	Err         string     `json:"error,omitempty"`
}

// Reconciliation is the outcome of reconciling one batch of passages.
// References keep the relative order of the passages they came from.
type Reconciliation struct {
	References []*Reference `json:"references"`
	Drops      []*Drop      `json:"drops,omitempty"`
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
