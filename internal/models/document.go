// Package models defines core data structures for documents, passages, references, and search results.
package models

import "time"

// Document represents one indexed PDF file.
type Document struct {
	ID        string                 `json:"id" db:"id"`
	Title     string                 `json:"title" db:"title"`
	Path      string                 `json:"path" db:"path"`
	PageCount int                    `json:"page_count" db:"page_count"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt time.Time              `json:"updated_at" db:"updated_at"`
}

// Chunk is a window of text taken from a single PDF page. PageLabel is the label
// the indexer believed the page had; it may not match PageNumber.
type Chunk struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	PageNumber int       `json:"page_number" db:"page_number"`
	PageLabel  string    `json:"page_label" db:"page_label"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	Content    string    `json:"content" db:"content"`
	Embedding  []float32 `json:"-" db:"-"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
