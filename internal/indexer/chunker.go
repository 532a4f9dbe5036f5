package indexer

import (
	"unicode"

	"github.com/hyperjump/semantik/internal/extract"
	"github.com/hyperjump/semantik/internal/fileid"
	"github.com/hyperjump/semantik/internal/models"
)

// Chunker splits page text into overlapping word windows. Chunk content is a
// slice of the page text, so every chunk can be found again verbatim on its page.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap in words.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 200
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Chunk splits one page. Chunks are numbered from firstIndex and carry the
// page's number and label.
func (c *Chunker) Chunk(docID string, page extract.Page, firstIndex int) []*models.Chunk {
	spans := wordSpans(page.Text)
	if len(spans) == 0 {
		return nil
	}
	var chunks []*models.Chunk
	step := c.chunkSize - c.chunkOverlap
	index := firstIndex
	for i := 0; i < len(spans); i += step {
		end := i + c.chunkSize
		if end > len(spans) {
			end = len(spans)
		}
		chunks = append(chunks, &models.Chunk{
			ID:         fileid.ChunkID(docID, index),
			DocumentID: docID,
			PageNumber: page.Number,
			PageLabel:  page.Label,
			ChunkIndex: index,
			Content:    page.Text[spans[i][0]:spans[end-1][1]],
		})
		index++
		if end == len(spans) {
			break
		}
	}
	return chunks
}

// wordSpans returns the [start, end) byte offsets of whitespace-separated words.
func wordSpans(text string) [][2]int {
	var spans [][2]int
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, [2]int{start, i})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, len(text)})
	}
	return spans
}
