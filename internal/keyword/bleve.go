package keyword

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/semantik/internal/models"
)

const chunkType = "chunk"

// chunkDoc is what gets stored in Bleve for each chunk.
type chunkDoc struct {
	Content    string `json:"content"`
	Title      string `json:"title"`
	DocumentID string `json:"document_id"`
	PageLabel  string `json:"page_label"`
}

// Type implements bleve's mapping.Classifier.
func (chunkDoc) Type() string { return chunkType }

// BleveIndex implements KeywordIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex opens the index at path, creating it when it does not exist.
// An empty path creates an in-memory index.
// Remove the directory after changing the mapping to force a full re-index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if path == "" {
		index, err := bleve.NewMemOnly(newMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}
	if _, err := os.Stat(path); err == nil {
		index, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}
	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func newMapping() *mapping.IndexMappingImpl {
	// The standard analyzer lowercases and tokenizes without stemming, so a
	// query for an exact word matches that word.
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keywordanalyzer.Name

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("content", text)
	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("document_id", exact)
	doc.AddFieldMappingsAt("page_label", exact)

	im := bleve.NewIndexMapping()
	im.AddDocumentMapping(chunkType, doc)
	im.DefaultMapping = doc
	return im
}

// Index adds or replaces chunks in a single batch. title is the document title.
func (b *BleveIndex) Index(ctx context.Context, title string, chunks []*models.Chunk) error {
	batch := b.index.NewBatch()
	for _, c := range chunks {
		if err := batch.Index(c.ID, chunkDoc{
			Content:    c.Content,
			Title:      title,
			DocumentID: c.DocumentID,
			PageLabel:  c.PageLabel,
		}); err != nil {
			return fmt.Errorf("failed to add chunk %s to batch: %w", c.ID, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("Bleve batch failed: %w", err)
	}
	return nil
}

// Search returns up to limit chunk IDs ordered by Bleve score.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}
	if opts == nil {
		opts = &SearchOptions{}
	}

	clauses := []blevequery.Query{b.match(query, "content", 1, opts)}
	if opts.TitleBoost > 1 {
		clauses = append(clauses, b.match(query, "title", opts.TitleBoost, opts))
	}
	if opts.PhraseBoost > 1 && len(strings.Fields(query)) > 1 {
		pq := bleve.NewMatchPhraseQuery(query)
		pq.SetField("content")
		pq.SetBoost(opts.PhraseBoost)
		clauses = append(clauses, pq)
	}

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(clauses...))
	req.Size = limit
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*KeywordResult, len(res.Hits))
	for i, hit := range res.Hits {
		out[i] = &KeywordResult{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

func (b *BleveIndex) match(query, field string, boost float64, opts *SearchOptions) blevequery.Query {
	mq := bleve.NewMatchQuery(query)
	mq.SetField(field)
	if boost > 1 {
		mq.SetBoost(boost)
	}
	if opts.Fuzzy {
		fuzziness := opts.Fuzziness
		if fuzziness <= 0 {
			fuzziness = 1
		}
		mq.SetFuzziness(fuzziness)
	}
	return mq
}

// DeleteDocument removes every chunk of a document.
func (b *BleveIndex) DeleteDocument(ctx context.Context, documentID string) error {
	if documentID == "" {
		return errors.New("empty document id")
	}
	tq := bleve.NewTermQuery(documentID)
	tq.SetField("document_id")
	for {
		req := bleve.NewSearchRequest(tq)
		req.Size = 1000
		res, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			return fmt.Errorf("Bleve lookup for %s failed: %w", documentID, err)
		}
		if len(res.Hits) == 0 {
			return nil
		}
		batch := b.index.NewBatch()
		for _, hit := range res.Hits {
			batch.Delete(hit.ID)
		}
		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("Bleve delete for %s failed: %w", documentID, err)
		}
	}
}

// DocCount returns the number of indexed chunks.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
