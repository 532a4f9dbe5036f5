package retriever

import (
	"context"
	"fmt"
	"sort"

	"github.com/hyperjump/semantik/internal/keyword"
	"github.com/hyperjump/semantik/internal/models"
	"github.com/hyperjump/semantik/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// candidateFactor widens each side's candidate list before fusion.
const candidateFactor = 3

// Hybrid fuses semantic and keyword rankings: keyword scores are divided by
// their maximum, then each chunk scores
// semanticWeight*semantic + keywordWeight*keyword.
type Hybrid struct {
	semantic       *Semantic
	keyword        keyword.KeywordIndex
	semanticWeight float64
	keywordWeight  float64
	searchOpts     *keyword.SearchOptions
	logger         *zap.Logger
}

// NewHybrid returns a Hybrid retriever.
func NewHybrid(semantic *Semantic, kw keyword.KeywordIndex, semanticWeight, keywordWeight float64, opts ...Option) *Hybrid {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Hybrid{
		semantic:       semantic,
		keyword:        kw,
		semanticWeight: semanticWeight,
		keywordWeight:  keywordWeight,
		searchOpts:     &keyword.SearchOptions{TitleBoost: 2, PhraseBoost: 1.5},
		logger:         utils.OrNop(o.logger),
	}
}

// Retrieve implements Retriever.
func (h *Hybrid) Retrieve(ctx context.Context, query string, k int) ([]*models.Passage, error) {
	if k <= 0 {
		return nil, nil
	}
	var (
		semHits   []hit
		kwResults []*keyword.KeywordResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		semHits, err = h.semantic.search(gctx, query, k*candidateFactor)
		return err
	})
	g.Go(func() error {
		var err error
		kwResults, err = h.keyword.Search(gctx, query, k*candidateFactor, h.searchOpts)
		if err != nil {
			return fmt.Errorf("keyword search: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	semantic := make(map[string]float64, len(semHits))
	for _, sh := range semHits {
		semantic[sh.id] = sh.score
	}
	fused := Fuse(semantic, NormalizeByMax(kwResults), h.semanticWeight, h.keywordWeight)
	if len(fused) > k {
		fused = fused[:k]
	}
	h.logger.Debug("hybrid fusion",
		zap.Int("semantic_candidates", len(semHits)),
		zap.Int("keyword_candidates", len(kwResults)),
		zap.Int("fused", len(fused)))

	hits := make([]hit, len(fused))
	for i, f := range fused {
		hits[i] = hit{id: f.ChunkID, score: f.Score}
	}
	return hydrate(ctx, h.semantic.store, hits, h.logger)
}

// FusedResult is a chunk with its combined and component scores.
type FusedResult struct {
	ChunkID       string
	Score         float64
	SemanticScore float64
	KeywordScore  float64
}

// NormalizeByMax maps keyword hits to score/max. A non-positive max maps everything to 0.
func NormalizeByMax(results []*keyword.KeywordResult) map[string]float64 {
	normalized := make(map[string]float64, len(results))
	var maxScore float64
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	for _, r := range results {
		if maxScore > 0 {
			normalized[r.ID] = r.Score / maxScore
		} else {
			normalized[r.ID] = 0
		}
	}
	return normalized
}

// Fuse combines the two score maps and returns results by descending score,
// ties broken by chunk ID.
func Fuse(semantic, kw map[string]float64, semanticWeight, keywordWeight float64) []*FusedResult {
	byID := make(map[string]*FusedResult, len(semantic)+len(kw))
	get := func(id string) *FusedResult {
		r, ok := byID[id]
		if !ok {
			r = &FusedResult{ChunkID: id}
			byID[id] = r
		}
		return r
	}
	for id, s := range semantic {
		get(id).SemanticScore = s
	}
	for id, s := range kw {
		get(id).KeywordScore = s
	}
	results := make([]*FusedResult, 0, len(byID))
	for _, r := range byID {
		r.Score = semanticWeight*r.SemanticScore + keywordWeight*r.KeywordScore
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})
	return results
}
