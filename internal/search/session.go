// Package search runs a query end to end: retrieve passages, reconcile their
// page labels against the PDFs, and group the references by page.
package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/semantik/internal/config"
	"github.com/hyperjump/semantik/internal/extract"
	"github.com/hyperjump/semantik/internal/models"
	"github.com/hyperjump/semantik/internal/reconcile"
	"github.com/hyperjump/semantik/internal/retriever"
	"github.com/hyperjump/semantik/pkg/utils"
	"go.uber.org/zap"
)

// Session holds the components and per-user state of a search conversation:
// the retrievers, the reconciler, the result count and the last response.
// Methods are safe for concurrent use, but searches run one at a time.
type Session struct {
	id         string
	retrievers map[string]retriever.Retriever
	reconciler *reconcile.Reconciler
	pages      extract.PageSource
	cfg        config.SearchConfig
	logger     *zap.Logger

	mu   sync.Mutex
	topK int
	last *models.SearchResponse
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithHybrid enables the hybrid retrieval mode.
func WithHybrid(r retriever.Retriever) Option {
	return func(s *Session) { s.retrievers[models.ModeHybrid] = r }
}

// NewSession creates a session that retrieves with semantic by default.
func NewSession(semantic retriever.Retriever, rec *reconcile.Reconciler, pages extract.PageSource, cfg config.SearchConfig, opts ...Option) *Session {
	config.ApplySearchDefaults(&cfg)
	s := &Session{
		id:         uuid.NewString(),
		retrievers: map[string]retriever.Retriever{models.ModeSemantic: semantic},
		reconciler: rec,
		pages:      pages,
		cfg:        cfg,
		topK:       cfg.DefaultTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = utils.OrNop(s.logger).With(zap.String("session_id", s.id))
	return s
}

// ID returns the session's UUID.
func (s *Session) ID() string {
	return s.id
}

// TopK returns the number of passages retrieved per query.
func (s *Session) TopK() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topK
}

// SetTopK sets the number of passages retrieved per query, clamped to
// [1, max_top_k], and returns the value in effect.
func (s *Session) SetTopK(k int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k < 1 {
		k = 1
	}
	if k > s.cfg.MaxTopK {
		k = s.cfg.MaxTopK
	}
	s.topK = k
	return k
}

// Last returns the most recent successful response, or nil.
func (s *Session) Last() *models.SearchResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Search answers q without modifying it. Retrieval errors are returned;
// reconciliation problems only ever show up as drops in the response.
func (s *Session) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()
	if query == nil {
		return nil, models.ErrEmptyQuery
	}
	q := *query
	s.mu.Lock()
	defer s.mu.Unlock()

	if q.TopK == 0 {
		q.TopK = s.topK
	}
	if q.Mode == "" {
		q.Mode = s.cfg.Mode
	}
	if err := q.Validate(s.cfg.DefaultTopK, s.cfg.MaxTopK); err != nil {
		return nil, err
	}
	r, ok := s.retrievers[q.Mode]
	if !ok {
		s.logger.Debug("retrieval mode unavailable, using semantic", zap.String("mode", q.Mode))
		q.Mode = models.ModeSemantic
		r = s.retrievers[models.ModeSemantic]
	}

	passages, err := r.Retrieve(ctx, q.Query, q.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	rec := s.reconciler.Reconcile(ctx, passages)

	resp := &models.SearchResponse{
		Query:      q.Query,
		SessionID:  s.id,
		Retrieved:  len(passages),
		References: rec.References,
		Drops:      rec.Drops,
		Pages:      GroupByPage(rec.References),
		Terms:      reconcile.SearchTerms(q.Query),
		QueryTime:  time.Since(start).Milliseconds(),
	}
	s.last = resp
	s.logger.Debug("search completed",
		zap.String("query", q.Query),
		zap.String("mode", q.Mode),
		zap.Int("retrieved", resp.Retrieved),
		zap.Int("references", len(resp.References)),
		zap.Int("dropped", len(resp.Drops)),
		zap.Int64("query_time_ms", resp.QueryTime))
	return resp, nil
}

// PageText returns the text of one page of the PDF at path, with the terms of
// query highlighted. An empty query yields no highlights.
func (s *Session) PageText(ctx context.Context, path string, page int, query string) (*models.PageText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	count, err := s.pages.PageCount(path)
	if err != nil {
		return nil, err
	}
	if page < 1 || page > count {
		return nil, fmt.Errorf("%w: page %d of %d", extract.ErrPageOutOfRange, page, count)
	}
	text, err := s.pages.PageText(path, page)
	if err != nil {
		return nil, err
	}
	return &models.PageText{
		FilePath:   path,
		Page:       page,
		PageCount:  count,
		Text:       text,
		Highlights: Highlights(text, reconcile.SearchTerms(query)),
	}, nil
}
