// Package reconcile checks the page labels of retrieved passages against the
// PDFs they came from and produces citations that point at real pages.
//
// A label inside the document's page range is trusted as is. A label outside
// the range triggers a text-anchored search: the first characters of the
// passage are looked up verbatim on every page and the lowest matching page
// wins. Passages that cannot be placed are dropped and reported as Drops; one
// bad file never fails the batch.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hyperjump/semantik/internal/extract"
	"github.com/hyperjump/semantik/internal/models"
	"github.com/hyperjump/semantik/pkg/utils"
	"go.uber.org/zap"
)

// DefaultAnchorLength is the number of leading passage characters used for text-anchored search.
const DefaultAnchorLength = 50

// Reconciler turns retrieved passages into references with verified page numbers.
type Reconciler struct {
	pages        extract.PageSource
	basePath     string
	anchorLength int
	logger       *zap.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger used to report dropped and corrected passages.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// WithBasePath resolves relative passage paths against dir.
func WithBasePath(dir string) Option {
	return func(r *Reconciler) { r.basePath = dir }
}

// WithAnchorLength overrides DefaultAnchorLength. Non-positive values are ignored.
func WithAnchorLength(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.anchorLength = n
		}
	}
}

// New returns a Reconciler reading PDFs through pages.
func New(pages extract.PageSource, opts ...Option) *Reconciler {
	r := &Reconciler{
		pages:        pages,
		anchorLength: DefaultAnchorLength,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = utils.OrNop(r.logger)
	return r
}

// Reconcile processes passages in order. References keep the relative order of
// their passages; every passage that yields no reference has a matching Drop.
// Once ctx is done the remaining passages are dropped as access failures.
func (r *Reconciler) Reconcile(ctx context.Context, passages []*models.Passage) *models.Reconciliation {
	out := &models.Reconciliation{References: make([]*models.Reference, 0, len(passages))}
	for i, p := range passages {
		var (
			ref  *models.Reference
			drop *models.Drop
		)
		if err := ctx.Err(); err != nil {
			drop = newDrop(i, p, models.DropAccessFailure, err)
		} else {
			ref, drop = r.ReconcilePassage(i, p)
		}
		if drop != nil {
			r.logger.Warn("passage dropped",
				zap.Int("index", drop.Index),
				zap.String("path", drop.FilePath),
				zap.String("claimed_page", drop.ClaimedPage),
				zap.String("reason", string(drop.Reason)),
				zap.String("error", drop.Err))
			out.Drops = append(out.Drops, drop)
			continue
		}
		out.References = append(out.References, ref)
	}
	return out
}

// ReconcilePassage resolves a single passage. Exactly one of the results is non-nil.
// index is recorded in the Drop to identify the passage in its batch.
func (r *Reconciler) ReconcilePassage(index int, p *models.Passage) (ref *models.Reference, drop *models.Drop) {
	if p == nil {
		return nil, &models.Drop{Index: index, Reason: models.DropMissingFile, Err: "nil passage"}
	}
	// The PDF parser may panic on malformed files; that is an access failure for this passage only.
	defer func() {
		if rec := recover(); rec != nil {
			ref = nil
			drop = newDrop(index, p, models.DropAccessFailure, fmt.Errorf("panic: %v", rec))
		}
	}()

	path := r.resolvePath(p.FilePath)
	if path == "" {
		return nil, newDrop(index, p, models.DropMissingFile, errors.New("passage has no file path"))
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newDrop(index, p, models.DropMissingFile, err)
		}
		return nil, newDrop(index, p, models.DropAccessFailure, err)
	}
	if info.IsDir() {
		return nil, newDrop(index, p, models.DropAccessFailure, fmt.Errorf("%s is a directory", path))
	}

	claimed := ParsePageLabel(p.ClaimedPage)
	count, err := r.pages.PageCount(path)
	if err != nil {
		return nil, newDrop(index, p, models.DropAccessFailure, err)
	}

	ref = &models.Reference{
		FilePath:   path,
		DocumentID: p.DocumentID,
		Text:       p.Text,
		Score:      p.Score,
	}
	if claimed >= 1 && claimed <= count {
		ref.ResolvedPage = claimed
		return ref, nil
	}

	// A blank anchor is a substring of every page, so it resolves to page 1.
	anchor := Anchor(p.Text, r.anchorLength)
	found, err := r.pages.FindSubstring(path, anchor)
	if err != nil {
		return nil, newDrop(index, p, models.DropAccessFailure, err)
	}
	if len(found) == 0 {
		return nil, newDrop(index, p, models.DropNoTextMatch,
			fmt.Errorf("label %d outside 1..%d and passage text not found", claimed, count))
	}
	ref.ResolvedPage = lowest(found)
	ref.ClaimedPageOriginal = models.Int(claimed)
	r.logger.Debug("page label corrected",
		zap.String("path", path),
		zap.Int("claimed_page", claimed),
		zap.Int("resolved_page", ref.ResolvedPage))
	return ref, nil
}

// ParsePageLabel parses a page label as a base-10 integer. Labels that are not
// integers (roman numerals, prefixed labels, empty) count as page 1.
func ParsePageLabel(label string) int {
	n, err := strconv.Atoi(strings.TrimSpace(label))
	if err != nil {
		return 1
	}
	return n
}

// Anchor returns the first n characters of text with surrounding whitespace removed.
func Anchor(text string, n int) string {
	return strings.TrimSpace(utils.FirstRunes(text, n))
}

func (r *Reconciler) resolvePath(path string) string {
	if path == "" {
		return ""
	}
	if !filepath.IsAbs(path) && r.basePath != "" {
		return filepath.Join(r.basePath, path)
	}
	return path
}

func lowest(pages []int) int {
	lo := pages[0]
	for _, p := range pages[1:] {
		if p < lo {
			lo = p
		}
	}
	return lo
}

func newDrop(index int, p *models.Passage, reason models.DropReason, err error) *models.Drop {
	d := &models.Drop{
		Index:       index,
		FilePath:    p.FilePath,
		ClaimedPage: p.ClaimedPage,
		Reason:      reason,
	}
	if err != nil {
		d.Err = err.Error()
	}
	return d
}
