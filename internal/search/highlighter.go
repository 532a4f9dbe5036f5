package search

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hyperjump/semantik/internal/models"
)

// Highlights returns the non-overlapping, case-insensitive occurrences of terms
// in text, in order. Where terms overlap the longer one wins.
func Highlights(text string, terms []string) []models.Highlight {
	re := termsPattern(terms)
	if re == nil {
		return nil
	}
	var out []models.Highlight
	for _, loc := range re.FindAllStringIndex(text, -1) {
		out = append(out, models.Highlight{
			Start: loc[0],
			End:   loc[1],
			Term:  strings.ToLower(text[loc[0]:loc[1]]),
		})
	}
	return out
}

func termsPattern(terms []string) *regexp.Regexp {
	cleaned := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	// RE2 alternation is leftmost-first, so longer terms must come first.
	sort.SliceStable(cleaned, func(i, j int) bool { return len(cleaned[i]) > len(cleaned[j]) })
	for i, t := range cleaned {
		cleaned[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(cleaned, "|"))
}

// Mark wraps each highlight in text with before and after, e.g. "**" for markdown.
func Mark(text string, highlights []models.Highlight, before, after string) string {
	var b strings.Builder
	prev := 0
	for _, h := range highlights {
		if h.Start < prev || h.End > len(text) {
			continue
		}
		b.WriteString(text[prev:h.Start])
		b.WriteString(before)
		b.WriteString(text[h.Start:h.End])
		b.WriteString(after)
		prev = h.End
	}
	b.WriteString(text[prev:])
	return b.String()
}
