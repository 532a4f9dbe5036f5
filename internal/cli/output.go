// Package cli formats search results and documents for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hyperjump/semantik/internal/models"
	"github.com/hyperjump/semantik/internal/search"
	"github.com/hyperjump/semantik/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text grouped by page (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact prints one line per reference.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

const (
	// maxTextLen bounds the passage text shown per match.
	maxTextLen   = 300
	compactWords = 12
)

// ParseOutputFormat validates a format name.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch f := SearchOutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// WriteSearchResults writes a search response to w in the given format.
// Unknown formats are written as text.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		writeSearchResultsCompact(w, response)
	default:
		writeSearchResultsText(w, response)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d references in %dms (%d retrieved, %d dropped)\n",
		len(response.References), response.QueryTime, response.Retrieved, len(response.Drops))
	if len(response.Terms) > 0 {
		fmt.Fprintf(w, "Terms: %s\n", strings.Join(response.Terms, ", "))
	}
	fmt.Fprintln(w)
	if len(response.Pages) == 0 {
		fmt.Fprintln(w, "No matches found.")
	}
	for _, group := range response.Pages {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "%s\n", filepath.Base(group.FilePath))
		fmt.Fprintf(w, "Page %d - Matches: %d\n", group.Page, len(group.References))
		for _, ref := range group.References {
			writeOneReference(w, ref, response.Terms)
		}
		fmt.Fprintln(w)
	}
	if len(response.Drops) > 0 {
		fmt.Fprintln(w, "--- Dropped passages ---")
		for _, d := range response.Drops {
			fmt.Fprintf(w, "#%d %s (claimed page %q): %s\n", d.Index, filepath.Base(d.FilePath), d.ClaimedPage, d.Reason)
		}
	}
}

func writeOneReference(w io.Writer, ref *models.Reference, terms []string) {
	fmt.Fprintf(w, "\n%s", formatScore(ref))
	if ref.Corrected() {
		fmt.Fprintf(w, " [label %d corrected to page %d]", *ref.ClaimedPageOriginal, ref.ResolvedPage)
	}
	fmt.Fprintln(w)
	text := utils.Truncate(ref.Text, maxTextLen)
	fmt.Fprintf(w, "%s\n", search.Mark(text, search.Highlights(text, terms), "**", "**"))
}

func formatScore(ref *models.Reference) string {
	if ref.Score == nil {
		return "Match"
	}
	return fmt.Sprintf("Match (Score: %.3f)", *ref.Score)
}

func writeSearchResultsCompact(w io.Writer, response *models.SearchResponse) {
	for _, group := range response.Pages {
		for _, ref := range group.References {
			score := "-"
			if ref.Score != nil {
				score = fmt.Sprintf("%.3f", *ref.Score)
			}
			fmt.Fprintf(w, "%s:%d\t%s\t%s\n", ref.FilePath, ref.ResolvedPage, score,
				TruncateWords(strings.Join(strings.Fields(ref.Text), " "), compactWords))
		}
	}
}

// WritePageText writes one page of a document with highlighted terms marked
// by >> and <<.
func WritePageText(w io.Writer, page *models.PageText, format SearchOutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, page)
	}
	fmt.Fprintf(w, "%s - Page %d of %d\n\n", filepath.Base(page.FilePath), page.Page, page.PageCount)
	fmt.Fprintln(w, search.Mark(page.Text, page.Highlights, ">>", "<<"))
	return nil
}

// WriteDocuments lists indexed documents.
func WriteDocuments(w io.Writer, docs []*models.Document, format SearchOutputFormat) error {
	if format == OutputJSON {
		if docs == nil {
			docs = []*models.Document{}
		}
		return writeJSON(w, docs)
	}
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%3d pages\t%s\n", d.ID, d.PageCount, d.Path)
	}
	return nil
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
