package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/semantik/internal/models"
)

func sampleResponse() *models.SearchResponse {
	corrected := &models.Reference{
		FilePath:            "/lib/annual.pdf",
		ResolvedPage:        7,
		ClaimedPageOriginal: models.Int(99),
		Text:                "Lease liabilities are measured at present value.",
		Score:               models.Float64(0.9123),
	}
	kept := &models.Reference{
		FilePath:     "/lib/annual.pdf",
		ResolvedPage: 3,
		Text:         "Segments are reported by region.",
	}
	return &models.SearchResponse{
		Query:      "lease liabilities",
		Retrieved:  3,
		References: []*models.Reference{corrected, kept},
		Drops:      []*models.Drop{{Index: 2, FilePath: "/lib/annual.pdf", ClaimedPage: "50", Reason: models.DropNoTextMatch}},
		Pages: []*models.PageGroup{
			{FilePath: "/lib/annual.pdf", Page: 7, MaxScore: models.Float64(0.9123), References: []*models.Reference{corrected}},
			{FilePath: "/lib/annual.pdf", Page: 3, References: []*models.Reference{kept}},
		},
		Terms:     []string{"lease", "lease liabilities", "liabilities"},
		QueryTime: 12,
	}
}

func TestWriteSearchResults_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{
		"Found 2 references in 12ms (3 retrieved, 1 dropped)",
		"annual.pdf",
		"Page 7 - Matches: 1",
		"Match (Score: 0.912) [label 99 corrected to page 7]",
		"**Lease liabilities** are measured",
		"Page 3 - Matches: 1",
		"Dropped passages",
		`#2 annual.pdf (claimed page "50"): no_text_match`,
	} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
	if strings.Index(out, "Page 7") > strings.Index(out, "Page 3") {
		t.Error("pages should keep response order")
	}
}

func TestWriteSearchResults_textEmpty(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteSearchResults(&buf, &models.SearchResponse{Query: "x"}, SearchOutputFormat("unknown"))
	if !strings.Contains(buf.String(), "No matches found.") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}

func TestWriteSearchResults_compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "/lib/annual.pdf:7\t0.912\t") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "/lib/annual.pdf:3\t-\t") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.SearchResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(decoded.Pages) != 2 || decoded.References[0].ClaimedPageOriginal == nil || *decoded.References[0].ClaimedPageOriginal != 99 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.References[1].Score != nil {
		t.Error("unscored reference should decode with nil score")
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    SearchOutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{" compact ", OutputCompact, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWritePageText(t *testing.T) {
	page := &models.PageText{
		FilePath:   "/lib/annual.pdf",
		Page:       2,
		PageCount:  10,
		Text:       "Lease payments",
		Highlights: []models.Highlight{{Start: 0, End: 5, Term: "lease"}},
	}
	var buf bytes.Buffer
	if err := WritePageText(&buf, page, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "annual.pdf - Page 2 of 10") || !strings.Contains(buf.String(), ">>Lease<< payments") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteDocuments(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteDocuments(&buf, nil, OutputJSON)
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty JSON list = %q", buf.String())
	}
	buf.Reset()
	_ = WriteDocuments(&buf, []*models.Document{{ID: "pdf:ab", Path: "/lib/a.pdf", PageCount: 4}}, OutputText)
	if !strings.Contains(buf.String(), "pdf:ab") || !strings.Contains(buf.String(), "/lib/a.pdf") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		maxWords int
		want     string
	}{
		{"empty", "", 3, ""},
		{"few words", "one two", 3, "one two"},
		{"exact", "one two three", 3, "one two three"},
		{"more", "one two three four", 3, "one two three..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateWords(tt.s, tt.maxWords); got != tt.want {
				t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.s, tt.maxWords, got, tt.want)
			}
		})
	}
}
