// Package pdftest builds small single-font PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Label is one /PageLabels range: from page index Start (0-based) on, pages are
// labelled Prefix + Style-formatted numbers beginning at First.
type Label struct {
	Start  int
	Style  string
	Prefix string
	First  int
}

// Option configures a generated PDF.
type Option func(*builder)

// WithLabels adds a /PageLabels number tree to the catalog.
func WithLabels(labels ...Label) Option {
	return func(b *builder) { b.labels = labels }
}

type builder struct {
	labels []Label
}

// Build returns a PDF with one page per entry of pages. Each page shows its
// text with a single Tj operator, so the extracted text contains the input
// verbatim. The Td that positions it makes the reader emit a leading newline.
func Build(pages []string, opts ...Option) []byte {
	b := &builder{}
	for _, opt := range opts {
		opt(b)
	}

	// 1 catalog, 2 pages, 3 font, then a page object and a content stream per page.
	objCount := 3 + 2*len(pages)
	offsets := make([]int, objCount+1)
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	catalog := "<< /Type /Catalog /Pages 2 0 R"
	if len(b.labels) > 0 {
		var nums strings.Builder
		for _, l := range b.labels {
			fmt.Fprintf(&nums, " %d <<", l.Start)
			if l.Style != "" {
				fmt.Fprintf(&nums, " /S /%s", l.Style)
			}
			if l.Prefix != "" {
				fmt.Fprintf(&nums, " /P (%s)", escape(l.Prefix))
			}
			if l.First > 0 {
				fmt.Fprintf(&nums, " /St %d", l.First)
			}
			nums.WriteString(" >>")
		}
		catalog += " /PageLabels << /Nums [" + nums.String() + " ] >>"
	}
	catalog += " >>"
	writeObj(1, catalog)

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	writeObj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, text := range pages {
		pageNum := 4 + 2*i
		contentNum := pageNum + 1
		writeObj(pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			contentNum))
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", escape(text))
		writeObj(contentNum, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", objCount+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= objCount; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", objCount+1, xrefOffset)
	return buf.Bytes()
}

// WriteFile builds a PDF and writes it to path.
func WriteFile(path string, pages []string, opts ...Option) error {
	return os.WriteFile(path, Build(pages, opts...), 0600)
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`, "\n", `\n`, "\r", `\r`)
	return r.Replace(s)
}
