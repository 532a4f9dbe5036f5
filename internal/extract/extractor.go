// Package extract reads PDF files: page counts, page text, literal text search,
// and page labels. Every call opens the file and closes it before returning.
package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrPageOutOfRange is returned when a page number is outside [1, page count].
var ErrPageOutOfRange = errors.New("page out of range")

// PageSource is the read-only view of a PDF that reconciliation needs.
// Page numbers are 1-based.
type PageSource interface {
	PageCount(path string) (int, error)
	PageText(path string, page int) (string, error)
	// FindSubstring returns the pages whose text contains s, in ascending order.
	FindSubstring(path, s string) ([]int, error)
}

// Page is the extracted content of one PDF page.
type Page struct {
	Number int
	Label  string
	Text   string
}

// PDFAccessor implements PageSource on top of github.com/ledongthuc/pdf.
type PDFAccessor struct{}

// NewPDFAccessor returns a PDFAccessor.
func NewPDFAccessor() *PDFAccessor {
	return &PDFAccessor{}
}

// PageCount returns the number of pages in the PDF at path.
func (a *PDFAccessor) PageCount(path string) (n int, err error) {
	err = withReader(path, func(r reader) error {
		n = r.NumPage()
		return nil
	})
	return n, err
}

// PageText returns the plain text of the given page.
func (a *PDFAccessor) PageText(path string, page int) (text string, err error) {
	err = withReader(path, func(r reader) error {
		if page < 1 || page > r.NumPage() {
			return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, r.NumPage())
		}
		text, err = pageText(r, page)
		return err
	})
	return text, err
}

// FindSubstring scans every page for an exact, case-sensitive occurrence of s.
func (a *PDFAccessor) FindSubstring(path, s string) (pages []int, err error) {
	err = withReader(path, func(r reader) error {
		n := r.NumPage()
		for i := 1; i <= n; i++ {
			text, err := pageText(r, i)
			if err != nil {
				return err
			}
			if strings.Contains(text, s) {
				pages = append(pages, i)
			}
		}
		return nil
	})
	return pages, err
}

// ExtractPages returns every page of the PDF at path with its label and text.
// Pages the PDF does not define (null page objects) come back with empty text.
func (a *PDFAccessor) ExtractPages(path string) (pages []Page, err error) {
	err = withReader(path, func(r reader) error {
		labels := PageLabels(r.Reader)
		n := r.NumPage()
		pages = make([]Page, 0, n)
		for i := 1; i <= n; i++ {
			text, err := pageText(r, i)
			if err != nil {
				return err
			}
			label := strconv.Itoa(i)
			if l, ok := labels.Label(i); ok {
				label = l
			}
			pages = append(pages, Page{Number: i, Label: label, Text: text})
		}
		return nil
	})
	return pages, err
}
