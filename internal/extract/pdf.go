package extract

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

type reader struct {
	*pdf.Reader
}

// withReader opens path, runs fn, and closes the file. Panics raised by the
// PDF parser on malformed input are returned as errors.
func withReader(path string, fn func(r reader) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("read PDF %s: %v", path, rec)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("open PDF %s: %w", path, err)
	}
	defer f.Close()
	return fn(reader{r})
}

func pageText(r reader, num int) (string, error) {
	page := r.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extract page %d: %w", num, err)
	}
	return text, nil
}
