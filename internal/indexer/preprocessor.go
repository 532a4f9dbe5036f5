package indexer

import "strings"

// Preprocess collapses runs of whitespace into single spaces and trims the ends.
// It is applied to text before embedding; stored chunk content keeps the page's spacing.
func Preprocess(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
