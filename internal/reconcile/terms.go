package reconcile

import (
	"regexp"
	"sort"
	"strings"
)

// maxPhraseWords is the longest query kept whole as an extra highlight term.
const maxPhraseWords = 4

var wordPattern = regexp.MustCompile(`\b\w{3,}\b`)

var stopWords = map[string]struct{}{
	"the": {}, "is": {}, "at": {}, "which": {}, "on": {}, "a": {}, "an": {},
	"and": {}, "or": {}, "but": {}, "in": {}, "with": {}, "to": {}, "for": {},
	"of": {}, "as": {}, "by": {},
}

// SearchTerms returns the terms to highlight for query: every lowercase word of
// three or more word characters that is not a stop word, plus the whole run of
// such words when it is at most four words long. The phrase is built before
// stop words are removed, so "The Quick Brown Fox" keeps "the quick brown fox".
// The result has no duplicates and is sorted.
func SearchTerms(query string) []string {
	words := wordPattern.FindAllString(strings.ToLower(query), -1)
	set := make(map[string]struct{}, len(words)+1)
	for _, w := range words {
		if _, stop := stopWords[w]; !stop {
			set[w] = struct{}{}
		}
	}
	if len(words) > 0 && len(words) <= maxPhraseWords {
		set[strings.Join(words, " ")] = struct{}{}
	}
	terms := make([]string, 0, len(set))
	for t := range set {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}
