package search

import (
	"reflect"
	"testing"

	"github.com/hyperjump/semantik/internal/models"
)

func TestHighlights(t *testing.T) {
	text := "The Quick brown fox; the quick brown fox jumps. QUICK!"
	got := Highlights(text, []string{"brown", "fox", "quick", "the quick brown fox"})
	want := []models.Highlight{
		{Start: 0, End: 19, Term: "the quick brown fox"},
		{Start: 21, End: 40, Term: "the quick brown fox"},
		{Start: 48, End: 53, Term: "quick"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Highlights = %+v\nwant %+v", got, want)
	}
}

func TestHighlights_noTerms(t *testing.T) {
	if got := Highlights("text", nil); got != nil {
		t.Errorf("got %v", got)
	}
	if got := Highlights("text", []string{"  "}); got != nil {
		t.Errorf("blank terms: got %v", got)
	}
	if got := Highlights("text", []string{"absent"}); got != nil {
		t.Errorf("no match: got %v", got)
	}
}

func TestHighlights_metaCharacters(t *testing.T) {
	got := Highlights("cost (net) is 5.0", []string{"(net)", "5.0"})
	if len(got) != 2 || got[0].Start != 5 || got[1].Term != "5.0" {
		t.Errorf("got %+v", got)
	}
}

func TestMark(t *testing.T) {
	text := "lease and Lease"
	got := Mark(text, Highlights(text, []string{"lease"}), "**", "**")
	if got != "**lease** and **Lease**" {
		t.Errorf("Mark = %q", got)
	}
	if Mark("plain", nil, "[", "]") != "plain" {
		t.Error("no highlights should leave text unchanged")
	}
}
