package search

import (
	"sort"

	"github.com/hyperjump/semantik/internal/models"
)

// GroupByPage groups references by file and resolved page. Groups are ordered
// by their best score, highest first, with unscored groups last; within a group
// references are ordered the same way. Equal keys keep input order.
func GroupByPage(refs []*models.Reference) []*models.PageGroup {
	type key struct {
		path string
		page int
	}
	index := make(map[key]*models.PageGroup)
	var groups []*models.PageGroup
	for _, ref := range refs {
		k := key{ref.FilePath, ref.ResolvedPage}
		g, ok := index[k]
		if !ok {
			g = &models.PageGroup{FilePath: ref.FilePath, DocumentID: ref.DocumentID, Page: ref.ResolvedPage}
			index[k] = g
			groups = append(groups, g)
		}
		g.References = append(g.References, ref)
	}

	for _, g := range groups {
		sort.SliceStable(g.References, func(i, j int) bool {
			return higher(g.References[i].Score, g.References[j].Score)
		})
		g.MaxScore = g.References[0].Score
	}
	sort.SliceStable(groups, func(i, j int) bool { return higher(groups[i].MaxScore, groups[j].MaxScore) })
	return groups
}

// higher orders scores descending with nil after every real score.
func higher(a, b *float64) bool {
	if a == nil || b == nil {
		return a != nil && b == nil
	}
	return *a > *b
}
