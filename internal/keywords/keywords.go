// Package keywords aggregates trending keywords across an article collection.
package keywords

import (
	"sort"
	"strings"
	"unicode"

	"github.com/texyhq/texy/internal/model"
)

// Result limits used by the sidebar and the explore page.
const (
	SidebarLimit = 6
	ExploreLimit = 20
)

// MinScore is the weight a keyword needs before it is counted.
const MinScore = 50

// Keyword is one entry of the trending list.
type Keyword struct {
	Keyword string `json:"keyword"`
	Tag     string `json:"tag"`
	Count   int    `json:"count"`
}

// Extract tallies every keyword scored at least MinScore, one per occurrence,
// and returns the top limit entries by count. Equal counts keep the order in
// which the keyword was first seen. limit <= 0 uses SidebarLimit.
func Extract(articles []model.Article, limit int) []Keyword {
	if limit <= 0 {
		limit = SidebarLimit
	}

	index := make(map[string]int)
	var tally []Keyword
	for _, a := range articles {
		for _, kw := range a.Metadata.Keywords {
			if kw.Score < MinScore || kw.Keyword == "" {
				continue
			}
			if i, ok := index[kw.Keyword]; ok {
				tally[i].Count++
				continue
			}
			index[kw.Keyword] = len(tally)
			tally = append(tally, Keyword{Keyword: kw.Keyword, Tag: Tag(kw.Keyword), Count: 1})
		}
	}

	sort.SliceStable(tally, func(i, j int) bool {
		return tally[i].Count > tally[j].Count
	})

	if len(tally) > limit {
		tally = tally[:limit]
	}
	if tally == nil {
		tally = []Keyword{}
	}
	return tally
}

// Tag is the hashtag form of a keyword: all whitespace removed, '#' prefixed.
func Tag(keyword string) string {
	return "#" + strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, keyword)
}
