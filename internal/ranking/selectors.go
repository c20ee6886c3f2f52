// Package ranking implements the discovery selectors: named strategies that
// filter, rank and truncate an article collection.
package ranking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/texyhq/texy/internal/model"
)

// DefaultLimit is used when a caller passes limit <= 0.
const DefaultLimit = 10

// Selector names as shown in the explore view.
const (
	NameTrending    = "Trending"
	NameHiddenGems  = "Hidden Gems"
	NameRisingStars = "Rising Stars"
	NameCurated     = "Curated"
)

// Selector is a named ranking strategy over an article collection.
type Selector interface {
	Name() string
	// Select never returns more than limit items and never mutates its input.
	Select(articles []model.Article, limit int) []model.Article
}

// strategy is filter -> stable sort (descending key) -> truncate.
type strategy struct {
	name string
	keep func(model.Article) bool // nil keeps everything
	key  func(model.Article) float64
}

func (s strategy) Name() string { return s.name }

func (s strategy) Select(articles []model.Article, limit int) []model.Article {
	if limit <= 0 {
		limit = DefaultLimit
	}

	result := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		if s.keep == nil || s.keep(a) {
			result = append(result, a)
		}
	}

	// Stable: equal keys keep input order across repeated calls.
	sort.SliceStable(result, func(i, j int) bool {
		return s.key(result[i]) > s.key(result[j])
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

// Trending ranks every article by trend score.
var Trending Selector = strategy{
	name: NameTrending,
	key:  func(a model.Article) float64 { return a.Scores.TrendScore },
}

// HiddenGems keeps highly relevant articles that have not gone viral,
// ranked by relevance.
var HiddenGems Selector = strategy{
	name: NameHiddenGems,
	keep: func(a model.Article) bool {
		return a.Scores.RelevanceScore > 80 && a.Trends.Virality.NewsVolume != model.VolumeViral
	},
	key: func(a model.Article) float64 { return a.Scores.RelevanceScore },
}

// RisingStars keeps rising articles or those growing by more than 50%,
// ranked by change percent.
var RisingStars Selector = strategy{
	name: NameRisingStars,
	keep: func(a model.Article) bool {
		return a.Trends.TrendDirection == model.TrendRising || a.Trends.ChangePercent > 50
	},
	key: func(a model.Article) float64 { return a.Trends.ChangePercent },
}

// Curated keeps actionable articles, ranked by confidence.
var Curated Selector = strategy{
	name: NameCurated,
	keep: func(a model.Article) bool { return a.Classification.Actionable },
	key:  func(a model.Article) float64 { return a.Scores.ConfidenceScore },
}

// All lists the selectors in display order.
func All() []Selector {
	return []Selector{Trending, HiddenGems, RisingStars, Curated}
}

// ByName resolves a selector by display name. Matching ignores case and
// separators, so "hidden-gems" and "Hidden Gems" are equivalent;
// "Curated Collections" is accepted as an alias of Curated.
func ByName(name string) (Selector, error) {
	key := normalizeName(name)
	if key == "curatedcollections" {
		return Curated, nil
	}
	for _, s := range All() {
		if normalizeName(s.Name()) == key {
			return s, nil
		}
	}
	return nil, fmt.Errorf("unknown discovery selector %q", name)
}

func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch r {
		case ' ', '-', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
