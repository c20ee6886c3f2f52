// Package feed assembles what a reader sees from an article collection:
// filter chain, optional discovery selector, display projection and
// pagination. Build is pure and is re-run whenever an input changes.
package feed

import (
	"github.com/texyhq/texy/internal/filter"
	"github.com/texyhq/texy/internal/keywords"
	"github.com/texyhq/texy/internal/model"
	"github.com/texyhq/texy/internal/ranking"
)

// Params are the user-controlled inputs of a feed view.
type Params struct {
	Category     string
	Query        string
	Discovery    string // selector name; empty shows the filtered list as-is
	Limit        int    // selector limit; <= 0 uses ranking.DefaultLimit
	Page         int
	PerPage      int
	KeywordLimit int
}

// View is one rendering pass of the feed.
type View struct {
	Articles   []model.DisplayArticle `json:"articles"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	PerPage    int                    `json:"per_page"`
	Pages      int                    `json:"pages"`
	Discovery  string                 `json:"discovery,omitempty"`
	Categories []string               `json:"categories"`
	Keywords   []keywords.Keyword     `json:"keywords"`
}

// Build runs the pipeline over articles. An unknown discovery name is
// reported as an error and no view is produced.
func Build(articles []model.Article, p Params) (View, error) {
	p = p.normalized()

	selected := filter.Apply(articles, filter.Criteria{Category: p.Category, Query: p.Query})

	var discovery string
	if p.Discovery != "" {
		sel, err := ranking.ByName(p.Discovery)
		if err != nil {
			return View{}, err
		}
		selected = sel.Select(selected, p.Limit)
		discovery = sel.Name()
	}

	display := model.ToDisplayAll(selected)

	return View{
		Articles:   filter.Paginate(display, p.Page, p.PerPage),
		Total:      len(display),
		Page:       p.Page,
		PerPage:    p.PerPage,
		Pages:      filter.TotalPages(len(display), p.PerPage),
		Discovery:  discovery,
		Categories: append([]string{model.AllCategories}, model.DistinctCategories(articles)...),
		Keywords:   keywords.Extract(articles, p.KeywordLimit),
	}, nil
}

func (p Params) normalized() Params {
	if p.Category == "" {
		p.Category = model.AllCategories
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = filter.DefaultPerPage
	}
	if p.KeywordLimit <= 0 {
		p.KeywordLimit = keywords.SidebarLimit
	}
	return p
}
