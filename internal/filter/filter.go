// Package filter provides pure filter functions for articles.
// All functions are simple: []Article in, []Article out. No side effects.
package filter

import (
	"strings"

	"github.com/texyhq/texy/internal/model"
)

// DefaultPerPage is the explore page size.
const DefaultPerPage = 12

// Criteria are the user-controlled filter parameters.
type Criteria struct {
	Category string // model.AllCategories or "" disables the category filter
	Query    string // empty disables the search filter
}

// Apply runs the filter chain: category first, then search.
func Apply(articles []model.Article, c Criteria) []model.Article {
	return BySearch(ByCategory(articles, c.Category), c.Query)
}

// ByCategory keeps articles whose category equals category exactly
// (case-sensitive). "All" and "" pass everything through.
func ByCategory(articles []model.Article, category string) []model.Article {
	if category == "" || category == model.AllCategories {
		return clone(articles)
	}

	result := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		if a.Classification.Category == category {
			result = append(result, a)
		}
	}
	return result
}

// BySearch keeps articles whose title, short description or any tag contains
// query, case-insensitively. Plain substring matching: no tokenization.
func BySearch(articles []model.Article, query string) []model.Article {
	if query == "" {
		return clone(articles)
	}

	q := strings.ToLower(query)
	result := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		if Matches(a, q) {
			result = append(result, a)
		}
	}
	return result
}

// Matches reports whether a matches an already lower-cased query.
// Missing fields are empty strings and therefore never match.
func Matches(a model.Article, lowerQuery string) bool {
	if strings.Contains(strings.ToLower(a.Title), lowerQuery) {
		return true
	}
	if strings.Contains(strings.ToLower(a.Content.ShortDescription), lowerQuery) {
		return true
	}
	for _, tag := range a.Classification.Tags {
		if strings.Contains(strings.ToLower(tag), lowerQuery) {
			return true
		}
	}
	return false
}

// Paginate returns the 1-based page of items. Pages outside the range yield
// an empty slice; perPage <= 0 uses DefaultPerPage.
func Paginate[T any](items []T, page, perPage int) []T {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}

	result := make([]T, end-start)
	copy(result, items[start:end])
	return result
}

// TotalPages is the number of pages needed for n items.
func TotalPages(n, perPage int) int {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return (n + perPage - 1) / perPage
}

func clone(articles []model.Article) []model.Article {
	result := make([]model.Article, len(articles))
	copy(result, articles)
	return result
}
