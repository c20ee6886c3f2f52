package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/texyhq/texy/internal/feed"
	"github.com/texyhq/texy/internal/keywords"
	"github.com/texyhq/texy/internal/model"
	"github.com/texyhq/texy/internal/ranking"
)

// loadArticles reads the collection the pipeline runs over. On failure it
// writes the load error and returns false.
func (s *Server) loadArticles(w http.ResponseWriter, r *http.Request) ([]model.Article, bool) {
	articles, err := s.store.AllArticles()
	if err != nil {
		s.storeFailed(r, "load articles", err)
		writeError(w, http.StatusInternalServerError, msgLoadFailed)
		return nil, false
	}
	return articles, true
}

// GET /feed?category&search&discovery&limit&page&per_page&keywords
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	articles, ok := s.loadArticles(w, r)
	if !ok {
		return
	}

	v := r.URL.Query()
	view, err := feed.Build(articles, feed.Params{
		Category:     v.Get("category"),
		Query:        v.Get("search"),
		Discovery:    v.Get("discovery"),
		Limit:        intParam(r, "limit", 0),
		Page:         intParam(r, "page", 1),
		PerPage:      intParam(r, "per_page", 0),
		KeywordLimit: intParam(r, "keywords", 0),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GET /discover/{selector}?limit
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	sel, err := ranking.ByName(chi.URLParam(r, "selector"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	articles, ok := s.loadArticles(w, r)
	if !ok {
		return
	}

	picked := sel.Select(articles, intParam(r, "limit", ranking.DefaultLimit))
	writeJSON(w, http.StatusOK, map[string]any{
		"selector": sel.Name(),
		"articles": model.ToDisplayAll(picked),
	})
}

// GET /keywords?limit
func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	articles, ok := s.loadArticles(w, r)
	if !ok {
		return
	}
	limit := intParam(r, "limit", keywords.SidebarLimit)
	writeJSON(w, http.StatusOK, map[string]any{
		"keywords": keywords.Extract(articles, limit),
	})
}
