package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/texyhq/texy/internal/model"
	"github.com/texyhq/texy/internal/store"
)

type pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

type articlesResponse struct {
	Articles   []model.Article `json:"articles"`
	Pagination pagination      `json:"pagination"`
}

// GET /articles?limit&offset&category&search&actionable&min_confidence&sort&order
func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	page, err := s.store.QueryArticles(q)
	if err != nil {
		s.storeFailed(r, "query articles", err)
		writeError(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}

	writeJSON(w, http.StatusOK, articlesResponse{
		Articles: page.Articles,
		Pagination: pagination{
			Total:   page.Total,
			Limit:   page.Limit,
			Offset:  page.Offset,
			HasMore: page.HasMore,
		},
	})
}

// GET /articles/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats()
	if err != nil {
		s.storeFailed(r, "stats", err)
		writeError(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GET /articles/{id}
func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetArticle(chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgArticleNotFound)
		return
	}
	if err != nil {
		s.storeFailed(r, "get article", err)
		writeError(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GET /categories
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.Categories()
	if err != nil {
		s.storeFailed(r, "categories", err)
		writeError(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

// GET /export returns the whole store as a collection document, the same
// shape the json source type reads.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	articles, err := s.store.AllArticles()
	if err != nil {
		s.storeFailed(r, "export", err)
		writeError(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}
	stats, err := s.store.Stats()
	if err != nil {
		s.storeFailed(r, "export stats", err)
		writeError(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}

	byCategory := make(map[string]int, len(stats.Categories))
	available := make([]string, 0, len(stats.Categories))
	for _, c := range stats.Categories {
		byCategory[c.Name] = c.Count
		available = append(available, c.Name)
	}

	w.Header().Set("Content-Disposition", `attachment; filename="articles.json"`)
	writeJSON(w, http.StatusOK, model.Collection{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Statistics: &model.Statistics{
			TotalArticles:   stats.TotalArticles,
			AvgConfidence:   stats.AverageScores.Confidence,
			AvgRelevance:    stats.AverageScores.Relevance,
			AvgSentiment:    stats.AverageScores.Sentiment,
			AvgTrend:        stats.AverageScores.Trend,
			ActionableCount: stats.ActionableCount,
			Categories:      byCategory,
		},
		CategoriesAvailable: available,
		Articles:            articles,
	})
}

func parseQuery(r *http.Request) (store.Query, error) {
	v := r.URL.Query()
	q := store.Query{
		Category: v.Get("category"),
		Search:   v.Get("search"),
		Sort:     v.Get("sort"),
		Order:    v.Get("order"),
	}

	var err error
	if s := v.Get("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil {
			return q, err
		}
	}
	if s := v.Get("offset"); s != "" {
		if q.Offset, err = strconv.Atoi(s); err != nil {
			return q, err
		}
	}
	if s := v.Get("actionable"); s != "" {
		b, err := strconv.ParseBool(strings.ToLower(s))
		if err != nil {
			return q, err
		}
		q.Actionable = &b
	}
	if s := v.Get("min_confidence"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return q, err
		}
		q.MinConfidence = &f
	}
	return q, nil
}

// intParam reads a non-negative integer query parameter, falling back to def
// when it is missing or malformed.
func intParam(r *http.Request, name string, def int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
