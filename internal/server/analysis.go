package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/texyhq/texy/internal/analysis"
	"github.com/texyhq/texy/internal/logging"
	"github.com/texyhq/texy/internal/store"
)

// Background work limits.
const (
	defaultBackfillCount = 100
	maxBatch             = 500
)

// POST /analyze/{id}?force=true
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.analysis == nil {
		writeError(w, http.StatusServiceUnavailable, msgUnavailable)
		return
	}
	id := chi.URLParam(r, "id")
	force, _ := strconv.ParseBool(strings.ToLower(r.URL.Query().Get("force")))

	done, err := s.store.ArticleAnalyzed(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgArticleNotFound)
		return
	}
	if err != nil {
		s.storeFailed(r, "article analyzed", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if done && !force {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Article already analyzed", "article_id": id})
		return
	}

	s.jobs.run("analyze", func(ctx context.Context) {
		if _, err := s.analysis.AnalyzeByID(ctx, id, true); err != nil {
			logging.Warn("analysis failed", "id", id, "error", err)
		}
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Analysis started", "article_id": id})
}

// POST /analyze-all?limit=50
func (s *Server) handleAnalyzeAll(w http.ResponseWriter, r *http.Request) {
	if s.analysis == nil {
		writeError(w, http.StatusServiceUnavailable, msgUnavailable)
		return
	}
	limit := batchParam(r, "limit", analysis.DefaultBatchSize)

	s.jobs.run("analyze-all", func(ctx context.Context) {
		res, err := s.analysis.AnalyzePending(ctx, limit)
		if err != nil {
			logging.Warn("batch analysis stopped", "error", err)
		}
		logging.Info("batch analysis complete", "analyzed", res.Analyzed, "errors", res.Errors)
	})
	writeJSON(w, http.StatusAccepted, map[string]any{"message": "Batch analysis started", "limit": limit})
}

// POST /backfill?count=100 refreshes every source, then analyzes up to count
// pending articles.
func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	if s.analysis == nil {
		writeError(w, http.StatusServiceUnavailable, msgUnavailable)
		return
	}
	count := batchParam(r, "count", defaultBackfillCount)

	s.jobs.run("backfill", func(ctx context.Context) {
		if s.refresher != nil {
			s.refresher.RefreshAll(ctx)
		}
		res, err := s.analysis.AnalyzePending(ctx, count)
		if err != nil {
			logging.Warn("backfill stopped", "error", err)
		}
		logging.Info("backfill complete", "analyzed", res.Analyzed, "errors", res.Errors)
	})
	writeJSON(w, http.StatusAccepted, map[string]any{"message": "Backfill started", "count": count})
}

// GET /trends?keywords=ransomware,lockbit
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	if s.trends == nil {
		writeError(w, http.StatusServiceUnavailable, msgUnavailable)
		return
	}
	var keywords []string
	if raw := r.URL.Query().Get("keywords"); raw != "" {
		keywords = strings.Split(raw, ",")
	}
	writeJSON(w, http.StatusOK, s.trends.Signal(r.Context(), keywords))
}

// batchParam is intParam bounded to 1..maxBatch.
func batchParam(r *http.Request, name string, def int) int {
	n := intParam(r, name, def)
	if n == 0 {
		n = def
	}
	return min(n, maxBatch)
}
