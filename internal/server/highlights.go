package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/texyhq/texy/internal/highlight"
	"github.com/texyhq/texy/internal/otel"
	"github.com/texyhq/texy/internal/store"
)

type addHighlightRequest struct {
	Text  string `json:"text"`
	Note  string `json:"note"`
	Color string `json:"color"`
}

type updateHighlightRequest struct {
	Note string `json:"note"`
}

type renderRequest struct {
	Text string `json:"text"`
}

// articleSet loads the highlight set of the article named in the URL. It
// writes the error response and returns nil when the article is missing or
// the store fails.
func (s *Server) articleSet(w http.ResponseWriter, r *http.Request) *highlight.Set {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetArticle(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgArticleNotFound)
		} else {
			s.storeFailed(r, "get article", err)
			writeError(w, http.StatusInternalServerError, msgLoadFailed)
		}
		return nil
	}

	existing, err := s.store.Highlights(id)
	if err != nil {
		s.storeFailed(r, "list highlights", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return nil
	}
	return highlight.NewSet(id, existing...)
}

// GET /articles/{id}/highlights
func (s *Server) handleListHighlights(w http.ResponseWriter, r *http.Request) {
	set := s.articleSet(w, r)
	if set == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"highlights": set.List()})
}

// POST /articles/{id}/highlights
func (s *Server) handleAddHighlight(w http.ResponseWriter, r *http.Request) {
	var req addHighlightRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	set := s.articleSet(w, r)
	if set == nil {
		return
	}

	h, err := set.Add(req.Text, req.Note)
	if errors.Is(err, highlight.ErrEmptySelection) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Color != "" {
		h.Color = req.Color
	}

	if err := s.store.SaveHighlight(h); err != nil {
		s.storeFailed(r, "save highlight", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	s.events.Emit(otel.Event{
		Level:     otel.LevelInfo,
		Kind:      otel.KindHighlightAdd,
		Comp:      "server",
		RequestID: middleware.GetReqID(r.Context()),
		Source:    h.ArticleID,
		Extra:     map[string]any{"highlight_id": h.ID},
	})
	writeJSON(w, http.StatusCreated, h)
}

// PATCH /highlights/{id}
func (s *Server) handleUpdateHighlight(w http.ResponseWriter, r *http.Request) {
	var req updateHighlightRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	h, err := s.store.UpdateHighlightNote(chi.URLParam(r, "id"), req.Note)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgHighlightNotFound)
		return
	}
	if err != nil {
		s.storeFailed(r, "update highlight", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// DELETE /highlights/{id}
func (s *Server) handleDeleteHighlight(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.store.DeleteHighlight(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgHighlightNotFound)
		return
	}
	if err != nil {
		s.storeFailed(r, "delete highlight", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	s.events.Emit(otel.Event{
		Level:     otel.LevelInfo,
		Kind:      otel.KindHighlightDelete,
		Comp:      "server",
		RequestID: middleware.GetReqID(r.Context()),
		Extra:     map[string]any{"highlight_id": id},
	})
	w.WriteHeader(http.StatusNoContent)
}

// POST /articles/{id}/render splits {text} into fragments using the
// article's stored highlights.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	set := s.articleSet(w, r)
	if set == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fragments": set.Render(req.Text)})
}
