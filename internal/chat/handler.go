package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/texyhq/texy/internal/logging"
)

// ErrorMessage is the only failure detail exposed to clients.
const ErrorMessage = "Failed to process chat request"

// maxBodyBytes bounds a chat request body.
const maxBodyBytes = 1 << 20

// Replier produces one assistant reply for a conversation.
type Replier interface {
	Reply(ctx context.Context, req Request) (Reply, error)
}

var _ Replier = (*Relay)(nil)

// Handler serves POST /api/chat.
type Handler struct {
	replier Replier
}

// NewHandler returns a handler for r. A nil r answers every request with
// the generic error, which is how a missing API key surfaces to clients.
func NewHandler(r Replier) *Handler {
	return &Handler{replier: r}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	reply, err := h.handle(w, r)
	if err != nil {
		logging.Error("chat request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": ErrorMessage})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request) (Reply, error) {
	if h.replier == nil {
		return Reply{}, ErrMissingAPIKey
	}

	var req Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return Reply{}, fmt.Errorf("chat: decode request: %w", err)
	}

	return h.replier.Reply(r.Context(), req)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
