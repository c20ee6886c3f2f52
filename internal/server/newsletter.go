package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/texyhq/texy/internal/logging"
	"github.com/texyhq/texy/internal/newsletter"
	"github.com/texyhq/texy/internal/store"
)

type subscribeRequest struct {
	Email     string   `json:"email"`
	Role      string   `json:"role"`
	TechStack []string `json:"tech_stack"`
}

// POST /subscribe
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	signup, err := newsletter.Validate(req.Email, req.Role, req.TechStack)
	if err != nil {
		// Validation errors name the allowed values and nothing internal.
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reactivated, err := s.store.Subscribe(signup.Email, signup.Role, signup.TechStack)
	if errors.Is(err, store.ErrAlreadySubscribed) {
		writeError(w, http.StatusBadRequest, "Email already subscribed")
		return
	}
	if err != nil {
		s.storeFailed(r, "subscribe", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	msg := "Successfully subscribed"
	if reactivated {
		msg = "Subscription reactivated"
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "subscriber": signup})
}

// DELETE /unsubscribe/{email}, and GET for the link in each digest.
func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	err := s.store.Unsubscribe(email)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Email not found")
		return
	}
	if err != nil {
		s.storeFailed(r, "unsubscribe", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully unsubscribed"})
}

// GET /subscribers?admin_key=
func (s *Server) handleSubscribers(w http.ResponseWriter, r *http.Request) {
	if !s.admin(r) {
		writeError(w, http.StatusForbidden, msgForbidden)
		return
	}
	subs, err := s.store.Subscribers()
	if err != nil {
		s.storeFailed(r, "subscribers", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if subs == nil {
		subs = []store.Subscriber{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscribers": subs, "total": len(subs)})
}

// POST /send-newsletter?admin_key=&days_back=1
func (s *Server) handleSendNewsletter(w http.ResponseWriter, r *http.Request) {
	if !s.admin(r) {
		writeError(w, http.StatusForbidden, msgForbidden)
		return
	}
	if s.newsletter == nil {
		writeError(w, http.StatusServiceUnavailable, msgUnavailable)
		return
	}
	daysBack := intParam(r, "days_back", 1)

	s.jobs.run("newsletter", func(ctx context.Context) {
		if _, err := s.newsletter.SendDaily(ctx, daysBack); err != nil {
			logging.Error("newsletter run failed", "error", err)
		}
	})
	writeJSON(w, http.StatusAccepted, map[string]any{"message": "Newsletter sending started", "days_back": daysBack})
}

// admin reports whether the request carries the configured admin key. With
// no key configured nobody is admin.
func (s *Server) admin(r *http.Request) bool {
	if s.adminKey == "" {
		return false
	}
	got := r.URL.Query().Get("admin_key")
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.adminKey)) == 1
}
