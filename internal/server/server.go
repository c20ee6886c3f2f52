// Package server exposes the article store, the feed pipeline, highlights,
// article analysis, the newsletter and the chat relay over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/texyhq/texy/internal/analysis"
	"github.com/texyhq/texy/internal/chat"
	"github.com/texyhq/texy/internal/coord"
	"github.com/texyhq/texy/internal/logging"
	"github.com/texyhq/texy/internal/newsletter"
	"github.com/texyhq/texy/internal/otel"
	"github.com/texyhq/texy/internal/store"
)

// Client-facing error messages. Internal errors are logged, never returned.
const (
	msgLoadFailed        = "Failed to load articles"
	msgArticleNotFound   = "Article not found"
	msgHighlightNotFound = "Highlight not found"
	msgBadRequest        = "Invalid request"
	msgInternal          = "Internal server error"
	msgUnavailable       = "Not configured"
	msgForbidden         = "Invalid admin key"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Options configure a Server.
type Options struct {
	Store *store.Store
	// Chat answers POST /api/chat. Nil makes the route return the generic
	// chat error, which is how a missing API key surfaces.
	Chat chat.Replier
	// Analysis serves the /analyze routes and /backfill. Nil answers 503.
	Analysis *analysis.Service
	// Trends serves GET /trends. Nil answers 503.
	Trends *analysis.TrendClient
	// Newsletter serves POST /send-newsletter. Nil answers 503.
	Newsletter *newsletter.Service
	// Refresher fetches every source for POST /backfill. May be nil.
	Refresher Refresher
	// AdminKey guards the subscriber list and newsletter sends. Empty
	// disables those routes.
	AdminKey string
	Events   *otel.Logger
	Ring     *otel.RingBuffer
}

// Refresher fetches every configured source once.
type Refresher interface {
	RefreshAll(ctx context.Context) []coord.Result
}

// Server is the HTTP surface.
type Server struct {
	store      *store.Store
	analysis   *analysis.Service
	trends     *analysis.TrendClient
	newsletter *newsletter.Service
	refresher  Refresher
	adminKey   string
	events     *otel.Logger
	ring       *otel.RingBuffer
	jobs       *jobs
	router     chi.Router
}

// jobs runs work started by a request after the response is written. Jobs
// outlive their request but not the server.
type jobs struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newJobs() *jobs {
	ctx, cancel := context.WithCancel(context.Background())
	return &jobs{ctx: ctx, cancel: cancel}
}

func (j *jobs) run(name string, fn func(ctx context.Context)) {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		start := time.Now()
		fn(j.ctx)
		logging.Debug("background job finished", "job", name, "took", time.Since(start).Round(time.Millisecond))
	}()
}

// close cancels running jobs and waits for them to return.
func (j *jobs) close() {
	j.cancel()
	j.wg.Wait()
}

// New builds the router.
func New(opts Options) *Server {
	s := &Server{
		store:      opts.Store,
		analysis:   opts.Analysis,
		trends:     opts.Trends,
		newsletter: opts.Newsletter,
		refresher:  opts.Refresher,
		adminKey:   opts.AdminKey,
		events:     opts.Events,
		ring:       opts.Ring,
		jobs:       newJobs(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodPost, "/api/chat", chat.NewHandler(opts.Chat))

	r.Route("/articles", func(r chi.Router) {
		r.Get("/", s.handleArticles)
		r.Get("/stats", s.handleStats)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleArticle)
			r.Get("/highlights", s.handleListHighlights)
			r.Post("/highlights", s.handleAddHighlight)
			r.Post("/render", s.handleRender)
		})
	})
	r.Get("/categories", s.handleCategories)
	r.Get("/export", s.handleExport)

	r.Get("/feed", s.handleFeed)
	r.Get("/discover/{selector}", s.handleDiscover)
	r.Get("/keywords", s.handleKeywords)

	r.Route("/highlights/{id}", func(r chi.Router) {
		r.Patch("/", s.handleUpdateHighlight)
		r.Delete("/", s.handleDeleteHighlight)
	})

	r.Post("/analyze/{id}", s.handleAnalyze)
	r.Post("/analyze-all", s.handleAnalyzeAll)
	r.Post("/backfill", s.handleBackfill)
	r.Get("/trends", s.handleTrends)

	r.Post("/subscribe", s.handleSubscribe)
	r.Delete("/unsubscribe/{email}", s.handleUnsubscribe)
	r.Get("/unsubscribe/{email}", s.handleUnsubscribe)
	r.Get("/subscribers", s.handleSubscribers)
	r.Post("/send-newsletter", s.handleSendNewsletter)

	r.Get("/debug/events", s.handleEvents)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	defer s.Close()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logging.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// Close stops background jobs started by requests and waits for them.
func (s *Server) Close() {
	s.jobs.close()
}

// observe emits one http.request event per request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := otel.LevelInfo
		if status >= http.StatusInternalServerError {
			level = otel.LevelError
		}
		s.events.Emit(otel.Event{
			Level:     level,
			Kind:      otel.KindHTTPRequest,
			Comp:      "server",
			RequestID: middleware.GetReqID(r.Context()),
			Method:    r.Method,
			Path:      r.URL.Path,
			Status:    status,
			Dur:       time.Since(start),
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "running"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.ring == nil {
		writeJSON(w, http.StatusOK, map[string]any{"events": []otel.Event{}})
		return
	}
	n := intParam(r, "n", 100)
	var events []otel.Event
	if kind := r.URL.Query().Get("kind"); kind != "" {
		events = s.ring.Filter(otel.EventKind(kind))
		if n > 0 && len(events) > n {
			events = events[len(events)-n:]
		}
	} else {
		events = s.ring.Last(n)
	}
	if events == nil {
		events = []otel.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"stats":  s.ring.Stats(),
	})
}

// storeFailed logs err and records a store.error event.
func (s *Server) storeFailed(r *http.Request, op string, err error) {
	logging.Error("store operation failed", "op", op, "path", r.URL.Path, "error", err)
	s.events.Emit(otel.Event{
		Level:     otel.LevelError,
		Kind:      otel.KindStoreError,
		Comp:      "server",
		RequestID: middleware.GetReqID(r.Context()),
		Msg:       op,
		Err:       err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}
