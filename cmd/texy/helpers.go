package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/texyhq/texy/internal/analysis"
	"github.com/texyhq/texy/internal/brain"
	"github.com/texyhq/texy/internal/chat"
	"github.com/texyhq/texy/internal/config"
	"github.com/texyhq/texy/internal/logging"
	"github.com/texyhq/texy/internal/newsletter"
	"github.com/texyhq/texy/internal/otel"
	"github.com/texyhq/texy/internal/store"
)

// ringSize is how many recent events the debug views keep.
const ringSize = 1000

// scrapeTimeout bounds one article page download.
const scrapeTimeout = 15 * time.Second

// loadConfig reads path, or the default config file when path is empty.
func loadConfig(path string) *config.Config {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFile(path)
	}
	if err != nil {
		fatalf("failed to load config: %v", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		fatalf("failed to create data directory: %v", err)
	}
	return cfg
}

// eventLogPath returns the path to texy.events.jsonl.
func eventLogPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "texy.events.jsonl")
}

// openDB opens the store or exits.
func openDB(cfg *config.Config) *store.Store {
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		fatalf("failed to open database: %v", err)
	}
	return st
}

// openEvents opens the JSONL event log with a ring buffer attached.
// The returned close func flushes the log.
func openEvents(cfg *config.Config) (*otel.Logger, *otel.RingBuffer, func()) {
	ring := otel.NewRingBuffer(ringSize)

	f, err := os.OpenFile(eventLogPath(cfg), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logging.Warn("event log unavailable", "error", err)
		events := otel.NewNullLogger()
		events.SetRingBuffer(ring)
		return events, ring, events.Close
	}

	events := otel.NewLogger(f)
	events.SetRingBuffer(ring)
	return events, ring, func() {
		events.Close()
		f.Close()
	}
}

// newReplier binds the chat relay to the first usable provider. It returns a
// nil Replier when no provider has a key, so chat answers with its generic error.
func newReplier(cfg *config.Config, events *otel.Logger) chat.Replier {
	var p brain.Provider
	if pm := cfg.Providers(); pm != nil {
		p = pm.GetAvailable()
	}
	relay, err := chat.NewRelay(p, chat.Options{
		Rate:   cfg.Chat.Rate,
		Burst:  cfg.Chat.Burst,
		Events: events,
	})
	if err != nil {
		logging.Warn("chat relay disabled", "error", err)
		return nil
	}
	logging.Info("chat relay ready", "provider", p.Name())
	return relay
}

// newAnalysis builds the analysis service and the trend client it uses. The
// trend client is nil when trends are disabled. Without a usable provider the
// analyzer runs its heuristic steps only.
func newAnalysis(cfg *config.Config, st *store.Store, events *otel.Logger) (*analysis.Service, *analysis.TrendClient) {
	var trends *analysis.TrendClient
	if cfg.Analysis.Trends {
		trends = analysis.NewTrendClient(analysis.TrendOptions{})
	}
	var scraper analysis.Scraper
	if cfg.Analysis.Scrape {
		scraper = analysis.NewScraper(scrapeTimeout)
	}

	var p brain.Provider
	if pm := cfg.AnalysisProviders(); pm != nil {
		p = pm.GetAvailable()
	}
	if p == nil {
		logging.Warn("no AI provider for analysis, using keyword heuristics only")
	} else {
		logging.Info("analysis ready", "provider", p.Name())
	}

	an := analysis.NewAnalyzer(p, analysis.Options{
		Scraper: scraper,
		Trends:  trends,
		Rate:    cfg.Analysis.Rate,
		Burst:   cfg.Analysis.Burst,
		Events:  events,
	})
	return analysis.NewService(st, an), trends
}

// newNewsletter builds the digest service on the Resend API.
func newNewsletter(cfg *config.Config, st *store.Store, events *otel.Logger) *newsletter.Service {
	if cfg.Newsletter.ResendAPIKey == "" {
		logging.Warn("RESEND_API_KEY not set, newsletter sends will fail")
	}
	sender := newsletter.NewResendSender(newsletter.ResendOptions{
		APIKey: cfg.Newsletter.ResendAPIKey,
		From:   cfg.Newsletter.From,
	})
	return newsletter.NewService(st, sender, newsletter.Options{
		BaseURL: cfg.Newsletter.BaseURL,
		Events:  events,
	})
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
