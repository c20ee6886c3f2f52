// Package coord keeps the article store fresh by fetching every configured
// source on a schedule and analyzing what arrived.
package coord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/texyhq/texy/internal/analysis"
	"github.com/texyhq/texy/internal/fetch"
	"github.com/texyhq/texy/internal/logging"
	"github.com/texyhq/texy/internal/model"
	"github.com/texyhq/texy/internal/otel"
)

// DefaultSchedule is the refresh schedule used when none is configured.
const DefaultSchedule = "@every 15m"

// DefaultAnalyzeBatch is how many pending articles are analyzed after each
// scheduled refresh.
const DefaultAnalyzeBatch = 20

// fetchTimeout is the timeout for each individual fetch.
const fetchTimeout = 30 * time.Second

// maxConcurrentFetches limits parallel fetch operations.
const maxConcurrentFetches = 5

// fetcher interface for dependency injection (testing).
type fetcher interface {
	Fetch(ctx context.Context, src fetch.Source) ([]model.Article, error)
}

// sink persists fetched articles.
type sink interface {
	SaveArticles(articles []model.Article, source string) (int, error)
}

// pendingAnalyzer analyzes stored articles that have not been analyzed.
type pendingAnalyzer interface {
	AnalyzePending(ctx context.Context, limit int) (analysis.BatchResult, error)
}

// Result reports the outcome of one source fetch.
type Result struct {
	Source      string
	Fetched     int
	NewArticles int
	Err         error
}

// Options configure a Coordinator.
type Options struct {
	// Schedule is a cron spec or "@every <duration>". Empty uses DefaultSchedule.
	Schedule string
	// OnResult is called once per source per run, from a fetch goroutine.
	OnResult func(Result)
	// Analyzer, when set, runs after every scheduled refresh.
	Analyzer pendingAnalyzer
	// AnalyzeBatch caps each analysis run. Zero uses DefaultAnalyzeBatch.
	AnalyzeBatch int
	Events       *otel.Logger
}

// Coordinator manages background fetching.
// Uses context cancellation as the ONLY stop mechanism.
type Coordinator struct {
	store    sink
	fetcher  fetcher
	sources  []fetch.Source // IMMUTABLE: set at construction, never modified
	schedule string
	onResult func(Result)
	analyzer pendingAnalyzer
	batch    int
	events   *otel.Logger
	wg       sync.WaitGroup
}

// NewCoordinator creates a Coordinator with the real fetcher.
func NewCoordinator(s sink, f *fetch.Fetcher, sources []fetch.Source, opts Options) *Coordinator {
	return NewCoordinatorWithFetcher(s, f, sources, opts)
}

// NewCoordinatorWithFetcher allows injecting a custom fetcher (for testing).
func NewCoordinatorWithFetcher(s sink, f fetcher, sources []fetch.Source, opts Options) *Coordinator {
	sourcesCopy := make([]fetch.Source, len(sources))
	copy(sourcesCopy, sources)

	schedule := opts.Schedule
	if schedule == "" {
		schedule = DefaultSchedule
	}

	batch := opts.AnalyzeBatch
	if batch <= 0 {
		batch = DefaultAnalyzeBatch
	}

	return &Coordinator{
		store:    s,
		fetcher:  f,
		sources:  sourcesCopy,
		schedule: schedule,
		onResult: opts.OnResult,
		analyzer: opts.Analyzer,
		batch:    batch,
		events:   opts.Events,
	}
}

// Start performs one refresh immediately, then refreshes on the schedule
// until ctx is cancelled. A run that is still going when the next one is due
// causes that next run to be skipped.
func (c *Coordinator) Start(ctx context.Context) error {
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(c.schedule, func() { c.Run(ctx) }); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", c.schedule, err)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		c.Run(ctx)
		scheduler.Start()

		<-ctx.Done()
		<-scheduler.Stop().Done()
	}()
	return nil
}

// Wait blocks until the background goroutine exits.
// Call after canceling the context passed to Start.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Run refreshes every source, then analyzes up to one batch of pending
// articles when an Analyzer is configured.
func (c *Coordinator) Run(ctx context.Context) []Result {
	results := c.RefreshAll(ctx)
	if c.analyzer == nil || ctx.Err() != nil {
		return results
	}

	res, err := c.analyzer.AnalyzePending(ctx, c.batch)
	if err != nil {
		logging.Warn("analysis run stopped", "error", err)
		return results
	}
	if res.Analyzed > 0 || res.Errors > 0 {
		logging.Info("analysis run complete", "analyzed", res.Analyzed, "errors", res.Errors)
	}
	return results
}

// RefreshAll fetches all sources in parallel and saves what they return.
// A failing source is reported and left for the next run; there is no retry.
func (c *Coordinator) RefreshAll(ctx context.Context) []Result {
	start := time.Now()

	var (
		mu      sync.Mutex
		results []Result
	)

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)

	for _, src := range c.sources {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			r := c.fetchSource(ctx, src)
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			return nil // never fail the group - errors reported per-source
		})
	}
	_ = g.Wait()

	total := 0
	for _, r := range results {
		total += r.NewArticles
	}
	c.events.Timed(otel.KindRefresh, "coord", start, otel.Event{Count: total})
	logging.Info("refresh complete", "sources", len(results), "new", total, "took", time.Since(start).Round(time.Millisecond))

	return results
}

// fetchSource fetches a single source with timeout.
func (c *Coordinator) fetchSource(ctx context.Context, src fetch.Source) Result {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	start := time.Now()
	c.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFetchStart, Comp: "coord", Source: src.Name})

	result := Result{Source: src.Name}
	articles, err := c.fetcher.Fetch(fetchCtx, src)
	if err == nil {
		result.Fetched = len(articles)
		if len(articles) > 0 {
			result.NewArticles, err = c.store.SaveArticles(articles, src.Name)
			if err != nil {
				c.events.Error(otel.KindStoreError, "coord", err)
			}
		}
	}
	result.Err = err

	if err != nil {
		logging.Warn("fetch failed", "source", src.Name, "error", err)
		c.events.Emit(otel.Event{
			Level:  otel.LevelWarn,
			Kind:   otel.KindFetchError,
			Comp:   "coord",
			Source: src.Name,
			Dur:    time.Since(start),
			Err:    err.Error(),
		})
	} else {
		c.events.Timed(otel.KindFetchComplete, "coord", start, otel.Event{Source: src.Name, Count: result.NewArticles})
	}

	if c.onResult != nil {
		c.onResult(result)
	}
	return result
}
