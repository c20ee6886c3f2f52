package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/texyhq/texy/internal/coord"
	"github.com/texyhq/texy/internal/fetch"
	"github.com/texyhq/texy/internal/logging"
	"github.com/texyhq/texy/internal/otel"
	"github.com/texyhq/texy/internal/server"
)

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file (default ~/.texy/config.yaml or config.json)")
	addr := fs.String("addr", "", "Listen address, overrides the config")
	noRefresh := fs.Bool("no-refresh", false, "Serve the stored collection without background fetching")
	fs.Parse(os.Args[1:])

	cfg := loadConfig(*configPath)
	if *addr != "" {
		cfg.Addr = *addr
	}

	if err := logging.Init(logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel}); err != nil {
		fatalf("failed to init logging: %v", err)
	}
	defer logging.Close()

	events, ring, closeEvents := openEvents(cfg)
	defer closeEvents()
	events.Info(otel.KindStartup, "server", "texy serve starting")

	st := openDB(cfg)
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer, trends := newAnalysis(cfg, st, events)

	var coordinator *coord.Coordinator
	if !*noRefresh && len(cfg.Sources) > 0 {
		fetcher := fetch.NewFetcher(fetch.Options{Timeout: 30 * time.Second, Interval: 250 * time.Millisecond})
		opts := coord.Options{
			Schedule:     cfg.Schedule,
			AnalyzeBatch: cfg.Analysis.BatchSize,
			Events:       events,
			OnResult: func(r coord.Result) {
				if r.Err != nil {
					logging.Warn("source refresh failed", "source", r.Source, "error", r.Err)
					return
				}
				logging.Debug("source refreshed", "source", r.Source, "fetched", r.Fetched, "new", r.NewArticles)
			},
		}
		if cfg.Analysis.Enabled {
			opts.Analyzer = analyzer
		}
		coordinator = coord.NewCoordinator(st, fetcher, cfg.Sources, opts)
		if err := coordinator.Start(ctx); err != nil {
			fatalf("%v", err)
		}
	}

	srvOpts := server.Options{
		Store:      st,
		Chat:       newReplier(cfg, events),
		Analysis:   analyzer,
		Trends:     trends,
		Newsletter: newNewsletter(cfg, st, events),
		AdminKey:   cfg.Newsletter.AdminKey,
		Events:     events,
		Ring:       ring,
	}
	if coordinator != nil {
		srvOpts.Refresher = coordinator
	}
	srv := server.New(srvOpts)
	if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil {
		logging.Error("http server failed", "error", err)
	}

	stop()
	if coordinator != nil {
		coordinator.Wait()
	}
	events.Info(otel.KindShutdown, "server", "texy serve stopped")
}
