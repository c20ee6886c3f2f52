package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/texyhq/texy/internal/analysis"
	"github.com/texyhq/texy/internal/logging"
)

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file")
	limit := fs.Int("limit", analysis.DefaultBatchSize, "Pending articles to analyze")
	force := fs.Bool("force", false, "Reanalyze an article that was already analyzed")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: texy analyze [flags] [article-id]")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	cfg := loadConfig(*configPath)
	if err := logging.Init(logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel}); err != nil {
		fatalf("failed to init logging: %v", err)
	}
	defer logging.Close()

	events, _, closeEvents := openEvents(cfg)
	defer closeEvents()

	st := openDB(cfg)
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, _ := newAnalysis(cfg, st, events)

	if fs.NArg() == 1 {
		a, err := svc.AnalyzeByID(ctx, fs.Arg(0), *force)
		if errors.Is(err, analysis.ErrAlreadyAnalyzed) {
			fmt.Println("Article already analyzed; use -force to reanalyze")
			return
		}
		if err != nil {
			fatalf("analysis failed: %v", err)
		}
		fmt.Printf("Category:   %s\n", a.Classification.Category)
		fmt.Printf("Keywords:   %d\n", len(a.Metadata.Keywords))
		fmt.Printf("Relevance:  %.0f\n", a.Scores.RelevanceScore)
		fmt.Printf("Trend:      %.0f\n", a.Scores.TrendScore)
		return
	}

	res, err := svc.AnalyzePending(ctx, *limit)
	fmt.Printf("Analyzed:   %d\n", res.Analyzed)
	fmt.Printf("Errors:     %d\n", res.Errors)
	if err != nil {
		fatalf("analysis stopped: %v", err)
	}
}
