package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/texyhq/texy/internal/logging"
)

func runNewsletter() {
	fs := flag.NewFlagSet("newsletter", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file")
	daysBack := fs.Int("days", 1, "Include articles analyzed in the last N days")
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

	report, err := newNewsletter(cfg, st, events).SendDaily(ctx, *daysBack)
	if err != nil {
		fatalf("newsletter failed: %v", err)
	}

	fmt.Println(report.Message)
	fmt.Printf("Subscribers: %d\n", report.TotalSubscribers)
	fmt.Printf("Articles:    %d\n", report.ArticlesAvailable)
	fmt.Printf("Sent:        %d\n", report.Sent)
	fmt.Printf("Skipped:     %d\n", report.Skipped)
	fmt.Printf("Failed:      %d\n", report.Failed)
}
