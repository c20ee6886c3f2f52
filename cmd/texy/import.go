package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/texyhq/texy/internal/fetch"
)

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file")
	source := fs.String("source", "import", "Source name recorded for the imported articles")
	timeout := fs.Duration("timeout", 60*time.Second, "Download timeout for URL collections")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: texy import [flags] <url|path>")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	location := fs.Arg(0)

	cfg := loadConfig(*configPath)
	st := openDB(cfg)
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c, err := fetch.NewFetcher(fetch.Options{Timeout: *timeout}).Collection(ctx, location)
	if err != nil {
		fatalf("failed to read collection: %v", err)
	}

	added, err := st.SaveArticles(c.Articles, *source)
	if err != nil {
		fatalf("failed to save articles: %v", err)
	}

	fmt.Printf("Read:      %d articles\n", len(c.Articles))
	fmt.Printf("New:       %d\n", added)
	fmt.Printf("Updated:   %d\n", len(c.Articles)-added)
}
