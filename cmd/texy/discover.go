package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/texyhq/texy/internal/model"
	"github.com/texyhq/texy/internal/ranking"
)

func runDiscover() {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file")
	limit := fs.Int("n", ranking.DefaultLimit, "Maximum number of articles")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: texy discover [flags] <trending|hidden-gems|rising-stars|curated>")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	selector, err := ranking.ByName(fs.Arg(0))
	if err != nil {
		fatalf("%v", err)
	}

	cfg := loadConfig(*configPath)
	st := openDB(cfg)
	defer st.Close()

	articles, err := st.AllArticles()
	if err != nil {
		fatalf("failed to load articles: %v", err)
	}

	selected := selector.Select(articles, *limit)
	fmt.Printf("%s (%d)\n\n", selector.Name(), len(selected))
	for i, d := range model.ToDisplayAll(selected) {
		fmt.Printf("%2d. %-70s %-20s %s\n", i+1, truncate(d.Title, 70), truncate(d.Source, 20), d.Time)
	}
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
