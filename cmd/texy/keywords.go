package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/texyhq/texy/internal/keywords"
)

func runKeywords() {
	fs := flag.NewFlagSet("keywords", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file")
	limit := fs.Int("n", keywords.SidebarLimit, "Number of keywords to show")
	fs.Parse(os.Args[1:])

	cfg := loadConfig(*configPath)
	st := openDB(cfg)
	defer st.Close()

	articles, err := st.AllArticles()
	if err != nil {
		fatalf("failed to load articles: %v", err)
	}

	kws := keywords.Extract(articles, *limit)
	if len(kws) == 0 {
		fmt.Println("No trending keywords.")
		return
	}
	for i, kw := range kws {
		fmt.Printf("%2d. %-30s %-30s %d\n", i+1, kw.Keyword, kw.Tag, kw.Count)
	}
}
