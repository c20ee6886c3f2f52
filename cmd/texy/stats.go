package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file")
	rawJSON := fs.Bool("json", false, "Output JSON")
	fs.Parse(os.Args[1:])

	cfg := loadConfig(*configPath)
	st := openDB(cfg)
	defer st.Close()

	stats, err := st.Stats()
	if err != nil {
		fatalf("failed to compute stats: %v", err)
	}

	if *rawJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(stats)
		return
	}

	fmt.Printf("Total articles:        %d\n", stats.TotalArticles)
	fmt.Printf("Actionable:            %d\n", stats.ActionableCount)
	fmt.Printf("Fetched in last 24h:   %d\n", stats.Recent24h)

	fmt.Println("\nAverage scores:")
	fmt.Printf("  %-12s %.1f\n", "confidence", stats.AverageScores.Confidence)
	fmt.Printf("  %-12s %.1f\n", "relevance", stats.AverageScores.Relevance)
	fmt.Printf("  %-12s %.1f\n", "sentiment", stats.AverageScores.Sentiment)
	fmt.Printf("  %-12s %.1f\n", "trend", stats.AverageScores.Trend)

	fmt.Printf("\nCategories (%d):\n", len(stats.Categories))
	for _, c := range stats.Categories {
		fmt.Printf("  %-35s %d\n", c.Name, c.Count)
	}
}
