// Command texy runs the Texy news dashboard.
//
// Usage:
//
//	texy                      Show help
//	texy serve                HTTP API with background refresh
//	texy tui                  Terminal dashboard
//	texy import <url|path>    Load an articles.json collection into the store
//	texy stats                Collection statistics
//	texy keywords             Trending keywords
//	texy discover <selector>  Run a discovery selector
//	texy analyze [id]         Analyze pending articles, or one article
//	texy newsletter           Send the daily digest
//	texy events               JSONL event log viewer
package main

import (
	"fmt"
	"os"
)

const usage = `texy - news intelligence dashboard

Usage:
  texy <command> [flags]

Commands:
  serve       Serve the HTTP API and refresh sources in the background
  tui         Terminal dashboard
  import      Load an articles.json collection (URL or path) into the store
  stats       Collection statistics
  keywords    Trending keywords
  discover    Run a discovery selector (trending, hidden-gems, rising-stars, curated)
  analyze     Analyze pending articles, or one article by id
  newsletter  Send the daily digest to active subscribers
  events      JSONL event log viewer

Environment:
  OPENAI_API_KEY        OpenAI key for chat and analysis
  ANTHROPIC_API_KEY     Claude key
  GOOGLE_API_KEY        Gemini key
  XAI_API_KEY           Grok key
  RESEND_API_KEY        Resend key for the newsletter
  FROM_EMAIL            Newsletter sender address
  NEWSLETTER_ADMIN_KEY  Key guarding /subscribers and /send-newsletter
  TEXY_ADDR             Listen address (default :8000)
  TEXY_DATA_DIR         Data directory (default ~/.texy)

Run 'texy <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "serve":
		runServe()
	case "tui":
		runTUI()
	case "import":
		runImport()
	case "stats":
		runStats()
	case "keywords":
		runKeywords()
	case "discover":
		runDiscover()
	case "analyze":
		runAnalyze()
	case "newsletter":
		runNewsletter()
	case "events":
		runEvents()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
