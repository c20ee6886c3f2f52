package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/texyhq/texy/internal/chat"
	"github.com/texyhq/texy/internal/coord"
	"github.com/texyhq/texy/internal/fetch"
	"github.com/texyhq/texy/internal/highlight"
	"github.com/texyhq/texy/internal/logging"
	"github.com/texyhq/texy/internal/otel"
	"github.com/texyhq/texy/internal/store"
	"github.com/texyhq/texy/internal/ui"
)

// chatTimeout bounds one relay call from the TUI.
const chatTimeout = 60 * time.Second

func runTUI() {
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file (default ~/.texy/config.yaml or config.json)")
	collection := fs.String("collection", "", "Read articles from this articles.json (URL or path) instead of the store")
	refresh := fs.Bool("refresh", false, "Refresh sources in the background while the TUI runs")
	fs.Parse(os.Args[1:])

	cfg := loadConfig(*configPath)
	if *collection == "" {
		*collection = cfg.Collection
	}

	// The terminal belongs to the TUI; logs always go to a file.
	logDir := cfg.LogDir
	if logDir == "" {
		logDir = filepath.Join(cfg.DataDir, "logs")
	}
	if err := logging.Init(logging.Options{Dir: logDir, Level: cfg.LogLevel}); err != nil {
		fatalf("failed to init logging: %v", err)
	}
	defer logging.Close()

	events, ring, closeEvents := openEvents(cfg)
	defer closeEvents()
	events.Info(otel.KindStartup, "tui", "texy tui starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := fetch.NewFetcher(fetch.Options{Timeout: 30 * time.Second, Interval: 250 * time.Millisecond})
	replier := newReplier(cfg, events)

	deps := ui.Deps{Ring: ring}
	if replier != nil {
		deps.SendChat = func(req chat.Request) tea.Cmd {
			return func() tea.Msg {
				callCtx, cancel := context.WithTimeout(ctx, chatTimeout)
				defer cancel()
				reply, err := replier.Reply(callCtx, req)
				return ui.ChatReplied{Reply: reply, Err: err}
			}
		}
	}

	// Collection mode reads a document once and keeps highlights in memory.
	if *collection != "" {
		deps.LoadArticles = func() tea.Cmd {
			return func() tea.Msg {
				c, err := fetcher.Collection(ctx, *collection)
				return ui.ArticlesLoaded{Articles: c.Articles, Err: err}
			}
		}
		runProgram(ui.NewApp(deps))
		return
	}

	st := openDB(cfg)
	defer st.Close()
	storeDeps(&deps, st, events)

	program := tea.NewProgram(ui.NewApp(deps), tea.WithAltScreen())

	var coordinator *coord.Coordinator
	if *refresh && len(cfg.Sources) > 0 {
		coordinator = coord.NewCoordinator(st, fetcher, cfg.Sources, coord.Options{
			Schedule: cfg.Schedule,
			Events:   events,
			OnResult: func(r coord.Result) {
				program.Send(ui.RefreshDone{NewArticles: r.NewArticles, Err: r.Err})
			},
		})
		if err := coordinator.Start(ctx); err != nil {
			fatalf("%v", err)
		}
	}

	if _, err := program.Run(); err != nil {
		logging.Error("tui exited with error", "error", err)
	}

	cancel()
	if coordinator != nil {
		coordinator.Wait()
	}
	events.Info(otel.KindShutdown, "tui", "texy tui stopped")
}

// storeDeps wires the App commands to st.
func storeDeps(deps *ui.Deps, st *store.Store, events *otel.Logger) {
	deps.LoadArticles = func() tea.Cmd {
		return func() tea.Msg {
			articles, err := st.AllArticles()
			return ui.ArticlesLoaded{Articles: articles, Err: err}
		}
	}
	deps.LoadHighlights = func(articleID string) tea.Cmd {
		return func() tea.Msg {
			hs, err := st.Highlights(articleID)
			return ui.HighlightsLoaded{ArticleID: articleID, Highlights: hs, Err: err}
		}
	}
	deps.AddHighlight = func(articleID, text, note string) tea.Cmd {
		return func() tea.Msg {
			h, err := highlight.NewSet(articleID).Add(text, note)
			if err != nil {
				return ui.HighlightSaved{Err: err}
			}
			if err := st.SaveHighlight(h); err != nil {
				return ui.HighlightSaved{Err: err}
			}
			events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindHighlightAdd, Comp: "tui", Source: articleID})
			return ui.HighlightSaved{Highlight: h}
		}
	}
	deps.DeleteHighlight = func(id string) tea.Cmd {
		return func() tea.Msg {
			err := st.DeleteHighlight(id)
			if err == nil {
				events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindHighlightDelete, Comp: "tui", Msg: id})
			}
			return ui.HighlightDeleted{ID: id, Err: err}
		}
	}
}

func runProgram(app ui.App) {
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		logging.Error("tui exited with error", "error", err)
	}
}
