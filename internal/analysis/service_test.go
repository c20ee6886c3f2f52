package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/texyhq/texy/internal/model"
	"github.com/texyhq/texy/internal/store"
)

func openStore(t *testing.T, articles ...model.Article) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if len(articles) > 0 {
		if _, err := st.SaveArticles(articles, "feed"); err != nil {
			t.Fatalf("SaveArticles: %v", err)
		}
	}
	return st
}

func pendingArticles(n int) []model.Article {
	out := make([]model.Article, n)
	for i := range out {
		out[i] = model.Article{
			ID:      fmt.Sprintf("p%d", i),
			Title:   "Phishing wave hits banks",
			Content: model.Content{ShortDescription: "A phishing kit spreads."},
		}
	}
	return out
}

func TestAnalyzeByID(t *testing.T) {
	st := openStore(t, ransomwareArticle())
	p := &mockProvider{available: true, content: insightJSON}
	svc := NewService(st, NewAnalyzer(p, Options{}))

	got, err := svc.AnalyzeByID(context.Background(), "a1", false)
	if err != nil {
		t.Fatalf("AnalyzeByID: %v", err)
	}
	if got.Scores.ConfidenceScore != 85 {
		t.Errorf("scores = %+v", got.Scores)
	}

	stored, _ := st.GetArticle("a1")
	if stored.Scores.ConfidenceScore != 85 || stored.Classification.Category != "Ransomware" {
		t.Errorf("stored = %+v", stored)
	}
	if done, _ := st.ArticleAnalyzed("a1"); !done {
		t.Error("article not marked analyzed")
	}

	if _, err := svc.AnalyzeByID(context.Background(), "a1", false); !errors.Is(err, ErrAlreadyAnalyzed) {
		t.Errorf("second run = %v, want ErrAlreadyAnalyzed", err)
	}
	if p.calls() != 1 {
		t.Errorf("provider called %d times, want 1", p.calls())
	}

	if _, err := svc.AnalyzeByID(context.Background(), "a1", true); err != nil {
		t.Errorf("forced run = %v", err)
	}
	if p.calls() != 2 {
		t.Errorf("provider called %d times, want 2", p.calls())
	}
}

func TestAnalyzeByIDNotFound(t *testing.T) {
	svc := NewService(openStore(t), NewAnalyzer(nil, Options{}))
	if _, err := svc.AnalyzeByID(context.Background(), "missing", false); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want store.ErrNotFound", err)
	}
}

func TestAnalyzePending(t *testing.T) {
	st := openStore(t, pendingArticles(7)...)
	svc := NewService(st, NewAnalyzer(nil, Options{}))

	res, err := svc.AnalyzePending(context.Background(), 3)
	if err != nil {
		t.Fatalf("AnalyzePending: %v", err)
	}
	if res.Analyzed != 3 || res.Errors != 0 {
		t.Errorf("first batch = %+v", res)
	}

	res, err = svc.AnalyzePending(context.Background(), 0)
	if err != nil || res.Analyzed != 4 {
		t.Errorf("second batch = %+v, %v", res, err)
	}

	if pending, _ := st.PendingAnalysis(10); len(pending) != 0 {
		t.Errorf("still pending: %d", len(pending))
	}
	a, _ := st.GetArticle("p0")
	if a.Classification.Category != "Phishing" {
		t.Errorf("category = %q", a.Classification.Category)
	}
}

type failingSaves struct {
	*store.Store
	bad string
}

func (f failingSaves) SaveAnalysis(a model.Article) error {
	if a.ID == f.bad {
		return errors.New("disk full")
	}
	return f.Store.SaveAnalysis(a)
}

func TestAnalyzePendingCountsErrors(t *testing.T) {
	st := openStore(t, pendingArticles(4)...)
	svc := NewService(failingSaves{Store: st, bad: "p2"}, NewAnalyzer(nil, Options{}))

	res, err := svc.AnalyzePending(context.Background(), 10)
	if err != nil {
		t.Fatalf("AnalyzePending: %v", err)
	}
	if res.Analyzed != 3 || res.Errors != 1 {
		t.Errorf("result = %+v, want 3 analyzed and 1 error", res)
	}
	if pending, _ := st.PendingAnalysis(10); len(pending) != 1 || pending[0].ID != "p2" {
		t.Errorf("pending = %+v", pending)
	}
}

func TestAnalyzePendingCancelled(t *testing.T) {
	st := openStore(t, pendingArticles(3)...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewService(st, NewAnalyzer(nil, Options{})).AnalyzePending(ctx, 10)
	if !errors.Is(err, context.Canceled) || res.Analyzed != 0 {
		t.Errorf("result = %+v, %v", res, err)
	}
}
