package analysis

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/texyhq/texy/internal/brain"
	"github.com/texyhq/texy/internal/model"
)

type mockProvider struct {
	mu        sync.Mutex
	available bool
	content   string
	err       error
	requests  []brain.Request
}

func (m *mockProvider) Name() string    { return "mock" }
func (m *mockProvider) Available() bool { return m.available }

func (m *mockProvider) Generate(ctx context.Context, req brain.Request) (brain.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return brain.Response{}, m.err
	}
	return brain.Response{Content: m.content, Model: "mock-1"}, nil
}

func (m *mockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

type mockScraper struct {
	page Page
	err  error
}

func (m mockScraper) Scrape(ctx context.Context, pageURL string) (Page, error) {
	return m.page, m.err
}

const insightJSON = "```json\n" + `{
  "scores": {"confidence_score": 85, "relevance_score": 140, "sentiment_score": -60},
  "content": {"short_description": "LockBit hit hospitals.", "long_description": "A longer account.", "category": "security"},
  "metadata": {"keywords": ["LockBit", "Patient Data Theft"], "trend_keywords": ["LockBit"], "actionable": true}
}` + "\n```"

const scrapedText = "A ransomware gang encrypted hospital systems across the region. " +
	"The ransomware gang demanded payment in bitcoin. Hospitals restored backups."

func ransomwareArticle() model.Article {
	return model.Article{
		ID:      "a1",
		Title:   "Ransomware gang hits hospitals",
		URL:     "https://news.example.com/a1",
		Content: model.Content{ShortDescription: "Hospitals hit."},
	}
}

func TestAnalyze(t *testing.T) {
	p := &mockProvider{available: true, content: insightJSON}
	an := NewAnalyzer(p, Options{Scraper: mockScraper{page: Page{Text: scrapedText, Author: "Jane Doe", ImageURL: "https://img.example.com/1.png"}}})

	got, err := an.Analyze(context.Background(), ransomwareArticle())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if got.Content.FullText != scrapedText || got.Author != "Jane Doe" || got.ImageURL == "" {
		t.Errorf("scraped fields not applied: %+v", got)
	}
	if got.Content.ReadingTime != 1 {
		t.Errorf("reading time = %v, want 1", got.Content.ReadingTime)
	}
	if got.Classification.Category != "Ransomware" {
		t.Errorf("category = %q, want Ransomware", got.Classification.Category)
	}
	if got.Scores.ConfidenceScore != 85 || got.Scores.RelevanceScore != 100 || got.Scores.SentimentScore != -60 {
		t.Errorf("scores = %+v", got.Scores)
	}
	if got.Content.ShortDescription != "LockBit hit hospitals." || got.Content.LongDescription != "A longer account." {
		t.Errorf("content = %+v", got.Content)
	}
	if !got.Classification.Actionable || len(got.Classification.Tags) != 1 || got.Classification.Tags[0] != "Security" {
		t.Errorf("classification = %+v", got.Classification)
	}

	seen := map[string]float64{}
	for _, k := range got.Metadata.Keywords {
		lower := strings.ToLower(k.Keyword)
		if _, dup := seen[lower]; dup {
			t.Errorf("duplicate keyword %q", k.Keyword)
		}
		seen[lower] = k.Score
	}
	if seen["lockbit"] != aiKeywordScore {
		t.Errorf("model keyword missing: %+v", got.Metadata.Keywords)
	}

	if p.calls() != 1 {
		t.Fatalf("provider called %d times", p.calls())
	}
	req := p.requests[0]
	if req.SystemPrompt != systemPrompt || req.Temperature != Temperature || len(req.Messages) != 1 {
		t.Errorf("request = %+v", req)
	}
	if msg := req.Messages[0]; msg.Role != brain.RoleUser || !strings.Contains(msg.Content, "Title: Ransomware gang hits hospitals") ||
		!strings.Contains(msg.Content, "Product Launch") {
		t.Errorf("prompt = %q", msg.Content)
	}
}

func TestAnalyzeKeepsHeuristicsWhenModelFails(t *testing.T) {
	p := &mockProvider{available: true, err: errors.New("upstream 500")}
	an := NewAnalyzer(p, Options{Scraper: mockScraper{err: errors.New("blocked")}})

	a := ransomwareArticle()
	a.Content.FullText = scrapedText
	a.Scores.ConfidenceScore = 42

	got, err := an.Analyze(context.Background(), a)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.Scores.ConfidenceScore != 42 {
		t.Errorf("existing score replaced: %+v", got.Scores)
	}
	if got.Classification.Category != "Ransomware" || len(got.Metadata.Keywords) == 0 {
		t.Errorf("heuristics missing: %+v", got)
	}
	if got.Content.FullText != scrapedText {
		t.Error("failed scrape changed the text")
	}
}

func TestAnalyzeWithoutProvider(t *testing.T) {
	unavailable := &mockProvider{available: false, content: insightJSON}
	for name, p := range map[string]brain.Provider{"nil": nil, "unavailable": unavailable} {
		t.Run(name, func(t *testing.T) {
			got, err := NewAnalyzer(p, Options{}).Analyze(context.Background(), ransomwareArticle())
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			if got.Classification.Category != "Ransomware" || got.Scores.ConfidenceScore != 0 {
				t.Errorf("article = %+v", got)
			}
		})
	}
	if unavailable.calls() != 0 {
		t.Error("unavailable provider was called")
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &mockProvider{available: true, content: insightJSON}
	_, err := NewAnalyzer(p, Options{}).Analyze(ctx, ransomwareArticle())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if p.calls() != 0 {
		t.Error("provider called after cancel")
	}
}

func TestAnalyzeAppliesTrendSignal(t *testing.T) {
	now := time.Now()
	site := newTrendSite(t, now, http.StatusOK)
	trends := site.client(&now)

	p := &mockProvider{available: true, content: insightJSON}
	got, err := NewAnalyzer(p, Options{Trends: trends}).Analyze(context.Background(), ransomwareArticle())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.Scores.TrendScore != 36 || got.Trends.Virality.NewsVolume != model.VolumeNormal {
		t.Errorf("trend fields = %+v %+v", got.Scores, got.Trends)
	}
	if q, _ := site.lastQuery.Load().(string); q != "Ransomware" {
		t.Errorf("trend query = %q, want the title term first", q)
	}
}

func TestGenerateInsightWithoutProvider(t *testing.T) {
	if _, err := NewAnalyzer(nil, Options{}).GenerateInsight(context.Background(), "t", "x", nil); !errors.Is(err, ErrNoProvider) {
		t.Errorf("err = %v, want ErrNoProvider", err)
	}
}

func TestParseInsight(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"plain", `{"scores":{"confidence_score":70}}`, false},
		{"fenced", "```json\n{\"scores\":{\"confidence_score\":70}}\n```", false},
		{"prose", "Here you go:\n{\"scores\":{\"confidence_score\":70}}\nThanks.", false},
		{"garbage", "no json here", true},
		{"broken", `{"scores": {`, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in, err := ParseInsight(tc.content)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && in.Scores.Confidence != 70 {
				t.Errorf("insight = %+v", in)
			}
		})
	}
}

func TestTrendKeywords(t *testing.T) {
	withTrends := &Insight{}
	withTrends.Metadata.TrendKeywords = []string{"LockBit", " "}
	keywordsOnly := &Insight{}
	keywordsOnly.Metadata.Keywords = []string{"One", "Two", "Three", "Four"}

	extracted := []model.Keyword{{Keyword: "Hospitals"}, {Keyword: "Ransomware Gang"}, {Keyword: "Patient Records Stolen"}}

	tests := []struct {
		name     string
		title    string
		insight  *Insight
		keywords []model.Keyword
		category string
		want     []string
	}{
		{"model terms led by title term", "Ransomware gang hits hospitals", withTrends, extracted, "Ransomware",
			[]string{"Ransomware", "LockBit", "Hospitals", "Ransomware Gang"}},
		{"model keywords when no trend terms", "Quarterly report", keywordsOnly, nil, "Security",
			[]string{"One", "Two", "Three"}},
		{"short terms upper-cased", "AI model leaks data", nil, nil, "Security", []string{"AI"}},
		{"whole words only", "Vendor said nothing", nil, nil, "Security", []string{"Cybersecurity"}},
		{"category term", "Quarterly report", nil, nil, "Vulnerability", []string{"Security Vulnerability"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := TrendKeywords(tc.title, tc.insight, tc.keywords, tc.category)
			if strings.Join(got, "|") != strings.Join(tc.want, "|") {
				t.Errorf("TrendKeywords = %q, want %q", got, tc.want)
			}
		})
	}
}
