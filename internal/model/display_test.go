package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		score float64
		want  Sentiment
	}{
		{-100, SentimentCritical},
		{-50.5, SentimentCritical},
		{-50, SentimentNeutral},
		{0, SentimentNeutral},
		{20, SentimentNeutral},
		{20.1, SentimentPositive},
		{100, SentimentPositive},
	}

	for _, tt := range tests {
		if got := Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestResolveSource(t *testing.T) {
	withAuthor := Article{Author: "Ravie Lakshmanan", Metadata: Metadata{Sources: []Source{{Domain: "thehackernews.com"}}}}
	if got := ResolveSource(withAuthor); got != "Ravie Lakshmanan" {
		t.Errorf("author should win, got %q", got)
	}

	withDomain := Article{Metadata: Metadata{Sources: []Source{{Domain: "thehackernews.com"}, {Domain: "other.com"}}}}
	if got := ResolveSource(withDomain); got != "thehackernews.com" {
		t.Errorf("first source domain expected, got %q", got)
	}

	if got := ResolveSource(Article{}); got != UnknownSource {
		t.Errorf("expected %q, got %q", UnknownSource, got)
	}
}

func TestToDisplay(t *testing.T) {
	a := Article{
		ID:        "a1",
		Title:     "Jenkins CLI flaw",
		Published: "2024-01-25T10:00:00Z",
		ImageURL:  "https://img.example/1.png",
		Content:   Content{ShortDescription: "Critical RCE"},
		Scores:    Scores{SentimentScore: -80, TrendScore: 72},
		Classification: Classification{
			Category: "Vulnerability",
			Tags:     []string{"CVE-2024-23897"},
		},
	}

	d := ToDisplay(a)

	if d.ID != "a1" || d.Title != "Jenkins CLI flaw" || d.Summary != "Critical RCE" {
		t.Errorf("unexpected identity fields: %+v", d)
	}
	if d.Sentiment != SentimentCritical {
		t.Errorf("sentiment = %q, want critical", d.Sentiment)
	}
	if d.Source != UnknownSource {
		t.Errorf("source = %q, want %q", d.Source, UnknownSource)
	}
	if d.Time != "Jan 25, 2024" {
		t.Errorf("time = %q, want %q", d.Time, "Jan 25, 2024")
	}
	if d.TrendScore != 72 {
		t.Errorf("trendScore = %v, want 72", d.TrendScore)
	}

	// Tags are copied, not aliased.
	d.Tags[0] = "changed"
	if a.Classification.Tags[0] != "CVE-2024-23897" {
		t.Error("ToDisplay must not alias the article's tags")
	}
}

func TestToDisplayDefaults(t *testing.T) {
	d := ToDisplay(Article{ID: "bare"})
	if d.Category != DefaultCategory {
		t.Errorf("category = %q, want %q", d.Category, DefaultCategory)
	}
	if d.Sentiment != SentimentNeutral {
		t.Errorf("sentiment = %q, want neutral", d.Sentiment)
	}
	if d.Tags == nil {
		t.Error("tags should be an empty slice, not nil")
	}
}

func TestCleanTime(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"2024-03-01T08:30:00Z", "Mar 1, 2024"},
		{" 2024-03-01 08:30:00 ", "Mar 1, 2024"},
		{"2024-03-01", "Mar 1, 2024"},
		{"January 5, 2024", "Jan 5, 2024"},
		{"  yesterday ", "yesterday"},
	}
	for _, tt := range tests {
		if got := CleanTime(tt.in); got != tt.want {
			t.Errorf("CleanTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnmarshalAppliesDefaults(t *testing.T) {
	raw := `{
		"id": "x",
		"title": "Partial",
		"scores": {"confidence_score": null, "trend_score": 40},
		"classification": {"category": "", "tags": null},
		"trends": null
	}`

	var a Article
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if a.Scores.ConfidenceScore != 0 || a.Scores.TrendScore != 40 {
		t.Errorf("scores = %+v", a.Scores)
	}
	if a.Classification.Category != DefaultCategory {
		t.Errorf("category = %q, want %q", a.Classification.Category, DefaultCategory)
	}
	if a.Classification.Tags == nil || len(a.Classification.Tags) != 0 {
		t.Errorf("tags = %#v, want empty", a.Classification.Tags)
	}
	if a.Trends.TrendDirection != TrendStable {
		t.Errorf("trend direction = %q, want stable", a.Trends.TrendDirection)
	}
	if a.Trends.Virality.NewsVolume != VolumeNormal {
		t.Errorf("news volume = %q, want normal", a.Trends.Virality.NewsVolume)
	}
}

func TestUnmarshalLooseShapes(t *testing.T) {
	raw := `{
		"id": "y",
		"metadata": {
			"keywords": ["jenkins", {"keyword": "rce", "score": 88}],
			"sources": ["securityweek.com", {"name": "THN", "domain": "thehackernews.com"}]
		}
	}`

	var a Article
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	kws := a.Metadata.Keywords
	if len(kws) != 2 || kws[0] != (Keyword{Keyword: "jenkins"}) || kws[1] != (Keyword{Keyword: "rce", Score: 88}) {
		t.Errorf("keywords = %+v", kws)
	}
	if got := ResolveSource(a); got != "securityweek.com" {
		t.Errorf("source = %q, want securityweek.com", got)
	}
	if a.Metadata.Sources[1].Name != "THN" {
		t.Errorf("second source name = %q", a.Metadata.Sources[1].Name)
	}
}

func TestCategories(t *testing.T) {
	c := Collection{CategoriesAvailable: []string{"Security", "AI"}}
	got := Categories(c)
	want := []string{"All", "Security", "AI"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	derived := Categories(Collection{Articles: []Article{
		{Classification: Classification{Category: "AI"}},
		{Classification: Classification{Category: "Security"}},
		{Classification: Classification{Category: "AI"}},
	}})
	if len(derived) != 3 || derived[1] != "AI" || derived[2] != "Security" {
		t.Errorf("derived categories = %v", derived)
	}
}

func TestReadingMinutes(t *testing.T) {
	if ReadingMinutes("") != 0 || ReadingMinutes("one two") != 1 {
		t.Error("short texts should take 0 or 1 minute")
	}
	if got := ReadingMinutes(strings.Repeat("word ", 1000)); got != 5 {
		t.Errorf("ReadingMinutes(1000 words) = %v, want 5", got)
	}
}
