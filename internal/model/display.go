package model

import (
	"strings"
	"time"
)

// Sentiment is the derived sentiment bucket of an article.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentCritical Sentiment = "critical"
)

// Sentiment thresholds. The neutral band is deliberately wider on the
// positive side; both comparisons are strict.
const (
	criticalBelow = -50
	positiveAbove = 20
)

// UnknownSource is used when neither an author nor a source domain is known.
const UnknownSource = "Unknown"

// DisplayArticle is the UI-ready projection of an Article. It is rebuilt on
// every pipeline pass and never persisted.
type DisplayArticle struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	Source     string    `json:"source"`
	Time       string    `json:"time"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	Sentiment  Sentiment `json:"sentiment"`
	Image      string    `json:"image,omitempty"`
	Tags       []string  `json:"tags"`
	TrendScore float64   `json:"trendScore"`
}

// Classify buckets a sentiment score: < -50 is critical, > 20 is positive,
// everything else (including -50 and 20) is neutral.
func Classify(score float64) Sentiment {
	switch {
	case score < criticalBelow:
		return SentimentCritical
	case score > positiveAbove:
		return SentimentPositive
	default:
		return SentimentNeutral
	}
}

// ResolveSource prefers the author, then the first source's domain.
func ResolveSource(a Article) string {
	if a.Author != "" {
		return a.Author
	}
	if len(a.Metadata.Sources) > 0 && a.Metadata.Sources[0].Domain != "" {
		return a.Metadata.Sources[0].Domain
	}
	return UnknownSource
}

// ToDisplay projects an article for rendering. Pure.
func ToDisplay(a Article) DisplayArticle {
	category := a.Classification.Category
	if category == "" {
		category = DefaultCategory
	}
	tags := make([]string, len(a.Classification.Tags))
	copy(tags, a.Classification.Tags)

	return DisplayArticle{
		ID:         a.ID,
		Category:   category,
		Source:     ResolveSource(a),
		Time:       CleanTime(a.Published),
		Title:      a.Title,
		Summary:    a.Content.ShortDescription,
		Sentiment:  Classify(a.Scores.SentimentScore),
		Image:      a.ImageURL,
		Tags:       tags,
		TrendScore: a.Scores.TrendScore,
	}
}

// ToDisplayAll projects every article, preserving order.
func ToDisplayAll(articles []Article) []DisplayArticle {
	result := make([]DisplayArticle, len(articles))
	for i, a := range articles {
		result[i] = ToDisplay(a)
	}
	return result
}

// publishedLayouts are the timestamp shapes seen from the scraper and the API.
var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"January 2, 2006",
	"Jan 02, 2006",
	"2006-01-02",
}

// CleanTime trims a published string and, when it parses as a known layout,
// reformats it as "Jan 2, 2006". Unparseable values are returned trimmed.
func CleanTime(published string) string {
	s := strings.TrimSpace(published)
	if s == "" {
		return ""
	}
	if t, ok := ParsePublished(s); ok {
		return t.Format("Jan 2, 2006")
	}
	return s
}

// ParsePublished tries each known layout in turn.
func ParsePublished(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
