// Package model defines the article shape consumed by Texy and the
// display projection derived from it.
//
// Upstream records are frequently partial: scores, trends and classification
// may be missing or null. Normalize applies the documented defaults once, at
// the decoding boundary, so that filters, selectors and extractors never have
// to re-handle absence.
package model

import (
	"encoding/json"
	"math"
	"strings"
)

// Defaults applied by Normalize.
const (
	DefaultCategory       = "Security"
	DefaultTrendDirection = TrendStable
	DefaultNewsVolume     = VolumeNormal
)

// TrendDirection is the externally computed direction of an article's trend.
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendStable  TrendDirection = "stable"
)

// NewsVolume is the externally computed coverage volume of an article's topic.
type NewsVolume string

const (
	VolumeLow    NewsVolume = "low"
	VolumeNormal NewsVolume = "normal"
	VolumeHigh   NewsVolume = "high"
	VolumeViral  NewsVolume = "viral"
)

// Article is a single ingested news/intelligence item. Immutable from the
// point of view of the pipeline: every derived computation returns new values.
type Article struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	URL            string         `json:"url"`
	Published      string         `json:"published"`
	Author         string         `json:"author"`
	ImageURL       string         `json:"image_url,omitempty"`
	Content        Content        `json:"content"`
	Scores         Scores         `json:"scores"`
	Classification Classification `json:"classification"`
	Metadata       Metadata       `json:"metadata"`
	Trends         Trends         `json:"trends"`
}

// Content holds the textual bodies of an article.
type Content struct {
	ShortDescription string  `json:"short_description"`
	LongDescription  string  `json:"long_description"`
	FullText         string  `json:"full_text"`
	ReadingTime      float64 `json:"reading_time"`
}

// Scores are nominally in [0,100]; SentimentScore is in [-100,100].
// A null or missing score decodes as 0.
type Scores struct {
	ConfidenceScore float64 `json:"confidence_score"`
	RelevanceScore  float64 `json:"relevance_score"`
	SentimentScore  float64 `json:"sentiment_score"`
	TrendScore      float64 `json:"trend_score"`
}

// Classification is the category/tag assignment of an article.
type Classification struct {
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	Actionable bool     `json:"actionable"`
}

// Metadata carries weighted keywords and the sources an article cites.
type Metadata struct {
	Keywords []Keyword `json:"keywords"`
	Sources  []Source  `json:"sources"`
}

// Keyword is a weighted keyword attached to an article.
type Keyword struct {
	Keyword string  `json:"keyword"`
	Score   float64 `json:"score"`
}

// UnmarshalJSON accepts both {"keyword": ..., "score": ...} and a bare
// string. The REST listing returns bare strings; those carry score 0.
func (k *Keyword) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*k = Keyword{Keyword: s}
		return nil
	}
	type plain Keyword
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*k = Keyword(p)
	return nil
}

// Source is a publication an article is attributed to.
type Source struct {
	Name    string `json:"name,omitempty"`
	URL     string `json:"url,omitempty"`
	Domain  string `json:"domain,omitempty"`
	Favicon string `json:"favicon,omitempty"`
}

// UnmarshalJSON accepts a source object or a bare domain string.
func (s *Source) UnmarshalJSON(data []byte) error {
	var domain string
	if err := json.Unmarshal(data, &domain); err == nil {
		*s = Source{Domain: domain}
		return nil
	}
	type plain Source
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Source(p)
	return nil
}

// Trends are popularity metrics computed upstream.
type Trends struct {
	TrendDirection TrendDirection `json:"trend_direction"`
	ChangePercent  float64        `json:"change_percent"`
	Virality       Virality       `json:"virality"`
}

// Virality describes how widely an article's topic is being covered.
type Virality struct {
	NewsVolume NewsVolume `json:"news_volume"`
	IsTrending bool       `json:"is_trending"`
}

// UnmarshalJSON decodes an article and applies Normalize.
func (a *Article) UnmarshalJSON(data []byte) error {
	type plain Article
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Article(p)
	a.Normalize()
	return nil
}

// WordsPerMinute is the reading speed ReadingMinutes assumes.
const WordsPerMinute = 200

// ReadingMinutes estimates minutes to read text, at least 1 for non-empty text.
func ReadingMinutes(text string) float64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return math.Max(1, math.Round(float64(words)/WordsPerMinute))
}

// Normalize fills in the defaults for absent fields. Idempotent.
func (a *Article) Normalize() {
	if strings.TrimSpace(a.Classification.Category) == "" {
		a.Classification.Category = DefaultCategory
	}
	if a.Classification.Tags == nil {
		a.Classification.Tags = []string{}
	}
	if a.Metadata.Keywords == nil {
		a.Metadata.Keywords = []Keyword{}
	}
	if a.Trends.TrendDirection == "" {
		a.Trends.TrendDirection = DefaultTrendDirection
	}
	if a.Trends.Virality.NewsVolume == "" {
		a.Trends.Virality.NewsVolume = DefaultNewsVolume
	}
}
