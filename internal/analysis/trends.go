package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/texyhq/texy/internal/model"
)

// Public endpoints queried for discussion volume.
const (
	HackerNewsURL = "https://hn.algolia.com"
	RedditURL     = "https://www.reddit.com"
)

// Trend keyword limits.
const (
	maxTrendKeywords = 5
	minTrendKeyword  = 2
	maxTrendKeyword  = 50
)

// DefaultTrendTerm is queried when no usable keyword is given.
const DefaultTrendTerm = "cybersecurity"

// trendCacheTTL is how long a computed signal is reused.
const trendCacheTTL = 30 * time.Minute

// SourceSignal is the activity seen on one site in the last day.
type SourceSignal struct {
	Score    int     `json:"score"`
	Posts24h int     `json:"posts_24h"`
	Average  float64 `json:"avg_points"`
}

// TrendSignal is the combined popularity of a set of keywords.
type TrendSignal struct {
	Score          int                  `json:"trend_score"`
	Direction      model.TrendDirection `json:"trend_direction"`
	ChangePercent  float64              `json:"change_percent"`
	Volume         model.NewsVolume     `json:"volume_level"`
	IsTrending     bool                 `json:"is_trending"`
	PrimaryKeyword string               `json:"primary_keyword"`
	Keywords       []string             `json:"keywords_analyzed"`
	Reddit         SourceSignal         `json:"reddit"`
	HackerNews     SourceSignal         `json:"hackernews"`
	GeneratedAt    time.Time            `json:"generated_at"`
	Cached         bool                 `json:"cached"`
}

// Apply copies the signal onto an article's scores and trends.
func (s TrendSignal) Apply(a *model.Article) {
	a.Scores.TrendScore = float64(s.Score)
	a.Trends.TrendDirection = s.Direction
	a.Trends.ChangePercent = s.ChangePercent
	a.Trends.Virality = model.Virality{NewsVolume: s.Volume, IsTrending: s.IsTrending}
}

// TrendOptions configure a TrendClient. Empty URLs use the public endpoints.
type TrendOptions struct {
	HackerNewsURL string
	RedditURL     string
	Client        *http.Client
}

type cachedSignal struct {
	signal TrendSignal
	at     time.Time
}

// TrendClient measures how much a topic is being discussed on Hacker News
// and Reddit. Results are cached per keyword set. Safe for concurrent use.
type TrendClient struct {
	client    *http.Client
	hnURL     string
	redditURL string
	now       func() time.Time

	mu    sync.Mutex
	cache map[string]cachedSignal
}

// NewTrendClient creates a TrendClient.
func NewTrendClient(opts TrendOptions) *TrendClient {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.HackerNewsURL == "" {
		opts.HackerNewsURL = HackerNewsURL
	}
	if opts.RedditURL == "" {
		opts.RedditURL = RedditURL
	}
	return &TrendClient{
		client:    opts.Client,
		hnURL:     strings.TrimRight(opts.HackerNewsURL, "/"),
		redditURL: strings.TrimRight(opts.RedditURL, "/"),
		now:       time.Now,
		cache:     make(map[string]cachedSignal),
	}
}

// Signal scores keywords. Only the first keyword is searched; the rest take
// part in the cache key. A site that fails contributes zero.
func (c *TrendClient) Signal(ctx context.Context, keywords []string) TrendSignal {
	clean := cleanTrendKeywords(keywords)
	primary := DefaultTrendTerm
	if len(clean) > 0 {
		primary = clean[0]
	}

	result := TrendSignal{
		Direction:      model.TrendStable,
		Volume:         model.VolumeLow,
		PrimaryKeyword: primary,
		Keywords:       clean,
		GeneratedAt:    c.now(),
	}
	if len(clean) == 0 {
		return result
	}

	key := cacheKey(clean)
	c.mu.Lock()
	if hit, ok := c.cache[key]; ok && c.now().Sub(hit.at) < trendCacheTTL {
		c.mu.Unlock()
		hit.signal.Cached = true
		return hit.signal
	}
	c.mu.Unlock()

	result.Reddit = c.reddit(ctx, primary)
	result.HackerNews = c.hackerNews(ctx, primary)
	result.Score = compositeScore(result.Reddit.Score, result.HackerNews.Score)
	result.Volume, result.IsTrending = volumeFor(result.Score)

	c.mu.Lock()
	c.cache[key] = cachedSignal{signal: result, at: c.now()}
	c.mu.Unlock()
	return result
}

// compositeScore weighs the search-interest estimate at half and each site
// at a quarter. Without a search-interest feed the estimate is derived from
// the two sites, leaning on Reddit.
func compositeScore(reddit, hn int) int {
	interest := math.Trunc(float64(reddit)*0.6 + float64(hn)*0.4)
	score := interest*0.5 + float64(reddit)*0.25 + float64(hn)*0.25
	return int(math.Min(100, math.Max(0, score)))
}

func volumeFor(score int) (model.NewsVolume, bool) {
	switch {
	case score >= 90:
		return model.VolumeViral, true
	case score >= 75:
		return model.VolumeHigh, true
	case score >= 50:
		return model.VolumeHigh, false
	case score >= 25:
		return model.VolumeNormal, false
	}
	return model.VolumeLow, false
}

func cleanTrendKeywords(keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		if len(out) == maxTrendKeywords {
			break
		}
		kw = strings.TrimSpace(kw)
		if len(kw) >= minTrendKeyword && len(kw) <= maxTrendKeyword {
			out = append(out, kw)
		}
	}
	return out
}

func cacheKey(keywords []string) string {
	if len(keywords) > 3 {
		keywords = keywords[:3]
	}
	return strings.ToLower(strings.Join(keywords, "_"))
}

type hnSearch struct {
	Hits []struct {
		CreatedAt int64 `json:"created_at_i"`
		Points    *int  `json:"points"`
	} `json:"hits"`
}

// hackerNews counts stories from the last day: ten posts averaging fifty
// points saturate the score.
func (c *TrendClient) hackerNews(ctx context.Context, keyword string) SourceSignal {
	u := fmt.Sprintf("%s/api/v1/search_by_date?query=%s&tags=story&hitsPerPage=25", c.hnURL, url.QueryEscape(keyword))
	var body hnSearch
	if err := c.getJSON(ctx, u, &body); err != nil {
		return SourceSignal{}
	}

	cutoff := c.now().Add(-24 * time.Hour).Unix()
	posts, points := 0, 0
	for _, h := range body.Hits {
		if h.CreatedAt <= cutoff {
			continue
		}
		posts++
		if h.Points != nil {
			points += *h.Points
		}
	}
	avg := float64(points) / math.Max(1, float64(posts))
	score := math.Min(100, float64(posts)/10*50+avg/50*50)
	return SourceSignal{Score: int(score), Posts24h: posts, Average: math.Round(avg*10) / 10}
}

type redditSearch struct {
	Data struct {
		Children []struct {
			Data struct {
				Score int `json:"score"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// reddit counts posts from the last day: twenty-five posts saturate the
// score, with a bonus for well-voted posts.
func (c *TrendClient) reddit(ctx context.Context, keyword string) SourceSignal {
	u := fmt.Sprintf("%s/search.json?q=%s&sort=new&limit=25&t=day", c.redditURL, url.QueryEscape(keyword))
	var body redditSearch
	if err := c.getJSON(ctx, u, &body); err != nil {
		return SourceSignal{}
	}

	posts := len(body.Data.Children)
	total := 0
	for _, p := range body.Data.Children {
		total += p.Data.Score
	}
	avg := float64(total) / math.Max(1, float64(posts))
	score := math.Min(100, float64(posts)/25*100+avg/100*20)
	return SourceSignal{Score: int(math.Max(0, score)), Posts24h: posts, Average: math.Round(avg*10) / 10}
}

func (c *TrendClient) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", req.URL.Host, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
