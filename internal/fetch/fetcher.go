// Package fetch loads article collections from the configured sources.
//
// Three source types are supported: the articles REST API, a static
// collection document (over HTTP or from disk) and plain RSS/Atom feeds.
// Fetch never stores anything; the caller decides what to do with the result.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/texyhq/texy/internal/model"
)

// Source types.
const (
	TypeAPI  = "api"
	TypeJSON = "json"
	TypeRSS  = "rss"
)

// ErrUnknownType is returned for a source whose Type is not supported.
var ErrUnknownType = errors.New("unknown source type")

const userAgent = "Texy/1.0 (+https://github.com/texyhq/texy)"

// Source is a configured article source.
type Source struct {
	Type     string `json:"type" yaml:"type"`
	Name     string `json:"name" yaml:"name"`
	URL      string `json:"url" yaml:"url"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"` // rss only: category given to feed items
}

// Options configure a Fetcher.
type Options struct {
	Timeout time.Duration // per HTTP request, default 30s
	// Interval is the minimum spacing between outbound requests.
	// Zero disables pacing.
	Interval time.Duration
	// MaxPages bounds API pagination, default 50.
	MaxPages int
}

// Fetcher retrieves articles from sources.
type Fetcher struct {
	client   *http.Client
	limiter  *rate.Limiter
	maxPages int
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 50
	}
	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}
	return &Fetcher{
		client:   &http.Client{Timeout: opts.Timeout},
		limiter:  rate.NewLimiter(limit, 1),
		maxPages: opts.MaxPages,
	}
}

// Fetch retrieves the articles of src. Every returned article is normalized.
func (f *Fetcher) Fetch(ctx context.Context, src Source) ([]model.Article, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var (
		articles []model.Article
		err      error
	)
	switch src.Type {
	case TypeAPI:
		articles, err = f.fetchAPI(ctx, src)
	case TypeJSON:
		articles, err = f.fetchCollection(ctx, src)
	case TypeRSS, "":
		articles, err = f.fetchRSS(ctx, src)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, src.Type)
	}
	if err != nil {
		return nil, err
	}

	for i := range articles {
		articles[i].Normalize()
	}
	return articles, nil
}

// get performs a paced GET and returns the open response body on 200.
func (f *Fetcher) get(ctx context.Context, url, accept string) (io.ReadCloser, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}
	return resp.Body, nil
}

// hashString creates a short hash of a string for use as an ID.
func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:8]) // 16 character hex string
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
