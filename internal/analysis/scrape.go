package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const userAgent = "Texy/1.0 (+https://github.com/texyhq/texy)"

// maxPageBytes bounds how much of an article page is read.
const maxPageBytes = 5 << 20

var whitespace = regexp.MustCompile(`\s+`)

// datelike matches bylines that are really dates, such as "Nov 28, 2025".
var datelike = regexp.MustCompile(`^[A-Za-z]{3}\s+\d{1,2},\s+\d{4}$`)

// Page is what could be read from an article's web page.
type Page struct {
	Text     string
	Author   string
	ImageURL string
}

// Scraper reads article pages.
type Scraper interface {
	Scrape(ctx context.Context, pageURL string) (Page, error)
}

type httpScraper struct {
	client *http.Client
}

// NewScraper returns a Scraper with the given per-request timeout.
func NewScraper(timeout time.Duration) Scraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpScraper{client: &http.Client{Timeout: timeout}}
}

// Scrape fetches pageURL and extracts its readable text, author and lead
// image.
func (s *httpScraper) Scrape(ctx context.Context, pageURL string) (Page, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return Page{}, fmt.Errorf("invalid article url %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating scrape request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("scraping %s returned status %d", pageURL, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Page{}, fmt.Errorf("reading %s: %w", pageURL, err)
	}

	var page Page
	if article, err := readability.FromReader(bytes.NewReader(raw), parsed); err == nil {
		page.Text = strings.TrimSpace(whitespace.ReplaceAllString(article.TextContent, " "))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		if page.Text == "" {
			return Page{}, fmt.Errorf("extracting content from %s: %w", pageURL, err)
		}
		return page, nil
	}
	page.Author = pageAuthor(doc)
	page.ImageURL = pageImage(doc, parsed)
	if page.Text == "" {
		page.Text, _ = doc.Find(`meta[name="description"]`).Attr("content")
	}
	return page, nil
}

// pageAuthor looks for a byline in the usual places: span.author (skipping
// dates), rel=author links, the author meta tag and JSON-LD.
func pageAuthor(doc *goquery.Document) string {
	var author string
	doc.Find("span.author").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if len(text) > 3 && !datelike.MatchString(text) && !hasMonth(text) {
			author = text
			return false
		}
		return true
	})
	if author != "" {
		return author
	}

	if a := strings.TrimSpace(doc.Find(`a[rel="author"]`).First().Text()); a != "" {
		return a
	}
	if a, ok := doc.Find(`meta[name="author"]`).Attr("content"); ok && strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var ld struct {
			Author json.RawMessage `json:"author"`
		}
		if json.Unmarshal([]byte(s.Text()), &ld) != nil {
			return true
		}
		var named struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(ld.Author, &named) == nil && strings.TrimSpace(named.Name) != "" {
			author = strings.TrimSpace(named.Name)
			return false
		}
		return true
	})
	return author
}

var months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func hasMonth(s string) bool {
	for _, m := range months {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// pageImage prefers og:image, then twitter:image, then the first body image.
func pageImage(doc *goquery.Document, base *url.URL) string {
	for _, sel := range []string{`meta[property="og:image"]`, `meta[name="twitter:image"]`} {
		if src, ok := doc.Find(sel).Attr("content"); ok && src != "" {
			return resolve(base, src)
		}
	}

	var img string
	doc.Find("article img, #articlebody img, .post-body img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := s.AttrOr("data-src", s.AttrOr("src", ""))
		lower := strings.ToLower(src)
		if src == "" || strings.HasSuffix(lower, ".svg") || strings.HasSuffix(lower, ".ico") {
			return true
		}
		img = resolve(base, src)
		return false
	})
	return img
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
