package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/texyhq/texy/internal/model"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://www.example.com/</link>
    <item>
      <title>Article 1</title>
      <link>https://www.example.com/article1</link>
      <guid>guid-1</guid>
      <description><![CDATA[<p>First <b>article</b></p><p>about CVE-2024-3094</p>]]></description>
      <category>Supply Chain</category>
      <category>Linux</category>
      <author>editor@example.com (Jane Doe)</author>
      <pubDate>Mon, 01 Jan 2024 12:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Article 2</title>
      <link>https://www.example.com/article2</link>
      <description>Second article</description>
      <enclosure url="https://img.example.com/2.png" type="image/png" length="1"/>
      <pubDate>Mon, 01 Jan 2024 11:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func serve(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRSS(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "Texy/") {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSS))
	})

	f := NewFetcher(Options{})
	articles, err := f.Fetch(context.Background(), Source{Type: TypeRSS, Name: "Test Feed", URL: srv.URL, Category: "Security"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	a := articles[0]
	if a.Title != "Article 1" || a.URL != "https://www.example.com/article1" {
		t.Errorf("unexpected identity: %+v", a)
	}
	if a.Content.ShortDescription != "First article about CVE-2024-3094" {
		t.Errorf("description = %q", a.Content.ShortDescription)
	}
	if a.Published != "2024-01-01T12:00:00Z" {
		t.Errorf("published = %q", a.Published)
	}
	if a.Classification.Category != "Security" {
		t.Errorf("category = %q", a.Classification.Category)
	}
	if len(a.Classification.Tags) != 2 || a.Classification.Tags[0] != "Supply Chain" {
		t.Errorf("tags = %v", a.Classification.Tags)
	}
	if got := model.ResolveSource(a); got != "Jane Doe" {
		t.Errorf("source = %q", got)
	}
	if a.Metadata.Sources[0].Domain != "example.com" {
		t.Errorf("domain = %q", a.Metadata.Sources[0].Domain)
	}
	if a.Trends.TrendDirection != model.TrendStable {
		t.Error("feed articles should be normalized")
	}
	if articles[1].ImageURL != "https://img.example.com/2.png" {
		t.Errorf("image = %q", articles[1].ImageURL)
	}
}

func TestFetchRSSDeterministicIDs(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testRSS))
	})
	f := NewFetcher(Options{})
	src := Source{Type: TypeRSS, Name: "T", URL: srv.URL}

	first, _ := f.Fetch(context.Background(), src)
	second, _ := f.Fetch(context.Background(), src)
	if first[0].ID != second[0].ID || first[0].ID == first[1].ID {
		t.Errorf("ids not deterministic/unique: %q %q %q", first[0].ID, second[0].ID, first[1].ID)
	}
}

func TestFetchRSSDetectsCategory(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testRSS))
	})
	articles, err := NewFetcher(Options{}).Fetch(context.Background(), Source{Type: TypeRSS, Name: "T", URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got := articles[0].Classification.Category; got != "Vulnerability" {
		t.Errorf("category = %q, want Vulnerability", got)
	}
	if got := articles[1].Classification.Category; got != model.DefaultCategory {
		t.Errorf("category = %q, want %q", got, model.DefaultCategory)
	}
}

func TestFetchErrors(t *testing.T) {
	notFound := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	invalid := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not valid xml"))
	})

	f := NewFetcher(Options{Timeout: 2 * time.Second})
	tests := []struct {
		name string
		src  Source
	}{
		{"404", Source{Type: TypeRSS, URL: notFound.URL}},
		{"invalid feed", Source{Type: TypeRSS, URL: invalid.URL}},
		{"invalid json", Source{Type: TypeJSON, URL: invalid.URL}},
		{"missing file", Source{Type: TypeJSON, URL: filepath.Join(t.TempDir(), "missing.json")}},
		{"api 404", Source{Type: TypeAPI, URL: notFound.URL}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.Fetch(context.Background(), tt.src); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := f.Fetch(context.Background(), Source{Type: "ftp"}); !errors.Is(err, ErrUnknownType) {
		t.Errorf("err = %v, want ErrUnknownType", err)
	}
}

func TestFetchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewFetcher(Options{}).Fetch(ctx, Source{Type: TypeRSS, URL: "http://example.invalid"}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestFetchAPIPaginates(t *testing.T) {
	const total = 230
	var calls atomic.Int32
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/articles" {
			t.Errorf("path = %s", r.URL.Path)
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		var items []string
		for i := offset; i < offset+limit && i < total; i++ {
			items = append(items, fmt.Sprintf(`{"id":"a%d","title":"t%d","scores":{"trend_score":%d}}`, i, i, i%100))
		}
		fmt.Fprintf(w, `{"articles":[%s],"pagination":{"total":%d,"limit":%d,"offset":%d,"has_more":%t}}`,
			strings.Join(items, ","), total, limit, offset, offset+len(items) < total)
	})

	articles, err := NewFetcher(Options{}).Fetch(context.Background(), Source{Type: TypeAPI, URL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(articles) != total {
		t.Errorf("got %d articles, want %d", len(articles), total)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if articles[229].ID != "a229" || articles[0].Classification.Category != model.DefaultCategory {
		t.Errorf("unexpected article: %+v", articles[229])
	}
}

func TestFetchCollectionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.json")
	doc := `{"generated_at":"2024-01-01","categories_available":["Security","AI"],
		"articles":[{"id":"1","title":"x","classification":{"category":"AI","tags":["LLM"]}},{"id":"2","title":"y"}]}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	f := NewFetcher(Options{})
	c, err := f.Collection(context.Background(), "file://"+path)
	if err != nil {
		t.Fatalf("Collection: %v", err)
	}
	if len(c.Articles) != 2 || len(c.CategoriesAvailable) != 2 {
		t.Errorf("collection = %+v", c)
	}
	if c.Articles[1].Classification.Category != model.DefaultCategory {
		t.Errorf("second article not normalized: %+v", c.Articles[1])
	}

	articles, err := f.Fetch(context.Background(), Source{Type: TypeJSON, URL: path})
	if err != nil || len(articles) != 2 {
		t.Errorf("Fetch json = %d, %v", len(articles), err)
	}
}

func TestDecodeCollectionArray(t *testing.T) {
	c, err := DecodeCollection(strings.NewReader(` [{"id":"1"},{"id":"2"}]`))
	if err != nil {
		t.Fatalf("DecodeCollection: %v", err)
	}
	if len(c.Articles) != 2 {
		t.Errorf("articles = %d", len(c.Articles))
	}
}

func TestFetcherPacesRequests(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	f := NewFetcher(Options{Interval: 40 * time.Millisecond})

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background(), Source{Type: TypeJSON, URL: srv.URL}); err != nil {
			t.Fatalf("Fetch: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 70*time.Millisecond {
		t.Errorf("requests not paced: %v", elapsed)
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"  plain   text ", "plain text"},
		{"<p>Hello</p><p>world</p>", "Hello world"},
		{"a &amp; b", "a & b"},
		{"<div>x<script>alert(1)</script>y</div>", "xy"},
		{"line<br>break", "line break"},
	}
	for _, tt := range tests {
		if got := PlainText(tt.in); got != tt.want {
			t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFirstImage(t *testing.T) {
	if got := FirstImage(`<p><img src="a.png"><img src="b.png"></p>`); got != "a.png" {
		t.Errorf("FirstImage = %q", got)
	}
	if got := FirstImage("no images"); got != "" {
		t.Errorf("FirstImage = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hi", 2, "hi"},
		{"hi", 1, "h"},
		{"", 5, ""},
	}

	for _, tc := range tests {
		if result := truncate(tc.input, tc.maxLen); result != tc.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.input, tc.maxLen, result, tc.expected)
		}
	}
}

func TestDefaultSources(t *testing.T) {
	for _, src := range DefaultSources() {
		if src.Name == "" || src.URL == "" || src.Type != TypeRSS {
			t.Errorf("invalid default source: %+v", src)
		}
	}
}
