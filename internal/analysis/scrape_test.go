package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const paragraph = `Attackers are exploiting a critical flaw in Jenkins controllers to read arbitrary files from the server. ` +
	`Administrators should upgrade to the fixed release and restrict access to the command line interface until they do. `

func articlePage() string {
	return `<!DOCTYPE html>
<html><head>
<title>Jenkins flaw under attack</title>
<meta property="og:image" content="/img/lead.png">
<meta name="description" content="Jenkins flaw under attack.">
</head>
<body>
<nav><a href="/">Home</a> <a href="/news">News</a></nav>
<article>
<h1>Jenkins flaw under attack</h1>
<span class="author">Nov 28, 2025</span>
<span class="author">Jane Doe</span>
<p>` + strings.Repeat(paragraph, 4) + `</p>
<p>` + strings.Repeat(paragraph, 4) + `</p>
<p>` + strings.Repeat(paragraph, 4) + `</p>
</article>
<footer>Copyright</footer>
</body></html>`
}

func TestScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "Texy/") {
			http.Error(w, "bad agent", http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/story":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(articlePage()))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	page, err := NewScraper(5*time.Second).Scrape(context.Background(), srv.URL+"/story")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if !strings.Contains(page.Text, "critical flaw in Jenkins controllers") {
		t.Errorf("text = %q", page.Text)
	}
	if strings.Contains(page.Text, "\n") || strings.Contains(page.Text, "  ") {
		t.Error("whitespace not collapsed")
	}
	if page.Author != "Jane Doe" {
		t.Errorf("author = %q, want Jane Doe", page.Author)
	}
	if page.ImageURL != srv.URL+"/img/lead.png" {
		t.Errorf("image = %q", page.ImageURL)
	}
}

func TestScrapeErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	s := NewScraper(0)
	for _, u := range []string{srv.URL + "/gone", "not a url", "/relative/path"} {
		if _, err := s.Scrape(context.Background(), u); err == nil {
			t.Errorf("Scrape(%q) succeeded", u)
		}
	}
}

func TestPageAuthor(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"rel author", `<a rel="author" href="/u/sam">Sam Lee</a>`, "Sam Lee"},
		{"meta", `<meta name="author" content=" Kim Park ">`, "Kim Park"},
		{"json-ld", `<script type="application/ld+json">{"author":{"name":"Ravi Rao"}}</script>`, "Ravi Rao"},
		{"dates skipped", `<span class="author">Dec 1, 2025</span><span class="author">Updated Dec 2</span>`, ""},
		{"none", `<p>No byline.</p>`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><head></head><body>" + tc.html + "</body></html>"))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := pageAuthor(doc); got != tc.want {
				t.Errorf("author = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPageImage(t *testing.T) {
	base, _ := url.Parse("https://news.example.com/2025/story")
	tests := []struct {
		name string
		html string
		want string
	}{
		{"twitter", `<meta name="twitter:image" content="https://cdn.example.com/t.jpg">`, "https://cdn.example.com/t.jpg"},
		{"lazy body image", `<article><img src="/logo.svg"><img data-src="pics/lead.jpg"></article>`, "https://news.example.com/2025/pics/lead.jpg"},
		{"none", `<p>text</p>`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><head></head><body>" + tc.html + "</body></html>"))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := pageImage(doc, base); got != tc.want {
				t.Errorf("image = %q, want %q", got, tc.want)
			}
		})
	}
}
