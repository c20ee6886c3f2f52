package newsletter

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultBaseURL prefixes unsubscribe links when none is configured.
const DefaultBaseURL = "http://localhost:8000"

// Subject is the email subject for n matched articles.
func Subject(n int) string {
	return fmt.Sprintf("%d New Cybersecurity Articles for You", n)
}

type articleView struct {
	Title       string
	URL         string
	Description string
	Category    string
	Actionable  bool
	Confidence  int
	Relevance   int
	Trend       int
}

var digestTmpl = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html><head><meta charset="UTF-8">
<style>
body{font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;line-height:1.6;color:#333;max-width:600px;margin:0 auto;padding:20px}
.header{background:linear-gradient(135deg,#667eea 0%,#764ba2 100%);color:#fff;padding:30px;border-radius:10px;margin-bottom:30px}
.header h1{margin:0;font-size:28px}
.header p{margin:10px 0 0 0;opacity:.9}
.article{background:#f8f9fa;border-left:4px solid #667eea;padding:20px;margin-bottom:20px;border-radius:5px}
.article h2{margin:0 0 10px 0;font-size:20px;color:#2d3748}
.meta{color:#718096;font-size:14px;margin-bottom:10px}
.actionable{color:#48bb78}
.description{color:#4a5568;margin-bottom:15px}
.score{background:#e2e8f0;padding:5px 10px;border-radius:4px;font-size:12px;margin-right:8px}
.read-more{display:inline-block;background:#667eea;color:#fff;padding:10px 20px;text-decoration:none;border-radius:5px;font-weight:600}
.footer{margin-top:40px;padding-top:20px;border-top:1px solid #e2e8f0;color:#718096;font-size:14px;text-align:center}
</style></head><body>
<div class="header">
<h1>Your Daily Cybersecurity Digest</h1>
<p>Personalized for: {{.Role}}{{if .TechStack}} | {{.TechStack}}{{end}}</p>
</div>
{{- if not .Articles}}
<p>No new articles matched your preferences today. Check back tomorrow!</p>
{{- end}}
{{- range .Articles}}
<div class="article">
<h2>{{.Title}}</h2>
<div class="meta"><strong>{{.Category}}</strong>{{if .Actionable}} &bull; <span class="actionable">Actionable</span>{{end}}</div>
<div class="description">{{.Description}}</div>
<div class="scores"><span class="score">Confidence: {{.Confidence}}%</span><span class="score">Relevance: {{.Relevance}}%</span><span class="score">Trend: {{.Trend}}%</span></div>
<a href="{{.URL}}" class="read-more">Read Full Article &rarr;</a>
</div>
{{- end}}
<div class="footer">
<p>You're receiving this because you subscribed to our cybersecurity news digest.</p>
<p><a href="{{.UnsubscribeURL}}">Unsubscribe</a></p>
</div>
</body></html>`))

// RenderDigest builds the HTML email for one subscriber.
func RenderDigest(baseURL, email, role string, tech []string, matches []Match) (string, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	views := make([]articleView, len(matches))
	for i, m := range matches {
		a := m.Article
		desc := a.Content.ShortDescription
		if strings.TrimSpace(desc) == "" {
			desc = "No description available"
		}
		link := a.URL
		if link == "" {
			link = "#"
		}
		views[i] = articleView{
			Title:       a.Title,
			URL:         link,
			Description: desc,
			Category:    a.Classification.Category,
			Actionable:  a.Classification.Actionable,
			Confidence:  int(a.Scores.ConfidenceScore),
			Relevance:   int(a.Scores.RelevanceScore),
			Trend:       int(a.Scores.TrendScore),
		}
	}

	var buf bytes.Buffer
	err := digestTmpl.Execute(&buf, struct {
		Role           string
		TechStack      string
		Articles       []articleView
		UnsubscribeURL string
	}{
		Role:           cases.Title(language.English).String(role),
		TechStack:      strings.Join(tech, ", "),
		Articles:       views,
		UnsubscribeURL: strings.TrimRight(baseURL, "/") + "/unsubscribe/" + url.PathEscape(email),
	})
	if err != nil {
		return "", fmt.Errorf("render digest for %s: %w", email, err)
	}
	return buf.String(), nil
}
