package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/texyhq/texy/internal/brain"
	"github.com/texyhq/texy/internal/logging"
	"github.com/texyhq/texy/internal/model"
	"github.com/texyhq/texy/internal/otel"
)

// Completion parameters for the analysis prompt.
const (
	Temperature = 0.3
	MaxTokens   = 1000
)

// Default model call pacing.
const (
	DefaultRate  = 1.0
	DefaultBurst = 2
)

// promptTextRunes bounds how much article text is sent to the model.
const promptTextRunes = 4000

// aiKeywordScore is the weight given to keywords the model adds.
const aiKeywordScore = 50

const systemPrompt = "You are a cybersecurity analyst. Return only valid JSON."

const promptTemplate = `Analyze this cybersecurity news article.

Title: %s
Keywords: %s
Content: %s

Return a JSON object with:
1. scores:
   - confidence_score (0-100): How factual/reliable?
   - relevance_score (0-100): Impact on tech industry?
   - sentiment_score (-100 to 100): Negative (breach) to Positive (launch)
2. content:
   - short_description: 2 sentences max (for cards)
   - long_description: 4-5 sentences (detailed summary)
   - category: Choose ONE from [%s]
3. metadata:
   - keywords: List of 3-5 key entities/topics
   - trend_keywords: List of 3-5 terms for trend search
   - actionable: boolean (true if reader needs to patch/act)`

// AICategories are the coarse categories the model chooses from. The chosen
// one is added to the article's tags.
var AICategories = []string{"Security", "Product Launch", "Legal", "Market", "AI", "DevOps"}

// ErrNoProvider is returned by GenerateInsight when no model is configured.
var ErrNoProvider = errors.New("analysis: no AI provider configured")

// knownTrendTerms are searched for in titles, in order. The first one found
// leads the trend query.
var knownTrendTerms = []string{
	"phishing", "ransomware", "malware", "hacking", "cybersecurity", "data breach",
	"vulnerability", "exploit", "zero-day", "microsoft", "google", "apple", "android",
	"ios", "chrome", "windows", "linux", "bitcoin", "cryptocurrency", "ai", "chatgpt",
	"openai", "hacker", "privacy", "encryption", "vpn", "firewall", "antivirus",
	"password", "authentication", "security", "cyber attack", "threat", "botnet",
	"crowdstrike", "cloudflare", "aws", "azure", "nvidia", "meta", "facebook",
}

var knownTrendPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(knownTrendTerms))
	for i, term := range knownTrendTerms {
		out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
	}
	return out
}()

// categoryTrendTerms is the trend query used when nothing else is available.
var categoryTrendTerms = map[string]string{
	"Phishing":              "Phishing",
	"Malware":               "Malware",
	"Ransomware":            "Ransomware",
	"Vulnerability":         "Security Vulnerability",
	"Data Breach":           "Data Breach",
	"AI & Machine Learning": "AI Security",
	"Mobile Security":       "Mobile Security",
}

// Insight is the model's reading of an article.
type Insight struct {
	Scores struct {
		Confidence float64 `json:"confidence_score"`
		Relevance  float64 `json:"relevance_score"`
		Sentiment  float64 `json:"sentiment_score"`
	} `json:"scores"`
	Content struct {
		ShortDescription string `json:"short_description"`
		LongDescription  string `json:"long_description"`
		Category         string `json:"category"`
	} `json:"content"`
	Metadata struct {
		Keywords      []string `json:"keywords"`
		TrendKeywords []string `json:"trend_keywords"`
		Actionable    bool     `json:"actionable"`
	} `json:"metadata"`
}

// Options configure an Analyzer.
type Options struct {
	// Scraper reads article pages. Nil analyzes stored text only.
	Scraper Scraper
	// Trends scores topic popularity. Nil leaves trend fields untouched.
	Trends *TrendClient
	// Rate limits model calls per second. Zero disables pacing.
	Rate  float64
	Burst int
	// Events receives analysis.* events. May be nil.
	Events *otel.Logger
}

// Analyzer enriches articles with scraped text, keywords, a category, model
// scores and a trend signal. Safe for concurrent use.
type Analyzer struct {
	provider brain.Provider
	scraper  Scraper
	trends   *TrendClient
	limiter  *rate.Limiter
	events   *otel.Logger
}

// NewAnalyzer returns an Analyzer. A nil or unavailable provider leaves the
// heuristic steps only.
func NewAnalyzer(p brain.Provider, opts Options) *Analyzer {
	if p != nil && !p.Available() {
		p = nil
	}

	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Analyzer{
		provider: p,
		scraper:  opts.Scraper,
		trends:   opts.Trends,
		limiter:  rate.NewLimiter(limit, burst),
		events:   opts.Events,
	}
}

// Analyze returns the analyzed version of a. Scrape, model and trend failures
// are logged and skipped; only a cancelled ctx fails the call.
func (an *Analyzer) Analyze(ctx context.Context, a model.Article) (model.Article, error) {
	start := time.Now()

	if an.scraper != nil && a.URL != "" {
		page, err := an.scraper.Scrape(ctx, a.URL)
		if err != nil {
			logging.Warn("scrape failed", "id", a.ID, "url", a.URL, "error", err)
		} else {
			if len(page.Text) > len(a.Content.FullText) {
				a.Content.FullText = page.Text
			}
			if a.Author == "" {
				a.Author = page.Author
			}
			if a.ImageURL == "" {
				a.ImageURL = page.ImageURL
			}
		}
	}
	if a.Content.FullText != "" {
		a.Content.ReadingTime = model.ReadingMinutes(a.Content.FullText)
	}

	body := articleText(a)
	keywords := ExtractKeywords(body, DefaultKeywordCount)
	a.Classification.Category = DetectCategory(a.Title, body)

	var insight *Insight
	if an.provider != nil {
		in, err := an.GenerateInsight(ctx, a.Title, body, keywords)
		switch {
		case ctx.Err() != nil:
			return a, ctx.Err()
		case err != nil:
			logging.Warn("ai analysis failed", "id", a.ID, "provider", an.provider.Name(), "error", err)
			an.events.Emit(otel.Event{
				Level:  otel.LevelWarn,
				Kind:   otel.KindAnalyzeError,
				Comp:   "analysis",
				Source: an.provider.Name(),
				Err:    err.Error(),
				Extra:  map[string]any{"id": a.ID},
			})
		default:
			insight = &in
			keywords = insight.apply(&a, keywords)
		}
	}
	a.Metadata.Keywords = keywords

	if an.trends != nil {
		terms := TrendKeywords(a.Title, insight, keywords, a.Classification.Category)
		an.trends.Signal(ctx, terms).Apply(&a)
	}
	if err := ctx.Err(); err != nil {
		return a, err
	}

	a.Normalize()
	an.events.Timed(otel.KindAnalyze, "analysis", start, otel.Event{
		Extra: map[string]any{"id": a.ID, "keywords": len(a.Metadata.Keywords), "ai": insight != nil},
	})
	logging.Debug("article analyzed", "id", a.ID, "category", a.Classification.Category, "took", time.Since(start).Round(time.Millisecond))
	return a, nil
}

// GenerateInsight asks the model to score and summarize an article. Calls are
// paced by the analyzer's limiter.
func (an *Analyzer) GenerateInsight(ctx context.Context, title, text string, keywords []model.Keyword) (Insight, error) {
	if an.provider == nil {
		return Insight{}, ErrNoProvider
	}
	if err := an.limiter.Wait(ctx); err != nil {
		return Insight{}, fmt.Errorf("analysis: waiting for rate limiter: %w", err)
	}

	resp, err := an.provider.Generate(ctx, brain.Request{
		SystemPrompt: systemPrompt,
		Messages:     []brain.Message{{Role: brain.RoleUser, Content: buildPrompt(title, text, keywords)}},
		Temperature:  Temperature,
		MaxTokens:    MaxTokens,
	})
	if err != nil {
		return Insight{}, fmt.Errorf("analysis: %s: %w", an.provider.Name(), err)
	}
	return ParseInsight(resp.Content)
}

func buildPrompt(title, text string, keywords []model.Keyword) string {
	if r := []rune(text); len(r) > promptTextRunes {
		text = string(r[:promptTextRunes])
	}
	names := make([]string, 0, 5)
	for _, k := range keywords {
		if len(names) == 5 {
			break
		}
		names = append(names, k.Keyword)
	}
	return fmt.Sprintf(promptTemplate, title, strings.Join(names, ", "), text, strings.Join(AICategories, ", "))
}

var codeBlockRegex = regexp.MustCompile("(?s)^\\s*```(?:json)?\\s*(.+?)\\s*```\\s*$")

func stripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if matches := codeBlockRegex.FindStringSubmatch(s); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return s
}

// ParseInsight decodes a model reply. A JSON object wrapped in a code fence
// or surrounded by prose is accepted.
func ParseInsight(content string) (Insight, error) {
	text := stripMarkdownCodeBlock(content)

	var in Insight
	err := json.Unmarshal([]byte(text), &in)
	if err != nil {
		open, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
		if open < 0 || end <= open {
			return Insight{}, fmt.Errorf("parse analysis JSON: %w", err)
		}
		if err := json.Unmarshal([]byte(text[open:end+1]), &in); err != nil {
			return Insight{}, fmt.Errorf("parse analysis JSON: %w", err)
		}
	}
	return in, nil
}

// apply copies the insight onto a and returns keywords with the model's
// additions appended.
func (in *Insight) apply(a *model.Article, keywords []model.Keyword) []model.Keyword {
	a.Scores.ConfidenceScore = clamp(in.Scores.Confidence, 0, 100)
	a.Scores.RelevanceScore = clamp(in.Scores.Relevance, 0, 100)
	a.Scores.SentimentScore = clamp(in.Scores.Sentiment, -100, 100)
	if s := strings.TrimSpace(in.Content.ShortDescription); s != "" {
		a.Content.ShortDescription = s
	}
	if s := strings.TrimSpace(in.Content.LongDescription); s != "" {
		a.Content.LongDescription = s
	}
	a.Classification.Actionable = in.Metadata.Actionable
	if cat := aiCategory(in.Content.Category); cat != "" && !containsFold(a.Classification.Tags, cat) {
		a.Classification.Tags = append(a.Classification.Tags, cat)
	}

	seen := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		seen[strings.ToLower(k.Keyword)] = true
	}
	for _, kw := range in.Metadata.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[strings.ToLower(kw)] {
			continue
		}
		seen[strings.ToLower(kw)] = true
		keywords = append(keywords, model.Keyword{Keyword: kw, Score: aiKeywordScore})
	}
	return keywords
}

func aiCategory(name string) string {
	for _, c := range AICategories {
		if strings.EqualFold(c, strings.TrimSpace(name)) {
			return c
		}
	}
	return ""
}

// TrendKeywords picks the terms to measure popularity with: the model's
// trend keywords (or its first three keywords), led by a well-known term from
// the title, then short extracted keywords up to five. Without any of those
// a term for category is used.
func TrendKeywords(title string, insight *Insight, keywords []model.Keyword, category string) []string {
	var terms []string
	if insight != nil {
		terms = append(terms, nonEmpty(insight.Metadata.TrendKeywords)...)
		if len(terms) == 0 {
			ai := nonEmpty(insight.Metadata.Keywords)
			if len(ai) > 3 {
				ai = ai[:3]
			}
			terms = append(terms, ai...)
		}
	}

	lowerTitle := strings.ToLower(title)
	for i, re := range knownTrendPatterns {
		if !re.MatchString(lowerTitle) {
			continue
		}
		term := knownTrendTerms[i]
		label := strings.ToUpper(term)
		if len(term) > 3 {
			label = titleCase(term)
		}
		if !containsFold(terms, label) {
			terms = append([]string{label}, terms...)
			break
		}
	}

	for _, k := range keywords {
		if len(terms) >= maxTrendKeywords {
			break
		}
		if len(strings.Fields(k.Keyword)) <= 2 && len(k.Keyword) >= 3 && !containsFold(terms, k.Keyword) {
			terms = append(terms, k.Keyword)
		}
	}

	if len(terms) == 0 {
		term, ok := categoryTrendTerms[category]
		if !ok {
			term = "Cybersecurity"
		}
		terms = append(terms, term)
	}
	return terms
}

// articleText is the best available body of a.
func articleText(a model.Article) string {
	for _, s := range []string{a.Content.FullText, a.Content.LongDescription, a.Content.ShortDescription} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
