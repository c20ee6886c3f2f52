package newsletter

import (
	"regexp"
	"sort"
	"strings"

	"github.com/texyhq/texy/internal/analysis"
	"github.com/texyhq/texy/internal/model"
)

// MaxArticles is how many matched articles one email carries.
const MaxArticles = 10

// Match weights.
const (
	roleInText = 3
	roleInTag  = 2
	techInText = 5
	techInTag  = 3
	techInKw   = 2
)

// roles maps each role to the topics it cares about, in display order.
var roles = []struct {
	name     string
	keywords []string
}{
	{"frontend", []string{"react", "vue", "angular", "ui", "ux", "css", "html", "javascript", "typescript", "next.js", "svelte", "frontend"}},
	{"backend", []string{"api", "backend", "server", "database", "sql", "nosql", "postgres", "mongodb", "redis", "node", "django", "flask"}},
	{"devops", []string{"devops", "ci/cd", "jenkins", "github actions", "terraform", "ansible", "deployment", "infrastructure", "cloud"}},
	{"mobile", []string{"ios", "android", "react native", "flutter", "swift", "kotlin", "mobile app"}},
	{"cto/vp", []string{"leadership", "strategy", "architecture", "enterprise", "scalability", "team", "management"}},
	{"product mgr", []string{"product", "roadmap", "user experience", "analytics", "metrics", "feature"}},
	{"founder", []string{"startup", "funding", "business", "growth", "saas", "revenue"}},
	{"security", []string{"security", "vulnerability", "exploit", "breach", "malware", "phishing", "zero-day", "cve"}},
	{"data/ai", []string{"ai", "machine learning", "data science", "llm", "gpt", "neural network", "tensorflow", "pytorch", "data pipeline"}},
}

// techStacks are the technologies a subscriber can follow.
var techStacks = []string{
	"python", "react", "aws", "docker", "cybersec", "crypto", "ai", "rust", "go",
	"kubernetes", "design", "graphql", "node.js", "next.js",
}

var rolePatterns = func() map[string][]*regexp.Regexp {
	out := make(map[string][]*regexp.Regexp, len(roles))
	for _, r := range roles {
		for _, kw := range r.keywords {
			out[r.name] = append(out[r.name], analysis.KeywordPattern(kw))
		}
	}
	return out
}()

// Roles lists the accepted subscriber roles.
func Roles() []string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.name
	}
	return names
}

// TechStacks lists the accepted technologies.
func TechStacks() []string {
	return append([]string(nil), techStacks...)
}

// Match is an article picked for a subscriber.
type Match struct {
	Article model.Article
	Score   int
}

// MatchArticles scores every article against role and tech: a role keyword
// counts 3 in the text and 2 in a tag, a technology 5 in the text, 3 in a tag
// and 2 in a keyword. Articles scoring zero are dropped. The best MaxArticles
// are returned, ties broken by relevance score.
func MatchArticles(role string, tech []string, articles []model.Article) []Match {
	rolePats := rolePatterns[strings.ToLower(strings.TrimSpace(role))]
	techPats := make([]*regexp.Regexp, 0, len(tech))
	for _, t := range tech {
		if t = strings.TrimSpace(t); t != "" {
			techPats = append(techPats, analysis.KeywordPattern(t))
		}
	}

	var matches []Match
	for _, a := range articles {
		text := strings.ToLower(strings.Join([]string{
			a.Title,
			a.Content.ShortDescription,
			a.Content.LongDescription,
			a.Classification.Category,
		}, " "))
		tags := lowered(a.Classification.Tags)
		keywords := make([]string, len(a.Metadata.Keywords))
		for i, k := range a.Metadata.Keywords {
			keywords[i] = strings.ToLower(k.Keyword)
		}

		score := 0
		for _, re := range rolePats {
			if re.MatchString(text) {
				score += roleInText
			}
			if anyMatch(re, tags) {
				score += roleInTag
			}
		}
		for _, re := range techPats {
			if re.MatchString(text) {
				score += techInText
			}
			if anyMatch(re, tags) {
				score += techInTag
			}
			if anyMatch(re, keywords) {
				score += techInKw
			}
		}
		if score > 0 {
			matches = append(matches, Match{Article: a, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Article.Scores.RelevanceScore > matches[j].Article.Scores.RelevanceScore
	})
	if len(matches) > MaxArticles {
		matches = matches[:MaxArticles]
	}
	return matches
}

func anyMatch(re *regexp.Regexp, values []string) bool {
	for _, v := range values {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}

func lowered(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
