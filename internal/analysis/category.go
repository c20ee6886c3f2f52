package analysis

import (
	"regexp"
	"strings"

	"github.com/texyhq/texy/internal/model"
)

// categoryTextRunes bounds how much body text DetectCategory reads.
const categoryTextRunes = 2000

// titleBonus is added once per keyword found in the title.
const titleBonus = 3

type categoryRule struct {
	name     string
	keywords []string
	patterns []*regexp.Regexp
}

// categoryRules are checked in order; the first best score wins.
var categoryRules = buildRules([]categoryRule{
	{name: "Malware", keywords: []string{"malware", "virus", "trojan", "worm", "spyware", "adware", "rootkit", "keylogger", "botnet", "backdoor"}},
	{name: "Vulnerability", keywords: []string{"vulnerability", "cve", "zero-day", "0-day", "exploit", "bug", "flaw", "patch", "security hole", "rce", "remote code execution"}},
	{name: "Data Breach", keywords: []string{"data breach", "leak", "exposed", "stolen data", "compromised", "data theft", "records exposed", "personal data"}},
	{name: "Ransomware", keywords: []string{"ransomware", "ransom", "encrypt", "decryptor", "extortion", "lockbit", "blackcat", "alphv", "conti"}},
	{name: "Phishing", keywords: []string{"phishing", "social engineering", "scam", "fraud", "fake", "impersonation", "credential theft", "bec", "business email"}},
	{name: "APT & Nation-State", keywords: []string{"apt", "nation-state", "state-sponsored", "espionage", "cyber espionage", "threat actor", "campaign", "lazarus", "cozy bear", "fancy bear"}},
	{name: "Privacy", keywords: []string{"privacy", "gdpr", "data protection", "surveillance", "tracking", "cookies", "consent", "personal information"}},
	{name: "Cloud Security", keywords: []string{"cloud", "aws", "azure", "gcp", "kubernetes", "docker", "container", "saas", "iaas", "paas", "misconfiguration"}},
	{name: "Mobile Security", keywords: []string{"android", "ios", "mobile", "smartphone", "app", "play store", "app store", "mobile malware"}},
	{name: "IoT & Hardware", keywords: []string{"iot", "internet of things", "smart device", "firmware", "hardware", "embedded", "router", "camera", "sensor"}},
	{name: "Cryptocurrency", keywords: []string{"crypto", "cryptocurrency", "bitcoin", "ethereum", "blockchain", "wallet", "defi", "nft", "exchange hack"}},
	{name: "AI & Machine Learning", keywords: []string{"ai", "artificial intelligence", "machine learning", "llm", "chatgpt", "gpt", "deep learning", "neural", "model"}},
	{name: "Law & Regulation", keywords: []string{"law", "regulation", "compliance", "legal", "court", "arrest", "indictment", "sanctions", "fine", "penalty", "fbi", "doj"}},
	{name: "Enterprise Security", keywords: []string{"enterprise", "corporate", "business", "organization", "company", "siem", "soc", "incident response", "threat detection"}},
	{name: "Authentication", keywords: []string{"authentication", "password", "mfa", "2fa", "passkey", "biometric", "login", "sso", "identity", "oauth"}},
})

// KeywordPattern matches kw in lower-case text. Short keywords must stand as
// whole words ("ai" never matches "said"); longer ones only need to start a
// word, so "exploit" also counts "exploited".
func KeywordPattern(kw string) *regexp.Regexp {
	kw = strings.ToLower(kw)
	expr := `\b` + regexp.QuoteMeta(kw)
	if len(kw) <= 3 {
		expr += `\b`
	}
	return regexp.MustCompile(expr)
}

func buildRules(rules []categoryRule) []categoryRule {
	for i := range rules {
		for _, kw := range rules[i].keywords {
			rules[i].patterns = append(rules[i].patterns, KeywordPattern(kw))
		}
	}
	return rules
}

// Categories lists the names DetectCategory can return, besides the default.
func Categories() []string {
	names := make([]string, len(categoryRules))
	for i, r := range categoryRules {
		names[i] = r.name
	}
	return names
}

// DetectCategory picks the category whose keywords occur most often in the
// title and the start of text. Keywords in the title weigh more. Without any
// match the default category is returned.
func DetectCategory(title, text string) string {
	if r := []rune(text); len(r) > categoryTextRunes {
		text = string(r[:categoryTextRunes])
	}
	title = strings.ToLower(title)
	combined := title + " " + strings.ToLower(text)

	best, bestScore := model.DefaultCategory, 0
	for _, rule := range categoryRules {
		score := 0
		for _, re := range rule.patterns {
			score += len(re.FindAllStringIndex(combined, -1))
			if re.MatchString(title) {
				score += titleBonus
			}
		}
		if score > bestScore {
			best, bestScore = rule.name, score
		}
	}
	return best
}
