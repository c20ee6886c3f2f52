package analysis

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/texyhq/texy/internal/model"
)

// DefaultKeywordCount is how many keywords ExtractKeywords keeps by default.
const DefaultKeywordCount = 8

// unavailableText is what a failed scrape leaves behind.
const unavailableText = "Content unavailable."

// Phrase limits.
const (
	maxPhraseWords = 3
	minPhraseChars = 3
	maxPhraseChars = 35
)

// tokenPattern splits text into word runs and punctuation runs.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+|[^\p{L}\p{N}_\s]+`)

var digitsOnly = regexp.MustCompile(`^[\d\s]+$`)

// genericWords are never useful as keywords on their own.
var genericWords = map[string]bool{
	"said": true, "also": true, "according": true, "used": true, "using": true,
	"however": true, "including": true, "addition": true, "example": true,
}

// stopWords delimit candidate phrases (the usual English list).
var stopWords = toSet(`i me my myself we our ours ourselves you you're you've
you'll you'd your yours yourself yourselves he him his himself she she's her
hers herself it it's its itself they them their theirs themselves what which
who whom this that that'll these those am is are was were be been being have
has had having do does did doing a an the and but if or because as until while
of at by for with about against between into through during before after above
below to from up down in out on off over under again further then once here
there when where why how all any both each few more most other some such no nor
not only own same so than too very s t can will just don don't should should've
now d ll m o re ve y ain aren aren't couldn couldn't didn didn't doesn doesn't
hadn hadn't hasn hasn't haven haven't isn isn't ma mightn mightn't mustn
mustn't needn needn't shan shan't shouldn shouldn't wasn wasn't weren weren't
won won't wouldn wouldn't`)

func toSet(words string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		set[w] = true
	}
	return set
}

// ExtractKeywords ranks the short phrases of text by co-occurrence (RAKE) and
// returns up to topN of them, title-cased, with scores in [0,100]. One and two
// word phrases are favoured.
func ExtractKeywords(text string, topN int) []model.Keyword {
	if topN <= 0 {
		topN = DefaultKeywordCount
	}
	if strings.TrimSpace(text) == "" || text == unavailableText {
		return nil
	}

	phrases := candidatePhrases(strings.ToLower(text))
	if len(phrases) == 0 {
		return nil
	}

	freq := make(map[string]float64)
	degree := make(map[string]float64)
	for _, p := range phrases {
		for _, w := range p {
			freq[w]++
			degree[w] += float64(len(p))
		}
	}

	type ranked struct {
		words []string
		score float64
	}
	all := make([]ranked, 0, len(phrases))
	for _, p := range phrases {
		var score float64
		for _, w := range p {
			score += degree[w] / freq[w]
		}
		all = append(all, ranked{words: p, score: score})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })

	keywords := make([]model.Keyword, 0, topN)
	for _, r := range all {
		phrase := strings.Join(r.words, " ")
		if len(phrase) < minPhraseChars || len(phrase) > maxPhraseChars {
			continue
		}
		if digitsOnly.MatchString(phrase) || genericWords[phrase] {
			continue
		}

		adjusted := r.score
		switch len(r.words) {
		case 1:
			adjusted *= 1.5
		case 2:
			adjusted *= 1.2
		}
		keywords = append(keywords, model.Keyword{
			Keyword: titleCase(phrase),
			Score:   math.Min(100, math.Round(adjusted*5)),
		})
		if len(keywords) >= topN {
			break
		}
	}

	sort.SliceStable(keywords, func(i, j int) bool { return keywords[i].Score > keywords[j].Score })
	return keywords
}

// candidatePhrases splits lowered text into runs of content words separated
// by stop words and punctuation. Phrases longer than maxPhraseWords are
// dropped; repeats are kept once, in first-seen order.
func candidatePhrases(text string) [][]string {
	var (
		phrases [][]string
		current []string
		seen    = make(map[string]bool)
	)
	flush := func() {
		if len(current) > 0 && len(current) <= maxPhraseWords {
			key := strings.Join(current, " ")
			if !seen[key] {
				seen[key] = true
				phrases = append(phrases, current)
			}
		}
		current = nil
	}

	for _, tok := range tokenPattern.FindAllString(text, -1) {
		if stopWords[tok] || !isWord(tok) {
			flush()
			continue
		}
		current = append(current, tok)
	}
	flush()
	return phrases
}

func isWord(tok string) bool {
	for _, r := range tok {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return true
		}
	}
	return false
}

// titleCase upper-cases the first letter of every letter run.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
