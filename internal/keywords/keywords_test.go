package keywords

import (
	"reflect"
	"testing"

	"github.com/texyhq/texy/internal/model"
)

func withKeywords(kws ...model.Keyword) model.Article {
	a := model.Article{Metadata: model.Metadata{Keywords: kws}}
	a.Normalize()
	return a
}

func kw(word string, score float64) model.Keyword {
	return model.Keyword{Keyword: word, Score: score}
}

func names(result []Keyword) []string {
	out := make([]string, len(result))
	for i, k := range result {
		out[i] = k.Keyword
	}
	return out
}

func TestExtractCountsScoredKeywords(t *testing.T) {
	articles := []model.Article{
		withKeywords(kw("ransomware", 90), kw("noise", 10)),
		withKeywords(kw("zero day", 60), kw("ransomware", 50)),
		withKeywords(kw("ransomware", 49), kw("zero day", 70)),
	}

	got := Extract(articles, 10)
	want := []Keyword{
		{Keyword: "ransomware", Tag: "#ransomware", Count: 2},
		{Keyword: "zero day", Tag: "#zeroday", Count: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %+v, want %+v", got, want)
	}
}

func TestExtractTiesKeepFirstSeenOrder(t *testing.T) {
	articles := []model.Article{
		withKeywords(kw("c", 80), kw("a", 80)),
		withKeywords(kw("b", 80), kw("b", 80)),
		withKeywords(kw("a", 80)),
	}

	got := names(Extract(articles, 10))
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	got = names(Extract(articles[:1], 10))
	if !reflect.DeepEqual(got, []string{"c", "a"}) {
		t.Errorf("equal counts should keep first-seen order, got %v", got)
	}
}

func TestExtractLimit(t *testing.T) {
	var kws []model.Keyword
	for _, w := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		kws = append(kws, kw(w, 100))
	}
	articles := []model.Article{withKeywords(kws...)}

	if got := Extract(articles, 0); len(got) != SidebarLimit {
		t.Errorf("default limit returned %d, want %d", len(got), SidebarLimit)
	}
	if got := Extract(articles, 3); len(got) != 3 {
		t.Errorf("limit 3 returned %d", len(got))
	}
	if got := Extract(articles, ExploreLimit); len(got) != 8 {
		t.Errorf("explore limit returned %d, want 8", len(got))
	}
}

func TestExtractEmpty(t *testing.T) {
	got := Extract(nil, 5)
	if got == nil || len(got) != 0 {
		t.Errorf("Extract(nil) = %#v, want empty slice", got)
	}
}

func TestExtractCountsAreDescending(t *testing.T) {
	articles := []model.Article{
		withKeywords(kw("x", 99), kw("y", 99), kw("z", 99)),
		withKeywords(kw("z", 99), kw("y", 99)),
		withKeywords(kw("z", 99)),
	}
	got := Extract(articles, 10)
	for i := 1; i < len(got); i++ {
		if got[i].Count > got[i-1].Count {
			t.Fatalf("counts not descending: %+v", got)
		}
	}
	if names(got)[0] != "z" {
		t.Errorf("top keyword = %q, want z", names(got)[0])
	}
}

func TestTag(t *testing.T) {
	tests := []struct{ in, want string }{
		{"ransomware", "#ransomware"},
		{"zero day", "#zeroday"},
		{" supply\tchain  attack ", "#supplychainattack"},
		{"", "#"},
	}
	for _, tt := range tests {
		if got := Tag(tt.in); got != tt.want {
			t.Errorf("Tag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
