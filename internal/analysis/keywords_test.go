package analysis

import (
	"testing"
)

func TestExtractKeywords(t *testing.T) {
	text := "Critical flaw in Jenkins server. Attackers exploit the Jenkins server flaw."

	got := ExtractKeywords(text, 0)
	want := []struct {
		keyword string
		score   float64
	}{
		{"Jenkins Server Flaw", 38},
		{"Jenkins Server", 30},
		{"Critical Flaw", 27},
		{"Attackers Exploit", 24},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d keywords, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Keyword != w.keyword || got[i].Score != w.score {
			t.Errorf("keyword %d = %+v, want %s (%v)", i, got[i], w.keyword, w.score)
		}
	}
}

func TestExtractKeywordsLimit(t *testing.T) {
	text := "Critical flaw in Jenkins server. Attackers exploit the Jenkins server flaw."
	got := ExtractKeywords(text, 2)
	if len(got) != 2 || got[0].Keyword != "Jenkins Server Flaw" || got[1].Keyword != "Jenkins Server" {
		t.Errorf("top 2 = %+v", got)
	}
}

func TestExtractKeywordsSkipsNoise(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"blank", "   \n\t"},
		{"unavailable", "Content unavailable."},
		{"stop words only", "it is what it was, and they were there."},
		{"digits", "2024. 1999."},
		{"generic", "said. however."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractKeywords(tc.text, 5); len(got) != 0 {
				t.Errorf("ExtractKeywords(%q) = %+v, want none", tc.text, got)
			}
		})
	}
}

func TestExtractKeywordsDropsLongRuns(t *testing.T) {
	got := ExtractKeywords("massive coordinated botnet campaign targets routers. Botnet.", 5)
	for _, k := range got {
		if k.Keyword == "Massive Coordinated Botnet Campaign Targets Routers" {
			t.Errorf("long run kept: %+v", got)
		}
	}
	if len(got) != 1 || got[0].Keyword != "Botnet" {
		t.Errorf("keywords = %+v, want [Botnet]", got)
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"jenkins server":  "Jenkins Server",
		"cve-2024-23897":  "Cve-2024-23897",
		"zero-day":        "Zero-Day",
		"o'reilly report": "O'Reilly Report",
	}
	for in, want := range tests {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}
