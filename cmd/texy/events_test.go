package main

import (
	"strings"
	"testing"
	"time"

	"github.com/texyhq/texy/internal/otel"
)

const sampleLog = `{"t":"2026-10-19T10:00:00Z","level":"info","kind":"fetch.start","comp":"coord"}
{"t":"2026-10-19T10:00:01Z","level":"error","kind":"fetch.error","comp":"fetch","source":"Hacker News","err":"timeout"}
not json
{"t":"2026-10-19T10:00:02Z","level":"info","kind":"http.request","comp":"server","rid":"abc","method":"GET","path":"/feed","status":200,"dur_ms":3.5}

{"t":"2026-10-19T10:00:03Z","level":"warn","kind":"chat.error","comp":"chat","msg":"provider down"}
`

func kinds(lines []parsedLine) []string {
	var out []string
	for _, l := range lines {
		out = append(out, string(l.ev.Kind))
	}
	return out
}

func TestReadTailLines(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		filter eventFilter
		want   []string
	}{
		{"all", 10, eventFilter{}, []string{"fetch.start", "fetch.error", "http.request", "chat.error"}},
		{"tail", 2, eventFilter{}, []string{"http.request", "chat.error"}},
		{"kind prefix", 10, eventFilter{kind: "fetch"}, []string{"fetch.start", "fetch.error"}},
		{"min level", 10, eventFilter{level: otel.LevelWarn}, []string{"fetch.error", "chat.error"}},
		{"component", 10, eventFilter{comp: "server"}, []string{"http.request"}},
		{"request id", 10, eventFilter{rid: "abc"}, []string{"http.request"}},
		{"zero", 0, eventFilter{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kinds(readTailLines(strings.NewReader(sampleLog), tt.n, tt.filter.match))
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatEvent(t *testing.T) {
	ev := otel.Event{
		Time:   time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC),
		Level:  otel.LevelInfo,
		Kind:   otel.KindHTTPRequest,
		Comp:   "server",
		Method: "GET",
		Path:   "/feed",
		Status: 200,
		DurMs:  3.5,
	}
	got := formatEvent(ev)
	for _, want := range []string{"10:00:00.000", "INFO", "http.request", "GET /feed", "status=200", "(3.5ms)"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatEvent = %q, missing %q", got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("a longer headline", 10); got != "a longe..." {
		t.Errorf("truncate = %q, want %q", got, "a longe...")
	}
}
