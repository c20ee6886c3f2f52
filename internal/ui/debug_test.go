package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/texyhq/texy/internal/otel"
)

func TestDebugOverlayNilRing(t *testing.T) {
	if got := debugOverlay(nil, 80, 40); got != "" {
		t.Errorf("expected empty overlay, got %q", got)
	}
}

func TestDebugOverlayCounts(t *testing.T) {
	ring := otel.NewRingBuffer(16)
	now := time.Now()
	ring.Push(otel.Event{Time: now, Kind: otel.KindFetchComplete, Source: "Krebs"})
	ring.Push(otel.Event{Time: now, Kind: otel.KindFetchError, Source: "THN", Err: "timeout"})
	ring.Push(otel.Event{Time: now, Kind: otel.KindChatRequest})

	out := debugOverlay(ring, 100, 40)
	for _, want := range []string{"1 complete, 1 errors", "1 requests", "3 / 16 events", "Krebs", "ERR:timeout"} {
		if !strings.Contains(out, want) {
			t.Errorf("overlay missing %q:\n%s", want, out)
		}
	}
}

func TestDebugOverlayFitsHeight(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	for i := 0; i < 40; i++ {
		ring.Push(otel.Event{Time: time.Now(), Kind: otel.KindHTTPRequest})
	}
	out := debugOverlay(ring, 80, 12)
	if n := strings.Count(out, "\n") + 1; n > 12 {
		t.Errorf("overlay is %d lines, want <= 12", n)
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{-time.Second, "0ms"},
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{3 * time.Minute, "3m"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.d); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
