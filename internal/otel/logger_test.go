package otel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

// decodeLines parses every JSONL line written to buf.
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for i, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("line %d is not JSON: %v\n%s", i, err, line)
		}
		out = append(out, m)
	}
	return out
}

func TestHTTPRequestEventShape(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Emit(Event{
		Level:     LevelInfo,
		Kind:      KindHTTPRequest,
		Comp:      "server",
		RequestID: "7f3a2c",
		Method:    "POST",
		Path:      "/articles/a1/highlights",
		Status:    201,
		Dur:       12 * time.Millisecond,
	})
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	got := lines[0]
	want := map[string]any{
		"kind":   "http.request",
		"level":  "info",
		"comp":   "server",
		"rid":    "7f3a2c",
		"method": "POST",
		"path":   "/articles/a1/highlights",
		"status": float64(201),
		"dur_ms": float64(12),
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
	if _, ok := got["t"].(string); !ok {
		t.Errorf("t missing: %v", got)
	}
}

func TestSessionIDIsShortHex(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	other := NewNullLogger()
	defer other.Close()

	l.Info(KindStartup, "server", "texy serve starting")
	l.Info(KindShutdown, "server", "texy serve stopped")
	l.Close()

	hex16 := regexp.MustCompile(`^[0-9a-f]{16}$`)
	if !hex16.MatchString(l.SessionID()) {
		t.Errorf("SessionID = %q, want 16 lowercase hex chars", l.SessionID())
	}
	if l.SessionID() == other.SessionID() {
		t.Error("two loggers share a session id")
	}

	for i, ev := range decodeLines(t, &buf) {
		if ev["session_id"] != l.SessionID() {
			t.Errorf("line %d session_id = %v, want %s", i, ev["session_id"], l.SessionID())
		}
	}
}

func TestEmitOverwritesSessionID(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Emit(Event{Kind: KindChatRequest, SessionID: "forged"})
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["session_id"] != l.SessionID() {
		t.Errorf("session_id = %v, want %s", lines[0]["session_id"], l.SessionID())
	}
}

func TestEmitKeepsExplicitTime(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	l.Emit(Event{Kind: KindFetchComplete, Time: at, Source: "The Hacker News", Count: 4})
	l.Close()

	var ev Event
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !ev.Time.Equal(at) {
		t.Errorf("time = %v, want %v", ev.Time, at)
	}
	if ev.Source != "The Hacker News" || ev.Count != 4 {
		t.Errorf("event = %+v", ev)
	}
}

func TestStartupEventOmitsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Info(KindStartup, "tui", "texy tui starting")
	l.Close()

	line := strings.TrimSpace(buf.String())
	for _, field := range []string{"rid", "method", "path", "status", "dur_ms", "count", "source", "err", "extra"} {
		if strings.Contains(line, `"`+field+`"`) {
			t.Errorf("%q should be omitted: %s", field, line)
		}
	}
}

func TestChatEventsThroughHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Emit(Event{Level: LevelInfo, Kind: KindChatRequest, Comp: "chat", Count: 2})
	l.Timed(KindChatResponse, "chat", time.Now().Add(-300*time.Millisecond), Event{Extra: map[string]any{"model": "gpt-4o"}})
	l.Warn(KindChatError, "chat", "rate limited")
	l.Error(KindChatError, "chat", fmt.Errorf("relay: %w", errForTest("upstream 502")))
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}

	tests := []struct {
		level string
		kind  string
		field string
		value any
	}{
		{"info", "chat.request", "count", float64(2)},
		{"info", "chat.response", "extra", map[string]any{"model": "gpt-4o"}},
		{"warn", "chat.error", "msg", "rate limited"},
		{"error", "chat.error", "err", "relay: upstream 502"},
	}
	for i, tt := range tests {
		ev := lines[i]
		if ev["level"] != tt.level || ev["kind"] != tt.kind || ev["comp"] != "chat" {
			t.Errorf("line %d = %v, want %s %s", i, ev, tt.level, tt.kind)
		}
		if fmt.Sprint(ev[tt.field]) != fmt.Sprint(tt.value) {
			t.Errorf("line %d %s = %v, want %v", i, tt.field, ev[tt.field], tt.value)
		}
	}
	if ms, _ := lines[1]["dur_ms"].(float64); ms < 300 {
		t.Errorf("chat.response dur_ms = %v, want >= 300", lines[1]["dur_ms"])
	}
}

func TestTimedKeepsExplicitLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Timed(KindRefresh, "coord", time.Now(), Event{Level: LevelWarn, Count: 0})
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["level"] != "warn" || lines[0]["kind"] != "coord.refresh" {
		t.Errorf("lines = %v", lines)
	}
}

func TestErrorWithNilErr(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Error(KindStoreError, "store", nil)
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines", len(lines))
	}
	if _, ok := lines[0]["err"]; ok {
		t.Errorf("nil error should leave err empty: %v", lines[0])
	}
}

func TestConcurrentRequestsKeepTheirIDs(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Emit(Event{
				Kind:      KindHTTPRequest,
				Comp:      "server",
				RequestID: fmt.Sprintf("r%02d", i),
				Path:      "/articles",
				Status:    200,
			})
		}(i)
	}
	wg.Wait()
	l.Close()

	seen := make(map[string]bool)
	for _, ev := range decodeLines(t, &buf) {
		rid, _ := ev["rid"].(string)
		if seen[rid] {
			t.Errorf("rid %s written twice", rid)
		}
		seen[rid] = true
	}
	if len(seen) != n {
		t.Errorf("got %d distinct request ids, want %d", len(seen), n)
	}
}

func TestEmitAfterCloseIsDropped(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Info(KindShutdown, "server", "stopping")
	l.Close()
	l.Close()
	l.Emit(Event{Kind: KindHTTPRequest, Path: "/late"})

	if got := len(decodeLines(t, &buf)); got != 1 {
		t.Errorf("got %d lines, want 1", got)
	}
	if l.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", l.Dropped())
	}
}

// stalledWriter blocks its first Write until release is closed.
type stalledWriter struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (w *stalledWriter) Write(p []byte) (int, error) {
	w.once.Do(func() {
		close(w.entered)
		<-w.release
	})
	return len(p), nil
}

func TestFullQueueDropsInsteadOfBlocking(t *testing.T) {
	w := &stalledWriter{entered: make(chan struct{}), release: make(chan struct{})}
	l := NewLogger(w)

	l.Emit(Event{Kind: KindFetchStart, Source: "first"})
	<-w.entered

	for i := 0; i < queueSize+25; i++ {
		l.Emit(Event{Kind: KindFetchStart, Comp: "coord"})
	}
	if got := l.Dropped(); got != 25 {
		t.Errorf("Dropped = %d, want 25", got)
	}

	close(w.release)
	l.Close()
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errForTest("disk full") }

func TestWriteErrorsCountAsDropped(t *testing.T) {
	l := NewLogger(failingWriter{})
	l.Info(KindStartup, "server", "up")
	l.Info(KindShutdown, "server", "down")
	l.Close()

	if l.Dropped() != 2 {
		t.Errorf("Dropped = %d, want 2", l.Dropped())
	}
}

type errForTest string

func (e errForTest) Error() string { return string(e) }

func TestRingBufferMirror(t *testing.T) {
	l := NewNullLogger()
	ring := NewRingBuffer(4)
	l.SetRingBuffer(ring)

	l.Info(KindStartup, "server", "up")
	l.Emit(Event{Kind: KindHTTPRequest, Comp: "server", RequestID: "abc", Status: 404, Path: "/articles/missing"})
	l.Error(KindStoreError, "store", errForTest("database is locked"))
	l.Close()

	got := ring.Last(0)
	if len(got) != 3 {
		t.Fatalf("ring has %d events, want 3", len(got))
	}
	if got[1].RequestID != "abc" || got[1].Status != 404 || got[1].Path != "/articles/missing" {
		t.Errorf("http event = %+v", got[1])
	}
	if got[2].Kind != KindStoreError || got[2].Err != "database is locked" {
		t.Errorf("last event = %+v", got[2])
	}
	for _, ev := range got {
		if ev.SessionID != l.SessionID() {
			t.Errorf("ring event %s lacks the session id", ev.Kind)
		}
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Emit(Event{Kind: KindStartup})
	l.Info(KindChatRequest, "chat", "ignored")
	l.Close()
}
