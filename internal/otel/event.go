// Package otel records structured operational events for Texy.
//
// Events are typed structs written as JSONL by an asynchronous Logger. A
// RingBuffer can be attached to keep the most recent events in memory for the
// /debug/events endpoint.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event: "<subsystem>.<action>".
type EventKind string

const (
	// Source refresh
	KindFetchStart    EventKind = "fetch.start"
	KindFetchComplete EventKind = "fetch.complete"
	KindFetchError    EventKind = "fetch.error"
	KindRefresh       EventKind = "coord.refresh"

	// Chat relay
	KindChatRequest  EventKind = "chat.request"
	KindChatResponse EventKind = "chat.response"
	KindChatError    EventKind = "chat.error"

	// Article analysis
	KindAnalyze      EventKind = "analysis.article"
	KindAnalyzeError EventKind = "analysis.error"

	// Newsletter
	KindNewsletter EventKind = "newsletter.send"

	// HTTP surface
	KindHTTPRequest EventKind = "http.request"

	// Store
	KindStoreError EventKind = "store.error"

	// Highlights
	KindHighlightAdd    EventKind = "highlight.add"
	KindHighlightDelete EventKind = "highlight.delete"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "server", "coord", "fetch", "chat", "store", "analysis"
	SessionID string         `json:"session_id,omitempty"`
	RequestID string         `json:"rid,omitempty"`
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	Source    string         `json:"source,omitempty"`
	Method    string         `json:"method,omitempty"`
	Path      string         `json:"path,omitempty"`
	Status    int            `json:"status,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(e)
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
