// Package otel records structured feed events.
//
// Events are typed structs serialized as JSONL lines. The Logger writes them
// asynchronously through a buffered channel and a drain goroutine. An optional
// RingBuffer keeps recent events in memory for the debug overlay.
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

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Catalog fetches
	KindFetchStart    EventKind = "fetch.start"
	KindFetchComplete EventKind = "fetch.complete"
	KindFetchError    EventKind = "fetch.error"
	KindFetchDropped  EventKind = "fetch.dropped"
	KindFetchStale    EventKind = "fetch.stale"

	// Feed state transitions
	KindReset    EventKind = "feed.reset"
	KindPivot    EventKind = "feed.pivot"
	KindFallback EventKind = "feed.fallback"

	// Enrichment
	KindTranslateError EventKind = "translate.error"
	KindTranslateStale EventKind = "translate.stale"

	// Assets
	KindAssetError   EventKind = "asset.error"
	KindAssetEvict   EventKind = "asset.evict"
	KindPrefetchDone EventKind = "prefetch.done"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time       time.Time      `json:"t"`
	Level      Level          `json:"level,omitempty"`
	Kind       EventKind      `json:"kind"`
	Comp       string         `json:"comp,omitempty"`       // "feed", "ui", "main"
	SessionID  string         `json:"session_id,omitempty"` // same for the whole run
	Generation uint64         `json:"gen,omitempty"`
	Mode       string         `json:"mode,omitempty"`
	RecordID   string         `json:"record,omitempty"`
	Dur        time.Duration  `json:"-"`
	DurMs      float64        `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Count      int            `json:"count,omitempty"`
	Err        string         `json:"err,omitempty"`
	Msg        string         `json:"msg,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
