// Package telemetry implements the Telemetry Hub (spec §4.2): a fan-out of
// structured lifecycle events to registered listeners, optionally bridged
// to OpenTelemetry. Grounded on gomind's telemetry/api.go listener pattern
// and telemetry/framework_integration.go's "emit to hub and OTEL" bridge.
package telemetry

import (
	"context"
	"sync"
	"time"
)

// EventType is the discriminated-union tag on every telemetry event.
type EventType string

const (
	EventParseStart       EventType = "parse:start"
	EventParseStage       EventType = "parse:stage"
	EventParseSuccess     EventType = "parse:success"
	EventParseFailure     EventType = "parse:failure"
	EventPlanReady        EventType = "plan:ready"
	EventPlanCache        EventType = "plan:cache"
	EventPlanAutoRefresh  EventType = "plan:auto-refresh"
	EventPlanRewrite      EventType = "plan:rewrite"
	EventFieldFallback    EventType = "field:fallback"
)

// Source identifies which component emitted an event.
type Source string

const (
	SourceCore    Source = "core"
	SourceSession Source = "session"
)

// StageMetrics is the stage-event-specific payload.
type StageMetrics struct {
	TimeMs     int64
	Tokens     int
	Confidence float64
	Runs       int
}

// Event is the envelope every listener receives. Type-specific payloads
// live in Payload; listeners type-switch on Type to interpret it. Events
// are append-only: listeners must not mutate an Event they receive.
type Event struct {
	Type      EventType
	Source    Source
	RequestID string
	Timestamp time.Time
	Profile   string
	SessionID string

	// Stage, Metrics, Diagnostics populate parse:stage events.
	Stage       string
	Metrics     *StageMetrics
	Diagnostics []interface{}

	// Payload carries the remaining component-specific fields (plan:*,
	// field:fallback) as a free-form map so new event shapes don't require
	// a hub API change.
	Payload map[string]interface{}
}

// Listener receives emitted events. A panic in a listener is recovered and
// passed to the hub's ErrorHandler; it never fails emission for other
// listeners. The hub itself logs nothing (spec §4.2, §9 "event/listener
// cycles").
type Listener func(event Event)

// ErrorHandler is invoked with the listener's index and the recovered value
// when a listener panics; defaults to a no-op.
type ErrorHandler func(listenerIndex int, recovered interface{})

// Hub is the fan-out registry. Safe for concurrent AddListener/Emit.
type Hub struct {
	mu        sync.RWMutex
	listeners []Listener
	onError   ErrorHandler
}

// NewHub creates an empty Hub. onError may be nil.
func NewHub(onError ErrorHandler) *Hub {
	if onError == nil {
		onError = func(int, interface{}) {}
	}
	return &Hub{onError: onError}
}

// ListenerHandle lets a caller unregister a specific listener.
type ListenerHandle struct {
	hub   *Hub
	index int
	gen   *Listener
}

// AddListener registers a listener and returns a handle for removal.
func (h *Hub) AddListener(l Listener) *ListenerHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, l)
	return &ListenerHandle{hub: h, index: len(h.listeners) - 1, gen: &h.listeners[len(h.listeners)-1]}
}

// RemoveListener unregisters the listener identified by handle. Safe to
// call more than once.
func (h *Hub) RemoveListener(handle *ListenerHandle) {
	if handle == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, l := range h.listeners {
		if &h.listeners[i] == handle.gen {
			h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
			_ = l
			return
		}
	}
}

// Emit fans out event to every registered listener, synchronously and in
// registration order, on the caller's goroutine: it returns only after
// every listener has returned. Each listener call is wrapped in its own
// recover so one panicking listener never aborts delivery to the rest.
func (h *Hub) Emit(event Event) {
	h.mu.RLock()
	listeners := make([]Listener, len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.RUnlock()

	for i, l := range listeners {
		h.safeInvoke(i, l, event)
	}
}

func (h *Hub) safeInvoke(index int, l Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			h.onError(index, r)
		}
	}()
	l(event)
}

// The otel bridge below is optional: OTELBridge is a Hub listener that
// records OTEL metrics (an event counter and, for stage events, duration and
// confidence histograms); it records no spans. Mirrors gomind's
// telemetry/framework_integration.go dual-emission approach. Kept separate
// from Hub itself so the core fan-out never depends on OTEL being wired.
type OTELBridge struct {
	recorder MetricRecorder
}

// MetricRecorder is the minimal surface this module needs from an OTEL
// meter: one counter-style increment and one histogram-style observation.
// Satisfied by otelAdapter in otel.go.
type MetricRecorder interface {
	IncrCounter(ctx context.Context, name string, labels map[string]string)
	RecordHistogram(ctx context.Context, name string, value float64, labels map[string]string)
}

// NewOTELBridge wraps recorder into a Listener suitable for Hub.AddListener.
func NewOTELBridge(recorder MetricRecorder) Listener {
	b := &OTELBridge{recorder: recorder}
	return b.onEvent
}

func (b *OTELBridge) onEvent(event Event) {
	ctx := context.Background()
	labels := map[string]string{"type": string(event.Type)}
	if event.Profile != "" {
		labels["profile"] = event.Profile
	}
	b.recorder.IncrCounter(ctx, "parserator.events", labels)
	if event.Metrics != nil {
		b.recorder.RecordHistogram(ctx, "parserator.stage.duration_ms", float64(event.Metrics.TimeMs), labels)
		b.recorder.RecordHistogram(ctx, "parserator.stage.confidence", event.Metrics.Confidence, labels)
	}
}
