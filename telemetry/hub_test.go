package telemetry

import (
	"context"
	"sync"
	"testing"
)

func TestEmitFansOutToAllListeners(t *testing.T) {
	h := NewHub(nil)
	var mu sync.Mutex
	var seen []EventType

	h.AddListener(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Type)
	})
	h.AddListener(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Type)
	})

	h.Emit(Event{Type: EventParseStart})

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("expected both listeners to observe the event, got %d deliveries", len(seen))
	}
}

func TestEmitRecoversPanickingListenerAndStillDeliversToOthers(t *testing.T) {
	h := NewHub(nil)
	delivered := false

	h.AddListener(func(e Event) { panic("boom") })
	h.AddListener(func(e Event) { delivered = true })

	h.Emit(Event{Type: EventParseFailure})

	if !delivered {
		t.Error("expected the second listener to still receive the event after the first panicked")
	}
}

func TestEmitInvokesOnErrorWithListenerIndexOnPanic(t *testing.T) {
	var gotIndex int = -1
	var gotRecovered interface{}
	h := NewHub(func(listenerIndex int, recovered interface{}) {
		gotIndex = listenerIndex
		gotRecovered = recovered
	})

	h.AddListener(func(e Event) {})
	h.AddListener(func(e Event) { panic("boom") })

	h.Emit(Event{Type: EventParseStart})

	if gotIndex != 1 {
		t.Errorf("expected onError to report index 1 for the second listener, got %d", gotIndex)
	}
	if gotRecovered != "boom" {
		t.Errorf("expected the recovered panic value to be passed through, got %v", gotRecovered)
	}
}

func TestRemoveListenerStopsDelivery(t *testing.T) {
	h := NewHub(nil)
	calls := 0
	handle := h.AddListener(func(e Event) { calls++ })

	h.Emit(Event{Type: EventParseStart})
	h.RemoveListener(handle)
	h.Emit(Event{Type: EventParseStart})

	if calls != 1 {
		t.Errorf("expected exactly one delivery before removal, got %d", calls)
	}
}

func TestRemoveListenerIsSafeToCallTwice(t *testing.T) {
	h := NewHub(nil)
	handle := h.AddListener(func(e Event) {})
	h.RemoveListener(handle)
	h.RemoveListener(handle)
}

type recordingRecorder struct {
	mu         sync.Mutex
	counters   int
	histograms int
	lastLabels map[string]string
}

func (r *recordingRecorder) IncrCounter(ctx context.Context, name string, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters++
	r.lastLabels = labels
}

func (r *recordingRecorder) RecordHistogram(ctx context.Context, name string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histograms++
}

func TestOTELBridgeRecordsCounterForEveryEvent(t *testing.T) {
	rec := &recordingRecorder{}
	h := NewHub(nil)
	h.AddListener(NewOTELBridge(rec))

	h.Emit(Event{Type: EventParseSuccess, Profile: "lean-agent"})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.counters != 1 {
		t.Errorf("expected one counter increment, got %d", rec.counters)
	}
	if rec.lastLabels["profile"] != "lean-agent" {
		t.Errorf("expected the profile label to be forwarded, got %+v", rec.lastLabels)
	}
}

func TestOTELBridgeRecordsHistogramsOnlyWhenMetricsPresent(t *testing.T) {
	rec := &recordingRecorder{}
	h := NewHub(nil)
	h.AddListener(NewOTELBridge(rec))

	h.Emit(Event{Type: EventParseStart})
	rec.mu.Lock()
	if rec.histograms != 0 {
		t.Errorf("expected no histogram recordings without Metrics, got %d", rec.histograms)
	}
	rec.mu.Unlock()

	h.Emit(Event{Type: EventParseStage, Metrics: &StageMetrics{TimeMs: 12, Confidence: 0.9}})
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.histograms != 2 {
		t.Errorf("expected two histogram recordings (duration + confidence) when Metrics is set, got %d", rec.histograms)
	}
}
