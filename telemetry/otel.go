package telemetry

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// otelAdapter implements MetricRecorder on top of an OTEL meter, grounded
// on gomind's telemetry/metrics_otel.go counter/histogram wrapper style.
type otelAdapter struct {
	counters   map[string]metric.Float64Counter
	histograms map[string]metric.Float64Histogram
	meter      metric.Meter
}

// NewOTELAdapter builds a MetricRecorder backed by meter, lazily creating
// one counter/histogram instrument per metric name on first use.
func NewOTELAdapter(meter metric.Meter) MetricRecorder {
	return &otelAdapter{
		counters:   make(map[string]metric.Float64Counter),
		histograms: make(map[string]metric.Float64Histogram),
		meter:      meter,
	}
}

func (a *otelAdapter) IncrCounter(ctx context.Context, name string, labels map[string]string) {
	c, ok := a.counters[name]
	if !ok {
		var err error
		c, err = a.meter.Float64Counter(name)
		if err != nil {
			return
		}
		a.counters[name] = c
	}
	c.Add(ctx, 1, metric.WithAttributes(toAttributes(labels)...))
}

func (a *otelAdapter) RecordHistogram(ctx context.Context, name string, value float64, labels map[string]string) {
	h, ok := a.histograms[name]
	if !ok {
		var err error
		h, err = a.meter.Float64Histogram(name)
		if err != nil {
			return
		}
		a.histograms[name] = h
	}
	h.Record(ctx, value, metric.WithAttributes(toAttributes(labels)...))
}

// toAttributes converts a label map into a deterministically-ordered
// attribute slice so repeated emissions with the same labels produce
// identical attribute sets (cardinality hygiene, per gomind's
// telemetry/cardinality.go philosophy of bounded, stable label sets).
func toAttributes(labels map[string]string) []attribute.KeyValue {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, attribute.String(k, labels[k]))
	}
	return attrs
}
