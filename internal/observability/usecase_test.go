package observability

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type recordingCounter struct {
	mu     sync.Mutex
	labels [][]Label
}

func (c *recordingCounter) Add(_ float64, labels ...Label) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels = append(c.labels, labels)
}

type recordingMetrics struct {
	counters map[MetricKey]*recordingCounter
}

func (m *recordingMetrics) Counter(k MetricKey) Counter {
	if c, ok := m.counters[k]; ok {
		return c
	}
	return NopCounter()
}

func (m *recordingMetrics) Histogram(MetricKey) Histogram { return NopHistogram() }

type testTel struct{ m *recordingMetrics }

func (t testTel) Tracer() Tracer   { return NopTracer() }
func (t testTel) Logger() Logger   { return NopLogger() }
func (t testTel) Metrics() Metrics { return t.m }

func TestRunRecordsOutcome(t *testing.T) {
	req := &recordingCounter{}
	tel := testTel{m: &recordingMetrics{counters: map[MetricKey]*recordingCounter{MUsecaseRequests: req}}}

	ctx, run := BeginUseCase(context.Background(), tel, nil, "checkout.create", "Checkout")
	run.End(ctx, nil)

	ctx, run = BeginUseCase(context.Background(), tel, nil, "checkout.create", "Checkout")
	run.End(ctx, errors.New("boom"))

	if len(req.labels) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(req.labels))
	}
	if got := req.labels[0][1].Value; got != "success" {
		t.Fatalf("first outcome = %s", got)
	}
	if got := req.labels[1][1].Value; got != "error" {
		t.Fatalf("second outcome = %s", got)
	}
}
