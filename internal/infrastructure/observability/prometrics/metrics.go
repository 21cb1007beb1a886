package prometrics

import (
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

type counter struct{ v *prometheus.CounterVec }

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.With(labelMap(labels)).Add(d)
}

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.With(labelMap(labels)).Observe(v)
}

func labelMap(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}

type metrics struct {
	counters   map[observability.MetricKey]*counter
	histograms map[observability.MetricKey]*histogram
}

func (m *metrics) Counter(name observability.MetricKey) observability.Counter {
	if c, ok := m.counters[name]; ok {
		return c
	}
	return observability.NopCounter()
}

func (m *metrics) Histogram(name observability.MetricKey) observability.Histogram {
	if h, ok := m.histograms[name]; ok {
		return h
	}
	return observability.NopHistogram()
}

// Register creates every instrument in observability.Counters and
// observability.Histograms on reg. Unknown keys resolve to no-ops.
func Register(reg prometheus.Registerer, namespace string) (observability.Metrics, error) {
	m := &metrics{
		counters:   make(map[observability.MetricKey]*counter, len(observability.Counters)),
		histograms: make(map[observability.MetricKey]*histogram, len(observability.Histograms)),
	}
	for _, def := range observability.Counters {
		cv := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: string(def.Key), Help: def.Help,
		}, def.Labels)
		if err := reg.Register(cv); err != nil {
			return nil, err
		}
		m.counters[def.Key] = &counter{v: cv}
	}
	for _, def := range observability.Histograms {
		hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: string(def.Key), Help: def.Help, Buckets: prometheus.DefBuckets,
		}, def.Labels)
		if err := reg.Register(hv); err != nil {
			return nil, err
		}
		m.histograms[def.Key] = &histogram{v: hv}
	}
	return m, nil
}
