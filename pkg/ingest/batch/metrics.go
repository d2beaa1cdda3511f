package batch

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes load counters. A nil *Metrics is safe to use and records
// nothing, so instrumentation stays optional.
type Metrics struct {
	records *prometheus.CounterVec
	chunks  *prometheus.CounterVec
}

// NewMetrics creates and registers load counters with the given registry.
func NewMetrics(namespace string, reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "load",
			Name:      "records_total",
			Help:      "Records processed by the loader, by outcome",
		}, []string{"outcome"}),
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "load",
			Name:      "chunks_total",
			Help:      "Chunks dispatched by the loader, by final state",
		}, []string{"state"}),
	}

	for _, c := range []prometheus.Collector{m.records, m.chunks} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) addRecords(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.records.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) addChunk(state ChunkState) {
	if m == nil {
		return
	}
	m.chunks.WithLabelValues(string(state)).Inc()
}
