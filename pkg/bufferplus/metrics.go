package bufferplus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics instruments schema builds and encode/decode traffic for a
// Registry. With a nil registerer the collectors exist but are never exported.
type metrics struct {
	builds     *prometheus.CounterVec
	operations *prometheus.CounterVec
	bytes      *prometheus.CounterVec
	failures   *prometheus.CounterVec
}

func newMetrics(r prometheus.Registerer, name string) *metrics {
	if r != nil {
		if name == "" {
			name = "default"
		}
		r = prometheus.WrapRegistererWith(prometheus.Labels{"registry": name}, r)
	}
	return &metrics{
		builds: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "bufferplus_schema_builds_total",
			Help: "Total number of schema compilations.",
		}, []string{"schema"}),
		operations: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "bufferplus_schema_operations_total",
			Help: "Total number of schema encode and decode calls.",
		}, []string{"schema", "op"}),
		bytes: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "bufferplus_schema_bytes_total",
			Help: "Total number of bytes encoded or decoded by schemas.",
		}, []string{"op"}),
		failures: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "bufferplus_schema_failures_total",
			Help: "Total number of failed schema operations by error class.",
		}, []string{"op", "class"}),
	}
}

// observe records one encode or decode call of n bytes.
func (m *metrics) observe(schema, op string, n int, err error) {
	m.operations.WithLabelValues(schema, op).Inc()
	if err != nil {
		m.failures.WithLabelValues(op, errorClass(err)).Inc()
		return
	}
	m.bytes.WithLabelValues(op).Add(float64(n))
}
