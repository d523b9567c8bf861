package store

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "hubstore"

type metrics struct {
	operations  *prometheus.CounterVec
	failures    *prometheus.CounterVec
	scanEntries *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operations_total",
			Help:      "Storage operations by kind.",
		}, []string{"op"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operation_errors_total",
			Help:      "Failed storage operations by kind and error code.",
		}, []string{"op", "code"}),
		scanEntries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "scan_entries",
			Help:      "Entries handed to the visitor per scan.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"kind"}),
	}

	for _, c := range []prometheus.Collector{m.operations, m.failures, m.scanEntries} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register storage metrics")
		}
	}
	return m, nil
}

// observe records one operation and its outcome. It is nil-safe.
func (m *metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op).Inc()
	if err != nil {
		m.failures.WithLabelValues(op, string(CodeOf(err))).Inc()
	}
}

func (m *metrics) observeScan(kind string, visited int) {
	if m == nil {
		return
	}
	m.scanEntries.WithLabelValues(kind).Observe(float64(visited))
}
