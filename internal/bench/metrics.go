package bench

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics exposes live progress of a run.
type metrics struct {
	operations *prometheus.CounterVec
	duration   prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer, mode Mode) (*metrics, error) {
	m := &metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "mongobench_operations_total",
			Help:        "Operations finished by the bench workers.",
			ConstLabels: prometheus.Labels{"mode": string(mode)},
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "mongobench_operation_duration_seconds",
			Help:        "Latency of bench operations, including source resolution.",
			ConstLabels: prometheus.Labels{"mode": string(mode)},
			Buckets:     prometheus.ExponentialBuckets(0.0005, 2, 16),
		}),
	}

	for _, c := range []prometheus.Collector{m.operations, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) observe(d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.operations.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}
