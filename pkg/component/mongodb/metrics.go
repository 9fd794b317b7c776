package mongodb

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/event"
)

// Collector receives driver events for one source.
//
// Hooks run inline with the driver's pool and command paths, so
// implementations must be cheap.
type Collector interface {
	PoolEvent(source string, evt *event.PoolEvent)
	CommandFinished(source, command string, duration time.Duration, failed bool)
}

type noopCollector struct{}

// NoopCollector returns a collector that discards all events.
func NoopCollector() Collector {
	return noopCollector{}
}

func (noopCollector) PoolEvent(string, *event.PoolEvent)                  {}
func (noopCollector) CommandFinished(string, string, time.Duration, bool) {}

// PrometheusCollector exposes pool and command metrics via Prometheus.
type PrometheusCollector struct {
	checkedOut      *prometheus.GaugeVec
	poolEvents      *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
}

// NewPrometheusCollector registers the metrics with reg, reusing metrics
// that are already registered there.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	checkedOut, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mongosource_pool_connections_checked_out",
		Help: "Connections currently checked out of the pool.",
	}, []string{"source"}))
	if err != nil {
		return nil, err
	}

	poolEvents, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mongosource_pool_events_total",
		Help: "Connection pool events by type.",
	}, []string{"source", "type"}))
	if err != nil {
		return nil, err
	}

	commandDuration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mongosource_command_duration_seconds",
		Help:    "Duration of commands sent to the server.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16),
	}, []string{"source", "command", "outcome"}))
	if err != nil {
		return nil, err
	}

	return &PrometheusCollector{
		checkedOut:      checkedOut,
		poolEvents:      poolEvents,
		commandDuration: commandDuration,
	}, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return c, err
		}
		existing, ok := already.ExistingCollector.(T)
		if !ok {
			return c, err
		}
		return existing, nil
	}
	return c, nil
}

// PoolEvent counts the event and tracks checked out connections.
func (p *PrometheusCollector) PoolEvent(source string, evt *event.PoolEvent) {
	if p == nil || evt == nil {
		return
	}
	p.poolEvents.WithLabelValues(source, evt.Type).Inc()

	switch evt.Type {
	case event.GetSucceeded:
		p.checkedOut.WithLabelValues(source).Inc()
	case event.ConnectionReturned:
		p.checkedOut.WithLabelValues(source).Dec()
	case event.PoolCleared, event.PoolClosedEvent:
		p.checkedOut.WithLabelValues(source).Set(0)
	}
}

// CommandFinished observes the command duration.
func (p *PrometheusCollector) CommandFinished(source, command string, duration time.Duration, failed bool) {
	if p == nil {
		return
	}
	outcome := "success"
	if failed {
		outcome = "failure"
	}
	p.commandDuration.WithLabelValues(source, command, outcome).Observe(duration.Seconds())
}
