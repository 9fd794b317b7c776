package storage

import (
	"context"
	"time"
)

// Client is the base interface for every published data source client.
type Client interface {
	// Name returns the backend type, e.g. "mongodb".
	Name() string

	// Ping performs a lightweight round trip to the backend.
	Ping(ctx context.Context) error

	// Close releases the client. It must be safe to call more than once.
	Close(ctx context.Context) error

	// Health returns a checker bound to the client.
	Health() HealthChecker
}

// HealthChecker checks a client with its own timeout.
type HealthChecker func() error

// HealthStatus is the result of one health check.
type HealthStatus struct {
	Name    string        `json:"name"`
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
	Error   error         `json:"-"`
}
