// Package pool runs bench operations and health checks on ants worker
// pools and keeps per-pool task counters.
package pool

import "errors"

var (
	// ErrPoolClosed is returned by Submit after Release.
	ErrPoolClosed = errors.New("pool: closed")

	// ErrInvalidPoolConfig rejects a nil config or a non-positive capacity.
	ErrInvalidPoolConfig = errors.New("pool: invalid config")

	// ErrPoolOverload is returned when a non-blocking pool has no free worker.
	ErrPoolOverload = errors.New("pool: no free worker")
)
