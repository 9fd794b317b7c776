package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kart-io/mongosource/pkg/component/storage"
	"github.com/kart-io/mongosource/pkg/errors"
)

// healthTimeout bounds the ping made by Health.
const healthTimeout = 3 * time.Second

// Ping checks that a primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return errors.ErrNotConnected.WithMessagef("mongodb source %q is closed", c.source)
	}
	return c.client.Ping(ctx, readpref.Primary())
}

// Health returns a HealthChecker function for MongoDB health monitoring.
func (c *Client) Health() storage.HealthChecker {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()
		return c.Ping(ctx)
	}
}
