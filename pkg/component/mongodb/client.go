package mongodb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kart-io/logger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kart-io/mongosource/pkg/component/storage"
	"github.com/kart-io/mongosource/pkg/errors"
	mongodbopts "github.com/kart-io/mongosource/pkg/options/mongodb"
)

// Client wraps mongo.Client with storage.Client interface implementation.
// One Client is published per source name; its pool is shared by every
// sampler that resolves the source.
//
// Example usage:
//
//	opts := mongodbopts.NewOptions()
//	opts.Source = "mongo"
//	opts.Connection = "db1:27017,db2:27017"
//
//	client, err := New(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	db, err := client.Database("perf")
type Client struct {
	client *mongo.Client
	source string
	addrs  []string

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

var _ storage.Client = (*Client)(nil)

// New builds a client from the descriptor.
//
// Every endpoint must resolve, otherwise ErrUnresolvableEndpoint is
// returned. The driver connects lazily, so New does not wait for a server.
func New(ctx context.Context, opts *mongodbopts.Options, options ...Option) (*Client, error) {
	if opts == nil {
		return nil, errors.ErrInvalidOptions.WithMessage("mongodb options cannot be nil")
	}
	cfg := newBuildConfig(options)

	clientOpts, addrs, err := BuildClientOptions(opts)
	if err != nil {
		return nil, err
	}

	if err := ResolveEndpoints(ctx, cfg.resolver, addrs); err != nil {
		return nil, err
	}

	for _, setting := range opts.UnsupportedSettings() {
		logger.Warnw("mongodb setting has no driver equivalent and is ignored",
			"source", opts.Source,
			"setting", setting,
		)
	}

	if cfg.collector != nil {
		clientOpts.SetPoolMonitor(newPoolMonitor(opts.Source, cfg.collector))
		clientOpts.SetMonitor(newCommandMonitor(opts.Source, cfg.collector))
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	return &Client{
		client: client,
		source: opts.Source,
		addrs:  addrs,
	}, nil
}

// Name returns the storage type identifier.
func (c *Client) Name() string {
	return "mongodb"
}

// Source returns the name the client was built for.
func (c *Client) Source() string {
	return c.source
}

// Addresses returns the server addresses from the connection string.
func (c *Client) Addresses() []string {
	out := make([]string, len(c.addrs))
	copy(out, c.addrs)
	return out
}

// Database returns a handle to the named database.
// It fails with ErrNotConnected once the client is closed.
func (c *Client) Database(name string) (*mongo.Database, error) {
	if c.closed.Load() {
		return nil, errors.ErrNotConnected.WithMessagef("mongodb source %q is closed", c.source)
	}
	return c.client.Database(name), nil
}

// Raw returns the underlying mongo.Client.
func (c *Client) Raw() *mongo.Client {
	return c.client
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	return c.closed.Load()
}

// Close disconnects the client. Later calls return the first result.
func (c *Client) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeErr = c.client.Disconnect(ctx)
	})
	return c.closeErr
}
