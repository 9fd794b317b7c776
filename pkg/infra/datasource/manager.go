// Package datasource manages the lifecycle of named MongoDB data sources.
//
// A data source is started once per test run, published into a
// storage.Manager under its name and stopped at teardown:
//
//	store := storage.NewManager()
//	mgr := datasource.NewManager(store)
//
//	opts := mongodbopts.NewOptions()
//	opts.Source = "mongo"
//	opts.Connection = "db1:27017,db2:27017"
//	if err := mgr.Start(ctx, "mongo", opts); err != nil {
//	    return err
//	}
//	defer mgr.Stop(ctx, "mongo")
//
// Samplers then look the client up through pkg/mongodb.Resolve.
package datasource

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/kart-io/logger"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/mongosource/pkg/component/mongodb"
	"github.com/kart-io/mongosource/pkg/component/storage"
	"github.com/kart-io/mongosource/pkg/errors"
	mongodbopts "github.com/kart-io/mongosource/pkg/options/mongodb"
)

// DefaultTeardownTimeout bounds the disconnect done by Stop.
const DefaultTeardownTimeout = 10 * time.Second

// Manager starts and stops data sources in a storage.Manager.
// A name moves Unpublished -> Published -> Unpublished; Start on a
// published name keeps the existing client.
type Manager struct {
	store           *storage.Manager
	teardownTimeout time.Duration
	clientOptions   []mongodb.Option
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTeardownTimeout sets the disconnect timeout used by Stop and StopAll.
func WithTeardownTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.teardownTimeout = d
	}
}

// WithClientOptions passes options to every mongodb.New call.
func WithClientOptions(opts ...mongodb.Option) ManagerOption {
	return func(m *Manager) {
		m.clientOptions = append(m.clientOptions, opts...)
	}
}

// NewManager creates a manager publishing into store.
// A nil store gets a fresh storage.Manager.
func NewManager(store *storage.Manager, opts ...ManagerOption) *Manager {
	if store == nil {
		store = storage.NewManager()
	}
	m := &Manager{
		store:           store,
		teardownTimeout: DefaultTeardownTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the run context the manager publishes into.
func (m *Manager) Store() *storage.Manager {
	return m.store
}

// Start builds a client from opts and publishes it under name.
//
// If name is already published, Start logs a warning and returns nil
// without touching the existing client. An endpoint that does not resolve
// fails with ErrUnresolvableEndpoint and nothing is published.
func (m *Manager) Start(ctx context.Context, name string, opts *mongodbopts.Options) error {
	if m.store.Has(name) {
		logger.Warnw(name+" has already been defined", "source", name)
		return nil
	}
	if opts == nil {
		return errors.ErrInvalidOptions.WithMessagef("mongodb source %q has no options", name)
	}

	// The slot name is the source name for the client, its metrics and
	// its errors.
	o := *opts
	if o.Source != "" && o.Source != name {
		logger.Warnw("mongodb options name another source, using the slot name",
			"source", name,
			"options_source", o.Source,
		)
	}
	o.Source = name
	if err := o.Complete(); err != nil {
		return errors.ErrInvalidOptions.WithMessagef("invalid mongodb source %q", name).WithCause(err)
	}
	if errs := o.Validate(); len(errs) > 0 {
		return errors.ErrInvalidOptions.
			WithMessagef("invalid mongodb source %q", name).
			WithCause(utilerrors.NewAggregate(errs))
	}

	logger.Debugw("mongodb source options", "source", name, "options", o.String())
	logger.Debugw(name+" is being defined", "source", name)

	client, err := mongodb.New(ctx, &o, m.clientOptions...)
	if err != nil {
		return err
	}

	if err := m.store.Register(name, client); err != nil {
		closeCtx, cancel := createTimeoutContext(ctx, m.teardownTimeout)
		defer cancel()
		_ = client.Close(closeCtx)

		if stderrors.Is(err, storage.ErrClientAlreadyExists) {
			logger.Warnw(name+" has already been defined", "source", name)
			return nil
		}
		return err
	}

	logger.Infow("mongodb source started",
		"source", name,
		"addresses", client.Addresses(),
	)
	return nil
}

// Stop disconnects the client published under name and clears the slot.
// It is a no-op when nothing is published. The slot is cleared even if
// the disconnect fails; that error is returned.
func (m *Manager) Stop(ctx context.Context, name string) error {
	client, ok := m.store.Take(name)
	if !ok {
		logger.Debugw("no mongodb source to clear", "source", name)
		return nil
	}

	logger.Debugw("clearing "+name, "source", name)

	closeCtx, cancel := createTimeoutContext(ctx, m.teardownTimeout)
	defer cancel()

	if err := client.Close(closeCtx); err != nil {
		logger.Warnw("failed to disconnect mongodb source",
			"source", name,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

// StopAll stops every published source.
func (m *Manager) StopAll(ctx context.Context) error {
	closeCtx, cancel := createTimeoutContext(ctx, m.teardownTimeout)
	defer cancel()
	return m.store.CloseAll(closeCtx)
}

// createTimeoutContext applies timeout unless the parent expires sooner.
func createTimeoutContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return parent, func() {}
	}
	if deadline, ok := parent.Deadline(); ok && time.Until(deadline) < timeout {
		return parent, func() {}
	}
	return context.WithTimeout(parent, timeout)
}
