// Package bench drives load through a MongoDB data source.
//
// A run starts the source, optionally pings it, lets a fixed number of
// workers repeat one command or query through mongodb.Resolve, and stops
// the source again. The outcome is written as a JSON Report.
package bench

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kart-io/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	mongoclient "github.com/kart-io/mongosource/pkg/component/mongodb"
	"github.com/kart-io/mongosource/pkg/component/storage"
	"github.com/kart-io/mongosource/pkg/errors"
	"github.com/kart-io/mongosource/pkg/infra/datasource"
	"github.com/kart-io/mongosource/pkg/infra/pool"
	statushttp "github.com/kart-io/mongosource/pkg/infra/server/http"
	"github.com/kart-io/mongosource/pkg/infra/tracing"
	"github.com/kart-io/mongosource/pkg/mongodb"
	httpopts "github.com/kart-io/mongosource/pkg/options/http"
	mongodbopts "github.com/kart-io/mongosource/pkg/options/mongodb"
)

// shutdownTimeout bounds tracer flushing at the end of a run.
const shutdownTimeout = 5 * time.Second

// Config contains everything one run needs.
type Config struct {
	MongoDB *mongodbopts.Options
	Tracing *tracing.Options
	HTTP    *httpopts.Options
	Bench   *Options
}

// Bench runs one load test.
type Bench struct {
	cfg        *Config
	runID      string
	out        io.Writer
	registry   *prometheus.Registry
	metrics    *metrics
	healthPool *pool.Pool
	store      *storage.Manager
	sources    *datasource.Manager
	clientOpts []mongoclient.Option
}

// Option configures a Bench.
type Option func(*Bench)

// WithOutput sets where the report goes when no output file is configured.
func WithOutput(w io.Writer) Option {
	return func(b *Bench) {
		b.out = w
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(b *Bench) {
		if id != "" {
			b.runID = id
		}
	}
}

// WithClientOptions passes options to the MongoDB client builder.
func WithClientOptions(opts ...mongoclient.Option) Option {
	return func(b *Bench) {
		b.clientOpts = append(b.clientOpts, opts...)
	}
}

// New wires a run. Call Close when done.
func New(cfg *Config, opts ...Option) (*Bench, error) {
	if cfg == nil || cfg.MongoDB == nil || cfg.Bench == nil {
		return nil, errors.ErrInvalidOptions.WithMessage("bench config requires mongodb and bench options")
	}
	if cfg.Tracing == nil {
		cfg.Tracing = tracing.NewOptions()
	}
	if cfg.HTTP == nil {
		cfg.HTTP = httpopts.NewOptions()
	}

	b := &Bench{
		cfg:      cfg,
		runID:    NewRunID(),
		out:      os.Stdout,
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	collector, err := mongoclient.NewPrometheusCollector(b.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register mongodb metrics: %w", err)
	}
	if b.metrics, err = newMetrics(b.registry, cfg.Bench.Mode); err != nil {
		return nil, fmt.Errorf("failed to register bench metrics: %w", err)
	}

	b.healthPool, err = pool.NewPool("health-check", pool.HealthCheckPool, pool.HealthCheckPoolConfig())
	if err != nil {
		return nil, err
	}

	b.store = storage.NewManager(storage.WithHealthCheckPool(b.healthPool))
	clientOpts := append([]mongoclient.Option{mongoclient.WithCollector(collector)}, b.clientOpts...)
	b.sources = datasource.NewManager(b.store, datasource.WithClientOptions(clientOpts...))

	return b, nil
}

// RunID returns the id attached to logs and the report.
func (b *Bench) RunID() string {
	return b.runID
}

// Registry returns the metrics registry of the run.
func (b *Bench) Registry() *prometheus.Registry {
	return b.registry
}

// Store returns the run context the source is published in.
func (b *Bench) Store() *storage.Manager {
	return b.store
}

// Run executes the load test and writes the report.
func (b *Bench) Run(ctx context.Context) (*Report, error) {
	o := b.cfg.Bench
	source := b.cfg.MongoDB.Source

	tp, err := tracing.NewProvider(ctx, b.cfg.Tracing)
	if err != nil {
		return nil, err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(sctx); err != nil {
			logger.Warnw("failed to shut down tracer provider", "error", err)
		}
	}()

	if b.cfg.HTTP.Enabled {
		srv := statushttp.NewServer(b.cfg.HTTP,
			statushttp.WithGatherer(b.registry),
			statushttp.WithHealthSource(b.store),
		)
		if err := srv.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start status server: %w", err)
		}
		defer func() {
			if err := srv.Stop(context.Background()); err != nil {
				logger.Warnw("failed to stop status server", "error", err)
			}
		}()
	}

	if err := b.sources.Start(ctx, source, b.cfg.MongoDB); err != nil {
		return nil, err
	}
	defer func() {
		_ = b.sources.Stop(context.Background(), source)
	}()

	if o.HealthCheck {
		st := b.store.HealthCheck(ctx, source)
		if !st.Healthy {
			return nil, fmt.Errorf("mongodb source %s is not healthy: %w", source, st.Error)
		}
		logger.Infow("mongodb source is healthy", "source", source, "latency", st.Latency.String())
	}

	runner, err := NewRunner(o, WithObserver(b.metrics.observe))
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	logger.Infow("bench started",
		"source", source,
		"mode", string(o.Mode),
		"workers", o.Workers,
		"iterations", o.Iterations,
		"duration", o.Duration.String(),
	)

	rec, runErr := runner.Run(ctx, b.operation(source))
	report := newReport(b.runID, source, o, rec, runner.Stats())
	if runErr != nil {
		return report, runErr
	}

	logger.Infow("bench finished",
		"operations", report.Operations,
		"failed", report.Failed,
		"throughput", report.Throughput,
		"p99_ms", report.Latency.P99,
	)

	if err := writeReport(report, o.Output, b.out); err != nil {
		return report, err
	}
	return report, nil
}

// operation resolves the database on every call, like a sampler would.
func (b *Bench) operation(source string) Op {
	o := b.cfg.Bench

	if o.Mode == ModeQuery {
		var filter any
		if o.Filter != "" {
			filter = o.Filter
		}
		queryOpts := []mongodb.QueryOption{
			mongodb.WithBatchSize(o.BatchSize),
			mongodb.WithLimit(o.Limit),
		}
		return func(ctx context.Context) error {
			db, err := mongodb.Resolve(b.store, source, o.Database)
			if err != nil {
				return err
			}
			_, err = mongodb.RunQuery(ctx, db.Collection(o.Collection), filter, queryOpts...)
			return err
		}
	}

	return func(ctx context.Context) error {
		db, err := mongodb.Resolve(b.store, source, o.Database)
		if err != nil {
			return err
		}
		_, err = mongodb.RunCommand(ctx, db, o.Command)
		return err
	}
}

// Close stops any source still published and releases the health check pool.
func (b *Bench) Close() {
	if err := b.sources.StopAll(context.Background()); err != nil {
		logger.Warnw("failed to stop mongodb sources", "error", err)
	}
	b.healthPool.Release()
}
