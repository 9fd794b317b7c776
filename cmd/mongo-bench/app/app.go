// Package app provides the mongo-bench application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/logger"
	"github.com/spf13/viper"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/mongosource/cmd/mongo-bench/app/options"
	"github.com/kart-io/mongosource/internal/bench"
	"github.com/kart-io/mongosource/pkg/infra/app"
	"github.com/kart-io/mongosource/pkg/infra/config"
	logopts "github.com/kart-io/mongosource/pkg/options/logger"
)

const (
	// Name is the name of the application.
	Name = "mongo-bench"

	// commandDesc is the description of the command.
	commandDesc = `mongo-bench drives load through a MongoDB data source.

The source is started once and shared by every worker. Each operation
resolves the database from the source, then runs a command or a query
and drains its cursor. A JSON report is written when the run ends.

Examples:
  # Ping a local server 10000 times from 16 workers
  mongo-bench --bench.workers=16 --bench.iterations=10000

  # Query a replica set for one minute
  mongo-bench --mongodb.connection=db1:27017,db2:27017 \
    --bench.mode=query --bench.collection=orders \
    --bench.filter='{"status": "A"}' --bench.duration=1m

  # Use config file and expose /metrics while running
  mongo-bench -c bench.yaml --http.enabled

Editing the log section of the config file during a run re-initializes
the logger.

Configuration:
  Configuration can be provided via:
  - Command-line flags (highest priority)
  - Environment variables (prefix: MONGO_BENCH_)
  - Configuration file (YAML)
  - Default values (lowest priority)`
)

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewBenchOptions()
	var a *app.App
	a = app.NewApp(
		app.WithName(Name),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(func() error {
			return run(opts, a.Viper())
		}),
	)
	return a
}

// run contains the main logic for initializing and running a bench.
func run(opts *options.BenchOptions, v *viper.Viper) error {
	cfg, err := opts.Config()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	runID := bench.NewRunID()
	fields := logFields(runID)
	if _, err := opts.LogOptions.Init(fields); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	b, err := bench.New(cfg, bench.WithRunID(runID))
	if err != nil {
		return err
	}
	defer b.Close()
	logger.Debugw("bench options", "options", opts.String())

	watcher := config.NewWatcher(v)
	watcher.Subscribe("log", config.Section("log", logopts.NewOptions, reloadLogger(fields)))
	watcher.Start()
	defer watcher.Stop()

	ctx := setupSignalContext()
	if _, err := b.Run(ctx); err != nil {
		return err
	}
	return nil
}

// logFields are attached to every log entry of a run.
func logFields(runID string) map[string]interface{} {
	return map[string]interface{}{
		"service.name":    Name,
		"service.version": app.GetVersion(),
		"run.id":          runID,
	}
}

// reloadLogger replaces the global logger when the log section changes.
// An invalid section keeps the current logger.
func reloadLogger(fields map[string]interface{}) func(*logopts.Options) error {
	return func(next *logopts.Options) error {
		if err := next.Complete(); err != nil {
			return err
		}
		if errs := next.Validate(); len(errs) > 0 {
			return utilerrors.NewAggregate(errs)
		}
		if _, err := next.Init(fields); err != nil {
			return err
		}
		logger.Infow("logger reloaded", "level", next.Level, "format", next.Format)
		return nil
	}
}

// setupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
// A second signal exits immediately.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
