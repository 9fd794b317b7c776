// Package options contains flags and options for initializing mongo-bench.
package options

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/mongosource/internal/bench"
	cliflag "github.com/kart-io/mongosource/pkg/app/cliflag"
	"github.com/kart-io/mongosource/pkg/infra/tracing"
	httpopts "github.com/kart-io/mongosource/pkg/options/http"
	logopts "github.com/kart-io/mongosource/pkg/options/logger"
	mongodbopts "github.com/kart-io/mongosource/pkg/options/mongodb"
)

// DefaultSource is the slot name used when none is configured.
const DefaultSource = "mongo"

// BenchOptions contains the configuration options for a run.
type BenchOptions struct {
	// MongoDBOptions describes the data source under test.
	MongoDBOptions *mongodbopts.Options `json:"mongodb" mapstructure:"mongodb"`

	// BenchOptions describes the load shape.
	BenchOptions *bench.Options `json:"bench" mapstructure:"bench"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// TracingOptions contains OpenTelemetry configuration.
	TracingOptions *tracing.Options `json:"tracing" mapstructure:"tracing"`

	// HTTPOptions contains the status server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`
}

// NewBenchOptions creates a BenchOptions instance with default values.
func NewBenchOptions() *BenchOptions {
	mongoOpts := mongodbopts.NewOptions()
	mongoOpts.Source = DefaultSource
	mongoOpts.Connection = "localhost:27017"

	return &BenchOptions{
		MongoDBOptions: mongoOpts,
		BenchOptions:   bench.NewOptions(),
		LogOptions:     logopts.NewOptions(),
		TracingOptions: tracing.NewOptions(),
		HTTPOptions:    httpopts.NewOptions(),
	}
}

// Flags returns flags for a specific section by name.
func (o *BenchOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.MongoDBOptions.AddFlags(fss.FlagSet("mongodb"))
	o.BenchOptions.AddFlags(fss.FlagSet("bench"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))

	return fss
}

// Complete completes all the required options.
func (o *BenchOptions) Complete() error {
	if err := o.MongoDBOptions.Complete(); err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}
	if err := o.BenchOptions.Complete(); err != nil {
		return fmt.Errorf("bench: %w", err)
	}
	if err := o.LogOptions.Complete(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := o.TracingOptions.Complete(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	if err := o.HTTPOptions.Complete(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	return nil
}

// Validate checks whether the options in BenchOptions are valid.
func (o *BenchOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.MongoDBOptions.Validate()...)
	errs = append(errs, o.BenchOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)
	errs = append(errs, o.HTTPOptions.Validate()...)

	return utilerrors.NewAggregate(errs)
}

// Config builds a bench.Config based on BenchOptions.
func (o *BenchOptions) Config() (*bench.Config, error) {
	return &bench.Config{
		MongoDB: o.MongoDBOptions,
		Tracing: o.TracingOptions,
		HTTP:    o.HTTPOptions,
		Bench:   o.BenchOptions,
	}, nil
}

// String returns a printable summary with the password redacted.
func (o *BenchOptions) String() string {
	b := o.BenchOptions
	return fmt.Sprintf("%s Bench{mode=%s, database=%s, workers=%d, iterations=%d, duration=%s}",
		o.MongoDBOptions, b.Mode, b.Database, b.Workers, b.Iterations, b.Duration)
}
