package bench

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/mongosource/pkg/mongodb"
	"github.com/kart-io/mongosource/pkg/options"
)

// Mode selects the operation every worker repeats.
type Mode string

const (
	// ModeCommand runs a database command.
	ModeCommand Mode = "command"
	// ModeQuery runs a find and drains the cursor.
	ModeQuery Mode = "query"
)

var _ options.IOptions = (*Options)(nil)

// Options describes the load shape of one run.
type Options struct {
	Database   string `json:"database" mapstructure:"database"`
	Collection string `json:"collection" mapstructure:"collection"`
	Mode       Mode   `json:"mode" mapstructure:"mode"`
	// Command is the JSON command document used in command mode.
	Command string `json:"command" mapstructure:"command"`
	// Filter is the JSON filter used in query mode. Empty matches everything.
	Filter    string `json:"filter" mapstructure:"filter"`
	Limit     int64  `json:"limit" mapstructure:"limit"`
	BatchSize int32  `json:"batch-size" mapstructure:"batch-size"`

	Workers int `json:"workers" mapstructure:"workers"`
	// Iterations is the total number of operations across all workers.
	Iterations int `json:"iterations" mapstructure:"iterations"`
	// Duration stops the run after the given time. Either bound may be zero,
	// but not both.
	Duration time.Duration `json:"duration" mapstructure:"duration"`
	// OpTimeout bounds a single operation. Zero leaves it to the client.
	OpTimeout time.Duration `json:"op-timeout" mapstructure:"op-timeout"`

	// HealthCheck pings the source before the workers start.
	HealthCheck bool `json:"health-check" mapstructure:"health-check"`
	// Output is the report path. Empty or "-" writes to stdout.
	Output string `json:"output" mapstructure:"output"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Database:   "test",
		Mode:       ModeCommand,
		Command:    `{"ping": 1}`,
		BatchSize:  mongodb.DefaultBatchSize,
		Workers:    8,
		Iterations: 1000,
	}
}

// AddFlags adds flags for bench options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "bench."

	fs.StringVar(&o.Database, p+"database", o.Database, "Database resolved from the source.")
	fs.StringVar(&o.Collection, p+"collection", o.Collection, "Collection queried in query mode.")
	fs.StringVar((*string)(&o.Mode), p+"mode", string(o.Mode), "Operation to repeat (command|query).")
	fs.StringVar(&o.Command, p+"command", o.Command, "JSON command document for command mode.")
	fs.StringVar(&o.Filter, p+"filter", o.Filter, "JSON filter for query mode.")
	fs.Int64Var(&o.Limit, p+"limit", o.Limit, "Maximum documents per query (0 means all).")
	fs.Int32Var(&o.BatchSize, p+"batch-size", o.BatchSize, "Cursor batch size for query mode.")
	fs.IntVar(&o.Workers, p+"workers", o.Workers, "Number of concurrent workers.")
	fs.IntVar(&o.Iterations, p+"iterations", o.Iterations, "Total operations across all workers (0 means until duration).")
	fs.DurationVar(&o.Duration, p+"duration", o.Duration, "Stop the run after this long (0 means until iterations).")
	fs.DurationVar(&o.OpTimeout, p+"op-timeout", o.OpTimeout, "Timeout of a single operation (0 leaves it to the client).")
	fs.BoolVar(&o.HealthCheck, p+"health-check", o.HealthCheck, "Ping the source before starting the workers.")
	fs.StringVar(&o.Output, p+"output", o.Output, "Report file, '-' or empty for stdout.")
}

// Validate checks the load shape.
func (o *Options) Validate() []error {
	var errs []error

	if o.Database == "" {
		errs = append(errs, fmt.Errorf("bench.database cannot be empty"))
	}
	switch o.Mode {
	case ModeCommand:
		if o.Command == "" {
			errs = append(errs, fmt.Errorf("bench.command cannot be empty in command mode"))
		}
	case ModeQuery:
		if o.Collection == "" {
			errs = append(errs, fmt.Errorf("bench.collection cannot be empty in query mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("bench.mode must be 'command' or 'query', got %q", o.Mode))
	}
	if o.Workers < 1 {
		errs = append(errs, fmt.Errorf("bench.workers must be at least 1, got %d", o.Workers))
	}
	for name, v := range map[string]int64{
		"iterations": int64(o.Iterations),
		"duration":   int64(o.Duration),
		"op-timeout": int64(o.OpTimeout),
		"limit":      o.Limit,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("bench.%s cannot be negative", name))
		}
	}
	if o.Iterations == 0 && o.Duration == 0 {
		errs = append(errs, fmt.Errorf("one of bench.iterations and bench.duration must be set"))
	}

	return errs
}

// Complete fills values that depend on the mode.
func (o *Options) Complete() error {
	if o.BatchSize <= 0 {
		o.BatchSize = mongodb.DefaultBatchSize
	}
	return nil
}
