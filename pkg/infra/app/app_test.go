package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/mongosource/pkg/app/cliflag"
	logopts "github.com/kart-io/mongosource/pkg/options/logger"
)

type benchSection struct {
	Workers  int      `mapstructure:"workers"`
	Database string   `mapstructure:"database"`
	Tags     []string `mapstructure:"tags"`
}

type testOptions struct {
	Bench benchSection `mapstructure:"bench"`

	completed   bool
	validateErr error
}

func newTestOptions() *testOptions {
	return &testOptions{Bench: benchSection{Workers: 8, Database: "test"}}
}

func (o *testOptions) Flags() (fss cliflag.NamedFlagSets) {
	fs := fss.FlagSet("bench")
	fs.IntVar(&o.Bench.Workers, "bench.workers", o.Bench.Workers, "Concurrent workers.")
	fs.StringVar(&o.Bench.Database, "bench.database", o.Bench.Database, "Database name.")
	fs.StringSliceVar(&o.Bench.Tags, "bench.tags", o.Bench.Tags, "Report tags.")
	return fss
}

func (o *testOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *testOptions) Validate() error {
	return o.validateErr
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, opts *testOptions, args ...string) error {
	t.Helper()
	a := NewApp(
		WithName("apptest"),
		WithOptions(opts),
		WithNoVersion(),
		WithSilence(),
	)
	cmd := a.Command()
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func TestApp_Defaults(t *testing.T) {
	opts := newTestOptions()
	require.NoError(t, execute(t, opts))

	assert.True(t, opts.completed)
	assert.Equal(t, 8, opts.Bench.Workers)
	assert.Equal(t, "test", opts.Bench.Database)
}

func TestApp_ConfigFile(t *testing.T) {
	path := writeConfig(t, `
bench:
  workers: 32
  database: perf
  tags: [a, b]
`)

	opts := newTestOptions()
	require.NoError(t, execute(t, opts, "-c", path))

	assert.Equal(t, 32, opts.Bench.Workers)
	assert.Equal(t, "perf", opts.Bench.Database)
	assert.Equal(t, []string{"a", "b"}, opts.Bench.Tags)
}

func TestApp_FlagsWinOverConfig(t *testing.T) {
	path := writeConfig(t, `
bench:
  workers: 32
  database: perf
  tags: [a, b]
`)

	opts := newTestOptions()
	require.NoError(t, execute(t, opts, "-c", path, "--bench.workers=4", "--bench.tags=x"))

	assert.Equal(t, 4, opts.Bench.Workers)
	// 未在命令行设置的值仍来自配置文件
	assert.Equal(t, "perf", opts.Bench.Database)
	// 切片不能被追加
	assert.Equal(t, []string{"x"}, opts.Bench.Tags)
}

type logOnlyOptions struct {
	Log *logopts.Options `mapstructure:"log"`
}

func (o *logOnlyOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *logOnlyOptions) Complete() error { return nil }
func (o *logOnlyOptions) Validate() error { return nil }

func TestApp_SliceFlagWinsOverLongerConfigSlice(t *testing.T) {
	path := writeConfig(t, `
log:
  level: warn
  output_paths: [stdout, /var/log/a.log]
`)

	opts := &logOnlyOptions{Log: logopts.NewOptions()}
	a := NewApp(WithName("apptest"), WithOptions(opts), WithNoVersion(), WithSilence())
	cmd := a.Command()
	cmd.SetArgs([]string{"-c", path, "--log.output-paths=/tmp/b.log"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, []string{"/tmp/b.log"}, opts.Log.OutputPaths)
	assert.Equal(t, "warn", opts.Log.Level)
}

func TestApp_EnvOverridesConfig(t *testing.T) {
	path := writeConfig(t, `
bench:
  database: perf
`)
	t.Setenv("APPTEST_BENCH_DATABASE", "fromenv")

	opts := newTestOptions()
	require.NoError(t, execute(t, opts, "-c", path))

	assert.Equal(t, "fromenv", opts.Bench.Database)
}

func TestApp_ExpandEnvVars(t *testing.T) {
	path := writeConfig(t, `
bench:
  database: ${APPTEST_DB_NAME}
  tags: [$APPTEST_UNSET_VAR]
`)
	t.Setenv("APPTEST_DB_NAME", "orders")

	opts := newTestOptions()
	require.NoError(t, execute(t, opts, "-c", path))

	assert.Equal(t, "orders", opts.Bench.Database)
}

func TestApp_MissingConfigFile(t *testing.T) {
	opts := newTestOptions()
	err := execute(t, opts, "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestApp_ValidateError(t *testing.T) {
	opts := newTestOptions()
	opts.validateErr = errors.New("workers must be positive")

	err := execute(t, opts)
	require.Error(t, err)
	assert.Equal(t, "workers must be positive", err.Error())
}

func TestApp_RunFunc(t *testing.T) {
	opts := newTestOptions()
	called := false

	a := NewApp(
		WithName("apptest"),
		WithOptions(opts),
		WithNoVersion(),
		WithNoConfig(),
		WithSilence(),
		WithRunFunc(func() error {
			called = true
			return nil
		}),
	)
	a.Command().SetArgs([]string{"--bench.workers=2"})
	require.NoError(t, a.Command().Execute())

	assert.True(t, called)
	assert.Equal(t, 2, opts.Bench.Workers)
}

func TestApp_Help(t *testing.T) {
	a := NewApp(
		WithName("apptest"),
		WithDescription("Load generator."),
		WithOptions(newTestOptions()),
		WithNoVersion(),
	)

	var out bytes.Buffer
	cmd := a.Command()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--help"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Load generator.")
	assert.Contains(t, out.String(), "Global flags:")
	assert.Contains(t, out.String(), "Bench flags:")
	assert.Contains(t, out.String(), "--bench.workers")
}

func TestApp_EnvPrefix(t *testing.T) {
	a := NewApp(WithName("mongo-bench"), WithNoVersion())
	assert.Equal(t, "MONGO_BENCH", a.EnvPrefix())
}
