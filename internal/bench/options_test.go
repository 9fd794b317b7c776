package bench

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptions(t *testing.T) {
	o := NewOptions()

	assert.Equal(t, ModeCommand, o.Mode)
	assert.Equal(t, `{"ping": 1}`, o.Command)
	assert.Equal(t, int32(100), o.BatchSize)
	assert.Equal(t, 8, o.Workers)
	assert.Empty(t, o.Validate())
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr int
	}{
		{name: "defaults", mutate: func(*Options) {}},
		{
			name: "query needs a collection",
			mutate: func(o *Options) {
				o.Mode = ModeQuery
			},
			wantErr: 1,
		},
		{
			name: "query with collection",
			mutate: func(o *Options) {
				o.Mode = ModeQuery
				o.Collection = "orders"
			},
		},
		{
			name: "unknown mode",
			mutate: func(o *Options) {
				o.Mode = "aggregate"
			},
			wantErr: 1,
		},
		{
			name: "no bound",
			mutate: func(o *Options) {
				o.Iterations = 0
				o.Duration = 0
			},
			wantErr: 1,
		},
		{
			name: "duration only",
			mutate: func(o *Options) {
				o.Iterations = 0
				o.Duration = time.Second
			},
		},
		{
			name: "negative values",
			mutate: func(o *Options) {
				o.Limit = -1
				o.OpTimeout = -time.Second
			},
			wantErr: 2,
		},
		{
			name: "empty database and zero workers",
			mutate: func(o *Options) {
				o.Database = ""
				o.Workers = 0
			},
			wantErr: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions()
			tt.mutate(o)
			assert.Len(t, o.Validate(), tt.wantErr)
		})
	}
}

func TestOptions_AddFlags(t *testing.T) {
	o := NewOptions()
	fs := pflag.NewFlagSet("bench", pflag.ContinueOnError)
	o.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--bench.mode=query",
		"--bench.collection=orders",
		"--bench.filter={\"status\": \"A\"}",
		"--bench.batch-size=0",
		"--bench.duration=30s",
	}))
	require.NoError(t, o.Complete())

	assert.Equal(t, ModeQuery, o.Mode)
	assert.Equal(t, "orders", o.Collection)
	assert.Equal(t, `{"status": "A"}`, o.Filter)
	assert.Equal(t, int32(100), o.BatchSize)
	assert.Equal(t, 30*time.Second, o.Duration)
}
