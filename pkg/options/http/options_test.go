package http

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr int
	}{
		{name: "disabled skips checks", mutate: func(o *Options) { o.Addr = "" }},
		{name: "enabled defaults", mutate: func(o *Options) { o.Enabled = true }},
		{
			name: "empty addr",
			mutate: func(o *Options) {
				o.Enabled = true
				o.Addr = ""
			},
			wantErr: 1,
		},
		{
			name: "relative paths and zero timeout",
			mutate: func(o *Options) {
				o.Enabled = true
				o.ReadTimeout = 0
				o.MetricsPath = "metrics"
				o.HealthPath = ""
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
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs, "bench")

	require.NoError(t, fs.Parse([]string{"--bench.http.enabled", "--bench.http.addr=127.0.0.1:0"}))
	assert.True(t, o.Enabled)
	assert.Equal(t, "127.0.0.1:0", o.Addr)
}

func TestOptions_ApplyOptions(t *testing.T) {
	o := NewOptions()
	o.ApplyOptions(WithAddr(":8080"), WithReadTimeout(0))
	require.NoError(t, o.Complete())

	assert.Equal(t, ":8080", o.Addr)
	assert.Zero(t, o.ReadTimeout)
	assert.Positive(t, o.ShutdownTimeout)
}
