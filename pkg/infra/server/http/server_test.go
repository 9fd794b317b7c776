package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/mongosource/pkg/component/storage"
	apierrors "github.com/kart-io/mongosource/pkg/errors"
	options "github.com/kart-io/mongosource/pkg/options/http"
)

type staticHealth map[string]storage.HealthStatus

func (s staticHealth) HealthCheckAll(context.Context) map[string]storage.HealthStatus {
	return s
}

func serve(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ops := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mongobench_test_operations_total",
		Help: "test counter",
	})
	reg.MustRegister(ops)
	ops.Add(3)

	s := NewServer(options.NewOptions(), WithGatherer(reg))
	w := serve(t, s, "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mongobench_test_operations_total 3")
}

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name     string
		source   HealthSource
		wantCode int
		wantUp   HealthStatus
	}{
		{name: "no source", source: nil, wantCode: http.StatusOK, wantUp: HealthStatusUp},
		{
			name: "all healthy",
			source: staticHealth{
				"mongo": {Name: "mongo", Healthy: true, Latency: time.Millisecond},
			},
			wantCode: http.StatusOK,
			wantUp:   HealthStatusUp,
		},
		{
			name: "one down",
			source: staticHealth{
				"mongo":  {Name: "mongo", Healthy: true},
				"mongo2": {Name: "mongo2", Healthy: false, Error: errors.New("server selection timeout")},
			},
			wantCode: http.StatusServiceUnavailable,
			wantUp:   HealthStatusDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(options.NewOptions(), WithHealthSource(tt.source))
			w := serve(t, s, "/healthz")
			require.Equal(t, tt.wantCode, w.Code)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantUp, resp.Status)

			if src, ok := tt.source.(staticHealth); ok {
				assert.Len(t, resp.Checks, len(src))
				for name, st := range src {
					if !st.Healthy {
						assert.Equal(t, HealthStatusDown, resp.Checks[name].Status)
						assert.Equal(t, st.Error.Error(), resp.Checks[name].Message)
					}
				}
			}
		})
	}
}

func TestServer_Version(t *testing.T) {
	s := NewServer(nil)
	w := serve(t, s, "/version")
	require.Equal(t, http.StatusOK, w.Code)

	var resp VersionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
}

func TestServer_NoRoute(t *testing.T) {
	s := NewServer(nil)
	w := serve(t, s, "/nope")
	require.Equal(t, http.StatusNotFound, w.Code)

	var body struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apierrors.ErrRouteNotFound.Code, body.Code)
}

func TestServer_DisabledPaths(t *testing.T) {
	opts := options.NewOptions()
	opts.MetricsPath = ""
	s := NewServer(opts)

	assert.Equal(t, http.StatusNotFound, serve(t, s, "/metrics").Code)
	assert.Equal(t, http.StatusOK, serve(t, s, "/healthz").Code)
}

func TestServer_Recovery(t *testing.T) {
	s := NewServer(nil)
	s.Engine().GET("/panic", func(*gin.Context) {
		panic("boom")
	})

	w := serve(t, s, "/panic")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServer_StartStop(t *testing.T) {
	opts := options.NewOptions()
	opts.Addr = "127.0.0.1:0"
	s := NewServer(opts, WithGatherer(prometheus.NewRegistry()))

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		_ = s.Stop(context.Background())
	})

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Stop(context.Background()))

	_, err = http.Get("http://" + s.Addr() + "/healthz")
	assert.Error(t, err)
}

func TestServer_StartBadAddr(t *testing.T) {
	opts := options.NewOptions()
	opts.Addr = "127.0.0.1:-1"
	s := NewServer(opts)

	assert.Error(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}
