package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/version"

	"github.com/kart-io/mongosource/pkg/component/storage"
)

// HealthSource reports the health of every published data source.
// *storage.Manager implements it.
type HealthSource interface {
	HealthCheckAll(ctx context.Context) map[string]storage.HealthStatus
}

// HealthStatus represents the health status.
type HealthStatus string

const (
	// HealthStatusUp indicates the service is healthy.
	HealthStatusUp HealthStatus = "UP"
	// HealthStatusDown indicates the service is unhealthy.
	HealthStatusDown HealthStatus = "DOWN"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
	Version string                 `json:"version,omitempty"`
}

// CheckResult represents an individual health check result.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Latency string       `json:"latency,omitempty"`
	Message string       `json:"message,omitempty"`
}

func checkHealth(ctx context.Context, src HealthSource) HealthResponse {
	resp := HealthResponse{
		Status:  HealthStatusUp,
		Version: version.Get().GitVersion,
	}
	if src == nil {
		return resp
	}

	statuses := src.HealthCheckAll(ctx)
	if len(statuses) == 0 {
		return resp
	}

	resp.Checks = make(map[string]CheckResult, len(statuses))
	for name, st := range statuses {
		result := CheckResult{
			Status:  HealthStatusUp,
			Latency: st.Latency.String(),
		}
		if !st.Healthy {
			resp.Status = HealthStatusDown
			result.Status = HealthStatusDown
			if st.Error != nil {
				result.Message = st.Error.Error()
			}
		}
		resp.Checks[name] = result
	}
	return resp
}

func healthHandler(src HealthSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := checkHealth(c.Request.Context(), src)
		status := http.StatusOK
		if resp.Status == HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	ServiceName  string `json:"service_name,omitempty"`
	GitVersion   string `json:"git_version"`
	GitCommit    string `json:"git_commit,omitempty"`
	GitBranch    string `json:"git_branch,omitempty"`
	GitTreeState string `json:"git_tree_state,omitempty"`
	BuildDate    string `json:"build_date,omitempty"`
	GoVersion    string `json:"go_version,omitempty"`
	Compiler     string `json:"compiler,omitempty"`
	Platform     string `json:"platform,omitempty"`
}

func versionHandler(c *gin.Context) {
	info := version.Get()
	c.JSON(http.StatusOK, VersionResponse{
		ServiceName:  info.ServiceName,
		GitVersion:   info.GitVersion,
		GitCommit:    info.GitCommit,
		GitBranch:    info.GitBranch,
		GitTreeState: info.GitTreeState,
		BuildDate:    info.BuildDate,
		GoVersion:    info.GoVersion,
		Compiler:     info.Compiler,
		Platform:     info.Platform,
	})
}
