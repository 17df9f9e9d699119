package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus represents the status of a health check.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

const checkTimeout = 2 * time.Second

// Check is one dependency probe. A failing critical check makes the service
// unhealthy; any other failure only degrades it.
type Check struct {
	Name     string
	Critical bool
	Ping     func(ctx context.Context) error
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one Check.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency"`
}

type healthHandler struct {
	service string
	version string
	started time.Time
	checks  []Check
}

func newHealthHandler(service, version string, checks []Check) *healthHandler {
	return &healthHandler{service: service, version: version, started: time.Now(), checks: checks}
}

func (h *healthHandler) get(c *gin.Context) {
	resp := HealthResponse{
		Status:  HealthStatusHealthy,
		Service: h.service,
		Version: h.version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	}

	if len(h.checks) > 0 {
		resp.Checks = make(map[string]CheckResult, len(h.checks))
	}
	for _, check := range h.checks {
		result := runCheck(c.Request.Context(), check)
		resp.Checks[check.Name] = result

		switch {
		case result.Status == HealthStatusUnhealthy:
			resp.Status = HealthStatusUnhealthy
		case result.Status == HealthStatusDegraded && resp.Status == HealthStatusHealthy:
			resp.Status = HealthStatusDegraded
		}
	}

	code := http.StatusOK
	if resp.Status == HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

func runCheck(ctx context.Context, check Check) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := check.Ping(ctx)
	latency := time.Since(start).String()

	if err == nil {
		return CheckResult{Status: HealthStatusHealthy, Latency: latency}
	}
	status := HealthStatusDegraded
	if check.Critical {
		status = HealthStatusUnhealthy
	}
	return CheckResult{Status: status, Message: err.Error(), Latency: latency}
}
