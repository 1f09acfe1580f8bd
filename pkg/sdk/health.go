package semdex

import (
	"context"
	"time"

	healthuc "github.com/kailas-cloud/semdex/internal/usecase/health"
)

// HealthStatus is the outcome of Health. Status is "ok", "degraded" when
// only an embedding provider is down, or "error" when the store is.
type HealthStatus struct {
	Status string
	Checks map[string]string // component: "ok" or "error"
}

// Usable reports whether the client can still serve requests. A degraded
// client keeps answering through its keyword and heuristic fallbacks.
func (h HealthStatus) Usable() bool {
	return h.Status != string(healthuc.Unhealthy)
}

// Health checks the store and the embedding providers.
func (c *Client) Health(ctx context.Context) HealthStatus {
	defer c.obs.track("health", time.Now(), nil)

	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
