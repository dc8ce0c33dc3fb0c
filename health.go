package swapcycle

import "context"

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status  string            // "ok", "degraded"
	Version string            // SDK build version
	Checks  map[string]string // component → "ok"/"error"
}

// Health checks the backend and, when configured, the session store.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:  string(report.Status),
		Version: report.Version,
		Checks:  checks,
	}
}
