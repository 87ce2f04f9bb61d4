package health

import (
	"time"

	"git.home.luguber.info/inful/specpreview/internal/version"
)

// Status is the overall state reported by /health.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check is a single named health check.
type Check struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Message     string    `json:"message,omitempty"`
	LastChecked time.Time `json:"last_checked,omitzero"`
}

// Response is the /health payload.
type Response struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
	Version   string    `json:"version"`
	Checks    []Check   `json:"checks"`
}

// Report combines the named checks. Any unhealthy check degrades the daemon;
// it is never reported unhealthy itself while it can still answer.
func Report(started time.Time, checks ...Check) *Response {
	overall := StatusHealthy
	for _, c := range checks {
		if c.Status != StatusHealthy {
			overall = StatusDegraded
		}
	}
	return &Response{
		Status:    overall,
		Timestamp: time.Now(),
		Uptime:    time.Since(started).Round(time.Second).String(),
		Version:   version.Version,
		Checks:    checks,
	}
}

// BackendCheck describes c as the "build_backend" check.
func BackendCheck(c Checker) Check {
	check := Check{Name: "build_backend", Status: StatusHealthy, Message: "Build backend is reachable"}
	if p, ok := c.(*Poller); ok {
		last, err := p.Last()
		check.LastChecked = last
		if err != nil {
			check.Message = err.Error()
		}
	}
	if !c.IsHealthy() {
		check.Status = StatusUnhealthy
		if check.Message == "Build backend is reachable" {
			check.Message = "Build backend is unavailable"
		}
	}
	return check
}
