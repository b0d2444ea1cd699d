// Package output renders diagnostic reports in the formats the CLI exposes.
package output

import "time"

// CheckStatus classifies a single diagnostic check result.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
	StatusSkip CheckStatus = "skip"
)

// Check is one diagnostic result.
type Check struct {
	Name     string        `json:"name"`
	Status   CheckStatus   `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration_ms,omitempty"`
}

// Report is a full diagnostic run.
type Report struct {
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Checks    []Check   `json:"checks"`
}

// Failed reports whether any check failed outright.
func (r *Report) Failed() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return true
		}
	}
	return false
}

// Degraded reports whether any check produced a warning.
func (r *Report) Degraded() bool {
	for _, c := range r.Checks {
		if c.Status == StatusWarn {
			return true
		}
	}
	return false
}

// Summary returns a one-line rollup of the report.
func (r *Report) Summary() string {
	switch {
	case r.Failed():
		return "unhealthy"
	case r.Degraded():
		return "degraded"
	default:
		return "healthy"
	}
}
