package health

import (
	"context"
	"time"
)

// Status is the tri-state verdict of a check, ordered healthy < warning < critical
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// rank orders statuses on the health lattice
func (s Status) rank() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusWarning:
		return 1
	default:
		return 2
	}
}

// IsValid checks if the status is one of the three lattice values
func (s Status) IsValid() bool {
	return s == StatusHealthy || s == StatusWarning || s == StatusCritical
}

// Worse returns the more severe of two statuses
func Worse(a, b Status) Status {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// Aggregate folds statuses into an overall verdict; an empty input is healthy
func Aggregate(statuses ...Status) Status {
	overall := StatusHealthy
	for _, s := range statuses {
		overall = Worse(overall, s)
	}
	return overall
}

// Thresholds is a warning/critical pair compared with >=
type Thresholds struct {
	Warning  float64 `json:"warning"`
	Critical float64 `json:"critical"`
}

// Evaluate maps a sampled value onto the lattice, checking critical first
func (t Thresholds) Evaluate(value float64) Status {
	switch {
	case value >= t.Critical:
		return StatusCritical
	case value >= t.Warning:
		return StatusWarning
	default:
		return StatusHealthy
	}
}

// Outcome is what a single check function reports
type Outcome struct {
	Status  Status
	Details map[string]interface{}
	Err     error
}

// Check evaluates one named probe
type Check interface {
	Run(ctx context.Context) Outcome
}

// CheckFunc adapts a plain function to Check
type CheckFunc func(ctx context.Context) Outcome

// Run calls f(ctx)
func (f CheckFunc) Run(ctx context.Context) Outcome {
	return f(ctx)
}

// CheckResult is the persisted, immutable result of one check execution
type CheckResult struct {
	ID           int64                  `json:"id,omitempty"`
	CheckName    string                 `json:"check_name"`
	Status       Status                 `json:"status"`
	Timestamp    time.Time              `json:"timestamp"`
	ResponseTime float64                `json:"response_time"` // seconds
	Details      map[string]interface{} `json:"details,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
}

// Report is the outcome of a full run of the check battery
type Report struct {
	OverallStatus Status                  `json:"overall_status"`
	Checks        map[string]*CheckResult `json:"checks"`
	Timestamp     time.Time               `json:"timestamp"`
}

// Summary counts the latest result of every check
type Summary struct {
	Healthy          int     `json:"healthy"`
	Warning          int     `json:"warning"`
	Critical         int     `json:"critical"`
	Total            int     `json:"total"`
	HealthPercentage float64 `json:"health_percentage"`
}

// Summarize counts results by status; an empty set is 100% healthy
func Summarize(results []*CheckResult) *Summary {
	s := &Summary{Total: len(results), HealthPercentage: 100}
	for _, r := range results {
		switch r.Status {
		case StatusHealthy:
			s.Healthy++
		case StatusWarning:
			s.Warning++
		default:
			s.Critical++
		}
	}
	if s.Total > 0 {
		s.HealthPercentage = float64(s.Healthy) / float64(s.Total) * 100
	}
	return s
}
