package health

import "context"

// Service defines the health checker
type Service interface {
	// Register adds a named check to the battery, replacing any previous one
	Register(name string, check Check)

	// Names lists the registered checks in registration order
	Names() []string

	// RunAllChecks runs every registered check; it never fails
	RunAllChecks(ctx context.Context) *Report

	// GetLatestStatus returns the latest stored result per check
	GetLatestStatus(ctx context.Context) ([]*CheckResult, error)

	// GetHealthSummary counts the latest result of every check
	GetHealthSummary(ctx context.Context) (*Summary, error)
}
