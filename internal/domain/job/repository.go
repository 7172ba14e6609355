package job

import (
	"context"
	"time"
)

// Repository stores job execution history
type Repository interface {
	CreateExecution(ctx context.Context, e *Execution) error
	UpdateExecution(ctx context.Context, e *Execution) error
	ListExecutions(ctx context.Context, filter ExecutionFilter, limit int) ([]*Execution, error)
	GetLatestExecution(ctx context.Context, name Name) (*Execution, error)
	CleanupOldExecutions(ctx context.Context, olderThan time.Time) (int64, error)
}
