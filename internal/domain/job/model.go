package job

import (
	"encoding/json"
	"time"
)

// Name identifies a periodic control-plane job
type Name string

const (
	NameHealthChecks   Name = "health_checks"
	NameCleanup        Name = "cleanup"
	NameDailyReport    Name = "daily_report"
	NameDatabaseBackup Name = "database_backup"
	NameFilesBackup    Name = "files_backup"
	NameFullBackup     Name = "full_backup"
	NameBackupCleanup  Name = "backup_cleanup"
)

// DefaultSchedules provides default cron schedules for each job
var DefaultSchedules = map[Name]string{
	NameHealthChecks:   "@every 5m",
	NameCleanup:        "@hourly",
	NameDailyReport:    "0 8 * * *", // Daily at 8 AM
	NameDatabaseBackup: "0 2 * * *", // Daily at 2 AM
	NameFilesBackup:    "0 3 * * 0", // Weekly on Sunday at 3 AM
	NameFullBackup:     "0 0 1 * *", // Monthly
	NameBackupCleanup:  "0 4 * * 0", // Weekly on Sunday at 4 AM
}

// String returns the string representation of the job name
func (n Name) String() string {
	return string(n)
}

// Execution represents a single run of a job
type Execution struct {
	ID           string          `json:"id"`
	JobName      Name            `json:"job_name"`
	Trigger      string          `json:"trigger"` // schedule or manual
	Status       ExecutionStatus `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	DurationMs   int64           `json:"duration_ms,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// ExecutionStatus represents the status of a job execution
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// IsTerminal checks if the execution status is terminal
func (es ExecutionStatus) IsTerminal() bool {
	return es == ExecutionStatusCompleted || es == ExecutionStatusFailed
}

// ExecutionFilter contains job execution filtering options
type ExecutionFilter struct {
	JobName Name
	Status  ExecutionStatus
}
