package backup

import (
	"context"
	"io"
	"time"
)

// Type is a backup category; each has its own directory under the backup root
type Type string

const (
	TypeDatabase Type = "database"
	TypeFiles    Type = "files"
	TypeFull     Type = "full"
	TypeAll      Type = "all"
)

// IsValid checks if the type names a concrete category
func (t Type) IsValid() bool {
	return t == TypeDatabase || t == TypeFiles || t == TypeFull
}

// Name prefixes used when no explicit name is given
const (
	PrefixDatabase = "db_backup_"
	PrefixFiles    = "files_backup_"
	PrefixFull     = "full_backup_"

	// NameTimeLayout is appended to generated names
	NameTimeLayout = "20060102_150405"
)

// Artifact suffixes of the on-disk layout
const (
	ExtDatabase     = ".sql.gz"
	ExtFiles        = ".zip"
	ExtManifest     = "_info.json"
	FullDBSuffix    = "_db"
	FullFilesSuffix = "_files"
)

// DefaultName generates the name of a backup created at t
func DefaultName(bt Type, t time.Time) string {
	prefix := PrefixDatabase
	switch bt {
	case TypeFiles:
		prefix = PrefixFiles
	case TypeFull:
		prefix = PrefixFull
	}
	return prefix + t.Format(NameTimeLayout)
}

// Record describes one backup found on disk
type Record struct {
	Name           string            `json:"name"`
	Type           Type              `json:"type"`
	FileReference  string            `json:"file_reference"`
	SizeBytes      int64             `json:"size_bytes"`
	CreatedAt      time.Time         `json:"created_at"`
	EngineMetadata map[string]string `json:"engine_metadata,omitempty"`
}

// Manifest is the JSON record written next to a full backup
type Manifest struct {
	Name           string    `json:"name"`
	Timestamp      time.Time `json:"timestamp"`
	Type           Type      `json:"type"`
	DatabaseBackup string    `json:"database_backup"`
	FilesBackup    string    `json:"files_backup"`
	AppVersion     string    `json:"app_version"`
	GoVersion      string    `json:"go_version"`
	Engine         string    `json:"engine"`
}

// Service defines the backup manager
type Service interface {
	// CreateDatabaseBackup dumps the configured database; failures are logged and reported as false
	CreateDatabaseBackup(ctx context.Context, name string) bool

	// CreateFilesBackup archives the designated directories
	CreateFilesBackup(ctx context.Context, name string) bool

	// CreateFullBackup creates both components plus a manifest
	CreateFullBackup(ctx context.Context, name string) bool

	// RestoreDatabaseBackup restores a database backup by file name or backup name
	RestoreDatabaseBackup(ctx context.Context, reference string) error

	// GetBackupList lists backups of a type (or all), newest first
	GetBackupList(ctx context.Context, t Type) ([]*Record, error)

	// OpenBackup opens the primary artifact of a backup for download
	OpenBackup(ctx context.Context, name string, t Type) (io.ReadCloser, *Record, error)

	// DeleteBackup removes a backup; full backups remove every component
	DeleteBackup(ctx context.Context, name string, t Type) error

	// CleanupOldBackups removes backups older than the retention window
	CleanupOldBackups(ctx context.Context) (int, error)
}

// Uploader copies artifacts to offsite storage
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	Delete(ctx context.Context, key string) error
}
