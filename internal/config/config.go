package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Logging     LoggingConfig
	Monitoring  MonitoringConfig
	Performance PerformanceConfig
	Alerting    AlertingConfig
	Backup      BackupConfig
	Scheduler   SchedulerConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigin   string
	Environment     string
	// BaseURL is the application URL probed by the response_time check
	BaseURL string
}

// DatabaseConfig contains configuration of the control-plane store
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Enabled  bool
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port of the redis server
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string
	Format     string // json or console
	OutputPath string
}

// MonitoringConfig holds health check thresholds as warning/critical pairs
type MonitoringConfig struct {
	DiskPath          string
	DiskWarning       float64
	DiskCritical      float64
	MemoryWarning     float64
	MemoryCritical    float64
	CPUWarning        float64
	CPUCritical       float64
	ResponseWarning   time.Duration
	ResponseCritical  time.Duration
	DatabaseWarning   time.Duration
	ErrorRateWarning  float64
	ErrorRateCritical float64
	ProbeTimeout      time.Duration
	// EscalateAfter is the number of consecutive failures before a health alert is notified
	EscalateAfter int
	// ResolveOnRecovery resolves the active health alert when its check turns healthy again
	ResolveOnRecovery bool
}

// PerformanceConfig configures the request performance monitor
type PerformanceConfig struct {
	SlowRequestThreshold time.Duration
	MemoryWarningPercent float64
	SlowFunctionWarning  time.Duration
}

// AlertingConfig configures notification delivery
type AlertingConfig struct {
	Recipients      []string
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPFrom        string
	SMTPUseTLS      bool
	SlackWebhookURL string
	SlackChannel    string
}

// BackupConfig configures the backup manager and the database it dumps
type BackupConfig struct {
	Dir           string
	RetentionDays int
	Directories   []string
	DumpTimeout   time.Duration
	AppVersion    string

	// Engine is sqlite, postgres or mysql
	Engine     string
	DBPath     string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	// MySQLDSN takes precedence over the discrete fields for the mysql engine
	MySQLDSN string

	S3 S3Config
}

// S3Config configures the optional offsite copy of backup artifacts
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

// Enabled reports whether offsite copies are configured
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// SchedulerConfig holds cron specs of the periodic jobs and retention windows
type SchedulerConfig struct {
	Enabled             bool
	HealthChecks        string
	Cleanup             string
	DailyReport         string
	DatabaseBackup      string
	FilesBackup         string
	FullBackup          string
	BackupCleanup       string
	LogRetentionDays    int
	AlertRetentionDays  int
	MetricRetentionDays int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	dbDriver := getEnv("DB_DRIVER", "sqlite")
	dbPath := getEnv("DB_PATH", "./data.db")

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigin:   getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			BaseURL:         getEnv("APP_BASE_URL", "http://localhost:8080/healthz"),
		},
		Database: DatabaseConfig{
			Driver:          dbDriver,
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "opsguard"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            dbPath,
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			URL:      getEnv("REDIS_URL", ""),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		Monitoring: MonitoringConfig{
			DiskPath:          getEnv("HEALTH_DISK_PATH", "/"),
			DiskWarning:       getEnvAsFloat("HEALTH_DISK_WARNING", 80),
			DiskCritical:      getEnvAsFloat("HEALTH_DISK_CRITICAL", 90),
			MemoryWarning:     getEnvAsFloat("HEALTH_MEMORY_WARNING", 80),
			MemoryCritical:    getEnvAsFloat("HEALTH_MEMORY_CRITICAL", 90),
			CPUWarning:        getEnvAsFloat("HEALTH_CPU_WARNING", 80),
			CPUCritical:       getEnvAsFloat("HEALTH_CPU_CRITICAL", 95),
			ResponseWarning:   getEnvAsDuration("HEALTH_RESPONSE_WARNING", 2*time.Second),
			ResponseCritical:  getEnvAsDuration("HEALTH_RESPONSE_CRITICAL", 5*time.Second),
			DatabaseWarning:   getEnvAsDuration("HEALTH_DATABASE_WARNING", time.Second),
			ErrorRateWarning:  getEnvAsFloat("HEALTH_ERROR_RATE_WARNING", 10),
			ErrorRateCritical: getEnvAsFloat("HEALTH_ERROR_RATE_CRITICAL", 50),
			ProbeTimeout:      getEnvAsDuration("HEALTH_PROBE_TIMEOUT", 10*time.Second),
			EscalateAfter:     getEnvAsInt("HEALTH_ESCALATE_AFTER", 2),
			ResolveOnRecovery: getEnvAsBool("HEALTH_RESOLVE_ON_RECOVERY", true),
		},
		Performance: PerformanceConfig{
			SlowRequestThreshold: getEnvAsDuration("PERF_SLOW_REQUEST_THRESHOLD", 2*time.Second),
			MemoryWarningPercent: getEnvAsFloat("PERF_MEMORY_WARNING_PERCENT", 80),
			SlowFunctionWarning:  getEnvAsDuration("PERF_SLOW_FUNCTION_WARNING", time.Second),
		},
		Alerting: AlertingConfig{
			Recipients:      getEnvAsSlice("ALERT_RECIPIENTS", nil),
			SMTPHost:        getEnv("SMTP_HOST", ""),
			SMTPPort:        getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername:    getEnv("SMTP_USERNAME", ""),
			SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
			SMTPFrom:        getEnv("SMTP_FROM", "opsguard@localhost"),
			SMTPUseTLS:      getEnvAsBool("SMTP_USE_TLS", true),
			SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
			SlackChannel:    getEnv("SLACK_CHANNEL", "#alerts"),
		},
		Backup: BackupConfig{
			Dir:           getEnv("BACKUP_DIR", "backups"),
			RetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
			Directories: getEnvAsSlice("BACKUP_DIRECTORIES", []string{
				"app/static/uploads", "app/static/reports", "logs", "config",
			}),
			DumpTimeout: getEnvAsDuration("BACKUP_DUMP_TIMEOUT", 30*time.Minute),
			AppVersion:  getEnv("APP_VERSION", "1.0.0"),
			Engine:      getEnv("BACKUP_DB_ENGINE", dbDriver),
			DBPath:      getEnv("BACKUP_DB_PATH", dbPath),
			DBHost:      getEnv("BACKUP_DB_HOST", getEnv("DB_HOST", "localhost")),
			DBPort:      getEnvAsInt("BACKUP_DB_PORT", getEnvAsInt("DB_PORT", 5432)),
			DBUser:      getEnv("BACKUP_DB_USER", getEnv("DB_USER", "")),
			DBPassword:  getEnv("BACKUP_DB_PASSWORD", getEnv("DB_PASSWORD", "")),
			DBName:      getEnv("BACKUP_DB_NAME", getEnv("DB_NAME", "opsguard")),
			MySQLDSN:    getEnv("BACKUP_MYSQL_DSN", ""),
			S3: S3Config{
				Bucket:    getEnv("BACKUP_S3_BUCKET", ""),
				Region:    getEnv("BACKUP_S3_REGION", "us-east-1"),
				Endpoint:  getEnv("BACKUP_S3_ENDPOINT", ""),
				AccessKey: getEnv("BACKUP_S3_ACCESS_KEY", ""),
				SecretKey: getEnv("BACKUP_S3_SECRET_KEY", ""),
				Prefix:    getEnv("BACKUP_S3_PREFIX", "opsguard"),
			},
		},
		Scheduler: SchedulerConfig{
			Enabled:             getEnvAsBool("SCHEDULER_ENABLED", true),
			HealthChecks:        getEnv("SCHEDULE_HEALTH_CHECKS", "@every 5m"),
			Cleanup:             getEnv("SCHEDULE_CLEANUP", "@hourly"),
			DailyReport:         getEnv("SCHEDULE_DAILY_REPORT", "0 8 * * *"),
			DatabaseBackup:      getEnv("SCHEDULE_DATABASE_BACKUP", "0 2 * * *"),
			FilesBackup:         getEnv("SCHEDULE_FILES_BACKUP", "0 3 * * 0"),
			FullBackup:          getEnv("SCHEDULE_FULL_BACKUP", "0 0 1 * *"),
			BackupCleanup:       getEnv("SCHEDULE_BACKUP_CLEANUP", "0 4 * * 0"),
			LogRetentionDays:    getEnvAsInt("LOG_RETENTION_DAYS", 30),
			AlertRetentionDays:  getEnvAsInt("ALERT_RETENTION_DAYS", 30),
			MetricRetentionDays: getEnvAsInt("METRIC_RETENTION_DAYS", 90),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Backup.Engine {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported backup engine: %s", c.Backup.Engine)
	}

	if c.Backup.RetentionDays < 1 {
		return fmt.Errorf("backup retention must be at least one day, got %d", c.Backup.RetentionDays)
	}

	pairs := []struct {
		name              string
		warning, critical float64
	}{
		{"disk", c.Monitoring.DiskWarning, c.Monitoring.DiskCritical},
		{"memory", c.Monitoring.MemoryWarning, c.Monitoring.MemoryCritical},
		{"cpu", c.Monitoring.CPUWarning, c.Monitoring.CPUCritical},
		{"response", c.Monitoring.ResponseWarning.Seconds(), c.Monitoring.ResponseCritical.Seconds()},
		{"error rate", c.Monitoring.ErrorRateWarning, c.Monitoring.ErrorRateCritical},
	}
	for _, p := range pairs {
		if p.warning > p.critical {
			return fmt.Errorf("%s warning threshold %.2f exceeds critical threshold %.2f", p.name, p.warning, p.critical)
		}
	}

	if c.Monitoring.EscalateAfter < 1 {
		return fmt.Errorf("HEALTH_ESCALATE_AFTER must be positive")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads a comma separated list, dropping empty items
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
