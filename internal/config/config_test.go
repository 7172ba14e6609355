package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("BACKUP_DB_ENGINE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Monitoring.DiskWarning != 80 || cfg.Monitoring.DiskCritical != 90 {
		t.Errorf("disk thresholds = %v/%v, want 80/90", cfg.Monitoring.DiskWarning, cfg.Monitoring.DiskCritical)
	}
	if cfg.Monitoring.CPUCritical != 95 {
		t.Errorf("cpu critical = %v, want 95", cfg.Monitoring.CPUCritical)
	}
	if cfg.Performance.SlowRequestThreshold != 2*time.Second {
		t.Errorf("slow threshold = %v, want 2s", cfg.Performance.SlowRequestThreshold)
	}
	if cfg.Backup.RetentionDays != 30 {
		t.Errorf("retention = %d, want 30", cfg.Backup.RetentionDays)
	}
	if len(cfg.Backup.Directories) != 4 {
		t.Errorf("backup directories = %v, want 4 defaults", cfg.Backup.Directories)
	}
	if cfg.Scheduler.HealthChecks != "@every 5m" {
		t.Errorf("health schedule = %q", cfg.Scheduler.HealthChecks)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ALERT_RECIPIENTS", "ops@example.com, ,dba@example.com")
	t.Setenv("HEALTH_DISK_WARNING", "70")
	t.Setenv("BACKUP_DIRECTORIES", "uploads")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Alerting.Recipients) != 2 {
		t.Errorf("recipients = %v, want 2 entries", cfg.Alerting.Recipients)
	}
	if cfg.Monitoring.DiskWarning != 70 {
		t.Errorf("disk warning = %v, want 70", cfg.Monitoring.DiskWarning)
	}
	if len(cfg.Backup.Directories) != 1 || cfg.Backup.Directories[0] != "uploads" {
		t.Errorf("directories = %v", cfg.Backup.Directories)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "bad driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: true},
		{name: "bad engine", mutate: func(c *Config) { c.Backup.Engine = "mongo" }, wantErr: true},
		{name: "inverted thresholds", mutate: func(c *Config) { c.Monitoring.DiskWarning = 95 }, wantErr: true},
		{name: "zero retention", mutate: func(c *Config) { c.Backup.RetentionDays = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "sqlite"},
		Monitoring: MonitoringConfig{
			DiskWarning: 80, DiskCritical: 90,
			MemoryWarning: 80, MemoryCritical: 90,
			CPUWarning: 80, CPUCritical: 95,
			ResponseWarning: 2 * time.Second, ResponseCritical: 5 * time.Second,
			ErrorRateWarning: 10, ErrorRateCritical: 50,
			EscalateAfter: 2,
		},
		Backup: BackupConfig{Engine: "sqlite", RetentionDays: 30},
	}
}
