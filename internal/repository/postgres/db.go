package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pratik-mahalle/opsguard/internal/config"
	"github.com/pratik-mahalle/opsguard/migrations"
	_ "modernc.org/sqlite"
)

// New creates a new database connection
func New(cfg config.DatabaseConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = sql.Open("sqlite", cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}

		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
		if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}

		db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(time.Hour)

	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
		)

		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Open connects to the store and applies pending migrations
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := New(cfg)
	if err != nil {
		return nil, err
	}

	migrationsFS, err := migrations.GetFS(cfg.Driver)
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := RunMigrations(db, migrationsFS); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
