package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pratik-mahalle/opsguard/internal/config"
	"github.com/pratik-mahalle/opsguard/internal/repository/postgres"
	"github.com/pratik-mahalle/opsguard/migrations"
)

func main() {
	statusOnly := flag.Bool("status", false, "list pending migrations without applying them")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := postgres.New(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("Connected to %s database\n", cfg.Database.Driver)

	migrationsFS, err := migrations.GetFS(cfg.Database.Driver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load migrations: %v\n", err)
		os.Exit(1)
	}

	// schema_migrations may not exist yet on a fresh database
	pending, err := postgres.PendingMigrations(db, migrationsFS)
	if err != nil {
		if *statusOnly {
			fmt.Fprintf(os.Stderr, "Failed to read migration status: %v\n", err)
			os.Exit(1)
		}
		pending = nil
	}

	if *statusOnly {
		if len(pending) == 0 {
			fmt.Println("Schema is up to date")
			return
		}
		for _, name := range pending {
			fmt.Printf("pending  %s\n", name)
		}
		return
	}

	for _, name := range pending {
		fmt.Printf("Running migration: %s\n", name)
	}
	if err := postgres.RunMigrations(db, migrationsFS); err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("All migrations completed successfully")
}
