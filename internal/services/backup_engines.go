package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/pratik-mahalle/opsguard/internal/config"
	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
)

// commandRunner runs an external dump or restore utility
type commandRunner func(ctx context.Context, name string, args, env []string, stdin io.Reader, stdout io.Writer) error

// execRunner runs the command with exec, keeping stderr for diagnostics
func execRunner(ctx context.Context, name string, args, env []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return errors.ExternalToolError(name, strings.TrimSpace(stderr.String()), err)
	}
	return nil
}

// dbEngine dumps and restores one database flavour
type dbEngine interface {
	Name() string
	Dump(ctx context.Context, w io.Writer) error
	Restore(ctx context.Context, r io.Reader, snapshotSuffix string) error
}

func newEngine(cfg config.BackupConfig, run commandRunner) (dbEngine, error) {
	switch cfg.Engine {
	case "sqlite":
		return &sqliteEngine{path: cfg.DBPath}, nil
	case "postgres":
		return &postgresEngine{
			host: cfg.DBHost, port: cfg.DBPort, user: cfg.DBUser,
			password: cfg.DBPassword, database: cfg.DBName, run: run,
		}, nil
	case "mysql":
		return newMySQLEngine(cfg, run)
	default:
		return nil, fmt.Errorf("unsupported database engine: %s", cfg.Engine)
	}
}

// sqliteEngine snapshots the database file with VACUUM INTO, which includes pages still in the WAL
type sqliteEngine struct {
	path string
	// live is the application's own pool on path, if any; restores drop its idle connections
	live *sql.DB
}

func (e *sqliteEngine) Name() string { return "sqlite" }

// vacuumInto writes a consistent copy of the database to dst, which must not exist
func (e *sqliteEngine) vacuumInto(ctx context.Context, dst string) error {
	if _, err := os.Stat(e.path); err != nil {
		return fmt.Errorf("failed to open database file: %w", err)
	}

	db, err := sql.Open("sqlite", e.path)
	if err != nil {
		return fmt.Errorf("failed to open database file: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
		return fmt.Errorf("failed to snapshot database: %w", err)
	}
	return nil
}

func (e *sqliteEngine) Dump(ctx context.Context, w io.Writer) error {
	dir, err := os.MkdirTemp("", "opsguard-dump-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	snapshot := filepath.Join(dir, "snapshot.db")
	if err := e.vacuumInto(ctx, snapshot); err != nil {
		return err
	}

	f, err := os.Open(snapshot)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}

// Restore snapshots the live database as <path>.backup_<suffix>, then replaces the file.
// Stale -wal and -shm files are removed so they are not replayed onto the restored file.
func (e *sqliteEngine) Restore(ctx context.Context, r io.Reader, snapshotSuffix string) error {
	if _, err := os.Stat(e.path); err == nil {
		if err := e.vacuumInto(ctx, e.path+".backup_"+snapshotSuffix); err != nil {
			return fmt.Errorf("failed to snapshot live database: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.path), ".restore-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write restored database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if e.live != nil {
		e.live.SetMaxIdleConns(0)
		defer e.live.SetMaxIdleConns(1)
	}
	if err := os.Rename(tmp.Name(), e.path); err != nil {
		return err
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(e.path + suffix); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// postgresEngine shells out to pg_dump and psql
type postgresEngine struct {
	host     string
	port     int
	user     string
	password string
	database string
	run      commandRunner
}

func (e *postgresEngine) Name() string { return "postgres" }

func (e *postgresEngine) args() []string {
	return []string{"-h", e.host, "-p", strconv.Itoa(e.port), "-U", e.user, "-d", e.database, "--no-password"}
}

func (e *postgresEngine) env() []string {
	if e.password == "" {
		return nil
	}
	return []string{"PGPASSWORD=" + e.password}
}

func (e *postgresEngine) Dump(ctx context.Context, w io.Writer) error {
	return e.run(ctx, "pg_dump", e.args(), e.env(), nil, w)
}

func (e *postgresEngine) Restore(ctx context.Context, r io.Reader, _ string) error {
	return e.run(ctx, "psql", append(e.args(), "-v", "ON_ERROR_STOP=1"), e.env(), r, io.Discard)
}

// mysqlEngine shells out to mysqldump and mysql
type mysqlEngine struct {
	host     string
	port     string
	user     string
	password string
	database string
	run      commandRunner
}

func newMySQLEngine(cfg config.BackupConfig, run commandRunner) (*mysqlEngine, error) {
	e := &mysqlEngine{
		host:     cfg.DBHost,
		port:     strconv.Itoa(cfg.DBPort),
		user:     cfg.DBUser,
		password: cfg.DBPassword,
		database: cfg.DBName,
		run:      run,
	}
	if cfg.MySQLDSN == "" {
		return e, nil
	}

	dsn, err := mysql.ParseDSN(cfg.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	host, port, err := net.SplitHostPort(dsn.Addr)
	if err != nil {
		host, port = dsn.Addr, "3306"
	}
	e.host, e.port = host, port
	e.user, e.password, e.database = dsn.User, dsn.Passwd, dsn.DBName
	return e, nil
}

func (e *mysqlEngine) Name() string { return "mysql" }

func (e *mysqlEngine) args() []string {
	return []string{"-h", e.host, "-P", e.port, "-u", e.user}
}

// env carries the password in MYSQL_PWD
func (e *mysqlEngine) env() []string {
	if e.password == "" {
		return nil
	}
	return []string{"MYSQL_PWD=" + e.password}
}

func (e *mysqlEngine) Dump(ctx context.Context, w io.Writer) error {
	return e.run(ctx, "mysqldump", append(e.args(), e.database), e.env(), nil, w)
}

func (e *mysqlEngine) Restore(ctx context.Context, r io.Reader, _ string) error {
	return e.run(ctx, "mysql", append(e.args(), e.database), e.env(), r, io.Discard)
}
