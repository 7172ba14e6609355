package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/domain/health"
	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
)

type HealthRepository struct {
	db *sql.DB
}

func NewHealthRepository(db *sql.DB) health.Repository {
	return &HealthRepository{db: db}
}

func (r *HealthRepository) Create(ctx context.Context, res *health.CheckResult) error {
	query := `
		INSERT INTO system_health (check_name, status, response_time, details, error_message, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		res.CheckName, string(res.Status), res.ResponseTime, marshalMap(res.Details), res.ErrorMessage, formatTime(res.Timestamp),
	).Scan(&res.ID)
	if err != nil {
		return errors.DatabaseError("Failed to store health check result", err)
	}

	return nil
}

func (r *HealthRepository) Latest(ctx context.Context) ([]*health.CheckResult, error) {
	query := `
		SELECT h.id, h.check_name, h.status, h.response_time, h.details, h.error_message, h.timestamp
		FROM system_health h
		WHERE h.id = (
			SELECT MAX(id) FROM system_health latest WHERE latest.check_name = h.check_name
		)
		ORDER BY h.check_name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.DatabaseError("Failed to get latest health status", err)
	}
	defer rows.Close()

	return scanHealthRows(rows)
}

func (r *HealthRepository) History(ctx context.Context, checkName string, limit int) ([]*health.CheckResult, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, check_name, status, response_time, details, error_message, timestamp
		FROM system_health WHERE check_name = $1 ORDER BY id DESC LIMIT $2
	`, checkName, limit)
	if err != nil {
		return nil, errors.DatabaseError("Failed to get health history", err)
	}
	defer rows.Close()

	return scanHealthRows(rows)
}

func (r *HealthRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM system_health WHERE timestamp < $1", formatTime(cutoff))
	if err != nil {
		return 0, errors.DatabaseError("Failed to delete old health results", err)
	}
	return result.RowsAffected()
}

func scanHealthRows(rows *sql.Rows) ([]*health.CheckResult, error) {
	results := make([]*health.CheckResult, 0)
	for rows.Next() {
		var res health.CheckResult
		var status, timestamp string
		var details sql.NullString
		if err := rows.Scan(&res.ID, &res.CheckName, &status, &res.ResponseTime, &details, &res.ErrorMessage, &timestamp); err != nil {
			return nil, errors.DatabaseError("Failed to scan health result", err)
		}
		res.Status = health.Status(status)
		res.Details = unmarshalMap(details)
		res.Timestamp = parseTime(timestamp)
		results = append(results, &res)
	}
	return results, rows.Err()
}
