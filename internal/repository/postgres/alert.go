package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/domain/alert"
	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
)

type AlertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) alert.Repository {
	return &AlertRepository{db: db}
}

const alertColumns = `id, alert_type, severity, title, message, source_data, status, created_at,
	acknowledged_at, acknowledged_by, resolved_at, resolved_by, resolution_notes, notified_at`

func (r *AlertRepository) Create(ctx context.Context, a *alert.Alert) (int64, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if a.Status == "" {
		a.Status = alert.StatusActive
	}

	query := `
		INSERT INTO system_alerts (alert_type, severity, title, message, source_data, check_name, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		a.Type, a.Severity, a.Title, a.Message, marshalMap(a.SourceData), a.CheckName(), a.Status, formatTime(a.CreatedAt),
	).Scan(&a.ID)
	if err != nil {
		return 0, errors.DatabaseError("Failed to create alert", err)
	}

	return a.ID, nil
}

func (r *AlertRepository) GetByID(ctx context.Context, id int64) (*alert.Alert, error) {
	query := fmt.Sprintf(`SELECT %s FROM system_alerts WHERE id = $1`, alertColumns)

	a, err := scanAlert(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Alert")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get alert", err)
	}

	return a, nil
}

func (r *AlertRepository) Update(ctx context.Context, a *alert.Alert) error {
	query := `
		UPDATE system_alerts SET status = $1, acknowledged_at = $2, acknowledged_by = $3,
			resolved_at = $4, resolved_by = $5, resolution_notes = $6, notified_at = $7
		WHERE id = $8
	`

	result, err := r.db.ExecContext(ctx, query,
		a.Status, formatNullTime(a.AcknowledgedAt), a.AcknowledgedBy,
		formatNullTime(a.ResolvedAt), a.ResolvedBy, a.ResolutionNotes, formatNullTime(a.NotifiedAt), a.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update alert", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Alert")
	}

	return nil
}

func (r *AlertRepository) FindActive(ctx context.Context, alertType, checkName string) (*alert.Alert, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM system_alerts
		WHERE alert_type = $1 AND check_name = $2 AND status = $3
		ORDER BY id DESC LIMIT 1
	`, alertColumns)

	a, err := scanAlert(r.db.QueryRowContext(ctx, query, alertType, checkName, alert.StatusActive))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to find active alert", err)
	}

	return a, nil
}

func (r *AlertRepository) List(ctx context.Context, filter alert.Filter, limit, offset int) ([]*alert.Alert, int64, error) {
	var w whereBuilder
	if filter.Type != "" {
		w.add("alert_type = $%d", filter.Type)
	}
	if filter.Severity != "" {
		w.add("severity = $%d", filter.Severity)
	}
	if filter.Status != "" {
		w.add("status = $%d", filter.Status)
	}
	if filter.CheckName != "" {
		w.add("check_name = $%d", filter.CheckName)
	}
	if filter.Since != nil {
		w.add("created_at >= $%d", formatTime(*filter.Since))
	}

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM system_alerts %s", w.clause())
	if err := r.db.QueryRowContext(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count alerts", err)
	}

	if limit <= 0 {
		limit = 100
	}
	where := w.clause()
	query := fmt.Sprintf(`SELECT %s FROM system_alerts %s ORDER BY created_at DESC, id DESC LIMIT %s OFFSET %s`,
		alertColumns, where, w.bind(limit), w.bind(offset))

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list alerts", err)
	}
	defer rows.Close()

	alerts := make([]*alert.Alert, 0, limit)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan alert", err)
		}
		alerts = append(alerts, a)
	}

	return alerts, total, rows.Err()
}

func (r *AlertRepository) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM system_alerts WHERE status = $1 AND created_at < $2",
		alert.StatusResolved, formatTime(cutoff),
	)
	if err != nil {
		return 0, errors.DatabaseError("Failed to delete old alerts", err)
	}

	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlert(row rowScanner) (*alert.Alert, error) {
	var a alert.Alert
	var sourceData, acknowledgedAt, resolvedAt, notifiedAt sql.NullString
	var createdAt string

	err := row.Scan(
		&a.ID, &a.Type, &a.Severity, &a.Title, &a.Message, &sourceData, &a.Status, &createdAt,
		&acknowledgedAt, &a.AcknowledgedBy, &resolvedAt, &a.ResolvedBy, &a.ResolutionNotes, &notifiedAt,
	)
	if err != nil {
		return nil, err
	}

	a.SourceData = unmarshalMap(sourceData)
	a.CreatedAt = parseTime(createdAt)
	a.AcknowledgedAt = parseNullTime(acknowledgedAt)
	a.ResolvedAt = parseNullTime(resolvedAt)
	a.NotifiedAt = parseNullTime(notifiedAt)
	return &a, nil
}
