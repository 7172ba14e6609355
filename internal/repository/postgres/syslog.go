package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/domain/syslog"
	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
)

type SystemLogRepository struct {
	db *sql.DB
}

func NewSystemLogRepository(db *sql.DB) syslog.Repository {
	return &SystemLogRepository{db: db}
}

func (r *SystemLogRepository) Create(ctx context.Context, e *syslog.Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	var userID sql.NullInt64
	if e.UserID != nil {
		userID = sql.NullInt64{Int64: *e.UserID, Valid: true}
	}

	query := `
		INSERT INTO system_logs (level, logger_name, message, timestamp, module, request_id, user_id, ip_address, extra_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		e.Level, e.LoggerName, e.Message, formatTime(e.Timestamp), e.Module, e.RequestID, userID, e.IPAddress, marshalMap(e.ExtraData),
	).Scan(&e.ID)
	if err != nil {
		return errors.DatabaseError("Failed to store log entry", err)
	}

	return nil
}

func (r *SystemLogRepository) List(ctx context.Context, filter syslog.Filter, limit int) ([]*syslog.Entry, error) {
	w := logWhere(filter)
	if limit <= 0 {
		limit = 100
	}
	where := w.clause()
	query := fmt.Sprintf(`
		SELECT id, level, logger_name, message, timestamp, module, request_id, user_id, ip_address, extra_data
		FROM system_logs %s ORDER BY timestamp DESC, id DESC LIMIT %s
	`, where, w.bind(limit))

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list logs", err)
	}
	defer rows.Close()

	entries := make([]*syslog.Entry, 0)
	for rows.Next() {
		var e syslog.Entry
		var timestamp string
		var userID sql.NullInt64
		var extra sql.NullString
		if err := rows.Scan(&e.ID, &e.Level, &e.LoggerName, &e.Message, &timestamp, &e.Module, &e.RequestID, &userID, &e.IPAddress, &extra); err != nil {
			return nil, errors.DatabaseError("Failed to scan log entry", err)
		}
		e.Timestamp = parseTime(timestamp)
		if userID.Valid {
			id := userID.Int64
			e.UserID = &id
		}
		e.ExtraData = unmarshalMap(extra)
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

func (r *SystemLogRepository) Count(ctx context.Context, filter syslog.Filter) (int, error) {
	w := logWhere(filter)

	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM system_logs %s", w.clause())
	if err := r.db.QueryRowContext(ctx, query, w.args...).Scan(&count); err != nil {
		return 0, errors.DatabaseError("Failed to count logs", err)
	}
	return count, nil
}

func (r *SystemLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM system_logs WHERE timestamp < $1", formatTime(cutoff))
	if err != nil {
		return 0, errors.DatabaseError("Failed to delete old logs", err)
	}
	return result.RowsAffected()
}

func logWhere(filter syslog.Filter) *whereBuilder {
	w := &whereBuilder{}
	if !filter.Since.IsZero() {
		w.add("timestamp >= $%d", formatTime(filter.Since))
	}
	w.in("level", filter.Levels)
	if filter.Logger != "" {
		w.add("logger_name = $%d", filter.Logger)
	}
	return w
}
