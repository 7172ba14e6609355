package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/domain/activity"
	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
)

type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) activity.Repository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, a *activity.Activity) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}

	query := `
		INSERT INTO user_activities (user_id, action, resource_type, resource_id, details, ip_address, user_agent, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		a.UserID, a.Action, a.ResourceType, a.ResourceID, marshalMap(a.Details), a.IPAddress, a.UserAgent, formatTime(a.Timestamp),
	).Scan(&a.ID)
	if err != nil {
		return errors.DatabaseError("Failed to log activity", err)
	}

	return nil
}

func (r *ActivityRepository) ListRecent(ctx context.Context, userID int64, limit int) ([]*activity.Activity, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, action, resource_type, resource_id, details, ip_address, user_agent, timestamp
		FROM user_activities WHERE ($1 = 0 OR user_id = $1)
		ORDER BY timestamp DESC, id DESC LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list activities", err)
	}
	defer rows.Close()

	activities := make([]*activity.Activity, 0, limit)
	for rows.Next() {
		var a activity.Activity
		var details sql.NullString
		var timestamp string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Action, &a.ResourceType, &a.ResourceID, &details, &a.IPAddress, &a.UserAgent, &timestamp); err != nil {
			return nil, errors.DatabaseError("Failed to scan activity", err)
		}
		a.Details = unmarshalMap(details)
		a.Timestamp = parseTime(timestamp)
		activities = append(activities, &a)
	}

	return activities, rows.Err()
}

func (r *ActivityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM user_activities WHERE timestamp < $1", formatTime(cutoff))
	if err != nil {
		return 0, errors.DatabaseError("Failed to delete old activities", err)
	}
	return result.RowsAffected()
}
