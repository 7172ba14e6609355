package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/domain/metric"
	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
)

type MetricRepository struct {
	db *sql.DB
}

func NewMetricRepository(db *sql.DB) metric.Repository {
	return &MetricRepository{db: db}
}

func (r *MetricRepository) Create(ctx context.Context, s *metric.Sample) error {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}

	query := `
		INSERT INTO performance_metrics (metric_name, value, unit, category, source, timestamp, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		s.Name, s.Value, s.Unit, s.Category, s.Source, formatTime(s.Timestamp), marshalMap(s.Metadata),
	).Scan(&s.ID)
	if err != nil {
		return errors.DatabaseError("Failed to record metric", err)
	}

	return nil
}

func (r *MetricRepository) List(ctx context.Context, filter metric.Filter, limit int) ([]*metric.Sample, error) {
	var w whereBuilder
	if filter.Name != "" {
		w.add("metric_name = $%d", filter.Name)
	}
	if filter.Category != "" {
		w.add("category = $%d", filter.Category)
	}
	if !filter.Since.IsZero() {
		w.add("timestamp >= $%d", formatTime(filter.Since))
	}

	if limit <= 0 {
		limit = 10000
	}
	where := w.clause()
	query := fmt.Sprintf(`
		SELECT id, metric_name, value, unit, category, source, timestamp, metadata
		FROM performance_metrics %s ORDER BY timestamp ASC, id ASC LIMIT %s
	`, where, w.bind(limit))

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list metrics", err)
	}
	defer rows.Close()

	samples := make([]*metric.Sample, 0)
	for rows.Next() {
		var s metric.Sample
		var timestamp string
		var metadata sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.Value, &s.Unit, &s.Category, &s.Source, &timestamp, &metadata); err != nil {
			return nil, errors.DatabaseError("Failed to scan metric", err)
		}
		s.Timestamp = parseTime(timestamp)
		s.Metadata = unmarshalMap(metadata)
		samples = append(samples, &s)
	}

	return samples, rows.Err()
}

func (r *MetricRepository) Average(ctx context.Context, name string, since time.Time) (float64, int, error) {
	var avg sql.NullFloat64
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT AVG(value), COUNT(*) FROM performance_metrics WHERE metric_name = $1 AND timestamp >= $2",
		name, formatTime(since),
	).Scan(&avg, &count)
	if err != nil {
		return 0, 0, errors.DatabaseError("Failed to average metric", err)
	}

	return avg.Float64, count, nil
}

func (r *MetricRepository) Count(ctx context.Context, name string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM performance_metrics WHERE metric_name = $1 AND timestamp >= $2",
		name, formatTime(since),
	).Scan(&count)
	if err != nil {
		return 0, errors.DatabaseError("Failed to count metric", err)
	}
	return count, nil
}

func (r *MetricRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM performance_metrics WHERE timestamp < $1", formatTime(cutoff))
	if err != nil {
		return 0, errors.DatabaseError("Failed to delete old metrics", err)
	}
	return result.RowsAffected()
}
