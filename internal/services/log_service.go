package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/cache"
	"github.com/pratik-mahalle/opsguard/internal/domain/activity"
	"github.com/pratik-mahalle/opsguard/internal/domain/syslog"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
)

const maxSummaryEntries = 10000

// LogService implements syslog.Service and records user activities
type LogService struct {
	repo       syslog.Repository
	activities activity.Repository
	cache      cache.Cache
	logger     *logger.Logger
	now        func() time.Time
}

// NewLogService creates a new log service; c may be nil
func NewLogService(repo syslog.Repository, activities activity.Repository, c cache.Cache, log *logger.Logger) *LogService {
	return &LogService{
		repo:       repo,
		activities: activities,
		cache:      c,
		logger:     log.WithComponent("system_log"),
		now:        time.Now,
	}
}

// RecordEvent stores a log line with a normalized level
func (s *LogService) RecordEvent(ctx context.Context, e *syslog.Entry) error {
	e.Level = syslog.NormalizeLevel(e.Level)
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}

	if err := s.repo.Create(ctx, e); err != nil {
		s.logger.ErrorWithErr(err, "Failed to record system log")
		return err
	}
	return nil
}

// GetRecentLogs lists entries of the last hours, optionally of one level
func (s *LogService) GetRecentLogs(ctx context.Context, hours int, level string, limit int) ([]*syslog.Entry, error) {
	filter := syslog.Filter{Since: s.since(hours)}
	if level != "" {
		filter.Levels = []string{syslog.NormalizeLevel(level)}
	}
	if limit <= 0 {
		limit = 100
	}
	return s.repo.List(ctx, filter, limit)
}

// GetErrorSummary counts error entries of the last hours per logger and level
func (s *LogService) GetErrorSummary(ctx context.Context, hours int) (*syslog.ErrorSummary, error) {
	entries, err := s.repo.List(ctx, syslog.Filter{Since: s.since(hours), Levels: syslog.ErrorLevels}, maxSummaryEntries)
	if err != nil {
		return nil, err
	}

	summary := &syslog.ErrorSummary{
		Total:    len(entries),
		ByLogger: make(map[string]int),
		ByLevel:  make(map[string]int),
	}
	for _, e := range entries {
		summary.ByLogger[e.LoggerName]++
		summary.ByLevel[e.Level]++
	}
	return summary, nil
}

// CountErrorsSince counts ERROR and CRITICAL entries since a time
func (s *LogService) CountErrorsSince(ctx context.Context, since time.Time) (int, error) {
	return s.repo.Count(ctx, syslog.Filter{Since: since, Levels: syslog.ErrorLevels})
}

// CountSince counts all entries since a time
func (s *LogService) CountSince(ctx context.Context, since time.Time) (int, error) {
	return s.repo.Count(ctx, syslog.Filter{Since: since})
}

// CleanupOldLogs deletes log entries and user activities older than days
func (s *LogService) CleanupOldLogs(ctx context.Context, days int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -days)

	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to cleanup old logs")
		return 0, err
	}

	activities, err := s.activities.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to cleanup old activities")
		return deleted, err
	}
	if activities > 0 && s.cache != nil {
		s.cache.Clear(ctx, "user:*")
	}

	s.logger.WithFields(map[string]interface{}{
		"logs_deleted":       deleted,
		"activities_deleted": activities,
	}).Info("Cleaned up old logs")
	return deleted, nil
}

// RecordActivity stores a user action
func (s *LogService) RecordActivity(ctx context.Context, a *activity.Activity) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = s.now()
	}
	if err := s.activities.Create(ctx, a); err != nil {
		s.logger.ErrorWithErr(err, "Failed to record user activity")
		return err
	}

	// user 0 holds the all-users listing
	cache.InvalidateUser(ctx, s.cache, a.UserID)
	cache.InvalidateUser(ctx, s.cache, 0)
	return nil
}

// GetRecentActivities lists recent actions; userID 0 means all users
func (s *LogService) GetRecentActivities(ctx context.Context, userID int64, limit int) ([]*activity.Activity, error) {
	if limit <= 0 {
		limit = 50
	}

	var activities []*activity.Activity
	err := cache.GetOrCompute(ctx, s.cache, cache.UserKey(userID, fmt.Sprintf("activities:%d", limit)), cache.TTLShort, &activities,
		func(ctx context.Context) (interface{}, error) {
			return s.activities.ListRecent(ctx, userID, limit)
		})
	if err != nil {
		return nil, err
	}
	return activities, nil
}

func (s *LogService) since(hours int) time.Time {
	return s.now().Add(-time.Duration(hours) * time.Hour)
}
