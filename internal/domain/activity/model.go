package activity

import (
	"context"
	"time"
)

// Activity records an action performed by an application user
type Activity struct {
	ID           int64                  `json:"id"`
	UserID       int64                  `json:"user_id"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type,omitempty"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
	IPAddress    string                 `json:"ip_address,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}

// Repository stores user activities
type Repository interface {
	Create(ctx context.Context, a *Activity) error
	ListRecent(ctx context.Context, userID int64, limit int) ([]*Activity, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service records and lists user activities
type Service interface {
	RecordActivity(ctx context.Context, a *Activity) error
	GetRecentActivities(ctx context.Context, userID int64, limit int) ([]*Activity, error)
}
