// Package cache is a key/value cache with TTL over redis, falling back to process memory
// when redis cannot be reached at startup.
package cache

import (
	"context"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/config"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Backend names reported in Stats
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

const connectTimeout = 5 * time.Second

// Stats describes the active backend
type Stats struct {
	Backend   string  `json:"backend"`
	Connected bool    `json:"connected"`
	Keys      int64   `json:"keys"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
}

// Cache stores JSON-encoded values; backend errors are logged and reported as a miss or false
type Cache interface {
	// Get decodes the value of key into dest and reports whether it was found
	Get(ctx context.Context, key string, dest interface{}) bool

	// Set stores value under key; ttl <= 0 means no expiry
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) bool

	// Delete removes key
	Delete(ctx context.Context, key string) bool

	// Clear removes keys matching a glob pattern, or everything when pattern is empty
	Clear(ctx context.Context, pattern string) bool

	// Stats reports backend, connectivity and key counts
	Stats(ctx context.Context) Stats

	// CleanupExpired drops expired entries and returns how many were removed
	CleanupExpired(ctx context.Context) int

	// Close releases backend resources
	Close() error
}

// New picks the backend once: redis when enabled and reachable, memory otherwise
func New(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) Cache {
	log = log.WithComponent("cache")

	if !cfg.Enabled {
		log.Info("Redis disabled, using in-memory cache")
		return NewMemory()
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		log.WarnWithErr(err, "Invalid redis configuration, using in-memory cache")
		return NewMemory()
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		log.WithFields(map[string]interface{}{
			"addr":  opts.Addr,
			"error": err.Error(),
		}).Warn("Redis unavailable, using in-memory cache")
		return NewMemory()
	}

	log.With("addr", opts.Addr).Info("Connected to redis cache")
	return NewRedis(client, log)
}

func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL != "" {
		return redis.ParseURL(cfg.URL)
	}
	return &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

func hitRate(hits, misses int64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses) * 100
}
