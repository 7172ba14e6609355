package cache

import (
	"bufio"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// Redis is the shared remote backend
type Redis struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedis wraps a connected client
func NewRedis(client *redis.Client, log *logger.Logger) *Redis {
	return &Redis{client: client, log: log}
}

func (r *Redis) Get(ctx context.Context, key string, dest interface{}) bool {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.RecordCacheOperation("get", "miss")
		return false
	}
	if err != nil {
		metrics.RecordCacheOperation("get", "error")
		r.log.With("key", key).ErrorWithErr(err, "Cache get failed")
		return false
	}
	metrics.RecordCacheOperation("get", "hit")

	if err := json.Unmarshal(data, dest); err != nil {
		r.log.With("key", key).ErrorWithErr(err, "Failed to decode cached value")
		return false
	}
	return true
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) bool {
	data, err := json.Marshal(value)
	if err != nil {
		r.log.With("key", key).ErrorWithErr(err, "Failed to encode cache value")
		return false
	}
	if ttl < 0 {
		ttl = 0
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		r.log.With("key", key).ErrorWithErr(err, "Cache set failed")
		return false
	}
	return true
}

func (r *Redis) Delete(ctx context.Context, key string) bool {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.log.With("key", key).ErrorWithErr(err, "Cache delete failed")
		return false
	}
	return true
}

func (r *Redis) Clear(ctx context.Context, pattern string) bool {
	if pattern == "" {
		if err := r.client.FlushDB(ctx).Err(); err != nil {
			r.log.ErrorWithErr(err, "Cache flush failed")
			return false
		}
		return true
	}

	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		r.log.With("pattern", pattern).ErrorWithErr(err, "Cache key scan failed")
		return false
	}
	if len(keys) == 0 {
		return true
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.log.With("pattern", pattern).ErrorWithErr(err, "Cache pattern delete failed")
		return false
	}
	return true
}

func (r *Redis) Stats(ctx context.Context) Stats {
	stats := Stats{Backend: BackendRedis}

	size, err := r.client.DBSize(ctx).Result()
	if err != nil {
		r.log.ErrorWithErr(err, "Failed to read cache size")
		return stats
	}
	stats.Connected = true
	stats.Keys = size

	info, err := r.client.Info(ctx, "stats").Result()
	if err != nil {
		r.log.WarnWithErr(err, "Failed to read cache stats")
		return stats
	}
	stats.Hits, stats.Misses = parseKeyspaceStats(info)
	stats.HitRate = hitRate(stats.Hits, stats.Misses)
	return stats
}

// CleanupExpired is a no-op; redis expires keys itself
func (r *Redis) CleanupExpired(ctx context.Context) int {
	return 0
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// parseKeyspaceStats extracts keyspace_hits and keyspace_misses from INFO output
func parseKeyspaceStats(info string) (hits, misses int64) {
	scanner := bufio.NewScanner(strings.NewReader(info))
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok {
			continue
		}
		switch key {
		case "keyspace_hits":
			hits, _ = strconv.ParseInt(value, 10, 64)
		case "keyspace_misses":
			misses, _ = strconv.ParseInt(value, 10, 64)
		}
	}
	return hits, misses
}
