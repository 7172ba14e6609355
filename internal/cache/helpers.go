package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// TTLShort is how long read-model query results stay cached
const TTLShort = 5 * time.Minute

// GetOrCompute returns the cached value of key, or computes, stores and returns it.
// A nil cache always computes. Concurrent misses for the same key each run compute.
func GetOrCompute(ctx context.Context, c Cache, key string, ttl time.Duration, dest interface{}, compute func(ctx context.Context) (interface{}, error)) error {
	if c != nil && c.Get(ctx, key, dest) {
		return nil
	}

	value, err := compute(ctx)
	if err != nil {
		return err
	}
	if c != nil {
		c.Set(ctx, key, value, ttl)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode computed value: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// QueryKey derives a stable key for a query scope and its parameters
func QueryKey(scope string, params ...interface{}) string {
	h := sha256.New()
	for _, p := range params {
		fmt.Fprintf(h, "%v|", p)
	}
	return queryPrefix(scope) + hex.EncodeToString(h.Sum(nil))
}

// InvalidateQueries drops every cached result of a query scope
func InvalidateQueries(ctx context.Context, c Cache, scope string) bool {
	if c == nil {
		return true
	}
	return c.Clear(ctx, queryPrefix(scope)+"*")
}

func queryPrefix(scope string) string {
	return "query:" + scope + ":"
}

// UserKey scopes a key to one user
func UserKey(userID int64, name string) string {
	return fmt.Sprintf("user:%d:%s", userID, name)
}

// InvalidateUser drops every entry scoped to a user
func InvalidateUser(ctx context.Context, c Cache, userID int64) bool {
	if c == nil {
		return true
	}
	return c.Clear(ctx, fmt.Sprintf("user:%d:*", userID))
}
