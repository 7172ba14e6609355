package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/config"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	require.True(t, c.Set(ctx, "k", profile{Name: "a", Count: 2}, time.Minute))

	var got profile
	require.True(t, c.Get(ctx, "k", &got))
	assert.Equal(t, profile{Name: "a", Count: 2}, got)

	assert.True(t, c.Delete(ctx, "k"))
	assert.False(t, c.Get(ctx, "k", &got))
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "short", "v", 10*time.Second)
	c.Set(ctx, "forever", "v", 0)

	var v string
	assert.True(t, c.Get(ctx, "short", &v))

	now = now.Add(10 * time.Second)
	assert.False(t, c.Get(ctx, "short", &v), "entry must expire once ttl has elapsed")
	assert.True(t, c.Get(ctx, "forever", &v))
	assert.Equal(t, int64(1), c.Stats(ctx).Keys, "expired entry is removed on access")
}

func TestMemory_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set(ctx, "a", 1, time.Second)
	c.Set(ctx, "b", 2, time.Second)
	c.Set(ctx, "c", 3, time.Hour)

	now = now.Add(2 * time.Second)
	assert.Equal(t, 2, c.CleanupExpired(ctx))
	assert.Equal(t, int64(1), c.Stats(ctx).Keys)
}

func TestMemory_Clear(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		wantKeys int64
	}{
		{name: "user pattern", pattern: "user:1:*", wantKeys: 3},
		{name: "star spans slashes", pattern: "assets/*", wantKeys: 3},
		{name: "query scope", pattern: "query:alert_summary:*", wantKeys: 4},
		{name: "single char", pattern: "user:?:dashboard", wantKeys: 3},
		{name: "no match", pattern: "missing:*", wantKeys: 5},
		{name: "everything", pattern: "", wantKeys: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c := NewMemory()
			c.Set(ctx, UserKey(1, "dashboard"), 1, 0)
			c.Set(ctx, UserKey(1, "reports/2024/q1"), 1, 0)
			c.Set(ctx, UserKey(2, "dashboard"), 1, 0)
			c.Set(ctx, "assets/img/logo.png", 1, 0)
			c.Set(ctx, QueryKey("alert_summary", 24), 1, 0)

			assert.True(t, c.Clear(ctx, tt.pattern))
			assert.Equal(t, tt.wantKeys, c.Stats(ctx).Keys)
		})
	}
}

func TestMemory_StatsHitRate(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	c.Set(ctx, "k", 1, 0)

	var v int
	c.Get(ctx, "k", &v)
	c.Get(ctx, "k", &v)
	c.Get(ctx, "k", &v)
	c.Get(ctx, "missing", &v)

	stats := c.Stats(ctx)
	assert.Equal(t, BackendMemory, stats.Backend)
	assert.Equal(t, int64(3), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 75.0, stats.HitRate, 0.001)
}

func TestNew_FallsBackToMemory(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.RedisConfig
	}{
		{name: "disabled", cfg: config.RedisConfig{Enabled: false}},
		{name: "unreachable", cfg: config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}},
		{name: "bad url", cfg: config.RedisConfig{Enabled: true, URL: "://nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(context.Background(), tt.cfg, logger.Nop())
			defer c.Close()

			_, isMemory := c.(*Memory)
			assert.True(t, isMemory)
			assert.Equal(t, BackendMemory, c.Stats(context.Background()).Backend)
		})
	}
}

func TestGetOrCompute(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	calls := 0
	compute := func(ctx context.Context) (interface{}, error) {
		calls++
		return profile{Name: "computed", Count: calls}, nil
	}

	var first, second profile
	require.NoError(t, GetOrCompute(ctx, c, "p", time.Minute, &first, compute))
	require.NoError(t, GetOrCompute(ctx, c, "p", time.Minute, &second, compute))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	boom := errors.New("boom")
	var out profile
	err := GetOrCompute(ctx, c, "other", time.Minute, &out, func(ctx context.Context) (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, c.Get(ctx, "other", &out))
}

func TestQueryKey(t *testing.T) {
	a := QueryKey("metric_trend", "cpu_usage", 24)
	b := QueryKey("metric_trend", "cpu_usage", 24)
	c := QueryKey("metric_trend", "cpu_usage", 48)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, len("query:metric_trend:")+64)
}

func TestInvalidateHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	c.Set(ctx, UserKey(7, "activities/50"), 1, 0)
	c.Set(ctx, UserKey(8, "activities/50"), 1, 0)
	c.Set(ctx, QueryKey("alert_summary", 24), 1, 0)
	c.Set(ctx, QueryKey("metric_trend", "cpu", 24), 1, 0)

	assert.True(t, InvalidateUser(ctx, c, 7))
	assert.True(t, InvalidateQueries(ctx, c, "alert_summary"))

	var v int
	assert.False(t, c.Get(ctx, UserKey(7, "activities/50"), &v))
	assert.True(t, c.Get(ctx, UserKey(8, "activities/50"), &v))
	assert.False(t, c.Get(ctx, QueryKey("alert_summary", 24), &v))
	assert.True(t, c.Get(ctx, QueryKey("metric_trend", "cpu", 24), &v))

	assert.True(t, InvalidateUser(ctx, nil, 7))
}

func TestGetOrCompute_NilCache(t *testing.T) {
	calls := 0
	var out profile
	for i := 0; i < 2; i++ {
		require.NoError(t, GetOrCompute(context.Background(), nil, "p", time.Minute, &out, func(ctx context.Context) (interface{}, error) {
			calls++
			return profile{Name: "fresh", Count: calls}, nil
		}))
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, "fresh", out.Name)
}

func TestParseKeyspaceStats(t *testing.T) {
	info := "# Stats\r\ntotal_connections_received:12\r\nkeyspace_hits:40\r\nkeyspace_misses:10\r\n"
	hits, misses := parseKeyspaceStats(info)
	assert.Equal(t, int64(40), hits)
	assert.Equal(t, int64(10), misses)
}
