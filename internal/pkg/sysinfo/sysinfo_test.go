package sysinfo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostSampler_ReadsHost(t *testing.T) {
	s := NewHostSampler(50 * time.Millisecond)
	ctx := context.Background()

	d, err := s.Disk(ctx, "/")
	require.NoError(t, err)
	assert.True(t, d.UsedPercent >= 0 && d.UsedPercent <= 100)
	assert.NotZero(t, d.TotalBytes)

	m, err := s.Memory(ctx)
	require.NoError(t, err)
	assert.NotZero(t, m.TotalBytes)

	rss, err := s.ProcessRSS(ctx)
	require.NoError(t, err)
	assert.NotZero(t, rss)

	n, err := s.ProcessCount(ctx)
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestHostSampler_MissingPath(t *testing.T) {
	s := NewHostSampler(0)
	_, err := s.Disk(context.Background(), "/does/not/exist/anywhere")
	assert.Error(t, err)
}

func TestConversions(t *testing.T) {
	assert.Equal(t, 1.0, ToMB(1024*1024))
	assert.Equal(t, 2.0, ToGB(2*1024*1024*1024))
}
