package integration

import (
	"context"
	"sync"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/domain/notification"
	"github.com/pratik-mahalle/opsguard/internal/pkg/sysinfo"
)

// MockSampler returns host readings a test can change between runs
type MockSampler struct {
	mu     sync.Mutex
	disk   float64
	memory float64
	cpu    float64
}

func NewMockSampler(disk, memory, cpu float64) *MockSampler {
	return &MockSampler{disk: disk, memory: memory, cpu: cpu}
}

func (m *MockSampler) SetDisk(percent float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disk = percent
}

func (m *MockSampler) Disk(ctx context.Context, path string) (*sysinfo.DiskUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := uint64(100 << 30)
	return &sysinfo.DiskUsage{
		Path:        path,
		TotalBytes:  total,
		FreeBytes:   uint64(float64(total) * (100 - m.disk) / 100),
		UsedPercent: m.disk,
	}, nil
}

func (m *MockSampler) Memory(ctx context.Context) (*sysinfo.MemoryUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := uint64(16 << 30)
	return &sysinfo.MemoryUsage{
		TotalBytes:     total,
		AvailableBytes: uint64(float64(total) * (100 - m.memory) / 100),
		UsedPercent:    m.memory,
	}, nil
}

func (m *MockSampler) CPUPercent(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpu, nil
}

func (m *MockSampler) ProcessCount(ctx context.Context) (int, error) { return 42, nil }

func (m *MockSampler) ProcessRSS(ctx context.Context) (uint64, error) { return 64 << 20, nil }

func (m *MockSampler) Uptime(ctx context.Context) (time.Duration, error) { return time.Hour, nil }

// RecordingNotifier keeps every message it is asked to deliver
type RecordingNotifier struct {
	mu       sync.Mutex
	Messages []*notification.Message
}

func (n *RecordingNotifier) Channel() notification.Channel { return notification.ChannelEmail }

func (n *RecordingNotifier) Notify(ctx context.Context, msg *notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, msg)
	return nil
}

func (n *RecordingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Messages)
}
