package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pratik-mahalle/opsguard/internal/cache"
	"github.com/pratik-mahalle/opsguard/internal/config"
	"github.com/pratik-mahalle/opsguard/internal/domain/alert"
	"github.com/pratik-mahalle/opsguard/internal/domain/metric"
	"github.com/pratik-mahalle/opsguard/internal/domain/performance"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/metrics"
	"github.com/pratik-mahalle/opsguard/internal/pkg/ringbuffer"
	"github.com/pratik-mahalle/opsguard/internal/pkg/sysinfo"
)

const (
	requestRingSize = 1000
	slowRingSize    = 100
	flushEvery      = 10

	// performanceAlertInterval spaces out alerts of one kind while a condition persists
	performanceAlertInterval = 5 * time.Minute
)

// PerformanceService implements performance.Service
type PerformanceService struct {
	metrics metric.Service
	alerts  alert.Service
	sampler sysinfo.Sampler
	cache   cache.Cache
	cfg     config.PerformanceConfig
	logger  *logger.Logger
	now     func() time.Time

	requests *ringbuffer.Buffer[performance.RequestSample]
	slow     *ringbuffer.Buffer[performance.SlowRequest]

	memoryAlerts *rate.Sometimes
	slowAlerts   *rate.Sometimes
}

// NewPerformanceService creates a new performance monitor; alerts may be nil
func NewPerformanceService(metricSvc metric.Service, alerts alert.Service, sampler sysinfo.Sampler, c cache.Cache, cfg config.PerformanceConfig, log *logger.Logger) *PerformanceService {
	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 2 * time.Second
	}
	if cfg.MemoryWarningPercent <= 0 {
		cfg.MemoryWarningPercent = 80
	}
	if cfg.SlowFunctionWarning <= 0 {
		cfg.SlowFunctionWarning = time.Second
	}
	return &PerformanceService{
		metrics:  metricSvc,
		alerts:   alerts,
		sampler:  sampler,
		cache:    c,
		cfg:      cfg,
		logger:   log.WithComponent("performance_monitor"),
		now:      time.Now,
		requests: ringbuffer.New[performance.RequestSample](requestRingSize),
		slow:     ringbuffer.New[performance.SlowRequest](slowRingSize),

		memoryAlerts: &rate.Sometimes{First: 1, Interval: performanceAlertInterval},
		slowAlerts:   &rate.Sometimes{First: 1, Interval: performanceAlertInterval},
	}
}

// RequestStarted snapshots the start time and process RSS
func (s *PerformanceService) RequestStarted(ctx context.Context, info performance.RequestInfo) *performance.Timer {
	t := &performance.Timer{Info: info, Start: s.now()}
	if rss, err := s.sampler.ProcessRSS(ctx); err == nil {
		t.StartMemory = rss
	}
	return t
}

// RequestFinished appends the request to the ring and persists flushes and slow requests
func (s *PerformanceService) RequestFinished(ctx context.Context, t *performance.Timer, status int) time.Duration {
	finished := s.now()
	elapsed := finished.Sub(t.Start)

	sample := performance.RequestSample{
		Endpoint:  t.Info.Endpoint,
		Method:    t.Info.Method,
		Duration:  elapsed,
		Status:    status,
		Timestamp: finished,
	}
	if t.StartMemory > 0 {
		if rss, err := s.sampler.ProcessRSS(ctx); err == nil {
			sample.MemoryDelta = int64(rss) - int64(t.StartMemory)
		}
	}

	if total := s.requests.Push(sample); total%flushEvery == 0 {
		s.flush(ctx, t.Info.Endpoint)
	}

	if elapsed > s.cfg.SlowRequestThreshold {
		s.recordSlowRequest(ctx, t, sample)
	}

	return elapsed
}

// flush persists the average of the last samples and checks host memory
func (s *PerformanceService) flush(ctx context.Context, endpoint string) {
	recent := s.requests.Last(flushEvery)
	if len(recent) == 0 {
		return
	}

	var totalTime time.Duration
	var totalMemory int64
	for _, r := range recent {
		totalTime += r.Duration
		totalMemory += r.MemoryDelta
	}
	n := float64(len(recent))
	avgMs := float64(totalTime.Microseconds()) / 1000 / n

	if err := s.metrics.RecordMetric(ctx, metric.NameAvgResponseTime, avgMs, "ms", metric.CategoryRequest, endpoint, nil); err != nil {
		s.logger.ErrorWithErr(err, "Failed to record request time")
	}
	avgMemoryMB := float64(totalMemory) / n / (1024 * 1024)
	if err := s.metrics.RecordMetric(ctx, metric.NameRequestMemoryUsage, avgMemoryMB, "MB", metric.CategoryRequest, endpoint, nil); err != nil {
		s.logger.ErrorWithErr(err, "Failed to record memory usage")
	}

	mem, err := s.sampler.Memory(ctx)
	if err != nil {
		return
	}
	if mem.UsedPercent > s.cfg.MemoryWarningPercent {
		s.logger.Warnf("High memory usage detected: %.1f%%", mem.UsedPercent)
		if err := s.metrics.RecordMetric(ctx, metric.NameHighMemoryUsage, mem.UsedPercent, "%", metric.CategorySystem, "performance_monitor", nil); err != nil {
			s.logger.ErrorWithErr(err, "Failed to record high memory usage")
		}
		s.memoryAlerts.Do(func() {
			s.sendAlert(ctx, metric.NameHighMemoryUsage, mem.UsedPercent, s.cfg.MemoryWarningPercent, map[string]interface{}{
				"endpoint": endpoint,
			})
		})
	}
}

func (s *PerformanceService) sendAlert(ctx context.Context, name string, value, threshold float64, details map[string]interface{}) {
	if s.alerts == nil {
		return
	}
	if _, err := s.alerts.SendPerformanceAlert(ctx, name, value, threshold, details); err != nil {
		s.logger.With("metric", name).ErrorWithErr(err, "Failed to raise performance alert")
	}
}

func (s *PerformanceService) recordSlowRequest(ctx context.Context, t *performance.Timer, sample performance.RequestSample) {
	slow := performance.SlowRequest{
		Endpoint:  sample.Endpoint,
		Method:    sample.Method,
		URL:       t.Info.URL,
		Seconds:   sample.Duration.Seconds(),
		Status:    sample.Status,
		UserAgent: t.Info.UserAgent,
		IP:        t.Info.IP,
		Timestamp: sample.Timestamp,
	}
	s.slow.Push(slow)
	metrics.RecordSlowRequest(sample.Endpoint)

	s.logger.WithFields(map[string]interface{}{
		"endpoint": sample.Endpoint,
		"method":   sample.Method,
		"duration": sample.Duration.Seconds(),
	}).Warn("Slow request detected")

	metadata := map[string]interface{}{
		"endpoint":     slow.Endpoint,
		"method":       slow.Method,
		"url":          slow.URL,
		"status":       slow.Status,
		"memory_delta": sample.MemoryDelta,
		"user_agent":   slow.UserAgent,
		"ip":           slow.IP,
	}
	ms := float64(sample.Duration.Microseconds()) / 1000
	if err := s.metrics.RecordMetric(ctx, metric.NameSlowRequest, ms, "ms", metric.CategoryPerformanceIssue, sample.Endpoint, metadata); err != nil {
		s.logger.ErrorWithErr(err, "Failed to log slow request")
	}

	s.slowAlerts.Do(func() {
		s.sendAlert(ctx, metric.NameSlowRequest, slow.Seconds, s.cfg.SlowRequestThreshold.Seconds(), metadata)
	})
}

// GetPerformanceStats summarizes the last hours without writing anything
func (s *PerformanceService) GetPerformanceStats(ctx context.Context, hours int) (*performance.Stats, error) {
	cutoff := s.now().Add(-time.Duration(hours) * time.Hour)

	avg, err := s.metrics.GetAverage(ctx, metric.NameAvgResponseTime, hours)
	if err != nil {
		return nil, err
	}

	stats := &performance.Stats{AvgResponseTime: roundTo(avg, 2), Uptime: "N/A"}
	for _, r := range s.requests.Snapshot() {
		if !r.Timestamp.After(cutoff) {
			continue
		}
		stats.TotalRequests++
		if r.Duration > s.cfg.SlowRequestThreshold {
			stats.SlowRequestsCount++
		}
	}

	if mem, err := s.sampler.Memory(ctx); err == nil {
		stats.MemoryUsage = performance.MemoryStats{
			Percent:     mem.UsedPercent,
			AvailableGB: roundTo(sysinfo.ToGB(mem.AvailableBytes), 2),
			TotalGB:     roundTo(sysinfo.ToGB(mem.TotalBytes), 2),
		}
	}
	if cpu, err := s.sampler.CPUPercent(ctx); err == nil {
		stats.CPUUsage = cpu
	}
	if up, err := s.sampler.Uptime(ctx); err == nil {
		stats.Uptime = up.String()
	}
	if s.cache != nil {
		stats.CacheStats = s.cache.Stats(ctx)
	}

	return stats, nil
}

// GetEndpointPerformance aggregates the ring per endpoint; older requests are not covered
func (s *PerformanceService) GetEndpointPerformance(hours int) map[string]*performance.EndpointStats {
	cutoff := s.now().Add(-time.Duration(hours) * time.Hour)
	out := make(map[string]*performance.EndpointStats)
	totals := make(map[string]float64)

	for _, r := range s.requests.Snapshot() {
		if !r.Timestamp.After(cutoff) {
			continue
		}
		secs := r.Duration.Seconds()
		st, ok := out[r.Endpoint]
		if !ok {
			st = &performance.EndpointStats{MinTime: secs}
			out[r.Endpoint] = st
		}
		st.Count++
		totals[r.Endpoint] += secs
		if secs > st.MaxTime {
			st.MaxTime = secs
		}
		if secs < st.MinTime {
			st.MinTime = secs
		}
		if r.Duration > s.cfg.SlowRequestThreshold {
			st.SlowCount++
		}
	}

	for endpoint, st := range out {
		st.AvgTime = totals[endpoint] / float64(st.Count)
		st.SlowPercentage = float64(st.SlowCount) / float64(st.Count) * 100
	}
	return out
}

// GetSlowRequests returns up to limit slow requests, newest first
func (s *PerformanceService) GetSlowRequests(limit int) []performance.SlowRequest {
	if limit <= 0 {
		limit = 50
	}
	items := s.slow.Last(limit)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	return items
}

// Measure runs fn and records its duration and memory delta; fn's error is returned as is
func (s *PerformanceService) Measure(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	start := s.now()
	startRSS, _ := s.sampler.ProcessRSS(ctx)

	err := fn(ctx)
	elapsed := s.now().Sub(start)

	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"function": name,
			"duration": elapsed.Seconds(),
		}).ErrorWithErr(err, "Function failed")
		return err
	}

	endRSS, _ := s.sampler.ProcessRSS(ctx)
	memoryMB := (float64(endRSS) - float64(startRSS)) / (1024 * 1024)
	key := "function_" + strings.ReplaceAll(name, " ", "_")

	if recErr := s.metrics.RecordMetric(ctx, key+"_time", float64(elapsed.Microseconds())/1000, "ms", metric.CategoryFunction, name, nil); recErr != nil {
		s.logger.ErrorWithErr(recErr, "Failed to record function time")
	}
	if recErr := s.metrics.RecordMetric(ctx, key+"_memory", memoryMB, "MB", metric.CategoryFunction, name, nil); recErr != nil {
		s.logger.ErrorWithErr(recErr, "Failed to record function memory")
	}

	if elapsed > s.cfg.SlowFunctionWarning {
		s.logger.WithFields(map[string]interface{}{
			"function": name,
			"duration": elapsed.Seconds(),
		}).Warn("Slow function detected")
	}
	return nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
