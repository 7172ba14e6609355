package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/domain/activity"
	"github.com/pratik-mahalle/opsguard/internal/domain/alert"
	"github.com/pratik-mahalle/opsguard/internal/domain/health"
	"github.com/pratik-mahalle/opsguard/internal/domain/job"
	"github.com/pratik-mahalle/opsguard/internal/domain/metric"
	"github.com/pratik-mahalle/opsguard/internal/domain/syslog"
	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
)

// MockAlertRepository is a mock implementation of alert.Repository
type MockAlertRepository struct {
	mu          sync.Mutex
	Alerts      map[int64]*alert.Alert
	NextID      int64
	CreateError error
}

func NewMockAlertRepository() *MockAlertRepository {
	return &MockAlertRepository{
		Alerts: make(map[int64]*alert.Alert),
		NextID: 1,
	}
}

func (m *MockAlertRepository) Create(ctx context.Context, a *alert.Alert) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if a.Status == "" {
		a.Status = alert.StatusActive
	}
	a.ID = m.NextID
	m.NextID++
	m.Alerts[a.ID] = a
	return a.ID, nil
}

func (m *MockAlertRepository) GetByID(ctx context.Context, id int64) (*alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Alerts[id]
	if !ok {
		return nil, errors.NotFound("Alert")
	}
	cp := *a
	return &cp, nil
}

func (m *MockAlertRepository) Update(ctx context.Context, a *alert.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Alerts[a.ID]; !ok {
		return errors.NotFound("Alert")
	}
	cp := *a
	m.Alerts[a.ID] = &cp
	return nil
}

func (m *MockAlertRepository) FindActive(ctx context.Context, alertType, checkName string) (*alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *alert.Alert
	for _, a := range m.Alerts {
		if a.Type == alertType && a.CheckName() == checkName && a.Status == alert.StatusActive {
			if found == nil || a.ID > found.ID {
				found = a
			}
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (m *MockAlertRepository) List(ctx context.Context, filter alert.Filter, limit, offset int) ([]*alert.Alert, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*alert.Alert
	for _, a := range m.Alerts {
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.Severity != "" && a.Severity != filter.Severity {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.CheckName != "" && a.CheckName() != filter.CheckName {
			continue
		}
		if filter.Since != nil && a.CreatedAt.Before(*filter.Since) {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	total := int64(len(result))
	if offset > len(result) {
		offset = len(result)
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, total, nil
}

func (m *MockAlertRepository) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, a := range m.Alerts {
		if a.Status == alert.StatusResolved && a.CreatedAt.Before(cutoff) {
			delete(m.Alerts, id)
			n++
		}
	}
	return n, nil
}

// MockMetricRepository is a mock implementation of metric.Repository
type MockMetricRepository struct {
	mu      sync.Mutex
	Samples []*metric.Sample
	NextID  int64
}

func NewMockMetricRepository() *MockMetricRepository {
	return &MockMetricRepository{NextID: 1}
}

func (m *MockMetricRepository) Create(ctx context.Context, s *metric.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}
	s.ID = m.NextID
	m.NextID++
	m.Samples = append(m.Samples, s)
	return nil
}

func (m *MockMetricRepository) List(ctx context.Context, filter metric.Filter, limit int) ([]*metric.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*metric.Sample
	for _, s := range m.Samples {
		if filter.Name != "" && s.Name != filter.Name {
			continue
		}
		if filter.Category != "" && s.Category != filter.Category {
			continue
		}
		if s.Timestamp.Before(filter.Since) {
			continue
		}
		result = append(result, s)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *MockMetricRepository) Average(ctx context.Context, name string, since time.Time) (float64, int, error) {
	samples, _ := m.List(ctx, metric.Filter{Name: name, Since: since}, 0)
	if len(samples) == 0 {
		return 0, 0, nil
	}
	var sum float64
	for _, s := range samples {
		sum += s.Value
	}
	return sum / float64(len(samples)), len(samples), nil
}

func (m *MockMetricRepository) Count(ctx context.Context, name string, since time.Time) (int, error) {
	samples, _ := m.List(ctx, metric.Filter{Name: name, Since: since}, 0)
	return len(samples), nil
}

func (m *MockMetricRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Samples[:0]
	var n int64
	for _, s := range m.Samples {
		if s.Timestamp.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, s)
	}
	m.Samples = kept
	return n, nil
}

// Named returns the recorded samples with the given metric name
func (m *MockMetricRepository) Named(name string) []*metric.Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*metric.Sample
	for _, s := range m.Samples {
		if s.Name == name {
			result = append(result, s)
		}
	}
	return result
}

// MockHealthRepository is a mock implementation of health.Repository
type MockHealthRepository struct {
	mu          sync.Mutex
	Results     []*health.CheckResult
	NextID      int64
	CreateError error
}

func NewMockHealthRepository() *MockHealthRepository {
	return &MockHealthRepository{NextID: 1}
}

func (m *MockHealthRepository) Create(ctx context.Context, r *health.CheckResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	r.ID = m.NextID
	m.NextID++
	m.Results = append(m.Results, r)
	return nil
}

func (m *MockHealthRepository) Latest(ctx context.Context) ([]*health.CheckResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := make(map[string]*health.CheckResult)
	for _, r := range m.Results {
		latest[r.CheckName] = r
	}
	result := make([]*health.CheckResult, 0, len(latest))
	for _, r := range latest {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CheckName < result[j].CheckName })
	return result, nil
}

func (m *MockHealthRepository) History(ctx context.Context, checkName string, limit int) ([]*health.CheckResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*health.CheckResult
	for i := len(m.Results) - 1; i >= 0; i-- {
		if m.Results[i].CheckName == checkName {
			result = append(result, m.Results[i])
			if limit > 0 && len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (m *MockHealthRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Results[:0]
	var n int64
	for _, r := range m.Results {
		if r.Timestamp.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.Results = kept
	return n, nil
}

// MockSystemLogRepository is a mock implementation of syslog.Repository
type MockSystemLogRepository struct {
	mu      sync.Mutex
	Entries []*syslog.Entry
	NextID  int64
}

func NewMockSystemLogRepository() *MockSystemLogRepository {
	return &MockSystemLogRepository{NextID: 1}
}

func (m *MockSystemLogRepository) Create(ctx context.Context, e *syslog.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.ID = m.NextID
	m.NextID++
	m.Entries = append(m.Entries, e)
	return nil
}

func (m *MockSystemLogRepository) match(e *syslog.Entry, filter syslog.Filter) bool {
	if e.Timestamp.Before(filter.Since) {
		return false
	}
	if filter.Logger != "" && e.LoggerName != filter.Logger {
		return false
	}
	if len(filter.Levels) == 0 {
		return true
	}
	for _, l := range filter.Levels {
		if e.Level == l {
			return true
		}
	}
	return false
}

func (m *MockSystemLogRepository) List(ctx context.Context, filter syslog.Filter, limit int) ([]*syslog.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*syslog.Entry
	for i := len(m.Entries) - 1; i >= 0; i-- {
		if m.match(m.Entries[i], filter) {
			result = append(result, m.Entries[i])
			if limit > 0 && len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (m *MockSystemLogRepository) Count(ctx context.Context, filter syslog.Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Entries {
		if m.match(e, filter) {
			n++
		}
	}
	return n, nil
}

func (m *MockSystemLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Entries[:0]
	var n int64
	for _, e := range m.Entries {
		if e.Timestamp.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.Entries = kept
	return n, nil
}

// MockActivityRepository is a mock implementation of activity.Repository
type MockActivityRepository struct {
	mu         sync.Mutex
	Activities []*activity.Activity
	NextID     int64
}

func NewMockActivityRepository() *MockActivityRepository {
	return &MockActivityRepository{NextID: 1}
}

func (m *MockActivityRepository) Create(ctx context.Context, a *activity.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	a.ID = m.NextID
	m.NextID++
	m.Activities = append(m.Activities, a)
	return nil
}

func (m *MockActivityRepository) ListRecent(ctx context.Context, userID int64, limit int) ([]*activity.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*activity.Activity
	for i := len(m.Activities) - 1; i >= 0; i-- {
		a := m.Activities[i]
		if userID != 0 && a.UserID != userID {
			continue
		}
		result = append(result, a)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *MockActivityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Activities[:0]
	var n int64
	for _, a := range m.Activities {
		if a.Timestamp.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, a)
	}
	m.Activities = kept
	return n, nil
}

// MockJobRepository is a mock implementation of job.Repository
type MockJobRepository struct {
	mu         sync.Mutex
	Executions map[string]*job.Execution
	order      []string
	nextID     int
}

func NewMockJobRepository() *MockJobRepository {
	return &MockJobRepository{Executions: make(map[string]*job.Execution)}
}

func (m *MockJobRepository) CreateExecution(ctx context.Context, e *job.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		m.nextID++
		e.ID = fmt.Sprintf("exec-%d", m.nextID)
	}
	cp := *e
	m.Executions[e.ID] = &cp
	m.order = append(m.order, e.ID)
	return nil
}

func (m *MockJobRepository) UpdateExecution(ctx context.Context, e *job.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Executions[e.ID]; !ok {
		return errors.NotFound("Job execution")
	}
	cp := *e
	m.Executions[e.ID] = &cp
	return nil
}

func (m *MockJobRepository) ListExecutions(ctx context.Context, filter job.ExecutionFilter, limit int) ([]*job.Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*job.Execution
	for i := len(m.order) - 1; i >= 0; i-- {
		e := m.Executions[m.order[i]]
		if filter.JobName != "" && e.JobName != filter.JobName {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		cp := *e
		result = append(result, &cp)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *MockJobRepository) GetLatestExecution(ctx context.Context, name job.Name) (*job.Execution, error) {
	list, _ := m.ListExecutions(ctx, job.ExecutionFilter{JobName: name}, 1)
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (m *MockJobRepository) CleanupOldExecutions(ctx context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	kept := m.order[:0]
	for _, id := range m.order {
		if m.Executions[id].StartedAt.Before(olderThan) {
			delete(m.Executions, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return n, nil
}
