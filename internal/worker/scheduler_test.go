package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/opsguard/internal/cache"
	"github.com/pratik-mahalle/opsguard/internal/config"
	"github.com/pratik-mahalle/opsguard/internal/domain/alert"
	"github.com/pratik-mahalle/opsguard/internal/domain/backup"
	"github.com/pratik-mahalle/opsguard/internal/domain/health"
	"github.com/pratik-mahalle/opsguard/internal/domain/job"
	"github.com/pratik-mahalle/opsguard/internal/domain/notification"
	"github.com/pratik-mahalle/opsguard/internal/domain/performance"
	apperrors "github.com/pratik-mahalle/opsguard/internal/pkg/errors"
	"github.com/pratik-mahalle/opsguard/internal/services"
	"github.com/pratik-mahalle/opsguard/internal/testutil"
)

type countingNotifier struct {
	mu   sync.Mutex
	sent []*notification.Message
}

func (n *countingNotifier) Channel() notification.Channel { return notification.ChannelEmail }

func (n *countingNotifier) Notify(ctx context.Context, msg *notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// stubBackups fails every creation when fail is set
type stubBackups struct {
	fail    bool
	created []backup.Type
}

func (b *stubBackups) create(bt backup.Type) bool {
	b.created = append(b.created, bt)
	return !b.fail
}

func (b *stubBackups) CreateDatabaseBackup(ctx context.Context, name string) bool {
	return b.create(backup.TypeDatabase)
}

func (b *stubBackups) CreateFilesBackup(ctx context.Context, name string) bool {
	return b.create(backup.TypeFiles)
}

func (b *stubBackups) CreateFullBackup(ctx context.Context, name string) bool {
	return b.create(backup.TypeFull)
}

func (b *stubBackups) RestoreDatabaseBackup(ctx context.Context, reference string) error {
	return nil
}

func (b *stubBackups) GetBackupList(ctx context.Context, t backup.Type) ([]*backup.Record, error) {
	return nil, nil
}

func (b *stubBackups) OpenBackup(ctx context.Context, name string, t backup.Type) (io.ReadCloser, *backup.Record, error) {
	return nil, nil, apperrors.NotFound("Backup")
}

func (b *stubBackups) DeleteBackup(ctx context.Context, name string, t backup.Type) error {
	return nil
}

func (b *stubBackups) CleanupOldBackups(ctx context.Context) (int, error) {
	return 3, nil
}

// measuringPerformance records Measure calls; the other methods are not used by the scheduler
type measuringPerformance struct {
	performance.Service
	measured []string
	failed   []string
}

func (p *measuringPerformance) Measure(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	p.measured = append(p.measured, name)
	err := fn(ctx)
	if err != nil {
		p.failed = append(p.failed, name)
	}
	return err
}

type schedulerFixture struct {
	scheduler  *Scheduler
	health     *services.HealthService
	alerts     *testutil.MockAlertRepository
	executions *testutil.MockJobRepository
	notifier   *countingNotifier
	backups    *stubBackups
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()
	log := testutil.NewTestLogger()

	f := &schedulerFixture{
		alerts:     testutil.NewMockAlertRepository(),
		executions: testutil.NewMockJobRepository(),
		notifier:   &countingNotifier{},
		backups:    &stubBackups{},
	}
	alertSvc := services.NewAlertService(f.alerts, f.notifier, []string{"ops@example.com"}, nil, log)
	f.health = services.NewHealthService(testutil.NewMockHealthRepository(), alertSvc, nil, nil, nil, "/", time.Second, log)
	metricSvc := services.NewMetricService(testutil.NewMockMetricRepository(), nil, log)
	logSvc := services.NewLogService(testutil.NewMockSystemLogRepository(), testutil.NewMockActivityRepository(), nil, log)

	s, err := NewScheduler(config.SchedulerConfig{
		LogRetentionDays:    30,
		AlertRetentionDays:  30,
		MetricRetentionDays: 90,
	}, config.MonitoringConfig{EscalateAfter: 2, ResolveOnRecovery: true}, Dependencies{
		Health:     f.health,
		Alerts:     alertSvc,
		Logs:       logSvc,
		Metrics:    metricSvc,
		Cache:      cache.NewMemory(),
		Backups:    f.backups,
		Executions: f.executions,
	}, log)
	require.NoError(t, err)
	f.scheduler = s
	return f
}

func TestScheduler_ThreeCriticalRunsNotifyOnce(t *testing.T) {
	f := newSchedulerFixture(t)
	f.health.Register("database", health.CheckFunc(func(ctx context.Context) health.Outcome {
		return health.Outcome{Status: health.StatusCritical, Err: errors.New("connection refused")}
	}))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.scheduler.RunJob(ctx, job.NameHealthChecks)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, f.scheduler.FailureCount("database"))
	assert.Equal(t, 1, f.notifier.count())

	open, err := f.alerts.FindActive(ctx, alert.TypeHealthCheck, "database")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.NotNil(t, open.NotifiedAt)
	assert.Len(t, f.alerts.Alerts, 1)
}

func TestScheduler_RecoveryResetsAndResolves(t *testing.T) {
	f := newSchedulerFixture(t)
	status := health.StatusWarning
	f.health.Register("disk_space", health.CheckFunc(func(ctx context.Context) health.Outcome {
		return health.Outcome{Status: status}
	}))
	ctx := context.Background()

	_, err := f.scheduler.RunJob(ctx, job.NameHealthChecks)
	require.NoError(t, err)
	assert.Equal(t, 1, f.scheduler.FailureCount("disk_space"))
	assert.Equal(t, 0, f.notifier.count())

	status = health.StatusHealthy
	_, err = f.scheduler.RunJob(ctx, job.NameHealthChecks)
	require.NoError(t, err)

	assert.Equal(t, 0, f.scheduler.FailureCount("disk_space"))
	open, err := f.alerts.FindActive(ctx, alert.TypeHealthCheck, "disk_space")
	require.NoError(t, err)
	assert.Nil(t, open)
}

func TestScheduler_RunJobRecordsExecution(t *testing.T) {
	f := newSchedulerFixture(t)

	e, err := f.scheduler.RunJob(context.Background(), job.NameBackupCleanup)
	require.NoError(t, err)
	assert.Equal(t, job.ExecutionStatusCompleted, e.Status)
	assert.Equal(t, TriggerManual, e.Trigger)
	assert.JSONEq(t, `{"deleted":3}`, string(e.Result))

	latest, err := f.executions.GetLatestExecution(context.Background(), job.NameBackupCleanup)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, job.ExecutionStatusCompleted, latest.Status)
}

func TestScheduler_JobsAreMeasured(t *testing.T) {
	f := newSchedulerFixture(t)
	perf := &measuringPerformance{}
	f.scheduler.deps.Performance = perf
	ctx := context.Background()

	e, err := f.scheduler.RunJob(ctx, job.NameBackupCleanup)
	require.NoError(t, err)
	assert.JSONEq(t, `{"deleted":3}`, string(e.Result))

	f.backups.fail = true
	e, err = f.scheduler.RunJob(ctx, job.NameDatabaseBackup)
	require.NoError(t, err)
	assert.Equal(t, job.ExecutionStatusFailed, e.Status)

	assert.Equal(t, []string{"job " + string(job.NameBackupCleanup), "job " + string(job.NameDatabaseBackup)}, perf.measured)
	assert.Equal(t, []string{"job " + string(job.NameDatabaseBackup)}, perf.failed)
}

func TestScheduler_FailedBackupIsRecorded(t *testing.T) {
	f := newSchedulerFixture(t)
	f.backups.fail = true

	e, err := f.scheduler.RunJob(context.Background(), job.NameFullBackup)
	require.NoError(t, err)
	assert.Equal(t, job.ExecutionStatusFailed, e.Status)
	assert.Contains(t, e.ErrorMessage, "full backup failed")
	assert.Equal(t, []backup.Type{backup.TypeFull}, f.backups.created)
}

func TestScheduler_PanicIsContained(t *testing.T) {
	f := newSchedulerFixture(t)
	f.scheduler.jobs["explode"] = &registeredJob{
		name:     "explode",
		schedule: "@daily",
		run: func(ctx context.Context) (interface{}, error) {
			panic("boom")
		},
	}

	e, err := f.scheduler.RunJob(context.Background(), "explode")
	require.NoError(t, err)
	assert.Equal(t, job.ExecutionStatusFailed, e.Status)
	assert.Contains(t, e.ErrorMessage, "panicked")

	e, err = f.scheduler.RunJob(context.Background(), job.NameCleanup)
	require.NoError(t, err)
	assert.Equal(t, job.ExecutionStatusCompleted, e.Status)
}

func TestScheduler_OverlappingRunIsSkipped(t *testing.T) {
	f := newSchedulerFixture(t)
	started := make(chan struct{})
	release := make(chan struct{})
	f.scheduler.jobs["slow"] = &registeredJob{
		name:     "slow",
		schedule: "@daily",
		run: func(ctx context.Context) (interface{}, error) {
			close(started)
			<-release
			return nil, nil
		},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.scheduler.RunJob(context.Background(), "slow")
	}()
	<-started

	_, err := f.scheduler.RunJob(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrJobRunning)

	close(release)
	<-done

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, f.scheduler.Stop(ctx))
}

func TestScheduler_UnknownJob(t *testing.T) {
	f := newSchedulerFixture(t)

	_, err := f.scheduler.RunJob(context.Background(), "nope")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestScheduler_RegistersDefaultSchedules(t *testing.T) {
	f := newSchedulerFixture(t)

	assert.ElementsMatch(t, []job.Name{
		job.NameHealthChecks, job.NameCleanup, job.NameDatabaseBackup,
		job.NameFilesBackup, job.NameFullBackup, job.NameBackupCleanup,
	}, f.scheduler.Jobs())
	assert.Equal(t, "@every 5m", f.scheduler.jobs[job.NameHealthChecks].schedule)
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	_, err := NewScheduler(config.SchedulerConfig{Cleanup: "not a schedule"}, config.MonitoringConfig{}, Dependencies{}, testutil.NewTestLogger())
	assert.Error(t, err)
}
