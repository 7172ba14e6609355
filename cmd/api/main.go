package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/api/handlers"
	"github.com/pratik-mahalle/opsguard/internal/api/router"
	"github.com/pratik-mahalle/opsguard/internal/cache"
	"github.com/pratik-mahalle/opsguard/internal/config"
	"github.com/pratik-mahalle/opsguard/internal/domain/backup"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/sysinfo"
	"github.com/pratik-mahalle/opsguard/internal/pkg/validator"
	"github.com/pratik-mahalle/opsguard/internal/repository/postgres"
	"github.com/pratik-mahalle/opsguard/internal/services"
	"github.com/pratik-mahalle/opsguard/internal/storage"
	"github.com/pratik-mahalle/opsguard/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})

	if err := run(cfg, log); err != nil {
		log.ErrorWithErr(err, "Server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	log.With("driver", cfg.Database.Driver).Info("Database ready")

	// Repositories
	alertRepo := postgres.NewAlertRepository(db)
	healthRepo := postgres.NewHealthRepository(db)
	metricRepo := postgres.NewMetricRepository(db)
	logRepo := postgres.NewSystemLogRepository(db)
	activityRepo := postgres.NewActivityRepository(db)
	jobRepo := postgres.NewJobRepository(db)

	c := cache.New(ctx, cfg.Redis, log)
	defer c.Close()
	sampler := sysinfo.NewHostSampler(time.Second)

	// Services
	metricService := services.NewMetricService(metricRepo, c, log)
	logService := services.NewLogService(logRepo, activityRepo, c, log)
	notifier := services.NewNotifier(cfg.Alerting, log)
	alertService := services.NewAlertService(alertRepo, notifier, cfg.Alerting.Recipients, c, log)

	healthService := services.NewHealthService(healthRepo, alertService, metricService, sampler, c,
		cfg.Monitoring.DiskPath, cfg.Monitoring.ProbeTimeout, log)
	services.RegisterDefaultChecks(healthService, cfg.Monitoring, services.CheckDeps{
		DB:          db,
		Sampler:     sampler,
		Logs:        logService,
		Cache:       c,
		BaseURL:     cfg.Server.BaseURL,
		RemoteCache: cfg.Redis.Enabled,
	})

	perfService := services.NewPerformanceService(metricService, alertService, sampler, c, cfg.Performance, log)

	var uploader backup.Uploader
	if cfg.Backup.S3.Enabled() {
		store, err := storage.NewS3Store(ctx, cfg.Backup.S3)
		if err != nil {
			log.WarnWithErr(err, "Offsite backup copies disabled")
		} else {
			uploader = store
		}
	}
	backupService, err := services.NewBackupService(cfg.Backup, logService, uploader, log)
	if err != nil {
		return fmt.Errorf("init backup manager: %w", err)
	}
	if cfg.Backup.Engine == "sqlite" && cfg.Backup.DBPath == cfg.Database.Path {
		backupService.SetLiveStore(db)
	}

	reportService := services.NewReportService(logService, alertService, healthService, notifier, cfg.Alerting.Recipients, log)

	scheduler, err := worker.NewScheduler(cfg.Scheduler, cfg.Monitoring, worker.Dependencies{
		Health:        healthService,
		HealthResults: healthRepo,
		Alerts:        alertService,
		Logs:          logService,
		Metrics:       metricService,
		Cache:         c,
		Backups:       backupService,
		Reports:       reportService,
		Executions:    jobRepo,
		Performance:   perfService,
	}, log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	if cfg.Scheduler.Enabled {
		scheduler.Start()
	} else {
		log.Info("Scheduler disabled, jobs run only on demand")
	}

	// HTTP
	val := validator.New()
	h := &router.Handlers{
		Health:      handlers.NewHealthHandler(healthService, db, c, log),
		Alert:       handlers.NewAlertHandler(alertService, log, val),
		Log:         handlers.NewLogHandler(logService, logService, log, val),
		Metric:      handlers.NewMetricHandler(metricService, log, val),
		Performance: handlers.NewPerformanceHandler(perfService, log),
		Backup:      handlers.NewBackupHandler(backupService, log, val),
		Cache:       handlers.NewCacheHandler(c, log),
		Job:         handlers.NewJobHandler(scheduler, jobRepo, log),
	}
	obs := router.Observers{Monitor: perfService, Alerts: alertService, Logs: logService}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, obs, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.With("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorWithErr(err, "HTTP server shutdown failed")
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.WarnWithErr(err, "Scheduler did not stop cleanly")
	}

	log.Info("Server stopped")
	return nil
}
