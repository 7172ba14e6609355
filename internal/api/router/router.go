package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pratik-mahalle/opsguard/internal/api/handlers"
	"github.com/pratik-mahalle/opsguard/internal/api/middleware"
	"github.com/pratik-mahalle/opsguard/internal/config"
	"github.com/pratik-mahalle/opsguard/internal/domain/alert"
	"github.com/pratik-mahalle/opsguard/internal/domain/performance"
	"github.com/pratik-mahalle/opsguard/internal/domain/syslog"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/metrics"
)

type Handlers struct {
	Health      *handlers.HealthHandler
	Alert       *handlers.AlertHandler
	Log         *handlers.LogHandler
	Metric      *handlers.MetricHandler
	Performance *handlers.PerformanceHandler
	Backup      *handlers.BackupHandler
	Cache       *handlers.CacheHandler
	Job         *handlers.JobHandler
}

// Observers are the services the global middleware reports to
type Observers struct {
	Monitor performance.Service
	Alerts  alert.Service
	Logs    syslog.Service
}

func New(cfg *config.Config, log *logger.Logger, obs Observers, h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.WithComponent("http"), obs.Logs))
	r.Use(middleware.Recovery(log, obs.Alerts))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.Server.AllowedOrigin))
	r.Use(metrics.Middleware)
	if obs.Monitor != nil {
		r.Use(middleware.Performance(obs.Monitor))
	}

	// Probes and scraping stay outside the rate limit
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(100, 200))

		// Ingestion
		r.Post("/events", h.Log.RecordEvent)
		r.Post("/activities", h.Log.RecordActivity)
		r.Get("/activities", h.Log.ListActivities)

		r.Route("/health", func(r chi.Router) {
			r.Get("/", h.Health.Status)
			r.Get("/summary", h.Health.Summary)
			r.Post("/run", h.Health.Run)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", h.Alert.List)
			r.Get("/summary", h.Alert.Summary)
			r.Post("/security", h.Alert.ReportSecurity)
			r.Get("/{id}", h.Alert.Get)
			r.Post("/{id}/acknowledge", h.Alert.Acknowledge)
			r.Post("/{id}/resolve", h.Alert.Resolve)
		})

		r.Route("/logs", func(r chi.Router) {
			r.Get("/", h.Log.List)
			r.Get("/errors", h.Log.Errors)
		})

		r.Route("/metrics", func(r chi.Router) {
			r.Post("/", h.Metric.Record)
			r.Get("/{name}/trend", h.Metric.Trend)
		})

		r.Route("/performance", func(r chi.Router) {
			r.Get("/", h.Performance.Stats)
			r.Get("/endpoints", h.Performance.Endpoints)
			r.Get("/slow", h.Performance.Slow)
		})

		r.Route("/backups", func(r chi.Router) {
			r.Get("/", h.Backup.List)
			r.Post("/", h.Backup.Create)
			r.Get("/{type}/{name}/download", h.Backup.Download)
			r.Post("/{type}/{name}/restore", h.Backup.Restore)
			r.Delete("/{type}/{name}", h.Backup.Delete)
		})

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", h.Cache.Stats)
			r.Delete("/", h.Cache.Clear)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.Job.List)
			r.Get("/executions", h.Job.Executions)
			r.Post("/{name}/run", h.Job.Run)
		})
	})

	return r
}
