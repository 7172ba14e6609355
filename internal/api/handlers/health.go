package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/cache"
	"github.com/pratik-mahalle/opsguard/internal/domain/health"
	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/utils"
)

// HealthHandler serves probes and the health checker
type HealthHandler struct {
	service health.Service
	db      *sql.DB
	cache   cache.Cache
	logger  *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service health.Service, db *sql.DB, c cache.Cache, log *logger.Logger) *HealthHandler {
	return &HealthHandler{service: service, db: db, cache: c, logger: log}
}

// Healthz handles the liveness probe
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports ready once the store answers a ping
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.ErrorWithErr(err, "Database ping failed")
		utils.WriteError(w, errors.ServiceUnavailable("Database connection failed"))
		return
	}

	stats := h.cache.Stats(ctx)
	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "connected",
		"cache":    stats.Backend,
	})
}

// Status returns the latest stored result of every check
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.GetLatestStatus(r.Context())
	if err != nil {
		utils.WriteAppError(w, err, "Failed to load health status")
		return
	}

	overall := health.StatusHealthy
	for _, res := range results {
		overall = health.Worse(overall, res.Status)
	}
	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"overall_status": overall,
		"checks":         results,
	})
}

// Run executes the check battery now
func (h *HealthHandler) Run(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, h.service.RunAllChecks(r.Context()))
}

// Summary counts the latest result of every check
func (h *HealthHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetHealthSummary(r.Context())
	if err != nil {
		utils.WriteAppError(w, err, "Failed to summarize health")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, summary)
}
