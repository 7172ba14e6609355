package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/opsguard/internal/domain/performance"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/utils"
)

type PerformanceHandler struct {
	monitor performance.Service
	logger  *logger.Logger
}

func NewPerformanceHandler(monitor performance.Service, log *logger.Logger) *PerformanceHandler {
	return &PerformanceHandler{monitor: monitor, logger: log}
}

// Stats returns the performance overview of the last ?hours
func (h *PerformanceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.monitor.GetPerformanceStats(r.Context(), utils.QueryInt(r, "hours", 24))
	if err != nil {
		utils.WriteAppError(w, err, "Failed to load performance stats")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, stats)
}

// Endpoints returns per-endpoint timings of the last ?hours
func (h *PerformanceHandler) Endpoints(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, h.monitor.GetEndpointPerformance(utils.QueryInt(r, "hours", 24)))
}

// Slow returns the most recent slow requests
func (h *PerformanceHandler) Slow(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, h.monitor.GetSlowRequests(utils.QueryInt(r, "limit", 10)))
}
