package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/opsguard/internal/api/dto"
	"github.com/pratik-mahalle/opsguard/internal/domain/metric"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/utils"
	"github.com/pratik-mahalle/opsguard/internal/pkg/validator"
)

type MetricHandler struct {
	service   metric.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewMetricHandler(service metric.Service, log *logger.Logger, val *validator.Validator) *MetricHandler {
	return &MetricHandler{service: service, logger: log, validator: val}
}

// Record stores a custom sample
func (h *MetricHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordMetricRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	category := req.Category
	if category == "" {
		category = metric.CategoryCustom
	}
	if err := h.service.RecordMetric(r.Context(), req.Name, *req.Value, req.Unit, category, req.Source, req.Metadata); err != nil {
		utils.WriteAppError(w, err, "Failed to record metric")
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusCreated, "Metric recorded", nil)
}

// Trend returns hourly buckets of a metric over ?hours (default 24) plus the window average
func (h *MetricHandler) Trend(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	hours := utils.QueryInt(r, "hours", 24)

	points, err := h.service.GetTrendData(r.Context(), name, hours)
	if err != nil {
		utils.WriteAppError(w, err, "Failed to load metric trend")
		return
	}
	avg, err := h.service.GetAverage(r.Context(), name, hours)
	if err != nil {
		utils.WriteAppError(w, err, "Failed to load metric average")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"metric_name": name,
		"hours":       hours,
		"average":     avg,
		"points":      points,
	})
}
