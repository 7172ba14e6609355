package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/opsguard/internal/api/dto"
	"github.com/pratik-mahalle/opsguard/internal/domain/alert"
	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/utils"
	"github.com/pratik-mahalle/opsguard/internal/pkg/validator"
)

type AlertHandler struct {
	service   alert.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewAlertHandler(service alert.Service, log *logger.Logger, val *validator.Validator) *AlertHandler {
	return &AlertHandler{service: service, logger: log, validator: val}
}

// List returns alerts newest first, filtered by type, severity and status
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	p := utils.ParsePaginationParams(r)
	q := r.URL.Query()
	filter := alert.Filter{
		Type:      q.Get("type"),
		Severity:  q.Get("severity"),
		Status:    q.Get("status"),
		CheckName: q.Get("check"),
	}

	alerts, total, err := h.service.List(r.Context(), filter, p.PageSize, p.Offset)
	if err != nil {
		utils.WriteAppError(w, err, "Failed to list alerts")
		return
	}

	dtos := make([]dto.AlertDTO, len(alerts))
	for i, a := range alerts {
		dtos[i] = dto.AlertFromDomain(a)
	}
	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dtos, p.Page, p.PageSize, total))
}

// Get returns a single alert
func (h *AlertHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}

	a, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		utils.WriteAppError(w, err, "Failed to get alert")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.AlertFromDomain(a))
}

// Summary counts alerts created in the last ?hours (default 24)
func (h *AlertHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetAlertSummary(r.Context(), utils.QueryInt(r, "hours", 24))
	if err != nil {
		utils.WriteAppError(w, err, "Failed to summarize alerts")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, summary)
}

// Acknowledge moves an active alert to acknowledged
func (h *AlertHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}

	var req dto.AcknowledgeAlertRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	a, err := h.service.Acknowledge(r.Context(), id, req.User)
	if err != nil {
		utils.WriteAppError(w, err, "Failed to acknowledge alert")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.AlertFromDomain(a))
}

// Resolve closes an active or acknowledged alert
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}

	var req dto.ResolveAlertRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	a, err := h.service.Resolve(r.Context(), id, req.User, req.Notes)
	if err != nil {
		utils.WriteAppError(w, err, "Failed to resolve alert")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.AlertFromDomain(a))
}

// ReportSecurity records a security event reported by the application and notifies
func (h *AlertHandler) ReportSecurity(w http.ResponseWriter, r *http.Request) {
	var req dto.SecurityAlertRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	a, err := h.service.SendSecurityAlert(r.Context(), req.EventType, req.Severity, req.Details)
	if err != nil {
		utils.WriteAppError(w, err, "Failed to record security alert")
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, dto.AlertFromDomain(a))
}

func alertID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		utils.WriteError(w, errors.BadRequest("Invalid alert ID"))
		return 0, false
	}
	return id, true
}
