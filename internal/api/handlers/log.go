package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/opsguard/internal/api/dto"
	"github.com/pratik-mahalle/opsguard/internal/domain/activity"
	"github.com/pratik-mahalle/opsguard/internal/domain/syslog"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/utils"
	"github.com/pratik-mahalle/opsguard/internal/pkg/validator"
)

// LogHandler ingests and lists system log entries and user activities
type LogHandler struct {
	logs       syslog.Service
	activities activity.Service
	logger     *logger.Logger
	validator  *validator.Validator
}

func NewLogHandler(logs syslog.Service, activities activity.Service, log *logger.Logger, val *validator.Validator) *LogHandler {
	return &LogHandler{logs: logs, activities: activities, logger: log, validator: val}
}

// RecordEvent stores a log line pushed by an application
func (h *LogHandler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordEventRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	e := &syslog.Entry{
		Level:      req.Level,
		LoggerName: req.LoggerName,
		Message:    req.Message,
		Module:     req.Module,
		UserID:     req.UserID,
		ExtraData:  req.ExtraData,
		RequestID:  r.Header.Get("X-Request-ID"),
		IPAddress:  utils.ClientIP(r),
	}
	if err := h.logs.RecordEvent(r.Context(), e); err != nil {
		utils.WriteAppError(w, err, "Failed to record event")
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, e)
}

// RecordActivity stores a user action
func (h *LogHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordActivityRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	a := &activity.Activity{
		UserID:       req.UserID,
		Action:       req.Action,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Details:      req.Details,
		IPAddress:    utils.ClientIP(r),
		UserAgent:    r.UserAgent(),
	}
	if err := h.activities.RecordActivity(r.Context(), a); err != nil {
		utils.WriteAppError(w, err, "Failed to record activity")
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, a)
}

// ListActivities returns recent activities, optionally of ?user_id
func (h *LogHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	userID := int64(utils.QueryInt(r, "user_id", 0))
	activities, err := h.activities.GetRecentActivities(r.Context(), userID, utils.QueryInt(r, "limit", 50))
	if err != nil {
		utils.WriteAppError(w, err, "Failed to list activities")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, activities)
}

// List returns entries of the last ?hours, optionally of one ?level
func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.logs.GetRecentLogs(r.Context(),
		utils.QueryInt(r, "hours", 24),
		r.URL.Query().Get("level"),
		utils.QueryInt(r, "limit", 100),
	)
	if err != nil {
		utils.WriteAppError(w, err, "Failed to list logs")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, entries)
}

// Errors summarizes error entries of the last ?hours
func (h *LogHandler) Errors(w http.ResponseWriter, r *http.Request) {
	summary, err := h.logs.GetErrorSummary(r.Context(), utils.QueryInt(r, "hours", 24))
	if err != nil {
		utils.WriteAppError(w, err, "Failed to summarize errors")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, summary)
}
