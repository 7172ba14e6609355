package handlers

import (
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/opsguard/internal/api/dto"
	"github.com/pratik-mahalle/opsguard/internal/domain/backup"
	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/utils"
	"github.com/pratik-mahalle/opsguard/internal/pkg/validator"
)

type BackupHandler struct {
	service   backup.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewBackupHandler(service backup.Service, log *logger.Logger, val *validator.Validator) *BackupHandler {
	return &BackupHandler{service: service, logger: log, validator: val}
}

// backupView adds a human-readable size to a record
type backupView struct {
	*backup.Record
	Size string `json:"size"`
}

// List returns backups of ?type (default all), newest first
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.GetBackupList(r.Context(), backup.Type(r.URL.Query().Get("type")))
	if err != nil {
		utils.WriteAppError(w, err, "Failed to list backups")
		return
	}

	views := make([]backupView, len(records))
	for i, rec := range records {
		views[i] = backupView{Record: rec, Size: humanize.Bytes(uint64(rec.SizeBytes))}
	}
	utils.WriteSuccess(w, http.StatusOK, views)
}

// Create runs a backup synchronously
func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBackupRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	bt := backup.Type(req.Type)
	name := req.Name
	if name == "" {
		name = backup.DefaultName(bt, time.Now())
	}

	if rc, _, err := h.service.OpenBackup(r.Context(), name, bt); err == nil {
		rc.Close()
		utils.WriteError(w, errors.Conflict("Backup "+name+" already exists"))
		return
	}

	var ok bool
	switch bt {
	case backup.TypeDatabase:
		ok = h.service.CreateDatabaseBackup(r.Context(), name)
	case backup.TypeFiles:
		ok = h.service.CreateFilesBackup(r.Context(), name)
	case backup.TypeFull:
		ok = h.service.CreateFullBackup(r.Context(), name)
	}
	if !ok {
		utils.WriteError(w, errors.New(errors.ErrCodeExternalTool, "Backup failed, see server logs", http.StatusInternalServerError))
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusCreated, "Backup created", map[string]string{"type": req.Type, "name": name})
}

// Download streams the primary artifact of a backup
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	rc, rec, err := h.service.OpenBackup(r.Context(), chi.URLParam(r, "name"), backup.Type(chi.URLParam(r, "type")))
	if err != nil {
		utils.WriteAppError(w, err, "Failed to open backup")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": rec.FileReference}))
	w.Header().Set("Content-Length", strconv.FormatInt(rec.SizeBytes, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.With("backup", rec.Name).WarnWithErr(err, "Backup download interrupted")
	}
}

// Restore restores a database backup over the live database
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if backup.Type(chi.URLParam(r, "type")) != backup.TypeDatabase {
		utils.WriteError(w, errors.BadRequest("Only database backups can be restored"))
		return
	}

	name := chi.URLParam(r, "name")
	if err := h.service.RestoreDatabaseBackup(r.Context(), name); err != nil {
		utils.WriteAppError(w, err, "Failed to restore backup")
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Database restored", map[string]string{"name": name})
}

// Delete removes a backup and, for full backups, its components
func (h *BackupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBackup(r.Context(), chi.URLParam(r, "name"), backup.Type(chi.URLParam(r, "type"))); err != nil {
		utils.WriteAppError(w, err, "Failed to delete backup")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
