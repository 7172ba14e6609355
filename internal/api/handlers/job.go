package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/opsguard/internal/domain/job"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/utils"
)

// JobRunner triggers scheduled jobs on demand
type JobRunner interface {
	Jobs() []job.Name
	RunJob(ctx context.Context, name job.Name) (*job.Execution, error)
}

type JobHandler struct {
	runner     JobRunner
	executions job.Repository
	logger     *logger.Logger
}

func NewJobHandler(runner JobRunner, executions job.Repository, log *logger.Logger) *JobHandler {
	return &JobHandler{runner: runner, executions: executions, logger: log}
}

// List returns the registered jobs with their latest execution
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	type jobView struct {
		Name job.Name       `json:"name"`
		Last *job.Execution `json:"last_execution,omitempty"`
	}

	names := h.runner.Jobs()
	views := make([]jobView, 0, len(names))
	for _, name := range names {
		last, err := h.executions.GetLatestExecution(r.Context(), name)
		if err != nil {
			utils.WriteAppError(w, err, "Failed to load job executions")
			return
		}
		views = append(views, jobView{Name: name, Last: last})
	}
	utils.WriteSuccess(w, http.StatusOK, views)
}

// Executions lists recent executions, optionally of ?job and ?status
func (h *JobHandler) Executions(w http.ResponseWriter, r *http.Request) {
	filter := job.ExecutionFilter{
		JobName: job.Name(r.URL.Query().Get("job")),
		Status:  job.ExecutionStatus(r.URL.Query().Get("status")),
	}
	executions, err := h.executions.ListExecutions(r.Context(), filter, utils.QueryInt(r, "limit", 50))
	if err != nil {
		utils.WriteAppError(w, err, "Failed to list job executions")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, executions)
}

// Run triggers a job and waits for it to finish
func (h *JobHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := job.Name(chi.URLParam(r, "name"))
	execution, err := h.runner.RunJob(r.Context(), name)
	if err != nil {
		utils.WriteAppError(w, err, "Failed to run job")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"job":    name,
		"status": execution.Status,
	}).Info("Job triggered manually")
	utils.WriteSuccess(w, http.StatusOK, execution)
}
