package jobs

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/secondary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/handlers"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/static/errs"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// JobHandler handles job API requests
type JobHandler struct {
	initiator primary.JobInitiator
	jobLog    secondary.JobLogReader
	logger    primary.Logger
	newID     func() string
}

// NewJobHandler creates a new job handler. jobLog may be nil when the job
// log is disabled; the read routes then answer 503.
func NewJobHandler(initiator primary.JobInitiator, jobLog secondary.JobLogReader, logger primary.Logger) *JobHandler {
	return &JobHandler{
		initiator: initiator,
		jobLog:    jobLog,
		logger:    logger,
		newID:     func() string { return uuid.NewString() },
	}
}

// RegisterRoutes registers the API routes for JobHandler
func (h *JobHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/jobs", h.CreateJob).Methods(http.MethodPost)
	router.HandleFunc("/api/jobs/unfinished", h.ListUnfinished).Methods(http.MethodGet)
	router.HandleFunc("/api/jobs/{jobId}/results", h.ListResults).Methods(http.MethodGet)
	router.HandleFunc("/api/jobs/{jobId}/failures", h.ListFailures).Methods(http.MethodGet)
}

// CreateJob hands a job to the cluster. A job that cannot be dispatched
// during shutdown is still accepted; the cluster reports it unfinished.
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		if errors.Is(err, errs.ErrInvalidParams) {
			handlers.ResponseError(w, err.Error(), http.StatusBadRequest)
			return
		}
		handlers.ResponseError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Task == "" {
		handlers.ResponseError(w, "task is required", http.StatusBadRequest)
		return
	}
	if req.JobID == "" {
		req.JobID = h.newID()
	}

	err := h.initiator.RequestJob(r.Context(), req.ChannelIdentifier, req.Task)
	switch {
	case err == nil:
	case errors.Is(err, errs.ErrNoWorkerAvailable), errors.Is(err, errs.ErrControllerStopped):
		h.logger.Warn("Job not dispatched", "jobId", req.JobID, "error", err)
		handlers.ResponseError(w, err.Error(), http.StatusServiceUnavailable)
		return
	default:
		h.logger.Error("Failed to dispatch job", "jobId", req.JobID, "error", err)
		handlers.ResponseError(w, "Failed to dispatch job", http.StatusInternalServerError)
		return
	}

	handlers.ResponseWithJson(w, http.StatusAccepted, CreateJobResponse{JobID: req.JobID})
}

// ListUnfinished returns jobs that could not be handed to a worker
func (h *JobHandler) ListUnfinished(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.readLog(w, r)
	if !ok {
		return
	}
	jobs, err := h.jobLog.ListUnfinishedJobs(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list unfinished jobs", "error", err)
		handlers.ResponseError(w, "Failed to list unfinished jobs", http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []domain.UnfinishedJobRecord{}
	}
	handlers.ResponseWithJson(w, http.StatusOK, map[string][]domain.UnfinishedJobRecord{"jobs": jobs})
}

func (h *JobHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.readLog(w, r)
	if !ok {
		return
	}
	jobID := mux.Vars(r)["jobId"]
	results, err := h.jobLog.ListResults(r.Context(), jobID, limit)
	if err != nil {
		h.logger.Error("Failed to list results", "jobId", jobID, "error", err)
		handlers.ResponseError(w, "Failed to list results", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []domain.JobResultRecord{}
	}
	handlers.ResponseWithJson(w, http.StatusOK, map[string][]domain.JobResultRecord{"results": results})
}

func (h *JobHandler) ListFailures(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.readLog(w, r)
	if !ok {
		return
	}
	jobID := mux.Vars(r)["jobId"]
	failures, err := h.jobLog.ListFailures(r.Context(), jobID, limit)
	if err != nil {
		h.logger.Error("Failed to list failures", "jobId", jobID, "error", err)
		handlers.ResponseError(w, "Failed to list failures", http.StatusInternalServerError)
		return
	}
	if failures == nil {
		failures = []domain.JobFailureRecord{}
	}
	handlers.ResponseWithJson(w, http.StatusOK, map[string][]domain.JobFailureRecord{"failures": failures})
}

// readLog checks the job log is enabled and parses ?limit=.
func (h *JobHandler) readLog(w http.ResponseWriter, r *http.Request) (int, bool) {
	if h.jobLog == nil {
		handlers.ResponseError(w, "job log is disabled", http.StatusServiceUnavailable)
		return 0, false
	}

	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		handlers.ResponseError(w, "limit must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, true
}
