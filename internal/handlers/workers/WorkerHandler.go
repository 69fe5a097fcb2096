package workers

import (
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/secondary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/handlers"
)

type ApiHandler struct {
	Initiator primary.JobInitiator
	// Mirror is the redis copy of the worker table. Nil when disabled.
	Mirror secondary.SnapshotRepository
	Logger primary.Logger
}

func NewHandler(initiator primary.JobInitiator, mirror secondary.SnapshotRepository, logger primary.Logger) *ApiHandler {
	return &ApiHandler{
		Initiator: initiator,
		Mirror:    mirror,
		Logger:    logger,
	}
}

func (api *ApiHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/workers", api.GetWorkers).Methods(http.MethodGet)
	r.HandleFunc("/api/workers/mirror", api.GetMirroredWorkers).Methods(http.MethodGet)
}

func (api *ApiHandler) GetWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := api.Initiator.Snapshot(r.Context())
	if err != nil {
		api.Logger.Error("Failed to get workers", "error", err)
		handlers.ResponseError(w, "Failed to get workers", http.StatusServiceUnavailable)
		return
	}
	if workers == nil {
		workers = []domain.WorkerSnapshot{}
	}

	handlers.ResponseWithJson(w, http.StatusOK, map[string][]domain.WorkerSnapshot{"workers": workers})
}

// GetMirroredWorkers returns the worker table as last written to redis.
func (api *ApiHandler) GetMirroredWorkers(w http.ResponseWriter, r *http.Request) {
	if api.Mirror == nil {
		handlers.ResponseError(w, "worker mirror is disabled", http.StatusServiceUnavailable)
		return
	}

	workers, err := api.Mirror.GetAllWorkers(r.Context())
	if err != nil {
		api.Logger.Error("Failed to read mirrored workers", "error", err)
		handlers.ResponseError(w, "Failed to read mirrored workers", http.StatusInternalServerError)
		return
	}
	if workers == nil {
		workers = []domain.WorkerSnapshot{}
	}

	handlers.ResponseWithJson(w, http.StatusOK, map[string][]domain.WorkerSnapshot{"workers": workers})
}
