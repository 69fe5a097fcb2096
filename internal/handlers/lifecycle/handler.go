// Package lifecycle exposes the die/undie controls over HTTP.
package lifecycle

import (
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/handlers"
)

type StatusResponse struct {
	AwaitingDeath bool `json:"awaitingDeath"`
}

type ApiHandler struct {
	Initiator primary.JobInitiator
	Logger    primary.Logger
}

func NewHandler(initiator primary.JobInitiator, logger primary.Logger) *ApiHandler {
	return &ApiHandler{
		Initiator: initiator,
		Logger:    logger,
	}
}

func (api *ApiHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/lifecycle", api.Status).Methods(http.MethodGet)
	r.HandleFunc("/api/lifecycle/die", api.Die).Methods(http.MethodPost)
	r.HandleFunc("/api/lifecycle/undie", api.Undie).Methods(http.MethodPost)
}

func (api *ApiHandler) Status(w http.ResponseWriter, r *http.Request) {
	dying, err := api.Initiator.AwaitingDeath(r.Context())
	if err != nil {
		api.Logger.Error("Failed to read lifecycle state", "error", err)
		handlers.ResponseError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	handlers.ResponseWithJson(w, http.StatusOK, StatusResponse{AwaitingDeath: dying})
}

func (api *ApiHandler) Die(w http.ResponseWriter, r *http.Request) {
	if err := api.Initiator.Die(r.Context()); err != nil {
		api.Logger.Error("Failed to die", "error", err)
		handlers.ResponseError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	api.Logger.Info("Die requested over http", "remote", r.RemoteAddr)
	w.WriteHeader(http.StatusNoContent)
}

func (api *ApiHandler) Undie(w http.ResponseWriter, r *http.Request) {
	if err := api.Initiator.Undie(r.Context()); err != nil {
		api.Logger.Error("Failed to undie", "error", err)
		handlers.ResponseError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	api.Logger.Info("Undie requested over http", "remote", r.RemoteAddr)
	w.WriteHeader(http.StatusNoContent)
}
