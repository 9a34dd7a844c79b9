package api

import (
	"net/http"

	"github.com/actiond/actiond/internal/httputil"
	"github.com/actiond/actiond/internal/registry"
	"github.com/actiond/actiond/pkg/errors"
)

// RunnerTypesHandler exposes the read-only runner type catalog. Writes
// are rejected before any store is consulted so a rejected request can
// never mutate state.
type RunnerTypesHandler struct {
	runnerTypes registry.RunnerTypeStore
}

// NewRunnerTypesHandler creates a new runner types handler.
func NewRunnerTypesHandler(rt registry.RunnerTypeStore) *RunnerTypesHandler {
	return &RunnerTypesHandler{runnerTypes: rt}
}

// RegisterRoutes registers runner type API routes on the router.
func (h *RunnerTypesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/runnertypes", h.handleList)
	mux.HandleFunc("GET /v1/runnertypes/{id}", h.handleGet)
	mux.HandleFunc("POST /v1/runnertypes", h.handleCreate)
	mux.HandleFunc("PUT /v1/runnertypes/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /v1/runnertypes/{id}", h.handleDelete)
}

// handleList handles GET /v1/runnertypes. An optional ?name= query
// filters by exact name match.
func (h *RunnerTypesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	types, err := h.runnerTypes.List(r.Context())
	if err != nil {
		httputil.WriteErrorFrom(w, err)
		return
	}

	if name := r.URL.Query().Get("name"); name != "" {
		filtered := make([]*registry.RunnerType, 0, 1)
		for _, rt := range types {
			if rt.Name == name {
				filtered = append(filtered, rt)
			}
		}
		types = filtered
	}
	if types == nil {
		types = []*registry.RunnerType{}
	}
	httputil.WriteJSON(w, http.StatusOK, types)
}

// handleGet handles GET /v1/runnertypes/{id}.
func (h *RunnerTypesHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	rt, err := h.runnerTypes.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		httputil.WriteErrorFrom(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rt)
}

// handleCreate handles POST /v1/runnertypes. Runner types are seeded at
// startup and cannot be created over the API.
func (h *RunnerTypesHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	httputil.WriteErrorFrom(w, &errors.UnimplementedError{Operation: "runner type create"})
}

// handleUpdate handles PUT /v1/runnertypes/{id}. Runner types are
// immutable over the API.
func (h *RunnerTypesHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	httputil.WriteErrorFrom(w, &errors.UnimplementedError{Operation: "runner type update", MethodNotAllowed: true})
}

// handleDelete handles DELETE /v1/runnertypes/{id}. Runner types cannot
// be deleted over the API.
func (h *RunnerTypesHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	httputil.WriteErrorFrom(w, &errors.UnimplementedError{Operation: "runner type delete"})
}
