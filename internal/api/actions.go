package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/actiond/actiond/internal/httputil"
	"github.com/actiond/actiond/internal/registry"
)

// ActionsHandler exposes the action registry over HTTP.
type ActionsHandler struct {
	actions registry.ActionStore
}

// NewActionsHandler creates a new actions handler.
func NewActionsHandler(actions registry.ActionStore) *ActionsHandler {
	return &ActionsHandler{actions: actions}
}

// RegisterRoutes registers action API routes on the router.
func (h *ActionsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/actions", h.handleCreate)
	mux.HandleFunc("GET /v1/actions", h.handleList)
	mux.HandleFunc("GET /v1/actions/{id}", h.handleGet)
	mux.HandleFunc("DELETE /v1/actions/{id}", h.handleDelete)
}

// handleCreate handles POST /v1/actions.
func (h *ActionsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var action registry.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if err := h.actions.Create(r.Context(), &action); err != nil {
		httputil.WriteErrorFrom(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, action)
}

// handleList handles GET /v1/actions. An optional ?name= query filters
// by exact name match.
func (h *ActionsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	actions, err := h.actions.List(r.Context())
	if err != nil {
		httputil.WriteErrorFrom(w, err)
		return
	}

	if name := r.URL.Query().Get("name"); name != "" {
		filtered := make([]*registry.Action, 0, 1)
		for _, a := range actions {
			if a.Name == name {
				filtered = append(filtered, a)
			}
		}
		actions = filtered
	}
	if actions == nil {
		actions = []*registry.Action{}
	}
	httputil.WriteJSON(w, http.StatusOK, actions)
}

// handleGet handles GET /v1/actions/{id}.
func (h *ActionsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	action, err := h.actions.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		httputil.WriteErrorFrom(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, action)
}

// handleDelete handles DELETE /v1/actions/{id}.
func (h *ActionsHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.actions.Delete(r.Context(), r.PathValue("id")); err != nil {
		httputil.WriteErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
