// Package api provides the HTTP API for the daemon.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/actiond/actiond/internal/executions"
	"github.com/actiond/actiond/internal/httputil"
	"github.com/actiond/actiond/internal/store"
)

// ExecutionsHandler handles execution-related API requests.
type ExecutionsHandler struct {
	controller *executions.Controller
}

// NewExecutionsHandler creates a new executions handler.
func NewExecutionsHandler(c *executions.Controller) *ExecutionsHandler {
	return &ExecutionsHandler{controller: c}
}

// RegisterRoutes registers execution API routes on the router.
func (h *ExecutionsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/executions", h.handleCreate)
	mux.HandleFunc("GET /v1/executions", h.handleList)
	mux.HandleFunc("GET /v1/executions/{id}", h.handleGet)
	mux.HandleFunc("DELETE /v1/executions/{id}", h.handleDelete)
}

// CreateExecutionRequest is the request body for creating an execution.
type CreateExecutionRequest struct {
	Action     executions.ActionRef `json:"action"`
	Parameters map[string]any       `json:"parameters,omitempty"`
}

// handleCreate handles POST /v1/executions.
func (h *ExecutionsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	execution, err := h.controller.Create(r.Context(), req.Action, req.Parameters)
	if err != nil {
		httputil.WriteErrorFrom(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, execution)
}

// handleList handles GET /v1/executions.
// Query parameters: action_name, action_id, limit. A zero or absent
// limit returns all matching records.
func (h *ExecutionsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{
		ActionName: r.URL.Query().Get("action_name"),
		ActionID:   r.URL.Query().Get("action_id"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %q", raw))
			return
		}
		filter.Limit = limit
	}

	records, err := h.controller.List(r.Context(), filter)
	if err != nil {
		httputil.WriteErrorFrom(w, err)
		return
	}
	if records == nil {
		records = []*store.Execution{}
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

// handleGet handles GET /v1/executions/{id}.
func (h *ExecutionsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	execution, err := h.controller.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httputil.WriteErrorFrom(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, execution)
}

// handleDelete handles DELETE /v1/executions/{id}.
func (h *ExecutionsHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Delete(r.Context(), r.PathValue("id")); err != nil {
		httputil.WriteErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
