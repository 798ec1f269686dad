package server

import (
	"encoding/json"
	"net/http"

	"github.com/quarryhill/taskgraph/internal/model"
)

// handleSaveDependencies handles PUT /v1/tasks/{id}/resources.
func (s *TaskGraphServer) handleSaveDependencies(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in struct {
		Resources []model.ResourceEntry `json:"resources"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.saveDependencies(r.Context(), id, in.Resources)
	if err != nil {
		handleServiceError(w, err, "task not found")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetDependencyGraph handles GET /v1/tasks/{id}/resources.
func (s *TaskGraphServer) handleGetDependencyGraph(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	g, err := s.store.GetTaskResources(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task resources")
		return
	}

	writeJSON(w, http.StatusOK, g)
}

// handleGetConflicts handles GET /v1/tasks/{id}/conflicts.
func (s *TaskGraphServer) handleGetConflicts(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	conflicts, err := s.conflictsFor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to detect conflicts")
		return
	}
	if conflicts == nil {
		conflicts = []*model.Conflict{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}

// handleGetResourceUsage handles GET /v1/resources/{id}/usage.
func (s *TaskGraphServer) handleGetResourceUsage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	usage, err := s.getResourceUsage(r.Context(), id)
	if err != nil {
		handleServiceError(w, err, "resource not found")
		return
	}

	writeJSON(w, http.StatusOK, usage)
}
