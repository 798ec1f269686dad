package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/quarryhill/taskgraph/internal/model"
	"github.com/quarryhill/taskgraph/internal/store"
)

// handleServiceError maps service-layer errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, notFoundMsg string) {
	var ie inputError
	if errors.As(err, &ie) {
		writeError(w, http.StatusBadRequest, ie.Error())
		return
	}
	var cycleErr *store.CycleError
	if errors.As(err, &cycleErr) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": cycleErr.Error(),
			"cycle": cycleErr.Path,
		})
		return
	}
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, notFoundMsg)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// handleCreateTask handles POST /v1/tasks.
func (s *TaskGraphServer) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in createTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := s.createTask(r.Context(), in)
	if err != nil {
		handleServiceError(w, err, "parent story not found")
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// handleListTasks handles GET /v1/tasks.
func (s *TaskGraphServer) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.TaskFilter{
		StoryID: q.Get("story"),
		Search:  q.Get("search"),
		Sort:    q.Get("sort"),
	}

	if v := q.Get("status"); v != "" {
		for _, st := range strings.Split(v, ",") {
			filter.Status = append(filter.Status, model.Status(st))
		}
	}
	if q.Get("stories") == "true" {
		filter.Stories = true
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	tasks, total, err := s.store.ListTasks(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	// Ensure tasks is never null in JSON output.
	if tasks == nil {
		tasks = []*model.Task{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
		"total": total,
	})
}

// handleGetTask handles GET /v1/tasks/{id}.
func (s *TaskGraphServer) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	task, err := s.store.GetTask(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// handleUpdateTask handles PATCH /v1/tasks/{id}.
func (s *TaskGraphServer) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in updateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := s.updateTask(r.Context(), id, in)
	if err != nil {
		handleServiceError(w, err, "task not found")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// handleDeleteTask handles DELETE /v1/tasks/{id}.
func (s *TaskGraphServer) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.deleteTask(r.Context(), id); err != nil {
		handleServiceError(w, err, "task not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetDependencies handles GET /v1/tasks/{id}/dependencies.
func (s *TaskGraphServer) handleGetDependencies(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	deps, err := s.store.GetDependencies(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get dependencies")
		return
	}
	if deps == nil {
		deps = []*model.Dependency{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"dependencies": deps})
}

// handleAddDependency handles POST /v1/tasks/{id}/dependencies.
func (s *TaskGraphServer) handleAddDependency(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in struct {
		DependsOnID string `json:"depends_on_id"`
		CreatedBy   string `json:"created_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.addDependency(r.Context(), id, in.DependsOnID, in.CreatedBy); err != nil {
		handleServiceError(w, err, "task not found")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"task_id":       id,
		"depends_on_id": in.DependsOnID,
	})
}

// handleRemoveDependency handles DELETE /v1/tasks/{id}/dependencies.
// The edge to remove is named by the depends_on_id query parameter.
func (s *TaskGraphServer) handleRemoveDependency(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	dependsOnID := r.URL.Query().Get("depends_on_id")

	if err := s.removeDependency(r.Context(), id, dependsOnID); err != nil {
		handleServiceError(w, err, "task not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetEvents handles GET /v1/tasks/{id}/events.
func (s *TaskGraphServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	evts, err := s.store.GetEvents(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get events")
		return
	}
	if evts == nil {
		evts = []*model.Event{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": evts})
}
