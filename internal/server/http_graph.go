package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/quarryhill/taskgraph/internal/model"
)

// handleGetExecutionOrder handles GET /v1/order?story=&status=.
// Cycle detection is an expected output variant, not a transport error:
// both a valid order and a cycle report return 200.
func (s *TaskGraphServer) handleGetExecutionOrder(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	storyID := q.Get("story")

	var statuses []model.Status
	if v := q.Get("status"); v != "" {
		for _, st := range strings.Split(v, ",") {
			statuses = append(statuses, model.Status(st))
		}
	}

	order, err := s.getExecutionOrder(r.Context(), storyID, statuses)
	if err != nil {
		handleServiceError(w, err, "story not found")
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// handleGetStoryHealth handles GET /v1/stories/health.
func (s *TaskGraphServer) handleGetStoryHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.getUserStoryHealth(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute story health")
		return
	}
	if health == nil {
		health = []*model.StoryHealth{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"stories": health})
}

// handleCleanup handles POST /v1/cleanup.
func (s *TaskGraphServer) handleCleanup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.safeDeleteByStatus(r.Context(), model.Status(in.Status))
	if err != nil {
		handleServiceError(w, err, "not found")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetGraph handles GET /v1/graph.
func (s *TaskGraphServer) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	g, err := s.store.GetGraph(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build graph")
		return
	}

	writeJSON(w, http.StatusOK, g)
}

// handleGetStats handles GET /v1/stats.
func (s *TaskGraphServer) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
