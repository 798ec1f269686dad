package server

import (
	"encoding/json"
	"net/http"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *TaskGraphServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /v1/tasks", s.handleListTasks)
	mux.HandleFunc("GET /v1/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PATCH /v1/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /v1/tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("GET /v1/tasks/{id}/dependencies", s.handleGetDependencies)
	mux.HandleFunc("POST /v1/tasks/{id}/dependencies", s.handleAddDependency)
	mux.HandleFunc("DELETE /v1/tasks/{id}/dependencies", s.handleRemoveDependency)
	mux.HandleFunc("PUT /v1/tasks/{id}/resources", s.handleSaveDependencies)
	mux.HandleFunc("GET /v1/tasks/{id}/resources", s.handleGetDependencyGraph)
	mux.HandleFunc("GET /v1/tasks/{id}/conflicts", s.handleGetConflicts)
	mux.HandleFunc("GET /v1/tasks/{id}/events", s.handleGetEvents)
	mux.HandleFunc("GET /v1/resources/{id}/usage", s.handleGetResourceUsage)
	mux.HandleFunc("GET /v1/order", s.handleGetExecutionOrder)
	mux.HandleFunc("GET /v1/stories/health", s.handleGetStoryHealth)
	mux.HandleFunc("POST /v1/cleanup", s.handleCleanup)
	mux.HandleFunc("GET /v1/graph", s.handleGetGraph)
	mux.HandleFunc("GET /v1/stats", s.handleGetStats)
	mux.HandleFunc("GET /v1/health", s.handleHealth)

	var h http.Handler = mux
	h = AuthMiddleware(authToken, h)
	h = LoggingMiddleware(h)
	h = RecoveryMiddleware(h)
	return h
}

// handleHealth handles GET /v1/health.
func (s *TaskGraphServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
