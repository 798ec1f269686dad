package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quarryhill/taskgraph/internal/events"
	"github.com/quarryhill/taskgraph/internal/model"
	"github.com/quarryhill/taskgraph/internal/store"
)

// mockStore is an in-memory store.Store used by the HTTP handler tests.
// Behavior mirrors the postgres implementation: sql.ErrNoRows for misses,
// cascade delete of edges and dependencies, cycle rejection on insert.
type mockStore struct {
	tasks     map[string]*model.Task
	taskOrder []string // creation order, the default list sort
	deps      []*model.Dependency
	resources map[string]*model.Resource
	resByKey  map[string]string // kind|name -> resource id
	edges     []*model.ResourceEdge
	events    []*model.Event
}

func newMockStore() *mockStore {
	return &mockStore{
		tasks:     make(map[string]*model.Task),
		resources: make(map[string]*model.Resource),
		resByKey:  make(map[string]string),
	}
}

func (m *mockStore) CreateTask(_ context.Context, task *model.Task) error {
	clone := *task
	m.tasks[task.ID] = &clone
	m.taskOrder = append(m.taskOrder, task.ID)
	return nil
}

func (m *mockStore) GetTask(_ context.Context, id string) (*model.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *t
	for _, d := range m.deps {
		if d.TaskID == id {
			clone.Dependencies = append(clone.Dependencies, d)
		}
	}
	return &clone, nil
}

func (m *mockStore) ListTasks(_ context.Context, filter model.TaskFilter) ([]*model.Task, int, error) {
	var result []*model.Task
	for _, id := range m.taskOrder {
		t, ok := m.tasks[id]
		if !ok {
			continue
		}
		if len(filter.Status) > 0 {
			found := false
			for _, s := range filter.Status {
				if t.Status == s {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if filter.StoryID != "" && t.ParentStoryID != filter.StoryID {
			continue
		}
		if filter.Stories && !t.IsStory {
			continue
		}
		if filter.Search != "" {
			if !strings.Contains(strings.ToLower(t.Title), strings.ToLower(filter.Search)) &&
				!strings.Contains(strings.ToLower(t.Description), strings.ToLower(filter.Search)) {
				continue
			}
		}
		result = append(result, t)
	}
	total := len(result)
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			result = nil
		} else {
			result = result[filter.Offset:]
		}
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, total, nil
}

func (m *mockStore) UpdateTask(_ context.Context, task *model.Task) error {
	if _, ok := m.tasks[task.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *task
	clone.Dependencies = nil
	m.tasks[task.ID] = &clone
	return nil
}

func (m *mockStore) UpdateTaskStatus(_ context.Context, id string, status model.Status) error {
	t, ok := m.tasks[id]
	if !ok {
		return sql.ErrNoRows
	}
	t.Status = status
	return nil
}

func (m *mockStore) DeleteTask(_ context.Context, id string) error {
	if _, ok := m.tasks[id]; !ok {
		return sql.ErrNoRows
	}
	m.removeTask(id)
	return nil
}

func (m *mockStore) DeleteTasks(_ context.Context, ids []string) error {
	for _, id := range ids {
		m.removeTask(id)
	}
	return nil
}

// removeTask mirrors the SQL cascades: dependency rows and resource edges
// go with the task, and children keep living with a cleared parent.
func (m *mockStore) removeTask(id string) {
	delete(m.tasks, id)
	var deps []*model.Dependency
	for _, d := range m.deps {
		if d.TaskID != id && d.DependsOnID != id {
			deps = append(deps, d)
		}
	}
	m.deps = deps
	var edges []*model.ResourceEdge
	for _, e := range m.edges {
		if e.TaskID != id {
			edges = append(edges, e)
		}
	}
	m.edges = edges
	for _, t := range m.tasks {
		if t.ParentStoryID == id {
			t.ParentStoryID = ""
		}
	}
}

func (m *mockStore) AddDependency(_ context.Context, dep *model.Dependency) error {
	for _, d := range m.deps {
		if d.TaskID == dep.TaskID && d.DependsOnID == dep.DependsOnID {
			return nil // duplicate edge is a no-op
		}
	}
	// Reject any edge closing a cycle, like the guarded INSERT does.
	if m.reaches(dep.DependsOnID, dep.TaskID) || dep.TaskID == dep.DependsOnID {
		return &store.CycleError{TaskID: dep.TaskID, DependsOnID: dep.DependsOnID}
	}
	m.deps = append(m.deps, dep)
	return nil
}

// reaches reports whether `to` is reachable from `from` over dependency edges.
func (m *mockStore) reaches(from, to string) bool {
	if from == to {
		return true
	}
	for _, d := range m.deps {
		if d.TaskID == from && m.reaches(d.DependsOnID, to) {
			return true
		}
	}
	return false
}

func (m *mockStore) RemoveDependency(_ context.Context, taskID, dependsOnID string) error {
	for i, d := range m.deps {
		if d.TaskID == taskID && d.DependsOnID == dependsOnID {
			m.deps = append(m.deps[:i], m.deps[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockStore) GetDependencies(_ context.Context, taskID string) ([]*model.Dependency, error) {
	var result []*model.Dependency
	for _, d := range m.deps {
		if d.TaskID == taskID {
			result = append(result, d)
		}
	}
	return result, nil
}

func (m *mockStore) ListDependencies(_ context.Context) ([]*model.Dependency, error) {
	return m.deps, nil
}

func (m *mockStore) UpsertResource(_ context.Context, r *model.Resource) error {
	key := string(r.Kind) + "|" + r.Name
	if id, ok := m.resByKey[key]; ok {
		existing := m.resources[id]
		if r.Path != "" {
			existing.Path = r.Path
		}
		r.ID = existing.ID
		r.Path = existing.Path
		r.CreatedAt = existing.CreatedAt
		return nil
	}
	clone := *r
	m.resources[r.ID] = &clone
	m.resByKey[key] = r.ID
	return nil
}

func (m *mockStore) UpsertResourceEdge(_ context.Context, e *model.ResourceEdge) error {
	for _, existing := range m.edges {
		if existing.TaskID == e.TaskID && existing.ResourceID == e.ResourceID && existing.Action == e.Action {
			existing.Confidence = e.Confidence
			e.ID = existing.ID
			e.CreatedAt = existing.CreatedAt
			return nil
		}
	}
	clone := *e
	m.edges = append(m.edges, &clone)
	return nil
}

func (m *mockStore) GetTaskResources(_ context.Context, taskID string) (*model.DependencyGraph, error) {
	g := &model.DependencyGraph{Nodes: []*model.Resource{}, Edges: []*model.ResourceEdge{}}
	seen := make(map[string]bool)
	for _, e := range m.edges {
		if e.TaskID != taskID {
			continue
		}
		if !seen[e.ResourceID] {
			seen[e.ResourceID] = true
			g.Nodes = append(g.Nodes, m.resources[e.ResourceID])
		}
		g.Edges = append(g.Edges, e)
	}
	return g, nil
}

func (m *mockStore) GetResource(_ context.Context, id string) (*model.Resource, error) {
	r, ok := m.resources[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return r, nil
}

func (m *mockStore) GetResourceUses(_ context.Context, resourceID string) ([]model.ResourceUse, error) {
	var uses []model.ResourceUse
	for _, e := range m.edges {
		if e.ResourceID == resourceID {
			uses = append(uses, model.ResourceUse{TaskID: e.TaskID, Action: e.Action})
		}
	}
	return uses, nil
}

func (m *mockStore) GetActiveUsages(_ context.Context, resourceIDs []string, excludeTaskID string) ([]model.ActiveUsage, error) {
	wanted := make(map[string]bool, len(resourceIDs))
	for _, id := range resourceIDs {
		wanted[id] = true
	}
	var usages []model.ActiveUsage
	for _, e := range m.edges {
		if !wanted[e.ResourceID] || e.TaskID == excludeTaskID {
			continue
		}
		t, ok := m.tasks[e.TaskID]
		if !ok || !t.Status.IsActive() {
			continue
		}
		usages = append(usages, model.ActiveUsage{
			TaskID:       e.TaskID,
			ResourceID:   e.ResourceID,
			ResourceName: m.resources[e.ResourceID].Name,
			Action:       e.Action,
		})
	}
	return usages, nil
}

func (m *mockStore) ListChildren(_ context.Context, storyID string) ([]*model.Task, error) {
	var result []*model.Task
	for _, id := range m.taskOrder {
		if t, ok := m.tasks[id]; ok && t.ParentStoryID == storyID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockStore) CountChildrenByStatus(_ context.Context, storyID string) (model.StatusCounts, error) {
	var counts model.StatusCounts
	for _, t := range m.tasks {
		if t.ParentStoryID == storyID {
			counts.Add(t.Status)
		}
	}
	return counts, nil
}

func (m *mockStore) ListStories(_ context.Context) ([]*model.Task, error) {
	var result []*model.Task
	for _, id := range m.taskOrder {
		if t, ok := m.tasks[id]; ok && t.IsStory {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockStore) GetGraph(ctx context.Context, limit int) (*model.GraphResponse, error) {
	tasks, _, _ := m.ListTasks(ctx, model.TaskFilter{Limit: limit})
	idSet := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		idSet[t.ID] = true
	}
	edges := []*model.GraphEdge{}
	for _, d := range m.deps {
		if idSet[d.TaskID] && idSet[d.DependsOnID] {
			edges = append(edges, &model.GraphEdge{Source: d.TaskID, Target: d.DependsOnID})
		}
	}
	stats, _ := m.GetStats(ctx)
	if tasks == nil {
		tasks = []*model.Task{}
	}
	return &model.GraphResponse{Nodes: tasks, Edges: edges, Stats: stats}, nil
}

func (m *mockStore) GetStats(_ context.Context) (*model.GraphStats, error) {
	stats := &model.GraphStats{}
	for _, t := range m.tasks {
		switch t.Status {
		case model.StatusBacklog:
			stats.TotalBacklog++
		case model.StatusTodo:
			stats.TotalTodo++
		case model.StatusInProgress:
			stats.TotalInProgress++
		case model.StatusDone:
			stats.TotalDone++
		}
	}
	return stats, nil
}

func (m *mockStore) RecordEvent(_ context.Context, event *model.Event) error {
	event.ID = int64(len(m.events) + 1)
	m.events = append(m.events, event)
	return nil
}

func (m *mockStore) GetEvents(_ context.Context, taskID string) ([]*model.Event, error) {
	var result []*model.Event
	for _, e := range m.events {
		if e.TaskID == taskID {
			result = append(result, e)
		}
	}
	return result, nil
}

// RunInTransaction snapshots the store and restores it when fn fails, so
// tests observe the same all-or-nothing behavior postgres provides.
func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *mockStore) snapshot() *mockStore {
	snap := newMockStore()
	for id, t := range m.tasks {
		clone := *t
		snap.tasks[id] = &clone
	}
	snap.taskOrder = append([]string(nil), m.taskOrder...)
	for _, d := range m.deps {
		clone := *d
		snap.deps = append(snap.deps, &clone)
	}
	for id, r := range m.resources {
		clone := *r
		snap.resources[id] = &clone
	}
	for k, v := range m.resByKey {
		snap.resByKey[k] = v
	}
	for _, e := range m.edges {
		clone := *e
		snap.edges = append(snap.edges, &clone)
	}
	snap.events = append([]*model.Event(nil), m.events...)
	return snap
}

func (m *mockStore) restore(snap *mockStore) {
	m.tasks = snap.tasks
	m.taskOrder = snap.taskOrder
	m.deps = snap.deps
	m.resources = snap.resources
	m.resByKey = snap.resByKey
	m.edges = snap.edges
	m.events = snap.events
}

func (m *mockStore) Close() error {
	return nil
}

// newTestServer returns a fresh server, its mock store, and an HTTP handler.
func newTestServer() (*TaskGraphServer, *mockStore, http.Handler) {
	ms := newMockStore()
	s := NewTaskGraphServer(ms, &events.NoopPublisher{})
	return s, ms, s.NewHTTPHandler("")
}

// doJSON performs an HTTP request with an optional JSON body and returns the recorder.
func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// requireStatus asserts the recorder has the expected HTTP status code.
func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected status %d, got %d; body: %s", code, rec.Code, rec.Body.String())
	}
}

// decodeJSON decodes the recorder's response body into v.
func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

// createTestTask creates a task through the API and returns it.
func createTestTask(t *testing.T, h http.Handler, body map[string]any) *model.Task {
	t.Helper()
	rec := doJSON(t, h, "POST", "/v1/tasks", body)
	requireStatus(t, rec, 201)
	var task model.Task
	decodeJSON(t, rec, &task)
	return &task
}
