package snapshot

import (
	"context"
	"database/sql"
	"sort"

	"github.com/quarryhill/taskgraph/internal/model"
	"github.com/quarryhill/taskgraph/internal/store"
)

// mockStore is a minimal in-memory store for snapshot tests.
type mockStore struct {
	tasks     map[string]*model.Task
	deps      map[string][]*model.Dependency
	resources map[string]*model.Resource
	edges     map[string][]*model.ResourceEdge // keyed by task id
	events    []*model.Event
}

func newMockStore() *mockStore {
	return &mockStore{
		tasks:     make(map[string]*model.Task),
		deps:      make(map[string][]*model.Dependency),
		resources: make(map[string]*model.Resource),
		edges:     make(map[string][]*model.ResourceEdge),
	}
}

func (m *mockStore) CreateTask(_ context.Context, task *model.Task) error {
	m.tasks[task.ID] = task
	return nil
}

func (m *mockStore) GetTask(_ context.Context, id string) (*model.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func (m *mockStore) ListTasks(_ context.Context, _ model.TaskFilter) ([]*model.Task, int, error) {
	var result []*model.Task
	for _, t := range m.tasks {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, len(result), nil
}

func (m *mockStore) UpdateTask(_ context.Context, task *model.Task) error {
	m.tasks[task.ID] = task
	return nil
}

func (m *mockStore) UpdateTaskStatus(_ context.Context, id string, status model.Status) error {
	if t, ok := m.tasks[id]; ok {
		t.Status = status
	}
	return nil
}

func (m *mockStore) DeleteTask(_ context.Context, id string) error {
	delete(m.tasks, id)
	return nil
}

func (m *mockStore) DeleteTasks(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(m.tasks, id)
	}
	return nil
}

func (m *mockStore) AddDependency(_ context.Context, dep *model.Dependency) error {
	m.deps[dep.TaskID] = append(m.deps[dep.TaskID], dep)
	return nil
}

func (m *mockStore) RemoveDependency(_ context.Context, _ string, _ string) error {
	return nil
}

func (m *mockStore) GetDependencies(_ context.Context, taskID string) ([]*model.Dependency, error) {
	return m.deps[taskID], nil
}

func (m *mockStore) ListDependencies(_ context.Context) ([]*model.Dependency, error) {
	var all []*model.Dependency
	for _, deps := range m.deps {
		all = append(all, deps...)
	}
	return all, nil
}

func (m *mockStore) UpsertResource(_ context.Context, r *model.Resource) error {
	m.resources[r.ID] = r
	return nil
}

func (m *mockStore) UpsertResourceEdge(_ context.Context, e *model.ResourceEdge) error {
	m.edges[e.TaskID] = append(m.edges[e.TaskID], e)
	return nil
}

func (m *mockStore) GetTaskResources(_ context.Context, taskID string) (*model.DependencyGraph, error) {
	g := &model.DependencyGraph{Nodes: []*model.Resource{}, Edges: []*model.ResourceEdge{}}
	seen := make(map[string]bool)
	for _, e := range m.edges[taskID] {
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

func (m *mockStore) GetResourceUses(_ context.Context, _ string) ([]model.ResourceUse, error) {
	return nil, nil
}

func (m *mockStore) GetActiveUsages(_ context.Context, _ []string, _ string) ([]model.ActiveUsage, error) {
	return nil, nil
}

func (m *mockStore) ListChildren(_ context.Context, _ string) ([]*model.Task, error) {
	return nil, nil
}

func (m *mockStore) CountChildrenByStatus(_ context.Context, _ string) (model.StatusCounts, error) {
	return model.StatusCounts{}, nil
}

func (m *mockStore) ListStories(_ context.Context) ([]*model.Task, error) {
	return nil, nil
}

func (m *mockStore) GetGraph(_ context.Context, _ int) (*model.GraphResponse, error) {
	return &model.GraphResponse{Nodes: []*model.Task{}, Edges: []*model.GraphEdge{}, Stats: &model.GraphStats{}}, nil
}

func (m *mockStore) GetStats(_ context.Context) (*model.GraphStats, error) {
	return &model.GraphStats{}, nil
}

func (m *mockStore) RecordEvent(_ context.Context, event *model.Event) error {
	m.events = append(m.events, event)
	return nil
}

func (m *mockStore) GetEvents(_ context.Context, _ string) ([]*model.Event, error) {
	return m.events, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error {
	return nil
}
