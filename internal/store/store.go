// Package store defines the persistence interface for the task graph.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/quarryhill/taskgraph/internal/model"
)

// CycleError is returned by AddDependency when the edge would close a cycle.
// Path, when populated, holds the offending task ids in dependency order.
type CycleError struct {
	TaskID      string
	DependsOnID string
	Path        []string
}

// Error names the offending edge and, when known, the full cycle path.
func (e *CycleError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("dependency %s -> %s would create a cycle: %s",
			e.TaskID, e.DependsOnID, strings.Join(e.Path, " -> "))
	}
	return fmt.Sprintf("dependency %s -> %s would create a cycle", e.TaskID, e.DependsOnID)
}

// Store defines the persistence interface for tasks, resources, and edges.
type Store interface {
	// Task CRUD
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context, filter model.TaskFilter) ([]*model.Task, int, error) // returns tasks, total count, error
	UpdateTask(ctx context.Context, task *model.Task) error
	UpdateTaskStatus(ctx context.Context, id string, status model.Status) error
	DeleteTask(ctx context.Context, id string) error
	DeleteTasks(ctx context.Context, ids []string) error

	// Task dependencies. AddDependency enforces acyclicity atomically with
	// the insert and returns *CycleError when the edge would close a cycle.
	AddDependency(ctx context.Context, dep *model.Dependency) error
	RemoveDependency(ctx context.Context, taskID, dependsOnID string) error
	GetDependencies(ctx context.Context, taskID string) ([]*model.Dependency, error)
	ListDependencies(ctx context.Context) ([]*model.Dependency, error)

	// Resource graph. Upserts converge on (kind, name) for resources and
	// (task_id, resource_id, action) for edges.
	UpsertResource(ctx context.Context, r *model.Resource) error
	UpsertResourceEdge(ctx context.Context, e *model.ResourceEdge) error
	GetTaskResources(ctx context.Context, taskID string) (*model.DependencyGraph, error)
	GetResource(ctx context.Context, id string) (*model.Resource, error)
	GetResourceUses(ctx context.Context, resourceID string) ([]model.ResourceUse, error)
	GetActiveUsages(ctx context.Context, resourceIDs []string, excludeTaskID string) ([]model.ActiveUsage, error)

	// Story rollup
	ListChildren(ctx context.Context, storyID string) ([]*model.Task, error)
	CountChildrenByStatus(ctx context.Context, storyID string) (model.StatusCounts, error)
	ListStories(ctx context.Context) ([]*model.Task, error)

	// Visualization
	GetGraph(ctx context.Context, limit int) (*model.GraphResponse, error)
	GetStats(ctx context.Context) (*model.GraphStats, error)

	// Events
	RecordEvent(ctx context.Context, event *model.Event) error
	GetEvents(ctx context.Context, taskID string) ([]*model.Event, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
