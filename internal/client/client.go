// Package client provides a transport-agnostic interface for the taskgraph
// service and an HTTP/JSON implementation that talks to the taskgraph REST
// API.
package client

import (
	"context"

	"github.com/quarryhill/taskgraph/internal/model"
)

// TaskGraphClient is the interface that all taskgraph CLI commands use to
// communicate with the server. It is implemented by HTTPClient.
type TaskGraphClient interface {
	// Task CRUD
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*model.Task, error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error)
	UpdateTask(ctx context.Context, id string, req *UpdateTaskRequest) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error

	// Dependencies
	AddDependency(ctx context.Context, taskID, dependsOnID, createdBy string) (*model.Dependency, error)
	RemoveDependency(ctx context.Context, taskID, dependsOnID string) error
	GetDependencies(ctx context.Context, taskID string) ([]*model.Dependency, error)

	// Resources
	SaveResources(ctx context.Context, taskID string, entries []model.ResourceEntry) (*SaveResourcesResponse, error)
	GetTaskResources(ctx context.Context, taskID string) (*model.DependencyGraph, error)
	GetConflicts(ctx context.Context, taskID string) ([]*model.Conflict, error)
	GetResourceUsage(ctx context.Context, resourceID string) (*model.ResourceUsage, error)

	// Ordering and rollup
	GetExecutionOrder(ctx context.Context, storyID string, statuses []string) (*model.ExecutionOrder, error)
	GetStoryHealth(ctx context.Context) ([]*model.StoryHealth, error)

	// Cleanup
	Cleanup(ctx context.Context, status string) (*model.CleanupResult, error)

	// Graph and events
	GetGraph(ctx context.Context, limit int) (*model.GraphResponse, error)
	GetStats(ctx context.Context) (*model.GraphStats, error)
	GetEvents(ctx context.Context, taskID string) ([]*model.Event, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// CreateTaskRequest holds parameters for creating a task.
type CreateTaskRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Status        string   `json:"status,omitempty"`
	ParentStoryID string   `json:"parent_story_id,omitempty"`
	IsStory       bool     `json:"is_story,omitempty"`
	Dependencies  []string `json:"dependencies,omitempty"`
	CreatedBy     string   `json:"created_by,omitempty"`
}

// ListTasksRequest holds parameters for listing tasks.
type ListTasksRequest struct {
	Status  []string `json:"status,omitempty"`
	StoryID string   `json:"story,omitempty"`
	Stories bool     `json:"stories,omitempty"`
	Search  string   `json:"search,omitempty"`
	Sort    string   `json:"sort,omitempty"`
	Limit   int      `json:"limit,omitempty"`
	Offset  int      `json:"offset,omitempty"`
}

// ListTasksResponse is the response from ListTasks.
type ListTasksResponse struct {
	Tasks []*model.Task `json:"tasks"`
	Total int           `json:"total"`
}

// UpdateTaskRequest holds optional parameters for updating a task.
// Nil pointer fields mean "don't change".
type UpdateTaskRequest struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	Status        *string `json:"status,omitempty"`
	ParentStoryID *string `json:"parent_story_id,omitempty"`
	UpdatedBy     string  `json:"updated_by,omitempty"`
}

// SaveResourcesResponse is the response from SaveResources: the resolved
// resource ids and any conflicts detected against other active tasks.
type SaveResourcesResponse struct {
	TaskID      string            `json:"task_id"`
	ResourceIDs []string          `json:"resource_ids"`
	Conflicts   []*model.Conflict `json:"conflicts"`
}
