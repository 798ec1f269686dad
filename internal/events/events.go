package events

import (
	"context"

	"github.com/quarryhill/taskgraph/internal/model"
)

// Event topic constants
const (
	// TopicWildcard matches every event the server publishes.
	TopicWildcard = "taskgraph.>"

	TopicTaskCreated       = "taskgraph.task.created"
	TopicTaskUpdated       = "taskgraph.task.updated"
	TopicTaskDeleted       = "taskgraph.task.deleted"
	TopicDependencyAdded   = "taskgraph.dependency.added"
	TopicDependencyRemoved = "taskgraph.dependency.removed"
	TopicResourcesSaved    = "taskgraph.resources.saved"
	TopicConflictDetected  = "taskgraph.conflict.detected"
	TopicStoryRolledUp     = "taskgraph.story.rolled_up"
	TopicCleanupCompleted  = "taskgraph.cleanup.completed"
)

// Event types

type TaskCreated struct {
	Task *model.Task `json:"task"`
}

type TaskUpdated struct {
	Task    *model.Task    `json:"task"`
	Changes map[string]any `json:"changes"` // field name -> new value
}

type TaskDeleted struct {
	TaskID string `json:"task_id"`
}

type DependencyAdded struct {
	Dependency *model.Dependency `json:"dependency"`
}

type DependencyRemoved struct {
	TaskID      string `json:"task_id"`
	DependsOnID string `json:"depends_on_id"`
}

type ResourcesSaved struct {
	TaskID    string `json:"task_id"`
	Resources int    `json:"resources"`
	Conflicts int    `json:"conflicts"`
}

type ConflictDetected struct {
	TaskID    string            `json:"task_id"`
	Conflicts []*model.Conflict `json:"conflicts"`
}

type StoryRolledUp struct {
	StoryID string       `json:"story_id"`
	From    model.Status `json:"from"`
	To      model.Status `json:"to"`
}

type CleanupCompleted struct {
	Status    model.Status `json:"status"`
	Deleted   []string     `json:"deleted"`
	Preserved int          `json:"preserved"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Message is one delivered event: the topic it was published on plus the
// JSON-encoded payload for that topic's event type.
type Message struct {
	Topic string
	Data  []byte
}
