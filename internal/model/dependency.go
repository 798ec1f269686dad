package model

import "time"

// Dependency represents a directional task-to-task edge: TaskID cannot start
// until DependsOnID is finished. The pair is unique, never self-referential,
// and the full edge set stays acyclic at all times.
type Dependency struct {
	TaskID      string    `json:"task_id"`
	DependsOnID string    `json:"depends_on_id"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
}
