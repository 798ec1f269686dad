package model

import "time"

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusBacklog, StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// IsActive reports whether a task at this status counts as actively worked
// on for conflict detection. Backlog tasks have not started and done tasks
// have finished, so neither can conflict with concurrent work.
func (s Status) IsActive() bool {
	return s == StatusTodo || s == StatusInProgress
}

// Task is the core work-item record. A task with IsStory set groups child
// tasks; stories cannot be nested, so a story never has a ParentStoryID.
type Task struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Status        Status    `json:"status"`
	ParentStoryID string    `json:"parent_story_id,omitempty"`
	IsStory       bool      `json:"is_story"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relational data -- populated by queries, not stored in the tasks table.
	Dependencies []*Dependency `json:"dependencies,omitempty"`
}
