package model

// ConflictType categorizes how two active tasks collide on a shared resource.
type ConflictType string

const (
	// ConflictConcurrentWrite: both sides write (modifies or creates).
	ConflictConcurrentWrite ConflictType = "concurrent_write"
	// ConflictConcurrentModify: one side modifies, the other reads.
	ConflictConcurrentModify ConflictType = "concurrent_modify"
	// ConflictPotentialCollision: both sides merely use the resource.
	ConflictPotentialCollision ConflictType = "potential_collision"
)

// String returns the string representation of the conflict type.
func (t ConflictType) String() string {
	return string(t)
}

// Severity ranks how risky a conflict is.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Conflict is a derived finding that two active tasks share a resource in a
// risky way. Conflicts are never persisted; they are recomputed from the
// current edge set on every request. TaskID names the conflicting other
// task, not the task the query was made for.
type Conflict struct {
	TaskID       string       `json:"task_id"`
	ResourceID   string       `json:"resource_id"`
	ResourceName string       `json:"resource_name"`
	Type         ConflictType `json:"type"`
	Severity     Severity     `json:"severity"`
	Description  string       `json:"description"`
}
