package model

// StatusCounts holds per-status child totals for one story.
type StatusCounts struct {
	Backlog    int `json:"backlog"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
}

// Total returns the number of children across all statuses.
func (c StatusCounts) Total() int {
	return c.Backlog + c.Todo + c.InProgress + c.Done
}

// Add increments the count for the given status.
func (c *StatusCounts) Add(s Status) {
	switch s {
	case StatusBacklog:
		c.Backlog++
	case StatusTodo:
		c.Todo++
	case StatusInProgress:
		c.InProgress++
	case StatusDone:
		c.Done++
	}
}

// StoryHealth is the derived snapshot of one story's children. It is a pure
// function of child state and is never hand-edited.
type StoryHealth struct {
	StoryID              string       `json:"story_id"`
	Title                string       `json:"title"`
	Status               Status       `json:"status"`
	SuggestedStatus      Status       `json:"suggested_status"`
	Counts               StatusCounts `json:"counts"`
	CompletionPercentage float64      `json:"completion_percentage"`
	Mismatch             bool         `json:"mismatch"`
	SafeToDelete         bool         `json:"safe_to_delete"`
}

// CompletionPercent computes doneCount / totalCount * 100, or 0 for an
// empty story.
func CompletionPercent(counts StatusCounts) float64 {
	total := counts.Total()
	if total == 0 {
		return 0
	}
	return float64(counts.Done) / float64(total) * 100
}

// SuggestStatus derives a story's status from its children. The current
// status participates only in the all-backlog case: a story parked manually
// at a later status keeps it until real child evidence arrives. With zero
// children there is no aggregation signal and the current status stands.
func SuggestStatus(current Status, counts StatusCounts) Status {
	total := counts.Total()
	if total == 0 {
		return current
	}
	switch {
	case counts.Done == total:
		return StatusDone
	case counts.Done > 0 || counts.InProgress > 0:
		return StatusInProgress
	case counts.Todo > 0:
		return StatusTodo
	default:
		// All children in backlog: preserve a manual non-backlog status.
		if current != StatusBacklog && current != "" {
			return current
		}
		return StatusBacklog
	}
}

// NewStoryHealth builds the derived snapshot for one story.
func NewStoryHealth(story *Task, counts StatusCounts) *StoryHealth {
	suggested := SuggestStatus(story.Status, counts)
	return &StoryHealth{
		StoryID:              story.ID,
		Title:                story.Title,
		Status:               story.Status,
		SuggestedStatus:      suggested,
		Counts:               counts,
		CompletionPercentage: CompletionPercent(counts),
		Mismatch:             suggested != story.Status,
		// SafeToDelete reads the live child set: a story whose done children
		// were all removed reports safe again. Matches the cleanup guard,
		// which also classifies from current rows, not history.
		SafeToDelete: counts.Done == 0,
	}
}
