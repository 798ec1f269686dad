package model

// GraphEdge represents a task dependency as a graph edge for visualization.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// GraphStats holds aggregate task counts by status.
type GraphStats struct {
	TotalBacklog    int `json:"total_backlog"`
	TotalTodo       int `json:"total_todo"`
	TotalInProgress int `json:"total_in_progress"`
	TotalDone       int `json:"total_done"`
}

// GraphResponse is the response for the graph visualization endpoint.
type GraphResponse struct {
	Nodes []*Task      `json:"nodes"`
	Edges []*GraphEdge `json:"edges"`
	Stats *GraphStats  `json:"stats"`
}

// OrderedTask is one entry of a computed execution order. Positions are
// 1-based and every task's position is strictly greater than all of its
// dependencies' positions.
type OrderedTask struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Position     int      `json:"position"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// ExecutionOrder is the result of ordering a task subset: either a total
// order, or the cycle path blocking one. Exactly one of Tasks or Cycle is
// populated.
type ExecutionOrder struct {
	Tasks []*OrderedTask `json:"tasks,omitempty"`
	Cycle []string       `json:"cycle,omitempty"`
}

// PreservedTask records why SafeDeleteByStatus kept a task.
type PreservedTask struct {
	ID                   string  `json:"id"`
	Title                string  `json:"title"`
	Reason               string  `json:"reason"`
	CompletionPercentage float64 `json:"completion_percentage,omitempty"`
	DoneCount            int     `json:"done_count,omitempty"`
	TotalCount           int     `json:"total_count,omitempty"`
}

// CleanupResult is the outcome of one SafeDeleteByStatus pass.
type CleanupResult struct {
	DeletedIDs []string         `json:"deleted_ids"`
	Preserved  []*PreservedTask `json:"preserved"`
}
