package model

// TaskFilter narrows ListTasks results. Zero values mean "no constraint".
type TaskFilter struct {
	Status  []Status `json:"status,omitempty"`
	StoryID string   `json:"story_id,omitempty"`
	Stories bool     `json:"stories,omitempty"` // only tasks with is_story
	Search  string   `json:"search,omitempty"`
	Sort    string   `json:"sort,omitempty"` // column, "-" prefix for descending
	Limit   int      `json:"limit,omitempty"`
	Offset  int      `json:"offset,omitempty"`
}
