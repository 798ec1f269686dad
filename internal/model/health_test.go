package model

import "testing"

func counts(backlog, todo, inProgress, done int) StatusCounts {
	return StatusCounts{Backlog: backlog, Todo: todo, InProgress: inProgress, Done: done}
}

func TestSuggestStatus(t *testing.T) {
	for _, tc := range []struct {
		name    string
		current Status
		counts  StatusCounts
		want    Status
	}{
		{"AllDone", StatusInProgress, counts(0, 0, 0, 3), StatusDone},
		{"SomeDone", StatusTodo, counts(0, 1, 0, 2), StatusInProgress},
		{"InProgressChild", StatusBacklog, counts(1, 0, 1, 0), StatusInProgress},
		{"TodoOnly", StatusBacklog, counts(1, 2, 0, 0), StatusTodo},
		// All-backlog: a manual non-backlog parent status sticks.
		{"AllBacklogManualTodo", StatusTodo, counts(4, 0, 0, 0), StatusTodo},
		{"AllBacklogCurrentBacklog", StatusBacklog, counts(4, 0, 0, 0), StatusBacklog},
		// Zero children: no aggregation signal.
		{"NoChildren", StatusInProgress, counts(0, 0, 0, 0), StatusInProgress},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := SuggestStatus(tc.current, tc.counts); got != tc.want {
				t.Errorf("SuggestStatus(%q, %+v) = %q, want %q", tc.current, tc.counts, got, tc.want)
			}
		})
	}
}

func TestCompletionPercent(t *testing.T) {
	if got := CompletionPercent(counts(3, 0, 0, 1)); got != 25 {
		t.Errorf("CompletionPercent = %v, want 25", got)
	}
	if got := CompletionPercent(counts(0, 0, 0, 3)); got != 100 {
		t.Errorf("CompletionPercent = %v, want 100", got)
	}
	if got := CompletionPercent(counts(0, 0, 0, 0)); got != 0 {
		t.Errorf("CompletionPercent of empty story = %v, want 0", got)
	}
}

func TestNewStoryHealth(t *testing.T) {
	story := &Task{ID: "tk-s1", Title: "Checkout flow", Status: StatusTodo, IsStory: true}

	h := NewStoryHealth(story, counts(1, 0, 0, 1))
	if h.SuggestedStatus != StatusInProgress {
		t.Errorf("suggested = %q, want in_progress", h.SuggestedStatus)
	}
	if !h.Mismatch {
		t.Error("expected mismatch between todo and in_progress")
	}
	if h.SafeToDelete {
		t.Error("story with a done child must not be safe to delete")
	}
	if h.CompletionPercentage != 50 {
		t.Errorf("completion = %v, want 50", h.CompletionPercentage)
	}

	h = NewStoryHealth(story, counts(2, 1, 0, 0))
	if !h.SafeToDelete {
		t.Error("story with no done children should be safe to delete")
	}
	if h.SuggestedStatus != StatusTodo {
		t.Errorf("suggested = %q, want todo", h.SuggestedStatus)
	}
	if h.Mismatch {
		t.Error("todo story suggesting todo is not a mismatch")
	}
}

func TestStatusCountsAdd(t *testing.T) {
	var c StatusCounts
	for _, s := range []Status{StatusBacklog, StatusTodo, StatusTodo, StatusInProgress, StatusDone} {
		c.Add(s)
	}
	want := counts(1, 2, 1, 1)
	if c != want {
		t.Errorf("counts = %+v, want %+v", c, want)
	}
	if c.Total() != 5 {
		t.Errorf("total = %d, want 5", c.Total())
	}
}
