package server

import (
	"context"
	"fmt"

	"github.com/quarryhill/taskgraph/internal/events"
	"github.com/quarryhill/taskgraph/internal/model"
)

// Preservation reasons reported by safeDeleteByStatus.
const (
	reasonStoryHasDoneChildren = "story has completed children"
	reasonParentHasDoneChild   = "parent story has completed children"
	reasonHasDependents        = "other tasks depend on this task"
)

// getUserStoryHealth builds the derived health snapshot for every story.
func (s *TaskGraphServer) getUserStoryHealth(ctx context.Context) ([]*model.StoryHealth, error) {
	stories, err := s.store.ListStories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}

	health := make([]*model.StoryHealth, 0, len(stories))
	for _, story := range stories {
		counts, err := s.store.CountChildrenByStatus(ctx, story.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count children of %s: %w", story.ID, err)
		}
		health = append(health, model.NewStoryHealth(story, counts))
	}
	return health, nil
}

// safeDeleteByStatus is the only sanctioned bulk removal path. Every task at
// the target status is classified first, in stable creation order; deletions
// happen in one batch only after the full pass, so an in-progress delete can
// never invalidate a classification. Preserved:
//   - stories with at least one done child (completion evidence),
//   - tasks whose parent story has at least one done child,
//   - tasks any other task depends on.
func (s *TaskGraphServer) safeDeleteByStatus(ctx context.Context, status model.Status) (*model.CleanupResult, error) {
	if !status.IsValid() {
		return nil, inputError("invalid status " + string(status))
	}

	tasks, _, err := s.store.ListTasks(ctx, model.TaskFilter{
		Status: []model.Status{status},
		Sort:   "created_at",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	deps, err := s.store.ListDependencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dependencies: %w", err)
	}
	dependedOn := make(map[string]bool, len(deps))
	for _, d := range deps {
		dependedOn[d.DependsOnID] = true
	}

	// Child status counts per story, fetched once per story id.
	countsByStory := make(map[string]model.StatusCounts)
	childCounts := func(storyID string) (model.StatusCounts, error) {
		if c, ok := countsByStory[storyID]; ok {
			return c, nil
		}
		c, err := s.store.CountChildrenByStatus(ctx, storyID)
		if err != nil {
			return model.StatusCounts{}, fmt.Errorf("failed to count children of %s: %w", storyID, err)
		}
		countsByStory[storyID] = c
		return c, nil
	}

	result := &model.CleanupResult{
		DeletedIDs: []string{},
		Preserved:  []*model.PreservedTask{},
	}
	var deleteIDs []string

	for _, t := range tasks {
		if t.IsStory {
			counts, err := childCounts(t.ID)
			if err != nil {
				return nil, err
			}
			if counts.Done > 0 {
				result.Preserved = append(result.Preserved, &model.PreservedTask{
					ID:                   t.ID,
					Title:                t.Title,
					Reason:               reasonStoryHasDoneChildren,
					CompletionPercentage: model.CompletionPercent(counts),
					DoneCount:            counts.Done,
					TotalCount:           counts.Total(),
				})
				continue
			}
		} else if t.ParentStoryID != "" {
			counts, err := childCounts(t.ParentStoryID)
			if err != nil {
				return nil, err
			}
			if counts.Done > 0 {
				result.Preserved = append(result.Preserved, &model.PreservedTask{
					ID:     t.ID,
					Title:  t.Title,
					Reason: reasonParentHasDoneChild,
				})
				continue
			}
		}

		if dependedOn[t.ID] {
			result.Preserved = append(result.Preserved, &model.PreservedTask{
				ID:     t.ID,
				Title:  t.Title,
				Reason: reasonHasDependents,
			})
			continue
		}

		deleteIDs = append(deleteIDs, t.ID)
	}

	if len(deleteIDs) > 0 {
		if err := s.store.DeleteTasks(ctx, deleteIDs); err != nil {
			return nil, fmt.Errorf("failed to delete tasks: %w", err)
		}
		result.DeletedIDs = deleteIDs

		// Deleted children change their stories' aggregates.
		deleted := make(map[string]bool, len(deleteIDs))
		for _, id := range deleteIDs {
			deleted[id] = true
		}
		rolled := make(map[string]bool)
		for _, t := range tasks {
			if deleted[t.ID] && t.ParentStoryID != "" && !rolled[t.ParentStoryID] {
				rolled[t.ParentStoryID] = true
				if err := s.rollupStory(ctx, t.ParentStoryID); err != nil {
					return nil, err
				}
			}
		}
	}

	s.invalidateOrders()
	s.recordAndPublish(ctx, events.TopicCleanupCompleted, "", "", events.CleanupCompleted{
		Status:    status,
		Deleted:   result.DeletedIDs,
		Preserved: len(result.Preserved),
	})

	return result, nil
}
