package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/quarryhill/taskgraph/internal/events"
	"github.com/quarryhill/taskgraph/internal/graph"
	"github.com/quarryhill/taskgraph/internal/idgen"
	"github.com/quarryhill/taskgraph/internal/model"
	"github.com/quarryhill/taskgraph/internal/store"
)

// createTaskInput holds transport-agnostic parameters for creating a task.
type createTaskInput struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Status        string   `json:"status"`
	ParentStoryID string   `json:"parent_story_id"`
	IsStory       bool     `json:"is_story"`
	Dependencies  []string `json:"dependencies"`
	CreatedBy     string   `json:"created_by"`
}

// createTask validates input, persists a new task and its dependency edges
// in one transaction, recomputes the parent story's status, and publishes a
// TaskCreated event. A rejected dependency rolls the whole create back; no
// half-created task survives. Returns inputError for validation failures and
// sql.ErrNoRows when the parent story or a dependency target is missing.
func (s *TaskGraphServer) createTask(ctx context.Context, in createTaskInput) (*model.Task, error) {
	if in.Status == "" {
		in.Status = string(model.StatusBacklog)
	}

	id, err := idgen.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	now := time.Now().UTC()
	task := &model.Task{
		ID:            id,
		Title:         in.Title,
		Description:   in.Description,
		Status:        model.Status(in.Status),
		ParentStoryID: in.ParentStoryID,
		IsStory:       in.IsStory,
		CreatedAt:     now,
		CreatedBy:     in.CreatedBy,
		UpdatedAt:     now,
	}

	if err := model.ValidateTask(task); err != nil {
		return nil, inputError("invalid task: " + err.Error())
	}

	if task.ParentStoryID != "" {
		parent, err := s.store.GetTask(ctx, task.ParentStoryID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("parent story %s: %w", task.ParentStoryID, sql.ErrNoRows)
			}
			return nil, fmt.Errorf("failed to get parent story: %w", err)
		}
		if !parent.IsStory {
			return nil, inputError("parent " + parent.ID + " is not a story")
		}
	}

	var deps []*model.Dependency
	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.CreateTask(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		for _, depID := range in.Dependencies {
			dep := &model.Dependency{
				TaskID:      task.ID,
				DependsOnID: depID,
				CreatedAt:   now,
				CreatedBy:   in.CreatedBy,
			}
			if err := model.ValidateDependency(dep); err != nil {
				return inputError("invalid dependency: " + err.Error())
			}
			if _, err := tx.GetTask(ctx, depID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("task %s: %w", depID, sql.ErrNoRows)
				}
				return fmt.Errorf("failed to get task %s: %w", depID, err)
			}
			if err := tx.AddDependency(ctx, dep); err != nil {
				return err
			}
			deps = append(deps, dep)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if task.ParentStoryID != "" {
		if err := s.rollupStory(ctx, task.ParentStoryID); err != nil {
			return nil, err
		}
	}

	s.invalidateOrders()
	s.recordAndPublish(ctx, events.TopicTaskCreated, task.ID, task.CreatedBy, events.TaskCreated{Task: task})
	for _, dep := range deps {
		s.recordAndPublish(ctx, events.TopicDependencyAdded, dep.TaskID, dep.CreatedBy, events.DependencyAdded{Dependency: dep})
	}

	return task, nil
}

// updateTaskInput holds transport-agnostic parameters for updating a task.
// Pointer fields indicate optionality: nil means "don't change".
type updateTaskInput struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	Status        *string `json:"status,omitempty"`
	ParentStoryID *string `json:"parent_story_id,omitempty"`
	UpdatedBy     string  `json:"updated_by,omitempty"`
}

// updateTask applies partial updates to an existing task, recomputes any
// affected parent story, and publishes a TaskUpdated event. Returns
// inputError for validation failures.
func (s *TaskGraphServer) updateTask(ctx context.Context, id string, in updateTaskInput) (*model.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	oldParent := task.ParentStoryID
	changes := make(map[string]any)

	if in.Title != nil {
		task.Title = *in.Title
		changes["title"] = task.Title
	}
	if in.Description != nil {
		task.Description = *in.Description
		changes["description"] = task.Description
	}
	if in.Status != nil {
		task.Status = model.Status(*in.Status)
		changes["status"] = task.Status
	}
	if in.ParentStoryID != nil {
		task.ParentStoryID = *in.ParentStoryID
		changes["parent_story_id"] = task.ParentStoryID
	}

	if len(changes) == 0 {
		return task, nil
	}

	if err := model.ValidateTask(task); err != nil {
		return nil, inputError("invalid task: " + err.Error())
	}

	if in.ParentStoryID != nil && task.ParentStoryID != "" && task.ParentStoryID != oldParent {
		parent, err := s.store.GetTask(ctx, task.ParentStoryID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("parent story %s: %w", task.ParentStoryID, sql.ErrNoRows)
			}
			return nil, fmt.Errorf("failed to get parent story: %w", err)
		}
		if !parent.IsStory {
			return nil, inputError("parent " + parent.ID + " is not a story")
		}
	}

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	// Recompute every story whose child set or child statuses changed.
	for _, storyID := range []string{oldParent, task.ParentStoryID} {
		if storyID == "" || storyID == id {
			continue
		}
		if err := s.rollupStory(ctx, storyID); err != nil {
			return nil, err
		}
		if oldParent == task.ParentStoryID {
			break
		}
	}

	s.invalidateOrders()
	s.recordAndPublish(ctx, events.TopicTaskUpdated, task.ID, in.UpdatedBy, events.TaskUpdated{Task: task, Changes: changes})

	return task, nil
}

// deleteTask removes one task, recomputes its parent story, and publishes a
// TaskDeleted event.
func (s *TaskGraphServer) deleteTask(ctx context.Context, id string) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}

	if task.ParentStoryID != "" {
		if err := s.rollupStory(ctx, task.ParentStoryID); err != nil {
			return err
		}
	}

	s.invalidateOrders()
	s.recordAndPublish(ctx, events.TopicTaskDeleted, id, "", events.TaskDeleted{TaskID: id})

	return nil
}

// rollupStory recomputes one story's status from its live children and
// writes it back when it changed. Only the story's status and updated_at
// are touched; the recomputation never cascades upward.
func (s *TaskGraphServer) rollupStory(ctx context.Context, storyID string) error {
	story, err := s.store.GetTask(ctx, storyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Story deleted concurrently; nothing to roll up.
			return nil
		}
		return fmt.Errorf("failed to get story %s: %w", storyID, err)
	}
	if !story.IsStory {
		return nil
	}

	counts, err := s.store.CountChildrenByStatus(ctx, storyID)
	if err != nil {
		return fmt.Errorf("failed to count children of %s: %w", storyID, err)
	}

	suggested := model.SuggestStatus(story.Status, counts)
	if suggested == story.Status {
		return nil
	}

	if err := s.store.UpdateTaskStatus(ctx, storyID, suggested); err != nil {
		return fmt.Errorf("failed to roll up story %s: %w", storyID, err)
	}

	s.recordAndPublish(ctx, events.TopicStoryRolledUp, storyID, "", events.StoryRolledUp{
		StoryID: storyID,
		From:    story.Status,
		To:      suggested,
	})

	return nil
}

// addDependency validates and persists one task→task dependency edge. On a
// cycle rejection the returned *store.CycleError carries the full offending
// path.
func (s *TaskGraphServer) addDependency(ctx context.Context, taskID, dependsOnID, createdBy string) error {
	dep := &model.Dependency{
		TaskID:      taskID,
		DependsOnID: dependsOnID,
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   createdBy,
	}
	if err := model.ValidateDependency(dep); err != nil {
		return inputError("invalid dependency: " + err.Error())
	}

	// Both endpoints must exist; a dangling edge is a distinct not-found
	// error rather than a validation failure.
	for _, id := range []string{taskID, dependsOnID} {
		if _, err := s.store.GetTask(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("task %s: %w", id, sql.ErrNoRows)
			}
			return fmt.Errorf("failed to get task %s: %w", id, err)
		}
	}

	if err := s.store.AddDependency(ctx, dep); err != nil {
		var cycleErr *store.CycleError
		if errors.As(err, &cycleErr) {
			cycleErr.Path = s.cyclePath(ctx, taskID, dependsOnID)
		}
		return err
	}

	s.invalidateOrders()
	s.recordAndPublish(ctx, events.TopicDependencyAdded, taskID, createdBy, events.DependencyAdded{Dependency: dep})

	return nil
}

// cyclePath reconstructs the cycle the rejected edge would have closed, for
// error reporting. Best-effort: an empty path still names the edge.
func (s *TaskGraphServer) cyclePath(ctx context.Context, taskID, dependsOnID string) []string {
	deps, err := s.store.ListDependencies(ctx)
	if err != nil {
		return nil
	}

	depMap := make(map[string][]string)
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, d := range deps {
		add(d.TaskID)
		add(d.DependsOnID)
		depMap[d.TaskID] = append(depMap[d.TaskID], d.DependsOnID)
	}
	add(taskID)
	add(dependsOnID)
	depMap[taskID] = append(depMap[taskID], dependsOnID)

	nodes := make([]graph.Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, graph.Node{ID: id, Deps: depMap[id]})
	}

	return graph.Order(nodes).Cycle
}

// removeDependency deletes one dependency edge. Removing an absent edge is
// a no-op.
func (s *TaskGraphServer) removeDependency(ctx context.Context, taskID, dependsOnID string) error {
	if taskID == "" || dependsOnID == "" {
		return inputError("task_id and depends_on_id are required")
	}

	if err := s.store.RemoveDependency(ctx, taskID, dependsOnID); err != nil {
		return fmt.Errorf("failed to remove dependency: %w", err)
	}

	s.invalidateOrders()
	s.recordAndPublish(ctx, events.TopicDependencyRemoved, taskID, "", events.DependencyRemoved{
		TaskID:      taskID,
		DependsOnID: dependsOnID,
	})

	return nil
}
