package server

import (
	"context"
	"fmt"
	"time"

	"github.com/quarryhill/taskgraph/internal/conflict"
	"github.com/quarryhill/taskgraph/internal/events"
	"github.com/quarryhill/taskgraph/internal/idgen"
	"github.com/quarryhill/taskgraph/internal/model"
	"github.com/quarryhill/taskgraph/internal/store"
)

// saveDependenciesResult is returned by saveDependencies: the resource ids
// the batch resolved to plus the conflicts recomputed afterwards.
type saveDependenciesResult struct {
	TaskID      string            `json:"task_id"`
	ResourceIDs []string          `json:"resource_ids"`
	Conflicts   []*model.Conflict `json:"conflicts"`
}

// saveDependencies upserts the declared resources and action-typed edges
// for one task as a single all-or-nothing batch, then recomputes conflicts
// against every other active task. The whole batch is validated before any
// row is written.
func (s *TaskGraphServer) saveDependencies(ctx context.Context, taskID string, entries []model.ResourceEntry) (*saveDependenciesResult, error) {
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return nil, err
	}

	for i := range entries {
		if err := model.ValidateResourceEntry(&entries[i]); err != nil {
			return nil, inputError(fmt.Sprintf("entry %d: %v", i, err))
		}
	}

	now := time.Now().UTC()
	var resourceIDs []string
	seen := make(map[string]bool)

	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		for i := range entries {
			e := &entries[i]

			rid, err := idgen.GenerateWithPrefix("rs-")
			if err != nil {
				return fmt.Errorf("failed to generate resource ID: %w", err)
			}
			resource := &model.Resource{
				ID:        rid,
				Kind:      e.Kind,
				Name:      e.Name,
				Path:      e.Path,
				CreatedAt: now,
			}
			// UpsertResource resolves the id to the surviving row on a
			// (kind, name) collision.
			if err := tx.UpsertResource(ctx, resource); err != nil {
				return fmt.Errorf("failed to upsert resource %s/%s: %w", e.Kind, e.Name, err)
			}

			eid, err := idgen.GenerateWithPrefix("re-")
			if err != nil {
				return fmt.Errorf("failed to generate edge ID: %w", err)
			}
			edge := &model.ResourceEdge{
				ID:         eid,
				TaskID:     taskID,
				ResourceID: resource.ID,
				Action:     e.Action,
				Confidence: e.Confidence,
				CreatedAt:  now,
			}
			if err := tx.UpsertResourceEdge(ctx, edge); err != nil {
				return fmt.Errorf("failed to upsert edge %s->%s: %w", taskID, resource.ID, err)
			}

			if !seen[resource.ID] {
				seen[resource.ID] = true
				resourceIDs = append(resourceIDs, resource.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	conflicts, err := s.conflictsFor(ctx, taskID)
	if err != nil {
		return nil, err
	}

	s.recordAndPublish(ctx, events.TopicResourcesSaved, taskID, "", events.ResourcesSaved{
		TaskID:    taskID,
		Resources: len(resourceIDs),
		Conflicts: len(conflicts),
	})
	if len(conflicts) > 0 {
		s.recordAndPublish(ctx, events.TopicConflictDetected, taskID, "", events.ConflictDetected{
			TaskID:    taskID,
			Conflicts: conflicts,
		})
	}

	if resourceIDs == nil {
		resourceIDs = []string{}
	}
	if conflicts == nil {
		conflicts = []*model.Conflict{}
	}
	return &saveDependenciesResult{
		TaskID:      taskID,
		ResourceIDs: resourceIDs,
		Conflicts:   conflicts,
	}, nil
}

// conflictsFor recomputes the conflict findings for one task from the live
// edge set. Total over well-formed input: a task with no shared resources
// yields an empty list, never an error.
func (s *TaskGraphServer) conflictsFor(ctx context.Context, taskID string) ([]*model.Conflict, error) {
	g, err := s.store.GetTaskResources(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task resources: %w", err)
	}

	names := make(map[string]string, len(g.Nodes))
	resourceIDs := make([]string, 0, len(g.Nodes))
	for _, r := range g.Nodes {
		names[r.ID] = r.Name
		resourceIDs = append(resourceIDs, r.ID)
	}

	mine := make([]conflict.Usage, 0, len(g.Edges))
	for _, e := range g.Edges {
		mine = append(mine, conflict.Usage{
			TaskID:       e.TaskID,
			ResourceID:   e.ResourceID,
			ResourceName: names[e.ResourceID],
			Action:       e.Action,
		})
	}

	active, err := s.store.GetActiveUsages(ctx, resourceIDs, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active usages: %w", err)
	}

	others := make([]conflict.Usage, 0, len(active))
	for _, u := range active {
		others = append(others, conflict.Usage{
			TaskID:       u.TaskID,
			ResourceID:   u.ResourceID,
			ResourceName: u.ResourceName,
			Action:       u.Action,
		})
	}

	found := conflict.Detect(taskID, mine, others)
	conflicts := make([]*model.Conflict, 0, len(found))
	for i := range found {
		conflicts = append(conflicts, &found[i])
	}
	return conflicts, nil
}

// getResourceUsage answers the inverse query: every task referencing one
// resource, with the action each declares.
func (s *TaskGraphServer) getResourceUsage(ctx context.Context, resourceID string) (*model.ResourceUsage, error) {
	resource, err := s.store.GetResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	uses, err := s.store.GetResourceUses(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get resource uses: %w", err)
	}
	if uses == nil {
		uses = []model.ResourceUse{}
	}

	return &model.ResourceUsage{Resource: resource, Uses: uses}, nil
}
