package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/quarryhill/taskgraph/internal/graph"
	"github.com/quarryhill/taskgraph/internal/model"
)

// getExecutionOrder computes a deterministic execution order for the task
// subset selected by story and statuses, or reports the cycle blocking one.
// Results are cached per subset selector; any graph mutation clears the
// cache.
func (s *TaskGraphServer) getExecutionOrder(ctx context.Context, storyID string, statuses []model.Status) (*model.ExecutionOrder, error) {
	key := orderCacheKey(storyID, statuses)
	if cached, ok := s.orderCache.Get(key); ok {
		return cached, nil
	}

	for _, st := range statuses {
		if !st.IsValid() {
			return nil, inputError("invalid status " + string(st))
		}
	}

	// Creation-time order is the stable tie-break for Kahn's algorithm.
	tasks, _, err := s.store.ListTasks(ctx, model.TaskFilter{
		StoryID: storyID,
		Status:  statuses,
		Sort:    "created_at",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	deps, err := s.store.ListDependencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dependencies: %w", err)
	}

	inSubset := make(map[string]bool, len(tasks))
	titles := make(map[string]string, len(tasks))
	for _, t := range tasks {
		inSubset[t.ID] = true
		titles[t.ID] = t.Title
	}

	depMap := make(map[string][]string)
	for _, d := range deps {
		depMap[d.TaskID] = append(depMap[d.TaskID], d.DependsOnID)
	}

	nodes := make([]graph.Node, 0, len(tasks))
	for _, t := range tasks {
		nodes = append(nodes, graph.Node{ID: t.ID, Deps: depMap[t.ID]})
	}

	result := graph.Order(nodes)

	order := &model.ExecutionOrder{}
	if len(result.Cycle) > 0 {
		order.Cycle = result.Cycle
	} else {
		order.Tasks = make([]*model.OrderedTask, 0, len(result.Order))
		for i, id := range result.Order {
			// Report only the dependencies that participated in the
			// ordering; edges leaving the subset were ignored.
			var subsetDeps []string
			for _, dep := range depMap[id] {
				if inSubset[dep] {
					subsetDeps = append(subsetDeps, dep)
				}
			}
			order.Tasks = append(order.Tasks, &model.OrderedTask{
				ID:           id,
				Title:        titles[id],
				Position:     i + 1,
				Dependencies: subsetDeps,
			})
		}
	}

	s.orderCache.Set(key, order)
	return order, nil
}

func orderCacheKey(storyID string, statuses []model.Status) string {
	parts := make([]string, 0, len(statuses))
	for _, st := range statuses {
		parts = append(parts, string(st))
	}
	return "story=" + storyID + "|status=" + strings.Join(parts, ",")
}
