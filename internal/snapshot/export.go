// Package snapshot exports the full task graph as JSONL and ships it to
// configured destinations on a schedule.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/quarryhill/taskgraph/internal/model"
	"github.com/quarryhill/taskgraph/internal/store"
)

// FormatVersion identifies the JSONL snapshot layout. Bump it when the
// header or record shapes change.
const FormatVersion = "1"

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version       string    `json:"version"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	TaskCount     int       `json:"task_count"`
	ResourceCount int       `json:"resource_count"`
	EdgeCount     int       `json:"edge_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes all tasks, resources, and resource edges from the store
// as JSONL to w. Tasks are sorted by ID and include embedded dependencies.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	// Fetch all tasks (no filter, no limit).
	tasks, _, err := s.ListTasks(ctx, model.TaskFilter{Sort: "created_at"})
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	for _, t := range tasks {
		deps, err := s.GetDependencies(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("get dependencies for %s: %w", t.ID, err)
		}
		t.Dependencies = deps
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].ID < tasks[j].ID
	})

	// Collect the resource graph task by task; resources repeat across
	// tasks and are deduplicated by id.
	resourceSet := make(map[string]*model.Resource)
	var edges []*model.ResourceEdge
	for _, t := range tasks {
		g, err := s.GetTaskResources(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("get resources for %s: %w", t.ID, err)
		}
		for _, r := range g.Nodes {
			resourceSet[r.ID] = r
		}
		edges = append(edges, g.Edges...)
	}

	resources := make([]*model.Resource, 0, len(resourceSet))
	for _, r := range resourceSet {
		resources = append(resources, r)
	}
	sort.Slice(resources, func(i, j int) bool {
		return resources[i].ID < resources[j].ID
	})
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].ID < edges[j].ID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:       FormatVersion,
		Type:          "header",
		Timestamp:     time.Now().UTC(),
		TaskCount:     len(tasks),
		ResourceCount: len(resources),
		EdgeCount:     len(edges),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, t := range tasks {
		if err := enc.Encode(record{Type: "task", Data: t}); err != nil {
			return fmt.Errorf("encode task %s: %w", t.ID, err)
		}
	}
	for _, r := range resources {
		if err := enc.Encode(record{Type: "resource", Data: r}); err != nil {
			return fmt.Errorf("encode resource %s: %w", r.ID, err)
		}
	}
	for _, e := range edges {
		if err := enc.Encode(record{Type: "edge", Data: e}); err != nil {
			return fmt.Errorf("encode edge %s: %w", e.ID, err)
		}
	}

	return nil
}
