package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/quarryhill/taskgraph/internal/model"
)

func nonEmptyLines(s string) []string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestExportJSONL_Empty(t *testing.T) {
	ms := newMockStore()
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.TaskCount != 0 || h.ResourceCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_FullGraph(t *testing.T) {
	ms := newMockStore()
	now := time.Now().UTC()

	// Add tasks out of ID order to verify sorting.
	ms.tasks["tk-zzz"] = &model.Task{ID: "tk-zzz", Title: "Second", Status: model.StatusTodo, CreatedAt: now, UpdatedAt: now}
	ms.tasks["tk-aaa"] = &model.Task{ID: "tk-aaa", Title: "First", Status: model.StatusBacklog, CreatedAt: now, UpdatedAt: now}

	ms.deps["tk-aaa"] = []*model.Dependency{{TaskID: "tk-aaa", DependsOnID: "tk-zzz", CreatedAt: now}}

	ms.resources["rs-1"] = &model.Resource{ID: "rs-1", Kind: model.KindFile, Name: "auth.go", CreatedAt: now}
	ms.edges["tk-aaa"] = []*model.ResourceEdge{
		{ID: "re-1", TaskID: "tk-aaa", ResourceID: "rs-1", Action: model.ActionModifies, Confidence: 0.9, CreatedAt: now},
	}
	// Same resource referenced by the second task: must not repeat in output.
	ms.edges["tk-zzz"] = []*model.ResourceEdge{
		{ID: "re-2", TaskID: "tk-zzz", ResourceID: "rs-1", Action: model.ActionUses, Confidence: 1.0, CreatedAt: now},
	}

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 2 tasks + 1 resource + 2 edges = 6 lines
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.TaskCount != 2 || h.ResourceCount != 1 || h.EdgeCount != 2 {
		t.Fatalf("unexpected header counts: %+v", h)
	}

	// Tasks come first, sorted by ID, with embedded dependencies.
	var rec struct {
		Type string     `json:"type"`
		Data model.Task `json:"data"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("unmarshal task record: %v", err)
	}
	if rec.Type != "task" || rec.Data.ID != "tk-aaa" {
		t.Fatalf("unexpected first record: %+v", rec)
	}
	if len(rec.Data.Dependencies) != 1 || rec.Data.Dependencies[0].DependsOnID != "tk-zzz" {
		t.Fatalf("expected embedded dependency, got %+v", rec.Data.Dependencies)
	}

	types := make(map[string]int)
	for _, l := range lines[1:] {
		var line struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal([]byte(l), &line); err != nil {
			t.Fatalf("unmarshal line %q: %v", l, err)
		}
		types[line.Type]++
	}
	if types["task"] != 2 || types["resource"] != 1 || types["edge"] != 2 {
		t.Fatalf("unexpected record mix: %v", types)
	}
}
