package model

import (
	"errors"
	"strings"
	"testing"
)

// fieldErrors extracts the failing field names from a validation error.
func fieldErrors(t *testing.T, err error) []string {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	fields := make([]string, len(ve.Errors))
	for i, fe := range ve.Errors {
		fields[i] = fe.Field
	}
	return fields
}

func TestValidateTask(t *testing.T) {
	valid := &Task{ID: "tk-1", Title: "Implement parser", Status: StatusTodo}
	if err := ValidateTask(valid); err != nil {
		t.Fatalf("expected valid task, got %v", err)
	}

	for _, tc := range []struct {
		name  string
		task  *Task
		field string
	}{
		{"MissingTitle", &Task{ID: "tk-1", Status: StatusTodo}, "title"},
		{"WhitespaceTitle", &Task{ID: "tk-1", Title: "   ", Status: StatusTodo}, "title"},
		{"LongTitle", &Task{ID: "tk-1", Title: strings.Repeat("x", 501), Status: StatusTodo}, "title"},
		{"BadStatus", &Task{ID: "tk-1", Title: "t", Status: "open"}, "status"},
		{"NestedStory", &Task{ID: "tk-1", Title: "t", Status: StatusTodo, IsStory: true, ParentStoryID: "tk-2"}, "parent_story_id"},
		{"SelfParent", &Task{ID: "tk-1", Title: "t", Status: StatusTodo, ParentStoryID: "tk-1"}, "parent_story_id"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTask(tc.task)
			if err == nil {
				t.Fatal("expected validation error")
			}
			found := false
			for _, f := range fieldErrors(t, err) {
				if f == tc.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %q, got %v", tc.field, err)
			}
		})
	}
}

func TestValidateResourceEntry(t *testing.T) {
	valid := &ResourceEntry{Kind: KindFile, Name: "a.ts", Action: ActionModifies, Confidence: 0.9}
	if err := ValidateResourceEntry(valid); err != nil {
		t.Fatalf("expected valid entry, got %v", err)
	}

	for _, tc := range []struct {
		name  string
		entry *ResourceEntry
		field string
	}{
		{"BadKind", &ResourceEntry{Kind: "db", Name: "a", Action: ActionUses}, "kind"},
		{"MissingName", &ResourceEntry{Kind: KindFile, Action: ActionUses}, "name"},
		{"BadAction", &ResourceEntry{Kind: KindFile, Name: "a", Action: "writes"}, "action"},
		{"ConfidenceTooHigh", &ResourceEntry{Kind: KindFile, Name: "a", Action: ActionUses, Confidence: 1.5}, "confidence"},
		{"ConfidenceNegative", &ResourceEntry{Kind: KindFile, Name: "a", Action: ActionUses, Confidence: -0.1}, "confidence"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateResourceEntry(tc.entry)
			if err == nil {
				t.Fatal("expected validation error")
			}
			found := false
			for _, f := range fieldErrors(t, err) {
				if f == tc.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %q, got %v", tc.field, err)
			}
		})
	}
}

func TestValidateDependency(t *testing.T) {
	if err := ValidateDependency(&Dependency{TaskID: "tk-a", DependsOnID: "tk-b"}); err != nil {
		t.Fatalf("expected valid dependency, got %v", err)
	}
	if err := ValidateDependency(&Dependency{TaskID: "tk-a", DependsOnID: "tk-a"}); err == nil {
		t.Fatal("expected self-dependency to be rejected")
	}
	if err := ValidateDependency(&Dependency{TaskID: "", DependsOnID: "tk-b"}); err == nil {
		t.Fatal("expected missing task_id to be rejected")
	}
}
