package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateTask checks a Task for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the task is valid.
func ValidateTask(t *Task) error {
	var ve ValidationError

	// Title: required and at most 500 characters.
	title := strings.TrimSpace(t.Title)
	if title == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "is required"})
	} else if len([]rune(title)) > 500 {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "must be 500 characters or fewer"})
	}

	// Status: must be a valid enum value (closed set).
	if !t.Status.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "status",
			Message: fmt.Sprintf("invalid value %q", t.Status),
		})
	}

	// Stories group tasks and cannot be nested.
	if t.IsStory && t.ParentStoryID != "" {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "parent_story_id",
			Message: "a story cannot have a parent story",
		})
	}

	if t.ParentStoryID == t.ID && t.ID != "" {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "parent_story_id",
			Message: "a task cannot be its own parent",
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateResourceEntry checks one declared resource usage.
func ValidateResourceEntry(e *ResourceEntry) error {
	var ve ValidationError

	if !e.Kind.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "kind",
			Message: fmt.Sprintf("invalid value %q", e.Kind),
		})
	}

	if strings.TrimSpace(e.Name) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "is required"})
	}

	if !e.Action.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "action",
			Message: fmt.Sprintf("invalid value %q", e.Action),
		})
	}

	if e.Confidence < 0 || e.Confidence > 1 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "confidence",
			Message: fmt.Sprintf("must be between 0 and 1, got %v", e.Confidence),
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateDependency checks a task-to-task dependency pair. Acyclicity is
// enforced at write time by the store; this catches the cheap local rules.
func ValidateDependency(d *Dependency) error {
	var ve ValidationError

	if d.TaskID == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "task_id", Message: "is required"})
	}
	if d.DependsOnID == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "depends_on_id", Message: "is required"})
	}
	if d.TaskID != "" && d.TaskID == d.DependsOnID {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "depends_on_id",
			Message: "a task cannot depend on itself",
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
