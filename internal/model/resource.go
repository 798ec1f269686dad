package model

import "time"

// ResourceKind classifies the artifact a resource addresses.
type ResourceKind string

const (
	KindFile      ResourceKind = "file"
	KindComponent ResourceKind = "component"
	KindAPI       ResourceKind = "api"
	KindModel     ResourceKind = "model"
)

// String returns the string representation of the kind.
func (k ResourceKind) String() string {
	return string(k)
}

// IsValid checks whether the kind is a known value.
func (k ResourceKind) IsValid() bool {
	switch k {
	case KindFile, KindComponent, KindAPI, KindModel:
		return true
	}
	return false
}

// ResourceAction describes how a task touches a resource.
type ResourceAction string

const (
	ActionUses     ResourceAction = "uses"
	ActionModifies ResourceAction = "modifies"
	ActionCreates  ResourceAction = "creates"
)

// String returns the string representation of the action.
func (a ResourceAction) String() string {
	return string(a)
}

// IsValid checks whether the action is a known value.
func (a ResourceAction) IsValid() bool {
	switch a {
	case ActionUses, ActionModifies, ActionCreates:
		return true
	}
	return false
}

// IsWrite reports whether the action writes to the resource. Both modifies
// and creates count as writes for conflict classification.
func (a ResourceAction) IsWrite() bool {
	return a == ActionModifies || a == ActionCreates
}

// Resource is an addressable artifact tasks can reference. Identity is
// (kind, name); the path is the only field that may change after creation.
type Resource struct {
	ID        string       `json:"id"`
	Kind      ResourceKind `json:"kind"`
	Name      string       `json:"name"`
	Path      string       `json:"path,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// ResourceEdge is a typed association between a task and a resource.
// Identity is (task_id, resource_id, action); a task may hold two edges to
// the same resource under different actions. Confidence is metadata only.
type ResourceEdge struct {
	ID         string         `json:"id"`
	TaskID     string         `json:"task_id"`
	ResourceID string         `json:"resource_id"`
	Action     ResourceAction `json:"action"`
	Confidence float64        `json:"confidence"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ResourceEntry is one declared usage in a SaveDependencies batch.
type ResourceEntry struct {
	Kind       ResourceKind   `json:"kind"`
	Name       string         `json:"name"`
	Path       string         `json:"path,omitempty"`
	Action     ResourceAction `json:"action"`
	Confidence float64        `json:"confidence"`
}

// ResourceUse is one (task, action) pair referencing a resource, returned
// by the inverse usage query.
type ResourceUse struct {
	TaskID string         `json:"task_id"`
	Action ResourceAction `json:"action"`
}

// ResourceUsage pairs a resource with every task referencing it.
type ResourceUsage struct {
	Resource *Resource     `json:"resource"`
	Uses     []ResourceUse `json:"uses"`
}

// ActiveUsage is one resource reference held by an actively worked task,
// as returned by the conflict-detection query.
type ActiveUsage struct {
	TaskID       string         `json:"task_id"`
	ResourceID   string         `json:"resource_id"`
	ResourceName string         `json:"resource_name"`
	Action       ResourceAction `json:"action"`
}

// DependencyGraph is the per-task view of the resource graph: the resources
// a task touches (de-duplicated) and the action-typed edges to them.
type DependencyGraph struct {
	Nodes []*Resource     `json:"nodes"`
	Edges []*ResourceEdge `json:"edges"`
}
