// Package conflict classifies concurrent work by active tasks on shared
// resources. Classification is a coarse rule over declared actions, not a
// data-flow analysis, and is always recomputed from the live edge set.
package conflict

import (
	"fmt"

	"github.com/quarryhill/taskgraph/internal/model"
)

// Usage is one action-typed reference to a resource by a task.
type Usage struct {
	TaskID       string
	ResourceID   string
	ResourceName string
	Action       model.ResourceAction
}

// actions accumulates the distinct action kinds one task declares on one
// resource.
type actions struct {
	uses     bool
	modifies bool
	writes   bool // modifies or creates
}

func (a *actions) add(act model.ResourceAction) {
	switch act {
	case model.ActionUses:
		a.uses = true
	case model.ActionModifies:
		a.modifies = true
		a.writes = true
	case model.ActionCreates:
		a.writes = true
	}
}

// Detect classifies the relationship between the target task and every other
// task sharing a resource with it. The mine slice holds the target task's
// own usages; others holds usages by tasks already filtered to active status
// ({todo, in_progress}) by the caller. One finding is produced per
// (other task, shared resource) pair, in the input order of others, and
// each finding's TaskID names the conflicting other task.
func Detect(taskID string, mine []Usage, others []Usage) []model.Conflict {
	myActions := make(map[string]*actions, len(mine))
	names := make(map[string]string, len(mine))
	for _, u := range mine {
		a := myActions[u.ResourceID]
		if a == nil {
			a = &actions{}
			myActions[u.ResourceID] = a
		}
		a.add(u.Action)
		names[u.ResourceID] = u.ResourceName
	}

	type pairKey struct{ task, resource string }
	theirActions := make(map[pairKey]*actions)
	var pairs []pairKey
	for _, u := range others {
		if u.TaskID == taskID {
			continue
		}
		if _, shared := myActions[u.ResourceID]; !shared {
			continue
		}
		key := pairKey{u.TaskID, u.ResourceID}
		a := theirActions[key]
		if a == nil {
			a = &actions{}
			theirActions[key] = a
			pairs = append(pairs, key)
		}
		a.add(u.Action)
	}

	var conflicts []model.Conflict
	for _, key := range pairs {
		mineA := myActions[key.resource]
		theirs := theirActions[key]
		name := names[key.resource]

		c := model.Conflict{
			TaskID:       key.task,
			ResourceID:   key.resource,
			ResourceName: name,
		}
		switch {
		case mineA.writes && theirs.writes:
			c.Type = model.ConflictConcurrentWrite
			c.Severity = model.SeverityHigh
			c.Description = fmt.Sprintf("task %s also writes to %s", key.task, name)
		case (mineA.modifies && theirs.uses) || (mineA.uses && theirs.modifies):
			c.Type = model.ConflictConcurrentModify
			c.Severity = model.SeverityMedium
			c.Description = fmt.Sprintf("task %s uses %s while it is being modified", key.task, name)
		default:
			c.Type = model.ConflictPotentialCollision
			c.Severity = model.SeverityLow
			c.Description = fmt.Sprintf("task %s also touches %s", key.task, name)
		}
		conflicts = append(conflicts, c)
	}
	return conflicts
}
