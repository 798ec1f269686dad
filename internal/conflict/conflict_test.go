package conflict

import (
	"testing"

	"github.com/quarryhill/taskgraph/internal/model"
)

func usage(taskID, resourceID string, action model.ResourceAction) Usage {
	return Usage{TaskID: taskID, ResourceID: resourceID, ResourceName: resourceID, Action: action}
}

func TestDetectConcurrentWrite(t *testing.T) {
	mine := []Usage{usage("t1", "r1", model.ActionModifies)}
	others := []Usage{usage("t2", "r1", model.ActionModifies)}

	got := Detect("t1", mine, others)
	if len(got) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(got))
	}
	c := got[0]
	if c.Type != model.ConflictConcurrentWrite || c.Severity != model.SeverityHigh {
		t.Errorf("got type=%q severity=%q, want concurrent_write/high", c.Type, c.Severity)
	}
	if c.TaskID != "t2" {
		t.Errorf("got task_id=%q, want the conflicting task t2", c.TaskID)
	}

	// Symmetric: the same pairing from t2's perspective classifies identically
	// and names t1 as the conflicting task.
	rev := Detect("t2", others, mine)
	if len(rev) != 1 || rev[0].Type != model.ConflictConcurrentWrite || rev[0].Severity != model.SeverityHigh {
		t.Errorf("reverse perspective: got %+v", rev)
	}
	if len(rev) == 1 && rev[0].TaskID != "t1" {
		t.Errorf("reverse perspective: got task_id=%q, want t1", rev[0].TaskID)
	}
}

func TestDetectCreatesCountsAsWrite(t *testing.T) {
	mine := []Usage{usage("t1", "r1", model.ActionCreates)}
	others := []Usage{usage("t2", "r1", model.ActionModifies)}

	got := Detect("t1", mine, others)
	if len(got) != 1 || got[0].Type != model.ConflictConcurrentWrite {
		t.Fatalf("creates+modifies should be concurrent_write, got %+v", got)
	}
}

func TestDetectConcurrentModify(t *testing.T) {
	mine := []Usage{usage("t1", "r1", model.ActionUses)}
	others := []Usage{usage("t2", "r1", model.ActionModifies)}

	got := Detect("t1", mine, others)
	if len(got) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(got))
	}
	if got[0].Type != model.ConflictConcurrentModify || got[0].Severity != model.SeverityMedium {
		t.Errorf("got type=%q severity=%q, want concurrent_modify/medium", got[0].Type, got[0].Severity)
	}
}

func TestDetectPotentialCollision(t *testing.T) {
	mine := []Usage{usage("t1", "r1", model.ActionUses)}
	others := []Usage{usage("t2", "r1", model.ActionUses)}

	got := Detect("t1", mine, others)
	if len(got) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(got))
	}
	if got[0].Type != model.ConflictPotentialCollision || got[0].Severity != model.SeverityLow {
		t.Errorf("got type=%q severity=%q, want potential_collision/low", got[0].Type, got[0].Severity)
	}
}

func TestDetectWorstPairingWins(t *testing.T) {
	// The target both uses and modifies r1; the other side writes. The
	// high-severity pairing dominates the finding for that pair.
	mine := []Usage{
		usage("t1", "r1", model.ActionUses),
		usage("t1", "r1", model.ActionModifies),
	}
	others := []Usage{usage("t2", "r1", model.ActionCreates)}

	got := Detect("t1", mine, others)
	if len(got) != 1 {
		t.Fatalf("expected 1 conflict per (task, resource) pair, got %d", len(got))
	}
	if got[0].Type != model.ConflictConcurrentWrite {
		t.Errorf("got type=%q, want concurrent_write", got[0].Type)
	}
}

func TestDetectIgnoresUnsharedAndSelf(t *testing.T) {
	mine := []Usage{usage("t1", "r1", model.ActionModifies)}
	others := []Usage{
		usage("t2", "r2", model.ActionModifies), // different resource
		usage("t1", "r1", model.ActionModifies), // self
	}

	if got := Detect("t1", mine, others); len(got) != 0 {
		t.Errorf("expected no conflicts, got %+v", got)
	}
}

func TestDetectOnePerTaskResourcePair(t *testing.T) {
	mine := []Usage{usage("t1", "r1", model.ActionModifies)}
	others := []Usage{
		usage("t2", "r1", model.ActionUses),
		usage("t2", "r1", model.ActionModifies),
		usage("t3", "r1", model.ActionUses),
	}

	got := Detect("t1", mine, others)
	if len(got) != 2 {
		t.Fatalf("expected 2 conflicts (t2, t3), got %d: %+v", len(got), got)
	}
	if got[0].TaskID != "t2" || got[0].Type != model.ConflictConcurrentWrite {
		t.Errorf("t2 pairing: got task_id=%q type=%q, want t2/concurrent_write", got[0].TaskID, got[0].Type)
	}
	if got[1].TaskID != "t3" || got[1].Type != model.ConflictConcurrentModify {
		t.Errorf("t3 pairing: got task_id=%q type=%q, want t3/concurrent_modify", got[1].TaskID, got[1].Type)
	}
}
