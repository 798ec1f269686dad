package graph

import (
	"reflect"
	"testing"
)

func positions(order []string) map[string]int {
	m := make(map[string]int, len(order))
	for i, id := range order {
		m[id] = i + 1
	}
	return m
}

func TestOrderLinearChain(t *testing.T) {
	res := Order([]Node{
		{ID: "c", Deps: []string{"b"}},
		{ID: "b", Deps: []string{"a"}},
		{ID: "a"},
	})
	if res.Cycle != nil {
		t.Fatalf("unexpected cycle: %v", res.Cycle)
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(res.Order, want) {
		t.Errorf("order = %v, want %v", res.Order, want)
	}
}

func TestOrderStableTieBreak(t *testing.T) {
	// t2 and t3 both depend on t1 and become ready simultaneously; they must
	// come out in input order.
	res := Order([]Node{
		{ID: "t1"},
		{ID: "t2", Deps: []string{"t1"}},
		{ID: "t3", Deps: []string{"t1"}},
	})
	want := []string{"t1", "t2", "t3"}
	if !reflect.DeepEqual(res.Order, want) {
		t.Errorf("order = %v, want %v", res.Order, want)
	}
}

func TestOrderTopologicalValidity(t *testing.T) {
	nodes := []Node{
		{ID: "e", Deps: []string{"c", "d"}},
		{ID: "d", Deps: []string{"b"}},
		{ID: "c", Deps: []string{"a", "b"}},
		{ID: "b", Deps: []string{"a"}},
		{ID: "a"},
	}
	res := Order(nodes)
	if res.Cycle != nil {
		t.Fatalf("unexpected cycle: %v", res.Cycle)
	}
	if len(res.Order) != len(nodes) {
		t.Fatalf("ordered %d of %d nodes", len(res.Order), len(nodes))
	}
	pos := positions(res.Order)
	for _, n := range nodes {
		for _, d := range n.Deps {
			if pos[n.ID] <= pos[d] {
				t.Errorf("%s at %d not after its dependency %s at %d", n.ID, pos[n.ID], d, pos[d])
			}
		}
	}
}

func TestOrderIgnoresOutsideEdges(t *testing.T) {
	// Dependencies on ids outside the subset are skipped, not errors.
	res := Order([]Node{
		{ID: "a", Deps: []string{"external"}},
		{ID: "b", Deps: []string{"a"}},
	})
	want := []string{"a", "b"}
	if !reflect.DeepEqual(res.Order, want) {
		t.Errorf("order = %v, want %v", res.Order, want)
	}
}

func TestOrderDuplicateEdgesCollapse(t *testing.T) {
	res := Order([]Node{
		{ID: "a"},
		{ID: "b", Deps: []string{"a", "a", "a"}},
	})
	want := []string{"a", "b"}
	if !reflect.DeepEqual(res.Order, want) {
		t.Errorf("order = %v, want %v", res.Order, want)
	}
}

func TestOrderReportsCycle(t *testing.T) {
	// A depends on B, B on C, C on A.
	res := Order([]Node{
		{ID: "A", Deps: []string{"B"}},
		{ID: "B", Deps: []string{"C"}},
		{ID: "C", Deps: []string{"A"}},
	})
	if res.Order != nil {
		t.Fatalf("expected cycle, got order %v", res.Order)
	}
	if len(res.Cycle) != 3 {
		t.Fatalf("cycle = %v, want 3 ids", res.Cycle)
	}
	members := map[string]bool{}
	for _, id := range res.Cycle {
		members[id] = true
	}
	for _, id := range []string{"A", "B", "C"} {
		if !members[id] {
			t.Errorf("cycle %v missing %s", res.Cycle, id)
		}
	}
	// Cyclic order: each entry depends on the next (wrapping around).
	next := map[string]string{"A": "B", "B": "C", "C": "A"}
	for i, id := range res.Cycle {
		if res.Cycle[(i+1)%len(res.Cycle)] != next[id] {
			t.Errorf("cycle %v is not in dependency order", res.Cycle)
			break
		}
	}
}

func TestOrderCycleAmongRemainderOnly(t *testing.T) {
	// The acyclic prefix orders fine; the cycle is reported from the rest.
	res := Order([]Node{
		{ID: "ok"},
		{ID: "x", Deps: []string{"y"}},
		{ID: "y", Deps: []string{"x"}},
	})
	if res.Cycle == nil {
		t.Fatalf("expected cycle, got order %v", res.Order)
	}
	if len(res.Cycle) != 2 {
		t.Errorf("cycle = %v, want 2 ids", res.Cycle)
	}
	for _, id := range res.Cycle {
		if id == "ok" {
			t.Errorf("cycle %v must not contain the ordered node", res.Cycle)
		}
	}
}

func TestOrderEmpty(t *testing.T) {
	res := Order(nil)
	if res.Cycle != nil || len(res.Order) != 0 {
		t.Errorf("empty input: got %+v", res)
	}
}
