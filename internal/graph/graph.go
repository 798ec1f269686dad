// Package graph computes deterministic execution orders over task
// dependency subsets and reports the blocking cycle when none exists.
package graph

// Node is one task in the ordering request: its id and the ids of the tasks
// it depends on. Dependencies pointing outside the requested subset are
// ignored, not an error.
type Node struct {
	ID   string
	Deps []string
}

// Result is the outcome of Order: either a total order of ids (positions
// are implied by slice index, 1-based) or the cycle path preventing one.
// Exactly one of Order or Cycle is non-nil.
type Result struct {
	Order []string
	Cycle []string
}

// Order runs Kahn's algorithm over the subset. Ties among simultaneously
// ready nodes are broken by stable input order. When a cycle blocks the
// ordering, the first closed path found by depth-first search over the
// unordered remainder is returned.
func Order(nodes []Node) Result {
	inSubset := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		inSubset[n.ID] = true
	}

	// In-degree counts and dependency -> dependents adjacency, restricted to
	// edges with both endpoints inside the subset. Duplicate declarations of
	// the same edge collapse to one.
	indegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))
	deps := make(map[string][]string, len(nodes))
	seen := make(map[[2]string]bool)
	for _, n := range nodes {
		indegree[n.ID] += 0
		for _, d := range n.Deps {
			if !inSubset[d] || d == n.ID {
				continue
			}
			key := [2]string{n.ID, d}
			if seen[key] {
				continue
			}
			seen[key] = true
			indegree[n.ID]++
			dependents[d] = append(dependents[d], n.ID)
			deps[n.ID] = append(deps[n.ID], d)
		}
	}

	// Seed the queue with zero in-degree nodes in input order; the FIFO keeps
	// the tie-break stable thereafter.
	queue := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if indegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	order := make([]string, 0, len(nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) == len(nodes) {
		return Result{Order: order}
	}

	// A cycle exists among the unordered remainder.
	ordered := make(map[string]bool, len(order))
	for _, id := range order {
		ordered[id] = true
	}
	return Result{Cycle: findCycle(nodes, deps, ordered)}
}

// findCycle runs a depth-first search over the unordered nodes following
// dependency edges, returning the first closed path found via the
// recursion-stack membership check. Not necessarily the shortest cycle.
func findCycle(nodes []Node, deps map[string][]string, ordered map[string]bool) []string {
	const (
		white = iota // unvisited
		gray         // on the recursion stack
		black        // fully explored
	)
	color := make(map[string]int, len(nodes))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		color[id] = gray
		stack = append(stack, id)
		for _, d := range deps[id] {
			if ordered[d] {
				continue
			}
			switch color[d] {
			case white:
				if cycle := visit(d); cycle != nil {
					return cycle
				}
			case gray:
				// Closed path: slice the stack from the first occurrence of d.
				for i, s := range stack {
					if s == d {
						return append([]string(nil), stack[i:]...)
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	for _, n := range nodes {
		if ordered[n.ID] || color[n.ID] != white {
			continue
		}
		if cycle := visit(n.ID); cycle != nil {
			return cycle
		}
	}
	return nil
}
