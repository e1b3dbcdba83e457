package inventory

import (
	"context"
	"fmt"
	"sort"
)

// adjacency is the slice of the store the traversals need. Both *store.Store
// and *store.Tx satisfy it, so the same search runs standalone or inside a
// mutation's transaction.
type adjacency interface {
	ListChildren(ctx context.Context, groupID int64) ([]int64, error)
	ListParents(ctx context.Context, groupID int64) ([]int64, error)
	ListExclusions(ctx context.Context, groupID int64) ([]int64, error)
}

// direction selects which way a reachability search walks hierarchy edges.
type direction int

const (
	// down follows parent->child edges: descendants of the start group.
	// Used by the cycle check (is the prospective parent below the child?).
	down direction = iota + 1

	// up follows child->parent edges: ancestors of the start group.
	// Membership in a group implies membership in its ancestors, so the
	// exclusion check closes membership sets upward.
	up
)

// reachable returns the set of group ids reachable from start, including
// start itself, following hierarchy edges in the given direction.
//
// The search is an iterative breadth-first walk over an explicit frontier
// with a visited set: each node is expanded at most once, so it terminates
// in O(V+E) regardless of how edges share ancestors.
func reachable(ctx context.Context, adj adjacency, start int64, dir direction) (map[int64]bool, error) {
	visited := map[int64]bool{start: true}
	frontier := []int64{start}

	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]

		var next []int64
		var err error
		switch dir {
		case down:
			next, err = adj.ListChildren(ctx, id)
		case up:
			next, err = adj.ListParents(ctx, id)
		default:
			return nil, fmt.Errorf("unknown traversal direction %d", dir)
		}
		if err != nil {
			return nil, err
		}

		for _, n := range next {
			if !visited[n] {
				visited[n] = true
				frontier = append(frontier, n)
			}
		}
	}

	return visited, nil
}

// reachableAll unions the upward closures of several start groups.
// Used to expand a host's direct memberships into its full inherited
// membership set.
func reachableAll(ctx context.Context, adj adjacency, starts []int64, dir direction) (map[int64]bool, error) {
	all := make(map[int64]bool)
	for _, start := range starts {
		set, err := reachable(ctx, adj, start, dir)
		if err != nil {
			return nil, err
		}
		for id := range set {
			all[id] = true
		}
	}
	return all, nil
}

// findExclusionConflict cross-checks two membership sets against the
// declared exclusion pairs. It returns the lowest-id conflicting (a, b)
// pair with a drawn from setA, or (0, 0, false) when the sets are
// compatible. Scanning in ascending id order keeps the reported pair
// deterministic.
func findExclusionConflict(ctx context.Context, adj adjacency, setA, setB map[int64]bool) (int64, int64, bool, error) {
	for _, a := range sortedIDs(setA) {
		excluded, err := adj.ListExclusions(ctx, a)
		if err != nil {
			return 0, 0, false, err
		}
		for _, b := range excluded {
			if setB[b] {
				return a, b, true, nil
			}
		}
	}
	return 0, 0, false, nil
}

// unionSets merges two id sets into a new set.
func unionSets(a, b map[int64]bool) map[int64]bool {
	out := make(map[int64]bool, len(a)+len(b))
	for id := range a {
		out[id] = true
	}
	for id := range b {
		out[id] = true
	}
	return out
}

// sortedIDs returns the keys of set in ascending order.
func sortedIDs(set map[int64]bool) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
