package inventory

import (
	"context"

	"github.com/hostdb/hostdb/internal/store"
)

// AddToGroup validates and applies one edge: a membership edge when ref is
// a host, a hierarchy edge when ref is a group.
//
// The invariant checks and the insert share a single transaction, so no
// concurrent writer can interleave an edge between the reachability search
// and the write. A rejected call makes no change.
//
// Rejections:
//   - SELF_REFERENCE: ref is the parent group itself
//   - NOT_FOUND: either endpoint does not exist
//   - CYCLE_DETECTED: the hierarchy edge would close a cycle
//   - EXCLUSION_CONFLICT: the edge would join mutually exclusive groups
//
// Re-adding an existing membership or hierarchy edge is a no-op success.
func (e *Engine) AddToGroup(ctx context.Context, ref Ref, parentGroup string) error {
	if ref.Kind == RefGroup && ref.Name == parentGroup {
		return NewSelfReferenceError(ref.Name)
	}

	return wrapStore(e.st.WithTx(ctx, func(tx *store.Tx) error {
		parent, err := tx.GetGroupByName(ctx, parentGroup)
		if err != nil {
			return err
		}

		switch ref.Kind {
		case RefHost:
			return e.addHostEdge(ctx, tx, ref.Name, parent)
		case RefGroup:
			return e.addGroupEdge(ctx, tx, ref.Name, parent)
		default:
			return &Error{Code: CodeNotFound, Message: "unknown reference kind", Entity: ref.String()}
		}
	}))
}

// addHostEdge inserts a (host, group) membership edge after the exclusion
// cross-check. Membership in parent implies membership in all of parent's
// ancestors, so the check closes both sides upward before comparing.
func (e *Engine) addHostEdge(ctx context.Context, tx *store.Tx, hostname string, parent store.Group) error {
	host, err := tx.GetHostByName(ctx, hostname)
	if err != nil {
		return err
	}

	// Idempotent: an existing membership is a success, not a conflict.
	exists, err := tx.HasMembership(ctx, host.ID, parent.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	gained, err := reachable(ctx, tx, parent.ID, up)
	if err != nil {
		return err
	}

	direct, err := tx.ListGroupsOf(ctx, host.ID)
	if err != nil {
		return err
	}
	current, err := reachableAll(ctx, tx, direct, up)
	if err != nil {
		return err
	}

	// After the insert the host is a member of every group in the union of
	// both closures, so any declared pair inside the union is a conflict -
	// including pairs entirely within the gained set, which arise when the
	// parent sits under two groups declared exclusive while still empty.
	combined := unionSets(gained, current)
	if err := e.rejectExclusion(ctx, tx, combined, combined); err != nil {
		return err
	}

	return tx.InsertMembership(ctx, host.ID, parent.ID)
}

// addGroupEdge inserts a (parent, child) hierarchy edge after the cycle
// check and the exclusion cross-check.
func (e *Engine) addGroupEdge(ctx context.Context, tx *store.Tx, childName string, parent store.Group) error {
	child, err := tx.GetGroupByName(ctx, childName)
	if err != nil {
		return err
	}

	exists, err := tx.HasHierarchyEdge(ctx, parent.ID, child.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	// Cycle check: walk forward (descendants) from the child. If the
	// prospective parent is already below the child, the new edge would
	// close a cycle.
	below, err := reachable(ctx, tx, child.ID, down)
	if err != nil {
		return err
	}
	if below[parent.ID] {
		return NewCycleError(parent.Groupname, child.Groupname)
	}

	// Every host anywhere in the child's subtree gains inherited membership
	// in the parent's ancestor closure. The existing membership of those
	// hosts spans the upward closure of the whole subtree, not just of the
	// child, so that is the set to cross-check.
	childSide, err := reachableAll(ctx, tx, sortedIDs(below), up)
	if err != nil {
		return err
	}
	parentSide, err := reachable(ctx, tx, parent.ID, up)
	if err != nil {
		return err
	}
	if err := e.rejectExclusion(ctx, tx, childSide, parentSide); err != nil {
		return err
	}

	// A declared pair entirely inside the gained ancestor set only matters
	// once a host actually inherits it.
	members, err := e.subtreeMembers(ctx, tx, below)
	if err != nil {
		return err
	}
	if len(members) > 0 {
		if err := e.rejectExclusion(ctx, tx, parentSide, parentSide); err != nil {
			return err
		}
	}

	return tx.InsertHierarchyEdge(ctx, parent.ID, child.ID)
}

// AddExclusion declares two groups mutually exclusive. The declaration is
// rejected with EXCLUSION_CONFLICT if a host is already (directly or
// transitively) a member of both, and with SELF_REFERENCE for a == b.
func (e *Engine) AddExclusion(ctx context.Context, a, b string) error {
	if a == b {
		return NewSelfReferenceError(a)
	}

	return wrapStore(e.st.WithTx(ctx, func(tx *store.Tx) error {
		ga, err := tx.GetGroupByName(ctx, a)
		if err != nil {
			return err
		}
		gb, err := tx.GetGroupByName(ctx, b)
		if err != nil {
			return err
		}

		shared, err := e.findSharedMember(ctx, tx, ga.ID, gb.ID)
		if err != nil {
			return err
		}
		if shared {
			return NewExclusionError(ga.Groupname, gb.Groupname)
		}

		return tx.InsertExclusion(ctx, ga.ID, gb.ID)
	}))
}

// findSharedMember reports whether any host is a direct or inherited member
// of both groups. A host belongs to a group's subtree when one of its
// direct groups sits at or below that group, so the check gathers direct
// members across each group's descendant closure and intersects.
func (e *Engine) findSharedMember(ctx context.Context, tx *store.Tx, a, b int64) (bool, error) {
	belowA, err := reachable(ctx, tx, a, down)
	if err != nil {
		return false, err
	}
	membersA, err := e.subtreeMembers(ctx, tx, belowA)
	if err != nil {
		return false, err
	}
	belowB, err := reachable(ctx, tx, b, down)
	if err != nil {
		return false, err
	}
	membersB, err := e.subtreeMembers(ctx, tx, belowB)
	if err != nil {
		return false, err
	}

	for id := range membersA {
		if membersB[id] {
			return true, nil
		}
	}
	return false, nil
}

// subtreeMembers returns the host ids with membership anywhere in the given
// descendant closure.
func (e *Engine) subtreeMembers(ctx context.Context, tx *store.Tx, groups map[int64]bool) (map[int64]bool, error) {
	members := make(map[int64]bool)
	for _, g := range sortedIDs(groups) {
		hosts, err := tx.ListMembers(ctx, g)
		if err != nil {
			return nil, err
		}
		for _, h := range hosts {
			members[h] = true
		}
	}
	return members, nil
}

// rejectExclusion maps a conflicting pair to an EXCLUSION_CONFLICT error
// carrying both group names.
func (e *Engine) rejectExclusion(ctx context.Context, tx *store.Tx, setA, setB map[int64]bool) error {
	a, b, conflict, err := findExclusionConflict(ctx, tx, setA, setB)
	if err != nil {
		return err
	}
	if !conflict {
		return nil
	}

	ga, err := tx.GetGroupByID(ctx, a)
	if err != nil {
		return err
	}
	gb, err := tx.GetGroupByID(ctx, b)
	if err != nil {
		return err
	}
	return NewExclusionError(ga.Groupname, gb.Groupname)
}
