package store

import (
	"context"
	"fmt"
)

// ListChildren returns the ids of direct child groups of groupID,
// ordered by child id for deterministic traversal.
func (q *queries) ListChildren(ctx context.Context, groupID int64) ([]int64, error) {
	return q.listIDs(ctx, `
		SELECT child_group_id FROM group_hierarchy
		WHERE parent_group_id = ?
		ORDER BY child_group_id ASC
	`, groupID)
}

// ListParents returns the ids of direct parent groups of groupID.
func (q *queries) ListParents(ctx context.Context, groupID int64) ([]int64, error) {
	return q.listIDs(ctx, `
		SELECT parent_group_id FROM group_hierarchy
		WHERE child_group_id = ?
		ORDER BY parent_group_id ASC
	`, groupID)
}

// ListMembers returns the ids of hosts directly associated with groupID.
func (q *queries) ListMembers(ctx context.Context, groupID int64) ([]int64, error) {
	return q.listIDs(ctx, `
		SELECT host_id FROM host_group_association
		WHERE group_id = ?
		ORDER BY host_id ASC
	`, groupID)
}

// ListGroupsOf returns the ids of groups hostID directly belongs to.
func (q *queries) ListGroupsOf(ctx context.Context, hostID int64) ([]int64, error) {
	return q.listIDs(ctx, `
		SELECT group_id FROM host_group_association
		WHERE host_id = ?
		ORDER BY group_id ASC
	`, hostID)
}

// ListExclusions returns the ids of groups declared mutually exclusive with
// groupID. The pair is stored once in normalized order, so both columns are
// consulted.
func (q *queries) ListExclusions(ctx context.Context, groupID int64) ([]int64, error) {
	return q.listIDs(ctx, `
		SELECT exclusive_group_id FROM mutual_exclusive_groups WHERE group_id = ?
		UNION
		SELECT group_id FROM mutual_exclusive_groups WHERE exclusive_group_id = ?
		ORDER BY 1 ASC
	`, groupID, groupID)
}

// HasMembership reports whether the (host, group) association exists.
func (q *queries) HasMembership(ctx context.Context, hostID, groupID int64) (bool, error) {
	return q.exists(ctx, `
		SELECT COUNT(*) FROM host_group_association
		WHERE host_id = ? AND group_id = ?
	`, hostID, groupID)
}

// HasHierarchyEdge reports whether the directed (parent, child) edge exists.
func (q *queries) HasHierarchyEdge(ctx context.Context, parentID, childID int64) (bool, error) {
	return q.exists(ctx, `
		SELECT COUNT(*) FROM group_hierarchy
		WHERE parent_group_id = ? AND child_group_id = ?
	`, parentID, childID)
}

// InsertMembership adds a (host, group) association.
// ON CONFLICT DO NOTHING makes duplicate insertion a no-op.
func (q *queries) InsertMembership(ctx context.Context, hostID, groupID int64) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO host_group_association (host_id, group_id)
		VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, hostID, groupID)
	if err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// InsertHierarchyEdge adds a directed (parent, child) hierarchy edge.
// The acyclicity check belongs to the caller and must run in the same
// transaction as this insert.
func (q *queries) InsertHierarchyEdge(ctx context.Context, parentID, childID int64) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO group_hierarchy (parent_group_id, child_group_id)
		VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, parentID, childID)
	if err != nil {
		return fmt.Errorf("insert hierarchy edge: %w", err)
	}
	return nil
}

// InsertExclusion records a mutual-exclusion pair. The pair is unordered;
// it is stored once with the smaller id first.
func (q *queries) InsertExclusion(ctx context.Context, a, b int64) error {
	if b < a {
		a, b = b, a
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO mutual_exclusive_groups (group_id, exclusive_group_id)
		VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, a, b)
	if err != nil {
		return fmt.Errorf("insert exclusion: %w", err)
	}
	return nil
}

// CountHierarchyEdges returns the total number of hierarchy edges.
// Used by tests to verify a rejected mutation changed nothing.
func (q *queries) CountHierarchyEdges(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM group_hierarchy`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count hierarchy edges: %w", err)
	}
	return n, nil
}

// CountMemberships returns the number of association rows for a host.
func (q *queries) CountMemberships(ctx context.Context, hostID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM host_group_association WHERE host_id = ?
	`, hostID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count memberships: %w", err)
	}
	return n, nil
}

func (q *queries) listIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}

	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

func (q *queries) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int
	if err := q.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	return count > 0, nil
}
