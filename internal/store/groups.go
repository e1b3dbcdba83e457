package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateGroup inserts a new user group. Returns ErrDuplicate if the name is
// already taken (including by a builtin group).
func (q *queries) CreateGroup(ctx context.Context, groupname string, max int64) (Group, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO groups (groupname, max, builtin) VALUES (?, ?, 0)
	`, groupname, max)
	if err != nil {
		if isUniqueViolation(err) {
			return Group{}, fmt.Errorf("group %q: %w", groupname, ErrDuplicate)
		}
		return Group{}, fmt.Errorf("create group: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Group{}, fmt.Errorf("create group: last insert id: %w", err)
	}
	return Group{ID: id, Groupname: groupname, Max: max}, nil
}

// GetOrCreateGroup returns the group with the given name, creating it with
// the supplied capacity on first reference.
func (q *queries) GetOrCreateGroup(ctx context.Context, groupname string, max int64) (Group, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO groups (groupname, max, builtin) VALUES (?, ?, 0)
		ON CONFLICT(groupname) DO NOTHING
	`, groupname, max)
	if err != nil {
		return Group{}, fmt.Errorf("get or create group: %w", err)
	}
	return q.GetGroupByName(ctx, groupname)
}

// GetGroupByName retrieves a group row. Returns ErrNotFound if absent.
func (q *queries) GetGroupByName(ctx context.Context, groupname string) (Group, error) {
	var g Group
	err := q.db.QueryRowContext(ctx, `
		SELECT id, groupname, max, builtin FROM groups WHERE groupname = ?
	`, groupname).Scan(&g.ID, &g.Groupname, &g.Max, &g.Builtin)
	if errors.Is(err, sql.ErrNoRows) {
		return Group{}, fmt.Errorf("group %q: %w", groupname, ErrNotFound)
	}
	if err != nil {
		return Group{}, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

// GetGroupByID retrieves a group row by numeric id.
func (q *queries) GetGroupByID(ctx context.Context, id int64) (Group, error) {
	var g Group
	err := q.db.QueryRowContext(ctx, `
		SELECT id, groupname, max, builtin FROM groups WHERE id = ?
	`, id).Scan(&g.ID, &g.Groupname, &g.Max, &g.Builtin)
	if errors.Is(err, sql.ErrNoRows) {
		return Group{}, fmt.Errorf("group id %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Group{}, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

// ListGroups returns all groups (builtin included) ordered by id.
func (q *queries) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, groupname, max, builtin FROM groups ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Groupname, &g.Max, &g.Builtin); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	if groups == nil {
		groups = []Group{}
	}
	return groups, nil
}

// DeleteGroup removes a group row. Hierarchy edges, memberships and
// exclusion pairs cascade through foreign keys; the group's variables are
// removed alongside. Run inside a transaction to keep the cascade atomic.
func (q *queries) DeleteGroup(ctx context.Context, groupname string) error {
	g, err := q.GetGroupByName(ctx, groupname)
	if err != nil {
		return err
	}

	if _, err := q.db.ExecContext(ctx, `
		DELETE FROM variables WHERE entity_type = ? AND entity_name = ?
	`, EntityGroup, groupname); err != nil {
		return fmt.Errorf("delete group variables: %w", err)
	}

	if _, err := q.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, g.ID); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}
