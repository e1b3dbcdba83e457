package inventory

import (
	"context"

	"github.com/hostdb/hostdb/internal/store"
)

// Engine exposes the public inventory operations over a store handle.
//
// The engine holds no graph state of its own - every call re-reads the
// adjacency it needs inside its own transaction, so correctness never
// depends on cache invalidation timing.
type Engine struct {
	st *store.Store
}

// New creates an engine over an open store.
func New(st *store.Store) *Engine {
	return &Engine{st: st}
}

// CreateHost registers a new host. The ip literal is optional.
// Fails with DUPLICATE_NAME if the hostname is taken.
func (e *Engine) CreateHost(ctx context.Context, hostname, ip string) (store.Host, error) {
	h, err := e.st.CreateHost(ctx, hostname, ip)
	return h, wrapStore(err)
}

// GetOrCreateHost returns the named host, creating it on first reference.
func (e *Engine) GetOrCreateHost(ctx context.Context, hostname, ip string) (store.Host, error) {
	h, err := e.st.GetOrCreateHost(ctx, hostname, ip)
	return h, wrapStore(err)
}

// CreateGroup registers a new group with a capacity hint (-1 = unbounded).
func (e *Engine) CreateGroup(ctx context.Context, groupname string, max int64) (store.Group, error) {
	g, err := e.st.CreateGroup(ctx, groupname, max)
	return g, wrapStore(err)
}

// GetOrCreateGroup returns the named group, creating it on first reference.
func (e *Engine) GetOrCreateGroup(ctx context.Context, groupname string, max int64) (store.Group, error) {
	g, err := e.st.GetOrCreateGroup(ctx, groupname, max)
	return g, wrapStore(err)
}

// ListHosts returns all registered hosts ordered by id.
func (e *Engine) ListHosts(ctx context.Context) ([]store.Host, error) {
	hosts, err := e.st.ListHosts(ctx)
	return hosts, wrapStore(err)
}

// ListGroups returns all groups ordered by id, builtin roots included.
func (e *Engine) ListGroups(ctx context.Context) ([]store.Group, error) {
	groups, err := e.st.ListGroups(ctx)
	return groups, wrapStore(err)
}

// SetVariable upserts a variable on an existing host or group.
// Fails with NOT_FOUND if the entity has not been created.
func (e *Engine) SetVariable(ctx context.Context, entityType, entityName, name string, value any) error {
	return wrapStore(e.st.WithTx(ctx, func(tx *store.Tx) error {
		if err := e.checkEntity(ctx, tx, entityType, entityName); err != nil {
			return err
		}
		return tx.SetVariable(ctx, entityType, entityName, name, value)
	}))
}

// RemoveVariable deletes a variable binding from a host or group.
func (e *Engine) RemoveVariable(ctx context.Context, entityType, entityName, name string) error {
	return wrapStore(e.st.RemoveVariable(ctx, entityType, entityName, name))
}

// DeleteHost removes a host and, atomically, every row referencing it:
// memberships and variables.
func (e *Engine) DeleteHost(ctx context.Context, hostname string) error {
	return wrapStore(e.st.WithTx(ctx, func(tx *store.Tx) error {
		return tx.DeleteHost(ctx, hostname)
	}))
}

// DeleteGroup removes a group and, atomically, every row referencing it:
// hierarchy edges, memberships, exclusion pairs, and variables. The builtin
// roots created at store initialization cannot be deleted.
func (e *Engine) DeleteGroup(ctx context.Context, groupname string) error {
	return wrapStore(e.st.WithTx(ctx, func(tx *store.Tx) error {
		g, err := tx.GetGroupByName(ctx, groupname)
		if err != nil {
			return err
		}
		if g.Builtin {
			return &Error{
				Code:    CodeBuiltinProtected,
				Message: "builtin group cannot be deleted",
				Entity:  g.Groupname,
			}
		}
		return tx.DeleteGroup(ctx, groupname)
	}))
}

func (e *Engine) checkEntity(ctx context.Context, tx *store.Tx, entityType, entityName string) error {
	switch entityType {
	case store.EntityHost:
		_, err := tx.GetHostByName(ctx, entityName)
		return err
	case store.EntityGroup:
		_, err := tx.GetGroupByName(ctx, entityName)
		return err
	default:
		return &Error{Code: CodeNotFound, Message: "unknown entity type", Entity: entityType}
	}
}
