package inventory

import (
	"context"
	"sort"

	"github.com/hostdb/hostdb/internal/store"
)

// Scope is one named layer of variables in a merge sequence.
type Scope struct {
	Name string
	Vars map[string]any
}

// mergeScopes flattens an ordered scope sequence with a last-wins rule:
// a later scope overwrites any same-named value from an earlier one. The
// caller fixes precedence entirely through ordering, which keeps tie-break
// behavior explicit and testable instead of an accident of map iteration.
func mergeScopes(scopes []Scope) map[string]any {
	merged := make(map[string]any)
	for _, s := range scopes {
		for k, v := range s.Vars {
			merged[k] = v
		}
	}
	return merged
}

// ResolveVars computes the effective variable mapping for one host.
//
// Group scopes apply from farthest ancestor to nearest group (topological
// order over the host's group closure, ascending group id on ties), each
// later scope overwriting earlier same-named values. The host's own
// variables apply last and always win.
//
// Identity variables are injected beneath stored ones: group_id at each
// group scope, ansible_host (from the stored ip literal) and host_id at
// host scope.
func (e *Engine) ResolveVars(ctx context.Context, hostname string) (map[string]any, error) {
	var vars map[string]any
	err := e.st.WithReadTx(ctx, func(tx *store.Tx) error {
		host, err := tx.GetHostByName(ctx, hostname)
		if err != nil {
			return err
		}
		vars, err = resolveHostVars(ctx, tx, host)
		return err
	})
	return vars, wrapStore(err)
}

// resolveHostVars is the transaction-scoped resolver core, shared with the
// snapshot builder so a whole snapshot resolves inside one read transaction.
func resolveHostVars(ctx context.Context, tx *store.Tx, host store.Host) (map[string]any, error) {
	direct, err := tx.ListGroupsOf(ctx, host.ID)
	if err != nil {
		return nil, err
	}

	closure, err := reachableAll(ctx, tx, direct, up)
	if err != nil {
		return nil, err
	}

	order, err := topoOrder(ctx, tx, closure)
	if err != nil {
		return nil, err
	}

	scopes := make([]Scope, 0, len(order)+1)
	for _, gid := range order {
		g, err := tx.GetGroupByID(ctx, gid)
		if err != nil {
			return nil, err
		}
		stored, err := tx.ListVariablesFor(ctx, store.EntityGroup, g.Groupname)
		if err != nil {
			return nil, err
		}

		vars := map[string]any{"group_id": g.ID}
		for k, v := range stored {
			vars[k] = v
		}
		scopes = append(scopes, Scope{Name: g.Groupname, Vars: vars})
	}

	stored, err := tx.ListVariablesFor(ctx, store.EntityHost, host.Hostname)
	if err != nil {
		return nil, err
	}
	hostVars := map[string]any{"host_id": host.ID}
	if host.IP != "" {
		hostVars["ansible_host"] = host.IP
	}
	for k, v := range stored {
		hostVars[k] = v
	}
	scopes = append(scopes, Scope{Name: host.Hostname, Vars: hostVars})

	return mergeScopes(scopes), nil
}

// topoOrder sorts the group closure so every parent precedes its children
// (farthest ancestor first). Kahn's algorithm over the induced subgraph,
// iterative, with the ready set kept in ascending id order so groups at
// equal depth merge deterministically.
func topoOrder(ctx context.Context, tx *store.Tx, closure map[int64]bool) ([]int64, error) {
	indegree := make(map[int64]int, len(closure))
	children := make(map[int64][]int64, len(closure))

	for _, gid := range sortedIDs(closure) {
		parents, err := tx.ListParents(ctx, gid)
		if err != nil {
			return nil, err
		}
		for _, p := range parents {
			if closure[p] {
				indegree[gid]++
				children[p] = append(children[p], gid)
			}
		}
	}

	var ready []int64
	for _, gid := range sortedIDs(closure) {
		if indegree[gid] == 0 {
			ready = append(ready, gid)
		}
	}

	order := make([]int64, 0, len(closure))
	for len(ready) > 0 {
		gid := ready[0]
		ready = ready[1:]
		order = append(order, gid)

		for _, c := range children[gid] {
			indegree[c]--
			if indegree[c] == 0 {
				ready = append(ready, c)
			}
		}
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
	}

	return order, nil
}
