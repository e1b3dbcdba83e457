package inventory

import (
	"context"
	"sort"

	"github.com/hostdb/hostdb/internal/store"
)

// Snapshot is the logical inventory tree: every group with its direct
// hosts and child groups, the synthesized "all" root, the ungrouped
// bucket, and the resolved variable mapping per host.
type Snapshot struct {
	// AllChildren lists the children of the synthesized "all" root: the
	// names of groups without incoming hierarchy edges, plus "ungrouped"
	// when any host has no membership. Sorted by name.
	AllChildren []string

	// Groups holds one entry per user-declared group, sorted by name.
	Groups []GroupEntry

	// Ungrouped lists hosts with no group membership, sorted by hostname.
	Ungrouped []string

	// HostVars maps hostname to its effective variable mapping.
	HostVars map[string]map[string]any
}

// GroupEntry is one group's direct content in the snapshot.
type GroupEntry struct {
	Name     string
	Hosts    []string // direct member hostnames, sorted
	Children []string // direct child group names, sorted
}

// BuildSnapshot walks the membership and hierarchy graphs and produces the
// complete inventory tree. The walk is read-only and runs inside a single
// read transaction, so the snapshot reflects one consistent point in time.
func (e *Engine) BuildSnapshot(ctx context.Context) (*Snapshot, error) {
	var snap *Snapshot
	err := e.st.WithReadTx(ctx, func(tx *store.Tx) error {
		var err error
		snap, err = buildSnapshot(ctx, tx)
		return err
	})
	return snap, wrapStore(err)
}

func buildSnapshot(ctx context.Context, tx *store.Tx) (*Snapshot, error) {
	groups, err := tx.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	hosts, err := tx.ListHosts(ctx)
	if err != nil {
		return nil, err
	}

	nameByID := make(map[int64]string, len(groups))
	builtin := make(map[int64]bool, len(groups))
	for _, g := range groups {
		nameByID[g.ID] = g.Groupname
		builtin[g.ID] = g.Builtin
	}
	hostnameByID := make(map[int64]string, len(hosts))
	for _, h := range hosts {
		hostnameByID[h.ID] = h.Hostname
	}

	snap := &Snapshot{
		HostVars: make(map[string]map[string]any, len(hosts)),
	}

	var roots []string
	for _, g := range groups {
		if g.Builtin {
			continue
		}

		memberIDs, err := tx.ListMembers(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		childIDs, err := tx.ListChildren(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		parentIDs, err := tx.ListParents(ctx, g.ID)
		if err != nil {
			return nil, err
		}

		entry := GroupEntry{
			Name:     g.Groupname,
			Hosts:    []string{},
			Children: []string{},
		}
		for _, id := range memberIDs {
			entry.Hosts = append(entry.Hosts, hostnameByID[id])
		}
		for _, id := range childIDs {
			entry.Children = append(entry.Children, nameByID[id])
		}
		sort.Strings(entry.Hosts)
		sort.Strings(entry.Children)
		snap.Groups = append(snap.Groups, entry)

		// A group counts as a root unless some user-declared group claims
		// it; an explicit edge from the builtin "all" row changes nothing,
		// since every root is rendered under "all" anyway.
		root := true
		for _, p := range parentIDs {
			if !builtin[p] {
				root = false
				break
			}
		}
		if root {
			roots = append(roots, g.Groupname)
		}
	}
	sort.Slice(snap.Groups, func(i, j int) bool { return snap.Groups[i].Name < snap.Groups[j].Name })

	for _, h := range hosts {
		// Only membership in a user-declared group takes a host out of the
		// ungrouped bucket; a direct edge to a builtin root renders nowhere
		// else in the document.
		direct, err := tx.ListGroupsOf(ctx, h.ID)
		if err != nil {
			return nil, err
		}
		grouped := false
		for _, gid := range direct {
			if !builtin[gid] {
				grouped = true
				break
			}
		}
		if !grouped {
			snap.Ungrouped = append(snap.Ungrouped, h.Hostname)
		}

		vars, err := resolveHostVars(ctx, tx, h)
		if err != nil {
			return nil, err
		}
		snap.HostVars[h.Hostname] = vars
	}
	sort.Strings(snap.Ungrouped)

	if len(snap.Ungrouped) > 0 {
		roots = append(roots, store.BuiltinUngrouped)
	}
	sort.Strings(roots)
	snap.AllChildren = roots
	if snap.AllChildren == nil {
		snap.AllChildren = []string{}
	}

	return snap, nil
}

// Document renders the snapshot into the canonical external shape consumed
// by the automation tool:
//
//	{
//	  "_meta": { "hostvars": { "<host>": { ... } } },
//	  "all":   { "children": [ ... ] },
//	  "<group>": { "hosts": [ ... ], "children": [ ... ] },
//	  "ungrouped": { "hosts": [ ... ] }
//	}
//
// Field names and nesting are load-bearing; the downstream tool consumes
// them verbatim.
func (s *Snapshot) Document() map[string]any {
	hostvars := make(map[string]any, len(s.HostVars))
	for host, vars := range s.HostVars {
		hv := make(map[string]any, len(vars))
		for k, v := range vars {
			hv[k] = v
		}
		hostvars[host] = hv
	}

	doc := map[string]any{
		"_meta": map[string]any{"hostvars": hostvars},
		"all":   map[string]any{"children": toAnySlice(s.AllChildren)},
	}

	for _, g := range s.Groups {
		doc[g.Name] = map[string]any{
			"hosts":    toAnySlice(g.Hosts),
			"children": toAnySlice(g.Children),
		}
	}

	if len(s.Ungrouped) > 0 {
		doc[store.BuiltinUngrouped] = map[string]any{
			"hosts": toAnySlice(s.Ungrouped),
		}
	}

	return doc
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
