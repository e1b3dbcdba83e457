// Package store provides SQLite-backed storage for the inventory topology:
// hosts, groups, per-entity variables, host-group associations, the group
// hierarchy edge set, and mutual-exclusion pairs.
//
// The store enforces row-level constraints (unique names, foreign-key
// cascades) and exposes transaction-scoped query helpers so that graph
// invariant checks and the writes they guard run atomically. Graph-level
// invariants (acyclicity, mutual exclusion) live one layer up in the
// inventory package.
//
// All list queries carry an explicit ORDER BY so iteration order never
// depends on SQLite internals.
package store
