// Package inventory implements the graph-structured inventory engine.
//
// The engine maintains two edge sets over the store: host->group membership
// edges and parent->child group hierarchy edges. The hierarchy must remain a
// directed acyclic graph at all times; every mutation validates the DAG and
// mutual-exclusion invariants before writing, inside the same transaction as
// the write, so no concurrent mutation can slip between check and insert.
//
// ARCHITECTURE:
//
// Check-then-write, single transaction:
// AddToGroup runs its reachability search and exclusion cross-check against
// the transaction's view of the edge set and inserts in that same
// transaction. A rejected mutation rolls back and leaves the store
// byte-identical to its pre-call state.
//
// No cached graph state:
// Every operation re-reads the adjacency it needs from the store. This
// trades redundant reads for correctness under external writers - there is
// no cache to invalidate and no background work.
//
// Deterministic reads:
// ResolveVars and BuildSnapshot run inside one read transaction and order
// every merge and listing explicitly (topological order with ascending-id
// tie-break, sorted names), so equal stores produce byte-equal snapshots.
package inventory
