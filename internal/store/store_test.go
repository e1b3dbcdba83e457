package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"hosts", "groups", "host_group_association", "group_hierarchy", "mutual_exclusive_groups", "variables"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_SeedsBuiltinGroups(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{BuiltinAll, BuiltinUngrouped} {
		g, err := s.GetGroupByName(ctx, name)
		if err != nil {
			t.Fatalf("builtin group %q missing: %v", name, err)
		}
		if !g.Builtin {
			t.Errorf("group %q should carry the builtin flag", name)
		}
	}

	// Reopening must not duplicate the seed rows.
	path := filepath.Join(t.TempDir(), "reopen.db")
	for i := 0; i < 2; i++ {
		s2, err := Open(path)
		if err != nil {
			t.Fatalf("Open() failed: %v", err)
		}
		s2.Close()
	}
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s2.Close()

	groups, err := s2.ListGroups(context.Background())
	if err != nil {
		t.Fatalf("ListGroups() failed: %v", err)
	}
	if len(groups) != 2 {
		t.Errorf("expected exactly the 2 builtin groups, got %d", len(groups))
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := openTestStore(t)

	checks := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1", // NORMAL
		"foreign_keys": "1",
	}
	for name, want := range checks {
		if err := s.verifyPragma(name, want); err != nil {
			t.Errorf("pragma %s: %v", name, err)
		}
	}
}

func TestCreateHost_DuplicateHostname(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateHost(ctx, "web1", "192.0.2.10"); err != nil {
		t.Fatalf("CreateHost() failed: %v", err)
	}

	_, err := s.CreateHost(ctx, "web1", "192.0.2.11")
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetHostByName_Missing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetHostByName(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetOrCreateHost_PreservesIP(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.GetOrCreateHost(ctx, "web1", "192.0.2.10"); err != nil {
		t.Fatalf("GetOrCreateHost() failed: %v", err)
	}
	h, err := s.GetOrCreateHost(ctx, "web1", "")
	if err != nil {
		t.Fatalf("GetOrCreateHost() failed: %v", err)
	}
	if h.IP != "192.0.2.10" {
		t.Errorf("empty ip must not clobber the stored address, got %q", h.IP)
	}

	h, err = s.GetOrCreateHost(ctx, "web1", "192.0.2.99")
	if err != nil {
		t.Fatalf("GetOrCreateHost() failed: %v", err)
	}
	if h.IP != "192.0.2.99" {
		t.Errorf("non-empty ip must update the stored address, got %q", h.IP)
	}
}

func TestCreateGroup_DuplicateGroupname(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateGroup(ctx, "web_servers", -1); err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}

	_, err := s.CreateGroup(ctx, "web_servers", 5)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestDeleteGroup_CascadesEdges(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	h, err := s.CreateHost(ctx, "web1", "")
	if err != nil {
		t.Fatalf("CreateHost() failed: %v", err)
	}
	parent, err := s.CreateGroup(ctx, "parent", -1)
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	child, err := s.CreateGroup(ctx, "child", -1)
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}

	if err := s.InsertHierarchyEdge(ctx, parent.ID, child.ID); err != nil {
		t.Fatalf("InsertHierarchyEdge() failed: %v", err)
	}
	if err := s.InsertMembership(ctx, h.ID, child.ID); err != nil {
		t.Fatalf("InsertMembership() failed: %v", err)
	}
	if err := s.InsertExclusion(ctx, child.ID, parent.ID); err != nil {
		t.Fatalf("InsertExclusion() failed: %v", err)
	}

	err = s.WithTx(ctx, func(tx *Tx) error {
		return tx.DeleteGroup(ctx, "child")
	})
	if err != nil {
		t.Fatalf("DeleteGroup() failed: %v", err)
	}

	edges, err := s.CountHierarchyEdges(ctx)
	if err != nil {
		t.Fatalf("CountHierarchyEdges() failed: %v", err)
	}
	if edges != 0 {
		t.Errorf("hierarchy edges survived group deletion: %d", edges)
	}

	members, err := s.CountMemberships(ctx, h.ID)
	if err != nil {
		t.Fatalf("CountMemberships() failed: %v", err)
	}
	if members != 0 {
		t.Errorf("membership rows survived group deletion: %d", members)
	}

	excl, err := s.ListExclusions(ctx, parent.ID)
	if err != nil {
		t.Fatalf("ListExclusions() failed: %v", err)
	}
	if len(excl) != 0 {
		t.Errorf("exclusion rows survived group deletion: %v", excl)
	}
}

func TestInsertMembership_DuplicateIsNoop(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	h, err := s.CreateHost(ctx, "web1", "")
	if err != nil {
		t.Fatalf("CreateHost() failed: %v", err)
	}
	g, err := s.CreateGroup(ctx, "web_servers", -1)
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := s.InsertMembership(ctx, h.ID, g.ID); err != nil {
			t.Fatalf("InsertMembership() iteration %d failed: %v", i, err)
		}
	}

	n, err := s.CountMemberships(ctx, h.ID)
	if err != nil {
		t.Fatalf("CountMemberships() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 membership row, got %d", n)
	}
}

func TestInsertExclusion_NormalizedPair(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.CreateGroup(ctx, "a", -1)
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	b, err := s.CreateGroup(ctx, "b", -1)
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}

	// Insert in both orders; the pair is stored once.
	if err := s.InsertExclusion(ctx, b.ID, a.ID); err != nil {
		t.Fatalf("InsertExclusion() failed: %v", err)
	}
	if err := s.InsertExclusion(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("InsertExclusion() failed: %v", err)
	}

	for _, id := range []int64{a.ID, b.ID} {
		excl, err := s.ListExclusions(ctx, id)
		if err != nil {
			t.Fatalf("ListExclusions() failed: %v", err)
		}
		if len(excl) != 1 {
			t.Errorf("group %d: expected 1 exclusion, got %v", id, excl)
		}
	}
}

func TestWithTx_RollbackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.CreateGroup(ctx, "doomed", -1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the callback error, got %v", err)
	}

	_, err = s.GetGroupByName(ctx, "doomed")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("rolled-back insert is still visible: %v", err)
	}
}

func TestVariables_UpsertAndDecode(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		value any
		want  any
	}{
		{"plain_string", "hello", "hello"},
		{"number", 8080, float64(8080)},
		{"bool", true, true},
		{"list", []any{"a", "b"}, []any{"a", "b"}},
		{"map", map[string]any{"k": "v"}, map[string]any{"k": "v"}},
	}

	for _, tc := range cases {
		if err := s.SetVariable(ctx, EntityHost, "web1", tc.name, tc.value); err != nil {
			t.Fatalf("SetVariable(%s) failed: %v", tc.name, err)
		}
		got, err := s.GetVariable(ctx, EntityHost, "web1", tc.name)
		if err != nil {
			t.Fatalf("GetVariable(%s) failed: %v", tc.name, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: got %#v, want %#v", tc.name, got, tc.want)
		}
	}

	// Overwrite keeps a single row per name.
	if err := s.SetVariable(ctx, EntityHost, "web1", "plain_string", "replaced"); err != nil {
		t.Fatalf("SetVariable() failed: %v", err)
	}
	vars, err := s.ListVariablesFor(ctx, EntityHost, "web1")
	if err != nil {
		t.Fatalf("ListVariablesFor() failed: %v", err)
	}
	if vars["plain_string"] != "replaced" {
		t.Errorf("upsert did not overwrite: %v", vars["plain_string"])
	}
	if len(vars) != len(cases) {
		t.Errorf("expected %d variables, got %d", len(cases), len(vars))
	}
}

func TestVariables_ScopedByEntity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SetVariable(ctx, EntityHost, "shared", "v", "host_value"); err != nil {
		t.Fatalf("SetVariable() failed: %v", err)
	}
	if err := s.SetVariable(ctx, EntityGroup, "shared", "v", "group_value"); err != nil {
		t.Fatalf("SetVariable() failed: %v", err)
	}

	got, err := s.GetVariable(ctx, EntityHost, "shared", "v")
	if err != nil {
		t.Fatalf("GetVariable() failed: %v", err)
	}
	if got != "host_value" {
		t.Errorf("host binding clobbered by group binding: %v", got)
	}
}

func TestRemoveVariable_Missing(t *testing.T) {
	s := openTestStore(t)

	err := s.RemoveVariable(context.Background(), EntityHost, "web1", "absent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDecodeValue_Fallback(t *testing.T) {
	cases := map[string]any{
		`[1,2]`:       []any{float64(1), float64(2)},
		`{"a":true}`:  map[string]any{"a": true},
		`42`:          float64(42),
		`not json {`:  `not json {`,
		`plain words`: `plain words`,
	}
	for raw, want := range cases {
		if got := DecodeValue(raw); !reflect.DeepEqual(got, want) {
			t.Errorf("DecodeValue(%q) = %#v, want %#v", raw, got, want)
		}
	}
}
