package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostdb/hostdb/internal/store"
)

func TestResolveVars_UnknownHost(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.ResolveVars(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestResolveVars_IdentityVars(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	h := mustHost(t, e, "web1", "192.0.2.10")
	g := mustGroup(t, e, "web_servers")
	require.NoError(t, e.AddToGroup(ctx, HostRef("web1"), "web_servers"))

	vars, err := e.ResolveVars(ctx, "web1")
	require.NoError(t, err)

	assert.Equal(t, "192.0.2.10", vars["ansible_host"])
	assert.Equal(t, h.ID, vars["host_id"])
	assert.Equal(t, g.ID, vars["group_id"])
}

func TestResolveVars_NoAnsibleHostWithoutIP(t *testing.T) {
	e, _ := newTestEngine(t)

	mustHost(t, e, "web1", "")

	vars, err := e.ResolveVars(context.Background(), "web1")
	require.NoError(t, err)
	_, present := vars["ansible_host"]
	assert.False(t, present, "hosts without a stored address get no ansible_host")
}

func TestResolveVars_HostOverridesGroup(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	mustHost(t, e, "web1", "")
	mustGroup(t, e, "web_servers")
	require.NoError(t, e.AddToGroup(ctx, HostRef("web1"), "web_servers"))

	require.NoError(t, e.SetVariable(ctx, store.EntityGroup, "web_servers", "tier", "silver"))
	require.NoError(t, e.SetVariable(ctx, store.EntityHost, "web1", "tier", "gold"))

	vars, err := e.ResolveVars(ctx, "web1")
	require.NoError(t, err)
	assert.Equal(t, "gold", vars["tier"], "host variables always win")
}

func TestResolveVars_NearerGroupOverridesAncestor(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	// environments -> staging, host in staging. The nearer group's value
	// lands last and wins.
	mustHost(t, e, "web1", "")
	mustGroup(t, e, "environments")
	mustGroup(t, e, "staging")
	require.NoError(t, e.AddToGroup(ctx, GroupRef("staging"), "environments"))
	require.NoError(t, e.AddToGroup(ctx, HostRef("web1"), "staging"))

	require.NoError(t, e.SetVariable(ctx, store.EntityGroup, "environments", "log_level", "warn"))
	require.NoError(t, e.SetVariable(ctx, store.EntityGroup, "staging", "log_level", "debug"))

	vars, err := e.ResolveVars(ctx, "web1")
	require.NoError(t, err)
	assert.Equal(t, "debug", vars["log_level"])
}

func TestResolveVars_AncestorValueInheritedWhenUncontested(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	mustHost(t, e, "web1", "")
	mustGroup(t, e, "environments")
	mustGroup(t, e, "staging")
	require.NoError(t, e.AddToGroup(ctx, GroupRef("staging"), "environments"))
	require.NoError(t, e.AddToGroup(ctx, HostRef("web1"), "staging"))

	require.NoError(t, e.SetVariable(ctx, store.EntityGroup, "environments", "dns_zone", "corp.example"))

	vars, err := e.ResolveVars(ctx, "web1")
	require.NoError(t, err)
	assert.Equal(t, "corp.example", vars["dns_zone"])
}

func TestResolveVars_SiblingTieBreaksByGroupID(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	// Two direct groups at equal depth set the same variable. The group
	// created later (higher id) merges later and wins.
	mustHost(t, e, "web1", "")
	first := mustGroup(t, e, "alpha")
	second := mustGroup(t, e, "beta")
	require.Less(t, first.ID, second.ID)

	require.NoError(t, e.AddToGroup(ctx, HostRef("web1"), "alpha"))
	require.NoError(t, e.AddToGroup(ctx, HostRef("web1"), "beta"))

	require.NoError(t, e.SetVariable(ctx, store.EntityGroup, "alpha", "contested", "from_alpha"))
	require.NoError(t, e.SetVariable(ctx, store.EntityGroup, "beta", "contested", "from_beta"))

	vars, err := e.ResolveVars(ctx, "web1")
	require.NoError(t, err)
	assert.Equal(t, "from_beta", vars["contested"])
}

func TestResolveVars_DiamondAncestorAppliesOnce(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	// top is reachable through both left and right. Its scope must apply
	// before either, never after.
	mustHost(t, e, "web1", "")
	mustGroup(t, e, "top")
	mustGroup(t, e, "left")
	mustGroup(t, e, "right")
	require.NoError(t, e.AddToGroup(ctx, GroupRef("left"), "top"))
	require.NoError(t, e.AddToGroup(ctx, GroupRef("right"), "top"))
	require.NoError(t, e.AddToGroup(ctx, HostRef("web1"), "left"))
	require.NoError(t, e.AddToGroup(ctx, HostRef("web1"), "right"))

	require.NoError(t, e.SetVariable(ctx, store.EntityGroup, "top", "origin", "top"))
	require.NoError(t, e.SetVariable(ctx, store.EntityGroup, "left", "origin", "left"))
	require.NoError(t, e.SetVariable(ctx, store.EntityGroup, "right", "origin", "right"))

	vars, err := e.ResolveVars(ctx, "web1")
	require.NoError(t, err)
	assert.Equal(t, "right", vars["origin"], "deepest scopes merge last, higher id among peers wins")
}

func TestResolveVars_StructuredValuesDecode(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	mustHost(t, e, "web1", "")
	require.NoError(t, e.SetVariable(ctx, store.EntityHost, "web1", "ports", []any{float64(80), float64(443)}))
	require.NoError(t, e.SetVariable(ctx, store.EntityHost, "web1", "labels", map[string]any{"env": "staging"}))
	require.NoError(t, e.SetVariable(ctx, store.EntityHost, "web1", "greeting", "hello"))

	vars, err := e.ResolveVars(ctx, "web1")
	require.NoError(t, err)

	assert.Equal(t, []any{float64(80), float64(443)}, vars["ports"])
	assert.Equal(t, map[string]any{"env": "staging"}, vars["labels"])
	assert.Equal(t, "hello", vars["greeting"], "plain strings round-trip unquoted")
}
