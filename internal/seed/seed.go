// Package seed loads a declarative YAML description of an inventory and
// applies it through the engine, so every edge in the file passes the same
// validation as an interactive mutation.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hostdb/hostdb/internal/inventory"
	"github.com/hostdb/hostdb/internal/store"
)

// File is the top-level document shape.
//
//	hosts:
//	  - hostname: web1
//	    ip: 192.0.2.10
//	    vars: { tier: gold }
//	groups:
//	  - groupname: web_servers
//	    vars: { http_port: 8080 }
//	hierarchy:
//	  - { parent: environments, child: staging }
//	memberships:
//	  - { host: web1, group: web_servers }
//	exclusions:
//	  - { a: staging, b: production }
type File struct {
	Hosts       []HostEntry      `yaml:"hosts"`
	Groups      []GroupEntry     `yaml:"groups"`
	Hierarchy   []HierarchyEntry `yaml:"hierarchy"`
	Memberships []MemberEntry    `yaml:"memberships"`
	Exclusions  []ExclusionEntry `yaml:"exclusions"`
}

type HostEntry struct {
	Hostname string         `yaml:"hostname"`
	IP       string         `yaml:"ip"`
	Vars     map[string]any `yaml:"vars"`
}

type GroupEntry struct {
	Groupname string         `yaml:"groupname"`
	Max       *int64         `yaml:"max"`
	Vars      map[string]any `yaml:"vars"`
}

type HierarchyEntry struct {
	Parent string `yaml:"parent"`
	Child  string `yaml:"child"`
}

type MemberEntry struct {
	Host  string `yaml:"host"`
	Group string `yaml:"group"`
}

type ExclusionEntry struct {
	A string `yaml:"a"`
	B string `yaml:"b"`
}

// Load parses a seed file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document. Unknown fields are rejected so typos in
// hand-written files surface as errors instead of silently dropped data.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	for i, h := range f.Hosts {
		if h.Hostname == "" {
			return nil, fmt.Errorf("hosts[%d]: hostname is required", i)
		}
	}
	for i, g := range f.Groups {
		if g.Groupname == "" {
			return nil, fmt.Errorf("groups[%d]: groupname is required", i)
		}
	}
	return &f, nil
}

// Apply replays the file against the engine: entities first, then hierarchy
// edges, memberships, exclusion declarations, and variables. Entities are
// get-or-create, so applying the same file twice is a no-op.
func Apply(ctx context.Context, e *inventory.Engine, f *File) error {
	for _, h := range f.Hosts {
		if _, err := e.GetOrCreateHost(ctx, h.Hostname, h.IP); err != nil {
			return fmt.Errorf("host %q: %w", h.Hostname, err)
		}
	}
	for _, g := range f.Groups {
		max := int64(-1)
		if g.Max != nil {
			max = *g.Max
		}
		if _, err := e.GetOrCreateGroup(ctx, g.Groupname, max); err != nil {
			return fmt.Errorf("group %q: %w", g.Groupname, err)
		}
	}

	for _, edge := range f.Hierarchy {
		if err := e.AddToGroup(ctx, inventory.GroupRef(edge.Child), edge.Parent); err != nil {
			return fmt.Errorf("hierarchy %s -> %s: %w", edge.Parent, edge.Child, err)
		}
	}
	for _, m := range f.Memberships {
		if err := e.AddToGroup(ctx, inventory.HostRef(m.Host), m.Group); err != nil {
			return fmt.Errorf("membership %s in %s: %w", m.Host, m.Group, err)
		}
	}
	for _, x := range f.Exclusions {
		if err := e.AddExclusion(ctx, x.A, x.B); err != nil {
			return fmt.Errorf("exclusion %s / %s: %w", x.A, x.B, err)
		}
	}

	for _, h := range f.Hosts {
		if err := applyVars(ctx, e, store.EntityHost, h.Hostname, h.Vars); err != nil {
			return err
		}
	}
	for _, g := range f.Groups {
		if err := applyVars(ctx, e, store.EntityGroup, g.Groupname, g.Vars); err != nil {
			return err
		}
	}
	return nil
}

func applyVars(ctx context.Context, e *inventory.Engine, entityType, entityName string, vars map[string]any) error {
	for _, name := range sortedVars(vars) {
		if err := e.SetVariable(ctx, entityType, entityName, name, vars[name]); err != nil {
			return fmt.Errorf("variable %q on %s %q: %w", name, entityType, entityName, err)
		}
	}
	return nil
}

// sortedVars fixes the application order of a variable map.
func sortedVars(vars map[string]any) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
