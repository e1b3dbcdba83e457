package inventory

import "fmt"

// RefKind distinguishes host references from group references.
type RefKind int

const (
	// RefHost identifies a managed host by hostname.
	RefHost RefKind = iota + 1
	// RefGroup identifies a group by name.
	RefGroup
)

// Ref identifies the child side of an AddToGroup call: either a host
// (membership edge) or a group (hierarchy edge).
type Ref struct {
	Kind RefKind
	Name string
}

// HostRef returns a reference to a host by name.
func HostRef(name string) Ref {
	return Ref{Kind: RefHost, Name: name}
}

// GroupRef returns a reference to a group by name.
func GroupRef(name string) Ref {
	return Ref{Kind: RefGroup, Name: name}
}

// String renders the reference as kind:name for diagnostics.
func (r Ref) String() string {
	switch r.Kind {
	case RefHost:
		return fmt.Sprintf("host:%s", r.Name)
	case RefGroup:
		return fmt.Sprintf("group:%s", r.Name)
	default:
		return fmt.Sprintf("unknown:%s", r.Name)
	}
}
