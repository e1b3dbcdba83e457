package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// Entity type discriminators for the variables table.
const (
	EntityHost  = "host"
	EntityGroup = "group"
)

// Host is a managed host row.
type Host struct {
	ID       int64
	Hostname string
	IP       string // empty when no address literal is recorded
}

// Group is a group row. Max is a capacity hint (-1 = unbounded).
// Builtin marks the synthetic root groups created at store initialization.
type Group struct {
	ID        int64
	Groupname string
	Max       int64
	Builtin   bool
}

// Variable is one (entity, name) -> value binding. Value holds the raw
// stored text; lists and maps are stored as JSON.
type Variable struct {
	EntityType string
	EntityName string
	Name       string
	Value      string
}

// ErrNotFound is returned when a referenced host or group does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate name")

// isUniqueViolation reports whether err is a SQLite unique-constraint error.
func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
