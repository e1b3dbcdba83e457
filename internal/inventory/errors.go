package inventory

import (
	"errors"
	"fmt"

	"github.com/hostdb/hostdb/internal/store"
)

// Error represents a rejected inventory mutation or a failed read.
//
// Every rejection names the invariant it violated and the entities
// involved, so callers can present an actionable message: the would-be
// cyclic edge for CYCLE_DETECTED, the conflicting pair for
// EXCLUSION_CONFLICT.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Entity names the host or group a NOT_FOUND / DUPLICATE_NAME /
	// SELF_REFERENCE error refers to.
	Entity string

	// Parent and Child name the rejected hierarchy edge for CYCLE_DETECTED.
	Parent string
	Child  string

	// GroupA and GroupB name the conflicting pair for EXCLUSION_CONFLICT.
	GroupA string
	GroupB string

	// Err is the underlying store failure for STORAGE_IO.
	Err error
}

// ErrorCode categorizes inventory errors.
type ErrorCode string

const (
	// CodeCycleDetected indicates a hierarchy edge would close a cycle.
	CodeCycleDetected ErrorCode = "CYCLE_DETECTED"

	// CodeExclusionConflict indicates a mutation would place a host under
	// two mutually exclusive groups.
	CodeExclusionConflict ErrorCode = "EXCLUSION_CONFLICT"

	// CodeNotFound indicates a referenced host or group does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeDuplicateName indicates a unique-name constraint violation.
	CodeDuplicateName ErrorCode = "DUPLICATE_NAME"

	// CodeSelfReference indicates a group was added to itself.
	CodeSelfReference ErrorCode = "SELF_REFERENCE"

	// CodeBuiltinProtected indicates an attempt to delete a builtin root
	// group.
	CodeBuiltinProtected ErrorCode = "BUILTIN_PROTECTED"

	// CodeStorageIO indicates an underlying store failure.
	CodeStorageIO ErrorCode = "STORAGE_IO"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Code {
	case CodeCycleDetected:
		return fmt.Sprintf("%s: %s (edge %s -> %s)", e.Code, e.Message, e.Parent, e.Child)
	case CodeExclusionConflict:
		return fmt.Sprintf("%s: %s (groups %s, %s)", e.Code, e.Message, e.GroupA, e.GroupB)
	case CodeStorageIO:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	default:
		if e.Entity != "" {
			return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Entity)
		}
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap exposes the underlying store failure, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsCycleError reports whether err is a CYCLE_DETECTED rejection.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	return hasCode(err, CodeCycleDetected)
}

// IsExclusionError reports whether err is an EXCLUSION_CONFLICT rejection.
func IsExclusionError(err error) bool {
	return hasCode(err, CodeExclusionConflict)
}

// IsNotFound reports whether err is a NOT_FOUND rejection.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsDuplicateName reports whether err is a DUPLICATE_NAME rejection.
func IsDuplicateName(err error) bool {
	return hasCode(err, CodeDuplicateName)
}

// IsSelfReference reports whether err is a SELF_REFERENCE rejection.
func IsSelfReference(err error) bool {
	return hasCode(err, CodeSelfReference)
}

// IsBuiltinProtected reports whether err is a BUILTIN_PROTECTED rejection.
func IsBuiltinProtected(err error) bool {
	return hasCode(err, CodeBuiltinProtected)
}

func hasCode(err error, code ErrorCode) bool {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Code == code
	}
	return false
}

// NewCycleError creates the rejection for a hierarchy edge that would close
// a cycle.
func NewCycleError(parent, child string) *Error {
	return &Error{
		Code:    CodeCycleDetected,
		Message: "adding hierarchy edge would create a cycle",
		Parent:  parent,
		Child:   child,
	}
}

// NewExclusionError creates the rejection for a mutation crossing a
// declared mutual-exclusion pair.
func NewExclusionError(a, b string) *Error {
	return &Error{
		Code:    CodeExclusionConflict,
		Message: "mutation would join mutually exclusive groups",
		GroupA:  a,
		GroupB:  b,
	}
}

// NewSelfReferenceError creates the rejection for adding a group to itself.
func NewSelfReferenceError(name string) *Error {
	return &Error{
		Code:    CodeSelfReference,
		Message: "group cannot be added to itself",
		Entity:  name,
	}
}

// wrapStore translates store-level sentinel errors into inventory errors.
// Unrecognized failures surface as STORAGE_IO with the cause attached.
func wrapStore(err error) error {
	if err == nil {
		return nil
	}
	var ie *Error
	if errors.As(err, &ie) {
		return err // already classified
	}
	if errors.Is(err, store.ErrNotFound) {
		return &Error{Code: CodeNotFound, Message: err.Error()}
	}
	if errors.Is(err, store.ErrDuplicate) {
		return &Error{Code: CodeDuplicateName, Message: err.Error()}
	}
	return &Error{Code: CodeStorageIO, Message: "storage failure", Err: err}
}
