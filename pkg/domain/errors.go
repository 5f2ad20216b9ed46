package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPathNotFound is returned when a path does not address a live node.
	ErrPathNotFound = errors.New("path not found")

	// ErrDetachedNode is returned when a node's parent chain does not reach the tree root.
	ErrDetachedNode = errors.New("node is detached from the tree")

	// ErrDuplicateKey is returned when an insertion would reuse a key already in the tree.
	ErrDuplicateKey = errors.New("duplicate node key")

	// ErrPersistence marks failures reported by the persistence collaborator.
	ErrPersistence = errors.New("persistence failed")

	// ErrPageNotFound is returned when a page cannot be found in the store.
	ErrPageNotFound = errors.New("page not found")

	// ErrCollectionNotFound is returned for unknown collection names.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrUnknownBlueprint is returned when a menu selection has no blueprint.
	ErrUnknownBlueprint = errors.New("unknown blueprint")

	// ErrDisabledBlueprint is returned when a disabled menu entry is selected.
	ErrDisabledBlueprint = errors.New("blueprint is disabled")
)

// PathNotFoundError reports a path that resolves to no node.
type PathNotFoundError struct {
	Path Path
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrPathNotFound, e.Path.String())
}

func (e *PathNotFoundError) Is(target error) bool { return target == ErrPathNotFound }

// DetachedNodeError reports a node that could not be resolved to a path.
type DetachedNodeError struct {
	Key string
}

func (e *DetachedNodeError) Error() string {
	return fmt.Sprintf("%s: %q", ErrDetachedNode, e.Key)
}

func (e *DetachedNodeError) Is(target error) bool { return target == ErrDetachedNode }

// DuplicateKeyError reports a key that is already present in the tree.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s: %q", ErrDuplicateKey, e.Key)
}

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

// PersistenceError wraps a failed call to the persistence collaborator.
// The local tree keeps the mutation that triggered the call.
type PersistenceError struct {
	Op   string
	Path Path
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s %q: %v", ErrPersistence, e.Op, e.Path.String(), e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
