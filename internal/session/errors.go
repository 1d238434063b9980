package session

import (
	"errors"
	"fmt"
)

var (
	// ErrContextLoad is matched by LoadError.
	ErrContextLoad = errors.New("context load failed")
	// ErrNotFound is matched by NotFoundError.
	ErrNotFound = errors.New("context not found")
	// ErrUnloaded is returned by a session after it was unloaded or replaced.
	ErrUnloaded = errors.New("context unloaded")
	// ErrUnknownTable is returned for aliases that are not loaded.
	ErrUnknownTable = errors.New("unknown table")
	// ErrDuplicateAlias is wrapped by LoadError when two tables share an alias.
	ErrDuplicateAlias = errors.New("duplicate table alias")
	// ErrNoHierarchy is returned by rollups before a forest is attached.
	ErrNoHierarchy = errors.New("no hierarchy attached")
)

// LoadError reports a table that could not be loaded into a context.
type LoadError struct {
	Context string
	Alias   string
	Path    string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%v: context %q, table %q (%s): %v", ErrContextLoad, e.Context, e.Alias, e.Path, e.Err)
}

func (e *LoadError) Unwrap() []error { return []error{ErrContextLoad, e.Err} }

// NotFoundError reports a context name with no session.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %q", ErrNotFound, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
