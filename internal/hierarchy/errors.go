package hierarchy

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCyclicHierarchy  = errors.New("cyclic hierarchy")
	ErrDuplicateElement = errors.New("duplicate element")
	ErrUnknownParent    = errors.New("unknown parent")
	ErrInvalidRow       = errors.New("invalid hierarchy row")
	ErrUnknownNode      = errors.New("unknown hierarchy node")
	// ErrSealed is returned when rows are added after Build.
	ErrSealed = errors.New("hierarchy builder is sealed")
)

// CyclicHierarchyError reports a parent chain that returns to itself.
// Path starts and ends with the same label.
type CyclicHierarchyError struct {
	Path []string
}

func (e *CyclicHierarchyError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCyclicHierarchy, strings.Join(e.Path, " -> "))
}

func (e *CyclicHierarchyError) Unwrap() error { return ErrCyclicHierarchy }

// DuplicateElementError reports a label defined on more than one row.
type DuplicateElementError struct {
	Label string
	Lines []int
}

func (e *DuplicateElementError) Error() string {
	return fmt.Sprintf("%v: %q on lines %v", ErrDuplicateElement, e.Label, e.Lines)
}

func (e *DuplicateElementError) Unwrap() error { return ErrDuplicateElement }

// UnknownParentError reports a parent reference that names no element.
type UnknownParentError struct {
	Element string
	Parent  string
}

func (e *UnknownParentError) Error() string {
	return fmt.Sprintf("%v: %q references parent %q", ErrUnknownParent, e.Element, e.Parent)
}

func (e *UnknownParentError) Unwrap() error { return ErrUnknownParent }

// InvalidRowError reports a row that cannot become a node.
type InvalidRowError struct {
	Line   int
	Reason string
}

func (e *InvalidRowError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v: line %d: %s", ErrInvalidRow, e.Line, e.Reason)
	}

	return fmt.Sprintf("%v: %s", ErrInvalidRow, e.Reason)
}

func (e *InvalidRowError) Unwrap() error { return ErrInvalidRow }
