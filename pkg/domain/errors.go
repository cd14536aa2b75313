package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingInputEdge is returned when a queried target has no connected source.
	ErrMissingInputEdge = errors.New("missing input edge")

	// ErrKindMismatch is returned when a source is queried as the wrong kind
	// (for example a pose source queried as data). Validation should make it unreachable.
	ErrKindMismatch = errors.New("pin kind mismatch")

	// ErrMissingParentGraph is returned when a boundary query walks past the root context.
	ErrMissingParentGraph = errors.New("missing parent graph")

	// ErrCyclicDependency is returned when a query re-enters a target still being resolved.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrMissingOutput is returned when a node pass did not produce the requested output.
	ErrMissingOutput = errors.New("node did not produce output")

	// ErrPassNotSupported is returned when a node lacks the pass a query needs.
	ErrPassNotSupported = errors.New("pass not supported by node")

	// ErrStateTypeMismatch is returned when a node-local state slot holds another type.
	ErrStateTypeMismatch = errors.New("node state type mismatch")

	// State machine failures.
	ErrCurrentStateMissing          = errors.New("current state missing")
	ErrRequestedMissingData         = errors.New("requested missing data")
	ErrExpectedTransitionFoundState = errors.New("expected transition, found state")
	ErrGraphAssetMissing            = errors.New("graph asset missing")

	// ErrAssetNotFound is returned by asset loaders for unknown names.
	ErrAssetNotFound = errors.New("asset not found")
)

// MissingInputError reports the target that had no source.
type MissingInputError struct {
	Graph  string
	Target TargetPin
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("graph %q: %s has no source: %v", e.Graph, e.Target, ErrMissingInputEdge)
}

func (e *MissingInputError) Unwrap() error { return ErrMissingInputEdge }

// KindMismatchError reports a source queried through the wrong pass.
type KindMismatchError struct {
	Source SourcePin
	Want   string
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("%v: %s queried as %s", ErrKindMismatch, e.Source, e.Want)
}

func (e *KindMismatchError) Unwrap() error { return ErrKindMismatch }

// CycleError carries the chain of targets that closed a cycle.
type CycleError struct {
	Path []TargetPin
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, p := range e.Path {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%v: %s", ErrCyclicDependency, strings.Join(parts, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCyclicDependency }

// MachineError wraps a state machine failure with the machine and state involved.
type MachineError struct {
	Machine string
	State   StateID
	Err     error
}

func (e *MachineError) Error() string {
	if e.State == "" {
		return fmt.Sprintf("state machine %q: %v", e.Machine, e.Err)
	}
	return fmt.Sprintf("state machine %q, state %q: %v", e.Machine, e.State, e.Err)
}

func (e *MachineError) Unwrap() error { return e.Err }
