// Package store provides persistence backends for workflow state.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested run ID does not exist.
var ErrNotFound = errors.New("not found")

// Store persists workflow state step by step.
//
// The engine saves the merged state after every node, so the latest
// record is always a consistent resume point. A suspended run is
// recorded with a marker node ID, which is how ResumeWith verifies the
// run is actually waiting for input.
//
// Implementations must be safe for concurrent use across runs.
//
// Type parameter S is the state type to persist.
type Store[S any] interface {
	// SaveStep persists the state after a node execution step.
	// Each step is identified by runID + step number; saving the same
	// step twice is an error in SQL-backed stores.
	SaveStep(ctx context.Context, runID string, step int, nodeID string, state S) error

	// LoadLatest retrieves the most recent state for a run, along with
	// the step number and the node ID recorded with it.
	// Returns ErrNotFound if the run has no persisted steps.
	LoadLatest(ctx context.Context, runID string) (state S, step int, nodeID string, err error)

	// Delete removes all persisted steps for a run. Deleting a run that
	// does not exist is not an error.
	Delete(ctx context.Context, runID string) error
}

// StepRecord represents a single execution step in the workflow history.
// Used internally by Store implementations.
type StepRecord[S any] struct {
	// Step is the sequential step number (1-indexed).
	Step int

	// NodeID identifies which node produced this state, or the engine's
	// suspension marker.
	NodeID string

	// State is the workflow state after this step completed.
	State S
}
