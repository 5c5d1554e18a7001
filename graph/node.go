package graph

import (
	"context"
	"time"
)

// Node represents a processing unit in the workflow graph.
// It receives state of type S, performs computation, and returns a NodeResult.
//
// Each node can:
//   - Access the current state
//   - Perform computation (call LLMs, data sources, or custom logic)
//   - Return state modifications via Delta
//   - Control routing via Route
//   - Report errors
//
// Type parameter S is the state type shared across the workflow.
type Node[S any] interface {
	// Run executes the node's logic with the given context and state.
	// It returns a NodeResult containing the state delta, a routing
	// decision, and any error encountered.
	Run(ctx context.Context, state S) NodeResult[S]
}

// NodeResult represents the output of a node execution.
type NodeResult[S any] struct {
	// Delta is the partial state update produced by this node.
	// It will be merged with the current state using the configured reducer.
	Delta S

	// Route specifies the next step in workflow execution.
	// Use Stop() for terminal nodes, Goto(id) for explicit routing,
	// Await(reason) to suspend, or leave zero to fall back to edges.
	Route Next

	// Err contains any error that occurred during node execution.
	// A non-nil error fails the run; the last checkpoint is retained.
	Err error
}

// Next specifies the next step in workflow execution after a node completes.
//
// Routing modes:
//   - Terminal: stop execution with a completed result
//   - Single: go to a specific node (To = "nodeID")
//   - Await: suspend execution, checkpoint state, and return control
//   - Zero value: fall back to edge-based routing
type Next struct {
	// To specifies the next single node to execute.
	To string

	// Terminal indicates workflow execution should stop.
	Terminal bool

	// AwaitReason, when non-empty, suspends the run after this node.
	// State is checkpointed and the run can be re-entered via ResumeWith.
	AwaitReason string
}

// Stop returns a Next that terminates workflow execution.
func Stop() Next {
	return Next{Terminal: true}
}

// Goto returns a Next that routes to the specified node.
func Goto(nodeID string) Next {
	return Next{To: nodeID}
}

// Await returns a Next that suspends the run with the given reason.
// The reason is surfaced in RunResult.Reason and in the suspension event.
func Await(reason string) Next {
	return Next{AwaitReason: reason}
}

// NodeFunc is a function adapter that implements the Node interface.
// It allows using plain functions as nodes without creating custom types.
type NodeFunc[S any] func(ctx context.Context, state S) NodeResult[S]

// Run implements the Node interface for NodeFunc.
func (f NodeFunc[S]) Run(ctx context.Context, state S) NodeResult[S] {
	return f(ctx, state)
}

// NodePolicy holds per-node execution overrides.
type NodePolicy struct {
	// Timeout overrides the engine-wide default node timeout.
	// Zero means inherit the engine default.
	Timeout time.Duration
}

// NodeError represents an error that occurred during node execution.
type NodeError struct {
	// Message is the human-readable error description.
	Message string

	// Code is a machine-readable error code for programmatic handling.
	Code string

	// NodeID identifies which node produced this error.
	NodeID string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the underlying cause error for error wrapping support.
func (e *NodeError) Unwrap() error {
	return e.Cause
}
