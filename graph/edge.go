// Package graph provides a checkpointed, resumable workflow engine with
// typed shared state, per-field reducers, conditional edges, and an
// interactive suspension point.
package graph

// Edge represents a connection between two nodes in the workflow graph.
//
// Edges define the control flow between nodes. They can be:
//   - Unconditional: always traverse (When = nil).
//   - Conditional: only traverse if the predicate returns true (When != nil).
//
// Node explicit routing via NodeResult.Route takes precedence over edges,
// and router edges added via ConnectConditional take precedence over
// predicate edges from the same node.
//
// Type parameter S is the state type used for predicate evaluation.
type Edge[S any] struct {
	// From is the source node ID.
	From string

	// To is the destination node ID.
	To string

	// When is an optional predicate that determines if this edge should be
	// traversed. If nil, the edge is unconditional.
	When Predicate[S]
}

// Predicate is a function that evaluates state to determine if an edge
// should be traversed. Predicates should be pure functions.
//
// Type parameter S is the state type to evaluate.
type Predicate[S any] func(state S) bool

// Router inspects the state after a node completes and returns a branch
// label. The label is resolved to a destination through the branch map
// given to ConnectConditional. Routers should be pure functions.
type Router[S any] func(state S) string

// routerEdge is a labeled conditional transition out of a node.
// The router picks a branch label; branches maps each label to a
// destination node ID, End, or Suspend.
type routerEdge[S any] struct {
	router   Router[S]
	branches map[string]string
}
