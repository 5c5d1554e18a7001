package graph

// Reducer merges a partial state update into the previous state and
// returns the next state. The engine calls it after every node.
//
// Reducers must be pure and deterministic: given the same prev and
// delta they always return the same next state. Field-level merge
// policy (overwrite, append, accumulate) lives entirely in the reducer,
// which is what lets nodes return sparse deltas.
type Reducer[S any] func(prev, delta S) S
