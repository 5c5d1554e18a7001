package graph

import (
	"context"
	"sync"
	"time"

	"github.com/tripflow-ai/tripflow/graph/emit"
	"github.com/tripflow-ai/tripflow/graph/store"
)

// Reserved routing targets for branch maps passed to ConnectConditional.
const (
	// End terminates the run with a completed result.
	End = "__end__"

	// Suspend checkpoints state and returns a suspended result. The branch
	// label that routed here becomes the suspension reason.
	Suspend = "__suspend__"
)

// DefaultMaxSteps bounds a single run when Options.MaxSteps is zero.
// Generous compared to the longest legitimate path, which is under 20
// steps even with every replan iteration taken.
const DefaultMaxSteps = 40

// Status describes how a run ended.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusSuspended Status = "suspended"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"

	// StatusInProgress is never returned by Run; it describes a
	// checkpoint of a run that has neither settled nor suspended.
	StatusInProgress Status = "in_progress"
)

// RunResult is the outcome of Run or ResumeWith.
//
// Suspension and cancellation are ordinary outcomes, not errors: the
// accompanying error is non-nil only when Status is StatusFailed.
type RunResult[S any] struct {
	// Status is the terminal status of this run segment.
	Status Status

	// State is the last merged state. For failed runs it is the state as
	// of the most recent checkpoint.
	State S

	// Step is the last executed step number (1-indexed, monotonic across
	// resume segments of the same run).
	Step int

	// Reason carries the suspension reason when Status is StatusSuspended.
	Reason string
}

// Engine orchestrates stateful workflow execution with checkpointing.
//
// The Engine:
//   - Manages workflow graph topology (nodes, edges, labeled branches)
//   - Executes nodes sequentially in a cooperative loop
//   - Merges state updates via the reducer
//   - Persists state at each step via the store
//   - Suspends at Await points and re-enters via ResumeWith
//   - Emits observability events via the emitter
//   - Enforces the step budget and per-node timeouts
//
// Type parameter S is the state type shared across the workflow.
type Engine[S any] struct {
	mu sync.RWMutex

	// reducer merges partial state updates deterministically
	reducer Reducer[S]

	// nodes maps node IDs to Node implementations
	nodes map[string]Node[S]

	// edges defines predicate transitions between nodes
	edges []Edge[S]

	// routers defines labeled conditional transitions per source node
	routers map[string]routerEdge[S]

	// policies holds per-node execution overrides
	policies map[string]NodePolicy

	// startNode is the entry point for workflow execution
	startNode string

	// store persists workflow state for resume and recovery
	store store.Store[S]

	// emitter receives observability events
	emitter emit.Emitter

	// metrics is optional; nil disables recording
	metrics *Metrics

	opts Options
}

// Options configures Engine execution behavior.
type Options struct {
	// MaxSteps limits a run to prevent infinite loops.
	// Zero means DefaultMaxSteps.
	MaxSteps int

	// DefaultNodeTimeout applies to every node without a per-node policy.
	// Zero means no timeout.
	DefaultNodeTimeout time.Duration
}

// New creates an Engine with the given configuration.
//
// The emitter may be nil; events are then discarded. Validation of the
// graph happens when Run is called, so construction order is flexible.
func New[S any](reducer Reducer[S], st store.Store[S], emitter emit.Emitter, opts Options) *Engine[S] {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	return &Engine[S]{
		reducer:  reducer,
		nodes:    make(map[string]Node[S]),
		edges:    make([]Edge[S], 0),
		routers:  make(map[string]routerEdge[S]),
		policies: make(map[string]NodePolicy),
		store:    st,
		emitter:  emitter,
		opts:     opts,
	}
}

// SetMetrics attaches a metrics collector. Passing nil disables recording.
func (e *Engine[S]) SetMetrics(m *Metrics) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = m
}

// Add registers a node in the workflow graph. Node IDs must be unique.
func (e *Engine[S]) Add(nodeID string, node Node[S]) error {
	if nodeID == "" {
		return &EngineError{Message: "node ID cannot be empty"}
	}
	if node == nil {
		return &EngineError{Message: "node cannot be nil"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; exists {
		return &EngineError{
			Message: "duplicate node ID: " + nodeID,
			Code:    CodeDuplicateNode,
		}
	}

	e.nodes[nodeID] = node
	return nil
}

// SetPolicy installs a per-node execution policy (timeout override).
func (e *Engine[S]) SetPolicy(nodeID string, policy NodePolicy) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; !exists {
		return &EngineError{
			Message: "policy target does not exist: " + nodeID,
			Code:    CodeNodeNotFound,
		}
	}
	e.policies[nodeID] = policy
	return nil
}

// StartAt sets the entry point for workflow execution.
// The node must have been registered via Add.
func (e *Engine[S]) StartAt(nodeID string) error {
	if nodeID == "" {
		return &EngineError{Message: "start node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; !exists {
		return &EngineError{
			Message: "start node does not exist: " + nodeID,
			Code:    CodeNodeNotFound,
		}
	}

	e.startNode = nodeID
	return nil
}

// Connect creates an edge between two nodes.
//
// The predicate may be nil for an unconditional edge. Explicit routing
// via NodeResult.Route and router edges both take precedence over
// predicate edges. The destination may be End.
func (e *Engine[S]) Connect(from, to string, predicate Predicate[S]) error {
	if from == "" {
		return &EngineError{Message: "from node ID cannot be empty"}
	}
	if to == "" {
		return &EngineError{Message: "to node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.edges = append(e.edges, Edge[S]{From: from, To: to, When: predicate})
	return nil
}

// ConnectConditional installs a labeled conditional transition.
//
// After the source node completes (without explicit routing), the router
// inspects the merged state and returns a branch label. The label is
// resolved through branches to a destination node ID, End, or Suspend.
// A label missing from branches fails the run with CodeUnknownBranch.
func (e *Engine[S]) ConnectConditional(from string, router Router[S], branches map[string]string) error {
	if from == "" {
		return &EngineError{Message: "from node ID cannot be empty"}
	}
	if router == nil {
		return &EngineError{Message: "router cannot be nil"}
	}
	if len(branches) == 0 {
		return &EngineError{Message: "branches cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.routers[from]; exists {
		return &EngineError{
			Message: "conditional edge already set for node: " + from,
			Code:    CodeDuplicateNode,
		}
	}

	cloned := make(map[string]string, len(branches))
	for label, dest := range branches {
		cloned[label] = dest
	}
	e.routers[from] = routerEdge[S]{router: router, branches: cloned}
	return nil
}

// Run executes the workflow from the start node until it completes,
// suspends, fails, or is cancelled.
//
// The returned error is non-nil only for failed runs; inspect
// RunResult.Status for suspension and cancellation.
func (e *Engine[S]) Run(ctx context.Context, runID string, initial S) (RunResult[S], error) {
	if err := e.validate(e.startNode); err != nil {
		return RunResult[S]{Status: StatusFailed}, err
	}
	return e.run(ctx, runID, initial, e.startNode, 0, e.emitter)
}

// ResumeWith re-enters a suspended run.
//
// It loads the latest checkpoint, verifies the run is actually suspended
// (returning ErrNotSuspended otherwise, so answers are never silently
// merged into a live or finished run), merges delta through the reducer,
// and continues execution at resumeAt. Step numbering continues from the
// checkpoint.
func (e *Engine[S]) ResumeWith(ctx context.Context, runID string, delta S, resumeAt string) (RunResult[S], error) {
	if err := e.validate(resumeAt); err != nil {
		return RunResult[S]{Status: StatusFailed}, err
	}

	state, step, nodeID, err := e.store.LoadLatest(ctx, runID)
	if err != nil {
		return RunResult[S]{Status: StatusFailed}, &EngineError{
			Message: "cannot resume: " + err.Error(),
			Code:    CodeRunNotFound,
		}
	}
	if nodeID != Suspend {
		return RunResult[S]{Status: StatusFailed}, ErrNotSuspended
	}

	state = e.reducer(state, delta)
	return e.run(ctx, runID, state, resumeAt, step, e.emitter)
}

// Stream executes the workflow in a goroutine and returns a lazy,
// single-consumer event channel. The channel is closed after the
// terminal event (complete, suspended, error, or cancelled).
//
// The engine's configured emitter still receives every event.
func (e *Engine[S]) Stream(ctx context.Context, runID string, initial S) <-chan emit.Event {
	ch := make(chan emit.Event, 64)

	if err := e.validate(e.startNode); err != nil {
		go func() {
			defer close(ch)
			ch <- emit.Event{RunID: runID, Msg: emit.MsgError, Meta: map[string]interface{}{"error": err.Error()}}
		}()
		return ch
	}

	go func() {
		defer close(ch)
		em := emit.Multi(e.emitter, emit.NewChannelEmitter(ch))
		_, _ = e.run(ctx, runID, initial, e.startNode, 0, em)
	}()
	return ch
}

func (e *Engine[S]) validate(startNode string) error {
	if e.reducer == nil {
		return &EngineError{Message: "reducer is required", Code: CodeMissingReducer}
	}
	if e.store == nil {
		return &EngineError{Message: "store is required", Code: CodeMissingStore}
	}
	if startNode == "" {
		return &EngineError{Message: "start node not set (call StartAt before Run)", Code: CodeNoStartNode}
	}

	e.mu.RLock()
	_, exists := e.nodes[startNode]
	e.mu.RUnlock()

	if !exists {
		return &EngineError{
			Message: "start node does not exist: " + startNode,
			Code:    CodeNodeNotFound,
		}
	}
	return nil
}

// run is the cooperative execution loop shared by Run, ResumeWith, and
// Stream. startStep is the step number of the last persisted checkpoint
// (zero for fresh runs).
func (e *Engine[S]) run(ctx context.Context, runID string, initial S, startNode string, startStep int, em emit.Emitter) (RunResult[S], error) {
	currentState := initial
	currentNode := startNode
	step := startStep

	fail := func(code, msg string) (RunResult[S], error) {
		err := &EngineError{Message: msg, Code: code}
		e.emitTo(em, emit.Event{RunID: runID, Step: step, NodeID: currentNode, Msg: emit.MsgError,
			Meta: map[string]interface{}{"error": err.Error(), "code": code}})
		e.recordOutcome(StatusFailed)
		return RunResult[S]{Status: StatusFailed, State: currentState, Step: step}, err
	}

	for {
		step++

		if step > e.opts.MaxSteps {
			step--
			return fail(CodeMaxStepsExceeded, "run exceeded the step budget")
		}

		select {
		case <-ctx.Done():
			step--
			e.emitTo(em, emit.Event{RunID: runID, Step: step, NodeID: currentNode, Msg: emit.MsgCancelled})
			e.recordOutcome(StatusCancelled)
			return RunResult[S]{Status: StatusCancelled, State: currentState, Step: step}, nil
		default:
		}

		e.mu.RLock()
		nodeImpl, exists := e.nodes[currentNode]
		policy, hasPolicy := e.policies[currentNode]
		e.mu.RUnlock()

		if !exists {
			return fail(CodeNodeNotFound, "node not found during execution: "+currentNode)
		}

		e.emitTo(em, emit.Event{RunID: runID, Step: step, NodeID: currentNode, Msg: emit.MsgNodeStart})

		var nodePolicy *NodePolicy
		if hasPolicy {
			nodePolicy = &policy
		}

		started := time.Now()
		result, timeoutErr := executeNodeWithTimeout(ctx, nodeImpl, currentNode, currentState, nodePolicy, e.opts.DefaultNodeTimeout)

		if timeoutErr != nil {
			e.recordStep(currentNode, time.Since(started), "timeout")
			e.emitTo(em, emit.Event{RunID: runID, Step: step, NodeID: currentNode, Msg: emit.MsgError,
				Meta: map[string]interface{}{"error": timeoutErr.Error(), "code": CodeNodeTimeout}})
			e.recordOutcome(StatusFailed)
			return RunResult[S]{Status: StatusFailed, State: currentState, Step: step}, timeoutErr
		}

		if result.Err != nil {
			// A failing node may still attach context (an error log
			// entry) in its delta; merge and checkpoint it so the
			// failure is visible when the run is read back.
			currentState = e.reducer(currentState, result.Delta)
			_ = e.store.SaveStep(ctx, runID, step, currentNode, currentState)
			e.recordStep(currentNode, time.Since(started), "error")
			e.emitTo(em, emit.Event{RunID: runID, Step: step, NodeID: currentNode, Msg: emit.MsgError,
				Meta: map[string]interface{}{"error": result.Err.Error()}})
			e.recordOutcome(StatusFailed)
			return RunResult[S]{Status: StatusFailed, State: currentState, Step: step}, result.Err
		}

		currentState = e.reducer(currentState, result.Delta)
		e.recordStep(currentNode, time.Since(started), "success")

		// Resolve routing before persisting so a suspension is recorded
		// in the checkpoint itself. ResumeWith keys off the marker.
		nextNode, terminal, awaitReason, routeErr := e.resolveRoute(currentNode, result.Route, currentState)
		if routeErr != nil {
			e.emitTo(em, emit.Event{RunID: runID, Step: step, NodeID: currentNode, Msg: emit.MsgError,
				Meta: map[string]interface{}{"error": routeErr.Error()}})
			e.recordOutcome(StatusFailed)
			return RunResult[S]{Status: StatusFailed, State: currentState, Step: step}, routeErr
		}

		checkpointNode := currentNode
		if awaitReason != "" {
			checkpointNode = Suspend
		}
		if err := e.store.SaveStep(ctx, runID, step, checkpointNode, currentState); err != nil {
			return fail(CodeStoreError, "failed to save step: "+err.Error())
		}

		e.emitTo(em, emit.Event{RunID: runID, Step: step, NodeID: currentNode, Msg: emit.MsgNodeEnd,
			Meta: map[string]interface{}{"duration_ms": time.Since(started).Milliseconds()}})

		if awaitReason != "" {
			e.emitTo(em, emit.Event{RunID: runID, Step: step, NodeID: currentNode, Msg: emit.MsgSuspended,
				Meta: map[string]interface{}{"reason": awaitReason}})
			e.recordSuspension()
			e.recordOutcome(StatusSuspended)
			return RunResult[S]{Status: StatusSuspended, State: currentState, Step: step, Reason: awaitReason}, nil
		}

		if terminal {
			e.emitTo(em, emit.Event{RunID: runID, Step: step, NodeID: currentNode, Msg: emit.MsgComplete})
			e.recordOutcome(StatusCompleted)
			return RunResult[S]{Status: StatusCompleted, State: currentState, Step: step}, nil
		}

		currentNode = nextNode
	}
}

// resolveRoute turns a node's routing decision plus the graph topology
// into the next hop. Precedence: explicit route, router edge, predicate
// edges.
func (e *Engine[S]) resolveRoute(from string, route Next, state S) (next string, terminal bool, awaitReason string, err error) {
	if route.AwaitReason != "" {
		return "", false, route.AwaitReason, nil
	}
	if route.Terminal {
		return "", true, "", nil
	}
	if route.To != "" {
		if route.To == End {
			return "", true, "", nil
		}
		return route.To, false, "", nil
	}

	e.mu.RLock()
	re, hasRouter := e.routers[from]
	e.mu.RUnlock()

	if hasRouter {
		label := re.router(state)
		dest, ok := re.branches[label]
		if !ok {
			return "", false, "", &EngineError{
				Message: "router returned unknown branch " + label + " from node " + from,
				Code:    CodeUnknownBranch,
			}
		}
		switch dest {
		case End:
			return "", true, "", nil
		case Suspend:
			return "", false, label, nil
		default:
			return dest, false, "", nil
		}
	}

	dest := e.evaluateEdges(from, state)
	if dest == "" {
		return "", false, "", &EngineError{
			Message: "no valid route from node: " + from,
			Code:    CodeNoRoute,
		}
	}
	if dest == End {
		return "", true, "", nil
	}
	return dest, false, "", nil
}

// evaluateEdges finds the first matching predicate edge from the given
// node. Edges are checked in insertion order; a nil predicate always
// matches. Returns empty string if no edge matches.
func (e *Engine[S]) evaluateEdges(fromNode string, state S) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, edge := range e.edges {
		if edge.From != fromNode {
			continue
		}
		if edge.When == nil || edge.When(state) {
			return edge.To
		}
	}
	return ""
}

func (e *Engine[S]) emitTo(em emit.Emitter, event emit.Event) {
	if em != nil {
		em.Emit(event)
	}
}

func (e *Engine[S]) recordStep(nodeID string, latency time.Duration, status string) {
	if e.metrics != nil {
		e.metrics.RecordStep(nodeID, latency, status)
	}
}

func (e *Engine[S]) recordSuspension() {
	if e.metrics != nil {
		e.metrics.IncSuspensions()
	}
}

func (e *Engine[S]) recordOutcome(status Status) {
	if e.metrics != nil {
		e.metrics.IncRunOutcome(string(status))
	}
}
