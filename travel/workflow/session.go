package workflow

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/tripflow-ai/tripflow/graph"
	"github.com/tripflow-ai/tripflow/graph/emit"
	"github.com/tripflow-ai/tripflow/graph/store"
	"github.com/tripflow-ai/tripflow/travel"
	"github.com/tripflow-ai/tripflow/travel/agents"
)

// Requests shorter than this carry too little signal to plan from.
const minRequestLen = 10

var (
	// ErrInputInvalid rejects requests too short to plan from.
	ErrInputInvalid = errors.New("trip request is too short")

	// ErrSessionNotFound reports an unknown session ID.
	ErrSessionNotFound = errors.New("session not found")
)

// Session is a point-in-time view of a planning run.
type Session struct {
	ID     string           `json:"id"`
	Status graph.Status     `json:"status"`
	Step   int              `json:"step"`
	Reason string           `json:"reason,omitempty"`
	State  travel.TripState `json:"state"`
}

// Service runs planning sessions on top of the graph. Each session is
// one workflow run, keyed by a generated ID, checkpointed in the store
// after every node.
type Service struct {
	engine  *graph.Engine[travel.TripState]
	store   store.Store[travel.TripState]
	metrics *graph.Metrics
}

// NewService builds the planning graph and wraps it in a session API.
func NewService(deps Deps) (*Service, error) {
	eng, err := Build(deps)
	if err != nil {
		return nil, err
	}
	return &Service{engine: eng, store: deps.Store, metrics: deps.Metrics}, nil
}

// StartSession runs a new planning session to completion or suspension.
func (s *Service) StartSession(ctx context.Context, userRequest string) (Session, error) {
	if len(strings.TrimSpace(userRequest)) < minRequestLen {
		return Session{}, ErrInputInvalid
	}
	id := uuid.NewString()
	if s.metrics != nil {
		s.metrics.SessionStarted()
	}

	result, err := s.engine.Run(ctx, id, travel.NewTripState(userRequest))
	s.noteOutcome(result.Status)
	session := Session{ID: id, Status: result.Status, Step: result.Step, Reason: result.Reason, State: result.State}
	return session, err
}

// ResumeSession feeds clarification answers into a suspended session
// and resumes planning. Returns graph.ErrNotSuspended when the session
// is not waiting for input.
func (s *Service) ResumeSession(ctx context.Context, id string, answers map[string]string) (Session, error) {
	if s.metrics != nil {
		s.metrics.SessionStarted()
	}
	delta := travel.TripState{ClarificationAnswers: answers}
	result, err := s.engine.ResumeWith(ctx, id, delta, agents.NodeProcessAnswers)
	s.noteOutcome(result.Status)
	session := Session{ID: id, Status: result.Status, Step: result.Step, Reason: result.Reason, State: result.State}
	return session, err
}

// GetSession reads the latest checkpoint of a session.
func (s *Service) GetSession(ctx context.Context, id string) (Session, error) {
	state, step, nodeID, err := s.store.LoadLatest(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}

	status := graph.StatusCompleted
	switch {
	case nodeID == graph.Suspend:
		status = graph.StatusSuspended
	case state.FinalItinerary == nil:
		// Mid-run checkpoint: the run either failed or is in flight.
		status = graph.StatusInProgress
	}
	return Session{ID: id, Status: status, Step: step, State: state}, nil
}

// CancelSession discards a session and its checkpoints.
func (s *Service) CancelSession(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.SessionEnded()
	}
	return nil
}

// StreamSession starts a new session and streams node events as the
// run progresses. The channel closes when the run settles.
func (s *Service) StreamSession(ctx context.Context, userRequest string) (string, <-chan emit.Event, error) {
	if len(strings.TrimSpace(userRequest)) < minRequestLen {
		return "", nil, ErrInputInvalid
	}
	id := uuid.NewString()
	if s.metrics != nil {
		s.metrics.SessionStarted()
	}
	return id, s.engine.Stream(ctx, id, travel.NewTripState(userRequest)), nil
}

func (s *Service) noteOutcome(status graph.Status) {
	if s.metrics == nil {
		return
	}
	if status != graph.StatusSuspended {
		s.metrics.SessionEnded()
	}
}
