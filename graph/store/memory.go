package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemStore is an in-memory implementation of Store[S].
//
// Designed for tests, development, and single-process sessions where
// persistence across restarts is not required. Thread-safe.
//
// State values are snapshotted via a JSON round trip on save, so later
// mutation of the caller's value cannot corrupt history. S must be
// JSON-serializable.
type MemStore[S any] struct {
	mu    sync.RWMutex
	steps map[string][]StepRecord[S] // runID -> ordered steps
}

// NewMemStore creates a new in-memory store.
func NewMemStore[S any]() *MemStore[S] {
	return &MemStore[S]{
		steps: make(map[string][]StepRecord[S]),
	}
}

// SaveStep persists a workflow execution step.
func (m *MemStore[S]) SaveStep(_ context.Context, runID string, step int, nodeID string, state S) error {
	snapshot, err := cloneState(state)
	if err != nil {
		return fmt.Errorf("snapshot state: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.steps[runID] = append(m.steps[runID], StepRecord[S]{
		Step:   step,
		NodeID: nodeID,
		State:  snapshot,
	})
	return nil
}

// LoadLatest retrieves the record with the highest step number for a run.
// Handles out-of-order saves correctly.
func (m *MemStore[S]) LoadLatest(_ context.Context, runID string) (state S, step int, nodeID string, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records, exists := m.steps[runID]
	if !exists || len(records) == 0 {
		var zero S
		return zero, 0, "", ErrNotFound
	}

	latest := records[0]
	for _, record := range records[1:] {
		if record.Step > latest.Step {
			latest = record
		}
	}
	return latest.State, latest.Step, latest.NodeID, nil
}

// Delete removes all steps for a run.
func (m *MemStore[S]) Delete(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.steps, runID)
	return nil
}

// History returns a copy of the full step history for a run, in save
// order. Useful in tests for asserting checkpoint progression.
func (m *MemStore[S]) History(runID string) []StepRecord[S] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.steps[runID]
	out := make([]StepRecord[S], len(records))
	copy(out, records)
	return out
}

func cloneState[S any](state S) (S, error) {
	var zero S
	data, err := json.Marshal(state)
	if err != nil {
		return zero, err
	}
	var copied S
	if err := json.Unmarshal(data, &copied); err != nil {
		return zero, err
	}
	return copied, nil
}
