package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockCaller is a deterministic Caller for tests. Responses are queued
// JSON documents returned in order; when the queue runs dry the last
// response repeats. Every request is recorded for assertions.
type MockCaller struct {
	mu        sync.Mutex
	responses []string
	index     int
	err       error

	// Calls records every request received, in order.
	Calls []Request
}

// NewMockCaller creates a mock that will serve the given JSON responses.
func NewMockCaller(responses ...string) *MockCaller {
	return &MockCaller{responses: responses}
}

// Enqueue appends more responses to the queue.
func (m *MockCaller) Enqueue(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

// Fail makes every subsequent call return err instead of a response.
func (m *MockCaller) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockCaller) StructuredCall(ctx context.Context, req Request, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	if m.err != nil {
		return m.err
	}
	if len(m.responses) == 0 {
		return fmt.Errorf("mock caller has no responses")
	}

	idx := m.index
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	} else {
		m.index++
	}
	return json.Unmarshal([]byte(m.responses[idx]), out)
}

// CallCount returns how many requests the mock has served.
func (m *MockCaller) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
