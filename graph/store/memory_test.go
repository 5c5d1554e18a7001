package store

import (
	"context"
	"errors"
	"testing"
)

type demoState struct {
	Cities []string `json:"cities"`
	Phase  string   `json:"phase"`
}

func TestMemStoreSaveAndLoadLatest(t *testing.T) {
	st := NewMemStore[demoState]()
	ctx := context.Background()

	if err := st.SaveStep(ctx, "run-1", 1, "planner", demoState{Phase: "planning"}); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveStep(ctx, "run-1", 2, "critic", demoState{Phase: "validating", Cities: []string{"Rome"}}); err != nil {
		t.Fatal(err)
	}

	state, step, nodeID, err := st.LoadLatest(ctx, "run-1")
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if step != 2 || nodeID != "critic" {
		t.Errorf("got step=%d nodeID=%s, want 2/critic", step, nodeID)
	}
	if state.Phase != "validating" {
		t.Errorf("phase = %q, want validating", state.Phase)
	}
}

func TestMemStoreLoadLatestOutOfOrder(t *testing.T) {
	st := NewMemStore[demoState]()
	ctx := context.Background()

	_ = st.SaveStep(ctx, "run-1", 3, "c", demoState{Phase: "three"})
	_ = st.SaveStep(ctx, "run-1", 1, "a", demoState{Phase: "one"})

	state, step, _, err := st.LoadLatest(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if step != 3 || state.Phase != "three" {
		t.Errorf("got step=%d phase=%s, want highest step", step, state.Phase)
	}
}

func TestMemStoreNotFound(t *testing.T) {
	st := NewMemStore[demoState]()
	_, _, _, err := st.LoadLatest(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestMemStoreDelete(t *testing.T) {
	st := NewMemStore[demoState]()
	ctx := context.Background()

	_ = st.SaveStep(ctx, "run-1", 1, "a", demoState{})
	if err := st.Delete(ctx, "run-1"); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := st.LoadLatest(ctx, "run-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error after delete = %v, want ErrNotFound", err)
	}

	// Deleting a missing run is not an error.
	if err := st.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("delete of missing run errored: %v", err)
	}
}

func TestMemStoreSnapshotsState(t *testing.T) {
	st := NewMemStore[demoState]()
	ctx := context.Background()

	state := demoState{Cities: []string{"Rome"}}
	_ = st.SaveStep(ctx, "run-1", 1, "a", state)

	// Mutating the caller's slice must not change the stored record.
	state.Cities[0] = "Milan"

	loaded, _, _, err := st.LoadLatest(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Cities[0] != "Rome" {
		t.Errorf("stored city = %q, want Rome", loaded.Cities[0])
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	st, err := NewSQLiteStore[demoState](":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.SaveStep(ctx, "run-1", 1, "planner", demoState{Phase: "planning", Cities: []string{"Hanoi"}}); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveStep(ctx, "run-1", 2, "critic", demoState{Phase: "validating"}); err != nil {
		t.Fatal(err)
	}

	state, step, nodeID, err := st.LoadLatest(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if step != 2 || nodeID != "critic" || state.Phase != "validating" {
		t.Errorf("got step=%d node=%s phase=%s", step, nodeID, state.Phase)
	}

	if _, _, _, err := st.LoadLatest(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}

	if err := st.Delete(ctx, "run-1"); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := st.LoadLatest(ctx, "run-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error after delete = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStoreDuplicateStepRejected(t *testing.T) {
	st, err := NewSQLiteStore[demoState](":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.SaveStep(ctx, "run-1", 1, "a", demoState{}); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveStep(ctx, "run-1", 1, "a", demoState{}); err == nil {
		t.Error("duplicate (run, step) insert should fail")
	}
}
