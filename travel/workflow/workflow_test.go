package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tripflow-ai/tripflow/cache"
	"github.com/tripflow-ai/tripflow/config"
	"github.com/tripflow-ai/tripflow/graph"
	"github.com/tripflow-ai/tripflow/graph/emit"
	"github.com/tripflow-ai/tripflow/graph/store"
	"github.com/tripflow-ai/tripflow/oracle"
	"github.com/tripflow-ai/tripflow/travel"
	"github.com/tripflow-ai/tripflow/travel/sources"
)

// Canned model responses for a single-city Jaipur trip. One city keeps
// the research fan-out to a single call, so the mock's response queue
// lines up with the node order.
const (
	clarifyOK = `{"needs_clarification": false, "questions": [], "inferred": {"duration_days": 5, "destination_country": "India", "destination_cities": ["Jaipur"]}}`

	clarifyAsk = `{"needs_clarification": true, "questions": [{"question_id": "travel_dates", "question_text": "When are you traveling?", "question_type": "travel_dates", "required": true}], "inferred": {}}`

	plannerResp = `{"trip_understanding": "Five cultural days in Jaipur", "total_days": 5,
		"budget_level": "mid_range", "traveler_profile": "couple", "travel_style": "cultural",
		"city_allocations": [{"city": "Jaipur", "country": "India", "days": 5, "visit_order": 1, "highlights": ["Amber Fort"]}],
		"overall_strategy": "Slow immersion in one city"}`

	geographyResp = `{"route_is_valid": true, "original_order": ["Jaipur"], "optimized_order": ["Jaipur"],
		"route_changed": false, "route_segments": [], "total_travel_time_hours": 0, "total_distance_km": 0}`

	researchResp = `{"city": "Jaipur", "attractions_found": [
		{"name": "Amber Fort", "city": "Jaipur", "category": "fort", "estimated_duration_hours": 3},
		{"name": "City Palace", "city": "Jaipur", "category": "palace", "estimated_duration_hours": 2},
		{"name": "Hawa Mahal", "city": "Jaipur", "category": "landmark", "estimated_duration_hours": 1}],
		"sources_browsed": ["https://example.com/jaipur"]}`

	foodResp = `{"city": "Jaipur", "must_try_dishes": ["Dal Baati Churma"],
		"restaurant_recommendations": [
			{"meal_type": "breakfast", "restaurant_name": "LMB", "cuisine_type": "Rajasthani", "budget_level": "mid_range", "estimated_cost_usd": 8},
			{"meal_type": "dinner", "restaurant_name": "Suvarna Mahal", "cuisine_type": "Rajasthani", "budget_level": "mid_range", "estimated_cost_usd": 30}],
		"cultural_dos": ["Dress modestly at temples"]}`

	budgetResp = `{"inter_city_options": [],
		"local_transport_recommendations": [{"city": "Jaipur", "tips": ["Use metered auto-rickshaws"]}],
		"budget_breakdown": {"transport_inter_city": 0, "transport_local": 50, "accommodation": 300,
			"food": 150, "activities_entrance_fees": 60, "miscellaneous": 40, "total": 0, "currency": "USD"},
		"money_saving_tips": ["Buy composite monument tickets"]}`

	criticApprove = `{"is_valid": true, "overall_score": 88, "issues": [], "requires_replanning": false,
		"strengths": ["Relaxed pacing"], "final_recommendations": ["Carry small cash for entrance fees"]}`

	criticReject = `{"is_valid": false, "overall_score": 40,
		"issues": [{"category": "logistics", "description": "Day 3 is physically impossible", "severity": "critical", "suggested_fix": "Drop one fort"}],
		"requires_replanning": true, "replan_focus": "pacing", "replan_instructions": "Spread the forts across days"}`
)

// happyPath covers every model-backed node once, clarification through
// critic approval.
func happyPath() []string {
	return []string{clarifyOK, plannerResp, geographyResp, researchResp, foodResp, budgetResp, criticApprove}
}

func testSettings() *config.Settings {
	return &config.Settings{
		PrimaryModel:        "gpt-4o",
		FastModel:           "gpt-4o-mini",
		MaxReplanIterations: 3,
		MaxGraphSteps:       40,
		FanoutLimit:         8,
		OracleTimeout:       30 * time.Second,
		ScrapeTimeout:       30 * time.Second,
	}
}

func newTestService(t *testing.T, caller oracle.Caller) *Service {
	t.Helper()
	service, err := NewService(Deps{
		Caller:   caller,
		Settings: testSettings(),
		Store:    store.NewMemStore[travel.TripState](),
		Emitter:  emit.NewNullEmitter(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return service
}

const testRequest = "Plan a 5-day cultural trip to Jaipur, India for a couple on a mid-range budget"

func TestPlanningFlow(t *testing.T) {
	mock := oracle.NewMockCaller(happyPath()...)
	service := newTestService(t, mock)

	session, err := service.StartSession(context.Background(), testRequest)
	if err != nil {
		t.Fatal(err)
	}

	if session.Status != graph.StatusCompleted {
		t.Fatalf("status = %s, want %s", session.Status, graph.StatusCompleted)
	}
	if mock.CallCount() != 7 {
		t.Errorf("model calls = %d, want 7", mock.CallCount())
	}

	itinerary := session.State.FinalItinerary
	if itinerary == nil {
		t.Fatal("completed session has no itinerary")
	}
	if itinerary.TripTitle != "5-Day India" {
		t.Errorf("title = %q", itinerary.TripTitle)
	}
	if len(itinerary.DailyPlans) != 5 {
		t.Errorf("daily plans = %d, want 5", len(itinerary.DailyPlans))
	}
	if session.State.ValidationResult == nil || !session.State.ValidationResult.IsValid {
		t.Error("validation result missing or not approved")
	}

	// The checkpoint matches what the run returned.
	loaded, err := service.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Status != graph.StatusCompleted || loaded.Step != session.Step {
		t.Errorf("loaded session = %s step %d, run ended %s step %d",
			loaded.Status, loaded.Step, session.Status, session.Step)
	}
}

func TestClarificationSuspendAndResume(t *testing.T) {
	mock := oracle.NewMockCaller(clarifyAsk)
	service := newTestService(t, mock)

	session, err := service.StartSession(context.Background(), "Plan me a trip somewhere in India")
	if err != nil {
		t.Fatal(err)
	}
	if session.Status != graph.StatusSuspended {
		t.Fatalf("status = %s, want %s", session.Status, graph.StatusSuspended)
	}
	if session.Reason != branchWaitForAnswers {
		t.Errorf("suspension reason = %q, want %q", session.Reason, branchWaitForAnswers)
	}
	if len(session.State.ClarificationQuestions) != 1 {
		t.Fatalf("questions = %v", session.State.ClarificationQuestions)
	}

	loaded, err := service.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Status != graph.StatusSuspended {
		t.Errorf("checkpoint status = %s, want %s", loaded.Status, graph.StatusSuspended)
	}

	mock.Enqueue(plannerResp, geographyResp, researchResp, foodResp, budgetResp, criticApprove)
	resumed, err := service.ResumeSession(context.Background(), session.ID, map[string]string{
		"travel_dates": "2026-02-10 to 2026-02-14",
		"origin_city":  "Delhi",
	})
	if err != nil {
		t.Fatal(err)
	}

	if resumed.Status != graph.StatusCompleted {
		t.Fatalf("resumed status = %s, want %s", resumed.Status, graph.StatusCompleted)
	}
	if resumed.State.FinalItinerary == nil {
		t.Fatal("resumed session has no itinerary")
	}
	if resumed.State.OriginCity != "Delhi" {
		t.Errorf("origin = %q, answers not processed", resumed.State.OriginCity)
	}
	if !strings.Contains(resumed.State.UserRequest, "IMPORTANT - Traveling from: Delhi") {
		t.Error("request not enriched with the answers")
	}
	if resumed.Step <= session.Step {
		t.Errorf("resumed step %d did not advance past suspension step %d", resumed.Step, session.Step)
	}
}

func TestReplanLoop(t *testing.T) {
	responses := []string{clarifyOK, plannerResp, geographyResp, researchResp, foodResp, budgetResp, criticReject}
	responses = append(responses, plannerResp, geographyResp, researchResp, foodResp, budgetResp, criticApprove)
	mock := oracle.NewMockCaller(responses...)
	service := newTestService(t, mock)

	session, err := service.StartSession(context.Background(), testRequest)
	if err != nil {
		t.Fatal(err)
	}

	if session.Status != graph.StatusCompleted {
		t.Fatalf("status = %s, want %s", session.Status, graph.StatusCompleted)
	}
	if mock.CallCount() != 13 {
		t.Errorf("model calls = %d, want 13 (two full passes)", mock.CallCount())
	}
	if session.State.IterationCount != 1 {
		t.Errorf("iteration count = %d, want 1", session.State.IterationCount)
	}
	if session.State.FinalItinerary == nil {
		t.Fatal("replanned session has no itinerary")
	}

	replanned := false
	for _, msg := range session.State.Messages {
		if strings.Contains(msg.Content, "Re-planned") {
			replanned = true
		}
	}
	if !replanned {
		t.Error("no re-planning message recorded")
	}
}

// cancelCaller cancels the run context right after the first model call
// succeeds, so the engine observes cancellation between nodes.
type cancelCaller struct {
	inner  oracle.Caller
	cancel context.CancelFunc
}

func (c *cancelCaller) StructuredCall(ctx context.Context, req oracle.Request, out any) error {
	err := c.inner.StructuredCall(ctx, req, out)
	c.cancel()
	return err
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	caller := &cancelCaller{inner: oracle.NewMockCaller(happyPath()...), cancel: cancel}
	service := newTestService(t, caller)

	session, err := service.StartSession(ctx, testRequest)
	if err != nil {
		t.Fatalf("cancellation should not be an error, got %v", err)
	}
	if session.Status != graph.StatusCancelled {
		t.Errorf("status = %s, want %s", session.Status, graph.StatusCancelled)
	}

	// The partial checkpoint survives.
	loaded, err := service.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.State.FinalItinerary != nil {
		t.Error("cancelled run should not have an itinerary")
	}
}

func TestStartSessionRejectsShortRequests(t *testing.T) {
	service := newTestService(t, oracle.NewMockCaller(`{}`))

	if _, err := service.StartSession(context.Background(), "Goa"); !errors.Is(err, ErrInputInvalid) {
		t.Errorf("err = %v, want ErrInputInvalid", err)
	}
	if _, _, err := service.StreamSession(context.Background(), "   "); !errors.Is(err, ErrInputInvalid) {
		t.Errorf("stream err = %v, want ErrInputInvalid", err)
	}
}

func TestResumeRequiresSuspension(t *testing.T) {
	mock := oracle.NewMockCaller(happyPath()...)
	service := newTestService(t, mock)

	session, err := service.StartSession(context.Background(), testRequest)
	if err != nil {
		t.Fatal(err)
	}

	_, err = service.ResumeSession(context.Background(), session.ID, map[string]string{"travel_dates": "March"})
	if !errors.Is(err, graph.ErrNotSuspended) {
		t.Errorf("err = %v, want ErrNotSuspended", err)
	}
}

func TestCancelSessionDiscardsCheckpoints(t *testing.T) {
	mock := oracle.NewMockCaller(clarifyAsk)
	service := newTestService(t, mock)

	session, err := service.StartSession(context.Background(), "Plan me a trip somewhere in India")
	if err != nil {
		t.Fatal(err)
	}

	if err := service.CancelSession(context.Background(), session.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := service.GetSession(context.Background(), session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

// Two-city responses for cache tests: one route segment means the
// price scraper has a leg to quote.
const (
	plannerTwoCity = `{"trip_understanding": "Rajasthan loop", "total_days": 5,
		"budget_level": "mid_range", "traveler_profile": "couple", "travel_style": "cultural",
		"city_allocations": [
			{"city": "Jaipur", "country": "India", "days": 3, "visit_order": 1},
			{"city": "Udaipur", "country": "India", "days": 2, "visit_order": 2}],
		"overall_strategy": "North to south"}`

	geographyTwoCity = `{"route_is_valid": true, "original_order": ["Jaipur", "Udaipur"],
		"optimized_order": ["Jaipur", "Udaipur"], "route_changed": false,
		"route_segments": [{"from_city": "Jaipur", "to_city": "Udaipur", "distance_km": 395,
			"recommended_transport": "train", "travel_time_hours": 7, "is_feasible": true}]}`
)

func TestSecondSessionHitsSourceCache(t *testing.T) {
	transport := sources.NewMockTransportSource(sources.SourceRome2Rio)
	registry := sources.NewRegistry()
	registry.RegisterTransport(transport)

	// Research fans out two concurrent calls, so its two responses must
	// be identical; the second session's food answers come from the
	// cache, so its queue has no food entries.
	mock := oracle.NewMockCaller(
		clarifyOK, plannerTwoCity, geographyTwoCity, researchResp, researchResp, foodResp, foodResp, budgetResp, criticApprove,
		clarifyOK, plannerTwoCity, geographyTwoCity, researchResp, researchResp, budgetResp, criticApprove,
	)

	service, err := NewService(Deps{
		Caller:   mock,
		Settings: testSettings(),
		Store:    store.NewMemStore[travel.TripState](),
		Emitter:  emit.NewNullEmitter(),
		Registry: registry,
		Cache:    cache.NewMemCache(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}

	first, err := service.StartSession(context.Background(), testRequest)
	if err != nil {
		t.Fatal(err)
	}
	if first.Status != graph.StatusCompleted {
		t.Fatalf("first session status = %s", first.Status)
	}
	if len(first.State.ScrapedTransportPrices) == 0 || first.State.ScrapedTransportPrices[0].FromCache {
		t.Fatalf("first session prices = %+v, want a live quote", first.State.ScrapedTransportPrices)
	}
	if len(transport.Queries) != 1 {
		t.Fatalf("source queried %d times in first session, want 1", len(transport.Queries))
	}

	second, err := service.StartSession(context.Background(), testRequest)
	if err != nil {
		t.Fatal(err)
	}
	if second.Status != graph.StatusCompleted {
		t.Fatalf("second session status = %s", second.Status)
	}

	if len(transport.Queries) != 1 {
		t.Errorf("source queried %d times across two sessions, want the cache to absorb the repeat", len(transport.Queries))
	}
	if len(second.State.ScrapedTransportPrices) == 0 || !second.State.ScrapedTransportPrices[0].FromCache {
		t.Errorf("second session prices = %+v, want a cache-marked quote", second.State.ScrapedTransportPrices)
	}
	if mock.CallCount() != 16 {
		t.Errorf("model calls = %d, want 16 (food served from cache on the repeat)", mock.CallCount())
	}
}

// failingCaller serves from inner until call number failAt, which errors.
type failingCaller struct {
	inner  oracle.Caller
	failAt int
	calls  int
}

func (f *failingCaller) StructuredCall(ctx context.Context, req oracle.Request, out any) error {
	f.calls++
	if f.calls == f.failAt {
		return errors.New("model unavailable")
	}
	return f.inner.StructuredCall(ctx, req, out)
}

func TestNodeFailureLeavesMessageInCheckpoint(t *testing.T) {
	caller := &failingCaller{inner: oracle.NewMockCaller(clarifyOK), failAt: 2}
	service := newTestService(t, caller)

	session, err := service.StartSession(context.Background(), testRequest)
	if err == nil {
		t.Fatal("planner failure should surface as an error")
	}
	if session.Status != graph.StatusFailed {
		t.Fatalf("status = %s, want %s", session.Status, graph.StatusFailed)
	}

	loaded, err := service.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Status != graph.StatusInProgress {
		t.Errorf("checkpoint status = %s, want %s", loaded.Status, graph.StatusInProgress)
	}

	found := false
	for _, msg := range loaded.State.Messages {
		if strings.Contains(msg.Content, "[planner] error:") {
			found = true
		}
	}
	if !found {
		t.Errorf("no failure entry in the conversation log: %+v", loaded.State.Messages)
	}
}

func TestStreamSession(t *testing.T) {
	mock := oracle.NewMockCaller(happyPath()...)
	service := newTestService(t, mock)

	id, events, err := service.StreamSession(context.Background(), testRequest)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("stream session has no ID")
	}

	var sawNodeStart, sawComplete bool
	for ev := range events {
		switch ev.Msg {
		case emit.MsgNodeStart:
			sawNodeStart = true
		case emit.MsgComplete:
			sawComplete = true
		case emit.MsgError:
			t.Errorf("unexpected error event: %v", ev.Meta)
		}
	}
	if !sawNodeStart || !sawComplete {
		t.Errorf("events missing: node_start=%v complete=%v", sawNodeStart, sawComplete)
	}
}
