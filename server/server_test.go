package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tripflow-ai/tripflow/cache"
	"github.com/tripflow-ai/tripflow/config"
	"github.com/tripflow-ai/tripflow/graph/emit"
	"github.com/tripflow-ai/tripflow/graph/store"
	"github.com/tripflow-ai/tripflow/oracle"
	"github.com/tripflow-ai/tripflow/travel"
	"github.com/tripflow-ai/tripflow/travel/workflow"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Canned model responses for a one-city run; one response per
// model-backed node in execution order.
var fullRun = []string{
	`{"needs_clarification": false, "questions": [], "inferred": {}}`,
	`{"trip_understanding": "ok", "total_days": 3, "budget_level": "mid_range",
	  "city_allocations": [{"city": "Jaipur", "country": "India", "days": 3, "visit_order": 1}]}`,
	`{"route_is_valid": true, "route_segments": []}`,
	`{"city": "Jaipur", "attractions_found": [{"name": "Amber Fort", "city": "Jaipur", "category": "fort", "estimated_duration_hours": 3}]}`,
	`{"city": "Jaipur", "must_try_dishes": ["Dal Baati"], "restaurant_recommendations": [{"meal_type": "dinner", "restaurant_name": "LMB", "estimated_cost_usd": 10}]}`,
	`{"budget_breakdown": {"accommodation": 150, "food": 90, "currency": "USD"}}`,
	`{"is_valid": true, "overall_score": 90, "issues": [], "requires_replanning": false}`,
}

const askClarification = `{"needs_clarification": true, "questions": [{"question_id": "travel_dates", "question_text": "When?", "question_type": "travel_dates", "required": true}], "inferred": {}}`

const planBody = `{"request": "Plan a 3-day cultural trip to Jaipur, India"}`

func newTestServer(t *testing.T, responses ...string) (*Server, *oracle.MockCaller) {
	t.Helper()
	mock := oracle.NewMockCaller(responses...)
	service, err := workflow.NewService(workflow.Deps{
		Caller: mock,
		Settings: &config.Settings{
			PrimaryModel:        "gpt-4o",
			FastModel:           "gpt-4o-mini",
			MaxReplanIterations: 3,
			MaxGraphSteps:       40,
			FanoutLimit:         8,
			OracleTimeout:       30 * time.Second,
			ScrapeTimeout:       30 * time.Second,
		},
		Store:   store.NewMemStore[travel.TripState](),
		Emitter: emit.NewNullEmitter(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(service, cache.NewMemCache(time.Hour)), mock
}

// closeNotifyRecorder adds the http.CloseNotifier implementation that
// gin's c.Stream requires but httptest.ResponseRecorder lacks.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (c *closeNotifyRecorder) CloseNotify() <-chan bool { return c.closed }

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(&closeNotifyRecorder{w, make(chan bool, 1)}, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) workflow.Session {
	t.Helper()
	var session workflow.Session
	if err := json.Unmarshal(w.Body.Bytes(), &session); err != nil {
		t.Fatalf("decoding session: %v\nbody: %s", err, w.Body.String())
	}
	return session
}

func TestCreatePlan(t *testing.T) {
	srv, _ := newTestServer(t, fullRun...)
	router := srv.Router()

	w := doJSON(t, router, http.MethodPost, "/plan", planBody)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	session := decodeSession(t, w)
	if session.Status != "completed" {
		t.Errorf("session status = %s", session.Status)
	}
	if session.State.FinalItinerary == nil {
		t.Error("no itinerary in response")
	}

	t.Run("session is readable afterwards", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/sessions/"+session.ID, "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	})
}

func TestCreatePlanRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t, fullRun...)
	router := srv.Router()

	t.Run("missing body", func(t *testing.T) {
		if w := doJSON(t, router, http.MethodPost, "/plan", `{}`); w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("request too short", func(t *testing.T) {
		if w := doJSON(t, router, http.MethodPost, "/plan", `{"request": "Goa"}`); w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestClarificationOverHTTP(t *testing.T) {
	srv, mock := newTestServer(t, askClarification)
	router := srv.Router()

	w := doJSON(t, router, http.MethodPost, "/plan", `{"request": "Plan me a trip somewhere warm"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	session := decodeSession(t, w)
	if session.Status != "suspended" {
		t.Fatalf("status = %s, want suspended", session.Status)
	}
	if len(session.State.ClarificationQuestions) != 1 {
		t.Fatalf("questions = %v", session.State.ClarificationQuestions)
	}

	mock.Enqueue(fullRun[1:]...)
	w = doJSON(t, router, http.MethodPost, "/sessions/"+session.ID+"/answers",
		`{"answers": {"travel_dates": "2026-03-01 to 2026-03-03"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("answers status = %d, body = %s", w.Code, w.Body.String())
	}
	resumed := decodeSession(t, w)
	if resumed.Status != "completed" || resumed.State.FinalItinerary == nil {
		t.Errorf("resumed = %s, itinerary present = %v", resumed.Status, resumed.State.FinalItinerary != nil)
	}

	t.Run("second resume conflicts", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/sessions/"+session.ID+"/answers",
			`{"answers": {"travel_dates": "June"}}`)
		if w.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", w.Code)
		}
	})
}

func TestAnswersForUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	w := doJSON(t, router, http.MethodPost, "/sessions/nope/answers", `{"answers": {"travel_dates": "June"}}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404, body = %s", w.Code, w.Body.String())
	}
}

func TestDeleteSession(t *testing.T) {
	srv, _ := newTestServer(t, fullRun...)
	router := srv.Router()

	session := decodeSession(t, doJSON(t, router, http.MethodPost, "/plan", planBody))

	if w := doJSON(t, router, http.MethodDelete, "/sessions/"+session.ID, ""); w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/sessions/"+session.ID, ""); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestStreamingPlan(t *testing.T) {
	srv, _ := newTestServer(t, fullRun...)
	router := srv.Router()

	w := doJSON(t, router, http.MethodPost, "/plan",
		`{"request": "Plan a 3-day cultural trip to Jaipur, India", "stream": true}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var accepted struct {
		ID     string `json:"id"`
		Stream string `json:"stream"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &accepted); err != nil {
		t.Fatal(err)
	}
	if accepted.ID == "" || accepted.Stream == "" {
		t.Fatalf("accepted = %+v", accepted)
	}

	sse := doJSON(t, router, http.MethodGet, accepted.Stream, "")
	if sse.Code != http.StatusOK {
		t.Fatalf("stream status = %d", sse.Code)
	}
	body := sse.Body.String()
	for _, want := range []string{"node_start", "node_end", "complete"} {
		if !strings.Contains(body, want) {
			t.Errorf("stream missing %q event\n%s", want, body)
		}
	}
	if !strings.Contains(body, `"itinerary"`) || !strings.Contains(body, "3-Day India") {
		t.Errorf("complete event missing the itinerary\n%s", body)
	}

	t.Run("stream is single consumer", func(t *testing.T) {
		if w := doJSON(t, router, http.MethodGet, accepted.Stream, ""); w.Code != http.StatusNotFound {
			t.Errorf("second attach = %d, want 404", w.Code)
		}
	})
}

func TestCacheEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	w := doJSON(t, router, http.MethodGet, "/cache/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	var stats cache.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}

	if w := doJSON(t, router, http.MethodPost, "/cache/clear", ""); w.Code != http.StatusOK {
		t.Errorf("clear status = %d", w.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	if w := doJSON(t, router, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("health = %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/metrics", ""); w.Code != http.StatusOK {
		t.Errorf("metrics = %d", w.Code)
	}
}
