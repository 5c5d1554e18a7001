// Package server is the HTTP boundary: REST endpoints for planning
// sessions, an SSE stream of workflow events, cache administration,
// and prometheus metrics.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tripflow-ai/tripflow/cache"
	"github.com/tripflow-ai/tripflow/graph"
	"github.com/tripflow-ai/tripflow/graph/emit"
	"github.com/tripflow-ai/tripflow/travel/workflow"
)

// Server exposes the planning service over HTTP.
type Server struct {
	service *workflow.Service
	cache   cache.Cache

	mu      sync.Mutex
	streams map[string]<-chan emit.Event
}

// New creates the HTTP server. The cache is optional; without one the
// cache endpoints respond 404.
func New(service *workflow.Service, c cache.Cache) *Server {
	return &Server{
		service: service,
		cache:   c,
		streams: make(map[string]<-chan emit.Event),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/plan", s.CreatePlan)
	r.POST("/sessions/:id/answers", s.SubmitAnswers)
	r.GET("/sessions/:id", s.GetSession)
	r.DELETE("/sessions/:id", s.CancelSession)
	r.GET("/sessions/:id/stream", s.StreamEvents)

	if s.cache != nil {
		r.GET("/cache/stats", s.CacheStats)
		r.POST("/cache/clear", s.CacheClear)
	}

	r.GET("/health", s.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// PlanRequest is the body of POST /plan.
type PlanRequest struct {
	Request string `json:"request" binding:"required"`
	Stream  bool   `json:"stream"`
}

// CreatePlan handles POST /plan. With "stream": true it starts the run
// in the background and returns the session ID plus the SSE stream URL;
// otherwise it runs the session to completion or suspension and returns
// the full session.
func (s *Server) CreatePlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Stream {
		id, events, err := s.service.StreamSession(c.Request.Context(), req.Request)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		s.mu.Lock()
		s.streams[id] = events
		s.mu.Unlock()
		c.JSON(http.StatusAccepted, gin.H{"id": id, "stream": "/sessions/" + id + "/stream"})
		return
	}

	session, err := s.service.StartSession(c.Request.Context(), req.Request)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "session": session})
		return
	}
	c.JSON(http.StatusOK, session)
}

// AnswersRequest is the body of POST /sessions/:id/answers.
type AnswersRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

// SubmitAnswers handles POST /sessions/:id/answers, resuming a
// suspended session with the user's clarification answers.
func (s *Server) SubmitAnswers(c *gin.Context) {
	var req AnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := s.service.ResumeSession(c.Request.Context(), c.Param("id"), req.Answers)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "session": session})
		return
	}
	c.JSON(http.StatusOK, session)
}

// GetSession handles GET /sessions/:id.
func (s *Server) GetSession(c *gin.Context) {
	session, err := s.service.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

// CancelSession handles DELETE /sessions/:id.
func (s *Server) CancelSession(c *gin.Context) {
	id := c.Param("id")
	if err := s.service.CancelSession(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.mu.Lock()
	delete(s.streams, id)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// StreamEvents handles GET /sessions/:id/stream. It attaches to the
// event channel of a session started with "stream": true and relays
// workflow events as SSE until the run settles. Each stream has a
// single consumer; a second attach gets 404.
func (s *Server) StreamEvents(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	events, ok := s.streams[id]
	delete(s.streams, id)
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no live stream for session"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, open := <-events:
			if !open {
				return false
			}
			c.SSEvent("message", s.enrich(c.Request.Context(), id, wireEvent(ev), ev.Msg))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// enrich attaches session state to the terminal stream events: the
// final itinerary on completion, the pending questions on suspension.
func (s *Server) enrich(ctx context.Context, id string, out WireEvent, msg string) WireEvent {
	if msg != emit.MsgComplete && msg != emit.MsgSuspended {
		return out
	}
	session, err := s.service.GetSession(ctx, id)
	if err != nil {
		return out
	}
	payload := make(map[string]interface{}, len(out.Payload)+1)
	for k, v := range out.Payload {
		payload[k] = v
	}
	switch msg {
	case emit.MsgComplete:
		payload["itinerary"] = session.State.FinalItinerary
	case emit.MsgSuspended:
		payload["questions"] = session.State.ClarificationQuestions
	}
	out.Payload = payload
	return out
}

// CacheStats handles GET /cache/stats.
func (s *Server) CacheStats(c *gin.Context) {
	stats, err := s.cache.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CacheClear handles POST /cache/clear.
func (s *Server) CacheClear(c *gin.Context) {
	if err := s.cache.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// Health handles GET /health.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrInputInvalid):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, graph.ErrNotSuspended):
		return http.StatusConflict
	}
	var engineErr *graph.EngineError
	if errors.As(err, &engineErr) && engineErr.Code == graph.CodeRunNotFound {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
