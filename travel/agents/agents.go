// Package agents implements the workflow workers: clarification,
// planning, routing, research, food and culture, price scraping,
// budgeting, validation, and final assembly. Each worker is a graph
// node over travel.TripState; model-backed workers call through
// oracle.Caller so any provider (or the mock) can serve them.
package agents

import (
	"context"
	"fmt"
	"sort"

	"github.com/tripflow-ai/tripflow/config"
	"github.com/tripflow-ai/tripflow/graph"
	"github.com/tripflow-ai/tripflow/oracle"
	"github.com/tripflow-ai/tripflow/travel"
)

// Node IDs in the planning workflow.
const (
	NodeClarification   = "clarification"
	NodeProcessAnswers  = "process_answers"
	NodePlanner         = "planner"
	NodeGeography       = "geography"
	NodeResearch        = "research"
	NodeFoodCulture     = "food_culture"
	NodePriceScraper    = "price_scraper"
	NodeTransportBudget = "transport_budget"
	NodeCritic          = "critic"
	NodeFinalize        = "finalize"
)

// worker holds what every model-backed node needs.
type worker struct {
	name     string
	caller   oracle.Caller
	settings *config.Settings
}

// ask performs one structured model call for this worker with its
// configured model tier and temperature.
func (w *worker) ask(ctx context.Context, system, prompt string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, w.settings.OracleTimeout)
	defer cancel()

	err := w.caller.StructuredCall(ctx, oracle.Request{
		System:      system,
		Prompt:      prompt,
		Model:       w.settings.ModelFor(w.name),
		Temperature: w.settings.TemperatureFor(w.name),
	}, out)
	if err != nil {
		return fmt.Errorf("%s worker: %w", w.name, err)
	}
	return nil
}

// note builds the conversation-log entry a node appends to the state.
func note(name, format string, args ...any) travel.Message {
	return travel.Message{
		Role:    "assistant",
		Content: fmt.Sprintf("[%s] %s", name, fmt.Sprintf(format, args...)),
	}
}

// failNode wraps a worker error in the routing result. The delta
// carries an error entry for the conversation log; the engine merges
// and checkpoints it before failing the run, so a failed session reads
// back with its cause.
func failNode(name string, err error) graph.NodeResult[travel.TripState] {
	return graph.NodeResult[travel.TripState]{
		Err:   err,
		Delta: travel.TripState{Messages: []travel.Message{note(name, "error: %v", err)}},
	}
}

// sortAllocations returns the allocations ordered by visit order
// without mutating the input.
func sortAllocations(allocations []travel.CityAllocation) []travel.CityAllocation {
	out := make([]travel.CityAllocation, len(allocations))
	copy(out, allocations)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].VisitOrder < out[j].VisitOrder
	})
	return out
}
