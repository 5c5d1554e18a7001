// Package workflow assembles the planning graph and exposes the
// session API on top of it.
package workflow

import (
	"fmt"

	"github.com/tripflow-ai/tripflow/cache"
	"github.com/tripflow-ai/tripflow/config"
	"github.com/tripflow-ai/tripflow/graph"
	"github.com/tripflow-ai/tripflow/graph/emit"
	"github.com/tripflow-ai/tripflow/graph/store"
	"github.com/tripflow-ai/tripflow/oracle"
	"github.com/tripflow-ai/tripflow/travel"
	"github.com/tripflow-ai/tripflow/travel/agents"
	"github.com/tripflow-ai/tripflow/travel/sources"
)

// Branch labels used by the conditional edges.
const (
	branchWaitForAnswers   = "wait_for_answers"
	branchProceedToPlanner = "proceed_to_planner"
	branchReplan           = "replan"
	branchFinalize         = "finalize"
)

// Deps carries everything the planning graph needs. A non-nil Cache
// puts every registered source behind TTL caching and lets the food
// worker reuse answers across sessions.
type Deps struct {
	Caller   oracle.Caller
	Settings *config.Settings
	Store    store.Store[travel.TripState]
	Emitter  emit.Emitter
	Registry *sources.Registry
	Cache    cache.Cache
	Metrics  *graph.Metrics
}

// Build wires the planning graph:
//
//	clarification -(wait_for_answers)-> suspend
//	              -(proceed_to_planner)-> planner
//	process_answers -> planner -> geography -> research -> food_culture
//	  -> price_scraper -> transport_budget -> critic
//	critic -(replan)-> planner
//	       -(finalize)-> finalize -> end
//
// Suspended runs re-enter at process_answers with the user's answers
// merged into state.
func Build(deps Deps) (*graph.Engine[travel.TripState], error) {
	if deps.Caller == nil || deps.Settings == nil || deps.Store == nil {
		return nil, fmt.Errorf("workflow requires a caller, settings, and a store")
	}
	registry := deps.Registry
	if registry == nil {
		registry = sources.NewRegistry()
	}
	if deps.Cache != nil {
		registry = registry.Cached(deps.Cache)
	}

	eng := graph.New[travel.TripState](travel.Reduce, deps.Store, deps.Emitter, graph.Options{
		MaxSteps: deps.Settings.MaxGraphSteps,
	})
	if deps.Metrics != nil {
		eng.SetMetrics(deps.Metrics)
	}

	nodes := map[string]graph.Node[travel.TripState]{
		agents.NodeClarification:   agents.NewClarifier(deps.Caller, deps.Settings),
		agents.NodeProcessAnswers:  agents.NewProcessAnswers(),
		agents.NodePlanner:         agents.NewPlanner(deps.Caller, deps.Settings),
		agents.NodeGeography:       agents.NewGeography(deps.Caller, deps.Settings),
		agents.NodeResearch:        agents.NewResearch(deps.Caller, deps.Settings, registry.Places()),
		agents.NodeFoodCulture:     agents.NewFoodCulture(deps.Caller, deps.Settings, deps.Cache),
		agents.NodePriceScraper:    agents.NewPriceScraper(registry, deps.Settings),
		agents.NodeTransportBudget: agents.NewTransportBudget(deps.Caller, deps.Settings),
		agents.NodeCritic:          agents.NewCritic(deps.Caller, deps.Settings),
		agents.NodeFinalize:        agents.NewFinalize(),
	}
	for id, node := range nodes {
		if err := eng.Add(id, node); err != nil {
			return nil, err
		}
	}

	if err := eng.StartAt(agents.NodeClarification); err != nil {
		return nil, err
	}

	// Scraping talks to slow external sources; give it more room than
	// the model-backed nodes get by default.
	if err := eng.SetPolicy(agents.NodePriceScraper, graph.NodePolicy{
		Timeout: 4 * deps.Settings.ScrapeTimeout,
	}); err != nil {
		return nil, err
	}

	err := eng.ConnectConditional(agents.NodeClarification, needsClarification, map[string]string{
		branchWaitForAnswers:   graph.Suspend,
		branchProceedToPlanner: agents.NodePlanner,
	})
	if err != nil {
		return nil, err
	}

	linear := [][2]string{
		{agents.NodeProcessAnswers, agents.NodePlanner},
		{agents.NodePlanner, agents.NodeGeography},
		{agents.NodeGeography, agents.NodeResearch},
		{agents.NodeResearch, agents.NodeFoodCulture},
		{agents.NodeFoodCulture, agents.NodePriceScraper},
		{agents.NodePriceScraper, agents.NodeTransportBudget},
		{agents.NodeTransportBudget, agents.NodeCritic},
	}
	for _, pair := range linear {
		if err := eng.Connect(pair[0], pair[1], nil); err != nil {
			return nil, err
		}
	}

	err = eng.ConnectConditional(agents.NodeCritic, shouldReplan, map[string]string{
		branchReplan:   agents.NodePlanner,
		branchFinalize: agents.NodeFinalize,
	})
	if err != nil {
		return nil, err
	}

	if err := eng.Connect(agents.NodeFinalize, graph.End, nil); err != nil {
		return nil, err
	}
	return eng, nil
}

// needsClarification pauses the run when questions are outstanding and
// no answers have arrived yet.
func needsClarification(state travel.TripState) string {
	if state.ClarificationNeeded != nil && *state.ClarificationNeeded && state.ClarificationAnswers == nil {
		return branchWaitForAnswers
	}
	return branchProceedToPlanner
}

// shouldReplan routes the critic's verdict.
func shouldReplan(state travel.TripState) string {
	if state.ValidationResult != nil && state.ValidationResult.RequiresReplanning {
		return branchReplan
	}
	return branchFinalize
}
