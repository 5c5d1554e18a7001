package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/tripflow-ai/tripflow/config"
	"github.com/tripflow-ai/tripflow/graph"
	"github.com/tripflow-ai/tripflow/oracle"
	"github.com/tripflow-ai/tripflow/travel"
)

const plannerSystemPrompt = `You are an expert travel planner. Given a trip request, decide which cities to visit, in what order, and how many days each deserves.

Rules:
- Honor any cities the traveler names explicitly. Do not substitute.
- Allocate whole days; the sum must equal the trip duration.
- Order cities in a geographically sensible sequence.
- Skip places the traveler has already visited.
- Match the allocation to the stated pace: fast packs more cities, relaxed means fewer cities with more days each.

Respond with JSON:
{
  "trip_understanding": "...",
  "total_days": 5,
  "budget_level": "budget|mid_range|luxury",
  "traveler_profile": "solo|couple|family|group",
  "travel_style": "adventure|relaxed|cultural|mixed",
  "city_allocations": [
    {"city": "...", "country": "...", "days": 2, "visit_order": 1, "highlights": ["..."], "reasoning": "..."}
  ],
  "overall_strategy": "..."
}`

type plannerOutput struct {
	TripUnderstanding string                  `json:"trip_understanding"`
	TotalDays         int                     `json:"total_days"`
	BudgetLevel       string                  `json:"budget_level"`
	TravelerProfile   string                  `json:"traveler_profile"`
	TravelStyle       string                  `json:"travel_style"`
	CityAllocations   []travel.CityAllocation `json:"city_allocations"`
	OverallStrategy   string                  `json:"overall_strategy"`
}

// Planner turns the request into a city-day allocation. On replan
// passes it folds the critic's feedback into the prompt.
type Planner struct {
	worker
}

// NewPlanner creates the planning worker.
func NewPlanner(caller oracle.Caller, settings *config.Settings) *Planner {
	return &Planner{worker{name: NodePlanner, caller: caller, settings: settings}}
}

func (p *Planner) Run(ctx context.Context, state travel.TripState) graph.NodeResult[travel.TripState] {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Trip request:\n%s\n", state.UserRequest)

	if state.CriticFeedback != nil && *state.CriticFeedback != "" {
		fmt.Fprintf(&sb, "\nYour previous plan was rejected. Address this feedback:\n%s\n", *state.CriticFeedback)
		fmt.Fprintf(&sb, "\nPrevious allocation for reference:\n%s\n", describeAllocations(state.CityAllocations))
	}

	var out plannerOutput
	if err := p.ask(ctx, plannerSystemPrompt, sb.String(), &out); err != nil {
		return failNode(NodePlanner, err)
	}
	if len(out.CityAllocations) == 0 {
		return failNode(NodePlanner, fmt.Errorf("planner produced no city allocations"))
	}

	cities := make([]string, len(out.CityAllocations))
	for i, alloc := range out.CityAllocations {
		cities[i] = alloc.City
	}

	verb := "Planned"
	if state.IterationCount > 0 {
		verb = "Re-planned"
	}

	return graph.NodeResult[travel.TripState]{Delta: travel.TripState{
		TripSummary: &travel.TripSummary{
			TripUnderstanding: out.TripUnderstanding,
			TotalDays:         out.TotalDays,
			BudgetLevel:       out.BudgetLevel,
			TravelerProfile:   out.TravelerProfile,
			TravelStyle:       out.TravelStyle,
			OverallStrategy:   out.OverallStrategy,
		},
		CityAllocations: out.CityAllocations,
		Messages: []travel.Message{
			note(NodePlanner, "%s trip with cities: %s", verb, strings.Join(cities, ", ")),
		},
	}}
}

func describeAllocations(allocations []travel.CityAllocation) string {
	var sb strings.Builder
	for _, a := range allocations {
		fmt.Fprintf(&sb, "- %s, %s: %d days (order %d)\n", a.City, a.Country, a.Days, a.VisitOrder)
	}
	return sb.String()
}
