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

const geographySystemPrompt = `You are a route planner with strong geographic knowledge. Given an ordered list of cities, validate the route and estimate each leg.

For every consecutive pair of cities provide the road/rail distance in km and a realistic travel time in hours. If reordering the cities would meaningfully shorten total travel (at least a 10% reduction), propose the better order and recompute segments for it; otherwise keep the planner's order.

Respond with JSON:
{
  "route_is_valid": true,
  "original_order": ["..."],
  "optimized_order": ["..."],
  "route_changed": false,
  "route_segments": [
    {"from_city": "...", "to_city": "...", "distance_km": 280, "recommended_transport": "train", "travel_time_hours": 4.5, "is_feasible": true, "issues": []}
  ],
  "total_travel_time_hours": 9.0,
  "total_distance_km": 560,
  "suggestions": [],
  "warnings": []
}`

type geographyOutput struct {
	RouteIsValid         bool                  `json:"route_is_valid"`
	OriginalOrder        []string              `json:"original_order"`
	OptimizedOrder       []string              `json:"optimized_order"`
	RouteChanged         bool                  `json:"route_changed"`
	RouteSegments        []travel.RouteSegment `json:"route_segments"`
	TotalTravelTimeHours float64               `json:"total_travel_time_hours"`
	TotalDistanceKm      float64               `json:"total_distance_km"`
	Suggestions          []string              `json:"suggestions"`
	Warnings             []string              `json:"warnings"`
}

// Distance bands for mode normalization, in km.
const (
	shortHaulKm = 300
	longHaulKm  = 800
	// Ground legs over this many hours get flagged infeasible.
	maxGroundHours = 8
)

// Geography validates the city order and produces route segments with
// distances and recommended transport modes. Model estimates are
// normalized afterwards so mode recommendations follow the distance
// bands regardless of what the model said.
type Geography struct {
	worker
}

// NewGeography creates the routing worker.
func NewGeography(caller oracle.Caller, settings *config.Settings) *Geography {
	return &Geography{worker{name: NodeGeography, caller: caller, settings: settings}}
}

func (g *Geography) Run(ctx context.Context, state travel.TripState) graph.NodeResult[travel.TripState] {
	if len(state.CityAllocations) == 0 {
		return failNode(NodeGeography, fmt.Errorf("geography requires city allocations"))
	}

	var sb strings.Builder
	sb.WriteString("Planned city order:\n")
	for _, alloc := range sortAllocations(state.CityAllocations) {
		fmt.Fprintf(&sb, "%d. %s, %s (%d days)\n", alloc.VisitOrder, alloc.City, alloc.Country, alloc.Days)
	}
	if state.OriginCity != "" {
		fmt.Fprintf(&sb, "\nTraveler origin: %s\n", state.OriginCity)
	}

	var out geographyOutput
	if err := g.ask(ctx, geographySystemPrompt, sb.String(), &out); err != nil {
		return failNode(NodeGeography, err)
	}

	segments := normalizeSegments(out.RouteSegments)
	totalTime, totalDistance := 0.0, 0.0
	warnings := out.Warnings
	for _, seg := range segments {
		totalTime += seg.TravelTimeHours
		totalDistance += seg.DistanceKm
		if !seg.IsFeasible {
			warnings = append(warnings, fmt.Sprintf("%s to %s is not feasible by ground transport", seg.FromCity, seg.ToCity))
		}
	}

	validation := &travel.RouteValidation{
		RouteIsValid:         out.RouteIsValid,
		OriginalOrder:        out.OriginalOrder,
		OptimizedOrder:       out.OptimizedOrder,
		RouteChanged:         out.RouteChanged,
		TotalTravelTimeHours: totalTime,
		TotalDistanceKm:      totalDistance,
		Suggestions:          out.Suggestions,
		Warnings:             warnings,
	}

	var msg travel.Message
	switch {
	case out.RouteChanged:
		msg = note(NodeGeography, "Route optimized to: %s", strings.Join(out.OptimizedOrder, " -> "))
	case out.RouteIsValid:
		msg = note(NodeGeography, "Route validated successfully")
	default:
		msg = note(NodeGeography, "Route has issues: %s", strings.Join(firstN(warnings, 2), ", "))
	}

	delta := travel.TripState{
		RouteValidation: validation,
		RouteSegments:   segments,
		Messages:        []travel.Message{msg},
	}
	if out.RouteChanged && len(out.OptimizedOrder) > 0 {
		// Downstream workers read CityAllocations, so the optimized
		// order must land there, not just in the validation record.
		delta.CityAllocations = reorderAllocations(state.CityAllocations, out.OptimizedOrder)
	}

	return graph.NodeResult[travel.TripState]{Delta: delta}
}

// reorderAllocations rebuilds the allocation list to follow the
// optimized city order, renumbering visit order from 1. Cities the
// optimizer did not mention keep their relative order at the end.
func reorderAllocations(allocations []travel.CityAllocation, order []string) []travel.CityAllocation {
	byCity := make(map[string]travel.CityAllocation, len(allocations))
	for _, a := range allocations {
		byCity[a.City] = a
	}

	out := make([]travel.CityAllocation, 0, len(allocations))
	seen := make(map[string]bool, len(order))
	for _, city := range order {
		if a, ok := byCity[city]; ok {
			seen[city] = true
			out = append(out, a)
		}
	}
	for _, a := range sortAllocations(allocations) {
		if !seen[a.City] {
			out = append(out, a)
		}
	}
	for i := range out {
		out[i].VisitOrder = i + 1
	}
	return out
}

// normalizeSegments applies the distance bands: short hauls keep bus or
// train, mid hauls go by train, long hauls fly. Ground legs over the
// feasibility limit are flagged.
func normalizeSegments(segments []travel.RouteSegment) []travel.RouteSegment {
	out := make([]travel.RouteSegment, len(segments))
	for i, seg := range segments {
		switch {
		case seg.DistanceKm > longHaulKm:
			seg.RecommendedTransport = travel.ModeFlight
		case seg.DistanceKm >= shortHaulKm:
			seg.RecommendedTransport = travel.ModeTrain
		default:
			if seg.RecommendedTransport != travel.ModeBus && seg.RecommendedTransport != travel.ModeTrain {
				seg.RecommendedTransport = travel.ModeTrain
			}
		}

		seg.IsFeasible = true
		if seg.RecommendedTransport != travel.ModeFlight && seg.TravelTimeHours > maxGroundHours {
			seg.IsFeasible = false
			seg.Issues = append(seg.Issues,
				fmt.Sprintf("ground travel time %.1fh exceeds %dh limit", seg.TravelTimeHours, maxGroundHours))
		}
		out[i] = seg
	}
	return out
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
