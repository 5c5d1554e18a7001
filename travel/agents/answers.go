package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/tripflow-ai/tripflow/graph"
	"github.com/tripflow-ai/tripflow/travel"
)

// ProcessAnswers folds clarification answers into the state and
// rewrites the user request so downstream workers see the preferences
// inline. Purely deterministic, no model call.
type ProcessAnswers struct{}

// NewProcessAnswers creates the answer-processing worker.
func NewProcessAnswers() *ProcessAnswers { return &ProcessAnswers{} }

func (p *ProcessAnswers) Run(ctx context.Context, state travel.TripState) graph.NodeResult[travel.TripState] {
	answers := state.ClarificationAnswers

	enriched := []string{state.UserRequest}
	delta := travel.TripState{}

	if dateAnswer := answers["travel_dates"]; dateAnswer != "" {
		parsed := ParseTravelDates(dateAnswer)
		delta.TravelStartDate = parsed.StartDate
		delta.TravelEndDate = parsed.EndDate
		delta.TravelDateFlexibility = parsed.Flexibility
		delta.TravelDateDescription = parsed.Description

		if parsed.StartDate != "" && parsed.EndDate != "" {
			enriched = append(enriched, fmt.Sprintf("\nIMPORTANT - Travel dates: %s to %s", parsed.StartDate, parsed.EndDate))
		} else if parsed.Description != "" {
			enriched = append(enriched, fmt.Sprintf("\nIMPORTANT - Travel timing: %s (flexible)", parsed.Description))
		}
	}

	if origin := answers["origin_city"]; origin != "" {
		delta.OriginCity = origin
		enriched = append(enriched, fmt.Sprintf("\nIMPORTANT - Traveling from: %s", origin))
	}

	if destinations := answers["specific_destinations"]; destinations != "" {
		delta.SpecificDestinations = SplitDestinations(destinations)
		enriched = append(enriched,
			fmt.Sprintf("\nIMPORTANT - MUST visit these specific cities: %s", destinations),
			"Do NOT substitute different cities. Plan ONLY for the cities listed above.")
	}

	if dietary := answers["dietary"]; dietary != "" {
		delta.DietaryPreferences = []string{dietary}
		enriched = append(enriched, fmt.Sprintf("\nDietary preferences: %s", dietary))
	}

	if pace := answers["travel_pace"]; pace != "" {
		delta.TravelPace = pace
		enriched = append(enriched, fmt.Sprintf("\nTravel pace preference: %s", pace))
	}

	if visited := answers["visited_places"]; visited != "" {
		delta.PlacesVisited = SplitDestinations(visited)
		enriched = append(enriched, fmt.Sprintf("\nAlready visited (avoid these): %s", visited))
	}

	delta.UserRequest = strings.Join(enriched, "\n")
	delta.Messages = []travel.Message{
		note(NodeProcessAnswers, "Enriched request with %d answers", len(answers)),
	}
	return graph.NodeResult[travel.TripState]{Delta: delta}
}
