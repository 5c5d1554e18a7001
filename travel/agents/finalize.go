package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/tripflow-ai/tripflow/graph"
	"github.com/tripflow-ai/tripflow/travel"
)

// Scheduling bounds for a single day. Mornings run 9 to 12, afternoons
// 14 to 18, with an hour's gap between attractions.
const (
	morningStartHour   = 9
	morningEndHour     = 12
	afternoonStartHour = 14
	afternoonEndHour   = 18
	maxAttractionsDay  = 4
)

// Finalize assembles the approved plan into the deliverable itinerary.
// Pure assembly, no model calls: attractions are deduplicated and
// spread across days, meals slotted into fixed windows, and transport
// split into the origin leg and the inter-city legs.
type Finalize struct{}

// NewFinalize creates the assembly worker.
func NewFinalize() *Finalize { return &Finalize{} }

func (f *Finalize) Run(ctx context.Context, state travel.TripState) graph.NodeResult[travel.TripState] {
	sorted := sortAllocations(state.CityAllocations)
	if len(sorted) == 0 {
		return failNode(NodeFinalize, fmt.Errorf("finalize requires city allocations"))
	}

	totalDays := 0
	if state.TripSummary != nil {
		totalDays = state.TripSummary.TotalDays
	}
	if totalDays == 0 {
		for _, alloc := range sorted {
			totalDays += alloc.Days
		}
	}

	dailyBudget := 0.0
	totalCost := 0.0
	if state.BudgetBreakdown != nil {
		totalCost = state.BudgetBreakdown.Total
		if totalDays > 0 {
			dailyBudget = totalCost / float64(totalDays)
		}
	}

	startDates := SegmentDates(sorted, state.TravelStartDate)

	var dailyPlans []travel.DayPlan
	dayNumber := 1
	for _, cityInfo := range sorted {
		cityAttractions := dedupeAttractions(attractionsFor(state.Attractions, cityInfo.City))

		daysInCity := cityInfo.Days
		if daysInCity < 1 {
			daysInCity = 1
		}
		if limit := daysInCity * maxAttractionsDay; len(cityAttractions) > limit {
			cityAttractions = cityAttractions[:limit]
		}

		breakfasts, lunches, dinners := mealsByType(state.FoodRecommendations, cityInfo.City)

		basePerDay := len(cityAttractions) / daysInCity
		extra := len(cityAttractions) % daysInCity
		attractionIdx := 0

		for dayOffset := 0; dayOffset < daysInCity; dayOffset++ {
			plan := travel.DayPlan{
				DayNumber:      dayNumber,
				City:           cityInfo.City,
				Theme:          fmt.Sprintf("Day %d in %s", dayOffset+1, cityInfo.City),
				DailyBudgetUSD: dailyBudget,
				Date:           dayDate(startDates[cityInfo.City], dayOffset),
			}

			if dayOffset < len(breakfasts) {
				plan.Activities = append(plan.Activities, mealActivity("08:00 - 09:00", "Breakfast", breakfasts[dayOffset]))
			}

			today := basePerDay
			if dayOffset < extra {
				today++
			}
			dayAttractions := cityAttractions[attractionIdx : attractionIdx+today]
			attractionIdx += today
			if len(dayAttractions) > maxAttractionsDay {
				dayAttractions = dayAttractions[:maxAttractionsDay]
			}

			split := len(dayAttractions)
			if split > 2 {
				split = 2
			}
			plan.Activities = append(plan.Activities,
				scheduleBlock(dayAttractions[:split], morningStartHour, morningEndHour)...)

			if dayOffset < len(lunches) {
				plan.Activities = append(plan.Activities, mealActivity("12:30 - 14:00", "Lunch", lunches[dayOffset]))
			}

			plan.Activities = append(plan.Activities,
				scheduleBlock(dayAttractions[split:], afternoonStartHour, afternoonEndHour)...)

			if dayOffset < len(dinners) {
				plan.Activities = append(plan.Activities, mealActivity("19:00 - 21:00", "Dinner", dinners[dayOffset]))
			}

			dailyPlans = append(dailyPlans, plan)
			dayNumber++
		}
	}

	originTransport, interCity := splitTransport(state, sorted)

	country := "Trip"
	if sorted[0].Country != "" {
		country = sorted[0].Country
	}

	cities := make([]string, len(sorted))
	for i, alloc := range sorted {
		cities[i] = alloc.City
	}

	itinerary := &travel.Itinerary{
		TripTitle:             fmt.Sprintf("%d-Day %s", totalDays, country),
		TotalDays:             totalDays,
		TravelersCount:        1,
		TravelerProfile:       "solo",
		BudgetLevel:           travel.BudgetMid,
		TotalEstimatedCostUSD: totalCost,
		CitiesVisited:         cities,
		DailyPlans:            dailyPlans,
		OriginTransport:       originTransport,
		InterCityTransport:    interCity,
		CulturalTips:          state.CulturalTips,
		SourcesConsulted:      state.ResearchSources,
		StartDate:             state.TravelStartDate,
		EndDate:               state.TravelEndDate,
	}
	if state.TripSummary != nil {
		itinerary.DestinationSummary = state.TripSummary.TripUnderstanding
		if state.TripSummary.TravelerProfile != "" {
			itinerary.TravelerProfile = state.TripSummary.TravelerProfile
		}
		if state.TripSummary.BudgetLevel != "" {
			itinerary.BudgetLevel = state.TripSummary.BudgetLevel
		}
	}
	if state.ValidationResult != nil {
		itinerary.Warnings = state.ValidationResult.FinalRecommendations
	}

	return graph.NodeResult[travel.TripState]{
		Delta: travel.TripState{
			FinalItinerary: itinerary,
			Messages: []travel.Message{
				note(NodeFinalize, "Itinerary complete: %s", itinerary.TripTitle),
			},
		},
		Route: graph.Stop(),
	}
}

func attractionsFor(attractions []travel.Attraction, city string) []travel.Attraction {
	var out []travel.Attraction
	for _, a := range attractions {
		if a.City == city {
			out = append(out, a)
		}
	}
	return out
}

// dedupeAttractions keeps the first occurrence of each name. Research
// accumulates across replan passes, so repeats are expected.
func dedupeAttractions(attractions []travel.Attraction) []travel.Attraction {
	seen := make(map[string]bool, len(attractions))
	var out []travel.Attraction
	for _, a := range attractions {
		if a.Name == "" || seen[a.Name] {
			continue
		}
		seen[a.Name] = true
		out = append(out, a)
	}
	return out
}

func mealsByType(recommendations []travel.FoodRecommendation, city string) (breakfasts, lunches, dinners []travel.Meal) {
	for _, rec := range recommendations {
		if rec.City != city {
			continue
		}
		for _, meal := range rec.Restaurants {
			switch meal.MealType {
			case "breakfast":
				breakfasts = append(breakfasts, meal)
			case "lunch":
				lunches = append(lunches, meal)
			case "dinner":
				dinners = append(dinners, meal)
			}
		}
	}
	return breakfasts, lunches, dinners
}

func mealActivity(slot, label string, meal travel.Meal) travel.DayActivity {
	name := meal.RestaurantName
	if name == "" {
		name = "Local restaurant"
	}
	m := meal
	return travel.DayActivity{
		TimeSlot:     slot,
		ActivityType: "meal",
		Title:        fmt.Sprintf("%s: %s", label, name),
		Meal:         &m,
	}
}

// scheduleBlock lays attractions into a window starting at startHour,
// clamping each visit to the window's end and leaving an hour between
// visits.
func scheduleBlock(attractions []travel.Attraction, startHour, endHour int) []travel.DayActivity {
	var out []travel.DayActivity
	current := startHour
	for _, attr := range attractions {
		duration := int(attr.EstimatedDurationHours)
		if duration < 1 {
			duration = 1
		}
		end := current + duration
		if end > endHour {
			end = endHour
		}
		a := attr
		out = append(out, travel.DayActivity{
			TimeSlot:     fmt.Sprintf("%02d:00 - %02d:00", current, end),
			ActivityType: "attraction",
			Title:        attr.Name,
			Attraction:   &a,
		})
		current = end + 1
		if current > endHour {
			break
		}
	}
	return out
}

func dayDate(cityStart string, dayOffset int) string {
	if cityStart == "" {
		return ""
	}
	start, err := time.Parse("2006-01-02", cityStart)
	if err != nil {
		return ""
	}
	return start.AddDate(0, 0, dayOffset).Format("2006-01-02")
}

// splitTransport separates the leg out of the traveler's origin from
// the inter-city legs, enriching the latter with segment distances.
func splitTransport(state travel.TripState, sorted []travel.CityAllocation) (origin, interCity []travel.TransportSegment) {
	firstCity := ""
	if len(sorted) > 0 {
		firstCity = sorted[0].City
	}

	for _, opt := range state.TransportOptions {
		seg := opt.Recommended
		seg.FromLocation = opt.FromLocation
		seg.ToLocation = opt.ToLocation
		if opt.RecommendationReason != "" && seg.Notes == "" {
			seg.Notes = opt.RecommendationReason
		}

		if state.OriginCity != "" && opt.FromLocation == state.OriginCity && opt.ToLocation == firstCity {
			origin = append(origin, seg)
			continue
		}

		for _, rs := range state.RouteSegments {
			if rs.FromCity == opt.FromLocation && rs.ToCity == opt.ToLocation {
				if seg.Notes == "" {
					seg.Notes = fmt.Sprintf("%.0f km", rs.DistanceKm)
				} else {
					seg.Notes = fmt.Sprintf("%s (%.0f km)", seg.Notes, rs.DistanceKm)
				}
				break
			}
		}
		interCity = append(interCity, seg)
	}
	return origin, interCity
}
