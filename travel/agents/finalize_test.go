package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/tripflow-ai/tripflow/travel"
)

func finalizeState() travel.TripState {
	attractions := []travel.Attraction{}
	for _, name := range []string{"Amber Fort", "City Palace", "Hawa Mahal", "Jantar Mantar", "Albert Hall", "Amber Fort"} {
		attractions = append(attractions, travel.Attraction{
			Name: name, City: "Jaipur", Category: "landmark", EstimatedDurationHours: 2,
		})
	}
	attractions = append(attractions,
		travel.Attraction{Name: "Lake Pichola", City: "Udaipur", Category: "nature", EstimatedDurationHours: 3},
	)

	return travel.TripState{
		UserRequest:     "5 days in Rajasthan",
		OriginCity:      "Delhi",
		TravelStartDate: "2026-02-10",
		TravelEndDate:   "2026-02-14",
		TripSummary: &travel.TripSummary{
			TripUnderstanding: "Heritage circuit through Rajasthan",
			TotalDays:         5,
			BudgetLevel:       travel.BudgetMid,
			TravelerProfile:   "couple",
		},
		CityAllocations: []travel.CityAllocation{
			{City: "Udaipur", Country: "India", Days: 2, VisitOrder: 2},
			{City: "Jaipur", Country: "India", Days: 3, VisitOrder: 1},
		},
		RouteSegments: []travel.RouteSegment{
			{FromCity: "Jaipur", ToCity: "Udaipur", DistanceKm: 395, RecommendedTransport: travel.ModeTrain, TravelTimeHours: 7},
		},
		Attractions: attractions,
		FoodRecommendations: []travel.FoodRecommendation{
			{City: "Jaipur", Restaurants: []travel.Meal{
				{MealType: "breakfast", RestaurantName: "LMB", CuisineType: "Rajasthani", BudgetLevel: travel.BudgetMid, EstimatedCostUSD: 6},
				{MealType: "lunch", RestaurantName: "Spice Court", CuisineType: "Rajasthani", BudgetLevel: travel.BudgetMid, EstimatedCostUSD: 10},
				{MealType: "dinner", RestaurantName: "Suvarna Mahal", CuisineType: "Indian", BudgetLevel: travel.BudgetMid, EstimatedCostUSD: 25},
			}},
		},
		TransportOptions: []travel.TransportOption{
			{
				FromLocation: "Delhi", ToLocation: "Jaipur",
				Recommended: travel.TransportSegment{Mode: travel.ModeTrain, DurationHours: 4.5, EstimatedCostUSD: 15},
			},
			{
				FromLocation: "Jaipur", ToLocation: "Udaipur",
				Recommended: travel.TransportSegment{Mode: travel.ModeTrain, DurationHours: 7, EstimatedCostUSD: 20},
			},
		},
		BudgetBreakdown: &travel.BudgetBreakdown{Total: 1000, Currency: "USD"},
		ValidationResult: &travel.ValidationResult{
			IsValid:              true,
			FinalRecommendations: []string{"carry cash for entrance fees"},
		},
		CulturalTips:    []string{"Jaipur: Do dress modestly at temples"},
		ResearchSources: []string{"https://example.com/jaipur"},
	}
}

func TestFinalize(t *testing.T) {
	result := NewFinalize().Run(context.Background(), finalizeState())
	if result.Err != nil {
		t.Fatal(result.Err)
	}
	if !result.Route.Terminal {
		t.Error("finalize must be terminal")
	}

	it := result.Delta.FinalItinerary
	if it == nil {
		t.Fatal("no itinerary produced")
	}

	t.Run("title and summary", func(t *testing.T) {
		if it.TripTitle != "5-Day India" {
			t.Errorf("title = %q", it.TripTitle)
		}
		if it.DestinationSummary != "Heritage circuit through Rajasthan" {
			t.Errorf("summary = %q", it.DestinationSummary)
		}
		if it.TravelerProfile != "couple" || it.BudgetLevel != travel.BudgetMid {
			t.Errorf("profile/budget = %s/%s", it.TravelerProfile, it.BudgetLevel)
		}
	})

	t.Run("cities follow visit order", func(t *testing.T) {
		if len(it.CitiesVisited) != 2 || it.CitiesVisited[0] != "Jaipur" || it.CitiesVisited[1] != "Udaipur" {
			t.Errorf("cities = %v", it.CitiesVisited)
		}
	})

	t.Run("one day plan per allocated day", func(t *testing.T) {
		if len(it.DailyPlans) != 5 {
			t.Fatalf("daily plans = %d, want 5", len(it.DailyPlans))
		}
		for i, plan := range it.DailyPlans {
			if plan.DayNumber != i+1 {
				t.Errorf("day %d numbered %d", i, plan.DayNumber)
			}
		}
		if it.DailyPlans[0].City != "Jaipur" || it.DailyPlans[4].City != "Udaipur" {
			t.Errorf("day cities = %s..%s", it.DailyPlans[0].City, it.DailyPlans[4].City)
		}
		if it.DailyPlans[0].Date != "2026-02-10" {
			t.Errorf("day 1 date = %q", it.DailyPlans[0].Date)
		}
		if it.DailyPlans[3].Date != "2026-02-13" {
			t.Errorf("day 4 date = %q, want first Udaipur day", it.DailyPlans[3].Date)
		}
	})

	t.Run("attractions are deduplicated and bounded", func(t *testing.T) {
		seen := map[string]int{}
		for _, plan := range it.DailyPlans {
			count := 0
			for _, act := range plan.Activities {
				if act.ActivityType == "attraction" {
					seen[act.Title]++
					count++
				}
			}
			if count > maxAttractionsDay {
				t.Errorf("day %d has %d attractions", plan.DayNumber, count)
			}
		}
		if seen["Amber Fort"] != 1 {
			t.Errorf("Amber Fort scheduled %d times, want 1", seen["Amber Fort"])
		}
	})

	t.Run("meals land in their windows", func(t *testing.T) {
		day1 := it.DailyPlans[0]
		var slots []string
		for _, act := range day1.Activities {
			if act.ActivityType == "meal" {
				slots = append(slots, act.TimeSlot+" "+act.Title)
			}
		}
		joined := strings.Join(slots, "\n")
		for _, want := range []string{"08:00 - 09:00 Breakfast: LMB", "12:30 - 14:00 Lunch: Spice Court", "19:00 - 21:00 Dinner: Suvarna Mahal"} {
			if !strings.Contains(joined, want) {
				t.Errorf("day 1 meals missing %q:\n%s", want, joined)
			}
		}
	})

	t.Run("daily budget split evenly", func(t *testing.T) {
		if got := it.DailyPlans[0].DailyBudgetUSD; got != 200 {
			t.Errorf("daily budget = %.2f, want 200", got)
		}
	})

	t.Run("origin leg separated from inter-city legs", func(t *testing.T) {
		if len(it.OriginTransport) != 1 || it.OriginTransport[0].FromLocation != "Delhi" {
			t.Errorf("origin transport = %+v", it.OriginTransport)
		}
		if len(it.InterCityTransport) != 1 {
			t.Fatalf("inter-city transport = %+v", it.InterCityTransport)
		}
		if !strings.Contains(it.InterCityTransport[0].Notes, "395 km") {
			t.Errorf("segment distance not carried over: %q", it.InterCityTransport[0].Notes)
		}
	})

	t.Run("warnings come from final recommendations", func(t *testing.T) {
		if len(it.Warnings) != 1 || it.Warnings[0] != "carry cash for entrance fees" {
			t.Errorf("warnings = %v", it.Warnings)
		}
	})
}

func TestFinalizeWithoutAllocations(t *testing.T) {
	result := NewFinalize().Run(context.Background(), travel.TripState{})
	if result.Err == nil {
		t.Error("finalize without allocations should fail")
	}
}
