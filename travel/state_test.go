package travel

import "testing"

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestReduce(t *testing.T) {
	t.Run("messages append", func(t *testing.T) {
		prev := TripState{Messages: []Message{{Role: "user", Content: "plan a trip"}}}
		delta := TripState{Messages: []Message{{Role: "assistant", Content: "planning"}}}

		out := Reduce(prev, delta)
		if len(out.Messages) != 2 || out.Messages[1].Content != "planning" {
			t.Errorf("messages = %+v", out.Messages)
		}
	})

	t.Run("research accumulates across calls", func(t *testing.T) {
		prev := TripState{
			Attractions:     []Attraction{{Name: "Red Fort", City: "Delhi"}},
			ResearchSources: []string{"https://a"},
		}
		delta := TripState{
			Attractions:     []Attraction{{Name: "Gateway of India", City: "Mumbai"}},
			Hotels:          []Hotel{{Name: "Taj", City: "Mumbai"}},
			ResearchSources: []string{"https://b"},
		}

		out := Reduce(prev, delta)
		if len(out.Attractions) != 2 || len(out.Hotels) != 1 || len(out.ResearchSources) != 2 {
			t.Errorf("accumulation wrong: %d attractions, %d hotels, %d sources",
				len(out.Attractions), len(out.Hotels), len(out.ResearchSources))
		}
	})

	t.Run("replan replaces allocations wholesale", func(t *testing.T) {
		prev := TripState{CityAllocations: []CityAllocation{
			{City: "Jaipur", Days: 3, VisitOrder: 1},
			{City: "Udaipur", Days: 2, VisitOrder: 2},
		}}
		delta := TripState{CityAllocations: []CityAllocation{
			{City: "Jaipur", Days: 2, VisitOrder: 1},
		}}

		out := Reduce(prev, delta)
		if len(out.CityAllocations) != 1 || out.CityAllocations[0].Days != 2 {
			t.Errorf("allocations = %+v", out.CityAllocations)
		}
	})

	t.Run("zero delta leaves fields alone", func(t *testing.T) {
		prev := TripState{
			UserRequest: "5 days in Vietnam",
			OriginCity:  "Singapore",
			TripSummary: &TripSummary{TotalDays: 5},
		}

		out := Reduce(prev, TripState{})
		if out.UserRequest != prev.UserRequest || out.OriginCity != prev.OriginCity {
			t.Error("scalars overwritten by zero delta")
		}
		if out.TripSummary == nil || out.TripSummary.TotalDays != 5 {
			t.Error("pointer field lost")
		}
	})

	t.Run("pointer fields overwrite explicitly", func(t *testing.T) {
		prev := TripState{
			ClarificationNeeded: boolPtr(true),
			CriticFeedback:      strPtr("shorten Jaipur"),
		}
		delta := TripState{
			ClarificationNeeded: boolPtr(false),
			CriticFeedback:      strPtr(""),
		}

		out := Reduce(prev, delta)
		if *out.ClarificationNeeded {
			t.Error("clarification flag not overwritten")
		}
		if *out.CriticFeedback != "" {
			t.Error("feedback not cleared")
		}
	})

	t.Run("iteration count never rewinds", func(t *testing.T) {
		out := Reduce(TripState{IterationCount: 2}, TripState{IterationCount: 1})
		if out.IterationCount != 2 {
			t.Errorf("iteration count = %d, want 2", out.IterationCount)
		}

		out = Reduce(TripState{IterationCount: 1}, TripState{IterationCount: 2})
		if out.IterationCount != 2 {
			t.Errorf("iteration count = %d, want 2", out.IterationCount)
		}
	})

	t.Run("reduce is pure with respect to prev pointers", func(t *testing.T) {
		summary := &TripSummary{TotalDays: 5}
		prev := TripState{TripSummary: summary}
		delta := TripState{TripSummary: &TripSummary{TotalDays: 7}}

		out := Reduce(prev, delta)
		if summary.TotalDays != 5 {
			t.Error("prev summary mutated")
		}
		if out.TripSummary.TotalDays != 7 {
			t.Error("delta summary not applied")
		}
	})
}
