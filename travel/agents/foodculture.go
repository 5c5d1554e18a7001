package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tripflow-ai/tripflow/cache"
	"github.com/tripflow-ai/tripflow/config"
	"github.com/tripflow-ai/tripflow/graph"
	"github.com/tripflow-ai/tripflow/oracle"
	"github.com/tripflow-ai/tripflow/travel"
)

const foodCultureSystemPrompt = `You are a food and culture guide. For the given city, recommend dishes and restaurants matched to the traveler's budget and dietary needs, plus cultural guidance.

Give restaurant recommendations with meal_type set to breakfast, lunch, or dinner so they can be slotted into a daily schedule. Provide exactly as many of each meal type as the stay has days. Respect dietary preferences strictly.

Respond with JSON:
{
  "city": "...",
  "must_try_dishes": ["..."],
  "restaurant_recommendations": [
    {"meal_type": "breakfast|lunch|dinner", "restaurant_name": "...", "cuisine_type": "...",
     "budget_level": "budget|mid_range|luxury", "estimated_cost_usd": 10,
     "address": "", "must_try_dishes": ["..."], "dietary_notes": ""}
  ],
  "street_food_tips": "",
  "food_safety_notes": "",
  "cultural_dos": ["..."],
  "cultural_donts": ["..."],
  "local_customs": ["..."]
}`

type foodCultureOutput struct {
	City                      string        `json:"city"`
	MustTryDishes             []string      `json:"must_try_dishes"`
	RestaurantRecommendations []travel.Meal `json:"restaurant_recommendations"`
	StreetFoodTips            string        `json:"street_food_tips"`
	FoodSafetyNotes           string        `json:"food_safety_notes"`
	CulturalDos               []string      `json:"cultural_dos"`
	CulturalDonts             []string      `json:"cultural_donts"`
	LocalCustoms              []string      `json:"local_customs"`
}

// FoodCulture gathers per-city food recommendations and cultural tips.
// Cities are handled sequentially; a failed city is skipped rather than
// failing the run. Results are cached per city, budget, and stay length
// so repeat sessions over the same destination skip the model call.
type FoodCulture struct {
	worker
	cache cache.Cache
}

// NewFoodCulture creates the food and culture worker. c may be nil to
// disable caching.
func NewFoodCulture(caller oracle.Caller, settings *config.Settings, c cache.Cache) *FoodCulture {
	return &FoodCulture{
		worker: worker{name: NodeFoodCulture, caller: caller, settings: settings},
		cache:  c,
	}
}

func (f *FoodCulture) Run(ctx context.Context, state travel.TripState) graph.NodeResult[travel.TripState] {
	allocations := sortAllocations(state.CityAllocations)
	if len(allocations) == 0 {
		return failNode(NodeFoodCulture, fmt.Errorf("food culture requires city allocations"))
	}

	budget := travel.BudgetMid
	if state.TripSummary != nil && state.TripSummary.BudgetLevel != "" {
		budget = state.TripSummary.BudgetLevel
	}

	var recommendations []travel.FoodRecommendation
	var culturalTips []string
	for _, alloc := range allocations {
		days := alloc.Days
		if days < 1 {
			days = 1
		}

		out, err := f.cityFood(ctx, alloc, budget, days, state.DietaryPreferences)
		if err != nil {
			continue
		}

		recommendations = append(recommendations, travel.FoodRecommendation{
			City:            alloc.City,
			MustTryDishes:   out.MustTryDishes,
			Restaurants:     balanceMeals(out.RestaurantRecommendations, days),
			StreetFoodTips:  out.StreetFoodTips,
			FoodSafetyNotes: out.FoodSafetyNotes,
		})

		culturalTips = append(culturalTips, prefixTips(alloc.City, out.CulturalDos, "Do")...)
		culturalTips = append(culturalTips, prefixTips(alloc.City, out.CulturalDonts, "Don't")...)
		culturalTips = append(culturalTips, prefixTips(alloc.City, out.LocalCustoms, "")...)
	}

	if len(recommendations) == 0 {
		return failNode(NodeFoodCulture, fmt.Errorf("food culture failed for all %d cities", len(allocations)))
	}

	return graph.NodeResult[travel.TripState]{Delta: travel.TripState{
		FoodRecommendations: recommendations,
		CulturalTips:        culturalTips,
		Messages: []travel.Message{
			note(NodeFoodCulture, "Generated %d food recommendations and %d cultural tips",
				len(recommendations), len(culturalTips)),
		},
	}}
}

// cityFood answers one city's food search, through the cache when one
// is configured.
func (f *FoodCulture) cityFood(ctx context.Context, alloc travel.CityAllocation, budget string, days int, dietary []string) (*foodCultureOutput, error) {
	key := ""
	if f.cache != nil {
		variant := fmt.Sprintf("%s_%dd", budget, days)
		if len(dietary) > 0 {
			variant += "_" + strings.Join(dietary, "_")
		}
		key = cache.FoodSearchKey(alloc.City, variant)
		if raw, err := f.cache.Get(ctx, key); err == nil {
			var cached foodCultureOutput
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
			_ = f.cache.Delete(ctx, key)
		}
	}

	prompt := fmt.Sprintf("City: %s, %s\nBudget level: %s\nDays in city: %d\nRecommend exactly %d breakfast, %d lunch, and %d dinner options.",
		alloc.City, alloc.Country, budget, days, days, days, days)
	if len(dietary) > 0 {
		prompt += fmt.Sprintf("\nDietary preferences: %s", strings.Join(dietary, ", "))
	}

	var out foodCultureOutput
	if err := f.ask(ctx, foodCultureSystemPrompt, prompt, &out); err != nil {
		return nil, err
	}

	if f.cache != nil {
		if raw, err := json.Marshal(out); err == nil {
			_ = f.cache.Set(ctx, key, string(raw), config.TTLRestaurantReviews)
		}
	}
	return &out, nil
}

// balanceMeals keeps at most one restaurant per meal type per day,
// preserving order within each type.
func balanceMeals(meals []travel.Meal, days int) []travel.Meal {
	counts := make(map[string]int, 3)
	out := make([]travel.Meal, 0, len(meals))
	for _, m := range meals {
		if counts[m.MealType] >= days {
			continue
		}
		counts[m.MealType]++
		out = append(out, m)
	}
	return out
}

func prefixTips(city string, tips []string, label string) []string {
	out := make([]string, 0, len(tips))
	for _, tip := range tips {
		if label != "" {
			out = append(out, fmt.Sprintf("%s: %s %s", city, label, tip))
		} else {
			out = append(out, fmt.Sprintf("%s: %s", city, tip))
		}
	}
	return out
}
