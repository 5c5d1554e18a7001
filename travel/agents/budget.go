package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tripflow-ai/tripflow/config"
	"github.com/tripflow-ai/tripflow/graph"
	"github.com/tripflow-ai/tripflow/oracle"
	"github.com/tripflow-ai/tripflow/travel"
)

const budgetSystemPrompt = `You are a transport and budget analyst. Using the route segments and the real scraped prices provided, pick the best transport option for each leg and build a full trip budget.

Prefer scraped prices over estimates; when a leg has scraped quotes, the recommended option must come from them. Estimate accommodation, food, activities, and local transport from the budget level and day counts.

Respond with JSON:
{
  "inter_city_options": [
    {"from_location": "...", "to_location": "...",
     "options": [{"mode": "train", "from_location": "...", "to_location": "...", "duration_hours": 4, "estimated_cost_usd": 25, "notes": ""}],
     "recommended": {"mode": "train", "from_location": "...", "to_location": "...", "duration_hours": 4, "estimated_cost_usd": 25},
     "recommendation_reason": "..."}
  ],
  "local_transport_recommendations": [{"city": "...", "tips": ["..."]}],
  "budget_breakdown": {
    "transport_inter_city": 0, "transport_local": 0, "accommodation": 0,
    "food": 0, "activities_entrance_fees": 0, "miscellaneous": 0,
    "total": 0, "currency": "USD", "notes": []
  },
  "money_saving_tips": ["..."],
  "booking_tips": ["..."]
}`

type budgetOutput struct {
	InterCityOptions              []travel.TransportOption   `json:"inter_city_options"`
	LocalTransportRecommendations []travel.CityTransportTips `json:"local_transport_recommendations"`
	BudgetBreakdown               travel.BudgetBreakdown     `json:"budget_breakdown"`
	MoneySavingTips               []string                   `json:"money_saving_tips"`
	BookingTips                   []string                   `json:"booking_tips"`
}

// TransportBudget turns route segments and scraped prices into
// per-leg transport picks and a trip budget.
type TransportBudget struct {
	worker
}

// NewTransportBudget creates the budgeting worker.
func NewTransportBudget(caller oracle.Caller, settings *config.Settings) *TransportBudget {
	return &TransportBudget{worker{name: NodeTransportBudget, caller: caller, settings: settings}}
}

func (t *TransportBudget) Run(ctx context.Context, state travel.TripState) graph.NodeResult[travel.TripState] {
	var sb strings.Builder

	if state.TripSummary != nil {
		fmt.Fprintf(&sb, "Budget level: %s\nTotal days: %d\nTraveler profile: %s\n\n",
			state.TripSummary.BudgetLevel, state.TripSummary.TotalDays, state.TripSummary.TravelerProfile)
	}

	sb.WriteString("Route segments:\n")
	for _, seg := range state.RouteSegments {
		fmt.Fprintf(&sb, "- %s to %s: %.0f km, recommended %s, %.1fh\n",
			seg.FromCity, seg.ToCity, seg.DistanceKm, seg.RecommendedTransport, seg.TravelTimeHours)
	}
	if state.OriginCity != "" {
		fmt.Fprintf(&sb, "- Origin leg: %s into the first city\n", state.OriginCity)
	}

	if len(state.ScrapedTransportPrices) > 0 {
		sb.WriteString("\nScraped prices (use these over estimates):\n")
		for _, price := range state.ScrapedTransportPrices {
			fmt.Fprintf(&sb, "- [%s] %s %s to %s on %s: $%.2f", price.Source, price.Mode,
				price.FromLocation, price.ToLocation, price.TravelDate, price.PriceUSD)
			if price.Operator != "" {
				fmt.Fprintf(&sb, " (%s)", price.Operator)
			}
			for _, alt := range price.AlternativeDates {
				fmt.Fprintf(&sb, " [%s: $%.2f]", alt.Date, alt.PriceUSD)
			}
			sb.WriteString("\n")
		}
	}

	if len(state.NearestStations) > 0 {
		sb.WriteString("\nTransit hubs for cities without direct quotes:\n")
		for city, info := range state.NearestStations {
			fmt.Fprintf(&sb, "- %s: airport %s, train %s, bus %s\n",
				city, info.Airport, info.TrainStation, info.BusStation)
		}
	}

	var out budgetOutput
	if err := t.ask(ctx, budgetSystemPrompt, sb.String(), &out); err != nil {
		return failNode(NodeTransportBudget, err)
	}

	for i := range out.InterCityOptions {
		opt := &out.InterCityOptions[i]
		opt.Recommended.CheaperDates = cheaperDates(
			state.ScrapedTransportPrices, opt.FromLocation, opt.ToLocation, opt.Recommended.EstimatedCostUSD)
	}

	breakdown := out.BudgetBreakdown
	if breakdown.Currency == "" {
		breakdown.Currency = "USD"
	}
	if breakdown.Total == 0 {
		breakdown.Total = breakdown.TransportInterCity + breakdown.TransportLocal +
			breakdown.Accommodation + breakdown.Food +
			breakdown.ActivitiesEntranceFees + breakdown.Miscellaneous
	}
	breakdown.Notes = append(breakdown.Notes, out.MoneySavingTips...)

	return graph.NodeResult[travel.TripState]{Delta: travel.TripState{
		TransportOptions: out.InterCityOptions,
		BudgetBreakdown:  &breakdown,
		Messages: []travel.Message{
			note(NodeTransportBudget, "Estimated total trip cost: $%.0f USD", breakdown.Total),
		},
	}}
}

// cheaperDates collects alternative-date quotes for a leg that beat the
// recommended price, cheapest first, capped at three.
func cheaperDates(prices []travel.ScrapedPrice, from, to string, recommended float64) []travel.PriceAlternative {
	if recommended <= 0 {
		return nil
	}
	var out []travel.PriceAlternative
	for _, price := range prices {
		if price.FromLocation != from || price.ToLocation != to {
			continue
		}
		for _, alt := range price.AlternativeDates {
			if alt.PriceUSD < recommended {
				out = append(out, alt)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceUSD < out[j].PriceUSD })
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}
