package agents

import (
	"context"
	"time"

	"github.com/tripflow-ai/tripflow/config"
	"github.com/tripflow-ai/tripflow/graph"
	"github.com/tripflow-ai/tripflow/travel"
	"github.com/tripflow-ai/tripflow/travel/sources"
)

// PriceScraper fetches live transport prices for every route segment
// before budgeting. It never fails the run: sources that error are
// skipped, and segments with no price results fall back to a station
// lookup so the budget worker at least knows the transit hubs.
type PriceScraper struct {
	registry *sources.Registry
	settings *config.Settings

	// now is overridable for date-default tests.
	now func() time.Time
}

// NewPriceScraper creates the scraping worker.
func NewPriceScraper(registry *sources.Registry, settings *config.Settings) *PriceScraper {
	return &PriceScraper{registry: registry, settings: settings, now: time.Now}
}

func (p *PriceScraper) Run(ctx context.Context, state travel.TripState) graph.NodeResult[travel.TripState] {
	if len(state.RouteSegments) == 0 && state.OriginCity == "" {
		return graph.NodeResult[travel.TripState]{Delta: travel.TripState{
			ScrapedTransportPrices: []travel.ScrapedPrice{},
			Messages:               []travel.Message{note(NodePriceScraper, "No segments to price")},
		}}
	}

	allocations := sortAllocations(state.CityAllocations)
	segmentDates := SegmentDates(allocations, state.TravelStartDate)

	var prices []travel.ScrapedPrice
	stations := make(map[string]travel.StationInfo)

	// Leg from the traveler's origin into the first city.
	if state.OriginCity != "" && len(allocations) > 0 {
		first := allocations[0]
		prices = append(prices, p.scrapeSegment(ctx, sources.PriceQuery{
			FromCity:      state.OriginCity,
			ToCity:        first.City,
			Country:       first.Country,
			TravelDate:    p.defaultDate(state.TravelStartDate),
			International: sources.IsInternational(state.OriginCity, first.Country),
		})...)
	}

	for _, seg := range state.RouteSegments {
		if seg.FromCity == "" || seg.ToCity == "" {
			continue
		}
		date, ok := segmentDates[seg.FromCity]
		if !ok {
			date = p.defaultDate(state.TravelStartDate)
		}

		segPrices := p.scrapeSegment(ctx, sources.PriceQuery{
			FromCity:        seg.FromCity,
			ToCity:          seg.ToCity,
			Country:         countryForCity(seg.ToCity, allocations),
			TravelDate:      date,
			RecommendedMode: seg.RecommendedTransport,
		})
		prices = append(prices, segPrices...)

		if len(segPrices) == 0 && p.registry.Stations() != nil {
			for _, city := range []string{seg.FromCity, seg.ToCity} {
				if _, seen := stations[city]; seen {
					continue
				}
				if info, err := p.registry.Stations().FindStations(ctx, city, countryForCity(city, allocations)); err == nil {
					stations[city] = info
				}
			}
		}
	}

	delta := travel.TripState{
		ScrapedTransportPrices: prices,
		Messages: []travel.Message{
			note(NodePriceScraper, "Found %d real prices, %d station lookups", len(prices), len(stations)),
		},
	}
	if len(stations) > 0 {
		delta.NearestStations = stations
	}
	return graph.NodeResult[travel.TripState]{Delta: delta}
}

// scrapeSegment queries every selected source for one segment under
// the scrape timeout, collecting whatever succeeds.
func (p *PriceScraper) scrapeSegment(ctx context.Context, q sources.PriceQuery) []travel.ScrapedPrice {
	var out []travel.ScrapedPrice
	for _, src := range p.registry.SelectTransport(q) {
		srcCtx, cancel := context.WithTimeout(ctx, p.settings.ScrapeTimeout)
		prices, err := src.Prices(srcCtx, q)
		cancel()
		if err != nil {
			continue
		}
		out = append(out, prices...)
	}
	return out
}

// defaultDate falls back to 30 days out when the trip has no start date.
func (p *PriceScraper) defaultDate(startDate string) string {
	if startDate != "" {
		return startDate
	}
	return p.now().AddDate(0, 0, 30).Format("2006-01-02")
}

// SegmentDates computes the departure date from each city: the trip
// start plus the days spent in every earlier city.
func SegmentDates(allocations []travel.CityAllocation, startDate string) map[string]string {
	if startDate == "" || len(allocations) == 0 {
		return map[string]string{}
	}
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return map[string]string{}
	}

	dates := make(map[string]string, len(allocations))
	current := start
	for _, alloc := range allocations {
		if alloc.City == "" {
			continue
		}
		dates[alloc.City] = current.Format("2006-01-02")
		days := alloc.Days
		if days < 1 {
			days = 1
		}
		current = current.AddDate(0, 0, days)
	}
	return dates
}

func countryForCity(city string, allocations []travel.CityAllocation) string {
	for _, alloc := range allocations {
		if alloc.City == city {
			return alloc.Country
		}
	}
	return ""
}
