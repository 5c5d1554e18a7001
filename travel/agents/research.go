package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tripflow-ai/tripflow/config"
	"github.com/tripflow-ai/tripflow/graph"
	"github.com/tripflow-ai/tripflow/oracle"
	"github.com/tripflow-ai/tripflow/travel"
	"github.com/tripflow-ai/tripflow/travel/sources"
)

const researchSystemPrompt = `You are a destination researcher. For the given city, list the attractions a traveler should consider, with realistic visit durations and entrance fees.

Respond with JSON:
{
  "city": "...",
  "attractions_found": [
    {"name": "...", "city": "...", "description": "...", "category": "museum|landmark|nature|market|temple|other",
     "estimated_duration_hours": 2, "address": "", "opening_hours": "", "entrance_fee_usd": 0,
     "booking_required": false, "tips": "", "source_url": ""}
  ],
  "local_tips": ["..."],
  "sources_browsed": ["..."]
}`

type researchOutput struct {
	City             string              `json:"city"`
	AttractionsFound []travel.Attraction `json:"attractions_found"`
	LocalTips        []string            `json:"local_tips"`
	SourcesBrowsed   []string            `json:"sources_browsed"`
}

// cityResearch is one city's results, indexed for stable merging.
type cityResearch struct {
	order       int
	city        string
	attractions []travel.Attraction
	hotels      []travel.Hotel
	sources     []string
	err         error
}

// Research fans out one model call per city, bounded by the configured
// concurrency limit, and merges results in visit order so the output
// is deterministic regardless of completion order. A single failed
// city is absorbed; the trip is planned from the cities that worked.
type Research struct {
	worker
	places sources.PlacesSource
}

// NewResearch creates the research worker. places may be nil, in which
// case no hotels are gathered.
func NewResearch(caller oracle.Caller, settings *config.Settings, places sources.PlacesSource) *Research {
	return &Research{
		worker: worker{name: NodeResearch, caller: caller, settings: settings},
		places: places,
	}
}

func (r *Research) Run(ctx context.Context, state travel.TripState) graph.NodeResult[travel.TripState] {
	allocations := sortAllocations(state.CityAllocations)
	if len(allocations) == 0 {
		return failNode(NodeResearch, fmt.Errorf("research requires city allocations"))
	}

	limit := r.settings.FanoutLimit
	if limit > len(allocations) {
		limit = len(allocations)
	}
	sem := make(chan struct{}, limit)

	results := make([]cityResearch, len(allocations))
	var wg sync.WaitGroup
	for i, alloc := range allocations {
		wg.Add(1)
		go func(idx int, alloc travel.CityAllocation) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[idx] = r.researchCity(ctx, idx, alloc)
		}(i, alloc)
	}
	wg.Wait()

	delta := travel.TripState{}
	var researched, failed []string
	for _, res := range results {
		if res.err != nil {
			failed = append(failed, res.city)
			// Failed cities still leave a trace in the source log.
			delta.ResearchSources = append(delta.ResearchSources,
				fmt.Sprintf("error: %s research failed: %v", res.city, res.err))
			continue
		}
		researched = append(researched, res.city)
		delta.Attractions = append(delta.Attractions, res.attractions...)
		delta.Hotels = append(delta.Hotels, res.hotels...)
		delta.ResearchSources = append(delta.ResearchSources, res.sources...)
	}

	if len(researched) == 0 {
		return failNode(NodeResearch, fmt.Errorf("research failed for all %d cities", len(allocations)))
	}

	msg := fmt.Sprintf("Found %d attractions in %s", len(delta.Attractions), strings.Join(researched, ", "))
	if len(failed) > 0 {
		msg += fmt.Sprintf(" (no results for %s)", strings.Join(failed, ", "))
	}
	delta.Messages = []travel.Message{note(NodeResearch, "%s", msg)}

	return graph.NodeResult[travel.TripState]{Delta: delta}
}

func (r *Research) researchCity(ctx context.Context, order int, alloc travel.CityAllocation) cityResearch {
	res := cityResearch{order: order, city: alloc.City}

	prompt := fmt.Sprintf("City: %s, %s\nDays available: %d\nKnown highlights: %s",
		alloc.City, alloc.Country, alloc.Days, strings.Join(alloc.Highlights, ", "))

	var out researchOutput
	if err := r.ask(ctx, researchSystemPrompt, prompt, &out); err != nil {
		res.err = err
		return res
	}

	// Cap at four attractions per allocated day so a one-day stop does
	// not drown in options, bounded by the absolute per-city limit.
	max := alloc.Days * 4
	if max < 4 {
		max = 4
	}
	if max > config.MaxAttractionsPerCity {
		max = config.MaxAttractionsPerCity
	}
	attractions := dedupeAttractions(out.AttractionsFound)
	if len(attractions) > max {
		attractions = attractions[:max]
	}
	for i := range attractions {
		if attractions[i].City == "" {
			attractions[i].City = alloc.City
		}
	}
	res.attractions = attractions
	res.sources = out.SourcesBrowsed

	if r.places != nil {
		hotels, err := r.places.SearchHotels(ctx, alloc.City, alloc.Country)
		if err == nil {
			if len(hotels) > config.MaxHotelsPerCity {
				hotels = hotels[:config.MaxHotelsPerCity]
			}
			res.hotels = hotels
		}
	}
	return res
}
