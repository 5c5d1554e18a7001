package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/tripflow-ai/tripflow/travel"
	"github.com/tripflow-ai/tripflow/travel/sources"
)

func scraperState() travel.TripState {
	return travel.TripState{
		OriginCity:      "Delhi",
		TravelStartDate: "2026-02-10",
		CityAllocations: []travel.CityAllocation{
			{City: "Jaipur", Country: "India", Days: 3, VisitOrder: 1},
			{City: "Udaipur", Country: "India", Days: 2, VisitOrder: 2},
		},
		RouteSegments: []travel.RouteSegment{
			{FromCity: "Jaipur", ToCity: "Udaipur", RecommendedTransport: travel.ModeTrain},
		},
	}
}

func TestSegmentDates(t *testing.T) {
	allocations := []travel.CityAllocation{
		{City: "Jaipur", Days: 3, VisitOrder: 1},
		{City: "Udaipur", Days: 2, VisitOrder: 2},
	}

	dates := SegmentDates(allocations, "2026-02-10")
	if dates["Jaipur"] != "2026-02-10" {
		t.Errorf("Jaipur date = %q", dates["Jaipur"])
	}
	if dates["Udaipur"] != "2026-02-13" {
		t.Errorf("Udaipur date = %q, want start plus Jaipur days", dates["Udaipur"])
	}

	if got := SegmentDates(allocations, ""); len(got) != 0 {
		t.Errorf("no start date should yield no segment dates, got %v", got)
	}
	if got := SegmentDates(allocations, "soon"); len(got) != 0 {
		t.Errorf("unparseable start date should yield no segment dates, got %v", got)
	}
}

func TestPriceScraper(t *testing.T) {
	t.Run("origin leg and route segments are priced", func(t *testing.T) {
		registry := sources.NewRegistry()
		rome2rio := sources.NewMockTransportSource(sources.SourceRome2Rio)
		registry.RegisterTransport(rome2rio)

		scraper := NewPriceScraper(registry, testSettings())
		result := scraper.Run(context.Background(), scraperState())
		if result.Err != nil {
			t.Fatal(result.Err)
		}

		// Origin leg Delhi->Jaipur plus segment Jaipur->Udaipur.
		if len(rome2rio.Queries) != 2 {
			t.Fatalf("queries = %d, want 2", len(rome2rio.Queries))
		}
		if rome2rio.Queries[0].FromCity != "Delhi" || rome2rio.Queries[0].ToCity != "Jaipur" {
			t.Errorf("first query = %+v", rome2rio.Queries[0])
		}
		if rome2rio.Queries[0].International {
			t.Error("Delhi into India is not international")
		}
		if rome2rio.Queries[1].TravelDate != "2026-02-13" {
			t.Errorf("segment date = %q, want departure after Jaipur days", rome2rio.Queries[1].TravelDate)
		}
		if len(result.Delta.ScrapedTransportPrices) != 2 {
			t.Errorf("prices = %d", len(result.Delta.ScrapedTransportPrices))
		}
	})

	t.Run("failed sources are absorbed and stations looked up", func(t *testing.T) {
		registry := sources.NewRegistry()
		broken := sources.NewMockTransportSource(sources.SourceRome2Rio)
		broken.Fail(errors.New("blocked"))
		registry.RegisterTransport(broken)
		registry.SetStations(sources.MockStationSource{})

		scraper := NewPriceScraper(registry, testSettings())
		result := scraper.Run(context.Background(), scraperState())
		if result.Err != nil {
			t.Fatalf("scraper must absorb source failures: %v", result.Err)
		}

		if len(result.Delta.ScrapedTransportPrices) != 0 {
			t.Errorf("prices = %d, want 0", len(result.Delta.ScrapedTransportPrices))
		}
		stations := result.Delta.NearestStations
		if len(stations) != 2 {
			t.Fatalf("stations = %v, want both segment endpoints", stations)
		}
		if stations["Jaipur"].TrainStation != "Jaipur Junction" {
			t.Errorf("Jaipur station = %+v", stations["Jaipur"])
		}
	})

	t.Run("nothing to scrape", func(t *testing.T) {
		scraper := NewPriceScraper(sources.NewRegistry(), testSettings())
		result := scraper.Run(context.Background(), travel.TripState{})
		if result.Err != nil {
			t.Fatal(result.Err)
		}
		if len(result.Delta.ScrapedTransportPrices) != 0 {
			t.Errorf("prices = %v", result.Delta.ScrapedTransportPrices)
		}
	})
}
