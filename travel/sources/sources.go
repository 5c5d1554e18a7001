// Package sources defines the external data providers the workflow
// pulls from: transport price scrapers, station lookups, and place
// search. Implementations wrap real scraping backends; the mocks here
// stand in for tests and offline runs.
package sources

import (
	"context"

	"github.com/tripflow-ai/tripflow/travel"
)

// Source names, used in selection and in normalized price records.
const (
	SourceRome2Rio      = "rome2rio"
	SourceGoogleFlights = "google_flights"
	SourceRedbus        = "redbus"
	SourceTrainman      = "trainman"
	SourceTwelveGoAsia  = "12go_asia"
)

// PriceQuery describes one segment to fetch prices for.
type PriceQuery struct {
	FromCity        string
	ToCity          string
	Country         string
	TravelDate      string
	RecommendedMode string
	International   bool
}

// TransportSource fetches price quotes for a segment. Implementations
// return normalized records; a failed fetch returns an error and the
// caller moves on to the next source.
type TransportSource interface {
	Name() string
	Prices(ctx context.Context, q PriceQuery) ([]travel.ScrapedPrice, error)
}

// StationSource finds the transit hubs serving a city, used when no
// direct price results come back for a segment.
type StationSource interface {
	FindStations(ctx context.Context, city, country string) (travel.StationInfo, error)
}

// PlacesSource searches accommodation for a city. The research worker
// merges its results with model-sourced attraction lists.
type PlacesSource interface {
	SearchHotels(ctx context.Context, city, country string) ([]travel.Hotel, error)
}
