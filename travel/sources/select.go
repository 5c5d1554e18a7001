package sources

import (
	"github.com/tripflow-ai/tripflow/cache"
	"github.com/tripflow-ai/tripflow/travel"
)

// Registry holds the available data sources keyed by name.
type Registry struct {
	transport map[string]TransportSource
	stations  StationSource
	places    PlacesSource
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{transport: make(map[string]TransportSource)}
}

// RegisterTransport adds a transport source under its own name.
func (r *Registry) RegisterTransport(s TransportSource) {
	r.transport[s.Name()] = s
}

// SetStations sets the station lookup source.
func (r *Registry) SetStations(s StationSource) { r.stations = s }

// SetPlaces sets the place search source.
func (r *Registry) SetPlaces(s PlacesSource) { r.places = s }

// Stations returns the station source, or nil if none is registered.
func (r *Registry) Stations() StationSource { return r.stations }

// Places returns the place search source, or nil if none is registered.
func (r *Registry) Places() PlacesSource { return r.places }

// Cached returns a new registry whose sources read and write through
// the given cache. The receiver is left untouched.
func (r *Registry) Cached(c cache.Cache) *Registry {
	cached := NewRegistry()
	for _, s := range r.transport {
		cached.RegisterTransport(WithCache(s, c))
	}
	if r.stations != nil {
		cached.SetStations(WithStationCache(r.stations, c))
	}
	if r.places != nil {
		cached.SetPlaces(WithPlacesCache(r.places, c))
	}
	return cached
}

// SelectTransport picks the sources to query for a segment, in order:
//
//   - rome2rio always, for broad mode coverage
//   - google_flights for international legs or when a flight is the
//     recommended mode
//   - redbus and trainman on India routes, gated by the recommended
//     mode when one is set
//   - 12go on Southeast Asia routes
//
// Unregistered sources are skipped.
func (r *Registry) SelectTransport(q PriceQuery) []TransportSource {
	var names []string

	names = append(names, SourceRome2Rio)

	if q.International || q.RecommendedMode == travel.ModeFlight {
		names = append(names, SourceGoogleFlights)
	}

	if IsIndiaRoute(q.FromCity, q.ToCity, q.Country) {
		if q.RecommendedMode == "" || q.RecommendedMode == travel.ModeBus {
			names = append(names, SourceRedbus)
		}
		if q.RecommendedMode == "" || q.RecommendedMode == travel.ModeTrain {
			names = append(names, SourceTrainman)
		}
	}

	if IsSEAsiaCountry(q.Country) {
		names = append(names, SourceTwelveGoAsia)
	}

	selected := make([]TransportSource, 0, len(names))
	for _, name := range names {
		if s, ok := r.transport[name]; ok {
			selected = append(selected, s)
		}
	}
	return selected
}
