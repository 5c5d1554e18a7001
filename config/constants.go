package config

import "time"

// defaultTemperatures holds the per-worker sampling defaults. Creative
// planning runs hot, factual extraction runs cold. Each entry can be
// overridden via TEMPERATURE_<WORKER> in the environment.
var defaultTemperatures = map[string]float64{
	"clarification":    0.3,
	"planner":          0.7,
	"geography":        0.2,
	"research":         0.3,
	"food_culture":     0.5,
	"transport_budget": 0.2,
	"critic":           0.1,
}

// TemperatureFor returns the sampling temperature for a worker,
// preferring a configured override over the built-in default.
func (s *Settings) TemperatureFor(worker string) float64 {
	if t, ok := s.Temperatures[worker]; ok {
		return t
	}
	return defaultTemperatures[worker]
}

// Per-city result caps applied after research. Attractions are further
// bounded by the days allocated to the city.
const (
	MaxAttractionsPerCity = 10
	MaxHotelsPerCity      = 5
)

// Cache TTL tiers. Price quotes churn fastest, station data barely moves.
const (
	TTLTransportPrices   = 4 * time.Hour
	TTLDynamicRoutes     = 2 * time.Hour
	TTLStations          = 7 * 24 * time.Hour
	TTLRestaurantReviews = 24 * time.Hour
	TTLAttractions       = 7 * 24 * time.Hour
)

// Worker model tiers. Planning, research, and validation need the
// stronger model; the rest run on the fast tier.
var primaryModelWorkers = map[string]bool{
	"planner":  true,
	"research": true,
	"critic":   true,
}

// ModelFor returns the model a worker should use given the configured
// tiers.
func (s *Settings) ModelFor(worker string) string {
	if primaryModelWorkers[worker] {
		return s.PrimaryModel
	}
	return s.FastModel
}
