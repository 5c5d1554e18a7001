package sources

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tripflow-ai/tripflow/travel"
)

// MockTransportSource serves canned quotes. If no canned quotes are
// set it synthesizes one plausible quote per query so workflow tests
// always have price data to budget with.
type MockTransportSource struct {
	mu     sync.Mutex
	name   string
	quotes []travel.ScrapedPrice
	err    error

	// Queries records every query received.
	Queries []PriceQuery
}

// NewMockTransportSource creates a mock reporting the given source name.
func NewMockTransportSource(name string, quotes ...travel.ScrapedPrice) *MockTransportSource {
	return &MockTransportSource{name: name, quotes: quotes}
}

// Fail makes every subsequent call return err.
func (m *MockTransportSource) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockTransportSource) Name() string { return m.name }

func (m *MockTransportSource) Prices(ctx context.Context, q PriceQuery) ([]travel.ScrapedPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Queries = append(m.Queries, q)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.quotes) > 0 {
		out := make([]travel.ScrapedPrice, len(m.quotes))
		copy(out, m.quotes)
		for i := range out {
			out[i].FromLocation = q.FromCity
			out[i].ToLocation = q.ToCity
			out[i].TravelDate = q.TravelDate
		}
		return out, nil
	}

	mode := q.RecommendedMode
	if mode == "" {
		mode = travel.ModeTrain
	}
	return []travel.ScrapedPrice{{
		Source:           m.name,
		Mode:             mode,
		FromLocation:     q.FromCity,
		ToLocation:       q.ToCity,
		TravelDate:       q.TravelDate,
		Operator:         fmt.Sprintf("%s-operator", m.name),
		PriceUSD:         45,
		DurationHrs:      5,
		AlternativeDates: mockAlternatives(q.TravelDate, 45),
	}}, nil
}

// mockAlternatives synthesizes nearby-date quotes around a base price:
// one cheaper the next day, one pricier the day after.
func mockAlternatives(travelDate string, base float64) []travel.PriceAlternative {
	start, err := time.Parse("2006-01-02", travelDate)
	if err != nil {
		return nil
	}
	return []travel.PriceAlternative{
		{Date: start.AddDate(0, 0, 1).Format("2006-01-02"), PriceUSD: base * 0.8},
		{Date: start.AddDate(0, 0, 2).Format("2006-01-02"), PriceUSD: base * 1.2},
	}
}

// MockStationSource returns a deterministic station set per city.
type MockStationSource struct{}

func (MockStationSource) FindStations(ctx context.Context, city, country string) (travel.StationInfo, error) {
	return travel.StationInfo{
		Airport:      city + " International Airport",
		TrainStation: city + " Junction",
		BusStation:   city + " Central Bus Stand",
	}, nil
}

// MockPlacesSource returns a fixed number of hotels per city.
type MockPlacesSource struct {
	HotelsPerCity int
}

func (m MockPlacesSource) SearchHotels(ctx context.Context, city, country string) ([]travel.Hotel, error) {
	n := m.HotelsPerCity
	if n <= 0 {
		n = 3
	}
	hotels := make([]travel.Hotel, 0, n)
	for i := 1; i <= n; i++ {
		hotels = append(hotels, travel.Hotel{
			Name:        fmt.Sprintf("%s Hotel %d", city, i),
			City:        city,
			Rating:      4.0,
			PricePerUSD: float64(40 + 10*i),
		})
	}
	return hotels, nil
}
