package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tripflow-ai/tripflow/cache"
	"github.com/tripflow-ai/tripflow/config"
	"github.com/tripflow-ai/tripflow/travel"
)

// CachedTransportSource wraps a TransportSource with TTL caching.
// Quotes are keyed by source, segment, and travel date; high-frequency
// routes get the shorter TTL tier. Cache hits are marked FromCache so
// downstream consumers can tell live quotes from replayed ones.
type CachedTransportSource struct {
	inner TransportSource
	cache cache.Cache
}

// WithCache wraps a transport source with the given cache.
func WithCache(inner TransportSource, c cache.Cache) *CachedTransportSource {
	return &CachedTransportSource{inner: inner, cache: c}
}

func (c *CachedTransportSource) Name() string { return c.inner.Name() }

func (c *CachedTransportSource) Prices(ctx context.Context, q PriceQuery) ([]travel.ScrapedPrice, error) {
	key := cache.TransportPriceKey(c.inner.Name(), q.FromCity, q.ToCity, q.TravelDate, "")

	if raw, err := c.cache.Get(ctx, key); err == nil {
		var prices []travel.ScrapedPrice
		if err := json.Unmarshal([]byte(raw), &prices); err == nil {
			for i := range prices {
				prices[i].FromCache = true
			}
			return prices, nil
		}
		// Corrupt entry, fall through to a live fetch.
		_ = c.cache.Delete(ctx, key)
	} else if !errors.Is(err, cache.ErrMiss) {
		return nil, fmt.Errorf("cache lookup for %s: %w", c.inner.Name(), err)
	}

	prices, err := c.inner.Prices(ctx, q)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(prices); err == nil {
		ttl := cache.TransportTTL(q.FromCity, q.ToCity)
		_ = c.cache.Set(ctx, key, string(encoded), ttl)
	}
	return prices, nil
}

// CachedStationSource wraps a StationSource with the long station TTL.
// Hub listings barely change, so entries live for a week.
type CachedStationSource struct {
	inner StationSource
	cache cache.Cache
}

// WithStationCache wraps a station source with the given cache.
func WithStationCache(inner StationSource, c cache.Cache) *CachedStationSource {
	return &CachedStationSource{inner: inner, cache: c}
}

func (c *CachedStationSource) FindStations(ctx context.Context, city, country string) (travel.StationInfo, error) {
	key := cache.StationInfoKey(city, country)

	if raw, err := c.cache.Get(ctx, key); err == nil {
		var info travel.StationInfo
		if err := json.Unmarshal([]byte(raw), &info); err == nil {
			return info, nil
		}
		_ = c.cache.Delete(ctx, key)
	} else if !errors.Is(err, cache.ErrMiss) {
		return travel.StationInfo{}, fmt.Errorf("cache lookup for stations: %w", err)
	}

	info, err := c.inner.FindStations(ctx, city, country)
	if err != nil {
		return travel.StationInfo{}, err
	}
	if encoded, err := json.Marshal(info); err == nil {
		_ = c.cache.Set(ctx, key, string(encoded), config.TTLStations)
	}
	return info, nil
}

// CachedPlacesSource wraps a PlacesSource with the attraction-tier TTL.
type CachedPlacesSource struct {
	inner PlacesSource
	cache cache.Cache
}

// WithPlacesCache wraps a places source with the given cache.
func WithPlacesCache(inner PlacesSource, c cache.Cache) *CachedPlacesSource {
	return &CachedPlacesSource{inner: inner, cache: c}
}

func (c *CachedPlacesSource) SearchHotels(ctx context.Context, city, country string) ([]travel.Hotel, error) {
	key := cache.AttractionSearchKey(city, "hotels")

	if raw, err := c.cache.Get(ctx, key); err == nil {
		var hotels []travel.Hotel
		if err := json.Unmarshal([]byte(raw), &hotels); err == nil {
			return hotels, nil
		}
		_ = c.cache.Delete(ctx, key)
	} else if !errors.Is(err, cache.ErrMiss) {
		return nil, fmt.Errorf("cache lookup for hotels: %w", err)
	}

	hotels, err := c.inner.SearchHotels(ctx, city, country)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(hotels); err == nil {
		_ = c.cache.Set(ctx, key, string(encoded), config.TTLAttractions)
	}
	return hotels, nil
}
