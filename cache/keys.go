package cache

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/tripflow-ai/tripflow/config"
)

// TransportPriceKey builds the key for a transport price lookup.
// Inputs are normalized (lowercased, spaces to underscores) before
// hashing so "New Delhi" and "new delhi" address the same entry.
func TransportPriceKey(mode, from, to, travelDate, classType string) string {
	normalized := strings.ToLower(mode + ":" + from + ":" + to + ":" + travelDate)
	normalized = strings.ReplaceAll(normalized, " ", "_")
	if classType != "" {
		normalized += ":" + strings.ReplaceAll(strings.ToLower(classType), " ", "_")
	}
	return "transport:" + shortHash(normalized)
}

// StationInfoKey builds the key for station/airport info for a city.
func StationInfoKey(city, country string) string {
	normalized := strings.ReplaceAll(strings.ToLower(city+":"+country), " ", "_")
	return "stations:" + shortHash(normalized)
}

// AttractionSearchKey builds the key for an attraction search.
func AttractionSearchKey(city, query string) string {
	if query == "" {
		query = "attractions"
	}
	return "attractions:" + normalize(city) + ":" + normalize(query)
}

// FoodSearchKey builds the key for a food recommendation search.
func FoodSearchKey(city, cuisine string) string {
	cuisinePart := "all"
	if cuisine != "" {
		cuisinePart = normalize(cuisine)
	}
	return "food:" + normalize(city) + ":" + cuisinePart
}

// highFrequencyRoutes are city pairs with many daily departures where
// prices move fast enough to warrant the shorter TTL.
var highFrequencyRoutes = map[[2]string]bool{
	{"delhi", "mumbai"}: true, {"mumbai", "delhi"}: true,
	{"delhi", "bangalore"}: true, {"bangalore", "delhi"}: true,
	{"delhi", "bengaluru"}: true, {"bengaluru", "delhi"}: true,
	{"mumbai", "bangalore"}: true, {"bangalore", "mumbai"}: true,
	{"mumbai", "bengaluru"}: true, {"bengaluru", "mumbai"}: true,
	{"mumbai", "goa"}: true, {"goa", "mumbai"}: true,
	{"delhi", "kolkata"}: true, {"kolkata", "delhi"}: true,
	{"delhi", "chennai"}: true, {"chennai", "delhi"}: true,
	{"mumbai", "chennai"}: true, {"chennai", "mumbai"}: true,
	{"new york", "london"}: true, {"london", "new york"}: true,
	{"tokyo", "osaka"}: true, {"osaka", "tokyo"}: true,
	{"singapore", "kuala lumpur"}: true, {"kuala lumpur", "singapore"}: true,
	{"hong kong", "singapore"}: true, {"singapore", "hong kong"}: true,
	{"dubai", "mumbai"}: true, {"mumbai", "dubai"}: true,
	{"dubai", "delhi"}: true, {"delhi", "dubai"}: true,
}

// IsHighFrequencyRoute reports whether a city pair sees frequent
// departures and volatile pricing.
func IsHighFrequencyRoute(from, to string) bool {
	pair := [2]string{
		strings.TrimSpace(strings.ToLower(from)),
		strings.TrimSpace(strings.ToLower(to)),
	}
	return highFrequencyRoutes[pair]
}

// TransportTTL picks the price TTL tier for a route.
func TransportTTL(from, to string) time.Duration {
	if IsHighFrequencyRoute(from, to) {
		return config.TTLDynamicRoutes
	}
	return config.TTLTransportPrices
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(s)), " ", "_")
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func shortHash(s string) string {
	return md5Hex(s)[:16]
}
