package travel

// TripState is the shared state merged across every workflow node.
// Field groups follow the worker that produces them. Merge semantics
// live in Reduce; see the comments there.
type TripState struct {
	// Conversation log, append-only.
	Messages []Message `json:"messages,omitempty"`

	// User input.
	UserRequest string `json:"user_request"`

	// Clarification outputs.
	ClarificationNeeded    *bool                   `json:"clarification_needed,omitempty"`
	ClarificationQuestions []ClarificationQuestion `json:"clarification_questions,omitempty"`
	ClarificationAnswers   map[string]string       `json:"clarification_answers,omitempty"`

	// User preferences, from clarification answers or the request itself.
	OriginCity           string   `json:"origin_city,omitempty"`
	DietaryPreferences   []string `json:"dietary_preferences,omitempty"`
	TravelPace           string   `json:"travel_pace,omitempty"`
	PlacesVisited        []string `json:"places_visited,omitempty"`
	SpecificDestinations []string `json:"specific_destinations,omitempty"`

	// Travel dates for real-time pricing.
	TravelStartDate       string `json:"travel_start_date,omitempty"`
	TravelEndDate         string `json:"travel_end_date,omitempty"`
	TravelDateFlexibility string `json:"travel_date_flexibility,omitempty"`
	TravelDateDescription string `json:"travel_date_description,omitempty"`

	// Planner outputs.
	TripSummary     *TripSummary     `json:"trip_summary,omitempty"`
	CityAllocations []CityAllocation `json:"city_allocations,omitempty"`

	// Geography outputs.
	RouteValidation *RouteValidation `json:"route_validation,omitempty"`
	RouteSegments   []RouteSegment   `json:"route_segments,omitempty"`

	// Research outputs, accumulated across per-city calls.
	Attractions     []Attraction `json:"attractions,omitempty"`
	Hotels          []Hotel      `json:"hotels,omitempty"`
	ResearchSources []string     `json:"research_sources,omitempty"`

	// Food and culture outputs.
	FoodRecommendations []FoodRecommendation `json:"food_recommendations,omitempty"`
	CulturalTips        []string             `json:"cultural_tips,omitempty"`

	// Price scraping outputs.
	ScrapedTransportPrices []ScrapedPrice         `json:"scraped_transport_prices,omitempty"`
	NearestStations        map[string]StationInfo `json:"nearest_stations,omitempty"`

	// Transport and budget outputs.
	TransportOptions []TransportOption `json:"transport_options,omitempty"`
	BudgetBreakdown  *BudgetBreakdown  `json:"budget_breakdown,omitempty"`

	// Critic outputs.
	ValidationResult *ValidationResult `json:"validation_result,omitempty"`
	CriticFeedback   *string           `json:"critic_feedback,omitempty"`

	// Control flow.
	IterationCount int `json:"iteration_count"`

	// Final output.
	FinalItinerary *Itinerary `json:"final_itinerary,omitempty"`
}

// NewTripState creates the initial state for a planning session.
func NewTripState(userRequest string) TripState {
	return TripState{UserRequest: userRequest}
}

// Reduce merges a node's delta into the previous state. The merge is
// pure and deterministic:
//
//   - Messages, Attractions, Hotels, ResearchSources accumulate by
//     appending the delta's entries.
//   - Pointer fields overwrite when the delta carries a non-nil value,
//     so a node can explicitly replace or clear a verdict.
//   - Slices and maps overwrite wholesale when non-nil; a replan
//     replaces the previous allocation rather than appending to it.
//   - Scalars overwrite when non-zero.
//   - IterationCount keeps the maximum of the two values so a stale
//     delta can never rewind the replan counter.
func Reduce(prev, delta TripState) TripState {
	out := prev

	out.Messages = append(out.Messages, delta.Messages...)
	out.Attractions = append(out.Attractions, delta.Attractions...)
	out.Hotels = append(out.Hotels, delta.Hotels...)
	out.ResearchSources = append(out.ResearchSources, delta.ResearchSources...)

	if delta.UserRequest != "" {
		out.UserRequest = delta.UserRequest
	}

	if delta.ClarificationNeeded != nil {
		out.ClarificationNeeded = delta.ClarificationNeeded
	}
	if delta.ClarificationQuestions != nil {
		out.ClarificationQuestions = delta.ClarificationQuestions
	}
	if delta.ClarificationAnswers != nil {
		out.ClarificationAnswers = delta.ClarificationAnswers
	}

	if delta.OriginCity != "" {
		out.OriginCity = delta.OriginCity
	}
	if delta.DietaryPreferences != nil {
		out.DietaryPreferences = delta.DietaryPreferences
	}
	if delta.TravelPace != "" {
		out.TravelPace = delta.TravelPace
	}
	if delta.PlacesVisited != nil {
		out.PlacesVisited = delta.PlacesVisited
	}
	if delta.SpecificDestinations != nil {
		out.SpecificDestinations = delta.SpecificDestinations
	}

	if delta.TravelStartDate != "" {
		out.TravelStartDate = delta.TravelStartDate
	}
	if delta.TravelEndDate != "" {
		out.TravelEndDate = delta.TravelEndDate
	}
	if delta.TravelDateFlexibility != "" {
		out.TravelDateFlexibility = delta.TravelDateFlexibility
	}
	if delta.TravelDateDescription != "" {
		out.TravelDateDescription = delta.TravelDateDescription
	}

	if delta.TripSummary != nil {
		out.TripSummary = delta.TripSummary
	}
	if delta.CityAllocations != nil {
		out.CityAllocations = delta.CityAllocations
	}

	if delta.RouteValidation != nil {
		out.RouteValidation = delta.RouteValidation
	}
	if delta.RouteSegments != nil {
		out.RouteSegments = delta.RouteSegments
	}

	if delta.FoodRecommendations != nil {
		out.FoodRecommendations = delta.FoodRecommendations
	}
	if delta.CulturalTips != nil {
		out.CulturalTips = delta.CulturalTips
	}

	if delta.ScrapedTransportPrices != nil {
		out.ScrapedTransportPrices = delta.ScrapedTransportPrices
	}
	if delta.NearestStations != nil {
		out.NearestStations = delta.NearestStations
	}

	if delta.TransportOptions != nil {
		out.TransportOptions = delta.TransportOptions
	}
	if delta.BudgetBreakdown != nil {
		out.BudgetBreakdown = delta.BudgetBreakdown
	}

	if delta.ValidationResult != nil {
		out.ValidationResult = delta.ValidationResult
	}
	if delta.CriticFeedback != nil {
		out.CriticFeedback = delta.CriticFeedback
	}

	if delta.IterationCount > out.IterationCount {
		out.IterationCount = delta.IterationCount
	}

	if delta.FinalItinerary != nil {
		out.FinalItinerary = delta.FinalItinerary
	}

	return out
}
