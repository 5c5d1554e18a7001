// Package travel defines the shared planning state and the domain
// entities that flow through the workflow graph.
package travel

// Budget tiers.
const (
	BudgetLow  = "budget"
	BudgetMid  = "mid_range"
	BudgetHigh = "luxury"
)

// Transport modes.
const (
	ModeFlight       = "flight"
	ModeTrain        = "train"
	ModeBus          = "bus"
	ModeCar          = "car"
	ModeFerry        = "ferry"
	ModeWalking      = "walking"
	ModeMetro        = "metro"
	ModeTaxi         = "taxi"
	ModeAutoRickshaw = "auto_rickshaw"
)

// Issue severities reported by validation.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Message is one turn of the planning conversation log.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ClarificationQuestion is a question posed to the user before planning.
type ClarificationQuestion struct {
	QuestionID    string   `json:"question_id"`
	QuestionText  string   `json:"question_text"`
	QuestionType  string   `json:"question_type"`
	Required      bool     `json:"required"`
	Options       []string `json:"options,omitempty"`
	AllowMultiple bool     `json:"allow_multiple,omitempty"`
}

// InferredTripInfo captures what the clarifier could read directly from
// the request without asking.
type InferredTripInfo struct {
	DurationDays       int      `json:"duration_days,omitempty"`
	DestinationCountry string   `json:"destination_country,omitempty"`
	DestinationState   string   `json:"destination_state,omitempty"`
	DestinationCities  []string `json:"destination_cities,omitempty"`
	BudgetLevel        string   `json:"budget_level,omitempty"`
	TravelStyle        string   `json:"travel_style,omitempty"`
	TravelStartDate    string   `json:"travel_start_date,omitempty"`
	TravelEndDate      string   `json:"travel_end_date,omitempty"`
	HasSpecificDates   bool     `json:"has_specific_dates,omitempty"`
}

// TripSummary is the planner's high-level read of the trip.
type TripSummary struct {
	TripUnderstanding string `json:"trip_understanding"`
	TotalDays         int    `json:"total_days"`
	BudgetLevel       string `json:"budget_level"`
	TravelerProfile   string `json:"traveler_profile"`
	TravelStyle       string `json:"travel_style"`
	OverallStrategy   string `json:"overall_strategy"`
}

// CityAllocation assigns days to one city in the trip sequence.
type CityAllocation struct {
	City       string   `json:"city"`
	Country    string   `json:"country"`
	Days       int      `json:"days"`
	VisitOrder int      `json:"visit_order"`
	Highlights []string `json:"highlights,omitempty"`
	Reasoning  string   `json:"reasoning,omitempty"`
}

// RouteSegment connects two consecutive cities.
type RouteSegment struct {
	FromCity             string   `json:"from_city"`
	ToCity               string   `json:"to_city"`
	DistanceKm           float64  `json:"distance_km"`
	RecommendedTransport string   `json:"recommended_transport"`
	TravelTimeHours      float64  `json:"travel_time_hours"`
	IsFeasible           bool     `json:"is_feasible"`
	Issues               []string `json:"issues,omitempty"`
}

// RouteValidation is the geography worker's verdict on the city order.
type RouteValidation struct {
	RouteIsValid         bool     `json:"route_is_valid"`
	OriginalOrder        []string `json:"original_order"`
	OptimizedOrder       []string `json:"optimized_order"`
	RouteChanged         bool     `json:"route_changed"`
	TotalTravelTimeHours float64  `json:"total_travel_time_hours"`
	TotalDistanceKm      float64  `json:"total_distance_km"`
	Suggestions          []string `json:"suggestions,omitempty"`
	Warnings             []string `json:"warnings,omitempty"`
}

// Attraction is a point of interest found during research.
type Attraction struct {
	Name                   string  `json:"name"`
	City                   string  `json:"city"`
	Description            string  `json:"description,omitempty"`
	Category               string  `json:"category"`
	EstimatedDurationHours float64 `json:"estimated_duration_hours"`
	Address                string  `json:"address,omitempty"`
	OpeningHours           string  `json:"opening_hours,omitempty"`
	EntranceFeeUSD         float64 `json:"entrance_fee_usd,omitempty"`
	BookingRequired        bool    `json:"booking_required,omitempty"`
	Tips                   string  `json:"tips,omitempty"`
	SourceURL              string  `json:"source_url,omitempty"`
}

// Hotel is an accommodation candidate for a city.
type Hotel struct {
	Name         string   `json:"name"`
	City         string   `json:"city"`
	Rating       float64  `json:"rating,omitempty"`
	PricePerUSD  float64  `json:"price_per_night_usd,omitempty"`
	Address      string   `json:"address,omitempty"`
	PhotoURLs    []string `json:"photo_urls,omitempty"`
	BookingNotes string   `json:"booking_notes,omitempty"`
}

// Meal is a restaurant or dish recommendation.
type Meal struct {
	MealType         string   `json:"meal_type"`
	RestaurantName   string   `json:"restaurant_name,omitempty"`
	CuisineType      string   `json:"cuisine_type"`
	BudgetLevel      string   `json:"budget_level"`
	EstimatedCostUSD float64  `json:"estimated_cost_usd"`
	Address          string   `json:"address,omitempty"`
	MustTryDishes    []string `json:"must_try_dishes,omitempty"`
	DietaryNotes     string   `json:"dietary_notes,omitempty"`
}

// FoodRecommendation ties a city to its food picks.
type FoodRecommendation struct {
	City            string   `json:"city"`
	MustTryDishes   []string `json:"must_try_dishes"`
	Restaurants     []Meal   `json:"restaurants,omitempty"`
	StreetFoodTips  string   `json:"street_food_tips,omitempty"`
	FoodSafetyNotes string   `json:"food_safety_notes,omitempty"`
}

// ScrapedPrice is one normalized price quote from a transport source.
type ScrapedPrice struct {
	Source       string  `json:"source"`
	Mode         string  `json:"mode"`
	FromLocation string  `json:"from_location"`
	ToLocation   string  `json:"to_location"`
	TravelDate   string  `json:"travel_date,omitempty"`
	Operator     string  `json:"operator,omitempty"`
	PriceUSD     float64 `json:"price_usd"`
	DurationHrs  float64 `json:"duration_hours,omitempty"`
	Departure    string  `json:"departure,omitempty"`
	ClassType    string  `json:"class_type,omitempty"`
	FromCache    bool    `json:"from_cache,omitempty"`

	// AlternativeDates holds nearby-date quotes the source returned
	// alongside the requested date.
	AlternativeDates []PriceAlternative `json:"alternative_dates,omitempty"`
}

// PriceAlternative is a quote for the same route on a different date.
type PriceAlternative struct {
	Date     string  `json:"date"`
	PriceUSD float64 `json:"price_usd"`
}

// StationInfo lists transit hubs serving a city.
type StationInfo struct {
	Airport      string `json:"airport,omitempty"`
	TrainStation string `json:"train_station,omitempty"`
	BusStation   string `json:"bus_station,omitempty"`
}

// TransportSegment is a concrete leg with cost and timing.
type TransportSegment struct {
	Mode             string  `json:"mode"`
	FromLocation     string  `json:"from_location"`
	ToLocation       string  `json:"to_location"`
	DepartureTime    string  `json:"departure_time,omitempty"`
	DurationHours    float64 `json:"duration_hours"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	BookingLink      string  `json:"booking_link,omitempty"`
	Notes            string  `json:"notes,omitempty"`

	// CheaperDates lists up to three strictly cheaper departures on
	// nearby dates, cheapest first.
	CheaperDates []PriceAlternative `json:"cheaper_dates,omitempty"`
}

// TransportOption collects the choices for one leg with a pick.
type TransportOption struct {
	FromLocation         string             `json:"from_location"`
	ToLocation           string             `json:"to_location"`
	Options              []TransportSegment `json:"options"`
	Recommended          TransportSegment   `json:"recommended"`
	RecommendationReason string             `json:"recommendation_reason,omitempty"`
}

// CityTransportTips holds local getting-around advice for a city.
type CityTransportTips struct {
	City string   `json:"city"`
	Tips []string `json:"tips"`
}

// BudgetBreakdown is the estimated spend by category.
type BudgetBreakdown struct {
	TransportInterCity     float64  `json:"transport_inter_city"`
	TransportLocal         float64  `json:"transport_local"`
	Accommodation          float64  `json:"accommodation"`
	Food                   float64  `json:"food"`
	ActivitiesEntranceFees float64  `json:"activities_entrance_fees"`
	Miscellaneous          float64  `json:"miscellaneous"`
	Total                  float64  `json:"total"`
	Currency               string   `json:"currency"`
	Notes                  []string `json:"notes,omitempty"`
}

// ValidationIssue is one problem the critic found with the plan.
type ValidationIssue struct {
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	Severity       string   `json:"severity"`
	AffectedDays   []int    `json:"affected_days,omitempty"`
	AffectedCities []string `json:"affected_cities,omitempty"`
	SuggestedFix   string   `json:"suggested_fix,omitempty"`
}

// ValidationResult is the critic's full verdict.
type ValidationResult struct {
	IsValid              bool              `json:"is_valid"`
	OverallScore         float64           `json:"overall_score"`
	Issues               []ValidationIssue `json:"issues"`
	RequiresReplanning   bool              `json:"requires_replanning"`
	ReplanFocus          string            `json:"replan_focus,omitempty"`
	ReplanInstructions   string            `json:"replan_instructions,omitempty"`
	Strengths            []string          `json:"strengths,omitempty"`
	FinalRecommendations []string          `json:"final_recommendations,omitempty"`
}

// DayActivity is a single scheduled block within a day.
type DayActivity struct {
	TimeSlot     string            `json:"time_slot"`
	ActivityType string            `json:"activity_type"`
	Title        string            `json:"title"`
	Attraction   *Attraction       `json:"attraction,omitempty"`
	Meal         *Meal             `json:"meal,omitempty"`
	Transport    *TransportSegment `json:"transport,omitempty"`
	Notes        string            `json:"notes,omitempty"`
}

// DayPlan is the full schedule for one trip day.
type DayPlan struct {
	DayNumber      int           `json:"day_number"`
	Date           string        `json:"date,omitempty"`
	City           string        `json:"city"`
	Theme          string        `json:"theme,omitempty"`
	Activities     []DayActivity `json:"activities"`
	Accommodation  string        `json:"accommodation,omitempty"`
	DailyBudgetUSD float64       `json:"daily_budget_usd"`
}

// Itinerary is the final assembled output.
type Itinerary struct {
	TripTitle             string             `json:"trip_title"`
	DestinationSummary    string             `json:"destination_summary"`
	StartDate             string             `json:"start_date,omitempty"`
	EndDate               string             `json:"end_date,omitempty"`
	TotalDays             int                `json:"total_days"`
	TravelersCount        int                `json:"travelers_count"`
	TravelerProfile       string             `json:"traveler_profile"`
	BudgetLevel           string             `json:"budget_level"`
	TotalEstimatedCostUSD float64            `json:"total_estimated_cost_usd"`
	CitiesVisited         []string           `json:"cities_visited"`
	DailyPlans            []DayPlan          `json:"daily_plans"`
	OriginTransport       []TransportSegment `json:"origin_transport,omitempty"`
	InterCityTransport    []TransportSegment `json:"inter_city_transport,omitempty"`
	CulturalTips          []string           `json:"cultural_tips,omitempty"`
	Warnings              []string           `json:"warnings,omitempty"`
	SourcesConsulted      []string           `json:"sources_consulted,omitempty"`
}
