package sources

import "strings"

// indiaCities drives India-specific source selection (redbus, trainman).
var indiaCities = map[string]bool{
	"delhi": true, "mumbai": true, "bangalore": true, "bengaluru": true,
	"chennai": true, "kolkata": true, "hyderabad": true, "pune": true,
	"jaipur": true, "udaipur": true, "jodhpur": true, "goa": true,
	"agra": true, "varanasi": true, "lucknow": true, "kochi": true,
	"trivandrum": true, "mysore": true, "shimla": true, "manali": true,
	"rishikesh": true, "haridwar": true, "amritsar": true, "chandigarh": true,
	"ahmedabad": true, "surat": true, "indore": true, "bhopal": true,
	"nagpur": true, "aurangabad": true, "nashik": true, "coimbatore": true,
	"madurai": true, "thiruvananthapuram": true, "cochin": true, "ooty": true,
	"munnar": true, "alleppey": true, "darjeeling": true, "gangtok": true,
	"leh": true, "srinagar": true, "guwahati": true, "shillong": true,
	"pondicherry": true, "mahabalipuram": true, "rameswaram": true,
	"tirupati": true, "shirdi": true, "mount abu": true, "pushkar": true,
	"khajuraho": true, "hampi": true, "gokarna": true, "varkala": true,
}

// seAsiaCountries drives Southeast-Asia source selection (12go).
var seAsiaCountries = map[string]bool{
	"thailand": true, "vietnam": true, "cambodia": true, "laos": true,
	"malaysia": true, "indonesia": true, "myanmar": true, "philippines": true,
}

// IsIndiaCity reports whether the city is a known Indian destination.
func IsIndiaCity(city string) bool {
	return indiaCities[strings.TrimSpace(strings.ToLower(city))]
}

// IsIndiaRoute reports whether either endpoint or the country context
// places the segment in India.
func IsIndiaRoute(fromCity, toCity, country string) bool {
	return IsIndiaCity(fromCity) || IsIndiaCity(toCity) ||
		strings.EqualFold(strings.TrimSpace(country), "india")
}

// IsSEAsiaCountry reports whether the country is in Southeast Asia.
func IsSEAsiaCountry(country string) bool {
	return seAsiaCountries[strings.TrimSpace(strings.ToLower(country))]
}

// IsInternational decides whether the leg from an origin city into the
// destination country crosses a border. Known Indian origins are
// resolved exactly; anything else defaults to international.
func IsInternational(originCity, destinationCountry string) bool {
	if IsIndiaCity(originCity) {
		return !strings.EqualFold(strings.TrimSpace(destinationCountry), "india")
	}
	return true
}
