package agents

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParsedDates is the structured form of a free-text travel date answer.
type ParsedDates struct {
	StartDate   string
	EndDate     string
	Flexibility string // specific, flexible_week
	Description string
}

var flexibleIndicators = []string{
	"around", "sometime", "mid-", "early", "late",
	"flexible", "approximately", "about", "roughly",
}

var monthNumbers = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var (
	// "January 15-22, 2026" or "Jan 15 to 22 2026"
	monthRangeRe = regexp.MustCompile(`(?i)(\w+)\s+(\d{1,2})\s*(?:[-–]|to)+\s*(\d{1,2}),?\s*(\d{4})`)
	// "2026-01-15 to 2026-01-22"
	isoRangeRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})\s*(?:to|[-–])\s*(\d{4}-\d{2}-\d{2})`)
	// "January 15, 2026" with the end date left to the trip duration
	singleDateRe = regexp.MustCompile(`(?i)(\w+)\s+(\d{1,2}),?\s*(\d{4})`)
)

// ParseTravelDates turns a free-text date answer into structured dates.
// Flexible phrasings ("mid-January", "around February") yield no dates
// and a flexible_week flexibility; otherwise three specific formats are
// tried in order. Unparseable answers keep only the description.
func ParseTravelDates(answer string) ParsedDates {
	result := ParsedDates{Flexibility: "specific", Description: answer}
	if answer == "" {
		return result
	}

	lower := strings.ToLower(answer)
	for _, indicator := range flexibleIndicators {
		if strings.Contains(lower, indicator) {
			result.Flexibility = "flexible_week"
			return result
		}
	}

	if m := monthRangeRe.FindStringSubmatch(answer); m != nil {
		if month, ok := monthNumbers[strings.ToLower(m[1])]; ok {
			year, _ := strconv.Atoi(m[4])
			startDay, _ := strconv.Atoi(m[2])
			endDay, _ := strconv.Atoi(m[3])
			if start, err := isoDate(year, month, startDay); err == nil {
				if end, err := isoDate(year, month, endDay); err == nil {
					result.StartDate = start
					result.EndDate = end
					return result
				}
			}
		}
	}

	if m := isoRangeRe.FindStringSubmatch(answer); m != nil {
		result.StartDate = m[1]
		result.EndDate = m[2]
		return result
	}

	if m := singleDateRe.FindStringSubmatch(answer); m != nil {
		if month, ok := monthNumbers[strings.ToLower(m[1])]; ok {
			year, _ := strconv.Atoi(m[3])
			day, _ := strconv.Atoi(m[2])
			if start, err := isoDate(year, month, day); err == nil {
				result.StartDate = start
				return result
			}
		}
	}

	return result
}

// isoDate validates a calendar date and formats it as YYYY-MM-DD.
func isoDate(year int, month time.Month, day int) (string, error) {
	if day < 1 || day > 31 {
		return "", fmt.Errorf("day %d out of range", day)
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return "", fmt.Errorf("invalid date %d %s %d", year, month, day)
	}
	return t.Format("2006-01-02"), nil
}

// SplitDestinations breaks a free-text destination answer into city
// names, dropping parenthetical hedges like "(if possible)".
func SplitDestinations(answer string) []string {
	if answer == "" {
		return nil
	}
	cleaned := strings.ReplaceAll(answer, " and ", ",")
	cleaned = parentheticalRe.ReplaceAllString(cleaned, "")

	var out []string
	for _, part := range strings.Split(cleaned, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

var parentheticalRe = regexp.MustCompile(`\([^)]*\)`)
