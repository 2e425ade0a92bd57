package intelligence

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	numericDateRe = regexp.MustCompile(`\b(\d{4})[/.\-](\d{1,2})[/.\-](\d{1,2})\b`)
	dayMonYearRe  = regexp.MustCompile(`\b(\d{1,2})\s*-\s*([A-Za-z]{3})\s*-\s*(\d{4})\b`)
	monDayYearRe  = regexp.MustCompile(`\b([A-Za-z]{3,9})\.?\s*(\d{1,2})(?:,\s*|\s+)(\d{4})\b`)
	cjkDateRe     = regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日`)
)

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// DateExtractor finds report dates in front-matter text
type DateExtractor struct {
	minYear int
	maxYear int
}

// NewDateExtractor creates an extractor bounded by the rule set's year window
func NewDateExtractor(rules DateRules) *DateExtractor {
	return &DateExtractor{minYear: rules.MinYear, maxYear: rules.MaxYear}
}

// Latest returns the most recent plausible date found in text
func (e *DateExtractor) Latest(text string) (time.Time, bool) {
	var (
		best  time.Time
		found bool
	)
	for _, d := range e.All(Normalize(text)) {
		if !found || d.After(best) {
			best, found = d, true
		}
	}
	return best, found
}

// All returns every plausible date in match order
func (e *DateExtractor) All(text string) []time.Time {
	var dates []time.Time
	keep := func(d time.Time, ok bool) {
		if ok && d.Year() >= e.minYear && d.Year() <= e.maxYear {
			dates = append(dates, d)
		}
	}

	for _, m := range numericDateRe.FindAllStringSubmatch(text, -1) {
		keep(calendarDate(m[1], m[2], m[3]))
	}
	for _, m := range cjkDateRe.FindAllStringSubmatch(text, -1) {
		keep(calendarDate(m[1], m[2], m[3]))
	}
	for _, m := range dayMonYearRe.FindAllStringSubmatch(text, -1) {
		month, ok := lookupMonth(m[2])
		if !ok {
			continue
		}
		keep(calendarDate(m[3], strconv.Itoa(int(month)), m[1]))
	}
	for _, m := range monDayYearRe.FindAllStringSubmatch(text, -1) {
		month, ok := lookupMonth(m[1])
		if !ok {
			continue
		}
		keep(calendarDate(m[3], strconv.Itoa(int(month)), m[2]))
	}
	return dates
}

// lookupMonth accepts three-letter abbreviations, "Sept" and full month names
func lookupMonth(word string) (time.Month, bool) {
	w := strings.ToLower(word)
	if len(w) < 3 {
		return 0, false
	}
	month, ok := monthNames[w[:3]]
	if !ok {
		return 0, false
	}
	if len(w) == 3 || w == "sept" || strings.EqualFold(month.String(), w) {
		return month, true
	}
	return 0, false
}

// calendarDate rejects dates that time.Date would silently roll over
func calendarDate(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}
