package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	rangeSepRe  = regexp.MustCompile(`\s*(?:\x{2013}|\x{2014}|\x{2212}|-|\bto\b)\s*`)
	yearRe      = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	bareYearRe  = regexp.MustCompile(`^(19|20)\d{2}$`)
	dayMonthRe  = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+([a-z]+)`)
	monthDayRe  = regexp.MustCompile(`(?i)\b([a-z]+)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	footnoteRe  = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	chartMonths = map[string]time.Month{
		"january": time.January, "february": time.February, "march": time.March,
		"april": time.April, "may": time.May, "june": time.June, "july": time.July,
		"august": time.August, "september": time.September, "october": time.October,
		"november": time.November, "december": time.December,
	}
)

// chartDateLayouts are tried in order against the cleaned date segment.
var chartDateLayouts = []string{
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January",
	"2 Jan",
}

// ParseChartDate parses a chart date cell into a calendar date.
//
// Ranged strings keep only the segment before the dash or "to". Footnote
// brackets and non-breaking spaces are stripped. Bare-year strings are
// rejected (they label sections, not rows). When the segment carries no
// explicit year, fallbackYear applies. Returns false when nothing
// plausible parses; callers treat that as "skip this row".
func ParseChartDate(text string, fallbackYear int) (time.Time, bool) {
	s := strings.ReplaceAll(text, " ", " ")
	s = footnoteRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if seg := rangeSepRe.Split(s, 2); len(seg) > 0 {
		s = strings.TrimSpace(seg[0])
	}
	if s == "" || bareYearRe.MatchString(s) {
		return time.Time{}, false
	}

	year := fallbackYear
	if m := yearRe.FindString(s); m != "" {
		year, _ = strconv.Atoi(m)
	}
	if year == 0 {
		return time.Time{}, false
	}

	for _, layout := range chartDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() == 0 {
				t = time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			}
			return t, true
		}
	}

	return lenientDate(s, year)
}

// lenientDate scans for a day-first "<day> <month>" pair anywhere in the
// segment, falling back to "<month> <day>".
func lenientDate(s string, year int) (time.Time, bool) {
	if m := dayMonthRe.FindStringSubmatch(s); m != nil {
		if t, ok := buildDate(m[2], m[1], year); ok {
			return t, true
		}
	}
	if m := monthDayRe.FindStringSubmatch(s); m != nil {
		if t, ok := buildDate(m[1], m[2], year); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func buildDate(monthName, dayText string, year int) (time.Time, bool) {
	month, ok := monthForName(monthName)
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayText)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		// Normalized away, e.g. 31 February.
		return time.Time{}, false
	}
	return t, true
}

func monthForName(name string) (time.Month, bool) {
	name = strings.ToLower(name)
	if m, ok := chartMonths[name]; ok {
		return m, true
	}
	if len(name) >= 3 {
		for full, m := range chartMonths {
			if strings.HasPrefix(full, name) {
				return m, true
			}
		}
	}
	return 0, false
}

// ExtractYear returns the first four-digit year in text, or 0.
func ExtractYear(text string) int {
	if m := yearRe.FindString(text); m != "" {
		y, _ := strconv.Atoi(m)
		return y
	}
	return 0
}
