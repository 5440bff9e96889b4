package normalize

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseChartDate(t *testing.T) {
	tests := []struct {
		name         string
		in           string
		fallbackYear int
		want         time.Time
		ok           bool
	}{
		{"day month year", "7 February 1996", 0, date(1996, time.February, 7), true},
		{"abbreviated month", "7 Feb 1996", 0, date(1996, time.February, 7), true},
		{"month day year", "February 7, 1996", 0, date(1996, time.February, 7), true},
		{"day month with fallback", "7 February", 1996, date(1996, time.February, 7), true},
		{"range keeps first segment", "7 February – 13 February", 1996, date(1996, time.February, 7), true},
		{"range with to", "7 February to 13 February", 1996, date(1996, time.February, 7), true},
		{"footnote stripped", "7 February 1996[a]", 0, date(1996, time.February, 7), true},
		{"non-breaking space", "7 February 1996", 0, date(1996, time.February, 7), true},
		{"ordinal suffix", "7th February", 1996, date(1996, time.February, 7), true},
		{"bare year rejected", "1996", 1996, time.Time{}, false},
		{"empty rejected", "   ", 1996, time.Time{}, false},
		{"no year and no fallback", "7 February", 0, time.Time{}, false},
		{"impossible day rejected", "31 February 1996", 0, time.Time{}, false},
		{"garbage rejected", "see note", 1996, time.Time{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseChartDate(tc.in, tc.fallbackYear)
			if ok != tc.ok {
				t.Fatalf("ParseChartDate(%q, %d) ok = %v, want %v", tc.in, tc.fallbackYear, ok, tc.ok)
			}
			if ok && !got.Equal(tc.want) {
				t.Errorf("ParseChartDate(%q, %d) = %v, want %v", tc.in, tc.fallbackYear, got, tc.want)
			}
		})
	}
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"List of UK Singles Chart number ones of the 1990s: 1996", 1996},
		{"2004 in British music", 2004},
		{"no year here", 0},
		{"", 0},
	}

	for _, tc := range tests {
		if got := ExtractYear(tc.in); got != tc.want {
			t.Errorf("ExtractYear(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
