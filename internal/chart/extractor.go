// package chart scrapes number-one chart history from encyclopedia pages
//
// Pages carry one or more loosely-structured tables whose header text and
// date formats drift across decades. The extractor reduces each table to a
// rectangular grid of strings, infers which columns hold the week date,
// song title and artist credit, and emits [models.ChartEntry] values for
// rows that parse and fall on or after the cutoff date.
package chart

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/normalize"
)

var nonLetterRe = regexp.MustCompile(`[^a-z]`)

// Grid is a rectangular table of cell strings with a header row.
type Grid struct {
	Headers []string
	Rows    [][]string
	Caption string
	Heading string
}

// GridFromTable flattens a goquery table selection into a [Grid].
//
// The caption and the nearest preceding section heading are captured as
// context for base-year inference.
func GridFromTable(table *goquery.Selection) Grid {
	grid := Grid{
		Caption: strings.TrimSpace(table.Find("caption").First().Text()),
	}

	if heading := table.PrevAllFiltered("h2, h3, h4").First(); heading.Length() > 0 {
		grid.Heading = strings.TrimSpace(heading.Text())
	}

	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		headerCells := row.Find("th")
		if grid.Headers == nil && headerCells.Length() > 0 {
			headerCells.Each(func(_ int, cell *goquery.Selection) {
				grid.Headers = append(grid.Headers, strings.TrimSpace(cell.Text()))
			})
			return
		}

		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		cols := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			cols = append(cols, strings.TrimSpace(cell.Text()))
		})
		grid.Rows = append(grid.Rows, cols)
	})

	return grid
}

// normalizeHeader strips every non-letter character and lowercases, so
// "Week ending[a]" and "Date reached no. 1" both become matchable.
func normalizeHeader(h string) string {
	return nonLetterRe.ReplaceAllString(strings.ToLower(h), "")
}

// columnRoles locates the date, song and artist columns by substring
// match on normalized header text. ok is false when any role is missing
// and the table should be skipped.
func columnRoles(headers []string) (dateCol, songCol, artistCol int, ok bool) {
	dateCol, songCol, artistCol = -1, -1, -1
	for i, h := range headers {
		n := normalizeHeader(h)
		switch {
		case dateCol < 0 && (strings.Contains(n, "week") || strings.Contains(n, "date")):
			dateCol = i
		case songCol < 0 && (strings.Contains(n, "single") || strings.Contains(n, "song")):
			songCol = i
		case artistCol < 0 && strings.Contains(n, "artist"):
			artistCol = i
		}
	}
	return dateCol, songCol, artistCol, dateCol >= 0 && songCol >= 0 && artistCol >= 0
}

// ExtractEntries converts a grid into chart entries.
//
// A running current year starts from the base year inferred from the
// grid's caption or heading and advances whenever a row's date string
// carries an explicit year, so day/month-only rows inherit the correct
// year. Rows whose date fails to parse, or parses before cutoff, are
// dropped silently. Returns nil when the expected columns are absent.
func ExtractEntries(grid Grid, cutoff time.Time) []models.ChartEntry {
	dateCol, songCol, artistCol, ok := columnRoles(grid.Headers)
	if !ok {
		return nil
	}

	currentYear := normalize.ExtractYear(grid.Caption)
	if currentYear == 0 {
		currentYear = normalize.ExtractYear(grid.Heading)
	}

	var entries []models.ChartEntry
	for _, row := range grid.Rows {
		if len(row) <= dateCol || len(row) <= songCol || len(row) <= artistCol {
			continue
		}

		dateText := row[dateCol]
		if y := normalize.ExtractYear(dateText); y != 0 {
			currentYear = y
		}

		chartDate, parsed := normalize.ParseChartDate(dateText, currentYear)
		if !parsed || chartDate.Before(cutoff) {
			continue
		}

		rawSong, rawArtist := row[songCol], row[artistCol]
		entries = append(entries, models.ChartEntry{
			ChartDate: chartDate,
			RawSong:   rawSong,
			RawArtist: rawArtist,
			Song:      normalize.CleanSongTitle(rawSong),
			Artist:    normalize.CleanArtistName(rawArtist),
		})
	}
	return entries
}
