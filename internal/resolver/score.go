package resolver

import (
	"strings"

	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/normalize"
)

// Scoring weights. The scorer is deliberately heuristic: it ranks noisy
// multi-candidate search results, it does not prove identity.
const (
	titleKeyScore     = 5 // normalized title key equality
	artistOverlapCap  = 4 // total artist-name overlap contribution
	cleanedMatchScore = 2 // per candidate artist found in the cleaned credit
	cleanedMatchCap   = 4
	rawMatchScore     = 1 // per candidate artist found only in the raw credit
	rawMatchCap       = 2
	exactYearScore    = 3
	adjacentYearScore = 1
	popularityCap     = 3
)

// ScoreCandidate scores a single search candidate against a chart entry.
//
// Pure function over plain data: no I/O, no state. Components:
//
//   - +5 when the candidate's normalized title key equals the entry's
//     song key (remaster/edit variants collapse to the same key)
//   - up to +4 for overlap between the candidate's artist list and the
//     entry's cleaned and original artist credits, with the contribution
//     from each match source capped
//   - +3 when the candidate's release year equals the chart year, +1 when
//     it is off by one (December releases often top the chart in January)
//   - up to +3 proportional to catalog popularity, as a tiebreaker
//     between otherwise equal candidates
func ScoreCandidate(entry models.ChartEntry, candidate models.CatalogTrack) int {
	score := 0

	if normalize.BaseSongKey(candidate.Title) == normalize.BaseSongKey(entry.RawSong) {
		score += titleKeyScore
	}

	score += artistOverlap(entry, candidate)

	if year := entry.ChartDate.Year(); candidate.ReleaseYear != 0 {
		switch diff := year - candidate.ReleaseYear; {
		case diff == 0:
			score += exactYearScore
		case diff == 1 || diff == -1:
			score += adjacentYearScore
		}
	}

	pop := candidate.Popularity * popularityCap / 100
	if pop > popularityCap {
		pop = popularityCap
	}
	score += pop

	return score
}

// artistOverlap measures how many of the candidate's credited artists
// appear in the entry's cleaned credit, falling back to the raw credit
// for featured artists the cleaning removed.
func artistOverlap(entry models.ChartEntry, candidate models.CatalogTrack) int {
	cleaned := strings.ToLower(entry.Artist)
	raw := strings.ToLower(entry.RawArtist)

	cleanedScore, rawScore := 0, 0
	for _, name := range candidate.ArtistNames {
		n := strings.ToLower(strings.TrimSpace(name))
		if n == "" {
			continue
		}
		switch {
		case cleaned != "" && (strings.Contains(cleaned, n) || strings.Contains(n, cleaned)):
			cleanedScore += cleanedMatchScore
		case raw != "" && strings.Contains(raw, n):
			rawScore += rawMatchScore
		}
	}

	if cleanedScore > cleanedMatchCap {
		cleanedScore = cleanedMatchCap
	}
	if rawScore > rawMatchCap {
		rawScore = rawMatchCap
	}

	total := cleanedScore + rawScore
	if total > artistOverlapCap {
		total = artistOverlapCap
	}
	return total
}
