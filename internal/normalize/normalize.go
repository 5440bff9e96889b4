// package normalize turns raw chart cell text into canonical comparison keys
//
// Chart tables carry decades of cosmetic variation: quoted titles,
// remaster/edit annotations, featuring credits, ranged dates. The
// functions here reduce those to stable forms so that re-entries and
// catalog candidates can be compared by value.
package normalize

import (
	"regexp"
	"strings"

	"github.com/desertthunder/chartsync/internal/models"
)

var (
	bracketRe    = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	yearTokenRe  = regexp.MustCompile(`'\d{2}\b`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	// Version/edit tags stripped from song keys, whole-word and
	// case-insensitive. "Song (2011 Remaster)" and "Song - Radio Edit"
	// must key the same as "Song".
	versionTagRe = regexp.MustCompile(`(?i)\b(remastered|remaster|remixed|remix|version|edit|mix|mono|stereo|radio)\b`)

	// Featuring-style separators that end the primary artist credit.
	featSepRe = regexp.MustCompile(`(?i)\s+(featuring|feat\.?|ft\.?|with)\s+`)

	// Credit joiners normalized to a single delimiter for artist keys.
	joinSepRe = regexp.MustCompile(`(?i)\s*&\s*|\s+and\s+`)
)

// quoteCutset covers the straight and typographic quote characters that
// wrap song titles in chart tables.
const quoteCutset = "\"'“”‘’"

// CleanSongTitle strips surrounding quote characters and bracketed
// annotations from a raw title. Idempotent.
func CleanSongTitle(raw string) string {
	s := bracketRe.ReplaceAllString(raw, " ")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, quoteCutset)
	return strings.TrimSpace(s)
}

// BaseSongKey derives the comparison key for a song title.
//
// Lowercases, drops bracketed annotations, apostrophe-prefixed two-digit
// year tokens ("'96") and version/edit tags, collapses whitespace, and
// drops a trailing hyphen left behind by " - Radio Edit" style suffixes.
func BaseSongKey(raw string) string {
	s := strings.ToLower(CleanSongTitle(raw))
	s = yearTokenRe.ReplaceAllString(s, " ")
	s = versionTagRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "-")
	return strings.TrimSpace(s)
}

// CleanArtistName truncates a credit string at the first featuring/with
// separator, returning only the primary credited artist(s).
func CleanArtistName(raw string) string {
	s := strings.TrimSpace(raw)
	if loc := featSepRe.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return strings.TrimSpace(s)
}

// BaseArtistKey derives the comparison key for an artist credit.
//
// Applies [CleanArtistName], lowercases, normalizes "&"/"and" joiners to
// a single delimiter, and retains at most the first two credited parts so
// that long collaboration strings converge on a stable key.
func BaseArtistKey(raw string) string {
	s := strings.ToLower(CleanArtistName(raw))
	s = joinSepRe.ReplaceAllString(s, "|")
	parts := strings.Split(s, "|")
	kept := make([]string, 0, 2)
	for _, p := range parts {
		p = whitespaceRe.ReplaceAllString(strings.TrimSpace(p), " ")
		if p == "" {
			continue
		}
		kept = append(kept, p)
		if len(kept) == 2 {
			break
		}
	}
	return strings.Join(kept, " & ")
}

// KeyFor computes the canonical key identifying an entry's musical work.
func KeyFor(entry models.ChartEntry) models.CanonicalKey {
	return models.CanonicalKey{
		Song:   BaseSongKey(entry.RawSong),
		Artist: BaseArtistKey(entry.RawArtist),
	}
}
