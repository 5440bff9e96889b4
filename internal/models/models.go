// package models defines the data model for the chart sync service
package models

import (
	"time"
)

// ChartEntry represents one historical record of a song holding the
// number-one position starting on ChartDate. Raw fields hold the scraped
// cell text verbatim; Song and Artist hold the cleaned forms.
type ChartEntry struct {
	ChartDate time.Time
	RawSong   string
	RawArtist string
	Song      string
	Artist    string
}

// CanonicalKey is the normalized (song, artist) pair that identifies a
// musical work. Two entries with equal keys are the same work for
// playlist-membership purposes, regardless of remaster/edit/featuring
// variants in the raw credits.
type CanonicalKey struct {
	Song   string
	Artist string
}

// String renders the key in the "song|artist" form used for cache lookups
// and JSON store keys.
func (k CanonicalKey) String() string {
	return k.Song + "|" + k.Artist
}

// CatalogTrack represents a track returned by catalog search.
type CatalogTrack struct {
	ID          string
	Title       string
	ArtistNames []string
	ReleaseYear int // 0 when the catalog omits a release date
	Popularity  int
}

// PlaylistSnapshot is the in-memory view of the live playlist, fetched
// once at run start. Ordered holds track IDs in playlist order; Members
// is the set form used for membership checks. Both are mutated as entries
// are appended during a run; the catalog's playlist object remains the
// source of truth.
type PlaylistSnapshot struct {
	Ordered []string
	Members map[string]bool
}

// NewPlaylistSnapshot builds a snapshot from an ordered track ID sequence.
func NewPlaylistSnapshot(ids []string) *PlaylistSnapshot {
	s := &PlaylistSnapshot{
		Ordered: append([]string(nil), ids...),
		Members: make(map[string]bool, len(ids)),
	}
	for _, id := range ids {
		s.Members[id] = true
	}
	return s
}

// Contains reports whether the playlist holds the given track ID.
func (s *PlaylistSnapshot) Contains(id string) bool {
	return s.Members[id]
}

// Add records a track ID as present, appending it to the ordered view.
func (s *PlaylistSnapshot) Add(id string) {
	if s.Members[id] {
		return
	}
	s.Ordered = append(s.Ordered, id)
	s.Members[id] = true
}

// NotFoundEntry records a chart entry that failed resolution, with the
// raw (uncleaned) title and artist strings.
type NotFoundEntry struct {
	Song   string `json:"song"`
	Artist string `json:"artist"`
}

// ResolvedTrack is a resolved catalog track persisted in the local sqlite
// cache for reporting. Key is the canonical key string at resolution time.
type ResolvedTrack struct {
	Key         string
	TrackID     string
	Title       string
	ArtistNames []string
	ReleaseYear int
	Popularity  int
	Score       int
	ResolvedAt  time.Time
}
