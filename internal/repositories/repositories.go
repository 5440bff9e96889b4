// Package repositories provides the sqlite-backed resolved-track cache.
//
// The JSON resolution cache remains the store of record for canonical
// key → track ID mappings; this layer keeps the full metadata of every
// resolved track (title, artists, release year, popularity, score) so
// reports and cache inspection never need a second catalog round trip.
package repositories

import (
	"database/sql"
	"fmt"
)

const trackSchema = `
CREATE TABLE IF NOT EXISTS resolved_tracks (
	key         TEXT PRIMARY KEY,
	track_id    TEXT NOT NULL,
	title       TEXT NOT NULL,
	artists     TEXT NOT NULL,
	release_year INTEGER NOT NULL DEFAULT 0,
	popularity  INTEGER NOT NULL DEFAULT 0,
	score       INTEGER NOT NULL DEFAULT 0,
	resolved_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_resolved_tracks_track_id ON resolved_tracks(track_id);
`

// InitSchema creates the resolved-track table if it does not exist.
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(trackSchema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
