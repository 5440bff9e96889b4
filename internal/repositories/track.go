package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/shared"
)

// TrackRepository stores resolved catalog tracks keyed by canonical key.
//
// Upserts on key: re-resolving an entry (after a cache clear, say)
// replaces the stored metadata rather than accumulating rows.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Upsert inserts or replaces a resolved track.
func (r *TrackRepository) Upsert(track models.ResolvedTrack) error {
	if track.Key == "" || track.TrackID == "" {
		return fmt.Errorf("%w: resolved track requires key and track_id", shared.ErrInvalidInput)
	}
	if track.ResolvedAt.IsZero() {
		track.ResolvedAt = time.Now()
	}

	query := `
		INSERT INTO resolved_tracks (key, track_id, title, artists, release_year, popularity, score, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			track_id = excluded.track_id,
			title = excluded.title,
			artists = excluded.artists,
			release_year = excluded.release_year,
			popularity = excluded.popularity,
			score = excluded.score,
			resolved_at = excluded.resolved_at
	`

	_, err := r.db.Exec(query,
		track.Key,
		track.TrackID,
		track.Title,
		strings.Join(track.ArtistNames, "; "),
		track.ReleaseYear,
		track.Popularity,
		track.Score,
		track.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert resolved track: %w", err)
	}

	return nil
}

// Get retrieves a resolved track by canonical key.
func (r *TrackRepository) Get(key string) (*models.ResolvedTrack, error) {
	query := `
		SELECT key, track_id, title, artists, release_year, popularity, score, resolved_at
		FROM resolved_tracks
		WHERE key = ?
	`

	return r.scanOne(r.db.QueryRow(query, key))
}

// List retrieves all resolved tracks ordered by resolution time.
func (r *TrackRepository) List() ([]models.ResolvedTrack, error) {
	query := `
		SELECT key, track_id, title, artists, release_year, popularity, score, resolved_at
		FROM resolved_tracks
		ORDER BY resolved_at ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolved tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.ResolvedTrack
	for rows.Next() {
		var (
			track   models.ResolvedTrack
			artists string
		)
		if err := rows.Scan(&track.Key, &track.TrackID, &track.Title, &artists,
			&track.ReleaseYear, &track.Popularity, &track.Score, &track.ResolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resolved track: %w", err)
		}
		track.ArtistNames = splitArtists(artists)
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// Clear deletes every cached resolution. Used by the cache clear command.
func (r *TrackRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM resolved_tracks`); err != nil {
		return fmt.Errorf("failed to clear resolved tracks: %w", err)
	}
	return nil
}

// Count returns the number of cached resolutions.
func (r *TrackRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM resolved_tracks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count resolved tracks: %w", err)
	}
	return n, nil
}

// scanOne scans a single [sql.Row] into a [models.ResolvedTrack]
func (r *TrackRepository) scanOne(row *sql.Row) (*models.ResolvedTrack, error) {
	var (
		track   models.ResolvedTrack
		artists string
	)

	err := row.Scan(&track.Key, &track.TrackID, &track.Title, &artists,
		&track.ReleaseYear, &track.Popularity, &track.Score, &track.ResolvedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, track.Key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan resolved track: %w", err)
	}

	track.ArtistNames = splitArtists(artists)
	return &track, nil
}

func splitArtists(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, "; ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
