// package services defines interface Catalog for the streaming service API
package services

import (
	"context"

	"github.com/desertthunder/chartsync/internal/models"
)

// MaxBatchSize is the playlist mutation limit per call imposed by the
// catalog API. Longer sequences must be appended in order-preserving
// batches of at most this size.
const MaxBatchSize = 100

// Catalog defines the interface for the external streaming catalog.
type Catalog interface {
	// Authenticate establishes a bearer session from stored credentials.
	// Accepts a refresh_token, an access_token, or an auth_code.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// SearchTracks runs a query in the catalog's search mini-language and
	// returns up to limit candidate tracks, ranked by the catalog.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.CatalogTrack, error)

	// PlaylistTrackIDs retrieves the full ordered track ID membership of a
	// playlist, following pagination.
	PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error)

	// AddTracks appends up to MaxBatchSize track IDs to a playlist,
	// preserving order.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// ReplaceTracks replaces the playlist's entire membership with the
	// given IDs (at most MaxBatchSize; an empty slice empties the playlist).
	ReplaceTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// Name returns the name of the catalog service (e.g. "Spotify")
	Name() string
}
