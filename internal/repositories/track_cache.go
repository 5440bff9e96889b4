package repositories

import (
	"fmt"

	"github.com/desertthunder/chartsync/internal/models"
)

// TrackCacheAdapter implements tasks.TrackCacher using TrackRepository.
//
// Re-resolutions of the same canonical key overwrite the stored row, so
// the cache always reflects the most recent resolution.
type TrackCacheAdapter struct {
	repo *TrackRepository
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *TrackRepository) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo}
}

// CacheTrack persists metadata for a freshly resolved track.
func (a *TrackCacheAdapter) CacheTrack(track models.ResolvedTrack) error {
	if err := a.repo.Upsert(track); err != nil {
		return fmt.Errorf("failed to cache track: %w", err)
	}
	return nil
}
