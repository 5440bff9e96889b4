package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/chartsync/internal/repositories"
	"github.com/desertthunder/chartsync/internal/shared"
	"github.com/desertthunder/chartsync/internal/stores"
	"github.com/urfave/cli/v3"
)

// CacheShow prints the resolution cache and the sqlite track metadata.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	cache, err := stores.NewCacheStore(r.config.Stores.CachePath).Load()
	if err != nil {
		return fmt.Errorf("failed to load resolution cache: %w", err)
	}

	if useJSON {
		return r.writeJSON(cache, pretty)
	}

	r.writePlain("Cached resolutions: %d\n", len(cache))
	for key, trackID := range cache {
		r.writePlain("  %s → %s\n", key, trackID)
	}

	if r.config.Database.Path == "" {
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		r.logger.Warn("track metadata cache unavailable", "error", err)
		return nil
	}
	defer db.Close()

	repo := repositories.NewTrackRepository(db)
	tracks, err := repo.List()
	if err != nil {
		r.logger.Warn("failed to list track metadata", "error", err)
		return nil
	}

	r.writePlainln("Track metadata (%d rows):", len(tracks))
	for _, track := range tracks {
		r.writePlain("  %s · %s (%d) score=%d\n", track.TrackID, track.Title, track.ReleaseYear, track.Score)
	}
	return nil
}

// CacheClear invalidates the resolution cache and the sqlite metadata so
// the next run searches the catalog afresh.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: cache clear forces re-resolution of every entry, pass --yes to confirm", shared.ErrMissingArgument)
	}

	if err := stores.NewCacheStore(r.config.Stores.CachePath).Save(nil); err != nil {
		return fmt.Errorf("failed to reset resolution cache: %w", err)
	}
	r.writePlain("✓ Resolution cache cleared\n")

	if r.config.Database.Path != "" {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			r.logger.Warn("track metadata cache unavailable", "error", err)
			return nil
		}
		defer db.Close()

		if err := repositories.InitSchema(db); err != nil {
			r.logger.Warn("track metadata schema init failed", "error", err)
			return nil
		}
		if err := repositories.NewTrackRepository(db).Clear(); err != nil {
			r.logger.Warn("failed to clear track metadata", "error", err)
			return nil
		}
		r.writePlain("✓ Track metadata cleared\n")
	}

	return nil
}
