package tasks

import (
	"context"
	"time"

	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/normalize"
	"github.com/desertthunder/chartsync/internal/resolver"
	"github.com/desertthunder/chartsync/internal/services"
	"github.com/desertthunder/chartsync/internal/shared"
)

// Action is the terminal outcome for one chart entry in an append run.
// These are ordinary result values, not errors.
type Action int

const (
	ActionAdded Action = iota
	ActionSkipDuplicate
	ActionSkipAlreadyPresent
	ActionNotFound
	ActionAppendFailed
)

func (a Action) String() string {
	switch a {
	case ActionAdded:
		return "added"
	case ActionSkipDuplicate:
		return "skip_duplicate"
	case ActionSkipAlreadyPresent:
		return "skip_already_present"
	case ActionNotFound:
		return "not_found"
	case ActionAppendFailed:
		return "append_failed"
	default:
		return ""
	}
}

// appendEntries runs appendIfNew over a chronological entry sequence,
// tallying outcomes into result. A single entry's persistent failure
// never aborts the run.
func (e *ChartEngine) appendEntries(ctx context.Context, progress chan<- ProgressUpdate, rs *runState, entries []models.ChartEntry, result *SyncResult) {
	total := len(entries)
	e.sendProgress(progress, resolveUpdate(0, total, nil))

	for i, entry := range entries {
		e.sendProgress(progress, resolveUpdate(i+1, total, &entry))

		switch action := e.appendIfNew(ctx, rs, entry); action {
		case ActionAdded:
			result.Added++
			e.sendProgress(progress, appendedUpdate(i+1, total, entry, rs.newlyAdded[len(rs.newlyAdded)-1]))
		case ActionSkipDuplicate:
			result.SkippedDup++
		case ActionSkipAlreadyPresent:
			result.SkippedPresent++
		case ActionNotFound:
			// Tallied from the resolver's log in persistState.
		case ActionAppendFailed:
			result.FailedAppends++
		}
	}

	result.AddedTracks = append([]string(nil), rs.newlyAdded...)
}

// appendIfNew resolves one entry and appends it to the playlist when it
// is genuinely new.
//
// Outcomes, in order of evaluation: skip-duplicate when the canonical key
// was already processed this run, not-found when resolution fails,
// skip-already-present when the resolved track is already in the playlist
// (or was added earlier this run), and added otherwise.
func (e *ChartEngine) appendIfNew(ctx context.Context, rs *runState, entry models.ChartEntry) Action {
	key := normalize.KeyFor(entry).String()
	if rs.processed[key] {
		return ActionSkipDuplicate
	}
	rs.processed[key] = true

	res, ok := e.resolver.Resolve(ctx, entry, rs.cache)
	if !ok {
		return ActionNotFound
	}
	e.cacheResolution(key, res)

	if rs.snapshot.Contains(res.TrackID) {
		e.logger.Debug("already present", "song", entry.Song, "artist", entry.Artist, "track", res.TrackID)
		return ActionSkipAlreadyPresent
	}

	if e.dryRun {
		e.logger.Info("dry run: would append track", "song", entry.Song, "artist", entry.Artist, "track", res.TrackID)
	} else if err := e.appendWithRetry(ctx, []string{res.TrackID}); err != nil {
		// Left unresolved in the playlist, not re-queued; the run
		// continues with the next entry.
		e.logger.Error("append failed after retries", "song", entry.Song, "artist", entry.Artist, "err", err)
		return ActionAppendFailed
	}

	rs.snapshot.Add(res.TrackID)
	rs.added = append(rs.added, res.TrackID)
	rs.newlyAdded = append(rs.newlyAdded, res.TrackID)
	e.logger.Info("added", "song", entry.Song, "artist", entry.Artist, "track", res.TrackID, "dry_run", e.dryRun)
	return ActionAdded
}

// rebuildOrdered computes the canonical playlist ordering and replaces
// the live playlist with it.
//
// Entries are deduplicated by canonical key keeping the earliest
// occurrence, resolved, then deduplicated again at the track-ID level
// (distinct keys can resolve to the identical catalog track). When
// resolution yields zero tracks the destructive replace is refused and
// the live playlist is left untouched.
func (e *ChartEngine) rebuildOrdered(ctx context.Context, progress chan<- ProgressUpdate, rs *runState, entries []models.ChartEntry, result *SyncResult) error {
	unique := dedupeByKey(entries)

	var ordered []string
	seenID := make(map[string]bool, len(unique))

	total := len(unique)
	e.sendProgress(progress, resolveUpdate(0, total, nil))
	for i, entry := range unique {
		e.sendProgress(progress, resolveUpdate(i+1, total, &entry))

		res, ok := e.resolver.Resolve(ctx, entry, rs.cache)
		if !ok {
			continue
		}
		e.cacheResolution(normalize.KeyFor(entry).String(), res)

		if seenID[res.TrackID] {
			continue
		}
		seenID[res.TrackID] = true
		ordered = append(ordered, res.TrackID)
	}

	if len(ordered) == 0 {
		e.logger.Warn("rebuild resolved zero tracks, leaving playlist untouched")
		result.RebuildRefused = true
		return shared.ErrEmptyRebuild
	}

	result.Rebuilt = ordered

	if e.dryRun {
		e.logger.Info("dry run: would replace playlist", "playlist", e.playlistID, "tracks", len(ordered))
		return nil
	}

	if err := e.catalog.ReplaceTracks(ctx, e.playlistID, nil); err != nil {
		return err
	}

	batches := (len(ordered) + services.MaxBatchSize - 1) / services.MaxBatchSize
	for i := 0; i < len(ordered); i += services.MaxBatchSize {
		end := i + services.MaxBatchSize
		if end > len(ordered) {
			end = len(ordered)
		}
		batch := i/services.MaxBatchSize + 1
		e.sendProgress(progress, rebuildUpdate(batch, batches, len(ordered)))

		if err := e.appendWithRetry(ctx, ordered[i:end]); err != nil {
			return err
		}
	}

	// After a successful replace the added-list mirrors the playlist.
	rs.added = append([]string(nil), ordered...)
	rs.snapshot = models.NewPlaylistSnapshot(ordered)
	return nil
}

// appendWithRetry appends a batch to the playlist, retrying a bounded
// number of times with a fixed backoff. Only playlist mutations get
// retries; a failed search candidate has cheap alternatives in the
// cascade, a failed mutation has none.
func (e *ChartEngine) appendWithRetry(ctx context.Context, ids []string) error {
	var err error
	for attempt := 1; attempt <= appendRetries; attempt++ {
		if err = e.catalog.AddTracks(ctx, e.playlistID, ids); err == nil {
			return nil
		}

		e.logger.Warn("playlist append failed", "attempt", attempt, "tracks", len(ids), "err", err)
		if attempt == appendRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.backoff):
		}
	}
	return err
}

// cacheResolution mirrors a fresh resolution into the sqlite metadata
// cache. Cache hits carry no metadata and are skipped.
func (e *ChartEngine) cacheResolution(key string, res resolver.Resolution) {
	if e.cacher == nil || res.Track == nil {
		return
	}
	err := e.cacher.CacheTrack(models.ResolvedTrack{
		Key:         key,
		TrackID:     res.Track.ID,
		Title:       res.Track.Title,
		ArtistNames: res.Track.ArtistNames,
		ReleaseYear: res.Track.ReleaseYear,
		Popularity:  res.Track.Popularity,
		Score:       res.Score,
		ResolvedAt:  time.Now(),
	})
	if err != nil {
		e.logger.Warn("failed to cache resolved track metadata", "key", key, "err", err)
	}
}

// dedupeByKey keeps the earliest-dated occurrence per canonical key,
// preserving chronological order. Entries are assumed sorted ascending.
func dedupeByKey(entries []models.ChartEntry) []models.ChartEntry {
	seen := make(map[string]bool, len(entries))
	out := make([]models.ChartEntry, 0, len(entries))
	for _, entry := range entries {
		key := normalize.KeyFor(entry).String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, entry)
	}
	return out
}
