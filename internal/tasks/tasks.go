// package tasks implements chart sync operations against the catalog.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/resolver"
	"github.com/desertthunder/chartsync/internal/services"
	"github.com/desertthunder/chartsync/internal/shared"
	"github.com/desertthunder/chartsync/internal/stores"
)

const (
	appendRetries = 3
	appendBackoff = 2 * time.Second
)

// Harvester is the slice of the chart package the engine needs.
type Harvester interface {
	HarvestAll(ctx context.Context) ([]models.ChartEntry, error)
	HarvestLatest(ctx context.Context) (*models.ChartEntry, error)
}

// EntryResolver resolves chart entries to catalog track IDs, cache-first.
type EntryResolver interface {
	Resolve(ctx context.Context, entry models.ChartEntry, cache map[string]string) (resolver.Resolution, bool)
	NotFound() []models.NotFoundEntry
	ResetNotFound()
}

// TrackCacher persists metadata for freshly resolved tracks. Optional;
// the engine works without one.
type TrackCacher interface {
	CacheTrack(track models.ResolvedTrack) error
}

// SyncEngine defines the chart sync run modes.
type SyncEngine interface {
	// Auto backfills on first run (empty added-list), otherwise appends
	// the latest number one, then runs the reorder pass.
	Auto(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error)

	// Backfill processes the entire historical chart sequence.
	Backfill(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error)

	// AppendLatest appends only the most recent number one, if new.
	AppendLatest(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error)

	// Rebuild recomputes the canonical ordering and replaces the live
	// playlist wholesale.
	Rebuild(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error)

	// Clear empties the playlist and resets the added-list and not-found
	// stores without harvesting.
	Clear(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error)
}

// SyncResult summarizes a run.
type SyncResult struct {
	Mode            string
	TotalEntries    int
	Added           int
	SkippedDup      int
	SkippedPresent  int
	NotFoundCount   int
	FailedAppends   int
	AddedTracks     []string               // IDs appended this run, in order
	Rebuilt         []string               // final canonical ordering (rebuild modes)
	RebuildRefused  bool                   // zero-result safety rail triggered
	NotFoundEntries []models.NotFoundEntry // this run's resolution failures
}

// ChartEngine implements SyncEngine for the number-ones playlist.
type ChartEngine struct {
	catalog    services.Catalog
	harvester  Harvester
	resolver   EntryResolver
	added      *stores.AddedStore
	cache      *stores.CacheStore
	notFound   *stores.NotFoundStore
	cacher     TrackCacher
	logger     *log.Logger
	playlistID string
	dryRun     bool
	backoff    time.Duration
}

// EngineOpts contains configuration options for creating a ChartEngine.
type EngineOpts struct {
	Catalog    services.Catalog
	Harvester  Harvester
	Resolver   EntryResolver
	Added      *stores.AddedStore
	Cache      *stores.CacheStore
	NotFound   *stores.NotFoundStore
	Cacher     TrackCacher
	Logger     *log.Logger
	PlaylistID string
	DryRun     bool
	Backoff    time.Duration
}

// NewChartEngine creates a ChartEngine with the provided configuration.
func NewChartEngine(opts EngineOpts) *ChartEngine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Backoff <= 0 {
		opts.Backoff = appendBackoff
	}
	return &ChartEngine{
		catalog:    opts.Catalog,
		harvester:  opts.Harvester,
		resolver:   opts.Resolver,
		added:      opts.Added,
		cache:      opts.Cache,
		notFound:   opts.NotFound,
		cacher:     opts.Cacher,
		logger:     opts.Logger,
		playlistID: opts.PlaylistID,
		dryRun:     opts.DryRun,
		backoff:    opts.Backoff,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ChartEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Auto is the default run mode: backfill when the added-list is empty,
// append-latest otherwise, then the reorder/reconciliation pass.
func (e *ChartEngine) Auto(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error) {
	rs, err := e.loadState(ctx, progress)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, harvestUpdate(1, 1))
	entries, err := e.harvester.HarvestAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("harvest failed: %w", err)
	}
	e.sendProgress(progress, harvestedUpdate(len(entries)))

	result := &SyncResult{Mode: "auto", TotalEntries: len(entries)}

	if len(rs.added) == 0 {
		e.logger.Info("first run detected, backfilling full chart history", "entries", len(entries))
		e.appendEntries(ctx, progress, rs, entries, result)
	} else {
		latest, err := e.harvester.HarvestLatest(ctx)
		if err != nil {
			e.logger.Warn("latest chart entry unavailable", "err", err)
		} else if latest != nil {
			e.appendEntries(ctx, progress, rs, []models.ChartEntry{*latest}, result)
		}
	}

	if err := e.rebuildOrdered(ctx, progress, rs, entries, result); err != nil {
		e.persistState(progress, rs, result)
		return result, err
	}

	e.persistState(progress, rs, result)
	return result, nil
}

// Backfill processes every harvested entry in chronological order.
func (e *ChartEngine) Backfill(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error) {
	rs, err := e.loadState(ctx, progress)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, harvestUpdate(1, 1))
	entries, err := e.harvester.HarvestAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("harvest failed: %w", err)
	}
	e.sendProgress(progress, harvestedUpdate(len(entries)))

	result := &SyncResult{Mode: "backfill", TotalEntries: len(entries)}
	e.appendEntries(ctx, progress, rs, entries, result)
	e.persistState(progress, rs, result)
	return result, nil
}

// AppendLatest appends the single most recent number one, if new.
func (e *ChartEngine) AppendLatest(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error) {
	rs, err := e.loadState(ctx, progress)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, harvestUpdate(1, 1))
	latest, err := e.harvester.HarvestLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("harvest failed: %w", err)
	}

	result := &SyncResult{Mode: "append-latest"}
	if latest == nil {
		e.logger.Info("no qualifying latest entry found")
		e.persistState(progress, rs, result)
		return result, nil
	}

	result.TotalEntries = 1
	e.appendEntries(ctx, progress, rs, []models.ChartEntry{*latest}, result)
	e.persistState(progress, rs, result)
	return result, nil
}

// Rebuild recomputes the full canonical ordering and replaces the live
// playlist wholesale.
func (e *ChartEngine) Rebuild(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error) {
	rs, err := e.loadState(ctx, progress)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, harvestUpdate(1, 1))
	entries, err := e.harvester.HarvestAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("harvest failed: %w", err)
	}
	e.sendProgress(progress, harvestedUpdate(len(entries)))

	result := &SyncResult{Mode: "rebuild", TotalEntries: len(entries)}
	if err := e.rebuildOrdered(ctx, progress, rs, entries, result); err != nil {
		e.persistState(progress, rs, result)
		return result, err
	}
	e.persistState(progress, rs, result)
	return result, nil
}

// Clear empties the playlist and resets the added-list and not-found
// stores. Bypasses harvesting entirely; the resolution cache survives.
func (e *ChartEngine) Clear(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error) {
	e.sendProgress(progress, clearUpdate())
	result := &SyncResult{Mode: "clear"}

	if e.dryRun {
		e.logger.Info("dry run: would replace playlist with empty content", "playlist", e.playlistID)
	} else {
		if err := e.catalog.ReplaceTracks(ctx, e.playlistID, nil); err != nil {
			return nil, fmt.Errorf("failed to empty playlist: %w", err)
		}
		if err := e.added.Save(nil); err != nil {
			return nil, err
		}
		if err := e.notFound.Save(nil); err != nil {
			return nil, err
		}
	}

	e.logger.Info("playlist cleared", "playlist", e.playlistID, "dry_run", e.dryRun)
	return result, nil
}

// runState carries the mutable per-run view: the resolution cache, the
// live playlist snapshot, the per-run processed-key set and the
// added-track list. Touched only by the single run goroutine.
type runState struct {
	cache      map[string]string
	snapshot   *models.PlaylistSnapshot
	processed  map[string]bool
	added      []string
	newlyAdded []string
}

// loadState fetches the playlist membership and loads the JSON stores.
func (e *ChartEngine) loadState(ctx context.Context, progress chan<- ProgressUpdate) (*runState, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	cache, err := e.cache.Load()
	if err != nil {
		return nil, err
	}
	added, err := e.added.Load()
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, fetchPlaylistUpdate(1, 1))
	ids, err := e.catalog.PlaylistTrackIDs(ctx, e.playlistID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch playlist: %v", shared.ErrPlaylistNotFound, err)
	}

	e.resolver.ResetNotFound()

	return &runState{
		cache:     cache,
		snapshot:  models.NewPlaylistSnapshot(ids),
		processed: make(map[string]bool),
		added:     added,
	}, nil
}

// persistState writes the stores after a run. The added-list is only
// written on real runs; the cache and not-found log always are. The
// cache captures read-only resolution work, and the not-found log is
// overwritten per run by contract.
func (e *ChartEngine) persistState(progress chan<- ProgressUpdate, rs *runState, result *SyncResult) {
	e.sendProgress(progress, persistUpdate())

	result.NotFoundEntries = e.resolver.NotFound()
	result.NotFoundCount = len(result.NotFoundEntries)

	if err := e.cache.Save(rs.cache); err != nil {
		e.logger.Error("failed to persist resolution cache", "err", err)
	}
	if err := e.notFound.Save(result.NotFoundEntries); err != nil {
		e.logger.Error("failed to persist not-found log", "err", err)
	}
	if e.dryRun {
		return
	}
	if err := e.added.Save(rs.added); err != nil {
		e.logger.Error("failed to persist added-track list", "err", err)
	}
}
