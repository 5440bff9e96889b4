package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/desertthunder/chartsync/internal/formatter"
	"github.com/desertthunder/chartsync/internal/services"
	"github.com/desertthunder/chartsync/internal/shared"
	"github.com/desertthunder/chartsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SyncAuto backfills on first run, otherwise appends the latest number one.
func (r *Runner) SyncAuto(ctx context.Context, cmd *cli.Command) error {
	return r.runSync(ctx, cmd, "auto")
}

// SyncBackfill processes the entire historical chart sequence.
func (r *Runner) SyncBackfill(ctx context.Context, cmd *cli.Command) error {
	return r.runSync(ctx, cmd, "backfill")
}

// SyncAppendLatest appends only the most recent number one, if new.
func (r *Runner) SyncAppendLatest(ctx context.Context, cmd *cli.Command) error {
	return r.runSync(ctx, cmd, "append")
}

// SyncRebuild recomputes the canonical ordering and replaces the playlist.
func (r *Runner) SyncRebuild(ctx context.Context, cmd *cli.Command) error {
	return r.runSync(ctx, cmd, "rebuild")
}

// SyncClear empties the playlist and resets the run stores.
//
// Destructive; requires --yes unless running with --dry-run. The
// resolution cache survives, use 'cache clear' to invalidate it.
func (r *Runner) SyncClear(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") && !cmd.Bool("dry-run") {
		return fmt.Errorf("%w: clear empties the live playlist, pass --yes to confirm", shared.ErrMissingArgument)
	}
	return r.runSync(ctx, cmd, "clear")
}

// runSync assembles the engine, consumes progress updates, and prints a
// run summary for the requested mode.
func (r *Runner) runSync(ctx context.Context, cmd *cli.Command, mode string) error {
	r.reloadConfig(cmd)
	dryRun := cmd.Bool("dry-run")

	engine, cleanup, err := r.newEngine(ctx, dryRun)
	if err != nil {
		return err
	}
	defer cleanup()

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
		close(done)
	}()

	var result *tasks.SyncResult
	switch mode {
	case "auto":
		result, err = engine.Auto(ctx, progress)
	case "backfill":
		result, err = engine.Backfill(ctx, progress)
	case "append":
		result, err = engine.AppendLatest(ctx, progress)
	case "rebuild":
		result, err = engine.Rebuild(ctx, progress)
	case "clear":
		result, err = engine.Clear(ctx, progress)
	default:
		close(progress)
		<-done
		return fmt.Errorf("%w: unknown sync mode %q", shared.ErrInvalidArgument, mode)
	}

	close(progress)
	<-done

	if err != nil {
		if errors.Is(err, shared.ErrEmptyRebuild) {
			r.logger.Warn("rebuild refused", "error", err)
			r.writePlainln("⚠ Rebuild resolved zero tracks; playlist left untouched")
			return nil
		}
		return err
	}

	r.printSyncSummary(result, dryRun)

	if reportPath := cmd.String("report"); reportPath != "" {
		path, err := formatter.WriteNotFoundReport(result.NotFoundEntries, cmd.String("report-format"), reportPath)
		if err != nil {
			return err
		}
		r.writePlain("Not-found report written to %s\n", path)
	}
	return nil
}

func (r *Runner) printSyncSummary(result *tasks.SyncResult, dryRun bool) {
	if result == nil {
		return
	}

	title := fmt.Sprintf("Sync complete (%s)", result.Mode)
	if dryRun {
		title = fmt.Sprintf("Dry run complete (%s)", result.Mode)
	}
	r.writePlainHeader(title)

	r.writePlain("Chart entries: %d\n", result.TotalEntries)
	r.writePlain("Added: %d\n", result.Added)
	r.writePlain("Skipped (duplicate key): %d\n", result.SkippedDup)
	r.writePlain("Skipped (already present): %d\n", result.SkippedPresent)
	r.writePlain("Not found: %d\n", result.NotFoundCount)
	if result.FailedAppends > 0 {
		r.writePlain("Failed appends: %d\n", result.FailedAppends)
	}
	if len(result.Rebuilt) > 0 {
		r.writePlain("Playlist rebuilt with %d tracks\n", len(result.Rebuilt))
	}

	for _, entry := range result.NotFoundEntries {
		r.writePlain("  ✗ not found: %s - %s\n", entry.Song, entry.Artist)
	}
}

// reloadConfig swaps in the config named by the command's --config flag
// when it differs from the one loaded at startup.
func (r *Runner) reloadConfig(cmd *cli.Command) {
	configPath := cmd.String("config")
	if configPath == "" || configPath == r.configPath {
		return
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		r.logger.Warnf("failed to load config %s, keeping current: %v", configPath, err)
		return
	}

	r.config = config
	r.configPath = configPath

	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		credentials := config.Credentials.Spotify.Map()
		credentials["market"] = config.Playlist.Market
		if config.Sync.SearchRate > 0 {
			credentials["search_rate"] = strconv.FormatFloat(config.Sync.SearchRate, 'f', -1, 64)
		}
		if svc, err := services.NewSpotifyService(credentials); err == nil {
			r.spotify = svc
			r.catalog = svc
		}
	}
}
