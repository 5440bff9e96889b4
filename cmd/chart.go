package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/chartsync/internal/formatter"
	"github.com/desertthunder/chartsync/internal/shared"
	"github.com/desertthunder/chartsync/internal/stores"
	"github.com/desertthunder/chartsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// ChartList harvests every chart page and lists qualifying entries.
func (r *Runner) ChartList(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")
	format := cmd.String("format")
	outputFile := cmd.String("output")

	harvester, err := r.newHarvester()
	if err != nil {
		return err
	}

	r.logger.Info("harvesting chart pages")
	entries, err := harvester.HarvestAll(ctx)
	if err != nil {
		return fmt.Errorf("harvest failed: %w", err)
	}

	if outputFile != "" {
		path, err := formatter.WriteChartExport(entries, format, outputFile)
		if err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		r.writePlain("✓ Wrote %d entries to %s\n", len(entries), path)
		return nil
	}

	if useJSON {
		return r.writeJSON(entries, pretty)
	}

	data, err := formatter.ChartToText(entries)
	if err != nil {
		return fmt.Errorf("failed to format entries: %w", err)
	}
	r.writePlain("Found %d entries:\n\n", len(entries))
	return r.writePlain("%s", data)
}

// ChartLatest shows the current number one from the newest chart page.
func (r *Runner) ChartLatest(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	harvester, err := r.newHarvester()
	if err != nil {
		return err
	}

	entry, err := harvester.HarvestLatest(ctx)
	if err != nil {
		return fmt.Errorf("harvest failed: %w", err)
	}
	if entry == nil {
		r.writePlainln("No qualifying entry on the current chart page")
		return nil
	}

	if useJSON {
		return r.writeJSON(entry, pretty)
	}

	r.writePlain("Current number one (%s):\n", entry.ChartDate.Format("2 January 2006"))
	r.writePlain("  %s - %s\n", entry.RawSong, entry.RawArtist)
	return nil
}

// ChartBrowse launches the interactive chart browser TUI.
func (r *Runner) ChartBrowse(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	harvester, err := r.newHarvester()
	if err != nil {
		return err
	}

	cache, err := stores.NewCacheStore(r.config.Stores.CachePath).Load()
	if err != nil {
		r.logger.Warn("failed to load resolution cache", "error", err)
		cache = map[string]string{}
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/chartsync-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, harvester.HarvestAll, cache)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
