package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chartsync/internal/chart"
	"github.com/desertthunder/chartsync/internal/repositories"
	"github.com/desertthunder/chartsync/internal/resolver"
	"github.com/desertthunder/chartsync/internal/services"
	"github.com/desertthunder/chartsync/internal/shared"
	"github.com/desertthunder/chartsync/internal/stores"
	"github.com/desertthunder/chartsync/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	spotify    *services.SpotifyService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog
	Spotify    *services.SpotifyService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Catalog == nil && opts.Spotify != nil {
		opts.Catalog = opts.Spotify
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		spotify:    opts.Spotify,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, syncCommand, chartCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// newHarvester builds a chart harvester from the runner's configuration.
func (r *Runner) newHarvester() (*chart.Harvester, error) {
	cutoff, err := r.config.CutoffDate()
	if err != nil {
		return nil, err
	}
	return chart.NewHarvester(chart.HarvesterOpts{
		HTTPClient: r.httpClient,
		Logger:     r.logger,
		Cutoff:     cutoff,
		UserAgent:  r.config.Chart.UserAgent,
	}), nil
}

// newEngine assembles the fully wired sync engine: authenticated catalog,
// harvester, resolver, stores, and the sqlite track metadata cache.
//
// Returns a cleanup function that closes the database handle.
func (r *Runner) newEngine(ctx context.Context, dryRun bool) (*tasks.ChartEngine, func(), error) {
	if err := r.config.Validate(); err != nil {
		return nil, nil, err
	}
	if r.catalog == nil {
		return nil, nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}

	if r.spotify != nil {
		r.spotify.SetTokenRefreshCallback(r.persistRefreshedToken)
	}
	if err := r.catalog.Authenticate(ctx, r.config.Credentials.Spotify.Map()); err != nil {
		return nil, nil, err
	}

	harvester, err := r.newHarvester()
	if err != nil {
		return nil, nil, err
	}

	entryResolver := resolver.NewResolver(resolver.ResolverOpts{
		Catalog: r.catalog,
		Logger:  r.logger,
	})

	cleanup := func() {}
	var cacher tasks.TrackCacher
	if r.config.Database.Path != "" {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			r.logger.Warn("track metadata cache unavailable", "error", err)
		} else {
			shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
			if err := repositories.InitSchema(db); err != nil {
				r.logger.Warn("track metadata schema init failed", "error", err)
				db.Close()
			} else {
				cacher = repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db))
				cleanup = func() { db.Close() }
			}
		}
	}

	engine := tasks.NewChartEngine(tasks.EngineOpts{
		Catalog:    r.catalog,
		Harvester:  harvester,
		Resolver:   entryResolver,
		Added:      stores.NewAddedStore(r.config.Stores.AddedPath),
		Cache:      stores.NewCacheStore(r.config.Stores.CachePath),
		NotFound:   stores.NewNotFoundStore(r.config.Stores.NotFoundPath),
		Cacher:     cacher,
		Logger:     shared.WithLogger(r.logger, "run", shared.GenerateID()),
		PlaylistID: r.config.Playlist.ID,
		DryRun:     dryRun,
	})
	return engine, cleanup, nil
}

// persistRefreshedToken saves a rotated refresh token back to the config
// file so the next scheduled run authenticates with the current token.
func (r *Runner) persistRefreshedToken(token *oauth2.Token) {
	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		r.logger.Warn("failed to persist refreshed token", "error", err)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
