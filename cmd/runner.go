package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklab/internal/analytics"
	"github.com/desertthunder/tracklab/internal/cache"
	"github.com/desertthunder/tracklab/internal/ratelimit"
	"github.com/desertthunder/tracklab/internal/services"
	"github.com/desertthunder/tracklab/internal/shared"
	"github.com/desertthunder/tracklab/internal/tasks"
	"github.com/desertthunder/tracklab/internal/validate"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	catalog   services.Catalog
	store     *cache.Store
	sweeper   *cache.Sweeper
	collector *analytics.Collector
	pipeline  *tasks.Pipeline
	logger    *log.Logger
	output    io.Writer

	teardown []func()
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Catalog  services.Catalog
	Store    *cache.Store
	Pipeline *tasks.Pipeline
	Logger   *log.Logger
	Output   io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:   opts.Config,
		catalog:  opts.Catalog,
		store:    opts.Store,
		pipeline: opts.Pipeline,
		logger:   opts.Logger,
		output:   opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, analyzeCommand, recommendCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger, for commands that redirect logs.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases resources acquired while building the pipeline.
func (r *Runner) Close() {
	for i := len(r.teardown) - 1; i >= 0; i-- {
		r.teardown[i]()
	}
	r.teardown = nil
}

// loadConfig reads the config file named by the command's --config flag,
// falling back to defaults when it is absent or unparsable.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	configPath := cmd.String("config")
	if configPath == "" {
		return r.config
	}

	if _, err := os.Stat(configPath); err != nil {
		return r.config
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		return r.config
	}

	r.config = config
	return config
}

// buildPipeline assembles the full analysis stack from configuration: the
// catalog client, the cache store with its background sweeper, the rate
// limiter, the validator, and the metrics collector. Injected dependencies
// (tests) take precedence over configured ones.
func (r *Runner) buildPipeline(ctx context.Context, cmd *cli.Command) error {
	if r.pipeline != nil {
		return nil
	}

	config := r.loadConfig(cmd)

	if r.catalog == nil {
		spotify, err := services.NewSpotifyService(ctx,
			config.Credentials.Spotify.ClientID,
			config.Credentials.Spotify.ClientSecret,
			r.logger)
		if err != nil {
			return fmt.Errorf("failed to create catalog client: %w", err)
		}
		r.catalog = spotify
	}

	if err := r.buildStore(cmd); err != nil {
		return err
	}
	if r.sweeper == nil {
		r.sweeper = cache.NewSweeper(r.store, config.Cache.CleanupInterval(), r.logger)
		r.sweeper.Start()
		r.teardown = append(r.teardown, r.sweeper.Stop)
	}

	limiter := ratelimit.New(config.API.RateLimitPerMinute)
	validator := validate.New(config.Validation, nil, config.API.ProbeRatePerSecond, r.logger)
	r.collector = analytics.NewCollector(config.Analytics)

	r.pipeline = tasks.NewPipeline(r.catalog, r.store, limiter, validator, r.collector, r.logger)
	return nil
}

// buildStore opens just the cache store, for maintenance commands that need
// no catalog client and no background sweeper.
func (r *Runner) buildStore(cmd *cli.Command) error {
	if r.store != nil {
		return nil
	}

	config := r.loadConfig(cmd)

	db, err := shared.NewDatabase(config.Cache.Path)
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	r.teardown = append(r.teardown, func() { db.Close() })

	shared.ConfigureDatabase(db, config.Cache.MaxOpenConns, config.Cache.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.store = cache.NewStore(db, config.Cache.TTL(), r.logger)
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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
