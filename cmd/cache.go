package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// CacheStats prints a snapshot of the cache table.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	if err := r.buildStore(cmd); err != nil {
		return err
	}

	stats, err := r.store.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	r.writePlain("Cache entries: %d\n", stats.TotalEntries)
	r.writePlain("Average access count: %.2f\n", stats.AvgAccessCount)
	if stats.TotalEntries > 0 {
		r.writePlain("Oldest entry: %s\n", stats.OldestEntry.Format("2006-01-02 15:04:05"))
		r.writePlain("Newest entry: %s\n", stats.NewestEntry.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// CacheSweep removes expired entries immediately.
func (r *Runner) CacheSweep(ctx context.Context, cmd *cli.Command) error {
	if err := r.buildStore(cmd); err != nil {
		return err
	}

	removed, err := r.store.Sweep()
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	r.logger.Info("cache sweep complete", "removed", removed)
	return r.writePlain("✓ Removed %d expired entries\n", removed)
}

func cacheCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}

	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and maintain the local cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cache statistics",
				Flags: []cli.Flag{
					configFlag,
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheStats,
			},
			{
				Name:  "sweep",
				Usage: "Remove expired cache entries now",
				Flags: []cli.Flag{
					configFlag,
				},
				Action: r.CacheSweep,
			},
		},
	}
}
