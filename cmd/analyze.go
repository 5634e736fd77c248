package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tracklab/internal/formatter"
	"github.com/desertthunder/tracklab/internal/models"
	"github.com/desertthunder/tracklab/internal/shared"
	"github.com/desertthunder/tracklab/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Analyze runs the full enrichment pipeline against one playlist.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("id")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}

	if err := r.buildPipeline(ctx, cmd); err != nil {
		return err
	}

	r.writePlain("Analyzing playlist %s...\n\n", playlistID)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchPlaylist:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ValidateTracks:
				r.writePlain("   %s\n", update.Message)
			case tasks.FetchFeatures:
				r.writePlain("\n🎛  %s\n", update.Message)
			case tasks.FetchGenres:
				r.writePlain("   %s\n", update.Message)
			case tasks.Aggregate:
				r.writePlain("\n📊 %s\n", update.Message)
			}
		}
	}()

	report, err := r.pipeline.AnalyzePlaylist(ctx, progressCh, playlistID, tasks.AnalyzeOpts{
		Refresh: cmd.Bool("refresh"),
	})
	close(progressCh)

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}

	if format := cmd.String("format"); format != "" {
		outputDir := cmd.String("output")
		if outputDir == "" {
			outputDir = "."
		}
		path, err := formatter.WriteReport(report, format, outputDir)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Report written to %s\n", path)
	}

	r.printReportSummary(report)

	if r.collector != nil && cmd.Bool("metrics") {
		r.writePlain("\n%s", string(formatter.SummaryToMarkdown(r.collector.Summary())))
	}
	return nil
}

// AnalyzeBulk analyzes several playlists concurrently.
func (r *Runner) AnalyzeBulk(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringArgs("ids")
	if len(ids) == 0 {
		return fmt.Errorf("%w: playlist IDs", shared.ErrMissingArgument)
	}

	if err := r.buildPipeline(ctx, cmd); err != nil {
		return err
	}

	r.writePlain("Analyzing %d playlists...\n\n", len(ids))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			if update.Phase == tasks.AnalyzePlaylist {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := r.pipeline.BulkAnalyze(ctx, progressCh, ids, tasks.BulkOpts{
		NumWorkers: r.config.Workers.Playlists,
		Refresh:    cmd.Bool("refresh"),
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
	})
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlain("\n═══════════════════════════════════════\n")
	r.writePlain("Bulk Analysis Complete\n")
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("Playlists: %d (%d succeeded, %d failed)\n",
		result.TotalPlaylists, result.SuccessCount, result.FailedCount)
	if result.OutputDirectory != "" {
		r.writePlain("Reports: %s\n", result.OutputDirectory)
	}

	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("  ✗ %s: %v\n", res.PlaylistID, res.Error)
		}
	}
	return nil
}

// printReportSummary renders the report's highlights as plain text.
func (r *Runner) printReportSummary(report *models.PlaylistReport) {
	a := report.Analytics

	r.writePlain("\n═══════════════════════════════════════\n")
	r.writePlain("%s\n", report.Name)
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("Owner: %s\n", report.Owner)
	r.writePlain("Tracks: %d\n", a.TotalTracks)
	r.writePlain("Valid previews: %d\n", a.ValidPreviews)
	r.writePlain("Invalid previews: %d\n", a.InvalidPreviews)
	r.writePlain("Average popularity: %.1f\n", a.AveragePopularity)

	if genres := a.TopGenres(5); len(genres) > 0 {
		r.writePlain("Top genres:\n")
		for _, genre := range genres {
			r.writePlain("  %s (%d tracks)\n", genre, a.GenreDistribution[genre])
		}
	}

	invalid := 0
	for _, record := range report.Tracks {
		if record.ValidationStatus == models.ValidationInvalid {
			invalid++
		}
	}
	if invalid > 0 {
		r.writePlain("\n%d tracks with validation issues:\n", invalid)
		for _, record := range report.Tracks {
			if record.ValidationStatus != models.ValidationInvalid {
				continue
			}
			r.writePlain("  ✗ %s\n", record.Name)
			for _, msg := range record.ValidationErrors {
				r.writePlain("      - %s\n", msg)
			}
		}
	}
}

func analyzeCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}

	return &cli.Command{
		Name:    "analyze",
		Aliases: []string{"an"},
		Usage:   "Analyze and enrich a playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags: []cli.Flag{
			configFlag,
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Ignore cached reports and re-fetch",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Write a report file: json, csv, markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory for report files",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Print API metrics after the run",
			},
		},
		Action: r.Analyze,
		Commands: []*cli.Command{
			{
				Name:  "bulk",
				Usage: "Analyze multiple playlists concurrently",
				Arguments: []cli.Argument{
					&cli.StringArgs{
						Name: "ids",
						Max:  -1,
					},
				},
				Flags: []cli.Flag{
					configFlag,
					&cli.BoolFlag{
						Name:  "refresh",
						Usage: "Ignore cached reports and re-fetch",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Write report files: json, csv, markdown",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Directory for report files",
					},
				},
				Action: r.AnalyzeBulk,
			},
		},
	}
}
