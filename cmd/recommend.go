package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tracklab/internal/shared"
	"github.com/desertthunder/tracklab/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Recommend produces scored track recommendations, seeded either from an
// analyzed playlist or directly from artist names.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")
	artists := cmd.StringSlice("artist")

	if playlistID == "" && len(artists) == 0 {
		return fmt.Errorf("%w: either --id or --artist is required", shared.ErrMissingArgument)
	}
	if playlistID != "" && len(artists) > 0 {
		return fmt.Errorf("%w: --id and --artist are mutually exclusive", shared.ErrInvalidArgument)
	}

	if err := r.buildPipeline(ctx, cmd); err != nil {
		return err
	}

	limit := int(cmd.Int("limit"))

	var result *tasks.RecommendResult
	var err error

	if playlistID != "" {
		report, analysisErr := r.pipeline.AnalyzePlaylist(ctx, nil, playlistID, tasks.AnalyzeOpts{})
		if analysisErr != nil {
			return analysisErr
		}
		result, err = r.pipeline.Recommend(ctx, nil, report, limit)
	} else {
		result, err = r.pipeline.RecommendFromArtists(ctx, nil, artists, nil, limit)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("Recommendations\n")
	r.writePlain("═══════════════════════════════════════\n")
	if len(result.SeedGenres) > 0 {
		r.writePlain("Seed genres: %v\n", result.SeedGenres)
	}
	if len(result.SeedArtists) > 0 {
		r.writePlain("Seed artists: %d\n", len(result.SeedArtists))
	}
	r.writePlain("\n")

	for i, rec := range result.Recommendations {
		names := ""
		for j, artist := range rec.Track.Artists {
			if j > 0 {
				names += ", "
			}
			names += artist.Name
		}
		r.writePlain("%2d. %s - %s (score %.2f)\n", i+1, names, rec.Track.Name, rec.Score)
	}
	return nil
}

func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"rec"},
		Usage:   "Recommend tracks from a playlist profile or artist seeds",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "Playlist ID to build the taste profile from",
			},
			&cli.StringSliceFlag{
				Name:    "artist",
				Aliases: []string{"a"},
				Usage:   "Artist name to seed from (repeatable)",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum recommendations to return",
				Value:   20,
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
		},
		Action: r.Recommend,
	}
}
