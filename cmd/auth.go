package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tracklab/internal/services"
	"github.com/desertthunder/tracklab/internal/shared"
	"github.com/urfave/cli/v3"
)

// catalogVerifier is implemented by catalog clients that can check their
// credentials with a cheap request.
type catalogVerifier interface {
	Verify(ctx context.Context) error
}

// AuthVerify exchanges the configured client credentials for a token to
// confirm they work.
func (r *Runner) AuthVerify(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	if r.catalog == nil {
		if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
			return fmt.Errorf("%w: set credentials.spotify in the config file", shared.ErrMissingCredentials)
		}

		spotify, err := services.NewSpotifyService(ctx,
			config.Credentials.Spotify.ClientID,
			config.Credentials.Spotify.ClientSecret,
			r.logger)
		if err != nil {
			return err
		}
		r.catalog = spotify
	}

	verifier, ok := r.catalog.(catalogVerifier)
	if !ok {
		return r.writePlain("✓ Catalog client configured (%s)\n", r.catalog.Name())
	}

	r.logger.Info("verifying catalog credentials")
	if err := verifier.Verify(ctx); err != nil {
		return fmt.Errorf("credential verification failed: %w", err)
	}

	return r.writePlain("✓ Authenticated with %s\n", r.catalog.Name())
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Catalog authentication",
		Commands: []*cli.Command{
			{
				Name:  "verify",
				Usage: "Verify configured client credentials",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.AuthVerify,
			},
		},
	}
}
