package services

import (
	"context"

	"github.com/desertthunder/tracklab/internal/models"
)

// Catalog defines the remote music catalog operations the enrichment
// pipeline consumes. Implementations do not rate limit; callers gate every
// call through the pipeline's limiter.
type Catalog interface {
	// GetPlaylist retrieves a playlist's metadata and full track list.
	GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// GetAudioFeatures retrieves audio features for the given track IDs in
	// one batched call. The result has the same order and length as the
	// input; a nil entry marks a track with no available features.
	GetAudioFeatures(ctx context.Context, trackIDs []string) ([]models.AudioFeatures, error)

	// GetArtist retrieves a single artist, including genre tags.
	GetArtist(ctx context.Context, artistID string) (*models.Artist, error)

	// SearchArtistID resolves an artist name to a catalog ID.
	// Returns "" with a nil error when no match exists.
	SearchArtistID(ctx context.Context, name string) (string, error)

	// GetRecommendations retrieves track stubs for the given seed.
	GetRecommendations(ctx context.Context, seed RecommendationSeed) ([]models.Track, error)

	// Name returns the name of the catalog (e.g., "Spotify")
	Name() string
}

// RecommendationSeed is the structured input to recommendation retrieval.
// TargetFeatures maps feature names to desired values; the client translates
// them to the wire format.
type RecommendationSeed struct {
	Genres         []string
	Artists        []string
	TargetFeatures map[string]float64
	Limit          int
}
