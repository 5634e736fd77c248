package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/tracklab/internal/models"
	"github.com/desertthunder/tracklab/internal/services"
	"github.com/desertthunder/tracklab/internal/shared"
	tu "github.com/desertthunder/tracklab/internal/testing"
)

// testReport builds a finished report with known averages and genres.
func testReport() *models.PlaylistReport {
	record := func(id string, genres []string) *models.TrackRecord {
		r := models.NewTrackRecord(models.Track{
			ID:      id,
			Name:    "Track " + id,
			Artists: []models.Artist{{ID: "artist-" + id, Name: "Artist " + id}},
		})
		r.Genres = genres
		r.AudioFeatures = validFeatures()
		return r
	}

	report := &models.PlaylistReport{
		ID:   "pl1",
		Name: "Profile Source",
		Tracks: []*models.TrackRecord{
			record("t1", []string{"indie", "pop"}),
			record("t2", []string{"indie"}),
		},
		Analytics:   models.NewPlaylistAnalytics(),
		GeneratedAt: time.Now(),
	}
	report.Analytics.TotalTracks = 2
	report.Analytics.GenreDistribution = map[string]int{"indie": 2, "pop": 1}
	report.Analytics.AudioFeatureAverages = map[string]float64{
		"danceability": 0.6,
		"energy":       0.5,
		"valence":      0.7,
		"acousticness": 0.2,
		"liveness":     0.1,
	}
	return report
}

func TestBuildProfile(t *testing.T) {
	profile := BuildProfile(testReport())

	if len(profile) != 4 {
		t.Errorf("expected 4 targetable dimensions, got %d: %v", len(profile), profile)
	}
	if profile["energy"] != 0.5 {
		t.Errorf("unexpected energy target: %v", profile["energy"])
	}
	if _, present := profile["liveness"]; present {
		t.Error("liveness is not a targetable dimension")
	}
}

func TestScoreTrack(t *testing.T) {
	profile := map[string]float64{"danceability": 0.6, "energy": 0.5}

	t.Run("Identical Features", func(t *testing.T) {
		score := scoreTrack(profile, models.AudioFeatures{"danceability": 0.6, "energy": 0.5})
		if score != 1.0 {
			t.Errorf("expected score 1.0, got %v", score)
		}
	})

	t.Run("Known Distance", func(t *testing.T) {
		// Distances 0.2 and 0.4 average to 0.3.
		score := scoreTrack(profile, models.AudioFeatures{"danceability": 0.8, "energy": 0.9})
		if score < 0.699 || score > 0.701 {
			t.Errorf("expected score 0.7, got %v", score)
		}
	})

	t.Run("No Overlap", func(t *testing.T) {
		if score := scoreTrack(profile, models.AudioFeatures{"tempo": 120}); score != 0 {
			t.Errorf("expected score 0, got %v", score)
		}
	})

	t.Run("Empty Features", func(t *testing.T) {
		if score := scoreTrack(profile, nil); score != 0 {
			t.Errorf("expected score 0, got %v", score)
		}
	})
}

func TestRecommend(t *testing.T) {
	t.Run("Seeds And Ordering", func(t *testing.T) {
		var capturedSeed services.RecommendationSeed
		catalog := &tu.MockCatalog{
			RecommendationsFn: func(ctx context.Context, seed services.RecommendationSeed) ([]models.Track, error) {
				capturedSeed = seed
				return []models.Track{
					{ID: "far", Name: "Far"},
					{ID: "near", Name: "Near"},
				}, nil
			},
			AudioFeaturesFn: func(ctx context.Context, trackIDs []string) ([]models.AudioFeatures, error) {
				features := make([]models.AudioFeatures, len(trackIDs))
				for i, id := range trackIDs {
					if id == "near" {
						features[i] = models.AudioFeatures{
							"danceability": 0.6, "energy": 0.5, "valence": 0.7, "acousticness": 0.2,
						}
					} else {
						features[i] = models.AudioFeatures{
							"danceability": 0.1, "energy": 0.9, "valence": 0.1, "acousticness": 0.9,
						}
					}
				}
				return features, nil
			},
		}

		pipeline, _ := setupPipeline(t, catalog)
		result, err := pipeline.Recommend(context.Background(), nil, testReport(), 10)
		if err != nil {
			t.Fatalf("recommend failed: %v", err)
		}

		if len(capturedSeed.Genres) != 2 || capturedSeed.Genres[0] != "indie" {
			t.Errorf("unexpected seed genres: %v", capturedSeed.Genres)
		}
		if len(capturedSeed.Artists) != 2 {
			t.Errorf("expected 2 seed artists, got %v", capturedSeed.Artists)
		}
		if capturedSeed.TargetFeatures["danceability"] != 0.6 {
			t.Errorf("unexpected target features: %v", capturedSeed.TargetFeatures)
		}
		if capturedSeed.Limit != 10 {
			t.Errorf("unexpected limit: %d", capturedSeed.Limit)
		}

		if len(result.Recommendations) != 2 {
			t.Fatalf("expected 2 recommendations, got %d", len(result.Recommendations))
		}
		if result.Recommendations[0].Track.ID != "near" {
			t.Errorf("expected best match first, got %s", result.Recommendations[0].Track.ID)
		}
		if result.Recommendations[0].Score <= result.Recommendations[1].Score {
			t.Error("expected descending scores")
		}
	})

	t.Run("Nil Report", func(t *testing.T) {
		pipeline, _ := setupPipeline(t, &tu.MockCatalog{})
		if _, err := pipeline.Recommend(context.Background(), nil, nil, 5); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("No Seeds", func(t *testing.T) {
		report := &models.PlaylistReport{Analytics: models.NewPlaylistAnalytics()}
		pipeline, _ := setupPipeline(t, &tu.MockCatalog{})
		if _, err := pipeline.Recommend(context.Background(), nil, report, 5); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Catalog Failure", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			RecommendationsFn: func(ctx context.Context, seed services.RecommendationSeed) ([]models.Track, error) {
				return nil, fmt.Errorf("upstream 500")
			},
		}
		pipeline, _ := setupPipeline(t, catalog)
		if _, err := pipeline.Recommend(context.Background(), nil, testReport(), 5); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestResolveArtists(t *testing.T) {
	t.Run("Resolves And Caches", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			SearchArtistFn: func(ctx context.Context, name string) (string, error) {
				return "id-" + name, nil
			},
		}

		pipeline, _ := setupPipeline(t, catalog)
		ids, err := pipeline.ResolveArtists(context.Background(), []string{"Alpha", "Beta"})
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if len(ids) != 2 || ids[0] != "id-Alpha" {
			t.Errorf("unexpected ids: %v", ids)
		}

		// Second resolution should be served from cache.
		if _, err := pipeline.ResolveArtists(context.Background(), []string{"Alpha"}); err != nil {
			t.Fatalf("cached resolve failed: %v", err)
		}
		if catalog.CallCount("search_artist") != 2 {
			t.Errorf("expected 2 searches, got %d", catalog.CallCount("search_artist"))
		}
	})

	t.Run("Unknown Artist", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			SearchArtistFn: func(ctx context.Context, name string) (string, error) {
				return "", nil
			},
		}

		pipeline, _ := setupPipeline(t, catalog)
		_, err := pipeline.ResolveArtists(context.Background(), []string{"Nobody"})
		if !errors.Is(err, shared.ErrArtistNotFound) {
			t.Errorf("expected ErrArtistNotFound, got %v", err)
		}
	})
}

func TestRecommendFromArtists(t *testing.T) {
	catalog := &tu.MockCatalog{
		SearchArtistFn: func(ctx context.Context, name string) (string, error) {
			return "id-" + name, nil
		},
		RecommendationsFn: func(ctx context.Context, seed services.RecommendationSeed) ([]models.Track, error) {
			if len(seed.Artists) != 1 || seed.Artists[0] != "id-Alpha" {
				return nil, fmt.Errorf("unexpected seed artists: %v", seed.Artists)
			}
			return []models.Track{{ID: "r1", Name: "Rec"}}, nil
		},
		AudioFeaturesFn: func(ctx context.Context, trackIDs []string) ([]models.AudioFeatures, error) {
			return []models.AudioFeatures{{"energy": 0.5}}, nil
		},
	}

	pipeline, _ := setupPipeline(t, catalog)
	result, err := pipeline.RecommendFromArtists(context.Background(), nil, []string{"Alpha"},
		map[string]float64{"energy": 0.5}, 5)
	if err != nil {
		t.Fatalf("recommend failed: %v", err)
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0].Score != 1.0 {
		t.Errorf("unexpected recommendations: %+v", result.Recommendations)
	}
}
