package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/desertthunder/tracklab/internal/cache"
	"github.com/desertthunder/tracklab/internal/models"
	"github.com/desertthunder/tracklab/internal/services"
	"github.com/desertthunder/tracklab/internal/shared"
)

const (
	defaultRecommendLimit = 20
	maxSeedGenres         = 3
	maxSeedArtists        = 2
)

// targetableFeatures are the profile dimensions forwarded to the catalog as
// recommendation targets and used for candidate scoring.
var targetableFeatures = []string{"danceability", "energy", "valence", "acousticness"}

// Recommendation is one scored candidate track.
type Recommendation struct {
	Track models.Track `json:"track"`
	Score float64      `json:"score"`
}

// RecommendResult is the output of a recommendation run.
type RecommendResult struct {
	PlaylistID      string             `json:"playlist_id"`
	Profile         map[string]float64 `json:"profile"`
	SeedGenres      []string           `json:"seed_genres"`
	SeedArtists     []string           `json:"seed_artists"`
	Recommendations []Recommendation   `json:"recommendations"`
}

// BuildProfile reduces a report to a taste profile over the targetable
// feature dimensions. Features the report never observed are omitted.
func BuildProfile(report *models.PlaylistReport) map[string]float64 {
	profile := make(map[string]float64, len(targetableFeatures))
	for _, name := range targetableFeatures {
		if value, present := report.Analytics.AudioFeatureAverages[name]; present {
			profile[name] = value
		}
	}
	return profile
}

// scoreTrack measures how close a candidate's features sit to the profile,
// as 1 minus the mean absolute distance over dimensions both sides have.
// A candidate with no overlapping features scores zero.
func scoreTrack(profile map[string]float64, features models.AudioFeatures) float64 {
	if len(profile) == 0 || len(features) == 0 {
		return 0
	}

	sum, count := 0.0, 0
	for name, target := range profile {
		value, present := features[name]
		if !present {
			continue
		}
		sum += 1 - math.Abs(target-value)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Recommend produces scored track recommendations seeded from a finished
// playlist report. Seeds come from the report's top genres and most frequent
// artists; targets come from the report's feature averages.
func (p *Pipeline) Recommend(ctx context.Context, progress chan<- ProgressUpdate, report *models.PlaylistReport, limit int) (*RecommendResult, error) {
	if report == nil {
		return nil, fmt.Errorf("%w: report", shared.ErrMissingArgument)
	}
	if limit <= 0 {
		limit = defaultRecommendLimit
	}

	profile := BuildProfile(report)
	genres := report.Analytics.TopGenres(maxSeedGenres)
	artists := seedArtists(report)

	if len(genres) == 0 && len(artists) == 0 {
		return nil, fmt.Errorf("%w: report has no genres or resolvable artists to seed from", shared.ErrInvalidInput)
	}

	p.logger.Info("building recommendations",
		"playlist", report.Name,
		"genres", describeGenres(genres),
		"artists", len(artists))
	p.sendProgress(progress, recommendSeedUpdate(genres))

	p.limiter.Acquire()
	started := time.Now()
	candidates, err := p.catalog.GetRecommendations(ctx, services.RecommendationSeed{
		Genres:         genres,
		Artists:        artists,
		TargetFeatures: profile,
		Limit:          limit,
	})
	p.recordCall("recommendations", started, err == nil)
	if err != nil {
		return nil, fmt.Errorf("%w: recommendations: %v", shared.ErrAPIRequest, err)
	}

	result := &RecommendResult{
		PlaylistID:      report.ID,
		Profile:         profile,
		SeedGenres:      genres,
		SeedArtists:     artists,
		Recommendations: p.scoreCandidates(ctx, profile, candidates),
	}

	p.sendProgress(progress, recommendScoredUpdate(len(result.Recommendations)))
	return result, nil
}

// seedArtists picks up to maxSeedArtists artist IDs from the report,
// preferring artists that appear on the most tracks.
func seedArtists(report *models.PlaylistReport) []string {
	counts := make(map[string]int)
	for _, record := range report.Tracks {
		for _, artist := range record.Artists {
			if artist.ID != "" {
				counts[artist.ID]++
			}
		}
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})

	if len(ids) > maxSeedArtists {
		ids = ids[:maxSeedArtists]
	}
	return ids
}

// ResolveArtists maps artist names to catalog IDs via search, cache-first.
// An unmatched name fails the whole resolution so callers never seed
// recommendations with a silently dropped artist.
func (p *Pipeline) ResolveArtists(ctx context.Context, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		if raw, hit := p.store.Get(cache.Key("artist_search", name)); hit {
			ids = append(ids, string(raw))
			continue
		}

		p.limiter.Acquire()
		started := time.Now()
		id, err := p.catalog.SearchArtistID(ctx, name)
		p.recordCall("search", started, err == nil)
		if err != nil {
			return nil, fmt.Errorf("%w: search for %q: %v", shared.ErrAPIRequest, name, err)
		}
		if id == "" {
			return nil, fmt.Errorf("%w: %s", shared.ErrArtistNotFound, name)
		}

		if err := p.store.Set(cache.Key("artist_search", name), []byte(id)); err != nil {
			p.logger.Warn("failed to cache artist search", "artist", name, "error", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// RecommendFromArtists produces scored recommendations seeded directly from
// artist names, for callers without a finished report to profile.
func (p *Pipeline) RecommendFromArtists(ctx context.Context, progress chan<- ProgressUpdate, names []string, targets map[string]float64, limit int) (*RecommendResult, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: artist names", shared.ErrMissingArgument)
	}
	if limit <= 0 {
		limit = defaultRecommendLimit
	}

	artists, err := p.ResolveArtists(ctx, names)
	if err != nil {
		return nil, err
	}
	if len(artists) > maxSeedArtists {
		artists = artists[:maxSeedArtists]
	}

	p.limiter.Acquire()
	started := time.Now()
	candidates, err := p.catalog.GetRecommendations(ctx, services.RecommendationSeed{
		Artists:        artists,
		TargetFeatures: targets,
		Limit:          limit,
	})
	p.recordCall("recommendations", started, err == nil)
	if err != nil {
		return nil, fmt.Errorf("%w: recommendations: %v", shared.ErrAPIRequest, err)
	}

	result := &RecommendResult{
		Profile:         targets,
		SeedArtists:     artists,
		Recommendations: p.scoreCandidates(ctx, targets, candidates),
	}
	p.sendProgress(progress, recommendScoredUpdate(len(result.Recommendations)))
	return result, nil
}

// scoreCandidates fetches audio features for the candidates, cache-first,
// scores each against the profile, and returns them ordered best-first.
func (p *Pipeline) scoreCandidates(ctx context.Context, profile map[string]float64, candidates []models.Track) []Recommendation {
	featuresByID := make(map[string]models.AudioFeatures, len(candidates))
	missing := make([]string, 0, len(candidates))
	for _, track := range candidates {
		if track.ID == "" {
			continue
		}
		if raw, hit := p.store.Get(cache.Key("audio_features", track.ID)); hit {
			var features models.AudioFeatures
			if err := json.Unmarshal(raw, &features); err == nil {
				featuresByID[track.ID] = features
				continue
			}
		}
		missing = append(missing, track.ID)
	}

	if len(missing) > 0 {
		p.limiter.Acquire()
		started := time.Now()
		features, err := p.catalog.GetAudioFeatures(ctx, missing)
		p.recordCall("audio_features", started, err == nil)
		if err != nil {
			p.logger.Warn("candidate feature fetch failed", "tracks", len(missing), "error", err)
		} else {
			for i, trackID := range missing {
				if features[i] == nil {
					continue
				}
				featuresByID[trackID] = features[i]
				if raw, err := json.Marshal(features[i]); err == nil {
					if err := p.store.Set(cache.Key("audio_features", trackID), raw); err != nil {
						p.logger.Warn("failed to cache audio features", "track", trackID, "error", err)
					}
				}
			}
		}
	}

	recommendations := make([]Recommendation, 0, len(candidates))
	for _, track := range candidates {
		recommendations = append(recommendations, Recommendation{
			Track: track,
			Score: scoreTrack(profile, featuresByID[track.ID]),
		})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Score > recommendations[j].Score
	})
	return recommendations
}
