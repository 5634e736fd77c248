package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklab/internal/analytics"
	"github.com/desertthunder/tracklab/internal/cache"
	"github.com/desertthunder/tracklab/internal/models"
	"github.com/desertthunder/tracklab/internal/ratelimit"
	"github.com/desertthunder/tracklab/internal/services"
	"github.com/desertthunder/tracklab/internal/shared"
	"github.com/desertthunder/tracklab/internal/validate"
)

// featureAverageSkip lists feature keys excluded from playlist-level
// averages. Absolute-scale values would drown out the normalized ones.
var featureAverageSkip = map[string]bool{
	"duration_ms":    true,
	"tempo":          true,
	"loudness":       true,
	"key":            true,
	"mode":           true,
	"time_signature": true,
}

// AnalyzeOpts tweaks a single playlist analysis run.
type AnalyzeOpts struct {
	Refresh bool // Skip the cached report and re-fetch everything
}

// Pipeline runs playlist enrichment against a catalog, reading through the
// cache and pacing every catalog call with the shared rate limiter.
type Pipeline struct {
	catalog   services.Catalog
	store     *cache.Store
	limiter   *ratelimit.Limiter
	validator *validate.Validator
	collector *analytics.Collector
	logger    *log.Logger
}

// NewPipeline wires a Pipeline from its dependencies. The collector may be
// nil when metrics are disabled.
func NewPipeline(
	catalog services.Catalog,
	store *cache.Store,
	limiter *ratelimit.Limiter,
	validator *validate.Validator,
	collector *analytics.Collector,
	logger *log.Logger,
) *Pipeline {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Pipeline{
		catalog:   catalog,
		store:     store,
		limiter:   limiter,
		validator: validator,
		collector: collector,
		logger:    logger.With("component", "pipeline"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (p *Pipeline) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// recordCall forwards API call timing to the collector when one is attached.
func (p *Pipeline) recordCall(endpoint string, started time.Time, success bool) {
	if p.collector == nil {
		return
	}
	p.collector.RecordCall(endpoint, time.Since(started), success)
}

// AnalyzePlaylist fetches, validates, and enriches every track of a playlist,
// returning a finished report. A cached report is returned as-is unless
// opts.Refresh is set.
func (p *Pipeline) AnalyzePlaylist(ctx context.Context, progress chan<- ProgressUpdate, playlistID string, opts AnalyzeOpts) (*models.PlaylistReport, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}

	reportKey := cache.Key("playlist", playlistID)
	if !opts.Refresh {
		if raw, hit := p.store.Get(reportKey); hit {
			var report models.PlaylistReport
			if err := json.Unmarshal(raw, &report); err == nil {
				p.logger.Info("serving cached report", "playlist", playlistID)
				p.sendProgress(progress, cachedReportUpdate(&report))
				return &report, nil
			}
			p.logger.Warn("discarding undecodable cached report", "playlist", playlistID)
		}
	}

	p.sendProgress(progress, fetchingPlaylistUpdate(playlistID))

	p.limiter.Acquire()
	started := time.Now()
	playlist, err := p.catalog.GetPlaylist(ctx, playlistID)
	p.recordCall("playlist", started, err == nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrPlaylistFetch, playlistID, err)
	}

	p.sendProgress(progress, foundPlaylistUpdate(playlist))

	records := make([]*models.TrackRecord, 0, len(playlist.Tracks))
	for _, track := range playlist.Tracks {
		records = append(records, models.NewTrackRecord(track))
	}

	report := &models.PlaylistReport{
		RunID:       shared.GenerateID(),
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		Owner:       playlist.Owner,
		Followers:   playlist.Followers,
		CoverImage:  playlist.CoverImage,
		Tracks:      records,
		Analytics:   models.NewPlaylistAnalytics(),
	}
	report.Analytics.TotalTracks = len(records)

	if err := p.validateTracks(ctx, progress, report); err != nil {
		return nil, err
	}
	if err := p.fetchFeatures(ctx, progress, records); err != nil {
		return nil, err
	}
	if err := p.fetchGenres(ctx, progress, report); err != nil {
		return nil, err
	}

	p.sendProgress(progress, aggregatingUpdate(len(records)))
	p.aggregate(report)

	report.GeneratedAt = time.Now()

	if raw, err := json.Marshal(report); err == nil {
		if err := p.store.Set(reportKey, raw); err != nil {
			p.logger.Warn("failed to cache report", "playlist", playlistID, "error", err)
		}
	}

	if p.collector != nil {
		p.collector.RecordFeatures(records)
	}

	p.logger.Info("playlist analysis complete",
		"playlist", playlist.Name,
		"tracks", len(records),
		"valid_previews", report.Analytics.ValidPreviews)

	return report, nil
}

// validateTracks runs metadata and preview clip validation over every record,
// tallying preview outcomes on the report. A missing preview counts as
// invalid in the tallies but keeps its own status on the record.
func (p *Pipeline) validateTracks(ctx context.Context, progress chan<- ProgressUpdate, report *models.PlaylistReport) error {
	total := len(report.Tracks)
	for i, record := range report.Tracks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p.sendProgress(progress, validatingTrackUpdate(i+1, total, record.Name))

		if res := p.validator.Track(record.Track); !res.Valid {
			record.AddErrors(res.Errors...)
		}

		clip := p.validator.Clip(ctx, record.PreviewURL, record.Name)
		switch {
		case record.PreviewURL == "":
			record.PreviewValidation = models.PreviewMissing
			report.Analytics.InvalidPreviews++
		case clip.Valid:
			record.PreviewValidation = models.PreviewValid
			report.Analytics.ValidPreviews++
		default:
			record.PreviewValidation = models.PreviewInvalid
			report.Analytics.InvalidPreviews++
		}
		if !clip.Valid {
			record.AddErrors(clip.Errors...)
		}
	}
	return nil
}

// fetchFeatures enriches records with audio features, cache-first, then
// validates the required feature set on each record.
func (p *Pipeline) fetchFeatures(ctx context.Context, progress chan<- ProgressUpdate, records []*models.TrackRecord) error {
	p.sendProgress(progress, fetchingFeaturesUpdate(len(records), len(records)))

	missing := make([]string, 0, len(records))
	missingIdx := make(map[string][]int)
	for i, record := range records {
		record.Advance(models.StageFetchingFeatures)
		if record.ID == "" {
			continue
		}

		if raw, hit := p.store.Get(cache.Key("audio_features", record.ID)); hit {
			var features models.AudioFeatures
			if err := json.Unmarshal(raw, &features); err == nil {
				record.AudioFeatures = features
				continue
			}
		}

		if len(missingIdx[record.ID]) == 0 {
			missing = append(missing, record.ID)
		}
		missingIdx[record.ID] = append(missingIdx[record.ID], i)
	}

	if len(missing) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p.limiter.Acquire()
		started := time.Now()
		features, err := p.catalog.GetAudioFeatures(ctx, missing)
		p.recordCall("audio_features", started, err == nil)
		if err != nil {
			p.logger.Warn("audio features fetch failed", "tracks", len(missing), "error", err)
		} else {
			for i, trackID := range missing {
				if features[i] == nil {
					continue
				}
				for _, idx := range missingIdx[trackID] {
					records[idx].AudioFeatures = features[i]
				}
				if raw, err := json.Marshal(features[i]); err == nil {
					if err := p.store.Set(cache.Key("audio_features", trackID), raw); err != nil {
						p.logger.Warn("failed to cache audio features", "track", trackID, "error", err)
					}
				}
			}
		}
	}

	for _, record := range records {
		if res := p.validator.AudioFeatures(record.AudioFeatures); !res.Valid {
			record.AddErrors(res.Errors...)
		}
	}
	return nil
}

// fetchGenres resolves genres for every distinct artist on the playlist,
// cache-first, and attaches the union of artist genres to each record.
// Artist lookup failures are logged and skipped rather than failing the run.
func (p *Pipeline) fetchGenres(ctx context.Context, progress chan<- ProgressUpdate, report *models.PlaylistReport) error {
	artistIDs := make([]string, 0)
	artistNames := make(map[string]string)
	for _, record := range report.Tracks {
		record.Advance(models.StageFetchingGenres)
		for _, artist := range record.Artists {
			if artist.ID == "" {
				continue
			}
			if _, seen := artistNames[artist.ID]; !seen {
				artistIDs = append(artistIDs, artist.ID)
				artistNames[artist.ID] = artist.Name
			}
		}
	}

	genresByArtist := make(map[string][]string, len(artistIDs))
	for i, artistID := range artistIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p.sendProgress(progress, fetchingGenresUpdate(i+1, len(artistIDs), artistNames[artistID]))

		if raw, hit := p.store.Get(cache.Key("artist", artistID)); hit {
			var genres []string
			if err := json.Unmarshal(raw, &genres); err == nil {
				genresByArtist[artistID] = genres
				continue
			}
		}

		p.limiter.Acquire()
		started := time.Now()
		artist, err := p.catalog.GetArtist(ctx, artistID)
		p.recordCall("artist", started, err == nil)
		if err != nil {
			p.logger.Warn("artist lookup failed", "artist", artistNames[artistID], "error", err)
			continue
		}

		genresByArtist[artistID] = artist.Genres
		if raw, err := json.Marshal(artist.Genres); err == nil {
			if err := p.store.Set(cache.Key("artist", artistID), raw); err != nil {
				p.logger.Warn("failed to cache artist genres", "artist", artistID, "error", err)
			}
		}
	}

	for _, record := range report.Tracks {
		seen := make(map[string]bool)
		for _, artist := range record.Artists {
			for _, genre := range genresByArtist[artist.ID] {
				if genre == "" || seen[genre] {
					continue
				}
				seen[genre] = true
				record.Genres = append(record.Genres, genre)
				report.Analytics.GenreDistribution[genre]++
			}
		}
		sort.Strings(record.Genres)
	}
	return nil
}

// aggregate finalizes every record and computes playlist-level statistics.
// Popularity averages skip zero values, which the catalog uses for unknown.
func (p *Pipeline) aggregate(report *models.PlaylistReport) {
	popularitySum, popularityCount := 0, 0
	featureSums := make(map[string]float64)
	featureCounts := make(map[string]int)

	for _, record := range report.Tracks {
		record.Advance(models.StageValidating)
		record.Finalize()

		if record.Popularity > 0 {
			popularitySum += record.Popularity
			popularityCount++
		}

		for name, value := range record.AudioFeatures {
			if featureAverageSkip[name] {
				continue
			}
			featureSums[name] += value
			featureCounts[name]++
		}
	}

	if popularityCount > 0 {
		report.Analytics.AveragePopularity = float64(popularitySum) / float64(popularityCount)
	}
	for name, sum := range featureSums {
		report.Analytics.AudioFeatureAverages[name] = sum / float64(featureCounts[name])
	}
}

// describeGenres renders a short genre summary for logs and progress lines.
func describeGenres(genres []string) string {
	if len(genres) == 0 {
		return "none"
	}
	return strings.Join(genres, ", ")
}
