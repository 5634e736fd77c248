package models

import (
	"sort"
	"time"
)

// Image represents an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Artist represents a catalog artist.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres,omitempty"`
}

// Album represents a catalog album.
type Album struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images,omitempty"`
}

// Track represents a catalog track.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	Popularity int      `json:"popularity"`
	DurationMS int      `json:"duration_ms"`
	Explicit   bool     `json:"explicit"`
	PreviewURL string   `json:"preview_url,omitempty"`
}

// AudioFeatures holds numeric audio attributes keyed by feature name
// (danceability, energy, valence, ...). Non-numeric payload fields are
// dropped at the catalog boundary.
type AudioFeatures map[string]float64

// Playlist represents a catalog playlist with its resolved track list.
type Playlist struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Owner       string  `json:"owner"`
	Followers   int     `json:"followers"`
	CoverImage  string  `json:"cover_image,omitempty"`
	Tracks      []Track `json:"tracks"`
}

// ValidationStatus is the accumulated validation outcome for a track record.
type ValidationStatus string

const (
	ValidationPending ValidationStatus = "pending"
	ValidationValid   ValidationStatus = "valid"
	ValidationInvalid ValidationStatus = "invalid"
)

// PreviewStatus classifies a track's preview clip.
type PreviewStatus string

const (
	PreviewValid   PreviewStatus = "valid"
	PreviewInvalid PreviewStatus = "invalid"
	PreviewMissing PreviewStatus = "missing"
)

// Stage is the enrichment stage a track record has reached. Stages only advance.
type Stage int

const (
	StagePending Stage = iota
	StageFetchingFeatures
	StageFetchingGenres
	StageValidating
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageFetchingFeatures:
		return "fetching_features"
	case StageFetchingGenres:
		return "fetching_genres"
	case StageValidating:
		return "validating"
	case StageDone:
		return "done"
	default:
		return ""
	}
}

// TrackRecord is a playlist track progressively enriched by the pipeline.
//
// Created once per track encountered in a playlist, mutated as stages
// complete, and immutable after the pipeline finishes with it.
type TrackRecord struct {
	Track

	CoverImage        string           `json:"cover_image,omitempty"`
	AudioFeatures     AudioFeatures    `json:"audio_features,omitempty"`
	Genres            []string         `json:"genres,omitempty"`
	PreviewValidation PreviewStatus    `json:"preview_validation"`
	ValidationStatus  ValidationStatus `json:"validation_status"`
	ValidationErrors  []string         `json:"validation_errors"`

	Stage Stage `json:"-"`
}

// NewTrackRecord creates a pending record for the given track.
func NewTrackRecord(track Track) *TrackRecord {
	record := &TrackRecord{
		Track:            track,
		ValidationStatus: ValidationPending,
		ValidationErrors: []string{},
		Stage:            StagePending,
	}

	if len(track.Album.Images) > 0 {
		record.CoverImage = track.Album.Images[0].URL
	}

	return record
}

// Advance moves the record to the given stage. Backward transitions are ignored.
func (r *TrackRecord) Advance(stage Stage) {
	if stage > r.Stage {
		r.Stage = stage
	}
}

// AddErrors appends validation errors to the record.
func (r *TrackRecord) AddErrors(errs ...string) {
	r.ValidationErrors = append(r.ValidationErrors, errs...)
}

// Finalize marks the record done and settles its validation status from the
// accumulated error list.
func (r *TrackRecord) Finalize() {
	if len(r.ValidationErrors) == 0 {
		r.ValidationStatus = ValidationValid
	} else {
		r.ValidationStatus = ValidationInvalid
	}
	r.Advance(StageDone)
}

// ArtistNames returns the names of all artists on the track.
func (r *TrackRecord) ArtistNames() []string {
	names := make([]string, 0, len(r.Artists))
	for _, artist := range r.Artists {
		names = append(names, artist.Name)
	}
	return names
}

// PlaylistAnalytics holds aggregates computed once per analyzed playlist.
type PlaylistAnalytics struct {
	TotalTracks          int                `json:"total_tracks"`
	ValidPreviews        int                `json:"valid_previews"`
	InvalidPreviews      int                `json:"invalid_previews"`
	AveragePopularity    float64            `json:"average_popularity"`
	GenreDistribution    map[string]int     `json:"genre_distribution"`
	AudioFeatureAverages map[string]float64 `json:"audio_feature_averages"`
}

// NewPlaylistAnalytics creates an empty aggregate set.
func NewPlaylistAnalytics() PlaylistAnalytics {
	return PlaylistAnalytics{
		GenreDistribution:    make(map[string]int),
		AudioFeatureAverages: make(map[string]float64),
	}
}

// TopGenres returns up to n genre names ordered by descending count.
func (a PlaylistAnalytics) TopGenres(n int) []string {
	genres := make([]string, 0, len(a.GenreDistribution))
	for genre := range a.GenreDistribution {
		genres = append(genres, genre)
	}

	sort.Slice(genres, func(i, j int) bool {
		if a.GenreDistribution[genres[i]] != a.GenreDistribution[genres[j]] {
			return a.GenreDistribution[genres[i]] > a.GenreDistribution[genres[j]]
		}
		return genres[i] < genres[j]
	})

	if n > 0 && len(genres) > n {
		genres = genres[:n]
	}
	return genres
}

// PlaylistReport is the complete output of analyzing one playlist.
type PlaylistReport struct {
	RunID       string            `json:"run_id"`
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Owner       string            `json:"owner"`
	Followers   int               `json:"followers"`
	CoverImage  string            `json:"cover_image,omitempty"`
	Tracks      []*TrackRecord    `json:"tracks"`
	Analytics   PlaylistAnalytics `json:"analytics"`
	GeneratedAt time.Time         `json:"generated_at"`
}
