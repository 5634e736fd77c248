// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/desertthunder/tracklab/internal/models"
	"github.com/desertthunder/tracklab/internal/services"
)

// MockCatalog is a configurable test double for [services.Catalog].
//
// Each method delegates to its Fn field when set and fails otherwise, and
// every call is tallied in Calls by operation name.
type MockCatalog struct {
	PlaylistFn        func(ctx context.Context, playlistID string) (*models.Playlist, error)
	AudioFeaturesFn   func(ctx context.Context, trackIDs []string) ([]models.AudioFeatures, error)
	ArtistFn          func(ctx context.Context, artistID string) (*models.Artist, error)
	SearchArtistFn    func(ctx context.Context, name string) (string, error)
	RecommendationsFn func(ctx context.Context, seed services.RecommendationSeed) ([]models.Track, error)

	mu    sync.Mutex
	Calls map[string]int
}

func (m *MockCatalog) record(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[operation]++
}

// CallCount returns how often the named operation was invoked.
func (m *MockCatalog) CallCount(operation string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[operation]
}

func (m *MockCatalog) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	m.record("playlist")
	if m.PlaylistFn == nil {
		return nil, errors.New("unexpected GetPlaylist call")
	}
	return m.PlaylistFn(ctx, playlistID)
}

func (m *MockCatalog) GetAudioFeatures(ctx context.Context, trackIDs []string) ([]models.AudioFeatures, error) {
	m.record("audio_features")
	if m.AudioFeaturesFn == nil {
		return nil, errors.New("unexpected GetAudioFeatures call")
	}
	return m.AudioFeaturesFn(ctx, trackIDs)
}

func (m *MockCatalog) GetArtist(ctx context.Context, artistID string) (*models.Artist, error) {
	m.record("artist")
	if m.ArtistFn == nil {
		return nil, errors.New("unexpected GetArtist call")
	}
	return m.ArtistFn(ctx, artistID)
}

func (m *MockCatalog) SearchArtistID(ctx context.Context, name string) (string, error) {
	m.record("search_artist")
	if m.SearchArtistFn == nil {
		return "", errors.New("unexpected SearchArtistID call")
	}
	return m.SearchArtistFn(ctx, name)
}

func (m *MockCatalog) GetRecommendations(ctx context.Context, seed services.RecommendationSeed) ([]models.Track, error) {
	m.record("recommendations")
	if m.RecommendationsFn == nil {
		return nil, errors.New("unexpected GetRecommendations call")
	}
	return m.RecommendationsFn(ctx, seed)
}

func (m *MockCatalog) Name() string { return "mock" }

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
