// Spotify API implementation of [Catalog]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklab/internal/models"
	"github.com/desertthunder/tracklab/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Maximum IDs per /audio-features request
	audioFeaturesBatchLimit = 100
)

type spotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []models.Image `json:"images"`
}

type spotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []models.Image `json:"images"`
}

type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
	Popularity int             `json:"popularity"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	PreviewURL string          `json:"preview_url"`
}

type spotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       struct {
		DisplayName string `json:"display_name"`
	} `json:"owner"`
	Followers struct {
		Total int `json:"total"`
	} `json:"followers"`
	Images []models.Image `json:"images"`
	Tracks struct {
		Items []struct {
			Track *spotifyTrack `json:"track"`
		} `json:"items"`
	} `json:"tracks"`
}

// SpotifyService implements [Catalog] against the Spotify Web API using the
// OAuth2 client-credentials flow; the [clientcredentials.Config] client
// fetches and refreshes tokens transparently.
type SpotifyService struct {
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
}

// NewSpotifyService creates a Spotify catalog client with the given
// credentials. The returned client authenticates lazily on first use.
func NewSpotifyService(ctx context.Context, clientID, clientSecret string, logger *log.Logger) (*SpotifyService, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}

	return &SpotifyService{
		httpClient: config.Client(ctx),
		baseURL:    spotifyBaseURL,
		logger:     logger.With("service", "spotify"),
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Verify requests an access token to confirm the configured credentials work.
func (s *SpotifyService) Verify(ctx context.Context) error {
	// Any authenticated endpoint exercises the token exchange; a bogus
	// search is the cheapest.
	endpoint := "/search?q=artist%3Atest&type=artist&limit=1"
	var response struct{}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, &response); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}
	return nil
}

// doRequest performs an authenticated HTTP request against the Spotify API
// and decodes the JSON response into result.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	apiURL := s.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// GetPlaylist retrieves a playlist with its full track listing.
func (s *SpotifyService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))

	var response spotifyPlaylist
	if err := s.doRequest(ctx, http.MethodGet, endpoint, &response); err != nil {
		return nil, err
	}

	playlist := &models.Playlist{
		ID:          response.ID,
		Name:        response.Name,
		Description: response.Description,
		Owner:       response.Owner.DisplayName,
		Followers:   response.Followers.Total,
	}
	if len(response.Images) > 0 {
		playlist.CoverImage = response.Images[0].URL
	}

	for _, item := range response.Tracks.Items {
		// Local files and removed tracks appear as null entries
		if item.Track == nil {
			continue
		}
		playlist.Tracks = append(playlist.Tracks, convertTrack(*item.Track))
	}

	return playlist, nil
}

// GetAudioFeatures retrieves audio features for the given track IDs,
// preserving input order with nil gaps for tracks without features.
// Requests are chunked to the API's batch limit.
func (s *SpotifyService) GetAudioFeatures(ctx context.Context, trackIDs []string) ([]models.AudioFeatures, error) {
	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("%w: no track IDs provided", shared.ErrInvalidInput)
	}

	features := make([]models.AudioFeatures, 0, len(trackIDs))

	for start := 0; start < len(trackIDs); start += audioFeaturesBatchLimit {
		end := start + audioFeaturesBatchLimit
		if end > len(trackIDs) {
			end = len(trackIDs)
		}

		ids := strings.Join(trackIDs[start:end], ",")
		endpoint := fmt.Sprintf("/audio-features?ids=%s", url.QueryEscape(ids))

		var response struct {
			AudioFeatures []map[string]any `json:"audio_features"`
		}
		if err := s.doRequest(ctx, http.MethodGet, endpoint, &response); err != nil {
			return nil, err
		}

		for _, raw := range response.AudioFeatures {
			features = append(features, numericFeatures(raw))
		}
	}

	if len(features) != len(trackIDs) {
		return nil, fmt.Errorf("%w: expected %d feature entries, got %d", shared.ErrAPIRequest, len(trackIDs), len(features))
	}

	return features, nil
}

// GetArtist retrieves an artist by ID, including genre tags.
func (s *SpotifyService) GetArtist(ctx context.Context, artistID string) (*models.Artist, error) {
	endpoint := fmt.Sprintf("/artists/%s", url.PathEscape(artistID))

	var response spotifyArtist
	if err := s.doRequest(ctx, http.MethodGet, endpoint, &response); err != nil {
		return nil, err
	}

	return &models.Artist{
		ID:     response.ID,
		Name:   response.Name,
		Genres: response.Genres,
	}, nil
}

// SearchArtistID resolves an artist name to an ID via catalog search.
// An empty ID with a nil error means no match.
func (s *SpotifyService) SearchArtistID(ctx context.Context, name string) (string, error) {
	query := url.QueryEscape(fmt.Sprintf("artist:%s", name))
	endpoint := fmt.Sprintf("/search?q=%s&type=artist&limit=1", query)

	var response struct {
		Artists struct {
			Items []spotifyArtist `json:"items"`
		} `json:"artists"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, &response); err != nil {
		return "", err
	}

	if len(response.Artists.Items) == 0 {
		return "", nil
	}
	return response.Artists.Items[0].ID, nil
}

// GetRecommendations retrieves recommended track stubs for the seed. Target
// features are passed as explicit target_<name> query parameters.
func (s *SpotifyService) GetRecommendations(ctx context.Context, seed RecommendationSeed) ([]models.Track, error) {
	if len(seed.Genres) == 0 && len(seed.Artists) == 0 {
		return nil, fmt.Errorf("%w: recommendation seed requires genres or artists", shared.ErrInvalidInput)
	}

	params := url.Values{}
	if len(seed.Genres) > 0 {
		params.Set("seed_genres", strings.Join(seed.Genres, ","))
	}
	if len(seed.Artists) > 0 {
		params.Set("seed_artists", strings.Join(seed.Artists, ","))
	}
	if seed.Limit > 0 {
		params.Set("limit", strconv.Itoa(seed.Limit))
	}

	// Deterministic parameter order for targets
	names := make([]string, 0, len(seed.TargetFeatures))
	for name := range seed.TargetFeatures {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		params.Set("target_"+name, strconv.FormatFloat(seed.TargetFeatures[name], 'f', -1, 64))
	}

	endpoint := "/recommendations?" + params.Encode()

	var response struct {
		Tracks []spotifyTrack `json:"tracks"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks))
	for _, track := range response.Tracks {
		tracks = append(tracks, convertTrack(track))
	}

	return tracks, nil
}

// convertTrack maps a wire track to the domain model.
func convertTrack(track spotifyTrack) models.Track {
	converted := models.Track{
		ID:         track.ID,
		Name:       track.Name,
		Album:      models.Album{ID: track.Album.ID, Name: track.Album.Name, Images: track.Album.Images},
		Popularity: track.Popularity,
		DurationMS: track.DurationMS,
		Explicit:   track.Explicit,
		PreviewURL: track.PreviewURL,
	}

	for _, artist := range track.Artists {
		converted.Artists = append(converted.Artists, models.Artist{
			ID:     artist.ID,
			Name:   artist.Name,
			Genres: artist.Genres,
		})
	}

	return converted
}

// numericFeatures keeps the numeric fields of a raw audio-features payload.
// A nil payload (no features for that track) stays nil.
func numericFeatures(raw map[string]any) models.AudioFeatures {
	if raw == nil {
		return nil
	}

	features := make(models.AudioFeatures, len(raw))
	for name, value := range raw {
		if number, isNumber := value.(float64); isNumber {
			features[name] = number
		}
	}
	return features
}
