// Package validate implements the stateless business-rule checks applied to
// tracks, preview clips, and audio features during enrichment.
//
// Each stage returns a [Result]; probe and network failures surface as
// validation errors, never as returned errors, so a flaky CDN cannot abort
// a playlist run.
package validate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklab/internal/models"
	"github.com/desertthunder/tracklab/internal/shared"
	"golang.org/x/time/rate"
)

// assumedBitrate is the rough bytes-per-second used to estimate clip duration
// from a Content-Length header.
const assumedBitrate = 16000

// defaultProbeRate paces HEAD probes when the config leaves it unset.
const defaultProbeRate = 5.0

// Result is the immutable outcome of one validation stage.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func ok() Result {
	return Result{Valid: true, Errors: []string{}}
}

func failed(errs []string) Result {
	return Result{Valid: false, Errors: errs}
}

// Validator evaluates the three validation stages against configured rules.
type Validator struct {
	rules  shared.ValidationConfig
	client *http.Client
	probes *rate.Limiter
	logger *log.Logger
}

// New creates a Validator. The client is used for preview-clip probes and
// defaults to a 10 second timeout; probeRate bounds probe requests per second.
func New(rules shared.ValidationConfig, client *http.Client, probeRate float64, logger *log.Logger) *Validator {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if probeRate <= 0 {
		probeRate = defaultProbeRate
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Validator{
		rules:  rules,
		client: client,
		probes: rate.NewLimiter(rate.Limit(probeRate), 1),
		logger: logger.With("component", "validate"),
	}
}

// Track checks required metadata fields, the popularity floor, and artist
// entries. Violations accumulate; field presence is checked independently per
// field.
func (v *Validator) Track(track models.Track) Result {
	var errs []string

	if track.ID == "" {
		errs = append(errs, "missing required field: id")
	}
	if track.Name == "" {
		errs = append(errs, "missing required field: name")
	}
	if len(track.Artists) == 0 {
		errs = append(errs, "missing required field: artists")
	}
	if track.Album.Name == "" {
		errs = append(errs, "missing required field: album")
	}
	if track.Popularity == 0 {
		errs = append(errs, "missing required field: popularity")
	}

	if track.Popularity < v.rules.MinTrackPopularity {
		errs = append(errs, fmt.Sprintf("track popularity too low: %d", track.Popularity))
	}

	for _, artist := range track.Artists {
		if artist.Name == "" {
			errs = append(errs, "artist entry missing name")
		}
	}

	if len(errs) > 0 {
		return failed(errs)
	}
	return ok()
}

// Clip checks that a preview reference exists, is a well-formed URL, and
// serves reachable audio of plausible length.
//
// Missing or malformed references short-circuit with a single error. The
// reachability probe is a HEAD request paced by the probe limiter; probe
// failures are reported as validation errors.
func (v *Validator) Clip(ctx context.Context, previewURL, trackName string) Result {
	if previewURL == "" {
		return failed([]string{fmt.Sprintf("no preview URL for track: %s", trackName)})
	}

	parsed, err := url.Parse(previewURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return failed([]string{fmt.Sprintf("invalid preview URL format: %s", previewURL)})
	}

	if err := v.probes.Wait(ctx); err != nil {
		return failed([]string{fmt.Sprintf("error accessing preview URL: %v", err)})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, previewURL, nil)
	if err != nil {
		return failed([]string{fmt.Sprintf("error accessing preview URL: %v", err)})
	}

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Debug("preview probe failed", "url", previewURL, "error", err)
		return failed([]string{fmt.Sprintf("error accessing preview URL: %v", err)})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failed([]string{fmt.Sprintf("preview URL not accessible (status %d): %s", resp.StatusCode, previewURL)})
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "audio") {
		return failed([]string{fmt.Sprintf("preview URL does not serve audio content: %s", contentType)})
	}

	var errs []string
	if lengthHint := resp.Header.Get("Content-Length"); lengthHint != "" {
		if length, err := strconv.Atoi(lengthHint); err == nil && length > 0 {
			estimate := float64(length) / assumedBitrate
			if estimate < v.rules.MinPreviewDurationSeconds {
				errs = append(errs, fmt.Sprintf("preview too short: estimated %.1fs", estimate))
			} else if estimate > v.rules.MaxPreviewDurationSeconds {
				errs = append(errs, fmt.Sprintf("preview too long: estimated %.1fs", estimate))
			}
		}
	}

	if len(errs) > 0 {
		return failed(errs)
	}
	return ok()
}

// AudioFeatures checks that every required feature is present and within
// [0, 1]. Violations accumulate, one error per offending feature.
func (v *Validator) AudioFeatures(features models.AudioFeatures) Result {
	var errs []string

	for _, name := range v.rules.RequiredAudioFeatures {
		value, present := features[name]
		if !present {
			errs = append(errs, fmt.Sprintf("missing audio feature: %s", name))
			continue
		}

		if value < 0 || value > 1 {
			errs = append(errs, fmt.Sprintf("invalid %s value: %v", name, value))
		}
	}

	if len(errs) > 0 {
		return failed(errs)
	}
	return ok()
}
