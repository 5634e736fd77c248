package tasks

import (
	"fmt"

	"github.com/desertthunder/tracklab/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylist Phase = iota
	ValidateTracks
	FetchFeatures
	FetchGenres
	Aggregate
	Recommend
	AnalyzePlaylist
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylist:
		return "fetch_playlist"
	case ValidateTracks:
		return "validate_tracks"
	case FetchFeatures:
		return "fetch_features"
	case FetchGenres:
		return "fetch_genres"
	case Aggregate:
		return "aggregate"
	case Recommend:
		return "recommend"
	case AnalyzePlaylist:
		return "analyze_playlist"
	default:
		return ""
	}
}

func fetchingPlaylistUpdate(playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist %s...", playlistID),
	}
}

func foundPlaylistUpdate(playlist *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", playlist.Name, len(playlist.Tracks)),
		Data:    playlist,
	}
}

func cachedReportUpdate(report *models.PlaylistReport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Using cached report for %s", report.Name),
		Data:    report,
	}
}

func validatingTrackUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ValidateTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Validating: %s", step, total, name),
	}
}

func fetchingFeaturesUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFeatures,
		Step:    step,
		Total:   total,
		Message: "Fetching audio features...",
	}
}

func fetchingGenresUpdate(step, total int, artist string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchGenres,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching genres: %s", step, total, artist),
	}
}

func aggregatingUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Aggregate,
		Step:    total,
		Total:   total,
		Message: "Computing playlist statistics...",
	}
}

func recommendSeedUpdate(genres []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Recommend,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Seeding recommendations from genres: %v", genres),
	}
}

func recommendScoredUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Recommend,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Scored %d recommendations", count),
	}
}

func analyzingPlaylistUpdate(step, total int, playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AnalyzePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Analyzing: %s...", step, total, playlistID),
	}
}

func analyzeCompletedUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AnalyzePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, name),
	}
}

func analyzeFailedUpdate(step, total int, playlistID string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AnalyzePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, playlistID, err),
	}
}
