package formatter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/tracklab/internal/analytics"
	"github.com/desertthunder/tracklab/internal/models"
)

func sampleReport() *models.PlaylistReport {
	valid := models.NewTrackRecord(models.Track{
		ID:         "t1",
		Name:       "First Song",
		Popularity: 70,
		DurationMS: 185000,
		Artists:    []models.Artist{{ID: "a1", Name: "Artist One"}},
		Album:      models.Album{ID: "al1", Name: "Album One"},
	})
	valid.AudioFeatures = models.AudioFeatures{"danceability": 0.8, "energy": 0.6, "valence": 0.5}
	valid.Genres = []string{"indie"}
	valid.PreviewValidation = models.PreviewValid
	valid.Finalize()

	invalid := models.NewTrackRecord(models.Track{
		ID:      "t2",
		Name:    "Second Song",
		Artists: []models.Artist{{ID: "a2", Name: "Artist Two"}},
	})
	invalid.PreviewValidation = models.PreviewMissing
	invalid.AddErrors("no preview URL for track: Second Song")
	invalid.Finalize()

	report := &models.PlaylistReport{
		RunID:       "run-1",
		ID:          "pl1",
		Name:        "Test Playlist",
		Description: "A playlist",
		Owner:       "owner",
		Followers:   42,
		Tracks:      []*models.TrackRecord{valid, invalid},
		Analytics:   models.NewPlaylistAnalytics(),
		GeneratedAt: time.Now(),
	}
	report.Analytics.TotalTracks = 2
	report.Analytics.ValidPreviews = 1
	report.Analytics.InvalidPreviews = 1
	report.Analytics.AveragePopularity = 70
	report.Analytics.GenreDistribution = map[string]int{"indie": 1}
	report.Analytics.AudioFeatureAverages = map[string]float64{"danceability": 0.8}
	return report
}

func TestReportToJSON(t *testing.T) {
	data, err := ReportToJSON(sampleReport())
	if err != nil {
		t.Fatalf("JSON export failed: %v", err)
	}

	var decoded models.PlaylistReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("exported JSON does not decode: %v", err)
	}
	if decoded.RunID != "run-1" || len(decoded.Tracks) != 2 {
		t.Errorf("unexpected decoded report: %+v", decoded)
	}
}

func TestReportToCSV(t *testing.T) {
	data, err := ReportToCSV(sampleReport())
	if err != nil {
		t.Fatalf("CSV export failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("exported CSV does not parse: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[1][1] != "First Song" || records[1][2] != "Artist One" {
		t.Errorf("unexpected first row: %v", records[1])
	}
	if records[1][9] != "0.800" {
		t.Errorf("unexpected danceability cell: %q", records[1][9])
	}
	if records[2][9] != "" {
		t.Errorf("missing features should produce empty cells, got %q", records[2][9])
	}
	if !strings.Contains(records[2][12], "no preview URL") {
		t.Errorf("expected validation error in errors column, got %q", records[2][12])
	}
}

func TestReportToMarkdown(t *testing.T) {
	data, err := ReportToMarkdown(sampleReport())
	if err != nil {
		t.Fatalf("Markdown export failed: %v", err)
	}
	text := string(data)

	for _, want := range []string{
		"# Test Playlist",
		"**Owner**: owner",
		"- Valid previews: 1",
		"- Top genres: indie",
		"✓ Artist One - First Song [3:05]",
		"✗ Artist Two - Second Song",
		"no preview URL for track: Second Song",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestSummaryToMarkdown(t *testing.T) {
	summary := analytics.Summary{
		Calls:           map[string]int{"playlist": 2, "artist": 1},
		Successes:       map[string]int{"playlist": 2, "artist": 0},
		AverageDuration: 0.125,
		SuccessRate:     2.0 / 3.0,
		Features: map[string]analytics.FeatureStats{
			"energy": {Mean: 0.5, Median: 0.5, StdDev: 0.1},
		},
	}

	text := string(SummaryToMarkdown(summary))
	for _, want := range []string{
		"- Total calls: 3",
		"- Success rate: 66.7%",
		"- playlist: 2/2 successful",
		"- artist: 0/1 successful",
		"- energy: mean 0.500",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestWriteReport(t *testing.T) {
	t.Run("Formats", func(t *testing.T) {
		tempDir := t.TempDir()
		for format, ext := range map[string]string{"json": ".json", "csv": ".csv", "markdown": ".md"} {
			path, err := WriteReport(sampleReport(), format, tempDir)
			if err != nil {
				t.Fatalf("write %s failed: %v", format, err)
			}
			if filepath.Ext(path) != ext {
				t.Errorf("expected %s extension, got %s", ext, path)
			}
			if _, err := os.Stat(path); err != nil {
				t.Errorf("report file not written: %v", err)
			}
		}
	})

	t.Run("Unsupported Format", func(t *testing.T) {
		if _, err := WriteReport(sampleReport(), "yaml", t.TempDir()); err == nil {
			t.Error("expected error for unsupported format")
		}
	})
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"My Playlist", "pl1", "My_Playlist"},
		{"  spaced  ", "pl2", "spaced"},
		{"日本語", "pl3", "pl3"},
		{"mixed/slash\\name", "pl4", "mixed_slash_name"},
	}

	for _, tc := range tests {
		if got := SafeFilename(tc.name, tc.id); got != tc.want {
			t.Errorf("SafeFilename(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
