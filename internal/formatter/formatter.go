// package formatter renders playlist reports and analytics summaries to various formats (JSON, CSV, Markdown)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/tracklab/internal/analytics"
	"github.com/desertthunder/tracklab/internal/models"
	"github.com/desertthunder/tracklab/internal/shared"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ReportToJSON renders a report as indented JSON.
func ReportToJSON(report *models.PlaylistReport) ([]byte, error) {
	return shared.MarshalJSON(report, true)
}

// ReportToCSV renders a report's tracks as CSV with one row per track.
// Audio features are flattened into a fixed column set.
func ReportToCSV(report *models.PlaylistReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{
		"ID", "Name", "Artists", "Album", "Popularity", "Duration",
		"Preview", "Status", "Genres", "Danceability", "Energy", "Valence", "Errors",
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range report.Tracks {
		record := []string{
			track.ID,
			track.Name,
			strings.Join(track.ArtistNames(), "; "),
			track.Album.Name,
			strconv.Itoa(track.Popularity),
			shared.FormatDuration(track.DurationMS / 1000),
			string(track.PreviewValidation),
			string(track.ValidationStatus),
			strings.Join(track.Genres, "; "),
			featureColumn(track.AudioFeatures, "danceability"),
			featureColumn(track.AudioFeatures, "energy"),
			featureColumn(track.AudioFeatures, "valence"),
			strings.Join(track.ValidationErrors, "; "),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown renders a report as a Markdown document with a metadata
// header, an analytics section, and a numbered track list.
func ReportToMarkdown(report *models.PlaylistReport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", report.Name))

	if report.CoverImage != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", report.CoverImage))
	}
	if report.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", report.Description))
	}
	buf.WriteString(fmt.Sprintf("**Owner**: %s\n", report.Owner))
	buf.WriteString(fmt.Sprintf("**Followers**: %d\n", report.Followers))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(report.Tracks)))

	buf.WriteString("## Analytics\n\n")
	buf.WriteString(fmt.Sprintf("- Valid previews: %d\n", report.Analytics.ValidPreviews))
	buf.WriteString(fmt.Sprintf("- Invalid previews: %d\n", report.Analytics.InvalidPreviews))
	buf.WriteString(fmt.Sprintf("- Average popularity: %.1f\n", report.Analytics.AveragePopularity))

	if genres := report.Analytics.TopGenres(5); len(genres) > 0 {
		buf.WriteString(fmt.Sprintf("- Top genres: %s\n", strings.Join(genres, ", ")))
	}
	if len(report.Analytics.AudioFeatureAverages) > 0 {
		names := make([]string, 0, len(report.Analytics.AudioFeatureAverages))
		for name := range report.Analytics.AudioFeatureAverages {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			buf.WriteString(fmt.Sprintf("- Average %s: %.3f\n", name, report.Analytics.AudioFeatureAverages[name]))
		}
	}
	buf.WriteString("\n")

	buf.WriteString("## Tracks\n\n")
	for i, track := range report.Tracks {
		duration := shared.FormatDuration(track.DurationMS / 1000)
		marker := "✓"
		if track.ValidationStatus == models.ValidationInvalid {
			marker = "✗"
		}
		buf.WriteString(fmt.Sprintf("%d. %s %s - %s [%s]\n",
			i+1, marker, strings.Join(track.ArtistNames(), ", "), track.Name, duration))
		for _, msg := range track.ValidationErrors {
			buf.WriteString(fmt.Sprintf("   - %s\n", msg))
		}
	}

	return buf.Bytes(), nil
}

// SummaryToMarkdown renders a collector summary as a Markdown document.
func SummaryToMarkdown(summary analytics.Summary) []byte {
	var buf bytes.Buffer

	total := 0
	for _, count := range summary.Calls {
		total += count
	}

	buf.WriteString("# API Metrics\n\n")
	buf.WriteString(fmt.Sprintf("- Total calls: %d\n", total))
	buf.WriteString(fmt.Sprintf("- Success rate: %.1f%%\n", summary.SuccessRate*100))
	buf.WriteString(fmt.Sprintf("- Average response time: %.3fs\n\n", summary.AverageDuration))

	if len(summary.Calls) > 0 {
		endpoints := make([]string, 0, len(summary.Calls))
		for endpoint := range summary.Calls {
			endpoints = append(endpoints, endpoint)
		}
		sort.Strings(endpoints)

		buf.WriteString("## Calls by Endpoint\n\n")
		for _, endpoint := range endpoints {
			buf.WriteString(fmt.Sprintf("- %s: %d/%d successful\n",
				endpoint, summary.Successes[endpoint], summary.Calls[endpoint]))
		}
		buf.WriteString("\n")
	}

	if len(summary.Features) > 0 {
		names := make([]string, 0, len(summary.Features))
		for name := range summary.Features {
			names = append(names, name)
		}
		sort.Strings(names)

		buf.WriteString("## Feature Trends\n\n")
		for _, name := range names {
			stats := summary.Features[name]
			buf.WriteString(fmt.Sprintf("- %s: mean %.3f, median %.3f, stddev %.3f\n",
				name, stats.Mean, stats.Median, stats.StdDev))
		}
	}

	return buf.Bytes()
}

// WriteReport renders a report in the given format and writes it under
// outputDir, returning the file path. Supported formats: json, csv,
// markdown (md).
func WriteReport(report *models.PlaylistReport, format, outputDir string) (string, error) {
	var (
		data []byte
		ext  string
		err  error
	)

	switch strings.ToLower(format) {
	case "json":
		data, err = ReportToJSON(report)
		ext = "json"
	case "csv":
		data, err = ReportToCSV(report)
		ext = "csv"
	case "markdown", "md":
		data, err = ReportToMarkdown(report)
		ext = "md"
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return "", err
	}

	path := filepath.Join(outputDir, SafeFilename(report.Name, report.ID)+"."+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

// SafeFilename builds a filesystem-safe base name from a playlist name,
// falling back to the ID when the name sanitizes away entirely.
func SafeFilename(name, id string) string {
	base := unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	base = strings.Trim(base, "_")
	if base == "" {
		return id
	}
	return base
}

// featureColumn formats one audio feature for a CSV cell, empty when absent.
func featureColumn(features models.AudioFeatures, name string) string {
	value, present := features[name]
	if !present {
		return ""
	}
	return strconv.FormatFloat(value, 'f', 3, 64)
}
