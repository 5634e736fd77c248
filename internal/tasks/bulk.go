package tasks

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/desertthunder/tracklab/internal/formatter"
	"github.com/desertthunder/tracklab/internal/models"
	"golang.org/x/time/rate"
)

// BulkOpts contains configuration for bulk playlist analysis.
type BulkOpts struct {
	NumWorkers int     // Concurrent workers (default: 5)
	RateLimit  float64 // Playlist dispatches per second (default: 1)
	Refresh    bool    // Skip cached reports
	Format     string  // Optional report file format: json, csv, markdown
	OutputDir  string  // Destination for report files (default: tracklab_reports_{epoch})
}

// PlaylistResult is the outcome of analyzing a single playlist in a bulk run.
type PlaylistResult struct {
	PlaylistID   string
	PlaylistName string
	Report       *models.PlaylistReport
	File         string
	Success      bool
	Error        error
}

// BulkResult summarizes a bulk analysis run.
type BulkResult struct {
	TotalPlaylists  int
	SuccessCount    int
	FailedCount     int
	OutputDirectory string
	Results         []PlaylistResult
}

// BulkAnalyze analyzes multiple playlists concurrently.
//
// A worker pool runs full enrichment per playlist while a token-bucket
// limiter paces dispatch, on top of the per-call shared rate limiter each
// worker already goes through. Partial failures are collected per playlist
// rather than aborting the run.
func (p *Pipeline) BulkAnalyze(ctx context.Context, progress chan<- ProgressUpdate, ids []string, opts BulkOpts) (*BulkResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no playlist IDs provided")
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1.0
	}
	if opts.Format != "" && opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("tracklab_reports_%d", time.Now().Unix())
	}
	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	result := &BulkResult{
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan string, len(ids))
	results := make(chan PlaylistResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go p.analyzeWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, playlistID := range ids {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				return
			}

			p.sendProgress(progress, analyzingPlaylistUpdate(i+1, len(ids), playlistID))
			jobs <- playlistID
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessCount++
			p.sendProgress(progress, analyzeCompletedUpdate(completed, len(ids), res.PlaylistName))
		} else {
			result.FailedCount++
			p.sendProgress(progress, analyzeFailedUpdate(completed, len(ids), res.PlaylistID, res.Error))
		}
	}

	return result, ctx.Err()
}

// analyzeWorker drains the job channel, running a full analysis per playlist
// and optionally writing the report to disk.
func (p *Pipeline) analyzeWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan string, results chan<- PlaylistResult, opts BulkOpts) {
	defer wg.Done()

	for playlistID := range jobs {
		report, err := p.AnalyzePlaylist(ctx, nil, playlistID, AnalyzeOpts{Refresh: opts.Refresh})
		if err != nil {
			results <- PlaylistResult{
				PlaylistID: playlistID,
				Error:      err,
			}
			continue
		}

		res := PlaylistResult{
			PlaylistID:   playlistID,
			PlaylistName: report.Name,
			Report:       report,
			Success:      true,
		}

		if opts.Format != "" {
			path, err := formatter.WriteReport(report, opts.Format, opts.OutputDir)
			if err != nil {
				res.Success = false
				res.Error = fmt.Errorf("failed to write report: %w", err)
			} else {
				res.File = path
			}
		}

		results <- res
	}
}
