// Package tasks orchestrates playlist enrichment runs with real-time progress reporting.
//
// # Core Operations
//
// The [Pipeline] struct exposes three operations:
//
//  1. [Pipeline.AnalyzePlaylist] : Full enrichment of one playlist
//     - Fetches the playlist through the shared rate limiter
//     - Validates track metadata, probes preview clips, checks audio features
//     - Enriches each track with audio features and artist genres, cache-first
//     - Aggregates playlist-level statistics into a report
//
//  2. [Pipeline.Recommend] : Seeded recommendations from a finished report
//     - Builds a taste profile from the report's audio feature averages
//     - Seeds the catalog recommendation endpoint with top genres and artists
//     - Scores candidates by feature-space proximity to the profile
//
//  3. [Pipeline.BulkAnalyze] : Concurrent analysis of many playlists
//     - Worker pool bounded by configuration
//     - Dispatch paced by a token-bucket limiter
//     - Optional per-playlist report files via the formatter package
//
// # Progress Reporting
//
// All operations accept an optional channel of [ProgressUpdate]. Updates are
// sent with select/default so a slow or absent consumer never stalls a run.
//
// # Caching
//
// Playlist reports, audio features, and artist genre lookups are read through
// the durable cache before touching the catalog. A finished report is written
// back so repeat analyses of an unchanged playlist cost zero API calls until
// the entry expires.
package tasks
