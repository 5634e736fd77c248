// Package models defines domain entities for the tracklab playlist analysis service.
//
// The package contains two categories of types:
//
// 1. Catalog Data Transfer Objects: Lightweight structs representing remote catalog data
//   - [Playlist] : Playlist metadata with its full track listing
//   - [Track] : Song metadata including popularity and preview clip reference
//   - [Artist] : Artist metadata with genre tags
//   - [AudioFeatures] : Numeric audio attributes keyed by feature name
//
// 2. Enrichment Results: Structures produced by the analysis pipeline
//   - [TrackRecord] : A track progressively enriched with features, genres and validation state
//   - [PlaylistAnalytics] : Aggregate counters computed once per analyzed playlist
//   - [PlaylistReport] : The complete per-playlist output, cacheable and exportable
//
// TrackRecords advance through a fixed set of stages ([StagePending] through
// [StageDone]) with no backward transitions; a record is immutable once the
// pipeline finishes with it.
package models
