// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for playlist analysis:
//  1. [AnalyzeView] : Monitor real-time enrichment progress
//  2. [TrackListView] : Browse enriched tracks with validation status
//  3. [StatsView] : Display playlist-level analytics
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg types.
// Progress updates flow through a channel from the Pipeline, providing non-blocking status reporting during analysis.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, s, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
