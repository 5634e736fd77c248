// Package cache implements the durable fetch-through cache for catalog data.
//
// [Store] is a SQLite-backed key/value store with per-entry TTL expiry,
// access counting, and point-in-time stats. Values are opaque bytes; callers
// own serialization. All operations serialize through one coarse mutex so
// pipeline workers and the background [Sweeper] never corrupt bookkeeping.
//
// Reads never fail hard: a storage error on Get degrades to a cache miss so
// the caller falls back to a fresh fetch. Writes surface their errors.
package cache
