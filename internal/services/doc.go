// Package services defines interface [Catalog] for interacting with remote
// music catalog HTTP APIs, and its Spotify implementation.
//
// The catalog client performs no throttling and no caching of its own; the
// enrichment pipeline owns both concerns. Request timeouts belong to the
// injected HTTP client.
package services
