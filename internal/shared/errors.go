package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// API and catalog errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrPlaylistFetch    = fmt.Errorf("playlist fetch failed")
	ErrArtistNotFound   = fmt.Errorf("artist not found")

	// Storage errors
	ErrStorage = fmt.Errorf("cache storage failure")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
