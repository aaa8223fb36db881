package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrCatalogUnavailable indicates a network or auth failure reaching the catalog
	ErrCatalogUnavailable = errors.New("catalog is unavailable")

	// ErrVideoNotFound indicates the catalog returned no record for a video ID
	ErrVideoNotFound = errors.New("video not found")

	// ErrStaleResponse marks an async result that was superseded before it arrived.
	// It is logged and never surfaced to the user.
	ErrStaleResponse = errors.New("stale response discarded")

	// ErrDeepLinkResolutionFailed indicates a restored state could not be rehydrated
	ErrDeepLinkResolutionFailed = errors.New("deep link could not be resolved")

	// ErrPlaylistNotFound indicates the named playlist does not exist
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrInvalidPlaylistName indicates an empty playlist name
	ErrInvalidPlaylistName = errors.New("playlist name is empty")

	// ErrPlayerNotReady indicates the player control channel never became available
	ErrPlayerNotReady = errors.New("player is not ready")
)
