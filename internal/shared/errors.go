package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed    = fmt.Errorf("authentication failed")
	ErrTokenExpired  = fmt.Errorf("access token expired")
	ErrNoCachedToken = fmt.Errorf("no cached token")
	ErrTimeout       = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrProfileFetch       = fmt.Errorf("could not fetch user profile")
	ErrTrackFetch         = fmt.Errorf("could not fetch playlist tracks")
	ErrArtistLookup       = fmt.Errorf("artist genre lookup rejected")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
