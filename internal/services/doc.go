// Package services talks to the Spotify Web API on behalf of the analyzer.
//
// # Session
//
// [Session] is the narrow, read-only slice of the Web API the pipeline consumes: the current user,
// one page of playlists, paginated playlist items and batched artist lookups.
// [SpotifyService] implements it over an authorized [http.Client].
//
// # Authentication
//
// [SpotifyAuthenticator] implements [Authenticator] with the authorization-code flow from
// github.com/zmb3/spotify/v2/auth. Tokens are cached through a [TokenStore] keyed by client id and
// reused when their scope matches; refreshed tokens are written back through the store.
// The requested scope is fixed to playlist-read-private and playlist-read-collaborative.
//
// # Transport
//
// Each request waits on a [rate.Limiter] and is retried with github.com/avast/retry-go when Spotify
// answers 429 or 5xx. Non-2xx responses surface as [*APIError] carrying the status code; a 401 also
// matches [shared.ErrTokenExpired].
//
// # Null handling
//
// Playlist items whose track is null (removed or unavailable tracks) decode with a nil Track.
// Artists without an id decode with an empty ID. Missing duration or popularity decode as nil.
package services
