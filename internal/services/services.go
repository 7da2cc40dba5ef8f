// package services defines the Session and Authenticator abstractions over the Spotify Web API
package services

import (
	"context"

	"github.com/desertthunder/plstat/internal/models"
)

// Session is an authorized handle bound to one user and the read-only playlist scope.
//
// Created once per run by an [Authenticator] and reused for every call.
type Session interface {
	// CurrentUser returns the profile of the authorized user.
	CurrentUser(ctx context.Context) (*SpotifyUser, error)

	// UserPlaylists returns a single page of the user's playlists.
	UserPlaylists(ctx context.Context, limit int) (*SpotifyPlaylistPage, error)

	// PlaylistTracks returns the first page of a playlist's items.
	PlaylistTracks(ctx context.Context, playlistID string, limit int) (*SpotifyTrackPage, error)

	// NextTracks follows the page's next cursor. Returns nil, nil on the last page.
	NextTracks(ctx context.Context, page *SpotifyTrackPage) (*SpotifyTrackPage, error)

	// SeveralArtists looks up at most [MaxArtistsPerRequest] artists.
	// Unknown ids come back as nil entries.
	SeveralArtists(ctx context.Context, artistIDs []string) ([]*SpotifyArtist, error)
}

// Authenticator exchanges credentials for a [Session].
type Authenticator interface {
	Authenticate(ctx context.Context, credentials models.Credentials) (Session, error)
}

// AuthenticatorFunc adapts a function to [Authenticator].
type AuthenticatorFunc func(ctx context.Context, credentials models.Credentials) (Session, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, credentials models.Credentials) (Session, error) {
	return f(ctx, credentials)
}
