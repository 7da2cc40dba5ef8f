// Spotify Web API client implementing [Session]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/plstat/internal/shared"
	"golang.org/x/time/rate"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// MaxPlaylistsPerRequest is the page size Spotify allows for the current user's playlists.
	MaxPlaylistsPerRequest = 50
	// MaxTracksPerRequest is the page size Spotify allows for playlist items.
	MaxTracksPerRequest = 100
	// MaxArtistsPerRequest is the batch limit of the several-artists endpoint.
	MaxArtistsPerRequest = 50
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyTracksRef is the track count stub embedded in list responses.
type SpotifyTracksRef struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
//
// Tracks is a pointer so a missing object decodes without error and counts as zero.
type SpotifySimplePlaylist struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Tracks *SpotifyTracksRef `json:"tracks"`
}

// TracksTotal returns the reported track count or 0.
func (p SpotifySimplePlaylist) TracksTotal() int {
	if p.Tracks == nil {
		return 0
	}
	return p.Tracks.Total
}

// SpotifyPlaylistPage represents a paginated response of playlists.
type SpotifyPlaylistPage struct {
	Items []*SpotifySimplePlaylist `json:"items"`
	Total int                      `json:"total"`
	Next  *string                  `json:"next"`
}

// SpotifyArtistRef is the simplified artist nested in a track.
type SpotifyArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbumRef is the simplified album nested in a track.
type SpotifyAlbumRef struct {
	Name string `json:"name"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Artists    []*SpotifyArtistRef `json:"artists"`
	Album      *SpotifyAlbumRef    `json:"album"`
	DurationMS *int                `json:"duration_ms"`
	Popularity *int                `json:"popularity"`
}

// SpotifyPlaylistItem represents a track within a playlist context. Track is nil for removed entries.
type SpotifyPlaylistItem struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyTrackPage is one page of playlist items.
type SpotifyTrackPage struct {
	Items  []*SpotifyPlaylistItem `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

// HasNext reports whether Spotify advertised a following page.
func (p *SpotifyTrackPage) HasNext() bool {
	return p != nil && p.Next != nil && *p.Next != ""
}

// SpotifyArtist represents a full Spotify artist.
type SpotifyArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

// maxRetryAfter caps how long a single Retry-After answer may pause a request.
const maxRetryAfter = time.Minute

// APIError is a non-2xx answer from the Web API.
type APIError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration // From the Retry-After header of a 429, zero when absent
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("spotify API error: status %d: %s", e.StatusCode, e.Message)
}

// Is lets a 401 match [shared.ErrTokenExpired], a 5xx [shared.ErrServiceUnavailable]
// and anything else [shared.ErrAPIRequest].
func (e *APIError) Is(target error) bool {
	switch target {
	case shared.ErrTokenExpired:
		return e.StatusCode == http.StatusUnauthorized
	case shared.ErrServiceUnavailable:
		return e.StatusCode >= 500
	}
	return target == shared.ErrAPIRequest
}

// Temporary reports whether the request is worth retrying.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type errorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// Option configures a [SpotifyService].
type Option func(*SpotifyService)

// WithBaseURL points the client at a different API root, e.g. an [httptest.Server].
func WithBaseURL(u string) Option {
	return func(s *SpotifyService) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithRateLimit paces requests to rps per second. Zero or less disables pacing.
func WithRateLimit(rps float64) Option {
	return func(s *SpotifyService) {
		if rps <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithRetry sets how many times a request is attempted and the base delay between attempts.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(s *SpotifyService) {
		if attempts == 0 {
			attempts = 1
		}
		s.attempts = attempts
		s.retryDelay = delay
	}
}

// WithServiceLogger sets the logger used for retry and request diagnostics.
func WithServiceLogger(logger *log.Logger) Option {
	return func(s *SpotifyService) { s.logger = logger }
}

// SpotifyService implements [Session] over an authorized [http.Client].
type SpotifyService struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	attempts   uint
	retryDelay time.Duration
	logger     *log.Logger
}

// NewSpotifyService creates a client. httpClient must attach the bearer token, e.g. one built by
// [oauth2.NewClient].
func NewSpotifyService(httpClient *http.Client, opts ...Option) *SpotifyService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	s := &SpotifyService{
		httpClient: httpClient,
		baseURL:    spotifyBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(10), 1),
		attempts:   3,
		retryDelay: 500 * time.Millisecond,
		logger:     log.New(io.Discard),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolve turns an endpoint into an absolute URL. Absolute URLs (pagination cursors) pass through.
func (s *SpotifyService) resolve(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return s.baseURL + endpoint
}

// doRequest performs a paced GET, retrying 429 and 5xx answers, and decodes the body into result.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	apiURL := s.resolve(endpoint)

	return retry.Do(
		func() error {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
			return s.get(ctx, apiURL, result)
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.retryDelay),
		retry.DelayType(waitBeforeRetry),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if ctx.Err() != nil {
				return false
			}
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.Temporary()
		}),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn("retrying spotify request", "attempt", n+1, "url", apiURL, "error", err)
		}),
	)
}

// waitBeforeRetry waits as long as Spotify asked for, and backs off otherwise.
func waitBeforeRetry(n uint, err error, config *retry.Config) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return min(apiErr.RetryAfter, maxRetryAfter)
	}
	return retry.BackOffDelay(n, err, config)
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func (s *SpotifyService) get(ctx context.Context, apiURL string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if resp.StatusCode == http.StatusTooManyRequests {
			apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}
		var body errorBody
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			apiErr.Message = body.Error.Message
		}
		return apiErr
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserPlaylists retrieves one page of the current user's playlists.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit int) (*SpotifyPlaylistPage, error) {
	limit = clamp(limit, MaxPlaylistsPerRequest)

	var page SpotifyPlaylistPage
	if err := s.doRequest(ctx, fmt.Sprintf("/me/playlists?limit=%d", limit), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// PlaylistTracks retrieves the first page of a playlist's items.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string, limit int) (*SpotifyTrackPage, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	limit = clamp(limit, MaxTracksPerRequest)

	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d", url.PathEscape(playlistID), limit)

	var page SpotifyTrackPage
	if err := s.doRequest(ctx, endpoint, &page); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s: %w", shared.ErrPlaylistNotFound, playlistID, err)
		}
		return nil, err
	}
	return &page, nil
}

// NextTracks follows page.Next. Returns nil, nil when there is no next page.
func (s *SpotifyService) NextTracks(ctx context.Context, page *SpotifyTrackPage) (*SpotifyTrackPage, error) {
	if !page.HasNext() {
		return nil, nil
	}

	var next SpotifyTrackPage
	if err := s.doRequest(ctx, *page.Next, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// SeveralArtists retrieves multiple artists by their IDs (up to [MaxArtistsPerRequest]).
func (s *SpotifyService) SeveralArtists(ctx context.Context, artistIDs []string) ([]*SpotifyArtist, error) {
	if len(artistIDs) == 0 {
		return nil, fmt.Errorf("%w: no artist IDs provided", shared.ErrInvalidArgument)
	}
	if len(artistIDs) > MaxArtistsPerRequest {
		return nil, fmt.Errorf("%w: maximum %d artist IDs allowed, got %d", shared.ErrInvalidArgument, MaxArtistsPerRequest, len(artistIDs))
	}

	endpoint := "/artists?ids=" + url.QueryEscape(strings.Join(artistIDs, ","))

	var response struct {
		Artists []*SpotifyArtist `json:"artists"`
	}
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}
	return response.Artists, nil
}

func clamp(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
