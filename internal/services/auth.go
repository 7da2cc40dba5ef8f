package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plstat/internal/models"
	"github.com/desertthunder/plstat/internal/server"
	"github.com/desertthunder/plstat/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// Scopes is the fixed, read-only permission set requested from Spotify.
var Scopes = []string{
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
}

// Scope returns [Scopes] in the space separated form Spotify reports back.
func Scope() string {
	return strings.Join(Scopes, " ")
}

// TokenStore persists OAuth tokens between runs, keyed by client id.
type TokenStore interface {
	LoadToken(ctx context.Context, clientID string) (*oauth2.Token, string, error)
	SaveToken(ctx context.Context, clientID, scope string, token *oauth2.Token) error
	DeleteToken(ctx context.Context, clientID string) error
}

// AuthOption configures a [SpotifyAuthenticator].
type AuthOption func(*SpotifyAuthenticator)

// WithTokenStore enables token caching.
func WithTokenStore(store TokenStore) AuthOption {
	return func(a *SpotifyAuthenticator) { a.store = store }
}

// WithAuthLogger sets the logger.
func WithAuthLogger(logger *log.Logger) AuthOption {
	return func(a *SpotifyAuthenticator) { a.logger = logger }
}

// WithPrompt sets where user instructions (browser URL, waiting notice) are written.
func WithPrompt(w io.Writer) AuthOption {
	return func(a *SpotifyAuthenticator) { a.out = w }
}

// WithBrowser replaces the function used to open the authorization URL.
func WithBrowser(open shared.BrowserOpener) AuthOption {
	return func(a *SpotifyAuthenticator) { a.openBrowser = open }
}

// WithAuthTimeout bounds how long the callback is awaited.
func WithAuthTimeout(d time.Duration) AuthOption {
	return func(a *SpotifyAuthenticator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithServiceOptions are applied to every [SpotifyService] the authenticator creates.
func WithServiceOptions(opts ...Option) AuthOption {
	return func(a *SpotifyAuthenticator) { a.serviceOpts = append(a.serviceOpts, opts...) }
}

// WithEndpoint replaces the Spotify accounts endpoint used for the code exchange and refreshes.
func WithEndpoint(endpoint oauth2.Endpoint) AuthOption {
	return func(a *SpotifyAuthenticator) {
		a.endpoint = endpoint
		a.customEndpoint = true
	}
}

// SpotifyAuthenticator implements [Authenticator] with the authorization-code flow.
//
// A cached token granted for exactly [Scope] is reused; otherwise the user is sent to Spotify and
// the redirect is caught by a local server listening on the redirect URI's host and path.
type SpotifyAuthenticator struct {
	store          TokenStore
	logger         *log.Logger
	out            io.Writer
	openBrowser    shared.BrowserOpener
	timeout        time.Duration
	serviceOpts    []Option
	endpoint       oauth2.Endpoint
	customEndpoint bool
}

// NewSpotifyAuthenticator creates an authenticator. Without [WithTokenStore] every run prompts.
func NewSpotifyAuthenticator(opts ...AuthOption) *SpotifyAuthenticator {
	a := &SpotifyAuthenticator{
		logger:      log.New(io.Discard),
		out:         io.Discard,
		openBrowser: shared.OpenBrowser,
		timeout:     2 * time.Minute,
		endpoint: oauth2.Endpoint{
			AuthURL:   spotifyauth.AuthURL,
			TokenURL:  spotifyauth.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *SpotifyAuthenticator) config(creds models.Credentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes:       Scopes,
		Endpoint:     a.endpoint,
	}
}

// Authenticate returns a [Session] for the user behind creds.
//
// Every failure wraps [shared.ErrAuthFailed]; missing credentials wrap [shared.ErrMissingCredentials] instead.
func (a *SpotifyAuthenticator) Authenticate(ctx context.Context, creds models.Credentials) (Session, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.RedirectURI == "" {
		return nil, fmt.Errorf("%w: client id, client secret and redirect URI are required", shared.ErrMissingCredentials)
	}

	cfg := a.config(creds)

	token, err := a.cachedToken(ctx, creds.ClientID)
	if err != nil {
		token, err = a.Login(ctx, creds)
		if err != nil {
			return nil, err
		}
	}

	session, err := a.session(ctx, cfg, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	return session, nil
}

// cachedToken returns a reusable stored token or an error explaining why there is none.
func (a *SpotifyAuthenticator) cachedToken(ctx context.Context, clientID string) (*oauth2.Token, error) {
	if a.store == nil {
		return nil, shared.ErrNoCachedToken
	}

	token, scope, err := a.store.LoadToken(ctx, clientID)
	if err != nil {
		if !errors.Is(err, shared.ErrNoCachedToken) {
			a.logger.Warn("failed to read token cache", "error", err)
		}
		return nil, err
	}

	if !sameScope(scope, Scope()) {
		a.logger.Info("cached token has a different scope, authorizing again", "scope", scope)
		return nil, shared.ErrNoCachedToken
	}

	if !token.Valid() && token.RefreshToken == "" {
		a.logger.Info("cached token expired without refresh token, authorizing again")
		return nil, shared.ErrTokenExpired
	}

	a.logger.Debug("using cached token", "expiry", token.Expiry)
	return token, nil
}

// GrantsScope reports whether scope, as stored with a token, is exactly [Scope] in any order.
func GrantsScope(scope string) bool {
	return sameScope(scope, Scope())
}

// sameScope compares space separated scope lists ignoring order.
func sameScope(a, b string) bool {
	as, bs := strings.Fields(a), strings.Fields(b)
	if len(as) != len(bs) {
		return false
	}
	set := make(map[string]struct{}, len(as))
	for _, s := range as {
		set[s] = struct{}{}
	}
	for _, s := range bs {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}

// session builds a [SpotifyService] whose token refreshes are written back to the store.
func (a *SpotifyAuthenticator) session(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*SpotifyService, error) {
	if token == nil || token.AccessToken == "" {
		return nil, errors.New("no access token")
	}

	source := newRefreshableTokenSource(cfg.TokenSource(ctx, token), token, func(t *oauth2.Token) {
		a.logger.Debug("access token refreshed", "expiry", t.Expiry)
		if a.store == nil {
			return
		}
		if err := a.store.SaveToken(context.Background(), cfg.ClientID, Scope(), t); err != nil {
			a.logger.Warn("failed to persist refreshed token", "error", err)
		}
	})

	opts := append([]Option{WithServiceLogger(a.logger)}, a.serviceOpts...)
	return NewSpotifyService(oauth2.NewClient(ctx, source), opts...), nil
}

func (a *SpotifyAuthenticator) exchanger(creds models.Credentials, cfg *oauth2.Config) server.Exchanger {
	if a.customEndpoint {
		return cfg
	}
	return spotifyauth.New(
		spotifyauth.WithClientID(creds.ClientID),
		spotifyauth.WithClientSecret(creds.ClientSecret),
		spotifyauth.WithRedirectURL(creds.RedirectURI),
		spotifyauth.WithScopes(Scopes...),
	)
}

func (a *SpotifyAuthenticator) authURL(creds models.Credentials, cfg *oauth2.Config, state string) string {
	if a.customEndpoint {
		return cfg.AuthCodeURL(state)
	}
	return spotifyauth.New(
		spotifyauth.WithClientID(creds.ClientID),
		spotifyauth.WithRedirectURL(creds.RedirectURI),
		spotifyauth.WithScopes(Scopes...),
	).AuthURL(state)
}

// Login always runs the interactive authorization-code flow and stores the new token.
func (a *SpotifyAuthenticator) Login(ctx context.Context, creds models.Credentials) (*oauth2.Token, error) {
	cfg := a.config(creds)

	redirect, err := url.Parse(creds.RedirectURI)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: invalid redirect URI %q", shared.ErrAuthFailed, creds.RedirectURI)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate state token: %w", shared.ErrAuthFailed, err)
	}

	handler := server.NewOAuthHandler(a.exchanger(creds, cfg), state, redirect.Path)
	router := server.NewBasicRouter()
	router.Use(server.LogRequests(a.logger))
	router.Handler(handler)

	listener, err := net.Listen("tcp", listenAddr(redirect))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot listen for the callback: %w", shared.ErrAuthFailed, err)
	}

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("starting OAuth callback server", "addr", listener.Addr().String(), "path", redirect.Path)
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("error shutting down callback server", "error", err)
		}
	}()

	authURL := a.authURL(creds, cfg, state)
	fmt.Fprintln(a.out, "→ Opening browser for Spotify authorization...")
	if err := a.openBrowser(authURL); err != nil {
		a.logger.Warn("failed to open browser automatically", "error", err)
		fmt.Fprintf(a.out, "⚠ Could not open browser automatically.\nPlease open this URL in your browser:\n%s\n\n", authURL)
	}
	fmt.Fprintf(a.out, "→ Waiting for authorization (%s timeout)...\n", a.timeout)

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("%w: callback server error: %w", shared.ErrAuthFailed, err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: %w: authorization timed out after %s", shared.ErrAuthFailed, shared.ErrTimeout, a.timeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, ctx.Err())
	}

	if err := result.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	if a.store != nil {
		if err := a.store.SaveToken(ctx, creds.ClientID, Scope(), result.Token); err != nil {
			a.logger.Warn("failed to cache token", "error", err)
		}
	}

	a.logger.Info("authorization complete")
	return result.Token, nil
}

// listenAddr derives host:port from the redirect URI, defaulting the port from the scheme.
func listenAddr(u *url.URL) string {
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port)
}
