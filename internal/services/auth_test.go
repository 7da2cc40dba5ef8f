package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/plstat/internal/models"
	"github.com/desertthunder/plstat/internal/server"
	"github.com/desertthunder/plstat/internal/shared"
	"golang.org/x/oauth2"
)

type storedToken struct {
	token *oauth2.Token
	scope string
}

// fakeTokenStore implements [TokenStore] in memory
type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]storedToken
	saves  int
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: map[string]storedToken{}}
}

func (f *fakeTokenStore) LoadToken(_ context.Context, clientID string) (*oauth2.Token, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.tokens[clientID]
	if !ok {
		return nil, "", shared.ErrNoCachedToken
	}
	return st.token, st.scope, nil
}

func (f *fakeTokenStore) SaveToken(_ context.Context, clientID, scope string, token *oauth2.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.tokens[clientID] = storedToken{token: token, scope: scope}
	return nil
}

func (f *fakeTokenStore) DeleteToken(_ context.Context, clientID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, clientID)
	return nil
}

func (f *fakeTokenStore) get(clientID string) (storedToken, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.tokens[clientID]
	return st, ok
}

// freePort reserves and releases a local port for the callback listener.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// tokenServer answers the OAuth token endpoint with accessToken.
func tokenServer(t *testing.T, accessToken string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":%q,"token_type":"Bearer","expires_in":3600,"refresh_token":"refresh-2"}`, accessToken)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// apiServer records the bearer token of each request to /me.
func apiServer(t *testing.T, seen *[]string) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		*seen = append(*seen, r.Header.Get("Authorization"))
		mu.Unlock()
		fmt.Fprint(w, `{"id":"u1","display_name":"Ada"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// callbackBrowser simulates the user approving access by hitting the redirect URI.
func callbackBrowser(t *testing.T, redirect string, query func(state string) string) shared.BrowserOpener {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			t.Errorf("invalid auth URL: %v", err)
			return err
		}
		resp, err := http.Get(redirect + "?" + query(u.Query().Get("state")))
		if err != nil {
			t.Errorf("callback request failed: %v", err)
			return nil
		}
		resp.Body.Close()
		return nil
	}
}

func TestSpotifyAuthenticator(t *testing.T) {
	ctx := context.Background()
	noBrowser := func(t *testing.T) shared.BrowserOpener {
		return func(string) error {
			t.Error("browser should not be opened")
			return nil
		}
	}

	t.Run("missing credentials", func(t *testing.T) {
		auth := NewSpotifyAuthenticator(WithBrowser(noBrowser(t)))

		_, err := auth.Authenticate(ctx, models.Credentials{ClientID: "id"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("reuses cached token", func(t *testing.T) {
		var seen []string
		api := apiServer(t, &seen)
		store := newFakeTokenStore()
		store.SaveToken(ctx, "id", Scope(), &oauth2.Token{AccessToken: "cached", Expiry: time.Now().Add(time.Hour)})

		auth := NewSpotifyAuthenticator(
			WithTokenStore(store),
			WithBrowser(noBrowser(t)),
			WithServiceOptions(WithBaseURL(api.URL), WithRateLimit(0)),
		)

		session, err := auth.Authenticate(ctx, models.Credentials{ClientID: "id", ClientSecret: "s", RedirectURI: "http://127.0.0.1:1/callback"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		user, err := session.CurrentUser(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.DisplayName != "Ada" {
			t.Errorf("expected Ada, got %s", user.DisplayName)
		}
		if len(seen) != 1 || seen[0] != "Bearer cached" {
			t.Errorf("expected cached bearer token, got %v", seen)
		}
	})

	t.Run("login flow with scope mismatch", func(t *testing.T) {
		var seen []string
		api := apiServer(t, &seen)
		tokens := tokenServer(t, "fresh")
		store := newFakeTokenStore()
		store.SaveToken(ctx, "id", "user-library-modify", &oauth2.Token{AccessToken: "wrong-scope", Expiry: time.Now().Add(time.Hour)})

		redirect := fmt.Sprintf("http://127.0.0.1:%d/callback", freePort(t))
		var prompt bytes.Buffer

		auth := NewSpotifyAuthenticator(
			WithTokenStore(store),
			WithPrompt(&prompt),
			WithEndpoint(oauth2.Endpoint{AuthURL: "https://accounts.example/authorize", TokenURL: tokens.URL}),
			WithServiceOptions(WithBaseURL(api.URL), WithRateLimit(0)),
			WithBrowser(callbackBrowser(t, redirect, func(state string) string {
				return "state=" + url.QueryEscape(state) + "&code=auth-code"
			})),
		)

		session, err := auth.Authenticate(ctx, models.Credentials{ClientID: "id", ClientSecret: "s", RedirectURI: redirect})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := session.CurrentUser(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(seen) != 1 || seen[0] != "Bearer fresh" {
			t.Errorf("expected fresh bearer token, got %v", seen)
		}

		st, ok := store.get("id")
		if !ok || st.token.AccessToken != "fresh" {
			t.Fatalf("expected fresh token to be cached, got %+v", st)
		}
		if st.scope != Scope() {
			t.Errorf("expected scope %q, got %q", Scope(), st.scope)
		}
		if !strings.Contains(prompt.String(), "Waiting for authorization") {
			t.Errorf("expected waiting notice, got %q", prompt.String())
		}
	})

	t.Run("refreshes expired cached token", func(t *testing.T) {
		var seen []string
		api := apiServer(t, &seen)
		tokens := tokenServer(t, "refreshed")
		store := newFakeTokenStore()
		store.SaveToken(ctx, "id", Scope(), &oauth2.Token{
			AccessToken:  "stale",
			RefreshToken: "refresh-1",
			Expiry:       time.Now().Add(-time.Hour),
		})

		auth := NewSpotifyAuthenticator(
			WithTokenStore(store),
			WithBrowser(noBrowser(t)),
			WithEndpoint(oauth2.Endpoint{AuthURL: "https://accounts.example/authorize", TokenURL: tokens.URL}),
			WithServiceOptions(WithBaseURL(api.URL), WithRateLimit(0)),
		)

		session, err := auth.Authenticate(ctx, models.Credentials{ClientID: "id", ClientSecret: "s", RedirectURI: "http://127.0.0.1:1/callback"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := session.CurrentUser(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(seen) != 1 || seen[0] != "Bearer refreshed" {
			t.Errorf("expected refreshed bearer token, got %v", seen)
		}
		if st, _ := store.get("id"); st.token.AccessToken != "refreshed" {
			t.Errorf("expected refreshed token to be persisted, got %s", st.token.AccessToken)
		}
	})

	t.Run("user denies access", func(t *testing.T) {
		redirect := fmt.Sprintf("http://127.0.0.1:%d/callback", freePort(t))
		auth := NewSpotifyAuthenticator(
			WithEndpoint(oauth2.Endpoint{AuthURL: "https://accounts.example/authorize", TokenURL: "http://127.0.0.1:1/token"}),
			WithBrowser(callbackBrowser(t, redirect, func(state string) string {
				return "state=" + url.QueryEscape(state) + "&error=access_denied"
			})),
		)

		_, err := auth.Authenticate(ctx, models.Credentials{ClientID: "id", ClientSecret: "s", RedirectURI: redirect})
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if !errors.Is(err, server.ErrAccessDenied) {
			t.Errorf("expected ErrAccessDenied, got %v", err)
		}
	})

	t.Run("times out and prints URL when browser fails", func(t *testing.T) {
		redirect := fmt.Sprintf("http://127.0.0.1:%d/callback", freePort(t))
		var prompt bytes.Buffer
		auth := NewSpotifyAuthenticator(
			WithPrompt(&prompt),
			WithAuthTimeout(50*time.Millisecond),
			WithBrowser(func(string) error { return errors.New("no display") }),
		)

		_, err := auth.Authenticate(ctx, models.Credentials{ClientID: "id", ClientSecret: "s", RedirectURI: redirect})
		if !errors.Is(err, shared.ErrAuthFailed) || !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrAuthFailed and ErrTimeout, got %v", err)
		}
		if !strings.Contains(prompt.String(), "accounts.spotify.com") {
			t.Errorf("expected authorization URL in prompt, got %q", prompt.String())
		}
		if !strings.Contains(prompt.String(), "playlist-read-private") {
			t.Errorf("expected read scope in authorization URL, got %q", prompt.String())
		}
		if strings.Contains(prompt.String(), "modify") {
			t.Errorf("write scopes must never be requested, got %q", prompt.String())
		}
	})

	t.Run("redirect URI without path", func(t *testing.T) {
		var seen []string
		api := apiServer(t, &seen)
		tokens := tokenServer(t, "rooted")
		redirect := fmt.Sprintf("http://127.0.0.1:%d", freePort(t))

		auth := NewSpotifyAuthenticator(
			WithAuthTimeout(5*time.Second),
			WithEndpoint(oauth2.Endpoint{AuthURL: "https://accounts.example/authorize", TokenURL: tokens.URL}),
			WithServiceOptions(WithBaseURL(api.URL), WithRateLimit(0)),
			WithBrowser(callbackBrowser(t, redirect, func(state string) string {
				return "state=" + url.QueryEscape(state) + "&code=auth-code"
			})),
		)

		session, err := auth.Authenticate(ctx, models.Credentials{ClientID: "id", ClientSecret: "s", RedirectURI: redirect})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := session.CurrentUser(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(seen) != 1 || seen[0] != "Bearer rooted" {
			t.Errorf("expected token from root callback, got %v", seen)
		}
	})

	t.Run("invalid redirect URI", func(t *testing.T) {
		auth := NewSpotifyAuthenticator(WithBrowser(noBrowser(t)))

		_, err := auth.Authenticate(ctx, models.Credentials{ClientID: "id", ClientSecret: "s", RedirectURI: "not a url"})
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})
}

func TestSameScope(t *testing.T) {
	tt := []struct {
		a, b string
		want bool
	}{
		{"playlist-read-private playlist-read-collaborative", "playlist-read-collaborative playlist-read-private", true},
		{"playlist-read-private", "playlist-read-private playlist-read-collaborative", false},
		{"", "", true},
		{"a b", "a c", false},
	}
	for _, tc := range tt {
		if got := sameScope(tc.a, tc.b); got != tc.want {
			t.Errorf("sameScope(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestListenAddr(t *testing.T) {
	tt := map[string]string{
		"http://127.0.0.1:8888/callback": "127.0.0.1:8888",
		"http://localhost/callback":      "localhost:80",
		"https://localhost/callback":     "localhost:443",
	}
	for raw, want := range tt {
		u, _ := url.Parse(raw)
		if got := listenAddr(u); got != want {
			t.Errorf("listenAddr(%s) = %s, want %s", raw, got, want)
		}
	}
}
