package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

var (
	// ErrStateMismatch is reported when the callback carries a state other than the one issued.
	ErrStateMismatch = errors.New("invalid state parameter")
	// ErrAccessDenied is reported when the provider redirects back without a code.
	ErrAccessDenied = errors.New("authorization denied")
)

// Exchanger trades an authorization code for a token.
//
// Satisfied by both [oauth2.Config] and the Spotify authenticator.
type Exchanger interface {
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles the single OAuth2 redirect of an authorization code flow.
type OAuthHandler struct {
	exchanger Exchanger
	state     string
	path      string
	timeout   time.Duration

	resultChan chan OAuthResult
	once       sync.Once
	mu         sync.Mutex
	hit        bool
}

// NewOAuthHandler creates a handler serving path that accepts only callbacks carrying state.
//
// An empty path, as in a redirect URI without one, serves the root only.
func NewOAuthHandler(exchanger Exchanger, state, path string) *OAuthHandler {
	if path == "" || path == "/" {
		path = "/{$}"
	}
	return &OAuthHandler{
		exchanger:  exchanger,
		state:      state,
		path:       path,
		timeout:    30 * time.Second,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP validates the callback, exchanges the code and publishes the result.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	query := r.URL.Query()

	if query.Get("state") != h.state {
		h.Send(OAuthResult{err: ErrStateMismatch})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		reason := query.Get("error")
		if reason == "" {
			reason = "no code returned"
		}
		h.Send(OAuthResult{err: fmt.Errorf("%w: %s", ErrAccessDenied, reason)})
		renderPage(w, http.StatusBadRequest, "Authorization Failed", "Spotify did not grant access: "+reason)
		return
	}

	// The request context ends with this response; the exchange gets its own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	token, err := h.exchanger.Exchange(ctx, code)
	if err != nil {
		h.Send(OAuthResult{err: fmt.Errorf("token exchange failed: %w", err)})
		renderPage(w, http.StatusInternalServerError, "Authorization Failed", "The authorization code could not be exchanged.")
		return
	}

	h.Send(OAuthResult{Token: token})
	renderPage(w, http.StatusOK, "Authorization Successful", "You can close this window and return to the terminal.")
}

// Send publishes result once; later calls are ignored.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

var page = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: {{.Color}}; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

func renderPage(w http.ResponseWriter, status int, title, message string) {
	color := "#1DB954"
	if status != http.StatusOK {
		color = "#E22134"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = page.Execute(w, struct {
		Title, Message string
		Color          template.CSS
	}{title, message, template.CSS(color)})
}
