package services

import (
	"sync"

	"golang.org/x/oauth2"
)

// refreshableTokenSource wraps an [oauth2.TokenSource] and reports every token it has not seen yet.
//
// The wrapped source is usually an [oauth2.Config.TokenSource], so a new access token means a refresh happened.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func newRefreshableTokenSource(source oauth2.TokenSource, current *oauth2.Token, callback func(*oauth2.Token)) *refreshableTokenSource {
	ts := &refreshableTokenSource{source: source, callback: callback}
	if current != nil {
		ts.last = current.AccessToken
	}
	return ts
}

// Token returns the source's token and invokes the callback when it changed.
func (s *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	changed := token.AccessToken != s.last
	s.last = token.AccessToken
	s.mu.Unlock()

	if changed && s.callback != nil {
		s.callback(token)
	}
	return token, nil
}
