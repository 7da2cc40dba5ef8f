// Package server provides the local HTTP routing used during the OAuth authorization-code flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] runs in the order it was added: the first one added is the outermost and sees the request first.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] serves the redirect URI registered with Spotify. It validates the state parameter,
// exchanges the authorization code through an [Exchanger] and sends the result through a channel.
//
// It only processes one callback; later hits are rejected.
//
// # Usage
//
// The services package starts a temporary HTTP server bound to the redirect URI's host and port,
// waits for the single callback and shuts the server down once the token arrives or the wait times out.
package server
