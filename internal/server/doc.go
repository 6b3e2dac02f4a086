// Package server receives OAuth redirects on a short-lived local HTTP listener.
//
// # Router
//
// [BasicRouter] implements [Router] on top of [http.ServeMux] with method filtering and a
// [Middleware] stack whose first entry runs outermost. [RequestLogger] logs requests through charmbracelet/log.
//
// # OAuth callback
//
// [OAuthHandler] validates the state parameter, passes the authorization code to an [Exchanger]
// and publishes a single [OAuthResult]. Only the first callback is processed.
//
// The auth command starts a [CallbackServer] on the configured server address, prints the
// authorization URL, waits on [OAuthHandler.Wait] and shuts the listener down.
package server
