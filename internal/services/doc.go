// Package services defines the [Service] capability contract for streaming platforms and implements it for
// Spotify, YouTube Music and Tidal.
//
// # Service Interface
//
// All platforms implement a common abstraction so the sync engine never depends on concrete adapters.
// Optional capabilities are separate interfaces: [ISRCSearcher] for direct ISRC lookups and
// [Authenticator] for platforms that need credentials. Platforms that cannot report the account
// country return false from ReportsRegion and [UnknownRegion] from Region.
//
// # Spotify Implementation
//
// [SpotifyService] uses the OAuth2 authorization code flow. The [oauth2.TokenSource] refreshes expired
// access tokens using the refresh token.
//
// # YouTube Music Implementation
//
// [YouTubeService] talks to an HTTP proxy wrapping ytmusicapi. The proxy handles YouTube Music
// authentication; the auth file path is sent via the X-Auth-File header on each request.
// Playlist entries carry a setVideoId which is kept in [models.Track].SetID for removals.
//
// # Tidal Implementation
//
// [TidalService] authenticates with the OAuth2 device flow and needs a playlist ETag for every item
// mutation.
//
// # Transport
//
// Adapters share one HTTP client: a [rate.Limiter] paces requests, 429 responses are retried after
// the Retry-After delay, and failures are classified into the shared sentinels:
//   - [shared.ErrAuthFailed] : 401 and 403, or a failed token refresh
//   - [shared.ErrServiceUnavailable] : 5xx, or 429 once retries are exhausted
//   - [shared.ErrTransport] : the request never produced a response
//   - [shared.ErrRequestRejected] : any other 4xx
//
// Only the last is considered non-fatal by [shared.IsFatal].
package services
