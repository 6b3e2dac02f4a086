// package services defines interface Service for interacting with streaming platform HTTP APIs
//
// Spotify, YouTube Music (via proxy), Tidal
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
)

// UnknownRegion is returned by [Service.Region] when the platform does not expose the account country.
const UnknownRegion = ""

// BatchSize is the largest number of tracks sent in one mutation.
const BatchSize = 100

// SearchLimit is the number of ranked results requested per search.
const SearchLimit = 3

// Service is the capability contract every streaming platform adapter fulfils.
//
// Reads (Playlists, PlaylistTracks, Likes) are fully paginated. Mutations take slices of any size
// and split them to the platform's own limit.
type Service interface {
	Name() string
	Platform() models.Platform

	// ReportsRegion reports whether Region returns the account country.
	ReportsRegion() bool
	Region(ctx context.Context) (string, error)

	// Playlists lists the user's playlists without tracks.
	Playlists(ctx context.Context) ([]models.Playlist, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error)
	CreatePlaylist(ctx context.Context, name string, public bool) (*models.Playlist, error)
	AddTracks(ctx context.Context, playlistID string, tracks []models.Track) error
	RemoveTracks(ctx context.Context, playlistID string, tracks []models.Track) error
	DeletePlaylist(ctx context.Context, playlistID string) error

	// SearchTrack runs a full-text query and returns at least the top [SearchLimit] results when available.
	SearchTrack(ctx context.Context, query string) ([]models.Track, error)

	AddLikes(ctx context.Context, tracks []models.Track) error
	Likes(ctx context.Context) ([]models.Track, error)
}

// ISRCSearcher is implemented by platforms with a direct ISRC lookup.
type ISRCSearcher interface {
	SearchISRC(ctx context.Context, isrc string) ([]models.Track, error)
}

// Authenticator is implemented by platforms that need credentials before use.
type Authenticator interface {
	Authenticate(ctx context.Context, credentials map[string]string) error
}

// New builds the adapter for platform p from the configured credentials. The returned service is
// not authenticated yet.
func New(p models.Platform, creds shared.CredentialsConfig, opts ...Option) (Service, error) {
	switch p {
	case models.Spotify:
		return NewSpotifyService(creds.Spotify.Map(), opts...)
	case models.YouTubeMusic:
		return NewYouTubeService(creds.YouTube.ProxyURL, opts...), nil
	case models.Tidal:
		return NewTidalService(creds.Tidal.Map(), opts...)
	default:
		return nil, fmt.Errorf("%w: unknown platform %q", shared.ErrInvalidArgument, p)
	}
}

// Credentials returns the stored credentials for platform p.
func Credentials(p models.Platform, creds shared.CredentialsConfig) map[string]string {
	switch p {
	case models.Spotify:
		return creds.Spotify.Map()
	case models.YouTubeMusic:
		return creds.YouTube.Map()
	case models.Tidal:
		return creds.Tidal.Map()
	default:
		return nil
	}
}
