// Spotify Web API implementation of [Service]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"sync"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	spotifyPageSize  = 50
	spotifyItemsPage = 100
	spotifyLikesPage = 50
)

var spotifyScopes = []string{
	"user-read-private",
	"playlist-read-private",
	"playlist-read-collaborative",
	"playlist-modify-private",
	"playlist-modify-public",
	"user-library-read",
	"user-library-modify",
}

// SpotifyUser is the subset of the current user's profile used by the adapter.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
}

type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a Spotify track object.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []spotifyArtist `json:"artists"`
	Album       *spotifyAlbum   `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	IsLocal     bool            `json:"is_local"`
	Type        string          `json:"type"`
	ExternalIDs struct {
		ISRC string `json:"isrc"`
	} `json:"external_ids"`
}

// toTrack converts a Spotify track into the shared model.
func (t SpotifyTrack) toTrack() models.Track {
	track := models.Track{
		Platform:   models.Spotify,
		ID:         t.ID,
		ISRC:       models.NormalizeISRC(t.ExternalIDs.ISRC),
		Title:      t.Name,
		DurationMS: t.DurationMS,
	}
	if t.Album != nil && t.Album.Name != "" {
		track.Album = &models.Album{ID: t.Album.ID, Name: t.Album.Name}
	}
	for _, a := range t.Artists {
		track.Artists = append(track.Artists, models.Artist{ID: a.ID, Name: a.Name})
	}
	return track
}

// usable reports whether a playlist or library item refers to a catalog track with a duration.
func (t *SpotifyTrack) usable() bool {
	return t != nil && t.ID != "" && !t.IsLocal && (t.Type == "" || t.Type == "track") && t.DurationMS > 0
}

type spotifyPage[T any] struct {
	Items  []T     `json:"items"`
	Total  int     `json:"total"`
	Next   *string `json:"next"`
	Offset int     `json:"offset"`
}

type spotifySimplePlaylist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyTrackItem struct {
	Track *SpotifyTrack `json:"track"`
}

func spotifyURI(id string) string { return "spotify:track:" + id }

// SpotifyService implements [Service] for the Spotify Web API.
//
// Authentication uses the OAuth2 authorization code flow; an [oauth2.TokenSource] refreshes expired
// access tokens transparently.
type SpotifyService struct {
	*client
	config *oauth2.Config
	source oauth2.TokenSource

	mu   sync.Mutex
	user *SpotifyUser
}

// NewSpotifyService creates a Spotify adapter from client credentials.
func NewSpotifyService(credentials map[string]string, opts ...Option) (*SpotifyService, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: spotify client_id", shared.ErrMissingCredentials)
	}
	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_secret", shared.ErrMissingCredentials)
	}
	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback"
	}

	return &SpotifyService{
		client: newClient(spotifyBaseURL, opts...),
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       spotifyScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: spotifyTokenURL,
			},
		},
	}, nil
}

func (s *SpotifyService) Name() string              { return "Spotify" }
func (s *SpotifyService) Platform() models.Platform { return models.Spotify }
func (s *SpotifyService) ReportsRegion() bool       { return true }

// AuthURL returns the authorization URL the user opens to grant access.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Authenticate accepts stored tokens ("access_token" and/or "refresh_token") or an "auth_code"
// received on the OAuth callback.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	var token *oauth2.Token

	switch {
	case credentials["auth_code"] != "":
		t, err := s.config.Exchange(ctx, credentials["auth_code"])
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		token = t
	case credentials["access_token"] != "" || credentials["refresh_token"] != "":
		token = &oauth2.Token{
			AccessToken:  credentials["access_token"],
			RefreshToken: credentials["refresh_token"],
			TokenType:    "Bearer",
		}
	default:
		return fmt.Errorf("%w: spotify needs access_token, refresh_token or auth_code", shared.ErrMissingCredentials)
	}

	s.useToken(ctx, token)
	return nil
}

func (s *SpotifyService) useToken(ctx context.Context, token *oauth2.Token) {
	if base := s.client.http; base != nil && base != http.DefaultClient {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	s.source = s.config.TokenSource(ctx, token)
	s.client.http = oauth2.NewClient(ctx, s.source)
}

// Token returns the current token, refreshed if needed, so callers can persist it.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	if s.source == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.source.Token()
}

func (s *SpotifyService) do(ctx context.Context, r request, out any) error {
	if s.source == nil {
		return shared.ErrNotAuthenticated
	}
	_, err := s.send(ctx, r, out)
	return err
}

// CurrentUser returns the authenticated user's profile, cached after the first call.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*SpotifyUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		return s.user, nil
	}

	var user SpotifyUser
	if err := s.do(ctx, request{Method: http.MethodGet, Path: "/me"}, &user); err != nil {
		return nil, err
	}
	s.user = &user
	return s.user, nil
}

// Region returns the account country.
func (s *SpotifyService) Region(ctx context.Context) (string, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return UnknownRegion, err
	}
	return user.Country, nil
}

// spotifyPaginate walks offset-based pages until next is null.
func spotifyPaginate[T any](ctx context.Context, s *SpotifyService, path string, limit int, visit func(T)) error {
	for offset := 0; ; {
		query := url.Values{"limit": {strconv.Itoa(limit)}, "offset": {strconv.Itoa(offset)}}

		var page spotifyPage[T]
		if err := s.do(ctx, request{Method: http.MethodGet, Path: path, Query: query}, &page); err != nil {
			return err
		}
		for _, item := range page.Items {
			visit(item)
		}
		if page.Next == nil || len(page.Items) == 0 {
			return nil
		}
		offset += len(page.Items)
	}
}

// Playlists lists the user's playlists.
func (s *SpotifyService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	err := spotifyPaginate(ctx, s, "/me/playlists", spotifyPageSize, func(p spotifySimplePlaylist) {
		playlists = append(playlists, models.Playlist{ID: p.ID, Name: p.Name})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list spotify playlists: %w", err)
	}
	return playlists, nil
}

// PlaylistTracks returns every catalog track of a playlist. Local files and episodes are skipped.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	var tracks []models.Track
	path := "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	err := spotifyPaginate(ctx, s, path, spotifyItemsPage, func(item spotifyTrackItem) {
		if item.Track.usable() {
			tracks = append(tracks, item.Track.toTrack())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spotify playlist %s: %w", playlistID, err)
	}
	return tracks, nil
}

// CreatePlaylist creates a playlist owned by the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name string, public bool) (*models.Playlist, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{"name": name, "public": public, "description": models.PlaylistDescription}
	var created spotifySimplePlaylist
	path := "/users/" + url.PathEscape(user.ID) + "/playlists"
	if err := s.do(ctx, request{Method: http.MethodPost, Path: path, JSON: body}, &created); err != nil {
		return nil, fmt.Errorf("failed to create spotify playlist %q: %w", name, err)
	}
	return &models.Playlist{ID: created.ID, Name: created.Name}, nil
}

// AddTracks appends tracks in batches of [BatchSize] URIs.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, tracks []models.Track) error {
	path := "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	for batch := range slices.Chunk(tracks, BatchSize) {
		uris := make([]string, len(batch))
		for i, t := range batch {
			uris[i] = spotifyURI(t.ID)
		}
		if err := s.do(ctx, request{Method: http.MethodPost, Path: path, JSON: map[string]any{"uris": uris}}, nil); err != nil {
			return fmt.Errorf("failed to add tracks to spotify playlist %s: %w", playlistID, err)
		}
	}
	return nil
}

// RemoveTracks removes every occurrence of the given tracks.
func (s *SpotifyService) RemoveTracks(ctx context.Context, playlistID string, tracks []models.Track) error {
	path := "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	for batch := range slices.Chunk(tracks, BatchSize) {
		items := make([]map[string]string, len(batch))
		for i, t := range batch {
			items[i] = map[string]string{"uri": spotifyURI(t.ID)}
		}
		if err := s.do(ctx, request{Method: http.MethodDelete, Path: path, JSON: map[string]any{"tracks": items}}, nil); err != nil {
			return fmt.Errorf("failed to remove tracks from spotify playlist %s: %w", playlistID, err)
		}
	}
	return nil
}

// DeletePlaylist unfollows the playlist, which is how Spotify deletes owned playlists.
func (s *SpotifyService) DeletePlaylist(ctx context.Context, playlistID string) error {
	path := "/playlists/" + url.PathEscape(playlistID) + "/followers"
	if err := s.do(ctx, request{Method: http.MethodDelete, Path: path}, nil); err != nil {
		return fmt.Errorf("failed to delete spotify playlist %s: %w", playlistID, err)
	}
	return nil
}

func (s *SpotifyService) search(ctx context.Context, q string) ([]models.Track, error) {
	query := url.Values{"q": {q}, "type": {"track"}, "limit": {strconv.Itoa(SearchLimit)}}
	var res struct {
		Tracks spotifyPage[SpotifyTrack] `json:"tracks"`
	}
	if err := s.do(ctx, request{Method: http.MethodGet, Path: "/search", Query: query}, &res); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(res.Tracks.Items))
	for _, t := range res.Tracks.Items {
		if t.usable() {
			tracks = append(tracks, t.toTrack())
		}
	}
	return tracks, nil
}

// SearchTrack runs a catalog search for tracks.
func (s *SpotifyService) SearchTrack(ctx context.Context, query string) ([]models.Track, error) {
	return s.search(ctx, query)
}

// SearchISRC looks a recording up with the isrc: search filter.
func (s *SpotifyService) SearchISRC(ctx context.Context, isrc string) ([]models.Track, error) {
	return s.search(ctx, "isrc:"+isrc)
}

// Likes returns the user's saved tracks.
func (s *SpotifyService) Likes(ctx context.Context) ([]models.Track, error) {
	var tracks []models.Track
	err := spotifyPaginate(ctx, s, "/me/tracks", spotifyLikesPage, func(item spotifyTrackItem) {
		if item.Track.usable() {
			tracks = append(tracks, item.Track.toTrack())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spotify likes: %w", err)
	}
	return tracks, nil
}

// AddLikes saves tracks to the library, 50 ids per request.
func (s *SpotifyService) AddLikes(ctx context.Context, tracks []models.Track) error {
	for batch := range slices.Chunk(tracks, spotifyLikesPage) {
		ids := make([]string, len(batch))
		for i, t := range batch {
			ids[i] = t.ID
		}
		if err := s.do(ctx, request{Method: http.MethodPut, Path: "/me/tracks", JSON: map[string]any{"ids": ids}}, nil); err != nil {
			return fmt.Errorf("failed to like spotify tracks: %w", err)
		}
	}
	return nil
}
