// YouTube Music [Service] implementation
//
// Communicates with the ytmusicapi HTTP proxy. The proxy holds the browser session; the path of
// the auth file it should use is sent with every request in the X-Auth-File header.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
)

const defaultYTBaseURL = "http://127.0.0.1:8080"

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type youtubeAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a song in proxy responses.
type YouTubeTrack struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Album       *youtubeAlbum   `json:"album"`
	Duration    string          `json:"duration"`
	DurationSec int             `json:"duration_seconds"`
	ISRC        string          `json:"isrc,omitempty"`
	SetVideoID  string          `json:"setVideoId,omitempty"`
}

func (t YouTubeTrack) toTrack() models.Track {
	seconds := t.DurationSec
	if seconds == 0 {
		seconds = parseClock(t.Duration)
	}

	track := models.Track{
		Platform:   models.YouTubeMusic,
		ID:         t.VideoID,
		SetID:      t.SetVideoID,
		ISRC:       models.NormalizeISRC(t.ISRC),
		Title:      t.Title,
		DurationMS: seconds * 1000,
	}
	if t.Album != nil && t.Album.Name != "" {
		track.Album = &models.Album{ID: t.Album.ID, Name: t.Album.Name}
	}
	for _, a := range t.Artists {
		track.Artists = append(track.Artists, models.Artist{ID: a.ID, Name: a.Name})
	}
	return track
}

// parseClock converts "m:ss" or "h:mm:ss" to seconds, returning 0 when malformed.
func parseClock(s string) int {
	if s == "" {
		return 0
	}
	total := 0
	for part := range strings.SplitSeq(s, ":") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}

// BrowserSetup is the proxy's answer to a browser header upload.
type BrowserSetup struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message"`
	AuthContent map[string]any `json:"auth_content"`
}

// YouTubeService implements [Service] for YouTube Music via the proxy.
//
// YouTube Music does not expose the account country, so the region guard is skipped.
type YouTubeService struct {
	*client
	authFile string
}

// NewYouTubeService creates a YouTube Music service instance for the proxy at baseURL.
func NewYouTubeService(baseURL string, opts ...Option) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}
	return &YouTubeService{client: newClient(strings.TrimRight(baseURL, "/"), opts...)}
}

func (y *YouTubeService) Name() string              { return "YouTube Music" }
func (y *YouTubeService) Platform() models.Platform { return models.YouTubeMusic }
func (y *YouTubeService) ReportsRegion() bool       { return false }

// Region always returns [UnknownRegion].
func (y *YouTubeService) Region(context.Context) (string, error) { return UnknownRegion, nil }

// Authenticate stores the auth file path sent with subsequent requests.
//
// Expects credentials["headers_path"] (or "auth_file") to point at browser.json or oauth.json.
func (y *YouTubeService) Authenticate(_ context.Context, credentials map[string]string) error {
	authFile := credentials["headers_path"]
	if authFile == "" {
		authFile = credentials["auth_file"]
	}
	if authFile == "" {
		return fmt.Errorf("%w: youtube music headers_path", shared.ErrMissingCredentials)
	}
	y.authFile = authFile
	y.header.Set("X-Auth-File", authFile)
	return nil
}

// SetupBrowser uploads raw browser headers to the proxy, which converts them into an auth file.
func (y *YouTubeService) SetupBrowser(ctx context.Context, headersRaw string) (*BrowserSetup, error) {
	var res BrowserSetup
	r := request{Method: http.MethodPost, Path: "/api/setup/browser", JSON: map[string]string{"headers_raw": headersRaw}}
	if _, err := y.send(ctx, r, &res); err != nil {
		return nil, fmt.Errorf("browser setup failed: %w", err)
	}
	if !res.Success {
		return &res, fmt.Errorf("%w: %s", shared.ErrAuthFailed, res.Message)
	}
	return &res, nil
}

func (y *YouTubeService) do(ctx context.Context, r request, out any) error {
	if y.authFile == "" {
		return shared.ErrNotAuthenticated
	}
	_, err := y.send(ctx, r, out)
	return err
}

// Playlists lists library playlists.
//
// Calls GET /api/library/playlists on the proxy.
func (y *YouTubeService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var res []struct {
		PlaylistID string `json:"playlistId"`
		Title      string `json:"title"`
		Count      int    `json:"count"`
	}
	if err := y.do(ctx, request{Method: http.MethodGet, Path: "/api/library/playlists"}, &res); err != nil {
		return nil, fmt.Errorf("failed to list youtube music playlists: %w", err)
	}

	playlists := make([]models.Playlist, len(res))
	for i, p := range res {
		playlists[i] = models.Playlist{ID: p.PlaylistID, Name: p.Title}
	}
	return playlists, nil
}

// PlaylistTracks returns every song of a playlist; the proxy pages internally.
//
// Calls GET /api/playlists/{id} on the proxy.
func (y *YouTubeService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	var res struct {
		ID     string         `json:"id"`
		Tracks []YouTubeTrack `json:"tracks"`
	}
	path := "/api/playlists/" + url.PathEscape(playlistID)
	if err := y.do(ctx, request{Method: http.MethodGet, Path: path}, &res); err != nil {
		return nil, fmt.Errorf("failed to fetch youtube music playlist %s: %w", playlistID, err)
	}
	return convertYouTubeTracks(res.Tracks), nil
}

// convertYouTubeTracks keeps songs with a video id and a readable duration.
func convertYouTubeTracks(in []YouTubeTrack) []models.Track {
	tracks := make([]models.Track, 0, len(in))
	for _, t := range in {
		if t.VideoID == "" {
			continue
		}
		if track := t.toTrack(); track.DurationMS > 0 {
			tracks = append(tracks, track)
		}
	}
	return tracks
}

// CreatePlaylist creates an empty playlist.
//
// Calls POST /api/playlists on the proxy.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, name string, public bool) (*models.Playlist, error) {
	privacy := "PRIVATE"
	if public {
		privacy = "PUBLIC"
	}
	body := map[string]string{"title": name, "description": models.PlaylistDescription, "privacy_status": privacy}

	var res struct {
		PlaylistID string `json:"playlist_id"`
	}
	if err := y.do(ctx, request{Method: http.MethodPost, Path: "/api/playlists", JSON: body}, &res); err != nil {
		return nil, fmt.Errorf("failed to create youtube music playlist %q: %w", name, err)
	}
	return &models.Playlist{ID: res.PlaylistID, Name: name}, nil
}

// AddTracks appends songs by video id.
//
// Calls POST /api/playlists/{id}/items on the proxy.
func (y *YouTubeService) AddTracks(ctx context.Context, playlistID string, tracks []models.Track) error {
	path := "/api/playlists/" + url.PathEscape(playlistID) + "/items"
	for batch := range slices.Chunk(tracks, BatchSize) {
		ids := make([]string, len(batch))
		for i, t := range batch {
			ids[i] = t.ID
		}
		if err := y.do(ctx, request{Method: http.MethodPost, Path: path, JSON: map[string]any{"video_ids": ids}}, nil); err != nil {
			return fmt.Errorf("failed to add tracks to youtube music playlist %s: %w", playlistID, err)
		}
	}
	return nil
}

// RemoveTracks removes playlist entries. Entries are addressed by video id plus setVideoId,
// so tracks must come from [YouTubeService.PlaylistTracks].
//
// Calls DELETE /api/playlists/{id}/items on the proxy.
func (y *YouTubeService) RemoveTracks(ctx context.Context, playlistID string, tracks []models.Track) error {
	path := "/api/playlists/" + url.PathEscape(playlistID) + "/items"
	for batch := range slices.Chunk(tracks, BatchSize) {
		items := make([]map[string]string, 0, len(batch))
		for _, t := range batch {
			if t.SetID == "" {
				return fmt.Errorf("%w: track %s has no playlist entry id", shared.ErrInvalidInput, t.ID)
			}
			items = append(items, map[string]string{"videoId": t.ID, "setVideoId": t.SetID})
		}
		if err := y.do(ctx, request{Method: http.MethodDelete, Path: path, JSON: map[string]any{"videos": items}}, nil); err != nil {
			return fmt.Errorf("failed to remove tracks from youtube music playlist %s: %w", playlistID, err)
		}
	}
	return nil
}

// DeletePlaylist deletes a playlist.
//
// Calls DELETE /api/playlists/{id} on the proxy.
func (y *YouTubeService) DeletePlaylist(ctx context.Context, playlistID string) error {
	if err := y.do(ctx, request{Method: http.MethodDelete, Path: "/api/playlists/" + url.PathEscape(playlistID)}, nil); err != nil {
		return fmt.Errorf("failed to delete youtube music playlist %s: %w", playlistID, err)
	}
	return nil
}

// SearchTrack searches songs.
//
// Calls GET /api/search?q={query}&filter=songs&limit=3 on the proxy.
func (y *YouTubeService) SearchTrack(ctx context.Context, query string) ([]models.Track, error) {
	q := url.Values{"q": {query}, "filter": {"songs"}, "limit": {strconv.Itoa(SearchLimit)}}
	var res []YouTubeTrack
	if err := y.do(ctx, request{Method: http.MethodGet, Path: "/api/search", Query: q}, &res); err != nil {
		return nil, err
	}
	return convertYouTubeTracks(res), nil
}

// Likes returns the liked songs playlist.
//
// Calls GET /api/library/liked-songs on the proxy.
func (y *YouTubeService) Likes(ctx context.Context) ([]models.Track, error) {
	var res struct {
		Tracks []YouTubeTrack `json:"tracks"`
	}
	if err := y.do(ctx, request{Method: http.MethodGet, Path: "/api/library/liked-songs"}, &res); err != nil {
		return nil, fmt.Errorf("failed to fetch youtube music likes: %w", err)
	}
	return convertYouTubeTracks(res.Tracks), nil
}

// AddLikes rates each song LIKE; the proxy has no batch endpoint.
//
// Calls POST /api/songs/{id}/rate on the proxy.
func (y *YouTubeService) AddLikes(ctx context.Context, tracks []models.Track) error {
	for _, t := range tracks {
		path := "/api/songs/" + url.PathEscape(t.ID) + "/rate"
		if err := y.do(ctx, request{Method: http.MethodPost, Path: path, JSON: map[string]string{"rating": "LIKE"}}, nil); err != nil {
			return fmt.Errorf("failed to like youtube music song %s: %w", t.ID, err)
		}
	}
	return nil
}
