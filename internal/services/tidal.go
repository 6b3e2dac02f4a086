// Tidal API implementation of [Service]
//
// Catalog and collection calls use the v1 API; the profile and ISRC lookups use the JSON:API
// flavoured openapi v2.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/dlclark/regexp2"
	"golang.org/x/oauth2"
)

const (
	tidalBaseURL       = "https://api.tidal.com"
	tidalOpenAPIURL    = "https://openapi.tidal.com/v2"
	tidalDeviceAuthURL = "https://auth.tidal.com/v1/oauth2/device_authorization"
	tidalTokenURL      = "https://auth.tidal.com/v1/oauth2/token"

	// a limit above 100 is rejected on playlist items
	tidalPageSize      = 100
	tidalLikesPageSize = 1000
	tidalMutationSize  = 20
	tidalLikesChunk    = 100
)

var tidalScopes = []string{"r_usr", "w_usr", "w_sub"}

var isoDurationExpr = regexp2.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)(?:\.\d+)?S)?$`, regexp2.None)

type tidalArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type tidalAlbum struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// TidalTrack represents a v1 track object.
type TidalTrack struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	ISRC     string        `json:"isrc"`
	Duration int           `json:"duration"`
	Artists  []tidalArtist `json:"artists"`
	Album    *tidalAlbum   `json:"album"`
}

func (t TidalTrack) toTrack() models.Track {
	track := models.Track{
		Platform:   models.Tidal,
		ID:         strconv.FormatInt(t.ID, 10),
		ISRC:       models.NormalizeISRC(t.ISRC),
		Title:      t.Title,
		DurationMS: t.Duration * 1000,
	}
	if t.Album != nil && t.Album.Title != "" {
		track.Album = &models.Album{ID: strconv.FormatInt(t.Album.ID, 10), Name: t.Album.Title}
	}
	for _, a := range t.Artists {
		track.Artists = append(track.Artists, models.Artist{ID: strconv.FormatInt(a.ID, 10), Name: a.Name})
	}
	return track
}

// usable reports whether the track has an id and a duration.
func (t TidalTrack) usable() bool {
	return t.ID != 0 && t.Duration > 0
}

type tidalPage[T any] struct {
	Items              []T `json:"items"`
	Limit              int `json:"limit"`
	Offset             int `json:"offset"`
	TotalNumberOfItems int `json:"totalNumberOfItems"`
}

type tidalPlaylist struct {
	UUID  string `json:"uuid"`
	Title string `json:"title"`
}

type tidalItem struct {
	Item TidalTrack `json:"item"`
	Type string     `json:"type"`
}

// JSON:API resource as returned by openapi v2.
type tidalResource struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Title    string `json:"title"`
		Name     string `json:"name"`
		ISRC     string `json:"isrc"`
		Duration string `json:"duration"`
		Country  string `json:"country"`
	} `json:"attributes"`
	Relationships map[string]struct {
		Data []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"data"`
	} `json:"relationships"`
}

// TidalService implements [Service] for Tidal.
type TidalService struct {
	*client
	openAPIURL string
	config     *oauth2.Config
	source     oauth2.TokenSource

	mu      sync.Mutex
	userID  string
	country string
}

// NewTidalService creates a Tidal adapter from client credentials.
func NewTidalService(credentials map[string]string, opts ...Option) (*TidalService, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: tidal client_id", shared.ErrMissingCredentials)
	}

	return &TidalService{
		client:     newClient(tidalBaseURL, opts...),
		openAPIURL: tidalOpenAPIURL,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: credentials["client_secret"],
			Scopes:       tidalScopes,
			Endpoint: oauth2.Endpoint{
				DeviceAuthURL: tidalDeviceAuthURL,
				TokenURL:      tidalTokenURL,
				AuthStyle:     oauth2.AuthStyleInParams,
			},
		},
	}, nil
}

func (t *TidalService) Name() string              { return "Tidal" }
func (t *TidalService) Platform() models.Platform { return models.Tidal }
func (t *TidalService) ReportsRegion() bool       { return true }

// StartDeviceAuth begins the device authorization flow. The user opens VerificationURIComplete.
func (t *TidalService) StartDeviceAuth(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	da, err := t.config.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: device authorization failed: %v", shared.ErrAuthFailed, err)
	}
	if da.VerificationURIComplete != "" && !strings.HasPrefix(da.VerificationURIComplete, "http") {
		da.VerificationURIComplete = "https://" + da.VerificationURIComplete
	}
	return da, nil
}

// CompleteDeviceAuth polls until the user approves the device and authenticates with the token.
func (t *TidalService) CompleteDeviceAuth(ctx context.Context, da *oauth2.DeviceAuthResponse) error {
	token, err := t.config.DeviceAccessToken(ctx, da)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	t.useToken(ctx, token)
	return nil
}

// Authenticate accepts stored "access_token" and/or "refresh_token" values.
func (t *TidalService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if credentials["access_token"] == "" && credentials["refresh_token"] == "" {
		return fmt.Errorf("%w: tidal needs access_token or refresh_token, run auth tidal", shared.ErrMissingCredentials)
	}
	t.useToken(ctx, &oauth2.Token{
		AccessToken:  credentials["access_token"],
		RefreshToken: credentials["refresh_token"],
		TokenType:    "Bearer",
	})
	return nil
}

func (t *TidalService) useToken(ctx context.Context, token *oauth2.Token) {
	if base := t.client.http; base != nil && base != http.DefaultClient {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	t.source = t.config.TokenSource(ctx, token)
	t.client.http = oauth2.NewClient(ctx, t.source)
}

// Token returns the current token so callers can persist it.
func (t *TidalService) Token() (*oauth2.Token, error) {
	if t.source == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return t.source.Token()
}

// profile loads and caches the user id and country.
func (t *TidalService) profile(ctx context.Context) (userID, country string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.userID != "" {
		return t.userID, t.country, nil
	}
	if t.source == nil {
		return "", "", shared.ErrNotAuthenticated
	}

	var res struct {
		Data tidalResource `json:"data"`
	}
	if _, err := t.send(ctx, request{Method: http.MethodGet, Path: t.openAPIURL + "/users/me"}, &res); err != nil {
		return "", "", fmt.Errorf("failed to load tidal profile: %w", err)
	}

	t.userID = res.Data.ID
	t.country = res.Data.Attributes.Country
	if t.country == "" {
		t.country = "US"
	}
	return t.userID, t.country, nil
}

// do sends r with the countryCode query parameter every v1 call needs.
func (t *TidalService) do(ctx context.Context, r request, out any) (http.Header, error) {
	_, country, err := t.profile(ctx)
	if err != nil {
		return nil, err
	}
	if r.Query == nil {
		r.Query = url.Values{}
	}
	r.Query.Set("countryCode", country)
	return t.send(ctx, r, out)
}

// Region returns the account country.
func (t *TidalService) Region(ctx context.Context) (string, error) {
	_, country, err := t.profile(ctx)
	if err != nil {
		return UnknownRegion, err
	}
	return country, nil
}

// tidalPaginate walks offset pages until totalNumberOfItems is reached.
func tidalPaginate[T any](ctx context.Context, t *TidalService, path string, limit int, visit func(T)) error {
	for offset := 0; ; {
		q := url.Values{"limit": {strconv.Itoa(limit)}, "offset": {strconv.Itoa(offset)}}
		var page tidalPage[T]
		if _, err := t.do(ctx, request{Method: http.MethodGet, Path: path, Query: q}, &page); err != nil {
			return err
		}
		for _, item := range page.Items {
			visit(item)
		}
		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= page.TotalNumberOfItems {
			return nil
		}
	}
}

// Playlists lists the user's playlists.
func (t *TidalService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	userID, _, err := t.profile(ctx)
	if err != nil {
		return nil, err
	}

	var playlists []models.Playlist
	err = tidalPaginate(ctx, t, "/v1/users/"+url.PathEscape(userID)+"/playlists", tidalPageSize, func(p tidalPlaylist) {
		playlists = append(playlists, models.Playlist{ID: p.UUID, Name: p.Title})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tidal playlists: %w", err)
	}
	return playlists, nil
}

func (t *TidalService) items(ctx context.Context, playlistID string) ([]models.Track, error) {
	var tracks []models.Track
	err := tidalPaginate(ctx, t, "/v1/playlists/"+url.PathEscape(playlistID)+"/items", tidalPageSize, func(it tidalItem) {
		if (it.Type == "" || it.Type == "track") && it.Item.usable() {
			tracks = append(tracks, it.Item.toTrack())
		}
	})
	return tracks, err
}

// PlaylistTracks returns the tracks of a playlist; videos and tracks without a duration are skipped.
func (t *TidalService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	tracks, err := t.items(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tidal playlist %s: %w", playlistID, err)
	}
	return tracks, nil
}

// CreatePlaylist creates a playlist in the root folder.
func (t *TidalService) CreatePlaylist(ctx context.Context, name string, public bool) (*models.Playlist, error) {
	form := url.Values{
		"name":        {name},
		"description": {models.PlaylistDescription},
		"public":      {strconv.FormatBool(public)},
		"folderId":    {"root"},
	}
	var res struct {
		Data struct {
			UUID string `json:"uuid"`
		} `json:"data"`
	}
	r := request{Method: http.MethodPut, Path: "/v2/my-collection/playlists/folders/create-playlist", Form: form}
	if _, err := t.do(ctx, r, &res); err != nil {
		return nil, fmt.Errorf("failed to create tidal playlist %q: %w", name, err)
	}
	return &models.Playlist{ID: res.Data.UUID, Name: name}, nil
}

// etag fetches the playlist's current ETag, required by every item mutation.
func (t *TidalService) etag(ctx context.Context, playlistID string) (string, error) {
	header, err := t.do(ctx, request{Method: http.MethodGet, Path: "/v1/playlists/" + url.PathEscape(playlistID)}, nil)
	if err != nil {
		return "", err
	}
	tag := header.Get("ETag")
	if tag == "" {
		return "", fmt.Errorf("%w: no ETag for playlist %s", shared.ErrAPIRequest, playlistID)
	}
	return tag, nil
}

// AddTracks appends tracks, [tidalMutationSize] per request.
func (t *TidalService) AddTracks(ctx context.Context, playlistID string, tracks []models.Track) error {
	path := "/v1/playlists/" + url.PathEscape(playlistID) + "/items"
	for batch := range slices.Chunk(tracks, tidalMutationSize) {
		tag, err := t.etag(ctx, playlistID)
		if err != nil {
			return fmt.Errorf("failed to add tracks to tidal playlist %s: %w", playlistID, err)
		}

		ids := make([]string, len(batch))
		for i, tr := range batch {
			ids[i] = tr.ID
		}
		form := url.Values{
			"trackIds":           {strings.Join(ids, ",")},
			"onDuplicate":        {"FAIL"},
			"onArtifactNotFound": {"FAIL"},
		}
		r := request{Method: http.MethodPost, Path: path, Form: form, Header: http.Header{"If-None-Match": {tag}}}
		if _, err := t.do(ctx, r, nil); err != nil {
			return fmt.Errorf("failed to add tracks to tidal playlist %s: %w", playlistID, err)
		}
	}
	return nil
}

// RemoveTracks deletes every entry of the given tracks. Tidal addresses entries by index, so the
// indices are removed highest first to keep the remaining ones stable.
func (t *TidalService) RemoveTracks(ctx context.Context, playlistID string, tracks []models.Track) error {
	current, err := t.items(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("failed to remove tracks from tidal playlist %s: %w", playlistID, err)
	}

	remove := make(map[string]struct{}, len(tracks))
	for _, tr := range tracks {
		remove[tr.ID] = struct{}{}
	}

	var indices []int
	for i, tr := range current {
		if _, ok := remove[tr.ID]; ok {
			indices = append(indices, i)
		}
	}
	slices.Reverse(indices)

	for batch := range slices.Chunk(indices, tidalMutationSize) {
		tag, err := t.etag(ctx, playlistID)
		if err != nil {
			return fmt.Errorf("failed to remove tracks from tidal playlist %s: %w", playlistID, err)
		}

		parts := make([]string, len(batch))
		for i, idx := range batch {
			parts[i] = strconv.Itoa(idx)
		}
		path := "/v1/playlists/" + url.PathEscape(playlistID) + "/items/" + strings.Join(parts, ",")
		r := request{Method: http.MethodDelete, Path: path, Header: http.Header{"If-None-Match": {tag}}}
		if _, err := t.do(ctx, r, nil); err != nil {
			return fmt.Errorf("failed to remove tracks from tidal playlist %s: %w", playlistID, err)
		}
	}
	return nil
}

// DeletePlaylist removes a playlist from the user's collection.
func (t *TidalService) DeletePlaylist(ctx context.Context, playlistID string) error {
	form := url.Values{"trns": {"trn:playlist:" + playlistID}}
	r := request{Method: http.MethodPut, Path: "/v2/my-collection/playlists/folders/remove", Form: form}
	if _, err := t.do(ctx, r, nil); err != nil {
		return fmt.Errorf("failed to delete tidal playlist %s: %w", playlistID, err)
	}
	return nil
}

// SearchTrack runs a catalog track search.
func (t *TidalService) SearchTrack(ctx context.Context, query string) ([]models.Track, error) {
	q := url.Values{
		"query":  {query},
		"type":   {"TRACKS"},
		"limit":  {strconv.Itoa(SearchLimit)},
		"offset": {"0"},
	}
	var res struct {
		Tracks tidalPage[TidalTrack] `json:"tracks"`
	}
	if _, err := t.do(ctx, request{Method: http.MethodGet, Path: "/v1/search", Query: q}, &res); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(res.Tracks.Items))
	for _, tr := range res.Tracks.Items {
		if tr.usable() {
			tracks = append(tracks, tr.toTrack())
		}
	}
	return tracks, nil
}

// SearchISRC looks tracks up by ISRC on openapi v2, resolving albums and artists from the
// included resources.
func (t *TidalService) SearchISRC(ctx context.Context, isrc string) ([]models.Track, error) {
	q := url.Values{
		"include":      {"albums,artists"},
		"filter[isrc]": {strings.ToUpper(isrc)},
	}
	var res struct {
		Data     []tidalResource `json:"data"`
		Included []tidalResource `json:"included"`
	}
	if _, err := t.do(ctx, request{Method: http.MethodGet, Path: t.openAPIURL + "/tracks", Query: q}, &res); err != nil {
		return nil, err
	}
	return tidalResourceTracks(res.Data, res.Included), nil
}

func tidalResourceTracks(data, included []tidalResource) []models.Track {
	byKey := make(map[string]tidalResource, len(included))
	for _, inc := range included {
		byKey[inc.Type+"/"+inc.ID] = inc
	}

	tracks := make([]models.Track, 0, len(data))
	for _, d := range data {
		duration := parseISODuration(d.Attributes.Duration)
		if (d.Type != "" && d.Type != "tracks") || duration == 0 {
			continue
		}
		track := models.Track{
			Platform:   models.Tidal,
			ID:         d.ID,
			ISRC:       models.NormalizeISRC(d.Attributes.ISRC),
			Title:      d.Attributes.Title,
			DurationMS: duration * 1000,
		}
		for _, ref := range d.Relationships["albums"].Data {
			if album, ok := byKey["albums/"+ref.ID]; ok {
				track.Album = &models.Album{ID: album.ID, Name: album.Attributes.Title}
				break
			}
		}
		for _, ref := range d.Relationships["artists"].Data {
			if artist, ok := byKey["artists/"+ref.ID]; ok {
				track.Artists = append(track.Artists, models.Artist{ID: artist.ID, Name: artist.Attributes.Name})
			}
		}
		tracks = append(tracks, track)
	}
	return tracks
}

// parseISODuration converts an ISO 8601 duration such as PT3M25S to whole seconds.
func parseISODuration(s string) int {
	m, err := isoDurationExpr.FindStringMatch(s)
	if err != nil || m == nil {
		return 0
	}
	total := 0
	for i, unit := range []int{3600, 60, 1} {
		group := m.GroupByNumber(i + 1).String()
		if group == "" {
			continue
		}
		n, _ := strconv.Atoi(group)
		total += n * unit
	}
	return total
}

// Likes returns the user's favorite tracks.
func (t *TidalService) Likes(ctx context.Context) ([]models.Track, error) {
	userID, _, err := t.profile(ctx)
	if err != nil {
		return nil, err
	}

	var tracks []models.Track
	err = tidalPaginate(ctx, t, "/v1/users/"+url.PathEscape(userID)+"/favorites/tracks", tidalLikesPageSize, func(it tidalItem) {
		if it.Item.usable() {
			tracks = append(tracks, it.Item.toTrack())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tidal likes: %w", err)
	}
	return tracks, nil
}

// AddLikes favorites tracks, 100 per request since larger batches fail server side.
func (t *TidalService) AddLikes(ctx context.Context, tracks []models.Track) error {
	userID, _, err := t.profile(ctx)
	if err != nil {
		return err
	}

	path := "/v1/users/" + url.PathEscape(userID) + "/favorites/tracks"
	for batch := range slices.Chunk(tracks, tidalLikesChunk) {
		ids := make([]string, len(batch))
		for i, tr := range batch {
			ids[i] = tr.ID
		}
		form := url.Values{"trackIds": {strings.Join(ids, ",")}, "onArtifactNotFound": {"FAIL"}}
		if _, err := t.do(ctx, request{Method: http.MethodPost, Path: path, Form: form}, nil); err != nil {
			return fmt.Errorf("failed to like tidal tracks: %w", err)
		}
	}
	return nil
}
