package models

import (
	"fmt"
	"strings"
)

// Platform identifies a streaming catalog.
type Platform string

const (
	Spotify      Platform = "spotify"
	YouTubeMusic Platform = "ytmusic"
	Tidal        Platform = "tidal"
)

// Platforms lists every supported platform.
var Platforms = []Platform{Spotify, YouTubeMusic, Tidal}

func (p Platform) String() string {
	return string(p)
}

// Label returns the human readable platform name.
func (p Platform) Label() string {
	switch p {
	case Spotify:
		return "Spotify"
	case YouTubeMusic:
		return "YouTube Music"
	case Tidal:
		return "Tidal"
	default:
		return string(p)
	}
}

// ParsePlatform resolves a platform name, accepting a few common aliases.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spotify", "spot":
		return Spotify, nil
	case "ytmusic", "youtube", "yt", "youtube-music":
		return YouTubeMusic, nil
	case "tidal":
		return Tidal, nil
	default:
		return "", fmt.Errorf("unknown platform %q", s)
	}
}

// Album is the album a track was released on.
type Album struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Artist is a credited artist of a track.
type Artist struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Track represents a recording in one platform's catalog.
//
// ID is the catalog id; SetID is the playlist-entry handle some platforms need to remove an entry.
type Track struct {
	Platform   Platform `json:"source_platform"`
	ID         string   `json:"primary_id"`
	SetID      string   `json:"secondary_id,omitempty"`
	ISRC       string   `json:"isrc,omitempty"`
	Title      string   `json:"title"`
	Album      *Album   `json:"album,omitempty"`
	Artists    []Artist `json:"artists"`
	DurationMS int      `json:"duration_ms"`
}

// HasAlbum reports whether the track carries album metadata.
func (t Track) HasAlbum() bool {
	return t.Album != nil
}

// IsSingle reports whether the track was released as a single, i.e. its album is named after the track.
func (t Track) IsSingle() bool {
	return t.Album != nil && t.Album.Name == t.Title
}

// ArtistNames returns the artist names in listing order.
func (t Track) ArtistNames() []string {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return names
}

// AlbumName returns the album name or an empty string.
func (t Track) AlbumName() string {
	if t.Album == nil {
		return ""
	}
	return t.Album.Name
}

func (t Track) String() string {
	artists := strings.Join(t.ArtistNames(), ", ")
	if t.Album == nil {
		return fmt.Sprintf("%s - %s", artists, t.Title)
	}
	return fmt.Sprintf("%s - %s (%s)", artists, t.Title, t.Album.Name)
}

// NormalizeISRC uppercases an ISRC and strips dashes.
//
// Returns an empty string unless the result is exactly 12 ASCII letters or digits.
func NormalizeISRC(raw string) string {
	isrc := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), "-", ""))
	if len(isrc) != 12 {
		return ""
	}
	for _, r := range isrc {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return isrc
}

// PlaylistDescription is set on playlists created by a sync.
const PlaylistDescription = "Playlist created by plsync"

// Playlist is a named, ordered list of tracks.
type Playlist struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Tracks []Track `json:"tracks"`
}

// Dedupe removes tracks sharing a primary id, keeping the first occurrence.
//
// Returns the number of removed tracks.
func (p *Playlist) Dedupe() int {
	seen := make(map[string]struct{}, len(p.Tracks))
	kept := make([]Track, 0, len(p.Tracks))
	for _, t := range p.Tracks {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		kept = append(kept, t)
	}
	removed := len(p.Tracks) - len(kept)
	p.Tracks = kept
	return removed
}
