package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
)

func newYouTubeTest(t *testing.T, handler http.Handler) *YouTubeService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewYouTubeService(server.URL, WithRateLimit(0, 0))
	svc.sleep = noSleep
	if err := svc.Authenticate(context.Background(), map[string]string{"headers_path": "/path/to/browser.json"}); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	return svc
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"3:25", 205},
		{"1:02:03", 3723},
		{"45", 45},
		{"", 0},
		{"x:10", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseClock(tt.in); got != tt.want {
				t.Errorf("parseClock(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestYouTubeService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewYouTubeService", func(t *testing.T) {
		t.Run("creates service with default URL", func(t *testing.T) {
			if svc := NewYouTubeService(""); svc.baseURL != defaultYTBaseURL {
				t.Errorf("expected baseURL to be %s, got %s", defaultYTBaseURL, svc.baseURL)
			}
		})

		t.Run("creates service with custom URL", func(t *testing.T) {
			if svc := NewYouTubeService("http://localhost:9000/"); svc.baseURL != "http://localhost:9000" {
				t.Errorf("expected trimmed baseURL, got %s", svc.baseURL)
			}
		})

		t.Run("does not report region", func(t *testing.T) {
			svc := NewYouTubeService("")
			region, err := svc.Region(ctx)
			if svc.ReportsRegion() || region != UnknownRegion || err != nil {
				t.Errorf("expected unknown region, got %q %v", region, err)
			}
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		svc := NewYouTubeService("")

		if _, err := svc.Playlists(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if err := svc.Authenticate(ctx, map[string]string{}); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
		if err := svc.Authenticate(ctx, map[string]string{"auth_file": "/tmp/oauth.json"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if svc.authFile != "/tmp/oauth.json" {
			t.Errorf("unexpected auth file %s", svc.authFile)
		}
	})

	t.Run("Playlists", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/library/playlists", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Auth-File") != "/path/to/browser.json" {
				t.Errorf("expected X-Auth-File header, got %q", r.Header.Get("X-Auth-File"))
			}
			writeJSON(t, w, []map[string]any{
				{"playlistId": "PL123", "title": "My Playlist", "count": 10},
				{"playlistId": "PL456", "title": "Private Mix", "count": 5},
			})
		})
		svc := newYouTubeTest(t, mux)

		playlists, err := svc.Playlists(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(playlists) != 2 || playlists[0].ID != "PL123" || playlists[1].Name != "Private Mix" {
			t.Errorf("unexpected playlists %+v", playlists)
		}
	})

	t.Run("PlaylistTracks", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/playlists/PL123", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, map[string]any{
				"id": "PL123",
				"tracks": []map[string]any{
					{
						"videoId":    "v1",
						"title":      "Song One",
						"artists":    []map[string]any{{"name": "Artist", "id": "UC1"}},
						"album":      map[string]any{"name": "Album", "id": "MPRE1"},
						"duration":   "3:25",
						"setVideoId": "SET1",
					},
					{"videoId": "", "title": "Unavailable"},
					{"videoId": "v2", "title": "No Album", "duration_seconds": 180},
					{"videoId": "v3", "title": "Broken Duration", "duration": "3:xx"},
					{"videoId": "v4", "title": "No Duration"},
				},
			})
		})
		svc := newYouTubeTest(t, mux)

		tracks, err := svc.PlaylistTracks(ctx, "PL123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		first := tracks[0]
		if first.Platform != models.YouTubeMusic || first.SetID != "SET1" || first.DurationMS != 205000 || first.AlbumName() != "Album" {
			t.Errorf("unexpected first track %+v", first)
		}
		if tracks[1].HasAlbum() || tracks[1].DurationMS != 180000 {
			t.Errorf("unexpected second track %+v", tracks[1])
		}
	})

	t.Run("CreatePlaylist and AddTracks", func(t *testing.T) {
		var added []string
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/playlists", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("bad body: %v", err)
			}
			if body["title"] != "Road Trip" || body["privacy_status"] != "PUBLIC" {
				t.Errorf("unexpected body %v", body)
			}
			writeJSON(t, w, map[string]any{"playlist_id": "PLNEW"})
		})
		mux.HandleFunc("POST /api/playlists/PLNEW/items", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				VideoIDs []string `json:"video_ids"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("bad body: %v", err)
			}
			added = append(added, body.VideoIDs...)
		})
		svc := newYouTubeTest(t, mux)

		playlist, err := svc.CreatePlaylist(ctx, "Road Trip", true)
		if err != nil {
			t.Fatalf("CreatePlaylist() error = %v", err)
		}
		if playlist.ID != "PLNEW" {
			t.Errorf("unexpected playlist %+v", playlist)
		}
		if err := svc.AddTracks(ctx, playlist.ID, []models.Track{{ID: "v1"}, {ID: "v2"}}); err != nil {
			t.Fatalf("AddTracks() error = %v", err)
		}
		if len(added) != 2 || added[1] != "v2" {
			t.Errorf("unexpected added ids %v", added)
		}
	})

	t.Run("RemoveTracks needs set ids", func(t *testing.T) {
		var removed []map[string]string
		mux := http.NewServeMux()
		mux.HandleFunc("DELETE /api/playlists/PL1/items", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Videos []map[string]string `json:"videos"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("bad body: %v", err)
			}
			removed = body.Videos
		})
		svc := newYouTubeTest(t, mux)

		err := svc.RemoveTracks(ctx, "PL1", []models.Track{{ID: "v1"}})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}

		if err := svc.RemoveTracks(ctx, "PL1", []models.Track{{ID: "v1", SetID: "S1"}}); err != nil {
			t.Fatalf("RemoveTracks() error = %v", err)
		}
		if len(removed) != 1 || removed[0]["setVideoId"] != "S1" {
			t.Errorf("unexpected removal payload %v", removed)
		}
	})

	t.Run("SearchTrack", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/search", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("q") != "Song One Artist" || q.Get("filter") != "songs" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			writeJSON(t, w, []map[string]any{
				{"videoId": "v1", "title": "Song One", "duration": "3:25"},
				{"videoId": "v2", "title": "Song One (Live)", "duration": "4:00"},
			})
		})
		svc := newYouTubeTest(t, mux)

		results, err := svc.SearchTrack(ctx, "Song One Artist")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(results) != 2 || results[0].ID != "v1" {
			t.Errorf("unexpected results %+v", results)
		}
	})

	t.Run("Likes", func(t *testing.T) {
		var rated []string
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/library/liked-songs", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, map[string]any{"tracks": []map[string]any{{"videoId": "v9", "title": "Liked", "duration": "3:00"}}})
		})
		mux.HandleFunc("POST /api/songs/{id}/rate", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("bad body: %v", err)
			}
			if body["rating"] != "LIKE" {
				t.Errorf("unexpected rating %v", body)
			}
			rated = append(rated, r.PathValue("id"))
		})
		svc := newYouTubeTest(t, mux)

		likes, err := svc.Likes(ctx)
		if err != nil || len(likes) != 1 || likes[0].ID != "v9" {
			t.Fatalf("Likes() = %v, %v", likes, err)
		}
		if err := svc.AddLikes(ctx, []models.Track{{ID: "a"}, {ID: "b"}}); err != nil {
			t.Fatalf("AddLikes() error = %v", err)
		}
		if len(rated) != 2 || rated[0] != "a" {
			t.Errorf("unexpected ratings %v", rated)
		}
	})

	t.Run("Proxy errors", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/playlists/missing", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(t, w, map[string]string{"detail": "Playlist not found"})
		})
		mux.HandleFunc("GET /api/search", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		svc := newYouTubeTest(t, mux)

		_, err := svc.PlaylistTracks(ctx, "missing")
		if !errors.Is(err, shared.ErrRequestRejected) {
			t.Errorf("expected ErrRequestRejected, got %v", err)
		}

		_, err = svc.SearchTrack(ctx, "x")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("SetupBrowser", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/setup/browser", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("bad body: %v", err)
			}
			if body["headers_raw"] == "bad" {
				writeJSON(t, w, map[string]any{"success": false, "message": "missing cookie"})
				return
			}
			writeJSON(t, w, map[string]any{"success": true, "message": "ok", "auth_content": map[string]any{"cookie": "x"}})
		})
		svc := newYouTubeTest(t, mux)

		res, err := svc.SetupBrowser(ctx, "cookie: x")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.AuthContent["cookie"] != "x" {
			t.Errorf("unexpected auth content %v", res.AuthContent)
		}

		if _, err := svc.SetupBrowser(ctx, "bad"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Service Interface", func(t *testing.T) {
		var _ Service = NewYouTubeService("")
		var _ Authenticator = NewYouTubeService("")
	})
}
