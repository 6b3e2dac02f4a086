package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/plsync/internal/formatter"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/shared"
	tu "github.com/desertthunder/plsync/internal/testing"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func track(p models.Platform, id, title string) models.Track {
	return models.Track{
		Platform:   p,
		ID:         id,
		Title:      title,
		Album:      &models.Album{Name: "Record"},
		Artists:    []models.Artist{{Name: "Band"}},
		DurationMS: 200_000,
	}
}

// fakeConnect hands out the given services by platform.
func fakeConnect(svcs ...*tu.FakeService) ConnectFunc {
	return func(_ context.Context, p models.Platform) (services.Service, error) {
		for _, s := range svcs {
			if s.Plat == p {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%s: %w", p.Label(), shared.ErrNotAuthenticated)
	}
}

func tempDB(t *testing.T) func() (*sql.DB, error) {
	path := filepath.Join(t.TempDir(), "plsync.db")
	return func() (*sql.DB, error) {
		return shared.OpenDatabase(shared.DatabaseConfig{Path: path, MaxOpenConns: 1})
	}
}

// fixture is a Spotify library with one playlist and a Tidal catalog able to resolve it.
func fixture() (src, dst *tu.FakeService) {
	src = tu.NewFakeService(models.Spotify)
	src.AddPlaylist("Road Trip", track(models.Spotify, "s1", "Alpha"))

	dst = tu.NewFakeService(models.Tidal)
	dst.Catalog = []models.Track{track(models.Tidal, "t1", "Alpha"), track(models.Tidal, "t2", "Bravo")}
	return src, dst
}

func newTestRunner(t *testing.T, svcs ...*tu.FakeService) (*Runner, *bytes.Buffer) {
	t.Helper()
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Logger:  shared.NewLogger(&bytes.Buffer{}),
		Output:  output,
		Connect: fakeConnect(svcs...),
		OpenDB:  tempDB(t),
	})
	return runner, output
}

// run executes args against a fresh command tree of r, skipping config loading.
func run(r *Runner, args ...string) error {
	app := &cli.Command{
		Name: "plsync",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config"},
			&cli.BoolFlag{Name: "debug"},
		},
		Commands: r.register(),
	}
	return app.Run(context.Background(), append([]string{"plsync"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{Config: config, ConfigPath: "config.toml", Logger: logger, Output: output})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.configPath != "config.toml" {
				t.Errorf("expected configPath to be set, got %q", runner.configPath)
			}
		})

		t.Run("nil options use defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected stdout to be used as default output")
			}
			if runner.connect == nil || runner.openDB == nil {
				t.Error("expected default connect and openDB")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if want := `{"key":"value"}` + "\n"; output.String() != want {
				t.Errorf("expected %q, got %q", want, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limited := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limited})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("formats arguments", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln surrounds with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("done"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "\ndone\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "auth", "sync", "likes", "export", "import", "history", "tui"} {
			if !names[want] {
				t.Errorf("expected command %q to be registered", want)
			}
		}
	})

	t.Run("saveTokens", func(t *testing.T) {
		t.Run("saves tokens successfully", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")

			config := shared.DefaultConfig()
			config.Credentials.Spotify.ClientID = "test_id"
			if err := shared.SaveConfig(configPath, config); err != nil {
				t.Fatalf("failed to create test config: %v", err)
			}

			runner := NewRunner(RunnerOpts{Config: config, ConfigPath: configPath})
			token := &oauth2.Token{AccessToken: "new_access_token", RefreshToken: "new_refresh_token"}
			if err := runner.saveTokens(models.Spotify, token); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			loaded, err := shared.LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}
			if loaded.Credentials.Spotify.AccessToken != "new_access_token" {
				t.Errorf("expected access token to be updated, got %s", loaded.Credentials.Spotify.AccessToken)
			}
			if loaded.Credentials.Spotify.RefreshToken != "new_refresh_token" {
				t.Errorf("expected refresh token to be updated, got %s", loaded.Credentials.Spotify.RefreshToken)
			}
			if loaded.Credentials.Spotify.ClientID != "test_id" {
				t.Errorf("expected client id to survive, got %s", loaded.Credentials.Spotify.ClientID)
			}
		})

		t.Run("tidal keeps refresh token when none is returned", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Credentials.Tidal.RefreshToken = "kept"
			runner := NewRunner(RunnerOpts{Config: config})

			if err := runner.saveTokens(models.Tidal, &oauth2.Token{AccessToken: "fresh"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if config.Credentials.Tidal.AccessToken != "fresh" || config.Credentials.Tidal.RefreshToken != "kept" {
				t.Errorf("unexpected tidal credentials %+v", config.Credentials.Tidal)
			}
		})

		t.Run("handles nil config error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/tmp/test.toml"})
			runner.config = nil

			err := runner.saveTokens(models.Spotify, &oauth2.Token{AccessToken: "test"})
			if err == nil || !strings.Contains(err.Error(), "config is nil") {
				t.Errorf("expected nil config error, got %v", err)
			}
		})

		t.Run("handles empty configPath", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{Config: config})

			if err := runner.saveTokens(models.Spotify, &oauth2.Token{AccessToken: "new_token"}); err != nil {
				t.Fatalf("expected no error with empty path, got %v", err)
			}
			if config.Credentials.Spotify.AccessToken != "new_token" {
				t.Error("expected config to be updated in memory")
			}
		})

		t.Run("handles SaveConfig failure", func(t *testing.T) {
			blocker := filepath.Join(t.TempDir(), "file")
			if err := os.WriteFile(blocker, nil, 0644); err != nil {
				t.Fatal(err)
			}
			runner := NewRunner(RunnerOpts{ConfigPath: filepath.Join(blocker, "config.toml")})

			err := runner.saveTokens(models.Spotify, &oauth2.Token{AccessToken: "test"})
			if err == nil || !strings.Contains(err.Error(), "failed to save config") {
				t.Errorf("expected save config error, got %v", err)
			}
		})

		t.Run("handles nil token", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			err := runner.saveTokens(models.Spotify, nil)
			if err == nil || !strings.Contains(err.Error(), "failed to update spotify configuration") {
				t.Errorf("expected update error, got %v", err)
			}
		})

		t.Run("rejects platforms without OAuth", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			err := runner.saveTokens(models.YouTubeMusic, &oauth2.Token{AccessToken: "x"})
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("Before", func(t *testing.T) {
		newApp := func(r *Runner) *cli.Command {
			return &cli.Command{
				Name: "plsync",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config"},
					&cli.BoolFlag{Name: "debug"},
				},
				Before: r.Before,
				Action: func(context.Context, *cli.Command) error { return nil },
			}
		}

		t.Run("missing file falls back to defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{})})
			path := filepath.Join(t.TempDir(), "missing.toml")

			if err := newApp(runner).Run(context.Background(), []string{"plsync", "--config", path}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.configPath != path {
				t.Errorf("expected config path %q, got %q", path, runner.configPath)
			}
			if runner.config.Database.Path != "./plsync.db" {
				t.Errorf("expected default database path, got %q", runner.config.Database.Path)
			}
		})

		t.Run("loads config file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			config := shared.DefaultConfig()
			config.Sync.LikeAll = true
			if err := shared.SaveConfig(path, config); err != nil {
				t.Fatal(err)
			}

			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{})})
			if err := newApp(runner).Run(context.Background(), []string{"plsync", "--config", path, "--debug"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !runner.config.Sync.LikeAll {
				t.Error("expected like_all from the config file")
			}
		})
	})
}

func TestSyncCommand(t *testing.T) {
	t.Run("creates playlist and records history", func(t *testing.T) {
		src, dst := fixture()
		runner, output := newTestRunner(t, src, dst)

		if err := run(runner, "sync", "--from", "spotify", "--to", "tidal"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		p, ok := dst.Playlist("Road Trip")
		if !ok || len(p.Tracks) != 1 || p.Tracks[0].ID != "t1" {
			t.Fatalf("unexpected destination playlist %+v", p)
		}
		out := output.String()
		for _, want := range []string{"Road Trip (new)", "1/1", "100%"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output %q", want, out)
			}
		}

		output.Reset()
		if err := run(runner, "history"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if out := output.String(); !strings.Contains(out, "Spotify → Tidal") || !strings.Contains(out, "completed") {
			t.Errorf("unexpected history %q", out)
		}

		output.Reset()
		if err := run(runner, "history", "--run", "1"); err != nil {
			t.Fatalf("history --run failed: %v", err)
		}
		if out := output.String(); !strings.Contains(out, "Run #1") || !strings.Contains(out, "Road Trip") {
			t.Errorf("unexpected run detail %q", out)
		}
	})

	t.Run("dry run leaves destination untouched", func(t *testing.T) {
		src, dst := fixture()
		runner, output := newTestRunner(t, src, dst)

		if err := run(runner, "sync", "--from", "spotify", "--to", "tidal", "--dry-run"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(dst.Created) != 0 || dst.AddCalls != 0 {
			t.Errorf("expected no writes, got created=%v adds=%d", dst.Created, dst.AddCalls)
		}
		if !strings.Contains(output.String(), "Road Trip") {
			t.Errorf("expected report in output %q", output.String())
		}
	})

	t.Run("only restricts playlists", func(t *testing.T) {
		src, dst := fixture()
		src.AddPlaylist("Chill", track(models.Spotify, "s2", "Bravo"))
		runner, _ := newTestRunner(t, src, dst)

		if err := run(runner, "sync", "--from", "spotify", "--to", "tidal", "--only", "Chill"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := dst.Playlist("Road Trip"); ok {
			t.Error("expected Road Trip to be skipped")
		}
		if _, ok := dst.Playlist("Chill"); !ok {
			t.Error("expected Chill to be created")
		}
	})

	t.Run("writes reports", func(t *testing.T) {
		src, dst := fixture()
		runner, _ := newTestRunner(t, src, dst)
		dir := filepath.Join(t.TempDir(), "reports")

		if err := run(runner, "sync", "--from", "spotify", "--to", "tidal", "--report-dir", dir); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "Road Trip.csv"))
		tu.AssertFileExists(t, filepath.Join(dir, "summary.md"))
	})

	t.Run("region mismatch unless allowed", func(t *testing.T) {
		src, dst := fixture()
		src.HasRegion, src.Country = true, "US"
		dst.HasRegion, dst.Country = true, "DE"
		runner, _ := newTestRunner(t, src, dst)

		err := run(runner, "sync", "--from", "spotify", "--to", "tidal")
		if !errors.Is(err, shared.ErrRegionMismatch) {
			t.Fatalf("expected ErrRegionMismatch, got %v", err)
		}

		if err := run(runner, "sync", "--from", "spotify", "--to", "tidal", "--allow-cross-region"); err != nil {
			t.Fatalf("expected no error with --allow-cross-region, got %v", err)
		}
		if _, ok := dst.Playlist("Road Trip"); !ok {
			t.Error("expected playlist created")
		}
	})

	t.Run("history is optional", func(t *testing.T) {
		src, dst := fixture()
		runner, _ := newTestRunner(t, src, dst)
		runner.openDB = func() (*sql.DB, error) { return nil, errors.New("no database") }

		if err := run(runner, "sync", "--from", "spotify", "--to", "tidal"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown platform", []string{"sync", "--from", "napster", "--to", "tidal"}, shared.ErrInvalidArgument},
		{"same platform", []string{"sync", "--from", "tidal", "--to", "tidal"}, shared.ErrInvalidArgument},
		{"not connected", []string{"sync", "--from", "spotify", "--to", "ytmusic"}, shared.ErrNotAuthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dst := fixture()
			runner, _ := newTestRunner(t, src, dst)

			if err := run(runner, tt.args...); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLikesCommand(t *testing.T) {
	src, dst := fixture()
	src.Liked = []models.Track{track(models.Spotify, "s1", "Alpha")}
	runner, output := newTestRunner(t, src, dst)

	if err := run(runner, "likes", "--from", "spotify", "--to", "tidal"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(dst.Liked) != 1 || dst.Liked[0].ID != "t1" {
		t.Errorf("unexpected destination likes %+v", dst.Liked)
	}
	if !strings.Contains(output.String(), "Liked Songs") {
		t.Errorf("expected likes report in %q", output.String())
	}
}

func TestExportImport(t *testing.T) {
	t.Run("export to stdout", func(t *testing.T) {
		src, _ := fixture()
		runner, output := newTestRunner(t, src)

		if err := run(runner, "export", "--from", "spotify"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		playlists, err := formatter.ReadSnapshot(strings.NewReader(output.String()))
		if err != nil {
			t.Fatalf("stdout is not a snapshot: %v", err)
		}
		if len(playlists) != 1 || playlists[0].Name != "Road Trip" || len(playlists[0].Tracks) != 1 {
			t.Errorf("unexpected snapshot %+v", playlists)
		}
	})

	t.Run("export to file then import", func(t *testing.T) {
		src, dst := fixture()
		runner, _ := newTestRunner(t, src, dst)
		path := filepath.Join(t.TempDir(), "snapshots", "spotify.json")

		if err := run(runner, "export", "--from", "spotify", "-o", path); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		tu.AssertFileExists(t, path)

		if err := run(runner, "import", "--to", "tidal", "-i", path); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if p, ok := dst.Playlist("Road Trip"); !ok || len(p.Tracks) != 1 {
			t.Errorf("expected imported playlist, got %+v", p)
		}
		if len(src.Searches) != 0 {
			t.Error("import must not touch the source platform")
		}
	})

	t.Run("import malformed snapshot", func(t *testing.T) {
		_, dst := fixture()
		runner, _ := newTestRunner(t, dst)
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := run(runner, "import", "--to", "tidal", "-i", path); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestHistoryCommand(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		runner, output := newTestRunner(t)

		if err := run(runner, "history"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "No sync runs recorded yet.") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		if err := run(runner, "history", "--run", "7"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestAuthStatus(t *testing.T) {
	spotify := tu.NewFakeService(models.Spotify)
	spotify.HasRegion, spotify.Country = true, "US"
	youtube := tu.NewFakeService(models.YouTubeMusic)
	youtube.AddPlaylist("Mix")
	runner, output := newTestRunner(t, spotify, youtube)

	if err := run(runner, "auth", "status"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	out := output.String()
	for _, want := range []string{"region US", "1 playlists", "✗"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "plsync.db")
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: filepath.Join(dir, "config.toml"),
		Logger:     shared.NewLogger(&bytes.Buffer{}),
		Output:     output,
	})

	if err := run(runner, "setup"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
	tu.AssertFileExists(t, config.Database.Path)
	if !strings.Contains(output.String(), "Database ready") {
		t.Errorf("unexpected output %q", output.String())
	}

	t.Run("rollback reverts the latest migration", func(t *testing.T) {
		if err := run(runner, "setup", "--rollback"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Rolled back") {
			t.Errorf("unexpected output %q", output.String())
		}

		db, err := shared.NewDatabase(config.Database.Path)
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != 0 {
			t.Errorf("expected no applied migrations, got %d", count)
		}

		if err := run(runner, "setup", "--rollback"); err == nil {
			t.Error("expected an error with nothing left to roll back")
		}
	})

	t.Run("youtube requires one curl source", func(t *testing.T) {
		if err := run(runner, "setup", "youtube"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		err := run(runner, "setup", "youtube", "--curl", "curl x", "--curl-file", "x.sh")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestCallbackPath(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"http://127.0.0.1:3000/callback", "/callback"},
		{"http://localhost:8888/auth/spotify", "/auth/spotify"},
		{"http://localhost:8888", "/callback"},
		{"", "/callback"},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			if got := callbackPath(tt.uri); got != tt.want {
				t.Errorf("callbackPath(%q) = %q, want %q", tt.uri, got, tt.want)
			}
		})
	}
}
