package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/server"
	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// authTimeout bounds how long an OAuth flow waits for the user.
const authTimeout = 5 * time.Minute

// AuthSpotify performs the OAuth2 authorization code flow for Spotify.
//
// Starts the callback server, opens the authorization URL and saves the tokens once the redirect
// arrives.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	svc, err := services.NewSpotifyService(creds.Map(), services.WithLogger(r.logger))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	state := shared.GenerateID()
	handler := server.NewOAuthHandler(models.Spotify.Label(), callbackPath(creds.RedirectURI), state,
		func(_ context.Context, code string) error {
			return svc.Authenticate(ctx, map[string]string{"auth_code": code})
		})

	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(handler)

	srv, err := server.Listen(r.config.Server.Addr(), router, r.logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("callback server shutdown failed", "error", err)
		}
	}()

	authURL := svc.AuthURL(state)
	r.writePlain("Open this URL to authorize plsync:\n\n%s\n\n", authURL)
	if !cmd.Bool("no-browser") {
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	r.logger.Info("waiting for authorization", "addr", srv.Addr())
	if err := handler.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	token, err := svc.Token()
	if err != nil {
		return err
	}
	if err := r.saveTokens(models.Spotify, token); err != nil {
		return err
	}

	r.writePlain("✓ Spotify authorized, tokens saved to %s\n", r.configPath)
	return nil
}

// AuthTidal performs the OAuth2 device authorization flow for Tidal.
func (r *Runner) AuthTidal(ctx context.Context, cmd *cli.Command) error {
	svc, err := services.NewTidalService(r.config.Credentials.Tidal.Map(), services.WithLogger(r.logger))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	da, err := svc.StartDeviceAuth(ctx)
	if err != nil {
		return err
	}

	r.writePlain("Open %s and confirm the code %s\n", da.VerificationURIComplete, da.UserCode)
	if !cmd.Bool("no-browser") {
		if err := shared.OpenBrowser(da.VerificationURIComplete); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	if err := svc.CompleteDeviceAuth(ctx, da); err != nil {
		return err
	}

	token, err := svc.Token()
	if err != nil {
		return err
	}
	if err := r.saveTokens(models.Tidal, token); err != nil {
		return err
	}

	r.writePlain("✓ Tidal authorized, tokens saved to %s\n", r.configPath)
	return nil
}

// AuthStatus connects to every platform and reports whether the stored credentials work.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	var rows [][]string
	for _, p := range models.Platforms {
		status, detail := "✓", ""

		svc, err := r.connect(ctx, p)
		if err == nil {
			if svc.ReportsRegion() {
				var region string
				region, err = svc.Region(ctx)
				detail = "region " + region
			} else {
				var playlists []models.Playlist
				playlists, err = svc.Playlists(ctx)
				detail = fmt.Sprintf("%d playlists", len(playlists))
			}
			r.persistTokens(svc)
		}
		if err != nil {
			status, detail = "✗", err.Error()
		}
		rows = append(rows, []string{p.Label(), status, detail})
	}

	return r.writePlain("%s\n", renderTable([]string{"Platform", "Status", "Detail"}, rows, nil))
}

// callbackPath returns the path of the configured redirect URI.
func callbackPath(redirectURI string) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Path == "" {
		return "/callback"
	}
	return u.Path
}
