package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the template when missing, then initializes the database.
//
// With --rollback it reverts the latest applied migration instead.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("rollback") {
		return r.rollback()
	}

	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Config written to %s\n", r.configPath)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	applied, err := shared.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Info("migrations applied", "count", applied)

	r.writePlain("✓ Database ready at %s (%d migrations applied)\n", r.config.Database.Path, applied)
	r.writePlainln("Next steps:")
	r.writePlain("1. Fill in the client ids and secrets in %s\n", r.configPath)
	r.writePlain("2. Run 'plsync auth spotify' and 'plsync auth tidal', or 'plsync setup youtube --curl ...'\n")
	return nil
}

func (r *Runner) rollback() error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return err
	}
	r.logger.Info("migration rolled back", "path", r.config.Database.Path)
	r.writePlain("✓ Rolled back the latest migration of %s\n", r.config.Database.Path)
	return nil
}

// SetupYouTube configures YouTube Music authentication from browser headers.
//
// The proxy converts the headers of a "Copy as cURL" command into browser.json, which is written
// locally and referenced from the config.
func (r *Runner) SetupYouTube(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	outputPath := cmd.String("output")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var (
		headers *shared.BrowserHeaders
		err     error
	)
	if curlFile != "" {
		headers, err = shared.ParseCurlFile(curlFile)
	} else {
		headers, err = shared.ParseCurlCommand([]byte(curlCmd))
	}
	if err != nil {
		return fmt.Errorf("failed to parse cURL command: %w", err)
	}

	headersRaw := headers.ToHeadersRaw()
	r.logger.Debug("generated headers_raw", "length", len(headersRaw))

	yt := services.NewYouTubeService(r.config.Credentials.YouTube.ProxyURL,
		services.WithLogger(shared.WithLogger(r.logger, "platform", models.YouTubeMusic)))
	setup, err := yt.SetupBrowser(ctx, headersRaw)
	if err != nil {
		return err
	}
	r.logger.Info("setup successful", "message", setup.Message)

	if outputPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		outputPath = filepath.Join(home, ".plsync", "browser.json")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	authJSON, err := shared.MarshalJSON(setup.AuthContent, true)
	if err != nil {
		return fmt.Errorf("failed to marshal auth content: %w", err)
	}
	if err := os.WriteFile(outputPath, authJSON, 0600); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}

	r.config.Credentials.YouTube.HeadersPath = outputPath
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		r.logger.Warn("failed to save config", "error", err)
		r.writePlain("Set credentials.youtube.headers_path = %q in %s\n", outputPath, r.configPath)
	}

	r.writePlain("✓ YouTube Music authentication configured\n")
	r.writePlain("Auth file saved to: %s\n", outputPath)
	return nil
}
