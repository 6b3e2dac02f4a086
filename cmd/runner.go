package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// ConnectFunc builds an authenticated service for a platform.
type ConnectFunc func(ctx context.Context, p models.Platform) (services.Service, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	connect    ConnectFunc
	openDB     func() (*sql.DB, error)
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Connect    ConnectFunc
	OpenDB     func() (*sql.DB, error)
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		connect:    opts.Connect,
		openDB:     opts.OpenDB,
	}
	if r.connect == nil {
		r.connect = r.connectService
	}
	if r.openDB == nil {
		r.openDB = func() (*sql.DB, error) { return shared.OpenDatabase(r.config.Database) }
	}
	return r
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI runs.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, syncCommand, likesCommand, exportCommand, importCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// Before loads the configuration named by --config and applies the log level.
//
// A missing file falls back to defaults so setup can create it.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.configPath = cmd.String("config")

	config, err := shared.LoadConfig(r.configPath)
	switch {
	case errors.Is(err, shared.ErrMissingConfig):
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		config = shared.DefaultConfig()
	case err != nil:
		return ctx, err
	}
	config.ApplyEnv()
	r.config = config

	level := shared.ParseLogLevel(config.Log.Level)
	if cmd.Bool("debug") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// connectService creates the adapter for p and authenticates it with the stored credentials.
func (r *Runner) connectService(ctx context.Context, p models.Platform) (services.Service, error) {
	svc, err := services.New(p, r.config.Credentials, services.WithLogger(shared.WithLogger(r.logger, "platform", p)))
	if err != nil {
		return nil, err
	}
	if auth, ok := svc.(services.Authenticator); ok {
		if err := auth.Authenticate(ctx, services.Credentials(p, r.config.Credentials)); err != nil {
			return nil, fmt.Errorf("%s: %w", p.Label(), err)
		}
	}
	return svc, nil
}

// tokenSource is implemented by services holding refreshable OAuth tokens.
type tokenSource interface {
	Token() (*oauth2.Token, error)
}

// persistTokens writes refreshed tokens of the given services back to the config file.
func (r *Runner) persistTokens(svcs ...services.Service) {
	for _, svc := range svcs {
		ts, ok := svc.(tokenSource)
		if !ok {
			continue
		}
		token, err := ts.Token()
		if err != nil {
			continue
		}
		if err := r.saveTokens(svc.Platform(), token); err != nil {
			r.logger.Warn("failed to persist tokens", "platform", svc.Platform(), "error", err)
		}
	}
}

// saveTokens stores token in the credentials of p and saves the config when a path is set.
func (r *Runner) saveTokens(p models.Platform, token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("config is nil")
	}
	if token == nil {
		return fmt.Errorf("failed to update %s configuration: token cannot be nil", p)
	}

	switch p {
	case models.Spotify:
		r.config.Credentials.Spotify.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			r.config.Credentials.Spotify.RefreshToken = token.RefreshToken
		}
	case models.Tidal:
		r.config.Credentials.Tidal.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			r.config.Credentials.Tidal.RefreshToken = token.RefreshToken
		}
	default:
		return fmt.Errorf("%w: %s does not use OAuth tokens", shared.ErrInvalidArgument, p)
	}

	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain("\n"+format+"\n", args...)
}
