package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that take precedence over the config file.
const (
	EnvSpotifyClientID     = "PLSYNC_SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "PLSYNC_SPOTIFY_CLIENT_SECRET"
	EnvTidalClientID       = "PLSYNC_TIDAL_CLIENT_ID"
	EnvTidalClientSecret   = "PLSYNC_TIDAL_CLIENT_SECRET"
	EnvYouTubeProxyURL     = "PLSYNC_YOUTUBE_PROXY_URL"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Sync        SyncConfig        `toml:"sync"`
	Debug       DebugConfig       `toml:"debug"`
	Log         LogConfig         `toml:"log"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// SyncConfig holds the defaults for sync runs. Command flags override them.
type SyncConfig struct {
	LikeAll          bool `toml:"like_all"`
	SyncLikes        bool `toml:"sync_likes"`
	AllowCrossRegion bool `toml:"allow_cross_region"`
	DryRun           bool `toml:"dry_run"`
	FetchConcurrency int  `toml:"fetch_concurrency"`
}

// DebugConfig controls the JSON statistics dumps.
type DebugConfig struct {
	Enabled   bool   `toml:"enabled"`
	OutputDir string `toml:"output_dir"`
}

// LogConfig sets the log level name (debug, info, warn, error).
type LogConfig struct {
	Level string `toml:"level"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
	Tidal   TidalConfig   `toml:"tidal"`
}

// SpotifyConfig contains Spotify API credentials and stored tokens.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
}

// Map returns the credentials in the form accepted by the Spotify adapter.
func (c SpotifyConfig) Map() map[string]string {
	return compact(map[string]string{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"redirect_uri":  c.RedirectURI,
		"access_token":  c.AccessToken,
		"refresh_token": c.RefreshToken,
	})
}

// YouTubeConfig contains YouTube Music proxy settings.
type YouTubeConfig struct {
	ProxyURL    string `toml:"proxy_url"`
	HeadersPath string `toml:"headers_path"`
}

// Map returns the credentials in the form accepted by the YouTube adapter.
func (c YouTubeConfig) Map() map[string]string {
	return compact(map[string]string{"headers_path": c.HeadersPath})
}

// TidalConfig contains Tidal API credentials and stored tokens.
type TidalConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
}

// Map returns the credentials in the form accepted by the Tidal adapter.
func (c TidalConfig) Map() map[string]string {
	return compact(map[string]string{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"access_token":  c.AccessToken,
		"refresh_token": c.RefreshToken,
	})
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port for the callback listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks values that would make a run misbehave.
func (c *Config) Validate() error {
	if c.Sync.FetchConcurrency < 0 {
		return fmt.Errorf("%w: sync.fetch_concurrency must not be negative", ErrInvalidConfig)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range", ErrInvalidConfig)
	}
	return nil
}

// ApplyEnv overrides credentials with any PLSYNC_* variables set in the environment.
func (c *Config) ApplyEnv() {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	override(&c.Credentials.Spotify.ClientID, EnvSpotifyClientID)
	override(&c.Credentials.Spotify.ClientSecret, EnvSpotifyClientSecret)
	override(&c.Credentials.Tidal.ClientID, EnvTidalClientID)
	override(&c.Credentials.Tidal.ClientSecret, EnvTidalClientSecret)
	override(&c.Credentials.YouTube.ProxyURL, EnvYouTubeProxyURL)
}

// LoadEnv loads .env files into the process environment. Missing files are ignored and
// variables already set are never overwritten.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// SaveConfig encodes config as TOML and writes it to path with owner-only permissions,
// since it may hold OAuth tokens.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func compact(m map[string]string) map[string]string {
	for k, v := range m {
		if v == "" {
			delete(m, k)
		}
	}
	return m
}
