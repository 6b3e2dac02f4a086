package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
)

// WriteSnapshot encodes playlists as an indented JSON array.
func WriteSnapshot(w io.Writer, playlists []models.Playlist) error {
	data, err := shared.MarshalJSON(playlists, true)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a JSON array of playlists.
func ReadSnapshot(r io.Reader) ([]models.Playlist, error) {
	var playlists []models.Playlist
	if err := json.NewDecoder(r).Decode(&playlists); err != nil {
		return nil, fmt.Errorf("%w: malformed snapshot: %v", shared.ErrInvalidInput, err)
	}
	return playlists, nil
}

// SaveSnapshot writes playlists to path, creating parent directories.
func SaveSnapshot(path string, playlists []models.Playlist) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer f.Close()
	return WriteSnapshot(f, playlists)
}

// LoadSnapshot reads the snapshot at path.
func LoadSnapshot(path string) ([]models.Playlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}
