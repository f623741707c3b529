package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"traffic/models"
)

// FileStore keeps the location list in a JSON file under a data directory.
type FileStore struct {
	path string
}

// NewFileStore creates the data directory if needed and returns a store
// writing to <dir>/locations.json.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, ObjectName)}, nil
}

func (s *FileStore) Load(_ context.Context) ([]*models.Location, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*models.Location{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var locations []*models.Location
	if err := json.Unmarshal(data, &locations); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return locations, nil
}

func (s *FileStore) Save(_ context.Context, locations []*models.Location) error {
	data, err := json.MarshalIndent(locations, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal locations: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}
