package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ZaguanLabs/newslate"
)

// FileStore persists the preference as a small JSON document.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type fileState struct {
	Language  string    `json:"language"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewFileStore returns a store backed by path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFilePath returns the per-user preference file,
// e.g. ~/.config/newslate/preferences.json.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, newslate.Name, "preferences.json"), nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the stored code. A missing file means nothing is stored.
func (s *FileStore) Load(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read preferences: %w", err)
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return "", false, fmt.Errorf("parse preferences %s: %w", s.path, err)
	}
	if state.Language == "" {
		return "", false, nil
	}
	return state.Language, true, nil
}

// Save writes code, replacing the file atomically.
func (s *FileStore) Save(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(fileState{Language: code, UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}

var _ newslate.PreferenceStore = (*FileStore)(nil)
