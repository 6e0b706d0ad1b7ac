// Package prefs provides PreferenceStore implementations for the reader's
// language choice.
package prefs

import (
	"context"
	"sync"

	"github.com/ZaguanLabs/newslate"
)

// MemoryStore keeps a preference in memory. The zero value is empty and
// ready to use.
type MemoryStore struct {
	mu   sync.RWMutex
	code string
	set  bool
}

// NewMemoryStore returns a store preloaded with code. An empty code means
// nothing is stored.
func NewMemoryStore(code string) *MemoryStore {
	return &MemoryStore{code: code, set: code != ""}
}

// Load returns the stored code.
func (s *MemoryStore) Load(ctx context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.code, s.set, nil
}

// Save stores code.
func (s *MemoryStore) Save(ctx context.Context, code string) error {
	s.mu.Lock()
	s.code = code
	s.set = true
	s.mu.Unlock()
	return nil
}

var _ newslate.PreferenceStore = (*MemoryStore)(nil)
