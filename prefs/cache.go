package prefs

import (
	"context"

	"github.com/ZaguanLabs/newslate"
)

// CacheStore keeps one session's preference in a TranslationCache, so
// sessions share the cache's TTL and size bound.
type CacheStore struct {
	cache newslate.TranslationCache
	key   string
}

// NewCacheStore returns the store for session.
func NewCacheStore(c newslate.TranslationCache, session string) *CacheStore {
	return &CacheStore{cache: c, key: SessionKey(session)}
}

// Load returns the session's stored code.
func (s *CacheStore) Load(ctx context.Context) (string, bool, error) {
	code, ok := s.cache.Get(s.key)
	return code, ok && code != "", nil
}

// Save stores code.
func (s *CacheStore) Save(ctx context.Context, code string) error {
	if err := s.cache.Set(s.key, code); err != nil {
		return &newslate.CacheError{Message: "save language preference", Cause: err}
	}
	return nil
}

var _ newslate.PreferenceStore = (*CacheStore)(nil)
