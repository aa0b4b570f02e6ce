package cachestore

import (
	"context"
	"strings"
	"sync"

	"github.com/illmade-knight/go-catalog/pkg/catalog"
)

// InMemoryStore is a thread-safe, in-memory Store implementation. It is the
// default backend: both caches live for the process lifetime and nothing is
// evicted automatically.
type InMemoryStore struct {
	mu         sync.RWMutex
	pages      map[string][]catalog.Character
	characters map[int]catalog.Character
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		pages:      make(map[string][]catalog.Character),
		characters: make(map[int]catalog.Character),
	}
}

// GetPage retrieves a cached page by key.
func (s *InMemoryStore) GetPage(_ context.Context, key string) ([]catalog.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, ok := s.pages[key]
	if !ok {
		return nil, ErrNotFound
	}
	// Copy so callers cannot mutate the cached entry.
	out := make([]catalog.Character, len(page))
	copy(out, page)
	return out, nil
}

// PutPage stores a page and upserts each of its characters.
func (s *InMemoryStore) PutPage(_ context.Context, key string, characters []catalog.Character) error {
	stored := make([]catalog.Character, len(characters))
	copy(stored, characters)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pages[key] = stored
	for _, character := range stored {
		s.characters[character.ID] = character
	}
	return nil
}

// GetCharacter retrieves the most recently observed character by id.
func (s *InMemoryStore) GetCharacter(_ context.Context, id int) (catalog.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	character, ok := s.characters[id]
	if !ok {
		return catalog.Character{}, ErrNotFound
	}
	return character, nil
}

// PutCharacter upserts a single character.
func (s *InMemoryStore) PutCharacter(_ context.Context, character catalog.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.characters[character.ID] = character
	return nil
}

// InvalidateByFilter removes exactly the pages cached under the given filter
// set, leaving the character cache and other filter sets untouched.
func (s *InMemoryStore) InvalidateByFilter(_ context.Context, filters catalog.Filters) error {
	prefix := filters.PageKeyPrefix()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.pages {
		if strings.HasPrefix(key, prefix) {
			delete(s.pages, key)
		}
	}
	return nil
}

// Clear empties both caches.
func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pages = make(map[string][]catalog.Character)
	s.characters = make(map[int]catalog.Character)
	return nil
}

// SnapshotCharacters concatenates every cached page's characters.
func (s *InMemoryStore) SnapshotCharacters(_ context.Context) ([]catalog.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []catalog.Character
	for _, page := range s.pages {
		out = append(out, page...)
	}
	return out, nil
}

// HasPages reports whether any page is cached.
func (s *InMemoryStore) HasPages(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.pages) > 0, nil
}
