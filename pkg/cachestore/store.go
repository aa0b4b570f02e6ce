package cachestore

import (
	"context"
	"errors"

	"github.com/illmade-knight/go-catalog/pkg/catalog"
)

// ErrNotFound is returned on a cache miss.
var ErrNotFound = errors.New("cachestore: key not found")

// Store is the shared cache consumed by every paging session, single-character
// fetch, and instant-snapshot computation. It maps filter-partitioned page
// keys to ordered character lists, and character ids to the most recently
// observed character value. Writes are visible to all readers immediately;
// there is no versioning and the last writer wins per key.
type Store interface {
	// GetPage returns the cached page for the given key, or ErrNotFound.
	GetPage(ctx context.Context, key string) ([]catalog.Character, error)
	// PutPage inserts or overwrites a page and upserts each of its characters
	// into the character cache.
	PutPage(ctx context.Context, key string, characters []catalog.Character) error
	// GetCharacter returns the most recently observed value for the given id,
	// or ErrNotFound.
	GetCharacter(ctx context.Context, id int) (catalog.Character, error)
	// PutCharacter upserts a single character into the character cache.
	PutCharacter(ctx context.Context, character catalog.Character) error
	// InvalidateByFilter removes every page cached under the given filter set.
	// The character cache is untouched.
	InvalidateByFilter(ctx context.Context, filters catalog.Filters) error
	// Clear empties both the page cache and the character cache.
	Clear(ctx context.Context) error
	// SnapshotCharacters returns the concatenation of every cached page's
	// characters. Ordering across pages is unspecified.
	SnapshotCharacters(ctx context.Context) ([]catalog.Character, error)
	// HasPages reports whether the page cache holds at least one entry.
	HasPages(ctx context.Context) (bool, error)
}
