package repository

import (
	"context"

	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/illmade-knight/go-catalog/pkg/paging"
)

// CatalogAPI is the upstream client surface the repository depends on.
type CatalogAPI interface {
	paging.CharactersAPI
	Character(ctx context.Context, id int) (*catalog.Character, error)
}

// CharactersRepository is the capability interface consumed by the search
// controller and any other screen-level consumer.
type CharactersRepository interface {
	// PagedStream starts a fresh paging session for the given filter set.
	// Changing filters must start a new session, never mutate an existing one.
	PagedStream(filters catalog.Filters) (*paging.Session, error)
	// CachedSnapshot synchronously filters every cached character by the
	// same predicates the upstream applies. It never touches the network.
	CachedSnapshot(ctx context.Context, filters catalog.Filters) ([]catalog.Character, error)
	// HasAnyCachedData reports whether the page cache holds anything at all.
	// It is a coarse signal, not filter-specific.
	HasAnyCachedData(ctx context.Context) bool
	// ObserveCharacter returns the cached character if present, otherwise
	// attempts a single network fetch. A fetch failure propagates so the
	// consumer can render absence with a retry affordance.
	ObserveCharacter(ctx context.Context, id int) (*catalog.Character, error)
	// RefreshCharacter forces a network fetch for one character, updating the
	// character cache on success. Failures propagate to the caller.
	RefreshCharacter(ctx context.Context, id int) (*catalog.Character, error)
	// Invalidate removes every page cached under the given filter set.
	Invalidate(ctx context.Context, filters catalog.Filters) error
	// InvalidateAll empties both caches.
	InvalidateAll(ctx context.Context) error
}
