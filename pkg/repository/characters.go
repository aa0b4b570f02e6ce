package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-catalog/pkg/cachestore"
	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/illmade-knight/go-catalog/pkg/paging"
)

// Characters is the default CharactersRepository implementation. It
// orchestrates the paging source and the shared cache store behind the
// capability interface.
type Characters struct {
	api    CatalogAPI
	store  cachestore.Store
	logger zerolog.Logger
}

// NewCharacters creates a characters repository.
func NewCharacters(api CatalogAPI, store cachestore.Store, logger zerolog.Logger) (*Characters, error) {
	if api == nil {
		return nil, fmt.Errorf("api cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	return &Characters{
		api:    api,
		store:  store,
		logger: logger.With().Str("component", "CharactersRepository").Logger(),
	}, nil
}

// PagedStream starts a fresh paging session for the given filter set.
func (r *Characters) PagedStream(filters catalog.Filters) (*paging.Session, error) {
	source, err := paging.NewSource(r.api, r.store, filters, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create paging source: %w", err)
	}
	return paging.NewSession(source, r.logger), nil
}

// CachedSnapshot filters every cached character by the given predicates.
func (r *Characters) CachedSnapshot(ctx context.Context, filters catalog.Filters) ([]catalog.Character, error) {
	all, err := r.store.SnapshotCharacters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot cache: %w", err)
	}

	matched := make([]catalog.Character, 0, len(all))
	for _, character := range all {
		if filters.Matches(character) {
			matched = append(matched, character)
		}
	}
	return matched, nil
}

// HasAnyCachedData reports whether the page cache is non-empty.
func (r *Characters) HasAnyCachedData(ctx context.Context) bool {
	has, err := r.store.HasPages(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to check page cache, reporting empty.")
		return false
	}
	return has
}

// ObserveCharacter serves the cached character when present, otherwise
// attempts a single network fetch.
func (r *Characters) ObserveCharacter(ctx context.Context, id int) (*catalog.Character, error) {
	cached, err := r.store.GetCharacter(ctx, id)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cachestore.ErrNotFound) {
		r.logger.Warn().Err(err).Int("character_id", id).Msg("Character cache read failed, treating as miss.")
	}
	return r.RefreshCharacter(ctx, id)
}

// RefreshCharacter forces a network fetch for one character and updates the
// character cache. Transport failures propagate; no stale value is
// substituted at this granularity.
func (r *Characters) RefreshCharacter(ctx context.Context, id int) (*catalog.Character, error) {
	character, err := r.api.Character(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch character %d: %w", id, err)
	}
	if err := r.store.PutCharacter(ctx, *character); err != nil {
		r.logger.Warn().Err(err).Int("character_id", id).Msg("Failed to cache refreshed character.")
	}
	return character, nil
}

// Invalidate removes every page cached under the given filter set.
func (r *Characters) Invalidate(ctx context.Context, filters catalog.Filters) error {
	return r.store.InvalidateByFilter(ctx, filters)
}

// InvalidateAll empties both caches.
func (r *Characters) InvalidateAll(ctx context.Context) error {
	return r.store.Clear(ctx)
}
