package paging

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/illmade-knight/go-catalog/pkg/catalogapi"
	"github.com/illmade-knight/go-catalog/pkg/cachestore"
)

// CharactersAPI is the slice of the upstream client a paging source needs.
type CharactersAPI interface {
	Characters(ctx context.Context, page int, f catalog.Filters) (*catalogapi.CharactersPage, error)
}

// Source loads pages for a single filter set with a cache-first strategy:
// a cached page is served immediately; on a miss the upstream is queried and
// the result cached; on an upstream failure the cache is re-checked so
// previously fetched data keeps the consumer responsive.
type Source struct {
	api     CharactersAPI
	store   cachestore.Store
	filters catalog.Filters
	logger  zerolog.Logger
}

// NewSource creates a paging source for one filter set.
func NewSource(api CharactersAPI, store cachestore.Store, filters catalog.Filters, logger zerolog.Logger) (*Source, error) {
	if api == nil {
		return nil, fmt.Errorf("api cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	return &Source{
		api:     api,
		store:   store,
		filters: filters,
		logger:  logger.With().Str("component", "PagingSource").Logger(),
	}, nil
}

// Filters returns the filter set this source loads pages for.
func (s *Source) Filters() catalog.Filters {
	return s.filters
}

// Load resolves one page request. A nil key requests the first page.
//
// A cache hit never knows the true upstream end-of-pagination signal, so it
// always offers a next key. A network success derives the next key from the
// upstream page info. A network failure falls back to the cache with a nil
// next key; only a cold miss plus failure surfaces an error.
func (s *Source) Load(ctx context.Context, key *int) (*Page, error) {
	page := 1
	if key != nil {
		page = *key
	}
	cacheKey := s.filters.PageKey(page)

	if cached, err := s.store.GetPage(ctx, cacheKey); err == nil {
		// Re-upsert so the character cache reflects everything served.
		for _, character := range cached {
			if err := s.store.PutCharacter(ctx, character); err != nil {
				s.logger.Warn().Err(err).Int("character_id", character.ID).Msg("Failed to upsert character from cached page.")
			}
		}
		s.logger.Debug().Str("key", cacheKey).Msg("Page cache hit.")
		return &Page{
			Characters: cached,
			PrevKey:    prevKey(page),
			NextKey:    intPtr(page + 1),
		}, nil
	} else if !errors.Is(err, cachestore.ErrNotFound) {
		s.logger.Warn().Err(err).Str("key", cacheKey).Msg("Page cache read failed, treating as miss.")
	}

	response, fetchErr := s.api.Characters(ctx, page, s.filters)
	if fetchErr != nil {
		// A racing request may have populated the cache since our first look.
		if cached, err := s.store.GetPage(ctx, cacheKey); err == nil {
			s.logger.Info().Err(fetchErr).Str("key", cacheKey).Msg("Upstream fetch failed, serving stale cached page.")
			return &Page{
				Characters: cached,
				PrevKey:    prevKey(page),
				NextKey:    nil,
			}, nil
		}
		s.logger.Error().Err(fetchErr).Str("key", cacheKey).Msg("Upstream fetch failed with no cached fallback.")
		return nil, fmt.Errorf("failed to load page %d: %w", page, fetchErr)
	}

	if err := s.store.PutPage(ctx, cacheKey, response.Characters); err != nil {
		s.logger.Warn().Err(err).Str("key", cacheKey).Msg("Failed to cache fetched page.")
	}

	var next *int
	if response.Info.HasNext() {
		next = intPtr(page + 1)
	}
	return &Page{
		Characters: response.Characters,
		PrevKey:    prevKey(page),
		NextKey:    next,
	}, nil
}

func prevKey(page int) *int {
	if page <= 1 {
		return nil
	}
	return intPtr(page - 1)
}

func intPtr(v int) *int {
	return &v
}
