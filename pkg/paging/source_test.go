package paging_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-catalog/pkg/cachestore"
	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/illmade-knight/go-catalog/pkg/catalogapi"
	"github.com/illmade-knight/go-catalog/pkg/paging"
)

// mockAPI is a test double for the upstream client.
type mockAPI struct {
	CharactersFunc func(ctx context.Context, page int, f catalog.Filters) (*catalogapi.CharactersPage, error)
	calls          atomic.Int32
}

func (m *mockAPI) Characters(ctx context.Context, page int, f catalog.Filters) (*catalogapi.CharactersPage, error) {
	m.calls.Add(1)
	if m.CharactersFunc != nil {
		return m.CharactersFunc(ctx, page, f)
	}
	return nil, errors.New("mock api not implemented")
}

func pageWithNext(characters ...catalog.Character) *catalogapi.CharactersPage {
	next := "https://example.com/api/character?page=2"
	return &catalogapi.CharactersPage{
		Info:       catalogapi.PageInfo{Count: len(characters), Pages: 2, Next: &next},
		Characters: characters,
	}
}

var (
	rick  = catalog.Character{ID: 1, Name: "Rick Sanchez", Status: "Alive"}
	morty = catalog.Character{ID: 2, Name: "Morty Smith", Status: "Alive"}
)

func TestSource_Load(t *testing.T) {
	ctx := context.Background()
	alive := catalog.Filters{Status: "alive"}

	t.Run("Network success caches the page and its characters", func(t *testing.T) {
		// Arrange
		store := cachestore.NewInMemoryStore()
		api := &mockAPI{CharactersFunc: func(_ context.Context, page int, f catalog.Filters) (*catalogapi.CharactersPage, error) {
			assert.Equal(t, 1, page)
			assert.Equal(t, alive, f)
			return pageWithNext(rick, morty), nil
		}}
		source, err := paging.NewSource(api, store, alive, zerolog.Nop())
		require.NoError(t, err)

		// Act: a nil key requests the first page.
		page, err := source.Load(ctx, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []catalog.Character{rick, morty}, page.Characters)
		assert.Nil(t, page.PrevKey)
		require.NotNil(t, page.NextKey)
		assert.Equal(t, 2, *page.NextKey)

		cached, err := store.GetPage(ctx, alive.PageKey(1))
		require.NoError(t, err)
		assert.Len(t, cached, 2)

		cachedRick, err := store.GetCharacter(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Rick Sanchez", cachedRick.Name)
	})

	t.Run("Upstream end signal truncates the next key", func(t *testing.T) {
		store := cachestore.NewInMemoryStore()
		api := &mockAPI{CharactersFunc: func(context.Context, int, catalog.Filters) (*catalogapi.CharactersPage, error) {
			return &catalogapi.CharactersPage{
				Info:       catalogapi.PageInfo{Count: 1, Pages: 1, Next: nil},
				Characters: []catalog.Character{rick},
			}, nil
		}}
		source, err := paging.NewSource(api, store, alive, zerolog.Nop())
		require.NoError(t, err)

		page, err := source.Load(ctx, nil)

		require.NoError(t, err)
		assert.Nil(t, page.NextKey)
	})

	t.Run("Cache hit never issues a network call", func(t *testing.T) {
		// Arrange: pre-populated page cache but an empty character cache.
		store := cachestore.NewInMemoryStore()
		require.NoError(t, store.PutPage(ctx, alive.PageKey(1), []catalog.Character{rick, morty}))
		api := &mockAPI{}
		source, err := paging.NewSource(api, store, alive, zerolog.Nop())
		require.NoError(t, err)

		// Act
		page, err := source.Load(ctx, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []catalog.Character{rick, morty}, page.Characters)
		assert.Equal(t, int32(0), api.calls.Load(), "cache hit must not reach the network")

		// A cache hit cannot know the true end of pagination, so it always
		// offers a next key.
		require.NotNil(t, page.NextKey)
		assert.Equal(t, 2, *page.NextKey)
	})

	t.Run("Cache hit reports a previous key beyond the first page", func(t *testing.T) {
		store := cachestore.NewInMemoryStore()
		require.NoError(t, store.PutPage(ctx, alive.PageKey(3), []catalog.Character{rick}))
		source, err := paging.NewSource(&mockAPI{}, store, alive, zerolog.Nop())
		require.NoError(t, err)

		key := 3
		page, err := source.Load(ctx, &key)

		require.NoError(t, err)
		require.NotNil(t, page.PrevKey)
		assert.Equal(t, 2, *page.PrevKey)
		require.NotNil(t, page.NextKey)
		assert.Equal(t, 4, *page.NextKey)
	})

	t.Run("Network failure falls back to a racing cached page", func(t *testing.T) {
		// Arrange: the first cache read misses, the fetch fails, and the
		// fallback re-check finds a page populated by a racing request.
		populated := cachestore.NewInMemoryStore()
		require.NoError(t, populated.PutPage(ctx, alive.PageKey(1), []catalog.Character{rick, morty}))
		api := &mockAPI{CharactersFunc: func(context.Context, int, catalog.Filters) (*catalogapi.CharactersPage, error) {
			return nil, errors.New("network is down")
		}}
		fallbackStore := &racingStore{Store: cachestore.NewInMemoryStore(), fallback: populated}
		source, err := paging.NewSource(api, fallbackStore, alive, zerolog.Nop())
		require.NoError(t, err)

		// Act
		page, err := source.Load(ctx, nil)

		// Assert: the stale page is served and forward pagination truncated.
		require.NoError(t, err)
		assert.Equal(t, []catalog.Character{rick, morty}, page.Characters)
		assert.Nil(t, page.NextKey)
		assert.Nil(t, page.PrevKey)
	})

	t.Run("Cold miss plus network failure is an explicit error", func(t *testing.T) {
		store := cachestore.NewInMemoryStore()
		networkErr := errors.New("network is down")
		api := &mockAPI{CharactersFunc: func(context.Context, int, catalog.Filters) (*catalogapi.CharactersPage, error) {
			return nil, networkErr
		}}
		source, err := paging.NewSource(api, store, alive, zerolog.Nop())
		require.NoError(t, err)

		_, err = source.Load(ctx, nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, networkErr)
	})

	t.Run("Cached page already present is served after a failure too", func(t *testing.T) {
		// A page cached before the request still serves on the hit path even
		// when the network would fail.
		store := cachestore.NewInMemoryStore()
		require.NoError(t, store.PutPage(ctx, alive.PageKey(1), []catalog.Character{rick}))
		api := &mockAPI{CharactersFunc: func(context.Context, int, catalog.Filters) (*catalogapi.CharactersPage, error) {
			return nil, errors.New("network is down")
		}}
		source, err := paging.NewSource(api, store, alive, zerolog.Nop())
		require.NoError(t, err)

		page, err := source.Load(ctx, nil)

		require.NoError(t, err)
		assert.Len(t, page.Characters, 1)
		assert.Equal(t, int32(0), api.calls.Load())
	})
}

// racingStore misses on the first page read and delegates to the fallback
// store afterwards, modelling a cache populated by a racing request while a
// network fetch was failing.
type racingStore struct {
	cachestore.Store
	fallback cachestore.Store
	reads    atomic.Int32
}

func (r *racingStore) GetPage(ctx context.Context, key string) ([]catalog.Character, error) {
	if r.reads.Add(1) == 1 {
		return nil, cachestore.ErrNotFound
	}
	return r.fallback.GetPage(ctx, key)
}

func TestNewSource(t *testing.T) {
	store := cachestore.NewInMemoryStore()

	_, err := paging.NewSource(nil, store, catalog.Filters{}, zerolog.Nop())
	require.Error(t, err)

	_, err = paging.NewSource(&mockAPI{}, nil, catalog.Filters{}, zerolog.Nop())
	require.Error(t, err)
}

func TestRefreshKey(t *testing.T) {
	one, three := 1, 3

	t.Run("Prefers the page after the previous key", func(t *testing.T) {
		key := paging.RefreshKey(&paging.Page{PrevKey: &one, NextKey: &three})

		require.NotNil(t, key)
		assert.Equal(t, 2, *key)
	})

	t.Run("Falls back to the page before the next key", func(t *testing.T) {
		key := paging.RefreshKey(&paging.Page{NextKey: &three})

		require.NotNil(t, key)
		assert.Equal(t, 2, *key)
	})

	t.Run("No anchor means reload from the start", func(t *testing.T) {
		assert.Nil(t, paging.RefreshKey(nil))
		assert.Nil(t, paging.RefreshKey(&paging.Page{}))
	})
}
