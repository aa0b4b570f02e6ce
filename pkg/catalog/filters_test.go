package catalog_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-catalog/pkg/catalog"
)

func TestFilters_QueryKey(t *testing.T) {
	t.Run("Deterministic for equal values", func(t *testing.T) {
		f1 := catalog.Filters{Name: "Rick", Status: "alive"}
		f2 := catalog.Filters{Name: "Rick", Status: "alive"}

		assert.Equal(t, f1.QueryKey(), f2.QueryKey())
	})

	t.Run("Differing fields produce differing keys", func(t *testing.T) {
		base := catalog.Filters{Name: "Rick", Status: "alive", Species: "Human", Gender: "male"}
		variants := []catalog.Filters{
			{},
			{Name: "Rick"},
			{Name: "rick", Status: "alive", Species: "Human", Gender: "male"},
			{Name: "Rick", Status: "dead", Species: "Human", Gender: "male"},
			{Name: "Rick", Status: "alive", Species: "Alien", Gender: "male"},
			{Name: "Rick", Status: "alive", Species: "Human", Gender: "female"},
		}

		seen := map[string]struct{}{base.QueryKey(): {}}
		for _, v := range variants {
			key := v.QueryKey()
			_, dup := seen[key]
			assert.False(t, dup, "key collision for %+v", v)
			seen[key] = struct{}{}
		}
	})

	t.Run("Separator tokens in values cannot forge a different filter set", func(t *testing.T) {
		// A name containing the joined encoding of another filter set must
		// still produce a distinct key.
		forged := catalog.Filters{Name: "a&status=b"}
		honest := catalog.Filters{Name: "a", Status: "b"}

		assert.NotEqual(t, honest.QueryKey(), forged.QueryKey())
	})

	t.Run("Page keys extend the filter key", func(t *testing.T) {
		f := catalog.Filters{Status: "alive"}

		key := f.PageKey(3)

		require.True(t, strings.HasPrefix(key, f.QueryKey()))
		require.True(t, strings.HasPrefix(key, f.PageKeyPrefix()))
	})

	t.Run("Prefix ranges of different filter sets never overlap", func(t *testing.T) {
		// "m" is a proper prefix of "ma"; without the page separator the
		// shorter filter's prefix range would swallow the longer one's pages.
		short := catalog.Filters{Gender: "m"}
		long := catalog.Filters{Gender: "ma"}

		assert.False(t, strings.HasPrefix(long.PageKey(1), short.PageKeyPrefix()))

		// Values containing the literal page separator cannot collide either.
		sneaky := catalog.Filters{Gender: "m#page=1"}
		assert.False(t, strings.HasPrefix(sneaky.QueryKey(), short.PageKeyPrefix()))
	})
}

func TestFilters_HasActiveFilters(t *testing.T) {
	assert.False(t, catalog.Filters{}.HasActiveFilters())
	assert.False(t, catalog.Filters{Name: "   "}.HasActiveFilters())
	assert.True(t, catalog.Filters{Name: "Rick"}.HasActiveFilters())
	assert.True(t, catalog.Filters{Gender: "female"}.HasActiveFilters())
}

func TestFilters_Matches(t *testing.T) {
	rick := catalog.Character{ID: 1, Name: "Rick Sanchez", Status: "Alive", Species: "Human", Gender: "Male"}
	morty := catalog.Character{ID: 2, Name: "Morty Smith", Status: "Alive", Species: "Human", Gender: "Male"}

	t.Run("Blank filters match everything", func(t *testing.T) {
		assert.True(t, catalog.Filters{}.Matches(rick))
		assert.True(t, catalog.Filters{}.Matches(morty))
	})

	t.Run("Name matches by case-insensitive substring", func(t *testing.T) {
		f := catalog.Filters{Name: "rick"}

		assert.True(t, f.Matches(rick))
		assert.False(t, f.Matches(morty))
	})

	t.Run("Status matches exactly, ignoring case", func(t *testing.T) {
		assert.True(t, catalog.Filters{Status: "alive"}.Matches(rick))
		assert.False(t, catalog.Filters{Status: "aliv"}.Matches(rick))
	})

	t.Run("Species matches by substring", func(t *testing.T) {
		assert.True(t, catalog.Filters{Species: "hum"}.Matches(rick))
		assert.False(t, catalog.Filters{Species: "alien"}.Matches(rick))
	})

	t.Run("Gender matches exactly, ignoring case", func(t *testing.T) {
		assert.True(t, catalog.Filters{Gender: "MALE"}.Matches(rick))
		assert.False(t, catalog.Filters{Gender: "fem"}.Matches(rick))
	})

	t.Run("Predicates combine with AND", func(t *testing.T) {
		f := catalog.Filters{Name: "Rick", Status: "dead"}

		assert.False(t, f.Matches(rick))
	})
}
