package paging

import (
	"github.com/illmade-knight/go-catalog/pkg/catalog"
)

// Page is one bounded batch of characters loaded for a cursor under one
// filter set. PrevKey and NextKey are nil when no page exists in that
// direction; a nil NextKey truncates forward pagination.
type Page struct {
	Characters []catalog.Character
	PrevKey    *int
	NextKey    *int
}

// RefreshKey derives the cursor to reload from after an invalidation, given
// the loaded page closest to the consumer's visible position. It prefers the
// page after PrevKey, falls back to the page before NextKey, and returns nil
// (reload from the start) when neither is known.
func RefreshKey(closest *Page) *int {
	if closest == nil {
		return nil
	}
	if closest.PrevKey != nil {
		key := *closest.PrevKey + 1
		return &key
	}
	if closest.NextKey != nil {
		key := *closest.NextKey - 1
		return &key
	}
	return nil
}
