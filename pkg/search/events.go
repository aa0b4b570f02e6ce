package search

import (
	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/illmade-knight/go-catalog/pkg/paging"
)

// InstantResult is a cache-derived, zero-latency result set published
// synchronously on every filter edit. OK is false when instant results are
// suppressed because the cache held nothing relevant, which is distinct from
// an empty committed page.
type InstantResult struct {
	Characters []catalog.Character
	OK         bool
}

// PageEvent is one page of output from the committed paged session. When a
// page load fails, Err is set and Page is empty; the event stream itself
// never terminates on an error.
type PageEvent struct {
	Filters catalog.Filters
	Page    paging.Page
	Err     error
}
