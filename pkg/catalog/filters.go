package catalog

import (
	"net/url"
	"strconv"
	"strings"
)

// pageKeySeparator joins a filter key with its page suffix. QueryKey
// percent-escapes every field value, so a literal '#' can never appear inside
// a filter key. That keeps page keys for one filter set out of the prefix
// range of any other filter set.
const pageKeySeparator = "#page="

// Filters holds the optional predicates a consumer can apply to the catalog.
// A blank field imposes no constraint. Filters are compared by value; two
// values with identical fields are the same filter set.
type Filters struct {
	Name    string `json:"name,omitempty"`
	Status  string `json:"status,omitempty"`
	Species string `json:"species,omitempty"`
	Gender  string `json:"gender,omitempty"`
}

// QueryKey returns the deterministic string encoding of the filter set, used
// to partition the page cache. Field values are percent-escaped before being
// joined, so values containing separator characters cannot collide with a
// different filter set.
func (f Filters) QueryKey() string {
	var b strings.Builder
	b.WriteString("name=")
	b.WriteString(url.QueryEscape(f.Name))
	b.WriteString("&status=")
	b.WriteString(url.QueryEscape(f.Status))
	b.WriteString("&species=")
	b.WriteString(url.QueryEscape(f.Species))
	b.WriteString("&gender=")
	b.WriteString(url.QueryEscape(f.Gender))
	return b.String()
}

// PageKey returns the cache key for one page fetched under this filter set.
func (f Filters) PageKey(page int) string {
	return f.QueryKey() + pageKeySeparator + strconv.Itoa(page)
}

// PageKeyPrefix returns the prefix shared by every page key of this filter
// set and by no page key of any other filter set.
func (f Filters) PageKeyPrefix() string {
	return f.QueryKey() + pageKeySeparator
}

// HasActiveFilters reports whether any predicate is non-blank.
func (f Filters) HasActiveFilters() bool {
	return strings.TrimSpace(f.Name) != "" ||
		strings.TrimSpace(f.Status) != "" ||
		strings.TrimSpace(f.Species) != "" ||
		strings.TrimSpace(f.Gender) != ""
}

// Matches reports whether a character satisfies every active predicate.
// Name and species match by case-insensitive substring, status and gender by
// case-insensitive equality. Blank predicates always match.
func (f Filters) Matches(c Character) bool {
	if !containsFold(c.Name, f.Name) {
		return false
	}
	if !equalsFold(c.Status, f.Status) {
		return false
	}
	if !containsFold(c.Species, f.Species) {
		return false
	}
	return equalsFold(c.Gender, f.Gender)
}

func containsFold(value, predicate string) bool {
	predicate = strings.TrimSpace(predicate)
	if predicate == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(predicate))
}

func equalsFold(value, predicate string) bool {
	predicate = strings.TrimSpace(predicate)
	if predicate == "" {
		return true
	}
	return strings.EqualFold(value, predicate)
}
