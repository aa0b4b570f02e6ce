package paging

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-catalog/pkg/catalog"
)

// ErrNoMorePages is returned by Session.Next once forward pagination is
// exhausted.
var ErrNoMorePages = errors.New("paging: no more pages")

// Session is one lazy, pull-based sequence of pages tied to one filter set.
// Pages are loaded on demand; a failed load does not advance the cursor, so
// the same page can be retried. Reset restarts the sequence from the first
// page. A Session is safe for use by a single consumer at a time; the
// controller serializes access to it.
type Session struct {
	source *Source
	logger zerolog.Logger

	mu        sync.Mutex
	exhausted bool
	nextKey   *int
}

// NewSession creates a fresh paging session over the given source.
func NewSession(source *Source, logger zerolog.Logger) *Session {
	return &Session{
		source: source,
		logger: logger.With().
			Str("component", "PagingSession").
			Str("session_id", uuid.NewString()).
			Logger(),
	}
}

// Next loads and returns the next page in the sequence. It returns
// ErrNoMorePages once the sequence is exhausted.
func (s *Session) Next(ctx context.Context) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exhausted {
		return nil, ErrNoMorePages
	}

	key := s.nextKey // nil on the first call: load the first page.
	page, err := s.source.Load(ctx, key)
	if err != nil {
		// The cursor is not advanced; the caller may retry this page.
		return nil, err
	}

	s.nextKey = page.NextKey
	if page.NextKey == nil {
		s.exhausted = true
	}
	s.logger.Debug().
		Int("characters", len(page.Characters)).
		Bool("exhausted", s.exhausted).
		Msg("Loaded page.")
	return page, nil
}

// Reset restarts the session from the first page.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exhausted = false
	s.nextKey = nil
	s.logger.Debug().Msg("Session reset.")
}

// Filters returns the filter set the session is bound to.
func (s *Session) Filters() catalog.Filters {
	return s.source.Filters()
}
