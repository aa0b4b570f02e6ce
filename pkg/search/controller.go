package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/illmade-knight/go-catalog/pkg/paging"
	"github.com/illmade-knight/go-catalog/pkg/repository"
)

// DefaultDebounce is the quiet period applied to the filter edit stream
// before a new paged session is committed.
const DefaultDebounce = 500 * time.Millisecond

const defaultEventBuffer = 16

// Config holds configuration for a Controller.
type Config struct {
	// Debounce is the quiet period before a filter edit commits.
	Debounce time.Duration `yaml:"debounce"`
	// EventBuffer is the capacity of the page event channel.
	EventBuffer int `yaml:"event_buffer"`
}

// Controller mediates between a rapid stream of filter edits and the paged
// result stream. Every edit synchronously publishes an instant cache-derived
// snapshot; after the debounce quiet period the settled filter value commits
// a fresh paged session. At most one session is live: committing cancels the
// previous session and waits for it to exit before the next one starts, so no
// output computed under superseded filters is ever delivered after a newer
// commit.
type Controller struct {
	repo     repository.CharactersRepository
	debounce time.Duration
	logger   zerolog.Logger

	mu             sync.Mutex
	latestEdit     catalog.Filters
	committed      catalog.Filters
	sessionStarted bool

	editSignal    chan struct{}
	refreshSignal chan struct{}
	moreSignal    chan struct{}
	instant       chan InstantResult
	pages         chan PageEvent

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewController creates a search controller over the given repository.
func NewController(cfg Config, repo repository.CharactersRepository, logger zerolog.Logger) (*Controller, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository cannot be nil")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuffer
	}

	return &Controller{
		repo:          repo,
		debounce:      cfg.Debounce,
		logger:        logger.With().Str("component", "SearchController").Logger(),
		editSignal:    make(chan struct{}, 1),
		refreshSignal: make(chan struct{}, 1),
		moreSignal:    make(chan struct{}, 1),
		instant:       make(chan InstantResult, 1),
		pages:         make(chan PageEvent, cfg.EventBuffer),
	}, nil
}

// Instant returns the instant snapshot stream. Only the most recent snapshot
// is retained for a slow consumer.
func (c *Controller) Instant() <-chan InstantResult {
	return c.instant
}

// Pages returns the committed paged session's event stream.
func (c *Controller) Pages() <-chan PageEvent {
	return c.pages
}

// CommittedFilters returns the filter value of the current committed session.
func (c *Controller) CommittedFilters() catalog.Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed
}

// Start begins the controller's run loop. The initial (empty) filter value
// commits after one debounce period.
func (c *Controller) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.run(runCtx)

	c.logger.Info().Dur("debounce", c.debounce).Msg("Search controller started.")
	return nil
}

// Stop cancels the live session and shuts the run loop down, respecting the
// provided context's deadline.
func (c *Controller) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info().Msg("Search controller stopped.")
		return nil
	case <-ctx.Done():
		c.logger.Error().Err(ctx.Err()).Msg("Timeout waiting for search controller to stop.")
		return ctx.Err()
	}
}

// UpdateFilters records one filter edit. It synchronously publishes an
// instant snapshot from the cache and schedules a debounced commit. Edits
// equal to the latest pending value are ignored.
func (c *Controller) UpdateFilters(ctx context.Context, filters catalog.Filters) {
	c.mu.Lock()
	if filters == c.latestEdit {
		c.mu.Unlock()
		return
	}
	c.latestEdit = filters
	c.mu.Unlock()

	c.publishInstant(ctx, filters)
	signal(c.editSignal)
}

// Refresh invalidates the cache for the committed filters, clears the
// instant snapshot, and forces the paged session to restart from the first
// page even though the filters did not change.
func (c *Controller) Refresh(ctx context.Context) error {
	committed := c.CommittedFilters()
	if err := c.repo.Invalidate(ctx, committed); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}

	// The paged path becomes authoritative until the next edit.
	sendLatest(c.instant, InstantResult{})
	signal(c.refreshSignal)
	return nil
}

// RequestNextPage asks the live session to load one further page. It is a
// no-op when no session is live or the session is exhausted.
func (c *Controller) RequestNextPage() {
	signal(c.moreSignal)
}

// run owns the debounce timer and the session lifecycle. It is the only
// goroutine that starts or cancels sessions, which is what serializes
// commits.
func (c *Controller) run(ctx context.Context) {
	defer c.wg.Done()

	timer := time.NewTimer(c.debounce)
	defer timer.Stop()

	var runner *sessionRunner
	defer func() {
		if runner != nil {
			runner.stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-c.editSignal:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(c.debounce)

		case <-timer.C:
			c.mu.Lock()
			pending := c.latestEdit
			commit := !c.sessionStarted || pending != c.committed
			c.committed = pending
			c.sessionStarted = true
			c.mu.Unlock()

			if commit {
				runner = c.replaceSession(ctx, runner, pending)
			}

		case <-c.refreshSignal:
			runner = c.replaceSession(ctx, runner, c.CommittedFilters())

		case <-c.moreSignal:
			if runner != nil {
				runner.requestMore()
			}
		}
	}
}

// replaceSession cancels the previous session, waits for it to fully exit,
// and only then starts the replacement. The wait is what guarantees no stale
// output can follow the new session's first event.
func (c *Controller) replaceSession(ctx context.Context, old *sessionRunner, filters catalog.Filters) *sessionRunner {
	if old != nil {
		old.stop()
	}
	return c.startSession(ctx, filters)
}

type sessionRunner struct {
	cancel context.CancelFunc
	done   chan struct{}
	more   chan struct{}
}

func (r *sessionRunner) stop() {
	r.cancel()
	<-r.done
}

func (r *sessionRunner) requestMore() {
	select {
	case r.more <- struct{}{}:
	default:
	}
}

func (c *Controller) startSession(ctx context.Context, filters catalog.Filters) *sessionRunner {
	sessionCtx, cancel := context.WithCancel(ctx)
	runner := &sessionRunner{
		cancel: cancel,
		done:   make(chan struct{}),
		more:   make(chan struct{}, 1),
	}

	go func() {
		defer close(runner.done)

		session, err := c.repo.PagedStream(filters)
		if err != nil {
			c.logger.Error().Err(err).Msg("Failed to start paged session.")
			c.emit(sessionCtx, PageEvent{Filters: filters, Err: err})
			return
		}

		// The first page loads eagerly; further pages load on demand.
		c.loadNext(sessionCtx, filters, session)
		for {
			select {
			case <-sessionCtx.Done():
				return
			case <-runner.more:
				c.loadNext(sessionCtx, filters, session)
			}
		}
	}()

	c.logger.Debug().Interface("filters", filters).Msg("Committed new paged session.")
	return runner
}

// loadNext pulls one page from the session and emits it. Errors are
// substituted with an empty page so the consumer's stream never terminates.
func (c *Controller) loadNext(ctx context.Context, filters catalog.Filters, session *paging.Session) {
	page, err := session.Next(ctx)
	if err != nil {
		if errors.Is(err, paging.ErrNoMorePages) {
			c.logger.Debug().Msg("Paged session exhausted.")
			return
		}
		c.logger.Warn().Err(err).Msg("Page load failed, substituting empty page.")
		c.emit(ctx, PageEvent{Filters: filters, Err: err})
		return
	}
	c.emit(ctx, PageEvent{Filters: filters, Page: *page})
}

// emit delivers an event unless the session has been cancelled.
func (c *Controller) emit(ctx context.Context, event PageEvent) {
	select {
	case <-ctx.Done():
	case c.pages <- event:
	}
}

func (c *Controller) publishInstant(ctx context.Context, filters catalog.Filters) {
	snapshot, err := c.repo.CachedSnapshot(ctx, filters)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to compute instant snapshot, suppressing.")
		sendLatest(c.instant, InstantResult{})
		return
	}
	if len(snapshot) == 0 {
		sendLatest(c.instant, InstantResult{})
		return
	}
	sendLatest(c.instant, InstantResult{Characters: snapshot, OK: true})
}

// signal performs a non-blocking notify on a capacity-1 channel.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// sendLatest replaces any undelivered value so a slow consumer always
// observes the most recent one.
func sendLatest(ch chan InstantResult, value InstantResult) {
	for {
		select {
		case ch <- value:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
