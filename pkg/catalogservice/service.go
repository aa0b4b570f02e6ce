package catalogservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-catalog/pkg/cachestore"
	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/illmade-knight/go-catalog/pkg/catalogapi"
	"github.com/illmade-knight/go-catalog/pkg/paging"
	"github.com/illmade-knight/go-catalog/pkg/repository"
)

// Service exposes the catalog data layer over HTTP: cache-first paged
// listing, single-character lookup and refresh, and cache clearing.
// Rendering remains the consumer's concern; the service only returns JSON.
type Service struct {
	logger     zerolog.Logger
	httpPort   string
	httpServer *http.Server
	mux        *http.ServeMux

	api   *catalogapi.Client
	store cachestore.Store
	repo  repository.CharactersRepository

	mu         sync.RWMutex
	actualAddr string
}

// NewService wires the API client, cache store and repository, and registers
// the HTTP handlers.
func NewService(cfg *Config, logger zerolog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	api, err := catalogapi.NewClient(catalogapi.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	var store cachestore.Store
	if cfg.RedisEnabled {
		redisStore, err := cachestore.NewRedisStore(context.Background(), &cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis store: %w", err)
		}
		store = redisStore
	} else {
		store = cachestore.NewInMemoryStore()
	}

	repo, err := repository.NewCharacters(api, store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}

	s := &Service{
		logger:   logger.With().Str("component", "CatalogService").Logger(),
		httpPort: cfg.HTTPPort,
		mux:      http.NewServeMux(),
		api:      api,
		store:    store,
		repo:     repo,
	}
	s.httpServer = &http.Server{Addr: cfg.HTTPPort, Handler: s.mux}
	s.registerRoutes()
	return s, nil
}

func (s *Service) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", healthzHandler)
	s.mux.HandleFunc("GET /characters", s.handleCharactersPage)
	s.mux.HandleFunc("GET /characters/instant", s.handleInstant)
	s.mux.HandleFunc("GET /characters/{id}", s.handleCharacter)
	s.mux.HandleFunc("POST /characters/{id}/refresh", s.handleRefreshCharacter)
	s.mux.HandleFunc("DELETE /cache", s.handleClearCache)
	s.mux.HandleFunc("DELETE /cache/pages", s.handleInvalidateFilters)
}

// Start begins listening in a background goroutine.
func (s *Service) Start() error {
	listener, err := net.Listen("tcp", s.httpPort)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", s.httpPort, err)
	}

	s.mu.Lock()
	s.actualAddr = listener.Addr().String()
	s.mu.Unlock()

	s.logger.Info().Str("address", listener.Addr().String()).Msg("HTTP server starting to listen")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()
	return nil
}

// Shutdown gracefully stops the HTTP server, respecting the provided
// context's deadline.
func (s *Service) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Error during HTTP server shutdown.")
		return err
	}
	s.logger.Info().Msg("HTTP server stopped.")
	return nil
}

// Mux returns the underlying ServeMux, useful for tests.
func (s *Service) Mux() *http.ServeMux {
	return s.mux
}

// GetHTTPPort returns the actual port the server is listening on.
func (s *Service) GetHTTPPort() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, port, err := net.SplitHostPort(s.actualAddr)
	if err != nil {
		return s.httpPort
	}
	return ":" + port
}

// pageResponse is the JSON shape for one paged listing result.
type pageResponse struct {
	Characters []catalog.Character `json:"characters"`
	PrevKey    *int                `json:"prevKey"`
	NextKey    *int                `json:"nextKey"`
}

func (s *Service) handleCharactersPage(w http.ResponseWriter, r *http.Request) {
	filters := filtersFromQuery(r)

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "page must be a positive integer", http.StatusBadRequest)
			return
		}
		page = parsed
	}

	source, err := paging.NewSource(s.api, s.store, filters, s.logger)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	result, err := source.Load(r.Context(), &page)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pageResponse{
		Characters: result.Characters,
		PrevKey:    result.PrevKey,
		NextKey:    result.NextKey,
	})
}

func (s *Service) handleInstant(w http.ResponseWriter, r *http.Request) {
	filters := filtersFromQuery(r)

	snapshot, err := s.repo.CachedSnapshot(r.Context(), filters)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"characters": snapshot,
		"hasCache":   s.repo.HasAnyCachedData(r.Context()),
	})
}

func (s *Service) handleCharacter(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "id must be an integer", http.StatusBadRequest)
		return
	}

	character, err := s.repo.ObserveCharacter(r.Context(), id)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, character)
}

func (s *Service) handleRefreshCharacter(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "id must be an integer", http.StatusBadRequest)
		return
	}

	character, err := s.repo.RefreshCharacter(r.Context(), id)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, character)
}

func (s *Service) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.InvalidateAll(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleInvalidateFilters(w http.ResponseWriter, r *http.Request) {
	filters := filtersFromQuery(r)
	if err := s.repo.Invalidate(r.Context(), filters); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeUpstreamError maps an upstream failure onto the facade's response.
// A 404 from the upstream passes through; everything else is a bad gateway.
func (s *Service) writeUpstreamError(w http.ResponseWriter, err error) {
	var statusErr *catalogapi.StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		http.Error(w, "character not found", http.StatusNotFound)
		return
	}
	s.logger.Error().Err(err).Msg("Upstream request failed.")
	http.Error(w, err.Error(), http.StatusBadGateway)
}

func filtersFromQuery(r *http.Request) catalog.Filters {
	query := r.URL.Query()
	return catalog.Filters{
		Name:    query.Get("name"),
		Status:  query.Get("status"),
		Species: query.Get("species"),
		Gender:  query.Get("gender"),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// healthzHandler responds to health check probes.
func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
