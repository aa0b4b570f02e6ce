package catalogapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-catalog/pkg/catalog"
)

// Config holds the configuration for the upstream catalog API client.
type Config struct {
	// BaseURL is the root of the upstream REST API, e.g. "https://example.com/api".
	BaseURL string `yaml:"base_url"`
	// Timeout bounds every individual request (connect + read). A timeout is
	// reported as an ordinary transport error.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultTimeout is applied when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Client issues read-only requests against the upstream character catalog.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a catalog API client. The base URL must be non-empty.
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "CatalogAPIClient").Logger(),
	}, nil
}

// Characters fetches one page of characters matching the given filters.
// A page value of zero or less requests the first page.
func (c *Client) Characters(ctx context.Context, page int, f catalog.Filters) (*CharactersPage, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	setIfPresent(query, "name", f.Name)
	setIfPresent(query, "status", f.Status)
	setIfPresent(query, "species", f.Species)
	setIfPresent(query, "gender", f.Gender)

	requestURL := c.baseURL + "/character"
	if encoded := query.Encode(); encoded != "" {
		requestURL += "?" + encoded
	}

	var dto charactersPageRecord
	if err := c.getJSON(ctx, requestURL, &dto); err != nil {
		return nil, err
	}

	result := &CharactersPage{
		Info:       dto.Info,
		Characters: make([]catalog.Character, 0, len(dto.Results)),
	}
	for _, record := range dto.Results {
		result.Characters = append(result.Characters, record.toDomain())
	}

	c.logger.Debug().
		Int("page", page).
		Int("results", len(result.Characters)).
		Bool("has_next", result.Info.HasNext()).
		Msg("Fetched characters page.")
	return result, nil
}

// Character fetches a single character by its upstream identifier.
func (c *Client) Character(ctx context.Context, id int) (*catalog.Character, error) {
	requestURL := fmt.Sprintf("%s/character/%d", c.baseURL, id)

	var record characterRecord
	if err := c.getJSON(ctx, requestURL, &record); err != nil {
		return nil, err
	}

	character := record.toDomain()
	c.logger.Debug().Int("character_id", id).Msg("Fetched single character.")
	return &character, nil
}

// getJSON issues a GET request and decodes a JSON body into out.
func (c *Client) getJSON(ctx context.Context, requestURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("url", requestURL).Msg("Transport error.")
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug().Int("status", resp.StatusCode).Str("url", requestURL).Msg("Upstream returned non-2xx status.")
		return &StatusError{Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

func setIfPresent(query url.Values, key, value string) {
	if strings.TrimSpace(value) != "" {
		query.Set(key, value)
	}
}
