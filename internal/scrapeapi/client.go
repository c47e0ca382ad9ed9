package scrapeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonesrussell/shopcrawl/internal/config"
	"github.com/jonesrussell/shopcrawl/internal/logger"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxErrorBodyBytes     = 512
)

// Client calls the external scrape service over its JSON HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	logger     logger.Interface
}

// NewClient creates a scrape service client.
func NewClient(cfg *config.ScrapeAPIConfig, log logger.Interface) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		timeout: timeout,
		// Per-call timeouts come from request contexts, not the client.
		httpClient: &http.Client{},
		logger:     log,
	}
}

// Links fetches the outbound links of a listing page. The service returns
// either a link list, rendered HTML, or both.
func (c *Client) Links(ctx context.Context, pageURL string) (*LinksResult, error) {
	req := scrapeRequest{
		URL:     pageURL,
		Formats: []string{"links", "html"},
	}

	var result LinksResult
	if err := c.post(ctx, "/v1/scrape", &req, &result, c.timeout); err != nil {
		return nil, fmt.Errorf("scrape links: %w", err)
	}

	return &result, nil
}

// Extract performs a bulk schema-constrained extraction against a listing
// page. The prompt embeds the extraction instruction including category
// exclusions; opts widen render and timeout budgets across retry attempts.
func (c *Client) Extract(ctx context.Context, pageURL, prompt string, opts CallOptions) (*ExtractResult, error) {
	req := scrapeRequest{
		URL:       pageURL,
		Formats:   []string{"extract", "links"},
		Prompt:    prompt,
		Limit:     opts.Limit,
		WaitForMs: int(opts.WaitFor.Milliseconds()),
		TimeoutMs: int(opts.Timeout.Milliseconds()),
	}

	var result ExtractResult
	if err := c.post(ctx, "/v1/extract", &req, &result, callTimeout(opts, c.timeout)); err != nil {
		return nil, fmt.Errorf("bulk extract: %w", err)
	}

	return &result, nil
}

// ExtractOne extracts a single product from a product detail page.
func (c *Client) ExtractOne(ctx context.Context, productURL, prompt string, opts CallOptions) (*ProductPayload, error) {
	req := scrapeRequest{
		URL:       productURL,
		Formats:   []string{"extract"},
		Prompt:    prompt,
		Limit:     1,
		WaitForMs: int(opts.WaitFor.Milliseconds()),
		TimeoutMs: int(opts.Timeout.Milliseconds()),
	}

	var result ExtractResult
	if err := c.post(ctx, "/v1/extract", &req, &result, callTimeout(opts, c.timeout)); err != nil {
		return nil, fmt.Errorf("single extract: %w", err)
	}

	if len(result.Products) == 0 {
		return nil, fmt.Errorf("single extract: empty response for %s", productURL)
	}

	return &result.Products[0], nil
}

// Map returns URLs known to the service for a site, scoped to the given URL
// path and optionally biased by a search term.
func (c *Client) Map(ctx context.Context, siteURL, search string, limit int) ([]string, error) {
	req := mapRequest{
		URL:    siteURL,
		Search: search,
		Limit:  limit,
	}

	var result mapResponse
	if err := c.post(ctx, "/v1/map", &req, &result, c.timeout); err != nil {
		return nil, fmt.Errorf("site map: %w", err)
	}

	return result.Links, nil
}

// post sends a JSON request and decodes the JSON response. Non-2xx
// responses become a StatusError.
func (c *Client) post(ctx context.Context, path string, body, out any, timeout time.Duration) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return fmt.Errorf("do request: %w", doErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}

	return nil
}

// callTimeout picks the per-call timeout, preferring the option override.
func callTimeout(opts CallOptions, fallback time.Duration) time.Duration {
	if opts.Timeout > 0 {
		return opts.Timeout
	}
	return fallback
}
