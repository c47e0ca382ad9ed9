// Package scrapeapi provides the client for the external scrape service,
// which handles page rendering, link scraping, schema-constrained
// extraction, and site mapping.
package scrapeapi

import (
	"time"
)

// ProductPayload is one product entry in an extraction response. Fields are
// raw strings exactly as the service returned them; normalization happens
// downstream.
type ProductPayload struct {
	Name       string `json:"name"`
	Price      string `json:"price"`
	ImageURL   string `json:"image_url"`
	ProductURL string `json:"product_url"`
}

// LinksResult is the response to a scrape-for-links call. Some deployments
// return the outbound link list directly; others return rendered HTML for
// the caller to extract anchors from. Either field may be empty.
type LinksResult struct {
	Links []string `json:"links"`
	HTML  string   `json:"html"`
}

// ExtractResult is the response to a bulk extraction call.
type ExtractResult struct {
	Products []ProductPayload `json:"products"`
	Links    []string         `json:"links"`
}

// CallOptions tune one extraction call. Zero values fall back to the
// service defaults.
type CallOptions struct {
	// WaitFor is the render-wait budget passed to the service.
	WaitFor time.Duration
	// Timeout overrides the client's request timeout for this call.
	Timeout time.Duration
	// Limit caps the number of entries a bulk extraction may return.
	Limit int
}

// scrapeRequest is the wire format for scrape and extract calls.
type scrapeRequest struct {
	URL       string   `json:"url"`
	Formats   []string `json:"formats,omitempty"`
	Prompt    string   `json:"prompt,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	WaitForMs int      `json:"wait_for_ms,omitempty"`
	TimeoutMs int      `json:"timeout_ms,omitempty"`
}

// mapRequest is the wire format for site-map calls.
type mapRequest struct {
	URL    string `json:"url"`
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// mapResponse is the response to a site-map call.
type mapResponse struct {
	Links []string `json:"links"`
}
