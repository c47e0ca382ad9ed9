// Package discover surfaces candidate product URLs for a competitor's
// listing page, augmenting thin link sets with a scoped site-map call.
package discover

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/shopcrawl/internal/classify"
	"github.com/jonesrussell/shopcrawl/internal/crawllog"
	"github.com/jonesrussell/shopcrawl/internal/domain"
	"github.com/jonesrussell/shopcrawl/internal/logger"
	"github.com/jonesrussell/shopcrawl/internal/scrapeapi"
)

const (
	// minProductLinks is the classifier-accepted link count below which
	// the site-map augmentation kicks in.
	minProductLinks = 10
	// mapCallLimit caps the URLs requested from a site-map call.
	mapCallLimit = 100
)

// LinkSource is the subset of the scrape client discovery needs.
type LinkSource interface {
	Links(ctx context.Context, pageURL string) (*scrapeapi.LinksResult, error)
	Map(ctx context.Context, siteURL, search string, limit int) ([]string, error)
}

// Discoverer fetches and merges candidate URLs for one competitor.
type Discoverer struct {
	source LinkSource
	logger logger.Interface
}

// NewDiscoverer creates a Discoverer.
func NewDiscoverer(source LinkSource, log logger.Interface) *Discoverer {
	return &Discoverer{source: source, logger: log}
}

// Discover returns the deduplicated candidate URL set for the competitor's
// listing page. Scrape and map failures are recorded and swallowed: an empty
// candidate set is a valid outcome, not an abort.
func (d *Discoverer) Discover(
	ctx context.Context,
	competitor *domain.Competitor,
	rec *crawllog.Recorder,
) []domain.CandidateURL {
	candidates := d.listingLinks(ctx, competitor, rec)

	accepted := 0
	for _, c := range candidates {
		if classify.IsProductURL(c.URL, competitor.BaseScrapeURL, competitor.URLPatterns) {
			accepted++
		}
	}

	rec.Info("listing page discovery finished", domain.JSONBMap{
		"links_found":    len(candidates),
		"product_links":  accepted,
		"needs_site_map": accepted < minProductLinks,
	})

	if accepted < minProductLinks {
		candidates = d.augmentFromSiteMap(ctx, competitor, candidates, rec)
	}

	return dedupeExact(candidates)
}

// listingLinks scrapes the listing page for outbound links. When the service
// returns rendered HTML instead of (or alongside) a link list, anchors are
// extracted locally.
func (d *Discoverer) listingLinks(
	ctx context.Context,
	competitor *domain.Competitor,
	rec *crawllog.Recorder,
) []domain.CandidateURL {
	result, err := d.source.Links(ctx, competitor.BaseScrapeURL)
	if err != nil {
		d.logger.Warn("listing page scrape failed",
			"competitor", competitor.Name, "error", err)
		rec.Error("listing page scrape failed", nil, domain.JSONBMap{"error": err.Error()})
		return nil
	}

	links := result.Links
	if len(links) == 0 && result.HTML != "" {
		links = ExtractAnchors(result.HTML, competitor.BaseScrapeURL)
	}

	candidates := make([]domain.CandidateURL, 0, len(links))
	for _, link := range links {
		candidates = append(candidates, domain.CandidateURL{
			URL:    link,
			Source: domain.SourceListingPage,
		})
	}

	return candidates
}

// augmentFromSiteMap merges site-map URLs into the candidate set. Map
// failures are best-effort: recorded and ignored.
func (d *Discoverer) augmentFromSiteMap(
	ctx context.Context,
	competitor *domain.Competitor,
	candidates []domain.CandidateURL,
	rec *crawllog.Recorder,
) []domain.CandidateURL {
	search := deriveSearchTerm(competitor.BaseScrapeURL)

	links, err := d.source.Map(ctx, competitor.BaseScrapeURL, search, mapCallLimit)
	if err != nil {
		d.logger.Warn("site map call failed",
			"competitor", competitor.Name, "error", err)
		rec.Info("site map augmentation failed", domain.JSONBMap{"error": err.Error()})
		return candidates
	}

	rec.Info("site map augmentation finished", domain.JSONBMap{
		"map_links":   len(links),
		"search_term": search,
	})

	for _, link := range links {
		candidates = append(candidates, domain.CandidateURL{
			URL:    link,
			Source: domain.SourceSiteMap,
		})
	}

	return candidates
}

// ExtractAnchors pulls absolute same-host anchor URLs out of rendered HTML.
func ExtractAnchors(html, baseURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			return
		}

		ref, parseErr := url.Parse(href)
		if parseErr != nil {
			return
		}

		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if resolved.Host != base.Host {
			return
		}

		resolved.Fragment = ""
		links = append(links, resolved.String())
	})

	return links
}

// deriveSearchTerm biases the site-map call toward new arrivals when the
// listing URL itself suggests one.
func deriveSearchTerm(listingURL string) string {
	if strings.Contains(strings.ToLower(listingURL), "new") {
		return "new"
	}
	return ""
}

// dedupeExact removes exact string duplicates, preserving first-seen order.
func dedupeExact(candidates []domain.CandidateURL) []domain.CandidateURL {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]domain.CandidateURL, 0, len(candidates))

	for _, c := range candidates {
		if _, dup := seen[c.URL]; dup {
			continue
		}
		seen[c.URL] = struct{}{}
		out = append(out, c)
	}

	return out
}
