package discover_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/shopcrawl/internal/crawllog"
	"github.com/jonesrussell/shopcrawl/internal/discover"
	"github.com/jonesrussell/shopcrawl/internal/domain"
	"github.com/jonesrussell/shopcrawl/internal/logger"
	"github.com/jonesrussell/shopcrawl/internal/scrapeapi"
)

// fakeLinkSource scripts the scrape client's discovery surface.
type fakeLinkSource struct {
	linksResult *scrapeapi.LinksResult
	linksErr    error

	mapLinks  []string
	mapErr    error
	mapCalled bool
}

func (f *fakeLinkSource) Links(ctx context.Context, pageURL string) (*scrapeapi.LinksResult, error) {
	return f.linksResult, f.linksErr
}

func (f *fakeLinkSource) Map(ctx context.Context, siteURL, search string, limit int) ([]string, error) {
	f.mapCalled = true
	return f.mapLinks, f.mapErr
}

func testCompetitor() *domain.Competitor {
	return &domain.Competitor{
		ID:            "comp-1",
		Name:          "acme",
		BaseScrapeURL: "https://shop.example.com/new",
	}
}

// productLinks builds n distinct classifier-accepted URLs.
func productLinks(n int) []string {
	links := make([]string, n)
	for i := range links {
		links[i] = fmt.Sprintf("https://shop.example.com/products/item-%02d", i)
	}
	return links
}

func TestDiscover_RichListingSkipsSiteMap(t *testing.T) {
	source := &fakeLinkSource{
		linksResult: &scrapeapi.LinksResult{Links: productLinks(12)},
	}

	rec := crawllog.NewRecorder("job-1", "comp-1")
	got := discover.NewDiscoverer(source, logger.NewNoOp()).
		Discover(context.Background(), testCompetitor(), rec)

	assert.Len(t, got, 12)
	assert.False(t, source.mapCalled)
	for _, c := range got {
		assert.Equal(t, domain.SourceListingPage, c.Source)
	}
}

func TestDiscover_ThinListingAugmentsFromSiteMap(t *testing.T) {
	source := &fakeLinkSource{
		linksResult: &scrapeapi.LinksResult{Links: productLinks(3)},
		mapLinks: []string{
			"https://shop.example.com/products/map-one",
			"https://shop.example.com/products/map-two",
		},
	}

	rec := crawllog.NewRecorder("job-1", "comp-1")
	got := discover.NewDiscoverer(source, logger.NewNoOp()).
		Discover(context.Background(), testCompetitor(), rec)

	require.True(t, source.mapCalled)
	assert.Len(t, got, 5)
	assert.Equal(t, domain.SourceSiteMap, got[4].Source)
}

func TestDiscover_ScrapeFailureIsNonFatal(t *testing.T) {
	source := &fakeLinkSource{
		linksErr: errors.New("connection refused"),
		mapLinks: []string{"https://shop.example.com/products/map-one"},
	}

	rec := crawllog.NewRecorder("job-1", "comp-1")
	got := discover.NewDiscoverer(source, logger.NewNoOp()).
		Discover(context.Background(), testCompetitor(), rec)

	// The listing failure is recorded, the map call still contributes.
	assert.Len(t, got, 1)
	assert.Equal(t, 1, rec.Count(domain.LogTypeError))
}

func TestDiscover_BothSourcesFailingYieldsEmptySet(t *testing.T) {
	source := &fakeLinkSource{
		linksErr: errors.New("connection refused"),
		mapErr:   errors.New("map unavailable"),
	}

	rec := crawllog.NewRecorder("job-1", "comp-1")
	got := discover.NewDiscoverer(source, logger.NewNoOp()).
		Discover(context.Background(), testCompetitor(), rec)

	assert.Empty(t, got)
}

func TestDiscover_HTMLFallbackExtractsAnchors(t *testing.T) {
	html := `<html><body>
		<a href="/products/wool-sweater">Sweater</a>
		<a href="https://shop.example.com/products/alpine-jacket">Jacket</a>
		<a href="https://other.example.com/products/external">External</a>
		<a href="#top">Top</a>
		<a href="mailto:info@example.com">Mail</a>
	</body></html>`

	source := &fakeLinkSource{
		linksResult: &scrapeapi.LinksResult{HTML: html},
		mapErr:      errors.New("no map"),
	}

	rec := crawllog.NewRecorder("job-1", "comp-1")
	got := discover.NewDiscoverer(source, logger.NewNoOp()).
		Discover(context.Background(), testCompetitor(), rec)

	require.Len(t, got, 2)
	assert.Equal(t, "https://shop.example.com/products/wool-sweater", got[0].URL)
	assert.Equal(t, "https://shop.example.com/products/alpine-jacket", got[1].URL)
}

func TestDiscover_DedupesExactURLs(t *testing.T) {
	source := &fakeLinkSource{
		linksResult: &scrapeapi.LinksResult{Links: productLinks(11)},
	}
	source.linksResult.Links = append(source.linksResult.Links, source.linksResult.Links[0])

	rec := crawllog.NewRecorder("job-1", "comp-1")
	got := discover.NewDiscoverer(source, logger.NewNoOp()).
		Discover(context.Background(), testCompetitor(), rec)

	assert.Len(t, got, 11)
}

func TestExtractAnchors_RelativeResolution(t *testing.T) {
	html := `<a href="../damen/98765-pullover.html">P</a>`

	links := discover.ExtractAnchors(html, "https://shop.example.com/new/arrivals")

	require.Len(t, links, 1)
	assert.Equal(t, "https://shop.example.com/damen/98765-pullover.html", links[0])
}

func TestExtractAnchors_EmptyHTML(t *testing.T) {
	assert.Empty(t, discover.ExtractAnchors("", "https://shop.example.com"))
}
