package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/shopcrawl/internal/domain"
	"github.com/jonesrussell/shopcrawl/internal/extract"
	"github.com/jonesrussell/shopcrawl/internal/logger"
	"github.com/jonesrussell/shopcrawl/internal/pipeline"
	"github.com/jonesrussell/shopcrawl/internal/scrapeapi"
)

func testCompetitor() *domain.Competitor {
	return &domain.Competitor{
		ID:                       "comp-1",
		Name:                     "acme",
		BaseScrapeURL:            "https://shop.example.com/new",
		ExcludedCategoryKeywords: []string{"outlet"},
	}
}

func pendingJob(jobs *fakeJobRepo) *domain.CrawlJob {
	job := &domain.CrawlJob{
		ID:             "job-1",
		CompetitorID:   "comp-1",
		CompetitorName: "acme",
	}
	_ = jobs.Create(context.Background(), job)
	return job
}

type runnerFixture struct {
	competitors  *fakeCompetitorRepo
	products     *fakeProductRepo
	jobs         *fakeJobRepo
	logs         *fakeLogRepo
	discoverer   *fakeDiscoverer
	orchestrator *fakeOrchestrator
	runner       *pipeline.Runner
}

func newRunnerFixture(products *fakeProductRepo, orchestrator *fakeOrchestrator, discovered ...domain.CandidateURL) *runnerFixture {
	f := &runnerFixture{
		competitors:  &fakeCompetitorRepo{competitors: []*domain.Competitor{testCompetitor()}},
		products:     products,
		jobs:         newFakeJobRepo(),
		logs:         &fakeLogRepo{},
		discoverer:   &fakeDiscoverer{candidates: discovered},
		orchestrator: orchestrator,
	}
	f.runner = pipeline.NewRunner(
		f.competitors, f.products, f.jobs, f.logs,
		f.discoverer, f.orchestrator, logger.NewNoOp(),
	)
	return f
}

func extracted(urls ...string) []scrapeapi.ProductPayload {
	out := make([]scrapeapi.ProductPayload, 0, len(urls))
	for i, u := range urls {
		out = append(out, scrapeapi.ProductPayload{
			Name:       "Product " + string(rune('A'+i)),
			Price:      "€49,95",
			ImageURL:   "https://cdn.example.com/p.jpg",
			ProductURL: u,
		})
	}
	return out
}

func TestRun_SuccessfulCrawl(t *testing.T) {
	orchestrator := &fakeOrchestrator{result: &extract.Result{
		Products: extracted(
			"https://shop.example.com/products/p-one",
			"https://shop.example.com/products/p-two",
			"https://shop.example.com/products/p-three",
			"https://shop.example.com/products/p-four",
			"https://shop.example.com/products/p-five",
		),
	}}
	f := newRunnerFixture(newFakeProductRepo(), orchestrator)
	job := pendingJob(f.jobs)

	f.runner.Run(context.Background(), job, testCompetitor(), 20)

	got, err := f.jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
	assert.Equal(t, 5, got.ProductsFound)
	assert.Equal(t, 5, got.ProductsInserted)
	require.NotNil(t, got.CompletedAt)

	assert.Len(t, f.products.inserted, 5)
	assert.Equal(t, 5, f.logs.countByType(domain.LogTypeAdded))
	assert.Equal(t, 0, f.logs.countByType(domain.LogTypeSkipped))
	assert.Equal(t, []string{"comp-1"}, f.competitors.touched)

	// Normalization happened before persistence.
	first := f.products.inserted[0]
	require.NotNil(t, first.NormalizedPrice)
	assert.InDelta(t, 49.95, *first.NormalizedPrice, 1e-9)
	require.NotNil(t, first.RawPrice)
	assert.Equal(t, "€49,95", *first.RawPrice)
	require.NotNil(t, first.ImageURL)
	assert.Equal(t, "acme", first.CompetitorName)
}

func TestRun_KnownKeyIsSkippedAsDuplicate(t *testing.T) {
	orchestrator := &fakeOrchestrator{result: &extract.Result{
		Products: extracted(
			"https://shop.example.com/products/p-known",
			"https://shop.example.com/products/p-new",
		),
	}}
	f := newRunnerFixture(newFakeProductRepo("p-known"), orchestrator)
	job := pendingJob(f.jobs)

	f.runner.Run(context.Background(), job, testCompetitor(), 20)

	got, err := f.jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
	assert.Equal(t, 2, got.ProductsFound)
	assert.Equal(t, 1, got.ProductsInserted)

	// The skipped entry names the duplicate reason.
	entries, err := f.logs.ListByJob(context.Background(), job.ID, 0, 0)
	require.NoError(t, err)
	var skippedReasons []string
	for _, e := range entries {
		if e.LogType == domain.LogTypeSkipped && e.FilterReason != nil {
			skippedReasons = append(skippedReasons, *e.FilterReason)
		}
	}
	assert.Equal(t, []string{"duplicate"}, skippedReasons)

	// The known key was handed to the orchestrator for fallback exclusion.
	_, known := orchestrator.gotReq.KnownKeys["p-known"]
	assert.True(t, known)
}

func TestRun_BatchDuplicateIsSkipped(t *testing.T) {
	orchestrator := &fakeOrchestrator{result: &extract.Result{
		Products: extracted(
			"https://shop.example.com/products/p-one",
			"https://shop.example.com/products/p-one?utm_source=x",
		),
	}}
	f := newRunnerFixture(newFakeProductRepo(), orchestrator)
	job := pendingJob(f.jobs)

	f.runner.Run(context.Background(), job, testCompetitor(), 20)

	got, _ := f.jobs.GetByID(context.Background(), job.ID)
	assert.Equal(t, 2, got.ProductsFound)
	assert.Equal(t, 1, got.ProductsInserted)
	assert.Equal(t, 1, f.logs.countByType(domain.LogTypeSkipped))
}

func TestRun_DuplicateDiscoveryCandidateIsLoggedSkipped(t *testing.T) {
	orchestrator := &fakeOrchestrator{result: &extract.Result{}}
	f := newRunnerFixture(newFakeProductRepo(), orchestrator,
		domain.CandidateURL{URL: "https://shop.example.com/products/p-one", Source: domain.SourceListingPage},
		domain.CandidateURL{URL: "https://shop.example.com/products/p-one?utm_source=x", Source: domain.SourceSiteMap},
	)
	job := pendingJob(f.jobs)

	f.runner.Run(context.Background(), job, testCompetitor(), 20)

	// The utm variant collapses onto p-one and leaves a skipped entry.
	require.Len(t, orchestrator.gotReq.Candidates, 1)
	assert.Equal(t, "https://shop.example.com/products/p-one", orchestrator.gotReq.Candidates[0].URL)
	assert.Equal(t, 1, f.logs.countByType(domain.LogTypeSkipped))

	entries, err := f.logs.ListByJob(context.Background(), job.ID, 0, 0)
	require.NoError(t, err)
	for _, e := range entries {
		if e.LogType == domain.LogTypeSkipped {
			require.NotNil(t, e.FilterReason)
			assert.Equal(t, "duplicate in batch", *e.FilterReason)
		}
	}
}

func TestRun_ClassifierFiltersNonProductCandidates(t *testing.T) {
	orchestrator := &fakeOrchestrator{result: &extract.Result{}}
	f := newRunnerFixture(newFakeProductRepo(), orchestrator,
		domain.CandidateURL{URL: "https://shop.example.com/products/p-one", Source: domain.SourceListingPage},
		domain.CandidateURL{URL: "https://shop.example.com/cart", Source: domain.SourceListingPage},
		domain.CandidateURL{URL: "https://shop.example.com/products/outlet-special", Source: domain.SourceListingPage},
	)
	job := pendingJob(f.jobs)

	f.runner.Run(context.Background(), job, testCompetitor(), 20)

	// Cart fails classification, outlet trips the category exclusion, and
	// only the real product reaches the orchestrator.
	assert.Equal(t, 2, f.logs.countByType(domain.LogTypeFiltered))
	require.Len(t, orchestrator.gotReq.Candidates, 1)
	assert.Equal(t, "https://shop.example.com/products/p-one", orchestrator.gotReq.Candidates[0].URL)
}

func TestRun_ExcludedCategoryProductIsFiltered(t *testing.T) {
	orchestrator := &fakeOrchestrator{result: &extract.Result{
		Products: []scrapeapi.ProductPayload{{
			Name:       "Outlet Wool Sweater",
			Price:      "€10,00",
			ProductURL: "https://shop.example.com/products/wool-sweater",
		}},
	}}
	f := newRunnerFixture(newFakeProductRepo(), orchestrator)
	job := pendingJob(f.jobs)

	f.runner.Run(context.Background(), job, testCompetitor(), 20)

	got, _ := f.jobs.GetByID(context.Background(), job.ID)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
	assert.Equal(t, 0, got.ProductsInserted)
	assert.Equal(t, 1, f.logs.countByType(domain.LogTypeFiltered))
	assert.Empty(t, f.products.inserted)
}

func TestRun_PayloadWithoutNameIsLoggedNotCounted(t *testing.T) {
	orchestrator := &fakeOrchestrator{result: &extract.Result{
		Products: []scrapeapi.ProductPayload{
			{Name: "", Price: "€10,00", ProductURL: "https://shop.example.com/products/p-one"},
			{Name: "Real Product", Price: "€10,00", ProductURL: "https://shop.example.com/products/p-two"},
		},
	}}
	f := newRunnerFixture(newFakeProductRepo(), orchestrator)
	job := pendingJob(f.jobs)

	f.runner.Run(context.Background(), job, testCompetitor(), 20)

	got, _ := f.jobs.GetByID(context.Background(), job.ID)
	assert.Equal(t, 1, got.ProductsFound)
	assert.Equal(t, 1, got.ProductsInserted)
	assert.Equal(t, 1, f.logs.countByType(domain.LogTypeError))
}

func TestRun_InsertFailureContinues(t *testing.T) {
	orchestrator := &fakeOrchestrator{result: &extract.Result{
		Products: extracted(
			"https://shop.example.com/products/p-one",
			"https://shop.example.com/products/p-two",
		),
	}}
	products := newFakeProductRepo()
	products.insertErr = func(p *domain.ExtractedProduct) error {
		if p.CanonicalURL == "p-one" {
			return errors.New("insert failed")
		}
		return nil
	}
	f := newRunnerFixture(products, orchestrator)
	job := pendingJob(f.jobs)

	f.runner.Run(context.Background(), job, testCompetitor(), 20)

	got, _ := f.jobs.GetByID(context.Background(), job.ID)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
	assert.Equal(t, 2, got.ProductsFound)
	assert.Equal(t, 1, got.ProductsInserted)
	assert.Equal(t, 1, f.logs.countByType(domain.LogTypeError))
}

func TestRun_ExtractionFailureFailsJob(t *testing.T) {
	orchestrator := &fakeOrchestrator{err: errors.New("bulk extraction failed after 3 attempts: status 429")}
	f := newRunnerFixture(newFakeProductRepo(), orchestrator)
	job := pendingJob(f.jobs)

	f.runner.Run(context.Background(), job, testCompetitor(), 20)

	got, err := f.jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Contains(t, *got.ErrorMessage, "3 attempts")

	// The trail still flushes and the competitor is still stamped.
	assert.Equal(t, 1, f.logs.countByType(domain.LogTypeError))
	assert.Equal(t, []string{"comp-1"}, f.competitors.touched)
}

func TestRun_CanonicalKeyLoadFailureFailsJob(t *testing.T) {
	products := newFakeProductRepo()
	products.keysErr = errors.New("db down")
	f := newRunnerFixture(products, &fakeOrchestrator{result: &extract.Result{}})
	job := pendingJob(f.jobs)

	f.runner.Run(context.Background(), job, testCompetitor(), 20)

	got, _ := f.jobs.GetByID(context.Background(), job.ID)
	assert.Equal(t, domain.JobStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Contains(t, *got.ErrorMessage, "db down")
}

func TestRun_NonPendingJobIsNotRun(t *testing.T) {
	orchestrator := &fakeOrchestrator{result: &extract.Result{}}
	f := newRunnerFixture(newFakeProductRepo(), orchestrator)
	job := pendingJob(f.jobs)

	// First run completes the job; a second run must refuse the replay.
	f.runner.Run(context.Background(), job, testCompetitor(), 20)
	f.runner.Run(context.Background(), job, testCompetitor(), 20)

	got, _ := f.jobs.GetByID(context.Background(), job.ID)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
	// TouchLastCrawled only ran for the first, executed run.
	assert.Equal(t, []string{"comp-1"}, f.competitors.touched)
}
