package pipeline

import (
	"context"
	"strings"

	"github.com/jonesrussell/shopcrawl/internal/canonical"
	"github.com/jonesrussell/shopcrawl/internal/classify"
	"github.com/jonesrussell/shopcrawl/internal/crawllog"
	"github.com/jonesrussell/shopcrawl/internal/database"
	"github.com/jonesrussell/shopcrawl/internal/domain"
	"github.com/jonesrussell/shopcrawl/internal/extract"
	"github.com/jonesrussell/shopcrawl/internal/logger"
	"github.com/jonesrussell/shopcrawl/internal/normalize"
	"github.com/jonesrussell/shopcrawl/internal/scrapeapi"
)

// Discoverer surfaces candidate URLs for a competitor's listing page.
type Discoverer interface {
	Discover(ctx context.Context, competitor *domain.Competitor, rec *crawllog.Recorder) []domain.CandidateURL
}

// Orchestrator runs the two-tier extraction strategy.
type Orchestrator interface {
	Run(ctx context.Context, req extract.Request, rec *crawllog.Recorder) (*extract.Result, error)
}

// Runner executes one crawl job end to end: discovery, classification,
// store dedup, extraction, normalization, persistence, and the final job
// state transition. One sequential task per job; no per-URL parallelism.
type Runner struct {
	competitors  database.CompetitorRepositoryInterface
	products     database.ProductRepositoryInterface
	jobs         database.JobRepositoryInterface
	logs         database.CrawlLogRepositoryInterface
	discoverer   Discoverer
	orchestrator Orchestrator
	logger       logger.Interface
}

// NewRunner creates a Runner.
func NewRunner(
	competitors database.CompetitorRepositoryInterface,
	products database.ProductRepositoryInterface,
	jobs database.JobRepositoryInterface,
	logs database.CrawlLogRepositoryInterface,
	discoverer Discoverer,
	orchestrator Orchestrator,
	log logger.Interface,
) *Runner {
	return &Runner{
		competitors:  competitors,
		products:     products,
		jobs:         jobs,
		logs:         logs,
		discoverer:   discoverer,
		orchestrator: orchestrator,
		logger:       log,
	}
}

// Run executes the job. The job must be in pending status; Run moves it to
// processing and then to exactly one terminal status. Errors inside the run
// never propagate: they end up on the job record and in the log trail.
func (r *Runner) Run(ctx context.Context, job *domain.CrawlJob, competitor *domain.Competitor, limit int) {
	log := r.logger.With("job_id", job.ID, "competitor", competitor.Name)
	rec := crawllog.NewRecorder(job.ID, job.CompetitorID)

	if err := r.jobs.MarkProcessing(ctx, job.ID); err != nil {
		log.Error("failed to mark job processing", "error", err)
		return
	}

	// Last-crawled is stamped on every attempted run, success or failure,
	// and the log trail flushes exactly once at the end.
	defer func() {
		if err := r.competitors.TouchLastCrawled(ctx, competitor.ID); err != nil {
			log.Error("failed to update last_crawled_at", "error", err)
		}
		if err := rec.Flush(ctx, r.logs); err != nil {
			log.Error("failed to flush crawl log", "error", err)
		}
	}()

	candidates := r.discoverer.Discover(ctx, competitor, rec)
	classified := r.classifyCandidates(competitor, candidates, rec)

	knownKeys, err := r.products.CanonicalKeys(ctx, competitor.Name)
	if err != nil {
		log.Error("failed to load canonical keys", "error", err)
		r.failJob(ctx, job.ID, "loading existing products failed: "+err.Error(), rec, log)
		return
	}

	result, err := r.orchestrator.Run(ctx, extract.Request{
		Competitor: competitor,
		Limit:      limit,
		KnownKeys:  knownKeys,
		Candidates: classified,
	}, rec)
	if err != nil {
		log.Error("extraction failed", "error", err)
		r.failJob(ctx, job.ID, err.Error(), rec, log)
		return
	}

	found, inserted := r.persistProducts(ctx, competitor, result.Products, knownKeys, rec, log)

	rec.Info("crawl finished", domain.JSONBMap{
		"products_found":    found,
		"products_inserted": inserted,
		"used_fallback":     result.UsedFallback,
		"extraction_errors": result.ErrorCount,
	})

	if err := r.jobs.Complete(ctx, job.ID, found, inserted); err != nil {
		log.Error("failed to complete job", "error", err)
		return
	}

	log.Info("crawl job completed", "found", found, "inserted", inserted)
}

// classifyCandidates splits the candidate set, logging one filtered entry
// per rejected URL and one skipped entry per in-batch duplicate, and
// returns the deduplicated product URLs.
func (r *Runner) classifyCandidates(
	competitor *domain.Competitor,
	candidates []domain.CandidateURL,
	rec *crawllog.Recorder,
) []domain.ClassifiedURL {
	products := make([]domain.ClassifiedURL, 0, len(candidates))

	for _, c := range candidates {
		if !classify.IsProductURL(c.URL, competitor.BaseScrapeURL, competitor.URLPatterns) {
			reason := classify.MatchRule(c.URL, competitor.URLPatterns)
			if reason == "" {
				reason = "no product pattern matched"
			}
			rec.Filtered(c.URL, reason)
			continue
		}

		if kw, excluded := classify.MatchesExcludedKeyword(c.URL, competitor.ExcludedCategoryKeywords); excluded {
			rec.Filtered(c.URL, "excluded category: "+kw)
			continue
		}

		products = append(products, domain.ClassifiedURL{
			CandidateURL: c,
			IsProduct:    true,
			CanonicalKey: canonical.Key(c.URL),
		})
	}

	deduped, dropped := canonical.DedupeBatch(products)
	for _, d := range dropped {
		rec.Skipped(d.URL, "duplicate in batch")
	}

	return deduped
}

// persistProducts normalizes and inserts the extracted payloads. Returns the
// number of products considered and the number actually inserted.
func (r *Runner) persistProducts(
	ctx context.Context,
	competitor *domain.Competitor,
	payloads []scrapeapi.ProductPayload,
	knownKeys map[string]struct{},
	rec *crawllog.Recorder,
	log logger.Interface,
) (found, inserted int) {
	seen := make(map[string]struct{}, len(payloads))

	for i := range payloads {
		payload := &payloads[i]

		name := normalize.CleanName(payload.Name)
		if name == "" || payload.ProductURL == "" {
			url := payload.ProductURL
			rec.Error("extracted product missing name or url", &url, nil)
			continue
		}

		found++

		if kw, excluded := matchesExclusion(name, payload.ProductURL, competitor.ExcludedCategoryKeywords); excluded {
			rec.Filtered(payload.ProductURL, "excluded category: "+kw)
			continue
		}

		key := canonical.Key(payload.ProductURL)
		if _, dup := seen[key]; dup {
			rec.Skipped(payload.ProductURL, "duplicate in batch")
			continue
		}
		seen[key] = struct{}{}

		if _, known := knownKeys[key]; known {
			rec.Skipped(payload.ProductURL, "duplicate")
			continue
		}

		price := normalize.ParsePrice(payload.Price)
		product := &domain.ExtractedProduct{
			Name:            name,
			NormalizedPrice: price,
			ImageURL:        normalize.CleanImageURL(payload.ImageURL, competitor.BaseScrapeURL),
			SourceURL:       payload.ProductURL,
			CanonicalURL:    key,
			CompetitorName:  competitor.Name,
		}
		if payload.Price != "" {
			raw := payload.Price
			product.RawPrice = &raw
		}

		ok, err := r.products.Insert(ctx, product)
		if err != nil {
			log.Error("product insert failed", "url", payload.ProductURL, "error", err)
			url := payload.ProductURL
			rec.Error("product insert failed", &url, domain.JSONBMap{"error": err.Error()})
			continue
		}
		if !ok {
			// A concurrent job for the same competitor won the insert.
			rec.Skipped(payload.ProductURL, "duplicate")
			continue
		}

		knownKeys[key] = struct{}{}
		inserted++
		rec.Added(name, payload.ProductURL, price)
	}

	return found, inserted
}

// failJob moves the job to failed and records the failure in the trail.
func (r *Runner) failJob(ctx context.Context, jobID, message string, rec *crawllog.Recorder, log logger.Interface) {
	rec.Error("crawl job failed: "+message, nil, nil)

	if err := r.jobs.Fail(ctx, jobID, message); err != nil {
		log.Error("failed to mark job failed", "error", err)
	}
}

// matchesExclusion checks the name and URL against the competitor's
// excluded-category keywords.
func matchesExclusion(name, url string, keywords []string) (string, bool) {
	if kw, ok := classify.MatchesExcludedKeyword(name, keywords); ok {
		return kw, true
	}
	return classify.MatchesExcludedKeyword(strings.ToLower(url), keywords)
}
