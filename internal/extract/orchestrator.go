package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/shopcrawl/internal/canonical"
	"github.com/jonesrussell/shopcrawl/internal/classify"
	"github.com/jonesrussell/shopcrawl/internal/crawllog"
	"github.com/jonesrussell/shopcrawl/internal/domain"
	"github.com/jonesrussell/shopcrawl/internal/logger"
	"github.com/jonesrussell/shopcrawl/internal/scrapeapi"
)

const (
	// MinProductsForSuccess is the bulk-extraction entry count below which
	// the per-URL fallback engages.
	MinProductsForSuccess = 3

	// maxFallbackURLs caps the per-URL fallback batch regardless of the
	// caller's limit.
	maxFallbackURLs = 25

	// Budgets widen linearly per bulk attempt.
	waitBudgetPerAttempt    = 2 * time.Second
	timeoutBudgetPerAttempt = 30 * time.Second

	// defaultFallbackDelay spaces per-URL fallback calls.
	defaultFallbackDelay = 500 * time.Millisecond
)

// Backend is an extraction capability. The default implementation is the
// scrape service client; an OpenAI-compatible backend is available for
// deployments without a hosted extract endpoint.
type Backend interface {
	Extract(ctx context.Context, pageURL, prompt string, opts scrapeapi.CallOptions) (*scrapeapi.ExtractResult, error)
	ExtractOne(ctx context.Context, productURL, prompt string, opts scrapeapi.CallOptions) (*scrapeapi.ProductPayload, error)
}

// Request describes one extraction run.
type Request struct {
	Competitor *domain.Competitor
	Limit      int
	// KnownKeys are canonical keys already persisted for this competitor;
	// fallback URLs that map onto them are skipped.
	KnownKeys map[string]struct{}
	// Candidates are classified product URLs from discovery. The fallback
	// tier merges them with the links surfaced by the bulk response.
	Candidates []domain.ClassifiedURL
}

// Result carries the raw extracted payloads. Normalization and persistence
// happen downstream.
type Result struct {
	Products     []scrapeapi.ProductPayload
	ErrorCount   int
	UsedFallback bool
}

// Orchestrator runs the two-tier extraction strategy.
type Orchestrator struct {
	backend       Backend
	policy        RetryPolicy
	fallbackDelay time.Duration
	logger        logger.Interface
}

// NewOrchestrator creates an Orchestrator with the given backend and policy.
func NewOrchestrator(backend Backend, policy RetryPolicy, fallbackDelay time.Duration, log logger.Interface) *Orchestrator {
	if fallbackDelay <= 0 {
		fallbackDelay = defaultFallbackDelay
	}

	return &Orchestrator{
		backend:       backend,
		policy:        policy,
		fallbackDelay: fallbackDelay,
		logger:        log,
	}
}

// Run executes Tier-1 bulk extraction with retries, falling back to per-URL
// extraction when the bulk result is below MinProductsForSuccess. A
// non-retryable bulk failure, or exhaustion of all retry attempts, returns
// an error and the job fails without attempting the fallback.
func (o *Orchestrator) Run(ctx context.Context, req Request, rec *crawllog.Recorder) (*Result, error) {
	bulk, err := o.runBulk(ctx, req, rec)
	if err != nil {
		return nil, err
	}

	products := usablePayloads(bulk.Products, req.Limit)
	if len(products) >= MinProductsForSuccess {
		rec.Info("bulk extraction succeeded", domain.JSONBMap{
			"products": len(products),
		})
		return &Result{Products: products}, nil
	}

	rec.Info("bulk extraction below threshold, switching to per-url fallback", domain.JSONBMap{
		"bulk_products": len(products),
		"threshold":     MinProductsForSuccess,
	})

	return o.runFallback(ctx, req, rec, products, bulk.Links)
}

// runBulk performs the Tier-1 call under the retry policy, widening the
// render-wait and timeout budgets on each attempt.
func (o *Orchestrator) runBulk(ctx context.Context, req Request, rec *crawllog.Recorder) (*scrapeapi.ExtractResult, error) {
	prompt := BuildListingPrompt(req.Limit, req.Competitor.ExcludedCategoryKeywords)

	var lastErr error
	for attempt := 1; attempt <= o.policy.MaxAttempts; attempt++ {
		if sleepErr := sleep(ctx, o.policy.Delay(attempt)); sleepErr != nil {
			return nil, sleepErr
		}

		opts := scrapeapi.CallOptions{
			WaitFor: time.Duration(attempt) * waitBudgetPerAttempt,
			Timeout: time.Duration(attempt) * timeoutBudgetPerAttempt,
			Limit:   req.Limit,
		}

		result, err := o.backend.Extract(ctx, req.Competitor.BaseScrapeURL, prompt, opts)
		if err == nil {
			return result, nil
		}

		lastErr = err
		o.logger.Warn("bulk extraction attempt failed",
			"competitor", req.Competitor.Name,
			"attempt", attempt,
			"error", err)
		rec.Info("bulk extraction attempt failed", domain.JSONBMap{
			"attempt": attempt,
			"error":   err.Error(),
		})

		if !o.policy.Retryable(err) {
			return nil, fmt.Errorf("bulk extraction failed with non-retryable error: %w", err)
		}
	}

	return nil, fmt.Errorf("bulk extraction failed after %d attempts: %w", o.policy.MaxAttempts, lastErr)
}

// runFallback reclassifies the links surfaced by the bulk response and
// extracts each remaining product URL individually. Per-URL failures are
// counted and never abort the batch.
func (o *Orchestrator) runFallback(
	ctx context.Context,
	req Request,
	rec *crawllog.Recorder,
	seed []scrapeapi.ProductPayload,
	links []string,
) (*Result, error) {
	targets := o.fallbackTargets(req, rec, links)

	rec.Info("per-url fallback starting", domain.JSONBMap{
		"candidate_links": len(links),
		"targets":         len(targets),
	})

	prompt := BuildProductPrompt(req.Competitor.ExcludedCategoryKeywords)
	result := &Result{Products: seed, UsedFallback: true}

	for i, target := range targets {
		if i > 0 {
			if sleepErr := sleep(ctx, o.fallbackDelay); sleepErr != nil {
				return result, sleepErr
			}
		}

		payload, err := o.backend.ExtractOne(ctx, target.URL, prompt, scrapeapi.CallOptions{})
		if err != nil {
			result.ErrorCount++
			url := target.URL
			rec.Error("product extraction failed", &url, domain.JSONBMap{"error": err.Error()})
			continue
		}

		if payload.ProductURL == "" {
			payload.ProductURL = target.URL
		}
		result.Products = append(result.Products, *payload)
	}

	return result, nil
}

// fallbackTargets classifies and canonicalizes the bulk response links,
// merges in the discovery candidates, dedupes, drops keys already in the
// store, and caps the batch. Every exclusion lands in the trail: rejected
// links as filtered, duplicates and known keys as skipped.
func (o *Orchestrator) fallbackTargets(req Request, rec *crawllog.Recorder, links []string) []domain.ClassifiedURL {
	classified := make([]domain.ClassifiedURL, 0, len(links)+len(req.Candidates))
	for _, link := range links {
		if !classify.IsProductURL(link, req.Competitor.BaseScrapeURL, req.Competitor.URLPatterns) {
			reason := classify.MatchRule(link, req.Competitor.URLPatterns)
			if reason == "" {
				reason = "no product pattern matched"
			}
			rec.Filtered(link, reason)
			continue
		}
		classified = append(classified, domain.ClassifiedURL{
			CandidateURL: domain.CandidateURL{URL: link, Source: domain.SourceListingPage},
			IsProduct:    true,
			CanonicalKey: canonical.Key(link),
		})
	}

	classified = append(classified, req.Candidates...)
	classified, dropped := canonical.DedupeBatch(classified)
	for _, d := range dropped {
		rec.Skipped(d.URL, "duplicate in batch")
	}

	targets := make([]domain.ClassifiedURL, 0, len(classified))
	for _, c := range classified {
		if _, known := req.KnownKeys[c.CanonicalKey]; known {
			rec.Skipped(c.URL, "duplicate")
			continue
		}
		targets = append(targets, c)
	}

	maxTargets := req.Limit
	if maxTargets > maxFallbackURLs || maxTargets <= 0 {
		maxTargets = maxFallbackURLs
	}
	if len(targets) > maxTargets {
		targets = targets[:maxTargets]
	}

	return targets
}

// usablePayloads drops entries without a name or URL and caps to limit.
func usablePayloads(payloads []scrapeapi.ProductPayload, limit int) []scrapeapi.ProductPayload {
	out := make([]scrapeapi.ProductPayload, 0, len(payloads))
	for _, p := range payloads {
		if p.Name == "" || p.ProductURL == "" {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
