package common

import (
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/shopcrawl/internal/config"
	"github.com/jonesrussell/shopcrawl/internal/database"
	"github.com/jonesrussell/shopcrawl/internal/discover"
	"github.com/jonesrussell/shopcrawl/internal/extract"
	"github.com/jonesrussell/shopcrawl/internal/logger"
	"github.com/jonesrussell/shopcrawl/internal/pipeline"
	"github.com/jonesrussell/shopcrawl/internal/scrapeapi"
)

// Repositories groups the database repositories behind their interfaces.
type Repositories struct {
	Competitors database.CompetitorRepositoryInterface
	Products    database.ProductRepositoryInterface
	Jobs        database.JobRepositoryInterface
	Logs        database.CrawlLogRepositoryInterface
}

// NewRepositories builds all repositories on one connection pool.
func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Competitors: database.NewCompetitorRepository(db),
		Products:    database.NewProductRepository(db),
		Jobs:        database.NewJobRepository(db),
		Logs:        database.NewCrawlLogRepository(db),
	}
}

// Pipeline bundles the fully wired crawl pipeline.
type Pipeline struct {
	Service *pipeline.Service
	Tasks   *pipeline.TaskRunner
	Repos   *Repositories
}

// NewPipeline wires the scrape client, extraction backend, discoverer, and
// job runner into a ready-to-trigger pipeline service.
func NewPipeline(cfg *config.Config, db *sqlx.DB, log logger.Interface) *Pipeline {
	repos := NewRepositories(db)
	client := scrapeapi.NewClient(&cfg.ScrapeAPI, log)

	backend := newBackend(cfg, client, log)
	orchestrator := extract.NewOrchestrator(
		backend,
		extract.DefaultRetryPolicy(),
		cfg.Crawl.FallbackDelay,
		log,
	)

	discoverer := discover.NewDiscoverer(client, log)
	runner := pipeline.NewRunner(
		repos.Competitors,
		repos.Products,
		repos.Jobs,
		repos.Logs,
		discoverer,
		orchestrator,
		log,
	)

	tasks := pipeline.NewTaskRunner(cfg.Crawl.MaxConcurrentJobs, log)
	service := pipeline.NewService(
		repos.Competitors,
		repos.Jobs,
		runner,
		tasks,
		cfg.Crawl.DefaultLimit,
		log,
	)

	return &Pipeline{Service: service, Tasks: tasks, Repos: repos}
}

// newBackend selects the extraction backend. The scrape service is the
// default; the LLM backend covers deployments without a hosted extract
// endpoint.
func newBackend(cfg *config.Config, client *scrapeapi.Client, log logger.Interface) extract.Backend {
	if cfg.Crawl.ExtractionBackend == "llm" {
		return extract.NewLLMExtractor(&cfg.LLM, client, log)
	}
	return client
}
