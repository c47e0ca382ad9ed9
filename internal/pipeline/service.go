package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonesrussell/shopcrawl/internal/database"
	"github.com/jonesrussell/shopcrawl/internal/domain"
	"github.com/jonesrussell/shopcrawl/internal/logger"
)

// JobRunner executes one crawl job to completion.
type JobRunner interface {
	Run(ctx context.Context, job *domain.CrawlJob, competitor *domain.Competitor, limit int)
}

// Service is the pipeline's entry point. Trigger is non-blocking: it
// creates the pending job record, detaches the run, and returns the job id
// before any scraping occurs.
type Service struct {
	competitors  database.CompetitorRepositoryInterface
	jobs         database.JobRepositoryInterface
	runner       JobRunner
	tasks        *TaskRunner
	defaultLimit int
	logger       logger.Interface
}

// NewService creates a pipeline Service.
func NewService(
	competitors database.CompetitorRepositoryInterface,
	jobs database.JobRepositoryInterface,
	runner JobRunner,
	tasks *TaskRunner,
	defaultLimit int,
	log logger.Interface,
) *Service {
	return &Service{
		competitors:  competitors,
		jobs:         jobs,
		runner:       runner,
		tasks:        tasks,
		defaultLimit: defaultLimit,
		logger:       log,
	}
}

// TriggerResult is returned to the caller immediately on trigger.
type TriggerResult struct {
	JobID          string `json:"job_id"`
	CompetitorName string `json:"competitor_name"`
}

// Trigger starts a crawl for the competitor identified by id or, failing
// that, by case-insensitive name. The returned job is in pending status;
// the crawl itself runs as a detached background task.
func (s *Service) Trigger(ctx context.Context, competitorIDOrName string, limit int) (*TriggerResult, error) {
	competitor, err := s.lookupCompetitor(ctx, competitorIDOrName)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = s.defaultLimit
	}

	job := &domain.CrawlJob{
		ID:             uuid.New().String(),
		CompetitorID:   competitor.ID,
		CompetitorName: competitor.Name,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create crawl job: %w", err)
	}

	s.logger.Info("crawl job triggered",
		"job_id", job.ID, "competitor", competitor.Name, "limit", limit)

	runLimit := limit
	s.tasks.Detach("crawl:"+job.ID, func(taskCtx context.Context) {
		s.runner.Run(taskCtx, job, competitor, runLimit)
	})

	return &TriggerResult{JobID: job.ID, CompetitorName: competitor.Name}, nil
}

// lookupCompetitor resolves an id, falling back to a case-insensitive name
// lookup.
func (s *Service) lookupCompetitor(ctx context.Context, idOrName string) (*domain.Competitor, error) {
	competitor, err := s.competitors.GetByID(ctx, idOrName)
	if err == nil {
		return competitor, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		// An id-shaped lookup can fail on non-uuid input; fall through to
		// the name lookup rather than surfacing a driver error.
		s.logger.Debug("competitor id lookup failed, trying name", "input", idOrName, "error", err)
	}

	return s.competitors.GetByName(ctx, idOrName)
}
