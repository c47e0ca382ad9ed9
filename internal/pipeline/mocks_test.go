package pipeline_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonesrussell/shopcrawl/internal/crawllog"
	"github.com/jonesrussell/shopcrawl/internal/database"
	"github.com/jonesrussell/shopcrawl/internal/domain"
	"github.com/jonesrussell/shopcrawl/internal/extract"
)

// fakeCompetitorRepo serves a fixed set of competitors.
type fakeCompetitorRepo struct {
	competitors []*domain.Competitor
	touched     []string
	touchErr    error
}

func (f *fakeCompetitorRepo) GetByID(ctx context.Context, id string) (*domain.Competitor, error) {
	for _, c := range f.competitors {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("competitor %s: %w", id, database.ErrNotFound)
}

func (f *fakeCompetitorRepo) GetByName(ctx context.Context, name string) (*domain.Competitor, error) {
	for _, c := range f.competitors {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("competitor %s: %w", name, database.ErrNotFound)
}

func (f *fakeCompetitorRepo) List(ctx context.Context) ([]*domain.Competitor, error) {
	return f.competitors, nil
}

func (f *fakeCompetitorRepo) TouchLastCrawled(ctx context.Context, id string) error {
	f.touched = append(f.touched, id)
	return f.touchErr
}

// fakeProductRepo tracks inserts in memory, honoring the conflict-ignore
// contract: inserting an existing canonical key reports false, nil.
type fakeProductRepo struct {
	mu        sync.Mutex
	keys      map[string]struct{}
	inserted  []*domain.ExtractedProduct
	keysErr   error
	insertErr func(p *domain.ExtractedProduct) error
}

func newFakeProductRepo(existingKeys ...string) *fakeProductRepo {
	keys := make(map[string]struct{}, len(existingKeys))
	for _, k := range existingKeys {
		keys[k] = struct{}{}
	}
	return &fakeProductRepo{keys: keys}
}

func (f *fakeProductRepo) Insert(ctx context.Context, product *domain.ExtractedProduct) (bool, error) {
	if f.insertErr != nil {
		if err := f.insertErr(product); err != nil {
			return false, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.keys[product.CanonicalURL]; dup {
		return false, nil
	}
	f.keys[product.CanonicalURL] = struct{}{}
	f.inserted = append(f.inserted, product)
	return true, nil
}

func (f *fakeProductRepo) CanonicalKeys(ctx context.Context, competitorName string) (map[string]struct{}, error) {
	if f.keysErr != nil {
		return nil, f.keysErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]struct{}, len(f.keys))
	for k := range f.keys {
		out[k] = struct{}{}
	}
	return out, nil
}

func (f *fakeProductRepo) ListByCompetitor(ctx context.Context, competitorName string, limit, offset int) ([]*domain.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) CountByCompetitor(ctx context.Context, competitorName string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted), nil
}

// fakeJobRepo keeps job rows in memory and enforces expected-prior-status
// updates the way the SQL repository does.
type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*domain.CrawlJob

	createErr error
	markErr   error
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*domain.CrawlJob)}
}

func (f *fakeJobRepo) Create(ctx context.Context, job *domain.CrawlJob) error {
	if f.createErr != nil {
		return f.createErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	job.Status = domain.JobStatusPending
	job.CreatedAt = time.Now()
	stored := *job
	f.jobs[job.ID] = &stored
	return nil
}

func (f *fakeJobRepo) GetByID(ctx context.Context, id string) (*domain.CrawlJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, database.ErrNotFound)
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobRepo) List(ctx context.Context, status string, limit, offset int) ([]*domain.CrawlJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.CrawlJob
	for _, job := range f.jobs {
		if status == "" || job.Status == status {
			copied := *job
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeJobRepo) Count(ctx context.Context, status string) (int, error) {
	jobs, _ := f.List(ctx, status, 0, 0)
	return len(jobs), nil
}

func (f *fakeJobRepo) MarkProcessing(ctx context.Context, id string) error {
	if f.markErr != nil {
		return f.markErr
	}
	return f.transition(id, domain.JobStatusPending, func(job *domain.CrawlJob) {
		job.Status = domain.JobStatusProcessing
	})
}

func (f *fakeJobRepo) Complete(ctx context.Context, id string, found, inserted int) error {
	return f.transition(id, domain.JobStatusProcessing, func(job *domain.CrawlJob) {
		job.Status = domain.JobStatusCompleted
		job.ProductsFound = found
		job.ProductsInserted = inserted
		now := time.Now()
		job.CompletedAt = &now
	})
}

func (f *fakeJobRepo) Fail(ctx context.Context, id, message string) error {
	return f.transition(id, domain.JobStatusProcessing, func(job *domain.CrawlJob) {
		job.Status = domain.JobStatusFailed
		job.ErrorMessage = &message
		now := time.Now()
		job.CompletedAt = &now
	})
}

func (f *fakeJobRepo) transition(id, expected string, apply func(*domain.CrawlJob)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok || job.Status != expected {
		return database.ErrInvalidTransition
	}
	apply(job)
	return nil
}

// fakeLogRepo captures flushed log batches.
type fakeLogRepo struct {
	mu      sync.Mutex
	batches [][]domain.CrawlLogEntry
	err     error
}

func (f *fakeLogRepo) InsertBatch(ctx context.Context, entries []domain.CrawlLogEntry) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, entries)
	return nil
}

func (f *fakeLogRepo) ListByJob(ctx context.Context, jobID string, limit, offset int) ([]*domain.CrawlLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.CrawlLogEntry
	for _, batch := range f.batches {
		for i := range batch {
			if batch[i].JobID == jobID {
				copied := batch[i]
				out = append(out, &copied)
			}
		}
	}
	return out, nil
}

func (f *fakeLogRepo) CountByJob(ctx context.Context, jobID, logType string) (int, error) {
	entries, _ := f.ListByJob(ctx, jobID, 0, 0)
	if logType == "" {
		return len(entries), nil
	}
	n := 0
	for _, e := range entries {
		if e.LogType == logType {
			n++
		}
	}
	return n, nil
}

// countByType tallies all flushed entries by log type.
func (f *fakeLogRepo) countByType(logType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, batch := range f.batches {
		for i := range batch {
			if batch[i].LogType == logType {
				n++
			}
		}
	}
	return n
}

// fakeDiscoverer returns a fixed candidate set.
type fakeDiscoverer struct {
	candidates []domain.CandidateURL
}

func (f *fakeDiscoverer) Discover(ctx context.Context, competitor *domain.Competitor, rec *crawllog.Recorder) []domain.CandidateURL {
	return f.candidates
}

// fakeOrchestrator returns a scripted extraction result and captures the
// request it was given.
type fakeOrchestrator struct {
	result *extract.Result
	err    error
	gotReq extract.Request
}

func (f *fakeOrchestrator) Run(ctx context.Context, req extract.Request, rec *crawllog.Recorder) (*extract.Result, error) {
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}
