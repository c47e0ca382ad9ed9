package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/shopcrawl/internal/database"
	"github.com/jonesrussell/shopcrawl/internal/domain"
	"github.com/jonesrussell/shopcrawl/internal/logger"
	"github.com/jonesrussell/shopcrawl/internal/pipeline"
)

// blockingRunner records Run invocations and holds until released.
type blockingRunner struct {
	started  chan string
	release  chan struct{}
	gotLimit int
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan string, 1),
		release: make(chan struct{}),
	}
}

func (r *blockingRunner) Run(ctx context.Context, job *domain.CrawlJob, competitor *domain.Competitor, limit int) {
	r.gotLimit = limit
	r.started <- job.ID
	<-r.release
}

func newService(competitors *fakeCompetitorRepo, jobs *fakeJobRepo, runner pipeline.JobRunner) (*pipeline.Service, *pipeline.TaskRunner) {
	tasks := pipeline.NewTaskRunner(2, logger.NewNoOp())
	svc := pipeline.NewService(competitors, jobs, runner, tasks, 20, logger.NewNoOp())
	return svc, tasks
}

func TestTrigger_ReturnsBeforeRunFinishes(t *testing.T) {
	competitors := &fakeCompetitorRepo{competitors: []*domain.Competitor{testCompetitor()}}
	jobs := newFakeJobRepo()
	runner := newBlockingRunner()
	svc, tasks := newService(competitors, jobs, runner)

	result, err := svc.Trigger(context.Background(), "acme", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, result.JobID)
	assert.Equal(t, "acme", result.CompetitorName)

	// The job record exists in pending before the run makes progress.
	job, err := jobs.GetByID(context.Background(), result.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, job.Status)

	select {
	case started := <-runner.started:
		assert.Equal(t, result.JobID, started)
	case <-time.After(time.Second):
		t.Fatal("runner never started")
	}

	close(runner.release)
	tasks.Wait()
	assert.Equal(t, 10, runner.gotLimit)
}

func TestTrigger_ResolvesCompetitorByID(t *testing.T) {
	competitors := &fakeCompetitorRepo{competitors: []*domain.Competitor{testCompetitor()}}
	jobs := newFakeJobRepo()
	runner := newBlockingRunner()
	svc, tasks := newService(competitors, jobs, runner)

	result, err := svc.Trigger(context.Background(), "comp-1", 0)
	require.NoError(t, err)
	assert.Equal(t, "acme", result.CompetitorName)

	<-runner.started
	close(runner.release)
	tasks.Wait()

	// Zero limit falls back to the configured default.
	assert.Equal(t, 20, runner.gotLimit)
}

func TestTrigger_UnknownCompetitor(t *testing.T) {
	competitors := &fakeCompetitorRepo{}
	jobs := newFakeJobRepo()
	svc, _ := newService(competitors, jobs, newBlockingRunner())

	_, err := svc.Trigger(context.Background(), "nobody", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, database.ErrNotFound))

	// No job row was created.
	count, _ := jobs.Count(context.Background(), "")
	assert.Zero(t, count)
}

func TestTrigger_JobCreateFailure(t *testing.T) {
	competitors := &fakeCompetitorRepo{competitors: []*domain.Competitor{testCompetitor()}}
	jobs := newFakeJobRepo()
	jobs.createErr = errors.New("db down")
	svc, _ := newService(competitors, jobs, newBlockingRunner())

	_, err := svc.Trigger(context.Background(), "acme", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create crawl job")
}
