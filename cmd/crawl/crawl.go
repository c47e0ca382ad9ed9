// Package crawl implements the crawl command, which triggers a crawl job for
// one competitor from the command line.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/shopcrawl/cmd/common"
	"github.com/jonesrussell/shopcrawl/internal/database"
	"github.com/jonesrussell/shopcrawl/internal/domain"
)

const pollInterval = 2 * time.Second

// Command returns the crawl command.
func Command() *cobra.Command {
	var (
		limit int
		wait  bool
	)

	cmd := &cobra.Command{
		Use:   "crawl <competitor>",
		Short: "Trigger a crawl job for a competitor",
		Long:  `Trigger a crawl job for a competitor, identified by id or name. The job runs asynchronously unless --wait is given.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return err
			}

			db, err := deps.OpenDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			p := common.NewPipeline(deps.Config, db, deps.Logger)

			result, err := p.Service.Trigger(cmd.Context(), args[0], limit)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return fmt.Errorf("competitor %q not found", args[0])
				}
				return err
			}

			fmt.Printf("Crawl job %s triggered for %s\n", result.JobID, result.CompetitorName)

			if !wait {
				// The job runs in this process; leaving now would kill it.
				p.Tasks.Wait()
				return nil
			}

			job, err := waitForJob(cmd.Context(), p.Repos.Jobs, result.JobID)
			if err != nil {
				return err
			}

			printOutcome(job)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum products to extract (0 uses the configured default)")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll the job until it reaches a terminal status")

	return cmd
}

// waitForJob polls the job record until it is terminal.
func waitForJob(ctx context.Context, jobs database.JobRepositoryInterface, jobID string) (*domain.CrawlJob, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		job, err := jobs.GetByID(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("failed to poll job %s: %w", jobID, err)
		}
		if job.IsTerminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func printOutcome(job *domain.CrawlJob) {
	switch job.Status {
	case domain.JobStatusCompleted:
		fmt.Printf("Job %s completed: %d products found, %d inserted\n",
			job.ID, job.ProductsFound, job.ProductsInserted)
	case domain.JobStatusFailed:
		message := "unknown error"
		if job.ErrorMessage != nil {
			message = *job.ErrorMessage
		}
		fmt.Printf("Job %s failed: %s\n", job.ID, message)
	}
}
