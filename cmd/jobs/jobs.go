// Package jobs implements the jobs command group for inspecting crawl jobs
// and their log trails.
package jobs

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/shopcrawl/cmd/common"
	"github.com/jonesrussell/shopcrawl/internal/domain"
)

const (
	defaultListLimit = 50
	logPageLimit     = 500
	timeFormat       = "2006-01-02 15:04:05"
)

// Command returns the jobs command group.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect crawl jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newGetCommand())

	return cmd
}

func newListCommand() *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List crawl jobs, newest first",
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

			repos := common.NewRepositories(db)
			jobs, err := repos.Jobs.List(cmd.Context(), status, limit, 0)
			if err != nil {
				return err
			}

			if len(jobs) == 0 {
				fmt.Println("No jobs found")
				return nil
			}

			renderJobsTable(jobs)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (pending, processing, completed, failed)")
	cmd.Flags().IntVar(&limit, "limit", defaultListLimit, "maximum jobs to list")

	return cmd
}

func newGetCommand() *cobra.Command {
	var showLogs bool

	cmd := &cobra.Command{
		Use:   "get <job-id>",
		Short: "Show one crawl job",
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

			repos := common.NewRepositories(db)
			job, err := repos.Jobs.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			printJob(job)

			if !showLogs {
				return nil
			}

			entries, err := repos.Logs.ListByJob(cmd.Context(), job.ID, logPageLimit, 0)
			if err != nil {
				return err
			}
			renderLogsTable(entries)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showLogs, "logs", false, "also print the job's crawl log trail")

	return cmd
}

func renderJobsTable(jobs []*domain.CrawlJob) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"ID", "Competitor", "Status", "Found", "Inserted", "Created", "Completed"})
	for _, job := range jobs {
		completed := ""
		if job.CompletedAt != nil {
			completed = job.CompletedAt.Format(timeFormat)
		}
		t.AppendRow(table.Row{
			job.ID,
			job.CompetitorName,
			job.Status,
			job.ProductsFound,
			job.ProductsInserted,
			job.CreatedAt.Format(timeFormat),
			completed,
		})
	}

	t.Render()
}

func printJob(job *domain.CrawlJob) {
	fmt.Printf("Job:        %s\n", job.ID)
	fmt.Printf("Competitor: %s\n", job.CompetitorName)
	fmt.Printf("Status:     %s\n", job.Status)
	fmt.Printf("Found:      %d\n", job.ProductsFound)
	fmt.Printf("Inserted:   %d\n", job.ProductsInserted)
	fmt.Printf("Created:    %s\n", job.CreatedAt.Format(timeFormat))
	if job.CompletedAt != nil {
		fmt.Printf("Completed:  %s (%s)\n",
			job.CompletedAt.Format(timeFormat),
			job.CompletedAt.Sub(job.CreatedAt).Round(time.Second))
	}
	if job.ErrorMessage != nil {
		fmt.Printf("Error:      %s\n", *job.ErrorMessage)
	}
}

func renderLogsTable(entries []*domain.CrawlLogEntry) {
	if len(entries) == 0 {
		fmt.Println("No log entries")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Time", "Type", "Message", "URL", "Reason"})
	for _, e := range entries {
		url := ""
		if e.ProductURL != nil {
			url = *e.ProductURL
		}
		reason := ""
		if e.FilterReason != nil {
			reason = *e.FilterReason
		}
		t.AppendRow(table.Row{
			e.CreatedAt.Format(timeFormat),
			e.LogType,
			e.Message,
			url,
			reason,
		})
	}

	t.Render()
}
