// Package httpd implements the httpd command, which runs the HTTP API server.
package httpd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/shopcrawl/cmd/common"
	"github.com/jonesrussell/shopcrawl/internal/api"
)

const shutdownTimeout = 30 * time.Second

// Command returns the httpd command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Run the HTTP API server",
		Long:  `Run the HTTP API server that accepts crawl triggers and serves job state and crawl logs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Start()
		},
	}
}

// Start builds the full stack and runs the server until SIGINT or SIGTERM.
// In-flight crawl jobs are drained before exit.
func Start() error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return err
	}
	log := deps.Logger

	db, err := deps.OpenDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	p := common.NewPipeline(deps.Config, db, log)

	crawlHandler := api.NewCrawlHandler(p.Service)
	jobsHandler := api.NewJobsHandler(p.Repos.Jobs, p.Repos.Logs)
	server := api.NewServer(&deps.Config.Server, crawlHandler, jobsHandler, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}

	// Let running crawl jobs reach a terminal status before closing the pool.
	log.Info("waiting for in-flight crawl jobs")
	p.Tasks.Wait()

	log.Info("shutdown complete")
	return nil
}
