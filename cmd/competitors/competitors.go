// Package competitors implements the competitors command group.
package competitors

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/shopcrawl/cmd/common"
	"github.com/jonesrussell/shopcrawl/internal/domain"
)

const timeFormat = "2006-01-02 15:04:05"

// Command returns the competitors command group.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "competitors",
		Short: "Inspect configured competitors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newListCommand())

	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configured competitors",
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
			competitors, err := repos.Competitors.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(competitors) == 0 {
				fmt.Println("No competitors configured")
				return nil
			}

			renderTable(competitors)
			return nil
		},
	}
}

func renderTable(competitors []*domain.Competitor) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"ID", "Name", "Base URL", "Patterns", "Excluded", "Last Crawled"})
	for _, c := range competitors {
		lastCrawled := "never"
		if c.LastCrawledAt != nil {
			lastCrawled = c.LastCrawledAt.Format(timeFormat)
		}
		t.AppendRow(table.Row{
			c.ID,
			c.Name,
			c.BaseScrapeURL,
			strings.Join(c.URLPatterns, ", "),
			strings.Join(c.ExcludedCategoryKeywords, ", "),
			lastCrawled,
		})
	}

	t.Render()
}
