// Package cmd implements the command-line interface for the crawl service.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/shopcrawl/cmd/competitors"
	"github.com/jonesrussell/shopcrawl/cmd/crawl"
	"github.com/jonesrussell/shopcrawl/cmd/httpd"
	"github.com/jonesrussell/shopcrawl/cmd/jobs"
	"github.com/jonesrussell/shopcrawl/internal/config"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "shopcrawl",
		Short: "Competitor product crawler",
		Long:  `Crawls competitor e-commerce sites, extracts product data, and tracks it in PostgreSQL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Parse flags early so --config and --debug apply before viper reads.
	_ = rootCmd.ParseFlags(os.Args[1:])

	config.InitializeViper(cfgFile)
	if debug {
		viper.Set("app.debug", true)
		viper.Set("logger.level", "debug")
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shopcrawl version %s\n", Version)
		},
	})

	rootCmd.AddCommand(crawl.Command())
	rootCmd.AddCommand(jobs.Command())
	rootCmd.AddCommand(competitors.Command())
	rootCmd.AddCommand(httpd.Command())
}
