// Package common provides shared dependency construction for CLI commands.
package common

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/shopcrawl/internal/config"
	"github.com/jonesrussell/shopcrawl/internal/database"
	"github.com/jonesrussell/shopcrawl/internal/logger"
)

// CommandDeps bundles the dependencies every command needs.
type CommandDeps struct {
	Config *config.Config
	Logger logger.Interface
}

// NewCommandDeps loads configuration and builds the logger. InitializeViper
// must have been called by the root command first.
func NewCommandDeps() (*CommandDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Development: cfg.App.Environment == "development",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &CommandDeps{Config: cfg, Logger: log}, nil
}

// OpenDatabase connects to PostgreSQL using the loaded configuration.
func (d *CommandDeps) OpenDatabase() (*sqlx.DB, error) {
	db, err := database.NewPostgresConnection(&d.Config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
