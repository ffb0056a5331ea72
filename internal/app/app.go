// Package app wires configuration into the components shared by the
// server and CLI binaries.
package app

import (
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/db-assistant/internal/config"
	"github.com/Rrens/db-assistant/internal/database/postgres"
	"github.com/Rrens/db-assistant/internal/logging"
	"github.com/Rrens/db-assistant/internal/security"
	"github.com/Rrens/db-assistant/internal/tools"
)

var envPaths = []string{".env", "../.env", "../../.env"}

// App holds the assembled components
type App struct {
	Config    *config.Config
	Connector *postgres.Connector
	Registry  *tools.Registry
}

// LoadEnv loads the first .env file found. It returns the path, or "" when
// none exists.
func LoadEnv() string {
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			return p
		}
	}
	return ""
}

// Init loads .env and configuration and installs the global logger on logOut.
func Init(logOut io.Writer) (*config.Config, error) {
	envPath := LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.Logging, logOut); err != nil {
		return nil, err
	}

	if envPath != "" {
		log.Debug().Str("path", envPath).Msg("loaded .env")
	}
	return cfg, nil
}

// New builds the connector and tool registry described by cfg. No
// connection is opened.
func New(cfg *config.Config) (*App, error) {
	connector, err := postgres.NewConnector(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	toolkit := tools.New(connector, security.NewSQLValidator(cfg.Security.StrictMode), Options(cfg))

	return &App{
		Config:    cfg,
		Connector: connector,
		Registry:  tools.NewRegistry(toolkit),
	}, nil
}

// Options maps configuration onto tool execution options.
func Options(cfg *config.Config) tools.Options {
	return tools.Options{
		MaxRows:      cfg.Security.MaxRows,
		QueryTimeout: cfg.Security.QueryTimeout,
		PlotDir:      cfg.Plot.OutputDir,
		PlotWidth:    cfg.Plot.Width,
		PlotHeight:   cfg.Plot.Height,
	}
}
