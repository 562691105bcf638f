// Package providers contains dependency injection providers for the Rigbook server.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/rigbook/rigbook-server/internal/config"
	"github.com/rigbook/rigbook-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger, writing to stdout.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := newLogger(cfg, nil)
	log.Info("Starting Rigbook server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"db_driver", cfg.Database.Driver,
		"db_path", cfg.Database.Path,
	)
	return log, nil
}

// ProvideStderrLogger provides a logger for processes whose stdout carries a
// protocol, such as the MCP stdio server.
func ProvideStderrLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return newLogger(cfg, os.Stderr), nil
}

func newLogger(cfg *config.Config, w *os.File) *logger.Logger {
	c := logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	}
	if w != nil {
		c.Writer = w
	}
	return logger.New(c)
}
