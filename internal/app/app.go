package app

import (
	"io"
	"log/slog"

	"github.com/vk/pipegrid/internal/config"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	loader config.Loader
}

// NewApp is the constructor for the main application. It returns an App with
// its own isolated logger. Nothing is loaded until Run.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) *App {
	if loader == nil {
		// Wiring mistake, not a user error.
		panic("app: nil configuration loader")
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		loader: loader,
	}
}
