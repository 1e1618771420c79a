// Package app wires the printing stack shared by the server and the CLI.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/alpiant/pos-kasir/internal/config"
	"github.com/alpiant/pos-kasir/internal/discovery"
	"github.com/alpiant/pos-kasir/internal/job"
	"github.com/alpiant/pos-kasir/internal/printer"
	"github.com/alpiant/pos-kasir/internal/settings"
)

// App holds the long-lived components.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Settings *settings.Store
	Lister   *discovery.Lister
	Jobs     *job.Service
}

// New builds the settings store, transports, discovery and the job service.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := settings.New(cfg.Settings.Path)
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}

	opts := cfg.TransportOptions()
	opts.Logger = logger.Named("printer")
	registry := printer.NewRegistry(opts)
	sender := printer.NewSender(registry, opts.Logger)

	lister := discovery.New(discovery.Options{
		Logger: logger.Named("discovery"),
		USB:    discovery.LibUSB{},
	})

	jobs := job.New(sender, store, lister, job.Options{
		Workers:     cfg.Printing.Workers,
		HistorySize: cfg.Printing.HistorySize,
		Logger:      logger.Named("job"),
	})

	logger.Info("printing stack ready",
		zap.String("settings", store.Path()),
		zap.Int("workers", cfg.Printing.Workers))

	return &App{
		Config:   cfg,
		Logger:   logger,
		Settings: store,
		Lister:   lister,
		Jobs:     jobs,
	}, nil
}

// Monitor returns a printer monitor over the shared lister, or nil when
// monitoring is disabled.
func (a *App) Monitor() *discovery.Monitor {
	if a.Config.Printing.MonitorInterval <= 0 {
		return nil
	}
	return discovery.NewMonitor(a.Lister, a.Config.Printing.MonitorInterval, a.Logger.Named("monitor"))
}

// Close stops the job workers.
func (a *App) Close() {
	a.Jobs.Close()
}
