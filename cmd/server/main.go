package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/alpiant/pos-kasir/internal/api"
	"github.com/alpiant/pos-kasir/internal/app"
	"github.com/alpiant/pos-kasir/internal/config"
	"github.com/alpiant/pos-kasir/internal/logging"
)

// Version is set during build via ldflags
var Version = "dev"

func main() {
	configPath := pflag.StringP("config", "c", "", "path to config YAML (default $POS_CONFIG)")
	port := pflag.StringP("port", "p", "", "listen port (overrides config and SERVER_PORT)")
	settingsPath := pflag.String("settings", "", "settings file holding app.printer_port")
	logLevel := pflag.String("log-level", "", "debug, info, warn or error")
	showVersion := pflag.BoolP("version", "v", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *settingsPath != "" {
		cfg.Settings.Path = *settingsPath
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	stack, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	gin.SetMode(gin.ReleaseMode)
	server := api.NewServer(stack.Jobs, stack.Settings, api.Options{
		Logger:         logger.Named("api"),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	defer server.Close()

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if monitor := stack.Monitor(); monitor != nil {
		monitor.OnAdded(server.BroadcastPrinterAdded)
		monitor.OnRemoved(server.BroadcastPrinterRemoved)
		go monitor.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server", zap.String("addr", httpServer.Addr), zap.String("version", Version))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", httpServer.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
