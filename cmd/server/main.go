// ABOUTME: Standalone HTTP server entry point for the Doccy API
// ABOUTME: Loads configuration, builds services, and serves until SIGINT/SIGTERM
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/doccy/internal/app"
	"github.com/harper/doccy/internal/config"
	"github.com/harper/doccy/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatal("load config", err)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	services, err := app.NewServices(cfg, logger)
	if err != nil {
		fatal("build services", err)
	}
	defer services.Close()

	application, err := app.New(services)
	if err != nil {
		fatal("new app", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- application.Start()
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrCh:
		if err != nil {
			logger.Error("server exited", "error", err)
			services.Close()
			os.Exit(1)
		}
		return
	case <-sigCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown server", "error", err)
	}
	if err := <-serverErrCh; err != nil {
		logger.Error("server stopped with error", "error", err)
	}
}

func fatal(msg string, err error) {
	logging.New(os.Stderr, slog.LevelInfo).Error(msg, "error", err)
	os.Exit(1)
}
