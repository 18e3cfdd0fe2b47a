// ABOUTME: HTTP server lifecycle for the API
// ABOUTME: Mounts the API router behind request logging and handles graceful shutdown
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/harper/doccy/internal/api"
)

// App owns the HTTP server for a set of services
type App struct {
	services *Services
	logger   *slog.Logger
	server   *http.Server
}

// New returns an App serving s on s.Config.HTTPAddr
func New(s *Services) (*App, error) {
	if s == nil {
		return nil, errors.New("new app: nil services")
	}
	if s.Config.HTTPAddr == "" {
		return nil, errors.New("new app: empty HTTPAddr")
	}

	handler := api.NewRouter(api.Deps{
		Orchestrator: s.Orchestrator,
		Chains:       s.Chains,
		Organizer:    s.Organizer,
		Enricher:     s.Enricher,
		DataStore:    s.DataStore,
		Preprocessor: s.Preprocessor,
		Logger:       s.Logger.With("component", "api"),
	})

	return &App{
		services: s,
		logger:   s.Logger,
		server: &http.Server{
			Addr:    s.Config.HTTPAddr,
			Handler: requestLoggingMiddleware(s.Logger)(handler),
		},
	}, nil
}

// Handler returns the fully wrapped HTTP handler
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Start serves until Shutdown is called
func (a *App) Start() error {
	a.logger.Info("http server listening", "addr", a.server.Addr)
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests, forcing close when ctx expires
func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		a.logger.Warn("graceful shutdown timed out; forcing connection close")
		if closeErr := a.server.Close(); closeErr != nil {
			return fmt.Errorf("shutdown timeout and forced close failed: %w", errors.Join(err, closeErr))
		}
		return nil
	}
	return err
}
