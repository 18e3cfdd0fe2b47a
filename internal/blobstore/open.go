// ABOUTME: Builds the configured blob backend wrapped with timeouts and retries
// ABOUTME: One instance is shared by every request for the process lifetime
package blobstore

import (
	"fmt"
	"log/slog"

	"github.com/harper/doccy/internal/config"
)

// Open returns the backend named by cfg.StoreBackend
func Open(cfg *config.Config, logger *slog.Logger) (*Resilient, error) {
	var (
		backend Store
		err     error
	)
	switch cfg.StoreBackend {
	case config.BackendAzure:
		backend, err = OpenAzure(cfg.StorageConnectionString)
	case config.BackendCharm:
		backend, err = OpenCharm(CharmConfig{
			Host:     cfg.CharmHost,
			DBName:   cfg.CharmDBName,
			AutoSync: cfg.CharmAutoSync,
		})
	case config.BackendSQLite:
		backend, err = OpenSQLite(cfg.SQLitePath)
	case config.BackendMemory:
		backend = NewMemory()
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", config.ErrConfiguration, cfg.StoreBackend)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("blob store opened", "backend", cfg.StoreBackend)
	return NewResilient(backend, Options{
		Timeout:    cfg.StoreTimeout,
		MaxRetries: cfg.StoreMaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	}), nil
}
