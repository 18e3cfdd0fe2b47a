// ABOUTME: Composition root building the one shared set of service instances
// ABOUTME: HTTP, MCP and CLI front ends all receive the same Services value
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/harper/doccy/internal/agents"
	"github.com/harper/doccy/internal/blobstore"
	"github.com/harper/doccy/internal/config"
	"github.com/harper/doccy/internal/llm"
	"github.com/harper/doccy/internal/orchestrator"
	"github.com/harper/doccy/internal/preprocess"
	"github.com/harper/doccy/internal/prompts"
	"github.com/harper/doccy/internal/tools"
)

// Services holds every long-lived component. All fields are safe for
// concurrent use and immutable after construction.
type Services struct {
	Config       *config.Config
	Logger       *slog.Logger
	LLM          llm.Gateway
	Prompts      *prompts.Store
	Store        blobstore.Store
	DataStore    *blobstore.DataStore
	Organizer    *tools.Organizer
	Enricher     *tools.Enricher
	Chains       *tools.Chains
	Orchestrator *orchestrator.Orchestrator
	Preprocessor *preprocess.Processor

	closers []func() error
}

// NewServices validates cfg and connects to the configured LLM and blob store
func NewServices(cfg *config.Config, logger *slog.Logger) (*Services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gw, err := llm.NewClient(llm.FromConfig(cfg, logger))
	if err != nil {
		return nil, fmt.Errorf("llm gateway: %w", err)
	}
	store, err := blobstore.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}

	s, err := Build(cfg, logger, gw, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	s.closers = append(s.closers, store.Close)
	return s, nil
}

// Build wires services around an existing gateway and store
func Build(cfg *config.Config, logger *slog.Logger, gw llm.Gateway, store blobstore.Store) (*Services, error) {
	ps, err := prompts.NewStore(cfg.PromptsDir)
	if err != nil {
		return nil, fmt.Errorf("prompts: %w", err)
	}

	s := &Services{
		Config:    cfg,
		Logger:    logger,
		LLM:       gw,
		Prompts:   ps,
		Store:     store,
		DataStore: blobstore.NewDataStore(store),
		Preprocessor: preprocess.New(preprocess.Options{
			Logger: logger.With("component", "preprocess"),
		}),
	}

	if s.Organizer, err = tools.NewOrganizer(gw, ps, cfg.Temperature); err != nil {
		return nil, err
	}
	if s.Enricher, err = tools.NewEnricher(gw, ps, cfg.Temperature); err != nil {
		return nil, err
	}
	if s.Chains, err = tools.NewChains(gw, ps, cfg.Temperature, cfg.CreativeTemperature); err != nil {
		return nil, err
	}

	opts := agents.Options{
		MaxSteps:    cfg.WorkerMaxSteps,
		Temperature: cfg.Temperature,
		Logger:      logger.With("component", "agents"),
	}
	docs, err := agents.NewDocumentation(gw, ps, s.Organizer, opts)
	if err != nil {
		return nil, err
	}
	feedback, err := agents.NewFeedback(gw, ps, s.Enricher, s.DataStore, cfg.Container, opts)
	if err != nil {
		return nil, err
	}
	retrieval, err := agents.NewRetrieval(gw, ps, opts)
	if err != nil {
		return nil, err
	}

	router, err := orchestrator.NewLLMRouter(gw, ps, cfg.Temperature)
	if err != nil {
		return nil, err
	}
	s.Orchestrator, err = orchestrator.New(router, []agents.Worker{docs, feedback, retrieval}, orchestrator.Options{
		MaxTurns: cfg.MaxTurns,
		Logger:   logger.With("component", "orchestrator"),
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Charm returns the charm backend when it is the configured store
func (s *Services) Charm() (*blobstore.Charm, bool) {
	store := s.Store
	if r, ok := store.(*blobstore.Resilient); ok {
		store = r.Inner()
	}
	c, ok := store.(*blobstore.Charm)
	return c, ok
}

// Close releases the blob store and any other held resources
func (s *Services) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	return errors.Join(errs...)
}
