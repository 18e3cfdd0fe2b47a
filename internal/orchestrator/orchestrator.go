// ABOUTME: Routing state machine: decide, dispatch, append, repeat until FINISH
// ABOUTME: One Orchestrator is shared across requests; the conversation lives on the stack
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/harper/doccy/internal/agents"
	"github.com/harper/doccy/internal/logging"
	"github.com/harper/doccy/internal/models"
)

// DefaultMaxTurns caps routing decisions per episode when none is configured
const DefaultMaxTurns = 8

// Result is the outcome of one routing episode
type Result struct {
	EpisodeID string
	// Response is the last assistant message, empty if the router finished immediately
	Response string
	// Producer names the worker that wrote Response
	Producer     string
	Turns        int
	Conversation models.Conversation
}

// Options tunes the orchestrator
type Options struct {
	MaxTurns int
	Logger   *slog.Logger
}

// Orchestrator routes a query through registered workers
type Orchestrator struct {
	decider     Decider
	workers     map[string]agents.Worker
	descriptors []models.WorkerDescriptor
	names       []string
	maxTurns    int
	logger      *slog.Logger
}

// New builds the routing table. Worker names must be unique and must not
// collide with the FINISH sentinel.
func New(decider Decider, workers []agents.Worker, opts Options) (*Orchestrator, error) {
	if decider == nil {
		return nil, errors.New("decider is required")
	}
	if len(workers) == 0 {
		return nil, errors.New("at least one worker is required")
	}

	o := &Orchestrator{
		decider:  decider,
		workers:  make(map[string]agents.Worker, len(workers)),
		maxTurns: opts.MaxTurns,
		logger:   opts.Logger,
	}
	if o.maxTurns <= 0 {
		o.maxTurns = DefaultMaxTurns
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}

	for _, w := range workers {
		name := w.Name()
		if name == "" || name == models.Finish {
			return nil, fmt.Errorf("invalid worker name %q", name)
		}
		if _, dup := o.workers[name]; dup {
			return nil, fmt.Errorf("duplicate worker %q", name)
		}
		o.workers[name] = w
		o.names = append(o.names, name)
		o.descriptors = append(o.descriptors, models.WorkerDescriptor{Name: name, Description: w.Description()})
	}
	return o, nil
}

// Workers returns the routing table
func (o *Orchestrator) Workers() []models.WorkerDescriptor {
	return append([]models.WorkerDescriptor(nil), o.descriptors...)
}

// Process runs one routing episode for query
func (o *Orchestrator) Process(ctx context.Context, query string) (*Result, error) {
	conv, err := models.NewConversation(query)
	if err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	episode := uuid.NewString()
	logger := o.logger.With("episode", episode)

	for turn := 0; ; turn++ {
		if turn == o.maxTurns {
			logger.Warn("routing loop exceeded", "turns", turn)
			return nil, fmt.Errorf("%w: %d decisions without %s", ErrRoutingLoopExceeded, turn, models.Finish)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		decision, err := o.decider.Decide(ctx, o.Workers(), conv.Clone())
		if err != nil {
			return nil, err
		}
		logger.Debug("routing decision", "turn", turn+1, "next", decision.Next)

		if !decision.IsValid(o.names) {
			return nil, fmt.Errorf("%w: %w %q", ErrRoutingContract, ErrUnknownWorker, decision.Next)
		}
		if decision.IsFinish() {
			return o.finish(episode, turn+1, conv), nil
		}

		worker := o.workers[decision.Next]
		msg, err := worker.Handle(ctx, conv.Clone())
		if err != nil {
			logger.Error("worker failed", "worker", worker.Name(), "error", err)
			var execErr *agents.ExecutionError
			if errors.As(err, &execErr) {
				return nil, err
			}
			return nil, &agents.ExecutionError{Worker: worker.Name(), Err: err}
		}

		msg.Role = models.RoleAssistant
		msg.Name = worker.Name()
		if err := conv.Append(msg); err != nil {
			return nil, &agents.ExecutionError{Worker: worker.Name(), Err: err}
		}
	}
}

func (o *Orchestrator) finish(episode string, turns int, conv models.Conversation) *Result {
	res := &Result{EpisodeID: episode, Turns: turns, Conversation: conv}
	if last, ok := conv.LastAssistant(); ok {
		res.Response = last.Content
		res.Producer = last.Name
	}
	o.logger.Info("episode finished", "episode", episode, "turns", turns, "producer", res.Producer)
	return res
}
