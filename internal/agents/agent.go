// ABOUTME: Agent runs a bounded tool loop over a conversation and returns one reply
// ABOUTME: Agents hold only immutable state so one instance serves concurrent requests
package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/harper/doccy/internal/llm"
	"github.com/harper/doccy/internal/logging"
	"github.com/harper/doccy/internal/models"
	"github.com/harper/doccy/internal/prompts"
	"github.com/harper/doccy/internal/tools"
)

// DefaultMaxSteps bounds model calls per Handle when none is configured
const DefaultMaxSteps = 6

// Worker handles one dispatched turn of a routing episode
type Worker interface {
	Name() string
	Description() string
	// Handle returns exactly one message. conv is the caller's copy.
	Handle(ctx context.Context, conv models.Conversation) (models.Message, error)
}

// Options tunes an agent
type Options struct {
	MaxSteps    int
	Temperature float32
	Logger      *slog.Logger
}

// Spec describes one agent
type Spec struct {
	Name        string
	Description string
	PromptKey   string
	Tools       []tools.Tool
}

// Agent is the shared Worker implementation
type Agent struct {
	name        string
	description string
	system      string
	llm         llm.Gateway
	tools       map[string]tools.Tool
	specs       []llm.ToolSpec
	maxSteps    int
	temperature float32
	logger      *slog.Logger
}

// New builds an agent, loading its system prompt once
func New(gw llm.Gateway, store *prompts.Store, spec Spec, opts Options) (*Agent, error) {
	if spec.Name == "" {
		return nil, errors.New("agent name is required")
	}
	system, err := store.Text(spec.PromptKey)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", spec.Name, err)
	}

	a := &Agent{
		name:        spec.Name,
		description: spec.Description,
		system:      system,
		llm:         gw,
		tools:       make(map[string]tools.Tool, len(spec.Tools)),
		maxSteps:    opts.MaxSteps,
		temperature: opts.Temperature,
		logger:      opts.Logger,
	}
	if a.maxSteps <= 0 {
		a.maxSteps = DefaultMaxSteps
	}
	if a.logger == nil {
		a.logger = logging.Discard()
	}
	for _, t := range spec.Tools {
		if _, dup := a.tools[t.Name()]; dup {
			return nil, fmt.Errorf("agent %s: duplicate tool %q", spec.Name, t.Name())
		}
		a.tools[t.Name()] = t
		a.specs = append(a.specs, t.Spec)
	}
	return a, nil
}

func (a *Agent) Name() string        { return a.name }
func (a *Agent) Description() string { return a.description }

// Handle runs model -> tool calls -> tool results -> model until the model
// answers in text, a direct-return tool fires, or the step budget runs out.
func (a *Agent) Handle(ctx context.Context, conv models.Conversation) (models.Message, error) {
	msgs := make([]llm.ChatMessage, 0, conv.Len()+1)
	msgs = append(msgs, llm.ChatMessage{Role: string(models.RoleSystem), Content: a.system})
	for _, m := range conv.Messages() {
		msgs = append(msgs, llm.ChatMessage{Role: string(m.Role), Content: m.Content, Name: m.Name})
	}

	for step := 1; step <= a.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return models.Message{}, a.fail(err)
		}

		resp, err := a.llm.Chat(ctx, llm.ChatRequest{
			Messages:    msgs,
			Tools:       a.specs,
			Temperature: a.temperature,
		})
		if err != nil {
			return models.Message{}, a.fail(err)
		}

		if len(resp.ToolCalls) == 0 {
			if strings.TrimSpace(resp.Content) == "" {
				return models.Message{}, a.fail(ErrEmptyReply)
			}
			return a.reply(resp.Content), nil
		}

		msgs = append(msgs, llm.ChatMessage{
			Role:      string(models.RoleAssistant),
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			out, direct, err := a.runTool(ctx, call)
			if err != nil {
				return models.Message{}, a.fail(err)
			}
			if direct {
				return a.reply(out), nil
			}
			msgs = append(msgs, llm.ChatMessage{
				Role:       string(models.RoleTool),
				Content:    out,
				ToolCallID: call.ID,
			})
		}
	}

	return models.Message{}, a.fail(ErrMaxSteps)
}

// runTool executes one call. Tool failures become observations for the model;
// only cancellation is returned as an error.
func (a *Agent) runTool(ctx context.Context, call llm.ToolCall) (string, bool, error) {
	tool, ok := a.tools[call.Name]
	if !ok {
		a.logger.Warn("model requested unknown tool", "worker", a.name, "tool", call.Name)
		return fmt.Sprintf("error: tool %q is not defined", call.Name), false, nil
	}

	out, err := tool.Call(ctx, json.RawMessage(call.Arguments))
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		a.logger.Warn("tool failed", "worker", a.name, "tool", call.Name, "error", err)
		return "error: " + err.Error(), false, nil
	}
	a.logger.Debug("tool done", "worker", a.name, "tool", call.Name, "direct", tool.ReturnDirect)

	if tool.ReturnDirect && strings.TrimSpace(out) != "" {
		return out, true, nil
	}
	return out, false, nil
}

func (a *Agent) reply(content string) models.Message {
	return models.Message{Role: models.RoleAssistant, Content: content, Name: a.name}
}

func (a *Agent) fail(err error) error {
	return &ExecutionError{Worker: a.name, Err: err}
}

var _ Worker = (*Agent)(nil)
