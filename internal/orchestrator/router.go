// ABOUTME: LLM-backed routing policy using schema-constrained structured output
// ABOUTME: The reply must be {"next": <worker or FINISH>} and nothing else
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harper/doccy/internal/llm"
	"github.com/harper/doccy/internal/models"
	"github.com/harper/doccy/internal/prompts"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Decider chooses the next worker for a conversation
type Decider interface {
	Decide(ctx context.Context, workers []models.WorkerDescriptor, conv models.Conversation) (models.RoutingDecision, error)
}

// DeciderFunc adapts a function to Decider
type DeciderFunc func(ctx context.Context, workers []models.WorkerDescriptor, conv models.Conversation) (models.RoutingDecision, error)

func (f DeciderFunc) Decide(ctx context.Context, workers []models.WorkerDescriptor, conv models.Conversation) (models.RoutingDecision, error) {
	return f(ctx, workers, conv)
}

// LLMRouter asks the model for a structured routing decision
type LLMRouter struct {
	llm         llm.Gateway
	prompt      *prompts.Template
	temperature float32
}

// NewLLMRouter loads the router prompt
func NewLLMRouter(gw llm.Gateway, store *prompts.Store, temperature float32) (*LLMRouter, error) {
	prompt, err := store.Load(prompts.Router)
	if err != nil {
		return nil, err
	}
	return &LLMRouter{llm: gw, prompt: prompt, temperature: temperature}, nil
}

// DecisionSchema is the strict schema {next: enum(workers ∪ FINISH)}
func DecisionSchema(workers []models.WorkerDescriptor) *llm.ResponseSchema {
	options := make([]string, 0, len(workers)+1)
	for _, w := range workers {
		options = append(options, w.Name)
	}
	options = append(options, models.Finish)

	return &llm.ResponseSchema{
		Name: "route",
		Schema: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"next": {
					Type:        jsonschema.String,
					Description: "The worker to act next, or " + models.Finish,
					Enum:        options,
				},
			},
			Required:             []string{"next"},
			AdditionalProperties: false,
		},
	}
}

func (r *LLMRouter) Decide(ctx context.Context, workers []models.WorkerDescriptor, conv models.Conversation) (models.RoutingDecision, error) {
	system, err := r.prompt.Render(map[string]any{"Workers": workers, "Finish": models.Finish})
	if err != nil {
		return models.RoutingDecision{}, err
	}

	msgs := []llm.ChatMessage{{Role: string(models.RoleSystem), Content: system}}
	for _, m := range conv.Messages() {
		msgs = append(msgs, llm.ChatMessage{Role: string(m.Role), Content: m.Content, Name: m.Name})
	}

	resp, err := r.llm.Chat(ctx, llm.ChatRequest{
		Messages:    msgs,
		Schema:      DecisionSchema(workers),
		Temperature: r.temperature,
	})
	if err != nil {
		return models.RoutingDecision{}, fmt.Errorf("routing call: %w", err)
	}

	var decision models.RoutingDecision
	if err := json.Unmarshal([]byte(resp.Content), &decision); err != nil {
		return models.RoutingDecision{}, fmt.Errorf("%w: malformed decision %q: %w", ErrRoutingContract, resp.Content, err)
	}
	if decision.Next == "" {
		return models.RoutingDecision{}, fmt.Errorf("%w: decision has no next field", ErrRoutingContract)
	}
	return decision, nil
}
