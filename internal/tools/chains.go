// ABOUTME: Single-prompt chains: direct generation, topic research and intent rewriting
// ABOUTME: Research runs at the creative temperature, generation at the default one
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harper/doccy/internal/llm"
	"github.com/harper/doccy/internal/prompts"
)

// ErrEmptyQuery is returned when a chain is called without a query
var ErrEmptyQuery = errors.New("query is required")

// Chains runs one-shot prompt completions
type Chains struct {
	llm                 llm.Gateway
	generate            *prompts.Template
	research            *prompts.Template
	intent              *prompts.Template
	temperature         float32
	creativeTemperature float32
}

// NewChains loads the chain prompts
func NewChains(gw llm.Gateway, store *prompts.Store, temperature, creativeTemperature float32) (*Chains, error) {
	generate, err := store.Load(prompts.Generate)
	if err != nil {
		return nil, err
	}
	research, err := store.Load(prompts.Research)
	if err != nil {
		return nil, err
	}
	intent, err := store.Load(prompts.Intent)
	if err != nil {
		return nil, err
	}
	return &Chains{
		llm:                 gw,
		generate:            generate,
		research:            research,
		intent:              intent,
		temperature:         temperature,
		creativeTemperature: creativeTemperature,
	}, nil
}

// Generate answers query directly
func (c *Chains) Generate(ctx context.Context, query string) (string, error) {
	return c.run(ctx, c.generate, query, c.temperature)
}

// Research writes an overview of a topic
func (c *Chains) Research(ctx context.Context, query string) (string, error) {
	return c.run(ctx, c.research, query, c.creativeTemperature)
}

// Intent rewrites a loosely worded request as an explicit instruction
func (c *Chains) Intent(ctx context.Context, query string) (string, error) {
	return c.run(ctx, c.intent, query, c.temperature)
}

func (c *Chains) run(ctx context.Context, tmpl *prompts.Template, query string, temperature float32) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}
	prompt, err := tmpl.Render(map[string]any{"Query": query})
	if err != nil {
		return "", err
	}
	out, err := c.llm.Complete(ctx, prompt, temperature)
	if err != nil {
		return "", fmt.Errorf("%s: %w", tmpl.Key(), err)
	}
	return out, nil
}
