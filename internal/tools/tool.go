// ABOUTME: Tool type shared by workers: a declared schema plus a handler
// ABOUTME: Direct-return tools end a worker's loop with their raw output
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harper/doccy/internal/llm"
)

// Handler executes one tool call with its raw JSON arguments
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// Tool is a named callable offered to a worker's model
type Tool struct {
	Spec llm.ToolSpec
	// ReturnDirect makes the tool output the worker's reply without another model pass
	ReturnDirect bool
	Handler      Handler
}

// Name returns the tool name
func (t Tool) Name() string {
	return t.Spec.Name
}

// Call runs the handler
func (t Tool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if t.Handler == nil {
		return "", fmt.Errorf("tool %q has no handler", t.Spec.Name)
	}
	return t.Handler(ctx, args)
}

func decodeArgs(args json.RawMessage, dest any) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, dest); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}
