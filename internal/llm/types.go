// ABOUTME: Provider-neutral chat types used by the LLM gateway
// ABOUTME: Workers and the router build these; the gateway maps them to the wire format
package llm

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai/jsonschema"
)

var (
	// ErrTimeout is returned when a single call exceeds its deadline
	ErrTimeout = errors.New("llm call timed out")
	// ErrEmptyResponse is returned when the provider answers with no choices
	ErrEmptyResponse = errors.New("llm returned no choices")
)

// Gateway is the capability-call abstraction every LLM consumer depends on
type Gateway interface {
	// Complete sends prompt as a single user message and returns the reply text
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
	// Chat runs one chat completion, optionally offering tools or forcing a schema
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatMessage is one message sent to the model
type ChatMessage struct {
	Role       string
	Content    string
	Name       string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolSpec declares a callable tool to the model
type ToolSpec struct {
	Name        string
	Description string
	Parameters  jsonschema.Definition
}

// ResponseSchema constrains the reply to a strict JSON schema
type ResponseSchema struct {
	Name   string
	Schema jsonschema.Definition
}

// ChatRequest is a provider-neutral chat completion request
type ChatRequest struct {
	Messages    []ChatMessage
	Tools       []ToolSpec
	Schema      *ResponseSchema
	Temperature float32
}

// ToolCall is a tool invocation requested by the model
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ChatResponse is the first choice of a completion
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
}
