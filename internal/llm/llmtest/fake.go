// ABOUTME: Scriptable in-memory Gateway for tests
// ABOUTME: Replays queued responses in order and records every request it sees
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/harper/doccy/internal/llm"
)

// ErrExhausted is returned when the fake has no scripted responses left
var ErrExhausted = errors.New("llmtest: no scripted responses left")

// Reply is one scripted answer
type Reply struct {
	Response *llm.ChatResponse
	Err      error
}

// Fake implements llm.Gateway. Scripted replies are consumed in order; when
// Handler is set it takes precedence.
type Fake struct {
	mu       sync.Mutex
	replies  []Reply
	requests []llm.ChatRequest

	Handler func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// New returns a fake preloaded with replies
func New(replies ...Reply) *Fake {
	return &Fake{replies: replies}
}

// Text is a Reply carrying plain content
func Text(content string) Reply {
	return Reply{Response: &llm.ChatResponse{Content: content}}
}

// Calls is a Reply carrying tool calls
func Calls(calls ...llm.ToolCall) Reply {
	return Reply{Response: &llm.ChatResponse{ToolCalls: calls}}
}

// Fail is a Reply carrying an error
func Fail(err error) Reply {
	return Reply{Err: err}
}

// Push appends replies to the script
func (f *Fake) Push(replies ...Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, replies...)
}

// Complete implements llm.Gateway
func (f *Fake) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := f.Chat(ctx, llm.ChatRequest{
		Messages:    []llm.ChatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Chat implements llm.Gateway
func (f *Fake) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	handler := f.Handler
	var next Reply
	ok := len(f.replies) > 0
	if handler == nil && ok {
		next, f.replies = f.replies[0], f.replies[1:]
	}
	f.mu.Unlock()

	if handler != nil {
		return handler(ctx, req)
	}
	if !ok {
		return nil, ErrExhausted
	}
	return next.Response, next.Err
}

// Requests returns a copy of every request received so far
func (f *Fake) Requests() []llm.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.ChatRequest(nil), f.requests...)
}

// LastPrompt returns the content of the final message of the most recent request
func (f *Fake) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return ""
	}
	msgs := f.requests[len(f.requests)-1].Messages
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}

var _ llm.Gateway = (*Fake)(nil)
