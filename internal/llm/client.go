// ABOUTME: go-openai backed Gateway for Azure OpenAI and OpenAI-compatible endpoints
// ABOUTME: Every call is rate limited, bounded by a timeout and retried with backoff
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/harper/doccy/internal/config"
	"github.com/harper/doccy/internal/logging"
	"github.com/harper/doccy/internal/util"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// ClientConfig holds configuration for the gateway client
type ClientConfig struct {
	Provider   string
	APIKey     string
	Endpoint   string
	APIVersion string
	BaseURL    string
	// Model is the Azure deployment name or the OpenAI model id
	Model      string
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	// RateLimit is requests per second, zero disables limiting
	RateLimit float64
	Logger    *slog.Logger
}

// FromConfig derives client configuration from the service configuration
func FromConfig(cfg *config.Config, logger *slog.Logger) *ClientConfig {
	cc := &ClientConfig{
		Provider:   cfg.LLMProvider,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Timeout:    cfg.LLMTimeout,
		RateLimit:  cfg.RateLimit,
		Logger:     logger,
	}
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		cc.APIKey = cfg.OpenAIKey
		cc.Model = cfg.OpenAIModel
		cc.BaseURL = cfg.OpenAIBaseURL
	default:
		cc.APIKey = cfg.AzureAPIKey
		cc.Endpoint = cfg.AzureEndpoint
		cc.APIVersion = cfg.AzureAPIVersion
		cc.Model = cfg.AzureDeployment
	}
	return cc
}

// Client implements Gateway on top of go-openai
type Client struct {
	client     *openai.Client
	model      string
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a gateway client
func NewClient(cc *ClientConfig) (*Client, error) {
	if cc.APIKey == "" {
		return nil, fmt.Errorf("%w: LLM API key is required", config.ErrConfiguration)
	}
	if cc.Model == "" {
		return nil, fmt.Errorf("%w: LLM model or deployment is required", config.ErrConfiguration)
	}

	var oc openai.ClientConfig
	switch cc.Provider {
	case config.ProviderOpenAI:
		oc = openai.DefaultConfig(cc.APIKey)
		if cc.BaseURL != "" {
			oc.BaseURL = cc.BaseURL
		}
	default:
		if cc.Endpoint == "" {
			return nil, fmt.Errorf("%w: Azure endpoint is required", config.ErrConfiguration)
		}
		oc = openai.DefaultAzureConfig(cc.APIKey, cc.Endpoint)
		if cc.APIVersion != "" {
			oc.APIVersion = cc.APIVersion
		}
		deployment := cc.Model
		oc.AzureModelMapperFunc = func(string) string { return deployment }
	}

	logger := cc.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	c := &Client{
		client:     openai.NewClientWithConfig(oc),
		model:      cc.Model,
		maxRetries: cc.MaxRetries,
		retryDelay: cc.RetryDelay,
		timeout:    cc.Timeout,
		logger:     logger,
	}
	if cc.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cc.RateLimit), 1)
	}
	return c, nil
}

// Complete sends prompt as a single user message
func (c *Client) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := c.Chat(ctx, ChatRequest{
		Messages:    []ChatMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Chat runs one chat completion with retries
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	wire := c.toWire(req)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := util.Sleep(ctx, util.CalculateBackoff(c.retryDelay, attempt)); err != nil {
				return nil, err
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := c.once(ctx, wire)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
		if !retryable(err) {
			return nil, lastErr
		}
		c.logger.Warn("llm call failed", "attempt", attempt+1, "error", err)
	}

	return nil, fmt.Errorf("chat completion failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) once(ctx context.Context, wire openai.ChatCompletionRequest) (*ChatResponse, error) {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(callCtx, wire)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	msg := resp.Choices[0].Message
	out := &ChatResponse{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func (c *Client) toWire(req ChatRequest) openai.ChatCompletionRequest {
	wire := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: req.Temperature,
	}

	for _, m := range req.Messages {
		wm := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		wire.Messages = append(wire.Messages, wm)
	}

	for _, t := range req.Tools {
		params := t.Parameters
		wire.Tools = append(wire.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  &params,
			},
		})
	}

	if req.Schema != nil {
		schema := req.Schema.Schema
		wire.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: &schema,
				Strict: true,
			},
		}
	}

	return wire
}

// retryable reports whether a failed call is worth repeating.
// Caller errors (bad request, auth, missing deployment) never are.
func retryable(err error) bool {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusNotFound, http.StatusUnprocessableEntity:
		return false
	}
	return true
}
