// ABOUTME: Tests for the go-openai gateway client against a local HTTP server
// ABOUTME: Covers retries, non-retryable status codes, timeouts and wire mapping
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harper/doccy/internal/config"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)


func newTestClient(t *testing.T, url string, timeout time.Duration, retries int) *Client {
	t.Helper()
	c, err := NewClient(&ClientConfig{
		Provider:   config.ProviderOpenAI,
		APIKey:     "test-key",
		BaseURL:    url + "/v1",
		Model:      "gpt-test",
		MaxRetries: retries,
		RetryDelay: time.Millisecond,
		Timeout:    timeout,
	})
	require.NoError(t, err)
	return c
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	body := `{"id":"c1","object":"chat.completion","model":"m","choices":[{"index":0,"message":{"role":"assistant","content":` +
		mustJSON(content) + `},"finish_reason":"stop"}]}`
	_, _ = w.Write([]byte(body))
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func writeAPIError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(&ClientConfig{Provider: config.ProviderOpenAI, Model: "m"})
	assert.True(t, errors.Is(err, config.ErrConfiguration))

	_, err = NewClient(&ClientConfig{Provider: config.ProviderAzure, APIKey: "k", Model: "d"})
	assert.True(t, errors.Is(err, config.ErrConfiguration), "azure needs an endpoint")

	_, err = NewClient(&ClientConfig{Provider: config.ProviderAzure, APIKey: "k", Model: "d", Endpoint: "https://x.openai.azure.com"})
	assert.NoError(t, err)
}

func TestCompleteSendsPromptAndTemperature(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeCompletion(w, "hello there")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second, 0)
	out, err := c.Complete(context.Background(), "say hi", 0.7)
	require.NoError(t, err)

	assert.Equal(t, "hello there", out)
	assert.Equal(t, "gpt-test", got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 0.0001)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "say hi", got.Messages[0].Content)
}

func TestChatRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeAPIError(w, http.StatusInternalServerError)
			return
		}
		writeCompletion(w, "ok")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second, 3)
	out, err := c.Complete(context.Background(), "x", 0.3)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestChatDoesNotRetryAuthErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeAPIError(w, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second, 3)
	_, err := c.Complete(context.Background(), "x", 0.3)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestChatTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 20*time.Millisecond, 0)
	_, err := c.Complete(context.Background(), "x", 0.3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
}

func TestChatStopsOnCallerCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(t, srv.URL, time.Second, 5)
	_, err := c.Complete(ctx, "x", 0.3)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestChatMapsToolsAndSchema(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"","tool_calls":[{"id":"call_1","type":"function","function":{"name":"extract_tags","arguments":"{\"text\":\"abc\"}"}}]},"finish_reason":"tool_calls"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second, 0)
	resp, err := c.Chat(context.Background(), ChatRequest{
		Messages: []ChatMessage{{Role: "system", Content: "sys"}, {Role: "user", Content: "tag this"}},
		Tools: []ToolSpec{{
			Name:        "extract_tags",
			Description: "extract tags",
			Parameters: jsonschema.Definition{
				Type:       jsonschema.Object,
				Properties: map[string]jsonschema.Definition{"text": {Type: jsonschema.String}},
				Required:   []string{"text"},
			},
		}},
		Schema: &ResponseSchema{
			Name:   "route",
			Schema: jsonschema.Definition{Type: jsonschema.Object},
		},
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "extract_tags", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"text":"abc"}`, resp.ToolCalls[0].Arguments)

	tools, ok := got["tools"].([]any)
	require.True(t, ok)
	assert.Len(t, tools, 1)
	format, ok := got["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
}
