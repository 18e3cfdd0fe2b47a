// ABOUTME: Tests for the worker tool loop and the three worker constructors
// ABOUTME: The model is a scripted fake so every branch is deterministic
package agents

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/harper/doccy/internal/blobstore"
	"github.com/harper/doccy/internal/llm"
	"github.com/harper/doccy/internal/llm/llmtest"
	"github.com/harper/doccy/internal/models"
	"github.com/harper/doccy/internal/prompts"
	"github.com/harper/doccy/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptStore(t *testing.T) *prompts.Store {
	t.Helper()
	store, err := prompts.NewStore("")
	require.NoError(t, err)
	return store
}

func conversation(t *testing.T, query string) models.Conversation {
	t.Helper()
	conv, err := models.NewConversation(query)
	require.NoError(t, err)
	return conv
}

func echoTool(name string, direct bool, out string, err error) tools.Tool {
	return tools.Tool{
		Spec:         llm.ToolSpec{Name: name},
		ReturnDirect: direct,
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			return out, err
		},
	}
}

func TestHandlePlainReply(t *testing.T) {
	fake := llmtest.New(llmtest.Text("Revenue was $4M in Q1."))
	a, err := NewRetrieval(fake, promptStore(t), Options{Temperature: 0.3})
	require.NoError(t, err)

	msg, err := a.Handle(context.Background(), conversation(t, "What was Q1 revenue?"))
	require.NoError(t, err)
	assert.Equal(t, models.Message{Role: models.RoleAssistant, Content: "Revenue was $4M in Q1.", Name: RetrievalName}, msg)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].Tools)
	require.Len(t, reqs[0].Messages, 2)
	assert.Equal(t, "system", reqs[0].Messages[0].Role)
	assert.Equal(t, "What was Q1 revenue?", reqs[0].Messages[1].Content)
}

func TestHandleToolRoundTrip(t *testing.T) {
	fake := llmtest.New(
		llmtest.Calls(llm.ToolCall{ID: "c1", Name: "lookup", Arguments: `{}`}),
		llmtest.Text("done"),
	)
	a, err := New(fake, promptStore(t), Spec{
		Name: "w", PromptKey: prompts.Retrieval,
		Tools: []tools.Tool{echoTool("lookup", false, "observation", nil)},
	}, Options{})
	require.NoError(t, err)

	msg, err := a.Handle(context.Background(), conversation(t, "q"))
	require.NoError(t, err)
	assert.Equal(t, "done", msg.Content)

	second := fake.Requests()[1].Messages
	last := second[len(second)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Equal(t, "c1", last.ToolCallID)
	assert.Equal(t, "observation", last.Content)
	assert.Len(t, second[len(second)-2].ToolCalls, 1)
}

func TestHandleDirectReturn(t *testing.T) {
	fake := llmtest.New(
		llmtest.Calls(llm.ToolCall{ID: "c1", Name: "extract_tags", Arguments: `{"text":"q1 revenue"}`}),
		llmtest.Text(`["q1","revenue"]`),
	)
	store := promptStore(t)
	org, err := tools.NewOrganizer(fake, store, 0.3)
	require.NoError(t, err)
	a, err := NewDocumentation(fake, store, org, Options{})
	require.NoError(t, err)

	msg, err := a.Handle(context.Background(), conversation(t, "tag this: q1 revenue"))
	require.NoError(t, err)
	assert.JSONEq(t, `["q1","revenue"]`, msg.Content)
	assert.Equal(t, DocumentationName, msg.Name)
	// agent call + tag extraction call, no post-processing pass
	assert.Len(t, fake.Requests(), 2)
}

func TestHandleToolErrorsAreObservations(t *testing.T) {
	fake := llmtest.New(
		llmtest.Calls(
			llm.ToolCall{ID: "c1", Name: "broken"},
			llm.ToolCall{ID: "c2", Name: "missing"},
		),
		llmtest.Text("recovered"),
	)
	a, err := New(fake, promptStore(t), Spec{
		Name: "w", PromptKey: prompts.Retrieval,
		Tools: []tools.Tool{echoTool("broken", true, "", errors.New("disk on fire"))},
	}, Options{})
	require.NoError(t, err)

	msg, err := a.Handle(context.Background(), conversation(t, "q"))
	require.NoError(t, err)
	assert.Equal(t, "recovered", msg.Content)

	msgs := fake.Requests()[1].Messages
	assert.Equal(t, "error: disk on fire", msgs[len(msgs)-2].Content)
	assert.Contains(t, msgs[len(msgs)-1].Content, "not defined")
}

func TestHandleFailures(t *testing.T) {
	boom := errors.New("quota exceeded")
	tests := []struct {
		name    string
		replies []llmtest.Reply
		want    error
	}{
		{"model error", []llmtest.Reply{llmtest.Fail(boom)}, boom},
		{"timeout", []llmtest.Reply{llmtest.Fail(llm.ErrTimeout)}, llm.ErrTimeout},
		{"empty reply", []llmtest.Reply{llmtest.Text("  ")}, ErrEmptyReply},
		{"step budget", []llmtest.Reply{
			llmtest.Calls(llm.ToolCall{ID: "1", Name: "lookup"}),
			llmtest.Calls(llm.ToolCall{ID: "2", Name: "lookup"}),
		}, ErrMaxSteps},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(llmtest.New(tt.replies...), promptStore(t), Spec{
				Name: "w", PromptKey: prompts.Retrieval,
				Tools: []tools.Tool{echoTool("lookup", false, "x", nil)},
			}, Options{MaxSteps: 2})
			require.NoError(t, err)

			_, err = a.Handle(context.Background(), conversation(t, "q"))
			var execErr *ExecutionError
			require.True(t, errors.As(err, &execErr))
			assert.Equal(t, "w", execErr.Worker)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestHandleCancelled(t *testing.T) {
	a, err := NewRetrieval(llmtest.New(llmtest.Text("x")), promptStore(t), Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Handle(ctx, conversation(t, "q"))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestHandleDoesNotTouchCallerConversation(t *testing.T) {
	a, err := NewRetrieval(llmtest.New(llmtest.Text("answer")), promptStore(t), Options{})
	require.NoError(t, err)

	conv := conversation(t, "q")
	_, err = a.Handle(context.Background(), conv)
	require.NoError(t, err)
	assert.Equal(t, 1, conv.Len())
}

func TestFeedbackWorkerTools(t *testing.T) {
	fake := llmtest.New(
		llmtest.Calls(llm.ToolCall{ID: "c1", Name: "data_store", Arguments: `{"operation":"store","data_id":"doc","data":{"body":"v2"}}`}),
		llmtest.Text("Saved the revised document."),
	)
	store := promptStore(t)
	enricher, err := tools.NewEnricher(fake, store, 0.3)
	require.NoError(t, err)
	mem := blobstore.NewMemory()

	a, err := NewFeedback(fake, store, enricher, blobstore.NewDataStore(mem), "doccy", Options{})
	require.NoError(t, err)
	assert.Equal(t, FeedbackName, a.Name())
	assert.NotEmpty(t, a.Description())

	msg, err := a.Handle(context.Background(), conversation(t, "fix the typo in doc"))
	require.NoError(t, err)
	assert.Equal(t, "Saved the revised document.", msg.Content)

	names := []string{}
	for _, spec := range fake.Requests()[0].Tools {
		names = append(names, spec.Name)
	}
	assert.ElementsMatch(t, []string{"enrich_content", "data_store"}, names)

	_, err = mem.Get(context.Background(), "doccy", "doc.json")
	assert.NoError(t, err)
}

func TestNewRejectsDuplicateTools(t *testing.T) {
	_, err := New(llmtest.New(), promptStore(t), Spec{
		Name: "w", PromptKey: prompts.Retrieval,
		Tools: []tools.Tool{echoTool("a", false, "", nil), echoTool("a", false, "", nil)},
	}, Options{})
	assert.Error(t, err)
}
