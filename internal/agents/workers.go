// ABOUTME: The three routable workers: documentation, retrieval and feedback
// ABOUTME: Each is an Agent with its own prompt and fixed toolset
package agents

import (
	"github.com/harper/doccy/internal/blobstore"
	"github.com/harper/doccy/internal/llm"
	"github.com/harper/doccy/internal/prompts"
	"github.com/harper/doccy/internal/tools"
)

// Worker names as seen by the router
const (
	DocumentationName = "documentAgent"
	RetrievalName     = "retrievalAgent"
	FeedbackName      = "feedbackAgent"
)

// NewDocumentation handles document additions and updates. Its tag tool
// returns directly.
func NewDocumentation(gw llm.Gateway, store *prompts.Store, organizer *tools.Organizer, opts Options) (*Agent, error) {
	return New(gw, store, Spec{
		Name:        DocumentationName,
		Description: "Handles requests related to documentation: adding, updating and tagging documents.",
		PromptKey:   prompts.Documentation,
		Tools:       []tools.Tool{organizer.TagTool()},
	}, opts)
}

// NewRetrieval answers questions about ingested documents. It has no tools.
func NewRetrieval(gw llm.Gateway, store *prompts.Store, opts Options) (*Agent, error) {
	return New(gw, store, Spec{
		Name:        RetrievalName,
		Description: "Handles data retrieval requests: answers questions about stored documents.",
		PromptKey:   prompts.Retrieval,
	}, opts)
}

// NewFeedback applies user feedback to stored documents
func NewFeedback(gw llm.Gateway, store *prompts.Store, enricher *tools.Enricher, ds *blobstore.DataStore, container string, opts Options) (*Agent, error) {
	return New(gw, store, Spec{
		Name:        FeedbackName,
		Description: "Handles user feedback and suggestions: revises stored documents accordingly.",
		PromptKey:   prompts.Feedback,
		Tools:       []tools.Tool{enricher.Tool(), tools.DataStoreTool(ds, container)},
	}, opts)
}
