// ABOUTME: Enrich tool: restructures content with one of three templates
// ABOUTME: The template is chosen purely by which of old and new data are present
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harper/doccy/internal/llm"
	"github.com/harper/doccy/internal/models"
	"github.com/harper/doccy/internal/prompts"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// ErrInvalidEnrichmentInput is returned when neither old nor new data is given
var ErrInvalidEnrichmentInput = errors.New("enrichment needs old data, new data, or both")

// SelectMode maps input presence to the enrichment branch
func SelectMode(in models.EnrichInput) (models.EnrichMode, error) {
	switch {
	case in.OldData != nil && in.NewData != nil:
		return models.EnrichMerge, nil
	case in.OldData != nil:
		return models.EnrichUpdate, nil
	case in.NewData != nil:
		return models.EnrichFresh, nil
	default:
		return "", ErrInvalidEnrichmentInput
	}
}

// Enricher rewrites content through the LLM
type Enricher struct {
	llm         llm.Gateway
	templates   map[models.EnrichMode]*prompts.Template
	temperature float32
}

// NewEnricher loads the three enrichment prompts
func NewEnricher(gw llm.Gateway, store *prompts.Store, temperature float32) (*Enricher, error) {
	keys := map[models.EnrichMode]string{
		models.EnrichMerge:  prompts.EnrichMerge,
		models.EnrichUpdate: prompts.EnrichUpdate,
		models.EnrichFresh:  prompts.EnrichFresh,
	}
	templates := make(map[models.EnrichMode]*prompts.Template, len(keys))
	for mode, key := range keys {
		t, err := store.Load(key)
		if err != nil {
			return nil, err
		}
		templates[mode] = t
	}
	return &Enricher{llm: gw, templates: templates, temperature: temperature}, nil
}

// Variables returns exactly the template variables a mode receives
func Variables(mode models.EnrichMode, in models.EnrichInput) map[string]any {
	vars := map[string]any{"Meta": in.MetaData}
	switch mode {
	case models.EnrichMerge:
		vars["Old"] = *in.OldData
		vars["New"] = *in.NewData
	case models.EnrichUpdate:
		vars["Old"] = *in.OldData
	case models.EnrichFresh:
		vars["New"] = *in.NewData
	}
	return vars
}

// Restructure enriches in and returns the model's text
func (e *Enricher) Restructure(ctx context.Context, in models.EnrichInput) (*models.EnrichOutput, error) {
	mode, err := SelectMode(in)
	if err != nil {
		return nil, err
	}
	prompt, err := e.templates[mode].Render(Variables(mode, in))
	if err != nil {
		return nil, err
	}
	reply, err := e.llm.Complete(ctx, prompt, e.temperature)
	if err != nil {
		return nil, fmt.Errorf("enrich (%s): %w", mode, err)
	}
	return &models.EnrichOutput{FinalData: reply}, nil
}

// Tool exposes Restructure to a worker
func (e *Enricher) Tool() Tool {
	return Tool{
		Spec: llm.ToolSpec{
			Name:        "enrich_content",
			Description: "Rewrite a document. Give old_data to revise an existing document with feedback in meta_data, new_data to enrich fresh content, or both to merge them.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"meta_data": {Type: jsonschema.String, Description: "Feedback, metadata or context"},
					"old_data":  {Type: jsonschema.String, Description: "Existing document text"},
					"new_data":  {Type: jsonschema.String, Description: "New document text"},
				},
				Required: []string{"meta_data"},
			},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in models.EnrichInput
			if err := decodeArgs(args, &in); err != nil {
				return "", err
			}
			out, err := e.Restructure(ctx, in)
			if err != nil {
				return "", err
			}
			return out.FinalData, nil
		},
	}
}
