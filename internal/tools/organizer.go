// ABOUTME: Organizer tool: extracts tags and picks a category for a piece of content
// ABOUTME: Both steps are single LLM completions over prompt templates
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/harper/doccy/internal/llm"
	"github.com/harper/doccy/internal/models"
	"github.com/harper/doccy/internal/prompts"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// ErrInvalidOrganizerInput is returned when there is no text to analyze
var ErrInvalidOrganizerInput = errors.New("organizer input text is required")

// Organizer tags and categorizes content
type Organizer struct {
	llm         llm.Gateway
	tags        *prompts.Template
	category    *prompts.Template
	temperature float32
}

// NewOrganizer loads the organizer prompts
func NewOrganizer(gw llm.Gateway, store *prompts.Store, temperature float32) (*Organizer, error) {
	tags, err := store.Load(prompts.Tags)
	if err != nil {
		return nil, err
	}
	category, err := store.Load(prompts.Category)
	if err != nil {
		return nil, err
	}
	return &Organizer{llm: gw, tags: tags, category: category, temperature: temperature}, nil
}

// ExtractTags asks the model for a JSON array of tags
func (o *Organizer) ExtractTags(ctx context.Context, text string) ([]string, error) {
	prompt, err := o.tags.Render(map[string]any{"Text": text})
	if err != nil {
		return nil, err
	}
	reply, err := o.llm.Complete(ctx, prompt, o.temperature)
	if err != nil {
		return nil, fmt.Errorf("extract tags: %w", err)
	}

	var tags []string
	if err := json.Unmarshal([]byte(stripFences(reply)), &tags); err != nil {
		return nil, fmt.Errorf("extract tags: model did not return a JSON array: %w", err)
	}
	return tags, nil
}

// DetermineCategory asks the model for the best category, chosen from
// candidates when any are given
func (o *Organizer) DetermineCategory(ctx context.Context, text string, candidates []string) (string, error) {
	prompt, err := o.category.Render(map[string]any{"Text": text, "Categories": candidates})
	if err != nil {
		return "", err
	}
	reply, err := o.llm.Complete(ctx, prompt, o.temperature)
	if err != nil {
		return "", fmt.Errorf("determine category: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// Analyze extracts tags and a category. Existing tags come first.
func (o *Organizer) Analyze(ctx context.Context, in models.OrganizerInput) (*models.OrganizerOutput, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrInvalidOrganizerInput
	}

	extracted, err := o.ExtractTags(ctx, in.Text)
	if err != nil {
		return nil, err
	}
	tags := mergeTags(in.ExistingTags, extracted)

	text := in.Text
	if in.Context != "" {
		text = "Context: " + in.Context + "\n\n" + in.Text
	}
	category, err := o.DetermineCategory(ctx, text, tags)
	if err != nil {
		return nil, err
	}

	return &models.OrganizerOutput{Tags: tags, Category: category}, nil
}

// TagTool exposes ExtractTags to a worker as a direct-return tool
func (o *Organizer) TagTool() Tool {
	return Tool{
		Spec: llm.ToolSpec{
			Name:        "extract_tags",
			Description: "Extract topical tags from document text. Returns a JSON array of tags.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"text": {Type: jsonschema.String, Description: "The document text to tag"},
				},
				Required: []string{"text"},
			},
		},
		ReturnDirect: true,
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				Text string `json:"text"`
			}
			if err := decodeArgs(args, &in); err != nil {
				return "", err
			}
			if strings.TrimSpace(in.Text) == "" {
				return "", ErrInvalidOrganizerInput
			}
			tags, err := o.ExtractTags(ctx, in.Text)
			if err != nil {
				return "", err
			}
			out, err := json.Marshal(tags)
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
}

// stripFences removes markdown code fences models like to wrap JSON in
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func mergeTags(existing, extracted []string) []string {
	out := make([]string, 0, len(existing)+len(extracted))
	for _, group := range [][]string{existing, extracted} {
		for _, t := range group {
			t = strings.TrimSpace(t)
			if t == "" || slices.Contains(out, t) {
				continue
			}
			out = append(out, t)
		}
	}
	return out
}
