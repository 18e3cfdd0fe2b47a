// ABOUTME: Request and response shapes for the organizer (tagging and categorization)
// ABOUTME: One stable response shape is used by HTTP, MCP, and CLI
package models

// OrganizerInput is the content to tag and categorize
type OrganizerInput struct {
	Text         string   `json:"text"`
	ExistingTags []string `json:"existing_tags,omitempty"`
	Context      string   `json:"context,omitempty"`
}

// OrganizerOutput is the result of analyzing content
type OrganizerOutput struct {
	Tags          []string `json:"tags"`
	Category      string   `json:"category"`
	Summary       string   `json:"summary,omitempty"`
	RelatedTopics []string `json:"related_topics,omitempty"`
}
