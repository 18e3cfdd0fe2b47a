// ABOUTME: MCP tool definitions and registration for the Doccy server
// ABOUTME: Exposes orchestration, organizer, enrichment and data store as MCP tools
package mcp

import (
	"github.com/harper/doccy/internal/app"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, services *app.Services) *Handlers {
	handlers := NewHandlers(services)

	// 1. process_query - run a full routing episode
	server.AddTool(mcp.Tool{
		Name:        "process_query",
		Description: "Answer a query by routing it through the documentation, retrieval and feedback agents until the router finishes.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The user query to process",
				},
			},
			Required: []string{"query"},
		},
	}, handlers.ProcessQuery)

	// 2. analyze_content - tags and category for a text
	server.AddTool(mcp.Tool{
		Name:        "analyze_content",
		Description: "Extract tags and pick a category for a piece of content.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Content to analyze",
				},
				"existing_tags": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Tags already attached to the content, kept first",
				},
				"context": map[string]interface{}{
					"type":        "string",
					"description": "Optional context about where the content came from",
				},
			},
			Required: []string{"text"},
		},
	}, handlers.AnalyzeContent)

	// 3. enrich_content - fresh, update or merge enrichment
	server.AddTool(mcp.Tool{
		Name:        "enrich_content",
		Description: "Restructure content into an enriched document. Provide new_data for fresh content, old_data to revise, or both to merge.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"meta_data": map[string]interface{}{
					"type":        "string",
					"description": "Metadata describing the document",
				},
				"old_data": map[string]interface{}{
					"type":        "string",
					"description": "Existing document content",
				},
				"new_data": map[string]interface{}{
					"type":        "string",
					"description": "Newly ingested content",
				},
			},
			Required: []string{"meta_data"},
		},
	}, handlers.EnrichContent)

	// 4. data_store - JSON document store
	server.AddTool(mcp.Tool{
		Name:        "data_store",
		Description: "Store, retrieve, list or delete JSON documents in a container.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"operation": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"store", "retrieve", "list", "delete"},
					"description": "Operation to perform",
				},
				"container_name": map[string]interface{}{
					"type":        "string",
					"description": "Container holding the documents (default: configured container)",
				},
				"data_id": map[string]interface{}{
					"type":        "string",
					"description": "Document id for store, retrieve and delete",
				},
				"data": map[string]interface{}{
					"type":        "object",
					"description": "Document body for store",
				},
				"prefix": map[string]interface{}{
					"type":        "string",
					"description": "Id prefix filter for list",
				},
			},
			Required: []string{"operation"},
		},
	}, handlers.DataStore)

	return handlers
}
