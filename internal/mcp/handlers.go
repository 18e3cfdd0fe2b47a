// ABOUTME: MCP tool handler implementations for the Doccy server
// ABOUTME: Domain failures are returned as tool errors, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harper/doccy/internal/app"
	"github.com/harper/doccy/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	services *app.Services
}

// NewHandlers returns handlers bound to services
func NewHandlers(services *app.Services) *Handlers {
	return &Handlers{services: services}
}

// ProcessQuery handles the process_query tool
func (h *Handlers) ProcessQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	res, err := h.services.Orchestrator.Process(ctx, query)
	if err != nil {
		h.services.Logger.Error("mcp process_query failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("processing failed: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"response":   res.Response,
		"episode_id": res.EpisodeID,
		"producer":   res.Producer,
		"turns":      res.Turns,
	})
}

// AnalyzeContent handles the analyze_content tool
func (h *Handlers) AnalyzeContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text argument is required and must be a string"), nil
	}

	out, err := h.services.Organizer.Analyze(ctx, models.OrganizerInput{
		Text:         text,
		ExistingTags: request.GetStringSlice("existing_tags", nil),
		Context:      request.GetString("context", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return jsonResult(out)
}

// EnrichContent handles the enrich_content tool
func (h *Handlers) EnrichContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	meta, err := request.RequireString("meta_data")
	if err != nil {
		return mcp.NewToolResultError("meta_data argument is required and must be a string"), nil
	}

	in := models.EnrichInput{MetaData: meta}
	args := request.GetArguments()
	if s, ok := args["old_data"].(string); ok {
		in.OldData = &s
	}
	if s, ok := args["new_data"].(string); ok {
		in.NewData = &s
	}

	out, err := h.services.Enricher.Restructure(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("enrichment failed: %v", err)), nil
	}
	return jsonResult(out)
}

// DataStore handles the data_store tool
func (h *Handlers) DataStore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op, err := request.RequireString("operation")
	if err != nil {
		return mcp.NewToolResultError("operation argument is required and must be a string"), nil
	}

	req := models.DataStoreRequest{
		Operation: models.DataStoreOperation(op),
		Container: request.GetString("container_name", h.services.Config.Container),
		DataID:    request.GetString("data_id", ""),
		Prefix:    request.GetString("prefix", ""),
	}
	if data, ok := request.GetArguments()["data"].(map[string]interface{}); ok {
		req.Data = data
	}

	resp, err := h.services.DataStore.Execute(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(resp.Message), nil
	}
	return jsonResult(resp)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
