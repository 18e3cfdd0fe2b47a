// ABOUTME: DataStore tool: store, retrieve, list or delete JSON documents
// ABOUTME: Failures are reported to the model as an error-status result, not raised
package tools

import (
	"context"
	"encoding/json"

	"github.com/harper/doccy/internal/blobstore"
	"github.com/harper/doccy/internal/llm"
	"github.com/harper/doccy/internal/models"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// DataStoreTool exposes the document store to a worker. Requests without a
// container use defaultContainer.
func DataStoreTool(ds *blobstore.DataStore, defaultContainer string) Tool {
	return Tool{
		Spec: llm.ToolSpec{
			Name:        "data_store",
			Description: "Store, retrieve, list, or delete JSON documents in persistent storage",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"operation": {
						Type: jsonschema.String,
						Enum: []string{string(models.OpStore), string(models.OpRetrieve), string(models.OpList), string(models.OpDelete)},
					},
					"container_name": {Type: jsonschema.String, Description: "Container to use"},
					"data_id":        {Type: jsonschema.String, Description: "Document id (store, retrieve, delete)"},
					"data":           {Type: jsonschema.Object, Description: "Document to store"},
					"prefix":         {Type: jsonschema.String, Description: "Id prefix filter for list"},
				},
				Required: []string{"operation"},
			},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			var req models.DataStoreRequest
			if err := decodeArgs(args, &req); err != nil {
				return "", err
			}
			if req.Container == "" {
				req.Container = defaultContainer
			}
			resp, err := ds.Execute(ctx, req)
			if err != nil && ctx.Err() != nil {
				return "", ctx.Err()
			}
			out, err := json.Marshal(resp)
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
}
