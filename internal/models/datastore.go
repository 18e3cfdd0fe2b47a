// ABOUTME: Data store operation request/response shapes
// ABOUTME: Used by the DataStore tool, the HTTP datastore routes, and MCP
package models

// DataStoreOperation is one of the four data store operations
type DataStoreOperation string

const (
	OpStore    DataStoreOperation = "store"
	OpRetrieve DataStoreOperation = "retrieve"
	OpList     DataStoreOperation = "list"
	OpDelete   DataStoreOperation = "delete"
)

// IsValid reports whether op is a known operation
func (op DataStoreOperation) IsValid() bool {
	switch op {
	case OpStore, OpRetrieve, OpList, OpDelete:
		return true
	}
	return false
}

// DataStoreRequest describes one data store operation
type DataStoreRequest struct {
	Operation DataStoreOperation `json:"operation"`
	Container string             `json:"container_name"`
	DataID    string             `json:"data_id,omitempty"`
	Data      map[string]any     `json:"data,omitempty"`
	Prefix    string             `json:"prefix,omitempty"`
}

// DataResponse is the result of a data store operation
type DataResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}
