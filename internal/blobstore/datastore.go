// ABOUTME: JSON document layer over a Store, storing each document as {id}.json
// ABOUTME: Executes DataStoreRequests and reports outcomes as DataResponses
package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/harper/doccy/internal/models"
)

const docSuffix = ".json"

// ErrInvalidRequest is returned for malformed data store requests
var ErrInvalidRequest = errors.New("invalid data store request")

// DataStore stores JSON documents by id
type DataStore struct {
	store Store
}

// NewDataStore returns a document layer over store
func NewDataStore(store Store) *DataStore {
	return &DataStore{store: store}
}

// Store saves data as the document id
func (d *DataStore) Store(ctx context.Context, container, id string, data map[string]any) error {
	if id == "" {
		return fmt.Errorf("%w: data_id is required for store operation", ErrInvalidRequest)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: data is required for store operation", ErrInvalidRequest)
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	return d.store.Put(ctx, container, id+docSuffix, payload)
}

// Retrieve loads the document id
func (d *DataStore) Retrieve(ctx context.Context, container, id string) (map[string]any, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: data_id is required for retrieve operation", ErrInvalidRequest)
	}
	payload, err := d.store.Get(ctx, container, id+docSuffix)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("document %s is not a JSON object: %w", id, err)
	}
	return doc, nil
}

// List returns the ids of documents whose id starts with prefix
func (d *DataStore) List(ctx context.Context, container, prefix string) ([]string, error) {
	ids := []string{}
	for key, err := range d.store.List(ctx, container, prefix) {
		if err != nil {
			return nil, err
		}
		if id, ok := strings.CutSuffix(key, docSuffix); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Delete removes the document id
func (d *DataStore) Delete(ctx context.Context, container, id string) error {
	if id == "" {
		return fmt.Errorf("%w: data_id is required for delete operation", ErrInvalidRequest)
	}
	return d.store.Delete(ctx, container, id+docSuffix)
}

// Execute runs req. Failures come back both as an error and as an error-status response.
func (d *DataStore) Execute(ctx context.Context, req models.DataStoreRequest) (models.DataResponse, error) {
	if !req.Operation.IsValid() {
		err := fmt.Errorf("%w: unknown operation %q, must be store, retrieve, list or delete", ErrInvalidRequest, req.Operation)
		return errorResponse(err), err
	}

	switch req.Operation {
	case models.OpStore:
		if err := d.Store(ctx, req.Container, req.DataID, req.Data); err != nil {
			return errorResponse(fmt.Errorf("failed to store data: %w", err)), err
		}
		return models.DataResponse{Status: "success", Message: "Data stored with ID: " + req.DataID}, nil

	case models.OpRetrieve:
		doc, err := d.Retrieve(ctx, req.Container, req.DataID)
		if err != nil {
			return errorResponse(fmt.Errorf("failed to retrieve data: %w", err)), err
		}
		return models.DataResponse{Status: "success", Data: doc}, nil

	case models.OpList:
		ids, err := d.List(ctx, req.Container, req.Prefix)
		if err != nil {
			return errorResponse(fmt.Errorf("failed to list data: %w", err)), err
		}
		return models.DataResponse{Status: "success", Data: ids}, nil

	default:
		if err := d.Delete(ctx, req.Container, req.DataID); err != nil {
			return errorResponse(fmt.Errorf("failed to delete data: %w", err)), err
		}
		return models.DataResponse{Status: "success", Message: fmt.Sprintf("Data with ID %s deleted", req.DataID)}, nil
	}
}

func errorResponse(err error) models.DataResponse {
	return models.DataResponse{Status: "error", Message: err.Error()}
}
