// ABOUTME: JSON response helpers and the error-to-status mapping for the HTTP API
// ABOUTME: Every error body has the shape {"detail": "..."}
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/harper/doccy/internal/agents"
	"github.com/harper/doccy/internal/blobstore"
	"github.com/harper/doccy/internal/llm"
	"github.com/harper/doccy/internal/orchestrator"
	"github.com/harper/doccy/internal/tools"
)

var (
	errInvalidRequest  = errors.New("invalid request")
	errNotInitialized  = errors.New("agent not initialized")
	errRequestTooLarge = errors.New("request body too large")
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Detail: err.Error()})
}

func invalidRequestError(message string) error {
	return fmt.Errorf("%w: %s", errInvalidRequest, message)
}

func decodeJSONBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return invalidRequestError("request body is required")
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("%w: limit is %d bytes", errRequestTooLarge, maxBytesErr.Limit)
		}
		if errors.Is(err, io.EOF) {
			return invalidRequestError("request body is required")
		}
		return invalidRequestError(fmt.Sprintf("invalid JSON body: %v", err))
	}

	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return invalidRequestError("request body must contain exactly one JSON object")
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes. Timeouts are checked
// before worker failures since a worker error may wrap one.
func statusFor(err error) int {
	var execErr *agents.ExecutionError
	switch {
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, tools.ErrInvalidEnrichmentInput),
		errors.Is(err, tools.ErrInvalidOrganizerInput),
		errors.Is(err, tools.ErrEmptyQuery),
		errors.Is(err, blobstore.ErrInvalidRequest),
		errors.Is(err, blobstore.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, errRequestTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, blobstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, llm.ErrTimeout),
		errors.Is(err, blobstore.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, orchestrator.ErrRoutingContract),
		errors.As(err, &execErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
