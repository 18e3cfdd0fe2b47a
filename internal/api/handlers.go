// ABOUTME: Request handlers for the HTTP API
// ABOUTME: Each handler decodes input, calls one service, and writes JSON
package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/harper/doccy/internal/models"
	"github.com/harper/doccy/internal/preprocess"
)

type queryRequest struct {
	Query string `json:"query"`
}

func (h *handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to Doccy API"})
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"agent_initialized": h.deps.Orchestrator != nil,
	})
}

func (h *handlers) handleComponentHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *handlers) handleProcessQuery(w http.ResponseWriter, r *http.Request) {
	if h.deps.Orchestrator == nil {
		writeError(w, errNotInitialized)
		return
	}
	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		writeError(w, invalidRequestError("query parameter is required"))
		return
	}

	res, err := h.deps.Orchestrator.Process(r.Context(), query)
	if err != nil {
		h.deps.Logger.Error("process query failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": res.Response})
}

func (h *handlers) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	text, err := h.deps.Chains.Generate(r.Context(), req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"generated_text": text})
}

func (h *handlers) handleResearch(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	text, err := h.deps.Chains.Research(r.Context(), req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"research_result": text})
}

func (h *handlers) handleIntent(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	text, err := h.deps.Chains.Intent(r.Context(), req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"intent": text})
}

func (h *handlers) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var in models.OrganizerInput
	if err := decodeJSONBody(r, &in); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.deps.Organizer.Analyze(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var in models.EnrichInput
	if err := decodeJSONBody(r, &in); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.deps.Enricher.Restructure(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) handleDataList(w http.ResponseWriter, r *http.Request) {
	h.executeData(w, r, models.DataStoreRequest{
		Operation: models.OpList,
		Container: r.PathValue("container"),
		Prefix:    r.URL.Query().Get("prefix"),
	})
}

func (h *handlers) handleDataGet(w http.ResponseWriter, r *http.Request) {
	h.executeData(w, r, models.DataStoreRequest{
		Operation: models.OpRetrieve,
		Container: r.PathValue("container"),
		DataID:    r.PathValue("id"),
	})
}

func (h *handlers) handleDataDelete(w http.ResponseWriter, r *http.Request) {
	h.executeData(w, r, models.DataStoreRequest{
		Operation: models.OpDelete,
		Container: r.PathValue("container"),
		DataID:    r.PathValue("id"),
	})
}

func (h *handlers) handleDataPut(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := decodeJSONBody(r, &data); err != nil {
		writeError(w, err)
		return
	}
	h.executeData(w, r, models.DataStoreRequest{
		Operation: models.OpStore,
		Container: r.PathValue("container"),
		DataID:    r.PathValue("id"),
		Data:      data,
	})
}

func (h *handlers) executeData(w http.ResponseWriter, r *http.Request, req models.DataStoreRequest) {
	resp, err := h.deps.DataStore.Execute(r.Context(), req)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Detail: resp.Message})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) handlePreprocess(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.deps.MaxBodyBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, errRequestTooLarge)
			return
		}
		writeError(w, invalidRequestError("expected multipart form with files"))
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, invalidRequestError("at least one file is required in the files field"))
		return
	}

	uploads := make([]preprocess.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, err)
			return
		}
		uploads = append(uploads, preprocess.Upload{Name: fh.Filename, Data: data})
	}

	results := h.deps.Preprocessor.ProcessUploads(r.Context(), uploads)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
