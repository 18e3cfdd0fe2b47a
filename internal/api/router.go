// ABOUTME: HTTP routes for queries, chains, organizer, enrichment, data store and preprocessing
// ABOUTME: Handlers depend only on the services passed in Deps
package api

import (
	"log/slog"
	"net/http"

	"github.com/harper/doccy/internal/blobstore"
	"github.com/harper/doccy/internal/logging"
	"github.com/harper/doccy/internal/orchestrator"
	"github.com/harper/doccy/internal/preprocess"
	"github.com/harper/doccy/internal/tools"
)

// DefaultMaxBodyBytes bounds JSON and multipart request bodies
const DefaultMaxBodyBytes int64 = 32 << 20

// Deps are the services the API serves. A nil Orchestrator is reported as
// an uninitialized agent.
type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	Chains       *tools.Chains
	Organizer    *tools.Organizer
	Enricher     *tools.Enricher
	DataStore    *blobstore.DataStore
	Preprocessor *preprocess.Processor
	MaxBodyBytes int64
	Logger       *slog.Logger
}

type handlers struct {
	deps Deps
}

// NewRouter returns the API handler
func NewRouter(deps Deps) http.Handler {
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	h := &handlers{deps: deps}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("GET /health", h.handleHealth)

	mux.HandleFunc("POST /api/agent/process_query", h.handleProcessQuery)
	mux.HandleFunc("POST /langchain/generate", h.handleGenerate)
	mux.HandleFunc("POST /langchain/research", h.handleResearch)
	mux.HandleFunc("POST /langchain/intent", h.handleIntent)

	mux.HandleFunc("POST /api/organizer/analyze", h.handleAnalyze)
	mux.HandleFunc("GET /api/organizer/health", h.handleComponentHealth)
	mux.HandleFunc("POST /api/enrich/enrich", h.handleEnrich)
	mux.HandleFunc("GET /api/enrich/health", h.handleComponentHealth)

	mux.HandleFunc("GET /api/datastore/{container}", h.handleDataList)
	mux.HandleFunc("PUT /api/datastore/{container}/{id}", h.handleDataPut)
	mux.HandleFunc("GET /api/datastore/{container}/{id}", h.handleDataGet)
	mux.HandleFunc("DELETE /api/datastore/{container}/{id}", h.handleDataDelete)

	mux.HandleFunc("POST /api/preprocess", h.handlePreprocess)

	return h.limitBody(mux)
}

func (h *handlers) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, h.deps.MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}
