package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codermillat/BDLawCorpus-sub002/internal/corpstorage"
	"github.com/codermillat/BDLawCorpus-sub002/internal/domreader"
	"github.com/codermillat/BDLawCorpus-sub002/internal/export"
	"github.com/codermillat/BDLawCorpus-sub002/internal/queue"
)

// catalogIngestRequest is the body of POST /api/catalog: the DOM reader's
// extractVolume/extractIndex response (§6.2), forwarded here as raw HTML
// plus the page it was read from.
type catalogIngestRequest struct {
	PageURL string `json:"page_url"`
	HTML    string `json:"html"`
}

// apiResponse mirrors the envelope shape the rest of this codebase's JSON
// endpoints use: a success flag alongside either data or an error string.
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSONResponse(w http.ResponseWriter, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// newAdminServer exposes read-only operational endpoints, the
// Prometheus scrape target, and the POST /api/catalog ingest endpoint
// (which enqueues items and may write a volume file) while a run is in
// progress.
func newAdminServer(addr string, backend corpstorage.Backend, proc *queue.Processor, exportDir string) *http.Server {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, http.StatusOK, apiResponse{Success: true, Data: "ok"})
	}).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/queue", func(w http.ResponseWriter, r *http.Request) {
		items, err := backend.ListQueueItems(r.Context())
		if err != nil {
			writeJSONResponse(w, http.StatusInternalServerError, apiResponse{Error: err.Error()})
			return
		}
		writeJSONResponse(w, http.StatusOK, apiResponse{Success: true, Data: items})
	}).Methods("GET")

	api.HandleFunc("/acts", func(w http.ResponseWriter, r *http.Request) {
		acts, err := backend.ListActs(r.Context())
		if err != nil {
			writeJSONResponse(w, http.StatusInternalServerError, apiResponse{Error: err.Error()})
			return
		}
		writeJSONResponse(w, http.StatusOK, apiResponse{Success: true, Data: acts})
	}).Methods("GET")

	api.HandleFunc("/failed", func(w http.ResponseWriter, r *http.Request) {
		failed, err := backend.ListFailedExtractions(r.Context())
		if err != nil {
			writeJSONResponse(w, http.StatusInternalServerError, apiResponse{Error: err.Error()})
			return
		}
		writeJSONResponse(w, http.StatusOK, apiResponse{Success: true, Data: failed})
	}).Methods("GET")

	api.HandleFunc("/catalog", func(w http.ResponseWriter, r *http.Request) {
		var req catalogIngestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONResponse(w, http.StatusBadRequest, apiResponse{Error: err.Error()})
			return
		}
		doc, err := domreader.Parse(req.HTML)
		if err != nil {
			writeJSONResponse(w, http.StatusBadRequest, apiResponse{Error: err.Error()})
			return
		}
		result, err := proc.EnqueueFromCatalog(r.Context(), req.PageURL, doc)
		if err != nil {
			writeJSONResponse(w, http.StatusInternalServerError, apiResponse{Error: err.Error()})
			return
		}
		if exportDir != "" && len(result.Entries) > 0 {
			writer := export.NewWriter(exportDir)
			if err := writer.WriteVolume(result.VolumeNumber, result.Entries, time.Now()); err != nil {
				writeJSONResponse(w, http.StatusInternalServerError, apiResponse{Error: err.Error()})
				return
			}
		}
		writeJSONResponse(w, http.StatusOK, apiResponse{Success: true, Data: result})
	}).Methods("POST")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return &http.Server{Addr: addr, Handler: router}
}
