package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lumenplaces/search/engine/search"
	"github.com/lumenplaces/search/pkg/events"
	"github.com/lumenplaces/search/pkg/metrics"
)

// API serves the HTTP endpoints.
type API struct {
	search    *search.Service
	publisher *events.Publisher
	metrics   *metrics.Registry
	logger    *slog.Logger
}

// Routes returns the API's request multiplexer.
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/search", a.handleSearch)
	mux.HandleFunc("GET /api/test", handleTest)
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("GET /metrics", a.metrics.Handler())
	return mux
}

// SearchRequest is the JSON body for POST /api/search.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse is the JSON response for POST /api/search.
type SearchResponse struct {
	Results []search.Result `json:"results"`
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// An unreadable body carries no query, so it is reported the same way.
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.Query = ""
	}

	results, err := a.search.Search(r.Context(), req.Query)
	switch {
	case errors.Is(err, search.ErrMissingQuery):
		a.outcome("bad_request")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing query"})
		return
	case err != nil:
		a.outcome("error")
		a.logger.Error("search failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	a.outcome("ok")
	elapsed := time.Since(start)
	a.metrics.Histogram("search_duration_seconds", "End-to-end search latency.", nil).Observe(elapsed.Seconds())

	ev := events.SearchPerformed{
		QueryLen:   len(req.Query),
		Results:    len(results),
		DurationMS: elapsed.Milliseconds(),
		At:         start.UTC(),
	}
	if len(results) > 0 {
		ev.TopScore = results[0].Score
	}
	a.publisher.SearchPerformed(r.Context(), ev)

	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

func (a *API) outcome(o string) {
	a.metrics.Counter(metrics.WithLabels("search_requests_total", "outcome", o), "Search requests by outcome.").Inc()
}

func handleTest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "API is working!"})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
