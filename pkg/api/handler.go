// Package api exposes the search pipeline over loopback HTTP and MCP, for
// the popup served from a local page, scripts and MCP-aware assistants.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hazyhaar/scoutlens/pkg/kit"
)

// NewRouter returns an http.Handler with all search API routes. health may
// be nil when no upstream checker runs.
func NewRouter(d Dispatcher, health HealthSource, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mw := kit.Chain(kit.RequestID(), kit.Logging(logger, "http"))

	mux := http.NewServeMux()
	h := &handler{
		search: mw(searchEndpoint(d)),
		health: mw(healthEndpoint(health)),
	}

	mux.HandleFunc("GET /v1/search", h.handleSearch)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(mux)
}

type handler struct {
	search kit.Endpoint
	health kit.Endpoint
}

// --- search ---

// handleSearch answers with the envelope itself. ERROR envelopes are results
// too and come back with 200; only a request the pipeline never ran fails.
func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	locator := false
	if v := q.Get("locator"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "locator must be a boolean")
			return
		}
		locator = b
	}

	resp, err := h.search(kit.WithTransport(r.Context(), "http"), &searchReq{
		Query:     q.Get("q"),
		IsLocator: locator,
	})
	switch {
	case errors.Is(err, ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "missing q")
		return
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp, err := h.health(kit.WithTransport(r.Context(), "http"), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// cors lets the extension popup and local pages call the API.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
