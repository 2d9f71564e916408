package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Source is a read-only view of tracked provider statuses.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Query returns an error wrapping ErrUnknownProvider for ids it
// does not track.
type Source interface {
	// Providers returns the tracked provider ids in a stable order.
	Providers() []string

	// Query returns the current status of one provider.
	Query(id string) (Status, error)

	// ListDown returns providers at or past the failure threshold.
	// A threshold <= 0 selects the source's configured default.
	ListDown(threshold int) []string
}

// LivenessHandler returns an HTTP handler for liveness probes.
// This is a simple check that the service is running.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler returns an HTTP handler for readiness probes.
// It reports 503 while any provider is down.
func ReadinessHandler(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		down := src.ListDown(0)

		w.Header().Set("Content-Type", "text/plain")

		if len(down) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("DOWN: " + strings.Join(down, ",")))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ProvidersResponse is the JSON response for the detailed endpoint.
type ProvidersResponse struct {
	Timestamp string            `json:"timestamp"`
	Down      []string          `json:"down"`
	Providers map[string]Status `json:"providers"`
}

// DetailedHandler returns an HTTP handler listing every provider status.
// The response is always 200; consumers read Down for the breaker view.
func DetailedHandler(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := src.Providers()
		response := ProvidersResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Down:      src.ListDown(0),
			Providers: make(map[string]Status, len(ids)),
		}
		if response.Down == nil {
			response.Down = []string{}
		}

		for _, id := range ids {
			status, err := src.Query(id)
			if err != nil {
				continue
			}
			response.Providers[id] = status
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// ProviderHandler returns an HTTP handler for a single provider. The
// provider id is read from the {id} path value.
func ProviderHandler(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		status, err := src.Query(id)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			code := http.StatusInternalServerError
			if errors.Is(err, ErrUnknownProvider) {
				code = http.StatusNotFound
			}
			w.WriteHeader(code)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": err.Error(),
			})
			return
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}

// RegisterHandlers registers all provider health handlers on the given mux.
func RegisterHandlers(mux *http.ServeMux, src Source) {
	mux.HandleFunc("GET /healthz", LivenessHandler())
	mux.HandleFunc("GET /readyz", ReadinessHandler(src))
	mux.HandleFunc("GET /providers", DetailedHandler(src))
	mux.HandleFunc("GET /providers/{id}", ProviderHandler(src))
}
