package health

import (
	"encoding/json"
	"net/http"
)

// Handler serves the aggregator's cached snapshot as JSON, mirroring the
// teacher's HealthHandler.GetSystemHealth status-code mapping.
type Handler struct {
	aggregator *Aggregator
}

// NewHandler constructs a Handler over the given Aggregator.
func NewHandler(a *Aggregator) *Handler {
	return &Handler{aggregator: a}
}

// ServeHTTP implements http.Handler for GET /healthz.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.aggregator.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	switch snapshot.Status {
	case StatusHealthy, StatusDegraded:
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	_ = json.NewEncoder(w).Encode(snapshot)
}
