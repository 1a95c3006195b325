package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/perfcore/pkg/metrics"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	ready func() bool
}

// NewHealthHandler creates a health handler. A nil ready func reports ready.
func NewHealthHandler(ready func() bool) *HealthHandler {
	return &HealthHandler{ready: ready}
}

type healthResponse struct {
	Status string `json:"status"`
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if h.ready != nil && !h.ready() {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "starting"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// MetricsHandler serves the process metrics registry in the Prometheus text format.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
