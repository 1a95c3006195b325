package api

import "net/http"

// StatsProvider reports service counters: runs scored, teams, goal
// assessments, worker and queue sizes and the configured policies.
type StatsProvider interface {
	GetStats() map[string]any
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(p StatsProvider) *StatsHandler {
	return &StatsHandler{provider: p}
}

// HandleStats writes the provider's counters as JSON. They are a point-in-time
// view and are never cached.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, h.provider.GetStats())
}
