package api

import (
	"context"
	"net/http"

	"github.com/okian/perfcore/internal/domain/scoring"
)

// ScoreDependencies defines the interface for single-person scoring.
type ScoreDependencies interface {
	Score(ctx context.Context, policyName string, in scoring.Input) (scoring.Result, error)
}

// ScoreHandler handles composite scoring requests.
type ScoreHandler struct {
	deps ScoreDependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

// scoreRequest is the body of POST /v1/score. An empty policy selects the default.
type scoreRequest struct {
	Policy string        `json:"policy"`
	Input  scoring.Input `json:"input"`
}

// HandleScore handles POST /v1/score requests.
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req scoreRequest
	if err := decodeBody(w, r, op, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	res, err := h.deps.Score(r.Context(), req.Policy, req.Input)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
