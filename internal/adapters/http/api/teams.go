package api

import (
	"context"
	"net/http"

	service "github.com/okian/perfcore/internal/app"
)

// TeamDependencies defines the interface for team scoring.
type TeamDependencies interface {
	ScoreTeam(ctx context.Context, policyName string, members []service.Member) (service.TeamResult, error)
}

// TeamHandler handles team scoring requests.
type TeamHandler struct {
	deps TeamDependencies
}

// NewTeamHandler creates a new team handler.
func NewTeamHandler(deps TeamDependencies) *TeamHandler {
	return &TeamHandler{deps: deps}
}

type teamRequest struct {
	Policy  string           `json:"policy"`
	Members []service.Member `json:"members"`
}

func (t teamRequest) validate() error {
	if len(t.Members) == 0 {
		return missing("members")
	}
	return nil
}

// HandleScoreTeam handles POST /v1/teams/score requests.
func (h *TeamHandler) HandleScoreTeam(w http.ResponseWriter, r *http.Request) {
	const op = "api.score_team"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req teamRequest
	if err := decodeBody(w, r, op, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.ScoreTeam(r.Context(), req.Policy, req.Members)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
