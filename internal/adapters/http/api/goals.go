package api

import (
	"context"
	"net/http"
	"time"

	service "github.com/okian/perfcore/internal/app"
)

// GoalRiskDependencies defines the interface for goal risk assessment.
type GoalRiskDependencies interface {
	AssessGoals(ctx context.Context, policyName string, goals []service.GoalHistory, now time.Time) (service.GoalRiskReport, error)
}

// GoalRiskHandler handles goal risk requests.
type GoalRiskHandler struct {
	deps GoalRiskDependencies
}

// NewGoalRiskHandler creates a new goal risk handler.
func NewGoalRiskHandler(deps GoalRiskDependencies) *GoalRiskHandler {
	return &GoalRiskHandler{deps: deps}
}

// goalRiskRequest is the body of POST /v1/goals/risk. Now defaults to the
// server clock; callers pin it for reproducible reports.
type goalRiskRequest struct {
	Policy string                `json:"policy"`
	Now    *time.Time            `json:"now,omitempty"`
	Goals  []service.GoalHistory `json:"goals"`
}

func (g goalRiskRequest) validate() error {
	if len(g.Goals) == 0 {
		return missing("goals")
	}
	return nil
}

// HandleGoalRisk handles POST /v1/goals/risk requests.
func (h *GoalRiskHandler) HandleGoalRisk(w http.ResponseWriter, r *http.Request) {
	const op = "api.goal_risk"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req goalRiskRequest
	if err := decodeBody(w, r, op, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	var now time.Time
	if req.Now != nil {
		now = *req.Now
	}
	report, err := h.deps.AssessGoals(r.Context(), req.Policy, req.Goals, now)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
