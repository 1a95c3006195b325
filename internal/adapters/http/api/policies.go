package api

import (
	"net/http"

	"github.com/okian/perfcore/internal/domain/policy"
)

// PolicyDependencies defines the interface for listing scoring profiles.
type PolicyDependencies interface {
	Policies() []policy.Policy
	DefaultPolicy() string
}

// PolicyHandler handles policy listing requests.
type PolicyHandler struct {
	deps PolicyDependencies
}

// NewPolicyHandler creates a new policy handler.
func NewPolicyHandler(deps PolicyDependencies) *PolicyHandler {
	return &PolicyHandler{deps: deps}
}

type policiesResponse struct {
	Default  string          `json:"default"`
	Policies []policy.Policy `json:"policies"`
}

// HandleListPolicies handles GET /v1/policies requests.
func (h *PolicyHandler) HandleListPolicies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, policiesResponse{
		Default:  h.deps.DefaultPolicy(),
		Policies: h.deps.Policies(),
	})
}
