package api

import (
	"context"
	"net/http"

	service "github.com/okian/perfcore/internal/app"
	"github.com/okian/perfcore/internal/domain/peers"
)

// PeerDependencies defines the interface for peer ranking.
type PeerDependencies interface {
	RankPeers(ctx context.Context, policyName string, scores []peers.Score) (service.PeerRanking, error)
}

// PeerHandler handles peer ranking requests.
type PeerHandler struct {
	deps PeerDependencies
}

// NewPeerHandler creates a new peer handler.
func NewPeerHandler(deps PeerDependencies) *PeerHandler {
	return &PeerHandler{deps: deps}
}

type peerRankRequest struct {
	Policy string        `json:"policy"`
	Scores []peers.Score `json:"scores"`
}

func (p peerRankRequest) validate() error {
	if len(p.Scores) == 0 {
		return missing("scores")
	}
	return nil
}

// HandleRankPeers handles POST /v1/peers/rank requests.
func (h *PeerHandler) HandleRankPeers(w http.ResponseWriter, r *http.Request) {
	const op = "api.rank_peers"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req peerRankRequest
	if err := decodeBody(w, r, op, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.RankPeers(r.Context(), req.Policy, req.Scores)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
