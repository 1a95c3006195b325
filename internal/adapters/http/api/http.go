// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	service "github.com/okian/perfcore/internal/app"
)

// maxBodyBytes caps request bodies; a team of 500 with full records fits easily.
const maxBodyBytes = 8 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ScoreDependencies
	TeamDependencies
	GoalRiskDependencies
	PeerDependencies
	PolicyDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	scoreHandler    *ScoreHandler
	teamHandler     *TeamHandler
	goalRiskHandler *GoalRiskHandler
	peerHandler     *PeerHandler
	policyHandler   *PolicyHandler

	limiter *rate.Limiter
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit limits the /v1 endpoints to rps requests per second with the
// given burst, shared across endpoints. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(func() bool { return started(deps) }),
		statsHandler:    NewStatsHandler(deps),
		scoreHandler:    NewScoreHandler(deps),
		teamHandler:     NewTeamHandler(deps),
		goalRiskHandler: NewGoalRiskHandler(deps),
		peerHandler:     NewPeerHandler(deps),
		policyHandler:   NewPolicyHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func started(p StatsProvider) bool {
	ok, _ := p.GetStats()["started"].(bool)
	return ok
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.Handle("/metrics", MetricsHandler())

	s.handleV1(mux, "/v1/score", "score", s.scoreHandler.HandleScore)
	s.handleV1(mux, "/v1/teams/score", "team_score", s.teamHandler.HandleScoreTeam)
	s.handleV1(mux, "/v1/goals/risk", "goal_risk", s.goalRiskHandler.HandleGoalRisk)
	s.handleV1(mux, "/v1/peers/rank", "peer_rank", s.peerHandler.HandleRankPeers)
	s.handleV1(mux, "/v1/policies", "policies", s.policyHandler.HandleListPolicies)
}

func (s *Server) handleV1(mux *http.ServeMux, path, endpoint string, h http.HandlerFunc) {
	mux.HandleFunc(path, MetricsMiddleware(RateLimitMiddleware(h, s.limiter, endpoint), endpoint))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service failures into status codes.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrDuplicateMember),
		errors.Is(err, service.ErrMissingMemberID):
		status, code = http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrTeamTooLarge):
		status, code = http.StatusBadRequest, "team_too_large"
	case errors.Is(err, service.ErrUnknownPolicy):
		status, code = http.StatusNotFound, "unknown_policy"
	case errors.Is(err, service.ErrBackpressure):
		status, code = http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted),
		errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusServiceUnavailable, "unavailable"
	}
	writeError(w, status, code, Wrap(op, err))
}

// decodeBody reads a single JSON document from the request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, op string, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return WrapKind(op, ErrBodyTooLarge, err)
		}
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		return WrapKind(op, ErrBadRequest, err)
	}
	if dec.More() {
		return WrapKind(op, ErrBadRequest, errors.New("unexpected data after JSON body"))
	}
	return nil
}

// writeDecodeError answers a decodeBody failure.
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", err)
}

func missing(field string) error {
	return fmt.Errorf("missing %s", field)
}
