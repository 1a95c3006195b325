// Package service wires the scoring engines, the job queue and the worker
// pool behind the operations the HTTP API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/perfcore/internal/adapters/mq/queue"
	workerpool "github.com/okian/perfcore/internal/adapters/mq/worker"
	"github.com/okian/perfcore/internal/domain/goalrisk"
	"github.com/okian/perfcore/internal/domain/model"
	"github.com/okian/perfcore/internal/domain/peers"
	"github.com/okian/perfcore/internal/domain/policy"
	"github.com/okian/perfcore/internal/domain/scoring"
	"github.com/okian/perfcore/pkg/logger"
	"github.com/okian/perfcore/pkg/metrics"
)

const (
	defaultQueueSize   = 4096
	defaultMaxTeamSize = 500
	defaultTeamTimeout = 5 * time.Second
	stopTimeout        = 10 * time.Second
)

// Member is one person of a team scoring request.
type Member struct {
	UserID string        `json:"userId"`
	Input  scoring.Input `json:"input"`
}

// MemberResult is a member's composite result and peer standing.
type MemberResult struct {
	UserID    string         `json:"userId"`
	Composite scoring.Result `json:"composite"`
	Peer      peers.Result   `json:"peer"`
}

// TeamResult is the outcome of one team scoring run. Members keep request order.
type TeamResult struct {
	RunID   string         `json:"runId"`
	Policy  string         `json:"policy"`
	Members []MemberResult `json:"members"`
	Summary peers.Summary  `json:"summary"`
}

// GoalHistory is a goal with its progress updates.
type GoalHistory struct {
	Goal    model.Goal             `json:"goal"`
	History []model.ProgressUpdate `json:"history"`
}

// GoalRisk is the assessment of one goal. Assessment is nil when the goal is
// completed, cancelled, fully progressed or has no due date.
type GoalRisk struct {
	GoalID     string           `json:"goalId"`
	Assessment *goalrisk.Result `json:"assessment"`
}

// GoalRiskReport is the outcome of assessing a batch of goals.
type GoalRiskReport struct {
	Policy  string          `json:"policy"`
	Goals   []GoalRisk      `json:"goals"`
	Highest model.RiskLevel `json:"highest,omitempty"`
}

// PeerRanking is the outcome of ranking a population of scores.
type PeerRanking struct {
	Policy  string         `json:"policy"`
	Results []peers.Result `json:"results"`
	Summary peers.Summary  `json:"summary"`
}

// engine bundles the three engines built from one policy.
type engine struct {
	policy   policy.Policy
	scorer   *scoring.Scorer
	assessor *goalrisk.Assessor
	ranker   *peers.Ranker
}

func newEngine(p policy.Policy) *engine {
	return &engine{
		policy:   p,
		scorer:   scoring.NewScorer(scoring.WithPolicy(p)),
		assessor: goalrisk.NewAssessor(goalrisk.WithPolicy(p)),
		ranker:   peers.NewRanker(peers.WithPolicy(p)),
	}
}

// Service implements the API dependencies for the scoring engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	engines       map[string]*engine
	defaultPolicy string
	queue         *queue.InMemoryQueue
	workerPool    *workerpool.Pool

	// Configuration
	policies    map[string]policy.Policy
	workerCount int
	queueSize   int
	maxTeamSize int
	teamTimeout time.Duration

	// State
	started bool
	cancel  context.CancelFunc

	scored   atomic.Int64
	teams    atomic.Int64
	assessed atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the scoring job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxTeamSize caps the members of one team scoring request.
func WithMaxTeamSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxTeamSize = size
		}
	}
}

// WithTeamTimeout bounds how long a team run waits for the workers.
func WithTeamTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.teamTimeout = d
		}
	}
}

// WithPolicies replaces the scoring profiles. defaultName must be one of them.
func WithPolicies(policies map[string]policy.Policy, defaultName string) Option {
	return func(s *Service) {
		if len(policies) == 0 {
			return
		}
		s.policies = make(map[string]policy.Policy, len(policies))
		for name, p := range policies {
			if p.Name == "" {
				p.Name = name
			}
			s.policies[policy.Key(name)] = p.FillDefaults()
		}
		s.defaultPolicy = policy.Key(defaultName)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with the built-in policy and default sizes.
func New(opts ...Option) *Service {
	s := &Service{
		policies:      map[string]policy.Policy{policy.DefaultName: policy.Default()},
		defaultPolicy: policy.DefaultName,
		workerCount:   runtime.NumCPU(),
		queueSize:     defaultQueueSize,
		maxTeamSize:   defaultMaxTeamSize,
		teamTimeout:   defaultTeamTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.engines = make(map[string]*engine, len(s.policies))
	for key, p := range s.policies {
		s.engines[key] = newEngine(p)
	}
	return s
}

// Start validates the policies and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	var errs []error
	for key, e := range s.engines {
		if err := e.policy.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("policy %q: %w", key, err))
		}
	}
	if _, ok := s.engines[s.defaultPolicy]; !ok {
		errs = append(errs, fmt.Errorf("%w: default %q", ErrUnknownPolicy, s.defaultPolicy))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	s.logger.Info(ctx, "starting scoring service...")

	// workers outlive the caller's ctx; Stop ends them
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
	)
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue)
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("policies", len(s.engines)),
		logger.String("defaultPolicy", s.defaultPolicy),
	)
	return nil
}

// Stop drains queued jobs and shuts the worker pool down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping scoring service...")
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
}

// engineFor resolves a policy name; empty selects the default profile.
func (s *Service) engineFor(name string) (*engine, error) {
	key := policy.Key(name)
	if key == "" {
		key = s.defaultPolicy
	}
	e, ok := s.engines[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
	return e, nil
}

// Score computes one person's composite score.
func (s *Service) Score(ctx context.Context, policyName string, in scoring.Input) (scoring.Result, error) {
	if err := ctx.Err(); err != nil {
		return scoring.Result{}, err
	}
	e, err := s.engineFor(policyName)
	if err != nil {
		return scoring.Result{}, err
	}

	start := time.Now()
	res := e.scorer.Compute(in)
	s.observe(res, time.Since(start))
	return res, nil
}

func (s *Service) observe(res scoring.Result, elapsed time.Duration) {
	s.scored.Add(1)
	metrics.RecordScoringRun(res.PolicyName, res.Grade.String(), res.Score, float64(elapsed.Microseconds())/1000)
	for _, d := range res.Dimensions {
		if d.Baseline {
			metrics.RecordBaselineDimension(d.Code.String())
		}
	}
}

// ScoreTeam scores every member on the worker pool and ranks the team.
// Members must have distinct, non-empty ids.
func (s *Service) ScoreTeam(ctx context.Context, policyName string, members []Member) (TeamResult, error) {
	start := time.Now()
	res, err := s.scoreTeam(ctx, policyName, members)
	latency := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordTeamRun(outcomeOf(err), latency)
		metrics.RecordErrorByComponent("service", outcomeOf(err))
		return TeamResult{}, err
	}
	metrics.RecordTeamRun("ok", latency)
	return res, nil
}

func (s *Service) scoreTeam(ctx context.Context, policyName string, members []Member) (TeamResult, error) {
	s.mu.RLock()
	started, q := s.started, s.queue
	log := s.logger
	s.mu.RUnlock()
	if !started {
		return TeamResult{}, ErrNotStarted
	}

	e, err := s.engineFor(policyName)
	if err != nil {
		return TeamResult{}, err
	}
	if len(members) > s.maxTeamSize {
		return TeamResult{}, fmt.Errorf("%w: %d members, limit %d", ErrTeamTooLarge, len(members), s.maxTeamSize)
	}
	index := make(map[string]int, len(members))
	for i, m := range members {
		if m.UserID == "" {
			return TeamResult{}, fmt.Errorf("%w: member %d", ErrMissingMemberID, i)
		}
		if _, dup := index[m.UserID]; dup {
			return TeamResult{}, fmt.Errorf("%w: %q", ErrDuplicateMember, m.UserID)
		}
		index[m.UserID] = i
	}

	runID := uuid.NewString()
	ctx, cancel := context.WithTimeout(ctx, s.teamTimeout)
	defer cancel()

	// sized for every member so late replies never block a worker
	reply := make(chan queue.Outcome, len(members))
	for _, m := range members {
		err := q.Submit(ctx, queue.Job{
			RunID:    runID,
			MemberID: m.UserID,
			Input:    m.Input,
			Scorer:   e.scorer,
			Reply:    reply,
		})
		switch {
		case err == nil:
		case errors.Is(err, queue.ErrFull):
			return TeamResult{}, fmt.Errorf("team %s: %w", runID, ErrBackpressure)
		case errors.Is(err, queue.ErrClosed):
			return TeamResult{}, fmt.Errorf("team %s: %w", runID, ErrNotStarted)
		default:
			return TeamResult{}, fmt.Errorf("team %s: %w", runID, err)
		}
	}

	composites := make([]scoring.Result, len(members))
	for range members {
		select {
		case out := <-reply:
			if out.Err != nil {
				return TeamResult{}, fmt.Errorf("team %s: member %q: %w", runID, out.MemberID, out.Err)
			}
			composites[index[out.MemberID]] = out.Result
			s.observe(out.Result, out.Elapsed)
		case <-ctx.Done():
			return TeamResult{}, fmt.Errorf("team %s: %w", runID, ctx.Err())
		}
	}

	scores := make([]peers.Score, len(members))
	for i, m := range members {
		scores[i] = peers.Score{UserID: m.UserID, Score: float64(composites[i].Score)}
	}
	ranked := e.ranker.Rank(scores)
	metrics.RecordPeerRanking(len(scores))

	result := TeamResult{
		RunID:   runID,
		Policy:  e.policy.Name,
		Members: make([]MemberResult, len(members)),
		Summary: e.ranker.Summarize(scores),
	}
	for i, m := range members {
		result.Members[i] = MemberResult{UserID: m.UserID, Composite: composites[i], Peer: ranked[i]}
	}

	s.teams.Add(1)
	log.Info(ctx, "team scored",
		logger.String("runId", runID),
		logger.String("policy", e.policy.Name),
		logger.Int("members", len(members)),
		logger.Float64("mean", result.Summary.Mean),
	)
	return result, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrBackpressure):
		return "backpressure"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, ErrNotStarted):
		return "not_started"
	case errors.Is(err, ErrUnknownPolicy), errors.Is(err, ErrTeamTooLarge),
		errors.Is(err, ErrDuplicateMember), errors.Is(err, ErrMissingMemberID):
		return "invalid"
	default:
		return "failed"
	}
}

// AssessGoals assesses completion risk for each goal at now. A zero now
// means the current time.
func (s *Service) AssessGoals(ctx context.Context, policyName string, goals []GoalHistory, now time.Time) (GoalRiskReport, error) {
	if err := ctx.Err(); err != nil {
		return GoalRiskReport{}, err
	}
	e, err := s.engineFor(policyName)
	if err != nil {
		return GoalRiskReport{}, err
	}
	if now.IsZero() {
		now = time.Now()
	}

	report := GoalRiskReport{Policy: e.policy.Name, Goals: make([]GoalRisk, len(goals))}
	for i, g := range goals {
		res := e.assessor.Assess(g.Goal, g.History, now)
		report.Goals[i] = GoalRisk{GoalID: g.Goal.ID, Assessment: res}
		if res == nil {
			metrics.RecordRiskNotApplicable()
			continue
		}
		s.assessed.Add(1)
		metrics.RecordRiskAssessment(res.RiskLevel.String())
		if report.Highest == "" {
			report.Highest = res.RiskLevel
		} else {
			report.Highest = report.Highest.Max(res.RiskLevel)
		}
	}
	return report, nil
}

// RankPeers ranks a population of scores. User ids must be distinct.
func (s *Service) RankPeers(ctx context.Context, policyName string, scores []peers.Score) (PeerRanking, error) {
	if err := ctx.Err(); err != nil {
		return PeerRanking{}, err
	}
	e, err := s.engineFor(policyName)
	if err != nil {
		return PeerRanking{}, err
	}
	seen := make(map[string]struct{}, len(scores))
	for i, sc := range scores {
		if sc.UserID == "" {
			return PeerRanking{}, fmt.Errorf("%w: score %d", ErrMissingMemberID, i)
		}
		if _, dup := seen[sc.UserID]; dup {
			return PeerRanking{}, fmt.Errorf("%w: %q", ErrDuplicateMember, sc.UserID)
		}
		seen[sc.UserID] = struct{}{}
	}

	metrics.RecordPeerRanking(len(scores))
	return PeerRanking{
		Policy:  e.policy.Name,
		Results: e.ranker.Rank(scores),
		Summary: e.ranker.Summarize(scores),
	}, nil
}

// Policies returns the configured profiles sorted by name.
func (s *Service) Policies() []policy.Policy {
	out := make([]policy.Policy, 0, len(s.engines))
	for _, e := range s.engines {
		out = append(out, e.policy.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultPolicy returns the key of the profile used when none is named.
func (s *Service) DefaultPolicy() string { return s.defaultPolicy }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"maxTeamSize":   s.maxTeamSize,
		"policies":      len(s.engines),
		"defaultPolicy": s.defaultPolicy,
		"scored":        s.scored.Load(),
		"teams":         s.teams.Load(),
		"assessed":      s.assessed.Load(),
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
		stats["processed"] = s.workerPool.Processed()
	}
	return stats
}
