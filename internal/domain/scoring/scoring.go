// Package scoring computes the Composite Performance Index Score (CPIS).
//
// Eight dimension calculators each map one slice of a person's activity to a
// 0-100 raw score. The composite scorer weights them with a policy, rounds the
// sum and maps it to a letter grade and a star rating. Everything here is
// pure: no I/O, no clock, no shared mutable state.
package scoring

import (
	"math"

	"github.com/okian/perfcore/internal/domain/model"
	"github.com/okian/perfcore/internal/domain/policy"
)

const maxScoreValue = 100

// Input aggregates everything known about one person for one scoring run.
// Nil collections are treated as empty.
type Input struct {
	Goals         []model.Goal              `json:"goals"`
	Reviews       []model.Review            `json:"reviews"`
	Feedbacks     []model.Feedback          `json:"feedbacks"`
	Collaboration *model.CollaborationStats `json:"collaboration,omitempty"`
	Consistency   *model.ConsistencyStats   `json:"consistency,omitempty"`
	Growth        *model.GrowthStats        `json:"growth,omitempty"`
	Evidence      *model.EvidenceStats      `json:"evidence,omitempty"`
	Initiative    *model.InitiativeStats    `json:"initiative,omitempty"`
	TenureYears   float64                   `json:"tenureYears"`
	Level         int                       `json:"level"`
}

// DimensionResult is one weighted axis of the composite.
type DimensionResult struct {
	Code          policy.Dimension `json:"code"`
	RawScore      float64          `json:"rawScore"`
	Weight        float64          `json:"weight"`
	WeightedScore float64          `json:"weightedScore"`
	// Baseline is set when no record contributed and RawScore is the neutral baseline.
	Baseline bool `json:"baseline"`
}

// Result is the outcome of one scoring run. It is never mutated after Compute returns.
type Result struct {
	Score         int               `json:"score"`
	Grade         model.Grade       `json:"grade"`
	StarRating    float64           `json:"starRating"`
	Dimensions    []DimensionResult `json:"dimensions"`
	Trend         model.Trend       `json:"trend"`
	PolicyName    string            `json:"policyName"`
	PolicyVersion string            `json:"policyVersion"`
}

// Dimension returns the result for code, or false if absent.
func (r Result) Dimension(code policy.Dimension) (DimensionResult, bool) {
	for _, d := range r.Dimensions {
		if d.Code == code {
			return d, true
		}
	}
	return DimensionResult{}, false
}

// WeightedSum adds the unrounded weighted dimension scores.
func (r Result) WeightedSum() float64 {
	total := 0.0
	for _, d := range r.Dimensions {
		total += d.WeightedScore
	}
	return total
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithPolicy scores with p instead of the built-in profile.
func WithPolicy(p policy.Policy) Option {
	return func(s *Scorer) {
		s.policy = p.Clone()
	}
}

// Scorer computes composite scores under one policy. It is safe for concurrent use.
type Scorer struct {
	policy policy.Policy
}

// NewScorer creates a scorer with the default policy unless overridden.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{policy: policy.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns a copy of the scorer's policy.
func (s *Scorer) Policy() policy.Policy {
	return s.policy.Clone()
}

// calculator computes a raw score and reports whether the neutral baseline was used.
type calculator func(in Input, p policy.Policy) (float64, bool)

var calculators = map[policy.Dimension]calculator{
	policy.GoalAchievement:   func(in Input, p policy.Policy) (float64, bool) { return GoalAchievementScore(in.Goals, p) },
	policy.ReviewQuality:     func(in Input, p policy.Policy) (float64, bool) { return ReviewQualityScore(in.Reviews, p) },
	policy.FeedbackSentiment: func(in Input, p policy.Policy) (float64, bool) { return FeedbackSentimentScore(in.Feedbacks, p) },
	policy.Collaboration:     func(in Input, p policy.Policy) (float64, bool) { return CollaborationScore(in.Collaboration, p) },
	policy.Consistency:       func(in Input, p policy.Policy) (float64, bool) { return ConsistencyScore(in.Consistency, p) },
	policy.Growth:            func(in Input, p policy.Policy) (float64, bool) { return GrowthScore(in.Growth, p) },
	policy.Evidence:          func(in Input, p policy.Policy) (float64, bool) { return EvidenceScore(in.Evidence, p) },
	policy.Initiative:        func(in Input, p policy.Policy) (float64, bool) { return InitiativeScore(in.Initiative, p) },
}

// Compute runs all eight calculators and combines them into a composite result.
func (s *Scorer) Compute(in Input) Result {
	p := s.policy
	dims := make([]DimensionResult, 0, len(policy.Dimensions))
	total := 0.0
	for _, code := range policy.Dimensions {
		raw, baseline := calculators[code](in, p)
		raw = model.Clamp(raw, 0, maxScoreValue)
		w := p.Weights.For(code)
		dims = append(dims, DimensionResult{
			Code:          code,
			RawScore:      raw,
			Weight:        w,
			WeightedScore: raw * w,
			Baseline:      baseline,
		})
		total += raw * w
	}

	score := int(math.Round(model.Clamp(total, 0, maxScoreValue)))
	var history []float64
	if in.Growth != nil {
		history = in.Growth.HistoricalScores
	}

	return Result{
		Score:         score,
		Grade:         p.GradeFor(float64(score)),
		StarRating:    p.StarsFor(float64(score)),
		Dimensions:    dims,
		Trend:         TrendOf(history, p.Caps.Growth.TrendThreshold),
		PolicyName:    p.Name,
		PolicyVersion: p.Version,
	}
}

// ComputeComposite scores in under the built-in policy.
func ComputeComposite(in Input) Result {
	return NewScorer().Compute(in)
}
