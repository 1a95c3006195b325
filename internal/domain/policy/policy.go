// Package policy holds the tunable data behind composite scoring, goal risk
// and peer statistics: dimension weights, grade and star bands, saturation
// caps and risk thresholds.
//
// A Policy is plain data. Engines copy it at construction, so several named
// profiles (per tenant, per department) can coexist without branching the
// algorithms. Policies are loaded from YAML through the config package.
package policy

import (
	"strings"

	"github.com/okian/perfcore/internal/domain/model"
)

// DefaultName is the name of the built-in profile.
const DefaultName = "standard"

// Key is the lookup form of a profile name.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Dimension identifies one axis of the composite score.
type Dimension string

const (
	GoalAchievement   Dimension = "GOAL_ACHIEVEMENT"
	ReviewQuality     Dimension = "REVIEW_QUALITY"
	FeedbackSentiment Dimension = "FEEDBACK_SENTIMENT"
	Collaboration     Dimension = "COLLABORATION"
	Consistency       Dimension = "CONSISTENCY"
	Growth            Dimension = "GROWTH"
	Evidence          Dimension = "EVIDENCE"
	Initiative        Dimension = "INITIATIVE"
)

// Dimensions lists every dimension in reporting order.
var Dimensions = []Dimension{
	GoalAchievement,
	ReviewQuality,
	FeedbackSentiment,
	Collaboration,
	Consistency,
	Growth,
	Evidence,
	Initiative,
}

// String returns the string representation of the dimension.
func (d Dimension) String() string { return string(d) }

// Policy is a named, versioned scoring profile.
type Policy struct {
	Name    string `koanf:"name" json:"name"`
	Version string `koanf:"version" json:"version"`

	// NeutralBaseline is the raw score of a dimension with no contributing records.
	NeutralBaseline float64 `koanf:"neutral_baseline" json:"neutralBaseline"`

	Weights    Weights     `koanf:"weights" json:"weights"`
	GradeBands []GradeBand `koanf:"grade_bands" json:"gradeBands"`
	StarBands  []StarBand  `koanf:"star_bands" json:"starBands"`

	Goals GoalRules `koanf:"goals" json:"goals"`

	// ReviewTypeWeights scales reviews by author type, keyed by model.ReviewType.
	ReviewTypeWeights       map[string]float64 `koanf:"review_type_weights" json:"reviewTypeWeights"`
	DefaultReviewTypeWeight float64            `koanf:"default_review_type_weight" json:"defaultReviewTypeWeight"`

	Feedback FeedbackRules  `koanf:"feedback" json:"feedback"`
	Caps     Caps           `koanf:"caps" json:"caps"`
	Risk     RiskThresholds `koanf:"risk" json:"risk"`
	Peers    PeerThresholds `koanf:"peers" json:"peers"`
}

// Weights is the composite weight table. Values sum to 1.
type Weights struct {
	GoalAchievement   float64 `koanf:"goal_achievement" json:"goalAchievement"`
	ReviewQuality     float64 `koanf:"review_quality" json:"reviewQuality"`
	FeedbackSentiment float64 `koanf:"feedback_sentiment" json:"feedbackSentiment"`
	Collaboration     float64 `koanf:"collaboration" json:"collaboration"`
	Consistency       float64 `koanf:"consistency" json:"consistency"`
	Growth            float64 `koanf:"growth" json:"growth"`
	Evidence          float64 `koanf:"evidence" json:"evidence"`
	Initiative        float64 `koanf:"initiative" json:"initiative"`
}

// For returns the weight of a dimension; unknown dimensions weigh nothing.
func (w Weights) For(d Dimension) float64 {
	switch d {
	case GoalAchievement:
		return w.GoalAchievement
	case ReviewQuality:
		return w.ReviewQuality
	case FeedbackSentiment:
		return w.FeedbackSentiment
	case Collaboration:
		return w.Collaboration
	case Consistency:
		return w.Consistency
	case Growth:
		return w.Growth
	case Evidence:
		return w.Evidence
	case Initiative:
		return w.Initiative
	default:
		return 0
	}
}

// Sum adds every weight.
func (w Weights) Sum() float64 {
	total := 0.0
	for _, d := range Dimensions {
		total += w.For(d)
	}
	return total
}

// GradeBand maps scores at or above Min to Grade.
type GradeBand struct {
	Grade model.Grade `koanf:"grade" json:"grade"`
	Min   float64     `koanf:"min" json:"min"`
}

// StarBand maps scores at or above Min to Stars.
type StarBand struct {
	Stars float64 `koanf:"stars" json:"stars"`
	Min   float64 `koanf:"min" json:"min"`
}

// PriorityMultipliers scale goal weight by priority.
type PriorityMultipliers struct {
	Low      float64 `koanf:"low" json:"low"`
	Medium   float64 `koanf:"medium" json:"medium"`
	High     float64 `koanf:"high" json:"high"`
	Critical float64 `koanf:"critical" json:"critical"`
}

// For returns the multiplier of a priority. Unknown priorities count as medium.
func (m PriorityMultipliers) For(p model.Priority) float64 {
	switch p {
	case model.PriorityLow:
		return m.Low
	case model.PriorityHigh:
		return m.High
	case model.PriorityCritical:
		return m.Critical
	default:
		return m.Medium
	}
}

// GoalRules tune the goal achievement calculator.
type GoalRules struct {
	Priority               PriorityMultipliers `koanf:"priority" json:"priority"`
	ComplexityStep         float64             `koanf:"complexity_step" json:"complexityStep"`
	LatePenaltyPerDay      float64             `koanf:"late_penalty_per_day" json:"latePenaltyPerDay"`
	MaxLatePenalty         float64             `koanf:"max_late_penalty" json:"maxLatePenalty"`
	AlignmentBonusPerLevel float64             `koanf:"alignment_bonus_per_level" json:"alignmentBonusPerLevel"`
	MaxAlignmentDepth      int                 `koanf:"max_alignment_depth" json:"maxAlignmentDepth"`
}

// FeedbackRules tune the feedback sentiment calculator.
type FeedbackRules struct {
	// RecencyBoost is added to the base weight of 1 for the newest feedback.
	RecencyBoost float64 `koanf:"recency_boost" json:"recencyBoost"`
	// TagBonus multiplies the weight once per skill or value tag.
	TagBonus float64 `koanf:"tag_bonus" json:"tagBonus"`
}

// Caps are saturation thresholds: inputs at or past a cap earn full credit.
type Caps struct {
	Collaboration CollaborationCaps `koanf:"collaboration" json:"collaboration"`
	Consistency   ConsistencyCaps   `koanf:"consistency" json:"consistency"`
	Growth        GrowthCaps        `koanf:"growth" json:"growth"`
	Evidence      EvidenceCaps      `koanf:"evidence" json:"evidence"`
	Initiative    InitiativeCaps    `koanf:"initiative" json:"initiative"`
}

type CollaborationCaps struct {
	CrossFunctionalGoals  float64 `koanf:"cross_functional_goals" json:"crossFunctionalGoals"`
	FeedbackGiven         float64 `koanf:"feedback_given" json:"feedbackGiven"`
	FeedbackReceived      float64 `koanf:"feedback_received" json:"feedbackReceived"`
	OneOnOnes             float64 `koanf:"one_on_ones" json:"oneOnOnes"`
	RecognitionsGiven     float64 `koanf:"recognitions_given" json:"recognitionsGiven"`
	TeamGoalContributions float64 `koanf:"team_goal_contributions" json:"teamGoalContributions"`
}

type ConsistencyCaps struct {
	StreakDays       float64 `koanf:"streak_days" json:"streakDays"`
	VelocityVariance float64 `koanf:"velocity_variance" json:"velocityVariance"`
	RatingStdDev     float64 `koanf:"rating_std_dev" json:"ratingStdDev"`
}

type GrowthCaps struct {
	SkillProgressions float64 `koanf:"skill_progressions" json:"skillProgressions"`
	Trainings         float64 `koanf:"trainings" json:"trainings"`
	// TrendSpan is the score delta, first to last, that moves the trend term from neutral to full.
	TrendSpan float64 `koanf:"trend_span" json:"trendSpan"`
	// TrendThreshold is the delta beyond which history counts as improving or declining.
	TrendThreshold float64 `koanf:"trend_threshold" json:"trendThreshold"`
}

type EvidenceCaps struct {
	Total         float64 `koanf:"total" json:"total"`
	Verified      float64 `koanf:"verified" json:"verified"`
	DistinctTypes float64 `koanf:"distinct_types" json:"distinctTypes"`
}

type InitiativeCaps struct {
	Innovation          float64 `koanf:"innovation" json:"innovation"`
	Mentoring           float64 `koanf:"mentoring" json:"mentoring"`
	KnowledgeSharing    float64 `koanf:"knowledge_sharing" json:"knowledgeSharing"`
	ProcessImprovements float64 `koanf:"process_improvements" json:"processImprovements"`
	VoluntaryGoals      float64 `koanf:"voluntary_goals" json:"voluntaryGoals"`
}

// RiskThresholds drive the goal risk level.
type RiskThresholds struct {
	HighVelocityRisk   float64 `koanf:"high_velocity_risk" json:"highVelocityRisk"`
	MediumVelocityRisk float64 `koanf:"medium_velocity_risk" json:"mediumVelocityRisk"`
	// HighProjected applies only when the deadline is within DeadlineWindowDays.
	HighProjected      float64 `koanf:"high_projected" json:"highProjected"`
	MediumProjected    float64 `koanf:"medium_projected" json:"mediumProjected"`
	DeadlineWindowDays int     `koanf:"deadline_window_days" json:"deadlineWindowDays"`
}

// PeerThresholds bucket z-scores into categories.
type PeerThresholds struct {
	HighZ float64 `koanf:"high_z" json:"highZ"`
	LowZ  float64 `koanf:"low_z" json:"lowZ"`
}

// GradeFor maps a score to its grade band.
func (p Policy) GradeFor(score float64) model.Grade {
	for _, b := range p.GradeBands {
		if score >= b.Min {
			return b.Grade
		}
	}
	if n := len(p.GradeBands); n > 0 {
		return p.GradeBands[n-1].Grade
	}
	return model.GradeF
}

// StarsFor maps a score to its star rating.
func (p Policy) StarsFor(score float64) float64 {
	for _, b := range p.StarBands {
		if score >= b.Min {
			return b.Stars
		}
	}
	if n := len(p.StarBands); n > 0 {
		return p.StarBands[n-1].Stars
	}
	return 0
}

// ReviewTypeWeight returns the weight for a review author type.
func (p Policy) ReviewTypeWeight(t model.ReviewType) float64 {
	if w, ok := p.ReviewTypeWeights[model.Normalize(string(t))]; ok {
		return w
	}
	return p.DefaultReviewTypeWeight
}

// Clone returns a deep copy so callers cannot mutate a policy held by an engine.
func (p Policy) Clone() Policy {
	out := p
	out.GradeBands = append([]GradeBand(nil), p.GradeBands...)
	out.StarBands = append([]StarBand(nil), p.StarBands...)
	if p.ReviewTypeWeights != nil {
		out.ReviewTypeWeights = make(map[string]float64, len(p.ReviewTypeWeights))
		for k, v := range p.ReviewTypeWeights {
			out.ReviewTypeWeights[model.Normalize(k)] = v
		}
	}
	return out
}
