package scoring

import (
	"github.com/okian/perfcore/internal/domain/model"
	"github.com/okian/perfcore/internal/domain/policy"
)

// Scale bounds of the raw inputs.
const (
	minRating     = 1.0
	maxRating     = 5.0
	maxGoalWeight = 5.0
	minComplexity = 1
	maxComplexity = 5
	midComplexity = 3
)

// term is one saturating component of a count-based dimension.
type term struct {
	value  float64
	cap    float64
	points float64
}

// saturation returns min(x/cap, 1), or 0 for non-positive input.
func saturation(x, limit float64) float64 {
	if x <= 0 || limit <= 0 {
		return 0
	}
	return model.Clamp(x/limit, 0, 1)
}

func sumTerms(positive, negative []term) float64 {
	total := 0.0
	for _, t := range positive {
		total += saturation(t.value, t.cap) * t.points
	}
	for _, t := range negative {
		total += (1 - saturation(t.value, t.cap)) * t.points
	}
	return model.Clamp(total, 0, maxScoreValue)
}

// GoalAchievementScore is the weighted average goal progress.
//
// Weight grows with the goal's own weight, its priority and its complexity.
// Completed goals count as 100 with no lateness penalty. Drafts and cancelled
// goals are ignored.
func GoalAchievementScore(goals []model.Goal, p policy.Policy) (float64, bool) {
	var (
		weighted, weights, plain float64
		n                        int
	)
	for i := range goals {
		g := &goals[i]
		status := model.GoalStatus(model.Normalize(string(g.Status)))
		if !status.Scoreable() {
			continue
		}
		v := goalContribution(g, status, p.Goals)
		w := goalWeight(g, p.Goals)
		weighted += v * w
		weights += w
		plain += v
		n++
	}
	if n == 0 {
		return p.NeutralBaseline, true
	}
	if weights <= 0 {
		// every goal carries zero weight: fall back to a plain mean
		return model.Clamp(plain/float64(n), 0, maxScoreValue), false
	}
	return model.Clamp(weighted/weights, 0, maxScoreValue), false
}

func goalContribution(g *model.Goal, status model.GoalStatus, rules policy.GoalRules) float64 {
	v := model.Clamp(g.Progress, 0, maxScoreValue)
	if status == model.GoalCompleted {
		v = maxScoreValue
	} else if late := model.NonNegative(g.DaysLate); late > 0 {
		penalty := float64(late) * rules.LatePenaltyPerDay
		if penalty > rules.MaxLatePenalty {
			penalty = rules.MaxLatePenalty
		}
		v -= penalty
	}
	depth := model.ClampInt(g.AlignmentDepth, 0, rules.MaxAlignmentDepth)
	v += float64(depth) * rules.AlignmentBonusPerLevel
	return model.Clamp(v, 0, maxScoreValue)
}

func goalWeight(g *model.Goal, rules policy.GoalRules) float64 {
	complexity := g.Complexity
	if complexity == 0 {
		complexity = midComplexity
	}
	complexity = model.ClampInt(complexity, minComplexity, maxComplexity)
	factor := 1 + float64(complexity-midComplexity)*rules.ComplexityStep
	priority := model.Priority(model.Normalize(string(g.Priority)))
	return model.Clamp(g.Weight, 0, maxGoalWeight) * rules.Priority.For(priority) * factor
}

// ReviewQualityScore is the trust-weighted mean rating rescaled to 0-100.
// Manager reviews outweigh peer and self reviews through the policy's type weights.
func ReviewQualityScore(reviews []model.Review, p policy.Policy) (float64, bool) {
	if len(reviews) == 0 {
		return p.NeutralBaseline, true
	}
	var trusted, trustedW, typed, typedW, plain float64
	for _, r := range reviews {
		v := (model.Clamp(r.Rating, minRating, maxRating) - minRating) / (maxRating - minRating) * maxScoreValue
		tw := p.ReviewTypeWeight(r.Type)
		w := tw * model.Clamp(r.ReviewerTrust, 0, maxScoreValue) / maxScoreValue
		trusted += v * w
		trustedW += w
		typed += v * tw
		typedW += tw
		plain += v
	}
	switch {
	case trustedW > 0:
		return model.Clamp(trusted/trustedW, 0, maxScoreValue), false
	case typedW > 0:
		return model.Clamp(typed/typedW, 0, maxScoreValue), false
	default:
		return model.Clamp(plain/float64(len(reviews)), 0, maxScoreValue), false
	}
}

// FeedbackSentimentScore is the recency-weighted mean sentiment rescaled from
// [-1,1] to [0,100]. Entries without a sentiment score are skipped.
func FeedbackSentimentScore(feedbacks []model.Feedback, p policy.Policy) (float64, bool) {
	var sum, weights float64
	for _, f := range feedbacks {
		if f.SentimentScore == nil {
			continue
		}
		v := (model.Clamp(*f.SentimentScore, -1, 1) + 1) / 2 * maxScoreValue
		w := 1 + p.Feedback.RecencyBoost*model.Clamp(f.Recency, 0, 1)
		if f.HasSkillTags {
			w *= p.Feedback.TagBonus
		}
		if f.HasValueTags {
			w *= p.Feedback.TagBonus
		}
		sum += v * w
		weights += w
	}
	if weights <= 0 {
		return p.NeutralBaseline, true
	}
	return model.Clamp(sum/weights, 0, maxScoreValue), false
}

// CollaborationScore rewards cross-team work, feedback exchange and recognition.
func CollaborationScore(c *model.CollaborationStats, p policy.Policy) (float64, bool) {
	if c == nil || *c == (model.CollaborationStats{}) {
		return p.NeutralBaseline, true
	}
	caps := p.Caps.Collaboration
	return sumTerms([]term{
		{float64(c.CrossFunctionalGoals), caps.CrossFunctionalGoals, 20},
		{float64(c.FeedbackGiven), caps.FeedbackGiven, 20},
		{float64(c.FeedbackReceived), caps.FeedbackReceived, 15},
		{float64(c.OneOnOnesCompleted), caps.OneOnOnes, 15},
		{float64(c.RecognitionsGiven), caps.RecognitionsGiven, 15},
		{float64(c.TeamGoalContributions), caps.TeamGoalContributions, 15},
	}, nil), false
}

// ConsistencyScore rewards on-time delivery and streaks, and penalises
// velocity variance, erratic review ratings and missed deadlines.
func ConsistencyScore(c *model.ConsistencyStats, p policy.Policy) (float64, bool) {
	if c == nil || *c == (model.ConsistencyStats{}) {
		return p.NeutralBaseline, true
	}
	caps := p.Caps.Consistency
	missed := float64(model.NonNegative(c.MissedDeadlines))
	total := float64(model.NonNegative(c.TotalDeadlines))
	if missed > total {
		total = missed
	}
	return sumTerms(
		[]term{
			{model.Clamp(c.OnTimeDeliveryRate, 0, 1), 1, 40},
			{float64(c.StreakDays), caps.StreakDays, 20},
		},
		[]term{
			{c.GoalVelocityVariance, caps.VelocityVariance, 15},
			{c.ReviewRatingStdDev, caps.RatingStdDev, 10},
			{missed, total, 15},
		},
	), false
}

// GrowthScore rewards skill progression, training, development plan progress,
// promotion readiness and an upward score history.
func GrowthScore(g *model.GrowthStats, p policy.Policy) (float64, bool) {
	if g == nil || (len(g.HistoricalScores) == 0 && g.SkillProgressions <= 0 && g.TrainingsCompleted <= 0 &&
		g.DevPlanProgress <= 0 && g.PromotionReadiness <= 0) {
		return p.NeutralBaseline, true
	}
	caps := p.Caps.Growth
	return sumTerms([]term{
		{float64(g.SkillProgressions), caps.SkillProgressions, 20},
		{float64(g.TrainingsCompleted), caps.Trainings, 20},
		{model.Clamp(g.DevPlanProgress, 0, maxScoreValue), maxScoreValue, 25},
		{model.Clamp(g.PromotionReadiness, 0, maxScoreValue), maxScoreValue, 20},
		{trendFactor(g.HistoricalScores, caps.TrendSpan), 1, 15},
	}, nil), false
}

// trendFactor maps the first-to-last score delta onto [0,1], 0.5 being flat.
// Histories shorter than two points are flat.
func trendFactor(history []float64, span float64) float64 {
	if len(history) < 2 || span <= 0 {
		return 0.5
	}
	delta := model.Clamp(history[len(history)-1], 0, maxScoreValue) - model.Clamp(history[0], 0, maxScoreValue)
	return model.Clamp(0.5+delta/(2*span), 0, 1)
}

// TrendOf classifies a score history by its first-to-last delta.
func TrendOf(history []float64, threshold float64) model.Trend {
	if len(history) < 2 {
		return model.TrendUnknown
	}
	delta := model.Clamp(history[len(history)-1], 0, maxScoreValue) - model.Clamp(history[0], 0, maxScoreValue)
	switch {
	case delta > threshold:
		return model.TrendImproving
	case delta < -threshold:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}

// EvidenceScore rewards volume, verification, impact, quality and variety of evidence.
func EvidenceScore(e *model.EvidenceStats, p policy.Policy) (float64, bool) {
	if e == nil || *e == (model.EvidenceStats{}) {
		return p.NeutralBaseline, true
	}
	caps := p.Caps.Evidence
	total := model.NonNegative(e.Total)
	verified := model.NonNegative(e.Verified)
	if verified > total {
		total = verified
	}
	return sumTerms([]term{
		{float64(total), caps.Total, 20},
		{float64(verified), caps.Verified, 25},
		{model.Clamp(e.AvgImpactScore, 0, maxScoreValue), maxScoreValue, 20},
		{model.Clamp(e.AvgQualityScore, 0, maxScoreValue), maxScoreValue, 20},
		{float64(e.DistinctTypes), caps.DistinctTypes, 15},
	}, nil), false
}

// InitiativeScore rewards voluntary contributions beyond assigned work.
func InitiativeScore(i *model.InitiativeStats, p policy.Policy) (float64, bool) {
	if i == nil || *i == (model.InitiativeStats{}) {
		return p.NeutralBaseline, true
	}
	caps := p.Caps.Initiative
	return sumTerms([]term{
		{float64(i.InnovationContributions), caps.Innovation, 25},
		{float64(i.MentoringSessions), caps.Mentoring, 20},
		{float64(i.KnowledgeSharingActs), caps.KnowledgeSharing, 20},
		{float64(i.ProcessImprovements), caps.ProcessImprovements, 20},
		{float64(i.VoluntaryGoals), caps.VoluntaryGoals, 15},
	}, nil), false
}
