package policy

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/perfcore/internal/domain/model"
)

const weightSumTolerance = 1e-6

// gradeOrder ranks grades from best to worst; bands must follow it.
var gradeOrder = map[model.Grade]int{
	model.GradeAPlus: 7,
	model.GradeA:     6,
	model.GradeBPlus: 5,
	model.GradeB:     4,
	model.GradeCPlus: 3,
	model.GradeC:     2,
	model.GradeD:     1,
	model.GradeF:     0,
}

// Validate reports every problem with the policy at once. The returned
// error matches ErrInvalidPolicy.
func (p Policy) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidPolicy, fmt.Sprintf(format, args...)))
	}

	if p.Name == "" {
		add("name must not be empty")
	}
	if p.NeutralBaseline < 0 || p.NeutralBaseline > 100 {
		add("neutral_baseline %.2f outside [0,100]", p.NeutralBaseline)
	}

	for _, d := range Dimensions {
		if w := p.Weights.For(d); w < 0 || w > 1 {
			add("weight of %s is %.4f, want [0,1]", d, w)
		}
	}
	if sum := p.Weights.Sum(); math.Abs(sum-1) > weightSumTolerance {
		add("weights sum to %.6f, want 1", sum)
	}

	if err := validateGradeBands(p.GradeBands); err != nil {
		add("grade_bands: %v", err)
	}
	if err := validateStarBands(p.StarBands); err != nil {
		add("star_bands: %v", err)
	}

	pm := p.Goals.Priority
	if !(pm.Low > 0 && pm.Low <= pm.Medium && pm.Medium <= pm.High && pm.High <= pm.Critical) {
		add("priority multipliers must be positive and ordered low <= medium <= high <= critical")
	}
	if p.Goals.LatePenaltyPerDay < 0 || p.Goals.MaxLatePenalty < 0 || p.Goals.AlignmentBonusPerLevel < 0 || p.Goals.MaxAlignmentDepth < 0 {
		add("goal penalties and bonuses must not be negative")
	}
	if p.Goals.ComplexityStep < 0 || p.Goals.ComplexityStep >= 0.5 {
		add("complexity_step %.2f outside [0,0.5)", p.Goals.ComplexityStep)
	}
	for k, w := range p.ReviewTypeWeights {
		if w < 0 {
			add("review type weight %s is negative", k)
		}
	}
	if p.DefaultReviewTypeWeight < 0 {
		add("default_review_type_weight is negative")
	}
	if p.Feedback.RecencyBoost < 0 || p.Feedback.TagBonus < 1 {
		add("feedback recency_boost must be >= 0 and tag_bonus >= 1")
	}
	if err := validateCaps(p.Caps); err != nil {
		add("caps: %v", err)
	}

	r := p.Risk
	if r.MediumVelocityRisk <= 0 {
		add("risk medium_velocity_risk must be positive")
	}
	if r.MediumVelocityRisk > r.HighVelocityRisk {
		add("risk medium_velocity_risk exceeds high_velocity_risk")
	}
	if r.HighProjected > r.MediumProjected {
		add("risk high_projected exceeds medium_projected")
	}
	if r.DeadlineWindowDays <= 0 {
		add("risk deadline_window_days must be positive")
	}
	if !(p.Peers.LowZ < 0 && p.Peers.HighZ > 0) {
		add("peers thresholds must satisfy low_z < 0 < high_z")
	}

	return errors.Join(errs...)
}

func validateGradeBands(bands []GradeBand) error {
	if len(bands) == 0 {
		return errors.New("no bands")
	}
	if bands[0].Min > 100 {
		return fmt.Errorf("top band starts at %.2f, above 100", bands[0].Min)
	}
	seen := make(map[model.Grade]bool, len(bands))
	for i, b := range bands {
		if !b.Grade.IsValid() {
			return fmt.Errorf("unknown grade %q", b.Grade)
		}
		if seen[b.Grade] {
			return fmt.Errorf("grade %q listed twice", b.Grade)
		}
		seen[b.Grade] = true
		if i > 0 {
			prev := bands[i-1]
			if b.Min >= prev.Min {
				return fmt.Errorf("band %q min %.2f not below %q min %.2f", b.Grade, b.Min, prev.Grade, prev.Min)
			}
			if gradeOrder[b.Grade] >= gradeOrder[prev.Grade] {
				return fmt.Errorf("grade %q listed after %q", b.Grade, prev.Grade)
			}
		}
	}
	if last := bands[len(bands)-1]; last.Min != 0 {
		return fmt.Errorf("lowest band starts at %.2f, want 0", last.Min)
	}
	return nil
}

func validateStarBands(bands []StarBand) error {
	if len(bands) == 0 {
		return errors.New("no bands")
	}
	if bands[0].Min > 100 {
		return fmt.Errorf("top band starts at %.2f, above 100", bands[0].Min)
	}
	for i, b := range bands {
		if b.Stars < 0 || b.Stars > 5 {
			return fmt.Errorf("stars %.1f outside [0,5]", b.Stars)
		}
		if i > 0 {
			prev := bands[i-1]
			if b.Min >= prev.Min {
				return fmt.Errorf("band min %.2f not below %.2f", b.Min, prev.Min)
			}
			if b.Stars >= prev.Stars {
				return fmt.Errorf("stars %.1f not below %.1f", b.Stars, prev.Stars)
			}
		}
	}
	if last := bands[len(bands)-1]; last.Min != 0 {
		return fmt.Errorf("lowest band starts at %.2f, want 0", last.Min)
	}
	return nil
}

func validateCaps(c Caps) error {
	caps := map[string]float64{
		"collaboration.cross_functional_goals":  c.Collaboration.CrossFunctionalGoals,
		"collaboration.feedback_given":          c.Collaboration.FeedbackGiven,
		"collaboration.feedback_received":       c.Collaboration.FeedbackReceived,
		"collaboration.one_on_ones":             c.Collaboration.OneOnOnes,
		"collaboration.recognitions_given":      c.Collaboration.RecognitionsGiven,
		"collaboration.team_goal_contributions": c.Collaboration.TeamGoalContributions,
		"consistency.streak_days":               c.Consistency.StreakDays,
		"consistency.velocity_variance":         c.Consistency.VelocityVariance,
		"consistency.rating_std_dev":            c.Consistency.RatingStdDev,
		"growth.skill_progressions":             c.Growth.SkillProgressions,
		"growth.trainings":                      c.Growth.Trainings,
		"growth.trend_span":                     c.Growth.TrendSpan,
		"evidence.total":                        c.Evidence.Total,
		"evidence.verified":                     c.Evidence.Verified,
		"evidence.distinct_types":               c.Evidence.DistinctTypes,
		"initiative.innovation":                 c.Initiative.Innovation,
		"initiative.mentoring":                  c.Initiative.Mentoring,
		"initiative.knowledge_sharing":          c.Initiative.KnowledgeSharing,
		"initiative.process_improvements":       c.Initiative.ProcessImprovements,
		"initiative.voluntary_goals":            c.Initiative.VoluntaryGoals,
	}
	var errs []error
	for name, v := range caps {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.Growth.TrendThreshold < 0 {
		errs = append(errs, errors.New("growth.trend_threshold is negative"))
	}
	return errors.Join(errs...)
}
