package policy

import "github.com/okian/perfcore/internal/domain/model"

// Default returns the built-in scoring profile.
//
// Goal achievement carries the most weight and initiative the least. The
// neutral baseline sits in the B band so that a person with no records in a
// dimension is neither rewarded nor punished relative to an average performer.
func Default() Policy {
	return Policy{
		Name:            DefaultName,
		Version:         "2024.1",
		NeutralBaseline: 70,
		Weights: Weights{
			GoalAchievement:   0.30,
			ReviewQuality:     0.25,
			FeedbackSentiment: 0.12,
			Collaboration:     0.10,
			Consistency:       0.08,
			Growth:            0.07,
			Evidence:          0.05,
			Initiative:        0.03,
		},
		GradeBands: []GradeBand{
			{Grade: model.GradeAPlus, Min: 95},
			{Grade: model.GradeA, Min: 85},
			{Grade: model.GradeBPlus, Min: 75},
			{Grade: model.GradeB, Min: 65},
			{Grade: model.GradeCPlus, Min: 55},
			{Grade: model.GradeC, Min: 45},
			{Grade: model.GradeD, Min: 30},
			{Grade: model.GradeF, Min: 0},
		},
		StarBands: []StarBand{
			{Stars: 5, Min: 90},
			{Stars: 4, Min: 75},
			{Stars: 3, Min: 60},
			{Stars: 2, Min: 40},
			{Stars: 1, Min: 0},
		},
		Goals: GoalRules{
			Priority: PriorityMultipliers{
				Low:      0.75,
				Medium:   1.0,
				High:     1.25,
				Critical: 1.5,
			},
			ComplexityStep:         0.1,
			LatePenaltyPerDay:      0.5,
			MaxLatePenalty:         20,
			AlignmentBonusPerLevel: 2,
			MaxAlignmentDepth:      3,
		},
		ReviewTypeWeights: map[string]float64{
			string(model.ReviewManager):   1.0,
			string(model.ReviewSkipLevel): 0.9,
			string(model.ReviewPeer):      0.6,
			string(model.ReviewUpward):    0.6,
			string(model.ReviewSelf):      0.4,
		},
		DefaultReviewTypeWeight: 0.5,
		Feedback: FeedbackRules{
			RecencyBoost: 1.0,
			TagBonus:     1.1,
		},
		Caps: Caps{
			Collaboration: CollaborationCaps{
				CrossFunctionalGoals:  3,
				FeedbackGiven:         10,
				FeedbackReceived:      10,
				OneOnOnes:             6,
				RecognitionsGiven:     5,
				TeamGoalContributions: 5,
			},
			Consistency: ConsistencyCaps{
				StreakDays:       30,
				VelocityVariance: 25,
				RatingStdDev:     1.5,
			},
			Growth: GrowthCaps{
				SkillProgressions: 5,
				Trainings:         4,
				TrendSpan:         20,
				TrendThreshold:    5,
			},
			Evidence: EvidenceCaps{
				Total:         10,
				Verified:      5,
				DistinctTypes: 4,
			},
			Initiative: InitiativeCaps{
				Innovation:          3,
				Mentoring:           5,
				KnowledgeSharing:    5,
				ProcessImprovements: 2,
				VoluntaryGoals:      3,
			},
		},
		Risk: RiskThresholds{
			HighVelocityRisk:   60,
			MediumVelocityRisk: 30,
			HighProjected:      70,
			MediumProjected:    90,
			DeadlineWindowDays: 14,
		},
		Peers: PeerThresholds{
			HighZ: 1,
			LowZ:  -1,
		},
	}
}

// FillDefaults completes a policy built in code. Whole unset sections are
// taken from the built-in profile; risk and peer thresholds are filled field
// by field since zero is never a usable threshold. Config loading decodes each
// field over Default() instead.
func (p Policy) FillDefaults() Policy {
	d := Default()
	if p.Name == "" {
		p.Name = d.Name
	}
	if p.Version == "" {
		p.Version = d.Version
	}
	if p.NeutralBaseline == 0 {
		p.NeutralBaseline = d.NeutralBaseline
	}
	if p.Weights == (Weights{}) {
		p.Weights = d.Weights
	}
	if len(p.GradeBands) == 0 {
		p.GradeBands = d.GradeBands
	}
	if len(p.StarBands) == 0 {
		p.StarBands = d.StarBands
	}
	if p.Goals == (GoalRules{}) {
		p.Goals = d.Goals
	}
	if p.Goals.Priority == (PriorityMultipliers{}) {
		p.Goals.Priority = d.Goals.Priority
	}
	if len(p.ReviewTypeWeights) == 0 {
		p.ReviewTypeWeights = d.ReviewTypeWeights
	}
	if p.DefaultReviewTypeWeight == 0 {
		p.DefaultReviewTypeWeight = d.DefaultReviewTypeWeight
	}
	if p.Feedback == (FeedbackRules{}) {
		p.Feedback = d.Feedback
	}
	if p.Caps.Collaboration == (CollaborationCaps{}) {
		p.Caps.Collaboration = d.Caps.Collaboration
	}
	if p.Caps.Consistency == (ConsistencyCaps{}) {
		p.Caps.Consistency = d.Caps.Consistency
	}
	if p.Caps.Growth == (GrowthCaps{}) {
		p.Caps.Growth = d.Caps.Growth
	}
	if p.Caps.Evidence == (EvidenceCaps{}) {
		p.Caps.Evidence = d.Caps.Evidence
	}
	if p.Caps.Initiative == (InitiativeCaps{}) {
		p.Caps.Initiative = d.Caps.Initiative
	}
	fill(&p.Risk.HighVelocityRisk, d.Risk.HighVelocityRisk)
	fill(&p.Risk.MediumVelocityRisk, d.Risk.MediumVelocityRisk)
	fill(&p.Risk.HighProjected, d.Risk.HighProjected)
	fill(&p.Risk.MediumProjected, d.Risk.MediumProjected)
	if p.Risk.DeadlineWindowDays == 0 {
		p.Risk.DeadlineWindowDays = d.Risk.DeadlineWindowDays
	}
	fill(&p.Peers.HighZ, d.Peers.HighZ)
	fill(&p.Peers.LowZ, d.Peers.LowZ)
	return p.Clone()
}

func fill(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}
