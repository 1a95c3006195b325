// Package model contains the HR activity records consumed by the scoring engines.
//
// Records arrive already fetched and authorized; nothing in this package
// performs I/O. Bounded fields are clamped by the engines, not here.
package model

import "time"

// Goal is a single objective owned by a person.
type Goal struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Progress       float64    `json:"progress"`   // 0-100
	Weight         float64    `json:"weight"`     // 0-5
	Priority       Priority   `json:"priority"`   // LOW..CRITICAL
	Type           string     `json:"type"`       // INDIVIDUAL, TEAM, ...
	Status         GoalStatus `json:"status"`     // ACTIVE, COMPLETED, ...
	DaysLate       int        `json:"daysLate"`   // >= 0
	Complexity     int        `json:"complexity"` // 1-5
	AlignmentDepth int        `json:"alignmentDepth"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// ProgressUpdate is one point of a goal's progress history.
type ProgressUpdate struct {
	At       time.Time `json:"at"`
	Progress float64   `json:"progress"`
}

// Review is a rated performance review.
type Review struct {
	Rating        float64    `json:"rating"` // 1-5
	Type          ReviewType `json:"type"`
	ReviewerTrust float64    `json:"reviewerTrust"` // 0-100
}

// Feedback is a single piece of feedback with an optional sentiment score.
// A nil SentimentScore means the entry was never analysed.
type Feedback struct {
	SentimentScore *float64 `json:"sentimentScore,omitempty"` // -1..1
	Type           string   `json:"type"`
	Recency        float64  `json:"recency"` // 0 oldest .. 1 newest
	HasSkillTags   bool     `json:"hasSkillTags"`
	HasValueTags   bool     `json:"hasValueTags"`
}

// CollaborationStats counts cross-team engagement.
type CollaborationStats struct {
	CrossFunctionalGoals  int `json:"crossFunctionalGoals"`
	FeedbackGiven         int `json:"feedbackGiven"`
	FeedbackReceived      int `json:"feedbackReceived"`
	OneOnOnesCompleted    int `json:"oneOnOnesCompleted"`
	RecognitionsGiven     int `json:"recognitionsGiven"`
	TeamGoalContributions int `json:"teamGoalContributions"`
}

// ConsistencyStats describes delivery reliability.
type ConsistencyStats struct {
	OnTimeDeliveryRate   float64 `json:"onTimeDeliveryRate"` // 0-1
	GoalVelocityVariance float64 `json:"goalVelocityVariance"`
	StreakDays           int     `json:"streakDays"`
	ReviewRatingStdDev   float64 `json:"reviewRatingStdDev"`
	MissedDeadlines      int     `json:"missedDeadlines"`
	TotalDeadlines       int     `json:"totalDeadlines"`
}

// GrowthStats describes development over time.
type GrowthStats struct {
	HistoricalScores   []float64 `json:"historicalScores"` // oldest first
	SkillProgressions  int       `json:"skillProgressions"`
	TrainingsCompleted int       `json:"trainingsCompleted"`
	DevPlanProgress    float64   `json:"devPlanProgress"`    // 0-100
	PromotionReadiness float64   `json:"promotionReadiness"` // 0-100
}

// EvidenceStats summarises submitted work evidence.
type EvidenceStats struct {
	Total           int     `json:"total"`
	Verified        int     `json:"verified"`
	AvgImpactScore  float64 `json:"avgImpactScore"`  // 0-100
	AvgQualityScore float64 `json:"avgQualityScore"` // 0-100
	DistinctTypes   int     `json:"distinctTypes"`
}

// InitiativeStats counts voluntary contributions.
type InitiativeStats struct {
	InnovationContributions int `json:"innovationContributions"`
	MentoringSessions       int `json:"mentoringSessions"`
	KnowledgeSharingActs    int `json:"knowledgeSharingActs"`
	ProcessImprovements     int `json:"processImprovements"`
	VoluntaryGoals          int `json:"voluntaryGoals"`
}
