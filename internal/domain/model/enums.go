package model

import "strings"

// Priority ranks how much a goal matters relative to its peers.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// String returns the string representation of the priority.
func (p Priority) String() string { return string(p) }

// IsValid returns true if the priority is a known value.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalDraft     GoalStatus = "DRAFT"
	GoalActive    GoalStatus = "ACTIVE"
	GoalOnHold    GoalStatus = "ON_HOLD"
	GoalCompleted GoalStatus = "COMPLETED"
	GoalCancelled GoalStatus = "CANCELLED"
)

// String returns the string representation of the status.
func (s GoalStatus) String() string { return string(s) }

// Scoreable reports whether a goal in this status counts towards goal achievement.
// Drafts were never committed to and cancelled goals were withdrawn.
func (s GoalStatus) Scoreable() bool {
	return s != GoalDraft && s != GoalCancelled
}

// ReviewType identifies who wrote a review.
type ReviewType string

const (
	ReviewSelf      ReviewType = "SELF"
	ReviewPeer      ReviewType = "PEER"
	ReviewManager   ReviewType = "MANAGER"
	ReviewSkipLevel ReviewType = "SKIP_LEVEL"
	ReviewUpward    ReviewType = "UPWARD"
)

// String returns the string representation of the review type.
func (t ReviewType) String() string { return string(t) }

// RiskLevel is the coarse completion risk of a goal.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// String returns the string representation of the risk level.
func (r RiskLevel) String() string { return string(r) }

// Rank orders risk levels so the higher signal can win a tie-break.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// Max returns the more severe of two risk levels.
func (r RiskLevel) Max(other RiskLevel) RiskLevel {
	if other.Rank() > r.Rank() {
		return other
	}
	return r
}

// Grade is the letter grade of a composite score.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeCPlus Grade = "C+"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// String returns the string representation of the grade.
func (g Grade) String() string { return string(g) }

// IsValid returns true if the grade is a known value.
func (g Grade) IsValid() bool {
	switch g {
	case GradeAPlus, GradeA, GradeBPlus, GradeB, GradeCPlus, GradeC, GradeD, GradeF:
		return true
	default:
		return false
	}
}

// Category is the coarse peer-relative performance bucket.
type Category string

const (
	CategoryHigh    Category = "high"
	CategoryAverage Category = "average"
	CategoryLow     Category = "low"
)

// String returns the string representation of the category.
func (c Category) String() string { return string(c) }

// Position places a percentile into a distribution bucket.
type Position string

const (
	PositionTop10    Position = "TOP_10"
	PositionTop25    Position = "TOP_25"
	PositionMiddle50 Position = "MIDDLE_50"
	PositionBottom25 Position = "BOTTOM_25"
	PositionBottom10 Position = "BOTTOM_10"
)

// String returns the string representation of the position.
func (p Position) String() string { return string(p) }

// PositionFor buckets a 0-100 percentile.
func PositionFor(percentile float64) Position {
	switch {
	case percentile >= 90:
		return PositionTop10
	case percentile >= 75:
		return PositionTop25
	case percentile >= 25:
		return PositionMiddle50
	case percentile >= 10:
		return PositionBottom25
	default:
		return PositionBottom10
	}
}

// Trend is the direction of a historical score series.
type Trend string

const (
	TrendImproving Trend = "IMPROVING"
	TrendStable    Trend = "STABLE"
	TrendDeclining Trend = "DECLINING"
	TrendUnknown   Trend = "UNKNOWN"
)

// String returns the string representation of the trend.
func (t Trend) String() string { return string(t) }

// Normalize upper-cases and trims an enum value received from callers.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
