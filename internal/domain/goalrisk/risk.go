// Package goalrisk predicts whether an in-flight goal will finish by its due date.
//
// The assessor compares the velocity a goal needs with the velocity its
// progress history shows, and combines that gap with how much of the planned
// schedule has already elapsed.
package goalrisk

import (
	"math"
	"time"

	"github.com/okian/perfcore/internal/domain/model"
	"github.com/okian/perfcore/internal/domain/policy"
)

const (
	day         = 24 * time.Hour
	maxProgress = 100.0
	maxRisk     = 100.0
)

// Components breaks the risk down into its two signals.
type Components struct {
	ScheduleRisk float64 `json:"scheduleRisk"`
	VelocityRisk float64 `json:"velocityRisk"`
}

// Result is the risk assessment of one goal.
type Result struct {
	GoalID           string          `json:"goalId"`
	GoalTitle        string          `json:"goalTitle"`
	CurrentVelocity  float64         `json:"currentVelocity"`  // %/day
	RequiredVelocity float64         `json:"requiredVelocity"` // %/day
	DaysRemaining    int             `json:"daysRemaining"`
	RiskLevel        model.RiskLevel `json:"riskLevel"`
	Components       Components      `json:"components"`
	// ProjectedCompletion may exceed 100 when the goal is ahead of schedule.
	ProjectedCompletion float64 `json:"projectedCompletion"`
	Overdue             bool    `json:"overdue"`
	InsufficientHistory bool    `json:"insufficientHistory"`
}

// Option applies a configuration option to the Assessor.
type Option func(*Assessor)

// WithPolicy takes risk thresholds from p.
func WithPolicy(p policy.Policy) Option {
	return func(a *Assessor) {
		a.thresholds = p.Risk
	}
}

// Assessor evaluates goal risk. It holds no mutable state and is safe for concurrent use.
type Assessor struct {
	thresholds policy.RiskThresholds
}

// NewAssessor creates an assessor with the default thresholds unless overridden.
func NewAssessor(opts ...Option) *Assessor {
	a := &Assessor{thresholds: policy.Default().Risk}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Applicable reports whether a goal can be assessed at all.
func Applicable(goal model.Goal) bool {
	if goal.DueDate == nil {
		return false
	}
	switch model.GoalStatus(model.Normalize(string(goal.Status))) {
	case model.GoalCompleted, model.GoalCancelled:
		return false
	}
	return goal.Progress < maxProgress
}

// Assess returns the risk of goal at now, or nil when the goal has no due
// date, is completed or cancelled, or has already reached 100%.
// history must be sorted by time, oldest first.
func (a *Assessor) Assess(goal model.Goal, history []model.ProgressUpdate, now time.Time) *Result {
	if !Applicable(goal) {
		return nil
	}
	due := *goal.DueDate
	progress := model.Clamp(goal.Progress, 0, maxProgress)

	days := daysUntil(now, due)
	required := (maxProgress - progress) / float64(max(days, 1))
	current, ok := velocity(history)

	projected := math.Max(0, progress+current*float64(days))

	velocityRisk := 0.0
	if required > 0 {
		velocityRisk = model.Clamp(maxRisk*math.Max(0, required-current)/required, 0, maxRisk)
	}

	res := &Result{
		GoalID:           goal.ID,
		GoalTitle:        goal.Title,
		CurrentVelocity:  current,
		RequiredVelocity: required,
		DaysRemaining:    days,
		Components: Components{
			ScheduleRisk: scheduleRisk(goal, due, days),
			VelocityRisk: velocityRisk,
		},
		ProjectedCompletion: projected,
		Overdue:             days == 0,
		InsufficientHistory: !ok,
	}
	res.RiskLevel = a.level(res)
	return res
}

// level applies the thresholds; the more severe signal wins.
func (a *Assessor) level(r *Result) model.RiskLevel {
	t := a.thresholds
	vr := r.Components.VelocityRisk
	level := model.RiskLow
	if vr >= t.MediumVelocityRisk || r.ProjectedCompletion < t.MediumProjected {
		level = level.Max(model.RiskMedium)
	}
	if vr >= t.HighVelocityRisk || (r.ProjectedCompletion < t.HighProjected && r.DaysRemaining <= t.DeadlineWindowDays) {
		level = level.Max(model.RiskHigh)
	}
	if r.Overdue {
		level = model.RiskHigh
	}
	return level
}

// daysUntil counts whole days left until due, rounding partial days up.
func daysUntil(now, due time.Time) int {
	left := due.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(float64(left) / float64(day)))
}

// scheduleRisk is the share of the planned window already consumed.
func scheduleRisk(goal model.Goal, due time.Time, days int) float64 {
	start := goal.CreatedAt
	if goal.StartDate != nil {
		start = *goal.StartDate
	}
	if start.IsZero() || !start.Before(due) {
		if days == 0 {
			return maxRisk
		}
		return 0
	}
	planned := math.Ceil(float64(due.Sub(start)) / float64(day))
	if planned < 1 {
		planned = 1
	}
	return model.Clamp(maxRisk*(1-float64(days)/planned), 0, maxRisk)
}

// velocity is the least-squares slope of progress over time in %/day.
// It reports false when there are fewer than two points or no time spread.
func velocity(history []model.ProgressUpdate) (float64, bool) {
	if len(history) < 2 {
		return 0, false
	}
	origin := history[0].At
	n := float64(len(history))
	var sumX, sumY float64
	for _, u := range history {
		sumX += float64(u.At.Sub(origin)) / float64(day)
		sumY += model.Clamp(u.Progress, 0, maxProgress)
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX float64
	for _, u := range history {
		dx := float64(u.At.Sub(origin))/float64(day) - meanX
		cov += dx * (model.Clamp(u.Progress, 0, maxProgress) - meanY)
		varX += dx * dx
	}
	if varX == 0 {
		return 0, false
	}
	return cov / varX, true
}

// AssessGoalRisk assesses goal with the default thresholds.
func AssessGoalRisk(goal model.Goal, history []model.ProgressUpdate, now time.Time) *Result {
	return NewAssessor().Assess(goal, history, now)
}
