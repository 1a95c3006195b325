// Package peers places composite scores within their peer population.
package peers

import (
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/okian/perfcore/internal/domain/model"
	"github.com/okian/perfcore/internal/domain/policy"
)

const maxScore = 100.0

// snapshotNamespace scopes deterministic snapshot IDs.
var snapshotNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("perfcore/peers/snapshot"))

// Score is one member of a peer population.
type Score struct {
	UserID string  `json:"userId"`
	Score  float64 `json:"score"`
}

// Result is a member's standing among peers.
type Result struct {
	UserID     string         `json:"userId"`
	Score      float64        `json:"score"`
	ZScore     float64        `json:"zScore"`
	Percentile float64        `json:"percentile"`
	Category   model.Category `json:"category"`
	Position   model.Position `json:"position"`
}

// Summary describes the population as a whole.
type Summary struct {
	SnapshotID string  `json:"snapshotId"`
	Count      int     `json:"count"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"stdDev"`
	Median     float64 `json:"median"`
	P25        float64 `json:"p25"`
	P75        float64 `json:"p75"`
	P90        float64 `json:"p90"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
}

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithPolicy takes category thresholds from p.
func WithPolicy(p policy.Policy) Option {
	return func(r *Ranker) {
		r.thresholds = p.Peers
	}
}

// Ranker computes peer statistics. It is safe for concurrent use.
type Ranker struct {
	thresholds policy.PeerThresholds
}

// NewRanker creates a ranker with the default thresholds unless overridden.
func NewRanker(opts ...Option) *Ranker {
	r := &Ranker{thresholds: policy.Default().Peers}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank returns one result per input score, in input order.
//
// z-scores use the sample standard deviation and are zero when the population
// has a single member or no spread. Tied scores share an average-rank percentile.
func (r *Ranker) Rank(scores []Score) []Result {
	out := make([]Result, 0, len(scores))
	if len(scores) == 0 {
		return out
	}
	values := clamped(scores)
	mean, sd := moments(values)
	n := float64(len(values))

	for i, s := range scores {
		v := values[i]
		z := 0.0
		if sd > 0 {
			z = (v - mean) / sd
		}
		var below, equal int
		for _, other := range values {
			switch {
			case other < v:
				below++
			case other == v:
				equal++
			}
		}
		pct := model.Clamp(maxScore*(float64(below)+float64(equal+1)/2)/n, 0, maxScore)
		out = append(out, Result{
			UserID:     s.UserID,
			Score:      v,
			ZScore:     z,
			Percentile: pct,
			Category:   r.category(z),
			Position:   model.PositionFor(pct),
		})
	}
	return out
}

func (r *Ranker) category(z float64) model.Category {
	switch {
	case z >= r.thresholds.HighZ:
		return model.CategoryHigh
	case z <= r.thresholds.LowZ:
		return model.CategoryLow
	default:
		return model.CategoryAverage
	}
}

// Summarize computes the population benchmark. The snapshot ID depends only
// on the set of members and scores, not on their order.
func (r *Ranker) Summarize(scores []Score) Summary {
	sum := Summary{SnapshotID: snapshotID(scores).String(), Count: len(scores)}
	if len(scores) == 0 {
		return sum
	}
	values := clamped(scores)
	sum.Mean, sum.StdDev = moments(values)
	sum.Median = orZero(stats.Median(values))
	sum.P25 = orZero(stats.PercentileNearestRank(values, 25))
	sum.P75 = orZero(stats.PercentileNearestRank(values, 75))
	sum.P90 = orZero(stats.PercentileNearestRank(values, 90))
	sum.Min = orZero(stats.Min(values))
	sum.Max = orZero(stats.Max(values))
	return sum
}

func clamped(scores []Score) stats.Float64Data {
	values := make(stats.Float64Data, len(scores))
	for i, s := range scores {
		values[i] = model.Clamp(s.Score, 0, maxScore)
	}
	return values
}

// moments returns the mean and the Bessel-corrected standard deviation.
// Sums run over a sorted copy so the result does not depend on input order.
func moments(values stats.Float64Data) (float64, float64) {
	values = slices.Clone(values)
	sort.Float64s(values)
	mean := orZero(stats.Mean(values))
	if len(values) < 2 || orZero(stats.Min(values)) == orZero(stats.Max(values)) {
		return mean, 0
	}
	return mean, orZero(stats.StandardDeviationSample(values))
}

// orZero drops the error of a stats call; inputs are non-empty and clamped,
// so an error only signals a degenerate population.
func orZero(v float64, err error) float64 {
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return v
}

func snapshotID(scores []Score) uuid.UUID {
	lines := make([]string, len(scores))
	for i, s := range scores {
		lines[i] = s.UserID + "=" + strconv.FormatFloat(model.Clamp(s.Score, 0, maxScore), 'g', -1, 64)
	}
	sort.Strings(lines)
	return uuid.NewSHA1(snapshotNamespace, []byte(strings.Join(lines, "\n")))
}

// RankPeers ranks scores with the default thresholds.
func RankPeers(scores []Score) []Result {
	return NewRanker().Rank(scores)
}
