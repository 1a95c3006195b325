package loadgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/perfcore/pkg/logger"
)

// performer shifts the generated records of one member.
type performer struct {
	name     string
	progress [2]float64 // goal progress range
	rating   [2]float64 // review rating range
	onTime   [2]float64 // on-time delivery rate range
}

// Tiers mimic a realistic organisation: mostly average, few at either end.
var tiers = []performer{
	{name: "average", progress: [2]float64{40, 80}, rating: [2]float64{2.5, 4}, onTime: [2]float64{0.6, 0.9}},
	{name: "average", progress: [2]float64{40, 80}, rating: [2]float64{2.5, 4}, onTime: [2]float64{0.6, 0.9}},
	{name: "average", progress: [2]float64{40, 80}, rating: [2]float64{2.5, 4}, onTime: [2]float64{0.6, 0.9}},
	{name: "high", progress: [2]float64{70, 100}, rating: [2]float64{3.5, 5}, onTime: [2]float64{0.85, 1}},
	{name: "high", progress: [2]float64{70, 100}, rating: [2]float64{3.5, 5}, onTime: [2]float64{0.85, 1}},
	{name: "low", progress: [2]float64{5, 45}, rating: [2]float64{1, 2.5}, onTime: [2]float64{0.2, 0.6}},
	{name: "elite", progress: [2]float64{95, 100}, rating: [2]float64{4.5, 5}, onTime: [2]float64{0.95, 1}},
	{name: "sparse"},
}

var (
	priorities  = []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}
	reviewTypes = []string{"SELF", "PEER", "MANAGER", "SKIP_LEVEL", "UPWARD"}
	statuses    = []string{"ACTIVE", "ACTIVE", "ACTIVE", "COMPLETED", "ON_HOLD"}
)

// generateTeams builds cfg.Teams teams concurrently. Team i is generated from
// its own source seeded with seed+i so a seed always yields the same records.
func generateTeams(ctx context.Context, cfg *Config, seed uint64, stats *Stats) ([]Team, error) {
	logger.Get().Info(ctx, "generating teams",
		logger.Int("teams", cfg.Teams),
		logger.Int("teamSize", cfg.TeamSize),
		logger.Any("seed", seed))

	teams := make([]Team, cfg.Teams)
	now := time.Now().UTC()

	workers := min(cfg.Workers, cfg.Teams)
	next := make(chan int, cfg.Teams)
	for i := range teams {
		next <- i
	}
	close(next)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				if ctx.Err() != nil {
					return
				}
				rng := rand.New(rand.NewPCG(seed, uint64(i)))
				teams[i] = generateTeam(rng, cfg, now)
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled during team generation: %w", err)
	}

	stats.TeamsGenerated = len(teams)
	logger.Get().Info(ctx, "generated teams successfully", logger.Int("count", len(teams)))
	return teams, nil
}

func generateTeam(rng *rand.Rand, cfg *Config, now time.Time) Team {
	members := make([]Member, cfg.TeamSize)
	for i := range members {
		members[i] = Member{
			UserID: uuid.NewString(),
			Input:  generateInput(rng, tiers[rng.IntN(len(tiers))], now),
		}
	}
	return Team{Policy: cfg.Policy, Members: members}
}

// generateInput builds one member's records. The sparse tier sends nothing so
// the service falls back to its neutral baseline on every dimension.
func generateInput(rng *rand.Rand, p performer, now time.Time) map[string]any {
	if p.name == "sparse" {
		return map[string]any{}
	}

	goals := make([]map[string]any, 1+rng.IntN(5))
	for i := range goals {
		due := now.Add(time.Duration(rng.IntN(90)-15) * 24 * time.Hour)
		goals[i] = map[string]any{
			"id":         uuid.NewString(),
			"title":      fmt.Sprintf("goal %d", i+1),
			"progress":   between(rng, p.progress),
			"weight":     float64(1 + rng.IntN(5)),
			"priority":   pick(rng, priorities),
			"status":     pick(rng, statuses),
			"complexity": 1 + rng.IntN(5),
			"daysLate":   rng.IntN(3) * rng.IntN(10),
			"dueDate":    due.Format(time.RFC3339),
			"createdAt":  now.Add(-60 * 24 * time.Hour).Format(time.RFC3339),
		}
	}

	reviews := make([]map[string]any, 1+rng.IntN(4))
	for i := range reviews {
		reviews[i] = map[string]any{
			"rating":        between(rng, p.rating),
			"type":          pick(rng, reviewTypes),
			"reviewerTrust": 50 + rng.Float64()*50,
		}
	}

	feedbacks := make([]map[string]any, rng.IntN(4))
	for i := range feedbacks {
		feedbacks[i] = map[string]any{
			"sentimentScore": rng.Float64()*2 - 1,
			"type":           "PRAISE",
			"recency":        rng.Float64(),
			"hasSkillTags":   rng.IntN(2) == 1,
			"hasValueTags":   rng.IntN(2) == 1,
		}
	}

	total := 4 + rng.IntN(10)
	return map[string]any{
		"goals":     goals,
		"reviews":   reviews,
		"feedbacks": feedbacks,
		"collaboration": map[string]any{
			"crossFunctionalGoals":  rng.IntN(4),
			"feedbackGiven":         rng.IntN(12),
			"feedbackReceived":      rng.IntN(12),
			"oneOnOnesCompleted":    rng.IntN(10),
			"recognitionsGiven":     rng.IntN(6),
			"teamGoalContributions": rng.IntN(5),
		},
		"consistency": map[string]any{
			"onTimeDeliveryRate": between(rng, p.onTime),
			"streakDays":         rng.IntN(60),
			"missedDeadlines":    rng.IntN(total / 2),
			"totalDeadlines":     total,
		},
		"tenureYears": rng.Float64() * 10,
		"level":       1 + rng.IntN(6),
	}
}

func between(rng *rand.Rand, r [2]float64) float64 {
	return r[0] + rng.Float64()*(r[1]-r[0])
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.IntN(len(from))]
}
