package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	mstats "github.com/montanaflynn/stats"

	"github.com/okian/perfcore/pkg/logger"
)

const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run generates the configured teams, submits them concurrently to
// /v1/teams/score and verifies every answer. It returns an error wrapping
// ErrMismatch if any accepted team failed verification.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := applyDefaults(cfg); err != nil {
		return nil, err
	}
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("loadgen")

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("teams", cfg.Teams),
		logger.Int("teamSize", cfg.TeamSize),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
		logger.String("policy", cfg.Policy))

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	teams, err := generateTeams(ctx, cfg, seed, stats)
	if err != nil {
		return stats, fmt.Errorf("team generation failed: %w", err)
	}

	latencies, scores, err := submitTeams(ctx, cfg, teams, stats)
	if err != nil {
		return stats, fmt.Errorf("team submission failed: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := saveTeamsToFile(ctx, cfg.OutputFile, teams); err != nil {
			log.Warn(ctx, "failed to save teams to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	summarize(stats, latencies, scores)
	displayFinalStats(ctx, stats)

	if stats.Mismatches > 0 {
		return stats, fmt.Errorf("%w: %d teams", ErrMismatch, stats.Mismatches)
	}
	log.Info(ctx, "load run completed successfully")
	return stats, nil
}

func applyDefaults(cfg *Config) error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	}
	if cfg.Teams < 0 || cfg.TeamSize < 0 || cfg.Workers < 0 {
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidConfig)
	}
	if cfg.Teams == 0 {
		cfg.Teams = DefaultTeams
	}
	if cfg.TeamSize == 0 {
		cfg.TeamSize = DefaultTeamSize
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return nil
}

// checkServiceHealth verifies the service already reports ready.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := newHTTPClient(cfg.Timeout).Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// submitTeams posts every team through cfg.Workers submitters and returns
// per-request latencies in milliseconds and every member score received.
func submitTeams(ctx context.Context, cfg *Config, teams []Team, stats *Stats) ([]float64, []float64, error) {
	log := logger.Get().Named("loadgen")
	log.Info(ctx, "submitting teams", logger.Int("teams", len(teams)), logger.Int("workers", cfg.Workers))

	client := newHTTPClient(cfg.Timeout)
	url := cfg.BaseURL + "/v1/teams/score"

	var (
		submitted, ok, rejected, failed, mismatched, members atomic.Int64

		mu        sync.Mutex
		latencies = make([]float64, 0, len(teams))
		scores    = make([]float64, 0, len(teams)*cfg.TeamSize)
	)

	work := make(chan *Team, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for team := range work {
				start := time.Now()
				resp, result, err := submitTeam(ctx, client, url, team)
				elapsed := time.Since(start)
				submitted.Add(1)

				switch result {
				case outcomeOK:
					ok.Add(1)
					members.Add(int64(len(resp.Members)))
					mu.Lock()
					latencies = append(latencies, float64(elapsed.Microseconds())/1000)
					for _, m := range resp.Members {
						scores = append(scores, float64(m.Composite.Score))
					}
					mu.Unlock()
				case outcomeRejected:
					rejected.Add(1)
				case outcomeMismatch:
					mismatched.Add(1)
					log.Error(ctx, "team verification failed", logger.String("runId", resp.RunID), logger.Error(err))
				default:
					failed.Add(1)
				}
				if err != nil && cfg.Verbose && result != outcomeMismatch {
					log.Warn(ctx, "team submission failed", logger.Error(err))
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				log.Info(ctx, "progress",
					logger.Int("submitted", int(submitted.Load())),
					logger.Int("total", len(teams)),
					logger.Int("ok", int(ok.Load())),
					logger.Int("rejected", int(rejected.Load())),
					logger.Int("failed", int(failed.Load())))
			}
		}
	}()

feed:
	for i := range teams {
		select {
		case <-ctx.Done():
			break feed
		case work <- &teams[i]:
		}
	}
	close(work)
	wg.Wait()
	close(done)

	stats.TeamsSubmitted = int(submitted.Load())
	stats.TeamsOK = int(ok.Load())
	stats.TeamsRejected = int(rejected.Load())
	stats.TeamsFailed = int(failed.Load())
	stats.Mismatches = int(mismatched.Load())
	stats.MembersScored = int(members.Load())

	if err := ctx.Err(); err != nil {
		return latencies, scores, fmt.Errorf("context cancelled during submission: %w", err)
	}
	return latencies, scores, nil
}

func summarize(stats *Stats, latencies, scores []float64) {
	if len(latencies) > 0 {
		stats.LatencyP50 = percentileDuration(latencies, 50)
		stats.LatencyP95 = percentileDuration(latencies, 95)
		stats.LatencyP99 = percentileDuration(latencies, 99)
	}
	if mean, err := mstats.Mean(scores); err == nil {
		stats.MeanScore = mean
	}
}

func percentileDuration(ms []float64, p float64) time.Duration {
	v, err := mstats.PercentileNearestRank(ms, p)
	if err != nil {
		return 0
	}
	return time.Duration(v * float64(time.Millisecond))
}

// saveTeamsToFile writes the generated teams as one JSON array.
func saveTeamsToFile(ctx context.Context, filename string, teams []Team) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(teams, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal teams: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write teams: %w", err)
	}
	logger.Get().Info(ctx, "teams saved to file", logger.String("filename", filename))
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, teamsPerSecond float64
	if stats.TeamsSubmitted > 0 {
		successRate = float64(stats.TeamsOK) / float64(stats.TeamsSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		teamsPerSecond = float64(stats.TeamsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("teamsGenerated", stats.TeamsGenerated),
		logger.Int("teamsSubmitted", stats.TeamsSubmitted),
		logger.Int("teamsOk", stats.TeamsOK),
		logger.Int("teamsRejected", stats.TeamsRejected),
		logger.Int("teamsFailed", stats.TeamsFailed),
		logger.Int("mismatches", stats.Mismatches),
		logger.Int("membersScored", stats.MembersScored),
		logger.Float64("meanScore", stats.MeanScore),
		logger.Duration("latencyP50", stats.LatencyP50),
		logger.Duration("latencyP95", stats.LatencyP95),
		logger.Duration("latencyP99", stats.LatencyP99),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("teamsPerSecond", teamsPerSecond))
}
