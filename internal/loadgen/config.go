// Package loadgen drives a running perfcore service with synthetic teams and
// checks every team scoring response it gets back.
package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Teams      int           // Number of teams to submit
	TeamSize   int           // Members per team
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Policy     string        // Scoring policy; empty uses the service default
	Seed       uint64        // Generator seed; 0 picks one from the clock
	OutputFile string        // Where to save the generated teams; empty skips saving
	Verbose    bool
}

// Team is one generated /v1/teams/score request.
type Team struct {
	Policy  string   `json:"policy,omitempty"`
	Members []Member `json:"members"`
}

// Member mirrors the request member; Input is kept as a generic document so
// the generator does not depend on service internals.
type Member struct {
	UserID string         `json:"userId"`
	Input  map[string]any `json:"input"`
}

// TeamResponse holds the fields of a team scoring response that get verified.
type TeamResponse struct {
	RunID   string         `json:"runId"`
	Policy  string         `json:"policy"`
	Members []MemberResult `json:"members"`
	Summary Summary        `json:"summary"`
}

// MemberResult is one member of a TeamResponse.
type MemberResult struct {
	UserID    string `json:"userId"`
	Composite struct {
		Score      int     `json:"score"`
		Grade      string  `json:"grade"`
		StarRating float64 `json:"starRating"`
	} `json:"composite"`
	Peer struct {
		Score      float64 `json:"score"`
		Percentile float64 `json:"percentile"`
		Position   string  `json:"position"`
	} `json:"peer"`
}

// Summary is the peer benchmark of a team.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Stats holds run statistics.
type Stats struct {
	TeamsGenerated int
	TeamsSubmitted int
	TeamsOK        int
	TeamsRejected  int // 429 and 503 answers
	TeamsFailed    int
	Mismatches     int // 200 answers that failed verification
	MembersScored  int

	LatencyP50 time.Duration
	LatencyP95 time.Duration
	LatencyP99 time.Duration
	MeanScore  float64

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
