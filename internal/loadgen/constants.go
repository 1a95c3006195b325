package loadgen

import "time"

// Defaults applied to zero Config fields.
const (
	DefaultTeams    = 100
	DefaultTeamSize = 25
	DefaultTimeout  = 30 * time.Second

	// WorkerChannelMultiplier sizes the submit channel relative to the worker count.
	WorkerChannelMultiplier = 2

	PercentageMultiplier = 100
	progressInterval     = time.Second
)
