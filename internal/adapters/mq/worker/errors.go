package worker

import "errors"

// Sentinel kinds for job failures.
var (
	ErrNoScorer    = errors.New("job has no scorer")
	ErrJobPanicked = errors.New("scoring job panicked")
)
