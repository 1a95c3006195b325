package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownPolicy   = errors.New("unknown policy")
	ErrDuplicateMember = errors.New("duplicate member")
	ErrMissingMemberID = errors.New("member id is required")
	ErrTeamTooLarge    = errors.New("team too large")
	ErrBackpressure    = errors.New("scoring queue is full")
	ErrNotStarted      = errors.New("service not started")
)
