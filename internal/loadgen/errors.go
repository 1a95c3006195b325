package loadgen

import "errors"

var (
	// ErrUnhealthy is returned when the service is not ready to take load.
	ErrUnhealthy = errors.New("service is not healthy")
	// ErrMismatch marks a team response that does not match its request.
	ErrMismatch = errors.New("response does not match request")
	// ErrInvalidConfig is returned for an unusable Config.
	ErrInvalidConfig = errors.New("invalid load configuration")
)
