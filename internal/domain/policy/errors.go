package policy

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidPolicy = errors.New("invalid policy")
)
