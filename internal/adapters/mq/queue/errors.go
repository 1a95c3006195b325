package queue

import "errors"

// Submit rejections. The service maps ErrFull to backpressure.
var (
	ErrClosed = errors.New("scoring queue closed")
	ErrFull   = errors.New("scoring queue full")
)
