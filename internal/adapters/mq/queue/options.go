package queue

// Option configures an InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity bounds the number of queued jobs; Submit answers ErrFull past
// it. Non-positive values keep the default of 4096.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}
