package metrics

import "github.com/prometheus/client_golang/prometheus"

// Option configures a Manager before its collectors are registered.
type Option func(*Manager)

// WithNamespace overrides the "perfcore" metric name prefix.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem overrides the "engine" subsystem.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithLatencyBuckets sets the millisecond buckets of every latency histogram.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.latencyBuckets = buckets
		}
	}
}

// WithScoreBuckets sets the buckets of the composite score histogram.
// Scores run from 0 to 100.
func WithScoreBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.scoreBuckets = buckets
		}
	}
}

// WithPrometheusRegistry registers the collectors on registry instead of the default one.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}
