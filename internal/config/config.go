// Package config defines service configuration and how it is loaded.
//
// Scoring profiles live here too: the policies map holds every named
// policy.Policy the service can score with, keyed by name.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/okian/perfcore/internal/domain/policy"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory scoring job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxTeamSize caps the members of one team scoring request.
	MaxTeamSize int `koanf:"max_team_size"`

	// TeamTimeoutMS bounds how long a team scoring run may wait for workers.
	TeamTimeoutMS int `koanf:"team_timeout_ms"`

	// RateLimit is the sustained request rate per second; 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// DefaultPolicy names the profile used when a request names none.
	DefaultPolicy string `koanf:"default_policy"`

	// Policies holds every named scoring profile.
	Policies map[string]policy.Policy `koanf:"policies"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		Addr:          ":9080",
		QueueSize:     4096,
		WorkerCount:   runtime.NumCPU(),
		MaxTeamSize:   500,
		TeamTimeoutMS: 5000,
		RateLimit:     200,
		RateBurst:     400,
		DefaultPolicy: policy.DefaultName,
		Policies: map[string]policy.Policy{
			policy.DefaultName: policy.Default(),
		},
	}
}

// Validate completes every policy from the built-in profile and checks the
// whole configuration. The returned error matches ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	if c.Addr == "" {
		invalid("addr must not be empty")
	}
	if c.QueueSize <= 0 {
		invalid("queue_size must be positive, got %d", c.QueueSize)
	}
	if c.WorkerCount <= 0 {
		invalid("worker_count must be positive, got %d", c.WorkerCount)
	}
	if c.MaxTeamSize <= 0 {
		invalid("max_team_size must be positive, got %d", c.MaxTeamSize)
	}
	if c.TeamTimeoutMS <= 0 {
		invalid("team_timeout_ms must be positive, got %d", c.TeamTimeoutMS)
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		invalid("rate_limit and rate_burst must not be negative")
	}

	filled := make(map[string]policy.Policy, len(c.Policies))
	for name, p := range c.Policies {
		if p.Name == "" {
			p.Name = name
		}
		p = p.FillDefaults()
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%w: policy %q: %w", ErrInvalidConfig, name, err))
		}
		filled[policy.Key(name)] = p
	}
	c.Policies = filled

	c.DefaultPolicy = policy.Key(c.DefaultPolicy)
	if _, ok := c.Policies[c.DefaultPolicy]; !ok {
		invalid("default_policy %q is not defined", c.DefaultPolicy)
	}

	return errors.Join(errs...)
}
