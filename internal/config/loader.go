package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/perfcore/internal/domain/policy"
)

// Environment knobs read before anything else.
const (
	EnvPrefix  = "PERFCORE_"
	EnvConfig  = EnvPrefix + "CONFIG"
	EnvDotenv  = EnvPrefix + "DOTENV"
	dotenvFile = ".env"
)

// Load builds a Config by layering defaults, an optional .env file, an
// optional YAML file and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env file at PERFCORE_DOTENV, or ./.env when present; it only fills
//     variables that are not already set in the process environment
//  3. file (YAML) if PERFCORE_CONFIG is set
//  4. env (prefix PERFCORE_)
//
// The result is validated; policies come back filled from the built-in profile.
func Load(ctx context.Context) (*Config, error) {
	if err := loadDotenv(); err != nil {
		return nil, err
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// PERFCORE_QUEUE_SIZE -> queue_size; underscores are kept to match koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	cfg.Policies = nil // decoded per profile below
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	policies, err := loadPolicies(k, base.Policies)
	if err != nil {
		return nil, err
	}
	cfg.Policies = policies

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotenv() error {
	path := os.Getenv(EnvDotenv)
	explicit := path != ""
	if !explicit {
		path = dotenvFile
	}
	err := godotenv.Load(path)
	switch {
	case err == nil:
		return nil
	case !explicit && errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("%w: dotenv %s: %w", ErrLoadConfig, path, err)
	}
}

// Policy tables whose entries only make sense together. A profile that sets
// one of them replaces the built-in table instead of patching it.
var policyTables = []string{"weights", "grade_bands", "star_bands", "review_type_weights"} //nolint:gochecknoglobals // fixed key list

// loadPolicies decodes every profile under "policies" over policy.Default(),
// so a profile only spells out the fields it changes. Profiles of base that
// the sources do not mention are kept as they are.
func loadPolicies(k *koanf.Koanf, base map[string]policy.Policy) (map[string]policy.Policy, error) {
	out := make(map[string]policy.Policy, len(base))
	for name, p := range base {
		out[name] = p
	}

	for _, name := range k.MapKeys("policies") {
		path := "policies." + name
		p := policy.Default()
		p.Name = name
		for _, table := range policyTables {
			if !k.Exists(path + "." + table) {
				continue
			}
			switch table {
			case "weights":
				p.Weights = policy.Weights{}
			case "grade_bands":
				p.GradeBands = nil
			case "star_bands":
				p.StarBands = nil
			case "review_type_weights":
				p.ReviewTypeWeights = nil
			}
		}
		if err := k.UnmarshalWithConf(path, &p, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
			return nil, fmt.Errorf("%w: policy %q: %w", ErrLoadConfig, name, err)
		}
		out[name] = p
	}
	return out, nil
}
