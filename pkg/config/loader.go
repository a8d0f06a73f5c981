package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option customizes a single Load call.
type Option func(*options)

type options struct {
	files    []string
	explicit bool
	prefix   string
	environ  map[string]string
}

// WithEnvFiles replaces the default ".env" lookup. Missing explicit files are errors.
func WithEnvFiles(paths ...string) Option {
	return func(o *options) {
		o.files = paths
		o.explicit = true
	}
}

// WithPrefix prepends prefix to every env tag of the target struct.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithEnvironment parses from the given map instead of the process environment.
// Env files are skipped.
func WithEnvironment(vars map[string]string) Option {
	return func(o *options) { o.environ = vars }
}

// Load populates v from the environment. Values in v that have no matching
// variable and no envDefault keep their current content.
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &options{files: []string{".env"}}
	for _, opt := range opts {
		opt(o)
	}

	if o.environ == nil {
		if err := loadEnvFiles(o.files, o.explicit); err != nil {
			return err
		}
	}

	envOpts := env.Options{Prefix: o.prefix}
	if o.environ != nil {
		envOpts.Environment = o.environ
	}

	if err := env.ParseWithOptions(v, envOpts); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics when configuration cannot be loaded.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

func loadEnvFiles(paths []string, explicit bool) error {
	for _, p := range paths {
		if !explicit {
			if _, err := os.Stat(p); err != nil {
				continue
			}
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Join(ErrLoadingEnvFile, fmt.Errorf("%s: %w", p, err))
		}
	}
	return nil
}
