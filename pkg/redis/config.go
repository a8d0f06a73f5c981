package redis

import "time"

type Config struct {
	// ConnectionURL has the form redis://:password@localhost:6379/0.
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	// KeyPrefix is prepended to every key written by this package.
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"rollout:"`
	// SessionTTL bounds the lifetime of scoped session ids. Zero keeps them forever.
	SessionTTL time.Duration `env:"REDIS_SESSION_TTL" envDefault:"720h"`
}
