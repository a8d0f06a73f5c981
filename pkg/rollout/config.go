package rollout

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the configuration surface consumed at controller construction.
type Config struct {
	Percentage   int           `env:"ROLLOUT_PERCENTAGE" envDefault:"0"`        // Percentage of sessions routed to the new tracking path.
	StoreTimeout time.Duration `env:"ROLLOUT_STORE_TIMEOUT" envDefault:"250ms"` // StoreTimeout bounds every backend call; a timeout reads as "source unavailable".
	DefaultsFile string        `env:"ROLLOUT_DEFAULTS_FILE"`                    // DefaultsFile is an optional YAML file with flag defaults.

	// Defaults maps flags to their compiled-in defaults. Missing flags use DefaultFlags.
	Defaults map[Flag]bool
}

// RolloutPercentage returns the configured percentage clamped to [0,100].
func (c Config) RolloutPercentage() int {
	return ClampPercentage(c.Percentage)
}

// EnvDefaults holds environment-level flag defaults, one variable per flag named
// by EnvVarName. Only the "true" token enables a flag; anything else falls
// through to the compiled default.
type EnvDefaults struct {
	GTMEnabled               string `env:"ROLLOUT_GTM_ENABLED"`
	ParallelTracking         string `env:"ROLLOUT_PARALLEL_TRACKING"`
	CheckoutTracking         string `env:"ROLLOUT_CHECKOUT_TRACKING"`
	PaymentTracking          string `env:"ROLLOUT_PAYMENT_TRACKING"`
	ThankyouTracking         string `env:"ROLLOUT_THANKYOU_TRACKING"`
	EmergencyRollbackEnabled string `env:"ROLLOUT_EMERGENCY_ROLLBACK_ENABLED"`
	MonitoringEnabled        string `env:"ROLLOUT_MONITORING_ENABLED"`
	DebugMode                string `env:"ROLLOUT_DEBUG_MODE"`
	PerformanceTracking      string `env:"ROLLOUT_PERFORMANCE_TRACKING"`
	ErrorTracking            string `env:"ROLLOUT_ERROR_TRACKING"`
	DataValidation           string `env:"ROLLOUT_DATA_VALIDATION"`
}

// Lookup implements EnvSource.
func (e EnvDefaults) Lookup(flag Flag) (string, bool) {
	var v string
	switch flag {
	case FlagGTMEnabled:
		v = e.GTMEnabled
	case FlagParallelTracking:
		v = e.ParallelTracking
	case FlagCheckoutTracking:
		v = e.CheckoutTracking
	case FlagPaymentTracking:
		v = e.PaymentTracking
	case FlagThankyouTracking:
		v = e.ThankyouTracking
	case FlagEmergencyRollbackEnabled:
		v = e.EmergencyRollbackEnabled
	case FlagMonitoringEnabled:
		v = e.MonitoringEnabled
	case FlagDebugMode:
		v = e.DebugMode
	case FlagPerformanceTracking:
		v = e.PerformanceTracking
	case FlagErrorTracking:
		v = e.ErrorTracking
	case FlagDataValidation:
		v = e.DataValidation
	}
	return v, v != ""
}

// MapEnv is an EnvSource backed by a plain map keyed by flag.
type MapEnv map[Flag]string

func (m MapEnv) Lookup(flag Flag) (string, bool) {
	v, ok := m[flag]
	return v, ok
}

type defaultsFile struct {
	RolloutPercentage *int            `yaml:"rollout_percentage"`
	Flags             map[string]bool `yaml:"flags"`
}

// ReadDefaults decodes a YAML defaults document into cfg. Unknown flag names are rejected.
//
//	rollout_percentage: 25
//	flags:
//	  gtmEnabled: true
//	  parallelTracking: true
func ReadDefaults(r io.Reader, cfg *Config) error {
	var doc defaultsFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(ErrInvalidDefaults, err)
	}

	if doc.RolloutPercentage != nil {
		cfg.Percentage = *doc.RolloutPercentage
	}
	if len(doc.Flags) == 0 {
		return nil
	}
	if cfg.Defaults == nil {
		cfg.Defaults = make(map[Flag]bool, len(doc.Flags))
	}
	for name, v := range doc.Flags {
		f, err := ParseFlag(name)
		if err != nil {
			return errors.Join(ErrInvalidDefaults, err)
		}
		cfg.Defaults[f] = v
	}
	return nil
}

// LoadDefaultsFile applies cfg.DefaultsFile to cfg when it is set.
func LoadDefaultsFile(cfg *Config) error {
	if cfg.DefaultsFile == "" {
		return nil
	}
	f, err := os.Open(cfg.DefaultsFile)
	if err != nil {
		return errors.Join(ErrInvalidDefaults, fmt.Errorf("open %s: %w", cfg.DefaultsFile, err))
	}
	defer f.Close()
	return ReadDefaults(f, cfg)
}
