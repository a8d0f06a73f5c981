package rollout

import (
	"maps"
	"slices"
	"strings"
	"unicode"
)

// Flag is the name of a migration feature flag.
type Flag string

// Closed set of flags known to the controller.
const (
	FlagGTMEnabled               Flag = "gtmEnabled"
	FlagParallelTracking         Flag = "parallelTracking"
	FlagCheckoutTracking         Flag = "checkoutTracking"
	FlagPaymentTracking          Flag = "paymentTracking"
	FlagThankyouTracking         Flag = "thankyouTracking"
	FlagEmergencyRollbackEnabled Flag = "emergencyRollbackEnabled"
	FlagMonitoringEnabled        Flag = "monitoringEnabled"
	FlagDebugMode                Flag = "debugMode"
	FlagPerformanceTracking      Flag = "performanceTracking"
	FlagErrorTracking            Flag = "errorTracking"
	FlagDataValidation           Flag = "dataValidation"
)

var allFlags = []Flag{
	FlagGTMEnabled,
	FlagParallelTracking,
	FlagCheckoutTracking,
	FlagPaymentTracking,
	FlagThankyouTracking,
	FlagEmergencyRollbackEnabled,
	FlagMonitoringEnabled,
	FlagDebugMode,
	FlagPerformanceTracking,
	FlagErrorTracking,
	FlagDataValidation,
}

// componentFlags maps tracked checkout components to the flag gating them.
var componentFlags = map[string]Flag{
	"checkout": FlagCheckoutTracking,
	"payment":  FlagPaymentTracking,
	"thankyou": FlagThankyouTracking,
}

// Components returns the tracked component names in a stable order.
func Components() []string {
	return slices.Sorted(maps.Keys(componentFlags))
}

// AllFlags returns every flag of the closed set in declaration order.
func AllFlags() []Flag {
	return slices.Clone(allFlags)
}

// Valid reports whether f belongs to the closed flag set.
func (f Flag) Valid() bool {
	return slices.Contains(allFlags, f)
}

func (f Flag) String() string {
	return string(f)
}

// ParseFlag converts a raw name into a Flag, rejecting names outside the closed set.
func ParseFlag(name string) (Flag, error) {
	f := Flag(name)
	if !f.Valid() {
		return "", NewUnknownFlagError(name)
	}
	return f, nil
}

// OverrideKey is the override store key for the flag.
func OverrideKey(f Flag) string {
	return "override_" + string(f)
}

// EnvVarName is the environment variable holding the environment-level default
// for the flag, e.g. gtmEnabled -> ROLLOUT_GTM_ENABLED.
func EnvVarName(f Flag) string {
	var b strings.Builder
	b.WriteString("ROLLOUT_")
	runes := []rune(string(f))
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// DefaultFlags returns the compiled-in defaults: everything off except monitoring,
// which keeps the controller in the legacy phase until configured otherwise.
func DefaultFlags() map[Flag]bool {
	defaults := make(map[Flag]bool, len(allFlags))
	for _, f := range allFlags {
		defaults[f] = false
	}
	defaults[FlagMonitoringEnabled] = true
	return defaults
}

// FlagSet holds one boolean per flag of the closed set.
// Treat it as immutable: use With to derive a changed copy.
type FlagSet map[Flag]bool

// NewFlagSet builds a complete FlagSet, filling flags absent from values
// with the compiled-in defaults. Unknown keys are dropped.
func NewFlagSet(values map[Flag]bool) FlagSet {
	defaults := DefaultFlags()
	fs := make(FlagSet, len(allFlags))
	for _, f := range allFlags {
		if v, ok := values[f]; ok {
			fs[f] = v
			continue
		}
		fs[f] = defaults[f]
	}
	return fs
}

// Enabled returns the value of the flag; unknown flags read as false.
func (fs FlagSet) Enabled(f Flag) bool {
	return fs[f]
}

// With returns a copy of the set with a single flag changed.
func (fs FlagSet) With(f Flag, value bool) FlagSet {
	next := fs.Clone()
	next[f] = value
	return next
}

// Clone returns an independent copy of the set.
func (fs FlagSet) Clone() FlagSet {
	if fs == nil {
		return nil
	}
	return maps.Clone(fs)
}
