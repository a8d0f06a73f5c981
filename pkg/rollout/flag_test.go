package rollout_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trackflag/pkg/rollout"
)

func TestParseFlag(t *testing.T) {
	t.Parallel()

	for _, f := range rollout.AllFlags() {
		got, err := rollout.ParseFlag(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := rollout.ParseFlag("newCheckoutButton")
	require.Error(t, err)
	assert.ErrorIs(t, err, rollout.ErrUnknownFlag)
	assert.True(t, rollout.IsUnknownFlagError(err))
	assert.Contains(t, err.Error(), "newCheckoutButton")
}

func TestEnvVarName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ROLLOUT_GTM_ENABLED", rollout.EnvVarName(rollout.FlagGTMEnabled))
	assert.Equal(t, "ROLLOUT_THANKYOU_TRACKING", rollout.EnvVarName(rollout.FlagThankyouTracking))
	assert.Equal(t, "ROLLOUT_EMERGENCY_ROLLBACK_ENABLED", rollout.EnvVarName(rollout.FlagEmergencyRollbackEnabled))
}

func TestEnvDefaults_TagsFollowNamingConvention(t *testing.T) {
	t.Parallel()

	typ := reflect.TypeOf(rollout.EnvDefaults{})
	tags := make(map[string]bool, typ.NumField())
	for i := range typ.NumField() {
		tags[typ.Field(i).Tag.Get("env")] = true
	}

	require.Len(t, tags, len(rollout.AllFlags()))
	for _, f := range rollout.AllFlags() {
		assert.True(t, tags[rollout.EnvVarName(f)], "missing env field for %s", f)
	}
}

func TestEnvDefaults_Lookup(t *testing.T) {
	t.Parallel()

	env := rollout.EnvDefaults{GTMEnabled: "true", DebugMode: "yes"}
	v, ok := env.Lookup(rollout.FlagGTMEnabled)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	v, ok = env.Lookup(rollout.FlagDebugMode)
	assert.True(t, ok)
	assert.Equal(t, "yes", v)

	_, ok = env.Lookup(rollout.FlagPaymentTracking)
	assert.False(t, ok)
}

func TestFlagSet(t *testing.T) {
	t.Parallel()

	fs := rollout.NewFlagSet(map[rollout.Flag]bool{rollout.FlagGTMEnabled: true, "bogus": true})
	assert.Len(t, fs, len(rollout.AllFlags()))
	assert.True(t, fs.Enabled(rollout.FlagGTMEnabled))
	assert.True(t, fs.Enabled(rollout.FlagMonitoringEnabled), "compiled default")
	assert.False(t, fs.Enabled("bogus"))

	clone := fs.Clone()
	clone[rollout.FlagGTMEnabled] = false
	assert.True(t, fs.Enabled(rollout.FlagGTMEnabled))
}

func TestOverrideKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "override_gtmEnabled", rollout.OverrideKey(rollout.FlagGTMEnabled))
}
