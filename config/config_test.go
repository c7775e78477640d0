package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorodrig/journey-engine/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "journeys.db", cfg.DBPath)
	assert.InDelta(t, 8.0, cfg.MaxShiftHours(), 1e-9)
	assert.InDelta(t, 10.0, cfg.GeofenceTolerance, 1e-9)
	assert.Equal(t, "1h0m0s", cfg.SweepInterval.String())
	assert.True(t, cfg.SchedulerEnabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_SHIFT_DURATION_HOURS", "9.5")
	t.Setenv("SWEEP_INTERVAL_MINUTES", "15")
	t.Setenv("SCHEDULER_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.InDelta(t, 9.5, cfg.MaxShiftHours(), 1e-9)
	assert.Equal(t, "15m0s", cfg.SweepInterval.String())
	assert.False(t, cfg.SchedulerEnabled)
}

func TestLoad_RejectsNonPositiveValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"zero shift", "MAX_SHIFT_DURATION_HOURS", "0"},
		{"negative tolerance", "GEOFENCE_TOLERANCE_METERS", "-5"},
		{"zero sweep interval", "SWEEP_INTERVAL_MINUTES", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)

			_, err := config.Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.key)
		})
	}
}
