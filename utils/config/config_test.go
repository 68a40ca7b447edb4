package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/config"
	"gopkg.in/yaml.v2"
)

func TestRuntimeConfigDefaults(t *testing.T) {
	rc, err := config.NewRuntimeConfig(config.Config{})
	require.NoError(t, err)
	assert.Equal(t, uint64(config.DefaultSeed), rc.C.Seed)
	assert.Equal(t, config.DefaultSimSeconds, rc.C.SimSeconds)
	assert.Equal(t, config.DefaultMaxVehicles, rc.C.MaxVehicles)
	assert.Equal(t, config.DefaultMinPathSeconds, rc.C.MinPathSeconds)
	assert.Equal(t, 5., rc.C.Intervals.Dynamics)
	assert.Equal(t, 12, rc.Start.Hour())
	assert.InDelta(t, 1, sumRatios(rc.Traffic.VehicleMixRatios), 1e-9)
}

func sumRatios(m map[types.VehicleType]float64) float64 {
	s := 0.
	for _, v := range m {
		s += v
	}
	return s
}

func TestRuntimeConfigFromYAML(t *testing.T) {
	data := []byte(`
input:
  graph:
    file: data/grid.json
control:
  seed: 7
  start_time: "2024-06-01T08:30:00Z"
  use_indian_features: true
  intervals:
    weather: 120
traffic:
  vehicle_mix_ratios:
    CAR: 0.5
    MOTORCYCLE: 0.5
`)
	var c config.Config
	require.NoError(t, yaml.UnmarshalStrict(data, &c))
	rc, err := config.NewRuntimeConfig(c)
	require.NoError(t, err)

	assert.Equal(t, "data/grid.json", rc.All.Input.Graph.File)
	assert.Equal(t, uint64(7), rc.C.Seed)
	assert.True(t, rc.C.UseIndianFeatures)
	assert.Equal(t, 120., rc.C.Intervals.Weather)
	assert.Equal(t, 30., rc.C.Intervals.TimeOfDay)
	assert.Equal(t, time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC), rc.Start)
	assert.Equal(t, map[types.VehicleType]float64{types.Car: 0.5, types.Motorcycle: 0.5}, rc.Traffic.VehicleMixRatios)
	assert.NotEmpty(t, rc.Traffic.PeakHourMultipliers)
}

func TestRuntimeConfigErrors(t *testing.T) {
	_, err := config.NewRuntimeConfig(config.Config{Control: config.Control{StartTime: "noon"}})
	assert.Error(t, err)

	var c config.Config
	assert.Error(t, yaml.UnmarshalStrict([]byte("control:\n  unknown_field: 1\n"), &c))
}
