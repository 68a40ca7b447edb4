package behavior_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/behavior"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/config"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/randengine"
)

func newModel() *behavior.Model {
	cfg := config.DefaultIndianTrafficConfig()
	return behavior.New(cfg.BehaviorConfig, randengine.New(42))
}

func TestLaneDisciplineOrdering(t *testing.T) {
	m := newModel()
	rc := behavior.RoadConditions{Quality: types.QualityGood, LaneCount: 2, Width: 7, TrafficDensity: 0.5}

	truck := m.CalculateLaneDiscipline(types.Truck, rc)
	car := m.CalculateLaneDiscipline(types.Car, rc)
	mc := m.CalculateLaneDiscipline(types.Motorcycle, rc)
	auto := m.CalculateLaneDiscipline(types.AutoRickshaw, rc)

	assert.Less(t, truck.LaneChangeProbability, car.LaneChangeProbability)
	assert.Less(t, car.LaneChangeProbability, mc.LaneChangeProbability)
	assert.Equal(t, types.DisciplineChaotic, mc.Level)
	assert.Equal(t, types.DisciplineChaotic, auto.Level)
	// 0.8 * 1.0 * 0.85 * 1.2 = 0.816
	assert.Equal(t, types.DisciplineStrict, truck.Level)

	poor := m.CalculateLaneDiscipline(types.Car, behavior.RoadConditions{Quality: types.QualityVeryPoor, LaneCount: 2, Width: 7, TrafficDensity: 0.5})
	assert.Greater(t, poor.LateralDeviation, car.LateralDeviation)

	// 空路不能被当作半满
	empty := m.CalculateLaneDiscipline(types.Car, behavior.RoadConditions{Quality: types.QualityGood, LaneCount: 2, Width: 7})
	light := m.CalculateLaneDiscipline(types.Car, behavior.RoadConditions{Quality: types.QualityGood, LaneCount: 2, Width: 7, TrafficDensity: 0.1})
	assert.InDelta(t, 0.6, empty.LaneChangeProbability, 1e-9)
	assert.InDelta(t, 2*(1-0.679)*1.1, light.LaneChangeProbability, 1e-9)
	assert.Less(t, empty.LaneChangeProbability, light.LaneChangeProbability)
	assert.Less(t, empty.SpeedVariance, light.SpeedVariance)
	assert.Less(t, light.LaneChangeProbability, car.LaneChangeProbability)
}

func TestLaneDisciplineDefaults(t *testing.T) {
	m := newModel()
	a := m.CalculateLaneDiscipline(types.Car, behavior.RoadConditions{})
	b := m.CalculateLaneDiscipline(types.Car, behavior.RoadConditions{Quality: types.QualityGood, LaneCount: 2, Width: 7})
	assert.Equal(t, b, a)
	// 密度为0: 因子0.7
	assert.Equal(t, types.DisciplineModerate, a.Level)
	assert.InDelta(t, 2*(1-0.7), a.LaneChangeProbability, 1e-9)

	half := m.CalculateLaneDiscipline(types.Car, behavior.RoadConditions{TrafficDensity: 0.5})
	// 0.7 * 0.85 = 0.595
	assert.Equal(t, types.DisciplineLoose, half.Level)
	assert.InDelta(t, 2*(1-0.595)*1.5, half.LaneChangeProbability, 1e-9)
}

func TestOvertakingProbabilityMonotone(t *testing.T) {
	m := newModel()
	for _, vt := range []types.VehicleType{types.Car, types.Motorcycle, types.AutoRickshaw, types.Bus, types.Truck, types.Bicycle} {
		prev := 2.0
		for d := 0.0; d <= 1.0; d += 0.05 {
			p := m.DetermineOvertakingProbability(vt, d)
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
			assert.LessOrEqual(t, p, prev, "%v at density %.2f", vt, d)
			prev = p
		}
	}
	assert.Greater(t, m.DetermineOvertakingProbability(types.Motorcycle, 0.3), m.DetermineOvertakingProbability(types.Truck, 0.3))
}

func TestOvertakingBehaviorSmallDiff(t *testing.T) {
	m := newModel()
	d := m.DetermineOvertakingBehavior(types.Motorcycle, behavior.TrafficState{Density: 0.1}, 40, 45)
	assert.Equal(t, behavior.OvertakeDecision{}, d)
}

func TestOvertakingBehaviorDecision(t *testing.T) {
	m := newModel()
	// confidence = min(1, 0.9*0.9*1.5 * 2 * 1) = 1 → always overtakes
	d := m.DetermineOvertakingBehavior(types.Motorcycle, behavior.TrafficState{Density: 0.1}, 20, 60)
	require.True(t, d.ShouldOvertake)
	assert.Equal(t, 1.0, d.Confidence)
	assert.InDelta(t, 2.0*(1+40.0/50), d.RequiredGap, 1e-9)
	assert.InDelta(t, (0.04+0+0.3)*0.8, d.RiskLevel, 1e-9)
	assert.InDelta(t, 40*0.1*(1-0.05), d.EstimatedTimeSavings, 1e-9)
}

func TestIntersectionBehavior(t *testing.T) {
	m := newModel()
	for _, vt := range []types.VehicleType{types.Car, types.Motorcycle, types.Bus, types.Truck, types.Bicycle} {
		sig := m.ModelIntersectionBehavior(vt, types.Signalized)
		unc := m.ModelIntersectionBehavior(vt, types.Uncontrolled)
		assert.GreaterOrEqual(t, sig.StoppingProbability, unc.StoppingProbability)
	}
	mc := m.ModelIntersectionBehavior(types.Motorcycle, types.Uncontrolled)
	assert.InDelta(t, 0.8*1.4, mc.ApproachSpeedFactor, 1e-9)
	assert.InDelta(t, 0.7*0.8, mc.StoppingProbability, 1e-9)
	assert.InDelta(t, 2.0*0.7, mc.GapAcceptanceThreshold, 1e-9)
	assert.InDelta(t, 0.9*1.5, mc.HornUsageProbability, 1e-9)
}

func TestApplyWeatherEffects(t *testing.T) {
	m := newModel()
	params := map[string]float64{
		"max_speed":          100,
		"following_distance": 2,
		"lane_discipline":    0.5,
		"overtaking_rate":    0.4,
		"horn":               3,
	}
	assert.Equal(t, params, m.ApplyWeatherEffects(params, types.Clear))

	fog := m.ApplyWeatherEffects(params, types.Fog)
	assert.InDelta(t, 60, fog["max_speed"], 1e-9)
	assert.InDelta(t, 3.6, fog["following_distance"], 1e-9)
	assert.InDelta(t, 0.4, fog["lane_discipline"], 1e-9)
	assert.InDelta(t, 0.12, fog["overtaking_rate"], 1e-9)
	assert.Equal(t, 3.0, fog["horn"])
}

func TestStressLevel(t *testing.T) {
	m := newModel()
	calm := m.CalculateStressLevel(types.Bus, behavior.StressConditions{Density: 0, CurrentSpeed: 50, DesiredSpeed: 50, Weather: types.Clear})
	assert.InDelta(t, 0.3/1.2, calm, 1e-9)
	storm := m.CalculateStressLevel(types.AutoRickshaw, behavior.StressConditions{Density: 1, CurrentSpeed: 0, DesiredSpeed: 50, Weather: types.DustStorm})
	assert.Equal(t, 1.0, storm)
}
