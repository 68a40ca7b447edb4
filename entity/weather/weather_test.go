package weather_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/weather"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/randengine"
)

var start = time.Date(2024, 7, 15, 8, 0, 0, 0, time.UTC)

func TestConditionDerivedFields(t *testing.T) {
	c := weather.NewCondition(types.HeavyRain, 1, time.Hour, start)
	assert.InDelta(t, 0.2, c.Visibility, 1e-9)
	assert.Equal(t, 1.0, c.RoadWetness)
	assert.InDelta(t, 0.48, c.SpeedImpactFactor(types.Car), 1e-9)
	assert.InDelta(t, 0.528, c.SpeedImpactFactor(types.Bus), 1e-9)
	assert.InDelta(t, 1.8*1.2*1.5, c.FollowingDistanceFactor(types.Motorcycle), 1e-9)
	assert.InDelta(t, 4.5, c.AccidentProbabilityMultiplier(), 1e-9)

	fog := weather.NewCondition(types.Fog, 1, time.Hour, start)
	assert.Equal(t, 0.05, weather.NewCondition(types.DustStorm, 1, time.Hour, start).Visibility)
	assert.Zero(t, fog.RoadWetness)

	assert.True(t, c.IsActive(start))
	assert.True(t, c.IsActive(start.Add(time.Hour)))
	assert.False(t, c.IsActive(start.Add(time.Hour+time.Second)))
	assert.False(t, c.IsActive(start.Add(-time.Second)))
}

func TestSpeedImpactMonotone(t *testing.T) {
	for _, chain := range [][]types.WeatherType{
		{types.Clear, types.LightRain, types.HeavyRain},
		{types.Clear, types.Fog, types.DustStorm},
	} {
		for _, vt := range types.AllVehicleTypes {
			for _, intensity := range []float64{0, 0.5, 1} {
				prev := 2.0
				for _, w := range chain {
					f := weather.NewCondition(w, intensity, time.Hour, start).SpeedImpactFactor(vt)
					assert.LessOrEqual(t, f, prev, "%v %v %v", vt, w, intensity)
					prev = f
				}
			}
		}
	}
}

func TestUpdateWeatherIdempotent(t *testing.T) {
	m := weather.NewManager(randengine.New(42), start)
	first := m.UpdateWeather(start.Add(10*time.Minute), false)
	assert.Same(t, m.Current(), first)
	assert.Equal(t, types.Clear, first.Type)
	assert.Same(t, first, m.UpdateWeather(start.Add(10*time.Minute), false))

	next := m.UpdateWeather(start.Add(61*time.Minute), false)
	assert.NotSame(t, first, next)
	assert.Equal(t, start.Add(61*time.Minute), next.Start)
	assert.Same(t, next, m.UpdateWeather(start.Add(62*time.Minute), false))

	forced := m.UpdateWeather(start.Add(62*time.Minute), true)
	assert.NotSame(t, next, forced)
	assert.Contains(t, []types.WeatherType{types.Clear, types.LightRain, types.HeavyRain}, forced.Type)
}

func TestUpdateWeatherReproducible(t *testing.T) {
	run := func() []types.WeatherType {
		m := weather.NewManager(randengine.New(7), start)
		res := []types.WeatherType{}
		for i := 1; i <= 20; i++ {
			res = append(res, m.UpdateWeather(start.Add(time.Duration(i)*8*time.Hour), false).Type)
		}
		return res
	}
	assert.Equal(t, run(), run())
}

func TestGeneratedRanges(t *testing.T) {
	m := weather.NewManager(randengine.New(1), start)
	for i := 0; i < 50; i++ {
		c := m.UpdateWeather(start, true)
		switch c.Type {
		case types.HeavyRain:
			assert.True(t, c.Intensity >= 0.6 && c.Intensity <= 1)
			assert.True(t, c.Duration >= 15*time.Minute && c.Duration <= 120*time.Minute)
			assert.True(t, c.WindSpeed >= 20 && c.WindSpeed <= 40)
		case types.LightRain:
			assert.True(t, c.Intensity >= 0.2 && c.Intensity <= 0.6)
			assert.True(t, c.Temperature >= 20 && c.Temperature <= 30)
		case types.Clear:
			assert.True(t, c.Duration >= 2*time.Hour && c.Duration <= 8*time.Hour)
		}
	}
}

func TestWeatherEffectsOverride(t *testing.T) {
	m := weather.NewManager(randengine.New(42), start)
	m.SetWeather(types.HeavyRain, 1, time.Hour, start)
	clear := types.Clear
	rain := m.GetCurrentWeatherEffects(types.Car)
	base := m.GetWeatherEffects(types.Car, &clear)
	assert.Less(t, rain.SpeedFactor, base.SpeedFactor)
	assert.Equal(t, 1.0, base.SpeedFactor)
	assert.Equal(t, rain, m.GetWeatherEffects(types.Car, nil))
	assert.Greater(t, rain.RoadWetness, 0.)
}

func TestTimeOfDay(t *testing.T) {
	tod := weather.NewTimeOfDay(nil)
	assert.Equal(t, 2.2, tod.TrafficDensityMultiplier(18))
	assert.True(t, tod.IsPeakHour(8))
	assert.False(t, tod.IsPeakHour(12))
	assert.Equal(t, 0.5, tod.SpeedAdjustment(18))
	assert.Equal(t, 1.0, tod.AggressivenessMultiplier(15))
	assert.Equal(t, 1.6, tod.AggressivenessMultiplier(42))
	assert.InDelta(t, 0.2, tod.SpawnRateAdjustment(0.1, 8), 1e-9)

	periods := map[int]string{
		0: weather.PeriodEarlyMorning, 4: weather.PeriodEarlyMorning,
		5: weather.PeriodMorningRush, 10: weather.PeriodMorningRush,
		11: weather.PeriodMidday, 16: weather.PeriodMidday,
		17: weather.PeriodEveningRush, 21: weather.PeriodEveningRush,
		22: weather.PeriodNight, 23: weather.PeriodNight,
	}
	for h, p := range periods {
		assert.Equal(t, p, tod.TimePeriod(h), "hour %d", h)
	}

	s := tod.TimeEffectsSummary(18)
	assert.Equal(t, weather.TimeEffects{
		Hour: 18, IsPeakHour: true, TrafficDensityMultiplier: 2.2,
		SpeedAdjustment: 0.5, AggressivenessMultiplier: 1.6, Period: weather.PeriodEveningRush,
	}, s)

	custom := weather.NewTimeOfDay(map[int]float64{9: 3})
	assert.Equal(t, 3.0, custom.TrafficDensityMultiplier(9))
	assert.Equal(t, 1.0, custom.TrafficDensityMultiplier(18))
}
