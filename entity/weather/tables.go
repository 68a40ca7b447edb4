package weather

import "github.com/tsinghua-fib-lab/mixedtraffic-sim/types"

var baseVisibility = map[types.WeatherType]float64{
	types.Clear:     1.0,
	types.LightRain: 0.8,
	types.HeavyRain: 0.4,
	types.Fog:       0.2,
	types.DustStorm: 0.1,
}

var baseSpeedFactors = map[types.WeatherType]float64{
	types.Clear:     1.0,
	types.LightRain: 0.85,
	types.HeavyRain: 0.6,
	types.Fog:       0.5,
	types.DustStorm: 0.4,
}

// 体积越大受天气影响越小
var vehicleSpeedAdjustments = map[types.VehicleType]float64{
	types.Motorcycle:   0.8,
	types.AutoRickshaw: 0.85,
	types.Bicycle:      0.7,
	types.Car:          1.0,
	types.Bus:          1.1,
	types.Truck:        1.05,
}

var baseFollowingFactors = map[types.WeatherType]float64{
	types.Clear:     1.0,
	types.LightRain: 1.3,
	types.HeavyRain: 1.8,
	types.Fog:       2.0,
	types.DustStorm: 1.6,
}

var accidentMultipliers = map[types.WeatherType]float64{
	types.Clear:     1.0,
	types.LightRain: 1.5,
	types.HeavyRain: 3.0,
	types.Fog:       2.5,
	types.DustStorm: 2.8,
}

type span [2]float64

var (
	temperatureRanges = map[types.WeatherType]span{
		types.Clear:     {25, 40},
		types.LightRain: {20, 30},
		types.HeavyRain: {20, 30},
		types.Fog:       {15, 25},
		types.DustStorm: {30, 45},
	}
	windSpeedRanges = map[types.WeatherType]span{
		types.DustStorm: {40, 80},
		types.HeavyRain: {20, 40},
	}
	// 分钟
	durationRanges = map[types.WeatherType][2]int{
		types.Clear:     {120, 480},
		types.LightRain: {30, 180},
		types.HeavyRain: {15, 120},
		types.Fog:       {60, 300},
		types.DustStorm: {20, 90},
	}
	intensityRanges = map[types.WeatherType]span{
		types.Clear:     {0.0, 0.1},
		types.LightRain: {0.2, 0.6},
		types.HeavyRain: {0.6, 1.0},
		types.Fog:       {0.3, 0.8},
		types.DustStorm: {0.4, 0.9},
	}
)

type weights = map[types.WeatherType]float64

// 天气转移概率
var transitionProbabilities = map[types.WeatherType]weights{
	types.Clear:     {types.Clear: 0.7, types.LightRain: 0.15, types.Fog: 0.1, types.DustStorm: 0.05},
	types.LightRain: {types.Clear: 0.4, types.LightRain: 0.3, types.HeavyRain: 0.25, types.Fog: 0.05},
	types.HeavyRain: {types.LightRain: 0.5, types.HeavyRain: 0.3, types.Clear: 0.15, types.Fog: 0.05},
	types.Fog:       {types.Clear: 0.6, types.Fog: 0.25, types.LightRain: 0.15},
	types.DustStorm: {types.Clear: 0.7, types.DustStorm: 0.2, types.LightRain: 0.1},
}

// 月份 -> 季节性天气分布（冬季多雾，春季多沙尘，6-9月季风）
var seasonalPatterns = map[int]weights{
	12: {types.Clear: 0.6, types.Fog: 0.3, types.LightRain: 0.1},
	1:  {types.Clear: 0.5, types.Fog: 0.4, types.LightRain: 0.1},
	2:  {types.Clear: 0.7, types.Fog: 0.2, types.DustStorm: 0.1},
	3:  {types.Clear: 0.8, types.DustStorm: 0.15, types.LightRain: 0.05},
	4:  {types.Clear: 0.7, types.DustStorm: 0.2, types.LightRain: 0.1},
	5:  {types.Clear: 0.6, types.DustStorm: 0.25, types.LightRain: 0.15},
	6:  {types.LightRain: 0.4, types.HeavyRain: 0.3, types.Clear: 0.3},
	7:  {types.HeavyRain: 0.5, types.LightRain: 0.3, types.Clear: 0.2},
	8:  {types.HeavyRain: 0.4, types.LightRain: 0.4, types.Clear: 0.2},
	9:  {types.LightRain: 0.5, types.Clear: 0.3, types.HeavyRain: 0.2},
	10: {types.Clear: 0.7, types.LightRain: 0.2, types.Fog: 0.1},
	11: {types.Clear: 0.6, types.Fog: 0.25, types.LightRain: 0.15},
}

// 时段表，缺省小时取1
var (
	defaultDensityMultipliers = map[int]float64{
		5: 0.3, 6: 0.6, 7: 1.5, 8: 2.0, 9: 1.8, 10: 1.2,
		11: 1.0, 12: 1.1, 13: 1.2, 14: 1.0, 15: 1.1, 16: 1.3,
		17: 1.8, 18: 2.2, 19: 2.0, 20: 1.6, 21: 1.2, 22: 0.8,
		23: 0.5, 0: 0.3, 1: 0.2, 2: 0.15, 3: 0.1, 4: 0.2,
	}
	speedAdjustments = map[int]float64{
		5: 1.2, 6: 1.1, 7: 0.8, 8: 0.6, 9: 0.7, 10: 0.9,
		11: 1.0, 12: 0.95, 13: 0.9, 14: 1.0, 15: 0.95, 16: 0.85,
		17: 0.7, 18: 0.5, 19: 0.6, 20: 0.75, 21: 0.9, 22: 1.1,
		23: 1.0, 0: 0.9, 1: 0.8, 2: 0.8, 3: 0.8, 4: 0.9,
	}
	aggressivenessMultipliers = map[int]float64{
		7: 1.3, 8: 1.5, 9: 1.4,
		12: 1.1, 13: 1.0,
		17: 1.4, 18: 1.6, 19: 1.5, 20: 1.3,
		22: 0.8, 23: 0.9, 0: 1.2, 1: 1.3, 2: 1.4,
	}
)
