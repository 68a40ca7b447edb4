package behavior

import "github.com/tsinghua-fib-lab/mixedtraffic-sim/types"

var disciplineQualityFactors = map[types.RoadQuality]float64{
	types.QualityExcellent: 1.2,
	types.QualityGood:      1.0,
	types.QualityPoor:      0.8,
	types.QualityVeryPoor:  0.6,
}

var overtakeVehicleFactors = map[types.VehicleType]float64{
	types.Motorcycle:   1.5,
	types.AutoRickshaw: 1.3,
	types.Car:          1.0,
	types.Bus:          0.7,
	types.Truck:        0.5,
	types.Bicycle:      0.3,
}

// 超车所需基础间隙（秒）
var overtakeBaseGaps = map[types.VehicleType]float64{
	types.Motorcycle:   2.0,
	types.AutoRickshaw: 2.5,
	types.Car:          3.0,
	types.Bus:          4.0,
	types.Truck:        5.0,
	types.Bicycle:      1.5,
}

var overtakeRiskFactors = map[types.VehicleType]float64{
	types.Motorcycle:   0.8,
	types.AutoRickshaw: 0.9,
	types.Car:          1.0,
	types.Bus:          1.3,
	types.Truck:        1.5,
	types.Bicycle:      0.6,
}

var intersectionBases = map[types.IntersectionType]map[string]float64{
	types.Signalized: {
		"base_stopping_prob":      0.8,
		"yellow_light_aggression": 0.6,
		"red_light_compliance":    0.9,
	},
	types.Roundabout: {
		"yield_probability": 0.7,
		"gap_acceptance":    3.0,
		"speed_reduction":   0.6,
	},
	types.TJunction: {
		"right_of_way_respect": 0.6,
		"gap_acceptance":       2.5,
		"horn_usage":           0.8,
	},
	types.Uncontrolled: {
		"aggressive_entry": 0.7,
		"gap_acceptance":   2.0,
		"horn_usage":       0.9,
	},
}

type intersectionAdjustment struct {
	aggressiveness float64
	gapAcceptance  float64
	horn           float64
}

var intersectionAdjustments = map[types.VehicleType]intersectionAdjustment{
	types.Motorcycle:   {1.4, 0.7, 1.5},
	types.AutoRickshaw: {1.3, 0.8, 1.8},
	types.Car:          {1.0, 1.0, 1.0},
	types.Bus:          {0.8, 1.2, 0.8},
	types.Truck:        {0.7, 1.3, 0.6},
}

type weatherBehaviorEffect struct {
	speed      float64
	following  float64
	lane       float64
	overtaking float64
}

var weatherBehaviorEffects = map[types.WeatherType]weatherBehaviorEffect{
	types.Clear:     {1.0, 1.0, 1.0, 1.0},
	types.LightRain: {0.9, 1.2, 0.9, 0.8},
	types.HeavyRain: {0.7, 1.5, 0.7, 0.5},
	types.Fog:       {0.6, 1.8, 0.8, 0.3},
	types.DustStorm: {0.5, 2.0, 0.6, 0.2},
}

var weatherStress = map[types.WeatherType]float64{
	types.Clear:     0.0,
	types.LightRain: 0.1,
	types.HeavyRain: 0.3,
	types.Fog:       0.25,
	types.DustStorm: 0.35,
}

// 压力耐受度，越低越容易紧张
var stressTolerance = map[types.VehicleType]float64{
	types.Motorcycle:   0.8,
	types.AutoRickshaw: 0.7,
	types.Car:          1.0,
	types.Bus:          1.2,
	types.Truck:        1.1,
	types.Bicycle:      0.6,
}
