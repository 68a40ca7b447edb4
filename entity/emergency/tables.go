package emergency

import "github.com/tsinghua-fib-lab/mixedtraffic-sim/types"

type impactParams struct {
	lanesBlocked       float64
	speedReduction     float64 // 1为不降速，0为停止
	accessibility      float64 // 1为完全可通行，0为完全封闭
	congestionRadius   float64 // 米
	congestionSeverity float64
}

var typeImpacts = map[types.EmergencyType]impactParams{
	types.Accident:         {1, 0.3, 0.7, 300, 0.6},
	types.Flooding:         {2, 0.1, 0.2, 800, 0.8},
	types.RoadClosure:      {99, 0, 0, 600, 0.9},
	types.Construction:     {1, 0.5, 0.8, 200, 0.4},
	types.VehicleBreakdown: {1, 0.6, 0.9, 150, 0.3},
}

var impactSeverityMultipliers = map[types.SeverityLevel]float64{
	types.SeverityLow:      0.5,
	types.SeverityMedium:   1.0,
	types.SeverityHigh:     1.5,
	types.SeverityCritical: 2.0,
}

var durationSeverityMultipliers = map[types.SeverityLevel]float64{
	types.SeverityLow:      0.5,
	types.SeverityMedium:   1.0,
	types.SeverityHigh:     2.0,
	types.SeverityCritical: 3.0,
}

// 基础持续时间（分钟）
var baseDurations = map[types.EmergencyType]float64{
	types.Accident:         30,
	types.Flooding:         180,
	types.RoadClosure:      120,
	types.Construction:     480,
	types.VehicleBreakdown: 20,
}

// 每次检查的发生概率
var baseProbabilities = map[types.EmergencyType]float64{
	types.Accident:         0.001,
	types.VehicleBreakdown: 0.0005,
	types.Flooding:         0.0001,
	types.RoadClosure:      0.00005,
	types.Construction:     0.00002,
}

var weatherMultipliers = map[types.WeatherType]float64{
	types.Clear:     1.0,
	types.LightRain: 1.5,
	types.HeavyRain: 3.0,
	types.Fog:       2.0,
	types.DustStorm: 2.5,
}

var severityProbabilities = map[types.EmergencyType]map[types.SeverityLevel]float64{
	types.Accident:         {types.SeverityLow: 0.4, types.SeverityMedium: 0.4, types.SeverityHigh: 0.15, types.SeverityCritical: 0.05},
	types.Flooding:         {types.SeverityLow: 0.2, types.SeverityMedium: 0.3, types.SeverityHigh: 0.3, types.SeverityCritical: 0.2},
	types.RoadClosure:      {types.SeverityMedium: 0.5, types.SeverityHigh: 0.3, types.SeverityCritical: 0.2},
	types.Construction:     {types.SeverityLow: 0.6, types.SeverityMedium: 0.3, types.SeverityHigh: 0.1},
	types.VehicleBreakdown: {types.SeverityLow: 0.7, types.SeverityMedium: 0.25, types.SeverityHigh: 0.05},
}

var severityAdjectives = map[types.SeverityLevel]string{
	types.SeverityLow:      "Minor",
	types.SeverityMedium:   "Moderate",
	types.SeverityHigh:     "Major",
	types.SeverityCritical: "Severe",
}

var typeDescriptions = map[types.EmergencyType]string{
	types.Accident:         "traffic accident",
	types.Flooding:         "road flooding",
	types.RoadClosure:      "road closure",
	types.Construction:     "construction work",
	types.VehicleBreakdown: "vehicle breakdown",
}
