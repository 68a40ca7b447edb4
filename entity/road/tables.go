package road

import "github.com/tsinghua-fib-lab/mixedtraffic-sim/types"

var highwayQualityFactors = map[string]float64{
	"motorway":    1.0,
	"trunk":       0.9,
	"primary":     0.8,
	"secondary":   0.7,
	"tertiary":    0.6,
	"residential": 0.5,
	"service":     0.4,
	"track":       0.2,
	"path":        0.1,
}

var potholeSurfaceMultipliers = map[types.SurfaceType]float64{
	types.SurfaceAsphalt:     1.0,
	types.SurfaceConcrete:    0.5,
	types.SurfaceGravel:      2.0,
	types.SurfaceDirt:        4.0,
	types.SurfaceCobblestone: 1.5,
}

var potholeMaintenanceMultipliers = map[types.MaintenanceLevel]float64{
	types.WellMaintained:       0.5,
	types.ModeratelyMaintained: 1.0,
	types.PoorlyMaintained:     2.5,
	types.Unmaintained:         4.0,
}

// 直径与深度范围（米）
var (
	potholeDiameters = map[types.SeverityLevel][2]float64{
		types.SeverityLow:      {0.3, 0.8},
		types.SeverityMedium:   {0.8, 1.5},
		types.SeverityHigh:     {1.5, 2.5},
		types.SeverityCritical: {2.5, 4.0},
	}
	potholeDepths = map[types.SeverityLevel][2]float64{
		types.SeverityLow:      {0.05, 0.15},
		types.SeverityMedium:   {0.15, 0.3},
		types.SeverityHigh:     {0.3, 0.5},
		types.SeverityCritical: {0.5, 1.0},
	}
)

var weatherBaseImpact = map[types.WeatherType]float64{
	types.Clear:     1.0,
	types.LightRain: 0.9,
	types.HeavyRain: 0.6,
	types.Fog:       0.7,
	types.DustStorm: 0.5,
}

var peakHours = map[int]bool{7: true, 8: true, 9: true, 17: true, 18: true, 19: true, 20: true}

var qualityScores = map[types.RoadQuality]float64{
	types.QualityExcellent: 1.0,
	types.QualityGood:      0.75,
	types.QualityPoor:      0.5,
	types.QualityVeryPoor:  0.25,
}

var qualitySpeedFactors = map[types.RoadQuality]float64{
	types.QualityExcellent: 1.0,
	types.QualityGood:      0.95,
	types.QualityPoor:      0.8,
	types.QualityVeryPoor:  0.6,
}

var obstacleQualityMultipliers = map[types.SeverityLevel]float64{
	types.SeverityCritical: 0.3,
	types.SeverityHigh:     0.5,
	types.SeverityMedium:   0.7,
	types.SeverityLow:      0.9,
}

var constructionQualityMultipliers = map[types.ConstructionStatus]float64{
	types.ConstructionClosure: 0.1,
	types.ConstructionMajor:   0.4,
	types.ConstructionMinor:   0.7,
}

var obstacleBaseLanes = map[ObstacleType]int{
	ObstacleAccident:  2,
	ObstacleBreakdown: 1,
	ObstacleDebris:    1,
	ObstacleFlooding:  3,
}
