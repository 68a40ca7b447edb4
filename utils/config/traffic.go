package config

import "github.com/tsinghua-fib-lab/mixedtraffic-sim/types"

// VehicleConfig 单一车辆类型的物理与行为参数
type VehicleConfig struct {
	Length       float64 `yaml:"length" json:"length"`             // 米
	Width        float64 `yaml:"width" json:"width"`               // 米
	Height       float64 `yaml:"height" json:"height"`             // 米
	MaxSpeed     float64 `yaml:"max_speed" json:"max_speed"`       // km/h
	Acceleration float64 `yaml:"acceleration" json:"acceleration"` // m/s²
	Deceleration float64 `yaml:"deceleration" json:"deceleration"` // m/s²

	DefaultBehaviorProfile  types.BehaviorProfile `yaml:"default_behavior_profile" json:"default_behavior_profile"`
	LaneDisciplineBase      float64               `yaml:"lane_discipline_base" json:"lane_discipline_base"`           // 0~1
	OvertakingAggressiveness float64              `yaml:"overtaking_aggressiveness" json:"overtaking_aggressiveness"` // 0~1
	FollowingDistanceFactor float64               `yaml:"following_distance_factor" json:"following_distance_factor"`

	HornUsageFrequency     float64 `yaml:"horn_usage_frequency" json:"horn_usage_frequency"` // 次/分钟
	TrafficLightCompliance float64 `yaml:"traffic_light_compliance" json:"traffic_light_compliance"`
	RightOfWayRespect      float64 `yaml:"right_of_way_respect" json:"right_of_way_respect"`
}

// RoadConditionConfig 道路状况参数
type RoadConditionConfig struct {
	SurfaceTypeWeights         map[types.SurfaceType]float64      `yaml:"surface_type_weights" json:"surface_type_weights"`
	MaintenanceWeights         map[types.MaintenanceLevel]float64 `yaml:"maintenance_weights" json:"maintenance_weights"`
	PotholeProbabilityByAge    map[int]float64                    `yaml:"pothole_probability_by_age" json:"pothole_probability_by_age"`
	ConstructionSpeedReduction float64                            `yaml:"construction_speed_reduction" json:"construction_speed_reduction"`
	ConstructionLaneReduction  int                                `yaml:"construction_lane_reduction" json:"construction_lane_reduction"`
}

// BehaviorConfig 驾驶行为参数
type BehaviorConfig struct {
	LaneDisciplineByVehicle  map[types.VehicleType]float64     `yaml:"lane_discipline_by_vehicle" json:"lane_discipline_by_vehicle"`
	OvertakingAggressiveness map[types.VehicleType]float64     `yaml:"overtaking_aggressiveness" json:"overtaking_aggressiveness"`
	WeatherSpeedFactors      map[types.WeatherType]float64     `yaml:"weather_speed_factors" json:"weather_speed_factors"`
	RoadQualitySpeedFactors  map[types.RoadQuality]float64     `yaml:"road_quality_speed_factors" json:"road_quality_speed_factors"`
	FollowingDistanceFactors map[types.BehaviorProfile]float64 `yaml:"following_distance_factors" json:"following_distance_factors"`
}

// IndianTrafficConfig 混合交通仿真的主配置
// 功能：车辆构成、高峰系数、天气与路况分布以及各子模块参数
// 说明：枚举为键的表在JSON/YAML中以枚举名序列化
type IndianTrafficConfig struct {
	VehicleMixRatios        map[types.VehicleType]float64 `yaml:"vehicle_mix_ratios" json:"vehicle_mix_ratios"` // 之和应为1
	PeakHourMultipliers     map[int]float64               `yaml:"peak_hour_multipliers" json:"peak_hour_multipliers"`
	WeatherProbabilities    map[types.WeatherType]float64 `yaml:"weather_probabilities" json:"weather_probabilities"`
	RoadQualityDistribution map[types.RoadQuality]float64 `yaml:"road_quality_distribution" json:"road_quality_distribution"`

	VehicleConfigs      map[types.VehicleType]VehicleConfig `yaml:"vehicle_configs" json:"vehicle_configs"`
	RoadConditionConfig RoadConditionConfig                 `yaml:"road_condition_config" json:"road_condition_config"`
	BehaviorConfig      BehaviorConfig                      `yaml:"behavior_config" json:"behavior_config"`

	SimulationTimestep float64 `yaml:"simulation_timestep" json:"simulation_timestep"` // 秒
	MaxVehicles        int     `yaml:"max_vehicles" json:"max_vehicles"`
	SpawnRate          float64 `yaml:"spawn_rate" json:"spawn_rate"` // 辆/秒
}

// DefaultIndianTrafficConfig 内置的默认交通参数
func DefaultIndianTrafficConfig() IndianTrafficConfig {
	c := IndianTrafficConfig{}
	c.FillDefaults()
	return c
}

// FillDefaults 补齐缺省项
// 功能：为空表与零值参数填入内置默认值，已有内容保持不变
// 说明：反序列化时应先解码到零值结构再调用本方法，避免与默认表合并
func (c *IndianTrafficConfig) FillDefaults() {
	if len(c.VehicleMixRatios) == 0 {
		c.VehicleMixRatios = map[types.VehicleType]float64{
			types.Car:          0.35,
			types.Motorcycle:   0.30,
			types.AutoRickshaw: 0.15,
			types.Bus:          0.10,
			types.Truck:        0.08,
			types.Bicycle:      0.02,
		}
	}
	if len(c.PeakHourMultipliers) == 0 {
		c.PeakHourMultipliers = map[int]float64{
			6: 1.2, 7: 1.8, 8: 2.5, 9: 2.8, 10: 2.2,
			11: 1.5, 12: 1.3, 13: 1.4, 14: 1.3, 15: 1.5,
			16: 1.8, 17: 2.3, 18: 2.8, 19: 2.5, 20: 2.0,
			21: 1.5, 22: 1.2, 23: 0.8, 0: 0.5, 1: 0.3,
			2: 0.2, 3: 0.2, 4: 0.3, 5: 0.8,
		}
	}
	if len(c.WeatherProbabilities) == 0 {
		c.WeatherProbabilities = map[types.WeatherType]float64{
			types.Clear:     0.6,
			types.LightRain: 0.2,
			types.HeavyRain: 0.1,
			types.Fog:       0.05,
			types.DustStorm: 0.05,
		}
	}
	if len(c.RoadQualityDistribution) == 0 {
		c.RoadQualityDistribution = map[types.RoadQuality]float64{
			types.QualityExcellent: 0.15,
			types.QualityGood:      0.35,
			types.QualityPoor:      0.35,
			types.QualityVeryPoor:  0.15,
		}
	}
	if len(c.VehicleConfigs) == 0 {
		c.VehicleConfigs = defaultVehicleConfigs()
	}
	c.RoadConditionConfig.fillDefaults()
	c.BehaviorConfig.fillDefaults()
	if c.SimulationTimestep <= 0 {
		c.SimulationTimestep = 0.1
	}
	if c.MaxVehicles <= 0 {
		c.MaxVehicles = 1000
	}
	if c.SpawnRate <= 0 {
		c.SpawnRate = 0.5
	}
}

func defaultVehicleConfigs() map[types.VehicleType]VehicleConfig {
	return map[types.VehicleType]VehicleConfig{
		types.Car: {
			Length: 4.0, Width: 1.8, Height: 1.5, MaxSpeed: 120,
			Acceleration: 3.0, Deceleration: 8.0,
			DefaultBehaviorProfile: types.Normal,
			LaneDisciplineBase:     0.7, OvertakingAggressiveness: 0.6,
			FollowingDistanceFactor: 1.5, HornUsageFrequency: 2.0,
			TrafficLightCompliance: 0.8, RightOfWayRespect: 0.7,
		},
		types.Motorcycle: {
			Length: 2.0, Width: 0.8, Height: 1.2, MaxSpeed: 100,
			Acceleration: 4.0, Deceleration: 6.0,
			DefaultBehaviorProfile: types.Aggressive,
			LaneDisciplineBase:     0.2, OvertakingAggressiveness: 0.9,
			FollowingDistanceFactor: 0.8, HornUsageFrequency: 3.0,
			TrafficLightCompliance: 0.6, RightOfWayRespect: 0.4,
		},
		types.AutoRickshaw: {
			Length: 2.8, Width: 1.4, Height: 1.8, MaxSpeed: 60,
			Acceleration: 2.0, Deceleration: 5.0,
			DefaultBehaviorProfile: types.Erratic,
			LaneDisciplineBase:     0.3, OvertakingAggressiveness: 0.8,
			FollowingDistanceFactor: 1.0, HornUsageFrequency: 4.0,
			TrafficLightCompliance: 0.5, RightOfWayRespect: 0.3,
		},
		types.Bus: {
			Length: 12.0, Width: 2.5, Height: 3.0, MaxSpeed: 80,
			Acceleration: 1.5, Deceleration: 6.0,
			DefaultBehaviorProfile: types.Normal,
			LaneDisciplineBase:     0.5, OvertakingAggressiveness: 0.4,
			FollowingDistanceFactor: 2.0, HornUsageFrequency: 1.5,
			TrafficLightCompliance: 0.9, RightOfWayRespect: 0.8,
		},
		types.Truck: {
			Length: 15.0, Width: 2.5, Height: 3.5, MaxSpeed: 70,
			Acceleration: 1.0, Deceleration: 5.0,
			DefaultBehaviorProfile: types.Conservative,
			LaneDisciplineBase:     0.8, OvertakingAggressiveness: 0.3,
			FollowingDistanceFactor: 2.5, HornUsageFrequency: 1.0,
			TrafficLightCompliance: 0.9, RightOfWayRespect: 0.9,
		},
		types.Bicycle: {
			Length: 1.8, Width: 0.6, Height: 1.0, MaxSpeed: 25,
			Acceleration: 2.0, Deceleration: 3.0,
			DefaultBehaviorProfile: types.Conservative,
			LaneDisciplineBase:     0.1, OvertakingAggressiveness: 0.2,
			FollowingDistanceFactor: 0.5, HornUsageFrequency: 0.1,
			TrafficLightCompliance: 0.4, RightOfWayRespect: 0.2,
		},
	}
}

func (c *RoadConditionConfig) fillDefaults() {
	if len(c.SurfaceTypeWeights) == 0 {
		c.SurfaceTypeWeights = map[types.SurfaceType]float64{
			types.SurfaceAsphalt:     1.0,
			types.SurfaceConcrete:    0.9,
			types.SurfaceGravel:      0.6,
			types.SurfaceDirt:        0.3,
			types.SurfaceCobblestone: 0.7,
		}
	}
	if len(c.MaintenanceWeights) == 0 {
		c.MaintenanceWeights = map[types.MaintenanceLevel]float64{
			types.WellMaintained:       1.0,
			types.ModeratelyMaintained: 0.8,
			types.PoorlyMaintained:     0.5,
			types.Unmaintained:         0.2,
		}
	}
	if len(c.PotholeProbabilityByAge) == 0 {
		c.PotholeProbabilityByAge = map[int]float64{0: 0.01, 5: 0.05, 10: 0.15, 15: 0.30, 20: 0.50}
	}
	if c.ConstructionSpeedReduction <= 0 {
		c.ConstructionSpeedReduction = 0.5
	}
	if c.ConstructionLaneReduction <= 0 {
		c.ConstructionLaneReduction = 1
	}
}

func (c *BehaviorConfig) fillDefaults() {
	if len(c.LaneDisciplineByVehicle) == 0 {
		c.LaneDisciplineByVehicle = map[types.VehicleType]float64{
			types.Car: 0.7, types.Bus: 0.5, types.AutoRickshaw: 0.3,
			types.Motorcycle: 0.2, types.Truck: 0.8, types.Bicycle: 0.1,
		}
	}
	if len(c.OvertakingAggressiveness) == 0 {
		c.OvertakingAggressiveness = map[types.VehicleType]float64{
			types.Car: 0.6, types.Bus: 0.4, types.AutoRickshaw: 0.8,
			types.Motorcycle: 0.9, types.Truck: 0.3, types.Bicycle: 0.2,
		}
	}
	if len(c.WeatherSpeedFactors) == 0 {
		c.WeatherSpeedFactors = map[types.WeatherType]float64{
			types.Clear: 1.0, types.LightRain: 0.8, types.HeavyRain: 0.5,
			types.Fog: 0.6, types.DustStorm: 0.4,
		}
	}
	if len(c.RoadQualitySpeedFactors) == 0 {
		c.RoadQualitySpeedFactors = map[types.RoadQuality]float64{
			types.QualityExcellent: 1.0, types.QualityGood: 0.9,
			types.QualityPoor: 0.7, types.QualityVeryPoor: 0.5,
		}
	}
	if len(c.FollowingDistanceFactors) == 0 {
		c.FollowingDistanceFactors = map[types.BehaviorProfile]float64{
			types.Conservative: 2.0, types.Normal: 1.5,
			types.Aggressive: 1.0, types.Erratic: 0.8,
		}
	}
}
