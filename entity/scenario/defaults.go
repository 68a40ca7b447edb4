package scenario

import (
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/config"
)

func trafficConfig(mix map[types.VehicleType]float64, peak map[int]float64, weather map[types.WeatherType]float64, spawnRate float64, maxVehicles int) config.IndianTrafficConfig {
	c := config.IndianTrafficConfig{
		VehicleMixRatios:     mix,
		PeakHourMultipliers:  peak,
		WeatherProbabilities: weather,
		SpawnRate:            spawnRate,
		MaxVehicles:          maxVehicles,
	}
	c.FillDefaults()
	return c
}

// DefaultTemplates 内置模板：孟买路口、季风内涝、施工区、清晨
// 说明：每次调用返回新的副本
func DefaultTemplates() []*Template {
	return []*Template{
		mumbaiIntersection(),
		monsoonFlooding(),
		constructionZone(),
		earlyMorning(),
	}
}

func mumbaiIntersection() *Template {
	return &Template{
		ID:          "mumbai_intersection",
		Name:        "Mumbai Busy Intersection",
		Description: "Typical busy intersection in Mumbai with high density mixed traffic, frequent auto-rickshaws, and monsoon considerations",
		Category:    CategoryIntersection,
		TrafficConfig: trafficConfig(
			map[types.VehicleType]float64{
				types.Car:          0.30,
				types.Motorcycle:   0.35,
				types.AutoRickshaw: 0.20,
				types.Bus:          0.08,
				types.Truck:        0.05,
				types.Bicycle:      0.02,
			},
			map[int]float64{
				0: 0.8, 1: 0.5, 2: 0.3, 3: 0.3, 4: 0.5, 5: 1.0,
				6: 1.5, 7: 2.2, 8: 3.0, 9: 3.2, 10: 2.8, 11: 2.0,
				12: 1.8, 13: 1.9, 14: 1.8, 15: 2.0, 16: 2.5, 17: 3.0,
				18: 3.5, 19: 3.2, 20: 2.8, 21: 2.2, 22: 1.8, 23: 1.2,
			},
			map[types.WeatherType]float64{
				types.Clear:     0.4,
				types.LightRain: 0.3,
				types.HeavyRain: 0.2,
				types.Fog:       0.05,
				types.DustStorm: 0.05,
			},
			0.8, 1500,
		),
		SimulationDuration: 3600,
		TimeOfDay:          18,
		DayOfWeek:          1,
		WeatherType:        types.LightRain,
		WeatherIntensity:   0.6,
		NetworkBounds: map[string]float64{
			"north": 19.0760,
			"south": 19.0740,
			"east":  72.8777,
			"west":  72.8757,
		},
		CustomParameters: map[string]any{
			"intersection_type":      "signalized",
			"signal_cycle_time":      120.,
			"pedestrian_density":     "high",
			"street_vendor_presence": true,
			"parking_availability":   "limited",
		},
	}
}

func monsoonFlooding() *Template {
	return &Template{
		ID:          "monsoon_flooding",
		Name:        "Monsoon Flooding",
		Description: "Heavy monsoon flooding scenario with road closures, reduced traffic, and emergency rerouting",
		Category:    CategoryEmergency,
		TrafficConfig: trafficConfig(
			map[types.VehicleType]float64{
				types.Car:          0.25,
				types.Motorcycle:   0.20,
				types.AutoRickshaw: 0.15,
				types.Bus:          0.25,
				types.Truck:        0.10,
				types.Bicycle:      0.05,
			},
			nil, nil, 0.3, 500,
		),
		SimulationDuration: 7200,
		TimeOfDay:          11,
		DayOfWeek:          2,
		WeatherType:        types.HeavyRain,
		WeatherIntensity:   1.0,
		EmergencyScenarios: []EmergencyPreset{{
			ScenarioType:             "FLOODING",
			Severity:                 "CRITICAL",
			Location:                 &types.Position{X: 100, Y: 100},
			EstimatedDurationMinutes: 180,
			Parameters: map[string]any{
				"water_level":          0.8,
				"affected_area_radius": 500.,
				"road_closure":         true,
				"alternative_routes":   true,
			},
		}},
		CustomParameters: map[string]any{
			"drainage_capacity":           "poor",
			"water_logging_areas":         []any{"low_lying_roads", "underpasses"},
			"traffic_police_deployment":   true,
			"public_transport_disruption": true,
			"emergency_shelters":          true,
		},
	}
}

func constructionZone() *Template {
	return &Template{
		ID:                 "construction_zone",
		Name:               "Road Construction Zone",
		Description:        "Active road construction with lane restrictions, reduced speeds, and worker safety considerations",
		Category:           CategoryEmergency,
		TrafficConfig:      trafficConfig(nil, nil, nil, 0.5, 800),
		SimulationDuration: 3600,
		TimeOfDay:          10,
		DayOfWeek:          1,
		WeatherType:        types.Clear,
		WeatherIntensity:   1.0,
		EmergencyScenarios: []EmergencyPreset{{
			ScenarioType:             "CONSTRUCTION",
			Severity:                 "MEDIUM",
			Location:                 &types.Position{X: 200, Y: 50},
			EstimatedDurationMinutes: 480,
			Parameters: map[string]any{
				"lanes_blocked":      1.,
				"work_type":          "road_resurfacing",
				"equipment":          []any{"excavator", "roller", "asphalt_truck"},
				"worker_safety_zone": true,
			},
		}},
		CustomParameters: map[string]any{
			"speed_limit_reduction": 0.5,
			"flagman_present":       true,
			"construction_signs":    true,
			"dust_generation":       true,
			"noise_levels":          "high",
		},
	}
}

func earlyMorning() *Template {
	return &Template{
		ID:          "early_morning",
		Name:        "Early Morning Traffic",
		Description: "Low-density early morning traffic with delivery trucks, buses, and minimal private vehicles",
		Category:    CategoryPeakHour,
		TrafficConfig: trafficConfig(
			map[types.VehicleType]float64{
				types.Car:          0.20,
				types.Motorcycle:   0.15,
				types.AutoRickshaw: 0.05,
				types.Bus:          0.20,
				types.Truck:        0.35,
				types.Bicycle:      0.05,
			},
			nil, nil, 0.2, 300,
		),
		SimulationDuration: 3600,
		TimeOfDay:          5,
		DayOfWeek:          1,
		WeatherType:        types.Fog,
		WeatherIntensity:   0.8,
		CustomParameters: map[string]any{
			"visibility":         "poor",
			"delivery_activity":  "high",
			"street_cleaning":    true,
			"milk_vendors":       true,
			"newspaper_delivery": true,
		},
	}
}
