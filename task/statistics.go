package task

import (
	"time"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/emergency"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/mixed"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/weather"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
)

// Statistics 仿真统计快照
type Statistics struct {
	SimulationTime float64 `json:"simulation_time"` // 秒
	CurrentTime    string  `json:"current_time"`    // RFC3339
	CurrentHour    int     `json:"current_hour"`
	TimePeriod     string  `json:"time_period"`

	TotalVehicles           int                       `json:"total_vehicles"`
	ActiveVehicles          int                       `json:"active_vehicles"`
	CompletedVehicles       int                       `json:"completed_vehicles"`
	RemovedVehicles         int                       `json:"removed_vehicles"`
	SpawnFailures           int                       `json:"spawn_failures"`
	VehicleTypeDistribution map[types.VehicleType]int `json:"vehicle_type_distribution"`

	ActiveInteractions int `json:"active_interactions"`
	CongestionZones    int `json:"congestion_zones"`
	HornEvents         int `json:"horn_events"`

	WeatherDetails weather.Condition                     `json:"weather_details"`
	WeatherEffects map[types.VehicleType]weather.Effects `json:"weather_effects"`
	TimeEffects    weather.TimeEffects                   `json:"time_effects"`

	EmergencyStatistics       emergency.Statistics `json:"emergency_statistics"`
	ActiveEmergencies         []emergency.Summary  `json:"active_emergencies"`
	EmergencyAffectedVehicles int                  `json:"emergency_affected_vehicles"`
	VehiclesNeedingRerouting  int                  `json:"vehicles_needing_rerouting"`
	VehiclesRerouted          int                  `json:"vehicles_rerouted"`
	RerouteDenied             int                  `json:"reroute_denied"`

	ActiveObstacles         int `json:"active_obstacles"`
	ActiveConstructionZones int `json:"active_construction_zones"`

	Traffic mixed.Statistics   `json:"traffic"`
	Factory vehicle.Statistics `json:"factory"`
}

// GetSimulationStatistics 汇总当前仿真状态
// 说明：车辆类型分布统计全部已生成的车辆；天气影响按全部车辆类型给出
func (ctx *Context) GetSimulationStatistics() Statistics {
	emergencies := ctx.emergencyManager.ActiveEmergencies()
	traffic := ctx.mixedManager.Statistics()
	return Statistics{
		SimulationTime: ctx.clock.T,
		CurrentTime:    ctx.clock.Now().Format(time.RFC3339),
		CurrentHour:    ctx.hour,
		TimePeriod:     ctx.timeOfDay.TimePeriod(ctx.hour),

		TotalVehicles:           ctx.spawned,
		ActiveVehicles:          len(ctx.drivers),
		CompletedVehicles:       ctx.completed,
		RemovedVehicles:         ctx.removed,
		SpawnFailures:           ctx.spawnFailures,
		VehicleTypeDistribution: lo.Assign(ctx.typeCounts),

		ActiveInteractions: traffic.ActiveInteractions,
		CongestionZones:    traffic.CongestionZones,
		HornEvents:         ctx.hornEvents,

		WeatherDetails: *ctx.weatherManager.Current(),
		WeatherEffects: lo.SliceToMap(types.AllVehicleTypes, func(vt types.VehicleType) (types.VehicleType, weather.Effects) {
			return vt, ctx.weatherManager.GetCurrentWeatherEffects(vt)
		}),
		TimeEffects: ctx.timeOfDay.TimeEffectsSummary(ctx.hour),

		EmergencyStatistics: ctx.emergencyManager.Statistics(),
		ActiveEmergencies:   emergencies,
		EmergencyAffectedVehicles: lo.SumBy(emergencies, func(s emergency.Summary) int {
			return s.VehiclesAffected
		}),
		VehiclesNeedingRerouting: lo.CountBy(lo.Values(ctx.drivers), func(d *driver) bool {
			return d.v.NeedsRerouting
		}),
		VehiclesRerouted: ctx.rerouted,
		RerouteDenied:    ctx.rerouteDenied,

		ActiveObstacles:         len(ctx.roadMapper.ActiveObstacles()),
		ActiveConstructionZones: len(ctx.roadMapper.ActiveConstructionZones()),

		Traffic: traffic,
		Factory: ctx.factory.Statistics(),
	}
}
