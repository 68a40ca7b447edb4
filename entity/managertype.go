package entity

import (
	"time"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/emergency"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/mixed"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/road"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/weather"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/roadgraph"
)

// Manager依赖倒置

// entity/vehicle/factory.go的依赖倒置
type IVehicleFactory interface {
	// 按构成比例随机创建车辆
	CreateRandomVehicle(pos geometry.Point, dest *geometry.Point) (*vehicle.Vehicle, error)
	// 工厂统计
	Statistics() vehicle.Statistics
}

// entity/weather/manager.go的依赖倒置
type IWeatherManager interface {
	Current() *weather.Condition // 当前天气

	// 周期性更新，当前天气有效且未强制时返回同一对象
	UpdateWeather(now time.Time, force bool) *weather.Condition
	// 手动设置天气
	SetWeather(typ types.WeatherType, intensity float64, duration time.Duration, now time.Time) *weather.Condition

	GetCurrentWeatherEffects(vt types.VehicleType) weather.Effects
	GetWeatherEffects(vt types.VehicleType, override *types.WeatherType) weather.Effects
}

// entity/weather/timeofday.go的依赖倒置
type ITimeOfDayManager interface {
	TrafficDensityMultiplier(hour int) float64
	SpeedAdjustment(hour int) float64
	AggressivenessMultiplier(hour int) float64
	IsPeakHour(hour int) bool
	TimePeriod(hour int) string
	TimeEffectsSummary(hour int) weather.TimeEffects
}

// entity/emergency/manager.go的依赖倒置
type IEmergencyManager interface {
	CreateEmergencyScenario(typ types.EmergencyType, opts emergency.Options, now time.Time) *emergency.Scenario
	CreateRandomEmergency(w types.WeatherType, now time.Time) *emergency.Scenario
	// 过期场景移入历史，返回过期的场景ID
	UpdateEmergencies(now time.Time) []string
	// 手动解除，ID不存在时返回false
	ResolveEmergencyScenario(id string) bool

	IsBlocked(e roadgraph.EdgeID) bool
	BlockedEdges() []roadgraph.EdgeID
	// 为车辆选择避开封闭边的路线，没有可用路线时返回false
	RerouteVehicle(vehicleID string, from, to int64) ([]int64, bool)
	GetEmergencyImpactOnEdge(e roadgraph.EdgeID) emergency.EdgeImpact
	GetAffectedVehicles(positions map[string]geometry.Point) map[string][]string

	ActiveEmergencies() []emergency.Summary
	Statistics() emergency.Statistics
}

// entity/road/mapper.go的依赖倒置
type IRoadConditionMapper interface {
	InitializeRoadStates(now time.Time) // 初始化

	UpdateWeatherConditions(w types.WeatherType, intensity float64, now time.Time)
	UpdateTimeEffects(hour int, now time.Time)

	AddTemporaryObstacle(
		e roadgraph.EdgeID, typ road.ObstacleType, ratio float64,
		severity types.SeverityLevel, duration time.Duration, now time.Time,
	) (string, error)
	RemoveTemporaryObstacle(id string) bool
	CleanupExpiredObstacles(now time.Time) []string
	CleanupCompletedConstruction(now time.Time) []int

	GetEffectiveRoadQuality(e roadgraph.EdgeID) (types.RoadQuality, bool)
	GetSpeedAdjustmentFactor(e roadgraph.EdgeID) float64
	ActiveObstacles() []*road.Obstacle
	ActiveConstructionZones() []*road.ConstructionZone
}

// entity/mixed/manager.go的依赖倒置
type IMixedTrafficManager interface {
	Register(v *vehicle.Vehicle)
	Unregister(id string) bool
	RegisterEmergencyVehicle(v *vehicle.Vehicle, typ types.EmergencyType, sirenRange float64)
	UpdateVehiclePosition(id string, pos geometry.Point, heading float64) bool

	// 一次完整的混合交通动力学扫描
	SimulateMixedVehicleDynamics(dt float64, now time.Time) mixed.DynamicsResult
	CongestionZones() []mixed.CongestionZone
	Statistics() mixed.Statistics
}
