package entity

import (
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/clock"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/config"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/roadgraph"
)

// ITaskContext 仿真任务上下文的只读视图
// 说明：供外部消费者（可视化、统计、测试）查询各管理器，不暴露车辆进程本身
type ITaskContext interface {
	Clock() *clock.Clock
	RuntimeConfig() *config.RuntimeConfig
	Graph() *roadgraph.Graph
	Sink() IVisualizationSink

	WeatherManager() IWeatherManager
	TimeOfDayManager() ITimeOfDayManager
	EmergencyManager() IEmergencyManager
	RoadConditionMapper() IRoadConditionMapper
	MixedTrafficManager() IMixedTrafficManager
	VehicleFactory() IVehicleFactory
}
