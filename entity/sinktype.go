package entity

import "github.com/tsinghua-fib-lab/mixedtraffic-sim/types"

// PositionUpdate 车辆位置推送，每到达一个路口推送一次
type PositionUpdate struct {
	T           float64           `json:"t" msgpack:"t"`     // 仿真时刻（秒）
	VID         int               `json:"vid" msgpack:"vid"` // 车辆进程序号
	VehicleID   string            `json:"vehicle_id" msgpack:"vehicle_id"`
	Position    types.Position    `json:"position" msgpack:"position"`
	Heading     float64           `json:"heading" msgpack:"heading"` // 度
	VehicleType types.VehicleType `json:"vehicle_type" msgpack:"-"`
}

// IVisualizationSink 可视化输出接口
// 说明：仿真核心无条件调用，是否渲染、记录或丢弃由具体实现决定
type IVisualizationSink interface {
	VehicleMoved(u PositionUpdate)
	VehicleRemoved(t float64, vid int, vehicleID string)
	Close() error
}
