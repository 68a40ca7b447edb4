package vehicle

import (
	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/randengine"
)

// BehaviorParameters 单车行为参数（创建时随机化）
type BehaviorParameters struct {
	LaneDisciplineFactor     float64 `json:"lane_discipline_factor"`    // 0~1
	OvertakingAggressiveness float64 `json:"overtaking_aggressiveness"` // 0~1
	FollowingDistanceFactor  float64 `json:"following_distance_factor"` // 安全跟车距离倍数
	SpeedCompliance          float64 `json:"speed_compliance"`          // 0~1
	HornUsageFrequency       float64 `json:"horn_usage_frequency"`      // 次/分钟
	TrafficLightCompliance   float64 `json:"traffic_light_compliance"`  // 0~1
	RightOfWayRespect        float64 `json:"right_of_way_respect"`      // 0~1
	RiskTolerance            float64 `json:"risk_tolerance"`            // 0~1，越大越冒险
}

// Vehicle 混合交通中的单个车辆
// 说明：由Factory创建；仿真主循环与混合交通管理器共享同一指针
type Vehicle struct {
	ID              string                // TYPE_000001
	Type            types.VehicleType     // 车辆类型
	BehaviorProfile types.BehaviorProfile // 驾驶风格

	Length       float64 // 米
	Width        float64 // 米
	Height       float64 // 米
	MaxSpeed     float64 // km/h
	Acceleration float64 // m/s²
	Deceleration float64 // m/s²

	Position    geometry.Point  // 当前位置
	Destination *geometry.Point // 目的地，可为空
	Route       []int64         // 路径节点序列
	Speed       float64         // 当前速度（km/h）
	Heading     float64         // 航向（度）

	Params BehaviorParameters

	IsOvertaking     bool
	NeedsRerouting   bool
	EmergencyBraking bool
	TimeSinceHorn    float64 // 距上次鸣笛的时间（秒）
}

// UpdatePosition 更新位置
func (v *Vehicle) UpdatePosition(p geometry.Point) {
	v.Position = p
}

// LaneDisciplineFactor 车道纪律因子
func (v *Vehicle) LaneDisciplineFactor() float64 {
	return v.Params.LaneDisciplineFactor
}

// SizeFactor 相对尺寸系数（自行车0.1至卡车1.0），用于冲突严重度计算
func (v *Vehicle) SizeFactor() float64 {
	if f, ok := sizeFactors[v.Type]; ok {
		return f
	}
	return 0.6
}

// CalculateSpeedAdjustment 路况与天气造成的速度折减系数
// 算法说明：
// 1. 路况系数与天气系数查表（未知取0.7/0.8）
// 2. 摩托车、三轮车受影响更大：路况×0.9，天气×0.8
// 3. 公交、卡车保持最低速度：路况不低于0.6，天气不低于0.7
func (v *Vehicle) CalculateSpeedAdjustment(q types.RoadQuality, w types.WeatherType) float64 {
	road, ok := roadSpeedFactors[q]
	if !ok {
		road = 0.7
	}
	weather, ok := weatherSpeedFactors[w]
	if !ok {
		weather = 0.8
	}
	switch {
	case v.Type.IsTwoWheelerOrAuto():
		road *= 0.9
		weather *= 0.8
	case v.Type.IsHeavy():
		road = max(road, 0.6)
		weather = max(weather, 0.7)
	}
	return road * weather
}

// ShouldUseHorn 本秒内是否鸣笛
// 说明：基础概率为每分钟鸣笛次数/60，随密度与超车倾向增大
func (v *Vehicle) ShouldUseHorn(density float64, rng *randengine.Engine) bool {
	p := v.Params.HornUsageFrequency / 60 * (1 + density) * (1 + v.Params.OvertakingAggressiveness)
	if v.Type.IsTwoWheelerOrAuto() {
		p *= 1.5
	}
	return rng.PTrue(p)
}

// CalculateFollowingDistance 跟车距离（米），基于两秒规则，最小2米
func (v *Vehicle) CalculateFollowingDistance(leadingSpeed float64) float64 {
	d := leadingSpeed * 2 / 3.6 * v.Params.FollowingDistanceFactor
	switch {
	case v.Type == types.Motorcycle:
		d *= 0.7
	case v.Type.IsHeavy():
		d *= 1.3
	}
	return max(d, 2)
}

var sizeFactors = map[types.VehicleType]float64{
	types.Pedestrian:   0.05,
	types.Bicycle:      0.1,
	types.Motorcycle:   0.2,
	types.AutoRickshaw: 0.4,
	types.Car:          0.6,
	types.Bus:          0.9,
	types.Truck:        1.0,
}

var roadSpeedFactors = map[types.RoadQuality]float64{
	types.QualityExcellent: 1.0,
	types.QualityGood:      0.9,
	types.QualityPoor:      0.7,
	types.QualityVeryPoor:  0.5,
}

var weatherSpeedFactors = map[types.WeatherType]float64{
	types.Clear:     1.0,
	types.LightRain: 0.8,
	types.HeavyRain: 0.5,
	types.Fog:       0.6,
	types.DustStorm: 0.4,
}
