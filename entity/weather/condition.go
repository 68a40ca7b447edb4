// 天气状态机与时段效应
package weather

import (
	"time"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
)

// Condition 天气状况
// 说明：派生字段在构造时一次算定，天气转换时整体替换而不修改
type Condition struct {
	Type        types.WeatherType `json:"condition_type"`
	Intensity   float64           `json:"intensity"`    // [0,1]
	Visibility  float64           `json:"visibility"`   // [0.05,1]，1为完全可见
	RoadWetness float64           `json:"road_wetness"` // [0,1]
	Temperature float64           `json:"temperature"`  // 摄氏度
	WindSpeed   float64           `json:"wind_speed"`   // km/h
	Duration    time.Duration     `json:"duration"`
	Start       time.Time         `json:"start_time"`
}

// NewCondition 构造天气状况并计算能见度与路面湿度
// 说明：温度与风速取各类型的典型中值，由管理器在生成新天气时随机覆盖
func NewCondition(typ types.WeatherType, intensity float64, duration time.Duration, start time.Time) *Condition {
	intensity = lo.Clamp(intensity, 0, 1)
	c := &Condition{
		Type:      typ,
		Intensity: intensity,
		Duration:  duration,
		Start:     start,
	}
	c.Visibility = lo.Clamp(lo.ValueOr(baseVisibility, typ, 1.0)*(1-intensity*0.5), 0.05, 1)
	switch typ {
	case types.LightRain:
		c.RoadWetness = min(1, 0.3+intensity*0.5)
	case types.HeavyRain:
		c.RoadWetness = min(1, 0.8+intensity*0.5)
	}
	t := lo.ValueOr(temperatureRanges, typ, span{25, 35})
	w := lo.ValueOr(windSpeedRanges, typ, span{5, 20})
	c.Temperature = (t[0] + t[1]) / 2
	c.WindSpeed = (w[0] + w[1]) / 2
	return c
}

// End 预计结束时刻
func (c *Condition) End() time.Time {
	return c.Start.Add(c.Duration)
}

// IsActive 是否处于[开始, 结束]时段内
func (c *Condition) IsActive(now time.Time) bool {
	return !now.Before(c.Start) && !now.After(c.End())
}

// SpeedImpactFactor 对指定车型的速度系数，范围[0.2,1]
func (c *Condition) SpeedImpactFactor(vt types.VehicleType) float64 {
	f := lo.ValueOr(baseSpeedFactors, c.Type, 1.0) * lo.ValueOr(vehicleSpeedAdjustments, vt, 1.0)
	return lo.Clamp(f*(1-c.Intensity*0.2), 0.2, 1)
}

// FollowingDistanceFactor 跟车距离倍数，不小于1
func (c *Condition) FollowingDistanceFactor(vt types.VehicleType) float64 {
	f := lo.ValueOr(baseFollowingFactors, c.Type, 1.0)
	if vt == types.Motorcycle || vt == types.Bicycle {
		f *= 1.2
	}
	return max(1, f*(1+c.Intensity*0.5))
}

// AccidentProbabilityMultiplier 事故概率倍数
func (c *Condition) AccidentProbabilityMultiplier() float64 {
	return lo.ValueOr(accidentMultipliers, c.Type, 1.0) * (1 + c.Intensity*0.5)
}

// Effects 天气对单一车型的综合影响
type Effects struct {
	SpeedFactor                   float64 `json:"speed_factor"`
	FollowingDistanceFactor       float64 `json:"following_distance_factor"`
	AccidentProbabilityMultiplier float64 `json:"accident_probability_multiplier"`
	Visibility                    float64 `json:"visibility"`
	RoadWetness                   float64 `json:"road_wetness"`
}

// Effects 计算对指定车型的综合影响
func (c *Condition) Effects(vt types.VehicleType) Effects {
	return Effects{
		SpeedFactor:                   c.SpeedImpactFactor(vt),
		FollowingDistanceFactor:       c.FollowingDistanceFactor(vt),
		AccidentProbabilityMultiplier: c.AccidentProbabilityMultiplier(),
		Visibility:                    c.Visibility,
		RoadWetness:                   c.RoadWetness,
	}
}
