package weather

import "github.com/samber/lo"

// 时段名称
const (
	PeriodEarlyMorning = "early_morning"
	PeriodMorningRush  = "morning_rush"
	PeriodMidday       = "midday"
	PeriodEveningRush  = "evening_rush"
	PeriodNight        = "night"
)

// TimeOfDay 时段效应表
// 功能：按小时给出交通密度、速度与激进程度倍数
type TimeOfDay struct {
	density map[int]float64
}

// NewTimeOfDay 创建时段效应表
// 参数：density-各小时交通密度倍数，为空时使用内置表
func NewTimeOfDay(density map[int]float64) *TimeOfDay {
	if len(density) == 0 {
		density = defaultDensityMultipliers
	}
	return &TimeOfDay{density: density}
}

func normHour(h int) int {
	return ((h % 24) + 24) % 24
}

// TrafficDensityMultiplier 交通密度倍数
func (t *TimeOfDay) TrafficDensityMultiplier(hour int) float64 {
	return lo.ValueOr(t.density, normHour(hour), 1.0)
}

// SpeedAdjustment 速度调整系数
func (t *TimeOfDay) SpeedAdjustment(hour int) float64 {
	return lo.ValueOr(speedAdjustments, normHour(hour), 1.0)
}

// AggressivenessMultiplier 驾驶激进程度倍数
func (t *TimeOfDay) AggressivenessMultiplier(hour int) float64 {
	return lo.ValueOr(aggressivenessMultipliers, normHour(hour), 1.0)
}

// IsPeakHour 密度倍数不低于1.5即为高峰
func (t *TimeOfDay) IsPeakHour(hour int) bool {
	return t.TrafficDensityMultiplier(hour) >= 1.5
}

// SpawnRateAdjustment 按时段调整的生成率
func (t *TimeOfDay) SpawnRateAdjustment(base float64, hour int) float64 {
	return base * t.TrafficDensityMultiplier(hour)
}

// TimePeriod 时段名称
func (t *TimeOfDay) TimePeriod(hour int) string {
	switch h := normHour(hour); {
	case h <= 4:
		return PeriodEarlyMorning
	case h <= 10:
		return PeriodMorningRush
	case h <= 16:
		return PeriodMidday
	case h <= 21:
		return PeriodEveningRush
	default:
		return PeriodNight
	}
}

// TimeEffects 单个小时的时段效应汇总
type TimeEffects struct {
	Hour                     int     `json:"hour"`
	IsPeakHour               bool    `json:"is_peak_hour"`
	TrafficDensityMultiplier float64 `json:"traffic_density_multiplier"`
	SpeedAdjustment          float64 `json:"speed_adjustment"`
	AggressivenessMultiplier float64 `json:"aggressiveness_multiplier"`
	Period                   string  `json:"period"`
}

// TimeEffectsSummary 汇总指定小时的时段效应
func (t *TimeOfDay) TimeEffectsSummary(hour int) TimeEffects {
	return TimeEffects{
		Hour:                     normHour(hour),
		IsPeakHour:               t.IsPeakHour(hour),
		TrafficDensityMultiplier: t.TrafficDensityMultiplier(hour),
		SpeedAdjustment:          t.SpeedAdjustment(hour),
		AggressivenessMultiplier: t.AggressivenessMultiplier(hour),
		Period:                   t.TimePeriod(hour),
	}
}
