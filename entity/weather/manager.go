package weather

import (
	"time"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/randengine"
)

// Manager 天气管理器
// 功能：维护当前天气，按季节分布与转移概率生成下一段天气
// 说明：半马尔可夫过程，每段天气持续随机时长，过期后才在下次更新时转换
type Manager struct {
	rng     *randengine.Engine
	current *Condition
}

// NewManager 创建天气管理器，初始天气为持续60分钟的晴天
func NewManager(rng *randengine.Engine, start time.Time) *Manager {
	return &Manager{
		rng:     rng,
		current: NewCondition(types.Clear, 0, 60*time.Minute, start),
	}
}

// Current 当前天气
func (m *Manager) Current() *Condition {
	return m.current
}

// UpdateWeather 更新天气
// 功能：当前天气仍有效且未强制时原样返回同一对象；否则抽取新天气
// 参数：now-当前仿真时刻，force-是否强制转换
// 算法说明：
// 1. 非强制：权重 = 0.6·季节分布(月份) + 0.4·转移概率(当前类型)
// 2. 强制：仅使用季节分布
// 3. 按固定枚举顺序加权抽样，再按类型抽取强度与持续时间
func (m *Manager) UpdateWeather(now time.Time, force bool) *Condition {
	if !force && m.current.IsActive(now) {
		return m.current
	}
	seasonal := lo.ValueOr(seasonalPatterns, int(now.Month()), weights{types.Clear: 1})
	w := lo.Map(types.AllWeatherTypes, func(t types.WeatherType, _ int) float64 {
		if force {
			return seasonal[t]
		}
		return seasonal[t]*0.6 + transitionProbabilities[m.current.Type][t]*0.4
	})
	next := randengine.Choice(m.rng, types.AllWeatherTypes, w)
	prev := m.current.Type
	m.current = m.generate(next, now)
	log.Infof("weather %v -> %v (intensity %.2f, %v)", prev, next, m.current.Intensity, m.current.Duration)
	return m.current
}

func (m *Manager) generate(typ types.WeatherType, start time.Time) *Condition {
	d := lo.ValueOr(durationRanges, typ, [2]int{60, 180})
	minutes := d[0] + m.rng.Intn(d[1]-d[0]+1)
	i := lo.ValueOr(intensityRanges, typ, span{0, 0.5})
	c := NewCondition(typ, m.rng.Uniform(i[0], i[1]), time.Duration(minutes)*time.Minute, start)
	t := lo.ValueOr(temperatureRanges, typ, span{25, 35})
	ws := lo.ValueOr(windSpeedRanges, typ, span{5, 20})
	c.Temperature = m.rng.Uniform(t[0], t[1])
	c.WindSpeed = m.rng.Uniform(ws[0], ws[1])
	return c
}

// SetWeather 手动设定天气，立即替换当前天气
func (m *Manager) SetWeather(typ types.WeatherType, intensity float64, duration time.Duration, now time.Time) *Condition {
	m.current = NewCondition(typ, intensity, duration, now)
	log.Infof("weather set to %v (intensity %.2f)", typ, m.current.Intensity)
	return m.current
}

// GetCurrentWeatherEffects 当前天气对指定车型的影响
func (m *Manager) GetCurrentWeatherEffects(vt types.VehicleType) Effects {
	return m.current.Effects(vt)
}

// GetWeatherEffects 指定天气对车型的影响
// 参数：override-为nil时使用当前天气，否则按该类型零强度的基准状况计算
func (m *Manager) GetWeatherEffects(vt types.VehicleType, override *types.WeatherType) Effects {
	if override == nil {
		return m.current.Effects(vt)
	}
	return NewCondition(*override, 0, 0, m.current.Start).Effects(vt)
}
