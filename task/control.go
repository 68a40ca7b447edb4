package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/behavior"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/emergency"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/road"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/scenario"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/weather"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/roadgraph"
)

const (
	manualWeatherDuration = time.Hour
	dispatchSirenRange    = 100. // 米
)

var (
	ErrInvalidHour     = errors.New("hour must be within [0, 23]")
	ErrInvalidTemplate = errors.New("invalid scenario template")
)

// 手动控制接口，供命令行工具与测试在两次RunUntil之间调用

// CreateEmergencyScenario 手动创建突发事件
// 返回：场景ID
func (ctx *Context) CreateEmergencyScenario(typ types.EmergencyType, opts emergency.Options) string {
	s := ctx.emergencyManager.CreateEmergencyScenario(typ, opts, ctx.clock.Now())
	log.Debugf("emergency %s created manually", s.ID)
	return s.ID
}

// ResolveEmergencyScenario 手动解除突发事件，ID不存在时返回false
func (ctx *Context) ResolveEmergencyScenario(id string) bool {
	ok := ctx.emergencyManager.ResolveEmergencyScenario(id)
	if ok {
		log.Debugf("emergency %s resolved manually", id)
	}
	return ok
}

// GetActiveEmergencies 活动突发事件列表
func (ctx *Context) GetActiveEmergencies() []emergency.Summary {
	return ctx.emergencyManager.ActiveEmergencies()
}

// UpdateWeatherConditions 手动设置天气并刷新路况，持续1小时
func (ctx *Context) UpdateWeatherConditions(typ types.WeatherType, intensity float64) {
	ctx.setWeather(typ, intensity, manualWeatherDuration)
}

func (ctx *Context) setWeather(typ types.WeatherType, intensity float64, duration time.Duration) {
	w := ctx.weatherManager.SetWeather(typ, intensity, duration, ctx.clock.Now())
	ctx.refreshWeather()
	log.Infof("weather set to %v (intensity %.2f) for %s", w.Type, w.Intensity, duration)
}

// UpdateTimeOfDay 设置当前小时并刷新路况
func (ctx *Context) UpdateTimeOfDay(hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: got %d", ErrInvalidHour, hour)
	}
	ctx.hour = hour
	ctx.roadMapper.UpdateTimeEffects(hour, ctx.clock.Now())
	log.Infof("hour set to %d (%s)", hour, ctx.timeOfDay.TimePeriod(hour))
	return nil
}

// AddTemporaryObstacle 在边上手动放置临时障碍，占用一半车道
func (ctx *Context) AddTemporaryObstacle(e roadgraph.EdgeID, typ road.ObstacleType, severity types.SeverityLevel, duration time.Duration) (string, error) {
	return ctx.roadMapper.AddTemporaryObstacle(e, typ, obstacleBlockRatio, severity, duration, ctx.clock.Now())
}

// RemoveTemporaryObstacle 手动移除临时障碍
func (ctx *Context) RemoveTemporaryObstacle(id string) bool {
	return ctx.roadMapper.RemoveTemporaryObstacle(id)
}

// RemoveVehicle 立即移除在途车辆
// 说明：车辆已登记的到达事件仍会触发，但不再产生任何效果
func (ctx *Context) RemoveVehicle(vid int) bool {
	d, ok := ctx.drivers[vid]
	if !ok {
		return false
	}
	d.removed = true
	ctx.removed++
	ctx.detach(d)
	log.Infof("vehicle %d (%s) removed", vid, d.v.ID)
	return true
}

// DispatchEmergencyVehicle 将在途车辆登记为应急车辆，周围车辆随后避让
func (ctx *Context) DispatchEmergencyVehicle(vid int, typ types.EmergencyType) bool {
	d, ok := ctx.drivers[vid]
	if !ok {
		return false
	}
	ctx.mixedManager.RegisterEmergencyVehicle(d.v, typ, dispatchSirenRange)
	log.Infof("vehicle %d (%s) dispatched as %v", vid, d.v.ID, typ)
	return true
}

// Route 车辆当前剩余路线（含所在节点）
func (ctx *Context) Route(vid int) ([]int64, bool) {
	d, ok := ctx.drivers[vid]
	if !ok {
		return nil, false
	}
	return d.route[d.pos:], true
}

// Vehicle 在途车辆的快照
type Vehicle struct {
	VID            int                `json:"vid"`
	ID             string             `json:"vehicle_id"`
	Type           types.VehicleType  `json:"vehicle_type"`
	Position       types.Position     `json:"position"`
	Speed          float64            `json:"speed"`
	Node           int64              `json:"node"`
	Destination    int64              `json:"destination"`
	NeedsRerouting bool               `json:"needs_rerouting"`
	RerouteDenied  int                `json:"reroute_denied"`
	Traversed      []roadgraph.EdgeID `json:"-"`
}

// GetVehicle 在途车辆快照，车辆已结束或不存在时返回false
func (ctx *Context) GetVehicle(vid int) (Vehicle, bool) {
	d, ok := ctx.drivers[vid]
	if !ok {
		return Vehicle{}, false
	}
	return d.snapshot(), true
}

func (d *driver) snapshot() Vehicle {
	return Vehicle{
		VID:            d.vid,
		ID:             d.v.ID,
		Type:           d.v.Type,
		Position:       types.NewPosition(d.v.Position),
		Speed:          d.v.Speed,
		Node:           d.node(),
		Destination:    d.end,
		NeedsRerouting: d.v.NeedsRerouting,
		RerouteDenied:  d.denied,
		Traversed:      append([]roadgraph.EdgeID(nil), d.traversed...),
	}
}

// ApplyTemplate 应用场景模板
// 功能：以模板的交通参数、天气、时段与预置突发事件覆盖当前状态
// 参数：t-已校验的模板
// 返回：模板未通过校验或预置突发事件无法解析时返回error，此时状态不变
// 算法说明：
// 1. 交通参数整体替换并补齐默认值，行为模型与时段效应按新参数重建，车辆工厂通过指针读取新参数
// 2. 天气持续整个模板时长，随后刷新路况；时段按模板设置
// 3. 预置突发事件逐个创建，缺省字段由突发事件管理器随机补齐
// 4. 仿真时长、最大车辆数与生成率仍由control配置决定
func (ctx *Context) ApplyTemplate(t *scenario.Template) error {
	if errs := scenario.NewValidator().Validate(t); len(errs) > 0 {
		return fmt.Errorf("%w %s: %s", ErrInvalidTemplate, t.ID, strings.Join(errs, "; "))
	}
	presets, err := parsePresets(t.EmergencyScenarios)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidTemplate, t.ID, err)
	}
	c, err := t.Clone()
	if err != nil {
		return err
	}

	rc := ctx.runtimeConfig
	rc.Traffic = c.TrafficConfig
	rc.Traffic.FillDefaults()
	ctx.behavior = behavior.New(rc.Traffic.BehaviorConfig, ctx.rng)
	ctx.timeOfDay = weather.NewTimeOfDay(rc.Traffic.PeakHourMultipliers)

	ctx.setWeather(t.WeatherType, t.WeatherIntensity, time.Duration(t.SimulationDuration*float64(time.Second)))
	if err := ctx.UpdateTimeOfDay(t.TimeOfDay); err != nil {
		return err
	}
	for _, p := range presets {
		ctx.CreateEmergencyScenario(p.typ, p.opts)
	}
	log.Infof("template %s (%s) applied with %d emergencies", t.ID, t.Name, len(presets))
	return nil
}

type preset struct {
	typ  types.EmergencyType
	opts emergency.Options
}

func parsePresets(ps []scenario.EmergencyPreset) ([]preset, error) {
	res := make([]preset, 0, len(ps))
	for i, p := range ps {
		typ, err := types.ParseEmergencyType(p.ScenarioType)
		if err != nil {
			return nil, fmt.Errorf("emergency %d: %w", i, err)
		}
		var opts emergency.Options
		if p.Severity != "" {
			s, err := types.ParseSeverityLevel(p.Severity)
			if err != nil {
				return nil, fmt.Errorf("emergency %d: %w", i, err)
			}
			opts.Severity = &s
		}
		if p.Location != nil {
			loc := p.Location.Point()
			opts.Location = &loc
		}
		if p.EstimatedDurationMinutes > 0 {
			d := time.Duration(p.EstimatedDurationMinutes * float64(time.Minute))
			opts.Duration = &d
		}
		res = append(res, preset{typ: typ, opts: opts})
	}
	return res, nil
}
