package task

import (
	"flag"
	"time"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/road"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/randengine"
)

var (
	heartBeatInterval = flag.Float64("log.heartbeat_interval", 60, "心跳日志间隔（仿真秒），非正数关闭")
)

const (
	obstacleBlockRatio = 0.5
	minObstacleMinutes = 10
	maxObstacleMinutes = 30
)

// 各天气下每次注入临时障碍的概率
var obstacleProbability = map[types.WeatherType]float64{
	types.Clear:     0.1,
	types.LightRain: 0.15,
	types.HeavyRain: 0.3,
	types.Fog:       0.2,
	types.DustStorm: 0.25,
}

var (
	obstacleSeverities      = []types.SeverityLevel{types.SeverityLow, types.SeverityMedium, types.SeverityHigh}
	obstacleSeverityWeights = []float64{0.6, 0.3, 0.1}
)

// registerProcesses 登记周期性进程
// 算法说明：
// 1. 心跳日志始终登记
// 2. 启用混合交通特性时登记天气、时段、突发事件、临时障碍与动力学扫描五个进程
// 3. 各进程在仿真时长内持续运行，间隔由control.intervals配置
func (ctx *Context) registerProcesses() {
	if *heartBeatInterval > 0 {
		ctx.every(*heartBeatInterval, ctx.heartbeat)
	}
	if !ctx.indian() {
		return
	}
	in := ctx.runtimeConfig.C.Intervals
	ctx.every(in.Weather, ctx.weatherProcess)
	ctx.every(in.TimeOfDay, ctx.timeOfDayProcess)
	ctx.every(in.Emergency, ctx.emergencyProcess)
	ctx.every(in.Obstacle, ctx.obstacleProcess)
	ctx.every(in.Dynamics, func() { ctx.dynamicsProcess(in.Dynamics) })
}

// every 登记在仿真时长内持续运行的周期进程
func (ctx *Context) every(interval float64, fn func()) {
	ctx.sched.Every(interval, func() bool {
		fn()
		return ctx.clock.T < ctx.runtimeConfig.C.SimSeconds
	})
}

func (ctx *Context) heartbeat() {
	log.Infof(
		"T=%s (%02d:00): %d active vehicles, %d completed, %d pending events",
		ctx.clock, ctx.hour, len(ctx.drivers), ctx.completed, ctx.sched.Len(),
	)
}

// refreshWeather 按当前天气刷新路况
func (ctx *Context) refreshWeather() {
	w := ctx.weatherManager.Current()
	ctx.roadMapper.UpdateWeatherConditions(w.Type, w.Intensity, ctx.clock.Now())
}

func (ctx *Context) weatherProcess() {
	before := ctx.weatherManager.Current()
	after := ctx.weatherManager.UpdateWeather(ctx.clock.Now(), false)
	if after != before {
		log.Infof("weather changed to %v (intensity %.2f)", after.Type, after.Intensity)
		ctx.refreshWeather()
	}
}

func (ctx *Context) timeOfDayProcess() {
	ctx.hour = (ctx.hour + 1) % 24
	ctx.roadMapper.UpdateTimeEffects(ctx.hour, ctx.clock.Now())
	log.Debugf("hour advanced to %d (%s)", ctx.hour, ctx.timeOfDay.TimePeriod(ctx.hour))
}

// positions 在途车辆位置，以车辆ID为键
func (ctx *Context) positions() map[string]geometry.Point {
	ctx.active.Prepare()
	res := make(map[string]geometry.Point, ctx.active.Len())
	for _, d := range ctx.active.Data() {
		res[d.v.ID] = d.v.Position
	}
	return res
}

// emergencyProcess 突发事件进程
// 算法说明：先过期旧场景，再按天气尝试生成新场景，最后统计拥堵范围内的车辆
func (ctx *Context) emergencyProcess() {
	now := ctx.clock.Now()
	ctx.emergencyManager.UpdateEmergencies(now)
	ctx.emergencyManager.CreateRandomEmergency(ctx.weatherManager.Current().Type, now)
	ctx.emergencyManager.GetAffectedVehicles(ctx.positions())
}

// obstacleProcess 临时障碍进程
// 算法说明：
// 1. 清理过期障碍与已完工的施工区
// 2. 按天气相关概率在随机边上注入障碍：暴雨为积水，其余为散落物
// 3. 严重度按LOW/MEDIUM/HIGH = 0.6/0.3/0.1抽取，持续10~30分钟
func (ctx *Context) obstacleProcess() {
	now := ctx.clock.Now()
	if ids := ctx.roadMapper.CleanupExpiredObstacles(now); len(ids) > 0 {
		log.Debugf("%d obstacles cleared", len(ids))
	}
	if ids := ctx.roadMapper.CleanupCompletedConstruction(now); len(ids) > 0 {
		log.Infof("%d construction zones completed", len(ids))
	}
	w := ctx.weatherManager.Current().Type
	edges := ctx.graph.Edges()
	if len(edges) == 0 || !ctx.rng.PTrue(obstacleProbability[w]) {
		return
	}
	e := edges[ctx.rng.Intn(len(edges))]
	typ := road.ObstacleDebris
	if w == types.HeavyRain {
		typ = road.ObstacleFlooding
	}
	severity := randengine.Choice(ctx.rng, obstacleSeverities, obstacleSeverityWeights)
	minutes := minObstacleMinutes + ctx.rng.Intn(maxObstacleMinutes-minObstacleMinutes+1)
	id, err := ctx.roadMapper.AddTemporaryObstacle(e, typ, obstacleBlockRatio, severity, time.Duration(minutes)*time.Minute, now)
	if err != nil {
		log.Warnf("add obstacle on %v: %v", e, err)
		return
	}
	log.Debugf("obstacle %s (%s, %v) on %v for %d min", id, typ, severity, e, minutes)
}

// dynamicsProcess 混合交通动力学扫描
// 功能：更新交互、优先通行与拥堵区域，并把各车速度系数留给下一次通行时间计算
func (ctx *Context) dynamicsProcess(dt float64) {
	ctx.active.Prepare()
	res := ctx.mixedManager.SimulateMixedVehicleDynamics(dt, ctx.clock.Now())
	ctx.lastDynamics = &res
	ctx.hornEvents += len(res.HornEvents)
	ctx.sweepSpeed = make(map[string]float64, len(res.VehicleBehaviors))
	for id, b := range res.VehicleBehaviors {
		f := 1.0
		if b.Priority != nil {
			f *= b.Priority.SpeedAdjustment
		}
		if b.Congestion != nil {
			f *= 1 - b.Congestion.SpeedReduction
		}
		ctx.sweepSpeed[id] = f
	}
	log.Debugf(
		"dynamics: %d vehicles, %d interactions, %d congestion zones, %d horn events",
		ctx.active.Len(), len(res.Interactions), len(res.CongestionZones), len(res.HornEvents),
	)
}
