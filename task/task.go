package task

import (
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/clock"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/behavior"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/emergency"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/mixed"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/road"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/weather"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/config"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/container"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/randengine"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/roadgraph"
)

var (
	_ entity.ITaskContext         = (*Context)(nil)
	_ entity.IWeatherManager      = (*weather.Manager)(nil)
	_ entity.ITimeOfDayManager    = (*weather.TimeOfDay)(nil)
	_ entity.IEmergencyManager    = (*emergency.Manager)(nil)
	_ entity.IRoadConditionMapper = (*road.Mapper)(nil)
	_ entity.IMixedTrafficManager = (*mixed.Manager)(nil)
	_ entity.IVehicleFactory      = (*vehicle.Factory)(nil)
)

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有变量和状态：时钟与调度器、路网、各管理器、车辆进程与统计计数
// 说明：全部状态只在调度器的单线程事件循环中读写，不需要加锁
type Context struct {
	// 时钟
	clock *clock.Clock
	// 离散事件调度器
	sched *clock.Scheduler
	// 运行时配置
	runtimeConfig *config.RuntimeConfig
	// 路网（外部注入，只读）
	graph *roadgraph.Graph
	// 随机数引擎
	rng *randengine.Engine
	// 可视化输出
	sink entity.IVisualizationSink

	// 驾驶行为模型
	behavior *behavior.Model
	// 车辆工厂
	factory entity.IVehicleFactory
	// 天气管理器
	weatherManager entity.IWeatherManager
	// 时段效应
	timeOfDay entity.ITimeOfDayManager
	// 突发事件管理器
	emergencyManager entity.IEmergencyManager
	// 路况映射器
	roadMapper entity.IRoadConditionMapper
	// 混合交通管理器
	mixedManager entity.IMixedTrafficManager

	// 当前仿真小时（0~23）
	hour int

	// 车辆进程，以vid为键
	drivers map[int]*driver
	// 行驶中的车辆进程，在动力学扫描与突发事件更新前生效
	active *container.IncrementalArray[*driver]
	// 各边上正在行驶的车辆数
	edgeLoad map[roadgraph.EdgeID]int
	// 最近一次动力学扫描给出的车辆速度系数
	sweepSpeed map[string]float64
	// 最近一次动力学扫描结果
	lastDynamics *mixed.DynamicsResult

	started bool
	counters
}

// counters 仿真过程计数
type counters struct {
	spawnAttempts int
	spawnFailures int
	spawned       int
	completed     int
	removed       int
	rerouted      int
	rerouteDenied int
	hornEvents    int
	typeCounts    map[types.VehicleType]int
}

// NewContext 创建新的仿真任务上下文
// 功能：创建时钟、调度器与各管理器，并完成路况初始化
// 参数：
//   - g: 路网
//   - rc: 运行时配置（已填充默认值）
//   - sink: 可视化输出，为空时使用NullSink
//
// 返回：初始化完成的Context实例
// 算法说明：
// 1. 所有随机决策共享以rc.C.Seed为种子的引擎，道路分析按边派生独立引擎
// 2. 路况按初始天气与时段完成一次刷新
// 3. 车辆生成与周期性进程在Run时才登记
func NewContext(g *roadgraph.Graph, rc *config.RuntimeConfig, sink entity.IVisualizationSink) *Context {
	if sink == nil {
		sink = NullSink{}
	}
	ctx := &Context{
		clock:         clock.New(rc.Start),
		runtimeConfig: rc,
		graph:         g,
		rng:           randengine.New(rc.C.Seed),
		sink:          sink,
		hour:          rc.Start.Hour(),
		drivers:       make(map[int]*driver),
		active:        container.NewIncrementalArray[*driver](),
		edgeLoad:      make(map[roadgraph.EdgeID]int),
		sweepSpeed:    make(map[string]float64),
		counters:      counters{typeCounts: make(map[types.VehicleType]int)},
	}
	ctx.sched = clock.NewScheduler(ctx.clock)
	now := ctx.clock.Now()

	ctx.behavior = behavior.New(rc.Traffic.BehaviorConfig, ctx.rng)
	ctx.factory = vehicle.NewFactory(&rc.Traffic, ctx.rng)
	ctx.weatherManager = weather.NewManager(ctx.rng, now)
	ctx.timeOfDay = weather.NewTimeOfDay(rc.Traffic.PeakHourMultipliers)
	ctx.emergencyManager = emergency.NewManager(g, ctx.rng)
	ctx.roadMapper = road.NewMapper(road.NewAnalyzer(rc.Traffic.RoadConditionConfig, rc.C.Seed, now), g, ctx.rng)
	ctx.mixedManager = mixed.NewManager(ctx.rng)

	log.Infof("road network: %d nodes, %d edges", g.NumNodes(), g.NumEdges())
	ctx.roadMapper.InitializeRoadStates(now)
	w := ctx.weatherManager.Current()
	ctx.roadMapper.UpdateWeatherConditions(w.Type, w.Intensity, now)
	ctx.roadMapper.UpdateTimeEffects(ctx.hour, now)
	return ctx
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) Graph() *roadgraph.Graph {
	return ctx.graph
}

func (ctx *Context) Sink() entity.IVisualizationSink {
	return ctx.sink
}

func (ctx *Context) WeatherManager() entity.IWeatherManager {
	return ctx.weatherManager
}

func (ctx *Context) TimeOfDayManager() entity.ITimeOfDayManager {
	return ctx.timeOfDay
}

func (ctx *Context) EmergencyManager() entity.IEmergencyManager {
	return ctx.emergencyManager
}

func (ctx *Context) RoadConditionMapper() entity.IRoadConditionMapper {
	return ctx.roadMapper
}

func (ctx *Context) MixedTrafficManager() entity.IMixedTrafficManager {
	return ctx.mixedManager
}

func (ctx *Context) VehicleFactory() entity.IVehicleFactory {
	return ctx.factory
}

// Hour 当前仿真小时
func (ctx *Context) Hour() int {
	return ctx.hour
}

func (ctx *Context) indian() bool {
	return ctx.runtimeConfig.C.UseIndianFeatures
}

// start 登记车辆生成与周期性进程，只执行一次
func (ctx *Context) start() {
	if ctx.started {
		return
	}
	ctx.started = true
	ctx.sched.Schedule(0, ctx.vehicleSource)
	ctx.registerProcesses()
	log.Infof("simulation started at %s (indian features: %v)", ctx.clock.Now().Format("2006-01-02 15:04:05"), ctx.indian())
}

// RunUntil 运行到仿真时刻t（秒）
// 说明：首次调用时登记车辆生成与周期性进程，可多次调用分段推进
func (ctx *Context) RunUntil(t float64) {
	ctx.start()
	ctx.sched.RunUntil(t)
}

// Run 运行到配置的仿真时长
func (ctx *Context) Run() {
	ctx.RunUntil(ctx.runtimeConfig.C.SimSeconds)
	s := ctx.GetSimulationStatistics()
	log.Infof(
		"engine complete at T=%.1fs: %d vehicles spawned, %d completed, %d rerouted, %d spawn failures",
		ctx.clock.T, s.TotalVehicles, s.CompletedVehicles, s.VehiclesRerouted, s.SpawnFailures,
	)
}

// Close 关闭可视化输出
func (ctx *Context) Close() error {
	return ctx.sink.Close()
}
