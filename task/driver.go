package task

import (
	"fmt"
	"math"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/behavior"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/container"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/roadgraph"
)

const (
	farNodeTries       = 200  // 起终点拒绝采样的每轮次数
	minEdgeTravelTime  = 0.05 // 调整后单边通行时间下限（秒）
	rerouteAccessLimit = 0.3  // 前方边通行能力低于该值时需要绕行
	vehiclesPerLaneM   = 50.  // 每条车道每50米容纳一辆车，用于估计边上密度
)

// driver 单个车辆的驾驶进程
// 说明：route为当前路线，pos为车辆所在节点在route中的下标；绕行时route整体替换、pos归零
type driver struct {
	container.IncrementalItemBase

	vid        int
	v          *vehicle.Vehicle
	start, end int64
	route      []int64
	pos        int
	traversed  []roadgraph.EdgeID
	denied     int // 绕行被拒绝的次数
	removed    bool
	finished   bool
}

func (d *driver) node() int64 {
	return d.route[d.pos]
}

func (ctx *Context) point(id int64) geometry.Point {
	p := ctx.graph.Point(id)
	return geometry.Point{X: p[0], Y: p[1]}
}

// spawnRate 当前车辆生成率（辆/秒）
// 算法说明：启用混合交通特性时，基础生成率 × 时段密度倍数 × (0.5+0.5·能见度) × U(0.7, 1.3)
func (ctx *Context) spawnRate() float64 {
	rate := ctx.runtimeConfig.C.SpawnRate
	if !ctx.indian() {
		return rate
	}
	visibility := ctx.weatherManager.Current().Visibility
	return rate *
		ctx.timeOfDay.TrafficDensityMultiplier(ctx.hour) *
		(0.5 + 0.5*visibility) *
		ctx.rng.Uniform(0.7, 1.3)
}

// vehicleSource 车辆生成进程
// 功能：逐辆生成车辆直到尝试次数达到max_vehicles，相邻两次生成间隔服从指数分布
// 说明：找不到任何可行起终点时跳过本次生成并计数，不中止仿真
func (ctx *Context) vehicleSource() {
	c := ctx.runtimeConfig.C
	if ctx.spawnAttempts >= c.MaxVehicles {
		return
	}
	ctx.spawnAttempts++
	o, d, p, err := roadgraph.RandomFarNodes(ctx.graph, ctx.rng, c.MinPathSeconds, farNodeTries)
	if err != nil {
		ctx.spawnFailures++
		log.Warnf("spawn attempt %d skipped: %v", ctx.spawnAttempts, err)
	} else if _, err := ctx.spawn(o, d, p); err != nil {
		ctx.spawnFailures++
		log.Warnf("spawn attempt %d skipped: %v", ctx.spawnAttempts, err)
	}
	if ctx.spawnAttempts < c.MaxVehicles {
		ctx.sched.Schedule(ctx.rng.Exp(ctx.spawnRate()), ctx.vehicleSource)
	}
}

// SpawnVehicle 在指定起终点之间生成一辆车，沿最短路行驶
// 返回：车辆进程序号；不可达时返回包装了roadgraph.ErrNoPath或ErrNodeNotFound的error
func (ctx *Context) SpawnVehicle(o, d int64) (int, error) {
	p, _, err := ctx.graph.ShortestPath(o, d)
	if err != nil {
		return 0, fmt.Errorf("spawn vehicle: %w", err)
	}
	if len(p) < 2 {
		return 0, fmt.Errorf("spawn vehicle: %w: origin equals destination", roadgraph.ErrNoPath)
	}
	return ctx.spawn(o, d, p)
}

func (ctx *Context) spawn(o, d int64, p []int64) (int, error) {
	dest := ctx.point(d)
	v, err := ctx.factory.CreateRandomVehicle(ctx.point(o), &dest)
	if err != nil {
		return 0, err
	}
	v.Route = p
	vid := ctx.spawned
	ctx.spawned++
	dr := &driver{vid: vid, v: v, start: o, end: d, route: p}
	ctx.drivers[vid] = dr
	ctx.active.Add(dr)
	ctx.typeCounts[v.Type]++
	ctx.mixedManager.Register(v)
	log.Debugf("vehicle %d (%s) spawned %d->%d, %d nodes", vid, v.ID, o, d, len(p))
	ctx.publish(dr)
	ctx.step(dr)
	return vid, nil
}

func (ctx *Context) publish(d *driver) {
	ctx.sink.VehicleMoved(entity.PositionUpdate{
		T:           ctx.clock.T,
		VID:         d.vid,
		VehicleID:   d.v.ID,
		Position:    types.NewPosition(d.v.Position),
		Heading:     d.v.Heading,
		VehicleType: d.v.Type,
	})
}

// needsReroute 前方路线上是否有封闭或通行能力过低的边
func (ctx *Context) needsReroute(d *driver) bool {
	return lo.SomeBy(roadgraph.PathEdges(d.route[d.pos:]), func(e roadgraph.EdgeID) bool {
		return ctx.emergencyManager.IsBlocked(e) ||
			ctx.emergencyManager.GetEmergencyImpactOnEdge(e).Accessibility < rerouteAccessLimit
	})
}

// reroute 检查并执行绕行
// 说明：没有可用路线时保留绕行标记，在下一个路口重试
func (ctx *Context) reroute(d *driver) {
	v := d.v
	if !v.NeedsRerouting && ctx.needsReroute(d) {
		v.NeedsRerouting = true
	}
	if !v.NeedsRerouting {
		return
	}
	route, ok := ctx.emergencyManager.RerouteVehicle(v.ID, d.node(), d.end)
	if !ok {
		d.denied++
		ctx.rerouteDenied++
		log.Warnf("vehicle %s: no alternative route from node %d to %d", v.ID, d.node(), d.end)
		return
	}
	d.route, d.pos = route, 0
	v.Route = route
	v.NeedsRerouting = false
	ctx.rerouted++
	log.Debugf("vehicle %s rerouted at node %d, %d nodes remain", v.ID, d.node(), len(route))
}

// step 出发驶向下一节点
// 算法说明：
// 1. 已到达终点则结束进程
// 2. 绕行检查（可能替换剩余路线）
// 3. 计算调整后的通行时间并登记到达事件
func (ctx *Context) step(d *driver) {
	if d.removed {
		return
	}
	if d.pos >= len(d.route)-1 {
		ctx.finish(d)
		return
	}
	ctx.reroute(d)
	if d.pos >= len(d.route)-1 {
		ctx.finish(d)
		return
	}
	e := roadgraph.EdgeID{U: d.route[d.pos], V: d.route[d.pos+1]}
	dt := ctx.adjustedTravelTime(d.v, e)
	ctx.edgeLoad[e]++
	ctx.sched.Schedule(dt, func() { ctx.arrive(d, e, dt) })
}

// arrive 到达边的终点，更新位置后继续出发
func (ctx *Context) arrive(d *driver, e roadgraph.EdgeID, dt float64) {
	ctx.edgeLoad[e]--
	if d.removed {
		return
	}
	d.pos++
	d.traversed = append(d.traversed, e)
	v := d.v
	from, to := ctx.point(e.U), ctx.point(e.V)
	v.UpdatePosition(to)
	v.Heading = math.Mod(math.Atan2(to.Y-from.Y, to.X-from.X)*180/math.Pi+360, 360)
	if ed, ok := ctx.graph.Edge(e); ok && dt > 0 {
		v.Speed = ed.Length / dt * 3.6
	}
	ctx.mixedManager.UpdateVehiclePosition(v.ID, v.Position, v.Heading)
	ctx.publish(d)
	ctx.step(d)
}

func (ctx *Context) finish(d *driver) {
	d.finished = true
	ctx.completed++
	ctx.detach(d)
	log.Debugf("vehicle %d (%s) arrived at %d after %d edges", d.vid, d.v.ID, d.end, len(d.traversed))
}

// detach 从进程表、活动数组与混合交通管理器中移除
func (ctx *Context) detach(d *driver) {
	delete(ctx.drivers, d.vid)
	delete(ctx.sweepSpeed, d.v.ID)
	ctx.active.Remove(d)
	ctx.mixedManager.Unregister(d.v.ID)
	ctx.sink.VehicleRemoved(ctx.clock.T, d.vid, d.v.ID)
}

// edgeDensity 边上的归一化密度
func (ctx *Context) edgeDensity(e roadgraph.EdgeID, ed roadgraph.EdgeData) float64 {
	lanes := max(ed.Lanes, 1)
	capacity := max(float64(lanes)*ed.Length/vehiclesPerLaneM, 1)
	return lo.Clamp(float64(ctx.edgeLoad[e])/capacity, 0, 1)
}

// adjustedTravelTime 调整后的单边通行时间
// 功能：基础通行时间 × 行为系数 × 拥堵系数 / 突发事件速度系数，下限0.05秒
// 算法说明：
//   - 行为系数 = (1+速度变异) / 速度倍数，速度倍数为路况、天气、时段与最近一次动力学扫描系数之积
//   - 拥堵系数 = (1+0.5·边上密度) × (1+突发事件拥堵影响)
//   - 未启用混合交通特性时直接使用基础通行时间
func (ctx *Context) adjustedTravelTime(v *vehicle.Vehicle, e roadgraph.EdgeID) float64 {
	ed, ok := ctx.graph.Edge(e)
	base := roadgraph.DefaultTravelTime
	if ok {
		base = ed.TravelTime
	}
	if !ctx.indian() {
		return max(base, minEdgeTravelTime)
	}
	density := ctx.edgeDensity(e, ed)
	behaviorFactor := ctx.behaviorTravelTimeFactor(v, e, ed, density)
	impact := ctx.emergencyManager.GetEmergencyImpactOnEdge(e)
	congestion := (1 + 0.5*density) * (1 + impact.CongestionFactor)
	t := base * behaviorFactor * congestion / max(impact.SpeedReductionFactor, minEdgeTravelTime)
	return max(t, minEdgeTravelTime)
}

func (ctx *Context) behaviorTravelTimeFactor(v *vehicle.Vehicle, e roadgraph.EdgeID, ed roadgraph.EdgeData, density float64) float64 {
	q, ok := ctx.roadMapper.GetEffectiveRoadQuality(e)
	if !ok {
		q = types.QualityGood
	}
	ld := ctx.behavior.CalculateLaneDiscipline(v.Type, behavior.RoadConditions{
		Quality:        q,
		LaneCount:      ed.Lanes,
		Width:          ed.Width,
		TrafficDensity: density,
	})
	speed := ctx.roadMapper.GetSpeedAdjustmentFactor(e) *
		ctx.weatherManager.GetCurrentWeatherEffects(v.Type).SpeedFactor *
		ctx.timeOfDay.SpeedAdjustment(ctx.hour) *
		lo.ValueOr(ctx.sweepSpeed, v.ID, 1.0)
	return (1 + ld.SpeedVariance) / lo.Clamp(speed, minEdgeTravelTime, 1.5)
}
