// 混合交通管理：车辆交互、优先通行、拥堵识别
package mixed

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/randengine"
)

// Statistics 混合交通统计
type Statistics struct {
	TotalVehicles              int                       `json:"total_vehicles"`
	VehicleTypeDistribution    map[types.VehicleType]int `json:"vehicle_type_distribution"`
	EmergencyVehicles          int                       `json:"emergency_vehicles"`
	ActiveInteractions         int                       `json:"active_interactions"`
	CongestionZones            int                       `json:"congestion_zones"`
	TotalInteractionsProcessed int                       `json:"total_interactions_processed"`
	TotalCongestionEvents      int                       `json:"total_congestion_events"`
}

// DynamicsResult 一次混合交通动力学扫描的结果
type DynamicsResult struct {
	VehicleBehaviors map[string]VehicleBehavior `json:"vehicle_behaviors"`
	Interactions     []Interaction              `json:"interactions"`
	CongestionZones  []CongestionZone           `json:"congestion_zones"`
	HornEvents       []HornEvent                `json:"horn_events"`
	Statistics       Statistics                 `json:"statistics"`
}

// Manager 混合交通管理器
// 功能：跟踪全部在途车辆的位置与类型，分析两两交互、优先通行与拥堵区域
// 说明：与仿真主循环共享*vehicle.Vehicle指针，只在主循环中调用，不加锁；
// 所有遍历均按车辆ID排序，保证同种子下随机数消耗顺序一致
type Manager struct {
	rng *randengine.Engine

	vehicles  map[string]*vehicle.Vehicle
	emergency map[string]*EmergencyVehicle

	interactions []Interaction
	zones        []CongestionZone

	interactionCount int // 累计处理的交互数，单调不减
	congestionEvents int
}

// NewManager 创建混合交通管理器
func NewManager(rng *randengine.Engine) *Manager {
	return &Manager{
		rng:       rng,
		vehicles:  make(map[string]*vehicle.Vehicle),
		emergency: make(map[string]*EmergencyVehicle),
	}
}

// Register 登记车辆，ID重复时覆盖
func (m *Manager) Register(v *vehicle.Vehicle) {
	m.vehicles[v.ID] = v
}

// Unregister 注销车辆（包括紧急车辆登记），返回车辆是否存在
func (m *Manager) Unregister(id string) bool {
	_, ok := m.vehicles[id]
	delete(m.vehicles, id)
	delete(m.emergency, id)
	return ok
}

// RegisterEmergencyVehicle 登记紧急车辆
// 参数：v-车辆，typ-所服务的突发事件类型，sirenRange-警笛范围（米，非正数取100）
func (m *Manager) RegisterEmergencyVehicle(v *vehicle.Vehicle, typ types.EmergencyType, sirenRange float64) {
	if sirenRange <= 0 {
		sirenRange = defaultSirenRange
	}
	m.Register(v)
	m.emergency[v.ID] = &EmergencyVehicle{
		VehicleID:            v.ID,
		EmergencyType:        typ,
		PriorityLevel:        PriorityEmergency,
		SirenRange:           sirenRange,
		RouteClearanceNeeded: true,
	}
	log.Debugf("emergency vehicle %s registered for %v", v.ID, typ)
}

// Get 输入车辆ID，查找车辆，如果不存在则panic
func (m *Manager) Get(id string) *vehicle.Vehicle {
	v, ok := m.vehicles[id]
	if !ok {
		log.Panicf("no id %s in mixed traffic manager", id)
	}
	return v
}

// GetOrError 输入车辆ID，查找车辆，如果不存在则返回error
func (m *Manager) GetOrError(id string) (*vehicle.Vehicle, error) {
	if v, ok := m.vehicles[id]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("no id %s in mixed traffic manager", id)
}

// Len 在途车辆数
func (m *Manager) Len() int {
	return len(m.vehicles)
}

// UpdateVehiclePosition 更新车辆位置与航向，车辆不存在时返回false
func (m *Manager) UpdateVehiclePosition(id string, pos geometry.Point, heading float64) bool {
	v, ok := m.vehicles[id]
	if !ok {
		return false
	}
	v.UpdatePosition(pos)
	v.Heading = heading
	return true
}

func (m *Manager) sortedIDs() []string {
	ids := lo.Keys(m.vehicles)
	slices.Sort(ids)
	return ids
}

func (m *Manager) priority(v *vehicle.Vehicle) Priority {
	if _, ok := m.emergency[v.ID]; ok {
		return PriorityEmergency
	}
	return lo.ValueOr(vehiclePriorities, v.Type, PriorityCar)
}

// AnalyzeInteractions 分析给定半径内的两两交互
// 参数：radius-交互半径（米，非正数取50）
// 返回：按(Primary, Secondary)字典序排列的交互列表，Primary的ID较小
// 算法说明：
// 1. 按ID排序后两两比较，距离超过半径的车辆对忽略
// 2. 相对速度超过10km/h为超车/被超车；距离小于10米时相对速度小于2km/h为跟驰，否则为冲突；小于30米为邻近
// 3. 冲突严重度 = 距离项·0.5 + 相对速度项·0.3 + 尺寸差·0.2
func (m *Manager) AnalyzeInteractions(radius float64) []Interaction {
	if radius <= 0 {
		radius = defaultInteractionRadius
	}
	ids := m.sortedIDs()
	interactions := make([]Interaction, 0)
	for i, id1 := range ids {
		v1 := m.vehicles[id1]
		for _, id2 := range ids[i+1:] {
			v2 := m.vehicles[id2]
			d := distance(v1.Position, v2.Position)
			if d > radius {
				continue
			}
			rel := v1.Speed - v2.Speed
			interactions = append(interactions, Interaction{
				Primary:            id1,
				Secondary:          id2,
				Type:               classify(d, rel),
				Distance:           d,
				RelativeSpeed:      rel,
				PriorityDifference: int(m.priority(v1) - m.priority(v2)),
				ConflictSeverity:   conflictSeverity(d, rel, v1, v2),
			})
		}
	}
	m.interactions = interactions
	m.interactionCount += len(interactions)
	return interactions
}

// HandleVehiclePriority 处理交互中的优先通行
// 返回：车辆ID -> 该车需要执行的动作；同一车辆出现在多个交互中时以最后一个为准
// 算法说明（依次判断）：
// 1. 任一方为紧急车辆：另一方让行（减速0.5，以0.9概率必须变道）
// 2. 恰有一方为公交：另一方让行（减速0.8，以0.6概率建议变道）
// 3. 其余按优先级数值比较，低优先级一方yield_to_priority，
// 高优先级一方在没有其他动作时assert_priority；优先级相同时不产生动作
func (m *Manager) HandleVehiclePriority(interactions []Interaction) map[string]PriorityAction {
	actions := make(map[string]PriorityAction)
	for _, it := range interactions {
		v1, ok1 := m.vehicles[it.Primary]
		v2, ok2 := m.vehicles[it.Secondary]
		if !ok1 || !ok2 {
			continue
		}
		_, e1 := m.emergency[it.Primary]
		_, e2 := m.emergency[it.Secondary]
		p1, p2 := m.priority(v1), m.priority(v2)
		switch {
		case e1:
			actions[it.Secondary] = m.emergencyYield()
		case e2:
			actions[it.Primary] = m.emergencyYield()
		case v1.Type == types.Bus && v2.Type != types.Bus:
			actions[it.Secondary] = m.busYield()
		case v2.Type == types.Bus && v1.Type != types.Bus:
			actions[it.Primary] = m.busYield()
		case p1 < p2:
			yieldTo(actions, it.Secondary, it.Primary)
		case p2 < p1:
			yieldTo(actions, it.Primary, it.Secondary)
		}
	}
	return actions
}

func yieldTo(actions map[string]PriorityAction, lower, higher string) {
	actions[lower] = PriorityAction{
		ActionType:                ActionYieldToPriority,
		SpeedAdjustment:           0.9,
		FollowingDistanceIncrease: 1.2,
		OvertakingDiscouraged:     true,
	}
	if _, ok := actions[higher]; !ok {
		actions[higher] = PriorityAction{
			ActionType:           ActionAssertPriority,
			SpeedAdjustment:      1.0,
			OvertakingEncouraged: true,
			GapAcceptanceReduced: 0.8,
		}
	}
}

func (m *Manager) emergencyYield() PriorityAction {
	return PriorityAction{
		ActionType:         ActionEmergencyYield,
		Priority:           "emergency",
		SpeedAdjustment:    emergencySpeedReduction,
		LaneChangeRequired: m.rng.PTrue(emergencyLaneChangeProb),
		ClearanceDistance:  emergencyClearanceDistance,
	}
}

func (m *Manager) busYield() PriorityAction {
	return PriorityAction{
		ActionType:          ActionBusYield,
		Priority:            "bus",
		SpeedAdjustment:     busSpeedAdjustment,
		LaneChangeSuggested: m.rng.PTrue(busLaneChangeProb),
		YieldDistance:       busYieldDistance,
	}
}

type cell struct{ x, y int }

// DetectCongestionZones 识别拥堵区域
// 参数：gridSize-网格边长（米，非正数取100），now-当前仿真时刻
// 返回：严重度超过0.7的网格单元，按网格坐标排序
// 算法说明：
// 1. 按位置将车辆划入网格，车辆数不少于3的网格参与计算
// 2. 中心为网格内车辆位置均值，密度为车辆数/网格面积（平方公里）
// 3. 严重度 = 低速项·0.4 + 密度项·0.4 + 数量项·0.2
func (m *Manager) DetectCongestionZones(gridSize float64, now time.Time) []CongestionZone {
	if gridSize <= 0 {
		gridSize = defaultGridSize
	}
	grid := make(map[cell][]*vehicle.Vehicle)
	for _, id := range m.sortedIDs() {
		v := m.vehicles[id]
		c := cell{int(math.Floor(v.Position.X / gridSize)), int(math.Floor(v.Position.Y / gridSize))}
		grid[c] = append(grid[c], v)
	}
	cells := lo.Keys(grid)
	slices.SortFunc(cells, func(a, b cell) int {
		return cmp.Or(cmp.Compare(a.x, b.x), cmp.Compare(a.y, b.y))
	})
	zones := make([]CongestionZone, 0)
	for _, c := range cells {
		vs := grid[c]
		n := len(vs)
		if n < minCongestionVehicles {
			continue
		}
		cx := lo.SumBy(vs, func(v *vehicle.Vehicle) float64 { return v.Position.X }) / float64(n)
		cy := lo.SumBy(vs, func(v *vehicle.Vehicle) float64 { return v.Position.Y }) / float64(n)
		avg := lo.SumBy(vs, func(v *vehicle.Vehicle) float64 { return v.Speed }) / float64(n)
		density := float64(n) / (gridSize * gridSize / 1e6)
		severity := congestionSeverity(avg, density, n)
		if severity <= congestionThreshold {
			continue
		}
		zones = append(zones, CongestionZone{
			Center:        types.Position{X: cx, Y: cy},
			Radius:        gridSize / 2,
			Severity:      severity,
			VehicleCount:  n,
			AverageSpeed:  avg,
			Density:       density,
			FormationTime: now,
		})
	}
	m.zones = zones
	m.congestionEvents += len(zones)
	if len(zones) > 0 {
		log.Debugf("%d congestion zones detected", len(zones))
	}
	return zones
}

// ApplyCongestionBehavior 为位于拥堵区域内的车辆生成行为修正
// 说明：车辆同时处于多个区域时取最大严重度
func (m *Manager) ApplyCongestionBehavior(zones []CongestionZone) map[string]*CongestionBehavior {
	behaviors := make(map[string]*CongestionBehavior)
	for _, id := range m.sortedIDs() {
		v := m.vehicles[id]
		severity, in := 0., false
		for _, z := range zones {
			if distance(v.Position, geometry.Point{X: z.Center.X, Y: z.Center.Y}) <= z.Radius {
				in = true
				severity = max(severity, z.Severity)
			}
		}
		if in {
			behaviors[id] = congestionBehavior(v.Type, severity)
		}
	}
	return behaviors
}

// SimulateWeaving 摩托车与三轮车以0.3的概率在本次扫描中穿插
func (m *Manager) SimulateWeaving() map[string]*WeavingBehavior {
	behaviors := make(map[string]*WeavingBehavior)
	for _, id := range m.sortedIDs() {
		v := m.vehicles[id]
		if !v.Type.IsTwoWheelerOrAuto() || !m.rng.PTrue(weavingProbability) {
			continue
		}
		behaviors[id] = &WeavingBehavior{
			LateralMovement:         weavingLateralMovement * m.rng.Uniform(-1, 1),
			SpeedAdvantage:          weavingSpeedAdvantage,
			LaneDisciplineReduction: 0.5,
		}
	}
	return behaviors
}

// SimulateHornUsage 鸣笛事件
// 参数：dt-距上次扫描的时间（秒），累加到各车距上次鸣笛的时间
// 说明：简化密度取在途车辆数/100
func (m *Manager) SimulateHornUsage(dt float64) []HornEvent {
	density := float64(len(m.vehicles)) / 100
	events := make([]HornEvent, 0)
	for _, id := range m.sortedIDs() {
		v := m.vehicles[id]
		v.TimeSinceHorn += dt
		if !v.ShouldUseHorn(density, m.rng) {
			continue
		}
		v.TimeSinceHorn = 0
		events = append(events, HornEvent{
			VehicleID:   id,
			VehicleType: v.Type,
			Position:    types.NewPosition(v.Position),
			Reason:      hornReasons[m.rng.Intn(len(hornReasons))],
		})
	}
	return events
}

// SimulateMixedVehicleDynamics 混合交通动力学扫描
// 功能：由仿真主循环周期性调用，重新计算交互、优先通行、拥堵、穿插与鸣笛
// 参数：dt-扫描间隔（秒），now-当前仿真时刻
// 返回：合并后的单车行为修正及各项中间结果
func (m *Manager) SimulateMixedVehicleDynamics(dt float64, now time.Time) DynamicsResult {
	interactions := m.AnalyzeInteractions(defaultInteractionRadius)
	priority := m.HandleVehiclePriority(interactions)
	zones := m.DetectCongestionZones(defaultGridSize, now)
	congestion := m.ApplyCongestionBehavior(zones)
	weaving := m.SimulateWeaving()
	horns := m.SimulateHornUsage(dt)

	behaviors := make(map[string]VehicleBehavior)
	for _, id := range m.sortedIDs() {
		var b VehicleBehavior
		if a, ok := priority[id]; ok {
			b.Priority = &a
		}
		b.Congestion = congestion[id]
		b.Weaving = weaving[id]
		if b.Priority != nil || b.Congestion != nil || b.Weaving != nil {
			behaviors[id] = b
		}
	}
	return DynamicsResult{
		VehicleBehaviors: behaviors,
		Interactions:     interactions,
		CongestionZones:  zones,
		HornEvents:       horns,
		Statistics:       m.Statistics(),
	}
}

// CongestionZones 最近一次扫描得到的拥堵区域
func (m *Manager) CongestionZones() []CongestionZone {
	return m.zones
}

// Statistics 当前统计
func (m *Manager) Statistics() Statistics {
	return Statistics{
		TotalVehicles: len(m.vehicles),
		VehicleTypeDistribution: lo.CountValuesBy(lo.Values(m.vehicles), func(v *vehicle.Vehicle) types.VehicleType {
			return v.Type
		}),
		EmergencyVehicles:          len(m.emergency),
		ActiveInteractions:         len(m.interactions),
		CongestionZones:            len(m.zones),
		TotalInteractionsProcessed: m.interactionCount,
		TotalCongestionEvents:      m.congestionEvents,
	}
}
