package emergency

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/paulmach/orb"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/randengine"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/roadgraph"
)

const (
	nearbyEdgeRadius = 100. // 默认受影响边的搜索半径（米）
	nearbyEdgeLimit  = 5
	floodOverrideP   = 0.3 // 暴雨时改为内涝的概率
	maxAlternates    = 2
)

// Options 创建场景的可选参数，nil字段使用随机默认值
type Options struct {
	Location *geometry.Point
	Edges    []roadgraph.EdgeID
	Severity *types.SeverityLevel
	Duration *time.Duration // 为空时按类型与严重度随机生成
}

type odPair struct{ o, d int64 }

// Manager 突发事件管理器
// 功能：创建、过期与手动解除突发事件，维护封闭边集合，为车辆提供绕行路线
// 说明：封闭边集合始终由仍处于ACTIVE状态的场景重建，不做增量删除
type Manager struct {
	g   *roadgraph.Graph
	rng *randengine.Engine

	active  map[string]*Scenario
	blocked map[roadgraph.EdgeID]bool
	history []*Scenario
	cache   map[odPair][][]int64

	counter       int
	totalCreated  int
	totalRerouted int
}

// NewManager 创建突发事件管理器
func NewManager(g *roadgraph.Graph, rng *randengine.Engine) *Manager {
	return &Manager{
		g:       g,
		rng:     rng,
		active:  make(map[string]*Scenario),
		blocked: make(map[roadgraph.EdgeID]bool),
		cache:   make(map[odPair][][]int64),
	}
}

// CreateEmergencyScenario 创建突发事件
// 功能：补齐缺省的位置、受影响边与严重度，估计持续时间并登记为ACTIVE
// 参数：typ-事件类型，opts-可选参数，now-当前仿真时刻
// 返回：新场景
// 算法说明：
// 1. 位置缺省为随机节点；受影响边缺省为中点在100米内的边，最多5条
// 2. 严重度缺省按类型的分布抽取
// 3. 持续时间 = 基础时长 × 严重度倍数 × U(0.7, 1.5)，取整分钟
// 4. 通行能力低于0.5时受影响边加入封闭集合
func (m *Manager) CreateEmergencyScenario(typ types.EmergencyType, opts Options, now time.Time) *Scenario {
	m.counter++
	id := fmt.Sprintf("EMERGENCY_%s_%04d", typ, m.counter)

	var loc geometry.Point
	if opts.Location != nil {
		loc = *opts.Location
	} else {
		loc = m.randomLocation()
	}
	edges := opts.Edges
	if edges == nil {
		edges = m.g.EdgesNear(orb.Point{loc.X, loc.Y}, nearbyEdgeRadius, nearbyEdgeLimit)
	}
	var severity types.SeverityLevel
	if opts.Severity != nil {
		severity = *opts.Severity
	} else {
		severity = m.randomSeverity(typ)
	}
	var duration time.Duration
	if opts.Duration != nil {
		duration = *opts.Duration
	} else {
		minutes := lo.ValueOr(baseDurations, typ, 60) *
			lo.ValueOr(durationSeverityMultipliers, severity, 1.0) *
			m.rng.Uniform(0.7, 1.5)
		duration = time.Duration(int(minutes)) * time.Minute
	}

	s := NewScenario(id, typ, loc, edges, severity, now, duration, describe(typ, severity, loc))
	s.Status = StatusActive
	m.active[id] = s
	m.totalCreated++
	if s.Blocks() {
		for _, e := range s.Edges {
			m.blocked[e] = true
		}
	}
	log.Infof("emergency %s created: %s, %d edges, clears at %s", id, s.Description, len(s.Edges), s.EstimatedClearance().Format(time.RFC3339))
	return s
}

func (m *Manager) randomLocation() geometry.Point {
	nodes := m.g.Nodes()
	if len(nodes) == 0 {
		return geometry.Point{}
	}
	n, _ := m.g.Node(nodes[m.rng.Intn(len(nodes))])
	return geometry.Point{X: n.X, Y: n.Y}
}

func (m *Manager) randomSeverity(typ types.EmergencyType) types.SeverityLevel {
	probs, ok := severityProbabilities[typ]
	if !ok {
		return types.SeverityMedium
	}
	return randengine.Choice(m.rng, types.AllSeverityLevels, lo.Map(types.AllSeverityLevels, func(s types.SeverityLevel, _ int) float64 {
		return probs[s]
	}))
}

// CreateRandomEmergency 按概率随机产生突发事件
// 算法说明：
// 1. 发生概率 = 各类型基础概率之和 × 天气倍数，一次伯努利试验
// 2. 类型按基础概率加权抽取
// 3. 暴雨时有30%概率改为内涝
// 返回：未发生时返回nil
func (m *Manager) CreateRandomEmergency(weather types.WeatherType, now time.Time) *Scenario {
	k := lo.ValueOr(weatherMultipliers, weather, 1.0)
	w := lo.Map(types.AllEmergencyTypes, func(t types.EmergencyType, _ int) float64 {
		return baseProbabilities[t] * k
	})
	if m.rng.Float64() > lo.Sum(w) {
		return nil
	}
	typ := randengine.Choice(m.rng, types.AllEmergencyTypes, w)
	if weather == types.HeavyRain && m.rng.PTrue(floodOverrideP) {
		typ = types.Flooding
	}
	return m.CreateEmergencyScenario(typ, Options{}, now)
}

// UpdateEmergencies 将过期场景移入历史并重建封闭集合
// 返回：过期场景ID（有序）
func (m *Manager) UpdateEmergencies(now time.Time) []string {
	expired := make([]string, 0)
	for _, id := range m.activeIDs() {
		if m.active[id].IsExpired(now) {
			m.retire(id)
			expired = append(expired, id)
		}
	}
	if len(expired) > 0 {
		m.rebuildBlocked()
		log.Infof("emergencies expired: %s", strings.Join(expired, ", "))
	}
	return expired
}

// ResolveEmergencyScenario 手动提前解除，ID未知时返回false
func (m *Manager) ResolveEmergencyScenario(id string) bool {
	if _, ok := m.active[id]; !ok {
		return false
	}
	m.retire(id)
	m.rebuildBlocked()
	log.Infof("emergency %s resolved", id)
	return true
}

func (m *Manager) retire(id string) {
	s := m.active[id]
	delete(m.active, id)
	s.Status = StatusExpired
	m.history = append(m.history, s)
}

func (m *Manager) rebuildBlocked() {
	m.blocked = make(map[roadgraph.EdgeID]bool)
	for _, s := range m.active {
		if s.Blocks() {
			for _, e := range s.Edges {
				m.blocked[e] = true
			}
		}
	}
}

func (m *Manager) activeIDs() []string {
	ids := lo.Keys(m.active)
	slices.Sort(ids)
	return ids
}

// Get 获取活动场景，不存在时panic
func (m *Manager) Get(id string) *Scenario {
	if s, ok := m.active[id]; !ok {
		log.Panicf("no id %s in active emergencies", id)
		return nil
	} else {
		return s
	}
}

// GetOrError 获取活动场景，不存在时返回error
func (m *Manager) GetOrError(id string) (*Scenario, error) {
	if s, ok := m.active[id]; !ok {
		return nil, fmt.Errorf("no id %s in active emergencies", id)
	} else {
		return s, nil
	}
}

// IsBlocked 边是否被封闭
func (m *Manager) IsBlocked(e roadgraph.EdgeID) bool {
	return m.blocked[e]
}

// BlockedEdges 封闭边集合（有序）
func (m *Manager) BlockedEdges() []roadgraph.EdgeID {
	es := lo.Keys(m.blocked)
	slices.SortFunc(es, roadgraph.CompareEdgeID)
	return es
}

// History 已过期或解除的场景
func (m *Manager) History() []*Scenario {
	return m.history
}

// FindAlternativeRoutes 寻找避开封闭边的路线
// 参数：o-起点，d-终点，blocked-封闭边集合，nil表示使用当前封闭集合
// 返回：最短路在前，之后最多2条备选；不可达时返回空切片
// 算法说明：每条备选在前一条路线的基础上去掉其中间一条边后重新求最短路，去掉的边累积
func (m *Manager) FindAlternativeRoutes(o, d int64, blocked map[roadgraph.EdgeID]bool) [][]int64 {
	if blocked == nil {
		blocked = m.blocked
	}
	key := odPair{o, d}
	if len(blocked) == 0 {
		if routes, ok := m.cache[key]; ok {
			return routes
		}
	}

	removed := make(map[roadgraph.EdgeID]bool, len(blocked)+maxAlternates)
	for e := range blocked {
		removed[e] = true
	}
	routes := make([][]int64, 0, 1+maxAlternates)
	if p, _, err := m.g.Without(removed).ShortestPath(o, d); err == nil {
		routes = append(routes, p)
		prev := p
		for i := 0; i < maxAlternates && len(prev) > 2; i++ {
			mid := len(prev) / 2
			removed[roadgraph.EdgeID{U: prev[mid], V: prev[mid+1]}] = true
			alt, _, err := m.g.Without(removed).ShortestPath(o, d)
			if err != nil {
				break
			}
			if !slices.ContainsFunc(routes, func(r []int64) bool { return slices.Equal(r, alt) }) {
				routes = append(routes, alt)
			}
			prev = alt
		}
	}

	if len(blocked) == 0 {
		m.cache[key] = routes
	}
	return routes
}

// RerouteVehicle 为车辆选择总通行时间最短的备选路线
// 返回：路线；没有可用路线时返回false
func (m *Manager) RerouteVehicle(vehicleID string, from, to int64) ([]int64, bool) {
	routes := m.FindAlternativeRoutes(from, to, nil)
	if len(routes) == 0 {
		return nil, false
	}
	best, bestTime := []int64(nil), mathutil.INF
	for _, r := range routes {
		if tt := m.g.PathTravelTime(r); tt < bestTime {
			best, bestTime = r, tt
		}
	}
	m.totalRerouted++
	for _, s := range m.active {
		if _, ok := s.VehiclesAffected[vehicleID]; ok {
			s.VehiclesRerouted[vehicleID] = struct{}{}
		}
	}
	log.Debugf("vehicle %s rerouted %d->%d via %d nodes (%.1fs)", vehicleID, from, to, len(best), bestTime)
	return best, true
}

// EdgeImpact 突发事件对一条边的综合影响
type EdgeImpact struct {
	SpeedReductionFactor float64 `json:"speed_reduction_factor"`
	Accessibility        float64 `json:"accessibility"`
	CongestionFactor     float64 `json:"congestion_factor"`
	IsBlocked            bool    `json:"is_blocked"`
}

// GetEmergencyImpactOnEdge 查询边上的突发事件影响
// 算法说明：直接受影响时取各场景速度系数与通行能力的最小值，通行能力低于0.1视为封闭；
// 否则以边中点计算拥堵影响并取最大值
func (m *Manager) GetEmergencyImpactOnEdge(e roadgraph.EdgeID) EdgeImpact {
	impact := EdgeImpact{SpeedReductionFactor: 1, Accessibility: 1}
	mid := m.g.Midpoint(e)
	_, okU := m.g.Node(e.U)
	_, okV := m.g.Node(e.V)
	hasMid := okU && okV
	for _, s := range m.active {
		if s.IsEdgeAffected(e) {
			impact.SpeedReductionFactor = min(impact.SpeedReductionFactor, s.SpeedReductionFactor)
			impact.Accessibility = min(impact.Accessibility, s.Accessibility)
			if s.Accessibility < 0.1 {
				impact.IsBlocked = true
			}
		} else if hasMid {
			impact.CongestionFactor = max(impact.CongestionFactor, s.CongestionImpact(geometry.Point{X: mid[0], Y: mid[1]}))
		}
	}
	return impact
}

// GetAffectedVehicles 统计各场景拥堵范围内的车辆，并记入场景
// 返回：场景ID -> 有序车辆ID
func (m *Manager) GetAffectedVehicles(positions map[string]geometry.Point) map[string][]string {
	vids := lo.Keys(positions)
	slices.Sort(vids)
	res := make(map[string][]string, len(m.active))
	for id, s := range m.active {
		affected := make([]string, 0)
		for _, vid := range vids {
			if s.InCongestionArea(positions[vid]) {
				affected = append(affected, vid)
				s.VehiclesAffected[vid] = struct{}{}
			}
		}
		res[id] = affected
	}
	return res
}

// ActiveEmergencies 活动场景列表（按ID排序）
func (m *Manager) ActiveEmergencies() []Summary {
	return lo.Map(m.activeIDs(), func(id string, _ int) Summary { return m.active[id].Summary() })
}

// Active 活动场景（按ID排序）
func (m *Manager) Active() []*Scenario {
	return lo.Map(m.activeIDs(), func(id string, _ int) *Scenario { return m.active[id] })
}

// Statistics 突发事件统计
type Statistics struct {
	ActiveEmergencies       int                         `json:"active_emergencies"`
	ActiveByType            map[types.EmergencyType]int `json:"active_by_type"`
	TotalEmergenciesCreated int                         `json:"total_emergencies_created"`
	TotalVehiclesRerouted   int                         `json:"total_vehicles_rerouted"`
	BlockedEdges            int                         `json:"blocked_edges"`
	EmergencyHistoryCount   int                         `json:"emergency_history_count"`
}

// Statistics 汇总统计
func (m *Manager) Statistics() Statistics {
	return Statistics{
		ActiveEmergencies:       len(m.active),
		ActiveByType:            lo.CountValuesBy(lo.Values(m.active), func(s *Scenario) types.EmergencyType { return s.Type }),
		TotalEmergenciesCreated: m.totalCreated,
		TotalVehiclesRerouted:   m.totalRerouted,
		BlockedEdges:            len(m.blocked),
		EmergencyHistoryCount:   len(m.history),
	}
}
