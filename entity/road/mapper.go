package road

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/roadgraph"
)

// ErrUnknownEdge 路况表中没有该边
var ErrUnknownEdge = errors.New("road: unknown edge")

// ObstacleType 临时障碍类型
type ObstacleType string

const (
	ObstacleAccident  ObstacleType = "accident"
	ObstacleBreakdown ObstacleType = "breakdown"
	ObstacleDebris    ObstacleType = "debris"
	ObstacleFlooding  ObstacleType = "flooding"
)

// Obstacle 临时障碍
type Obstacle struct {
	ID            string              `json:"id"`
	Edge          roadgraph.EdgeID    `json:"edge_id"`
	Type          ObstacleType        `json:"obstacle_type"`
	Position      geometry.Point      `json:"position"`
	PositionRatio float64             `json:"position_ratio"`
	Severity      types.SeverityLevel `json:"severity"`
	LanesBlocked  int                 `json:"lanes_blocked"`
	Duration      time.Duration       `json:"estimated_duration"`
	CreatedAt     time.Time           `json:"created_at"`
}

// Expired 是否已过期（严格晚于创建时刻+持续时间）
func (o *Obstacle) Expired(now time.Time) bool {
	return now.After(o.CreatedAt.Add(o.Duration))
}

// ConditionState 单条边的动态路况
type ConditionState struct {
	BaseQuality       types.RoadQuality   `json:"base_quality"`
	WeatherImpact     float64             `json:"weather_impact"`
	TimeImpact        float64             `json:"time_impact"`
	Obstacles         []*Obstacle         `json:"temporary_obstacles"`
	ConstructionZones []*ConstructionZone `json:"construction_zones"`
	LastUpdated       time.Time           `json:"last_updated"`
}

// Mapper 路况映射器
// 功能：维护每条边的动态路况（天气、时段、临时障碍、施工区），并给出有效质量与速度系数
// 说明：施工区序号在整个生命周期内稳定，移除后对应位置置空
type Mapper struct {
	analyzer *Analyzer
	g        *roadgraph.Graph
	ids      io.Reader // 障碍ID的随机源

	states    map[roadgraph.EdgeID]*ConditionState
	obstacles map[string]*Obstacle
	zones     []*ConstructionZone

	weather types.WeatherType
}

// NewMapper 创建路况映射器
// 参数：analyzer-道路分析器，g-路网，ids-障碍ID随机源（通常为仿真随机引擎）
func NewMapper(analyzer *Analyzer, g *roadgraph.Graph, ids io.Reader) *Mapper {
	return &Mapper{
		analyzer:  analyzer,
		g:         g,
		ids:       ids,
		states:    make(map[roadgraph.EdgeID]*ConditionState),
		obstacles: make(map[string]*Obstacle),
		weather:   types.Clear,
	}
}

// InitializeRoadStates 初始化全部边的路况
// 功能：以分析器评估的质量作为基础质量，并挂载识别出的施工区
func (m *Mapper) InitializeRoadStates(now time.Time) {
	for e, q := range m.analyzer.AnalyzeRoadQuality(m.g) {
		m.states[e] = &ConditionState{
			BaseQuality:   q,
			WeatherImpact: 1,
			TimeImpact:    1,
			LastUpdated:   now,
		}
	}
	m.zones = slices.Clone(m.analyzer.IdentifyConstructionZones(m.g))
	for _, z := range m.zones {
		for _, e := range z.Edges {
			if s, ok := m.states[e]; ok {
				s.ConstructionZones = append(s.ConstructionZones, z)
			}
		}
	}
	log.Infof("initialized %d road states with %d construction zones", len(m.states), len(m.zones))
}

// UpdateWeatherConditions 更新天气影响
// 参数：w-天气类型，intensity-强度[0,1]
// 算法说明：影响系数 = 基础系数 × (1 - 0.3·强度)，作用于全部边
func (m *Mapper) UpdateWeatherConditions(w types.WeatherType, intensity float64, now time.Time) {
	m.weather = w
	impact := lo.ValueOr(weatherBaseImpact, w, 1.0) * (1 - lo.Clamp(intensity, 0, 1)*0.3)
	for _, s := range m.states {
		s.WeatherImpact = impact
		s.LastUpdated = now
	}
	m.analyzer.UpdateDynamicConditions(DynamicConditions{Weather: &w})
}

// UpdateTimeEffects 更新时段影响
// 说明：高峰时段为0.8，其余时段为1（夜间不高于1）
func (m *Mapper) UpdateTimeEffects(hour int, now time.Time) {
	impact := 1.0
	if peakHours[hour] {
		impact = 0.8
	}
	for _, s := range m.states {
		s.TimeImpact = impact
		s.LastUpdated = now
	}
	m.analyzer.UpdateDynamicConditions(DynamicConditions{Hour: &hour})
}

// AddTemporaryObstacle 添加临时障碍
// 参数：e-所在边，typ-障碍类型，ratio-沿边位置比例，severity-严重度，duration-预计持续时间
// 返回：障碍ID；边不存在时返回error
func (m *Mapper) AddTemporaryObstacle(
	e roadgraph.EdgeID, typ ObstacleType, ratio float64,
	severity types.SeverityLevel, duration time.Duration, now time.Time,
) (string, error) {
	s, ok := m.states[e]
	if !ok {
		return "", fmt.Errorf("add obstacle on %v: %w", e, ErrUnknownEdge)
	}
	id, err := uuid.NewRandomFromReader(m.ids)
	if err != nil {
		return "", fmt.Errorf("add obstacle: %w", err)
	}
	ratio = lo.Clamp(ratio, 0, 1)
	u, _ := m.g.Node(e.U)
	v, _ := m.g.Node(e.V)
	o := &Obstacle{
		ID:            id.String(),
		Edge:          e,
		Type:          typ,
		Position:      geometry.Blend(geometry.Point{X: u.X, Y: u.Y}, geometry.Point{X: v.X, Y: v.Y}, ratio),
		PositionRatio: ratio,
		Severity:      severity,
		LanesBlocked:  lanesBlocked(typ, severity),
		Duration:      duration,
		CreatedAt:     now,
	}
	m.obstacles[o.ID] = o
	s.Obstacles = append(s.Obstacles, o)
	s.LastUpdated = now
	log.Debugf("obstacle %s (%s, %v) added on %v", o.ID, typ, severity, e)
	return o.ID, nil
}

func lanesBlocked(typ ObstacleType, severity types.SeverityLevel) int {
	lanes := lo.ValueOr(obstacleBaseLanes, typ, 1)
	switch severity {
	case types.SeverityCritical:
		lanes = min(4, lanes+2)
	case types.SeverityHigh:
		lanes = min(3, lanes+1)
	case types.SeverityLow:
		lanes = max(1, lanes-1)
	}
	return lanes
}

// RemoveTemporaryObstacle 移除临时障碍，ID不存在时返回false
func (m *Mapper) RemoveTemporaryObstacle(id string) bool {
	o, ok := m.obstacles[id]
	if !ok {
		return false
	}
	delete(m.obstacles, id)
	if s, ok := m.states[o.Edge]; ok {
		s.Obstacles = lo.Filter(s.Obstacles, func(x *Obstacle, _ int) bool { return x.ID != id })
	}
	return true
}

// CleanupExpiredObstacles 清理过期障碍
// 返回：被清理的障碍ID（有序）
func (m *Mapper) CleanupExpiredObstacles(now time.Time) []string {
	expired := make([]string, 0)
	for id, o := range m.obstacles {
		if o.Expired(now) {
			expired = append(expired, id)
		}
	}
	slices.Sort(expired)
	for _, id := range expired {
		m.RemoveTemporaryObstacle(id)
	}
	return expired
}

// AddConstructionZone 添加施工区
// 返回：施工区序号
func (m *Mapper) AddConstructionZone(
	edges []roadgraph.EdgeID, status types.ConstructionStatus, duration time.Duration,
	lanesAffected int, speedReduction float64, description string, now time.Time,
) int {
	if description == "" {
		description = titleName(status.String()) + " construction work"
	}
	z := &ConstructionZone{
		Edges:               slices.Clone(edges),
		Type:                status,
		Start:               now,
		EstimatedEnd:        now.Add(duration),
		LanesAffected:       lanesAffected,
		SpeedLimitReduction: speedReduction,
		Description:         description,
	}
	m.zones = append(m.zones, z)
	for _, e := range edges {
		if s, ok := m.states[e]; ok {
			s.ConstructionZones = append(s.ConstructionZones, z)
			s.LastUpdated = now
		}
	}
	return len(m.zones) - 1
}

func (m *Mapper) zone(id int) *ConstructionZone {
	if id < 0 || id >= len(m.zones) {
		return nil
	}
	return m.zones[id]
}

// UpdateConstructionZone 更新施工区，序号无效或已移除时返回false
func (m *Mapper) UpdateConstructionZone(u ConstructionUpdate, now time.Time) bool {
	z := m.zone(u.ZoneID)
	if z == nil {
		return false
	}
	z.apply(u)
	for _, e := range z.Edges {
		if s, ok := m.states[e]; ok {
			s.LastUpdated = now
		}
	}
	return true
}

// RemoveConstructionZone 移除施工区，序号保持不变
func (m *Mapper) RemoveConstructionZone(id int, now time.Time) bool {
	z := m.zone(id)
	if z == nil {
		return false
	}
	for _, e := range z.Edges {
		if s, ok := m.states[e]; ok {
			s.ConstructionZones = lo.Without(s.ConstructionZones, z)
			s.LastUpdated = now
		}
	}
	m.zones[id] = nil
	return true
}

// CleanupCompletedConstruction 清理预计结束时刻已过的施工区
func (m *Mapper) CleanupCompletedConstruction(now time.Time) []int {
	done := make([]int, 0)
	for i, z := range m.zones {
		if z != nil && now.After(z.EstimatedEnd) {
			done = append(done, i)
			m.RemoveConstructionZone(i, now)
		}
	}
	return done
}

// GetRoadConditionState 查询路况快照，边不存在时返回false
func (m *Mapper) GetRoadConditionState(e roadgraph.EdgeID) (ConditionState, bool) {
	s, ok := m.states[e]
	if !ok {
		return ConditionState{}, false
	}
	c := *s
	c.Obstacles = slices.Clone(s.Obstacles)
	c.ConstructionZones = slices.Clone(s.ConstructionZones)
	return c, true
}

// Get 获取路况，边不存在时panic
func (m *Mapper) Get(e roadgraph.EdgeID) *ConditionState {
	if s, ok := m.states[e]; !ok {
		log.Panicf("no id %v in road states", e)
		return nil
	} else {
		return s
	}
}

// GetOrError 获取路况，边不存在时返回error
func (m *Mapper) GetOrError(e roadgraph.EdgeID) (*ConditionState, error) {
	if s, ok := m.states[e]; !ok {
		return nil, fmt.Errorf("no id %v in road states", e)
	} else {
		return s, nil
	}
}

// GetEffectiveRoadQuality 有效道路质量
// 算法说明：基础评分依次乘以天气、时段、各障碍与各施工区系数后重新分档，
// 所有系数不大于1，因此添加障碍或施工区不会提高有效质量
func (m *Mapper) GetEffectiveRoadQuality(e roadgraph.EdgeID) (types.RoadQuality, bool) {
	s, ok := m.states[e]
	if !ok {
		return 0, false
	}
	score := lo.ValueOr(qualityScores, s.BaseQuality, 0.5) * s.WeatherImpact * s.TimeImpact
	for _, o := range s.Obstacles {
		score *= lo.ValueOr(obstacleQualityMultipliers, o.Severity, 0.9)
	}
	for _, z := range s.ConstructionZones {
		score *= lo.ValueOr(constructionQualityMultipliers, z.Type, 0.7)
	}
	return qualityFromScore(score), true
}

// GetSpeedAdjustmentFactor 速度调整系数
// 返回：[0.1, 1]内的系数；未知边返回1
func (m *Mapper) GetSpeedAdjustmentFactor(e roadgraph.EdgeID) float64 {
	s, ok := m.states[e]
	if !ok {
		return 1
	}
	f := lo.ValueOr(qualitySpeedFactors, s.BaseQuality, 0.8) * s.WeatherImpact
	for _, o := range s.Obstacles {
		if o.LanesBlocked >= 2 {
			f *= 0.3
		} else {
			f *= 0.6
		}
	}
	for _, z := range s.ConstructionZones {
		f *= z.SpeedLimitReduction
	}
	return lo.Clamp(f, 0.1, 1)
}

// ActiveObstacles 当前全部临时障碍（按ID排序）
func (m *Mapper) ActiveObstacles() []*Obstacle {
	res := lo.Values(m.obstacles)
	slices.SortFunc(res, func(a, b *Obstacle) int { return strings.Compare(a.ID, b.ID) })
	return res
}

// ActiveConstructionZones 当前全部施工区
func (m *Mapper) ActiveConstructionZones() []*ConstructionZone {
	return lo.Filter(m.zones, func(z *ConstructionZone, _ int) bool { return z != nil })
}

// Weather 最近一次设置的天气
func (m *Mapper) Weather() types.WeatherType {
	return m.weather
}
