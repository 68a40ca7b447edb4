// 突发事件场景管理与绕行
package emergency

import (
	"fmt"
	"slices"
	"time"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/roadgraph"
)

// Status 场景状态，只能前进：CREATED -> ACTIVE -> EXPIRED
type Status int32

const (
	StatusCreated Status = iota + 1
	StatusActive
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "CREATED"
	case StatusActive:
		return "ACTIVE"
	case StatusExpired:
		return "EXPIRED"
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// Scenario 突发事件场景
// 说明：影响参数在创建时由类型与严重度一次算定；
// 速度系数与通行能力除以严重度倍数，车道数、拥堵半径与拥堵程度乘以严重度倍数
type Scenario struct {
	ID          string
	Type        types.EmergencyType
	Location    geometry.Point
	Edges       []roadgraph.EdgeID
	Severity    types.SeverityLevel
	Start       time.Time
	Duration    time.Duration
	Description string

	LanesBlocked         int
	SpeedReductionFactor float64
	Accessibility        float64
	CongestionRadius     float64
	CongestionSeverity   float64

	Status           Status
	VehiclesAffected map[string]struct{}
	VehiclesRerouted map[string]struct{}
}

// NewScenario 创建场景并计算影响参数
func NewScenario(
	id string, typ types.EmergencyType, location geometry.Point, edges []roadgraph.EdgeID,
	severity types.SeverityLevel, start time.Time, duration time.Duration, description string,
) *Scenario {
	p, ok := typeImpacts[typ]
	if !ok {
		p = typeImpacts[types.Accident]
	}
	k := lo.ValueOr(impactSeverityMultipliers, severity, 1.0)
	return &Scenario{
		ID:                   id,
		Type:                 typ,
		Location:             location,
		Edges:                slices.Clone(edges),
		Severity:             severity,
		Start:                start,
		Duration:             duration,
		Description:          description,
		LanesBlocked:         max(1, int(p.lanesBlocked*k)),
		SpeedReductionFactor: max(0, p.speedReduction/k),
		Accessibility:        max(0, p.accessibility/k),
		CongestionRadius:     p.congestionRadius * k,
		CongestionSeverity:   min(1, p.congestionSeverity*k),
		Status:               StatusCreated,
		VehiclesAffected:     make(map[string]struct{}),
		VehiclesRerouted:     make(map[string]struct{}),
	}
}

// IsEdgeAffected 边是否直接受影响
func (s *Scenario) IsEdgeAffected(e roadgraph.EdgeID) bool {
	return slices.Contains(s.Edges, e)
}

func (s *Scenario) distance(p geometry.Point) float64 {
	return planar.Distance(orb.Point{s.Location.X, s.Location.Y}, orb.Point{p.X, p.Y})
}

// InCongestionArea 位置是否在拥堵半径内
func (s *Scenario) InCongestionArea(p geometry.Point) bool {
	return s.distance(p) <= s.CongestionRadius
}

// CongestionImpact 位置处的拥堵影响，随距离线性衰减
func (s *Scenario) CongestionImpact(p geometry.Point) float64 {
	d := s.distance(p)
	if d > s.CongestionRadius || s.CongestionRadius <= 0 {
		return 0
	}
	return s.CongestionSeverity * (1 - d/s.CongestionRadius)
}

// ShouldTriggerRerouting 通行能力低于0.5或严重度为HIGH及以上时需要绕行
func (s *Scenario) ShouldTriggerRerouting() bool {
	return s.Accessibility < 0.5 || s.Severity >= types.SeverityHigh
}

// Blocks 是否将受影响的边加入封闭集合
func (s *Scenario) Blocks() bool {
	return s.Accessibility < 0.5
}

// EstimatedClearance 预计解除时刻
func (s *Scenario) EstimatedClearance() time.Time {
	return s.Start.Add(s.Duration)
}

// IsExpired 严格晚于预计解除时刻即过期
func (s *Scenario) IsExpired(now time.Time) bool {
	return now.After(s.EstimatedClearance())
}

// Summary 对外的场景列表项
type Summary struct {
	ID                 string              `json:"scenario_id"`
	Type               types.EmergencyType `json:"type"`
	Severity           types.SeverityLevel `json:"severity"`
	Location           types.Position      `json:"location"`
	Description        string              `json:"description"`
	AffectedEdges      int                 `json:"affected_edges"`
	VehiclesAffected   int                 `json:"vehicles_affected"`
	VehiclesRerouted   int                 `json:"vehicles_rerouted"`
	EstimatedClearance string              `json:"estimated_clearance"` // RFC3339
	CongestionRadius   float64             `json:"congestion_radius"`
	Accessibility      float64             `json:"accessibility"`
}

// Summary 生成列表项
func (s *Scenario) Summary() Summary {
	return Summary{
		ID:                 s.ID,
		Type:               s.Type,
		Severity:           s.Severity,
		Location:           types.NewPosition(s.Location),
		Description:        s.Description,
		AffectedEdges:      len(s.Edges),
		VehiclesAffected:   len(s.VehiclesAffected),
		VehiclesRerouted:   len(s.VehiclesRerouted),
		EstimatedClearance: s.EstimatedClearance().Format(time.RFC3339),
		CongestionRadius:   s.CongestionRadius,
		Accessibility:      s.Accessibility,
	}
}

func describe(typ types.EmergencyType, severity types.SeverityLevel, loc geometry.Point) string {
	return fmt.Sprintf("%s %s at location (%.1f, %.1f)",
		lo.ValueOr(severityAdjectives, severity, "Moderate"),
		lo.ValueOr(typeDescriptions, typ, "incident"),
		loc.X, loc.Y,
	)
}
