package mixed

import (
	"math"
	"time"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
)

// InteractionType 车辆对之间的交互类型
type InteractionType string

const (
	InteractionOvertaking     InteractionType = "overtaking"
	InteractionBeingOvertaken InteractionType = "being_overtaken"
	InteractionFollowing      InteractionType = "following"
	InteractionConflict       InteractionType = "conflict"
	InteractionProximity      InteractionType = "proximity"
	InteractionDistant        InteractionType = "distant"
)

// Interaction 两车之间的交互
type Interaction struct {
	Primary            string          `json:"primary_vehicle_id"`
	Secondary          string          `json:"secondary_vehicle_id"`
	Type               InteractionType `json:"interaction_type"`
	Distance           float64         `json:"distance"`            // 米
	RelativeSpeed      float64         `json:"relative_speed"`      // km/h，正值表示Primary更快
	PriorityDifference int             `json:"priority_difference"` // Primary优先级数值减Secondary优先级数值
	ConflictSeverity   float64         `json:"conflict_severity"`   // 0~1
}

// CongestionZone 拥堵区域，每次扫描重新计算
type CongestionZone struct {
	Center        types.Position `json:"center_point"`
	Radius        float64        `json:"radius"`
	Severity      float64        `json:"severity"`
	VehicleCount  int            `json:"vehicle_count"`
	AverageSpeed  float64        `json:"average_speed"` // km/h
	Density       float64        `json:"density"`       // 辆/平方公里
	FormationTime time.Time      `json:"formation_time"`
}

// EmergencyVehicle 登记的紧急车辆
type EmergencyVehicle struct {
	VehicleID            string              `json:"vehicle_id"`
	EmergencyType        types.EmergencyType `json:"emergency_type"`
	PriorityLevel        Priority            `json:"priority_level"`
	SirenRange           float64             `json:"siren_range"` // 米
	RouteClearanceNeeded bool                `json:"route_clearance_needed"`
}

// ActionType 优先级处理产生的动作类型
type ActionType string

const (
	ActionEmergencyYield  ActionType = "emergency_yield"
	ActionBusYield        ActionType = "bus_yield"
	ActionYieldToPriority ActionType = "yield_to_priority"
	ActionAssertPriority  ActionType = "assert_priority"
)

// PriorityAction 优先级交互中某一方需要执行的动作
type PriorityAction struct {
	ActionType                ActionType `json:"action_type"`
	Priority                  string     `json:"priority,omitempty"`
	SpeedAdjustment           float64    `json:"speed_adjustment"`
	LaneChangeRequired        bool       `json:"lane_change_required,omitempty"`
	LaneChangeSuggested       bool       `json:"lane_change_suggested,omitempty"`
	ClearanceDistance         float64    `json:"clearance_distance,omitempty"`
	YieldDistance             float64    `json:"yield_distance,omitempty"`
	FollowingDistanceIncrease float64    `json:"following_distance_increase,omitempty"`
	OvertakingDiscouraged     bool       `json:"overtaking_discouraged,omitempty"`
	OvertakingEncouraged      bool       `json:"overtaking_encouraged,omitempty"`
	GapAcceptanceReduced      float64    `json:"gap_acceptance_reduced,omitempty"`
}

// CongestionBehavior 拥堵区域内的行为修正
type CongestionBehavior struct {
	SpeedReduction              float64 `json:"speed_reduction"`
	FollowingDistanceIncrease   float64 `json:"following_distance_increase"`
	LaneChangeFrequencyIncrease float64 `json:"lane_change_frequency_increase"`
	HornUsageIncrease           float64 `json:"horn_usage_increase"`
	StressLevelIncrease         float64 `json:"stress_level_increase"`
	WeavingIncrease             float64 `json:"weaving_increase,omitempty"`        // 仅摩托车、三轮车
	GapAcceptanceDecrease       float64 `json:"gap_acceptance_decrease,omitempty"` // 仅摩托车、三轮车
	BlockingEffect              float64 `json:"blocking_effect,omitempty"`         // 仅公交、卡车
	LaneChangeDifficulty        float64 `json:"lane_change_difficulty,omitempty"`  // 仅公交、卡车
}

// WeavingBehavior 摩托车、三轮车的穿插行为
type WeavingBehavior struct {
	LateralMovement         float64 `json:"lateral_movement"` // 米，正负表示方向
	SpeedAdvantage          float64 `json:"speed_advantage"`
	LaneDisciplineReduction float64 `json:"lane_discipline_reduction"`
}

// VehicleBehavior 单车在一次扫描中得到的全部行为修正，未触发的部分为空
type VehicleBehavior struct {
	Priority   *PriorityAction     `json:"priority,omitempty"`
	Congestion *CongestionBehavior `json:"congestion,omitempty"`
	Weaving    *WeavingBehavior    `json:"weaving,omitempty"`
}

// HornEvent 鸣笛事件
type HornEvent struct {
	VehicleID   string            `json:"vehicle_id"`
	VehicleType types.VehicleType `json:"vehicle_type"`
	Position    types.Position    `json:"position"`
	Reason      string            `json:"reason"`
}

func distance(a, b geometry.Point) float64 {
	return planar.Distance(orb.Point{a.X, a.Y}, orb.Point{b.X, b.Y})
}

// classify 按相对速度与距离判定交互类型
func classify(d, rel float64) InteractionType {
	switch {
	case math.Abs(rel) > 10:
		if rel > 0 {
			return InteractionOvertaking
		}
		return InteractionBeingOvertaken
	case d < 10:
		if math.Abs(rel) < 2 {
			return InteractionFollowing
		}
		return InteractionConflict
	case d < 30:
		return InteractionProximity
	default:
		return InteractionDistant
	}
}

// conflictSeverity 冲突严重度
// 算法说明：距离项(0.5) + 相对速度项(0.3) + 尺寸差项(0.2)，上限为1
func conflictSeverity(d, rel float64, a, b *vehicle.Vehicle) float64 {
	df := max(0, 1-d/50)
	sf := min(1, math.Abs(rel)/30)
	size := math.Abs(a.SizeFactor() - b.SizeFactor())
	return min(1, df*0.5+sf*0.3+size*0.2)
}

// congestionSeverity 拥堵严重度
// 算法说明：低速项(0.4，50km/h归一) + 密度项(0.4，100辆/平方公里归一) + 数量项(0.2，20辆归一)
func congestionSeverity(avgSpeed, density float64, n int) float64 {
	sf := max(0, 1-avgSpeed/50)
	df := min(1, density/100)
	cf := min(1, float64(n)/20)
	return min(1, sf*0.4+df*0.4+cf*0.2)
}

func congestionBehavior(vt types.VehicleType, severity float64) *CongestionBehavior {
	b := &CongestionBehavior{
		SpeedReduction:              severity * 0.5,
		FollowingDistanceIncrease:   1 + severity*0.5,
		LaneChangeFrequencyIncrease: severity * 2,
		HornUsageIncrease:           severity * 1.5,
		StressLevelIncrease:         lo.Clamp(severity*0.3, 0, 1),
	}
	switch {
	case vt.IsTwoWheelerOrAuto():
		b.WeavingIncrease = severity * 1.5
		b.GapAcceptanceDecrease = severity * 0.3
	case vt.IsHeavy():
		b.BlockingEffect = severity * 0.8
		b.LaneChangeDifficulty = severity * 1.2
	}
	return b
}
