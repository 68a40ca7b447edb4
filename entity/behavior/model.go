// 混合交通驾驶行为模型：车道纪律、超车、路口行为、天气影响与驾驶压力
package behavior

import (
	"strings"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/config"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/randengine"
)

// TrafficState 当前交通状态（瞬时值）
type TrafficState struct {
	Density         float64 `json:"density"`          // 归一化密度
	AverageSpeed    float64 `json:"average_speed"`    // km/h
	CongestionLevel float64 `json:"congestion_level"` // 0~1
	LaneCount       int     `json:"lane_count"`
	RoadWidth       float64 `json:"road_width"` // 米
}

// RoadConditions 车道纪律计算的道路输入
// 说明：Quality、LaneCount、Width为零值时表示缺少标签，使用默认值；
// TrafficDensity为零表示空路，调用方没有估计时自行传入0.5
type RoadConditions struct {
	Quality        types.RoadQuality // 默认GOOD
	LaneCount      int               // 默认2
	Width          float64           // 默认7米
	TrafficDensity float64           // [0, 1]
}

func (c RoadConditions) withDefaults() RoadConditions {
	if c.Quality == 0 {
		c.Quality = types.QualityGood
	}
	if c.LaneCount == 0 {
		c.LaneCount = 2
	}
	if c.Width == 0 {
		c.Width = 7
	}
	return c
}

// StressConditions 驾驶压力的输入
type StressConditions struct {
	Density      float64
	CurrentSpeed float64 // km/h
	DesiredSpeed float64 // km/h
	Weather      types.WeatherType
}

// LaneDisciplineResult 车道纪律计算结果
type LaneDisciplineResult struct {
	Level                 types.LaneDiscipline `json:"discipline_level"`
	LaneChangeProbability float64              `json:"lane_change_probability"` // 次/分钟
	LateralDeviation      float64              `json:"lateral_deviation"`       // 偏离车道中心（米）
	SpeedVariance         float64              `json:"speed_variance"`          // 速度变异系数
}

// OvertakeDecision 超车决策
type OvertakeDecision struct {
	ShouldOvertake       bool    `json:"should_overtake"`
	Confidence           float64 `json:"confidence"`
	RequiredGap          float64 `json:"required_gap"` // 秒
	RiskLevel            float64 `json:"risk_level"`
	EstimatedTimeSavings float64 `json:"estimated_time_savings"` // 秒
}

// IntersectionBehavior 路口行为参数
type IntersectionBehavior struct {
	ApproachSpeedFactor     float64 `json:"approach_speed_factor"`
	StoppingProbability     float64 `json:"stopping_probability"`
	RightTurnAggressiveness float64 `json:"right_turn_aggressiveness"`
	GapAcceptanceThreshold  float64 `json:"gap_acceptance_threshold"` // 秒
	HornUsageProbability    float64 `json:"horn_usage_probability"`
}

// Model 驾驶行为模型
// 功能：根据车辆类型、道路与交通状态给出车道纪律、超车、路口与压力等行为参数
// 说明：除DetermineOvertakingBehavior外均为纯函数；随机数来自共享引擎
type Model struct {
	cfg config.BehaviorConfig
	rng *randengine.Engine
}

// New 创建行为模型
// 参数：cfg-行为参数表（已填充默认值），rng-共享随机数引擎
func New(cfg config.BehaviorConfig, rng *randengine.Engine) *Model {
	return &Model{cfg: cfg, rng: rng}
}

// CalculateLaneDiscipline 计算车道纪律
// 功能：由车辆基础纪律、道路质量、车道数、路宽与密度得到纪律因子及派生指标
// 算法说明：
// 1. 因子 = 基础纪律 × 路况系数 × 0.9^(车道数-2) × 路宽系数 × (1-0.3·密度) × 车型系数
// 2. 因子截断到[0, 1]后按0.8/0.6/0.4阈值划分等级
// 3. 换道概率、横向偏移、速度变异由因子与车型推出
func (m *Model) CalculateLaneDiscipline(vt types.VehicleType, rc RoadConditions) LaneDisciplineResult {
	rc = rc.withDefaults()
	f := lo.ValueOr(m.cfg.LaneDisciplineByVehicle, vt, 0.5)
	f *= lo.ValueOr(disciplineQualityFactors, rc.Quality, 1.0)
	for i := 2; i < rc.LaneCount; i++ {
		f *= 0.9
	}
	switch {
	case rc.Width < 6:
		f *= 0.8
	case rc.Width > 10:
		f *= 1.1
	}
	f *= 1 - 0.3*rc.TrafficDensity
	switch {
	case vt == types.Motorcycle:
		f *= 0.7
	case vt == types.AutoRickshaw:
		f *= 0.6
	case vt.IsHeavy():
		f *= 1.2
	}
	f = lo.Clamp(f, 0, 1)

	level := types.DisciplineChaotic
	switch {
	case f >= 0.8:
		level = types.DisciplineStrict
	case f >= 0.6:
		level = types.DisciplineModerate
	case f >= 0.4:
		level = types.DisciplineLoose
	}

	lateral := 0.5 * (1 - f)
	variance := 0.2 * (1 - f)
	switch {
	case vt == types.Motorcycle:
		lateral *= 1.5
	case vt == types.AutoRickshaw:
		lateral *= 1.3
	case vt.IsHeavy():
		lateral *= 0.8
	}
	switch {
	case vt.IsTwoWheelerOrAuto():
		variance *= 1.4
	case vt.IsHeavy():
		variance *= 0.7
	}
	return LaneDisciplineResult{
		Level:                 level,
		LaneChangeProbability: 2 * (1 - f) * (1 + rc.TrafficDensity),
		LateralDeviation:      lateral,
		SpeedVariance:         variance,
	}
}

// DetermineOvertakingProbability 超车倾向，随密度单调不增
func (m *Model) DetermineOvertakingProbability(vt types.VehicleType, density float64) float64 {
	base := lo.ValueOr(m.cfg.OvertakingAggressiveness, vt, 0.5)
	p := base * max(0.1, 1-density) * lo.ValueOr(overtakeVehicleFactors, vt, 1.0)
	return lo.Clamp(p, 0, 1)
}

// DetermineOvertakingBehavior 具体超车决策
// 功能：根据与前车的速度差、密度与拥堵程度决定是否超车，并给出所需间隙、风险与节省时间
// 参数：leading-前车速度，own-本车期望速度（km/h）
// 说明：速度差不超过5 km/h时不超车且不消耗随机数
func (m *Model) DetermineOvertakingBehavior(vt types.VehicleType, ts TrafficState, leading, own float64) OvertakeDecision {
	diff := own - leading
	if diff <= 5 {
		return OvertakeDecision{}
	}
	confidence := m.DetermineOvertakingProbability(vt, ts.Density) *
		min(2, diff/20) * (1 - ts.CongestionLevel*0.5)
	confidence = lo.Clamp(confidence, 0, 1)
	if !m.rng.PTrue(confidence) {
		return OvertakeDecision{Confidence: confidence}
	}
	risk := (ts.Density*0.4 + ts.CongestionLevel*0.3 + min(0.3, diff/100)) *
		lo.ValueOr(overtakeRiskFactors, vt, 1.0)
	return OvertakeDecision{
		ShouldOvertake:       true,
		Confidence:           confidence,
		RequiredGap:          lo.ValueOr(overtakeBaseGaps, vt, 3.0) * (1 + diff/50),
		RiskLevel:            lo.Clamp(risk, 0, 1),
		EstimatedTimeSavings: max(0, diff*0.1*(1-ts.Density*0.5)),
	}
}

// ModelIntersectionBehavior 路口行为
// 说明：信号灯路口的停车概率不低于无控制路口
func (m *Model) ModelIntersectionBehavior(vt types.VehicleType, it types.IntersectionType) IntersectionBehavior {
	base := intersectionBases[it]
	adj, ok := intersectionAdjustments[vt]
	if !ok {
		adj = intersectionAdjustments[types.Car]
	}
	stopping := lo.ValueOr(base, "base_stopping_prob", 0.7)
	if vt.IsTwoWheelerOrAuto() {
		stopping *= 0.8
	}
	return IntersectionBehavior{
		ApproachSpeedFactor:     0.8 * adj.aggressiveness,
		StoppingProbability:     stopping,
		RightTurnAggressiveness: 0.6 * adj.aggressiveness,
		GapAcceptanceThreshold:  lo.ValueOr(base, "gap_acceptance", 3.0) * adj.gapAcceptance,
		HornUsageProbability:    lo.ValueOr(base, "horn_usage", 0.5) * adj.horn,
	}
}

// ApplyWeatherEffects 将天气影响作用到行为参数
// 功能：按参数名包含的关键字选择系数：speed、following/distance、lane/discipline、overtaking/overtake
// 说明：按上述顺序匹配首个关键字；不匹配的参数原样返回；晴天为恒等变换
func (m *Model) ApplyWeatherEffects(params map[string]float64, w types.WeatherType) map[string]float64 {
	eff, ok := weatherBehaviorEffects[w]
	if !ok {
		eff = weatherBehaviorEffects[types.Clear]
	}
	return lo.MapValues(params, func(v float64, key string) float64 {
		k := strings.ToLower(key)
		switch {
		case strings.Contains(k, "speed"):
			return v * eff.speed
		case strings.Contains(k, "following") || strings.Contains(k, "distance"):
			return v * eff.following
		case strings.Contains(k, "lane") || strings.Contains(k, "discipline"):
			return v * eff.lane
		case strings.Contains(k, "overtaking") || strings.Contains(k, "overtake"):
			return v * eff.overtaking
		}
		return v
	})
}

// CalculateStressLevel 驾驶压力，取值[0, 1]
func (m *Model) CalculateStressLevel(vt types.VehicleType, sc StressConditions) float64 {
	speedStress := max(0, (1-sc.CurrentSpeed/max(sc.DesiredSpeed, 1))*0.3)
	stress := 0.3 + sc.Density*0.4 + speedStress + weatherStress[sc.Weather]
	return lo.Clamp(stress/lo.ValueOr(stressTolerance, vt, 1.0), 0, 1)
}
