package vehicle

import (
	"fmt"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/config"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/randengine"
)

// profileModifier 驾驶风格对行为参数的修正
type profileModifier struct {
	lane, overtake, follow, speedCompliance, risk float64
}

var profileModifiers = map[types.BehaviorProfile]profileModifier{
	types.Conservative: {1.2, 0.6, 1.3, 1.1, 0.7},
	types.Normal:       {1.0, 1.0, 1.0, 1.0, 1.0},
	types.Aggressive:   {0.8, 1.4, 0.8, 0.9, 1.3},
	types.Erratic:      {0.6, 1.2, 0.9, 0.7, 1.5},
}

// Statistics 工厂统计
type Statistics struct {
	TotalVehiclesCreated   int                           `json:"total_vehicles_created"`
	ConfiguredVehicleTypes []types.VehicleType           `json:"configured_vehicle_types"`
	VehicleMixRatios       map[types.VehicleType]float64 `json:"vehicle_mix_ratios"`
}

// Factory 车辆工厂
// 功能：按车型配置与构成比例创建车辆，并为每辆车随机化行为参数
// 说明：计数器严格递增，车辆ID在同一工厂内唯一
type Factory struct {
	cfg     *config.IndianTrafficConfig
	rng     *randengine.Engine
	counter int
}

// NewFactory 创建车辆工厂
func NewFactory(cfg *config.IndianTrafficConfig, rng *randengine.Engine) *Factory {
	return &Factory{cfg: cfg, rng: rng}
}

// CreateVehicle 创建指定类型的车辆
// 参数：vt-车辆类型，pos-初始位置，profile-驾驶风格（0表示使用车型默认值），dest-目的地（可为空）
// 返回：车辆；车型没有配置时返回error且不消耗计数
func (f *Factory) CreateVehicle(vt types.VehicleType, pos geometry.Point, profile types.BehaviorProfile, dest *geometry.Point) (*Vehicle, error) {
	vc, ok := f.cfg.VehicleConfigs[vt]
	if !ok {
		return nil, fmt.Errorf("no vehicle config for %v", vt)
	}
	if profile == 0 {
		profile = vc.DefaultBehaviorProfile
	}
	f.counter++
	v := &Vehicle{
		ID:              fmt.Sprintf("%s_%06d", vt, f.counter),
		Type:            vt,
		BehaviorProfile: profile,
		Length:          vc.Length,
		Width:           vc.Width,
		Height:          vc.Height,
		MaxSpeed:        vc.MaxSpeed,
		Acceleration:    vc.Acceleration,
		Deceleration:    vc.Deceleration,
		Position:        pos,
		Destination:     dest,
		Params:          f.behaviorParameters(vt, profile, vc),
	}
	log.Debugf("created vehicle %s (%v)", v.ID, profile)
	return v, nil
}

// CreateRandomVehicle 按构成比例随机选择车型并创建车辆
// 说明：按枚举固定顺序加权抽样，保证同种子可复现
func (f *Factory) CreateRandomVehicle(pos geometry.Point, dest *geometry.Point) (*Vehicle, error) {
	return f.CreateVehicle(f.randomType(), pos, 0, dest)
}

// CreateVehicleBatch 批量创建，数量取n与位置数的较小值
func (f *Factory) CreateVehicleBatch(n int, positions []geometry.Point) ([]*Vehicle, error) {
	n = min(n, len(positions))
	res := make([]*Vehicle, 0, n)
	for i := 0; i < n; i++ {
		v, err := f.CreateRandomVehicle(positions[i], nil)
		if err != nil {
			return res, err
		}
		res = append(res, v)
	}
	return res, nil
}

// BehaviorParameters 为指定车型与风格生成一组随机化的行为参数
func (f *Factory) BehaviorParameters(vt types.VehicleType, profile types.BehaviorProfile) (BehaviorParameters, error) {
	vc, ok := f.cfg.VehicleConfigs[vt]
	if !ok {
		return BehaviorParameters{}, fmt.Errorf("no vehicle config for %v", vt)
	}
	return f.behaviorParameters(vt, profile, vc), nil
}

// Statistics 工厂统计
func (f *Factory) Statistics() Statistics {
	return Statistics{
		TotalVehiclesCreated: f.counter,
		ConfiguredVehicleTypes: lo.Filter(types.AllVehicleTypes, func(vt types.VehicleType, _ int) bool {
			_, ok := f.cfg.VehicleMixRatios[vt]
			return ok
		}),
		VehicleMixRatios: f.cfg.VehicleMixRatios,
	}
}

func (f *Factory) randomType() types.VehicleType {
	candidates := lo.Filter(types.AllVehicleTypes, func(vt types.VehicleType, _ int) bool {
		_, ok := f.cfg.VehicleMixRatios[vt]
		return ok
	})
	if len(candidates) == 0 {
		return types.Car
	}
	weights := lo.Map(candidates, func(vt types.VehicleType, _ int) float64 {
		return f.cfg.VehicleMixRatios[vt]
	})
	if lo.Sum(weights) <= 0 {
		return candidates[f.rng.Intn(len(candidates))]
	}
	return randengine.Choice(f.rng, candidates, weights)
}

// behaviorParameters 生成随机化的行为参数
// 算法说明：
// 1. 基础值来自行为参数表与车型配置，乘以驾驶风格修正
// 2. 0~1型参数乘以U(0.8, 1.2)后截断到[0, 1]
// 3. 跟车距离不低于0.5，鸣笛频率乘以U(0.5, 1.5)且不低于0.1
func (f *Factory) behaviorParameters(vt types.VehicleType, profile types.BehaviorProfile, vc config.VehicleConfig) BehaviorParameters {
	bc := &f.cfg.BehaviorConfig
	mod, ok := profileModifiers[profile]
	if !ok {
		mod = profileModifiers[types.Normal]
	}
	randomize := func(v float64) float64 {
		return lo.Clamp(v*f.rng.Uniform(0.8, 1.2), 0, 1)
	}
	return BehaviorParameters{
		LaneDisciplineFactor:     randomize(lo.ValueOr(bc.LaneDisciplineByVehicle, vt, 0.5) * mod.lane),
		OvertakingAggressiveness: randomize(lo.ValueOr(bc.OvertakingAggressiveness, vt, 0.5) * mod.overtake),
		FollowingDistanceFactor:  max(0.5, lo.ValueOr(bc.FollowingDistanceFactors, profile, 1.5)*mod.follow*f.rng.Uniform(0.8, 1.2)),
		SpeedCompliance:          randomize(0.8 * mod.speedCompliance),
		HornUsageFrequency:       max(0.1, vc.HornUsageFrequency*f.rng.Uniform(0.5, 1.5)),
		TrafficLightCompliance:   randomize(vc.TrafficLightCompliance),
		RightOfWayRespect:        randomize(vc.RightOfWayRespect),
		RiskTolerance:            randomize(0.5 * mod.risk),
	}
}
