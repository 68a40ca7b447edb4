package vehicle_test

import (
	"strings"
	"testing"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/config"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/randengine"
)

func newFactory(seed uint64) *vehicle.Factory {
	cfg := config.DefaultIndianTrafficConfig()
	return vehicle.NewFactory(&cfg, randengine.New(seed))
}

func TestCreateVehicleIDs(t *testing.T) {
	f := newFactory(42)
	a, err := f.CreateVehicle(types.Car, geometry.Point{}, 0, nil)
	require.NoError(t, err)
	b, err := f.CreateVehicle(types.Motorcycle, geometry.Point{X: 1}, types.Conservative, nil)
	require.NoError(t, err)

	assert.Equal(t, "CAR_000001", a.ID)
	assert.Equal(t, "MOTORCYCLE_000002", b.ID)
	assert.Equal(t, types.Normal, a.BehaviorProfile)
	assert.Equal(t, types.Conservative, b.BehaviorProfile)
	assert.Equal(t, 4.0, a.Length)
	assert.Equal(t, 100.0, b.MaxSpeed)
	assert.Equal(t, 2, f.Statistics().TotalVehiclesCreated)
}

func TestCreateVehicleUnknownType(t *testing.T) {
	f := newFactory(42)
	_, err := f.CreateVehicle(types.Pedestrian, geometry.Point{}, 0, nil)
	assert.Error(t, err)
	assert.Equal(t, 0, f.Statistics().TotalVehiclesCreated)
}

func TestBehaviorParametersRange(t *testing.T) {
	f := newFactory(7)
	for i := 0; i < 200; i++ {
		v, err := f.CreateRandomVehicle(geometry.Point{}, nil)
		require.NoError(t, err)
		p := v.Params
		for _, x := range []float64{p.LaneDisciplineFactor, p.OvertakingAggressiveness, p.SpeedCompliance, p.TrafficLightCompliance, p.RightOfWayRespect, p.RiskTolerance} {
			assert.GreaterOrEqual(t, x, 0.0)
			assert.LessOrEqual(t, x, 1.0)
		}
		assert.GreaterOrEqual(t, p.FollowingDistanceFactor, 0.5)
		assert.GreaterOrEqual(t, p.HornUsageFrequency, 0.1)
		assert.True(t, strings.HasPrefix(v.ID, v.Type.String()+"_"))
		assert.NotEqual(t, types.Pedestrian, v.Type)
	}
}

func TestRandomVehicleDeterministic(t *testing.T) {
	a, b := newFactory(3), newFactory(3)
	batchA, err := a.CreateVehicleBatch(20, make([]geometry.Point, 30))
	require.NoError(t, err)
	batchB, err := b.CreateVehicleBatch(20, make([]geometry.Point, 30))
	require.NoError(t, err)
	require.Len(t, batchA, 20)
	for i := range batchA {
		assert.Equal(t, batchA[i], batchB[i])
	}
}

func TestVehicleMixFollowsRatios(t *testing.T) {
	cfg := config.DefaultIndianTrafficConfig()
	cfg.VehicleMixRatios = map[types.VehicleType]float64{types.Bus: 1}
	f := vehicle.NewFactory(&cfg, randengine.New(1))
	for i := 0; i < 10; i++ {
		v, err := f.CreateRandomVehicle(geometry.Point{}, nil)
		require.NoError(t, err)
		assert.Equal(t, types.Bus, v.Type)
	}
}

func TestSpeedAdjustment(t *testing.T) {
	f := newFactory(1)
	car, _ := f.CreateVehicle(types.Car, geometry.Point{}, 0, nil)
	mc, _ := f.CreateVehicle(types.Motorcycle, geometry.Point{}, 0, nil)
	truck, _ := f.CreateVehicle(types.Truck, geometry.Point{}, 0, nil)

	assert.Equal(t, 1.0, car.CalculateSpeedAdjustment(types.QualityExcellent, types.Clear))
	assert.InDelta(t, 0.5*0.4, car.CalculateSpeedAdjustment(types.QualityVeryPoor, types.DustStorm), 1e-9)
	assert.InDelta(t, 0.5*0.9*0.4*0.8, mc.CalculateSpeedAdjustment(types.QualityVeryPoor, types.DustStorm), 1e-9)
	assert.InDelta(t, 0.6*0.7, truck.CalculateSpeedAdjustment(types.QualityVeryPoor, types.DustStorm), 1e-9)
}

func TestFollowingDistance(t *testing.T) {
	f := newFactory(1)
	car, _ := f.CreateVehicle(types.Car, geometry.Point{}, 0, nil)
	car.Params.FollowingDistanceFactor = 1.5
	assert.InDelta(t, 36*2/3.6*1.5, car.CalculateFollowingDistance(36), 1e-9)
	assert.Equal(t, 2.0, car.CalculateFollowingDistance(0))

	bus, _ := f.CreateVehicle(types.Bus, geometry.Point{}, 0, nil)
	bus.Params.FollowingDistanceFactor = 1
	assert.InDelta(t, 20*1.3, bus.CalculateFollowingDistance(36), 1e-9)
}

func TestShouldUseHorn(t *testing.T) {
	f := newFactory(1)
	auto, _ := f.CreateVehicle(types.AutoRickshaw, geometry.Point{}, 0, nil)
	auto.Params.HornUsageFrequency = 60
	assert.True(t, auto.ShouldUseHorn(0.5, randengine.New(1)))
	auto.Params.HornUsageFrequency = 0
	assert.False(t, auto.ShouldUseHorn(0.5, randengine.New(1)))
}
