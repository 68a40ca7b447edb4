package mixed_test

import (
	"fmt"
	"testing"
	"time"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/mixed"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/randengine"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newVehicle(id string, vt types.VehicleType, x, y, speed float64) *vehicle.Vehicle {
	return &vehicle.Vehicle{ID: id, Type: vt, Position: geometry.Point{X: x, Y: y}, Speed: speed}
}

func newManager(vs ...*vehicle.Vehicle) *mixed.Manager {
	m := mixed.NewManager(randengine.New(42))
	for _, v := range vs {
		m.Register(v)
	}
	return m
}

func TestRegistry(t *testing.T) {
	m := newManager(newVehicle("CAR_000001", types.Car, 0, 0, 0))
	require.Equal(t, 1, m.Len())

	replaced := newVehicle("CAR_000001", types.Car, 10, 0, 0)
	m.Register(replaced)
	assert.Equal(t, 1, m.Len())
	assert.Same(t, replaced, m.Get("CAR_000001"))

	assert.True(t, m.UpdateVehiclePosition("CAR_000001", geometry.Point{X: 5, Y: 5}, 90))
	assert.Equal(t, geometry.Point{X: 5, Y: 5}, replaced.Position)
	assert.Equal(t, 90., replaced.Heading)
	assert.False(t, m.UpdateVehiclePosition("BUS_000001", geometry.Point{}, 0))

	amb := newVehicle("CAR_000002", types.Car, 0, 0, 0)
	m.RegisterEmergencyVehicle(amb, types.Accident, 0)
	assert.Equal(t, 1, m.Statistics().EmergencyVehicles)

	assert.True(t, m.Unregister("CAR_000002"))
	assert.False(t, m.Unregister("CAR_000002"))
	assert.Equal(t, 0, m.Statistics().EmergencyVehicles)

	_, err := m.GetOrError("CAR_000002")
	assert.Error(t, err)
	assert.Panics(t, func() { m.Get("CAR_000002") })
}

func TestAnalyzeInteractions(t *testing.T) {
	m := newManager(
		newVehicle("CAR_000001", types.Car, 0, 0, 40),
		newVehicle("CAR_000002", types.Car, 5, 0, 39),
		newVehicle("TRUCK_000001", types.Truck, 20, 0, 60),
		newVehicle("MOTORCYCLE_000001", types.Motorcycle, 200, 0, 30),
	)
	its := m.AnalyzeInteractions(50)
	require.Len(t, its, 3)

	assert.Equal(t, "CAR_000001", its[0].Primary)
	assert.Equal(t, "CAR_000002", its[0].Secondary)
	assert.Equal(t, mixed.InteractionFollowing, its[0].Type)
	assert.InDelta(t, 0.46, its[0].ConflictSeverity, 1e-9)
	assert.Equal(t, 0, its[0].PriorityDifference)

	assert.Equal(t, "TRUCK_000001", its[1].Secondary)
	assert.Equal(t, mixed.InteractionBeingOvertaken, its[1].Type)
	assert.InDelta(t, -20, its[1].RelativeSpeed, 1e-9)
	assert.InDelta(t, 0.3+0.2+0.08, its[1].ConflictSeverity, 1e-9)
	assert.Equal(t, 1, its[1].PriorityDifference)

	assert.Equal(t, "CAR_000002", its[2].Primary)
	assert.Equal(t, mixed.InteractionBeingOvertaken, its[2].Type)

	m.AnalyzeInteractions(50)
	s := m.Statistics()
	assert.Equal(t, 3, s.ActiveInteractions)
	assert.Equal(t, 6, s.TotalInteractionsProcessed)
}

func TestInteractionClassification(t *testing.T) {
	cases := []struct {
		d, own, other float64
		want          mixed.InteractionType
	}{
		{5, 40, 35, mixed.InteractionConflict},
		{5, 40, 41, mixed.InteractionFollowing},
		{20, 40, 35, mixed.InteractionProximity},
		{40, 40, 35, mixed.InteractionDistant},
		{40, 60, 35, mixed.InteractionOvertaking},
	}
	for _, c := range cases {
		m := newManager(
			newVehicle("CAR_000001", types.Car, 0, 0, c.own),
			newVehicle("CAR_000002", types.Car, c.d, 0, c.other),
		)
		its := m.AnalyzeInteractions(0)
		require.Len(t, its, 1)
		assert.Equal(t, c.want, its[0].Type, "d=%v rel=%v", c.d, c.own-c.other)
	}
}

func TestHandleVehiclePriority(t *testing.T) {
	amb := newVehicle("CAR_000001", types.Car, 0, 0, 50)
	m := newManager(newVehicle("CAR_000002", types.Car, 10, 0, 40))
	m.RegisterEmergencyVehicle(amb, types.Accident, 100)
	actions := m.HandleVehiclePriority(m.AnalyzeInteractions(50))
	require.Len(t, actions, 1)
	assert.Equal(t, mixed.ActionEmergencyYield, actions["CAR_000002"].ActionType)
	assert.Equal(t, 0.5, actions["CAR_000002"].SpeedAdjustment)
	assert.Equal(t, 20., actions["CAR_000002"].ClearanceDistance)

	m = newManager(
		newVehicle("BUS_000001", types.Bus, 0, 0, 30),
		newVehicle("CAR_000001", types.Car, 10, 0, 30),
	)
	actions = m.HandleVehiclePriority(m.AnalyzeInteractions(50))
	require.Len(t, actions, 1)
	assert.Equal(t, mixed.ActionBusYield, actions["CAR_000001"].ActionType)
	assert.Equal(t, 0.8, actions["CAR_000001"].SpeedAdjustment)

	m = newManager(
		newVehicle("MOTORCYCLE_000001", types.Motorcycle, 0, 0, 30),
		newVehicle("TRUCK_000001", types.Truck, 10, 0, 30),
	)
	actions = m.HandleVehiclePriority(m.AnalyzeInteractions(50))
	require.Len(t, actions, 2)
	assert.Equal(t, mixed.ActionYieldToPriority, actions["MOTORCYCLE_000001"].ActionType)
	assert.True(t, actions["MOTORCYCLE_000001"].OvertakingDiscouraged)
	assert.Equal(t, mixed.ActionAssertPriority, actions["TRUCK_000001"].ActionType)

	m = newManager(
		newVehicle("CAR_000001", types.Car, 0, 0, 30),
		newVehicle("CAR_000002", types.Car, 10, 0, 30),
	)
	assert.Empty(t, m.HandleVehiclePriority(m.AnalyzeInteractions(50)))
}

func TestDetectCongestionZones(t *testing.T) {
	bus := newVehicle("BUS_000001", types.Bus, 40, 40, 0)
	m := newManager(
		newVehicle("CAR_000001", types.Car, 10, 10, 0),
		newVehicle("CAR_000002", types.Car, 20, 20, 0),
		newVehicle("CAR_000003", types.Car, 30, 30, 0),
		bus,
		newVehicle("CAR_000004", types.Car, 510, 10, 0),
		newVehicle("CAR_000005", types.Car, 520, 10, 0),
	)
	zones := m.DetectCongestionZones(100, t0)
	require.Len(t, zones, 1)
	z := zones[0]
	assert.Equal(t, 4, z.VehicleCount)
	assert.InDelta(t, 25, z.Center.X, 1e-9)
	assert.InDelta(t, 25, z.Center.Y, 1e-9)
	assert.InDelta(t, 0.84, z.Severity, 1e-9)
	assert.InDelta(t, 400, z.Density, 1e-9)
	assert.Equal(t, 50., z.Radius)
	assert.Equal(t, t0, z.FormationTime)

	behaviors := m.ApplyCongestionBehavior(zones)
	assert.Len(t, behaviors, 4)
	assert.NotContains(t, behaviors, "CAR_000004")
	assert.InDelta(t, 0.84*0.8, behaviors["BUS_000001"].BlockingEffect, 1e-9)
	assert.InDelta(t, 0.42, behaviors["CAR_000001"].SpeedReduction, 1e-9)
	assert.Zero(t, behaviors["CAR_000001"].BlockingEffect)

	for _, id := range []string{"CAR_000001", "CAR_000002", "CAR_000003", "BUS_000001"} {
		m.Get(id).Speed = 50
	}
	assert.Empty(t, m.DetectCongestionZones(100, t0))
	assert.Equal(t, 1, m.Statistics().TotalCongestionEvents)
}

func TestWeavingOnlyForTwoWheelersAndAutos(t *testing.T) {
	m := newManager()
	for i := range 40 {
		m.Register(newVehicle(fmt.Sprintf("MOTORCYCLE_%06d", i+1), types.Motorcycle, float64(i)*1000, 0, 30))
	}
	for i := range 10 {
		m.Register(newVehicle(fmt.Sprintf("CAR_%06d", i+1), types.Car, float64(i)*1000, 500, 30))
	}
	weaving := m.SimulateWeaving()
	assert.NotEmpty(t, weaving)
	assert.Less(t, len(weaving), 40)
	for id, w := range weaving {
		assert.Equal(t, types.Motorcycle, m.Get(id).Type)
		assert.LessOrEqual(t, w.LateralMovement, 0.5)
		assert.GreaterOrEqual(t, w.LateralMovement, -0.5)
		assert.Equal(t, 1.2, w.SpeedAdvantage)
	}
}

func TestHornUsage(t *testing.T) {
	quiet := newVehicle("CAR_000001", types.Car, 0, 0, 0)
	loud := newVehicle("AUTO_RICKSHAW_000001", types.AutoRickshaw, 10, 0, 0)
	loud.Params.HornUsageFrequency = 600
	loud.TimeSinceHorn = 30
	m := newManager(quiet, loud)

	events := m.SimulateHornUsage(5)
	require.Len(t, events, 1)
	assert.Equal(t, "AUTO_RICKSHAW_000001", events[0].VehicleID)
	assert.Equal(t, types.AutoRickshaw, events[0].VehicleType)
	assert.Equal(t, types.Position{X: 10}, events[0].Position)
	assert.NotEmpty(t, events[0].Reason)
	assert.Zero(t, loud.TimeSinceHorn)
	assert.Equal(t, 5., quiet.TimeSinceHorn)
}

func TestSimulateMixedVehicleDynamics(t *testing.T) {
	m := newManager(
		newVehicle("BUS_000001", types.Bus, 0, 0, 20),
		newVehicle("CAR_000001", types.Car, 10, 0, 25),
		newVehicle("MOTORCYCLE_000001", types.Motorcycle, 500, 500, 40),
	)
	r := m.SimulateMixedVehicleDynamics(5, t0)
	require.Len(t, r.Interactions, 1)
	require.Contains(t, r.VehicleBehaviors, "CAR_000001")
	assert.Equal(t, mixed.ActionBusYield, r.VehicleBehaviors["CAR_000001"].Priority.ActionType)
	assert.Nil(t, r.VehicleBehaviors["CAR_000001"].Congestion)
	assert.Empty(t, r.CongestionZones)

	assert.Equal(t, 3, r.Statistics.TotalVehicles)
	assert.Equal(t, map[types.VehicleType]int{types.Bus: 1, types.Car: 1, types.Motorcycle: 1}, r.Statistics.VehicleTypeDistribution)
	assert.Equal(t, 1, r.Statistics.TotalInteractionsProcessed)

	r = m.SimulateMixedVehicleDynamics(5, t0.Add(5*time.Second))
	assert.Equal(t, 2, r.Statistics.TotalInteractionsProcessed)
}
