package mixed

import "github.com/tsinghua-fib-lab/mixedtraffic-sim/types"

// Priority 通行优先级，数值越小越优先
type Priority int32

const (
	PriorityEmergency Priority = iota + 1
	PriorityBus
	PriorityTruck
	PriorityCar
	PriorityAutoRickshaw
	PriorityMotorcycle
	PriorityBicycle
)

var vehiclePriorities = map[types.VehicleType]Priority{
	types.Bus:          PriorityBus,
	types.Truck:        PriorityTruck,
	types.Car:          PriorityCar,
	types.AutoRickshaw: PriorityAutoRickshaw,
	types.Motorcycle:   PriorityMotorcycle,
	types.Bicycle:      PriorityBicycle,
}

const (
	defaultInteractionRadius = 50.
	defaultGridSize          = 100.
	defaultSirenRange        = 100.
	congestionThreshold      = 0.7
	minCongestionVehicles    = 3
)

// 紧急车辆避让
const (
	emergencyClearanceDistance = 20.
	emergencySpeedReduction    = 0.5
	emergencyLaneChangeProb    = 0.9
)

// 公交优先
const (
	busYieldDistance   = 10.
	busSpeedAdjustment = 0.8
	busLaneChangeProb  = 0.6
)

// 摩托车/三轮车穿插
const (
	weavingProbability     = 0.3
	weavingLateralMovement = 0.5
	weavingSpeedAdvantage  = 1.2
)

var hornReasons = []string{"overtaking", "frustration", "warning", "greeting", "clearing_path"}
