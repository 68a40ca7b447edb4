package scenario

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
)

// rule 单条校验规则，返回可读的错误描述
type rule struct {
	name  string
	check func(t *Template) []string
}

// Validator 场景模板校验器
// 功能：依次执行七条规则（车型比例、仿真时长、时间参数、天气参数、突发事件、出生点与目的地、路网边界）
// 说明：规则之间互不依赖，单条规则panic时记录为该规则的错误并继续执行其余规则
type Validator struct {
	rules []rule
}

// NewValidator 创建校验器
func NewValidator() *Validator {
	return &Validator{rules: []rule{
		{"vehicle_mix_ratios_sum", validateVehicleMix},
		{"simulation_duration", validateDuration},
		{"time_parameters", validateTime},
		{"weather_parameters", validateWeather},
		{"emergency_scenarios", validateEmergencies},
		{"spawn_destinations", validateSpawnDestinations},
		{"network_bounds", validateNetworkBounds},
	}}
}

// Validate 校验模板，返回全部错误；合法时返回空切片
func (v *Validator) Validate(t *Template) []string {
	errs := make([]string, 0)
	for _, r := range v.rules {
		errs = append(errs, v.run(r, t)...)
	}
	return errs
}

func (v *Validator) run(r rule, t *Template) (errs []string) {
	defer func() {
		if p := recover(); p != nil {
			errs = []string{fmt.Sprintf("Validation rule '%s' failed: %v", r.name, p)}
		}
	}()
	return r.check(t)
}

func validateVehicleMix(t *Template) []string {
	var errs []string
	ratios := t.TrafficConfig.VehicleMixRatios
	total := lo.Sum(lo.Values(ratios))
	if math.Abs(total-1) > 0.01 {
		errs = append(errs, fmt.Sprintf("Vehicle mix ratios sum to %.3f, should sum to 1.0", total))
	}
	for _, vt := range types.AllVehicleTypes {
		if r, ok := ratios[vt]; ok && r < 0 {
			errs = append(errs, fmt.Sprintf("Negative ratio %v for vehicle type %v", r, vt))
		}
	}
	return errs
}

func validateDuration(t *Template) []string {
	switch {
	case t.SimulationDuration <= 0:
		return []string{"Simulation duration must be positive"}
	case t.SimulationDuration > 86400:
		return []string{"Simulation duration exceeds 24 hours, may cause performance issues"}
	}
	return nil
}

func validateTime(t *Template) []string {
	var errs []string
	if t.TimeOfDay < 0 || t.TimeOfDay > 23 {
		errs = append(errs, fmt.Sprintf("Time of day %d must be between 0 and 23", t.TimeOfDay))
	}
	if t.DayOfWeek < 0 || t.DayOfWeek > 6 {
		errs = append(errs, fmt.Sprintf("Day of week %d must be between 0 and 6", t.DayOfWeek))
	}
	return errs
}

func validateWeather(t *Template) []string {
	if t.WeatherIntensity < 0 || t.WeatherIntensity > 1 {
		return []string{fmt.Sprintf("Weather intensity %v must be between 0.0 and 1.0", t.WeatherIntensity)}
	}
	return nil
}

func validateEmergencies(t *Template) []string {
	var errs []string
	for i, e := range t.EmergencyScenarios {
		if e.ScenarioType == "" {
			errs = append(errs, fmt.Sprintf("Emergency scenario %d missing required field 'scenario_type'", i))
		} else if _, err := types.ParseEmergencyType(e.ScenarioType); err != nil {
			errs = append(errs, fmt.Sprintf("Invalid emergency type '%s' in scenario %d", e.ScenarioType, i))
		}
		if e.Location == nil {
			errs = append(errs, fmt.Sprintf("Emergency scenario %d missing required field 'location'", i))
		}
		if e.Severity == "" {
			errs = append(errs, fmt.Sprintf("Emergency scenario %d missing required field 'severity'", i))
		} else if _, err := types.ParseSeverityLevel(e.Severity); err != nil {
			errs = append(errs, fmt.Sprintf("Invalid severity level '%s' in scenario %d", e.Severity, i))
		}
	}
	return errs
}

func validatePoints(kind string, points []map[string]float64) []string {
	var errs []string
	for i, p := range points {
		for _, k := range []string{"x", "y"} {
			if _, ok := p[k]; !ok {
				errs = append(errs, fmt.Sprintf("%s %d missing coordinate '%s'", kind, i, k))
			}
		}
	}
	return errs
}

func validateSpawnDestinations(t *Template) []string {
	return append(
		validatePoints("Spawn point", t.SpawnPoints),
		validatePoints("Destination point", t.DestinationPoints)...,
	)
}

func validateNetworkBounds(t *Template) []string {
	b := t.NetworkBounds
	if b == nil {
		return nil
	}
	var errs []string
	complete := true
	for _, k := range []string{"north", "south", "east", "west"} {
		if _, ok := b[k]; !ok {
			errs = append(errs, fmt.Sprintf("Network bounds missing '%s' coordinate", k))
			complete = false
		}
	}
	if complete {
		if b["north"] <= b["south"] {
			errs = append(errs, "North bound must be greater than south bound")
		}
		if b["east"] <= b["west"] {
			errs = append(errs, "East bound must be greater than west bound")
		}
	}
	return errs
}
