package types

// VehicleType 车辆类型
type VehicleType int32

const (
	Car VehicleType = iota + 1
	Bus
	AutoRickshaw
	Motorcycle
	Truck
	Bicycle
	Pedestrian
)

var vehicleTypeNames = newNameTable("VehicleType", map[VehicleType]string{
	Car:          "CAR",
	Bus:          "BUS",
	AutoRickshaw: "AUTO_RICKSHAW",
	Motorcycle:   "MOTORCYCLE",
	Truck:        "TRUCK",
	Bicycle:      "BICYCLE",
	Pedestrian:   "PEDESTRIAN",
})

// AllVehicleTypes 固定顺序的全部车辆类型，用于加权抽样时保证确定性
var AllVehicleTypes = []VehicleType{Car, Bus, AutoRickshaw, Motorcycle, Truck, Bicycle, Pedestrian}

func (t VehicleType) String() string               { return vehicleTypeNames.name(t) }
func (t VehicleType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
func (t *VehicleType) UnmarshalText(b []byte) (err error) {
	*t, err = vehicleTypeNames.parse(string(b))
	return
}

// ParseVehicleType 按名称解析车辆类型
func ParseVehicleType(s string) (VehicleType, error) { return vehicleTypeNames.parse(s) }

// IsTwoWheelerOrAuto 摩托车或三轮车（混合交通中纪律性最差的一类）
func (t VehicleType) IsTwoWheelerOrAuto() bool { return t == Motorcycle || t == AutoRickshaw }

// IsHeavy 公交或卡车
func (t VehicleType) IsHeavy() bool { return t == Bus || t == Truck }

// RoadQuality 道路质量
type RoadQuality int32

const (
	QualityExcellent RoadQuality = iota + 1
	QualityGood
	QualityPoor
	QualityVeryPoor
)

var roadQualityNames = newNameTable("RoadQuality", map[RoadQuality]string{
	QualityExcellent: "EXCELLENT",
	QualityGood:      "GOOD",
	QualityPoor:      "POOR",
	QualityVeryPoor:  "VERY_POOR",
})

var AllRoadQualities = []RoadQuality{QualityExcellent, QualityGood, QualityPoor, QualityVeryPoor}

func (q RoadQuality) String() string               { return roadQualityNames.name(q) }
func (q RoadQuality) MarshalText() ([]byte, error) { return []byte(q.String()), nil }
func (q *RoadQuality) UnmarshalText(b []byte) (err error) {
	*q, err = roadQualityNames.parse(string(b))
	return
}

func ParseRoadQuality(s string) (RoadQuality, error) { return roadQualityNames.parse(s) }

// SurfaceType 路面类型
type SurfaceType int32

const (
	SurfaceAsphalt SurfaceType = iota + 1
	SurfaceConcrete
	SurfaceGravel
	SurfaceDirt
	SurfaceCobblestone
)

var surfaceTypeNames = newNameTable("SurfaceType", map[SurfaceType]string{
	SurfaceAsphalt:     "ASPHALT",
	SurfaceConcrete:    "CONCRETE",
	SurfaceGravel:      "GRAVEL",
	SurfaceDirt:        "DIRT",
	SurfaceCobblestone: "COBBLESTONE",
})

func (s SurfaceType) String() string               { return surfaceTypeNames.name(s) }
func (s SurfaceType) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *SurfaceType) UnmarshalText(b []byte) (err error) {
	*s, err = surfaceTypeNames.parse(string(b))
	return
}

// MaintenanceLevel 养护水平
type MaintenanceLevel int32

const (
	WellMaintained MaintenanceLevel = iota + 1
	ModeratelyMaintained
	PoorlyMaintained
	Unmaintained
)

var maintenanceLevelNames = newNameTable("MaintenanceLevel", map[MaintenanceLevel]string{
	WellMaintained:       "WELL_MAINTAINED",
	ModeratelyMaintained: "MODERATELY_MAINTAINED",
	PoorlyMaintained:     "POORLY_MAINTAINED",
	Unmaintained:         "UNMAINTAINED",
})

func (m MaintenanceLevel) String() string               { return maintenanceLevelNames.name(m) }
func (m MaintenanceLevel) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m *MaintenanceLevel) UnmarshalText(b []byte) (err error) {
	*m, err = maintenanceLevelNames.parse(string(b))
	return
}

// ConstructionStatus 施工状态
type ConstructionStatus int32

const (
	ConstructionNone ConstructionStatus = iota + 1
	ConstructionMinor
	ConstructionMajor
	ConstructionClosure
)

var constructionStatusNames = newNameTable("ConstructionStatus", map[ConstructionStatus]string{
	ConstructionNone:    "NO_CONSTRUCTION",
	ConstructionMinor:   "MINOR_WORK",
	ConstructionMajor:   "MAJOR_CONSTRUCTION",
	ConstructionClosure: "ROAD_CLOSURE",
})

func (c ConstructionStatus) String() string               { return constructionStatusNames.name(c) }
func (c ConstructionStatus) MarshalText() ([]byte, error) { return []byte(c.String()), nil }
func (c *ConstructionStatus) UnmarshalText(b []byte) (err error) {
	*c, err = constructionStatusNames.parse(string(b))
	return
}

// WeatherType 天气类型
type WeatherType int32

const (
	Clear WeatherType = iota + 1
	LightRain
	HeavyRain
	Fog
	DustStorm
)

var weatherTypeNames = newNameTable("WeatherType", map[WeatherType]string{
	Clear:     "CLEAR",
	LightRain: "LIGHT_RAIN",
	HeavyRain: "HEAVY_RAIN",
	Fog:       "FOG",
	DustStorm: "DUST_STORM",
})

var AllWeatherTypes = []WeatherType{Clear, LightRain, HeavyRain, Fog, DustStorm}

func (w WeatherType) String() string               { return weatherTypeNames.name(w) }
func (w WeatherType) MarshalText() ([]byte, error) { return []byte(w.String()), nil }
func (w *WeatherType) UnmarshalText(b []byte) (err error) {
	*w, err = weatherTypeNames.parse(string(b))
	return
}

func ParseWeatherType(s string) (WeatherType, error) { return weatherTypeNames.parse(s) }

// EmergencyType 突发事件类型
type EmergencyType int32

const (
	Accident EmergencyType = iota + 1
	Flooding
	RoadClosure
	Construction
	VehicleBreakdown
)

var emergencyTypeNames = newNameTable("EmergencyType", map[EmergencyType]string{
	Accident:         "ACCIDENT",
	Flooding:         "FLOODING",
	RoadClosure:      "ROAD_CLOSURE",
	Construction:     "CONSTRUCTION",
	VehicleBreakdown: "VEHICLE_BREAKDOWN",
})

var AllEmergencyTypes = []EmergencyType{Accident, Flooding, RoadClosure, Construction, VehicleBreakdown}

func (e EmergencyType) String() string               { return emergencyTypeNames.name(e) }
func (e EmergencyType) MarshalText() ([]byte, error) { return []byte(e.String()), nil }
func (e *EmergencyType) UnmarshalText(b []byte) (err error) {
	*e, err = emergencyTypeNames.parse(string(b))
	return
}

func ParseEmergencyType(s string) (EmergencyType, error) { return emergencyTypeNames.parse(s) }

// SeverityLevel 严重程度
type SeverityLevel int32

const (
	SeverityLow SeverityLevel = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityLevelNames = newNameTable("SeverityLevel", map[SeverityLevel]string{
	SeverityLow:      "LOW",
	SeverityMedium:   "MEDIUM",
	SeverityHigh:     "HIGH",
	SeverityCritical: "CRITICAL",
})

var AllSeverityLevels = []SeverityLevel{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

func (s SeverityLevel) String() string               { return severityLevelNames.name(s) }
func (s SeverityLevel) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *SeverityLevel) UnmarshalText(b []byte) (err error) {
	*s, err = severityLevelNames.parse(string(b))
	return
}

func ParseSeverityLevel(s string) (SeverityLevel, error) { return severityLevelNames.parse(s) }

// BehaviorProfile 驾驶风格
type BehaviorProfile int32

const (
	Conservative BehaviorProfile = iota + 1
	Normal
	Aggressive
	Erratic
)

var behaviorProfileNames = newNameTable("BehaviorProfile", map[BehaviorProfile]string{
	Conservative: "CONSERVATIVE",
	Normal:       "NORMAL",
	Aggressive:   "AGGRESSIVE",
	Erratic:      "ERRATIC",
})

func (p BehaviorProfile) String() string               { return behaviorProfileNames.name(p) }
func (p BehaviorProfile) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
func (p *BehaviorProfile) UnmarshalText(b []byte) (err error) {
	*p, err = behaviorProfileNames.parse(string(b))
	return
}

// IntersectionType 路口类型
type IntersectionType int32

const (
	Signalized IntersectionType = iota + 1
	Roundabout
	TJunction
	FourWayStop
	Uncontrolled
)

var intersectionTypeNames = newNameTable("IntersectionType", map[IntersectionType]string{
	Signalized:   "SIGNALIZED",
	Roundabout:   "ROUNDABOUT",
	TJunction:    "T_JUNCTION",
	FourWayStop:  "FOUR_WAY_STOP",
	Uncontrolled: "UNCONTROLLED",
})

func (i IntersectionType) String() string               { return intersectionTypeNames.name(i) }
func (i IntersectionType) MarshalText() ([]byte, error) { return []byte(i.String()), nil }
func (i *IntersectionType) UnmarshalText(b []byte) (err error) {
	*i, err = intersectionTypeNames.parse(string(b))
	return
}

// LaneDiscipline 车道纪律等级
type LaneDiscipline int32

const (
	DisciplineStrict LaneDiscipline = iota + 1
	DisciplineModerate
	DisciplineLoose
	DisciplineChaotic
)

var laneDisciplineNames = newNameTable("LaneDiscipline", map[LaneDiscipline]string{
	DisciplineStrict:   "STRICT",
	DisciplineModerate: "MODERATE",
	DisciplineLoose:    "LOOSE",
	DisciplineChaotic:  "CHAOTIC",
})

func (l LaneDiscipline) String() string               { return laneDisciplineNames.name(l) }
func (l LaneDiscipline) MarshalText() ([]byte, error) { return []byte(l.String()), nil }
func (l *LaneDiscipline) UnmarshalText(b []byte) (err error) {
	*l, err = laneDisciplineNames.parse(string(b))
	return
}
