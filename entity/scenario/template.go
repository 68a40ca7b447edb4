// 场景模板：预置的交通配置、天气、时段与突发事件组合
package scenario

import (
	"encoding/json"
	"fmt"

	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/config"
)

// 模板分类
const (
	CategoryIntersection = "intersection"
	CategoryEmergency    = "emergency"
	CategoryRegional     = "regional"
	CategoryPeakHour     = "peak_hour"
)

// EmergencyPreset 模板中预置的突发事件
// 说明：类型与严重度以名称保存，由校验器检查是否合法
type EmergencyPreset struct {
	ScenarioType             string          `json:"scenario_type"`
	Severity                 string          `json:"severity"`
	Location                 *types.Position `json:"location,omitempty"`
	EstimatedDurationMinutes float64         `json:"estimated_duration_minutes,omitempty"`
	Parameters               map[string]any  `json:"parameters,omitempty"` // 描述性参数，不参与仿真
}

// Template 场景模板
type Template struct {
	ID          string `json:"template_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Version     string `json:"version"`
	CreatedDate string `json:"created_date"` // RFC3339

	TrafficConfig config.IndianTrafficConfig `json:"traffic_config"`

	SimulationDuration float64 `json:"simulation_duration"` // 秒
	TimeOfDay          int     `json:"time_of_day"`         // 0~23
	DayOfWeek          int     `json:"day_of_week"`         // 0=周一，6=周日

	WeatherType      types.WeatherType `json:"weather_type"`
	WeatherIntensity float64           `json:"weather_intensity"` // 0~1

	EmergencyScenarios []EmergencyPreset `json:"emergency_scenarios"`

	NetworkBounds       map[string]float64           `json:"network_bounds,omitempty"` // north/south/east/west
	RoadQualityOverride map[string]types.RoadQuality `json:"road_quality_override,omitempty"`

	SpawnPoints       []map[string]float64 `json:"spawn_points"`
	DestinationPoints []map[string]float64 `json:"destination_points"`

	CustomParameters map[string]any `json:"custom_parameters"`

	IsValidated      bool     `json:"is_validated"`
	ValidationErrors []string `json:"validation_errors"`
}

// ToDocument 序列化为JSON文档，枚举以名称保存
func (t *Template) ToDocument() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// FromDocument 由JSON文档还原模板，与ToDocument互逆
func FromDocument(data []byte) (*Template, error) {
	t := &Template{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	if t.ID == "" {
		return nil, fmt.Errorf("decode template: missing template_id")
	}
	return t, nil
}

// Clone 深拷贝
func (t *Template) Clone() (*Template, error) {
	doc, err := t.ToDocument()
	if err != nil {
		return nil, err
	}
	return FromDocument(doc)
}

// Summary 模板摘要
type Summary struct {
	ID                   string            `json:"template_id"`
	Name                 string            `json:"name"`
	Description          string            `json:"description"`
	Category             string            `json:"category"`
	Version              string            `json:"version"`
	CreatedDate          string            `json:"created_date"`
	SimulationDuration   float64           `json:"simulation_duration"`
	WeatherType          types.WeatherType `json:"weather_type"`
	EmergencyCount       int               `json:"emergency_count"`
	IsValidated          bool              `json:"is_validated"`
	ValidationErrorCount int               `json:"validation_error_count"`
}

// Summary 生成摘要
func (t *Template) Summary() Summary {
	return Summary{
		ID:                   t.ID,
		Name:                 t.Name,
		Description:          t.Description,
		Category:             t.Category,
		Version:              t.Version,
		CreatedDate:          t.CreatedDate,
		SimulationDuration:   t.SimulationDuration,
		WeatherType:          t.WeatherType,
		EmergencyCount:       len(t.EmergencyScenarios),
		IsValidated:          t.IsValidated,
		ValidationErrorCount: len(t.ValidationErrors),
	}
}
