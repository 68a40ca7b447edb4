package config

// InputPath 指定输入数据来源的配置（MongoDB、文件系统）
// 功能：定义数据输入路径的配置结构，支持多种数据源
// 说明：File优先级高于MongoDB
type InputPath struct {
	DB   string `yaml:"db,omitempty"`   // 数据库名
	Col  string `yaml:"col,omitempty"`  // 集合名
	File string `yaml:"file,omitempty"` // 文件路径（优先级高于MongoDB）
}

// GetDb 获取数据库名
func (p InputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
func (p InputPath) GetColl() string {
	return p.Col
}

// TemplateInput 场景模板来源
// 功能：指定场景模板目录或MongoDB集合，以及启动时应用的模板ID
type TemplateInput struct {
	Dir   string     `yaml:"dir,omitempty"`   // 模板目录，每个模板一个JSON文件
	Mongo *InputPath `yaml:"mongo,omitempty"` // 模板集合（需要input.uri）
	Apply string     `yaml:"apply,omitempty"` // 启动时应用的模板ID
}

// Input 指定模拟器所有输入数据的配置项
// 功能：定义仿真系统的所有输入数据配置
// 说明：路网可来自文件（json/yaml）或MongoDB
type Input struct {
	URI       string         `yaml:"uri,omitempty"`       // MongoDB连接字符串
	Graph     InputPath      `yaml:"graph"`               // 路网
	Templates *TemplateInput `yaml:"templates,omitempty"` // 场景模板
}

// UpdateIntervals 周期性更新进程的间隔（仿真秒）
type UpdateIntervals struct {
	Weather   float64 `yaml:"weather,omitempty"`     // 天气更新，默认60
	TimeOfDay float64 `yaml:"time_of_day,omitempty"` // 时段推进（每次+1小时），默认30
	Emergency float64 `yaml:"emergency,omitempty"`   // 突发事件更新与生成，默认45
	Obstacle  float64 `yaml:"obstacle,omitempty"`    // 临时障碍注入与清理，默认30
	Dynamics  float64 `yaml:"dynamics,omitempty"`    // 混合交通动力学扫描，默认5
}

// Control 模拟器控制配置
// 功能：定义仿真系统的核心控制参数
// 说明：包含随机种子、仿真时长、车辆生成等核心配置
type Control struct {
	Seed              uint64          `yaml:"seed,omitempty"`                // 随机种子，默认42
	SimSeconds        float64         `yaml:"sim_seconds,omitempty"`         // 仿真时长（秒），默认240
	MaxVehicles       int             `yaml:"max_vehicles,omitempty"`        // 最大生成车辆数，默认14
	SpawnRate         float64         `yaml:"spawn_rate,omitempty"`          // 车辆生成率（辆/秒），默认1/18
	MinPathSeconds    float64         `yaml:"min_path_seconds,omitempty"`    // 起终点最短路最小通行时间，默认45
	StartTime         string          `yaml:"start_time,omitempty"`          // 仿真起始时刻（RFC3339），默认当天12:00
	UseIndianFeatures bool            `yaml:"use_indian_features,omitempty"` // 是否启用混合交通、天气、突发事件等特性
	Intervals         UpdateIntervals `yaml:"intervals,omitempty"`
}

// Config YAML配置文件的根结构
// 功能：定义整个仿真系统的配置结构
// 说明：包含输入、控制、交通参数等所有配置项
type Config struct {
	Input   Input                `yaml:"input"`             // 输入
	Control Control              `yaml:"control"`           // 模拟过程控制
	Traffic *IndianTrafficConfig `yaml:"traffic,omitempty"` // 交通参数，缺省使用内置表
}
