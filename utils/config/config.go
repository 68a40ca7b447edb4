package config

import (
	"fmt"
	"time"
)

const (
	DefaultSeed           = 42
	DefaultSimSeconds     = 240.
	DefaultMaxVehicles    = 14
	DefaultSpawnRate      = 1 / 18.
	DefaultMinPathSeconds = 45.
)

// RuntimeConfig 运行时配置
// 功能：存储仿真运行时的配置信息，所有缺省值均已填充
// 说明：将YAML配置转换为运行时可用的配置对象
type RuntimeConfig struct {
	All     Config              // 全部配置
	C       Control             // 全局控制配置（已填充默认值）
	Traffic IndianTrafficConfig // 交通参数（已填充默认值）
	Start   time.Time           // 仿真起始时刻
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：创建运行时配置对象，填充默认值并解析起始时刻
// 参数：config-原始配置对象
// 返回：运行时配置指针，起始时刻格式错误时返回error
// 算法说明：
// 1. 控制参数中为零的字段使用默认值
// 2. 交通参数缺省时使用内置表，部分缺省时逐项补齐
// 3. 起始时刻缺省为2024-01-01 12:00:00 UTC
func NewRuntimeConfig(config Config) (*RuntimeConfig, error) {
	rc := &RuntimeConfig{All: config, C: config.Control}

	c := &rc.C
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	if c.SimSeconds <= 0 {
		c.SimSeconds = DefaultSimSeconds
	}
	if c.MaxVehicles <= 0 {
		c.MaxVehicles = DefaultMaxVehicles
	}
	if c.SpawnRate <= 0 {
		c.SpawnRate = DefaultSpawnRate
	}
	if c.MinPathSeconds <= 0 {
		c.MinPathSeconds = DefaultMinPathSeconds
	}
	c.Intervals = c.Intervals.withDefaults()

	if config.Traffic != nil {
		rc.Traffic = *config.Traffic
		rc.Traffic.FillDefaults()
	} else {
		rc.Traffic = DefaultIndianTrafficConfig()
	}

	rc.Start = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	if c.StartTime != "" {
		t, err := time.Parse(time.RFC3339, c.StartTime)
		if err != nil {
			return nil, fmt.Errorf("invalid control.start_time %q: %w", c.StartTime, err)
		}
		rc.Start = t
	}
	return rc, nil
}

func (i UpdateIntervals) withDefaults() UpdateIntervals {
	if i.Weather <= 0 {
		i.Weather = 60
	}
	if i.TimeOfDay <= 0 {
		i.TimeOfDay = 30
	}
	if i.Emergency <= 0 {
		i.Emergency = 45
	}
	if i.Obstacle <= 0 {
		i.Obstacle = 30
	}
	if i.Dynamics <= 0 {
		i.Dynamics = 5
	}
	return i
}
