package clock

import (
	"fmt"
	"time"
)

// Clock 仿真时钟
// 功能：维护离散事件仿真的当前时间，并提供与墙钟时刻的换算
// 说明：T只由Scheduler推进，其他模块只读
type Clock struct {
	Start time.Time // 仿真起始时刻，T=0对应的墙钟时间
	T     float64   // 当前仿真时间（秒）
}

// New 创建时钟
// 参数：start-仿真起始时刻
func New(start time.Time) *Clock {
	return &Clock{Start: start}
}

// Now 当前仿真时刻对应的墙钟时间
func (c *Clock) Now() time.Time {
	return c.Start.Add(time.Duration(c.T * float64(time.Second)))
}

// Since 从时刻t到当前仿真时刻经过的秒数
func (c *Clock) Since(t time.Time) float64 {
	return c.Now().Sub(t).Seconds()
}

// String 获取时钟的字符串表示（HH:MM:SS，为相对起点的经过时间）
func (c *Clock) String() string {
	h, m, s := c.GetHourMinuteSecond()
	return fmt.Sprintf("%02d:%02d:%02d", h, m, int(s))
}

// GetHourMinuteSecond 获取经过时间的小时、分钟、秒
// 返回：小时、分钟、秒（秒为浮点数，支持亚秒级精度）
func (c *Clock) GetHourMinuteSecond() (int, int, float64) {
	hour := int(c.T) / 3600
	minute := int(c.T) % 3600 / 60
	second := c.T - float64(hour*3600+minute*60)
	return hour, minute, second
}
