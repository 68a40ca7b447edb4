package clock

import (
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/container"
)

// Scheduler 离散事件调度器
// 功能：按仿真时间顺序执行回调，同一时刻的回调按登记顺序执行
// 说明：单线程执行，回调内部可以继续登记新事件；回调执行时Clock.T等于其计划时刻
type Scheduler struct {
	clock  *Clock
	events *container.PriorityQueue[func()]
}

// NewScheduler 创建绑定到时钟的调度器
func NewScheduler(c *Clock) *Scheduler {
	return &Scheduler{
		clock:  c,
		events: container.NewPriorityQueue[func()](),
	}
}

// Clock 调度器驱动的时钟
func (s *Scheduler) Clock() *Clock {
	return s.clock
}

// Len 待执行的事件数
func (s *Scheduler) Len() int {
	return s.events.Len()
}

// Schedule 在delay秒后执行fn，delay为负时视为0
func (s *Scheduler) Schedule(delay float64, fn func()) {
	s.At(s.clock.T+max(delay, 0), fn)
}

// At 在绝对仿真时刻t执行fn，早于当前时刻的t按当前时刻处理
func (s *Scheduler) At(t float64, fn func()) {
	s.events.HeapPush(fn, max(t, s.clock.T))
}

// Every 周期性执行fn
// 功能：首次在T+interval执行，之后每隔interval执行一次，直到fn返回false
// 参数：interval-周期（秒，必须为正），fn-回调，返回false时停止
func (s *Scheduler) Every(interval float64, fn func() bool) {
	var tick func()
	tick = func() {
		if fn() {
			s.Schedule(interval, tick)
		}
	}
	s.Schedule(interval, tick)
}

// RunUntil 推进仿真到指定时刻
// 功能：依次执行计划时刻严格早于until的全部事件，最后将时钟置为until
// 算法说明：
// 1. 取队首事件，若其时刻不早于until则停止
// 2. 将时钟推进到事件时刻并执行回调
// 3. 队列为空或到达until后，时钟置为until（until早于当前时刻时不回拨）
func (s *Scheduler) RunUntil(until float64) {
	for s.events.Len() > 0 {
		_, t := s.events.First()
		if t >= until {
			break
		}
		fn, t := s.events.HeapPop()
		s.clock.T = t
		fn()
	}
	if until > s.clock.T {
		s.clock.T = until
	}
}
