package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/clock"
)

func TestSchedulerOrder(t *testing.T) {
	c := clock.New(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s := clock.NewScheduler(c)

	var got []string
	var at []float64
	rec := func(name string) func() {
		return func() {
			got = append(got, name)
			at = append(at, c.T)
		}
	}
	s.Schedule(5, rec("b1"))
	s.Schedule(2, rec("a"))
	s.Schedule(5, rec("b2"))
	s.At(5, rec("b3"))
	s.Schedule(2, func() {
		rec("a2")()
		s.Schedule(0, rec("a2-child"))
	})
	s.RunUntil(10)

	assert.Equal(t, []string{"a", "a2", "a2-child", "b1", "b2", "b3"}, got)
	assert.Equal(t, []float64{2, 2, 2, 5, 5, 5}, at)
	assert.Equal(t, 10., c.T)
	assert.Equal(t, "12:00:10", c.Now().Format("15:04:05"))
}

func TestSchedulerRunUntilStopsBeforeBoundary(t *testing.T) {
	c := clock.New(time.Time{})
	s := clock.NewScheduler(c)
	fired := false
	s.Schedule(10, func() { fired = true })
	s.RunUntil(10)
	assert.False(t, fired)
	assert.Equal(t, 1, s.Len())
	s.RunUntil(10.5)
	assert.True(t, fired)
}

func TestSchedulerEvery(t *testing.T) {
	c := clock.New(time.Time{})
	s := clock.NewScheduler(c)
	var ticks []float64
	s.Every(3, func() bool {
		ticks = append(ticks, c.T)
		return len(ticks) < 4
	})
	s.RunUntil(100)
	assert.Equal(t, []float64{3, 6, 9, 12}, ticks)
	assert.Equal(t, 0, s.Len())
}

func TestClockFormatting(t *testing.T) {
	c := clock.New(time.Time{})
	c.T = 3725.5
	h, m, sec := c.GetHourMinuteSecond()
	assert.Equal(t, 1, h)
	assert.Equal(t, 2, m)
	assert.InDelta(t, 5.5, sec, 1e-9)
	assert.Equal(t, "01:02:05", c.String())
}
