package task_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/emergency"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/scenario"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/task"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/config"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/roadgraph"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/roadgraph/roadgraphtest"
)

// captureSink 按车辆进程序号记录推送
type captureSink struct {
	moves   map[int][]entity.PositionUpdate
	removed map[int]float64
}

func newCaptureSink() *captureSink {
	return &captureSink{moves: map[int][]entity.PositionUpdate{}, removed: map[int]float64{}}
}

func (s *captureSink) VehicleMoved(u entity.PositionUpdate) {
	s.moves[u.VID] = append(s.moves[u.VID], u)
}

func (s *captureSink) VehicleRemoved(t float64, vid int, _ string) {
	s.removed[vid] = t
}

func (s *captureSink) Close() error { return nil }

func newContext(t *testing.T, c config.Control, sink entity.IVisualizationSink) *task.Context {
	rc, err := config.NewRuntimeConfig(config.Config{Control: c})
	require.NoError(t, err)
	return task.NewContext(roadgraphtest.Grid(), rc, sink)
}

func TestBasicRun(t *testing.T) {
	ctx := newContext(t, config.Control{
		Seed:              7,
		SimSeconds:        50,
		MaxVehicles:       6,
		SpawnRate:         1,
		MinPathSeconds:    20,
		UseIndianFeatures: true,
	}, nil)
	ctx.Run()

	s := ctx.GetSimulationStatistics()
	assert.Equal(t, 50., s.SimulationTime)
	assert.GreaterOrEqual(t, s.TotalVehicles, 1)
	assert.LessOrEqual(t, s.TotalVehicles+s.SpawnFailures, 6)
	assert.Equal(t, s.TotalVehicles, s.ActiveVehicles+s.CompletedVehicles+s.RemovedVehicles)
	assert.Equal(t, s.TotalVehicles, lo.Sum(lo.Values(s.VehicleTypeDistribution)))
	allowed := lo.Without(types.AllVehicleTypes, types.Pedestrian)
	for vt := range s.VehicleTypeDistribution {
		assert.Contains(t, allowed, vt)
	}
	assert.Len(t, s.WeatherEffects, len(types.AllVehicleTypes))
	assert.Equal(t, ctx.Hour(), s.CurrentHour)
	assert.NoError(t, ctx.Close())
}

func TestSameSeedSameTrace(t *testing.T) {
	run := func() []entity.PositionUpdate {
		sink := newCaptureSink()
		ctx := newContext(t, config.Control{
			Seed:              11,
			SimSeconds:        120,
			SpawnRate:         0.2,
			MinPathSeconds:    20,
			UseIndianFeatures: true,
		}, sink)
		ctx.Run()
		var all []entity.PositionUpdate
		for vid := 0; vid < len(sink.moves); vid++ {
			all = append(all, sink.moves[vid]...)
		}
		return all
	}
	a, b := run(), run()
	require.NotEmpty(t, a)
	assert.Equal(t, a, b)
}

func TestCriticalFloodingScenario(t *testing.T) {
	ctx := newContext(t, config.Control{UseIndianFeatures: true}, nil)
	critical := types.SeverityCritical
	id := ctx.CreateEmergencyScenario(types.Flooding, emergency.Options{Severity: &critical})

	active := ctx.GetActiveEmergencies()
	require.Len(t, active, 1)
	assert.Equal(t, id, active[0].ID)
	assert.Less(t, active[0].Accessibility, 0.3)

	var s *emergency.Scenario
	for _, sc := range ctx.EmergencyManager().(*emergency.Manager).Active() {
		s = sc
	}
	require.NotNil(t, s)
	assert.GreaterOrEqual(t, s.LanesBlocked, 2)

	assert.True(t, ctx.ResolveEmergencyScenario(id))
	assert.False(t, ctx.ResolveEmergencyScenario(id))
	assert.Empty(t, ctx.GetActiveEmergencies())
}

func TestHeavyRainSlowsCars(t *testing.T) {
	ctx := newContext(t, config.Control{UseIndianFeatures: true}, nil)
	ctx.UpdateWeatherConditions(types.HeavyRain, 1.0)

	w := ctx.WeatherManager()
	assert.Equal(t, types.HeavyRain, w.Current().Type)
	clearSky := types.Clear
	rain := w.GetCurrentWeatherEffects(types.Car)
	dry := w.GetWeatherEffects(types.Car, &clearSky)
	assert.Less(t, rain.SpeedFactor, dry.SpeedFactor)

	s := ctx.GetSimulationStatistics()
	assert.Equal(t, types.HeavyRain, s.WeatherDetails.Type)
	assert.Equal(t, rain, s.WeatherEffects[types.Car])
}

func TestRerouteAroundBlockedEdges(t *testing.T) {
	sink := newCaptureSink()
	ctx := newContext(t, config.Control{SimSeconds: 300, MinPathSeconds: 20}, sink)

	blocked := []roadgraph.EdgeID{{U: 2, V: 3}, {U: 6, V: 7}}
	critical := types.SeverityCritical
	duration := 2 * time.Hour
	ctx.CreateEmergencyScenario(types.Flooding, emergency.Options{
		Edges:    blocked,
		Severity: &critical,
		Duration: &duration,
	})
	for _, e := range blocked {
		require.True(t, ctx.EmergencyManager().IsBlocked(e))
	}

	vid, err := ctx.SpawnVehicle(1, 4)
	require.NoError(t, err)
	v, ok := ctx.GetVehicle(vid)
	require.True(t, ok)
	assert.False(t, v.NeedsRerouting)
	route, ok := ctx.Route(vid)
	require.True(t, ok)
	assert.Equal(t, int64(1), route[0])
	assert.Equal(t, int64(4), route[len(route)-1])
	for _, e := range roadgraph.PathEdges(route) {
		assert.NotContains(t, blocked, e)
	}

	ctx.Run()

	_, ok = ctx.GetVehicle(vid)
	assert.False(t, ok)
	assert.Contains(t, sink.removed, vid)
	moves := sink.moves[vid]
	require.GreaterOrEqual(t, len(moves), 2)
	last := moves[len(moves)-1].Position
	assert.Equal(t, types.Position{X: 300, Y: 0}, last)
	for i := 1; i < len(moves); i++ {
		from, to := moves[i-1].Position, moves[i].Position
		assert.False(t, from.X == 100 && from.Y == 0 && to.X == 200 && to.Y == 0, "traversed 2->3")
		assert.False(t, from.X == 100 && from.Y == 100 && to.X == 200 && to.Y == 100, "traversed 6->7")
	}
	assert.GreaterOrEqual(t, ctx.GetSimulationStatistics().VehiclesRerouted, 1)
}

// gridPos 网格路网中节点的坐标
func gridPos(id int64) types.Position {
	return types.Position{X: float64((id - 1) % 4 * 100), Y: float64((id - 1) / 4 * 100)}
}

func TestRerouteDeniedUntilCleared(t *testing.T) {
	sink := newCaptureSink()
	ctx := newContext(t, config.Control{SimSeconds: 100, MaxVehicles: 1, MinPathSeconds: 20}, sink)

	// 节点4只能经3->4或8->4到达
	critical := types.SeverityCritical
	duration := 2 * time.Hour
	id := ctx.CreateEmergencyScenario(types.Flooding, emergency.Options{
		Edges:    []roadgraph.EdgeID{{U: 3, V: 4}, {U: 8, V: 4}},
		Severity: &critical,
		Duration: &duration,
	})
	vid, err := ctx.SpawnVehicle(1, 4)
	require.NoError(t, err)
	v, ok := ctx.GetVehicle(vid)
	require.True(t, ok)
	assert.True(t, v.NeedsRerouting)
	assert.Equal(t, 1, v.RerouteDenied)
	route, _ := ctx.Route(vid)
	assert.Equal(t, []int64{1, 2, 3, 4}, route)

	ctx.RunUntil(12)
	v, ok = ctx.GetVehicle(vid)
	require.True(t, ok)
	assert.Equal(t, int64(2), v.Node)
	assert.True(t, v.NeedsRerouting)
	assert.Equal(t, 2, v.RerouteDenied)
	assert.GreaterOrEqual(t, ctx.GetSimulationStatistics().RerouteDenied, 2)

	require.True(t, ctx.ResolveEmergencyScenario(id))
	ctx.Run()

	_, ok = ctx.GetVehicle(vid)
	assert.False(t, ok)
	s := ctx.GetSimulationStatistics()
	assert.GreaterOrEqual(t, s.VehiclesRerouted, 1)
	assert.Equal(t, 32., sink.removed[vid])

	// 途经节点的到达时刻等于实际经过各边的通行时间之和
	moves := sink.moves[vid]
	require.Len(t, moves, 4)
	for i, want := range []struct {
		t    float64
		node int64
	}{{0, 1}, {10, 2}, {20, 3}, {32, 4}} {
		assert.Equal(t, want.t, moves[i].T)
		assert.Equal(t, gridPos(want.node), moves[i].Position)
	}
}

func TestRerouteMidRoute(t *testing.T) {
	sink := newCaptureSink()
	ctx := newContext(t, config.Control{
		Seed:              5,
		SimSeconds:        1800,
		MaxVehicles:       1,
		MinPathSeconds:    20,
		UseIndianFeatures: true,
	}, sink)
	vid, err := ctx.SpawnVehicle(1, 4)
	require.NoError(t, err)

	// 推进到车辆到达第一个中间节点
	var v task.Vehicle
	for tt := 0.5; tt < 300; tt += 0.5 {
		ctx.RunUntil(tt)
		var ok bool
		v, ok = ctx.GetVehicle(vid)
		require.True(t, ok)
		if v.Node != 1 {
			break
		}
	}
	require.Equal(t, int64(2), v.Node)
	route, ok := ctx.Route(vid)
	require.True(t, ok)
	require.GreaterOrEqual(t, len(route), 3)

	// 已驶出的边不受影响，其后的一条边被封闭
	ahead := roadgraph.EdgeID{U: route[1], V: route[2]}
	critical := types.SeverityCritical
	duration := 2 * time.Hour
	ctx.CreateEmergencyScenario(types.Flooding, emergency.Options{
		Edges:    []roadgraph.EdgeID{ahead},
		Severity: &critical,
		Duration: &duration,
	})
	require.True(t, ctx.EmergencyManager().IsBlocked(ahead))
	rerouted := ctx.GetSimulationStatistics().VehiclesRerouted
	ctx.Run()

	_, ok = ctx.GetVehicle(vid)
	assert.False(t, ok)
	require.Contains(t, sink.removed, vid)
	assert.Greater(t, ctx.GetSimulationStatistics().VehiclesRerouted, rerouted)

	moves := sink.moves[vid]
	require.GreaterOrEqual(t, len(moves), 4)
	assert.Equal(t, gridPos(2), moves[1].Position)
	assert.Equal(t, gridPos(route[1]), moves[2].Position)
	assert.Equal(t, gridPos(4), moves[len(moves)-1].Position)
	assert.Equal(t, moves[len(moves)-1].T, sink.removed[vid])
	for i := 1; i < len(moves); i++ {
		assert.Greater(t, moves[i].T, moves[i-1].T)
		assert.False(t, moves[i-1].Position == gridPos(ahead.U) && moves[i].Position == gridPos(ahead.V),
			"traversed blocked edge %v", ahead)
	}
}

func TestEmergencyLoggedOnce(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()
	ctx := newContext(t, config.Control{UseIndianFeatures: true}, nil)
	hook.Reset()

	id := ctx.CreateEmergencyScenario(types.Accident, emergency.Options{})
	require.True(t, ctx.ResolveEmergencyScenario(id))

	infos := lo.Filter(hook.AllEntries(), func(e *logrus.Entry, _ int) bool {
		return e.Level == logrus.InfoLevel && strings.Contains(e.Message, id)
	})
	assert.Len(t, infos, 2)
}

func TestSpawnVehicleUnreachable(t *testing.T) {
	ctx := newContext(t, config.Control{}, nil)
	_, err := ctx.SpawnVehicle(1, 99)
	assert.ErrorIs(t, err, roadgraph.ErrNodeNotFound)
	_, err = ctx.SpawnVehicle(3, 3)
	assert.ErrorIs(t, err, roadgraph.ErrNoPath)
}

func TestRemoveVehicle(t *testing.T) {
	sink := newCaptureSink()
	ctx := newContext(t, config.Control{SimSeconds: 200, MinPathSeconds: 20}, sink)
	vid, err := ctx.SpawnVehicle(1, 12)
	require.NoError(t, err)

	ctx.RunUntil(5)
	require.True(t, ctx.RemoveVehicle(vid))
	assert.False(t, ctx.RemoveVehicle(vid))
	ctx.RunUntil(200)

	assert.Equal(t, 5., sink.removed[vid])
	for _, u := range sink.moves[vid] {
		assert.LessOrEqual(t, u.T, 5.)
	}
	s := ctx.GetSimulationStatistics()
	assert.Equal(t, 1, s.RemovedVehicles)
	assert.Equal(t, s.TotalVehicles, s.ActiveVehicles+s.CompletedVehicles+s.RemovedVehicles)
}

func TestManualControls(t *testing.T) {
	ctx := newContext(t, config.Control{UseIndianFeatures: true}, nil)
	assert.ErrorIs(t, ctx.UpdateTimeOfDay(24), task.ErrInvalidHour)
	require.NoError(t, ctx.UpdateTimeOfDay(8))
	assert.Equal(t, 8, ctx.Hour())
	assert.Equal(t, 8, ctx.GetSimulationStatistics().TimeEffects.Hour)

	before := ctx.GetSimulationStatistics().ActiveObstacles
	id, err := ctx.AddTemporaryObstacle(roadgraph.EdgeID{U: 1, V: 2}, "debris", types.SeverityHigh, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, before+1, ctx.GetSimulationStatistics().ActiveObstacles)
	assert.True(t, ctx.RemoveTemporaryObstacle(id))
	assert.False(t, ctx.RemoveTemporaryObstacle(id))
	assert.Equal(t, before, ctx.GetSimulationStatistics().ActiveObstacles)

	vid, err := ctx.SpawnVehicle(1, 12)
	require.NoError(t, err)
	assert.True(t, ctx.DispatchEmergencyVehicle(vid, types.Accident))
	assert.False(t, ctx.DispatchEmergencyVehicle(vid+100, types.Accident))
	assert.Equal(t, 1, ctx.MixedTrafficManager().Statistics().EmergencyVehicles)
}

func TestApplyTemplate(t *testing.T) {
	ctx := newContext(t, config.Control{UseIndianFeatures: true}, nil)
	templates := scenario.DefaultTemplates()
	require.NotEmpty(t, templates)
	tpl := templates[0]

	require.NoError(t, ctx.ApplyTemplate(tpl))
	assert.Equal(t, tpl.TimeOfDay, ctx.Hour())
	assert.Equal(t, tpl.WeatherType, ctx.WeatherManager().Current().Type)
	assert.Len(t, ctx.GetActiveEmergencies(), len(tpl.EmergencyScenarios))

	bad, err := tpl.Clone()
	require.NoError(t, err)
	bad.TimeOfDay = 30
	assert.ErrorIs(t, ctx.ApplyTemplate(bad), task.ErrInvalidTemplate)
}

func TestRecordingSinkTrace(t *testing.T) {
	var buf bytes.Buffer
	sink := task.NewRecordingSink(&buf)
	ctx := newContext(t, config.Control{SimSeconds: 100, SpawnRate: 0.5, MinPathSeconds: 20}, sink)
	ctx.Run()
	require.NoError(t, ctx.Close())

	records, err := task.ReadTrace(&buf)
	require.NoError(t, err)
	require.Len(t, records, sink.Records())
	require.NotEmpty(t, records)
	assert.Equal(t, task.TraceMove, records[0].Kind)
	assert.Zero(t, records[0].T)
	assert.NotEmpty(t, records[0].VehicleType)
	for i := 1; i < len(records); i++ {
		assert.GreaterOrEqual(t, records[i].T, records[i-1].T)
	}
	removes := lo.CountBy(records, func(r task.TraceRecord) bool { return r.Kind == task.TraceRemove })
	assert.Equal(t, ctx.GetSimulationStatistics().CompletedVehicles, removes)
}
