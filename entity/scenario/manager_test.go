package scenario_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/entity/scenario"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/config"
)

func newFileManager(t *testing.T) (*scenario.Manager, *scenario.FileStore, string) {
	dir := filepath.Join(t.TempDir(), "scenarios")
	store, err := scenario.NewFileStore(dir)
	require.NoError(t, err)
	return scenario.NewManager(store), store, dir
}

func TestCreateTemplate(t *testing.T) {
	m := scenario.NewManager(nil)
	tp, err := m.CreateTemplate(scenario.Template{ID: "t_junction", Name: "T-Junction", Category: scenario.CategoryIntersection})
	require.NoError(t, err)
	assert.Equal(t, "1.0", tp.Version)
	assert.NotEmpty(t, tp.CreatedDate)
	assert.Equal(t, 3600., tp.SimulationDuration)
	assert.True(t, tp.IsValidated)
	assert.Equal(t, config.DefaultIndianTrafficConfig(), tp.TrafficConfig)

	_, err = m.CreateTemplate(scenario.Template{ID: "t_junction"})
	assert.ErrorIs(t, err, scenario.ErrExists)

	bad, err := m.CreateTemplate(scenario.Template{ID: "bad", TimeOfDay: 30})
	require.NoError(t, err)
	assert.False(t, bad.IsValidated)
	assert.Len(t, bad.ValidationErrors, 1)
}

func TestFileStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	m, store, dir := newFileManager(t)
	assert.Equal(t, 4, m.InitializeDefaultTemplates(ctx))

	ids, err := store.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"construction_zone", "early_morning", "monsoon_flooding", "mumbai_intersection"}, ids)

	err = m.SaveTemplate(ctx, scenario.DefaultTemplates()[0], false)
	assert.ErrorIs(t, err, scenario.ErrExists)

	fresh := scenario.NewManager(store)
	n, err := fresh.LoadAllTemplates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{scenario.CategoryEmergency, scenario.CategoryIntersection, scenario.CategoryPeakHour}, fresh.Categories())
	assert.Equal(t, []string{"construction_zone", "monsoon_flooding"}, fresh.ListTemplates(scenario.CategoryEmergency))

	want, err := m.LoadTemplate(ctx, "monsoon_flooding")
	require.NoError(t, err)
	got, err := fresh.LoadTemplate(ctx, "monsoon_flooding")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// 损坏的文件在批量加载时跳过
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	n, err = scenario.NewManager(store).LoadAllTemplates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	found, err := fresh.DeleteTemplate(ctx, "early_morning", true)
	require.NoError(t, err)
	assert.True(t, found)
	_, err = os.Stat(filepath.Join(dir, "early_morning.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = fresh.LoadTemplate(ctx, "early_morning")
	assert.ErrorIs(t, err, scenario.ErrNotFound)

	found, err = fresh.DeleteTemplate(ctx, "early_morning", true)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSearchCloneSummary(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newFileManager(t)
	m.InitializeDefaultTemplates(ctx)

	assert.Equal(t, []string{"monsoon_flooding", "mumbai_intersection"}, m.SearchTemplates("MONSOON"))
	assert.Equal(t, []string{"construction_zone"}, m.SearchTemplates("construction", "template_id"))
	assert.Empty(t, m.SearchTemplates("construction", "category"))

	c, err := m.CloneTemplate(ctx, "mumbai_intersection", "mumbai_copy", "")
	require.NoError(t, err)
	assert.Equal(t, "Copy of Mumbai Busy Intersection", c.Name)
	src, _ := m.LoadTemplate(ctx, "mumbai_intersection")
	assert.Equal(t, src.TrafficConfig, c.TrafficConfig)
	assert.NotSame(t, src, c)

	_, err = m.CloneTemplate(ctx, "mumbai_intersection", "mumbai_copy", "x")
	assert.ErrorIs(t, err, scenario.ErrExists)
	_, err = m.CloneTemplate(ctx, "missing", "y", "")
	assert.ErrorIs(t, err, scenario.ErrNotFound)

	s, ok := m.TemplateSummary(ctx, "monsoon_flooding")
	require.True(t, ok)
	assert.Equal(t, 1, s.EmergencyCount)
	assert.True(t, s.IsValidated)
	_, ok = m.TemplateSummary(ctx, "missing")
	assert.False(t, ok)

	st := m.Statistics()
	assert.Equal(t, 5, st.TotalTemplates)
	assert.Equal(t, 5, st.ValidatedTemplates)
	assert.Equal(t, 3, st.Categories)
	assert.Equal(t, 2, st.CategoryCounts[scenario.CategoryIntersection])
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx := context.Background()
	client := mongoutil.NewClient(uri)
	defer client.Disconnect(ctx)
	coll := mongoutil.GetMongoColl(client, config.InputPath{DB: "mixedtraffic_test", Col: "templates"})
	require.NoError(t, coll.Drop(ctx))
	defer coll.Drop(ctx)

	store := scenario.NewMongoStore(coll)
	m := scenario.NewManager(store)
	assert.Equal(t, 4, m.InitializeDefaultTemplates(ctx))
	assert.ErrorIs(t, m.SaveTemplate(ctx, scenario.DefaultTemplates()[0], false), scenario.ErrExists)

	fresh := scenario.NewManager(store)
	n, err := fresh.LoadAllTemplates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	for _, id := range m.ListTemplates("") {
		want, _ := m.LoadTemplate(ctx, id)
		got, err := fresh.LoadTemplate(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
	}

	require.NoError(t, store.Delete(ctx, "early_morning"))
	assert.ErrorIs(t, store.Delete(ctx, "early_morning"), scenario.ErrNotFound)
}
