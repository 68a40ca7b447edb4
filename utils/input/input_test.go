package input_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/config"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/input"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/roadgraph/roadgraphtest"
)

func TestNetworkFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := roadgraphtest.GridNetwork()
	for _, name := range []string{"grid.json", "grid.yaml"} {
		p := filepath.Join(dir, name)
		require.NoError(t, input.WriteNetworkFile(p, want))
		got, err := input.ReadNetworkFile(p)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestInitFromFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "grid.json")
	require.NoError(t, input.WriteNetworkFile(p, roadgraphtest.GridNetwork()))
	in, err := input.Init(context.Background(), config.Config{Input: config.Input{Graph: config.InputPath{File: p}}})
	require.NoError(t, err)
	assert.Len(t, in.Network.Nodes, 12)
	assert.Len(t, in.Network.Edges, 34)
}

func TestInitMissingSource(t *testing.T) {
	_, err := input.Init(context.Background(), config.Config{})
	assert.Error(t, err)
}

func TestReadNetworkFileErrors(t *testing.T) {
	_, err := input.ReadNetworkFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	p := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(p, []byte("{"), 0o644))
	_, err = input.ReadNetworkFile(p)
	assert.Error(t, err)
}

func TestMongoRoundTrip(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx := context.Background()
	client := mongoutil.NewClient(uri)
	defer client.Disconnect(ctx)
	p := config.InputPath{DB: "mixedtraffic_test", Col: "network"}
	coll := mongoutil.GetMongoColl(client, p)
	defer coll.Drop(ctx)

	want := roadgraphtest.GridNetwork()
	require.NoError(t, input.SaveNetworkToMongo(ctx, coll, want))
	got, err := input.LoadNetworkFromMongo(ctx, coll)
	require.NoError(t, err)
	assert.ElementsMatch(t, want.Nodes, got.Nodes)
	assert.ElementsMatch(t, want.Edges, got.Edges)
}
