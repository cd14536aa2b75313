package sinew_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/sinew"
	"github.com/aretw0/sinew/pkg/adapters/memory"
	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
	"github.com/aretw0/sinew/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const holdDoc = `
kind: graph
name: hold
inputs:
  - {name: rate, type: float, default: 1}
nodes:
  - id: clip
    kind: clip
    params: {duration: 4, loop: true}
  - id: scaled
    kind: speed
    inputs:
      pose: clip.time
      factor: "@in.data.rate"
pose: scaled.time
`

func TestNew_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hold.yaml"), []byte(holdDoc), 0o644))

	eng, err := sinew.New(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), eng.Name)

	names, err := eng.Assets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"hold"}, names)

	failures, err := eng.Validate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, failures)
}

func TestNew_RequiresDir(t *testing.T) {
	_, err := sinew.New("")
	assert.Error(t, err)
}

func TestEngine_NewInstance(t *testing.T) {
	eng, err := sinew.New("", sinew.WithLoader(memory.NewStore(map[string]string{"hold": holdDoc})))
	require.NoError(t, err)
	ctx := context.Background()

	in, err := eng.NewInstance(ctx, "hold",
		sinew.InstanceID("hero"),
		sinew.InstanceInputs(graph.Overlay{Data: map[domain.PinID]domain.Value{"rate": domain.Float(3)}}),
	)
	require.NoError(t, err)
	assert.Equal(t, "hero", in.ID())

	pose, err := in.Step(ctx, domain.Delta(0.5))
	require.NoError(t, err)
	assert.InDelta(t, 1.5, pose.Timestamp, 1e-9)

	_, err = eng.NewInstance(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrGraphAssetMissing)
}

func TestEngine_WatchReloads(t *testing.T) {
	store := memory.NewStore(map[string]string{"hold": holdDoc})
	eng, err := sinew.New("", sinew.WithLoader(store))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	before, err := eng.Graph(ctx, "hold")
	require.NoError(t, err)

	changes, err := eng.Watch(ctx)
	require.NoError(t, err)
	require.NoError(t, store.PutAsset(ctx, "hold", []byte(holdDoc)))

	select {
	case name := <-changes:
		assert.Equal(t, "hold", name)
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}

	after, err := eng.Graph(ctx, "hold")
	require.NoError(t, err)
	assert.NotSame(t, before, after)
}

type staticLoader map[string][]byte

func (l staticLoader) GetAsset(_ context.Context, name string) ([]byte, error) {
	data, ok := l[name]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	return data, nil
}

func (l staticLoader) ListAssets(context.Context) ([]string, error) { return nil, nil }

func TestEngine_WatchUnsupported(t *testing.T) {
	eng, err := sinew.New("", sinew.WithLoader(staticLoader{}))
	require.NoError(t, err)
	_, err = eng.Watch(context.Background())
	assert.ErrorIs(t, err, sinew.ErrNotWatchable)
}

func TestPool_Tick(t *testing.T) {
	eng, err := sinew.New("", sinew.WithLoader(memory.NewStore(map[string]string{"hold": holdDoc})))
	require.NoError(t, err)
	ctx := context.Background()

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	pool := sinew.NewPool(sinew.WithConcurrency(2), sinew.WithFrameMetrics(metrics))
	for i, rate := range []float64{1, 2, 3} {
		in, err := eng.NewInstance(ctx, "hold",
			sinew.InstanceID(string(rune('a'+i))),
			sinew.InstanceInputs(graph.Overlay{Data: map[domain.PinID]domain.Value{"rate": domain.Float(rate)}}),
		)
		require.NoError(t, err)
		pool.Add(in)
	}
	assert.Equal(t, []string{"a", "b", "c"}, pool.IDs())

	for range 2 {
		poses, err := pool.Tick(ctx, domain.Delta(0.25))
		require.NoError(t, err)
		require.Len(t, poses, 3)
	}
	poses, err := pool.Tick(ctx, domain.Delta(0.25))
	require.NoError(t, err)
	assert.InDelta(t, 0.75, poses["a"].Timestamp, 1e-9)
	assert.InDelta(t, 1.5, poses["b"].Timestamp, 1e-9)
	assert.InDelta(t, 2.25, poses["c"].Timestamp, 1e-9)
	assert.Equal(t, 9, testutil.CollectAndCount(metrics.Frames))

	assert.True(t, pool.Remove("b"))
	assert.False(t, pool.Remove("b"))
	assert.Equal(t, 2, pool.Len())
	_, ok := pool.Get("b")
	assert.False(t, ok)
}

func TestPool_TickReportsFailures(t *testing.T) {
	eng, err := sinew.New("", sinew.WithLoader(memory.NewStore(map[string]string{
		"needs": `
kind: graph
name: needs
inputs:
  - {name: rate, type: float}
nodes:
  - {id: clip, kind: clip, params: {duration: 1}}
  - id: scaled
    kind: speed
    inputs: {pose: clip.time, factor: "@in.data.rate"}
pose: scaled.time
`,
	})))
	require.NoError(t, err)
	ctx := context.Background()

	in, err := eng.NewInstance(ctx, "needs", sinew.InstanceID("broken"))
	require.NoError(t, err)
	pool := sinew.NewPool()
	pool.Add(in)

	_, err = pool.Tick(ctx, domain.Delta(0.1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instance broken")
	assert.ErrorIs(t, err, domain.ErrMissingParentGraph)
}
