package metrics

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/railsim/pkg/dag"
	"github.com/matzehuels/railsim/pkg/observability"
	"github.com/matzehuels/railsim/pkg/result"
	"github.com/matzehuels/railsim/pkg/sched"
)

func TestPipelineMetrics(t *testing.T) {
	h := New(prometheus.NewRegistry())
	ctx := context.Background()

	h.OnBuildComplete(ctx, "corridor", 5, 5, time.Millisecond, nil)
	h.OnBuildComplete(ctx, "broken", 0, 0, time.Millisecond, errors.New("cycle"))
	h.OnRunComplete(ctx, "id", "parallel", time.Second, nil)
	h.OnRunComplete(ctx, "id", "parallel", time.Second, nil)
	h.OnRunComplete(ctx, "id", "sequential", time.Second, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(h.builds.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.builds.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.runs.WithLabelValues("parallel", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.runs.WithLabelValues("sequential", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(h.runDuration))
}

func TestSchedulerMetrics(t *testing.T) {
	h := New(prometheus.NewRegistry())

	b := dag.NewBuilder()
	_, err := b.AddTrain("a", dag.NodeSpec{}, dag.NodeSpec{}, dag.NodeSpec{})
	require.NoError(t, err)
	_, err = b.AddTrain("b", dag.NodeSpec{})
	require.NoError(t, err)
	g := b.Build()

	s := sched.New[int](sched.WithWorkers(2), sched.WithHooks(h), sched.WithLogger(log.New(io.Discard)))
	_, err = s.Run(context.Background(), g, result.ForGraph[int](g),
		func(_ context.Context, id dag.NodeID, _ *dag.Graph, _ *result.Store[int], span []int) error {
			span[0] = int(id)
			return nil
		})
	require.NoError(t, err)

	assert.Equal(t, 4.0, testutil.ToFloat64(h.nodes.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(h.activeNodes))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.workers))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.schedules.WithLabelValues("ok")))
}

func TestCacheAndHTTPMetrics(t *testing.T) {
	h := New(prometheus.NewRegistry())
	ctx := context.Background()

	h.OnCacheMiss(ctx, "run")
	h.OnCacheSet(ctx, "run", 512)
	h.OnCacheHit(ctx, "run")
	h.OnCacheHit(ctx, "run")

	assert.Equal(t, 2.0, testutil.ToFloat64(h.cacheRequests.WithLabelValues("run", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.cacheRequests.WithLabelValues("run", "miss")))
	assert.Equal(t, 512.0, testutil.ToFloat64(h.cacheBytes))

	h.OnRequest(ctx, "GET", "/runs/{id}")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.inflight))
	h.OnResponse(ctx, "GET", "/runs/{id}", 404, time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(h.inflight))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.requests.WithLabelValues("GET", "/runs/{id}", "404")))
}

func TestExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(reg)
	h.OnRunComplete(context.Background(), "id", "parallel", time.Second, nil)

	expected := `
# HELP railsim_runs_total Simulation runs by mode and outcome.
# TYPE railsim_runs_total counter
railsim_runs_total{mode="parallel",status="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "railsim_runs_total"))
}

func TestRegister(t *testing.T) {
	defer observability.Reset()
	h := New(prometheus.NewRegistry())
	h.Register()

	assert.Same(t, h, observability.Scheduler())
	assert.Same(t, h, observability.Pipeline())
	assert.Same(t, h, observability.Cache())
	assert.Same(t, h, observability.HTTP())
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
