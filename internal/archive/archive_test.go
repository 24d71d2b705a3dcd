package archive

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/matzehuels/railsim/pkg/dpd"
	"github.com/matzehuels/railsim/pkg/errors"
	"github.com/matzehuels/railsim/pkg/pipeline"
)

var epoch = time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC)

func run(id, scenario string, age time.Duration, delay float64) *pipeline.Result {
	exit := dpd.NewGrid(6, 1)
	exit.Set(27120, 160, 1)
	return &pipeline.Result{
		RunID:    id,
		Scenario: scenario,
		Hash:     "h-" + id,
		Mode:     pipeline.ModeParallel,
		Created:  epoch.Add(-age),
		Stats:    pipeline.Stats{Nodes: 2, Edges: 1},
		Nodes: []pipeline.Node{
			{ID: 0, Name: "ICE 1/A-B", Routes: []pipeline.Route{{Name: "A-B", Exit: exit, Delay: delay}}},
			{ID: 1, Name: "ICE 1/B-C", Routes: []pipeline.Route{{Name: "B-C", Exit: exit.Clone(), Delay: delay / 2}}},
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(run("r1", "corridor", 0, 42))
	assert.Equal(t, "r1", s.RunID)
	assert.Equal(t, "corridor", s.Scenario)
	assert.Equal(t, 2, s.Nodes)
	assert.Equal(t, 42.0, s.MaxDelay)
	assert.Equal(t, "ICE 1/A-B", s.MaxDelayNode)
}

func TestMemorySaveGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close(ctx)

	require.NoError(t, m.Save(ctx, run("r1", "corridor", 0, 10)))
	got, err := m.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "corridor", got.Scenario)
	require.Len(t, got.Nodes, 2)
	assert.Equal(t, dpd.Probability(1), got.Nodes[0].Routes[0].Exit.Get(27120, 160))

	got.Nodes[0].Name = "changed"
	again, err := m.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "ICE 1/A-B", again.Nodes[0].Name, "archive shares state with callers")

	_, err = m.Get(ctx, "missing")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestMemoryList(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Save(ctx, run("old", "corridor", 2*time.Hour, 0)))
	require.NoError(t, m.Save(ctx, run("new", "corridor", 0, 0)))
	require.NoError(t, m.Save(ctx, run("mid", "junction", time.Hour, 0)))

	all, err := m.List(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "mid", "old"}, ids(all))

	filtered, err := m.List(ctx, Query{Scenario: "corridor"})
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, ids(filtered))

	limited, err := m.List(ctx, Query{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids(limited))

	require.NoError(t, m.Save(ctx, run("old", "corridor", 0, 99)))
	all, err = m.List(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, all, 3, "saving an existing run must replace it")
}

func TestMemoryConcurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("r%d", i)
			assert.NoError(t, m.Save(ctx, run(id, "corridor", time.Duration(i)*time.Minute, 0)))
			_, err := m.Get(ctx, id)
			assert.NoError(t, err)
			_, err = m.List(ctx, Query{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := m.List(ctx, Query{Limit: 100})
	require.NoError(t, err)
	assert.Len(t, all, 16)
}

func TestDocumentBSON(t *testing.T) {
	doc := document{Summary: Summarize(run("r1", "corridor", 0, 5)), Payload: []byte(`{}`)}
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, "r1", m["_id"])
	assert.Equal(t, "corridor", m["scenario"])
	assert.Contains(t, m, "payload")
	assert.NotContains(t, m, "summary")

	var back document
	require.NoError(t, bson.Unmarshal(raw, &back))
	assert.Equal(t, doc.RunID, back.RunID)
	assert.True(t, doc.Created.Equal(back.Created))
}

func TestFilterFor(t *testing.T) {
	assert.Empty(t, filterFor(Query{}))
	assert.Equal(t, bson.M{"scenario": "corridor"}, filterFor(Query{Scenario: "corridor"}))
}

func TestNewMongoUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := NewMongo(ctx, "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200", "railsim")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNetwork))
}

func ids(s []Summary) []string {
	out := make([]string, len(s))
	for i, x := range s {
		out[i] = x.RunID
	}
	return out
}
