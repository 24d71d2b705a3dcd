package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/railsim/pkg/cache"
	"github.com/matzehuels/railsim/pkg/dag"
	"github.com/matzehuels/railsim/pkg/dag/transform"
	"github.com/matzehuels/railsim/pkg/errors"
	"github.com/matzehuels/railsim/pkg/observability"
	"github.com/matzehuels/railsim/pkg/propagate"
	"github.com/matzehuels/railsim/pkg/result"
	"github.com/matzehuels/railsim/pkg/scenario"
	"github.com/matzehuels/railsim/pkg/sched"
)

// cacheKind labels run result entries in cache events.
const cacheKind = "run"

// Runner executes runs with caching. It holds no per-run state, so one
// Runner may serve concurrent runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// selects the default keyer and a nil logger selects log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs opts.Scenario and returns its result, from the cache when
// possible.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}

	src, err := opts.Scenario.Encode()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode scenario")
	}
	hash := cache.Hash(src)
	key := r.Keyer.RunKey(hash, opts.KeyOpts())

	if !opts.Refresh {
		if res, ok := r.lookup(ctx, key, opts.Logger); ok {
			opts.Logger.Info("using cached run", "run", res.RunID, "scenario", res.Scenario)
			return res, nil
		}
	}

	runID := uuid.NewString()
	hooks := observability.Pipeline()
	hooks.OnRunStart(ctx, runID, opts.Mode)
	start := time.Now()
	res, err := r.run(ctx, runID, hash, opts)
	hooks.OnRunComplete(ctx, runID, opts.Mode, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	r.store(ctx, key, res, opts.Logger)
	return res, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) lookup(ctx context.Context, key string, logger *log.Logger) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache lookup failed", "err", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, cacheKind)
		return nil, false
	}
	res, err := UnmarshalResult(data)
	if err != nil {
		logger.Warn("discarding unreadable cache entry", "key", key, "err", err)
		observability.Cache().OnCacheMiss(ctx, cacheKind)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, cacheKind)
	res.Cached = true
	return res, true
}

func (r *Runner) store(ctx context.Context, key string, res *Result, logger *log.Logger) {
	data, err := MarshalResult(res)
	if err != nil {
		logger.Warn("cannot encode run result", "err", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLRun); err != nil {
		logger.Warn("cache store failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cacheKind, len(data))
}

func (r *Runner) run(ctx context.Context, runID, hash string, opts Options) (*Result, error) {
	logger := opts.Logger
	res := &Result{
		RunID:    runID,
		Scenario: opts.Scenario.Name,
		Hash:     hash,
		Mode:     opts.Mode,
		Created:  time.Now().UTC(),
	}

	buildStart := time.Now()
	net, err := r.Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	g := net.Graph
	levels, err := transform.Levels(g)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "layer dependency graph")
	}
	res.Stats = Stats{
		Nodes:        g.Len(),
		Edges:        g.EdgeCount(),
		TrainEdges:   g.TrainEdgeCount(),
		RemovedEdges: net.removed,
		Levels:       len(levels),
		Width:        transform.Width(levels),
		BuildTime:    time.Since(buildStart),
	}
	logger.Info("built network",
		"scenario", res.Scenario,
		"nodes", res.Stats.Nodes,
		"edges", res.Stats.Edges,
		"levels", res.Stats.Levels,
		"duration", res.Stats.BuildTime)

	computeStart := time.Now()
	var passages *result.Store[scenario.Passage]
	var timings *result.Store[propagate.Timing]
	switch opts.Mode {
	case ModeSequential:
		passages, timings, err = computeSequential(ctx, net.Network, logger)
	default:
		passages, timings, res.Stats.Workers, err = computeParallel(ctx, net.Network, opts)
	}
	if err != nil {
		return nil, err
	}
	res.Stats.ComputeTime = time.Since(computeStart)
	logger.Info("computed distributions",
		"mode", opts.Mode,
		"routes", passages.Len(),
		"duration", res.Stats.ComputeTime)

	res.Nodes = collect(g, levels, passages, timings)
	return res, nil
}

// Built is a network that passed the cycle gate.
type Built struct {
	*scenario.Network
	removed int
}

// Removed returns the number of train dependencies dropped by reduction.
func (b *Built) Removed() int { return b.removed }

// Build resolves opts.Scenario into an acyclic network, transitively
// reduced if opts.Reduce is set. A cyclic graph is a CONFIGURATION_ERROR
// naming one cycle.
func (r *Runner) Build(ctx context.Context, opts Options) (*Built, error) {
	hooks := observability.Pipeline()
	name := opts.Scenario.Name
	hooks.OnBuildStart(ctx, name)
	start := time.Now()

	b, err := build(opts)
	if err != nil {
		hooks.OnBuildComplete(ctx, name, 0, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnBuildComplete(ctx, name, b.Graph.Len(), b.Graph.EdgeCount(), time.Since(start), nil)
	return b, nil
}

func build(opts Options) (*Built, error) {
	net, err := opts.Scenario.Build()
	if err != nil {
		return nil, err
	}
	if err := net.Graph.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "scenario %q", opts.Scenario.Name)
	}
	if !opts.Reduce {
		return &Built{Network: net}, nil
	}
	reduced, removed, err := transform.TransitiveReduction(net.Graph)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "reduce scenario %q", opts.Scenario.Name)
	}
	if opts.Logger != nil {
		opts.Logger.Debug("reduced train dependencies", "removed", removed)
	}
	return &Built{Network: net.WithGraph(reduced), removed: removed}, nil
}

func computeParallel(ctx context.Context, net *scenario.Network, opts Options) (*result.Store[scenario.Passage], *result.Store[propagate.Timing], int, error) {
	g := net.Graph
	hooks := observability.Scheduler()
	if opts.Hooks != nil {
		hooks = observability.MultiSchedulerHooks{hooks, opts.Hooks}
	}

	model, err := net.Model()
	if err != nil {
		return nil, nil, 0, err
	}
	passages := result.ForGraph[scenario.Passage](g)
	s := sched.New[scenario.Passage](
		sched.WithWorkers(opts.Workers),
		sched.WithLogger(opts.Logger),
		sched.WithHooks(hooks))
	report, err := s.Run(ctx, g, passages, model.Compute)
	if err != nil {
		return nil, nil, report.Workers, err
	}

	tt, err := net.Timetable()
	if err != nil {
		return nil, nil, report.Workers, err
	}
	timings := result.ForGraph[propagate.Timing](g)
	ts := sched.New[propagate.Timing](
		sched.WithWorkers(opts.Workers),
		sched.WithLogger(opts.Logger),
		sched.WithHooks(observability.NoopSchedulerHooks{}))
	if _, err := ts.Run(ctx, g, timings, tt.Compute); err != nil {
		return nil, nil, report.Workers, err
	}
	return passages, timings, report.Workers, nil
}

func computeSequential(ctx context.Context, net *scenario.Network, logger *log.Logger) (*result.Store[scenario.Passage], *result.Store[propagate.Timing], error) {
	g := net.Graph
	model, err := net.Model()
	if err != nil {
		return nil, nil, err
	}
	passages := result.ForGraph[scenario.Passage](g)
	step := func(id dag.NodeID, g *dag.Graph) error {
		return model.Compute(ctx, id, g, passages, passages.Span(id))
	}
	if _, err := propagate.Run(g, step, propagate.Options{Logger: logger}); err != nil {
		return nil, nil, err
	}

	tt, err := net.Timetable()
	if err != nil {
		return nil, nil, err
	}
	if _, err := propagate.Run(g, tt.Step, propagate.Options{Logger: logger}); err != nil {
		return nil, nil, err
	}
	timings := result.ForGraph[propagate.Timing](g)
	for i := range g.Len() {
		id := dag.NodeID(i)
		propagate.Split(tt.Times[id], tt.Segments[id].Length, timings.Span(id))
	}
	return passages, timings, nil
}

func collect(g *dag.Graph, levels [][]dag.NodeID, passages *result.Store[scenario.Passage], timings *result.Store[propagate.Timing]) []Node {
	level := make([]int, g.Len())
	for l, ids := range levels {
		for _, id := range ids {
			level[id] = l
		}
	}

	nodes := make([]Node, g.Len())
	for i := range g.Len() {
		id := dag.NodeID(i)
		n := g.Node(id)
		ts := timings.Span(id)
		last := ts[len(ts)-1]
		node := Node{
			ID:        uint32(id),
			Name:      g.Name(id),
			Train:     g.Train(id).Name,
			Segment:   n.Label,
			Level:     level[id],
			Scheduled: propagate.Timing{Entry: ts[0].Entry, Exit: last.Exit, Distance: last.Distance},
		}
		for k, p := range passages.Span(id) {
			exit := p.Exit.Marginal()
			mean := exit.Mean()
			p95, _ := exit.Quantile(ReportQuantile)
			node.Routes = append(node.Routes, Route{
				Name:      p.Route,
				Scheduled: ts[k],
				Exit:      p.Exit,
				Mean:      mean,
				P95:       p95,
				Delay:     mean - float64(ts[k].Exit),
			})
		}
		nodes[id] = node
	}
	return nodes
}
