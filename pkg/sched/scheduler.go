package sched

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/railsim/pkg/dag"
	"github.com/matzehuels/railsim/pkg/errors"
	"github.com/matzehuels/railsim/pkg/observability"
	"github.com/matzehuels/railsim/pkg/result"
)

// Compute computes node id. It receives the graph, the whole store for
// reading predecessor results, and the span of the store owned by id.
type Compute[T any] func(ctx context.Context, id dag.NodeID, g *dag.Graph, store *result.Store[T], span []T) error

// NodeError identifies the node whose computation failed.
type NodeError struct {
	Node dag.NodeID
	Name string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %d (%s): %v", e.Node, e.Name, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// Report describes a finished or aborted run.
type Report struct {
	Nodes     int           // Nodes in the graph
	Completed int           // Nodes whose computation succeeded
	Workers   int           // Workers started
	Finished  []bool        // Per node: computation succeeded
	Duration  time.Duration // Wall time of the run
}

// Complete reports whether every node finished.
func (r *Report) Complete() bool { return r.Completed == r.Nodes }

type options struct {
	workers int
	logger  *log.Logger
	hooks   observability.SchedulerHooks
}

// Option configures a [Scheduler].
type Option func(*options)

// WithWorkers sets the pool size. Values below one select the default,
// runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger sets the logger. A nil logger selects log.Default().
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHooks sets the instrumentation hooks. Without this option the
// globally registered [observability.Scheduler] hooks are used.
func WithHooks(h observability.SchedulerHooks) Option {
	return func(o *options) { o.hooks = h }
}

// Scheduler runs computations of type T over dependency graphs.
type Scheduler[T any] struct {
	workers int
	logger  *log.Logger
	hooks   observability.SchedulerHooks
}

// New creates a scheduler.
func New[T any](opts ...Option) *Scheduler[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	if o.hooks == nil {
		o.hooks = observability.Scheduler()
	}
	return &Scheduler[T]{workers: o.workers, logger: o.logger, hooks: o.hooks}
}

// Workers returns the configured pool size.
func (s *Scheduler[T]) Workers() int { return s.workers }

// Run executes compute exactly once for every node of g, each node after all
// of its predecessors. It blocks until every node completed or the run
// aborted. The returned report is never nil.
func (s *Scheduler[T]) Run(ctx context.Context, g *dag.Graph, store *result.Store[T], compute Compute[T]) (*Report, error) {
	n := g.Len()
	report := &Report{Nodes: n, Finished: make([]bool, n)}

	if err := g.Validate(); err != nil {
		s.logger.Error("dependency graph rejected", "err", err)
		return report, errors.Wrap(errors.ErrCodeConfiguration, err, "cannot schedule cyclic dependency graph")
	}
	if !store.Matches(g) {
		return report, errors.New(errors.ErrCodeInvalidInput,
			"result store sized for %d nodes does not match graph with %d nodes", store.Nodes(), n)
	}
	if n == 0 {
		return report, nil
	}

	workers := min(s.workers, n)
	report.Workers = workers
	start := time.Now()
	s.hooks.OnScheduleStart(ctx, n, workers)
	s.logger.Debug("schedule start", "nodes", n, "workers", workers)

	pending := make([]atomic.Int32, n)
	ready := make(chan dag.NodeID, n)
	for i := range n {
		id := dag.NodeID(i)
		pending[i].Store(int32(g.InDegree(id)))
		if g.InDegree(id) == 0 {
			ready <- id
		}
	}

	var remaining atomic.Int64
	remaining.Store(int64(n))
	finished := make([]atomic.Bool, n)

	eg, egCtx := errgroup.WithContext(ctx)
	for range workers {
		eg.Go(func() error {
			for {
				select {
				case <-egCtx.Done():
					return nil
				case id, ok := <-ready:
					if !ok {
						return nil
					}
					if egCtx.Err() != nil {
						return nil
					}
					if err := s.execute(egCtx, id, g, store, compute); err != nil {
						return err
					}
					finished[id].Store(true)
					for _, next := range g.Successors(id) {
						if pending[next].Add(-1) == 0 {
							ready <- next
						}
					}
					if remaining.Add(-1) == 0 {
						close(ready)
					}
				}
			}
		})
	}
	err := eg.Wait()

	for i := range finished {
		if finished[i].Load() {
			report.Finished[i] = true
			report.Completed++
		}
	}
	report.Duration = time.Since(start)

	switch {
	case err != nil && ctx.Err() == nil:
		err = errors.Wrap(errors.ErrCodeComputation, err,
			"run aborted after %d of %d nodes", report.Completed, n)
	case !report.Complete():
		err = errors.Wrap(errors.ErrCodeCanceled, context.Cause(ctx),
			"run canceled after %d of %d nodes", report.Completed, n)
	}

	s.hooks.OnScheduleComplete(ctx, report.Completed, report.Duration, err)
	if err != nil {
		s.logger.Warn("schedule aborted", "completed", report.Completed, "nodes", n, "err", err)
		return report, err
	}
	s.logger.Debug("schedule complete", "nodes", n, "duration", report.Duration)
	return report, nil
}

func (s *Scheduler[T]) execute(ctx context.Context, id dag.NodeID, g *dag.Graph, store *result.Store[T], compute Compute[T]) error {
	s.hooks.OnNodeStart(ctx, uint32(id))
	start := time.Now()
	err := compute(ctx, id, g, store, store.Span(id))
	elapsed := time.Since(start)
	s.hooks.OnNodeComplete(ctx, uint32(id), elapsed, err)

	if err != nil {
		return &NodeError{Node: id, Name: g.Name(id), Err: err}
	}
	s.logger.Debug("node computed", "node", g.Name(id), "duration", elapsed)
	return nil
}
