// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about simulation runs, scheduling, cache operations, and
// HTTP requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (Prometheus, OpenTelemetry, a terminal UI)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSchedulerHooks(metrics.New(prometheus.DefaultRegisterer))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Scheduler().OnNodeStart(ctx, id)
//	// ... compute node ...
//	observability.Scheduler().OnNodeComplete(ctx, id, duration, err)
//
// A scheduler can also be given hooks directly, which takes precedence over
// the registry.
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the simulation pipeline.
type PipelineHooks interface {
	// Graph construction events
	OnBuildStart(ctx context.Context, scenario string)
	OnBuildComplete(ctx context.Context, scenario string, nodes, edges int, duration time.Duration, err error)

	// Run events
	OnRunStart(ctx context.Context, runID, mode string)
	OnRunComplete(ctx context.Context, runID, mode string, duration time.Duration, err error)
}

// =============================================================================
// Scheduler Hooks
// =============================================================================

// SchedulerHooks receives events from the parallel scheduler. Node events
// are emitted from worker goroutines and must be safe for concurrent use.
type SchedulerHooks interface {
	// OnScheduleStart is called once the graph passed validation.
	OnScheduleStart(ctx context.Context, nodes, workers int)

	// OnNodeStart is called when a worker picks up a node.
	OnNodeStart(ctx context.Context, node uint32)

	// OnNodeComplete is called when a node's computation returned.
	OnNodeComplete(ctx context.Context, node uint32, duration time.Duration, err error)

	// OnScheduleComplete is called when the run finished or aborted.
	OnScheduleComplete(ctx context.Context, completed int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API server.
type HTTPHooks interface {
	// OnRequest records an incoming HTTP request.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records the response written for a request.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnBuildStart(context.Context, string) {}
func (NoopPipelineHooks) OnBuildComplete(context.Context, string, int, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnRunStart(context.Context, string, string)                          {}
func (NoopPipelineHooks) OnRunComplete(context.Context, string, string, time.Duration, error) {}

// NoopSchedulerHooks is a no-op implementation of SchedulerHooks.
type NoopSchedulerHooks struct{}

func (NoopSchedulerHooks) OnScheduleStart(context.Context, int, int)                     {}
func (NoopSchedulerHooks) OnNodeStart(context.Context, uint32)                           {}
func (NoopSchedulerHooks) OnNodeComplete(context.Context, uint32, time.Duration, error)  {}
func (NoopSchedulerHooks) OnScheduleComplete(context.Context, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Fan-out
// =============================================================================

// MultiSchedulerHooks forwards every event to each hook in order.
type MultiSchedulerHooks []SchedulerHooks

func (m MultiSchedulerHooks) OnScheduleStart(ctx context.Context, nodes, workers int) {
	for _, h := range m {
		h.OnScheduleStart(ctx, nodes, workers)
	}
}

func (m MultiSchedulerHooks) OnNodeStart(ctx context.Context, node uint32) {
	for _, h := range m {
		h.OnNodeStart(ctx, node)
	}
}

func (m MultiSchedulerHooks) OnNodeComplete(ctx context.Context, node uint32, d time.Duration, err error) {
	for _, h := range m {
		h.OnNodeComplete(ctx, node, d, err)
	}
}

func (m MultiSchedulerHooks) OnScheduleComplete(ctx context.Context, completed int, d time.Duration, err error) {
	for _, h := range m {
		h.OnScheduleComplete(ctx, completed, d, err)
	}
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks  PipelineHooks  = NoopPipelineHooks{}
	schedulerHooks SchedulerHooks = NoopSchedulerHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	httpHooks      HTTPHooks      = NoopHTTPHooks{}
	hooksMu        sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any runs.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetSchedulerHooks registers custom scheduler hooks.
// This should be called once at application startup before any runs.
func SetSchedulerHooks(h SchedulerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		schedulerHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before serving requests.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Scheduler returns the registered scheduler hooks.
func Scheduler() SchedulerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return schedulerHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	schedulerHooks = NoopSchedulerHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
