package archive

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/railsim/pkg/pipeline"
)

// Memory is an in-process archive. Results are stored encoded, so callers
// never share state with the archive.
type Memory struct {
	mu   sync.RWMutex
	runs map[string]entry
}

type entry struct {
	summary Summary
	payload []byte
}

// NewMemory returns an empty archive.
func NewMemory() *Memory {
	return &Memory{runs: make(map[string]entry)}
}

func (m *Memory) Save(_ context.Context, r *pipeline.Result) error {
	payload, err := pipeline.MarshalResult(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[r.RunID] = entry{summary: Summarize(r), payload: payload}
	return nil
}

func (m *Memory) Get(_ context.Context, runID string) (*pipeline.Result, error) {
	m.mu.RLock()
	e, ok := m.runs[runID]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(runID)
	}
	return pipeline.UnmarshalResult(e.payload)
}

func (m *Memory) List(_ context.Context, q Query) ([]Summary, error) {
	m.mu.RLock()
	out := make([]Summary, 0, len(m.runs))
	for _, e := range m.runs {
		if q.Scenario == "" || e.summary.Scenario == q.Scenario {
			out = append(out, e.summary)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b Summary) int {
		if c := b.Created.Compare(a.Created); c != 0 {
			return c
		}
		return cmp.Compare(a.RunID, b.RunID)
	})
	if n := q.limit(); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *Memory) Close(context.Context) error { return nil }

var _ Archive = (*Memory)(nil)
