// Package archive keeps finished runs so that they can be listed and
// fetched later by the HTTP server.
package archive

import (
	"context"
	"time"

	"github.com/matzehuels/railsim/pkg/errors"
	"github.com/matzehuels/railsim/pkg/pipeline"
)

// DefaultLimit bounds List when no limit is given.
const DefaultLimit = 50

// Summary describes an archived run without its distributions.
type Summary struct {
	RunID        string    `json:"run_id" bson:"_id"`
	Scenario     string    `json:"scenario" bson:"scenario"`
	Hash         string    `json:"hash" bson:"hash"`
	Mode         string    `json:"mode" bson:"mode"`
	Created      time.Time `json:"created" bson:"created"`
	Nodes        int       `json:"nodes" bson:"nodes"`
	Edges        int       `json:"edges" bson:"edges"`
	MaxDelay     float64   `json:"max_delay" bson:"max_delay"`
	MaxDelayNode string    `json:"max_delay_node,omitempty" bson:"max_delay_node,omitempty"`
}

// Summarize extracts the summary of r.
func Summarize(r *pipeline.Result) Summary {
	s := Summary{
		RunID:    r.RunID,
		Scenario: r.Scenario,
		Hash:     r.Hash,
		Mode:     r.Mode,
		Created:  r.Created,
		Nodes:    r.Stats.Nodes,
		Edges:    r.Stats.Edges,
	}
	if node, route, ok := r.MaxDelay(); ok {
		s.MaxDelay = route.Delay
		s.MaxDelayNode = node
	}
	return s
}

// Query filters List.
type Query struct {
	Scenario string // Exact scenario name; empty matches all
	Limit    int    // Zero selects DefaultLimit
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

// Archive stores runs. Get returns a NOT_FOUND error for unknown ids.
// List returns the newest runs first.
type Archive interface {
	Save(ctx context.Context, r *pipeline.Result) error
	Get(ctx context.Context, runID string) (*pipeline.Result, error)
	List(ctx context.Context, q Query) ([]Summary, error)
	Close(ctx context.Context) error
}

func notFound(runID string) error {
	return errors.New(errors.ErrCodeNotFound, "run %q not found", runID)
}
