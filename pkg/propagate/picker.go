package propagate

import (
	"math/rand/v2"

	"github.com/matzehuels/railsim/pkg/dag"
)

// Picker selects which node to remove from the ready set next. It returns
// an index into ready, which is never empty.
type Picker interface {
	Pick(ready []dag.NodeID) int
}

// PickerFunc adapts a function to [Picker].
type PickerFunc func(ready []dag.NodeID) int

func (f PickerFunc) Pick(ready []dag.NodeID) int { return f(ready) }

// LIFO picks the most recently added node.
type LIFO struct{}

func (LIFO) Pick(ready []dag.NodeID) int { return len(ready) - 1 }

// FIFO picks the node that has been ready the longest.
type FIFO struct{}

func (FIFO) Pick([]dag.NodeID) int { return 0 }

// Lowest picks the ready node with the smallest id.
type Lowest struct{}

func (Lowest) Pick(ready []dag.NodeID) int {
	best := 0
	for i, id := range ready {
		if id < ready[best] {
			best = i
		}
	}
	return best
}

// Random picks uniformly at random from a seeded source.
type Random struct {
	r *rand.Rand
}

// NewRandom returns a random picker with a fixed seed.
func NewRandom(seed uint64) *Random {
	return &Random{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *Random) Pick(ready []dag.NodeID) int { return p.r.IntN(len(ready)) }
