package dag_test

import (
	"errors"
	"fmt"

	"github.com/matzehuels/railsim/pkg/dag"
)

func ExampleBuilder() {
	b := dag.NewBuilder()
	ice, _ := b.AddTrain("ICE 1",
		dag.NodeSpec{Label: "A-B"},
		dag.NodeSpec{Label: "B-C"},
	)
	re, _ := b.AddTrain("RE 2", dag.NodeSpec{Label: "B-C"})

	// ICE 1 enters B-C before RE 2.
	_ = b.AddConflict(ice[1], re[0])
	g := b.Build()

	fmt.Println("Nodes:", g.Len())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Starts:", g.Starts())
	fmt.Println("Successors of", g.Name(ice[1])+":", g.Successors(ice[1]))
	// Output:
	// Nodes: 3
	// Edges: 2
	// Starts: [0]
	// Successors of ICE 1/B-C: [2]
}

func ExampleGraph_Validate() {
	b := dag.NewBuilder()
	x, _ := b.AddTrain("X", dag.NodeSpec{Label: "1"}, dag.NodeSpec{Label: "2"})
	y, _ := b.AddTrain("Y", dag.NodeSpec{Label: "1"}, dag.NodeSpec{Label: "2"})
	_ = b.AddConflict(x[1], y[0])
	_ = b.AddConflict(y[1], x[0])

	err := b.Build().Validate()
	fmt.Println(errors.Is(err, dag.ErrGraphHasCycle))
	fmt.Println(err)
	// Output:
	// true
	// graph contains a cycle: 0 -> 1 -> 2 -> 3 -> 0
}
