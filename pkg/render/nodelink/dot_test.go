package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/railsim/pkg/dag"
)

func corridor(t *testing.T) *dag.Graph {
	t.Helper()
	b := dag.NewBuilder()
	ice, err := b.AddTrain("ICE 1",
		dag.NodeSpec{Label: "A-B"},
		dag.NodeSpec{Label: "B-C", Members: []string{"B-C/1", "B-C/2"}})
	if err != nil {
		t.Fatal(err)
	}
	re, err := b.AddTrain("RE 2", dag.NodeSpec{Label: "B-C"})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.AddConflict(ice[1], re[0]); err != nil {
		t.Fatal(err)
	}
	return b.Build()
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(corridor(t), Options{})

	for _, want := range []string{
		"digraph G {",
		"subgraph cluster_0 {",
		`label="ICE 1";`,
		`label="RE 2";`,
		`n0 [label="A-B"];`,
		"n0 -> n1;",
		"n1 -> n2 [style=dashed, constraint=false];",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "B-C/1") {
		t.Error("members shown without Detailed")
	}
	if strings.Contains(dot, highlightColor) {
		t.Error("highlight without a cycle")
	}
}

func TestToDOTDetailedAndNotes(t *testing.T) {
	dot := ToDOT(corridor(t), Options{
		Detailed: true,
		Notes:    map[dag.NodeID]string{2: "exit 07:36:00"},
	})
	if !strings.Contains(dot, `label="B-C\nB-C/1, B-C/2"`) {
		t.Errorf("members missing:\n%s", dot)
	}
	if !strings.Contains(dot, `label="B-C\nexit 07:36:00"`) {
		t.Errorf("note missing:\n%s", dot)
	}
}

func TestToDOTHighlight(t *testing.T) {
	dot := ToDOT(corridor(t), Options{Highlight: dag.Cycle{0, 1, 0}})
	if got := strings.Count(dot, highlightColor); got != 3 {
		t.Errorf("%d highlighted elements, want 2 nodes and 1 edge:\n%s", got, dot)
	}
	if !strings.Contains(dot, `n0 -> n1 [color="`+highlightColor+`", penwidth=2];`) {
		t.Errorf("edge 0->1 not highlighted:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if out != want {
		t.Errorf("normalizeViewBox() = %s, want %s", out, want)
	}

	plain := []byte("<svg><g/></svg>")
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Errorf("svg without view box changed: %s", got)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(corridor(t), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	if !strings.Contains(string(svg), "<svg") || !strings.Contains(string(svg), "ICE 1") {
		t.Errorf("unexpected SVG output: %.200s", svg)
	}
}

func TestRenderSVGInvalid(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "digraph {"); err == nil {
		t.Error("RenderSVG() accepted broken DOT")
	}
}
