package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/railsim/pkg/dag"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds member routes to node labels.
	Detailed bool

	// Highlight is drawn in red, nodes and edges alike.
	Highlight dag.Cycle

	// Notes are appended to node labels, for example exit times.
	Notes map[dag.NodeID]string
}

const highlightColor = "#d62728"

// ToDOT converts g to Graphviz DOT source.
func ToDOT(g *dag.Graph, opts Options) string {
	hotNodes := make(map[dag.NodeID]bool)
	hotEdges := make(map[[2]dag.NodeID]bool)
	for i, id := range opts.Highlight {
		hotNodes[id] = true
		if i > 0 {
			hotEdges[[2]dag.NodeID{opts.Highlight[i-1], id}] = true
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")

	for i, t := range g.Trains() {
		fmt.Fprintf(&buf, "\n  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", t.Name)
		buf.WriteString("    style=\"rounded\";\n")
		buf.WriteString("    color=grey;\n")
		for _, id := range t.Nodes() {
			attrs := []string{fmt.Sprintf("label=%q", label(g.Node(id), opts.Detailed, opts.Notes[id]))}
			if hotNodes[id] {
				attrs = append(attrs, "color=\""+highlightColor+"\"", "penwidth=2")
			}
			fmt.Fprintf(&buf, "    n%d [%s];\n", id, strings.Join(attrs, ", "))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		var attrs []string
		if e.Kind == dag.EdgeTrain {
			attrs = append(attrs, "style=dashed", "constraint=false")
		}
		if hotEdges[[2]dag.NodeID{e.From, e.To}] {
			attrs = append(attrs, "color=\""+highlightColor+"\"", "penwidth=2")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  n%d -> n%d;\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  n%d -> n%d [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func label(n dag.Node, detailed bool, note string) string {
	parts := []string{n.Label}
	if n.Label == "" {
		parts[0] = fmt.Sprintf("#%d", n.Index)
	}
	if detailed && len(n.Members) > 0 {
		parts = append(parts, strings.Join(n.Members, ", "))
	}
	if note != "" {
		parts = append(parts, note)
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders DOT source to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one
// whose size matches the view box, so browsers scale the diagram.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
