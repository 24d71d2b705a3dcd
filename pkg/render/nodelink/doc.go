// Package nodelink draws dependency graphs as node-link diagrams.
//
// # Overview
//
// Each train becomes a Graphviz cluster holding its nodes in running
// order. Sequence edges are solid; train dependencies between clusters are
// dashed. A cycle passed in [Options.Highlight] is drawn in red, which is
// how the graph command shows a rejected scenario.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT source can also be written out and processed with external
// Graphviz tools.
//
// # Dependencies
//
// SVG rendering runs Graphviz in-process through
// [github.com/goccy/go-graphviz].
package nodelink
