// Package render provides visualization of dependency graphs.
//
// The [nodelink] subpackage renders the graph as a Graphviz diagram with
// one cluster per train. Train dependencies are drawn dashed so that the
// sequence of each train stays readable.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
package render
