// Package visualize renders a depgraph.Graph (typically a computed
// dependency closure) as a Graphviz SVG, for the operator-only debug
// endpoint. It carries none of the request-serving semantics — this is
// a read-only diagnostic view.
package visualize

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/regro/metachannel/pkg/depgraph"
	apierr "github.com/regro/metachannel/pkg/errors"
)

// ToDOT converts g into Graphviz DOT source. Seed nodes (the requested
// package constraints) are filled in a darker shade so an operator can
// tell at a glance which nodes seeded the closure.
func ToDOT(g *depgraph.Graph, seeds map[string]bool) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.25;\n\n")

	for _, name := range g.Nodes() {
		attrs := []string{fmt.Sprintf("label=%q", name)}
		if seeds[name] {
			attrs = append(attrs, "fillcolor=lightblue")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, name := range g.Nodes() {
		for _, dep := range g.Predecessors(name) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", name, dep)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a depgraph.Graph to SVG via Graphviz.
func RenderSVG(ctx context.Context, g *depgraph.Graph, seeds map[string]bool) ([]byte, error) {
	dot := ToDOT(g, seeds)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, err, "parse generated DOT")
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, graphviz.SVG, &buf); err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, err, "render SVG")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root <svg> tag so the diagram scales to
// its container instead of rendering at Graphviz's native point size.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
