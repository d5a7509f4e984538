// Package tree exports clustering dendrograms as Graphviz graphs.
//
// [ToDOT] produces a DOT description in which every merge is an internal
// node annotated with its linkage distance, and every observation is a leaf.
// The DOT string can be rendered with [RenderSVG] or [RenderPNG].
package tree

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/simheat/pkg/cluster"
	"github.com/matzehuels/simheat/pkg/errors"
)

// Options configures DOT generation.
type Options struct {
	// Labels maps observation names to display labels. Missing entries fall
	// back to the name itself.
	Labels map[string]string

	// ShowDistances annotates internal nodes with their merge distance.
	ShowDistances bool
}

// ToDOT converts a clustering tree into Graphviz DOT format.
// names holds one identifier per observation, indexed like the tree leaves.
func ToDOT(t *cluster.Tree, names []string, opts Options) (string, error) {
	if len(names) != t.N {
		return "", errors.New(errors.ErrCodeInvalidInput, "got %d names for %d leaves", len(names), t.N)
	}

	var buf bytes.Buffer
	buf.WriteString("graph dendrogram {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=ortho;\n")
	buf.WriteString("  node [shape=point, width=0.05];\n")
	buf.WriteString("\n")

	// Leaves in dendrogram order keep Graphviz from reshuffling them.
	for _, leaf := range t.Leaves {
		name := names[leaf]
		label := name
		if l, ok := opts.Labels[name]; ok {
			label = l
		}
		fmt.Fprintf(&buf, "  %q [shape=plaintext, width=0, label=%q];\n", leafID(leaf), label)
	}
	for k, m := range t.Merges {
		attrs := ""
		if opts.ShowDistances {
			attrs = fmt.Sprintf(" [xlabel=%q]", strconv.FormatFloat(m.Dist, 'g', 4, 64))
		}
		fmt.Fprintf(&buf, "  %q%s;\n", nodeID(t.N, t.N+k), attrs)
	}

	buf.WriteString("\n")
	for k, m := range t.Merges {
		parent := nodeID(t.N, t.N+k)
		fmt.Fprintf(&buf, "  %q -- %q;\n", parent, nodeID(t.N, m.A))
		fmt.Fprintf(&buf, "  %q -- %q;\n", parent, nodeID(t.N, m.B))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func nodeID(n, id int) string {
	if id < n {
		return leafID(id)
	}
	return fmt.Sprintf("m%d", id-n)
}

func leafID(i int) string {
	return fmt.Sprintf("leaf%d", i)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	data, err := render(dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(data), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG)
}

func render(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
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
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the root element with a zero-origin viewBox and
// unitless width/height.
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

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
