package preview

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pagecraft/pkg/layout"
	"github.com/matzehuels/pagecraft/pkg/registry"
)

// ToDOT converts a layout to a Graphviz outline: one cluster per section,
// one node per instance, chained in position order. Instances of types
// missing from reg are drawn dashed.
func ToDOT(p *layout.Page, reg *registry.Registry) string {
	if reg == nil {
		reg = registry.Builtin()
	}
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.3;\n")
	if p.Meta.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", p.Meta.Title)
		buf.WriteString("  labelloc=t;\n")
	}

	for _, sec := range []registry.Position{registry.PositionTop, registry.PositionFlexible, registry.PositionBottom} {
		var members []*layout.Instance
		for _, in := range p.Components {
			if in.Section == sec {
				members = append(members, in)
			}
		}
		if len(members) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "\n  subgraph \"cluster_%s\" {\n", sec)
		fmt.Fprintf(&buf, "    label=%q;\n", string(sec))
		buf.WriteString("    style=dashed;\n")
		buf.WriteString("    color=grey;\n")
		for _, in := range members {
			fmt.Fprintf(&buf, "    %q [%s];\n", in.ID, strings.Join(nodeAttrs(in, reg), ", "))
		}
		buf.WriteString("  }\n")
	}

	if len(p.Components) > 1 {
		buf.WriteString("\n")
		for i := 1; i < len(p.Components); i++ {
			fmt.Fprintf(&buf, "  %q -> %q;\n", p.Components[i-1].ID, p.Components[i].ID)
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(in *layout.Instance, reg *registry.Registry) []string {
	s, ok := reg.Get(in.Type)
	if !ok {
		return []string{
			fmt.Sprintf("label=%q", fmt.Sprintf("%d. unknown: %s", in.Position, in.Type)),
			"style=\"rounded,filled,dashed\"", "fillcolor=mistyrose", "color=red",
		}
	}
	return []string{fmt.Sprintf("label=%q", fmt.Sprintf("%d. %s\n%s", in.Position, s.Name, in.Type))}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
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

// Outline renders p straight to SVG.
func Outline(ctx context.Context, p *layout.Page, reg *registry.Registry) ([]byte, error) {
	return RenderSVG(ctx, ToDOT(p, reg))
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-based svg tag with one that
// scales to its container.
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
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
