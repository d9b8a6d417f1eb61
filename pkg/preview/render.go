// Package preview draws on-screen previews of components and layouts.
//
// [Renderer] produces bordered terminal blocks for the editor. [ToDOT] and
// [RenderSVG] produce an outline diagram of a whole layout through Graphviz.
// Neither is used by exports.
package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/pagecraft/pkg/layout"
	"github.com/matzehuels/pagecraft/pkg/registry"
	"github.com/matzehuels/pagecraft/pkg/value"
)

var (
	colorCyan = lipgloss.Color("36")
	colorRed  = lipgloss.Color("167")
	colorGray = lipgloss.Color("245")
	colorDim  = lipgloss.Color("240")

	styleBlock    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	styleSelected = styleBlock.BorderForeground(colorCyan)
	styleMissing  = styleBlock.BorderStyle(lipgloss.NormalBorder()).BorderForeground(colorRed)
	styleName     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleMeta     = lipgloss.NewStyle().Foreground(colorGray)
)

// DefaultWidth is the block width used when Renderer.Width is zero.
const DefaultWidth = 56

// maxValue caps a rendered property value.
const maxValue = 40

// Renderer draws component blocks.
type Renderer struct {
	Registry *registry.Registry
	Width    int
}

// NewRenderer returns a Renderer for reg. A nil registry means the builtin catalog.
func NewRenderer(reg *registry.Registry) *Renderer {
	if reg == nil {
		reg = registry.Builtin()
	}
	return &Renderer{Registry: reg, Width: DefaultWidth}
}

// Render draws the registered defaults of typ. It reports false for unknown types.
func (r *Renderer) Render(typ string) (string, bool) {
	s, ok := r.Registry.Get(typ)
	if !ok {
		return "", false
	}
	return r.block(styleBlock, s.Name, fmt.Sprintf("%s · %s", s.Category, s.Position), s.Defaults), true
}

// RenderInstance draws one instance with its current properties. Instances of
// unknown types are drawn as a visible placeholder.
func (r *Renderer) RenderInstance(in *layout.Instance, selected bool) string {
	s, ok := r.Registry.Get(in.Type)
	if !ok {
		return r.block(styleMissing, "Unknown component", in.Type, nil)
	}
	style := styleBlock
	if selected {
		style = styleSelected
	}
	meta := fmt.Sprintf("#%d %s · %s", in.Position, in.Type, in.Section)
	return r.block(style, s.Name, meta, in.Props)
}

// RenderPage draws every instance of p top to bottom.
func (r *Renderer) RenderPage(p *layout.Page, selected string) string {
	if p == nil || len(p.Components) == 0 {
		return styleMeta.Render("(empty page)")
	}
	blocks := make([]string, len(p.Components))
	for i, in := range p.Components {
		blocks[i] = r.RenderInstance(in, in.ID == selected)
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func (r *Renderer) block(style lipgloss.Style, title, meta string, props value.Map) string {
	width := r.Width
	if width <= 0 {
		width = DefaultWidth
	}
	lines := []string{styleName.Render(title), styleMeta.Render(meta)}
	for _, k := range props.Keys() {
		lines = append(lines, fmt.Sprintf("%s: %s", k, summarize(props[k])))
	}
	return style.Width(width).Render(strings.Join(lines, "\n"))
}

// summarize renders v on one line, truncated.
func summarize(v value.Value) string {
	var s string
	switch v.Kind() {
	case value.KindString:
		s, _ = v.AsString()
		s = fmt.Sprintf("%q", s)
	case value.KindList:
		items, _ := v.AsList()
		s = fmt.Sprintf("[%d items]", len(items))
	case value.KindMap:
		m, _ := v.AsMap()
		s = "{" + strings.Join(m.Keys(), ", ") + "}"
	default:
		s = v.String()
	}
	if r := []rune(s); len(r) > maxValue {
		s = string(r[:maxValue-1]) + "…"
	}
	return s
}
