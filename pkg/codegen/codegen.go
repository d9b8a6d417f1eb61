// Package codegen renders a page layout as a TSX page module.
//
// The generated module imports the components it uses from a single package,
// then renders every instance in position order inside a <main> element.
// Each property becomes a JSX attribute. String leaves the extraction policy
// marks as translatable are bound to t("<namespace>.<path>"); every other
// value is written as an inline literal equal to its runtime value, with
// object keys sorted.
//
// Types missing from the registry render as <MissingComponent type="..." />,
// backed by a small inline definition, so a stale layout still produces a
// buildable page. Generation never fails and identical layouts produce
// byte-identical output.
package codegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/pagecraft/pkg/i18n"
	"github.com/matzehuels/pagecraft/pkg/i18n/extract"
	"github.com/matzehuels/pagecraft/pkg/layout"
	"github.com/matzehuels/pagecraft/pkg/registry"
	"github.com/matzehuels/pagecraft/pkg/value"
)

// DefaultImportPath is the module the generated page imports components from.
const DefaultImportPath = "@/components/sections"

// MissingComponentName is the placeholder element for unknown types.
const MissingComponentName = "MissingComponent"

var identRE = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Options configures a Generator.
type Options struct {
	ImportPath string
	Registry   *registry.Registry
	Policy     extract.Policy
}

// Output is the result of generating one page.
type Output struct {
	Source     []byte
	Components []string // imported component names, sorted
	Missing    []string // unknown component types, sorted
	Bindings   int      // number of t() lookups
}

// Generator writes TSX source for page layouts.
type Generator struct {
	opts Options

	indentLevel int
	buf         bytes.Buffer
	bindings    int
}

// New returns a Generator. A nil registry means [registry.Builtin]; a zero
// policy uses [extract.NewPolicy] with the same registry.
func New(opts Options) *Generator {
	if opts.ImportPath == "" {
		opts.ImportPath = DefaultImportPath
	}
	if opts.Registry == nil {
		opts.Registry = registry.Builtin()
	}
	if opts.Policy.Registry == nil && opts.Policy.SkipKeys == nil {
		opts.Policy = extract.NewPolicy(opts.Registry)
	}
	return &Generator{opts: opts}
}

// Generate renders page. It is not safe to call concurrently on one Generator.
func (g *Generator) Generate(page *layout.Page) Output {
	g.buf.Reset()
	g.indentLevel = 0
	g.bindings = 0

	var out Output
	names := make(map[string]string, len(page.Components))
	for _, in := range page.Components {
		schema, ok := g.opts.Registry.Get(in.Type)
		if !ok {
			if !slices.Contains(out.Missing, in.Type) {
				out.Missing = append(out.Missing, in.Type)
			}
			continue
		}
		names[in.Type] = schema.ComponentName()
		if !slices.Contains(out.Components, names[in.Type]) {
			out.Components = append(out.Components, names[in.Type])
		}
	}
	slices.Sort(out.Components)
	slices.Sort(out.Missing)

	var body bytes.Buffer
	g.indentLevel = 3
	for _, in := range page.Components {
		g.generateInstance(&body, in, names[in.Type])
	}
	g.indentLevel = 0

	g.write("// Code generated by pagecraft. DO NOT EDIT.\n")
	if g.bindings > 0 {
		g.write("import { useTranslations } from \"next-intl\";\n")
	}
	if len(out.Components) > 0 {
		g.write("import { %s } from %s;\n", strings.Join(out.Components, ", "), quote(g.opts.ImportPath))
	}
	g.write("\n")
	if len(out.Missing) > 0 {
		g.write("function %s({ type }: { type: string }) {\n", MissingComponentName)
		g.indentLevel++
		g.write("return (\n")
		g.indentLevel++
		g.write("<div data-missing-component={type} style={{ border: \"2px dashed #dc2626\", padding: 16 }}>\n")
		g.indentLevel++
		g.write("Unknown component: {type}\n")
		g.indentLevel--
		g.write("</div>\n")
		g.indentLevel--
		g.write(");\n")
		g.indentLevel--
		g.write("}\n\n")
	}
	g.write("export default function Page() {\n")
	g.indentLevel++
	if g.bindings > 0 {
		g.write("const t = useTranslations();\n")
	}
	g.write("return (\n")
	g.indentLevel++
	if len(page.Components) == 0 {
		g.write("<main />\n")
	} else {
		g.write("<main>\n")
		g.buf.Write(body.Bytes())
		g.write("</main>\n")
	}
	g.indentLevel--
	g.write(");\n")
	g.indentLevel--
	g.write("}\n")

	out.Source = bytes.Clone(g.buf.Bytes())
	out.Bindings = g.bindings
	return out
}

func (g *Generator) generateInstance(w *bytes.Buffer, in *layout.Instance, name string) {
	pad := strings.Repeat("  ", g.indentLevel)
	if name == "" {
		fmt.Fprintf(w, "%s<%s type=%s />\n", pad, MissingComponentName, quote(in.Type))
		return
	}

	ns := i18n.Namespace(in.Type, in.ID)
	b := g.opts.Policy.For(in.Type)
	var attrs, spread []string
	for _, k := range in.Props.Keys() {
		expr := g.expr(b, ns, value.Path{k}, in.Props[k])
		if identRE.MatchString(k) {
			attrs = append(attrs, fmt.Sprintf("%s={%s}", k, expr))
		} else {
			spread = append(spread, fmt.Sprintf("%s: %s", quote(k), expr))
		}
	}
	if len(spread) > 0 {
		attrs = append(attrs, fmt.Sprintf("{...{ %s }}", strings.Join(spread, ", ")))
	}

	if len(attrs) == 0 {
		fmt.Fprintf(w, "%s<%s />\n", pad, name)
		return
	}
	fmt.Fprintf(w, "%s<%s\n", pad, name)
	for _, a := range attrs {
		fmt.Fprintf(w, "%s  %s\n", pad, a)
	}
	fmt.Fprintf(w, "%s/>\n", pad)
}

// expr renders v as a TypeScript expression.
func (g *Generator) expr(b extract.Binder, ns string, path value.Path, v value.Value) string {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		if b.Translatable(path, s) {
			g.bindings++
			return fmt.Sprintf("t(%s)", quote(i18n.Key(ns, path)))
		}
		return quote(s)
	case value.KindNumber:
		n, _ := v.AsNumber()
		return value.FormatNumber(n)
	case value.KindBool:
		bv, _ := v.AsBool()
		if bv {
			return "true"
		}
		return "false"
	case value.KindList:
		items, _ := v.AsList()
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = g.expr(b, ns, path.Child(strconv.Itoa(i)), item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case value.KindMap:
		m, _ := v.AsMap()
		if len(m) == 0 {
			return "{}"
		}
		parts := make([]string, 0, len(m))
		for _, k := range m.Keys() {
			key := k
			if !identRE.MatchString(k) {
				key = quote(k)
			}
			parts = append(parts, fmt.Sprintf("%s: %s", key, g.expr(b, ns, path.Child(k), m[k])))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	default:
		return "null"
	}
}

func (g *Generator) write(format string, args ...any) {
	g.buf.WriteString(strings.Repeat("  ", g.indentLevel))
	fmt.Fprintf(&g.buf, format, args...)
}

// quote returns s as a double-quoted string literal valid in JS and JSX
// attribute expressions.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
