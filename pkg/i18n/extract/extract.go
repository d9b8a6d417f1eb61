// Package extract finds the localizable text of a page layout.
//
// Extraction walks each instance's properties depth first, visiting map keys
// in ascending order and list items by index. Every string leaf accepted by
// the [Policy] becomes one translation key:
//
//	<type>_<instanceId>.<path>
//
// where path joins map keys and list indices with ".". Numbers, booleans and
// nulls are never extracted. Identical layouts always produce identical keys
// and values.
//
// The same Policy decides which leaves the code generator binds to a
// translation lookup, so generated source and extracted catalogs always agree.
package extract

import (
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/pagecraft/pkg/i18n"
	"github.com/matzehuels/pagecraft/pkg/layout"
	"github.com/matzehuels/pagecraft/pkg/registry"
	"github.com/matzehuels/pagecraft/pkg/value"
)

// DefaultSkipKeys are property names whose own string value never holds
// prose. Only the leaf's key is checked, so image.alt or link.label are
// still extracted.
var DefaultSkipKeys = []string{
	"href", "src", "url", "link", "icon", "image", "avatar", "logo",
	"id", "class", "className", "color", "variant", "endpoint",
}

// Policy decides which string leaves are translatable.
type Policy struct {
	// Registry supplies property kinds. Values of top-level properties whose
	// kind is not translatable are skipped, including list items but not
	// the keys of nested objects. Nil disables schema checks.
	Registry *registry.Registry

	// SkipKeys names map keys whose string values are skipped at any depth.
	SkipKeys map[string]bool
}

// NewPolicy returns a Policy using reg and [DefaultSkipKeys].
func NewPolicy(reg *registry.Registry) Policy {
	skip := make(map[string]bool, len(DefaultSkipKeys))
	for _, k := range DefaultSkipKeys {
		skip[k] = true
	}
	return Policy{Registry: reg, SkipKeys: skip}
}

// Binder answers per-leaf questions for one component type. It resolves the
// schema once so walks over many leaves stay cheap.
type Binder struct {
	policy Policy
	schema registry.Schema
	known  bool
}

// For returns a Binder for component type typ.
func (p Policy) For(typ string) Binder {
	b := Binder{policy: p}
	if p.Registry != nil {
		b.schema, b.known = p.Registry.Get(typ)
	}
	return b
}

// Translatable reports whether the string leaf at path should be localized.
func (b Binder) Translatable(path value.Path, text string) bool {
	if len(path) == 0 || !NeedsTranslation(text) {
		return false
	}
	// A dotted segment would make the key ambiguous.
	if slices.ContainsFunc(path, func(seg string) bool { return strings.Contains(seg, ".") }) {
		return false
	}
	if b.known && ownValue(path) {
		if prop, ok := b.schema.Property(path[0]); ok && !prop.Translatable() {
			return false
		}
	}
	return !b.policy.SkipKeys[path[len(path)-1]]
}

// ownValue reports whether path addresses a top-level property or one of its
// list items, as opposed to a key of a nested object. Property kinds
// describe only the former.
func ownValue(path value.Path) bool {
	for _, seg := range path[1:] {
		if _, err := strconv.Atoi(seg); err != nil {
			return false
		}
	}
	return true
}

// Entry is one extracted translation key.
type Entry struct {
	Key       string
	Namespace string
	Path      value.Path
	Text      string
}

// Instance returns the entries of one instance in walk order.
func (p Policy) Instance(in *layout.Instance) []Entry {
	ns := i18n.Namespace(in.Type, in.ID)
	b := p.For(in.Type)
	var out []Entry
	_ = value.WalkMap(in.Props, func(path value.Path, v value.Value) error {
		text, ok := v.AsString()
		if !ok || !b.Translatable(path, text) {
			return nil
		}
		out = append(out, Entry{
			Key:       i18n.Key(ns, path),
			Namespace: ns,
			Path:      path,
			Text:      text,
		})
		return nil
	})
	return out
}

// Entries returns the entries of every instance in page order.
func (p Policy) Entries(page *layout.Page) []Entry {
	var out []Entry
	for _, in := range page.Components {
		out = append(out, p.Instance(in)...)
	}
	return out
}

// Extract returns the source-locale catalog of page. Instances without
// translatable text contribute no namespace.
func (p Policy) Extract(page *layout.Page) i18n.Catalog {
	c := i18n.Catalog{}
	for _, e := range p.Entries(page) {
		c.Set(e.Key, e.Text)
	}
	return c
}
