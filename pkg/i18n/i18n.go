// Package i18n defines translation keys, namespaces and per-locale catalogs.
//
// A translation key is a dot-delimited path whose first segment is the
// namespace of the component instance that owns the text:
//
//	hero_4f1c.title
//	features_9a2e.items.0.body
//
// Namespaces are "<type>_<instanceId>", so two instances of the same
// component type never share keys. Within a locale, a [Catalog] maps each
// namespace to a nested [value.Map] whose leaves are strings; list indices in
// a key become ordinary map keys ("0", "1", ...) in the nested form.
//
// Subpackages implement the build steps that work on catalogs: extract
// produces keys from a layout, merge combines them with persisted catalogs,
// and translate seeds values for new keys in other locales.
package i18n

import (
	"slices"
	"strings"

	"golang.org/x/text/language"

	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/value"
)

// Namespace returns the namespace owned by an instance.
func Namespace(typ, id string) string { return typ + "_" + id }

// Key joins a namespace and a property path into a translation key.
func Key(namespace string, path value.Path) string {
	if len(path) == 0 {
		return namespace
	}
	return namespace + "." + path.String()
}

// SplitKey separates the namespace from the property path of key.
func SplitKey(key string) (namespace string, path value.Path) {
	ns, rest, ok := strings.Cut(key, ".")
	if !ok {
		return ns, value.Path{}
	}
	return ns, value.ParsePath(rest)
}

// ParseLocale validates a BCP 47 tag and returns its canonical form.
func ParseLocale(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", errors.New(errors.ErrCodeInvalidLocale, "empty locale")
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidLocale, err, "invalid locale %q", s)
	}
	return tag.String(), nil
}

// Catalog holds the translations of one locale keyed by namespace.
type Catalog map[string]value.Map

// Namespaces returns the namespaces in ascending order.
func (c Catalog) Namespaces() []string {
	out := make([]string, 0, len(c))
	for ns := range c {
		out = append(out, ns)
	}
	slices.Sort(out)
	return out
}

// Set stores text under key, creating the namespace if needed.
func (c Catalog) Set(key, text string) {
	ns, path := SplitKey(key)
	if len(path) == 0 {
		return
	}
	m, ok := c[ns]
	if !ok {
		m = value.Map{}
		c[ns] = m
	}
	m.Set(path, value.String(text))
}

// Lookup returns the string stored under key.
func (c Catalog) Lookup(key string) (string, bool) {
	ns, path := SplitKey(key)
	m, ok := c[ns]
	if !ok {
		return "", false
	}
	v, ok := m.Lookup(path)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Flatten returns every string leaf of the catalog keyed by full key.
func (c Catalog) Flatten() map[string]string {
	out := make(map[string]string)
	for ns, m := range c {
		for path, text := range Flatten(m) {
			out[ns+"."+path] = text
		}
	}
	return out
}

// Clone returns a deep copy.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for ns, m := range c {
		out[ns] = m.Clone()
	}
	return out
}

// Group builds a catalog from flat translation keys.
func Group(entries map[string]string) Catalog {
	c := Catalog{}
	for _, key := range sortedKeys(entries) {
		c.Set(key, entries[key])
	}
	return c
}

// Flatten returns the string leaves of m keyed by dotted path. Non-string
// leaves are skipped.
func Flatten(m value.Map) map[string]string {
	out := make(map[string]string)
	_ = value.WalkMap(m, func(path value.Path, v value.Value) error {
		if s, ok := v.AsString(); ok {
			out[path.String()] = s
		}
		return nil
	})
	return out
}

// Unflatten rebuilds a nested map from dotted paths.
func Unflatten(flat map[string]string) value.Map {
	out := value.Map{}
	for _, k := range sortedKeys(flat) {
		out.Set(value.ParsePath(k), value.String(flat[k]))
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
