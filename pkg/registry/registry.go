// Package registry holds the catalog of component schemas a page can be
// composed from.
//
// The registry is the single source of truth for component defaults and
// position constraints. A [Registry] is an explicit object: each editing
// session or server owns one, usually seeded with [Builtin] and optionally
// extended from a TOML catalog with [Registry.LoadTOML].
//
// Registered schemas are stored as deep copies, so callers can neither mutate
// a registered schema nor observe later mutations of the value they passed in.
package registry

import (
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/value"
)

// Position is the section constraint of a component type.
type Position string

const (
	PositionTop      Position = "top"
	PositionFlexible Position = "flexible"
	PositionBottom   Position = "bottom"
)

// Rank orders sections: top < flexible < bottom.
func (p Position) Rank() int {
	switch p {
	case PositionTop:
		return 0
	case PositionBottom:
		return 2
	}
	return 1
}

// ParsePosition validates a position string. The empty string means flexible.
func ParsePosition(s string) (Position, error) {
	switch Position(strings.ToLower(strings.TrimSpace(s))) {
	case PositionTop:
		return PositionTop, nil
	case PositionBottom:
		return PositionBottom, nil
	case PositionFlexible, "":
		return PositionFlexible, nil
	}
	return "", errors.New(errors.ErrCodeValidation, "invalid position %q (must be top, flexible or bottom)", s)
}

// PropertyKind describes what a property holds. It drives translation
// extraction: only text-bearing kinds are localized.
type PropertyKind string

const (
	KindText     PropertyKind = "text"
	KindRichText PropertyKind = "richtext"
	KindList     PropertyKind = "list"
	KindObject   PropertyKind = "object"
	KindURL      PropertyKind = "url"
	KindImage    PropertyKind = "image"
	KindColor    PropertyKind = "color"
	KindEnum     PropertyKind = "enum"
	KindIcon     PropertyKind = "icon"
	KindID       PropertyKind = "id"
	KindClass    PropertyKind = "class"
	KindNumber   PropertyKind = "number"
	KindBool     PropertyKind = "bool"
)

// Property describes one top-level property of a component.
type Property struct {
	Kind        PropertyKind
	Description string
	Options     []string // allowed values for KindEnum
}

// Translatable reports whether string leaves under this property may be
// localized. Unknown kinds are treated as text.
func (p Property) Translatable() bool {
	switch p.Kind {
	case KindURL, KindImage, KindColor, KindEnum, KindIcon, KindID, KindClass, KindNumber, KindBool:
		return false
	}
	return true
}

// Schema describes a component type.
type Schema struct {
	Type        string
	Name        string
	Description string
	Category    string
	Tags        []string
	Position    Position
	Defaults    value.Map
	Properties  map[string]Property

	// Component is the export name used by generated source. Empty means the
	// PascalCase form of Type.
	Component string

	// Integration names an external integration the component depends on
	// (for example "payment"). Exports stub out excluded integrations.
	Integration string
}

// ComponentName returns the export name used in generated source.
func (s Schema) ComponentName() string {
	if s.Component != "" {
		return s.Component
	}
	return PascalCase(s.Type)
}

// Property returns the schema entry for a top-level property name.
func (s Schema) Property(name string) (Property, bool) {
	p, ok := s.Properties[name]
	return p, ok
}

// Clone returns a deep copy of s.
func (s Schema) Clone() Schema {
	out := s
	out.Tags = slices.Clone(s.Tags)
	if s.Defaults != nil {
		out.Defaults = s.Defaults.Clone()
	}
	if s.Properties != nil {
		out.Properties = make(map[string]Property, len(s.Properties))
		for k, p := range s.Properties {
			p.Options = slices.Clone(p.Options)
			out.Properties[k] = p
		}
	}
	return out
}

// Validate checks that the required fields are present.
func (s Schema) Validate() error {
	if err := errors.ValidateTypeID(s.Type); err != nil {
		return err
	}
	if strings.TrimSpace(s.Name) == "" {
		return errors.New(errors.ErrCodeValidation, "schema %q: name is required", s.Type)
	}
	if strings.TrimSpace(s.Category) == "" {
		return errors.New(errors.ErrCodeValidation, "schema %q: category is required", s.Type)
	}
	if s.Properties == nil {
		return errors.New(errors.ErrCodeValidation, "schema %q: property schema is required", s.Type)
	}
	if s.Defaults == nil {
		return errors.New(errors.ErrCodeValidation, "schema %q: defaults are required", s.Type)
	}
	if err := value.CheckKeys(s.Defaults); err != nil {
		return errors.Wrap(errors.ErrCodeValidation, err, "schema %q: invalid defaults", s.Type)
	}
	if _, err := ParsePosition(string(s.Position)); err != nil {
		return errors.Wrap(errors.ErrCodeValidation, err, "schema %q", s.Type)
	}
	return nil
}

// Registry is a concurrency-safe catalog of schemas keyed by type id.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]Schema
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{schemas: make(map[string]Schema)}
}

// Register validates s and stores a copy, replacing any schema with the same type.
func (r *Registry) Register(s Schema) error {
	if err := s.Validate(); err != nil {
		return err
	}
	s = s.Clone()
	s.Position, _ = ParsePosition(string(s.Position))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[s.Type] = s
	return nil
}

// MustRegister is like Register but panics on invalid schemas. It is meant for
// static catalogs.
func (r *Registry) MustRegister(schemas ...Schema) {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Get returns a copy of the schema registered for typ.
func (r *Registry) Get(typ string) (Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[typ]
	if !ok {
		return Schema{}, false
	}
	return s.Clone(), true
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}

// Types returns all registered type ids in ascending order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// All returns every schema ordered by type id.
func (r *Registry) All() []Schema {
	return r.filter(func(Schema) bool { return true })
}

// ByCategory returns the schemas in category (case-insensitive), ordered by type id.
func (r *Registry) ByCategory(category string) []Schema {
	return r.filter(func(s Schema) bool {
		return strings.EqualFold(s.Category, category)
	})
}

// Categories returns the distinct categories in ascending order.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, s := range r.schemas {
		if !slices.Contains(out, s.Category) {
			out = append(out, s.Category)
		}
	}
	slices.Sort(out)
	return out
}

// Search returns schemas whose name, description or any tag contains query
// as a case-insensitive substring. An empty query matches everything.
func (r *Registry) Search(query string) []Schema {
	q := strings.ToLower(strings.TrimSpace(query))
	return r.filter(func(s Schema) bool {
		if q == "" {
			return true
		}
		if strings.Contains(strings.ToLower(s.Name), q) ||
			strings.Contains(strings.ToLower(s.Description), q) {
			return true
		}
		for _, tag := range s.Tags {
			if strings.Contains(strings.ToLower(tag), q) {
				return true
			}
		}
		return false
	})
}

func (r *Registry) filter(keep func(Schema) bool) []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Schema
	for _, s := range r.schemas {
		if keep(s) {
			out = append(out, s.Clone())
		}
	}
	slices.SortFunc(out, func(a, b Schema) int { return strings.Compare(a.Type, b.Type) })
	return out
}

// PascalCase converts a dash-separated type id to an exported identifier:
// "announcement-bar" becomes "AnnouncementBar".
func PascalCase(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if r == '-' || r == '_' || r == ' ' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
