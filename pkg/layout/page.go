package layout

import (
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/layout/reorder"
	"github.com/matzehuels/pagecraft/pkg/registry"
	"github.com/matzehuels/pagecraft/pkg/value"
)

// Meta is the descriptive metadata of a page.
type Meta struct {
	Title  string   `json:"title"`
	Locale string   `json:"locale,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// Instance is one placed component.
type Instance struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Props     value.Map         `json:"props"`
	Position  int               `json:"position"`
	Section   registry.Position `json:"section"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Constraint returns the section the instance was created in.
func (in *Instance) Constraint() registry.Position { return in.Section }

// SetPosition assigns the dense position.
func (in *Instance) SetPosition(p int) { in.Position = p }

// Namespace returns the translation namespace of the instance.
func (in *Instance) Namespace() string { return in.Type + "_" + in.ID }

// Clone returns a deep copy of the instance.
func (in *Instance) Clone() *Instance {
	out := *in
	out.Props = in.Props.Clone()
	return &out
}

// Page is an ordered sequence of component instances.
type Page struct {
	ID         string      `json:"id"`
	Meta       Meta        `json:"meta"`
	Components []*Instance `json:"components"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Clone returns a deep copy of the page.
func (p *Page) Clone() *Page {
	out := *p
	out.Meta.Tags = slices.Clone(p.Meta.Tags)
	out.Components = make([]*Instance, len(p.Components))
	for i, in := range p.Components {
		out.Components[i] = in.Clone()
	}
	return &out
}

// Index returns the slice index of the instance with id, or -1.
func (p *Page) Index(id string) int {
	return slices.IndexFunc(p.Components, func(in *Instance) bool { return in.ID == id })
}

// Find returns the instance with id.
func (p *Page) Find(id string) (*Instance, bool) {
	if i := p.Index(id); i >= 0 {
		return p.Components[i], true
	}
	return nil, false
}

// Types returns the distinct component types in position order.
func (p *Page) Types() []string {
	var out []string
	for _, in := range p.Components {
		if !slices.Contains(out, in.Type) {
			out = append(out, in.Type)
		}
	}
	return out
}

// Validate checks section order, dense positions, instance ids and property
// names.
func (p *Page) Validate() error {
	for i, in := range p.Components {
		if in == nil {
			return fmt.Errorf("component %d is null", i)
		}
		if err := errors.ValidateInstanceID(in.ID); err != nil {
			return fmt.Errorf("component %d: %w", i, err)
		}
		if err := value.CheckKeys(in.Props); err != nil {
			return fmt.Errorf("component %s: %w", in.ID, err)
		}
	}
	if err := reorder.Validate(p.Components); err != nil {
		return err
	}
	seen := make(map[string]bool, len(p.Components))
	for i, in := range p.Components {
		if in.Position != i {
			return &PositionError{ID: in.ID, Index: i, Position: in.Position}
		}
		if seen[in.ID] {
			return &DuplicateIDError{ID: in.ID}
		}
		seen[in.ID] = true
	}
	return nil
}

// Normalize sorts instances into section order, keeping the relative order
// within each section, and assigns dense positions.
func (p *Page) Normalize() {
	slices.SortStableFunc(p.Components, func(a, b *Instance) int {
		if c := a.Section.Rank() - b.Section.Rank(); c != 0 {
			return c
		}
		return a.Position - b.Position
	})
	reorder.Normalize(p.Components)
}
