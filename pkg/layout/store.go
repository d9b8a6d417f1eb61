// Package layout holds the authoritative model of one page being edited.
//
// A [Store] owns a single [Page] and moves through three states: no layout,
// editing and previewing. Every mutation is applied completely (including
// dense position recomputation) before it returns, so observers never see a
// partially reordered page. Mutations that reference an unknown instance id
// are silent no-ops; mutations issued before [Store.Create] or [Store.Open]
// fail with a NO_LAYOUT error.
//
// A Store is not safe for concurrent use. Adapters that share one across
// goroutines serialize access themselves.
package layout

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/layout/reorder"
	"github.com/matzehuels/pagecraft/pkg/registry"
	"github.com/matzehuels/pagecraft/pkg/value"
)

// State is the editing state of a Store.
type State int

const (
	StateNoLayout State = iota
	StateEditing
	StatePreviewing
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StatePreviewing:
		return "previewing"
	}
	return "no-layout"
}

// Store is the editing session for one page.
type Store struct {
	Registry *registry.Registry
	Logger   *log.Logger

	// Now and NewID are replaceable for deterministic tests.
	Now   func() time.Time
	NewID func() string

	page     *Page
	state    State
	selected string
	drag     Drag
}

// NewStore returns a Store in the no-layout state. A nil registry means
// [registry.Builtin]; a nil logger discards output.
func NewStore(reg *registry.Registry, logger *log.Logger) *Store {
	if reg == nil {
		reg = registry.Builtin()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{
		Registry: reg,
		Logger:   logger,
		Now:      func() time.Time { return time.Now().UTC() },
		NewID:    uuid.NewString,
	}
}

// State returns the current state.
func (s *Store) State() State { return s.state }

// Selected returns the selected instance id.
func (s *Store) Selected() (string, bool) { return s.selected, s.selected != "" }

// Create starts a new empty page and enters the editing state.
func (s *Store) Create(meta Meta) string {
	now := s.Now()
	s.page = &Page{
		ID:         s.NewID(),
		Meta:       meta,
		Components: []*Instance{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.state = StateEditing
	s.selected = ""
	s.drag = Drag{}
	s.Logger.Debug("created layout", "id", s.page.ID, "title", meta.Title)
	return s.page.ID
}

// Open loads a copy of p and enters the editing state. Instances are sorted
// into section order and renumbered; duplicate ids are rejected.
func (s *Store) Open(p *Page) error {
	if p == nil {
		return errors.New(errors.ErrCodeInvalidDocument, "nil page")
	}
	if i := slices.Index(p.Components, nil); i >= 0 {
		return errors.New(errors.ErrCodeInvalidDocument, "open layout %s: component %d is null", p.ID, i)
	}
	page := p.Clone()
	if page.ID == "" {
		page.ID = s.NewID()
	}
	for _, in := range page.Components {
		if in.Props == nil {
			in.Props = value.Map{}
		}
		in.Section, _ = registry.ParsePosition(string(in.Section))
	}
	page.Normalize()
	if err := page.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDocument, err, "open layout %s", page.ID)
	}
	s.page = page
	s.state = StateEditing
	s.selected = ""
	s.drag = Drag{}
	s.Logger.Debug("opened layout", "id", page.ID, "components", len(page.Components))
	return nil
}

// Snapshot returns a deep copy of the page.
func (s *Store) Snapshot() (*Page, error) {
	if s.page == nil {
		return nil, ErrNoLayout
	}
	return s.page.Clone(), nil
}

// Len returns the number of placed instances.
func (s *Store) Len() int {
	if s.page == nil {
		return 0
	}
	return len(s.page.Components)
}

// TogglePreview switches between editing and previewing.
func (s *Store) TogglePreview() (State, error) {
	switch s.state {
	case StateEditing:
		s.state = StatePreviewing
	case StatePreviewing:
		s.state = StateEditing
	default:
		return s.state, ErrNoLayout
	}
	s.Logger.Debug("toggled preview", "state", s.state)
	return s.state, nil
}

// Clear removes every instance and returns to editing. The page id and
// metadata are kept.
func (s *Store) Clear() error {
	if s.page == nil {
		return ErrNoLayout
	}
	s.page.Components = []*Instance{}
	s.page.UpdatedAt = s.Now()
	s.state = StateEditing
	s.selected = ""
	s.drag = Drag{}
	s.Logger.Debug("cleared layout", "id", s.page.ID)
	return nil
}

// Add places a new instance of schema in its natural slot: after the last
// top instance, before the first bottom instance, or at the end of the
// flexible section. The new instance is selected.
func (s *Store) Add(schema registry.Schema) (string, error) {
	return s.Insert(schema, -1)
}

// Insert is like Add but places flexible instances at the global index,
// clamped into the flexible range. Negative means the end of the section.
// The index is ignored for top and bottom instances.
func (s *Store) Insert(schema registry.Schema, index int) (string, error) {
	if s.page == nil {
		return "", ErrNoLayout
	}
	section, err := registry.ParsePosition(string(schema.Position))
	if err != nil {
		return "", err
	}
	now := s.Now()
	in := &Instance{
		ID:        s.NewID(),
		Type:      schema.Type,
		Props:     schema.Defaults.Clone(),
		Section:   section,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Props == nil {
		in.Props = value.Map{}
	}
	s.commit(reorder.Insert(s.page.Components, in, index))
	s.selected = in.ID
	s.Logger.Debug("added component", "type", in.Type, "id", in.ID, "position", in.Position)
	return in.ID, nil
}

// AddByType resolves typ through the registry and inserts it at index.
func (s *Store) AddByType(typ string, index int) (string, error) {
	if s.page == nil {
		return "", ErrNoLayout
	}
	schema, ok := s.Registry.Get(typ)
	if !ok {
		return "", errors.New(errors.ErrCodeUnknownComponent, "unknown component type %q", typ)
	}
	return s.Insert(schema, index)
}

// Remove deletes the instance with id. Unknown ids are ignored.
func (s *Store) Remove(id string) error {
	if s.page == nil {
		return ErrNoLayout
	}
	i := s.page.Index(id)
	if i < 0 {
		return nil
	}
	s.commit(reorder.Remove(s.page.Components, i))
	if s.selected == id {
		s.selected = ""
	}
	if s.drag.ID == id {
		s.drag = Drag{Phase: DragCancelled}
	}
	s.Logger.Debug("removed component", "id", id)
	return nil
}

// Move relocates a flexible instance to the global position target, clamped
// into the flexible range. It reports whether the page changed order. Top
// and bottom instances and unknown ids are left alone.
func (s *Store) Move(id string, target int) (bool, error) {
	if s.page == nil {
		return false, ErrNoLayout
	}
	i := s.page.Index(id)
	if i < 0 {
		return false, nil
	}
	moved, ok := reorder.Move(s.page.Components, i, target)
	if !ok {
		s.Logger.Debug("move rejected", "id", id, "section", s.page.Components[i].Section)
		return false, nil
	}
	s.commit(moved)
	in := s.page.Components[s.page.Index(id)]
	s.Logger.Debug("moved component", "id", id, "from", i, "to", in.Position)
	return in.Position != i, nil
}

// Duplicate copies the instance with id under a new id directly after the
// source and selects the copy. Unknown ids return "" and no error.
func (s *Store) Duplicate(id string) (string, error) {
	if s.page == nil {
		return "", ErrNoLayout
	}
	i := s.page.Index(id)
	if i < 0 {
		return "", nil
	}
	now := s.Now()
	dup := s.page.Components[i].Clone()
	dup.ID = s.NewID()
	dup.CreatedAt = now
	dup.UpdatedAt = now
	s.commit(reorder.InsertAfter(s.page.Components, i, dup))
	s.selected = dup.ID
	s.Logger.Debug("duplicated component", "source", id, "id", dup.ID, "position", dup.Position)
	return dup.ID, nil
}

// Update shallow-merges props into the instance's properties. Positions are
// not affected. Unknown ids are ignored. Property names anywhere in props
// must be non-empty and free of "."; otherwise Update fails with VALIDATION.
func (s *Store) Update(id string, props value.Map) error {
	if s.page == nil {
		return ErrNoLayout
	}
	if err := value.CheckKeys(props); err != nil {
		return errors.Wrap(errors.ErrCodeValidation, err, "update component %s", id)
	}
	in, ok := s.page.Find(id)
	if !ok {
		return nil
	}
	for k, v := range props {
		in.Props[k] = v.Clone()
	}
	in.UpdatedAt = s.Now()
	s.page.UpdatedAt = in.UpdatedAt
	s.Logger.Debug("updated component", "id", id, "keys", len(props))
	return nil
}

// Select marks id as selected. The empty id clears the selection; unknown
// ids leave it unchanged.
func (s *Store) Select(id string) {
	if id == "" {
		s.selected = ""
		return
	}
	if s.page == nil {
		return
	}
	if _, ok := s.page.Find(id); ok {
		s.selected = id
	}
}

// ClearSelection drops the selection.
func (s *Store) ClearSelection() { s.selected = "" }

func (s *Store) commit(components []*Instance) {
	reorder.Normalize(components)
	s.page.Components = components
	s.page.UpdatedAt = s.Now()
}
