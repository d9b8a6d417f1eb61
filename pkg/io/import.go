package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/layout"
	"github.com/matzehuels/pagecraft/pkg/registry"
	"github.com/matzehuels/pagecraft/pkg/value"
)

// ReadJSON decodes a layout document from r.
//
// Components are kept in document order and assigned dense positions within
// their sections. Missing sections default to flexible. The returned page is
// independent of r; ReadJSON does not close r.
//
// ReadJSON returns an INVALID_DOCUMENT error if the JSON is malformed, the
// version is newer than [Version], a component lacks an id or type, two
// components share an id, an id is not a valid instance id, or a property
// name is empty or contains ".".
func ReadJSON(r io.Reader) (*layout.Page, error) {
	var doc document
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode layout")
	}
	if doc.Version > Version {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "unsupported layout version %d", doc.Version)
	}

	p := &layout.Page{
		ID:         doc.ID,
		Meta:       doc.Meta,
		Components: make([]*layout.Instance, 0, len(doc.Components)),
	}
	if doc.CreatedAt != nil {
		p.CreatedAt = *doc.CreatedAt
	}
	if doc.UpdatedAt != nil {
		p.UpdatedAt = *doc.UpdatedAt
	}

	seen := make(map[string]bool, len(doc.Components))
	for i, c := range doc.Components {
		if c.ID == "" || c.Type == "" {
			return nil, errors.New(errors.ErrCodeInvalidDocument, "component %d: id and type are required", i)
		}
		if seen[c.ID] {
			return nil, errors.New(errors.ErrCodeInvalidDocument, "component %d: duplicate id %s", i, c.ID)
		}
		seen[c.ID] = true

		section, err := registry.ParsePosition(string(c.Section))
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", c.ID, err)
		}
		in := &layout.Instance{
			ID:       c.ID,
			Type:     c.Type,
			Props:    c.Props,
			Section:  section,
			Position: i,
		}
		if in.Props == nil {
			in.Props = value.Map{}
		}
		if c.CreatedAt != nil {
			in.CreatedAt = *c.CreatedAt
		}
		if c.UpdatedAt != nil {
			in.UpdatedAt = *c.UpdatedAt
		}
		p.Components = append(p.Components, in)
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "invalid layout")
	}
	return p, nil
}

// ImportJSON reads the layout document at path.
func ImportJSON(path string) (*layout.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	p, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
