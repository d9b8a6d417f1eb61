package registry

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/value"
)

// catalogFile is the TOML shape of a catalog:
//
//	[[component]]
//	type = "logo-cloud"
//	name = "Logo Cloud"
//	category = "social"
//	position = "flexible"
//	tags = ["logos", "customers"]
//
//	[component.defaults]
//	heading = "Trusted by"
//
//	[component.properties.heading]
//	kind = "text"
type catalogFile struct {
	Component []catalogEntry `toml:"component"`
}

type catalogEntry struct {
	Type        string                     `toml:"type"`
	Name        string                     `toml:"name"`
	Description string                     `toml:"description"`
	Category    string                     `toml:"category"`
	Tags        []string                   `toml:"tags"`
	Position    string                     `toml:"position"`
	Component   string                     `toml:"component"`
	Integration string                     `toml:"integration"`
	Defaults    map[string]any             `toml:"defaults"`
	Properties  map[string]catalogProperty `toml:"properties"`
}

type catalogProperty struct {
	Kind        string   `toml:"kind"`
	Description string   `toml:"description"`
	Options     []string `toml:"options"`
}

// LoadTOML registers every component declared in r. Entries overwrite
// existing schemas with the same type. Nothing is registered if any entry is
// invalid. It returns the registered type ids in file order.
func (reg *Registry) LoadTOML(r io.Reader) ([]string, error) {
	var f catalogFile
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeValidation, err, "decode catalog")
	}

	schemas := make([]Schema, 0, len(f.Component))
	for i, e := range f.Component {
		s, err := e.schema()
		if err != nil {
			return nil, fmt.Errorf("component %d (%s): %w", i, e.Type, err)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		schemas = append(schemas, s)
	}

	types := make([]string, 0, len(schemas))
	for _, s := range schemas {
		if err := reg.Register(s); err != nil {
			return types, err
		}
		types = append(types, s.Type)
	}
	return types, nil
}

// LoadFile registers the components declared in the TOML file at path.
func (reg *Registry) LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	return reg.LoadTOML(f)
}

func (e catalogEntry) schema() (Schema, error) {
	pos, err := ParsePosition(e.Position)
	if err != nil {
		return Schema{}, err
	}

	var defaults value.Map
	if e.Defaults != nil {
		defaults, err = value.MapFromAny(e.Defaults)
		if err != nil {
			return Schema{}, errors.Wrap(errors.ErrCodeValidation, err, "defaults")
		}
	}

	var props map[string]Property
	if e.Properties != nil {
		props = make(map[string]Property, len(e.Properties))
		for name, p := range e.Properties {
			kind := PropertyKind(p.Kind)
			if kind == "" {
				kind = KindText
			}
			props[name] = Property{Kind: kind, Description: p.Description, Options: p.Options}
		}
	}

	return Schema{
		Type:        e.Type,
		Name:        e.Name,
		Description: e.Description,
		Category:    e.Category,
		Tags:        e.Tags,
		Position:    pos,
		Component:   e.Component,
		Integration: e.Integration,
		Defaults:    defaults,
		Properties:  props,
	}, nil
}
