package cli

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/layout"
	"github.com/matzehuels/pagecraft/pkg/value"
)

// resolveRef maps a component reference to an instance id. A reference is
// a position ("2" or "#2"), a full id, a unique id prefix or the type of a
// component that appears once.
func resolveRef(p *layout.Page, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(strings.TrimPrefix(ref, "#")); err == nil {
		if n < 0 || n >= len(p.Components) {
			return "", errors.New(errors.ErrCodeNotFound, "no component at position %d (page has %d)", n, len(p.Components))
		}
		return p.Components[n].ID, nil
	}
	if _, ok := p.Find(ref); ok {
		return ref, nil
	}

	var match string
	for _, in := range p.Components {
		if ref != "" && strings.HasPrefix(in.ID, ref) {
			if match != "" {
				return "", errors.New(errors.ErrCodeValidation, "component reference %q is ambiguous", ref)
			}
			match = in.ID
		}
	}
	if match != "" {
		return match, nil
	}

	for _, in := range p.Components {
		if in.Type == ref {
			if match != "" {
				return "", errors.New(errors.ErrCodeValidation, "page has several %s components; use a position or id", ref)
			}
			match = in.ID
		}
	}
	if match == "" {
		return "", errors.New(errors.ErrCodeNotFound, "no component matches %q", ref)
	}
	return match, nil
}

// parseProps builds a property patch from key=value assignments and an
// optional JSON object. Values that parse as JSON keep their type; anything
// else is a string. Assignments win over the JSON object.
//
// A dotted key such as cta.label sets one nested field. The enclosing
// top-level property is copied from current first, so its other fields
// survive the shallow update.
func parseProps(current value.Map, assignments []string, raw string) (value.Map, error) {
	props := value.Map{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &props); err != nil {
			return nil, errors.Wrap(errors.ErrCodeValidation, err, "--json must be a JSON object")
		}
		if props == nil {
			props = value.Map{}
		}
	}
	for _, a := range assignments {
		key, val, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.New(errors.ErrCodeValidation, "invalid assignment %q (want key=value)", a)
		}
		path := value.ParsePath(key)
		if slices.Contains(path, "") {
			return nil, errors.New(errors.ErrCodeValidation, "invalid property path %q", key)
		}
		if len(path) > 1 {
			if _, ok := props[path[0]]; !ok {
				if m, isMap := current[path[0]].AsMap(); isMap {
					props[path[0]] = value.Object(m.Clone())
				}
			}
			for i := 1; i < len(path); i++ {
				if v, ok := props.Lookup(path[:i]); ok && v.Kind() == value.KindList {
					return nil, errors.New(errors.ErrCodeValidation, "%s is a list; set it with --json", value.Path(path[:i]))
				}
			}
		}
		props.Set(path, parseValue(val))
	}
	if len(props) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "no properties given")
	}
	return props, nil
}

func parseValue(s string) value.Value {
	var v value.Value
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return value.String(s)
}

// shortID abbreviates an instance id for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
