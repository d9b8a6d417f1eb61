package value

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Path is the sequence of map keys and list indices that leads from a root
// value to one of its descendants. List indices are spelled in decimal.
type Path []string

// String joins the path segments with ".".
func (p Path) String() string { return strings.Join(p, ".") }

// Child returns a new path with seg appended. The receiver is not modified.
func (p Path) Child(seg string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// ParsePath splits a dot-delimited path. The empty string yields an empty path.
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}
	return strings.Split(s, ".")
}

// SkipChildren can be returned by a VisitFunc for a container to skip its
// descendants without stopping the walk.
var SkipChildren = errors.New("skip children")

// VisitFunc is called for every value reached by Walk. Containers are visited
// before their children; returning SkipChildren from a container prunes it.
// Any other non-nil error stops the walk and is returned by Walk.
//
// The path passed to fn is owned by fn; Walk never reuses it.
type VisitFunc func(path Path, v Value) error

// Walk visits v and its descendants depth-first. Map entries are visited in
// ascending key order and list entries in index order, so two walks over
// equal values produce the same sequence of calls.
func Walk(v Value, fn VisitFunc) error {
	return walk(Path{}, v, fn)
}

// WalkMap walks every entry of m as if m were the root map value, without
// visiting the root itself.
func WalkMap(m Map, fn VisitFunc) error {
	for _, k := range m.Keys() {
		if err := walk(Path{k}, m[k], fn); err != nil {
			return err
		}
	}
	return nil
}

func walk(path Path, v Value, fn VisitFunc) error {
	err := fn(path, v)
	if errors.Is(err, SkipChildren) {
		return nil
	}
	if err != nil {
		return err
	}
	switch v.kind {
	case KindList:
		for i, item := range v.list {
			if err := walk(path.Child(strconv.Itoa(i)), item, fn); err != nil {
				return err
			}
		}
	case KindMap:
		for _, k := range v.m.Keys() {
			if err := walk(path.Child(k), v.m[k], fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Leaves returns every non-container value under m keyed by its dotted path.
func Leaves(m Map) map[string]Value {
	out := make(map[string]Value)
	_ = WalkMap(m, func(path Path, v Value) error {
		if v.kind != KindList && v.kind != KindMap {
			out[path.String()] = v
		}
		return nil
	})
	return out
}

// Lookup resolves a path inside m. Numeric segments index into lists.
func (m Map) Lookup(path Path) (Value, bool) {
	if len(path) == 0 {
		return Object(m), true
	}
	cur, ok := m[path[0]]
	if !ok {
		return Value{}, false
	}
	for _, seg := range path[1:] {
		switch cur.kind {
		case KindMap:
			next, ok := cur.m[seg]
			if !ok {
				return Value{}, false
			}
			cur = next
		case KindList:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(cur.list) {
				return Value{}, false
			}
			cur = cur.list[i]
		default:
			return Value{}, false
		}
	}
	return cur, true
}

// Set stores v at path inside m, creating intermediate maps as needed. An
// intermediate non-map value on the path is replaced by a map. Set does not
// index into lists: every segment is treated as a map key.
func (m Map) Set(path Path, v Value) {
	if len(path) == 0 {
		return
	}
	cur := m
	for _, seg := range path[:len(path)-1] {
		next, ok := cur[seg]
		if nm, isMap := next.AsMap(); ok && isMap {
			cur = nm
			continue
		}
		nm := Map{}
		cur[seg] = Object(nm)
		cur = nm
	}
	cur[path[len(path)-1]] = v
}

// KeyError reports a map key that a dotted path cannot address.
type KeyError struct {
	Path Path // parent of the offending key
	Key  string
}

func (e *KeyError) Error() string {
	where := ""
	if len(e.Path) > 0 {
		where = " under " + e.Path.String()
	}
	if e.Key == "" {
		return "empty property name" + where
	}
	return fmt.Sprintf("property name %q%s contains \".\"", e.Key, where)
}

// CheckKeys reports the first map key under m, in walk order, that is empty
// or contains ".". Maps that pass have one distinct dotted path per leaf.
func CheckKeys(m Map) error {
	return checkKeys(Path{}, m)
}

func checkKeys(prefix Path, m Map) error {
	for _, k := range m.Keys() {
		if k == "" || strings.Contains(k, ".") {
			return &KeyError{Path: prefix, Key: k}
		}
		if err := checkValue(prefix.Child(k), m[k]); err != nil {
			return err
		}
	}
	return nil
}

func checkValue(path Path, v Value) error {
	switch v.kind {
	case KindMap:
		return checkKeys(path, v.m)
	case KindList:
		for i, item := range v.list {
			if err := checkValue(path.Child(strconv.Itoa(i)), item); err != nil {
				return err
			}
		}
	}
	return nil
}
