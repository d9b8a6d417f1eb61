// Package merge combines freshly extracted translations with persisted ones.
//
// Three modes are supported:
//
//   - replace: the incoming namespace overwrites the existing one entirely.
//   - merge:   a recursive deep merge where, for every path present on both
//     sides, the existing value wins. Paths only in the incoming map are
//     added and paths only in the existing map are kept.
//   - smart:   the same as merge. Paths whose existing value differs from
//     the incoming one are reported as stale so callers can surface them.
//
// Under merge and smart, merging the result again with the same incoming map
// changes nothing. Human edits to persisted translations therefore survive
// every later export unless replace is requested explicitly.
package merge

import (
	"slices"
	"strings"

	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/value"
)

// Mode selects the merge strategy.
type Mode string

const (
	ModeReplace Mode = "replace"
	ModeMerge   Mode = "merge"
	ModeSmart   Mode = "smart"
)

// DefaultMode is used when no mode is configured.
const DefaultMode = ModeSmart

// Modes lists the valid modes.
func Modes() []Mode { return []Mode{ModeReplace, ModeMerge, ModeSmart} }

// ParseMode validates s. The empty string yields DefaultMode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return DefaultMode, nil
	case ModeReplace, ModeMerge, ModeSmart:
		return m, nil
	}
	return "", errors.New(errors.ErrCodeInvalidMode, "invalid merge mode %q (must be replace, merge or smart)", s)
}

// Result is the outcome of merging one namespace. Path lists hold dotted
// leaf paths in ascending order.
type Result struct {
	Merged value.Map

	// New lists paths that were absent from the existing map.
	New []string
	// Preserved lists existing paths carried into Merged unchanged.
	Preserved []string
	// Replaced lists existing paths overwritten or dropped by replace mode.
	Replaced []string
	// Stale lists paths present on both sides with different values. Under
	// merge and smart the existing value was kept anyway.
	Stale []string
}

// Changed reports whether Merged differs from the existing map.
func (r Result) Changed() bool { return len(r.New) > 0 || len(r.Replaced) > 0 }

// Merge combines existing and incoming according to mode. Neither input is
// modified; Merged shares no structure with them.
func Merge(existing, incoming value.Map, mode Mode) Result {
	if existing == nil {
		existing = value.Map{}
	}
	if incoming == nil {
		incoming = value.Map{}
	}
	var r Result
	if mode == ModeReplace {
		r = replace(existing, incoming)
	} else {
		r.Merged = existing.Clone()
		deepMerge(r.Merged, incoming, nil, &r)
	}
	slices.Sort(r.New)
	slices.Sort(r.Preserved)
	slices.Sort(r.Replaced)
	slices.Sort(r.Stale)
	return r
}

func replace(existing, incoming value.Map) Result {
	r := Result{Merged: incoming.Clone()}
	old := value.Leaves(existing)
	next := value.Leaves(incoming)
	for path, v := range next {
		prev, ok := old[path]
		switch {
		case !ok:
			r.New = append(r.New, path)
		case prev.Equal(v):
			r.Preserved = append(r.Preserved, path)
		default:
			r.Replaced = append(r.Replaced, path)
			r.Stale = append(r.Stale, path)
		}
	}
	for path := range old {
		if _, ok := next[path]; !ok {
			r.Replaced = append(r.Replaced, path)
		}
	}
	return r
}

// deepMerge adds every path of in that dst lacks. dst already holds the
// existing values, so shared paths keep them.
func deepMerge(dst, in value.Map, prefix value.Path, r *Result) {
	for _, k := range dst.Keys() {
		if _, ok := in[k]; !ok {
			r.Preserved = append(r.Preserved, leafPaths(prefix.Child(k), dst[k])...)
		}
	}
	for _, k := range in.Keys() {
		path := prefix.Child(k)
		cur, ok := dst[k]
		if !ok {
			dst[k] = in[k].Clone()
			r.New = append(r.New, leafPaths(path, in[k])...)
			continue
		}
		curMap, curIsMap := cur.AsMap()
		inMap, inIsMap := in[k].AsMap()
		if curIsMap && inIsMap {
			deepMerge(curMap, inMap, path, r)
			continue
		}
		r.Preserved = append(r.Preserved, leafPaths(path, cur)...)
		if !cur.Equal(in[k]) {
			r.Stale = append(r.Stale, path.String())
		}
	}
}

func leafPaths(path value.Path, v value.Value) []string {
	m, ok := v.AsMap()
	if !ok {
		return []string{path.String()}
	}
	var out []string
	for k := range value.Leaves(m) {
		out = append(out, path.String()+"."+k)
	}
	return out
}

// Missing returns the leaf paths of incoming that need a fresh value in a
// non-authoring locale: every path under replace, otherwise only the paths
// absent from existing.
func Missing(existing, incoming value.Map, mode Mode) []string {
	var out []string
	for path := range value.Leaves(incoming) {
		if mode != ModeReplace {
			if _, ok := existing.Lookup(value.ParsePath(path)); ok {
				continue
			}
		}
		out = append(out, path)
	}
	slices.Sort(out)
	return out
}
