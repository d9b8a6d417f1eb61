package merge

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/value"
)

func obj(m map[string]any) value.Map {
	out, err := value.MapFromAny(m)
	if err != nil {
		panic(err)
	}
	return out
}

// Smart mode keeps the existing French title.
func TestSmartKeepsExisting(t *testing.T) {
	existing := obj(map[string]any{"hero_x": map[string]any{"title": "Lancer plus vite"}})
	incoming := obj(map[string]any{"hero_x": map[string]any{"title": "Launch Faster"}})

	r := Merge(existing, incoming, ModeSmart)
	got, _ := r.Merged.Lookup(value.ParsePath("hero_x.title"))
	if s, _ := got.AsString(); s != "Lancer plus vite" {
		t.Errorf("merged title = %q, want existing value", s)
	}
	if diff := cmp.Diff([]string{"hero_x.title"}, r.Stale); diff != "" {
		t.Errorf("Stale mismatch (-want +got):\n%s", diff)
	}
	if len(r.New) != 0 || r.Changed() {
		t.Errorf("unexpected change: %+v", r)
	}
}

func TestMergeAddsAndPreserves(t *testing.T) {
	existing := obj(map[string]any{
		"title": "Titre",
		"cta":   map[string]any{"label": "Commencer"},
		"old":   "Ancien",
	})
	incoming := obj(map[string]any{
		"title":    "Title",
		"subtitle": "Subtitle",
		"cta":      map[string]any{"label": "Start", "note": "No card"},
	})

	for _, mode := range []Mode{ModeMerge, ModeSmart} {
		r := Merge(existing, incoming, mode)
		want := map[string]any{
			"title":    "Titre",
			"subtitle": "Subtitle",
			"cta":      map[string]any{"label": "Commencer", "note": "No card"},
			"old":      "Ancien",
		}
		if diff := cmp.Diff(want, r.Merged.Any()); diff != "" {
			t.Errorf("%s: merged mismatch (-want +got):\n%s", mode, diff)
		}
		if diff := cmp.Diff([]string{"cta.note", "subtitle"}, r.New); diff != "" {
			t.Errorf("%s: New mismatch (-want +got):\n%s", mode, diff)
		}
		if diff := cmp.Diff([]string{"cta.label", "old", "title"}, r.Preserved); diff != "" {
			t.Errorf("%s: Preserved mismatch (-want +got):\n%s", mode, diff)
		}
		if diff := cmp.Diff([]string{"cta.label", "title"}, r.Stale); diff != "" {
			t.Errorf("%s: Stale mismatch (-want +got):\n%s", mode, diff)
		}
	}

	if s, _ := existing["title"].AsString(); s != "Titre" {
		t.Error("existing map was modified")
	}
	if _, ok := existing["subtitle"]; ok {
		t.Error("existing map gained keys")
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	existing := obj(map[string]any{"a": "1x", "b": map[string]any{"c": "keep"}})
	incoming := obj(map[string]any{"a": "one", "b": map[string]any{"c": "new", "d": "dee"}, "e": "eee"})

	for _, mode := range []Mode{ModeMerge, ModeSmart} {
		once := Merge(existing, incoming, mode)
		twice := Merge(once.Merged, incoming, mode)
		if !once.Merged.Equal(twice.Merged) {
			t.Errorf("%s: second merge changed the result", mode)
		}
		if twice.Changed() {
			t.Errorf("%s: second merge reported changes: %v", mode, twice.New)
		}
	}
}

func TestReplace(t *testing.T) {
	existing := obj(map[string]any{"title": "Titre", "old": "Ancien", "same": "Pareil"})
	incoming := obj(map[string]any{"title": "Title", "same": "Pareil", "fresh": "New"})

	r := Merge(existing, incoming, ModeReplace)
	if !r.Merged.Equal(incoming) {
		t.Errorf("replace did not overwrite: %v", r.Merged.Any())
	}
	if diff := cmp.Diff([]string{"old", "title"}, r.Replaced); diff != "" {
		t.Errorf("Replaced mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"fresh"}, r.New); diff != "" {
		t.Errorf("New mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"same"}, r.Preserved); diff != "" {
		t.Errorf("Preserved mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeTypeConflictKeepsExisting(t *testing.T) {
	existing := obj(map[string]any{"cta": "Go"})
	incoming := obj(map[string]any{"cta": map[string]any{"label": "Go"}})
	r := Merge(existing, incoming, ModeSmart)
	if s, _ := r.Merged["cta"].AsString(); s != "Go" {
		t.Errorf("existing leaf replaced by map: %v", r.Merged.Any())
	}
	if diff := cmp.Diff([]string{"cta"}, r.Stale); diff != "" {
		t.Errorf("Stale mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeNilInputs(t *testing.T) {
	r := Merge(nil, obj(map[string]any{"a": "b"}), ModeSmart)
	if diff := cmp.Diff([]string{"a"}, r.New); diff != "" {
		t.Errorf("New mismatch (-want +got):\n%s", diff)
	}
	r = Merge(obj(map[string]any{"a": "b"}), nil, ModeReplace)
	if len(r.Merged) != 0 || len(r.Replaced) != 1 {
		t.Errorf("replace with empty incoming: %+v", r)
	}
}

func TestMissing(t *testing.T) {
	existing := obj(map[string]any{"title": "Titre", "items": map[string]any{"0": map[string]any{"body": "Rapide"}}})
	incoming := obj(map[string]any{
		"title":    "Title",
		"subtitle": "Subtitle",
		"items":    map[string]any{"0": map[string]any{"body": "Fast"}, "1": map[string]any{"body": "Global"}},
	})
	if diff := cmp.Diff([]string{"items.1.body", "subtitle"}, Missing(existing, incoming, ModeSmart)); diff != "" {
		t.Errorf("Missing(smart) mismatch (-want +got):\n%s", diff)
	}
	if got := Missing(existing, incoming, ModeReplace); len(got) != 4 {
		t.Errorf("Missing(replace) = %v, want every path", got)
	}
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{"": ModeSmart, "replace": ModeReplace, " Merge ": ModeMerge, "SMART": ModeSmart}
	for in, want := range tests {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("overwrite"); !errors.Is(err, errors.ErrCodeInvalidMode) {
		t.Errorf("ParseMode(overwrite) error = %v", err)
	}
}
