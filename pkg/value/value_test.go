package value

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sample() Map {
	return Map{
		"title": String("Launch Faster"),
		"count": Int(3),
		"dark":  Bool(true),
		"items": List(
			Object(Map{"label": String("One"), "href": String("/one")}),
			Object(Map{"label": String("Two")}),
		),
		"empty": Null(),
	}
}

func TestZeroValueIsNull(t *testing.T) {
	var v Value
	if !v.IsNull() || v.Kind() != KindNull {
		t.Errorf("zero Value kind = %v, want null", v.Kind())
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := sample()
	c := orig.Clone()
	if !orig.Equal(c) {
		t.Fatal("clone should equal original")
	}

	items, _ := c["items"].AsList()
	first, _ := items[0].AsMap()
	first["label"] = String("changed")

	origItems, _ := orig["items"].AsList()
	origFirst, _ := origItems[0].AsMap()
	if s, _ := origFirst["label"].AsString(); s != "One" {
		t.Errorf("mutating clone leaked into original: %q", s)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null", Null(), Null(), true},
		{"string", String("a"), String("a"), true},
		{"string differs", String("a"), String("b"), false},
		{"kind differs", String("1"), Int(1), false},
		{"list order", List(Int(1), Int(2)), List(Int(2), Int(1)), false},
		{"map", Object(Map{"a": Bool(true)}), Object(Map{"a": Bool(true)}), true},
		{"map extra key", Object(Map{"a": Bool(true)}), Object(Map{"a": Bool(true), "b": Null()}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJSONIsSortedAndStable(t *testing.T) {
	data, err := json.Marshal(Object(sample()))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"count":3,"dark":true,"empty":null,"items":[{"href":"/one","label":"One"},{"label":"Two"}],"title":"Launch Faster"}`
	if string(data) != want {
		t.Errorf("json = %s\nwant   %s", data, want)
	}

	var back Value
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(Object(sample())) {
		t.Errorf("decoded value differs: %s", back)
	}
}

func TestFromAny(t *testing.T) {
	in := map[string]any{
		"n":    int64(7),
		"f":    1.5,
		"tags": []any{"a", "b"},
		"rows": []map[string]any{{"x": true}},
		"raw":  json.Number("42"),
	}
	m, err := MapFromAny(in)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]any{
		"n":    float64(7),
		"f":    1.5,
		"tags": []any{"a", "b"},
		"rows": []any{map[string]any{"x": true}},
		"raw":  float64(42),
	}, m.Any()); diff != "" {
		t.Errorf("MapFromAny mismatch (-want +got):\n%s", diff)
	}

	if _, err := FromAny(struct{}{}); err == nil {
		t.Error("unsupported types should fail")
	}
}

func TestWalkOrderAndPaths(t *testing.T) {
	var got []string
	err := WalkMap(sample(), func(path Path, v Value) error {
		got = append(got, path.String()+"="+v.Kind().String())
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"count=number",
		"dark=bool",
		"empty=null",
		"items=list",
		"items.0=map",
		"items.0.href=string",
		"items.0.label=string",
		"items.1=map",
		"items.1.label=string",
		"title=string",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkSkipAndStop(t *testing.T) {
	var visited int
	_ = WalkMap(sample(), func(path Path, v Value) error {
		visited++
		if path.String() == "items" {
			return SkipChildren
		}
		return nil
	})
	if visited != 5 {
		t.Errorf("visited = %d, want 5 with items pruned", visited)
	}

	stop := errors.New("stop")
	err := WalkMap(sample(), func(path Path, v Value) error {
		if path.String() == "dark" {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("Walk error = %v, want stop", err)
	}
}

func TestLookupAndSet(t *testing.T) {
	m := sample()
	v, ok := m.Lookup(ParsePath("items.1.label"))
	if s, _ := v.AsString(); !ok || s != "Two" {
		t.Errorf("Lookup items.1.label = %v, %v", v, ok)
	}
	if _, ok := m.Lookup(ParsePath("items.9.label")); ok {
		t.Error("out of range index should not resolve")
	}

	out := Map{}
	out.Set(ParsePath("a.b.c"), String("x"))
	out.Set(ParsePath("a.d"), Int(1))
	want := map[string]any{"a": map[string]any{"b": map[string]any{"c": "x"}, "d": float64(1)}}
	if diff := cmp.Diff(want, out.Any()); diff != "" {
		t.Errorf("Set mismatch (-want +got):\n%s", diff)
	}
}

func TestLeaves(t *testing.T) {
	leaves := Leaves(sample())
	if len(leaves) != 7 {
		t.Errorf("len(Leaves) = %d, want 7", len(leaves))
	}
	if s, _ := leaves["items.0.href"].AsString(); s != "/one" {
		t.Errorf("items.0.href = %q", s)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := map[float64]string{3: "3", 2.5: "2.5", -0.125: "-0.125", 1e6: "1000000"}
	for in, want := range tests {
		if got := FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestCheckKeys(t *testing.T) {
	tests := []struct {
		name    string
		m       Map
		wantKey string
		wantErr bool
	}{
		{"flat", Map{"title": String("Hi")}, "", false},
		{"nested", Map{"cta": Object(Map{"label": String("Go")})}, "", false},
		{"dotted top level", Map{"cta.label": String("Go")}, "cta.label", true},
		{"dotted nested", Map{"cta": Object(Map{"a.b": String("x")})}, "a.b", true},
		{"dotted inside list", Map{"items": List(Object(Map{"x.y": Int(1)}))}, "x.y", true},
		{"empty key", Map{"": String("x")}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckKeys(tt.m)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckKeys() = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var ke *KeyError
			if !errors.As(err, &ke) {
				t.Fatalf("error %T is not a *KeyError", err)
			}
			if ke.Key != tt.wantKey {
				t.Errorf("Key = %q, want %q", ke.Key, tt.wantKey)
			}
		})
	}
}
