package i18n

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/value"
)

func TestSplitKey(t *testing.T) {
	tests := []struct {
		key  string
		ns   string
		path string
	}{
		{"hero_abc.title", "hero_abc", "title"},
		{"features_x.items.0.body", "features_x", "items.0.body"},
		{"bare", "bare", ""},
	}
	for _, tt := range tests {
		ns, path := SplitKey(tt.key)
		if ns != tt.ns || path.String() != tt.path {
			t.Errorf("SplitKey(%q) = %q, %q", tt.key, ns, path)
		}
		if tt.path != "" && Key(ns, path) != tt.key {
			t.Errorf("Key(%q, %q) does not round trip", ns, path)
		}
	}
}

func TestGroupAndFlatten(t *testing.T) {
	flat := map[string]string{
		"hero_a.title":            "Launch Faster",
		"hero_a.cta.label":        "Get started",
		"features_b.items.0.body": "Fast",
		"features_b.items.1.body": "Global",
	}
	c := Group(flat)
	if diff := cmp.Diff([]string{"features_b", "hero_a"}, c.Namespaces()); diff != "" {
		t.Errorf("namespaces mismatch (-want +got):\n%s", diff)
	}
	want := map[string]any{
		"items": map[string]any{
			"0": map[string]any{"body": "Fast"},
			"1": map[string]any{"body": "Global"},
		},
	}
	if diff := cmp.Diff(want, c["features_b"].Any()); diff != "" {
		t.Errorf("nested mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(flat, c.Flatten()); diff != "" {
		t.Errorf("Flatten mismatch (-want +got):\n%s", diff)
	}
	if text, ok := c.Lookup("hero_a.cta.label"); !ok || text != "Get started" {
		t.Errorf("Lookup = %q, %v", text, ok)
	}
	if _, ok := c.Lookup("hero_a.missing"); ok {
		t.Error("missing key resolved")
	}
}

func TestFlattenSkipsNonStrings(t *testing.T) {
	m := value.Map{"a": value.String("x"), "n": value.Int(1), "b": value.Object(value.Map{"c": value.Bool(true)})}
	if diff := cmp.Diff(map[string]string{"a": "x"}, Flatten(m)); diff != "" {
		t.Errorf("Flatten mismatch (-want +got):\n%s", diff)
	}
	back := Unflatten(map[string]string{"a.b": "x", "a.c": "y"})
	if diff := cmp.Diff(map[string]any{"a": map[string]any{"b": "x", "c": "y"}}, back.Any()); diff != "" {
		t.Errorf("Unflatten mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLocale(t *testing.T) {
	tests := map[string]string{"en": "en", "fr-FR": "fr-FR", "pt-br": "pt-BR", "zh-hant": "zh-Hant"}
	for in, want := range tests {
		got, err := ParseLocale(in)
		if err != nil || got != want {
			t.Errorf("ParseLocale(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, bad := range []string{"", "not a locale", "toolongsubtag"} {
		if _, err := ParseLocale(bad); !errors.Is(err, errors.ErrCodeInvalidLocale) {
			t.Errorf("ParseLocale(%q) error = %v", bad, err)
		}
	}
}
