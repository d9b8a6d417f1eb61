package registry

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/value"
)

func validSchema(typ string) Schema {
	return Schema{
		Type:       typ,
		Name:       "Logo Cloud",
		Category:   "social",
		Tags:       []string{"logos"},
		Defaults:   value.Map{"heading": value.String("Trusted by")},
		Properties: map[string]Property{"heading": {Kind: KindText}},
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Schema)
	}{
		{"missing type", func(s *Schema) { s.Type = "" }},
		{"bad type", func(s *Schema) { s.Type = "Logo Cloud" }},
		{"missing name", func(s *Schema) { s.Name = "  " }},
		{"missing category", func(s *Schema) { s.Category = "" }},
		{"missing properties", func(s *Schema) { s.Properties = nil }},
		{"missing defaults", func(s *Schema) { s.Defaults = nil }},
		{"dotted default key", func(s *Schema) { s.Defaults["cta.label"] = value.String("Go") }},
		{"nested dotted default key", func(s *Schema) {
			s.Defaults["cta"] = value.Object(value.Map{"a.b": value.String("Go")})
		}},
		{"bad position", func(s *Schema) { s.Position = "middle" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSchema("logo-cloud")
			tt.mutate(&s)
			r := New()
			err := r.Register(s)
			if !errors.Is(err, errors.ErrCodeValidation) {
				t.Fatalf("Register() error = %v, want VALIDATION", err)
			}
			if r.Len() != 0 {
				t.Errorf("invalid schema was stored")
			}
		})
	}
}

func TestRegisterDefaultsPositionAndOverwrites(t *testing.T) {
	r := New()
	if err := r.Register(validSchema("logo-cloud")); err != nil {
		t.Fatal(err)
	}
	got, ok := r.Get("logo-cloud")
	if !ok {
		t.Fatal("schema not found")
	}
	if got.Position != PositionFlexible {
		t.Errorf("Position = %q, want flexible", got.Position)
	}

	second := validSchema("logo-cloud")
	second.Name = "Customer Logos"
	second.Position = PositionBottom
	if err := r.Register(second); err != nil {
		t.Fatal(err)
	}
	got, _ = r.Get("logo-cloud")
	if got.Name != "Customer Logos" || got.Position != PositionBottom {
		t.Errorf("overwrite not applied: %+v", got)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegisteredSchemasAreIsolated(t *testing.T) {
	r := New()
	s := validSchema("logo-cloud")
	if err := r.Register(s); err != nil {
		t.Fatal(err)
	}
	s.Defaults["heading"] = value.String("mutated")
	s.Tags[0] = "mutated"

	got, _ := r.Get("logo-cloud")
	if h, _ := got.Defaults["heading"].AsString(); h != "Trusted by" {
		t.Errorf("caller mutation leaked into registry: %q", h)
	}
	got.Defaults["heading"] = value.String("also mutated")
	again, _ := r.Get("logo-cloud")
	if h, _ := again.Defaults["heading"].AsString(); h != "Trusted by" {
		t.Errorf("Get result aliases stored schema: %q", h)
	}
	if again.Tags[0] != "logos" {
		t.Errorf("tags aliased: %v", again.Tags)
	}
}

func names(schemas []Schema) []string {
	out := make([]string, len(schemas))
	for i, s := range schemas {
		out[i] = s.Type
	}
	return out
}

func TestBuiltinCatalog(t *testing.T) {
	r := Builtin()
	want := []string{
		"announcement", "contact", "cta", "faq", "features", "footer",
		"gallery", "header", "hero", "pricing", "testimonials",
	}
	if diff := cmp.Diff(want, r.Types()); diff != "" {
		t.Errorf("Types() mismatch (-want +got):\n%s", diff)
	}

	positions := map[string]Position{"header": PositionTop, "hero": PositionFlexible, "footer": PositionBottom}
	for typ, pos := range positions {
		s, _ := r.Get(typ)
		if s.Position != pos {
			t.Errorf("%s position = %q, want %q", typ, s.Position, pos)
		}
	}

	pricing, _ := r.Get("pricing")
	if pricing.Integration != IntegrationPayment {
		t.Errorf("pricing integration = %q", pricing.Integration)
	}
	if pricing.ComponentName() != "Pricing" {
		t.Errorf("ComponentName() = %q", pricing.ComponentName())
	}
}

func TestByCategoryAndCategories(t *testing.T) {
	r := Builtin()
	got := names(r.ByCategory("NAVIGATION"))
	if diff := cmp.Diff([]string{"announcement", "footer", "header"}, got); diff != "" {
		t.Errorf("ByCategory mismatch (-want +got):\n%s", diff)
	}
	if len(r.ByCategory("unknown")) != 0 {
		t.Error("unknown category should be empty")
	}
	want := []string{CategoryCommerce, CategoryContent, CategoryForms, CategoryNavigation, CategorySocial}
	if diff := cmp.Diff(want, r.Categories()); diff != "" {
		t.Errorf("Categories mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch(t *testing.T) {
	r := Builtin()
	tests := []struct {
		query string
		want  []string
	}{
		{"PRICING", []string{"pricing"}},
		{"social proof", []string{"testimonials"}},
		{"banner", []string{"announcement", "hero"}},
		{"nothing-matches-this", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := names(r.Search(tt.query))
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Search(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
	if len(r.Search("")) != r.Len() {
		t.Error("empty query should return everything")
	}
}

func TestTranslatable(t *testing.T) {
	tests := map[PropertyKind]bool{
		KindText: true, KindRichText: true, KindList: true, KindObject: true, "custom": true,
		KindURL: false, KindColor: false, KindEnum: false, KindIcon: false, KindID: false, KindClass: false,
	}
	for kind, want := range tests {
		if got := (Property{Kind: kind}).Translatable(); got != want {
			t.Errorf("%s.Translatable() = %v, want %v", kind, got, want)
		}
	}
}

func TestPascalCase(t *testing.T) {
	tests := map[string]string{
		"hero":             "Hero",
		"announcement-bar": "AnnouncementBar",
		"logo_cloud":       "LogoCloud",
		"cta":              "Cta",
	}
	for in, want := range tests {
		if got := PascalCase(in); got != want {
			t.Errorf("PascalCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConcurrentReaders(t *testing.T) {
	r := Builtin()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = r.Search("hero")
				_, _ = r.Get("footer")
			}
		}()
	}
	for i := 0; i < 20; i++ {
		_ = r.Register(validSchema("logo-cloud"))
	}
	wg.Wait()
}

const catalogTOML = `
[[component]]
type = "logo-cloud"
name = "Logo Cloud"
category = "social"
tags = ["logos", "customers"]

[component.defaults]
heading = "Trusted by"
logos = ["/a.svg", "/b.svg"]
grayscale = true

[component.properties.heading]
kind = "text"

[component.properties.logos]
kind = "image"

[[component]]
type = "hero"
name = "Split Hero"
category = "content"
component = "SplitHero"

[component.defaults]
title = "Hello"

[component.properties.title]
kind = "text"
`

func TestLoadTOML(t *testing.T) {
	r := Builtin()
	types, err := r.LoadTOML(strings.NewReader(catalogTOML))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"logo-cloud", "hero"}, types); diff != "" {
		t.Errorf("loaded types mismatch (-want +got):\n%s", diff)
	}

	logos, ok := r.Get("logo-cloud")
	if !ok {
		t.Fatal("logo-cloud not registered")
	}
	wantDefaults := map[string]any{
		"heading":   "Trusted by",
		"logos":     []any{"/a.svg", "/b.svg"},
		"grayscale": true,
	}
	if diff := cmp.Diff(wantDefaults, logos.Defaults.Any()); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	if p, _ := logos.Property("logos"); p.Translatable() {
		t.Error("image property should not be translatable")
	}

	hero, _ := r.Get("hero")
	if hero.ComponentName() != "SplitHero" {
		t.Errorf("override not applied: %q", hero.ComponentName())
	}
}

func TestLoadTOMLRejectsInvalidEntries(t *testing.T) {
	r := New()
	_, err := r.LoadTOML(strings.NewReader(`
[[component]]
type = "ok"
name = "Ok"
category = "content"
[component.defaults]
a = "b"
[component.properties.a]
kind = "text"

[[component]]
type = "broken"
name = "Broken"
`))
	if !errors.Is(err, errors.ErrCodeValidation) {
		t.Fatalf("LoadTOML() error = %v, want VALIDATION", err)
	}
	if r.Len() != 0 {
		t.Errorf("partial catalog registered %d schemas", r.Len())
	}

	if _, err := r.LoadTOML(strings.NewReader("[[component]\n")); err == nil {
		t.Error("malformed TOML should fail")
	}
}
